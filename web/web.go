// Package web provides an HTTP server exposing a booked ledger as a JSON
// API, with live reloading when the ledger files change on disk.
//
// SECURITY WARNING: This server has no authentication and should only be
// bound to localhost (127.0.0.1). Do not expose it to untrusted networks.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	lberrors "github.com/avandenberg/ledgerbook/errors"
	"github.com/avandenberg/ledgerbook/ledger"
	"github.com/avandenberg/ledgerbook/loader"
	"github.com/avandenberg/ledgerbook/telemetry"
)

// Server serves the booked ledger over HTTP. A successful reload swaps in a
// complete immutable snapshot, so request handlers never observe a
// half-booked state.
type Server struct {
	Port         int
	Host         string
	WatchEnabled bool

	// inputFile is the file path passed to New(), used for loading.
	inputFile string

	mu       sync.RWMutex
	snapshot *snapshot
}

// snapshot is one fully loaded and booked generation of the ledger.
type snapshot struct {
	booked *ledger.BookedLedger
	err    error     // load or booking error, nil when booked is usable
	files  []string  // absolute paths of the root file and its includes
	loaded time.Time // when this generation was produced
}

// New creates a server for the given ledger file, bound to localhost.
func New(port int, ledgerFile string) *Server {
	return &Server{
		Port:         port,
		Host:         "127.0.0.1",
		WatchEnabled: true,
		inputFile:    ledgerFile,
	}
}

// Start loads the ledger, begins watching it, and serves until the context
// is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	timer := telemetry.StartTimer(ctx, fmt.Sprintf("web.start %s:%d", s.Host, s.Port))
	defer timer.End()

	if s.inputFile == "" {
		return fmt.Errorf("ledger file is required")
	}

	if err := s.reload(ctx); err != nil {
		return fmt.Errorf("failed to load ledger: %w", err)
	}

	if s.WatchEnabled {
		if err := s.startWatcher(ctx); err != nil {
			return fmt.Errorf("failed to start file watcher: %w", err)
		}
	}

	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	server := &http.Server{Addr: addr, Handler: s.router()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// router builds the chi route tree with request logging and permissive
// localhost cors, so local frontends on other ports can read the API.
func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/accounts", s.handleAccounts)
		r.Get("/balances", s.handleBalances)
		r.Get("/journal", s.handleJournal)
		r.Get("/errors", s.handleErrors)
	})

	return r
}

// reload loads and books the ledger, swapping in the new snapshot. A load
// failure keeps the previous snapshot's data but records the error.
func (s *Server) reload(ctx context.Context) error {
	ldr := loader.New(loader.WithFollowIncludes())

	var snap snapshot
	snap.loaded = time.Now()

	ldg, err := ldr.Load(ctx, s.inputFile)
	if err != nil {
		snap.err = err
	} else {
		snap.files = ldg.Files
		snap.booked, snap.err = ledger.Book(ctx, ldg)
	}

	if snap.files == nil {
		if abs, aerr := filepath.Abs(s.inputFile); aerr == nil {
			snap.files = []string{abs}
		}
	}

	s.mu.Lock()
	if snap.booked == nil && s.snapshot != nil {
		// Keep serving the last good booking alongside the new error.
		snap.booked = s.snapshot.booked
	}
	s.snapshot = &snap
	s.mu.Unlock()

	return nil
}

// current returns the active snapshot.
func (s *Server) current() *snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// startWatcher watches the root file and all includes, rebooking on change.
func (s *Server) startWatcher(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	for _, file := range s.current().files {
		if err := watcher.Add(file); err != nil {
			log.Printf("Warning: failed to watch %s: %v", file, err)
		}
	}

	go s.runWatcher(ctx, watcher)

	return nil
}

// runWatcher processes file system events with debouncing.
func (s *Server) runWatcher(ctx context.Context, watcher *fsnotify.Watcher) {
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		_ = watcher.Close()
	}()

	// Debounce timer - editors often write files in multiple steps
	const debounceDelay = 100 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			// Remove/Rename are common in atomic saves
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}

			debounceTimer = time.AfterFunc(debounceDelay, func() {
				s.handleFileChange(ctx, watcher)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("File watcher error: %v", err)
		}
	}
}

// handleFileChange reloads the ledger and updates the watch list, since the
// include set may have changed.
func (s *Server) handleFileChange(ctx context.Context, watcher *fsnotify.Watcher) {
	oldFiles := map[string]bool{}
	for _, f := range s.current().files {
		oldFiles[f] = true
	}

	if err := s.reload(ctx); err != nil {
		log.Printf("Failed to reload ledger: %v", err)
		return
	}

	newFiles := map[string]bool{}
	for _, f := range s.current().files {
		newFiles[f] = true
	}

	for file := range oldFiles {
		if !newFiles[file] {
			_ = watcher.Remove(file)
		}
	}

	// Re-add current files to catch re-created ones
	for file := range newFiles {
		if err := watcher.Add(file); err != nil {
			log.Printf("Warning: failed to watch %s: %v", file, err)
		}
	}

	log.Printf("Reloaded %s", s.inputFile)
}

// JSON payloads.

type accountJSON struct {
	Name       string   `json:"name"`
	Status     string   `json:"status"`
	Currencies []string `json:"currencies,omitempty"`
}

type positionJSON struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	Cost     string `json:"cost,omitempty"`
}

type postingJSON struct {
	Account  string `json:"account"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	Cost     string `json:"cost,omitempty"`
}

type transactionJSON struct {
	Date        string        `json:"date"`
	Flag        string        `json:"flag,omitempty"`
	Description string        `json:"description"`
	Postings    []postingJSON `json:"postings"`
}

func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	snap := s.current()
	if snap.booked == nil {
		writeError(w, snap.err)
		return
	}

	accounts := make([]accountJSON, 0, len(snap.booked.Accounts))
	for name, state := range snap.booked.Accounts {
		accounts = append(accounts, accountJSON{
			Name:       string(name),
			Status:     state.Status.String(),
			Currencies: state.Currencies,
		})
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Name < accounts[j].Name })

	writeJSON(w, accounts)
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	snap := s.current()
	if snap.booked == nil {
		writeError(w, snap.err)
		return
	}

	balances := make(map[string][]positionJSON, len(snap.booked.Inventories))
	for account, inv := range snap.booked.Inventories {
		if inv.IsEmpty() {
			continue
		}
		positions := make([]positionJSON, 0, inv.Len())
		for _, p := range inv.Positions() {
			pj := positionJSON{Amount: p.Amount.ValueString(), Currency: p.Amount.Currency}
			if p.Cost != nil {
				pj.Cost = p.Cost.String()
			}
			positions = append(positions, pj)
		}
		balances[string(account)] = positions
	}

	writeJSON(w, balances)
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	snap := s.current()
	if snap.booked == nil {
		writeError(w, snap.err)
		return
	}

	transactions := make([]transactionJSON, 0, len(snap.booked.Transactions))
	for _, txn := range snap.booked.Transactions {
		tj := transactionJSON{
			Date:        txn.Date.Format(time.RFC3339),
			Flag:        txn.Flag,
			Description: txn.Description,
			Postings:    make([]postingJSON, 0, len(txn.Postings)),
		}
		for _, p := range txn.Postings {
			pj := postingJSON{
				Account:  string(p.Account),
				Amount:   p.Amount.ValueString(),
				Currency: p.Amount.Currency,
			}
			if p.Cost != nil {
				pj.Cost = p.Cost.String()
			}
			tj.Postings = append(tj.Postings, pj)
		}
		transactions = append(transactions, tj)
	}

	writeJSON(w, transactions)
}

func (s *Server) handleErrors(w http.ResponseWriter, r *http.Request) {
	snap := s.current()

	formatter := lberrors.NewJSONFormatter()
	if snap.err == nil {
		writeJSON(w, []lberrors.ErrorJSON{})
		return
	}
	writeJSON(w, formatter.FormatAllToSlice([]error{snap.err}))
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	msg := "ledger not loaded"
	if err != nil {
		msg = err.Error()
	}
	http.Error(w, msg, http.StatusServiceUnavailable)
}
