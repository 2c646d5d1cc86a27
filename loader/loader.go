// Package loader provides functionality for loading ledger files with
// support for include directives. It recursively resolves and merges
// multiple files into a single time-ordered ledger.
//
// The loader is responsible for everything between the parser and the
// booking engine:
//   - include resolution (relative paths, cycle detection)
//   - option-map snapshotting: every directive receives the frozen options
//     in effect at its source position, in file order with includes inlined
//     at the include point
//   - date normalization: bare dates resolve to midnight in the
//     default-timezone option's zone (UTC when unset); explicit zones win
//   - the final stable sort by UTC instant
//
// Example usage:
//
//	ldr := loader.New(loader.WithFollowIncludes())
//	ledger, err := ldr.Load(ctx, "main.ledger")
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/avandenberg/ledgerbook/ast"
	"github.com/avandenberg/ledgerbook/parser"
	"github.com/avandenberg/ledgerbook/telemetry"
)

// Loader handles loading and parsing of ledger files with optional include
// resolution. Configure it using functional options passed to New.
type Loader struct {
	// FollowIncludes determines whether to recursively load included files.
	// When false, only the specified file is parsed and the include nodes
	// are preserved on the returned ledger.
	FollowIncludes bool
}

// Option configures how files are loaded.
type Option func(*Loader)

// WithFollowIncludes configures the loader to recursively load and merge all
// included files. Relative paths are resolved from the directory of the
// including file; a file included twice is loaded once; a circular include
// is an error.
func WithFollowIncludes() Option {
	return func(l *Loader) {
		l.FollowIncludes = true
	}
}

// New creates a new Loader with the given options.
func New(opts ...Option) *Loader {
	l := &Loader{}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// IncludeCycleError is returned when include directives form a cycle.
type IncludeCycleError struct {
	Chain []string
}

func (e *IncludeCycleError) Error() string {
	return fmt.Sprintf("include cycle: %s", strings.Join(e.Chain, " -> "))
}

// Load parses a ledger file with optional recursive include resolution.
func (l *Loader) Load(ctx context.Context, filename string) (*ast.Ledger, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	return l.LoadBytes(ctx, filename, data)
}

// LoadBytes parses a ledger from an in-memory buffer, attaching the given
// filename for error reporting and relative include resolution.
func (l *Loader) LoadBytes(ctx context.Context, filename string, data []byte) (*ast.Ledger, error) {
	timer := telemetry.StartTimer(ctx, fmt.Sprintf("loader.load %s", filepath.Base(filename)))
	defer timer.End()

	state := &loaderState{
		follow:  l.FollowIncludes,
		visited: make(map[string]bool),
		options: ast.OptionMap{},
		ledger:  &ast.Ledger{},
	}

	if err := state.loadBytes(ctx, filename, data); err != nil {
		return nil, err
	}

	ast.SortDirectives(state.ledger.Directives)

	return state.ledger, nil
}

// loaderState tracks state during recursive loading. The running option map
// is shared across files: an option set in an included file stays in effect
// after the include point, matching file order with includes inlined.
type loaderState struct {
	follow  bool
	visited map[string]bool // absolute paths of completed files
	stack   []string        // active include chain, for cycle detection
	options ast.OptionMap   // current frozen snapshot, replaced on change
	ledger  *ast.Ledger
}

// fileItem is one source-ordered entry of a parsed file: exactly one of the
// fields is set.
type fileItem struct {
	offset    int
	directive ast.Directive
	option    *ast.Option
	include   *ast.Include
}

func (l *loaderState) load(ctx context.Context, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filename, err)
	}
	return l.loadBytes(ctx, filename, data)
}

func (l *loaderState) loadBytes(ctx context.Context, filename string, data []byte) error {
	absPath := filename
	if filepath.IsAbs(filename) || !strings.HasPrefix(filename, "<") {
		if p, err := filepath.Abs(filename); err == nil {
			absPath = p
		}
	}

	for _, active := range l.stack {
		if active == absPath {
			return &IncludeCycleError{Chain: append(append([]string{}, l.stack...), absPath)}
		}
	}
	if l.visited[absPath] {
		// Same file included twice through different paths: load once.
		return nil
	}

	file, err := parser.ParseBytesWithFilename(ctx, filename, data)
	if err != nil {
		return parser.NewParseError(filename, err)
	}

	l.stack = append(l.stack, absPath)
	l.ledger.Files = append(l.ledger.Files, absPath)
	defer func() {
		l.stack = l.stack[:len(l.stack)-1]
		l.visited[absPath] = true
	}()

	baseDir := filepath.Dir(absPath)

	for _, item := range sourceOrder(file) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		switch {
		case item.option != nil:
			l.setOption(item.option)
			l.ledger.Options = append(l.ledger.Options, item.option)

		case item.include != nil:
			if !l.follow {
				l.ledger.Includes = append(l.ledger.Includes, item.include)
				continue
			}

			includePath := item.include.Filename
			if !filepath.IsAbs(includePath) {
				includePath = filepath.Join(baseDir, includePath)
			}

			if err := l.load(ctx, includePath); err != nil {
				if _, ok := err.(*IncludeCycleError); ok {
					return err
				}
				return fmt.Errorf("in file %s: %w", filename, err)
			}

		case item.directive != nil:
			if err := l.adoptDirective(item.directive); err != nil {
				return err
			}
		}
	}

	return nil
}

// sourceOrder interleaves a file's directives, options, and includes by
// their byte offset, restoring source order for the option-snapshot walk.
func sourceOrder(file *ast.File) []fileItem {
	items := make([]fileItem, 0, len(file.Directives)+len(file.Options)+len(file.Includes))

	for _, d := range file.Directives {
		items = append(items, fileItem{offset: d.Position().Offset, directive: d})
	}
	for _, o := range file.Options {
		items = append(items, fileItem{offset: o.Pos.Offset, option: o})
	}
	for _, i := range file.Includes {
		items = append(items, fileItem{offset: i.Pos.Offset, include: i})
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].offset < items[j].offset })
	return items
}

// setOption replaces the running option snapshot. Earlier directives keep
// the map they were handed; later ones see the new frozen copy.
func (l *loaderState) setOption(option *ast.Option) {
	next := make(ast.OptionMap, len(l.options)+1)
	for k, v := range l.options {
		next[k] = v
	}
	next[option.Name] = option.Value
	l.options = next
}

// adoptDirective snapshots the current options onto the directive,
// normalizes its dates against the default-timezone option, and appends it
// to the merged ledger.
func (l *loaderState) adoptDirective(d ast.Directive) error {
	d.SetOptions(l.options)

	zone, err := l.defaultZone()
	if err != nil {
		return err
	}

	if err := resolveDate(d.Date(), zone); err != nil {
		return err
	}

	if txn, ok := d.(*ast.Transaction); ok {
		for _, posting := range txn.Postings {
			if posting.Cost == nil {
				continue
			}
			for _, date := range posting.Cost.Dates {
				if err := resolveDate(date, zone); err != nil {
					return err
				}
			}
		}
	}

	l.ledger.Directives = append(l.ledger.Directives, d)
	return nil
}

// defaultZone resolves the default-timezone option to a location, UTC when
// unset.
func (l *loaderState) defaultZone() (*time.Location, error) {
	name, ok := l.options["default-timezone"]
	if !ok || name == "" {
		return time.UTC, nil
	}

	zone, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid default-timezone %q: %w", name, err)
	}
	return zone, nil
}

// resolveDate re-resolves a date-spec against the default zone. Specs with
// an explicit zone already carry the right instant from the parser.
func resolveDate(spec *ast.DateSpec, zone *time.Location) error {
	if spec == nil || spec.Zone != "" || zone == time.UTC {
		return nil
	}
	return spec.Resolve(zone)
}
