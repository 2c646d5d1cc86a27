// Package ast declares the types used to represent parsed ledger files.
//
// These types model the directives, transactions, and related elements that
// make up a ledger. An ast can be created by parsing a file with the parser
// package, or constructed programmatically via the builders.
package ast

import (
	"golang.org/x/exp/slices"
)

// Directives is a slice of Directive that implements sort.Interface.
type Directives []Directive

func (d Directives) Len() int           { return len(d) }
func (d Directives) Swap(i, j int)      { d[i], d[j] = d[j], d[i] }
func (d Directives) Less(i, j int) bool { return CompareDirectives(d[i], d[j]) < 0 }

// CompareDirectives compares two directives by their resolved UTC instant,
// then by type priority. Returns -1 if a < b, 0 if a == b, 1 if a > b.
//
// For same-instant directives, the processing order is:
//  1. Open (accounts must be opened before use)
//  2. Close (process closes before transactions that might use closed accounts)
//  3. All other directives (transactions, balance, currency)
func CompareDirectives(a, b Directive) int {
	at, bt := a.Date().Instant, b.Date().Instant
	if at.Before(bt) {
		return -1
	} else if at.After(bt) {
		return 1
	}

	aPriority := directiveTypePriority(a)
	bPriority := directiveTypePriority(b)
	if aPriority < bPriority {
		return -1
	} else if aPriority > bPriority {
		return 1
	}

	return 0
}

// directiveTypePriority returns the processing priority for a directive type.
// Lower numbers are processed first.
func directiveTypePriority(d Directive) int {
	switch d.(type) {
	case *Open:
		return 0
	case *Close:
		return 1
	default:
		return 2
	}
}

// Ledger represents a fully loaded ledger: the time-ordered directives of the
// root file and all its includes, plus the top-level option and include nodes
// for tooling that wants to inspect them. Each directive already carries its
// resolved UTC instant and frozen option-map snapshot.
type Ledger struct {
	Directives Directives
	Options    []*Option
	Includes   []*Include

	// Files lists the absolute paths of every loaded file (root first),
	// for tooling that watches the ledger on disk.
	Files []string
}

// File represents a single parsed source file before loading: directives in
// file order, with options and includes still interleaved by position. The
// loader walks files in source order to snapshot options and resolve
// includes, then sorts the merged result.
type File struct {
	Directives Directives
	Options    []*Option
	Includes   []*Include
}

func isSorted(d Directives) bool {
	for i := 1; i < len(d); i++ {
		if d.Less(i, i-1) {
			return false
		}
	}
	return true
}

// SortDirectives sorts all directives by their resolved instant, keeping file
// order for equal keys. This is called by the loader, but can be called on a
// manually constructed directive list.
func SortDirectives(d Directives) {
	// Skip sorting if already sorted (common case for well-maintained files)
	if isSorted(d) {
		return
	}

	slices.SortStableFunc(d, CompareDirectives)
}
