// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package abi

import (
	"fmt"

	"github.com/gobwas/glob"
	"github.com/samber/lo"
)

// Ignore matches the symbols whose changes are accepted.
type Ignore struct {
	globs []glob.Glob
}

// NewIgnore compiles shell-style symbol patterns.
func NewIgnore(patterns []string) (*Ignore, error) {
	ig := &Ignore{}
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", p, err)
		}
		ig.globs = append(ig.globs, g)
	}
	return ig, nil
}

// Match reports whether changes to symbol are ignored.
func (ig *Ignore) Match(symbol string) bool {
	if ig == nil {
		return false
	}
	for _, g := range ig.globs {
		if g.Match(symbol) {
			return true
		}
	}
	return false
}

// Change describes one symbol that differs between two dumps. Ref is nil
// for added symbols, New is nil for removed ones.
type Change struct {
	Symbol  string  `yaml:"symbol"`
	Ignored bool    `yaml:"ignored,omitempty"`
	Ref     *Symbol `yaml:"ref,omitempty"`
	New     *Symbol `yaml:"new,omitempty"`
}

// ModuleChanged reports whether the symbol moved to another module.
func (c Change) ModuleChanged() bool {
	return c.Ref != nil && c.New != nil && c.Ref.Module != c.New.Module
}

// CRCChanged reports whether the symbol version differs.
func (c Change) CRCChanged() bool {
	return c.Ref != nil && c.New != nil && c.Ref.CRC != c.New.CRC
}

// Report is the outcome of comparing a reference dump with a new one. Each
// list is sorted by symbol.
type Report struct {
	Added   []Change `yaml:"added,omitempty"`
	Changed []Change `yaml:"changed,omitempty"`
	Removed []Change `yaml:"removed,omitempty"`
}

// Compare lists the symbols added, changed and removed going from ref to cur.
func Compare(ref, cur *Symbols, ignore *Ignore) *Report {
	report := &Report{}
	for _, name := range cur.Names() {
		n := cur.symbols[name]
		r, ok := ref.symbols[name]
		switch {
		case !ok:
			report.Added = append(report.Added, Change{Symbol: name, Ignored: ignore.Match(name), New: &n})
		case r.Module != n.Module || r.CRC != n.CRC:
			report.Changed = append(report.Changed, Change{Symbol: name, Ignored: ignore.Match(name), Ref: &r, New: &n})
		}
	}
	for _, name := range ref.Names() {
		if _, ok := cur.symbols[name]; ok {
			continue
		}
		r := ref.symbols[name]
		report.Removed = append(report.Removed, Change{Symbol: name, Ignored: ignore.Match(name), Ref: &r})
	}
	return report
}

// Verdict summarizes a report.
type Verdict int

// Verdicts from the most to the least severe.
const (
	Broken Verdict = iota
	ChangesIgnored
	SymbolsAdded
	AdditionsIgnored
	Unchanged
)

var verdictMessages = map[Verdict]string{
	Broken:           "ABI has changed!  Refusing to continue.",
	ChangesIgnored:   "ABI has changed but all changes have been ignored.  Continuing.",
	SymbolsAdded:     "New symbols have been added.  Continuing.",
	AdditionsIgnored: "New symbols have been added but have been ignored.  Continuing.",
	Unchanged:        "No ABI changes.",
}

// NoReferenceMessage is reported when the reference dump cannot be read.
const NoReferenceMessage = "Can't read ABI reference.  ABI not checked!  Continuing."

func (v Verdict) String() string {
	return verdictMessages[v]
}

// Failed reports whether the verdict must stop the build.
func (v Verdict) Failed() bool {
	return v == Broken
}

func effective(changes []Change) int {
	return lo.CountBy(changes, func(c Change) bool { return !c.Ignored })
}

// Verdict classifies the report.
func (r *Report) Verdict() Verdict {
	switch {
	case effective(r.Changed) > 0 || effective(r.Removed) > 0:
		return Broken
	case len(r.Changed) > 0 || len(r.Removed) > 0:
		return ChangesIgnored
	case effective(r.Added) > 0:
		return SymbolsAdded
	case len(r.Added) > 0:
		return AdditionsIgnored
	default:
		return Unchanged
	}
}
