// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package abi compares the exported symbols of two dumps and renders the
// symbols of a dump for humans.
package abi

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/afero"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/DataDog/datadog-modpost/pkg/kmod/module"
	"github.com/DataDog/datadog-modpost/pkg/kmod/registry"
)

// Symbol is an exported symbol as recorded in a dump.
type Symbol struct {
	Name   string `yaml:"-"`
	Module string `yaml:"module"`
	CRC    uint32 `yaml:"crc"`
}

// Symbols is the content of a dump, indexed by symbol and by module.
type Symbols struct {
	symbols map[string]Symbol
	modules map[string]map[string]Symbol
}

// NewSymbols indexes dump entries. A symbol listed twice keeps its last entry.
func NewSymbols(entries []registry.DumpEntry) *Symbols {
	s := &Symbols{
		symbols: make(map[string]Symbol),
		modules: make(map[string]map[string]Symbol),
	}
	for _, e := range entries {
		sym := Symbol{Name: e.Symbol, Module: e.Module, CRC: e.CRC}
		s.symbols[sym.Name] = sym
		if s.modules[sym.Module] == nil {
			s.modules[sym.Module] = make(map[string]Symbol)
		}
		s.modules[sym.Module][sym.Name] = sym
	}
	return s
}

// ReadSymbols reads the dump at path on fs.
func ReadSymbols(fs afero.Fs, path string) (*Symbols, error) {
	entries, err := registry.ReadDump(fs, path)
	if err != nil {
		return nil, err
	}
	return NewSymbols(entries), nil
}

// Len returns the number of distinct symbols.
func (s *Symbols) Len() int {
	return len(s.symbols)
}

// Lookup returns the entry of a symbol.
func (s *Symbols) Lookup(name string) (Symbol, bool) {
	sym, ok := s.symbols[name]
	return sym, ok
}

// Names returns every symbol name, sorted.
func (s *Symbols) Names() []string {
	names := maps.Keys(s.symbols)
	slices.Sort(names)
	return names
}

// Modules returns the module names, kernel image first, then sorted.
func (s *Symbols) Modules() []string {
	names := maps.Keys(s.modules)
	slices.SortFunc(names, func(a, b string) int {
		switch {
		case a == b:
			return 0
		case a == module.KernelImageName:
			return -1
		case b == module.KernelImageName:
			return 1
		case a < b:
			return -1
		default:
			return 1
		}
	})
	return names
}

// ModuleSymbols returns the symbols a module exports, sorted by name.
func (s *Symbols) ModuleSymbols(mod string) []Symbol {
	set := s.modules[mod]
	names := maps.Keys(set)
	slices.Sort(names)
	out := make([]Symbol, 0, len(names))
	for _, name := range names {
		out = append(out, set[name])
	}
	return out
}

// WriteHuman lists the symbols of each module in plain text.
func (s *Symbols) WriteHuman(w io.Writer) error {
	for i, mod := range s.Modules() {
		if i > 0 {
			if _, err := io.WriteString(w, "\n\n"); err != nil {
				return err
			}
		}
		title := "Symbols in module " + mod
		if mod == module.KernelImageName {
			title = "Symbols in " + mod
		}
		if _, err := fmt.Fprintf(w, "%s\n\n", title); err != nil {
			return err
		}
		for _, sym := range s.ModuleSymbols(mod) {
			if _, err := fmt.Fprintf(w, "%-48s 0x%08x\n", sym.Name, sym.CRC); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteTable lists every symbol in a single table, grouped by module.
func (s *Symbols) WriteTable(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Module", "Symbol", "CRC"})
	table.SetAutoWrapText(false)
	table.SetAutoMergeCells(true)
	table.SetBorder(false)
	for _, mod := range s.Modules() {
		for _, sym := range s.ModuleSymbols(mod) {
			table.Append([]string{mod, sym.Name, fmt.Sprintf("0x%08x", sym.CRC)})
		}
	}
	table.Render()
}
