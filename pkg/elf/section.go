// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package elf

import (
	"bytes"

	modposterrors "github.com/DataDog/datadog-modpost/pkg/errors"
	"github.com/DataDog/datadog-modpost/pkg/util/safeelf"
)

// SectionKind tells which payload a Section carries.
type SectionKind int

const (
	// KindPlain is a section with raw data only.
	KindPlain SectionKind = iota
	// KindSymbolTable is a SHT_SYMTAB section carrying its decoded symbols.
	KindSymbolTable
)

// Section is one entry of the section header table.
type Section struct {
	Index  int
	Name   string
	Type   safeelf.SectionType
	Offset uint64
	Size   uint64
	Link   int

	nameOff uint32
	data    []byte
	kind    SectionKind
	symbols []*Symbol
}

// Kind returns the payload kind of the section.
func (s *Section) Kind() SectionKind {
	return s.kind
}

// Data returns the section content. It is empty for SHT_NOBITS sections.
func (s *Section) Data() []byte {
	return s.data
}

// Symbols returns the decoded symbols of a symbol table section, the null
// symbol at index 0 included. It is nil for plain sections.
func (s *Section) Symbols() []*Symbol {
	return s.symbols
}

// Symbol returns the symbol at index i of a symbol table section.
func (s *Section) Symbol(i int) (*Symbol, error) {
	if i < 0 || i >= len(s.symbols) {
		return nil, modposterrors.NewIndex("symbol", i, len(s.symbols))
	}
	return s.symbols[i], nil
}

// String returns the NUL terminated string at off of a string table section.
func (s *Section) String(off uint32) (string, error) {
	if uint64(off) >= uint64(len(s.data)) {
		if off == 0 {
			return "", nil
		}
		return "", modposterrors.NewFormat("string offset %d out of section %d", off, s.Index)
	}
	b := s.data[off:]
	if end := bytes.IndexByte(b, 0); end >= 0 {
		b = b[:end]
	}
	return string(b), nil
}

// Symbol is one entry of a symbol table.
type Symbol struct {
	Index int
	Name  string
	Bind  safeelf.SymBind
	Type  safeelf.SymType
	Shndx safeelf.SectionIndex
	Value uint64
	Size  uint64

	nameOff uint32
}
