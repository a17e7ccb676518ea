// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package elf reads the section and symbol tables of ELF relocatable objects
// of either word width and either byte order.
package elf

import (
	"bytes"

	modposterrors "github.com/DataDog/datadog-modpost/pkg/errors"
	"github.com/DataDog/datadog-modpost/pkg/util/endian"
	"github.com/DataDog/datadog-modpost/pkg/util/mmap"
	"github.com/DataDog/datadog-modpost/pkg/util/safeelf"
)

// File is a parsed ELF object. All section and symbol names are resolved
// once Open or NewFile returns.
type File struct {
	mapping *mmap.Mapping
	data    []byte
	dec     decoder

	Class    safeelf.Class
	Order    endian.Order
	Type     safeelf.Type
	Machine  safeelf.Machine
	Shoff    uint64
	Shnum    int
	Shstrndx int

	sections []*Section
}

// Open maps path read-only and parses it.
func Open(path string) (*File, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, modposterrors.NewIO(path, err)
	}
	f, err := newFile(m)
	if err != nil {
		m.Close()
		return nil, err
	}
	return f, nil
}

// NewFile parses an in-memory object.
func NewFile(data []byte) (*File, error) {
	return newFile(mmap.FromBytes(data))
}

func newFile(m *mmap.Mapping) (*File, error) {
	f := &File{mapping: m, data: m.Bytes()}
	if err := f.parseIdent(); err != nil {
		return nil, err
	}
	if err := f.parseHeader(); err != nil {
		return nil, err
	}
	if err := f.parseSections(); err != nil {
		return nil, err
	}
	if err := f.resolveNames(); err != nil {
		return nil, err
	}
	return f, nil
}

// Close releases the mapping backing the file.
func (f *File) Close() error {
	f.data = nil
	return f.mapping.Close()
}

// Width returns the word width in bits.
func (f *File) Width() int {
	return f.dec.wordSize * 8
}

// Sections returns every section in header order, the null section included.
func (f *File) Sections() []*Section {
	return f.sections
}

// Section returns the section at index i.
func (f *File) Section(i int) (*Section, error) {
	if i < 0 || i >= len(f.sections) {
		return nil, modposterrors.NewIndex("section", i, len(f.sections))
	}
	return f.sections[i], nil
}

// SectionByName returns the first section named name, or nil.
func (f *File) SectionByName(name string) *Section {
	for _, s := range f.sections {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// SymbolTable returns the first SHT_SYMTAB section, or nil.
func (f *File) SymbolTable() *Section {
	for _, s := range f.sections {
		if s.kind == KindSymbolTable {
			return s
		}
	}
	return nil
}

func (f *File) parseIdent() error {
	if len(f.data) < safeelf.EI_NIDENT {
		return modposterrors.NewFormat("file too short")
	}
	if !bytes.HasPrefix(f.data, []byte(safeelf.ELFMAG)) {
		return modposterrors.NewFormat("not ELF")
	}

	var l *layout
	switch safeelf.Class(f.data[safeelf.EI_CLASS]) {
	case safeelf.ELFCLASS32:
		l = &layout32
	case safeelf.ELFCLASS64:
		l = &layout64
	default:
		return modposterrors.NewFormat("unsupported file class %d", f.data[safeelf.EI_CLASS])
	}

	var order endian.Order
	switch safeelf.Data(f.data[safeelf.EI_DATA]) {
	case safeelf.ELFDATA2LSB:
		order = endian.Little
	case safeelf.ELFDATA2MSB:
		order = endian.Big
	default:
		return modposterrors.NewFormat("unsupported data encoding %d", f.data[safeelf.EI_DATA])
	}

	f.dec = decoder{layout: l, Reader: endian.Reader{Order: order}}
	f.Class = l.class
	f.Order = order
	return f.checkIdent()
}

// checkIdent verifies the identification bytes agree with the decoder picked.
func (f *File) checkIdent() error {
	if safeelf.Class(f.data[safeelf.EI_CLASS]) != f.dec.class {
		return modposterrors.NewFormat("file class mismatch")
	}
	want := safeelf.ELFDATA2LSB
	if f.dec.Order == endian.Big {
		want = safeelf.ELFDATA2MSB
	}
	if safeelf.Data(f.data[safeelf.EI_DATA]) != want {
		return modposterrors.NewFormat("data encoding mismatch")
	}
	return nil
}

func (f *File) parseHeader() error {
	d := f.dec
	if len(f.data) < d.ehdrSize {
		return modposterrors.NewFormat("truncated file header")
	}
	f.Type = safeelf.Type(d.Uint16(f.data, d.ehdrType))
	f.Machine = safeelf.Machine(d.Uint16(f.data, d.ehdrMachine))
	f.Shoff = d.word(f.data, d.ehdrShoff)
	f.Shnum = int(d.Uint16(f.data, d.ehdrShnum))
	f.Shstrndx = int(d.Uint16(f.data, d.ehdrShstrndx))

	if f.Shnum == 0 {
		return nil
	}
	if entsize := int(d.Uint16(f.data, d.ehdrShentsz)); entsize != d.shentSize {
		return modposterrors.NewFormat("unexpected section header size %d", entsize)
	}
	end := f.Shoff + uint64(f.Shnum)*uint64(d.shentSize)
	if f.Shoff > uint64(len(f.data)) || end > uint64(len(f.data)) {
		return modposterrors.NewFormat("section headers out of bounds")
	}
	return nil
}

func (f *File) parseSections() error {
	d := f.dec
	f.sections = make([]*Section, 0, f.Shnum)
	for i := 0; i < f.Shnum; i++ {
		hdr := f.data[int(f.Shoff)+i*d.shentSize:]
		s := &Section{
			Index:   i,
			nameOff: d.Uint32(hdr, d.shdrName),
			Type:    safeelf.SectionType(d.Uint32(hdr, d.shdrType)),
			Offset:  d.word(hdr, d.shdrOffset),
			Size:    d.word(hdr, d.shdrSize),
			Link:    int(d.Uint32(hdr, d.shdrLink)),
		}
		if s.Type != safeelf.SHT_NOBITS && s.Type != safeelf.SHT_NULL {
			if s.Offset > uint64(len(f.data)) || s.Size > uint64(len(f.data))-s.Offset {
				return modposterrors.NewFormat("section %d out of bounds", i)
			}
			s.data = f.data[s.Offset : s.Offset+s.Size]
		}
		if s.Type == safeelf.SHT_SYMTAB {
			s.kind = KindSymbolTable
			if err := f.parseSymbols(s); err != nil {
				return err
			}
		}
		f.sections = append(f.sections, s)
	}
	return nil
}

func (f *File) parseSymbols(s *Section) error {
	d := f.dec
	if len(s.data)%d.symEntSize != 0 {
		return modposterrors.NewFormat("symbol table %d has bad size %d", s.Index, len(s.data))
	}
	n := len(s.data) / d.symEntSize
	s.symbols = make([]*Symbol, 0, n)
	for i := 0; i < n; i++ {
		ent := s.data[i*d.symEntSize:]
		info := d.Uint8(ent, d.symInfo)
		s.symbols = append(s.symbols, &Symbol{
			Index:   i,
			nameOff: d.Uint32(ent, d.symName),
			Bind:    safeelf.ST_BIND(info),
			Type:    safeelf.ST_TYPE(info),
			Shndx:   safeelf.SectionIndex(d.Uint16(ent, d.symShndx)),
			Value:   d.word(ent, d.symValue),
			Size:    d.word(ent, d.symSize),
		})
	}
	return nil
}

// resolveNames is the second pass: every name offset is looked up in the
// string table it refers to, addressed by section index.
func (f *File) resolveNames() error {
	if f.Shstrndx != int(safeelf.SHN_UNDEF) {
		shstr, err := f.Section(f.Shstrndx)
		if err != nil {
			return modposterrors.NewFormat("bad section name table index %d", f.Shstrndx)
		}
		for _, s := range f.sections {
			if s.Name, err = shstr.String(s.nameOff); err != nil {
				return err
			}
		}
	}

	for _, s := range f.sections {
		if s.kind != KindSymbolTable {
			continue
		}
		strtab, err := f.Section(s.Link)
		if err != nil {
			return modposterrors.NewFormat("symbol table %d has bad string table link %d", s.Index, s.Link)
		}
		for _, sym := range s.symbols {
			if sym.Name, err = strtab.String(sym.nameOff); err != nil {
				return err
			}
		}
	}
	return nil
}
