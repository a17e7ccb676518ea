// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package elftest builds small relocatable ELF images for tests.
package elftest

import (
	"encoding/binary"

	"github.com/DataDog/datadog-modpost/pkg/util/endian"
	"github.com/DataDog/datadog-modpost/pkg/util/safeelf"
)

// Symbol describes one symbol table entry.
type Symbol struct {
	Name  string
	Bind  safeelf.SymBind
	Type  safeelf.SymType
	Shndx safeelf.SectionIndex
	Value uint64
	Size  uint64
}

type section struct {
	name string
	typ  safeelf.SectionType
	data []byte
	link int
	ent  int
}

// Builder accumulates sections and symbols. Section 0 is the null section,
// sections added with AddSection get indexes starting at 1, and the symbol
// table, its string table and the section name table are appended last.
type Builder struct {
	class    safeelf.Class
	order    endian.Order
	bo       binary.ByteOrder
	sections []section
	symbols  []Symbol
	noSymtab bool
}

// New returns a builder for the given word width and byte order.
func New(class safeelf.Class, order endian.Order) *Builder {
	b := &Builder{class: class, order: order, bo: binary.LittleEndian}
	if order == endian.Big {
		b.bo = binary.BigEndian
	}
	return b
}

// ByteOrder returns the encoding matching the builder byte order, for
// callers laying out section payloads.
func (b *Builder) ByteOrder() binary.ByteOrder {
	return b.bo
}

// AddSection appends a section and returns its index.
func (b *Builder) AddSection(name string, typ safeelf.SectionType, data []byte) safeelf.SectionIndex {
	b.sections = append(b.sections, section{name: name, typ: typ, data: data})
	return safeelf.SectionIndex(len(b.sections))
}

// AddSymbol appends a symbol. The null symbol is implicit.
func (b *Builder) AddSymbol(sym Symbol) {
	b.symbols = append(b.symbols, sym)
}

// WithoutSymbolTable drops the symbol table from the image.
func (b *Builder) WithoutSymbolTable() *Builder {
	b.noSymtab = true
	return b
}

func (b *Builder) is64() bool {
	return b.class == safeelf.ELFCLASS64
}

type strtab struct {
	data []byte
}

func (s *strtab) add(name string) uint32 {
	if name == "" {
		return 0
	}
	off := uint32(len(s.data))
	s.data = append(s.data, name...)
	s.data = append(s.data, 0)
	return off
}

// Bytes lays the image out: header, section payloads, section headers.
func (b *Builder) Bytes() []byte {
	sections := append([]section{{}}, b.sections...)

	if !b.noSymtab {
		strs := &strtab{data: []byte{0}}
		symSize := safeelf.Sym32Size
		if b.is64() {
			symSize = safeelf.Sym64Size
		}
		symdata := make([]byte, symSize*(len(b.symbols)+1))
		for i, sym := range b.symbols {
			b.putSymbol(symdata[(i+1)*symSize:], strs.add(sym.Name), sym)
		}
		symtabIdx := len(sections)
		sections = append(sections,
			section{name: ".symtab", typ: safeelf.SHT_SYMTAB, data: symdata, link: symtabIdx + 1, ent: symSize},
			section{name: ".strtab", typ: safeelf.SHT_STRTAB, data: strs.data},
		)
	}

	shstrs := &strtab{data: []byte{0}}
	nameOffs := make([]uint32, len(sections))
	for i, s := range sections {
		nameOffs[i] = shstrs.add(s.name)
	}
	shstrndx := len(sections)
	nameOffs = append(nameOffs, shstrs.add(".shstrtab"))
	sections = append(sections, section{name: ".shstrtab", typ: safeelf.SHT_STRTAB, data: shstrs.data})

	ehdrSize, shentSize := 52, 40
	if b.is64() {
		ehdrSize, shentSize = 64, 64
	}

	out := make([]byte, ehdrSize)
	offsets := make([]int, len(sections))
	for i, s := range sections {
		if i == 0 {
			continue
		}
		for len(out)%8 != 0 {
			out = append(out, 0)
		}
		offsets[i] = len(out)
		out = append(out, s.data...)
	}
	for len(out)%8 != 0 {
		out = append(out, 0)
	}
	shoff := len(out)
	out = append(out, make([]byte, shentSize*len(sections))...)

	b.putHeader(out, uint64(shoff), len(sections), shstrndx)
	for i, s := range sections {
		if i == 0 {
			continue
		}
		b.putSectionHeader(out[shoff+i*shentSize:], nameOffs[i], s, uint64(offsets[i]))
	}
	return out
}

func (b *Builder) putHeader(out []byte, shoff uint64, shnum, shstrndx int) {
	copy(out, safeelf.ELFMAG)
	out[safeelf.EI_CLASS] = byte(b.class)
	if b.order == endian.Big {
		out[safeelf.EI_DATA] = byte(safeelf.ELFDATA2MSB)
	} else {
		out[safeelf.EI_DATA] = byte(safeelf.ELFDATA2LSB)
	}
	out[6] = 1 // EV_CURRENT
	b.bo.PutUint16(out[16:], uint16(safeelf.ET_REL))
	b.bo.PutUint16(out[18:], uint16(safeelf.EM_X86_64))
	b.bo.PutUint32(out[20:], 1)
	if b.is64() {
		b.bo.PutUint64(out[40:], shoff)
		b.bo.PutUint16(out[52:], 64)
		b.bo.PutUint16(out[58:], 64)
		b.bo.PutUint16(out[60:], uint16(shnum))
		b.bo.PutUint16(out[62:], uint16(shstrndx))
		return
	}
	b.bo.PutUint32(out[32:], uint32(shoff))
	b.bo.PutUint16(out[40:], 52)
	b.bo.PutUint16(out[46:], 40)
	b.bo.PutUint16(out[48:], uint16(shnum))
	b.bo.PutUint16(out[50:], uint16(shstrndx))
}

func (b *Builder) putSectionHeader(out []byte, name uint32, s section, off uint64) {
	b.bo.PutUint32(out[0:], name)
	b.bo.PutUint32(out[4:], uint32(s.typ))
	if b.is64() {
		b.bo.PutUint64(out[24:], off)
		b.bo.PutUint64(out[32:], uint64(len(s.data)))
		b.bo.PutUint32(out[40:], uint32(s.link))
		b.bo.PutUint64(out[48:], 8)
		b.bo.PutUint64(out[56:], uint64(s.ent))
		return
	}
	b.bo.PutUint32(out[16:], uint32(off))
	b.bo.PutUint32(out[20:], uint32(len(s.data)))
	b.bo.PutUint32(out[24:], uint32(s.link))
	b.bo.PutUint32(out[32:], 4)
	b.bo.PutUint32(out[36:], uint32(s.ent))
}

func (b *Builder) putSymbol(out []byte, name uint32, sym Symbol) {
	info := safeelf.ST_INFO(sym.Bind, sym.Type)
	b.bo.PutUint32(out[0:], name)
	if b.is64() {
		out[4] = info
		b.bo.PutUint16(out[6:], uint16(sym.Shndx))
		b.bo.PutUint64(out[8:], sym.Value)
		b.bo.PutUint64(out[16:], sym.Size)
		return
	}
	b.bo.PutUint32(out[4:], uint32(sym.Value))
	b.bo.PutUint32(out[8:], uint32(sym.Size))
	out[12] = info
	b.bo.PutUint16(out[14:], uint16(sym.Shndx))
}
