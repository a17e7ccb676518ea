// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package module models a kernel module, or the kernel image itself, as seen
// by the post-link step: its modinfo, the symbols it exports and references,
// and its device ID tables.
package module

import (
	"path"
	"strings"

	"github.com/DataDog/datadog-modpost/pkg/elf"
	"github.com/DataDog/datadog-modpost/pkg/kmod/devicetable"
)

// KernelImageName is the name of the kernel image among modules.
const KernelImageName = "vmlinux"

// ExportedSymbol is a symbol exported with EXPORT_SYMBOL. The CRC is only
// valid once its __crc_ companion has been seen.
type ExportedSymbol struct {
	Name     string
	CRC      uint32
	CRCValid bool
}

// SetCRC records the symbol version.
func (s *ExportedSymbol) SetCRC(crc uint32) {
	s.CRC = crc
	s.CRCValid = true
}

// UndefinedSymbol is a symbol a module references but does not define.
type UndefinedSymbol struct {
	Name string
	Weak bool
}

// Module is either real, parsed from an object file it owns, or shadow,
// known only by name and exports from a dump or a previous kernel image.
type Module struct {
	// Name is the object path without its extension.
	Name string
	// ShortName is the base name without extension.
	ShortName   string
	KernelImage bool

	Modinfo   map[string]string
	Exported  map[string]*ExportedSymbol
	Undefined map[string]*UndefinedSymbol

	HasInit    bool
	HasCleanup bool

	DeviceTables []*devicetable.Table

	shadow bool
	file   *elf.File
}

func newModule(name, shortName string) *Module {
	return &Module{
		Name:        name,
		ShortName:   shortName,
		KernelImage: name == KernelImageName,
		Modinfo:     make(map[string]string),
		Exported:    make(map[string]*ExportedSymbol),
		Undefined:   make(map[string]*UndefinedSymbol),
	}
}

// NewShadow returns a module known only by name, as found in a dump.
func NewShadow(name string) *Module {
	m := newModule(name, path.Base(name))
	m.shadow = true
	return m
}

// names derives the full and short module names from an object path.
func names(filename string) (string, string) {
	base := path.Base(filename)
	ext := path.Ext(base)
	return strings.TrimSuffix(filename, ext), strings.TrimSuffix(base, ext)
}

// IsShadow reports whether the module has no object file behind it.
func (m *Module) IsShadow() bool {
	return m.shadow
}

// File returns the parsed object, nil for shadow and closed modules.
func (m *Module) File() *elf.File {
	return m.file
}

// Close releases the object file of a real module.
func (m *Module) Close() error {
	if m.file == nil {
		return nil
	}
	err := m.file.Close()
	m.file = nil
	return err
}

// Export returns the exported symbol name, creating it without CRC if needed.
func (m *Module) Export(name string) *ExportedSymbol {
	name = SymbolName(name)
	sym, ok := m.Exported[name]
	if !ok {
		sym = &ExportedSymbol{Name: name}
		m.Exported[name] = sym
	}
	return sym
}

// AddUndefined records a reference to name. An existing entry is kept.
func (m *Module) AddUndefined(name string, weak bool) {
	name = SymbolName(name)
	if _, ok := m.Undefined[name]; !ok {
		m.Undefined[name] = &UndefinedSymbol{Name: name, Weak: weak}
	}
}

// SymbolName normalizes a symbol name, dropping the leading dot of function
// descriptor ABIs.
func SymbolName(name string) string {
	return strings.TrimPrefix(name, ".")
}

// Aliases returns the MODULE_ALIAS strings of every device table, in decode order.
func (m *Module) Aliases() []string {
	var aliases []string
	for _, t := range m.DeviceTables {
		aliases = append(aliases, t.Aliases()...)
	}
	return aliases
}
