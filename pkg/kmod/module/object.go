// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package module

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/DataDog/datadog-modpost/pkg/elf"
	modposterrors "github.com/DataDog/datadog-modpost/pkg/errors"
	"github.com/DataDog/datadog-modpost/pkg/kmod/devicetable"
	"github.com/DataDog/datadog-modpost/pkg/util/log"
	"github.com/DataDog/datadog-modpost/pkg/util/safeelf"
)

const (
	modinfoSection = ".modinfo"

	symbolPrefixCRC     = "__crc_"
	symbolPrefixKsymtab = "__ksymtab_"

	symbolInit    = "init_module"
	symbolCleanup = "cleanup_module"

	// symbolStructModule is referenced by every module, whether or not the
	// compiler emitted the reference.
	symbolStructModule = "struct_module"
)

// shnLoreserve is the first reserved section index.
const shnLoreserve = 0xff00

// Open parses the object at filename into a real module.
func Open(filename string, w Warner) (*Module, error) {
	f, err := elf.Open(filename)
	if err != nil {
		return nil, err
	}
	return FromFile(filename, f, w)
}

// FromFile builds a real module from an already parsed object. The module
// takes ownership of f, which is closed if an error is returned.
func FromFile(filename string, f *elf.File, w Warner) (*Module, error) {
	m, err := fromFile(filename, f, w)
	if err != nil {
		f.Close()
		return nil, err
	}
	return m, nil
}

func fromFile(filename string, f *elf.File, w Warner) (*Module, error) {
	if w == nil {
		w = LogWarner
	}
	m := newModule(names(filename))
	m.file = f

	modinfo := f.SectionByName(modinfoSection)
	if modinfo == nil && !m.KernelImage {
		return nil, modposterrors.NewFormat("lacks modinfo")
	}
	symtab := f.SymbolTable()
	if symtab == nil {
		return nil, modposterrors.NewFormat("lacks symbol table")
	}

	if !m.KernelImage {
		m.readModinfo(modinfo.Data())
		m.AddUndefined(symbolStructModule, false)
	}
	m.readSymtab(symtab, w)
	if err := m.readDeviceTables(f, symtab); err != nil {
		return nil, fmt.Errorf("device table: %w", err)
	}
	return m, nil
}

// readModinfo splits the packed key=value records. Records without '=' are
// skipped, the first value of a repeated key wins.
func (m *Module) readModinfo(data []byte) {
	for _, rec := range bytes.Split(data, []byte{0}) {
		if len(rec) == 0 {
			continue
		}
		key, value, ok := strings.Cut(string(rec), "=")
		if !ok {
			log.Debugf("%s: skipping modinfo record without '=': %q", m.Name, rec)
			continue
		}
		if _, exists := m.Modinfo[key]; !exists {
			m.Modinfo[key] = value
		}
	}
}

func (m *Module) readSymtab(symtab *elf.Section, w Warner) {
	for _, sym := range symtab.Symbols() {
		if sym.Index == 0 {
			continue
		}
		switch sym.Shndx {
		case safeelf.SHN_COMMON:
			w.Warnf("\"%s\" [%s] is COMMON symbol", sym.Name, m.Name)

		case safeelf.SHN_ABS:
			if name, ok := strings.CutPrefix(sym.Name, symbolPrefixCRC); ok {
				m.Export(name).SetCRC(uint32(sym.Value))
			}

		case safeelf.SHN_UNDEF:
			if sym.Bind != safeelf.STB_GLOBAL && sym.Bind != safeelf.STB_WEAK {
				continue
			}
			if sym.Name == "_GLOBAL_OFFSET_TABLE_" || sym.Name == "__this_module" {
				continue
			}
			m.AddUndefined(sym.Name, sym.Bind == safeelf.STB_WEAK)

		default:
			if name, ok := strings.CutPrefix(sym.Name, symbolPrefixKsymtab); ok {
				m.Export(name)
			} else if sym.Name == symbolCleanup {
				m.HasCleanup = true
			} else if sym.Name == symbolInit {
				m.HasInit = true
			}
		}
	}
}

// readDeviceTables decodes every device table of a known layout. A table is
// found through its symbol, or failing that through a section of the same name.
func (m *Module) readDeviceTables(f *elf.File, symtab *elf.Section) error {
	for _, bus := range devicetable.Buses() {
		data, found, err := tableData(f, symtab, bus.SymbolName())
		if err != nil {
			return err
		}
		if !found {
			continue
		}
		if !bus.Decodable() {
			log.Debugf("%s: ignoring %s device table", m.Name, bus)
			continue
		}
		table, err := devicetable.Decode(bus, f.Width(), f.Order, data)
		if err != nil {
			return fmt.Errorf("%s: %w", bus, err)
		}
		m.DeviceTables = append(m.DeviceTables, table)
	}
	return nil
}

func tableData(f *elf.File, symtab *elf.Section, name string) ([]byte, bool, error) {
	for _, sym := range symtab.Symbols() {
		if sym.Name != name || sym.Shndx == safeelf.SHN_UNDEF || sym.Shndx >= shnLoreserve {
			continue
		}
		section, err := f.Section(int(sym.Shndx))
		if err != nil {
			continue
		}
		data := section.Data()
		if sym.Value > uint64(len(data)) || sym.Size > uint64(len(data))-sym.Value {
			return nil, false, modposterrors.NewFormat("symbol %s out of section %s", name, section.Name)
		}
		return data[sym.Value : sym.Value+sym.Size], true, nil
	}
	if section := f.SectionByName(name); section != nil {
		return section.Data(), true, nil
	}
	return nil, false, nil
}
