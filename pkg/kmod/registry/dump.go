// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package registry

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	modposterrors "github.com/DataDog/datadog-modpost/pkg/errors"
	"github.com/DataDog/datadog-modpost/pkg/kmod/module"
	"github.com/DataDog/datadog-modpost/pkg/util/log"
)

// DumpEntry is one line of a symbol dump.
type DumpEntry struct {
	CRC    uint32
	Symbol string
	Module string
}

// ParseDumpLine splits a `0x<crc> <symbol> <module>` line. Fields may be
// separated by any blanks, the CRC prefix is optional.
func ParseDumpLine(line string) (DumpEntry, bool) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return DumpEntry{}, false
	}
	hex := strings.TrimPrefix(strings.TrimPrefix(fields[0], "0x"), "0X")
	crc, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return DumpEntry{}, false
	}
	return DumpEntry{CRC: uint32(crc), Symbol: fields[1], Module: fields[2]}, true
}

// ReadDump parses the dump at path on fs. Malformed lines are skipped.
func ReadDump(fs afero.Fs, path string) ([]DumpEntry, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, modposterrors.NewIO(path, err)
	}
	defer f.Close()

	var entries []DumpEntry
	scanner := bufio.NewScanner(f)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		entry, ok := ParseDumpLine(line)
		if !ok {
			log.Debugf("%s:%d: skipping malformed dump line %q", path, lineno, line)
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, modposterrors.NewIO(path, err)
	}
	return entries, nil
}

// LoadDump reads a dump into shadow modules and the export index. An
// existing index entry is kept.
func (r *Registry) LoadDump(path string) error {
	entries, err := ReadDump(r.fs, path)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range entries {
		m, ok := r.shadow[e.Module]
		if !ok {
			m = module.NewShadow(e.Module)
			r.shadow[e.Module] = m
		}
		sym := m.Export(e.Symbol)
		sym.SetCRC(e.CRC)
		if _, ok := r.exports[sym.Name]; !ok {
			r.exports[sym.Name] = e.Module
		}
		if m.KernelImage {
			r.reportMissing = true
		}
	}
	log.Debugf("loaded %d symbols from %s", len(entries), path)
	return nil
}

// SaveDump writes every indexed export to path, in symbol order.
func (r *Registry) SaveDump(path string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := maps.Keys(r.exports)
	slices.Sort(names)

	var buf bytes.Buffer
	for _, name := range names {
		sym, owner, err := r.symbol(name)
		if err != nil {
			return err
		}
		if !sym.CRCValid {
			return modposterrors.NewFatal("no CRC recorded for %s exported by %s", name, owner.Name)
		}
		fmt.Fprintf(&buf, "0x%08x\t%s\t%s\n", sym.CRC, name, owner.Name)
	}
	if err := afero.WriteFile(r.fs, path, buf.Bytes(), 0o644); err != nil {
		return modposterrors.NewIO(path, err)
	}
	return nil
}
