// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package registry holds every module known to a run, real or shadow, and
// the index of which module exports which symbol.
package registry

import (
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	modposterrors "github.com/DataDog/datadog-modpost/pkg/errors"
	"github.com/DataDog/datadog-modpost/pkg/kmod/module"
	"github.com/DataDog/datadog-modpost/pkg/util/log"
)

// Version is one entry of a module's version table.
type Version struct {
	CRC  uint32
	Name string
}

// Registry owns the modules of a run. Modules are addressed by full name,
// the export index maps a symbol to the full name of its owner.
type Registry struct {
	fs afero.Fs
	w  module.Warner

	mu      sync.RWMutex
	real    map[string]*module.Module
	shadow  map[string]*module.Module
	exports map[string]string

	reportMissing bool
}

// New returns an empty registry reading and writing dumps on fs. A nil
// warner logs warnings.
func New(fs afero.Fs, w module.Warner) *Registry {
	if w == nil {
		w = module.LogWarner
	}
	return &Registry{
		fs:      fs,
		w:       w,
		real:    make(map[string]*module.Module),
		shadow:  make(map[string]*module.Module),
		exports: make(map[string]string),
	}
}

// Load parses the object at filename and inserts it. The module is closed
// if it cannot be inserted.
func (r *Registry) Load(filename string) (*module.Module, error) {
	m, err := module.Open(filename, r.w)
	if err != nil {
		return nil, err
	}
	if err := r.Insert(m); err != nil {
		m.Close()
		return nil, err
	}
	return m, nil
}

// Insert adds m to the registry and indexes its exports.
//
// The kernel image goes to the shadow set, replacing a previous entry read
// from a dump or closing a previously parsed image, and makes unresolved
// symbols worth reporting. Any other
// module goes to the real set, where names must be unique.
func (r *Registry) Insert(m *module.Module) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	overwrite := false
	if m.KernelImage {
		if old, ok := r.shadow[m.Name]; ok {
			overwrite = true
			for name := range old.Exported {
				if _, still := m.Exported[name]; !still && r.exports[name] == m.Name {
					delete(r.exports, name)
				}
			}
			if old != m && !old.IsShadow() {
				if err := old.Close(); err != nil {
					log.Warnf("closing the replaced %s: %v", old.Name, err)
				}
			}
		}
		r.shadow[m.Name] = m
		r.reportMissing = true
	} else {
		if _, ok := r.real[m.Name]; ok {
			return modposterrors.NewDuplicate(m.Name)
		}
		r.real[m.Name] = m
	}

	names := maps.Keys(m.Exported)
	slices.Sort(names)
	for _, name := range names {
		if _, ok := r.exports[name]; ok {
			if !overwrite {
				r.w.Warnf("\"%s\" [%s] duplicated symbol!", name, m.Name)
			}
			continue
		}
		r.exports[name] = m.Name
	}
	return nil
}

// Module returns the module of that full name, real modules first.
func (r *Registry) Module(name string) (*module.Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.module(name)
}

func (r *Registry) module(name string) (*module.Module, bool) {
	if m, ok := r.real[name]; ok {
		return m, true
	}
	m, ok := r.shadow[name]
	return m, ok
}

// Modules returns the real modules sorted by full name.
func (r *Registry) Modules() []*module.Module {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sorted(r.real)
}

// Shadows returns the shadow modules, kernel image included, sorted by full name.
func (r *Registry) Shadows() []*module.Module {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sorted(r.shadow)
}

func sorted(set map[string]*module.Module) []*module.Module {
	names := maps.Keys(set)
	slices.Sort(names)
	out := make([]*module.Module, 0, len(names))
	for _, name := range names {
		out = append(out, set[name])
	}
	return out
}

// ReportsMissing reports whether the kernel image is known, which makes
// unresolved symbols worth a warning.
func (r *Registry) ReportsMissing() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.reportMissing
}

// Owner returns the module exporting symbol.
func (r *Registry) Owner(symbol string) (*module.Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.owner(symbol)
}

func (r *Registry) owner(symbol string) (*module.Module, bool) {
	name, ok := r.exports[symbol]
	if !ok {
		return nil, false
	}
	return r.module(name)
}

// Symbol returns the export of symbol and its owner. An index entry whose
// owner lacks the export is a FatalError.
func (r *Registry) Symbol(symbol string) (*module.ExportedSymbol, *module.Module, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.symbol(symbol)
}

func (r *Registry) symbol(symbol string) (*module.ExportedSymbol, *module.Module, error) {
	owner, ok := r.owner(symbol)
	if !ok {
		return nil, nil, nil
	}
	sym, ok := owner.Exported[symbol]
	if !ok {
		return nil, owner, modposterrors.NewFatal("%s is indexed to %s which does not export it", symbol, owner.Name)
	}
	return sym, owner, nil
}

// Dependencies returns the sorted short names of the modules providing the
// undefined symbols of m. The kernel image and unresolved symbols are left out.
func (r *Registry) Dependencies(m *module.Module) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := make(map[string]struct{})
	for name := range m.Undefined {
		owner, ok := r.owner(name)
		if !ok || owner.ShortName == module.KernelImageName {
			continue
		}
		set[owner.ShortName] = struct{}{}
	}
	deps := maps.Keys(set)
	slices.Sort(deps)
	return deps
}

// Versions returns the version table of m in symbol order. Undefined symbols
// without a known CRC are warned about and left out.
func (r *Registry) Versions(m *module.Module) ([]Version, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := maps.Keys(m.Undefined)
	slices.Sort(names)

	var versions []Version
	for _, name := range names {
		sym, _, err := r.symbol(name)
		if err != nil {
			return nil, err
		}
		switch {
		case sym == nil:
			if r.reportMissing {
				r.w.Warnf("\"%s\" is undefined!", name)
			}
		case !sym.CRCValid:
			r.w.Warnf("\"%s\" [%s] has no CRC!", name, m.Name)
		default:
			versions = append(versions, Version{CRC: sym.CRC, Name: name})
		}
	}
	return versions, nil
}

// Close releases the object files of every module.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result *multierror.Error
	for _, set := range []map[string]*module.Module{r.real, r.shadow} {
		for _, m := range sorted(set) {
			if err := m.Close(); err != nil {
				result = multierror.Append(result, err)
			}
		}
	}
	return result.ErrorOrNil()
}
