// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package command

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/DataDog/datadog-modpost/pkg/config"
	"github.com/DataDog/datadog-modpost/pkg/kmod/codegen"
	"github.com/DataDog/datadog-modpost/pkg/kmod/module"
	"github.com/DataDog/datadog-modpost/pkg/kmod/registry"
	"github.com/DataDog/datadog-modpost/pkg/util/log"
)

// process loads the dump and the objects, writes the generated source of
// every module and saves the dump. A file that fails to load is reported
// and skipped, the returned error then lists every failure.
func process(params *cliParams, cfg config.Config) error {
	fs := afero.NewOsFs()
	reg := registry.New(fs, module.LogWarner)
	defer func() {
		if err := reg.Close(); err != nil {
			log.Warnf("closing objects: %v", err)
		}
	}()

	if in := cfg.GetString(config.DumpInput); in != "" {
		if err := reg.LoadDump(in); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return err
			}
			log.Infof("no symbol dump at %s", in)
		}
	}

	var result *multierror.Error
	for i, m := range openObjects(params.objects) {
		filename := params.objects[i]
		err := m.err
		if err == nil {
			if err = reg.Insert(m.mod); err != nil {
				m.mod.Close()
			}
		}
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%q failed to load: %w", filename, err))
			continue
		}
		log.Debugf("loaded %s: %d exported, %d undefined symbols", m.mod.Name, len(m.mod.Exported), len(m.mod.Undefined))
	}

	gen := codegen.New(fs, reg, codegen.Options{
		Modversions: cfg.GetBool(config.Modversions),
		Suffix:      cfg.GetString(config.OutputSuffix),
	})
	if err := gen.WriteAll(); err != nil {
		result = multierror.Append(result, err)
	}

	if out := cfg.GetString(config.DumpOutput); out != "" {
		if err := reg.SaveDump(out); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

type opened struct {
	mod *module.Module
	err error
}

// openObjects parses the objects concurrently. Results keep the order of
// filenames so insertion stays deterministic.
func openObjects(filenames []string) []opened {
	results := make([]opened, len(filenames))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, filename := range filenames {
		i, filename := i, filename
		g.Go(func() error {
			results[i].mod, results[i].err = module.Open(filename, module.LogWarner)
			return nil
		})
	}
	_ = g.Wait()
	return results
}
