// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package codegen writes the C source compiled into each module after the
// post-link step: the struct module initializer, the symbol version table,
// the dependency list and the device aliases.
package codegen

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"

	modposterrors "github.com/DataDog/datadog-modpost/pkg/errors"
	"github.com/DataDog/datadog-modpost/pkg/kmod/module"
	"github.com/DataDog/datadog-modpost/pkg/kmod/registry"
	"github.com/DataDog/datadog-modpost/pkg/util/log"
)

// DefaultSuffix is appended to the module name to form the output path.
const DefaultSuffix = ".mod.c"

// Options controls what is generated.
type Options struct {
	// Modversions adds the ____versions table.
	Modversions bool
	// Suffix is appended to the module full name, DefaultSuffix if empty.
	Suffix string
}

// Generator renders modules of a registry to files on fs.
type Generator struct {
	fs   afero.Fs
	reg  *registry.Registry
	opts Options
}

// New returns a generator for the modules of reg.
func New(fs afero.Fs, reg *registry.Registry, opts Options) *Generator {
	if opts.Suffix == "" {
		opts.Suffix = DefaultSuffix
	}
	return &Generator{fs: fs, reg: reg, opts: opts}
}

// Path returns the output file of m.
func (g *Generator) Path(m *module.Module) string {
	return m.Name + g.opts.Suffix
}

// WriteAll writes the output of every real module in name order. A failing
// module does not stop the others.
func (g *Generator) WriteAll() error {
	var result *multierror.Error
	for _, m := range g.reg.Modules() {
		if err := g.Write(m); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", m.Name, err))
		}
	}
	return result.ErrorOrNil()
}

// Write renders m to its output file.
func (g *Generator) Write(m *module.Module) error {
	var buf bytes.Buffer
	if err := g.Render(&buf, m); err != nil {
		return err
	}
	path := g.Path(m)
	if err := afero.WriteFile(g.fs, path, buf.Bytes(), 0o644); err != nil {
		return modposterrors.NewIO(path, err)
	}
	log.Debugf("wrote %s", path)
	return nil
}

// Render writes the generated source of m to w.
func (g *Generator) Render(w io.Writer, m *module.Module) error {
	var sb strings.Builder
	writeHeader(&sb, m)
	if g.opts.Modversions {
		versions, err := g.reg.Versions(m)
		if err != nil {
			return err
		}
		writeVersions(&sb, versions)
	}
	writeDepends(&sb, g.reg.Dependencies(m))
	writeAliases(&sb, m.Aliases())

	_, err := io.WriteString(w, sb.String())
	return err
}

func writeHeader(sb *strings.Builder, m *module.Module) {
	sb.WriteString("#include <linux/module.h>\n" +
		"#include <linux/vermagic.h>\n" +
		"#include <linux/compiler.h>\n" +
		"\n" +
		"MODULE_INFO(vermagic, VERMAGIC_STRING);\n" +
		"\n" +
		"struct module __this_module\n" +
		"__attribute__((section(\".gnu.linkonce.this_module\"))) = {\n" +
		" .name = KBUILD_MODNAME,\n")
	if m.HasInit {
		sb.WriteString(" .init = init_module,\n")
	}
	if m.HasCleanup {
		sb.WriteString("#ifdef CONFIG_MODULE_UNLOAD\n" +
			" .exit = cleanup_module,\n" +
			"#endif\n")
	}
	sb.WriteString("};\n\n")
}

func writeVersions(sb *strings.Builder, versions []registry.Version) {
	sb.WriteString("static const struct modversion_info ____versions[]\n" +
		"__attribute_used__\n" +
		"__attribute__((section(\"__versions\"))) = {\n")
	for _, v := range versions {
		fmt.Fprintf(sb, "\t{ 0x%x, \"%s\" },\n", v.CRC, v.Name)
	}
	sb.WriteString("};\n\n")
}

func writeDepends(sb *strings.Builder, deps []string) {
	sb.WriteString("static const char __module_depends[]\n" +
		"__attribute_used__\n" +
		"__attribute__((section(\".modinfo\"))) =\n" +
		"\"depends=")
	sb.WriteString(strings.Join(deps, ","))
	sb.WriteString("\";\n\n")
}

func writeAliases(sb *strings.Builder, aliases []string) {
	for _, alias := range aliases {
		fmt.Fprintf(sb, "MODULE_ALIAS(\"%s\");\n", alias)
	}
}
