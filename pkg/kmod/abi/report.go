// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package abi

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v2"
)

// Output formats of a report.
const (
	FormatText = "text"
	FormatYAML = "yaml"
)

// Write renders the report in format.
func (r *Report) Write(w io.Writer, format string) error {
	switch format {
	case FormatText, "":
		return r.WriteText(w)
	case FormatYAML:
		return r.WriteYAML(w)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// WriteText writes the verdict followed by the added, changed and removed
// symbols, one per line.
func (r *Report) WriteText(w io.Writer) error {
	verdict := r.Verdict()
	var paint func(format string, a ...interface{}) string
	switch verdict {
	case Broken:
		paint = color.RedString
	case ChangesIgnored, AdditionsIgnored:
		paint = color.YellowString
	default:
		paint = color.GreenString
	}
	if _, err := fmt.Fprintln(w, paint("%s", verdict)); err != nil {
		return err
	}

	sections := []struct {
		title   string
		changes []Change
	}{
		{"Added symbols:", r.Added},
		{"Changed symbols:", r.Changed},
		{"Removed symbols:", r.Removed},
	}
	for _, s := range sections {
		if len(s.changes) == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "\n%s\n", s.title); err != nil {
			return err
		}
		for _, c := range s.changes {
			if _, err := fmt.Fprintf(w, "%-48s %s\n", c.Symbol, strings.Join(describe(c), ", ")); err != nil {
				return err
			}
		}
	}
	return nil
}

func describe(c Change) []string {
	var info []string
	if c.Ignored {
		info = append(info, "ignored")
	}
	switch {
	case c.Ref == nil:
		info = append(info, "module: "+c.New.Module, fmt.Sprintf("version: 0x%08x", c.New.CRC))
	case c.New == nil:
		info = append(info, "module: "+c.Ref.Module, fmt.Sprintf("version: 0x%08x", c.Ref.CRC))
	default:
		if c.ModuleChanged() {
			info = append(info, fmt.Sprintf("module: %s -> %s", c.Ref.Module, c.New.Module))
		} else {
			info = append(info, "module: "+c.New.Module)
		}
		if c.CRCChanged() {
			info = append(info, fmt.Sprintf("version: 0x%08x -> 0x%08x", c.Ref.CRC, c.New.CRC))
		} else {
			info = append(info, fmt.Sprintf("version: 0x%08x", c.New.CRC))
		}
	}
	return info
}

type yamlReport struct {
	Verdict string `yaml:"verdict"`
	Failed  bool   `yaml:"failed"`
	Report  `yaml:",inline"`
}

// WriteYAML writes the report as a YAML document.
func (r *Report) WriteYAML(w io.Writer) error {
	out, err := yaml.Marshal(yamlReport{Verdict: r.Verdict().String(), Failed: r.Verdict().Failed(), Report: *r})
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}
