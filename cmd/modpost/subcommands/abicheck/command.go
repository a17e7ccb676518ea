// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package abicheck implements 'modpost abi-check'.
package abicheck

import (
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/fx"

	"github.com/DataDog/datadog-modpost/cmd/internal/runcmd"
	"github.com/DataDog/datadog-modpost/cmd/modpost/command"
	"github.com/DataDog/datadog-modpost/pkg/config"
	"github.com/DataDog/datadog-modpost/pkg/kmod/abi"
	"github.com/DataDog/datadog-modpost/pkg/util/fxutil"
	"github.com/DataDog/datadog-modpost/pkg/util/log"
)

// cliParams are the command-line arguments for this subcommand
type cliParams struct {
	*command.GlobalParams

	// reference is the dump of the released kernel, abi.reference if empty.
	reference string
	// current is the dump of the kernel being built.
	current string

	out io.Writer
	fs  afero.Fs
}

// Commands returns a slice of subcommands for the 'modpost' command.
func Commands(globalParams *command.GlobalParams) []*cobra.Command {
	cliParams := &cliParams{GlobalParams: globalParams}

	cmd := &cobra.Command{
		Use:   "abi-check [reference-dump] <new-dump>",
		Short: "Compare the exported symbols of a build with a reference",
		Long: `Compare the symbols listed in a new dump with those of a reference dump.
Any removed or changed symbol that is not ignored fails the check.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 2 {
				cliParams.reference, cliParams.current = args[0], args[1]
			} else {
				cliParams.current = args[0]
			}
			cliParams.out = cmd.OutOrStdout()
			cliParams.fs = afero.NewOsFs()

			return fxutil.OneShot(check,
				fx.Supply(cliParams),
				fx.Supply(globalParams.ConfigParams(map[string]*pflag.Flag{
					config.ABIIgnore:     cmd.Flags().Lookup("ignore"),
					config.ABIOutputKind: cmd.Flags().Lookup("format"),
				})),
				config.Module(),
			)
		},
	}
	cmd.Flags().StringSlice("ignore", nil, "glob patterns of symbols whose changes are accepted")
	cmd.Flags().StringP("format", "f", abi.FormatText, "report format (text, yaml)")

	return []*cobra.Command{cmd}
}

func check(params *cliParams, cfg config.Config) error {
	current, err := abi.ReadSymbols(params.fs, params.current)
	if err != nil {
		return err
	}

	refPath := params.reference
	if refPath == "" {
		refPath = cfg.GetString(config.ABIReference)
	}
	ref, err := abi.ReadSymbols(params.fs, refPath)
	if err != nil {
		log.Debugf("reading ABI reference: %v", err)
		_, err = fmt.Fprintln(params.out, abi.NoReferenceMessage)
		return err
	}

	ignore, err := abi.NewIgnore(cfg.GetStringSlice(config.ABIIgnore))
	if err != nil {
		return err
	}

	report := abi.Compare(ref, current, ignore)
	if err := report.Write(params.out, cfg.GetString(config.ABIOutputKind)); err != nil {
		return err
	}
	if report.Verdict().Failed() {
		return runcmd.Exit(1)
	}
	return nil
}
