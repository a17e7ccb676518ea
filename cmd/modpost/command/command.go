// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package command implements the top-level `modpost` command.
package command

import (
	"errors"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/fx"

	"github.com/DataDog/datadog-modpost/pkg/config"
	"github.com/DataDog/datadog-modpost/pkg/util/fxutil"
)

// GlobalParams contains the values of modpost-global Cobra flags.
//
// A pointer to this type is passed to SubcommandFactory's, but its contents
// are not valid until Cobra calls the subcommand's Run or RunE function.
type GlobalParams struct {
	// ConfFilePath holds the path to the optional YAML configuration file.
	ConfFilePath string

	// NoColor disables color output.
	NoColor bool

	logLevel *pflag.Flag
	logFile  *pflag.Flag
}

// ConfigParams returns the config module inputs, with the global flags and
// the given command flags bound to their setting keys.
func (g *GlobalParams) ConfigParams(flags map[string]*pflag.Flag) config.Params {
	params := config.NewParams(g.ConfFilePath)
	if g.logLevel != nil {
		params.Flags[config.LogLevel] = g.logLevel
	}
	if g.logFile != nil {
		params.Flags[config.LogFile] = g.logFile
	}
	for key, flag := range flags {
		params.Flags[key] = flag
	}
	return params
}

// SubcommandFactory is a callable that will return a slice of subcommands.
type SubcommandFactory func(globalParams *GlobalParams) []*cobra.Command

// cliParams are the command-line arguments of the post-processing run.
type cliParams struct {
	*GlobalParams

	// objects are the object files to process, in order.
	objects []string

	allVersions bool
}

// ErrAllVersions is returned when whole-archive source versions are requested.
var ErrAllVersions = errors.New("CONFIG_MODULE_SRCVERSION_ALL is not supported!")

// MakeCommand makes the top-level Cobra command for this app.
func MakeCommand(subcommandFactories []SubcommandFactory) *cobra.Command {
	globalParams := GlobalParams{}
	cliParams := &cliParams{GlobalParams: &globalParams}

	modpostCmd := &cobra.Command{
		Use:   "modpost [flags] [object...]",
		Short: "Post-link processing of kernel module objects.",
		Long: `
modpost reads the symbol tables of kernel module objects, resolves the
symbols they import against the kernel image and the other modules, and
writes for each module the C source carrying its symbol versions,
dependencies and device aliases.`,
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cliParams.allVersions {
				return ErrAllVersions
			}
			cliParams.objects = args

			flags := cmd.Flags()
			return fxutil.OneShot(process,
				fx.Supply(cliParams),
				fx.Supply(globalParams.ConfigParams(map[string]*pflag.Flag{
					config.DumpInput:    flags.Lookup("dump-input"),
					config.DumpOutput:   flags.Lookup("dump-output"),
					config.Modversions:  flags.Lookup("modversions"),
					config.OutputSuffix: flags.Lookup("output-suffix"),
				})),
				config.Module(),
			)
		},
	}

	modpostCmd.PersistentFlags().StringVarP(&globalParams.ConfFilePath, "config", "c", "", "path to the modpost YAML configuration file")
	modpostCmd.PersistentFlags().String("log-level", "info", "log level (trace, debug, info, warn, error, critical, off)")
	modpostCmd.PersistentFlags().String("log-file", "", "also log to this file")
	modpostCmd.PersistentFlags().BoolVarP(&globalParams.NoColor, "no-color", "n", false, "disable color output")
	globalParams.logLevel = modpostCmd.PersistentFlags().Lookup("log-level")
	globalParams.logFile = modpostCmd.PersistentFlags().Lookup("log-file")

	modpostCmd.Flags().StringP("dump-input", "i", "", "read exported symbols from this dump before processing")
	modpostCmd.Flags().StringP("dump-output", "o", "", "write every exported symbol to this dump after processing")
	modpostCmd.Flags().BoolP("modversions", "m", false, "emit the symbol version table")
	modpostCmd.Flags().BoolVarP(&cliParams.allVersions, "all-versions", "a", false, "version all source files (not supported)")
	modpostCmd.Flags().String("output-suffix", ".mod.c", "suffix appended to the module name to form the generated file")

	modpostCmd.PersistentPreRun = func(*cobra.Command, []string) {
		if globalParams.NoColor {
			color.NoColor = true
		}
	}

	for _, factory := range subcommandFactories {
		for _, subcmd := range factory(&globalParams) {
			modpostCmd.AddCommand(subcmd)
		}
	}

	return modpostCmd
}
