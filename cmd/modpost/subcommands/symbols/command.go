// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package symbols implements 'modpost symbols'.
package symbols

import (
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/DataDog/datadog-modpost/cmd/modpost/command"
	"github.com/DataDog/datadog-modpost/pkg/config"
	"github.com/DataDog/datadog-modpost/pkg/kmod/abi"
	"github.com/DataDog/datadog-modpost/pkg/util/fxutil"
)

// cliParams are the command-line arguments for this subcommand
type cliParams struct {
	*command.GlobalParams

	dump  string
	table bool

	out io.Writer
	fs  afero.Fs
}

// Commands returns a slice of subcommands for the 'modpost' command.
func Commands(globalParams *command.GlobalParams) []*cobra.Command {
	cliParams := &cliParams{GlobalParams: globalParams}

	cmd := &cobra.Command{
		Use:   "symbols <dump>",
		Short: "List the symbols of a dump by module",
		Long:  `List the symbols of a dump, the kernel image first, then each module by name.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliParams.dump = args[0]
			cliParams.out = cmd.OutOrStdout()
			cliParams.fs = afero.NewOsFs()

			return fxutil.OneShot(list,
				fx.Supply(cliParams),
				fx.Supply(globalParams.ConfigParams(nil)),
				config.Module(),
			)
		},
	}
	cmd.Flags().BoolVarP(&cliParams.table, "table", "t", false, "render a single table")

	return []*cobra.Command{cmd}
}

func list(params *cliParams) error {
	symbols, err := abi.ReadSymbols(params.fs, params.dump)
	if err != nil {
		return err
	}
	if params.table {
		symbols.WriteTable(params.out)
		return nil
	}
	return symbols.WriteHuman(params.out)
}
