// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package version implements 'modpost version'.
package version

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/DataDog/datadog-modpost/cmd/modpost/command"
	"github.com/DataDog/datadog-modpost/pkg/version"
)

// Commands returns a slice of subcommands for the 'modpost' command.
func Commands(_ *command.GlobalParams) []*cobra.Command {
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version info",
		Long:  ``,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			info := version.Get()
			commit := ""
			if info.Commit != "" {
				commit = fmt.Sprintf("- Commit: %s ", color.GreenString(info.Commit))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "modpost %s %s- Go version: %s\n",
				color.CyanString(info.Version),
				commit,
				color.RedString(info.GoVersion),
			)
		},
	}
	return []*cobra.Command{versionCmd}
}
