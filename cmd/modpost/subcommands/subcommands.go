// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package subcommands is used to list the subcommands of modpost
package subcommands

import (
	"github.com/DataDog/datadog-modpost/cmd/modpost/command"
	"github.com/DataDog/datadog-modpost/cmd/modpost/subcommands/abicheck"
	"github.com/DataDog/datadog-modpost/cmd/modpost/subcommands/symbols"
	"github.com/DataDog/datadog-modpost/cmd/modpost/subcommands/version"
)

// ModpostSubcommands returns SubcommandFactories for the subcommands
// supported with the current build flags.
func ModpostSubcommands() []command.SubcommandFactory {
	return []command.SubcommandFactory{
		abicheck.Commands,
		symbols.Commands,
		version.Commands,
	}
}
