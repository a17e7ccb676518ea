// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package main

import (
	"os"

	"github.com/DataDog/datadog-modpost/cmd/internal/runcmd"
	"github.com/DataDog/datadog-modpost/cmd/modpost/command"
	"github.com/DataDog/datadog-modpost/cmd/modpost/subcommands"
)

func main() {
	os.Exit(runcmd.Run(command.MakeCommand(subcommands.ModpostSubcommands())))
}
