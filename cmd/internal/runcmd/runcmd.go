// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package runcmd runs a cobra command and maps its outcome to a process
// exit status.
package runcmd

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/DataDog/datadog-modpost/pkg/util/fxutil"
	"github.com/DataDog/datadog-modpost/pkg/util/log"
)

// ExitError ends the process with Code. The command has already reported
// why, so nothing more is printed.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// Exit returns an ExitError for code.
func Exit(code int) error {
	return &ExitError{Code: code}
}

// Run executes cmd and returns the exit status for os.Exit.
func Run(cmd *cobra.Command) int {
	// errors are reported here, once
	cmd.SilenceErrors = true
	err := cmd.Execute()
	log.Flush()
	if err == nil {
		return 0
	}

	var exit *ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}
	err = fxutil.UnwrapIfErrArgumentsFailed(err)
	fmt.Fprintln(cmd.ErrOrStderr(), color.RedString("Error: %v", err))
	return 1
}
