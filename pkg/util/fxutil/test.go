// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package fxutil

import (
	"reflect"
	"runtime"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

// TestOneShot runs cmd with commandline and checks that it ends in a call to
// OneShot with expectedOneShotFunc. Instead of running that function, the
// fx options it was given are started with verifyFn invoked, so verifyFn can
// take the supplied params and components as arguments and assert on them.
func TestOneShot(t *testing.T, cmd *cobra.Command, commandline []string, expectedOneShotFunc interface{}, verifyFn interface{}) {
	var oneShotCalled bool
	fxAppTestOverride = func(oneShotFunc interface{}, opts []fx.Option) error {
		oneShotCalled = true
		require.Equal(t,
			funcName(expectedOneShotFunc), funcName(oneShotFunc),
			"got a different oneShotFunc than expected")

		app := fxtest.New(t, append(opts, fx.Invoke(verifyFn))...)
		defer app.RequireStart().RequireStop()
		return nil
	}
	defer func() { fxAppTestOverride = nil }()

	cmd.SetArgs(commandline)
	require.NoError(t, cmd.Execute())
	require.True(t, oneShotCalled, "fxutil.OneShot wasn't called")
}

// TestOneShotSubcommand is TestOneShot for subcommands. They are attached to
// a bare root command, commandline starts with the subcommand name.
func TestOneShotSubcommand(t *testing.T, subcommands []*cobra.Command, commandline []string, expectedOneShotFunc interface{}, verifyFn interface{}) {
	cmd := &cobra.Command{Use: "test"}
	for _, c := range subcommands {
		cmd.AddCommand(c)
	}
	TestOneShot(t, cmd, commandline, expectedOneShotFunc, verifyFn)
}

func funcName(fn interface{}) string {
	return runtime.FuncForPC(reflect.ValueOf(fn).Pointer()).Name()
}
