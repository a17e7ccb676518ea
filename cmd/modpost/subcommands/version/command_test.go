// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package version

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DataDog/datadog-modpost/cmd/modpost/command"
	"github.com/DataDog/datadog-modpost/pkg/version"
)

func TestVersion(t *testing.T) {
	old := color.NoColor
	t.Cleanup(func() { color.NoColor = old })

	root := command.MakeCommand([]command.SubcommandFactory{Commands})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--no-color", "version"})
	require.NoError(t, root.Execute())

	assert.Equal(t, "modpost "+version.ModpostVersion+" - Go version: "+runtime.Version()+"\n", out.String())
}
