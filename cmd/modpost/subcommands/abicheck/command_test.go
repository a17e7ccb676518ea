// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package abicheck

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DataDog/datadog-modpost/cmd/internal/runcmd"
	"github.com/DataDog/datadog-modpost/cmd/modpost/command"
	"github.com/DataDog/datadog-modpost/pkg/config"
	"github.com/DataDog/datadog-modpost/pkg/util/fxutil"
)

func TestCommand(t *testing.T) {
	config.Mock(t)
	fxutil.TestOneShotSubcommand(t,
		Commands(&command.GlobalParams{}),
		[]string{"abi-check", "--ignore", "usb_*,snd_*", "-f", "yaml", "ref.symvers", "Module.symvers"},
		check,
		func(params *cliParams, cfg config.Config) {
			assert.Equal(t, "ref.symvers", params.reference)
			assert.Equal(t, "Module.symvers", params.current)
			assert.Equal(t, []string{"usb_*", "snd_*"}, cfg.GetStringSlice(config.ABIIgnore))
			assert.Equal(t, "yaml", cfg.GetString(config.ABIOutputKind))
		})
}

func TestCommandReferenceFromConfig(t *testing.T) {
	t.Setenv("MODPOST_ABI_REFERENCE", "/boot/ref.symvers")
	config.Mock(t)
	fxutil.TestOneShotSubcommand(t,
		Commands(&command.GlobalParams{}),
		[]string{"abi-check", "Module.symvers"},
		check,
		func(params *cliParams, cfg config.Config) {
			assert.Empty(t, params.reference)
			assert.Equal(t, "Module.symvers", params.current)
			assert.Equal(t, "/boot/ref.symvers", cfg.GetString(config.ABIReference))
			assert.Equal(t, "text", cfg.GetString(config.ABIOutputKind))
		})
}

const refDump = "0x00000001\tprintk\tvmlinux\n" +
	"0x00000002\tusb_register\tdrivers/usb/core/usbcore\n"

func TestCheck(t *testing.T) {
	old := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = old })

	for _, tc := range []struct {
		desc    string
		current string
		ignore  []string
		failed  bool
		first   string
	}{
		{
			desc:    "unchanged",
			current: refDump,
			first:   "No ABI changes.",
		},
		{
			desc:    "added",
			current: refDump + "0x00000003\tkfree\tvmlinux\n",
			first:   "New symbols have been added.  Continuing.",
		},
		{
			desc:    "changed",
			current: "0x00000001\tprintk\tvmlinux\n0x00000005\tusb_register\tdrivers/usb/core/usbcore\n",
			failed:  true,
			first:   "ABI has changed!  Refusing to continue.",
		},
		{
			desc:    "changed but ignored",
			current: "0x00000001\tprintk\tvmlinux\n0x00000005\tusb_register\tdrivers/usb/core/usbcore\n",
			ignore:  []string{"usb_*"},
			first:   "ABI has changed but all changes have been ignored.  Continuing.",
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, "ref.symvers", []byte(refDump), 0o644))
			require.NoError(t, afero.WriteFile(fs, "Module.symvers", []byte(tc.current), 0o644))

			cfg := config.Mock(t)
			cfg.Set(config.ABIIgnore, tc.ignore)

			var out bytes.Buffer
			params := &cliParams{reference: "ref.symvers", current: "Module.symvers", out: &out, fs: fs}
			err := check(params, cfg)
			if tc.failed {
				var exit *runcmd.ExitError
				require.ErrorAs(t, err, &exit)
				assert.Equal(t, 1, exit.Code)
			} else {
				require.NoError(t, err)
			}
			line, _, _ := bytes.Cut(out.Bytes(), []byte("\n"))
			assert.Equal(t, tc.first, string(line))
		})
	}
}

func TestCheckWithoutReference(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "Module.symvers", []byte(refDump), 0o644))
	cfg := config.Mock(t)

	var out bytes.Buffer
	params := &cliParams{current: "Module.symvers", out: &out, fs: fs}
	require.NoError(t, check(params, cfg))
	assert.Equal(t, "Can't read ABI reference.  ABI not checked!  Continuing.\n", out.String())
}

func TestCheckWithoutCurrent(t *testing.T) {
	cfg := config.Mock(t)
	params := &cliParams{reference: "ref.symvers", current: "Module.symvers", out: &bytes.Buffer{}, fs: afero.NewMemMapFs()}
	assert.Error(t, check(params, cfg))
}
