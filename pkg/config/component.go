// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package config

import (
	"github.com/spf13/pflag"
	"go.uber.org/fx"
)

// Params are the inputs of the config module.
type Params struct {
	// ConfFilePath is the optional YAML configuration file.
	ConfFilePath string
	// Flags are bound to their setting key. A flag set on the command line
	// wins over file and environment.
	Flags map[string]*pflag.Flag
	// Overrides are applied on top of everything else.
	Overrides map[string]interface{}
}

// NewParams returns Params for the given configuration file.
func NewParams(confFilePath string) Params {
	return Params{
		ConfFilePath: confFilePath,
		Flags:        map[string]*pflag.Flag{},
		Overrides:    map[string]interface{}{},
	}
}

// Module provides the loaded Config and sets up logging from it.
func Module() fx.Option {
	return fx.Module("config",
		fx.Provide(newConfig),
		fx.Invoke(setupLogging),
	)
}

func newConfig(params Params) (Config, error) {
	if err := Load(Modpost, params.ConfFilePath); err != nil {
		return nil, err
	}
	for key, flag := range params.Flags {
		if err := Modpost.BindPFlag(key, flag); err != nil {
			return nil, err
		}
	}
	for k, v := range params.Overrides {
		Modpost.Set(k, v)
	}
	return Modpost, nil
}

func setupLogging(cfg Config) error {
	return SetupLogger(cfg.GetString(LogLevel), cfg.GetString(LogFile))
}
