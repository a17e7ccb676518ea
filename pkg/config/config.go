// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2018 Datadog, Inc.

// Package config holds the modpost settings. Values come, by increasing
// priority, from defaults, MODPOST_* environment variables, the optional
// YAML configuration file and command line flags.
package config

import (
	"strings"
)

// Setting keys
const (
	LogLevel      = "log_level"
	LogFile       = "log_file"
	Modversions   = "modversions"
	DumpInput     = "dump.input"
	DumpOutput    = "dump.output"
	OutputSuffix  = "output_suffix"
	ABIIgnore     = "abi.ignore"
	ABIReference  = "abi.reference"
	ABIOutputKind = "abi.format"
)

// Modpost is the global configuration object
var Modpost Config

func init() {
	Modpost = NewConfig("modpost", "MODPOST", strings.NewReplacer(".", "_"))
	InitConfig(Modpost)
}

// InitConfig declares every setting with its default.
func InitConfig(config Config) {
	config.BindEnvAndSetDefault(LogLevel, "info")
	config.BindEnvAndSetDefault(LogFile, "")
	config.BindEnvAndSetDefault(Modversions, false)
	config.BindEnvAndSetDefault(DumpInput, "")
	config.BindEnvAndSetDefault(DumpOutput, "")
	config.BindEnvAndSetDefault(OutputSuffix, ".mod.c")
	config.BindEnvAndSetDefault(ABIIgnore, []string{})
	config.BindEnvAndSetDefault(ABIReference, "")
	config.BindEnvAndSetDefault(ABIOutputKind, "text")
}

// Load reads the configuration file at path into config. An empty path
// leaves defaults and environment in place.
func Load(config Config, path string) error {
	if path == "" {
		return nil
	}
	config.SetConfigFile(path)
	return config.ReadInConfig()
}
