// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package version defines the version of modpost
package version

import "runtime"

// ModpostVersion contains the version of modpost.
// It is populated at build time using -ldflags "-X".
var ModpostVersion string

// Commit is populated with the short commit hash from which modpost was built
var Commit string

var modpostVersionDefault = "0.0.0-dev"

func init() {
	if ModpostVersion == "" {
		ModpostVersion = modpostVersionDefault
	}
}

// Info is the build information printed by the version command.
type Info struct {
	Version   string
	Commit    string
	GoVersion string
}

// Get returns the build information of the running binary.
func Get() Info {
	return Info{Version: ModpostVersion, Commit: Commit, GoVersion: runtime.Version()}
}
