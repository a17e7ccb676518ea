// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package config

import (
	"strings"
	"sync"
	"testing"
)

var m = sync.Mutex{}

// Mock replaces the global configuration with a fresh one for the duration
// of the test.
func Mock(t testing.TB) Config {
	m.Lock()
	old := Modpost
	Modpost = NewConfig("modpost", "MODPOST", strings.NewReplacer(".", "_"))
	InitConfig(Modpost)
	t.Cleanup(func() {
		Modpost = old
		m.Unlock()
	})
	return Modpost
}
