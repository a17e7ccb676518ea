// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package module

import (
	"github.com/DataDog/datadog-modpost/pkg/util/log"
)

// Warner receives the non fatal diagnostics raised while reading modules
// and resolving their symbols.
type Warner interface {
	Warnf(format string, params ...interface{})
}

type logWarner struct{}

func (logWarner) Warnf(format string, params ...interface{}) {
	_ = log.Warnf(format, params...)
}

// LogWarner forwards warnings to the process logger.
var LogWarner Warner = logWarner{}
