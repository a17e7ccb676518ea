// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2017 Datadog, Inc.

package config

import (
	"fmt"
	"strings"

	"github.com/cihub/seelog"

	"github.com/DataDog/datadog-modpost/pkg/util/log"
)

const logFileMaxSize = 10 * 1024 * 1024         // 10MB
const logDateFormat = "2006-01-02 15:04:05 MST" // see time.Format for format syntax

// projectRoot is trimmed from the source paths of log lines.
const projectRoot = "datadog-modpost/"

func createShortFilePathFormatter(string) seelog.FormatterFunc {
	return func(_ string, _ seelog.LogLevel, context seelog.LogContextInterface) interface{} {
		return extractShortPathFromFullPath(context.FullPath())
	}
}

// extractShortPathFromFullPath returns the path relative to the project root,
// or the path unchanged when it is outside the project.
func extractShortPathFromFullPath(fullPath string) string {
	if i := strings.LastIndex(fullPath, projectRoot); i >= 0 {
		return fullPath[i+len(projectRoot):]
	}
	return fullPath
}

func buildLoggerConfig(logLevel, logFile string) string {
	configTemplate := `<seelog minlevel="%s">
    <outputs formatid="common">
        <console />`
	if logFile != "" {
		configTemplate += `<rollingfile type="size" filename="%s" maxsize="%d" maxrolls="1" />`
	}
	configTemplate += `</outputs>
    <formats>
        <format id="common" format="%%Date(%s) | MODPOST | %%LEVEL | (%%ShortFilePath:%%Line) | %%Msg%%n"/>
    </formats>
</seelog>`
	if logFile != "" {
		return fmt.Sprintf(configTemplate, strings.ToLower(logLevel), logFile, logFileMaxSize, logDateFormat)
	}
	return fmt.Sprintf(configTemplate, strings.ToLower(logLevel), logDateFormat)
}

// SetupLogger sets up the process logger, writing to the console and, when
// logFile is set, to a size rotated file.
func SetupLogger(logLevel, logFile string) error {
	if _, ok := seelog.LogLevelFromString(strings.ToLower(logLevel)); !ok {
		return fmt.Errorf("unknown log level %q", logLevel)
	}
	logger, err := seelog.LoggerFromConfigAsString(buildLoggerConfig(logLevel, logFile))
	if err != nil {
		return err
	}
	log.SetupLogger(logger, logLevel)
	return nil
}

func init() {
	_ = seelog.RegisterCustomFormatter("ShortFilePath", createShortFilePathFormatter)
}
