// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package log is the process wide logger, a thin wrapper over seelog.
package log

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/cihub/seelog"
)

var (
	logger *ModpostLogger

	// Lines logged before SetupLogger are kept here and replayed once the
	// logger exists, config loading logs before the log level is known.
	logsBuffer           = []func(){}
	bufferLogsBeforeInit = true
	bufferMutex          sync.Mutex
	defaultStackDepth    = 3
)

// ModpostLogger wraps a seelog logger with a level filter.
type ModpostLogger struct {
	inner seelog.LoggerInterface
	level seelog.LogLevel
	l     sync.RWMutex
}

// SetupLogger installs l as the process logger and replays buffered lines.
func SetupLogger(l seelog.LoggerInterface, level string) {
	logger = &ModpostLogger{inner: l}

	lvl, ok := seelog.LogLevelFromString(strings.ToLower(level))
	if !ok {
		lvl = seelog.InfoLvl
	}
	logger.level = lvl

	// the exported functions add two frames between the caller and seelog
	logger.inner.SetAdditionalStackDepth(defaultStackDepth) //nolint:errcheck

	bufferMutex.Lock()
	bufferLogsBeforeInit = false
	defer bufferMutex.Unlock()
	for _, logLine := range logsBuffer {
		logLine()
	}
	logsBuffer = []func(){}
}

func addLogToBuffer(logHandle func()) {
	bufferMutex.Lock()
	defer bufferMutex.Unlock()

	logsBuffer = append(logsBuffer, logHandle)
}

func (sw *ModpostLogger) shouldLog(level seelog.LogLevel) bool {
	sw.l.RLock()
	defer sw.l.RUnlock()
	return level >= sw.level
}

func (sw *ModpostLogger) changeLogLevel(level string) error {
	lvl, ok := seelog.LogLevelFromString(strings.ToLower(level))
	if !ok {
		return errors.New("bad log level")
	}
	sw.l.Lock()
	sw.level = lvl
	sw.l.Unlock()
	return nil
}

func (sw *ModpostLogger) write(level seelog.LogLevel, s string) error {
	sw.l.Lock()
	defer sw.l.Unlock()

	switch level {
	case seelog.TraceLvl:
		sw.inner.Trace(s)
	case seelog.DebugLvl:
		sw.inner.Debug(s)
	case seelog.InfoLvl:
		sw.inner.Info(s)
	case seelog.WarnLvl:
		return sw.inner.Warn(s)
	case seelog.ErrorLvl:
		return sw.inner.Error(s)
	case seelog.CriticalLvl:
		return sw.inner.Critical(s)
	}
	return nil
}

func ready() bool {
	return logger != nil && logger.inner != nil
}

func logf(level seelog.LogLevel, bufferFunc func(), format string, params ...interface{}) {
	if ready() && logger.shouldLog(level) {
		logger.write(level, fmt.Sprintf(format, params...)) //nolint:errcheck
	} else if bufferLogsBeforeInit && !ready() {
		addLogToBuffer(bufferFunc)
	}
}

func logfWithError(level seelog.LogLevel, bufferFunc func(), fallbackStderr bool, format string, params ...interface{}) error {
	msg := fmt.Sprintf(format, params...)
	if ready() && logger.shouldLog(level) {
		logger.write(level, msg) //nolint:errcheck
	} else if bufferLogsBeforeInit && !ready() {
		addLogToBuffer(bufferFunc)
		if fallbackStderr {
			fmt.Fprintf(os.Stderr, "%s: %s\n", level.String(), msg)
		}
	}
	return errors.New(msg)
}

// Trace logs at the trace level
func Trace(v ...interface{}) {
	logf(seelog.TraceLvl, func() { Trace(v...) }, "%s", fmt.Sprint(v...))
}

// Tracef logs with format at the trace level
func Tracef(format string, params ...interface{}) {
	logf(seelog.TraceLvl, func() { Tracef(format, params...) }, format, params...)
}

// Debug logs at the debug level
func Debug(v ...interface{}) {
	logf(seelog.DebugLvl, func() { Debug(v...) }, "%s", fmt.Sprint(v...))
}

// Debugf logs with format at the debug level
func Debugf(format string, params ...interface{}) {
	logf(seelog.DebugLvl, func() { Debugf(format, params...) }, format, params...)
}

// Info logs at the info level
func Info(v ...interface{}) {
	logf(seelog.InfoLvl, func() { Info(v...) }, "%s", fmt.Sprint(v...))
}

// Infof logs with format at the info level
func Infof(format string, params ...interface{}) {
	logf(seelog.InfoLvl, func() { Infof(format, params...) }, format, params...)
}

// Warn logs at the warn level and returns an error containing the formated log message
func Warn(v ...interface{}) error {
	return logfWithError(seelog.WarnLvl, func() { Warn(v...) }, false, "%s", fmt.Sprint(v...))
}

// Warnf logs with format at the warn level and returns an error containing the formated log message
func Warnf(format string, params ...interface{}) error {
	return logfWithError(seelog.WarnLvl, func() { Warnf(format, params...) }, false, format, params...)
}

// Error logs at the error level and returns an error containing the formated log message
func Error(v ...interface{}) error {
	return logfWithError(seelog.ErrorLvl, func() { Error(v...) }, true, "%s", fmt.Sprint(v...))
}

// Errorf logs with format at the error level and returns an error containing the formated log message
func Errorf(format string, params ...interface{}) error {
	return logfWithError(seelog.ErrorLvl, func() { Errorf(format, params...) }, true, format, params...)
}

// Critical logs at the critical level and returns an error containing the formated log message
func Critical(v ...interface{}) error {
	return logfWithError(seelog.CriticalLvl, func() { Critical(v...) }, true, "%s", fmt.Sprint(v...))
}

// Criticalf logs with format at the critical level and returns an error containing the formated log message
func Criticalf(format string, params ...interface{}) error {
	return logfWithError(seelog.CriticalLvl, func() { Criticalf(format, params...) }, true, format, params...)
}

// Flush flushes the underlying inner log
func Flush() {
	if ready() {
		logger.inner.Flush()
	}
}

// GetLogLevel returns a seelog native representation of the current log level
func GetLogLevel() (seelog.LogLevel, error) {
	if ready() {
		logger.l.RLock()
		defer logger.l.RUnlock()
		return logger.level, nil
	}
	// need to return something, just set to Info (expected default)
	return seelog.InfoLvl, errors.New("cannot get loglevel: logger not initialized")
}

// ChangeLogLevel changes the current log level, valid levels are trace, debug,
// info, warn, error, critical and off
func ChangeLogLevel(level string) error {
	if ready() {
		return logger.changeLogLevel(level)
	}
	return errors.New("cannot change loglevel: logger not initialized")
}
