// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package errors defines the error kinds raised while post-processing
// kernel module objects.
package errors

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a ModpostError.
type ErrorKind int

const (
	// IO is a failure to open, map or read a file.
	IO ErrorKind = iota
	// Format is a malformed or unsupported input.
	Format
	// Duplicate is two real modules sharing a name.
	Duplicate
	// Index is a section or symbol index out of range.
	Index
	// Fatal is a broken internal invariant.
	Fatal
)

func (k ErrorKind) String() string {
	switch k {
	case IO:
		return "io"
	case Format:
		return "format"
	case Duplicate:
		return "duplicate"
	case Index:
		return "index"
	case Fatal:
		return "fatal"
	}
	return "unknown"
}

// ModpostError is an error of a given kind, optionally wrapping a cause.
type ModpostError struct {
	kind    ErrorKind
	message string
	cause   error
}

// Error implements the error interface.
func (e *ModpostError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the wrapped cause.
func (e *ModpostError) Unwrap() error {
	return e.cause
}

// Kind returns the kind of the error.
func (e *ModpostError) Kind() ErrorKind {
	return e.kind
}

// Is matches any ModpostError of the same kind with the same message.
func (e *ModpostError) Is(target error) bool {
	t, ok := target.(*ModpostError)
	if !ok {
		return false
	}
	return t.kind == e.kind && (t.message == "" || t.message == e.message)
}

// NewIO returns a new IO error wrapping err.
func NewIO(path string, err error) *ModpostError {
	return &ModpostError{kind: IO, message: path, cause: err}
}

// NewFormat returns a new format error.
func NewFormat(format string, args ...interface{}) *ModpostError {
	return &ModpostError{kind: Format, message: fmt.Sprintf(format, args...)}
}

// NewDuplicate returns a new duplicate error for the named module.
func NewDuplicate(name string) *ModpostError {
	return &ModpostError{kind: Duplicate, message: fmt.Sprintf("already know a module with name %q", name)}
}

// NewIndex returns a new index error.
func NewIndex(what string, index, count int) *ModpostError {
	return &ModpostError{kind: Index, message: fmt.Sprintf("%s index %d out of range [0,%d)", what, index, count)}
}

// NewFatal returns a new fatal error.
func NewFatal(format string, args ...interface{}) *ModpostError {
	return &ModpostError{kind: Fatal, message: fmt.Sprintf(format, args...)}
}

func isKind(err error, kind ErrorKind) bool {
	var e *ModpostError
	return errors.As(err, &e) && e.kind == kind
}

// IsIO returns true if the specified error is an IO error.
func IsIO(err error) bool {
	return isKind(err, IO)
}

// IsFormat returns true if the specified error is a format error.
func IsFormat(err error) bool {
	return isKind(err, Format)
}

// IsDuplicate returns true if the specified error is a duplicate module error.
func IsDuplicate(err error) bool {
	return isKind(err, Duplicate)
}

// IsIndex returns true if the specified error is an out of range error.
func IsIndex(err error) bool {
	return isKind(err, Index)
}

// IsFatal returns true if the specified error is fatal.
func IsFatal(err error) bool {
	return isKind(err, Fatal)
}
