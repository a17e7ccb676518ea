// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package mmap maps object files read-only into memory.
package mmap

// Mapping is a read-only view of a whole file. The bytes are valid until
// Close is called, Close releases the mapping exactly once.
type Mapping struct {
	data   []byte
	unmap  func([]byte) error
	closed bool
}

// Bytes returns the mapped file content.
func (m *Mapping) Bytes() []byte {
	return m.data
}

// Len returns the size of the mapping.
func (m *Mapping) Len() int {
	return len(m.data)
}

// Close releases the mapping. Calling it more than once is a no-op.
func (m *Mapping) Close() error {
	if m == nil || m.closed {
		return nil
	}
	m.closed = true
	data := m.data
	m.data = nil
	if m.unmap == nil || len(data) == 0 {
		return nil
	}
	return m.unmap(data)
}

// FromBytes wraps an in-memory buffer, used for objects that do not come
// from a file.
func FromBytes(b []byte) *Mapping {
	return &Mapping{data: b}
}
