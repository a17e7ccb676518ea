// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package endian converts unsigned integers read from a foreign byte order
// into host byte order.
package endian

import (
	"golang.org/x/sys/cpu"
)

// Order is the byte order of a value as it was stored.
type Order uint8

const (
	// Little is the least significant byte first order (ELFDATA2LSB).
	Little Order = iota + 1
	// Big is the most significant byte first order (ELFDATA2MSB).
	Big
)

// Host is the byte order of the running machine.
var Host = hostOrder()

func hostOrder() Order {
	if cpu.IsBigEndian {
		return Big
	}
	return Little
}

func (o Order) String() string {
	switch o {
	case Little:
		return "little"
	case Big:
		return "big"
	}
	return "unknown"
}

// Convert8 exists for symmetry, a single byte has no order.
func Convert8(v uint8, _ Order) uint8 {
	return v
}

// Convert16 converts v stored in from order to host order.
func Convert16(v uint16, from Order) uint16 {
	if from == Host {
		return v
	}
	return Swap16(v)
}

// Convert32 converts v stored in from order to host order.
func Convert32(v uint32, from Order) uint32 {
	if from == Host {
		return v
	}
	return Swap32(v)
}

// Convert64 converts v stored in from order to host order.
func Convert64(v uint64, from Order) uint64 {
	if from == Host {
		return v
	}
	return Swap64(v)
}

// Swap16 reverses the byte order of v.
func Swap16(v uint16) uint16 {
	return v<<8 | v>>8
}

// Swap32 reverses the byte order of v.
func Swap32(v uint32) uint32 {
	v = (v&0x00ff00ff)<<8 | (v>>8)&0x00ff00ff
	return v<<16 | v>>16
}

// Swap64 reverses the byte order of v.
func Swap64(v uint64) uint64 {
	v = (v&0x00ff00ff00ff00ff)<<8 | (v>>8)&0x00ff00ff00ff00ff
	v = (v&0x0000ffff0000ffff)<<16 | (v>>16)&0x0000ffff0000ffff
	return v<<32 | v>>32
}

// Reader decodes fixed size fields from raw memory stored in one byte order.
type Reader struct {
	Order Order
}

// Uint8 returns the byte at off.
func (r Reader) Uint8(b []byte, off int) uint8 {
	return Convert8(b[off], r.Order)
}

// Uint16 returns the two bytes at off in host order.
func (r Reader) Uint16(b []byte, off int) uint16 {
	return Convert16(hostUint16(b[off:off+2]), r.Order)
}

// Uint32 returns the four bytes at off in host order.
func (r Reader) Uint32(b []byte, off int) uint32 {
	return Convert32(hostUint32(b[off:off+4]), r.Order)
}

// Uint64 returns the eight bytes at off in host order.
func (r Reader) Uint64(b []byte, off int) uint64 {
	return Convert64(hostUint64(b[off:off+8]), r.Order)
}

// hostUintN reinterpret raw memory as a host integer, like a pointer cast would.
func hostUint16(b []byte) uint16 {
	_ = b[1]
	if Host == Big {
		return uint16(b[0])<<8 | uint16(b[1])
	}
	return uint16(b[0]) | uint16(b[1])<<8
}

func hostUint32(b []byte) uint32 {
	_ = b[3]
	if Host == Big {
		return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func hostUint64(b []byte) uint64 {
	_ = b[7]
	if Host == Big {
		return uint64(hostUint32(b[4:8])) | uint64(hostUint32(b[0:4]))<<32
	}
	return uint64(hostUint32(b[0:4])) | uint64(hostUint32(b[4:8]))<<32
}
