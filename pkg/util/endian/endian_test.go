// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package endian

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func other(o Order) Order {
	if o == Little {
		return Big
	}
	return Little
}

func TestSwap(t *testing.T) {
	assert.Equal(t, uint16(0x3412), Swap16(0x1234))
	assert.Equal(t, uint32(0x78563412), Swap32(0x12345678))
	assert.Equal(t, uint64(0xefcdab8967452301), Swap64(0x0123456789abcdef))
}

func TestConvertHostIsIdentity(t *testing.T) {
	assert.Equal(t, uint8(0xab), Convert8(0xab, other(Host)))
	assert.Equal(t, uint16(0x1234), Convert16(0x1234, Host))
	assert.Equal(t, uint32(0x12345678), Convert32(0x12345678, Host))
	assert.Equal(t, uint64(0x0123456789abcdef), Convert64(0x0123456789abcdef, Host))
}

func TestConvertTwiceIsIdentity(t *testing.T) {
	values := []uint64{0, 1, 0xff, 0x1234, 0xdeadbeef, 0x0123456789abcdef, math.MaxUint64}
	for _, order := range []Order{Little, Big} {
		for _, v := range values {
			assert.Equal(t, uint16(v), Convert16(Convert16(uint16(v), order), order))
			assert.Equal(t, uint32(v), Convert32(Convert32(uint32(v), order), order))
			assert.Equal(t, v, Convert64(Convert64(v, order), order))
		}
	}
}

func TestReader(t *testing.T) {
	tests := []struct {
		desc  string
		order Order
		bo    binary.ByteOrder
	}{
		{desc: "little", order: Little, bo: binary.LittleEndian},
		{desc: "big", order: Big, bo: binary.BigEndian},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			b := make([]byte, 15)
			b[0] = 0x7f
			tt.bo.PutUint16(b[1:], 0xbeef)
			tt.bo.PutUint32(b[3:], 0xcafef00d)
			tt.bo.PutUint64(b[7:], 0x0102030405060708)

			r := Reader{Order: tt.order}
			assert.Equal(t, uint8(0x7f), r.Uint8(b, 0))
			assert.Equal(t, uint16(0xbeef), r.Uint16(b, 1))
			assert.Equal(t, uint32(0xcafef00d), r.Uint32(b, 3))
			assert.Equal(t, uint64(0x0102030405060708), r.Uint64(b, 7))
		})
	}
}
