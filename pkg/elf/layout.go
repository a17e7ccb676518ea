// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package elf

import (
	"github.com/DataDog/datadog-modpost/pkg/util/endian"
	"github.com/DataDog/datadog-modpost/pkg/util/safeelf"
)

// layout holds the field offsets of the on-disk structures for one word width.
// Fields marked word are 4 bytes wide for ELFCLASS32 and 8 bytes for ELFCLASS64.
type layout struct {
	class    safeelf.Class
	wordSize int

	ehdrSize     int
	ehdrType     int
	ehdrMachine  int
	ehdrShoff    int // word
	ehdrShentsz  int
	ehdrShnum    int
	ehdrShstrndx int

	shentSize  int
	shdrName   int
	shdrType   int
	shdrOffset int // word
	shdrSize   int // word
	shdrLink   int

	symEntSize int
	symName    int
	symValue   int // word
	symSize    int // word
	symInfo    int
	symShndx   int
}

var layout32 = layout{
	class:    safeelf.ELFCLASS32,
	wordSize: 4,

	ehdrSize:     52,
	ehdrType:     16,
	ehdrMachine:  18,
	ehdrShoff:    32,
	ehdrShentsz:  46,
	ehdrShnum:    48,
	ehdrShstrndx: 50,

	shentSize:  40,
	shdrName:   0,
	shdrType:   4,
	shdrOffset: 16,
	shdrSize:   20,
	shdrLink:   24,

	symEntSize: safeelf.Sym32Size,
	symName:    0,
	symValue:   4,
	symSize:    8,
	symInfo:    12,
	symShndx:   14,
}

var layout64 = layout{
	class:    safeelf.ELFCLASS64,
	wordSize: 8,

	ehdrSize:     64,
	ehdrType:     16,
	ehdrMachine:  18,
	ehdrShoff:    40,
	ehdrShentsz:  58,
	ehdrShnum:    60,
	ehdrShstrndx: 62,

	shentSize:  64,
	shdrName:   0,
	shdrType:   4,
	shdrOffset: 24,
	shdrSize:   32,
	shdrLink:   40,

	symEntSize: safeelf.Sym64Size,
	symName:    0,
	symValue:   8,
	symSize:    16,
	symInfo:    4,
	symShndx:   6,
}

// decoder reads fields of one layout in one byte order.
type decoder struct {
	*layout
	endian.Reader
}

func (d decoder) word(b []byte, off int) uint64 {
	if d.wordSize == 4 {
		return uint64(d.Uint32(b, off))
	}
	return d.Uint64(b, off)
}
