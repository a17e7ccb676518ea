// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package devicetable decodes the device ID tables compiled into kernel
// modules and renders them as module alias strings.
package devicetable

import (
	"bytes"

	modposterrors "github.com/DataDog/datadog-modpost/pkg/errors"
	"github.com/DataDog/datadog-modpost/pkg/util/endian"
)

// Bus identifies the layout of a device ID table.
type Bus int

// Known bus types, in the order tables are looked up in a module.
const (
	CCW Bus = iota
	I2C
	IEEE1394
	Input
	OF
	PCI
	PCMCIA
	PnP
	PnPCard
	Serio
	USB
	VIO
)

var busNames = [...]string{
	CCW:      "ccw",
	I2C:      "i2c",
	IEEE1394: "ieee1394",
	Input:    "input",
	OF:       "of",
	PCI:      "pci",
	PCMCIA:   "pcmcia",
	PnP:      "pnp",
	PnPCard:  "pnp_card",
	Serio:    "serio",
	USB:      "usb",
	VIO:      "vio",
}

func (b Bus) String() string {
	if b < 0 || int(b) >= len(busNames) {
		return "unknown"
	}
	return busNames[b]
}

// SymbolName is the symbol the compiler emits for a table of this bus.
func (b Bus) SymbolName() string {
	return "__mod_" + b.String() + "_device_table"
}

// Decodable reports whether tables of this bus can be turned into aliases.
func (b Bus) Decodable() bool {
	_, ok := decoders[b]
	return ok
}

// Buses returns every known bus type.
func Buses() []Bus {
	buses := make([]Bus, len(busNames))
	for i := range busNames {
		buses[i] = Bus(i)
	}
	return buses
}

// Entry is one decoded device ID record.
type Entry interface {
	Bus() Bus
	// Alias renders the record in the module alias grammar of its bus.
	Alias() string
}

// Table is the decoded content of one device ID table.
type Table struct {
	Bus     Bus
	Entries []Entry
}

// Aliases renders every entry of the table in decode order.
func (t *Table) Aliases() []string {
	aliases := make([]string, 0, len(t.Entries))
	for _, e := range t.Entries {
		aliases = append(aliases, e.Alias())
	}
	return aliases
}

// record is a view over one raw record of a table.
type record struct {
	endian.Reader
	data    []byte
	ptrSize int
}

type decoder struct {
	// size returns the record size for a pointer size of ptrSize bytes.
	size func(ptrSize int) int
	// decode appends the entries for r, usb records may expand to several.
	decode func(r record, entries []Entry) ([]Entry, error)
}

var decoders = map[Bus]decoder{
	CCW:      {size: ccwSize, decode: decodeCCW},
	IEEE1394: {size: ieee1394Size, decode: decodeIEEE1394},
	PCI:      {size: pciSize, decode: decodePCI},
	PnP:      {size: pnpSize, decode: decodePnP},
	PnPCard:  {size: pnpCardSize, decode: decodePnPCard},
	USB:      {size: usbSize, decode: decodeUSB},
}

// align rounds off up to the next multiple of a.
func align(off, a int) int {
	return (off + a - 1) / a * a
}

// Decode reads data as an array of device ID records of bus laid out for a
// word width of width bits stored in order. The last record is the all zero
// terminator and is dropped.
func Decode(bus Bus, width int, order endian.Order, data []byte) (*Table, error) {
	dec, ok := decoders[bus]
	if !ok {
		return nil, modposterrors.NewFormat("no decoder for %s device table", bus)
	}
	var ptrSize int
	switch width {
	case 32:
		ptrSize = 4
	case 64:
		ptrSize = 8
	default:
		return nil, modposterrors.NewFormat("unsupported word width %d", width)
	}

	size := dec.size(ptrSize)
	if len(data)%size != 0 {
		return nil, modposterrors.NewFormat("bad size")
	}

	table := &Table{Bus: bus}
	n := len(data) / size
	for i := 0; i < n-1; i++ {
		r := record{Reader: endian.Reader{Order: order}, data: data[i*size : (i+1)*size], ptrSize: ptrSize}
		var err error
		if table.Entries, err = dec.decode(r, table.Entries); err != nil {
			return nil, err
		}
	}
	return table, nil
}

// cString returns the NUL terminated string at the start of b.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}
