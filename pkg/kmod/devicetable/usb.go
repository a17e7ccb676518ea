// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package devicetable

import (
	"fmt"
	"strings"
)

// usb match flags
const (
	USBMatchVendor      = 0x0001
	USBMatchProduct     = 0x0002
	USBMatchDevLo       = 0x0004
	USBMatchDevHi       = 0x0008
	USBMatchDevClass    = 0x0010
	USBMatchDevSubclass = 0x0020
	USBMatchDevProtocol = 0x0040
	USBMatchIntClass    = 0x0080
	USBMatchIntSubclass = 0x0100
	USBMatchIntProtocol = 0x0200
)

// bcdDevice has four BCD digits, the last one is rendered as a range.
const usbBCDDigits = 3

// USBEntry is one alias worth of a struct usb_device_id. A record whose
// bcdDevice range cannot be expressed by a single pattern yields several
// entries, each covering the prefix BCDInitial (BCDInitialDigits digits long)
// followed by one digit in [RangeLo, RangeHi].
type USBEntry struct {
	MatchFlags        uint16
	IDVendor          uint16
	IDProduct         uint16
	DeviceClass       uint8
	DeviceSubclass    uint8
	DeviceProtocol    uint8
	InterfaceClass    uint8
	InterfaceSubclass uint8
	InterfaceProtocol uint8
	BCDInitial        uint16
	BCDInitialDigits  int
	RangeLo, RangeHi  uint8
}

func usbSize(ptrSize int) int {
	return align(16, ptrSize) + ptrSize
}

func decodeUSB(r record, entries []Entry) ([]Entry, error) {
	id := USBEntry{
		MatchFlags:        r.Uint16(r.data, 0),
		IDVendor:          r.Uint16(r.data, 2),
		IDProduct:         r.Uint16(r.data, 4),
		DeviceClass:       r.Uint8(r.data, 10),
		DeviceSubclass:    r.Uint8(r.data, 11),
		DeviceProtocol:    r.Uint8(r.data, 12),
		InterfaceClass:    r.Uint8(r.data, 13),
		InterfaceSubclass: r.Uint8(r.data, 14),
		InterfaceProtocol: r.Uint8(r.data, 15),
	}
	if id.IDVendor == 0 && id.DeviceClass == 0 && id.InterfaceClass == 0 {
		return entries, nil
	}

	lo, hi := uint16(0), uint16(0xffff)
	if id.MatchFlags&USBMatchDevLo != 0 {
		lo = r.Uint16(r.data, 6)
	}
	if id.MatchFlags&USBMatchDevHi != 0 {
		hi = r.Uint16(r.data, 8)
	}

	emit := func(initial uint16, ndigits int, rlo, rhi uint8) {
		e := id
		e.BCDInitial, e.BCDInitialDigits, e.RangeLo, e.RangeHi = initial, ndigits, rlo, rhi
		entries = append(entries, &e)
	}

	for ndigits := usbBCDDigits; lo <= hi; ndigits-- {
		clo := uint8(lo & 0xf)
		chi := uint8(hi & 0xf)
		if chi > 9 {
			chi = 9
		}
		lo >>= 4
		hi >>= 4

		if lo == hi || ndigits == 0 {
			emit(lo, ndigits, clo, chi)
			break
		}
		if clo > 0 {
			emit(lo, ndigits, clo, 9)
			lo++
		}
		if chi < 9 {
			emit(hi, ndigits, 0, chi)
			hi--
		}
	}
	return entries, nil
}

// Bus implements Entry.
func (e *USBEntry) Bus() Bus { return USB }

// Alias implements Entry.
func (e *USBEntry) Alias() string {
	var sb strings.Builder
	sb.WriteString("usb:")
	wordField("v", e.IDVendor, e.MatchFlags&USBMatchVendor != 0).write(&sb, false)
	wordField("p", e.IDProduct, e.MatchFlags&USBMatchProduct != 0).write(&sb, false)

	sb.WriteByte('d')
	if e.BCDInitialDigits > 0 {
		fmt.Fprintf(&sb, "%0*X", e.BCDInitialDigits, e.BCDInitial)
	}
	switch {
	case e.RangeLo == e.RangeHi:
		fmt.Fprintf(&sb, "%d", e.RangeLo)
	case e.RangeLo > 0 || e.RangeHi < 9:
		fmt.Fprintf(&sb, "[%d-%d]", e.RangeLo, e.RangeHi)
	}
	if e.BCDInitialDigits < usbBCDDigits {
		sb.WriteByte('*')
	}

	writeFields(&sb,
		byteField("dc", e.DeviceClass, e.MatchFlags&USBMatchDevClass != 0),
		byteField("dsc", e.DeviceSubclass, e.MatchFlags&USBMatchDevSubclass != 0),
		byteField("dp", e.DeviceProtocol, e.MatchFlags&USBMatchDevProtocol != 0),
		byteField("ic", e.InterfaceClass, e.MatchFlags&USBMatchIntClass != 0),
		byteField("isc", e.InterfaceSubclass, e.MatchFlags&USBMatchIntSubclass != 0),
		byteField("ip", e.InterfaceProtocol, e.MatchFlags&USBMatchIntProtocol != 0),
	)
	return sb.String()
}
