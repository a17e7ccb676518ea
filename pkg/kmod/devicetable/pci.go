// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package devicetable

import (
	"strings"

	modposterrors "github.com/DataDog/datadog-modpost/pkg/errors"
)

// PCIAnyID matches any vendor or device.
const PCIAnyID = 0xffffffff

// PCIEntry is a struct pci_device_id.
type PCIEntry struct {
	Vendor    uint32
	Device    uint32
	Subvendor uint32
	Subdevice uint32
	Class     uint32
	ClassMask uint32
}

func pciSize(ptrSize int) int {
	return align(24, ptrSize) + ptrSize
}

func decodePCI(r record, entries []Entry) ([]Entry, error) {
	e := &PCIEntry{
		Vendor:    r.Uint32(r.data, 0),
		Device:    r.Uint32(r.data, 4),
		Subvendor: r.Uint32(r.data, 8),
		Subdevice: r.Uint32(r.data, 12),
		Class:     r.Uint32(r.data, 16),
		ClassMask: r.Uint32(r.data, 20),
	}
	for _, m := range e.classMasks() {
		if m != 0 && m != 0xff {
			return nil, modposterrors.NewFormat("can't handle masks")
		}
	}
	return append(entries, e), nil
}

// classMasks splits the class mask into base class, subclass and interface.
func (e *PCIEntry) classMasks() [3]uint8 {
	return [3]uint8{uint8(e.ClassMask >> 16), uint8(e.ClassMask >> 8), uint8(e.ClassMask)}
}

// Bus implements Entry.
func (e *PCIEntry) Bus() Bus { return PCI }

// Alias implements Entry.
func (e *PCIEntry) Alias() string {
	masks := e.classMasks()
	var sb strings.Builder
	sb.WriteString("pci:")
	writeFields(&sb,
		longField("v", e.Vendor, e.Vendor != PCIAnyID),
		longField("d", e.Device, e.Device != PCIAnyID),
		longField("sv", e.Subvendor, e.Subvendor != PCIAnyID),
		longField("sd", e.Subdevice, e.Subdevice != PCIAnyID),
		byteField("bc", uint8(e.Class>>16), masks[0] == 0xff),
		byteField("sc", uint8(e.Class>>8), masks[1] == 0xff),
		byteField("i", uint8(e.Class), masks[2] == 0xff),
	)
	return sb.String()
}
