// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package devicetable

import "strings"

// ieee1394 match flags
const (
	IEEE1394MatchVendorID    = 0x0001
	IEEE1394MatchModelID     = 0x0002
	IEEE1394MatchSpecifierID = 0x0004
	IEEE1394MatchVersion     = 0x0008
)

// IEEE1394Entry is a struct ieee1394_device_id.
type IEEE1394Entry struct {
	MatchFlags  uint32
	VendorID    uint32
	ModelID     uint32
	SpecifierID uint32
	Version     uint32
}

func ieee1394Size(ptrSize int) int {
	return align(20, ptrSize) + ptrSize
}

func decodeIEEE1394(r record, entries []Entry) ([]Entry, error) {
	return append(entries, &IEEE1394Entry{
		MatchFlags:  r.Uint32(r.data, 0),
		VendorID:    r.Uint32(r.data, 4),
		ModelID:     r.Uint32(r.data, 8),
		SpecifierID: r.Uint32(r.data, 12),
		Version:     r.Uint32(r.data, 16),
	}), nil
}

// Bus implements Entry.
func (e *IEEE1394Entry) Bus() Bus { return IEEE1394 }

// Alias implements Entry.
func (e *IEEE1394Entry) Alias() string {
	var sb strings.Builder
	sb.WriteString("ieee1394:")
	writeFields(&sb,
		longField("ven", e.VendorID, e.MatchFlags&IEEE1394MatchVendorID != 0),
		longField("mo", e.ModelID, e.MatchFlags&IEEE1394MatchModelID != 0),
		longField("sp", e.SpecifierID, e.MatchFlags&IEEE1394MatchSpecifierID != 0),
		longField("ver", e.Version, e.MatchFlags&IEEE1394MatchVersion != 0),
	)
	return sb.String()
}
