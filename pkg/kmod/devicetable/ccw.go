// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package devicetable

import "strings"

// ccw match flags
const (
	CCWMatchCUType     = 0x01
	CCWMatchCUModel    = 0x02
	CCWMatchDeviceType = 0x04
	CCWMatchDevModel   = 0x08
)

// CCWEntry is a struct ccw_device_id.
type CCWEntry struct {
	MatchFlags uint16
	CUType     uint16
	DevType    uint16
	CUModel    uint8
	DevModel   uint8
}

func ccwSize(ptrSize int) int {
	return align(8, ptrSize) + ptrSize
}

func decodeCCW(r record, entries []Entry) ([]Entry, error) {
	return append(entries, &CCWEntry{
		MatchFlags: r.Uint16(r.data, 0),
		CUType:     r.Uint16(r.data, 2),
		DevType:    r.Uint16(r.data, 4),
		CUModel:    r.Uint8(r.data, 6),
		DevModel:   r.Uint8(r.data, 7),
	}), nil
}

// Bus implements Entry.
func (e *CCWEntry) Bus() Bus { return CCW }

// Alias implements Entry.
func (e *CCWEntry) Alias() string {
	var sb strings.Builder
	sb.WriteString("ccw:")
	writeFields(&sb,
		wordField("t", e.CUType, e.MatchFlags&CCWMatchCUType != 0),
		byteField("m", e.CUModel, e.MatchFlags&CCWMatchCUModel != 0),
		wordField("dt", e.DevType, e.MatchFlags&CCWMatchDeviceType != 0),
		byteField("dm", e.DevModel, e.MatchFlags&CCWMatchDevModel != 0),
	)
	return sb.String()
}
