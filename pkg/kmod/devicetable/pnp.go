// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package devicetable

const (
	pnpIDLen      = 8
	pnpMaxDevices = 8
)

// PnPEntry is a struct pnp_device_id.
type PnPEntry struct {
	ID string
}

func pnpSize(ptrSize int) int {
	return align(pnpIDLen, ptrSize) + ptrSize
}

func decodePnP(r record, entries []Entry) ([]Entry, error) {
	return append(entries, &PnPEntry{ID: cString(r.data[:pnpIDLen])}), nil
}

// Bus implements Entry.
func (e *PnPEntry) Bus() Bus { return PnP }

// Alias implements Entry.
func (e *PnPEntry) Alias() string {
	return "pnp:d" + e.ID + "*"
}

// PnPCardEntry is a struct pnp_card_device_id.
type PnPCardEntry struct {
	ID      string
	Devices []string
}

func pnpCardSize(ptrSize int) int {
	return align(pnpIDLen, ptrSize) + ptrSize + pnpMaxDevices*pnpIDLen
}

func decodePnPCard(r record, entries []Entry) ([]Entry, error) {
	e := &PnPCardEntry{ID: cString(r.data[:pnpIDLen])}
	devs := r.data[align(pnpIDLen, r.ptrSize)+r.ptrSize:]
	for i := 0; i < pnpMaxDevices; i++ {
		id := cString(devs[i*pnpIDLen : (i+1)*pnpIDLen])
		if id == "" {
			break
		}
		e.Devices = append(e.Devices, id)
	}
	return append(entries, e), nil
}

// Bus implements Entry.
func (e *PnPCardEntry) Bus() Bus { return PnPCard }

// Alias implements Entry.
func (e *PnPCardEntry) Alias() string {
	s := "pnp:c" + e.ID
	for _, d := range e.Devices {
		s += "d" + d
	}
	return s + "*"
}
