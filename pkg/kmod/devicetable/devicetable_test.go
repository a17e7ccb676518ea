// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package devicetable

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	modposterrors "github.com/DataDog/datadog-modpost/pkg/errors"
	"github.com/DataDog/datadog-modpost/pkg/util/endian"
)

type target struct {
	desc  string
	width int
	order endian.Order
	bo    binary.ByteOrder
}

func (t target) ptrSize() int {
	return t.width / 8
}

var targets = []target{
	{desc: "32-bit little endian", width: 32, order: endian.Little, bo: binary.LittleEndian},
	{desc: "32-bit big endian", width: 32, order: endian.Big, bo: binary.BigEndian},
	{desc: "64-bit little endian", width: 64, order: endian.Little, bo: binary.LittleEndian},
	{desc: "64-bit big endian", width: 64, order: endian.Big, bo: binary.BigEndian},
}

// withTerminator concatenates records and the zero record closing the table.
func withTerminator(size int, records ...[]byte) []byte {
	var out []byte
	for _, r := range records {
		out = append(out, r...)
	}
	return append(out, make([]byte, size)...)
}

func pciRecord(tg target, vendor, device, subvendor, subdevice, class, mask uint32) []byte {
	b := make([]byte, pciSize(tg.ptrSize()))
	for i, v := range []uint32{vendor, device, subvendor, subdevice, class, mask} {
		tg.bo.PutUint32(b[i*4:], v)
	}
	return b
}

type usbID struct {
	flags, vendor, product, lo, hi uint16
	dc, dsc, dp, ic, isc, ip       uint8
}

func usbRecord(tg target, id usbID) []byte {
	b := make([]byte, usbSize(tg.ptrSize()))
	tg.bo.PutUint16(b[0:], id.flags)
	tg.bo.PutUint16(b[2:], id.vendor)
	tg.bo.PutUint16(b[4:], id.product)
	tg.bo.PutUint16(b[6:], id.lo)
	tg.bo.PutUint16(b[8:], id.hi)
	copy(b[10:], []byte{id.dc, id.dsc, id.dp, id.ic, id.isc, id.ip})
	return b
}

func decodeAliases(t *testing.T, bus Bus, tg target, data []byte) []string {
	t.Helper()
	table, err := Decode(bus, tg.width, tg.order, data)
	require.NoError(t, err)
	assert.Equal(t, bus, table.Bus)
	for _, e := range table.Entries {
		assert.Equal(t, bus, e.Bus())
	}
	return table.Aliases()
}

func TestBuses(t *testing.T) {
	assert.Len(t, Buses(), 12)
	assert.Equal(t, "__mod_pci_device_table", PCI.SymbolName())
	assert.Equal(t, "__mod_pnp_card_device_table", PnPCard.SymbolName())
	assert.Equal(t, "__mod_ieee1394_device_table", IEEE1394.SymbolName())

	var decodable []Bus
	for _, b := range Buses() {
		if b.Decodable() {
			decodable = append(decodable, b)
		}
	}
	assert.Equal(t, []Bus{CCW, IEEE1394, PCI, PnP, PnPCard, USB}, decodable)
}

func TestRecordSizes(t *testing.T) {
	tests := []struct {
		bus      Bus
		size32   int
		size64   int
		sizeFunc func(int) int
	}{
		{bus: CCW, size32: 12, size64: 16, sizeFunc: ccwSize},
		{bus: IEEE1394, size32: 24, size64: 32, sizeFunc: ieee1394Size},
		{bus: PCI, size32: 28, size64: 32, sizeFunc: pciSize},
		{bus: PnP, size32: 12, size64: 16, sizeFunc: pnpSize},
		{bus: PnPCard, size32: 76, size64: 80, sizeFunc: pnpCardSize},
		{bus: USB, size32: 20, size64: 24, sizeFunc: usbSize},
	}
	for _, tt := range tests {
		t.Run(tt.bus.String(), func(t *testing.T) {
			assert.Equal(t, tt.size32, tt.sizeFunc(4))
			assert.Equal(t, tt.size64, tt.sizeFunc(8))
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode(PCI, 64, endian.Little, make([]byte, 33))
	assert.True(t, modposterrors.IsFormat(err))
	assert.EqualError(t, err, "bad size")

	_, err = Decode(I2C, 64, endian.Little, make([]byte, 32))
	assert.True(t, modposterrors.IsFormat(err))

	_, err = Decode(PCI, 16, endian.Little, make([]byte, 32))
	assert.True(t, modposterrors.IsFormat(err))
}

func TestDecodeOnlyTerminator(t *testing.T) {
	table, err := Decode(PCI, 32, endian.Big, make([]byte, 28))
	require.NoError(t, err)
	assert.Empty(t, table.Entries)

	table, err = Decode(USB, 64, endian.Little, nil)
	require.NoError(t, err)
	assert.Empty(t, table.Entries)
}

func TestPCI(t *testing.T) {
	for _, tg := range targets {
		t.Run(tg.desc, func(t *testing.T) {
			data := withTerminator(pciSize(tg.ptrSize()),
				pciRecord(tg, 0x8086, 0x1229, PCIAnyID, PCIAnyID, 0, 0),
				pciRecord(tg, 0x10ec, 0x8139, 0x1186, 0x1300, 0x020000, 0xffff00),
				pciRecord(tg, PCIAnyID, PCIAnyID, PCIAnyID, PCIAnyID, 0x0c0320, 0xffffff),
			)
			assert.Equal(t, []string{
				"pci:v00008086d00001229sv*sd*bc*sc*i*",
				"pci:v000010ECd00008139sv00001186sd00001300bc02sc00i*",
				"pci:v*d*sv*sd*bc0Csc03i20*",
			}, decodeAliases(t, PCI, tg, data))
		})
	}
}

func TestPCIMasks(t *testing.T) {
	tg := targets[2]
	tests := []struct {
		desc string
		mask uint32
		ok   bool
	}{
		{desc: "no mask", mask: 0x000000, ok: true},
		{desc: "full mask", mask: 0xffffff, ok: true},
		{desc: "subclass only", mask: 0x00ff00, ok: true},
		{desc: "partial subclass", mask: 0x00f000, ok: false},
		{desc: "partial interface", mask: 0xffff0f, ok: false},
		{desc: "partial base class", mask: 0x80ffff, ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			data := withTerminator(pciSize(tg.ptrSize()), pciRecord(tg, 0x8086, 0x1229, PCIAnyID, PCIAnyID, 0x020000, tt.mask))
			_, err := Decode(PCI, tg.width, tg.order, data)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, modposterrors.IsFormat(err))
			assert.EqualError(t, err, "can't handle masks")
		})
	}
}

func TestUSBRangeSplit(t *testing.T) {
	for _, tg := range targets {
		t.Run(tg.desc, func(t *testing.T) {
			data := withTerminator(usbSize(tg.ptrSize()), usbRecord(tg, usbID{
				flags:  USBMatchVendor | USBMatchDevLo | USBMatchDevHi,
				vendor: 0x1234,
				lo:     0x0100,
				hi:     0x0250,
			}))
			// 0250, 0200-0249 and 0100-0199
			assert.Equal(t, []string{
				"usb:v1234p*d0250dc*dsc*dp*ic*isc*ip*",
				"usb:v1234p*d02[0-4]*dc*dsc*dp*ic*isc*ip*",
				"usb:v1234p*d01*dc*dsc*dp*ic*isc*ip*",
			}, decodeAliases(t, USB, tg, data))
		})
	}
}

func TestUSB(t *testing.T) {
	tg := targets[0]
	tests := []struct {
		desc    string
		id      usbID
		aliases []string
	}{
		{
			desc:    "vendor and product",
			id:      usbID{flags: USBMatchVendor | USBMatchProduct, vendor: 0x046d, product: 0xc52b},
			aliases: []string{"usb:v046DpC52Bd*dc*dsc*dp*ic*isc*ip*"},
		},
		{
			desc:    "exact bcdDevice",
			id:      usbID{flags: USBMatchVendor | USBMatchDevLo | USBMatchDevHi, vendor: 0x0781, lo: 0x0100, hi: 0x0100},
			aliases: []string{"usb:v0781p*d0100dc*dsc*dp*ic*isc*ip*"},
		},
		{
			desc:    "bcdDevice range within last digit",
			id:      usbID{flags: USBMatchVendor | USBMatchDevLo | USBMatchDevHi, vendor: 0x0781, lo: 0x0102, hi: 0x0105},
			aliases: []string{"usb:v0781p*d010[2-5]dc*dsc*dp*ic*isc*ip*"},
		},
		{
			desc:    "interface class",
			id:      usbID{flags: USBMatchIntClass | USBMatchIntSubclass | USBMatchIntProtocol, ic: 0x03, isc: 0x01, ip: 0x02},
			aliases: []string{"usb:v*p*d*dc*dsc*dp*ic03isc01ip02*"},
		},
		{
			desc:    "device class",
			id:      usbID{flags: USBMatchDevClass, dc: 0x09},
			aliases: []string{"usb:v*p*d*dc09dsc*dp*ic*isc*ip*"},
		},
		{
			desc:    "nothing significant",
			id:      usbID{flags: USBMatchProduct, product: 0x1234, dsc: 0x01},
			aliases: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			data := withTerminator(usbSize(tg.ptrSize()), usbRecord(tg, tt.id))
			assert.Equal(t, tt.aliases, decodeAliases(t, USB, tg, data))
		})
	}
}

func TestCCW(t *testing.T) {
	for _, tg := range targets {
		t.Run(tg.desc, func(t *testing.T) {
			record := func(flags, cuType, devType uint16, cuModel, devModel uint8) []byte {
				b := make([]byte, ccwSize(tg.ptrSize()))
				tg.bo.PutUint16(b[0:], flags)
				tg.bo.PutUint16(b[2:], cuType)
				tg.bo.PutUint16(b[4:], devType)
				b[6], b[7] = cuModel, devModel
				return b
			}
			data := withTerminator(ccwSize(tg.ptrSize()),
				record(0x0f, 0x3990, 0x3390, 0xe9, 0x0a),
				record(CCWMatchCUType, 0x3088, 0, 0, 0),
				record(CCWMatchCUType|CCWMatchDevModel, 0x1731, 0x1732, 0x01, 0x03),
			)
			assert.Equal(t, []string{
				"ccw:t3990mE9dt3390dm0A*",
				"ccw:t3088m*dt*dm*",
				"ccw:t1731m*dt*dm03*",
			}, decodeAliases(t, CCW, tg, data))
		})
	}
}

func TestIEEE1394(t *testing.T) {
	for _, tg := range targets {
		t.Run(tg.desc, func(t *testing.T) {
			record := func(vals ...uint32) []byte {
				b := make([]byte, ieee1394Size(tg.ptrSize()))
				for i, v := range vals {
					tg.bo.PutUint32(b[i*4:], v)
				}
				return b
			}
			data := withTerminator(ieee1394Size(tg.ptrSize()),
				record(0x0f, 0x00a02d, 0, 0x00609e, 0x010483),
				record(IEEE1394MatchSpecifierID|IEEE1394MatchVersion, 0, 0, 0x00609e, 0x010483),
				record(IEEE1394MatchVendorID, 0x001f11, 0, 0, 0),
			)
			assert.Equal(t, []string{
				"ieee1394:ven0000A02Dmo00000000sp0000609Ever00010483*",
				"ieee1394:ven*mo*sp0000609Ever00010483*",
				"ieee1394:ven00001F11mo*sp*ver*",
			}, decodeAliases(t, IEEE1394, tg, data))
		})
	}
}

func TestPnP(t *testing.T) {
	for _, tg := range targets {
		t.Run(tg.desc, func(t *testing.T) {
			record := func(id string) []byte {
				b := make([]byte, pnpSize(tg.ptrSize()))
				copy(b, id)
				return b
			}
			data := withTerminator(pnpSize(tg.ptrSize()), record("PNP0501"), record("PNP0510"))
			assert.Equal(t, []string{"pnp:dPNP0501*", "pnp:dPNP0510*"}, decodeAliases(t, PnP, tg, data))
		})
	}
}

func TestPnPCard(t *testing.T) {
	for _, tg := range targets {
		t.Run(tg.desc, func(t *testing.T) {
			size := pnpCardSize(tg.ptrSize())
			devs := align(pnpIDLen, tg.ptrSize()) + tg.ptrSize()
			record := func(id string, devices ...string) []byte {
				b := make([]byte, size)
				copy(b, id)
				for i, d := range devices {
					copy(b[devs+i*pnpIDLen:], d)
				}
				return b
			}
			data := withTerminator(size,
				record("CTL0041", "CTL0031", "CTL7001"),
				record("ESS1868", "ESS1868", "", "ESS0000"),
			)
			assert.Equal(t, []string{
				"pnp:cCTL0041dCTL0031dCTL7001*",
				"pnp:cESS1868dESS1868*",
			}, decodeAliases(t, PnPCard, tg, data))
		})
	}
}
