// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DataDog/datadog-modpost/pkg/elf"
	"github.com/DataDog/datadog-modpost/pkg/elf/elftest"
	modposterrors "github.com/DataDog/datadog-modpost/pkg/errors"
	"github.com/DataDog/datadog-modpost/pkg/kmod/module"
	"github.com/DataDog/datadog-modpost/pkg/util/endian"
	"github.com/DataDog/datadog-modpost/pkg/util/safeelf"
)

type recordingWarner struct {
	warnings []string
}

func (r *recordingWarner) Warnf(format string, params ...interface{}) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, params...))
}

type export struct {
	name   string
	crc    uint32
	hasCRC bool
}

func withCRC(name string, crc uint32) export {
	return export{name: name, crc: crc, hasCRC: true}
}

func noCRC(name string) export {
	return export{name: name}
}

// objectBytes lays out a relocatable object exporting exports and
// referencing undefined.
func objectBytes(kernelImage bool, exports []export, undefined ...string) []byte {
	b := elftest.New(safeelf.ELFCLASS64, endian.Little)
	if !kernelImage {
		b.AddSection(".modinfo", safeelf.SHT_PROGBITS, []byte("license=GPL\x00"))
	}
	ksymtab := b.AddSection("__ksymtab", safeelf.SHT_PROGBITS, make([]byte, 16*len(exports)+16))
	for i, e := range exports {
		b.AddSymbol(elftest.Symbol{Name: "__ksymtab_" + e.name, Bind: safeelf.STB_GLOBAL, Shndx: ksymtab, Value: uint64(16 * i)})
		if e.hasCRC {
			b.AddSymbol(elftest.Symbol{Name: "__crc_" + e.name, Bind: safeelf.STB_GLOBAL, Shndx: safeelf.SHN_ABS, Value: uint64(e.crc)})
		}
	}
	for _, name := range undefined {
		b.AddSymbol(elftest.Symbol{Name: name, Bind: safeelf.STB_GLOBAL, Shndx: safeelf.SHN_UNDEF})
	}
	return b.Bytes()
}

func object(t *testing.T, filename string, exports []export, undefined ...string) *module.Module {
	t.Helper()
	f, err := elf.NewFile(objectBytes(filepath.Base(filename) == module.KernelImageName, exports, undefined...))
	require.NoError(t, err)
	m, err := module.FromFile(filename, f, &recordingWarner{})
	require.NoError(t, err)
	return m
}

func newRegistry() (*Registry, *recordingWarner, afero.Fs) {
	w := &recordingWarner{}
	fs := afero.NewMemMapFs()
	return New(fs, w), w, fs
}

func TestResolve(t *testing.T) {
	r, w, _ := newRegistry()
	a := object(t, "drivers/a.o", []export{withCRC("sym", 0xdeadbeef)})
	b := object(t, "drivers/b.o", nil, "sym")
	require.NoError(t, r.Insert(a))
	require.NoError(t, r.Insert(b))

	assert.Equal(t, []string{"a"}, r.Dependencies(b))

	versions, err := r.Versions(b)
	require.NoError(t, err)
	assert.Equal(t, []Version{{CRC: 0xdeadbeef, Name: "sym"}}, versions)

	assert.Empty(t, w.warnings)
	assert.False(t, r.ReportsMissing())
}

func TestKernelImage(t *testing.T) {
	r, w, _ := newRegistry()
	vmlinux := object(t, "vmlinux", []export{withCRC("struct_module", 0x1), withCRC("printk", 0x2)})
	b := object(t, "b.o", nil, "printk", "nosuch")
	require.NoError(t, r.Insert(vmlinux))
	require.NoError(t, r.Insert(b))

	assert.True(t, r.ReportsMissing())
	assert.Empty(t, r.Dependencies(b))

	versions, err := r.Versions(b)
	require.NoError(t, err)
	assert.Equal(t, []Version{{CRC: 0x2, Name: "printk"}, {CRC: 0x1, Name: "struct_module"}}, versions)
	assert.Equal(t, []string{`"nosuch" is undefined!`}, w.warnings)

	assert.Equal(t, []*module.Module{b}, r.Modules())
	assert.Equal(t, []*module.Module{vmlinux}, r.Shadows())
}

func TestVersionsWarnings(t *testing.T) {
	r, w, _ := newRegistry()
	require.NoError(t, r.Insert(object(t, "a.o", []export{noCRC("nocrc")})))
	b := object(t, "b.o", nil, "nocrc", "nosuch")
	require.NoError(t, r.Insert(b))

	versions, err := r.Versions(b)
	require.NoError(t, err)
	assert.Empty(t, versions)
	// without the kernel image, unresolved symbols are not reported
	assert.Equal(t, []string{`"nocrc" [b] has no CRC!`}, w.warnings)
	assert.Equal(t, []string{"a"}, r.Dependencies(b))
}

func TestInsertDuplicateModule(t *testing.T) {
	r, _, _ := newRegistry()
	require.NoError(t, r.Insert(object(t, "net/a.o", nil)))

	err := r.Insert(object(t, "net/a.ko", nil))
	require.Error(t, err)
	assert.True(t, modposterrors.IsDuplicate(err))
	assert.Len(t, r.Modules(), 1)
}

func TestInsertDuplicateExport(t *testing.T) {
	r, w, _ := newRegistry()
	a := object(t, "a.o", []export{withCRC("sym", 1)})
	c := object(t, "c.o", []export{withCRC("sym", 2)})
	require.NoError(t, r.Insert(a))
	require.NoError(t, r.Insert(c))

	assert.Equal(t, []string{`"sym" [c] duplicated symbol!`}, w.warnings)
	owner, ok := r.Owner("sym")
	require.True(t, ok)
	assert.Same(t, a, owner)
}

func TestKernelImageSupersedesDump(t *testing.T) {
	r, w, fs := newRegistry()
	require.NoError(t, afero.WriteFile(fs, "Module.symvers", []byte(
		"0x00000001\tprintk\tvmlinux\n"+
			"0x00000002\tgone\tvmlinux\n"+
			"0x00000003\text2_fill\tfs/ext2\n"), 0o644))
	require.NoError(t, r.LoadDump("Module.symvers"))
	assert.True(t, r.ReportsMissing())

	vmlinux := object(t, "vmlinux", []export{withCRC("printk", 0x11)})
	require.NoError(t, r.Insert(vmlinux))
	assert.Empty(t, w.warnings)

	sym, owner, err := r.Symbol("printk")
	require.NoError(t, err)
	assert.Same(t, vmlinux, owner)
	assert.Equal(t, uint32(0x11), sym.CRC)

	_, ok := r.Owner("gone")
	assert.False(t, ok)

	// a second real module exporting the same symbol is still a collision
	require.NoError(t, r.Insert(object(t, "b.o", []export{withCRC("printk", 0x11)})))
	assert.Equal(t, []string{`"printk" [b] duplicated symbol!`}, w.warnings)
}

func TestKernelImageReplacedTwice(t *testing.T) {
	r, w, _ := newRegistry()
	first := object(t, "vmlinux", []export{withCRC("printk", 0x1), withCRC("gone", 0x2)})
	require.NoError(t, r.Insert(first))
	require.NotNil(t, first.File())

	second := object(t, "vmlinux", []export{withCRC("printk", 0x3)})
	require.NoError(t, r.Insert(second))
	assert.Empty(t, w.warnings)
	assert.Nil(t, first.File())
	assert.NotNil(t, second.File())

	_, ok := r.Owner("gone")
	assert.False(t, ok)
	sym, owner, err := r.Symbol("printk")
	require.NoError(t, err)
	assert.Same(t, second, owner)
	assert.Equal(t, uint32(0x3), sym.CRC)

	require.NoError(t, r.Close())
	assert.Nil(t, second.File())
}

func TestLoadDumpDottedSymbol(t *testing.T) {
	r, _, fs := newRegistry()
	require.NoError(t, afero.WriteFile(fs, "in.symvers", []byte("0x00000001\t.foo\tvmlinux\n"), 0o644))
	require.NoError(t, r.LoadDump("in.symvers"))

	sym, owner, err := r.Symbol("foo")
	require.NoError(t, err)
	require.NotNil(t, sym)
	assert.Equal(t, module.KernelImageName, owner.Name)
	_, ok := r.Owner(".foo")
	assert.False(t, ok)

	require.NoError(t, r.SaveDump("out.symvers"))
	content, err := afero.ReadFile(fs, "out.symvers")
	require.NoError(t, err)
	assert.Equal(t, "0x00000001\tfoo\tvmlinux\n", string(content))
}

func TestDumpRoundTrip(t *testing.T) {
	r, _, fs := newRegistry()
	require.NoError(t, afero.WriteFile(fs, "in.symvers", []byte("0x0000abcd\text2_fill\tfs/ext2/ext2\n"), 0o644))
	require.NoError(t, r.LoadDump("in.symvers"))
	require.NoError(t, r.Insert(object(t, "drivers/net/e100.o", []export{withCRC("foo", 0x1234), withCRC("bar", 0xfedcba98)})))

	require.NoError(t, r.SaveDump("out.symvers"))
	content, err := afero.ReadFile(fs, "out.symvers")
	require.NoError(t, err)
	assert.Equal(t,
		"0xfedcba98\tbar\tdrivers/net/e100\n"+
			"0x0000abcd\text2_fill\tfs/ext2/ext2\n"+
			"0x00001234\tfoo\tdrivers/net/e100\n",
		string(content))

	fresh := New(fs, &recordingWarner{})
	require.NoError(t, fresh.LoadDump("out.symvers"))
	for _, name := range []string{"foo", "bar", "ext2_fill"} {
		want, wantOwner, err := r.Symbol(name)
		require.NoError(t, err)
		got, gotOwner, err := fresh.Symbol(name)
		require.NoError(t, err)
		require.NotNil(t, got, name)
		assert.Equal(t, wantOwner.Name, gotOwner.Name, name)
		assert.Equal(t, want.CRC, got.CRC, name)
		assert.True(t, gotOwner.IsShadow())
	}
	assert.False(t, fresh.ReportsMissing())
}

func TestLoadDump(t *testing.T) {
	r, _, fs := newRegistry()
	require.NoError(t, afero.WriteFile(fs, "Module.symvers", []byte(
		"0x00000001\tprintk\tvmlinux\n"+
			"\n"+
			"not a dump line\n"+
			"0xzz\tbad\tcrc\n"+
			"0x00000002   kmalloc   vmlinux\n"+
			"0x00000003\tprintk\tother\n"), 0o644))
	require.NoError(t, r.LoadDump("Module.symvers"))

	shadows := r.Shadows()
	require.Len(t, shadows, 2)
	assert.Equal(t, "other", shadows[0].Name)
	assert.Equal(t, module.KernelImageName, shadows[1].Name)
	assert.Len(t, shadows[1].Exported, 2)

	// the first owner seen keeps the index entry
	owner, ok := r.Owner("printk")
	require.True(t, ok)
	assert.Equal(t, module.KernelImageName, owner.Name)
	assert.True(t, r.ReportsMissing())

	err := r.LoadDump("missing.symvers")
	assert.True(t, modposterrors.IsIO(err))
}

func TestSaveDumpWithoutCRC(t *testing.T) {
	r, _, _ := newRegistry()
	require.NoError(t, r.Insert(object(t, "a.o", []export{noCRC("foo")})))

	err := r.SaveDump("out.symvers")
	assert.True(t, modposterrors.IsFatal(err))
}

func TestParseDumpLine(t *testing.T) {
	for _, tc := range []struct {
		line  string
		entry DumpEntry
		ok    bool
	}{
		{"0x00000001\tprintk\tvmlinux", DumpEntry{CRC: 1, Symbol: "printk", Module: "vmlinux"}, true},
		{"deadbeef foo drivers/foo", DumpEntry{CRC: 0xdeadbeef, Symbol: "foo", Module: "drivers/foo"}, true},
		{"0x100000000\tfoo\tbar", DumpEntry{}, false},
		{"0x1\tfoo", DumpEntry{}, false},
		{"0x1\tfoo\tbar\tEXPORT_SYMBOL", DumpEntry{}, false},
		{"", DumpEntry{}, false},
	} {
		t.Run(tc.line, func(t *testing.T) {
			entry, ok := ParseDumpLine(tc.line)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.entry, entry)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "e100.ko")
	require.NoError(t, os.WriteFile(path, objectBytes(false, []export{withCRC("e100_probe", 5)}), 0o644))

	r, _, _ := newRegistry()
	m, err := r.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "e100", m.ShortName)
	owner, ok := r.Owner("e100_probe")
	require.True(t, ok)
	assert.Same(t, m, owner)

	_, err = r.Load(path)
	assert.True(t, modposterrors.IsDuplicate(err))

	_, err = r.Load(filepath.Join(dir, "missing.ko"))
	assert.True(t, modposterrors.IsIO(err))

	require.NoError(t, r.Close())
	assert.Nil(t, m.File())
}
