package windows

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/hostforensics/triage/containers/registry"
	"github.com/hostforensics/triage/containers/registry/regfmt"
)

func TestRot13DecodesUserAssistPath(t *testing.T) {
	got := rot13("Ehfg vf cerggl pbby nppbeqvat gb Sreevf")
	want := "Rust is pretty cool according to Ferris"
	if got != want {
		t.Fatalf("rot13 = %q, want %q", got, want)
	}
}

func TestRot13IsSelfInverse(t *testing.T) {
	s := "Hello, World! 123"
	if rot13(rot13(s)) != s {
		t.Fatalf("rot13(rot13(%q)) did not round-trip", s)
	}
}

func TestDecodeUserAssistPayload(t *testing.T) {
	raw := make([]byte, userAssistEntrySize)
	binary.LittleEndian.PutUint32(raw[4:8], 7)
	binary.LittleEndian.PutUint64(raw[60:68], 130669552200000000) // 2015-01-28T21:47:00.000Z

	count, lastRun := decodeUserAssistPayload(raw)
	if count != 7 {
		t.Fatalf("count = %d, want 7", count)
	}
	if lastRun != "2015-01-28T21:47:00.000Z" {
		t.Fatalf("lastRun = %q", lastRun)
	}
}

func TestDecodeUserAssistPayloadRejectsWrongSize(t *testing.T) {
	count, lastRun := decodeUserAssistPayload([]byte{1, 2, 3})
	if count != 0 || lastRun != "" {
		t.Fatalf("got (%d, %q), want zero value for malformed payload", count, lastRun)
	}
}

// hiveBuilder assembles a minimal, single-HBIN NTUSER.DAT-shaped hive cell
// by cell, the way writeMinimalHive in containers/registry/loader_test.go
// builds its header/HBIN shell — extended here with real NK/VK/LI cells so
// ParseUserAssist can walk an actual UserAssist subtree end to end.
type hiveBuilder struct {
	buf []byte
}

func newHiveBuilder() *hiveBuilder {
	b := &hiveBuilder{buf: make([]byte, regfmt.HeaderSize+regfmt.HBINHeaderSize)}
	copy(b.buf[regfmt.HeaderSize:], regfmt.HBINSignature)
	regfmt.PutU32(b.buf, regfmt.HeaderSize+regfmt.HBINFileOffsetField, 0)
	return b
}

// alloc appends a new allocated cell (4-byte negative size header + payload,
// padded to an 8-byte boundary) and returns its offset relative to the HBIN
// start (0x1000) — the form every on-disk HCELL_INDEX field uses.
func (b *hiveBuilder) alloc(payload []byte) uint32 {
	relOff := uint32(len(b.buf) - regfmt.HeaderSize)
	size := regfmt.CellHeaderSize + len(payload)
	if pad := size % regfmt.CellAlignment; pad != 0 {
		size += regfmt.CellAlignment - pad
	}
	cell := make([]byte, size)
	regfmt.PutI32(cell, 0, -int32(size))
	copy(cell[regfmt.CellHeaderSize:], payload)
	b.buf = append(b.buf, cell...)
	return relOff
}

// nk builds one NK cell payload with an ASCII (compressed) name.
func (b *hiveBuilder) nk(name string, subkeyCount uint32, subkeyListOff uint32, valueCount uint32, valueListOff uint32) []byte {
	payload := make([]byte, regfmt.NKFixedHeaderSize+len(name))
	regfmt.PutU16(payload, regfmt.NKFlagsOffset, regfmt.NKFlagCompressedName)
	regfmt.PutU32(payload, regfmt.NKSubkeyCountOffset, subkeyCount)
	regfmt.PutU32(payload, regfmt.NKSubkeyListOffset, subkeyListOff)
	regfmt.PutU32(payload, regfmt.NKValueCountOffset, valueCount)
	regfmt.PutU32(payload, regfmt.NKValueListOffset, valueListOff)
	regfmt.PutU32(payload, regfmt.NKSecurityOffset, regfmt.InvalidOffset)
	regfmt.PutU32(payload, regfmt.NKClassNameOffset, regfmt.InvalidOffset)
	regfmt.PutU16(payload, regfmt.NKNameLenOffset, uint16(len(name)))
	copy(payload[regfmt.NKNameOffset:], name)
	return payload
}

// li builds a single-entry "li" subkey index pointing at childRef.
func (b *hiveBuilder) li(childRef uint32) []byte {
	payload := make([]byte, regfmt.IdxListOffset+regfmt.LIEntrySize)
	copy(payload[:2], regfmt.LISignature)
	regfmt.PutU16(payload, regfmt.IdxCountOffset, 1)
	regfmt.PutU32(payload, regfmt.IdxListOffset, childRef)
	return payload
}

// allocChainedKey allocates a leaf NK (via build) then wraps it in a
// single-entry LI list, returning the LI cell's own offset — the shape an
// ancestor NK's SubkeyListOffsetRel expects.
func (b *hiveBuilder) allocChainedKey(name string, subkeyListOff, valueCount, valueListOff uint32, hasChild bool) uint32 {
	var subkeyCount uint32
	if hasChild {
		subkeyCount = 1
	}
	nkOff := b.alloc(b.nk(name, subkeyCount, subkeyListOff, valueCount, valueListOff))
	return b.alloc(b.li(nkOff))
}

// vk builds a "vk" cell payload for an external (non-inline) REG_BINARY
// value, referencing its data cell by relative offset.
func (b *hiveBuilder) vk(name string, regType uint32, dataLen int, dataOff uint32) []byte {
	payload := make([]byte, regfmt.VKFixedHeaderSize+len(name))
	regfmt.PutU16(payload, regfmt.VKNameLenOffset, uint16(len(name)))
	regfmt.PutU32(payload, regfmt.VKDataLenOffset, uint32(dataLen))
	regfmt.PutU32(payload, regfmt.VKDataOffOffset, dataOff)
	regfmt.PutU32(payload, regfmt.VKTypeOffset, regType)
	regfmt.PutU16(payload, regfmt.VKFlagsOffset, regfmt.VKFlagNameCompressed)
	copy(payload[regfmt.VKNameOffset:], name)
	return payload
}

// finish pads the HBIN to a 4 KiB boundary, stamps the REGF header to point
// at rootRel, and returns the finished hive file bytes.
func (b *hiveBuilder) finish(rootRel uint32) []byte {
	hbinLen := len(b.buf) - regfmt.HeaderSize
	if pad := hbinLen % regfmt.HBINAlignment; pad != 0 {
		b.buf = append(b.buf, make([]byte, regfmt.HBINAlignment-pad)...)
		hbinLen += regfmt.HBINAlignment - pad
	}
	regfmt.PutU32(b.buf, regfmt.HeaderSize+regfmt.HBINSizeOffset, uint32(hbinLen))

	copy(b.buf[regfmt.REGFSignatureOffset:], regfmt.REGFSignature)
	regfmt.PutU32(b.buf, regfmt.REGFPrimarySeqOffset, 1)
	regfmt.PutU32(b.buf, regfmt.REGFSecondarySeqOffset, 1)
	regfmt.PutU32(b.buf, regfmt.REGFRootCellOffset, rootRel)
	regfmt.PutU32(b.buf, regfmt.REGFDataSizeOffset, uint32(hbinLen))
	regfmt.PutU32(b.buf, regfmt.REGFMajorVersionOffset, 1)
	regfmt.PutU32(b.buf, regfmt.REGFMinorVersionOffset, 5)
	return b.buf
}

// buildUserAssistHive constructs an NTUSER.DAT-shaped hive containing one
// UserAssist GUID folder with one "Count" subkey holding a single value:
// name rot13(execPath), a 72-byte Win7+ execution-count payload.
func buildUserAssistHive(t *testing.T, execPath string, runCount uint32, lastRunFiletime uint64) []byte {
	t.Helper()
	b := newHiveBuilder()

	payload := make([]byte, userAssistEntrySize)
	binary.LittleEndian.PutUint32(payload[4:8], runCount)
	binary.LittleEndian.PutUint64(payload[60:68], lastRunFiletime)
	dataOff := b.alloc(payload)

	vkOff := b.alloc(b.vk(rot13(execPath), registry.RegBinary, len(payload), dataOff))
	valueListOff := b.alloc(func() []byte {
		out := make([]byte, 4)
		binary.LittleEndian.PutUint32(out, vkOff)
		return out
	}())

	countListOff := b.allocChainedKey("Count", regfmt.InvalidOffset, 1, valueListOff, false)
	guidListOff := b.allocChainedKey("{4D36E96E-E325-11CE-BFC1-08002BE10318}", countListOff, 0, regfmt.InvalidOffset, true)
	userAssistListOff := b.allocChainedKey("UserAssist", guidListOff, 0, regfmt.InvalidOffset, true)
	explorerListOff := b.allocChainedKey("Explorer", userAssistListOff, 0, regfmt.InvalidOffset, true)
	currentVersionListOff := b.allocChainedKey("CurrentVersion", explorerListOff, 0, regfmt.InvalidOffset, true)
	windowsListOff := b.allocChainedKey("Windows", currentVersionListOff, 0, regfmt.InvalidOffset, true)
	microsoftListOff := b.allocChainedKey("Microsoft", windowsListOff, 0, regfmt.InvalidOffset, true)
	softwareListOff := b.allocChainedKey("Software", microsoftListOff, 0, regfmt.InvalidOffset, true)

	rootOff := b.alloc(b.nk("ROOT", 1, softwareListOff, 0, regfmt.InvalidOffset))
	return b.finish(rootOff)
}

func TestParseUserAssistDecodesPathRunCountAndLastRun(t *testing.T) {
	const execPath = `C:\Windows\explorer.exe`
	const wantLastRun = "2015-01-28T21:47:00.000Z"
	data := buildUserAssistHive(t, execPath, 7, 130669552200000000)

	dir := t.TempDir()
	hivePath := filepath.Join(dir, "NTUSER.DAT")
	if err := os.WriteFile(hivePath, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	h, err := registry.Open(hivePath)
	if err != nil {
		t.Fatalf("registry.Open: %v", err)
	}
	t.Cleanup(func() { _ = h.Close() })

	entries, err := ParseUserAssist(h)
	if err != nil {
		t.Fatalf("ParseUserAssist: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].Path != execPath {
		t.Fatalf("path = %q, want %q", entries[0].Path, execPath)
	}
	if entries[0].RunCount != 7 {
		t.Fatalf("run count = %d, want 7", entries[0].RunCount)
	}
	if entries[0].LastRun != wantLastRun {
		t.Fatalf("last run = %q, want %q", entries[0].LastRun, wantLastRun)
	}
}
