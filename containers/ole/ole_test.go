package ole

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// buildFixture constructs a minimal, well-formed OLE2 compound document: one
// root entry and one stream entry ("DestList") whose content spans a single
// 512-byte sector, entirely in memory (no on-disk fixture, since container
// tests here are self-contained byte builders in the teacher's style).
func buildFixture(t *testing.T, content []byte) []byte {
	t.Helper()
	const sectorSize = 512

	header := make([]byte, sectorSize)
	copy(header[0:8], []byte{0xd0, 0xcf, 0x11, 0xe0, 0xa1, 0xb1, 0x1a, 0xe1})
	header[28], header[29] = 0xFE, 0xFF
	binary.LittleEndian.PutUint16(header[30:32], 9) // sector size = 2^9 = 512
	binary.LittleEndian.PutUint16(header[32:34], 6) // short sector size = 2^6 = 64
	binary.LittleEndian.PutUint32(header[48:52], 1)          // dir first SID = sector 1
	binary.LittleEndian.PutUint32(header[56:60], 32)         // min std stream size: DestList is not below it, so it is read through the SAT
	binary.LittleEndian.PutUint32(header[60:64], 0xFFFFFFFE) // SSAT first SID = EOC
	binary.LittleEndian.PutUint32(header[68:72], 0xFFFFFFFE) // MSATX first SID = EOC
	msat0 := make([]byte, 109*4)
	for i := 0; i < 109; i++ {
		binary.LittleEndian.PutUint32(msat0[i*4:i*4+4], 0xFFFFFFFF) // free
	}
	binary.LittleEndian.PutUint32(msat0[0:4], 0) // SAT lives at data-sector 0
	copy(header[76:76+len(msat0)], msat0)

	// Data sector 0: the SAT itself (128 int32 entries for a 512-byte sector).
	sat := make([]byte, sectorSize)
	fillInt32 := func(b []byte, idx int, v int32) {
		binary.LittleEndian.PutUint32(b[idx*4:idx*4+4], uint32(v))
	}
	for i := 0; i < sectorSize/4; i++ {
		fillInt32(sat, i, -1)
	}
	fillInt32(sat, 1, -2) // directory sector (data-sector 1) ends its own chain
	fillInt32(sat, 2, -2) // stream data sector (data-sector 2) ends its own chain

	// Data sector 1: the directory stream.
	dir := make([]byte, sectorSize)
	writeEntry := func(buf []byte, off int, name string, etype byte, child, firstSID, totSize int32) {
		nameBytes := []byte{}
		for _, r := range name {
			nameBytes = append(nameBytes, byte(r), byte(r>>8))
		}
		nameBytes = append(nameBytes, 0, 0)
		copy(buf[off:], nameBytes)
		binary.LittleEndian.PutUint16(buf[off+64:off+66], uint16(len(nameBytes)))
		buf[off+66] = etype
		fillInt32(buf[off+68:off+72], 0, -1)
		fillInt32(buf[off+72:off+76], 0, -1)
		fillInt32(buf[off+76:off+80], 0, child)
		fillInt32(buf[off+116:off+120], 0, firstSID)
		fillInt32(buf[off+120:off+124], 0, totSize)
	}
	writeEntry(dir, 0, "Root Entry", 5, 1, -1, 0)
	writeEntry(dir, 128, "DestList", 2, -1, 2, int32(len(content)))

	// Data sector 2: the stream's own content.
	streamSec := make([]byte, sectorSize)
	copy(streamSec, content)

	out := append([]byte{}, header...)
	out = append(out, sat...)
	out = append(out, dir...)
	out = append(out, streamSec...)
	return out
}

func TestParseResolvesStreamContent(t *testing.T) {
	want := bytes.Repeat([]byte("HELLOOLE"), 4) // 32 bytes, well under one sector
	data := buildFixture(t, want)

	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	entry, ok := doc.ByName("DestList")
	if !ok {
		t.Fatal("DestList stream not found")
	}
	if !bytes.Equal(entry.Data, want) {
		t.Fatalf("stream content = %q, want %q", entry.Data, want)
	}
}

func TestParseRejectsBadSignature(t *testing.T) {
	if _, err := Parse(make([]byte, 512)); err == nil {
		t.Fatal("expected error for bad OLE signature")
	}
}
