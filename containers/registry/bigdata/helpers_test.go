package bigdata

import (
	"os"
	"testing"

	"github.com/hostforensics/triage/containers/registry/regfmt"
)

// createTestHive creates a minimal test hive with one large free cell.
func createTestHive(t testing.TB, path string, freeSpace int) {
	t.Helper()

	// Round free space to 8-byte alignment
	freeSpace = regfmt.Align8(freeSpace)

	// Calculate HBIN size
	hbinSize := regfmt.HBINHeaderSize + freeSpace
	// Round to 4KB alignment
	if hbinSize%regfmt.HBINAlignment != 0 {
		hbinSize = ((hbinSize / regfmt.HBINAlignment) + 1) * regfmt.HBINAlignment
	}

	buf := make([]byte, regfmt.HeaderSize+hbinSize)

	// Write REGF header
	copy(buf[regfmt.REGFSignatureOffset:], regfmt.REGFSignature)
	regfmt.PutU32(buf, regfmt.REGFPrimarySeqOffset, 1)
	regfmt.PutU32(buf, regfmt.REGFSecondarySeqOffset, 1)
	regfmt.PutU32(buf, regfmt.REGFRootCellOffset, 0x20)
	regfmt.PutU32(buf, regfmt.REGFDataSizeOffset, uint32(hbinSize))
	regfmt.PutU32(buf, regfmt.REGFMajorVersionOffset, 1)
	regfmt.PutU32(buf, regfmt.REGFMinorVersionOffset, 5)

	// Write HBIN header
	hbinOff := regfmt.HeaderSize
	copy(buf[hbinOff:hbinOff+4], regfmt.HBINSignature)
	regfmt.PutU32(buf, hbinOff+regfmt.HBINFileOffsetField, uint32(hbinOff))
	regfmt.PutU32(buf, hbinOff+regfmt.HBINSizeOffset, uint32(hbinSize))

	// Write one large free cell
	cellOff := hbinOff + regfmt.HBINHeaderSize
	regfmt.PutI32(buf, cellOff, int32(freeSpace)) // Positive size = free

	err := os.WriteFile(path, buf, 0644)
	if err != nil {
		t.Fatal(err)
	}
}
