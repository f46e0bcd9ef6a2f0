package shellitems

import (
	"encoding/binary"
	"testing"
)

func buildLNKFixture(t *testing.T, path string, serial uint32) []byte {
	t.Helper()

	header := make([]byte, lnkHeaderSize)
	binary.LittleEndian.PutUint32(header[0:4], lnkHeaderSize)
	binary.LittleEndian.PutUint32(header[20:24], lnkFlagHasLinkInfo)

	const (
		linkInfoHeaderSize = 28
		volumeIDOffset     = linkInfoHeaderSize
		volumeIDSize       = 20
	)
	localBasePathOffset := uint32(volumeIDOffset + volumeIDSize)
	pathBytes := append([]byte(path), 0)
	linkInfoSize := localBasePathOffset + uint32(len(pathBytes))

	li := make([]byte, linkInfoSize)
	binary.LittleEndian.PutUint32(li[0:4], linkInfoSize)
	binary.LittleEndian.PutUint32(li[4:8], linkInfoHeaderSize)
	binary.LittleEndian.PutUint32(li[8:12], 0x1) // VolumeIDAndLocalBasePath
	binary.LittleEndian.PutUint32(li[12:16], volumeIDOffset)
	binary.LittleEndian.PutUint32(li[16:20], localBasePathOffset)
	binary.LittleEndian.PutUint32(li[20:24], 0) // CommonNetworkRelativeLinkOffset
	binary.LittleEndian.PutUint32(li[24:28], localBasePathOffset)

	binary.LittleEndian.PutUint32(li[volumeIDOffset:volumeIDOffset+4], volumeIDSize)
	binary.LittleEndian.PutUint32(li[volumeIDOffset+4:volumeIDOffset+8], 3) // DRIVE_FIXED
	binary.LittleEndian.PutUint32(li[volumeIDOffset+8:volumeIDOffset+12], serial)
	binary.LittleEndian.PutUint32(li[volumeIDOffset+12:volumeIDOffset+16], 16)

	copy(li[localBasePathOffset:], pathBytes)

	data := make([]byte, 0, len(header)+len(li))
	data = append(data, header...)
	data = append(data, li...)
	return data
}

func TestParseLNKExtractsPathAndDriveSerial(t *testing.T) {
	data := buildLNKFixture(t, `C:\Program Files\Microsoft VS Code\Code.exe`, 0xD49D126F)
	lnk, err := ParseLNK(data)
	if err != nil {
		t.Fatalf("ParseLNK: %v", err)
	}
	if lnk.Path != `C:\Program Files\Microsoft VS Code\Code.exe` {
		t.Fatalf("path = %q", lnk.Path)
	}
	if lnk.DriveSerial != "D49D126F" {
		t.Fatalf("drive serial = %q, want D49D126F", lnk.DriveSerial)
	}
}

func TestParseLNKRejectsShortHeader(t *testing.T) {
	if _, err := ParseLNK(make([]byte, 10)); err == nil {
		t.Fatal("expected error for truncated header")
	}
}
