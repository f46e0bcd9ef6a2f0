package shellitems

import (
	"fmt"

	"github.com/hostforensics/triage/internal/nomkit"
	"github.com/hostforensics/triage/internal/strdecode"
	"github.com/hostforensics/triage/internal/timeconv"
)

// lnkHeaderSize is the fixed ShellLink header size every LNK file starts
// with (MS-SHLLINK §2.1): HeaderSize(4) LinkCLSID(16) LinkFlags(4)
// FileAttributes(4) CreationTime(8) AccessTime(8) WriteTime(8) FileSize(4)
// IconIndex(4) ShowCommand(4) HotKey(2) Reserved1(2) Reserved2(4)
// Reserved3(4).
const lnkHeaderSize = 76

const (
	lnkFlagHasLinkTargetIDList = 0x00000001
	lnkFlagHasLinkInfo         = 0x00000002
)

// LNK is the subset of a parsed shortcut relevant to triage: its header
// timestamps, the resolved target path, and (when the target is a local
// fixed/removable volume) that volume's serial number.
type LNK struct {
	Created     string
	Accessed    string
	Modified    string
	Path        string
	DriveSerial string
}

// ParseLNK decodes a ShellLink (.lnk) file's header and LinkInfo structure,
// per MS-SHLLINK. The target IDList (shell item sequence), when present, is
// skipped rather than decoded here — the individual ShellItem decoders in
// this package cover that structure when called directly against its
// items.
func ParseLNK(raw []byte) (LNK, error) {
	var lnk LNK
	if len(raw) < lnkHeaderSize {
		return lnk, fmt.Errorf("lnk: header too short (%d bytes)", len(raw))
	}

	rem, _, err := nomkit.Take(raw, 4) // header size
	if err != nil {
		return lnk, err
	}
	rem, _, err = nomkit.Take(rem, 16) // LinkCLSID
	if err != nil {
		return lnk, err
	}
	rem, flags, err := nomkit.Unsigned4(rem, nomkit.LittleEndian)
	if err != nil {
		return lnk, err
	}
	rem, _, err = nomkit.Unsigned4(rem, nomkit.LittleEndian) // file attributes
	if err != nil {
		return lnk, err
	}
	rem, created, err := nomkit.Unsigned8(rem, nomkit.LittleEndian)
	if err != nil {
		return lnk, err
	}
	lnk.Created = timeconv.ToISO8601Milli(timeconv.FromFiletime(created))
	rem, accessed, err := nomkit.Unsigned8(rem, nomkit.LittleEndian)
	if err != nil {
		return lnk, err
	}
	lnk.Accessed = timeconv.ToISO8601Milli(timeconv.FromFiletime(accessed))
	rem, modified, err := nomkit.Unsigned8(rem, nomkit.LittleEndian)
	if err != nil {
		return lnk, err
	}
	lnk.Modified = timeconv.ToISO8601Milli(timeconv.FromFiletime(modified))

	body := raw[lnkHeaderSize:]

	if flags&lnkFlagHasLinkTargetIDList != 0 {
		if len(body) < 2 {
			return lnk, fmt.Errorf("lnk: truncated IDList size")
		}
		_, idListSize, err := nomkit.Unsigned2(body, nomkit.LittleEndian)
		if err != nil {
			return lnk, err
		}
		body = body[2:]
		if int(idListSize) > len(body) {
			return lnk, fmt.Errorf("lnk: IDList size exceeds file")
		}
		body = body[idListSize:]
	}

	if flags&lnkFlagHasLinkInfo != 0 {
		parseLinkInfo(body, &lnk)
	}
	return lnk, nil
}

// parseLinkInfo decodes the LinkInfo structure (MS-SHLLINK §2.3): total
// size, header size, a flags word whose bit 0 selects the VolumeID +
// LocalBasePath form, and a set of offsets (relative to the start of
// LinkInfo) to the VolumeID and LocalBasePath substructures. Decode
// failures are tolerated — an LNK with an unparseable LinkInfo still
// yields its header timestamps.
func parseLinkInfo(li []byte, lnk *LNK) {
	if len(li) < 28 {
		return
	}
	_, flags, err := nomkit.Unsigned4(li[8:], nomkit.LittleEndian)
	if err != nil {
		return
	}
	_, volumeIDOffset, err := nomkit.Unsigned4(li[12:], nomkit.LittleEndian)
	if err != nil {
		return
	}
	_, localBasePathOffset, err := nomkit.Unsigned4(li[16:], nomkit.LittleEndian)
	if err != nil {
		return
	}

	const volumeIDAndLocalBasePath = 0x1
	if flags&volumeIDAndLocalBasePath == 0 {
		return
	}

	if int(volumeIDOffset) < len(li) {
		vol := li[volumeIDOffset:]
		if len(vol) >= 12 {
			_, serial, err := nomkit.Unsigned4(vol[8:], nomkit.LittleEndian)
			if err == nil {
				lnk.DriveSerial = fmt.Sprintf("%08X", serial)
			}
		}
	}
	if int(localBasePathOffset) < len(li) {
		lnk.Path = strdecode.ExtractUTF8(li[localBasePathOffset:])
	}
}
