// Package shellitems decodes Windows ShellItem byte arrays and the two
// Jumplist container shapes that carry them: OLE-hosted "automatic"
// Jumplists (DestList stream) and raw "custom" Jumplists (back-to-back LNK
// structures), per spec §4.12.
//
// ShellItem variant dispatch follows spec's own algorithm exactly (Directory
// decoder's skip-then-BEEF0004-then-fallback order); the on-disk field
// layouts for Directory/Delegate/DestList are grounded in the published
// shell-item and Jumplist formats, expressed in the teacher's
// nomkit-combinator idiom since no pack example repo parses this format.
package shellitems

import (
	"bytes"
	"fmt"

	"github.com/hostforensics/triage/containers/ole"
	"github.com/hostforensics/triage/internal/enc"
	"github.com/hostforensics/triage/internal/nomkit"
	"github.com/hostforensics/triage/internal/strdecode"
	"github.com/hostforensics/triage/internal/timeconv"
)

// ShellType is the discriminated variant tag of a decoded ShellItem.
type ShellType int

const (
	TypeUnknown ShellType = iota
	TypeDirectory
	TypeDelegate
	TypeURI
	TypeProperty
	TypeVolume
	TypeNetwork
	TypeControlPanel
	TypeMtp
	TypeZipContents
)

// beef0004Sentinel is the 4-byte extension-block marker searched for by the
// Directory and Delegate decoders (spec §4.12).
var beef0004Sentinel = []byte{0x04, 0x00, 0xEF, 0xBE}

// ShellItem is one decoded variant, carrying the shared fields spec §3
// describes plus whichever type-specific payload matched.
type ShellItem struct {
	Value       string
	ShellType   ShellType
	Created     string
	Modified    string
	Accessed    string
	MFTEntry    uint64
	MFTSequence uint16
	Stores      []string
}

// classTypeIndicator bytes (shell item class type indicator, second header
// byte), narrowed to the variants spec §3 names.
const (
	classDirectory    = 0x31
	classDirectoryAlt = 0x3A
	classURI          = 0x61
	classControlPanel = 0x71
	classNetwork      = 0x41
	classDelegate     = 0x74
	classMtp          = 0x2F
)

// Parse dispatches on an item's size-prefixed header (2-byte size, 1-byte
// class type indicator) and decodes it per spec §4.12. Unrecognized class
// bytes fall back to a generic string-only decode rather than an error,
// since the whole point of a triage tool is to keep going on an unknown
// variant.
func Parse(item []byte) (ShellItem, error) {
	_, size, err := nomkit.Unsigned2(item, nomkit.LittleEndian)
	if err != nil {
		return ShellItem{}, fmt.Errorf("shellitem: %w", err)
	}
	if int(size) > len(item) {
		size = uint16(len(item))
	}
	if len(item) < 3 {
		return ShellItem{}, fmt.Errorf("shellitem: item too short (%d bytes)", len(item))
	}
	body := item[2:size]
	classType := item[2]

	switch classType {
	case classDirectory, classDirectoryAlt:
		return parseDirectory(body)
	case classDelegate:
		return parseDelegate(body)
	default:
		si := ShellItem{ShellType: TypeUnknown}
		si.Value = fallbackString(body)
		return si, nil
	}
}

// parseDirectory implements spec §4.12's exact Directory decode order:
// skip one unknown byte, a u32 file size, a u32 FAT modification time, a
// u16 attribute flag word; then search for BEEF0004, else fall back to a
// UTF-16/UTF-8 name.
func parseDirectory(body []byte) (ShellItem, error) {
	si := ShellItem{ShellType: TypeDirectory}
	rem, _, err := nomkit.Unsigned1(body) // unknown flag byte
	if err != nil {
		return si, fmt.Errorf("shellitem: directory: %w", err)
	}
	rem, _, err = nomkit.Unsigned4(rem, nomkit.LittleEndian) // file size
	if err != nil {
		return si, fmt.Errorf("shellitem: directory: %w", err)
	}
	rem, fatMtime, err := nomkit.Unsigned4(rem, nomkit.LittleEndian)
	if err != nil {
		return si, fmt.Errorf("shellitem: directory: %w", err)
	}
	si.Modified = timeconv.ToISO8601Milli(timeconv.FromFAT(fatMtime))

	rem, _, err = nomkit.Unsigned2(rem, nomkit.LittleEndian) // attribute flags
	if err != nil {
		return si, fmt.Errorf("shellitem: directory: %w", err)
	}

	if idx := bytes.Index(rem, beef0004Sentinel); idx >= 0 {
		si.Value = decodeName(rem[:idx])
		ext, err := parseBEEF0004(rem[idx:])
		if err == nil {
			si.Created = ext.Created
			si.Accessed = ext.Accessed
			si.MFTEntry = ext.MFTEntry
			si.MFTSequence = ext.MFTSequence
		}
		return si, nil
	}

	si.Value = decodeName(rem)
	return si, nil
}

// decodeName implements spec §4.12 step 3: UTF-16 if a 00 00 terminator is
// present at an even offset, else UTF-8 terminated by a single 00 byte.
func decodeName(b []byte) string {
	for i := 0; i+1 < len(b); i += 2 {
		if b[i] == 0 && b[i+1] == 0 {
			return strdecode.ExtractUTF16(b)
		}
	}
	return strdecode.ExtractUTF8(b)
}

func fallbackString(b []byte) string {
	return decodeName(b)
}

// beef0004Ext is the decoded BEEF0004 extension block: created/accessed FAT
// times and the target's MFT entry/sequence.
type beef0004Ext struct {
	Created     string
	Accessed    string
	MFTEntry    uint64
	MFTSequence uint16
}

// parseBEEF0004 decodes the extension block starting at its BEEF0004
// sentinel: signature(4, == BEEF0004) created-FAT(4) accessed-FAT(4)
// unknown(2) then (in the variants that carry it) a 6-byte MFT entry +
// 2-byte MFT sequence pair. The size and version words that precede the
// sentinel are not read.
func parseBEEF0004(b []byte) (beef0004Ext, error) {
	var ext beef0004Ext
	rem, sig, err := nomkit.Unsigned4(b, nomkit.LittleEndian)
	if err != nil {
		return ext, err
	}
	if sig != 0xBEEF0004 {
		return ext, fmt.Errorf("shellitem: not a BEEF0004 block")
	}
	rem, createdFAT, err := nomkit.Unsigned4(rem, nomkit.LittleEndian)
	if err != nil {
		return ext, err
	}
	ext.Created = timeconv.ToISO8601Milli(timeconv.FromFAT(createdFAT))
	rem, accessedFAT, err := nomkit.Unsigned4(rem, nomkit.LittleEndian)
	if err != nil {
		return ext, err
	}
	ext.Accessed = timeconv.ToISO8601Milli(timeconv.FromFAT(accessedFAT))
	rem, _, err = nomkit.Unsigned2(rem, nomkit.LittleEndian) // unknown
	if err != nil {
		// Older BEEF0004 variants end here; the MFT entry/sequence pair is optional.
		return ext, nil
	}
	if len(rem) >= 8 {
		var entryLow uint32
		var entryHigh uint16
		rem2, v, err := nomkit.Unsigned4(rem, nomkit.LittleEndian)
		if err == nil {
			entryLow = v
			rem3, v2, err2 := nomkit.Unsigned2(rem2, nomkit.LittleEndian)
			if err2 == nil {
				entryHigh = v2
				_, seq, err3 := nomkit.Unsigned2(rem3, nomkit.LittleEndian)
				if err3 == nil {
					ext.MFTEntry = uint64(entryLow) | uint64(entryHigh)<<32
					ext.MFTSequence = seq
				}
			}
		}
	}
	return ext, nil
}

// parseDelegate decodes the Delegate variant: a fixed 4-byte signature, two
// 16-byte GUIDs (the delegate item's own class ID and the target's),
// followed by an embedded BEEF0004 block, per spec §4.12.
func parseDelegate(body []byte) (ShellItem, error) {
	si := ShellItem{ShellType: TypeDelegate}
	rem, _, err := nomkit.Unsigned4(body, nomkit.LittleEndian) // signature
	if err != nil {
		return si, fmt.Errorf("shellitem: delegate: %w", err)
	}
	rem, guid1, err := nomkit.Unsigned16(rem)
	if err != nil {
		return si, fmt.Errorf("shellitem: delegate: %w", err)
	}
	rem, guid2, err := nomkit.Unsigned16(rem)
	if err != nil {
		return si, fmt.Errorf("shellitem: delegate: %w", err)
	}
	si.Stores = []string{enc.GUIDFromLE(guid1), enc.GUIDFromLE(guid2)}

	if idx := bytes.Index(rem, beef0004Sentinel); idx >= 0 {
		ext, err := parseBEEF0004(rem[idx:])
		if err == nil {
			si.Created = ext.Created
			si.Accessed = ext.Accessed
			si.MFTEntry = ext.MFTEntry
			si.MFTSequence = ext.MFTSequence
		}
	}
	return si, nil
}

// DestListEntry is one decoded row of an automatic Jumplist's DestList
// stream.
type DestListEntry struct {
	VolumeDroid string
	FileDroid   string
	Hostname    string
	EntryID     uint32
	Modified    string
	Pinned      bool
	Path        string
}

// ParseAutomaticJumplist opens raw as an OLE compound document and decodes
// its DestList stream into the entries it names, per spec §4.12.
func ParseAutomaticJumplist(raw []byte) ([]DestListEntry, error) {
	doc, err := ole.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("shellitems: jumplist ole: %w", err)
	}
	dl, ok := doc.ByName("DestList")
	if !ok {
		return nil, fmt.Errorf("shellitems: no DestList stream")
	}
	return parseDestList(dl.Data)
}

func parseDestList(b []byte) ([]DestListEntry, error) {
	if len(b) < 16 {
		return nil, fmt.Errorf("shellitems: DestList header too short")
	}
	rem, version, err := nomkit.Unsigned4(b, nomkit.LittleEndian)
	if err != nil {
		return nil, err
	}
	rem, _, err = nomkit.Unsigned4(rem, nomkit.LittleEndian) // number of entries (current)
	if err != nil {
		return nil, err
	}
	rem, _, err = nomkit.Unsigned4(rem, nomkit.LittleEndian) // number of entries (pinned)
	if err != nil {
		return nil, err
	}
	rem, _, err = nomkit.Unsigned4(rem, nomkit.LittleEndian) // unknown
	if err != nil {
		return nil, err
	}

	var entries []DestListEntry
	for len(rem) > 0 {
		e, consumed, err := parseDestListEntry(rem, version)
		if err != nil {
			break
		}
		entries = append(entries, e)
		rem = rem[consumed:]
	}
	return entries, nil
}

// parseDestListEntry decodes one DestList row: two droid GUID pairs, a
// 16-byte hostname, an entry id, a FILETIME, a pin flag (-1 = not pinned),
// an optional Win10 16-byte tail, a u16 path-char-count, the UTF-16LE path
// itself, and an optional trailing nil u32, per spec §4.12.
func parseDestListEntry(b []byte, version uint32) (DestListEntry, int, error) {
	var e DestListEntry
	if len(b) < 8 {
		return e, 0, fmt.Errorf("shellitems: truncated DestList entry")
	}
	off := 0
	rem := b

	rem2, volDroid1, err := nomkit.Unsigned16(rem)
	if err != nil {
		return e, 0, err
	}
	rem2, fileDroid1, err := nomkit.Unsigned16(rem2)
	if err != nil {
		return e, 0, err
	}
	rem2, volDroid2, err := nomkit.Unsigned16(rem2)
	if err != nil {
		return e, 0, err
	}
	rem2, fileDroid2, err := nomkit.Unsigned16(rem2)
	if err != nil {
		return e, 0, err
	}
	_ = volDroid2
	_ = fileDroid2
	e.VolumeDroid = enc.GUIDFromLE(volDroid1)
	e.FileDroid = enc.GUIDFromLE(fileDroid1)
	off += 64

	rem2, hostname, err := nomkit.Take(rem2, 16)
	if err != nil {
		return e, 0, err
	}
	e.Hostname = strdecode.ExtractASCIIOrUTF16(hostname)
	off += 16

	rem2, entryID, err := nomkit.Unsigned4(rem2, nomkit.LittleEndian)
	if err != nil {
		return e, 0, err
	}
	e.EntryID = entryID
	off += 4

	rem2, modified, err := nomkit.Unsigned8(rem2, nomkit.LittleEndian)
	if err != nil {
		return e, 0, err
	}
	e.Modified = timeconv.ToISO8601Milli(timeconv.FromFiletime(modified))
	off += 8

	rem2, pinRaw, err := nomkit.Signed4(rem2, nomkit.LittleEndian)
	if err != nil {
		return e, 0, err
	}
	e.Pinned = pinRaw != -1
	off += 4

	if version >= 3 {
		rem2, _, err = nomkit.Take(rem2, 16) // Win10 tail: access count + unknown
		if err != nil {
			return e, 0, err
		}
		off += 16
	}

	rem2, pathChars, err := nomkit.Unsigned2(rem2, nomkit.LittleEndian)
	if err != nil {
		return e, 0, err
	}
	off += 2

	pathBytes := int(pathChars) * 2
	rem2, pathRaw, err := nomkit.Take(rem2, pathBytes)
	if err != nil {
		return e, 0, err
	}
	e.Path = strdecode.ExtractUTF16(pathRaw)
	off += pathBytes

	if len(rem2) >= 4 {
		off += 4 // optional trailing nil u32
	}

	return e, off, nil
}

// lnkStartSignature is the fixed 20-byte LNK structure start sequence a
// Custom Jumplist scans for between entries, per spec §4.12/§9. Kept as a
// single literal rather than a search-set: no second Windows-version
// variant is in evidence in the pack (see DESIGN.md).
var lnkStartSignature = []byte{
	0x4C, 0x00, 0x00, 0x00, 0x01, 0x14, 0x02, 0x00,
	0x00, 0x00, 0x00, 0x00, 0xC0, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x46,
}

// customJumplistFooter is the 4-byte trailer ending the final LNK payload
// of a Custom Jumplist file.
var customJumplistFooter = []byte{0xAB, 0xFB, 0xBF, 0xBA}

// customJumplistHeaderSize is the fixed header preceding the first LNK
// start sequence in a Custom Jumplist file.
const customJumplistHeaderSize = 20

// ParseCustomJumplist splits a Custom Jumplist file into its constituent
// LNK payloads: skip the 20-byte header, then treat the bytes between
// successive lnkStartSignature occurrences (or between the final
// occurrence and the 4-byte footer) as one LNK payload each.
func ParseCustomJumplist(raw []byte) ([][]byte, error) {
	if len(raw) < customJumplistHeaderSize {
		return nil, fmt.Errorf("shellitems: custom jumplist shorter than header")
	}
	body := raw[customJumplistHeaderSize:]

	var starts []int
	for idx := 0; idx < len(body); {
		i := bytes.Index(body[idx:], lnkStartSignature)
		if i < 0 {
			break
		}
		starts = append(starts, idx+i)
		idx += i + len(lnkStartSignature)
	}
	if len(starts) == 0 {
		return nil, fmt.Errorf("shellitems: no LNK start signature found")
	}

	footerAt := len(body)
	if i := bytes.LastIndex(body, customJumplistFooter); i >= 0 {
		footerAt = i
	}

	var payloads [][]byte
	for i, start := range starts {
		end := footerAt
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		if end > start {
			payloads = append(payloads, body[start:end])
		}
	}
	return payloads, nil
}
