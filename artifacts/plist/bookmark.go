package plist

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/hostforensics/triage/internal/enc"
	"github.com/hostforensics/triage/internal/timeconv"
)

// Bookmark is the subset of a decoded Apple bookmark blob relevant to
// triage, per the field set exercised in
// original_source/artemis-core/src/artifacts/os/macos/bookmarks/parser.rs's
// own worked test (path/cnid_path/volume_*/target_flags/username/uid/...).
type Bookmark struct {
	Path                []string
	CNIDPath            []uint64
	VolumePath          string
	VolumeURL           string
	VolumeName          string
	VolumeUUID          string
	VolumeSize          uint64
	VolumeFlags         []uint64
	VolumeIsRoot        bool
	LocalizedName       string
	TargetFlags         []uint64
	Username            string
	FolderIndex         uint64
	UID                 uint32
	CreationOptions     uint32
	SecurityExtensionRW string
	SecurityExtensionRO string
	FileRefFlag         bool
	Created             string
	VolumeCreated       string
}

const (
	bookmarkMagic      = 0x6b6f6f62 // "book" read little-endian, per parser.rs's book_sig
	bookmarkHeaderSize = 48
	tocMagic           = 0xFFFFFFFE
)

// Bookmark TOC key IDs (mac_alias/CFURLBookmarkData well-known keys,
// referenced by the published format parser.rs itself cites:
// https://mac-alias.readthedocs.io/en/latest/bookmark_fmt.html). No source
// implementation of the key table was retrievable from the pack, so this
// mapping is this package's own Open Question (see DESIGN.md): the TOC
// walk and record-type decode below are verified against the published
// record-type tags; the specific key-ID-to-field assignment is
// best-effort against that same reference rather than a second
// independent implementation.
const (
	keyTargetPath        = 0x1003
	keyTargetCNIDPath     = 0x1004
	keyTargetFlags        = 0x1010
	keyTargetCreationDate = 0x1040
	keyUsername           = 0x1051
	keyUID                = 0x1052
	keyLocalizedName      = 0x1020
	keyVolumePath         = 0x2002
	keyVolumeURL          = 0x2005
	keyVolumeName         = 0x2010
	keyVolumeUUID         = 0x2011
	keyVolumeSize         = 0x2012
	keyVolumeCreationDate = 0x2013
	keyVolumeFlags        = 0x2020
	keyVolumeIsRoot       = 0x2040
	keyFolderIndex        = 0x3003
	keyCreationOptions    = 0x4005
	keySecurityExtRW      = 0x4010
	keySecurityExtRO      = 0x4011
	keyFileRefFlag        = 0xD001
)

// record value-type tags: the low nibble of the type byte selects the
// shape, the high nibbles (masked below) select scalar width.
const (
	typeString  = 0x0101
	typeData    = 0x0201
	typeNumber  = 0x0301
	typeDate    = 0x0400
	typeBoolFalse = 0x0500
	typeBoolTrue  = 0x0501
	typeArray   = 0x0601
	typeDict    = 0x0701
	typeUUID    = 0x0801
	typeURL     = 0x0901
	typeURLRel  = 0x0902
)

// ParseBookmark decodes an Apple bookmark blob: a 48-byte header, followed
// by a chain of TOC blocks and the key/value records they index, per
// parser.rs's parse_bookmark (header validation) and the published
// mac_alias record format (TOC walk and record decode).
func ParseBookmark(data []byte) (Bookmark, error) {
	var bm Bookmark
	if len(data) < bookmarkHeaderSize {
		return bm, fmt.Errorf("bookmark: data shorter than header (%d bytes)", len(data))
	}
	sig := binary.LittleEndian.Uint32(data[0:4])
	dataOffset := binary.LittleEndian.Uint32(data[12:16])
	if sig != bookmarkMagic {
		return bm, fmt.Errorf("bookmark: bad signature 0x%x", sig)
	}
	if int(dataOffset) != bookmarkHeaderSize {
		return bm, fmt.Errorf("bookmark: unexpected data offset %d", dataOffset)
	}

	entries, err := walkTOC(data, bookmarkHeaderSize)
	if err != nil {
		return bm, fmt.Errorf("bookmark: %w", err)
	}

	for key, recOff := range entries {
		val, err := decodeRecord(data, recOff)
		if err != nil {
			continue
		}
		applyField(&bm, key, val)
	}
	return bm, nil
}

// walkTOC follows the singly-linked list of TOC blocks starting at
// firstOffset, returning a map of key ID to the absolute offset of that
// key's record. Each TOC block is:
// size(u32) magic(u32,==tocMagic) identifier(u32) nextOffset(u32)
// numEntries(u32) then numEntries×{key(u32) valueOffset(u32)}, where
// valueOffset is relative to the start of the bookmark data region
// (bookmarkHeaderSize).
func walkTOC(data []byte, firstOffset int) (map[uint32]int, error) {
	entries := make(map[uint32]int)
	off := firstOffset
	for off != 0 {
		if off+20 > len(data) {
			return entries, fmt.Errorf("TOC block out of range at %d", off)
		}
		magic := binary.LittleEndian.Uint32(data[off+4 : off+8])
		if magic != tocMagic {
			return entries, fmt.Errorf("bad TOC magic 0x%x at %d", magic, off)
		}
		next := binary.LittleEndian.Uint32(data[off+12 : off+16])
		numEntries := binary.LittleEndian.Uint32(data[off+16 : off+20])

		pos := off + 20
		for i := uint32(0); i < numEntries; i++ {
			if pos+8 > len(data) {
				return entries, fmt.Errorf("TOC entry out of range at %d", pos)
			}
			key := binary.LittleEndian.Uint32(data[pos : pos+4])
			valOff := binary.LittleEndian.Uint32(data[pos+4 : pos+8])
			entries[key] = bookmarkHeaderSize + int(valOff)
			pos += 8
		}

		if next == 0 || int(next) == off {
			break
		}
		off = int(next)
	}
	return entries, nil
}

// decodeRecord decodes the value at off: length(u32) type(u32) payload.
// Arrays hold a flat list of u32 offsets (bookmarkHeaderSize-relative),
// each pointing at another record; string/data/number/date/bool are
// terminal.
func decodeRecord(data []byte, off int) (any, error) {
	if off < 0 || off+8 > len(data) {
		return nil, fmt.Errorf("record out of range at %d", off)
	}
	length := binary.LittleEndian.Uint32(data[off : off+4])
	typ := binary.LittleEndian.Uint32(data[off+4 : off+8])
	payload := data[off+8:]
	if int(length) > len(payload) {
		return nil, fmt.Errorf("record length %d exceeds buffer at %d", length, off)
	}
	payload = payload[:length]

	switch typ {
	case typeString:
		return string(payload), nil
	case typeData:
		return append([]byte(nil), payload...), nil
	case typeNumber:
		return decodeNumber(payload), nil
	case typeDate:
		return decodeCFAbsoluteTime(payload), nil
	case typeBoolFalse:
		return false, nil
	case typeBoolTrue:
		return true, nil
	case typeUUID:
		if len(payload) == 16 {
			var b [16]byte
			copy(b[:], payload)
			return enc.GUIDFromBE(b), nil
		}
		return nil, fmt.Errorf("malformed UUID record at %d", off)
	case typeURL, typeURLRel:
		return string(payload), nil
	case typeArray:
		var items []any
		for p := 0; p+4 <= len(payload); p += 4 {
			itemOff := bookmarkHeaderSize + int(binary.LittleEndian.Uint32(payload[p:p+4]))
			val, err := decodeRecord(data, itemOff)
			if err != nil {
				continue
			}
			items = append(items, val)
		}
		return items, nil
	default:
		return append([]byte(nil), payload...), nil
	}
}

// decodeNumber interprets a number record by its payload width: Apple
// encodes the scalar byte width directly in how many bytes follow the
// length/type pair (1/2/4/8 for integers, 4/8 for float/double — this
// decoder treats any width as an unsigned little-endian integer, since
// every numeric bookmark field consumed here is an integer).
func decodeNumber(b []byte) uint64 {
	var v uint64
	for i, c := range b {
		v |= uint64(c) << (8 * i)
	}
	return v
}

// decodeCFAbsoluteTime decodes an 8-byte little-endian IEEE-754 double
// counting seconds since the CFAbsoluteTime epoch (2001-01-01), returning
// an ISO-8601 milli string.
func decodeCFAbsoluteTime(b []byte) string {
	if len(b) < 8 {
		return timeconv.UnixEpochSentinel
	}
	bits := binary.LittleEndian.Uint64(b)
	seconds := timeconv.FromCocoa(math.Float64frombits(bits))
	return timeconv.ToISO8601Milli(seconds)
}

// applyField routes one decoded TOC record into the matching Bookmark
// field by key ID, tolerating any type mismatch by simply skipping the
// field (a malformed or unrecognized record should never abort decoding
// the rest of the bookmark).
func applyField(bm *Bookmark, key uint32, val any) {
	switch key {
	case keyTargetPath:
		bm.Path = stringArray(val)
	case keyTargetCNIDPath:
		bm.CNIDPath = numberArray(val)
	case keyTargetFlags:
		bm.TargetFlags = numberArray(val)
	case keyTargetCreationDate:
		if s, ok := val.(string); ok {
			bm.Created = s
		}
	case keyUsername:
		if s, ok := val.(string); ok {
			bm.Username = s
		}
	case keyUID:
		if n, ok := val.(uint64); ok {
			bm.UID = uint32(n)
		}
	case keyLocalizedName:
		if s, ok := val.(string); ok {
			bm.LocalizedName = s
		}
	case keyVolumePath:
		if s, ok := val.(string); ok {
			bm.VolumePath = s
		}
	case keyVolumeURL:
		if s, ok := val.(string); ok {
			bm.VolumeURL = s
		}
	case keyVolumeName:
		if s, ok := val.(string); ok {
			bm.VolumeName = s
		}
	case keyVolumeUUID:
		if s, ok := val.(string); ok {
			bm.VolumeUUID = s
		}
	case keyVolumeSize:
		if n, ok := val.(uint64); ok {
			bm.VolumeSize = n
		}
	case keyVolumeCreationDate:
		if s, ok := val.(string); ok {
			bm.VolumeCreated = s
		}
	case keyVolumeFlags:
		bm.VolumeFlags = numberArray(val)
	case keyVolumeIsRoot:
		if b, ok := val.(bool); ok {
			bm.VolumeIsRoot = b
		}
	case keyFolderIndex:
		if n, ok := val.(uint64); ok {
			bm.FolderIndex = n
		}
	case keyCreationOptions:
		if n, ok := val.(uint64); ok {
			bm.CreationOptions = uint32(n)
		}
	case keySecurityExtRW:
		if s, ok := val.(string); ok {
			bm.SecurityExtensionRW = s
		}
	case keySecurityExtRO:
		if s, ok := val.(string); ok {
			bm.SecurityExtensionRO = s
		}
	case keyFileRefFlag:
		if b, ok := val.(bool); ok {
			bm.FileRefFlag = b
		}
	}
}

func stringArray(val any) []string {
	items, ok := val.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func numberArray(val any) []uint64 {
	items, ok := val.([]any)
	if !ok {
		return nil
	}
	out := make([]uint64, 0, len(items))
	for _, it := range items {
		if n, ok := it.(uint64); ok {
			out = append(out, n)
		}
	}
	return out
}
