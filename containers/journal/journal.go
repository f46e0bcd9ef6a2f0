// Package journal reads systemd Journal object records: a fixed 16-byte
// object header (type, compression flag, reserved padding, and a size that
// includes the header itself) followed by a payload that is optionally
// compressed with xz, lz4, or zstd, per spec §4.11.
//
// The object header layout and the Data object's "compact" tail-array
// fields are grounded directly on original_source's
// artemis-core/src/artifacts/os/linux/journals/objects/{header,data}.rs —
// this repository carries no Rust, but the wire layout they decode is the
// journal file format itself, reproduced here in the teacher's Go idiom
// (nomkit combinators over a byte slice) rather than translated line for
// line.
package journal

import (
	"fmt"

	"github.com/hostforensics/triage/internal/compressor"
	"github.com/hostforensics/triage/internal/enc"
	"github.com/hostforensics/triage/internal/nomkit"
	"github.com/hostforensics/triage/internal/strdecode"
)

// ObjectType is the journal object header's obj_type field.
type ObjectType uint8

const (
	ObjectUnused ObjectType = iota
	ObjectData
	ObjectField
	ObjectEntry
	ObjectDataHashTable
	ObjectFieldHashTable
	ObjectEntryArray
	ObjectTag
)

// Compression flag bits (spec §4.11).
const (
	compressXZ   = 1
	compressLZ4  = 2
	compressZstd = 4
)

const headerSize = 16

// ObjectHeader is the 16-byte common prefix of every journal object.
type ObjectHeader struct {
	Type        ObjectType
	Compression uint8
	Size        uint64 // total object size, including this 16-byte header
}

// ParseObjectHeader decodes the fixed header at the start of raw. The
// returned payload is raw[headerSize:header.Size], the object's own bytes
// with the header stripped, still compressed if Compression != 0.
func ParseObjectHeader(raw []byte) (ObjectHeader, []byte, error) {
	var h ObjectHeader
	if len(raw) < headerSize {
		return h, nil, fmt.Errorf("journal: object header needs %d bytes, have %d", headerSize, len(raw))
	}
	rem, typ, err := nomkit.Unsigned1(raw)
	if err != nil {
		return h, nil, err
	}
	rem, flag, err := nomkit.Unsigned1(rem)
	if err != nil {
		return h, nil, err
	}
	rem, _, err = nomkit.Take(rem, 6) // reserved
	if err != nil {
		return h, nil, err
	}
	rem, size, err := nomkit.Unsigned8(rem, nomkit.LittleEndian)
	if err != nil {
		return h, nil, err
	}
	h.Type = ObjectType(typ)
	h.Compression = flag
	h.Size = size

	if size < headerSize || int(size) > len(raw) {
		return h, nil, fmt.Errorf("journal: object size %d out of bounds (have %d)", size, len(raw))
	}
	return h, rem[:size-headerSize], nil
}

// decompressPayload reverses the object header's compression flag, per
// spec §4.11's lz4-has-an-8-byte-size-prefix rule. Failure substitutes the
// base64 lossy-fallback marker described in spec §3/§4.4 rather than
// returning an error, matching the original journal reader's behavior of
// degrading a single bad object instead of aborting the whole file.
func decompressPayload(flag uint8, payload []byte) []byte {
	switch {
	case flag&compressLZ4 != 0:
		if len(payload) < 8 {
			return []byte(enc.FallbackString("lz4", payload))
		}
		_, decompSize, err := nomkit.Unsigned8(payload, nomkit.LittleEndian)
		if err != nil {
			return []byte(enc.FallbackString("lz4", payload))
		}
		out, err := compressor.LZ4Block(payload[8:], int(decompSize))
		if err != nil {
			return []byte(enc.FallbackString("lz4", payload))
		}
		return out
	case flag&compressXZ != 0:
		out, err := compressor.XZ(payload, compressor.Hints{})
		if err != nil {
			return []byte(enc.FallbackString("xz", payload))
		}
		return out
	case flag&compressZstd != 0:
		out, err := compressor.Zstd(payload, compressor.Hints{})
		if err != nil {
			return []byte(enc.FallbackString("zstd", payload))
		}
		return out
	default:
		return payload
	}
}

// DataObject is a decoded Data object: the journal's per-field "KEY=VALUE"
// message plus the fixed-width linkage fields that precede it. isCompact
// selects the newer on-disk format's extra 8-byte tail-array fields, which
// sit between the fixed linkage fields and the (possibly compressed)
// message payload.
type DataObject struct {
	Hash                   uint64
	NextHashOffset         uint64
	NextFieldOffset        uint64
	EntryOffset            uint64
	EntryArrayOffset       uint64
	NEntries               uint64
	TailEntryArrayOffset   uint32
	TailEntryArrayNEntries uint32
	Message                string
}

// ParseDataObject decodes a Data object's payload (the header already
// stripped by ParseObjectHeader) against the object header's own
// compression flag.
func ParseDataObject(payload []byte, isCompact bool, compressFlag uint8) (DataObject, error) {
	var d DataObject
	rem := payload
	var err error
	rem, d.Hash, err = nomkit.Unsigned8(rem, nomkit.LittleEndian)
	if err != nil {
		return d, err
	}
	rem, d.NextHashOffset, err = nomkit.Unsigned8(rem, nomkit.LittleEndian)
	if err != nil {
		return d, err
	}
	rem, d.NextFieldOffset, err = nomkit.Unsigned8(rem, nomkit.LittleEndian)
	if err != nil {
		return d, err
	}
	rem, d.EntryOffset, err = nomkit.Unsigned8(rem, nomkit.LittleEndian)
	if err != nil {
		return d, err
	}
	rem, d.EntryArrayOffset, err = nomkit.Unsigned8(rem, nomkit.LittleEndian)
	if err != nil {
		return d, err
	}
	rem, d.NEntries, err = nomkit.Unsigned8(rem, nomkit.LittleEndian)
	if err != nil {
		return d, err
	}

	if isCompact {
		rem, d.TailEntryArrayOffset, err = nomkit.Unsigned4(rem, nomkit.LittleEndian)
		if err != nil {
			return d, err
		}
		rem, d.TailEntryArrayNEntries, err = nomkit.Unsigned4(rem, nomkit.LittleEndian)
		if err != nil {
			return d, err
		}
	}

	raw := decompressPayload(compressFlag, rem)
	d.Message = strdecode.ExtractUTF8(raw)
	return d, nil
}
