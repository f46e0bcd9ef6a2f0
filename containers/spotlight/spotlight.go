// Package spotlight reads macOS Spotlight store.db files: a 4096-byte
// header describing a block map, a map of store-block numbers, and a
// sequence of 4096-byte property blocks whose rows are decoded against
// externally supplied category/attribute/index metadata, per spec §4.10.
//
// The header field layout is grounded on original_source's
// artemis-core/src/artifacts/os/macos/spotlight/store/db.rs (parse_header):
// this repository carries no Rust, but the field order and the literal
// 1000-properties-per-block limit it applies are reproduced here in the
// teacher's nomkit-combinator idiom.
package spotlight

import (
	"fmt"

	"github.com/hostforensics/triage/internal/enc"
	"github.com/hostforensics/triage/internal/logging"
	"github.com/hostforensics/triage/internal/nomkit"
)

const (
	headerSize     = 4096
	blockSize      = 0x1000
	pathFieldSize  = 256
	unknownFieldSize = 256
)

// maxPropertiesPerBlock bounds how many rows a single 4096-byte property
// block is decoded into. Kept as the literal 1000 observed in the original
// parser; unconfirmed against the on-disk format beyond that evidence (see
// DESIGN.md's Open Question entry), so this is a decode ceiling, not a
// format-derived constant.
const maxPropertiesPerBlock = 1000

// StoreHeader is store.db's fixed 4096-byte header.
type StoreHeader struct {
	Signature                 uint32
	Flags                     uint32
	MapOffset                 uint32
	MapSize                   uint32
	PageSize                  uint32
	MetaAttrTypeBlockNumber   uint32
	MetaAttrValueBlockNumber  uint32
	PropertyTableBlockNumber  uint32
	MetaAttrListBlockNumber   uint32
	MetaAttrStringsBlockNumber uint32
	Path                      string
}

// ParseHeader decodes the first 4096 bytes of a store.db file.
func ParseHeader(data []byte) (StoreHeader, error) {
	var h StoreHeader
	if len(data) < headerSize {
		return h, fmt.Errorf("spotlight: header needs %d bytes, have %d", headerSize, len(data))
	}
	rem := data[:headerSize]
	le := nomkit.LittleEndian
	var err error

	rem, h.Signature, err = nomkit.Unsigned4(rem, le)
	if err != nil {
		return h, err
	}
	rem, h.Flags, err = nomkit.Unsigned4(rem, le)
	if err != nil {
		return h, err
	}
	// Seven unknown/reserved u32 fields precede the map offset, per db.rs's
	// parse_header (unknown..unknown7).
	for i := 0; i < 7; i++ {
		rem, _, err = nomkit.Unsigned4(rem, le)
		if err != nil {
			return h, err
		}
	}
	rem, h.MapOffset, err = nomkit.Unsigned4(rem, le)
	if err != nil {
		return h, err
	}
	rem, h.MapSize, err = nomkit.Unsigned4(rem, le)
	if err != nil {
		return h, err
	}
	rem, h.PageSize, err = nomkit.Unsigned4(rem, le)
	if err != nil {
		return h, err
	}
	rem, h.MetaAttrTypeBlockNumber, err = nomkit.Unsigned4(rem, le)
	if err != nil {
		return h, err
	}
	rem, h.MetaAttrValueBlockNumber, err = nomkit.Unsigned4(rem, le)
	if err != nil {
		return h, err
	}
	rem, h.PropertyTableBlockNumber, err = nomkit.Unsigned4(rem, le)
	if err != nil {
		return h, err
	}
	rem, h.MetaAttrListBlockNumber, err = nomkit.Unsigned4(rem, le)
	if err != nil {
		return h, err
	}
	rem, h.MetaAttrStringsBlockNumber, err = nomkit.Unsigned4(rem, le)
	if err != nil {
		return h, err
	}
	rem, _, err = nomkit.Take(rem, unknownFieldSize)
	if err != nil {
		return h, err
	}
	_, pathBytes, err := nomkit.Take(rem, pathFieldSize)
	if err != nil {
		return h, err
	}
	h.Path = cString(pathBytes)
	return h, nil
}

func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// ParseMap decodes the map region immediately following the header
// (header.MapSize bytes) into the sequence of store-block numbers it
// enumerates, each naming a 4096-byte property block at block*0x1000.
func ParseMap(mapData []byte) ([]uint32, error) {
	var blocks []uint32
	rem := mapData
	for len(rem) >= 4 {
		var v uint32
		var err error
		rem, v, err = nomkit.Unsigned4(rem, nomkit.LittleEndian)
		if err != nil {
			break
		}
		if v != 0 {
			blocks = append(blocks, v)
		}
	}
	return blocks, nil
}

// Metadata is the externally supplied category/attribute/index lookup that
// translates a property row's small-integer keys to names, per spec §4.10's
// "meta" parameter. Implementations are typically built from a store's own
// .store.db companion metadata files; this package only consumes the
// lookup, it does not parse those files itself.
type Metadata interface {
	// AttributeName resolves an attribute id to its human name, or "" if
	// unknown.
	AttributeName(id uint32) string
}

// Property is one decoded property-block row.
type Property struct {
	AttributeID uint32
	Attribute   string
	Value       string
}

// ParseBlock decodes one 4096-byte property block into its rows, stopping
// at maxPropertiesPerBlock or when the block's data is exhausted, whichever
// comes first. A block that fails to decode at all is logged and skipped
// (returns nil) rather than propagated, matching spec §4.10's "a
// failed block is logged and skipped".
func ParseBlock(block []byte, meta Metadata) []Property {
	if len(block) < 4 {
		logging.Warn("spotlight: dropping undersized property block")
		return nil
	}
	var props []Property
	rem := block
	for len(props) < maxPropertiesPerBlock && len(rem) >= 8 {
		var attrID, length uint32
		var err error
		rem, attrID, err = nomkit.Unsigned4(rem, nomkit.LittleEndian)
		if err != nil {
			break
		}
		rem, length, err = nomkit.Unsigned4(rem, nomkit.LittleEndian)
		if err != nil {
			break
		}
		if int(length) > len(rem) {
			logging.Warn("spotlight: property value length out of bounds", "attr", attrID, "length", length)
			break
		}
		valueBytes := rem[:length]
		rem = rem[length:]

		name := ""
		if meta != nil {
			name = meta.AttributeName(attrID)
		}
		props = append(props, Property{
			AttributeID: attrID,
			Attribute:   name,
			Value:       decodeValue(valueBytes),
		})
	}
	return props
}

func decodeValue(b []byte) string {
	for _, c := range b {
		if c < 0x20 && c != 0 {
			return enc.Base64Std(b)
		}
	}
	return cString(b)
}
