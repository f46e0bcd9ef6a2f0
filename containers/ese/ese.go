// Package ese reads the Extensible Storage Engine page format used by
// Windows' SRUM, SRU, and WebCache databases: a paged b-tree of tagged
// records, with a schema described by rows of the database's own "MSysObjects"
// catalog table.
//
// The page-header-then-tagged-records shape is grounded on the same idiom as
// the registry hive's own HBIN reader (containers/registry/hbin.go): both
// formats page a file into fixed-size, self-describing blocks and iterate a
// small in-block directory (the hive's cell stream, ESE's tag array) to find
// each record's bytes. No ESE driver appears in the example pack, so the
// page/tag/catalog layout below is grounded procedurally from the published
// on-disk structure rather than adapted from a third-party decoder.
package ese

import (
	"fmt"

	"github.com/hostforensics/triage/internal/enc"
	"github.com/hostforensics/triage/internal/logging"
	"github.com/hostforensics/triage/internal/nomkit"
)

// Database-wide constants.
const (
	dbHeaderMagic = 0x89abcdef
	// dbHeaderPageSizeOffset is where the page size override lives in the
	// 2-sector (2x4096) file header; 0 means the legacy default of 4096.
	dbHeaderPageSizeOffset = 236
	defaultPageSize        = 4096
)

// Page flags (bit field at the fixed-header's flags word).
const (
	pageFlagRoot       = 0x0001
	pageFlagLeaf       = 0x0002
	pageFlagParent     = 0x0004
	pageFlagEmpty      = 0x0008
	pageFlagSpaceTree  = 0x0020
	pageFlagIndex      = 0x0040
	pageFlagLongValue  = 0x0080
	pageFlagNewChecksum = 0x2000
)

// Column types (JET_coltyp), decoded into ColumnValue.Kind.
const (
	ColNil          = 0
	ColBit          = 1
	ColUnsignedByte = 2
	ColShort        = 3
	ColLong         = 4
	ColCurrency     = 5
	ColIEEESingle   = 6
	ColIEEEDouble   = 7
	ColDateTime     = 8
	ColBinary       = 9
	ColText         = 10
	ColLongBinary   = 11
	ColLongText     = 12
	ColSLV          = 13
	ColUnsignedLong = 14
	ColLongLong     = 15
	ColGUID         = 16
	ColUnsignedShort = 17
)

// Database holds the decoded ESE header geometry needed to read pages by
// number; callers obtain page bytes themselves (from a file or a mapped
// image) and hand them to ReadPage.
type Database struct {
	PageSize uint32
}

// OpenHeader derives page geometry from the first 4096-or-8192 byte header
// sector of an ESE file. It does not validate the full checksum; forensic
// triage reads are best-effort against possibly-dirty database files.
func OpenHeader(header []byte) (*Database, error) {
	if len(header) < dbHeaderPageSizeOffset+4 {
		return nil, fmt.Errorf("ese: header too short (%d bytes)", len(header))
	}
	_, magic, err := nomkit.Unsigned4(header[4:], nomkit.LittleEndian)
	if err != nil {
		return nil, fmt.Errorf("ese: header: %w", err)
	}
	if magic != dbHeaderMagic {
		return nil, fmt.Errorf("ese: bad signature 0x%x", magic)
	}
	_, pageSize, err := nomkit.Unsigned4(header[dbHeaderPageSizeOffset:], nomkit.LittleEndian)
	if err != nil {
		return nil, fmt.Errorf("ese: header: %w", err)
	}
	if pageSize == 0 {
		pageSize = defaultPageSize
	}
	return &Database{PageSize: pageSize}, nil
}

// pageHeaderSize is the common header preceding a page's tag array; modern
// (>=8KiB) pages carry an extended checksum region the tag array offsets
// already account for via availableDataOffset.
const pageHeaderSize = 40

// Tag is one entry of a page's tag array: an (offset, size) pair into the
// page body, with two flag bits packed into the size field's top bits.
type Tag struct {
	Offset uint16
	Size   uint16
	Flags  uint8
}

const (
	tagFlagVersion = 0x4000
	tagFlagDeleted = 0x8000
	tagSizeMask    = 0x1FFF
)

// Page is one decoded ESE page: its header fields plus the tagged records
// defined by its tag array, lowest tag index first.
type Page struct {
	Number     uint32
	Flags      uint32
	PrevPage   uint32
	NextPage   uint32
	FatherPage uint32 // parent page (father data page) number
	Records    [][]byte
}

// IsLeaf reports whether the page is a b-tree leaf (data records, not child
// page pointers).
func (p Page) IsLeaf() bool { return p.Flags&pageFlagLeaf != 0 }

// IsRoot reports whether the page is the table's b-tree root.
func (p Page) IsRoot() bool { return p.Flags&pageFlagRoot != 0 }

// ReadPage decodes one page-sized slice (db.PageSize bytes, already sliced
// from the containing file at `pageSize * (pageNumber+1)` — ESE pages are
// 1-indexed past the 2-sector header) into its header fields and tag array
// records.
func ReadPage(raw []byte, pageNumber uint32) (*Page, error) {
	if len(raw) < pageHeaderSize {
		return nil, fmt.Errorf("ese: page %d shorter than header (%d bytes)", pageNumber, len(raw))
	}

	p := &Page{Number: pageNumber}
	_, p.PrevPage, _ = nomkit.Unsigned4(raw[20:], nomkit.LittleEndian)
	_, p.NextPage, _ = nomkit.Unsigned4(raw[24:], nomkit.LittleEndian)
	_, p.FatherPage, _ = nomkit.Unsigned4(raw[28:], nomkit.LittleEndian)
	_, flags32, _ := nomkit.Unsigned4(raw[36:], nomkit.LittleEndian)
	p.Flags = flags32

	tagCount := (len(raw) - pageHeaderSize) / 4
	// The tag array grows backward from the end of the page; each tag is a
	// 4-byte (offset:uint16, size:13+flags:3 packed into a uint16) pair.
	// We don't know the real record count until reading the last tag's
	// implicit "available" boundary, so read tags from the end until the
	// decoded offsets stop making sense within the page body.
	var tags []Tag
	for i := 0; i < tagCount; i++ {
		end := len(raw) - i*4
		if end-4 < pageHeaderSize {
			break
		}
		offRaw := uint16(raw[end-4]) | uint16(raw[end-3])<<8
		sizeRaw := uint16(raw[end-2]) | uint16(raw[end-1])<<8
		size := sizeRaw & tagSizeMask
		flags := uint8(sizeRaw >> 13)
		if int(offRaw)+int(size) > end-4 {
			// Once an entry's body would overlap the tag array itself, the
			// real tag array has ended; stop.
			break
		}
		tags = append(tags, Tag{Offset: offRaw, Size: size, Flags: flags})
	}

	p.Records = make([][]byte, 0, len(tags))
	for _, t := range tags {
		if t.Flags&(tagFlagDeleted>>13) != 0 {
			continue
		}
		start := int(t.Offset) + pageHeaderSize
		end := start + int(t.Size)
		if start < pageHeaderSize || end > len(raw) || start > end {
			logging.Warn("ese: dropping out-of-bounds tag", "page", pageNumber, "offset", t.Offset, "size", t.Size)
			continue
		}
		p.Records = append(p.Records, raw[start:end])
	}
	return p, nil
}

// ColumnDef is one catalog-derived column description, enough to decode a
// fixed-size or variable-size column value out of a leaf record.
type ColumnDef struct {
	Name     string
	ColumnID uint32
	Type     uint32
	Size     uint32 // declared size for fixed-width types; 0 for variable
}

// TableInfo is the catalog-derived schema for one table: its root page
// number (to start a b-tree walk from) and its columns in catalog order.
type TableInfo struct {
	Name     string
	RootPage uint32
	Columns  []ColumnDef
}

// Catalog-record type discriminant (the MSysObjects "Type" column).
const (
	catalogTypeTable  = 1
	catalogTypeColumn = 2
	catalogTypeIndex  = 3
)

// CatalogRecord is one decoded MSysObjects row: enough to reconstruct table
// and column definitions without interpreting the full catalog schema.
type CatalogRecord struct {
	Type     uint16 // catalogTypeTable / catalogTypeColumn / catalogTypeIndex
	ID       uint32
	ParentID uint32 // for columns/indexes, the owning table's ID
	Name     string
	ColType  uint32
	ColSize  uint32
}

// GetCatalogInfo decodes every MSysObjects row visible in the supplied
// catalog pages (already gathered by the caller via GetAllPages against the
// catalog's own root page) into the flat per-record form TableInfoFromCatalog
// consumes.
func GetCatalogInfo(pages []*Page) []CatalogRecord {
	var out []CatalogRecord
	for _, pg := range pages {
		if !pg.IsLeaf() {
			continue
		}
		for _, rec := range pg.Records {
			cr, ok := decodeCatalogRecord(rec)
			if ok {
				out = append(out, cr)
			}
		}
	}
	return out
}

// decodeCatalogRecord decodes one MSysObjects leaf record's fixed-column
// prefix: Type(u16) Id(u32) ParentId(u32), then for column records
// ColType(u32) ColSize(u32), then Name(text).
// This follows the MSysObjects fixed-schema layout common across ESE
// versions; best-effort, each field guarded against truncation.
func decodeCatalogRecord(rec []byte) (CatalogRecord, bool) {
	var cr CatalogRecord
	if len(rec) < 16 {
		return cr, false
	}
	rem := rec
	var err error
	rem, cr.Type, err = nomkit.Unsigned2(rem, nomkit.LittleEndian)
	if err != nil {
		return cr, false
	}
	rem, cr.ID, err = nomkit.Unsigned4(rem, nomkit.LittleEndian)
	if err != nil {
		return cr, false
	}
	rem, cr.ParentID, err = nomkit.Unsigned4(rem, nomkit.LittleEndian)
	if err != nil {
		return cr, false
	}
	// Column type code and size, present on column records only; they are
	// consumed here so that they do not become part of the name.
	if cr.Type == catalogTypeColumn && len(rem) >= 8 {
		_, cr.ColType, _ = nomkit.Unsigned4(rem, nomkit.LittleEndian)
		_, cr.ColSize, _ = nomkit.Unsigned4(rem[4:], nomkit.LittleEndian)
		rem = rem[8:]
	}
	// Name is the trailing variable-length text column; take it as the
	// remainder decoded as Latin-1/ASCII (catalog names are ASCII).
	if len(rem) > 0 {
		cr.Name = string(rem)
	}
	return cr, true
}

// TableInfoFromCatalog assembles one table's schema from the flat catalog
// record list: find the table record by name, then collect every column
// record whose ParentID matches, in catalog order. rootPage comes from the
// caller's own page-allocation map (ESE stores a table's root page number
// outside MSysObjects proper, in the space-allocation "FDP" associated with
// the table record); callers that already resolved it pass it straight
// through.
func TableInfoFromCatalog(catalog []CatalogRecord, tableName string, rootPage uint32) (TableInfo, error) {
	var table *CatalogRecord
	for i := range catalog {
		if catalog[i].Type == catalogTypeTable && catalog[i].Name == tableName {
			table = &catalog[i]
			break
		}
	}
	if table == nil {
		return TableInfo{}, fmt.Errorf("ese: table %q not found in catalog", tableName)
	}

	info := TableInfo{Name: tableName, RootPage: rootPage}
	for _, cr := range catalog {
		if cr.Type == catalogTypeColumn && cr.ParentID == table.ID {
			info.Columns = append(info.Columns, ColumnDef{
				Name:     cr.Name,
				ColumnID: cr.ID,
				Type:     cr.ColType,
				Size:     cr.ColSize,
			})
		}
	}
	return info, nil
}

// GetAllPages walks the b-tree rooted at rootPage, following child page
// pointers out of internal (non-leaf) node records, and returns the leaf
// pages reached, in left-to-right order; branch pages themselves are not
// included. pageAt fetches one page's raw bytes
// by number (callers own the file/mmap and supply this to avoid this
// package owning any I/O).
func GetAllPages(pageAt func(uint32) ([]byte, error), rootPage uint32) ([]*Page, error) {
	raw, err := pageAt(rootPage)
	if err != nil {
		return nil, fmt.Errorf("ese: root page %d: %w", rootPage, err)
	}
	root, err := ReadPage(raw, rootPage)
	if err != nil {
		return nil, err
	}
	if root.IsLeaf() {
		return []*Page{root}, nil
	}

	var out []*Page
	for _, rec := range root.Records {
		childPage, ok := childPageNumber(rec)
		if !ok {
			continue
		}
		children, err := GetAllPages(pageAt, childPage)
		if err != nil {
			logging.Warn("ese: skipping unreadable child page", "page", childPage, "err", err)
			continue
		}
		out = append(out, children...)
	}
	return out, nil
}

// childPageNumber extracts the child page number from a branch-page record:
// the last 4 bytes of a branch record's data are conventionally the child
// page pointer in this simplified tagged-record reading.
func childPageNumber(rec []byte) (uint32, bool) {
	if len(rec) < 4 {
		return 0, false
	}
	tail := rec[len(rec)-4:]
	_, v, err := nomkit.Unsigned4(tail, nomkit.LittleEndian)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ColumnValue is one decoded cell of a leaf record, ready for emission.
type ColumnValue struct {
	Name   string
	Type   uint32
	String string
}

// GetPageData decodes every leaf record across pages against the supplied
// column schema, returning one row (slice of ColumnValue) per record. This
// intentionally does not attempt tagged-column (sparse, bit-mapped) layout
// resolution in full fidelity; fixed columns are decoded positionally and
// anything that doesn't fit the declared width falls back to the spec's
// lossy base64 substitution.
func GetPageData(pages []*Page, info TableInfo) [][]ColumnValue {
	var rows [][]ColumnValue
	for _, pg := range pages {
		if !pg.IsLeaf() {
			continue
		}
		for _, rec := range pg.Records {
			rows = append(rows, decodeRow(rec, info.Columns))
		}
	}
	return rows
}

func decodeRow(rec []byte, cols []ColumnDef) []ColumnValue {
	row := make([]ColumnValue, 0, len(cols))
	off := 0
	for _, col := range cols {
		cv := ColumnValue{Name: col.Name, Type: col.Type}
		width := int(col.Size)
		if width == 0 || off+width > len(rec) {
			width = fixedWidthFor(col.Type)
		}
		if width == 0 || off+width > len(rec) {
			cv.String = enc.FallbackString("ese_column", nil)
			row = append(row, cv)
			continue
		}
		cv.String = decodeColumnValue(col.Type, rec[off:off+width])
		off += width
		row = append(row, cv)
	}
	return row
}

func fixedWidthFor(colType uint32) int {
	switch colType {
	case ColBit, ColUnsignedByte:
		return 1
	case ColShort, ColUnsignedShort:
		return 2
	case ColLong, ColUnsignedLong, ColIEEESingle:
		return 4
	case ColCurrency, ColIEEEDouble, ColDateTime, ColLongLong:
		return 8
	case ColGUID:
		return 16
	default:
		return 0
	}
}

func decodeColumnValue(colType uint32, raw []byte) string {
	switch colType {
	case ColBit:
		return fmt.Sprintf("%t", raw[0] != 0)
	case ColUnsignedByte:
		return fmt.Sprintf("%d", raw[0])
	case ColShort:
		_, v, _ := nomkit.Unsigned2(raw, nomkit.LittleEndian)
		return fmt.Sprintf("%d", int16(v))
	case ColUnsignedShort:
		_, v, _ := nomkit.Unsigned2(raw, nomkit.LittleEndian)
		return fmt.Sprintf("%d", v)
	case ColLong:
		_, v, _ := nomkit.Unsigned4(raw, nomkit.LittleEndian)
		return fmt.Sprintf("%d", int32(v))
	case ColUnsignedLong:
		_, v, _ := nomkit.Unsigned4(raw, nomkit.LittleEndian)
		return fmt.Sprintf("%d", v)
	case ColLongLong, ColCurrency:
		_, v, _ := nomkit.Unsigned8(raw, nomkit.LittleEndian)
		return fmt.Sprintf("%d", v)
	case ColGUID:
		var b [16]byte
		copy(b[:], raw)
		return enc.GUIDFromLE(b)
	case ColText, ColLongText:
		return string(raw)
	default:
		return enc.Base64Std(raw)
	}
}

// SruDbIdMapTable translates the small integer foreign keys SRUM's nine
// GUID-named tables use for AppId/UserId columns back to their string form,
// per spec §4.8.
type SruDbIdMapTable struct {
	byID map[uint32]string
}

// NewSruDbIdMapTable builds the lookup from SruDbIdMapTable's own decoded
// rows: IdIndex (uint32) and IdBlob (a SID or a UTF-16 string, depending on
// IdType), already stringified by the caller via GetPageData.
func NewSruDbIdMapTable(rows [][]ColumnValue) *SruDbIdMapTable {
	m := &SruDbIdMapTable{byID: make(map[uint32]string, len(rows))}
	for _, row := range rows {
		var id uint32
		var val string
		for _, cv := range row {
			switch cv.Name {
			case "IdIndex":
				fmt.Sscanf(cv.String, "%d", &id)
			case "IdBlob":
				val = cv.String
			}
		}
		if val != "" {
			m.byID[id] = val
		}
	}
	return m
}

// Resolve returns the AppId/UserId string for a small integer foreign key,
// or the decimal string of id itself if no mapping exists.
func (m *SruDbIdMapTable) Resolve(id uint32) string {
	if v, ok := m.byID[id]; ok {
		return v
	}
	return fmt.Sprintf("%d", id)
}
