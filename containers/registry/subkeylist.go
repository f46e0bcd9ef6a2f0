package registry

import (
	"fmt"

	"github.com/hostforensics/triage/containers/registry/regfmt"
)

// indexList is the shared shape behind every subkey index cell: a 2-byte
// signature, a 2-byte count, then a flat array of fixed-size entries. LF/LH
// entries are 8 bytes (a cell index plus a 4-byte hint or hash); LI/RI
// entries are a bare 4-byte cell index. The teacher kept LF, LH, LI, and RI
// as four near-identical files that each hand-rolled this parse-and-bounds
// check; collapsed here since they differ only in entry size and what the
// trailing bytes mean, never in how an entry is located or validated.
type indexList struct {
	buf       []byte
	entrySize int
}

func parseIndexList(payload, sig []byte, entrySize int, kind string) (indexList, error) {
	if !hasPrefix(payload, sig) {
		return indexList{}, fmt.Errorf("%s: bad signature", kind)
	}
	cnt, err := checkIndexHeader(payload)
	if err != nil {
		return indexList{}, err
	}
	need := int(regfmt.IdxListOffset) + int(cnt)*entrySize
	if len(payload) < need {
		return indexList{}, fmt.Errorf("%s: truncated list: have=%d need=%d", kind, len(payload), need)
	}
	return indexList{buf: payload, entrySize: entrySize}, nil
}

func (l indexList) Count() int {
	return int(regfmt.ReadU16(l.buf, regfmt.IdxCountOffset))
}

// entryBytes returns the i'th entry's raw bytes, or nil if i falls outside
// this list's own validated Count(). Parse already proved the backing
// buffer holds Count()*entrySize bytes; this guards the index itself,
// since callers sometimes derive i from a sibling structure's count (an
// NK's own SubkeyCount, say) rather than from this list.
func (l indexList) entryBytes(i int) []byte {
	if i < 0 || i >= l.Count() {
		return nil
	}
	off := regfmt.IdxListOffset + i*l.entrySize
	end := off + l.entrySize
	if end > len(l.buf) {
		return nil
	}
	return l.buf[off:end]
}

func (l indexList) RawList() []byte {
	end := regfmt.IdxListOffset + l.Count()*l.entrySize
	if end > len(l.buf) {
		end = len(l.buf)
	}
	return l.buf[regfmt.IdxListOffset:end]
}

// --- "lf" (fast leaf): CM_INDEX entries {Cell, NameHint[4]} ---

// LF and LH have similar structures but represent different Windows
// Registry concepts (fast leaf vs hash leaf); kept as distinct types since
// their entries carry different second fields (a 4-char name hint vs a
// full hash key).
type LF struct{ list indexList }

func ParseLF(payload []byte) (LF, error) {
	l, err := parseIndexList(payload, regfmt.LFSignature, regfmt.LFFHEntrySize, "lf")
	return LF{list: l}, err
}

func (lf LF) Count() int          { return lf.list.Count() }
func (lf LF) RawList() []byte     { return lf.list.RawList() }
func (lf LF) Entry(i int) LFEntry { return LFEntry{raw: lf.list.entryBytes(i)} }

// LFEntry is a zero-copy view of one "lf" entry: [0..3]=Cell, [4..7]=NameHint.
type LFEntry struct{ raw []byte }

// Cell returns the subkey NK's relative cell offset, or 0 if the entry was
// out of range for its list (see indexList.entryBytes).
func (e LFEntry) Cell() uint32 {
	if len(e.raw) < 4 {
		return 0
	}
	return regfmt.ReadU32(e.raw, 0)
}

// HintBytes returns the 4-byte "fast hint" (first 4 ASCII chars, case-sensitive; 0 for non-ASCII).
func (e LFEntry) HintBytes() []byte {
	if len(e.raw) < regfmt.LFFHEntrySize {
		return nil
	}
	return e.raw[4:regfmt.LFFHEntrySize]
}

// --- "lh" (hash leaf): CM_INDEX entries {Cell, HashKey} ---

type LH struct{ list indexList }

func ParseLH(payload []byte) (LH, error) {
	l, err := parseIndexList(payload, regfmt.LHSignature, regfmt.LFFHEntrySize, "lh")
	return LH{list: l}, err
}

func (lh LH) Count() int          { return lh.list.Count() }
func (lh LH) RawList() []byte     { return lh.list.RawList() }
func (lh LH) Entry(i int) LHEntry { return LHEntry{raw: lh.list.entryBytes(i)} }

type LHEntry struct{ raw []byte }

func (e LHEntry) Cell() uint32 {
	if len(e.raw) < 4 {
		return 0
	}
	return regfmt.ReadU32(e.raw, 0)
}

func (e LHEntry) HashKey() uint32 {
	if len(e.raw) < regfmt.DWORDSize+4 {
		return 0
	}
	return regfmt.ReadU32(e.raw, regfmt.DWORDSize)
}

// --- "li" (index leaf) and "ri" (root index): flat relative-cell-offset arrays ---
//
// LI and RI share the same on-disk shape (a flat array of HCELL_INDEX
// values) but point at different things — LI's entries are subkey NKs
// directly, RI's are pointers to LF/LH/LI leaf lists used when a key has
// enough subkeys to need a two-level index — so they stay distinct types
// even though neither adds a field beyond indexList.

type LI struct{ list indexList }

func ParseLI(payload []byte) (LI, error) {
	l, err := parseIndexList(payload, regfmt.LISignature, regfmt.LIEntrySize, "li")
	return LI{list: l}, err
}

func (li LI) Count() int      { return li.list.Count() }
func (li LI) RawList() []byte { return li.list.RawList() }

// CellIndexAt returns the NK cell RELATIVE offset at position i, or 0 if i
// is out of range for this list.
func (li LI) CellIndexAt(i int) uint32 {
	raw := li.list.entryBytes(i)
	if len(raw) < 4 {
		return 0
	}
	return regfmt.ReadU32(raw, 0)
}

type RI struct{ list indexList }

func ParseRI(payload []byte) (RI, error) {
	l, err := parseIndexList(payload, regfmt.RISignature, regfmt.LIEntrySize, "ri")
	return RI{list: l}, err
}

func (ri RI) Count() int      { return ri.list.Count() }
func (ri RI) RawList() []byte { return ri.list.RawList() }

// LeafCellAt returns the RELATIVE cell index of the child leaf (li/lf/lh),
// or 0 if i is out of range for this list.
func (ri RI) LeafCellAt(i int) uint32 {
	raw := ri.list.entryBytes(i)
	if len(raw) < 4 {
		return 0
	}
	return regfmt.ReadU32(raw, 0)
}
