package registry

import (
	"fmt"
	"os"
	"time"

	"github.com/hostforensics/triage/containers/registry/regfmt"
)

// Hive is the opened hive, backed by mmap (unix/darwin) or a byte slice (others).
type Hive struct {
	f    *os.File
	data []byte
	size int64
	base *BaseBlock
}

// HBINStart returns the absolute file offset where the HBIN area begins.
// In on-disk Windows hives this is always 0x1000 (4096).
func (h *Hive) HBINStart() uint32 {
	return uint32(regfmt.HeaderSize)
}

// RootOffset returns the ABSOLUTE file offset of the root NK cell.
// The REGF header stores this as an offset *relative* to the HBIN start (0x1000),
// so we must add the HBIN start to it.
func (h *Hive) RootOffset() uint32 {
	if h == nil || h.base == nil {
		return 0
	}
	rel := h.base.RootCellOffset() // e.g. 0x20
	return uint32(regfmt.HeaderSize) + rel
}

// RootCellOffset returns the NK root pointer RELATIVE TO 0x1000.
func (h *Hive) RootCellOffset() uint32 {
	if h.base == nil {
		return 0
	}
	return h.base.RootCellOffset()
}

// ResolveCellPayload resolves a relative cell offset and returns the payload bytes.
// This skips the 4-byte cell size header and returns just the payload data.
func (h *Hive) ResolveCellPayload(relOff uint32) ([]byte, error) {
	return resolveRelCellPayload(h.Bytes(), relOff)
}

func (h *Hive) Bytes() []byte { return h.data }

func (h *Hive) Size() int64 { return h.size }

func (h *Hive) FD() int {
	if h == nil || h.f == nil {
		return -1
	}
	return int(h.f.Fd())
}

// HBINs returns an iterator over all HBINs, starting at 0x1000.
func (h *Hive) HBINs() (*HBINIterator, error) {
	start := h.HBINStart()
	if int(start) > len(h.data) {
		return nil, fmt.Errorf("hive: HBIN start (%d) beyond file size (%d)", start, len(h.data))
	}
	return &HBINIterator{
		h:    h,
		next: start,
	}, nil
}

// LastWritten returns the base block's last-write timestamp, converted from
// FILETIME to UTC.
func (h *Hive) LastWritten() time.Time {
	if h == nil || h.data == nil || len(h.data) < regfmt.HeaderSize {
		return time.Unix(0, 0).UTC()
	}
	return regfmt.FiletimeToTime(regfmt.ReadU64(h.data, regfmt.REGFTimeStampOffset))
}
