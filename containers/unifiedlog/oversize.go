package unifiedlog

import (
	"fmt"

	"github.com/hostforensics/triage/internal/nomkit"
)

// oversizeHeaderSize is the fixed portion preceding an Oversize chunk's raw
// string bytes: first proc id, second proc id, and the data reference id
// firehose records use to look the entry back up.
const oversizeHeaderSize = 8 + 8 + 4

// OversizeEntry is a decoded Oversize chunk: a log-message string too large
// to fit inline in its originating Firehose record, carried separately and
// joined back in by DataRefID.
type OversizeEntry struct {
	FirstProcID  uint64
	SecondProcID uint64
	DataRefID    uint32
	Data         []byte
}

// ParseOversizeChunk decodes an Oversize chunk payload. The header field
// order (first proc id, second proc id, data ref id) is this package's
// Open Question: it mirrors the field order the public tracev3
// documentation describes, but is unconfirmed against a byte-exact test
// fixture (see DESIGN.md).
func ParseOversizeChunk(payload []byte) (OversizeEntry, error) {
	var e OversizeEntry
	if len(payload) < oversizeHeaderSize {
		return e, fmt.Errorf("unifiedlog: oversize chunk needs %d bytes, have %d", oversizeHeaderSize, len(payload))
	}
	rem, first, err := nomkit.Unsigned8(payload, nomkit.LittleEndian)
	if err != nil {
		return e, err
	}
	rem, second, err := nomkit.Unsigned8(rem, nomkit.LittleEndian)
	if err != nil {
		return e, err
	}
	rem, ref, err := nomkit.Unsigned4(rem, nomkit.LittleEndian)
	if err != nil {
		return e, err
	}
	e.FirstProcID = first
	e.SecondProcID = second
	e.DataRefID = ref
	e.Data = rem
	return e, nil
}

// firehoseHeaderSize is the fixed portion preceding a Firehose record's
// message bytes: activity type and the oversize data reference id (zero
// when the record carries its message inline).
const firehoseHeaderSize = 4 + 4

// FirehoseRecord is a decoded Firehose chunk: the common activity header
// plus either an inline message or an OversizeRef to resolve against the
// accumulated oversize table.
type FirehoseRecord struct {
	ActivityType uint32
	OversizeRef  uint32
	Message      []byte
}

// ParseFirehoseChunk decodes a Firehose chunk payload down to its activity
// type and oversize reference; message bytes beyond that are carried
// verbatim rather than decoded into Apple's format-string substitution
// opcodes, which this package does not implement (see package doc).
func ParseFirehoseChunk(payload []byte) (FirehoseRecord, error) {
	var r FirehoseRecord
	if len(payload) < firehoseHeaderSize {
		return r, fmt.Errorf("unifiedlog: firehose chunk needs %d bytes, have %d", firehoseHeaderSize, len(payload))
	}
	rem, activity, err := nomkit.Unsigned4(payload, nomkit.LittleEndian)
	if err != nil {
		return r, err
	}
	rem, ref, err := nomkit.Unsigned4(rem, nomkit.LittleEndian)
	if err != nil {
		return r, err
	}
	r.ActivityType = activity
	r.OversizeRef = ref
	r.Message = rem
	return r, nil
}
