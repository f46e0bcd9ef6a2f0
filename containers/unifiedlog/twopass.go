package unifiedlog

// LogEntry is one resolved Firehose record, ready for emission by the
// artifact facade.
type LogEntry struct {
	ActivityType uint32
	Message      []byte
	// Resolved is false only when OversizeRef named an entry that never
	// appeared anywhere in the trace file, even after the second pass.
	Resolved bool
}

const unresolvedPlaceholder = "<unresolved oversize reference>"

// ParseResult is the outcome of a full two-pass parse of one tracev3 file.
type ParseResult struct {
	Entries    []LogEntry
	Unresolved int // entries still placeholder after pass 2
}

// Parse implements spec §4.9/§9's two-pass oversize-string resolution.
//
// The oversize table is a plain local map threaded explicitly through this
// call, never a package global, per spec's concurrency model: concurrent
// Parse calls over different tracev3 files must not share state.
//
// Pass 1 iterates every chunk, accumulating Oversize entries into the
// table and collecting Firehose chunks whose OversizeRef is not yet in the
// table ("missing"). Pass 2 re-resolves the missing chunks against the now
// fully-accumulated table; entries still unresolved are emitted with a
// placeholder rather than dropped, since an oversize string can be written
// to a tracev3 file chunk that sorts after the chunk that references it.
func Parse(data []byte) (ParseResult, error) {
	chunks, err := Chunks(data)
	if err != nil {
		return ParseResult{}, err
	}

	oversizeTable := make(map[uint32]OversizeEntry)
	var entries []LogEntry
	var missing []FirehoseRecord

	for _, c := range chunks {
		switch c.Header.Tag {
		case ChunkOversize:
			entry, err := ParseOversizeChunk(c.Payload)
			if err != nil {
				continue
			}
			oversizeTable[entry.DataRefID] = entry

		case ChunkFirehose:
			rec, err := ParseFirehoseChunk(c.Payload)
			if err != nil {
				continue
			}
			if rec.OversizeRef == 0 {
				entries = append(entries, LogEntry{
					ActivityType: rec.ActivityType,
					Message:      rec.Message,
					Resolved:     true,
				})
				continue
			}
			if ov, ok := oversizeTable[rec.OversizeRef]; ok {
				entries = append(entries, LogEntry{
					ActivityType: rec.ActivityType,
					Message:      ov.Data,
					Resolved:     true,
				})
				continue
			}
			missing = append(missing, rec)
		}
	}

	unresolved := 0
	for _, rec := range missing {
		if ov, ok := oversizeTable[rec.OversizeRef]; ok {
			entries = append(entries, LogEntry{
				ActivityType: rec.ActivityType,
				Message:      ov.Data,
				Resolved:     true,
			})
			continue
		}
		unresolved++
		entries = append(entries, LogEntry{
			ActivityType: rec.ActivityType,
			Message:      []byte(unresolvedPlaceholder),
			Resolved:     false,
		})
	}

	return ParseResult{Entries: entries, Unresolved: unresolved}, nil
}
