package unifiedlog

import (
	"encoding/binary"
	"testing"
)

// buildChunk constructs one tracev3 chunk: a 16-byte preamble plus a
// payload padded to an 8-byte boundary.
func buildChunk(tag ChunkTag, subtag uint32, payload []byte) []byte {
	out := make([]byte, 16+len(payload))
	binary.LittleEndian.PutUint32(out[0:4], uint32(tag))
	binary.LittleEndian.PutUint32(out[4:8], subtag)
	binary.LittleEndian.PutUint64(out[8:16], uint64(len(payload)))
	copy(out[16:], payload)
	if pad := len(out) % chunkAlignment; pad != 0 {
		out = append(out, make([]byte, chunkAlignment-pad)...)
	}
	return out
}

func buildOversizePayload(firstProc, secondProc uint64, ref uint32, data []byte) []byte {
	out := make([]byte, oversizeHeaderSize+len(data))
	binary.LittleEndian.PutUint64(out[0:8], firstProc)
	binary.LittleEndian.PutUint64(out[8:16], secondProc)
	binary.LittleEndian.PutUint32(out[16:20], ref)
	copy(out[oversizeHeaderSize:], data)
	return out
}

func buildFirehosePayload(activity, ref uint32, message []byte) []byte {
	out := make([]byte, firehoseHeaderSize+len(message))
	binary.LittleEndian.PutUint32(out[0:4], activity)
	binary.LittleEndian.PutUint32(out[4:8], ref)
	copy(out[firehoseHeaderSize:], message)
	return out
}

func TestChunksIteratesSequentially(t *testing.T) {
	var data []byte
	data = append(data, buildChunk(ChunkHeader, 1, []byte{0xAA, 0xBB})...)
	data = append(data, buildChunk(ChunkCatalog, 2, []byte{0x01, 0x02, 0x03})...)

	chunks, err := Chunks(data)
	if err != nil {
		t.Fatalf("Chunks: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[0].Header.Tag != ChunkHeader || chunks[1].Header.Tag != ChunkCatalog {
		t.Fatalf("unexpected tags: %v, %v", chunks[0].Header.Tag, chunks[1].Header.Tag)
	}
}

func TestChunksStopsOnTruncatedFinalChunk(t *testing.T) {
	full := buildChunk(ChunkOversize, 0, []byte("0123456789"))
	truncated := full[:20] // 16-byte preamble + 4 of the 10 payload bytes

	chunks, err := Chunks(truncated)
	if err != nil {
		t.Fatalf("Chunks: %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("got %d chunks from truncated input, want 0", len(chunks))
	}
}

func TestParseResolvesOversizeSeenBeforeReferencingChunk(t *testing.T) {
	var data []byte
	data = append(data, buildChunk(ChunkOversize, 0, buildOversizePayload(1, 2, 42, []byte("full message body")))...)
	data = append(data, buildChunk(ChunkFirehose, 0, buildFirehosePayload(7, 42, nil))...)

	result, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(result.Entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(result.Entries))
	}
	if !result.Entries[0].Resolved {
		t.Fatal("expected entry to resolve via oversize table")
	}
	if string(result.Entries[0].Message) != "full message body" {
		t.Fatalf("message = %q, want full message body", result.Entries[0].Message)
	}
	if result.Unresolved != 0 {
		t.Fatalf("Unresolved = %d, want 0", result.Unresolved)
	}
}

func TestParseResolvesOversizeSeenAfterReferencingChunk(t *testing.T) {
	// The Firehose chunk references an Oversize entry that only appears
	// later in the file: pass 1 must defer it to pass 2 rather than drop it.
	var data []byte
	data = append(data, buildChunk(ChunkFirehose, 0, buildFirehosePayload(7, 99, nil))...)
	data = append(data, buildChunk(ChunkOversize, 0, buildOversizePayload(1, 2, 99, []byte("late arrival")))...)

	result, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(result.Entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(result.Entries))
	}
	if !result.Entries[0].Resolved {
		t.Fatal("expected entry to resolve in pass 2")
	}
	if string(result.Entries[0].Message) != "late arrival" {
		t.Fatalf("message = %q, want late arrival", result.Entries[0].Message)
	}
}

func TestParseEmitsPlaceholderForTrulyMissingOversize(t *testing.T) {
	data := buildChunk(ChunkFirehose, 0, buildFirehosePayload(7, 7, nil))

	result, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if result.Unresolved != 1 {
		t.Fatalf("Unresolved = %d, want 1", result.Unresolved)
	}
	if result.Entries[0].Resolved {
		t.Fatal("expected entry to remain unresolved")
	}
}

func TestParseHandlesInlineFirehoseMessageWithoutOversizeRef(t *testing.T) {
	data := buildChunk(ChunkFirehose, 0, buildFirehosePayload(3, 0, []byte("inline text")))

	result, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(result.Entries) != 1 || !result.Entries[0].Resolved {
		t.Fatalf("expected one resolved inline entry, got %+v", result.Entries)
	}
	if string(result.Entries[0].Message) != "inline text" {
		t.Fatalf("message = %q, want inline text", result.Entries[0].Message)
	}
}
