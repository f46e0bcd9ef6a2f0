package compressor

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v3"
)

func TestGzipRoundTrip(t *testing.T) {
	want := []byte("the quick brown fox jumps over the lazy dog")
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	w.Write(want)
	w.Close()

	got, err := Gzip(buf.Bytes(), Hints{ExpectedSize: len(want)})
	if err != nil {
		t.Fatalf("Gzip: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("Gzip() = %q, want %q", got, want)
	}
}

func TestZlibRoundTrip(t *testing.T) {
	want := []byte("ese page payload")
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write(want)
	w.Close()

	got, err := Zlib(buf.Bytes(), Hints{})
	if err != nil {
		t.Fatalf("Zlib: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("Zlib() = %q, want %q", got, want)
	}
}

func TestLZ4FrameRoundTrip(t *testing.T) {
	want := []byte("journal entry payload, repeated repeated repeated")
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	w.Write(want)
	w.Close()

	got, err := LZ4(buf.Bytes(), Hints{})
	if err != nil {
		t.Fatalf("LZ4: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("LZ4() = %q, want %q", got, want)
	}
}

func TestZstdRoundTrip(t *testing.T) {
	want := []byte("zstd-compressed journal or unified log chunk payload")
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("zstd.NewWriter: %v", err)
	}
	compressed := enc.EncodeAll(want, nil)
	enc.Close()

	got, err := Zstd(compressed, Hints{})
	if err != nil {
		t.Fatalf("Zstd: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("Zstd() = %q, want %q", got, want)
	}
}

func TestLZ4BlockRequiresKnownSize(t *testing.T) {
	if _, err := LZ4Block([]byte{0x01}, 0); err == nil {
		t.Fatal("expected error for unknown decompressed size")
	}
}
