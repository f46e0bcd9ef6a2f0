// Package compressor decompresses the handful of codecs host artifacts
// embed inline: gzip/zlib pages in ESE/SRUM, lz4-framed systemd Journal
// entries, xz-compressed Journal entries, and zstd blocks used by newer
// Journal files and some Unified Log chunks. One function per codec keeps
// each decoder's error handling and size hinting independent, matching the
// teacher's one-struct-per-cell-kind style of small dedicated readers.
package compressor

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v3"
	"github.com/ulikunitz/xz"
)

// Hints carries optional size/window information a caller may already know
// from the container format's own header, letting a decoder preallocate or
// bound its output instead of growing a buffer blindly.
type Hints struct {
	// ExpectedSize is the decompressed size if known from the container
	// header, or 0 if unknown.
	ExpectedSize int
	// WindowBits is the codec-specific window size hint (used by zlib/xz
	// callers that already parsed it out of the container header), or 0
	// to let the codec default.
	WindowBits int
}

func prealloc(h Hints) []byte {
	if h.ExpectedSize > 0 {
		return make([]byte, 0, h.ExpectedSize)
	}
	return nil
}

// Gzip decompresses a gzip member (RFC 1952).
func Gzip(raw []byte, h Hints) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("compressor: gzip: %w", err)
	}
	defer r.Close()
	buf := bytes.NewBuffer(prealloc(h))
	if _, err := io.Copy(buf, r); err != nil {
		return nil, fmt.Errorf("compressor: gzip: %w", err)
	}
	return buf.Bytes(), nil
}

// Zlib decompresses a zlib stream (RFC 1950), as used for ESE/SRUM page
// compression.
func Zlib(raw []byte, h Hints) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("compressor: zlib: %w", err)
	}
	defer r.Close()
	buf := bytes.NewBuffer(prealloc(h))
	if _, err := io.Copy(buf, r); err != nil {
		return nil, fmt.Errorf("compressor: zlib: %w", err)
	}
	return buf.Bytes(), nil
}

// LZ4 decompresses a framed LZ4 stream, as used for systemd Journal object
// compression (XZ_FLAG-style per-entry compression).
func LZ4(raw []byte, h Hints) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(raw))
	buf := bytes.NewBuffer(prealloc(h))
	if _, err := io.Copy(buf, r); err != nil {
		return nil, fmt.Errorf("compressor: lz4: %w", err)
	}
	return buf.Bytes(), nil
}

// LZ4Block decompresses a single unframed LZ4 block of known decompressed
// size, as used for per-entry-object Journal compression where the frame
// header is omitted and the original size is carried in the object header.
func LZ4Block(raw []byte, decompressedSize int) ([]byte, error) {
	if decompressedSize <= 0 {
		return nil, fmt.Errorf("compressor: lz4 block: decompressed size must be known")
	}
	dst := make([]byte, decompressedSize)
	n, err := lz4.UncompressBlock(raw, dst)
	if err != nil {
		return nil, fmt.Errorf("compressor: lz4 block: %w", err)
	}
	return dst[:n], nil
}

// XZ decompresses an XZ stream, used by systemd Journal's XZ-compressed
// objects.
func XZ(raw []byte, h Hints) ([]byte, error) {
	r, err := xz.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("compressor: xz: %w", err)
	}
	buf := bytes.NewBuffer(prealloc(h))
	if _, err := io.Copy(buf, r); err != nil {
		return nil, fmt.Errorf("compressor: xz: %w", err)
	}
	return buf.Bytes(), nil
}

// Zstd decompresses a zstd frame, used by newer systemd Journal files and
// some Unified Log oversize-string chunks.
func Zstd(raw []byte, h Hints) ([]byte, error) {
	opts := []zstd.DOption{}
	dec, err := zstd.NewReader(bytes.NewReader(raw), opts...)
	if err != nil {
		return nil, fmt.Errorf("compressor: zstd: %w", err)
	}
	defer dec.Close()
	buf := bytes.NewBuffer(prealloc(h))
	if _, err := io.Copy(buf, dec); err != nil {
		return nil, fmt.Errorf("compressor: zstd: %w", err)
	}
	return buf.Bytes(), nil
}
