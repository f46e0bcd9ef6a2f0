// Package formatters renders an artifact's captured records into the two
// wire formats spec §3/§6 name: a JSON document with a metadata envelope,
// or JSONL with one metadata line followed by one record per line.
package formatters

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"

	"github.com/hostforensics/triage/output"
)

// JSON renders records as `{ "metadata": {...}, "data": [...] }`.
func JSON(meta output.Metadata, records []any) ([]byte, error) {
	doc := struct {
		Metadata output.Metadata `json:"metadata"`
		Data     []any           `json:"data"`
	}{Metadata: meta, Data: records}
	buf, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("formatters: marshal json: %w", err)
	}
	return buf, nil
}

// JSONL renders one metadata line followed by one JSON-encoded record per
// line, per spec §6's streaming/append-friendly format.
func JSONL(meta output.Metadata, records []any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if err := enc.Encode(meta); err != nil {
		return nil, fmt.Errorf("formatters: encode metadata: %w", err)
	}
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return nil, fmt.Errorf("formatters: encode record: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// Render dispatches to JSON or JSONL by format, per the Descriptor's Format
// field (spec §3), then gzips the result when compress is requested.
func Render(format output.Format, compress bool, meta output.Metadata, records []any) ([]byte, error) {
	var (
		body []byte
		err  error
	)
	switch format {
	case output.FormatJSON:
		body, err = JSON(meta, records)
	case output.FormatJSONL:
		body, err = JSONL(meta, records)
	default:
		return nil, fmt.Errorf("formatters: unknown format %q", format)
	}
	if err != nil {
		return nil, err
	}
	if !compress {
		return body, nil
	}
	return gzipBytes(body)
}

func gzipBytes(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(body); err != nil {
		return nil, fmt.Errorf("formatters: gzip write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("formatters: gzip close: %w", err)
	}
	return buf.Bytes(), nil
}

// Extension returns the on-disk suffix for a format/compress combination,
// per spec §4.13's local sink path rule `{directory}/{name}/{artifact}.{format}[.gz]`.
func Extension(format output.Format, compress bool) string {
	ext := string(format)
	if compress {
		ext += ".gz"
	}
	return ext
}
