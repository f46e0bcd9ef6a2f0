// Package plist reads Apple property lists (binary and XML, any top-level
// value shape) and decodes the binary "bookmark" blob format macOS uses for
// Finder aliases, Safari downloads, and LoginItems, per spec §4.15/§6.
//
// Generic plist decoding is grounded on
// original_source/forensics/src/artifacts/os/macos/plist/property_list.rs,
// which wraps the Rust `plist` crate's `from_bytes`/`from_file` and
// `as_dictionary`/`as_string`/`as_array`/... accessors; the Go ecosystem's
// direct analogue, `howett.net/plist`, appears as an indirect dependency in
// several pack manifests (elastic-cloud-on-k8s, rclone) and is used here the
// same way: one call decodes either binary or XML plist transparently into
// a generic `any`, decoded node-by-node by the accessor helpers below.
package plist

import (
	"bytes"
	"fmt"

	"howett.net/plist"
)

// Parse decodes a plist (binary or XML, detected automatically by the
// underlying decoder) into a generic value: map[string]any, []any, string,
// int64, uint64, float64, bool, time.Time, or []byte for <data> nodes.
func Parse(raw []byte) (any, error) {
	var v any
	if _, err := plist.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("plist: %w", err)
	}
	return v, nil
}

// Dictionary asserts a decoded value is a top-level dictionary, the shape
// most plist-backed artifacts (LoginItems, Safari downloads) use.
func Dictionary(v any) (map[string]any, error) {
	d, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("plist: value is not a dictionary")
	}
	return d, nil
}

// String asserts a decoded value is a string.
func String(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("plist: value is not a string")
	}
	return s, nil
}

// Array asserts a decoded value is an array.
func Array(v any) ([]any, error) {
	a, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("plist: value is not an array")
	}
	return a, nil
}

// Bool asserts a decoded value is a boolean.
func Bool(v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("plist: value is not a boolean")
	}
	return b, nil
}

// Data asserts a decoded value is a <data> blob, and returns it without
// copying the decoder's backing array.
func Data(v any) ([]byte, error) {
	switch d := v.(type) {
	case []byte:
		return d, nil
	case plist.UID:
		return nil, fmt.Errorf("plist: value is a UID, not data")
	default:
		return nil, fmt.Errorf("plist: value is not a data blob")
	}
}

// IsBinary reports whether raw begins with the binary plist magic
// ("bplist00..") rather than an XML declaration.
func IsBinary(raw []byte) bool {
	return bytes.HasPrefix(raw, []byte("bplist"))
}
