package enc

import (
	"strings"
	"testing"
)

func TestFallbackStringSmall(t *testing.T) {
	s := FallbackString("utf16", []byte{0xff, 0xfe})
	if !strings.HasPrefix(s, "Failed to get utf16: ") {
		t.Fatalf("unexpected fallback string: %q", s)
	}
}

func TestFallbackStringLargeUsesSizeIndicator(t *testing.T) {
	raw := make([]byte, sizeIndicatorThreshold)
	s := FallbackString("utf8", raw)
	if strings.Contains(s, "=") || len(s) > 200 {
		t.Fatalf("expected a short size indicator, got %q", s)
	}
}

func TestGUIDFromLE(t *testing.T) {
	// {03000000-0200-0100-0506-0708090a0b0c} style little-endian encoding.
	b := [16]byte{0x00, 0x00, 0x00, 0x03, 0x00, 0x02, 0x00, 0x01, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c}
	got := GUIDFromLE(b)
	want := "03000000-0200-0100-0506-0708090a0b0c"
	if got != want {
		t.Fatalf("GUIDFromLE() = %q, want %q", got, want)
	}
}
