package strdecode

import "testing"

func utf16LEBytes(s string) []byte {
	out := make([]byte, 0, len(s)*2+2)
	for _, r := range s {
		out = append(out, byte(r), byte(r>>8))
	}
	out = append(out, 0, 0)
	return out
}

func TestExtractUTF16StopsAtNul(t *testing.T) {
	b := utf16LEBytes("HKLM")
	if got := ExtractUTF16(b); got != "HKLM" {
		t.Fatalf("ExtractUTF16() = %q, want %q", got, "HKLM")
	}
}

func TestExtractUTF8StopsAtNul(t *testing.T) {
	b := append([]byte("CFBundleName"), 0, 'x', 'y')
	if got := ExtractUTF8(b); got != "CFBundleName" {
		t.Fatalf("ExtractUTF8() = %q, want %q", got, "CFBundleName")
	}
}

func TestExtractASCIIOrUTF16PicksASCII(t *testing.T) {
	b := append([]byte("folder.txt"), 0)
	if got := ExtractASCIIOrUTF16(b); got != "folder.txt" {
		t.Fatalf("ExtractASCIIOrUTF16() = %q, want %q", got, "folder.txt")
	}
}

func TestExtractASCIIOrUTF16PicksUTF16(t *testing.T) {
	b := utf16LEBytes("éè")
	if got := ExtractASCIIOrUTF16(b); got == "" {
		t.Fatalf("ExtractASCIIOrUTF16() returned empty for non-ASCII input")
	}
}

func TestExtractMultilineUTF16JoinsWithNewline(t *testing.T) {
	var b []byte
	b = append(b, utf16LEBytes("one")...)
	b = append(b, utf16LEBytes("two")...)
	got := ExtractMultilineUTF16(b)
	want := "one\ntwo"
	if got != want {
		t.Fatalf("ExtractMultilineUTF16() = %q, want %q", got, want)
	}
}

func TestExtractUTF16NeverPanicsOnOddLength(t *testing.T) {
	b := []byte{0x41}
	_ = ExtractUTF16(b)
}
