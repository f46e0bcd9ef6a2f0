// Package strdecode extracts text from the mixed encodings host artifacts
// embed inline (UTF-16LE registry values, UTF-8 plist keys, opportunistic
// either-or ShellItem directory names), falling back to internal/enc's
// lossy base64 substitution whenever a byte slice doesn't actually hold the
// encoding its container claims.
package strdecode

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/hostforensics/triage/internal/enc"
)

// utf16le is a BOM-less little-endian UTF-16 decoder: registry and
// ShellItem strings never carry a byte-order mark, unlike plist/file text.
var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()

// ExtractUTF16 decodes b as UTF-16LE, stopping at the first 0x0000 code
// unit (registry REG_SZ values are not length-prefixed, only NUL-terminated
// in practice). On a malformed sequence it returns the §3 lossy-substitution
// string instead of a mangled decode.
func ExtractUTF16(b []byte) string {
	units := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		u := uint16(b[i]) | uint16(b[i+1])<<8
		if u == 0 {
			break
		}
		units = append(units, u)
	}
	out, _, err := transform.Bytes(utf16le, uint16sToBytes(units))
	if err != nil {
		return enc.FallbackString("utf16", b)
	}
	if !utf8.Valid(out) {
		return enc.FallbackString("utf16", b)
	}
	return string(out)
}

func uint16sToBytes(units []uint16) []byte {
	b := make([]byte, len(units)*2)
	for i, u := range units {
		b[2*i] = byte(u)
		b[2*i+1] = byte(u >> 8)
	}
	return b
}

// ExtractUTF8 decodes b as UTF-8, stopping at the first NUL byte, falling
// back to the lossy-substitution string if the remainder isn't valid UTF-8.
func ExtractUTF8(b []byte) string {
	end := len(b)
	for i, c := range b {
		if c == 0 {
			end = i
			break
		}
	}
	s := b[:end]
	if !utf8.Valid(s) {
		return enc.FallbackString("utf8", b)
	}
	return string(s)
}

// ExtractASCIIOrUTF16 handles fields (ShellItem directory entries) that
// opportunistically store either plain ASCII or UTF-16LE inline with no
// discriminating flag: input that is ASCII-clean with at most one zero byte
// (the terminator) is treated as UTF-8/ASCII, everything else as UTF-16LE.
func ExtractASCIIOrUTF16(b []byte) string {
	zeros := 0
	ascii := true
	for _, c := range b {
		if c == 0 {
			zeros++
			continue
		}
		if c > 0x7f {
			ascii = false
		}
	}
	if ascii && zeros <= 1 {
		return ExtractUTF8(b)
	}
	return ExtractUTF16(b)
}

// ExtractMultilineUTF16 splits b on double-NUL (0x0000 0x0000) UTF-16
// string-array boundaries and joins the decoded segments with "\n", as used
// by REG_MULTI_SZ values and Jumplist DestList multi-string fields.
func ExtractMultilineUTF16(b []byte) string {
	var segments []string
	start := 0
	i := 0
	for i+1 < len(b) {
		if b[i] == 0 && b[i+1] == 0 {
			if i > start {
				segments = append(segments, ExtractUTF16(b[start:i]))
			}
			start = i + 2
			i += 2
			continue
		}
		i += 2
	}
	if start < len(b) {
		if seg := ExtractUTF16(b[start:]); seg != "" {
			segments = append(segments, seg)
		}
	}
	return strings.Join(segments, "\n")
}

// utf16Units is a small helper retained for callers that already have a
// []uint16 (e.g. fixed-size structure fields) and want the same decode path
// ExtractUTF16 uses, without re-scanning for a NUL terminator.
func utf16Units(units []uint16) string {
	return string(utf16.Decode(units))
}
