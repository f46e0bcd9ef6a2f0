// Package enc provides the base64 and GUID encoding helpers shared by every
// container and artifact parser: base64 is the universal fallback for
// undecodable string/byte fields (spec §3), and GUID formatting appears in
// ShellItems, Jumplist DestList entries, and OLE class identifiers.
package enc

import (
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
)

// Base64Std encodes b using standard base64 (RFC 4648 §4).
func Base64Std(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// Base64URL encodes b using URL-safe base64 (RFC 4648 §5).
func Base64URL(b []byte) string {
	return base64.URLEncoding.EncodeToString(b)
}

// Base64DecodeStd reverses Base64Std, for callers that re-derive raw bytes
// from a REG_BINARY value already rendered as a base64 string (e.g.
// UserAssist's execution-count payload).
func Base64DecodeStd(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}

// sizeIndicatorThreshold is the payload size above which a string field is
// never base64-expanded (spec §3): a size indicator is substituted instead.
const sizeIndicatorThreshold = 2 * 1024 * 1024 // 2 MiB

// FallbackString implements spec §3's lossy-substitution rule for a field
// that failed to decode as enc: payloads under the 2 MiB threshold are
// base64-expanded inline; larger payloads get a size indicator instead so a
// single oversized blob cannot blow up the emitted record.
func FallbackString(enc string, raw []byte) string {
	if len(raw) >= sizeIndicatorThreshold {
		return fmt.Sprintf("Failed to get %s: <%d bytes, too large to encode>", enc, len(raw))
	}
	return fmt.Sprintf("Failed to get %s: %s", enc, Base64Std(raw))
}

// GUIDFromLE formats 16 little-endian bytes (the on-disk Windows GUID byte
// order: Data1/Data2/Data3 little-endian, Data4 big-endian) as the canonical
// "XXXXXXXX-XXXX-XXXX-XXXX-XXXXXXXXXXXX" string.
func GUIDFromLE(b [16]byte) string {
	var u uuid.UUID
	// Windows GUIDs store Data1, Data2, Data3 little-endian; Data4 (the last
	// 8 bytes) is already big-endian/opaque, matching RFC 4122 layout.
	u[0], u[1], u[2], u[3] = b[3], b[2], b[1], b[0]
	u[4], u[5] = b[5], b[4]
	u[6], u[7] = b[7], b[6]
	copy(u[8:], b[8:16])
	return u.String()
}

// GUIDFromBE formats 16 bytes already in RFC 4122 big-endian field order.
func GUIDFromBE(b [16]byte) string {
	var u uuid.UUID
	copy(u[:], b[:])
	return u.String()
}
