package registry

import (
	"errors"

	"github.com/hostforensics/triage/containers/registry/regfmt"
)

// --- Small helpers (no allocations) ---

func hasPrefix(b []byte, sig []byte) bool {
	return len(b) >= regfmt.IdxMinHeader &&
		b[regfmt.IdxSignatureOffset] == sig[0] &&
		b[regfmt.IdxSignatureOffset+1] == sig[1]
}

func checkIndexHeader(b []byte) (uint16, error) {
	if len(b) < regfmt.IdxMinHeader {
		return 0, errors.New("subkey index: truncated header")
	}
	return regfmt.ReadU16(b, regfmt.IdxCountOffset), nil
}
