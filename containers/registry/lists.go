package registry

import (
	"github.com/hostforensics/triage/containers/registry/regfmt"
)

type SubkeyListKind int

const (
	ListUnknown SubkeyListKind = iota
	ListLI
	ListLF
	ListLH
	ListRI
)

func DetectListKind(payload []byte) SubkeyListKind {
	switch {
	case hasPrefix(payload, regfmt.LISignature):
		return ListLI
	case hasPrefix(payload, regfmt.LFSignature):
		return ListLF
	case hasPrefix(payload, regfmt.LHSignature):
		return ListLH
	case hasPrefix(payload, regfmt.RISignature):
		return ListRI
	default:
		return ListUnknown
	}
}
