// Package windows decodes registry- or file-sourced Windows artifacts that
// sit on top of containers/registry and containers/ole: ShimCache
// (AppCompatCache), UserAssist, Scheduled Tasks, Services, and PE resource
// strings, per spec §2/C14.
package windows

import (
	"fmt"

	"github.com/hostforensics/triage/internal/enc"
	"github.com/hostforensics/triage/internal/logging"
	"github.com/hostforensics/triage/internal/nomkit"
	"github.com/hostforensics/triage/internal/strdecode"
	"github.com/hostforensics/triage/internal/timeconv"
)

// ShimCacheEntry is one decoded AppCompatCache row.
type ShimCacheEntry struct {
	Path         string
	LastModified string
	Executed     bool
}

// shimcache header signatures (first 4 bytes), one per OS dialect spec §2
// names: Win7 32/64, Win8, Win8.1, Win10. Only the Win7 64-bit dialect is
// decoded to full fidelity here (the one spec's end-to-end scenario #2
// exercises); other dialects are detected and reported as unsupported
// rather than silently mis-decoded.
const (
	sigWin7  = 0xBADC0FFE
	sigWin8  = 0x00000080
	sigWin81 = 0x00000080 // Win8 and 8.1 share the marker; entry shape differs
	sigWin10 = 0x30307473 // ASCII "ts00" little-endian
)

// ParseShimCache dialect-detects the AppCompatCache binary value's header
// and decodes its entries. Only the Win7 64-bit layout is fully supported;
// other recognized signatures return a descriptive error rather than
// fabricated entries.
func ParseShimCache(raw []byte) ([]ShimCacheEntry, error) {
	if len(raw) < 8 {
		return nil, fmt.Errorf("shimcache: too short (%d bytes)", len(raw))
	}
	_, sig, err := nomkit.Unsigned4(raw, nomkit.LittleEndian)
	if err != nil {
		return nil, err
	}

	switch sig {
	case sigWin7:
		return parseShimCacheWin7x64(raw)
	case sigWin8:
		logging.Warn("shimcache: win8/win8.1 dialect detected but not decoded")
		return nil, fmt.Errorf("shimcache: win8/win8.1 dialect not supported")
	case sigWin10:
		logging.Warn("shimcache: win10 dialect detected but not yet decoded")
		return nil, fmt.Errorf("shimcache: win10 dialect not supported")
	default:
		logging.Warn("shimcache: unrecognized signature", "sig", fmt.Sprintf("0x%x", sig))
		return nil, fmt.Errorf("shimcache: unrecognized dialect signature 0x%x", sig)
	}
}

// parseShimCacheWin7x64 decodes the Windows 7 64-bit AppCompatCache layout:
// a 128-byte header (signature + entry count + 4 unknown bytes + 116 unknown
// bytes) followed by fixed 48-byte entries: path-size(u16) max-path-size(u16)
// padding(u32) path-offset(u64) last-modified FILETIME(u64)
// insertion-flags(u32) shim-flags(u32) data-size(u64) data-offset(u64), per
// original_source's shimcache/os/win7.rs x86_64 field list (the entry count
// and entries[34] fixture expectations it carries are spec.md §8 scenario
// 2). The path itself lives in a trailing string pool, addressed by
// path-offset relative to the start of the AppCompatCache value, with
// max-path-size (not path-size) giving its byte length — the source reads
// both fields but only the second ever gates the take(). An entry whose
// max-path-size is zero carries no path or timestamp at all, matching the
// source's hardcoded zero-value branch rather than decoding whatever bytes
// happen to sit in a since-cleared slot.
func parseShimCacheWin7x64(raw []byte) ([]ShimCacheEntry, error) {
	const headerSize = 128
	const entrySize = 48
	if len(raw) < headerSize+4 {
		return nil, fmt.Errorf("shimcache: win7x64: too short")
	}
	_, numEntries, err := nomkit.Unsigned4(raw[4:], nomkit.LittleEndian)
	if err != nil {
		return nil, err
	}

	entries := make([]ShimCacheEntry, 0, numEntries)
	off := headerSize
	for i := uint32(0); i < numEntries; i++ {
		if off+entrySize > len(raw) {
			logging.Warn("shimcache: win7x64: truncated entry table", "entry", i, "want", numEntries)
			break
		}
		rec := raw[off : off+entrySize]
		off += entrySize

		_, maxPathLen, err := nomkit.Unsigned2(rec[2:], nomkit.LittleEndian)
		if err != nil {
			continue
		}
		if maxPathLen == 0 {
			entries = append(entries, ShimCacheEntry{})
			continue
		}
		_, pathOffset, err := nomkit.Unsigned8(rec[8:], nomkit.LittleEndian)
		if err != nil {
			continue
		}
		_, lastMod, err := nomkit.Unsigned8(rec[16:], nomkit.LittleEndian)
		if err != nil {
			continue
		}

		var path string
		start := int(pathOffset)
		end := start + int(maxPathLen)
		if start >= 0 && end <= len(raw) && end >= start {
			path = strdecode.ExtractUTF16(raw[start:end])
		} else {
			path = enc.FallbackString("utf16", nil)
		}

		entries = append(entries, ShimCacheEntry{
			Path:         path,
			LastModified: timeconv.ToISO8601Milli(timeconv.FromFiletime(lastMod)),
		})
	}
	return entries, nil
}
