package windows

import (
	"strings"

	"github.com/hostforensics/triage/containers/registry"
	"github.com/hostforensics/triage/internal/enc"
	"github.com/hostforensics/triage/internal/logging"
	"github.com/hostforensics/triage/internal/nomkit"
	"github.com/hostforensics/triage/internal/timeconv"
)

// UserAssistEntry is one decoded UserAssist program-execution record.
type UserAssistEntry struct {
	Path     string
	RunCount uint32
	LastRun  string
}

// userAssistEntrySize is the Win7+ UserAssist value's binary payload size:
// unknown(4) run-count(4) unknown(52) last-execution FILETIME(8), with 4
// trailing bytes left unread, per original_source's userassist/assist.rs.
const userAssistEntrySize = 72

// userAssistRoot is the NTUSER.DAT subtree holding one GUID-named subkey
// per shell folder tracked by UserAssist, each with a "Count" child whose
// value names are the ROT13-obfuscated executable paths.
const userAssistRoot = `Software\Microsoft\Windows\CurrentVersion\Explorer\UserAssist`

// userAssistCountPattern matches the literal "Count" key name wherever it
// appears in the UserAssist subtree; GetRegistryKeys recurses through every
// GUID subkey regardless, so the GUID itself never needs to appear in the
// pattern.
const userAssistCountPattern = `^Count$`

// ParseUserAssist walks the UserAssist Count subkeys of an NTUSER.DAT hive
// and decodes each value name (rot13'd path) plus its binary payload.
func ParseUserAssist(h *registry.Hive) ([]UserAssistEntry, error) {
	keys, err := registry.GetRegistryKeys(h, userAssistCountPattern, userAssistRoot)
	if err != nil {
		return nil, err
	}

	var entries []UserAssistEntry
	for _, key := range keys {
		for _, v := range key.Values {
			if v.Name == "" {
				continue
			}
			entry := UserAssistEntry{Path: rot13(v.Name)}
			if v.Type == registry.RegBinary {
				if raw, err := enc.Base64DecodeStd(v.String); err != nil {
					logging.Warn("userassist: could not base64 decode value", "name", v.Name, "err", err)
				} else {
					entry.RunCount, entry.LastRun = decodeUserAssistPayload(raw)
				}
			}
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// decodeUserAssistPayload reads the run count and last-execution FILETIME
// out of a UserAssist value's binary payload. A payload whose length isn't
// exactly userAssistEntrySize is left undecoded (zero count, empty
// last-run) rather than guessed at — UEME_CTLSESSION and other
// non-execution markers carry no such payload at all.
func decodeUserAssistPayload(raw []byte) (runCount uint32, lastRun string) {
	if len(raw) != userAssistEntrySize {
		return 0, ""
	}
	rest, _, err := nomkit.Unsigned4(raw, nomkit.LittleEndian)
	if err != nil {
		return 0, ""
	}
	rest, count, err := nomkit.Unsigned4(rest, nomkit.LittleEndian)
	if err != nil {
		return 0, ""
	}
	const unknownSize = 52
	rest, _, err = nomkit.Take(rest, unknownSize)
	if err != nil {
		return 0, ""
	}
	_, lastExecution, err := nomkit.Unsigned8(rest, nomkit.LittleEndian)
	if err != nil {
		return 0, ""
	}
	return count, timeconv.ToISO8601Milli(timeconv.FromFiletime(lastExecution))
}

// rot13 applies the Caesar cipher UserAssist uses to obfuscate executable
// paths stored as registry value names, per the GLOSSARY's ROT13 entry.
func rot13(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune('a' + (r-'a'+13)%26)
		case r >= 'A' && r <= 'Z':
			b.WriteRune('A' + (r-'A'+13)%26)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
