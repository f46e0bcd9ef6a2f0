package windows

import (
	"bytes"
	"debug/pe"
	"fmt"

	"github.com/hostforensics/triage/internal/strdecode"
)

// PEResourceInfo is the subset of a VERSIONINFO resource useful for triage:
// who published the binary and under what name.
type PEResourceInfo struct {
	CompanyName      string
	FileDescription  string
	ProductName      string
	OriginalFilename string
	FileVersion      string
	ProductVersion   string
}

// versionInfoKeys are the fixed VERSIONINFO string-table keys Windows
// binaries carry in their .rsrc RT_VERSION resource, stored as
// null-terminated UTF-16LE "key\x00value\x00" pairs.
var versionInfoKeys = []string{
	"CompanyName", "FileDescription", "ProductName",
	"OriginalFilename", "FileVersion", "ProductVersion",
}

// ParsePEResources opens a PE image and scans its .rsrc section for
// VERSIONINFO string pairs. Parsing the full resource directory tree is
// unnecessary for triage purposes: the string-table entries appear as
// UTF-16LE "key\x00value\x00" runs regardless of their position in the
// directory, so a direct scan of the section bytes is sufficient and far
// simpler than walking resource directory/name/data entries.
func ParsePEResources(raw []byte) (PEResourceInfo, error) {
	f, err := pe.NewFile(bytes.NewReader(raw))
	if err != nil {
		return PEResourceInfo{}, fmt.Errorf("peresources: %w", err)
	}
	defer f.Close()

	rsrc := f.Section(".rsrc")
	if rsrc == nil {
		return PEResourceInfo{}, fmt.Errorf("peresources: no .rsrc section")
	}
	data, err := rsrc.Data()
	if err != nil {
		return PEResourceInfo{}, fmt.Errorf("peresources: %w", err)
	}

	info := PEResourceInfo{}
	for _, key := range versionInfoKeys {
		val := scanVersionString(data, key)
		switch key {
		case "CompanyName":
			info.CompanyName = val
		case "FileDescription":
			info.FileDescription = val
		case "ProductName":
			info.ProductName = val
		case "OriginalFilename":
			info.OriginalFilename = val
		case "FileVersion":
			info.FileVersion = val
		case "ProductVersion":
			info.ProductVersion = val
		}
	}
	return info, nil
}

// scanVersionString finds a UTF-16LE "key\x00value\x00" pair in a resource
// section and returns the decoded value, or "" if the key is absent.
func scanVersionString(data []byte, key string) string {
	needle := toUTF16LE(key)
	idx := bytes.Index(data, needle)
	if idx < 0 {
		return ""
	}
	start := idx + len(needle)
	// VERSIONINFO padding aligns each string to a 4-byte boundary; skip
	// any alignment/null filler before the value begins.
	for start+1 < len(data) && data[start] == 0 && data[start+1] == 0 {
		start += 2
	}
	end := start
	for end+1 < len(data) && !(data[end] == 0 && data[end+1] == 0) {
		end += 2
	}
	if end <= start {
		return ""
	}
	return strdecode.ExtractUTF16(data[start:end])
}

func toUTF16LE(s string) []byte {
	out := make([]byte, 0, len(s)*2)
	for _, r := range s {
		out = append(out, byte(r), 0)
	}
	return out
}
