package registry

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/hostforensics/triage/containers/registry/bigdata"
	"github.com/hostforensics/triage/containers/registry/walker"
	"github.com/hostforensics/triage/internal/enc"
	"github.com/hostforensics/triage/internal/strdecode"
)

// REG_* value types (winnt.h), decoded per spec §4.6.
const (
	RegNone      = 0
	RegSZ        = 1
	RegExpandSZ  = 2
	RegBinary    = 3
	RegDWORD     = 4
	RegDWORDBE   = 5
	RegLink      = 6
	RegMultiSZ   = 7
	RegQWORD     = 11
)

// RegistryValue is one decoded NK value, ready for emission.
type RegistryValue struct {
	Name string
	Type uint32
	// String holds the decoded string for REG_SZ/REG_EXPAND_SZ/REG_MULTI_SZ,
	// the decimal string for REG_DWORD/REG_QWORD, or the base64 encoding for
	// REG_BINARY/unrecognized types.
	String string
}

// RegistryKey is one decoded NK, found by GetRegistryKeys.
type RegistryKey struct {
	Path          string
	Name          string
	LastWritten   string // ISO-8601 milli, via internal/timeconv at the caller
	SecurityOff   uint32
	Values        []RegistryValue
}

// decodeName decodes an NK/VK name per its IsCompressedName/NameCompressed
// flag: ASCII (1 byte/char) when compressed, UTF-16LE otherwise.
func decodeName(raw []byte, compressed bool) string {
	if compressed {
		return string(raw)
	}
	return strdecode.ExtractUTF16(raw)
}

// decodeValue renders a VK's raw data per its REG_* type, per spec §4.6.
func decodeValue(typ uint32, raw []byte) string {
	switch typ {
	case RegSZ, RegExpandSZ:
		return strdecode.ExtractUTF16(raw)
	case RegMultiSZ:
		return strdecode.ExtractMultilineUTF16(raw)
	case RegDWORD:
		if len(raw) < 4 {
			return enc.FallbackString("dword", raw)
		}
		v := uint32(raw[0]) | uint32(raw[1])<<8 | uint32(raw[2])<<16 | uint32(raw[3])<<24
		return fmt.Sprintf("%d", v)
	case RegDWORDBE:
		if len(raw) < 4 {
			return enc.FallbackString("dword_be", raw)
		}
		v := uint32(raw[3]) | uint32(raw[2])<<8 | uint32(raw[1])<<16 | uint32(raw[0])<<24
		return fmt.Sprintf("%d", v)
	case RegQWORD:
		if len(raw) < 8 {
			return enc.FallbackString("qword", raw)
		}
		var v uint64
		for i := 7; i >= 0; i-- {
			v = v<<8 | uint64(raw[i])
		}
		return fmt.Sprintf("%d", v)
	case RegBinary:
		return enc.Base64Std(raw)
	default:
		return enc.Base64Std(raw)
	}
}

// resolveVKData reads a VK's value bytes, following the big-data ("db")
// chain when the value spans more than one cell (REG_BINARY values over
// bigdata.MaxBlockSize bytes, per spec's bigdata invariant).
func resolveVKData(h *Hive, vk VK) ([]byte, error) {
	if vk.IsSmallData() || vk.DataLen() <= bigdata.MaxBlockSize {
		return vk.Data(h.Bytes())
	}

	rel := vk.DataOffsetRel()
	payload, err := resolveRelCellPayload(h.Bytes(), rel)
	if err != nil {
		return nil, err
	}
	if len(payload) < 2 || payload[0] != 'd' || payload[1] != 'b' {
		// Not actually a big-data cell; fall back to the plain reader.
		return vk.Data(h.Bytes())
	}

	hdr, err := bigdata.ReadDBHeader(payload)
	if err != nil {
		return nil, fmt.Errorf("query: bigdata header: %w", err)
	}
	blocklistPayload, err := resolveRelCellPayload(h.Bytes(), hdr.Blocklist)
	if err != nil {
		return nil, fmt.Errorf("query: bigdata blocklist: %w", err)
	}
	blockRefs, err := bigdata.ReadBlocklist(blocklistPayload, hdr.Count)
	if err != nil {
		return nil, fmt.Errorf("query: bigdata blocklist entries: %w", err)
	}

	want := vk.DataLen()
	out := make([]byte, 0, want)
	for _, ref := range blockRefs {
		block, err := resolveRelCellPayload(h.Bytes(), ref)
		if err != nil {
			return nil, fmt.Errorf("query: bigdata block: %w", err)
		}
		n := bigdata.MaxBlockSize
		if remaining := want - len(out); remaining < n {
			n = remaining
		}
		if n > len(block) {
			n = len(block)
		}
		out = append(out, block[:n]...)
		if len(out) >= want {
			break
		}
	}
	return out, nil
}

// loadValues resolves every VK attached to nkOffset into decoded
// RegistryValue records.
func loadValues(h *Hive, nkOffset uint32) ([]RegistryValue, error) {
	var values []RegistryValue
	err := walker.WalkValues(h, nkOffset, func(vk VK, ref uint32) error {
		name := decodeName(vk.Name(), vk.NameCompressed())
		if name == "" {
			name = "(Default)"
		}
		raw, err := resolveVKData(h, vk)
		if err != nil {
			values = append(values, RegistryValue{Name: name, Type: vk.Type(), String: enc.FallbackString("value", nil)})
			return nil
		}
		values = append(values, RegistryValue{Name: name, Type: vk.Type(), String: decodeValue(vk.Type(), raw)})
		return nil
	})
	return values, err
}

// GetRegistryKeys walks the subtree rooted at startPath (backslash-separated,
// root-relative; "" means the hive root) and returns every key whose name
// matches pattern, a Go regexp compiled case-insensitively to match the
// Windows registry's case-insensitive key-name comparison.
func GetRegistryKeys(h *Hive, pattern string, startPath string) ([]RegistryKey, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("query: bad pattern: %w", err)
	}

	rootOffset, rootPath, err := descend(h, startPath)
	if err != nil {
		return nil, err
	}

	var out []RegistryKey
	visited := walker.NewBitmap(uint32(h.Size()))
	var walk func(offset uint32, keyPath string) error
	walk = func(offset uint32, keyPath string) error {
		if visited.IsSet(offset) {
			// A subkey list pointing back at an already-visited NK indicates
			// a cyclic (corrupt or adversarially crafted) hive; skip rather
			// than recurse forever.
			return nil
		}
		visited.Set(offset)

		payload, err := h.ResolveCellPayload(offset)
		if err != nil {
			return err
		}
		nk, err := ParseNK(payload)
		if err != nil {
			return err
		}
		name := decodeName(nk.Name(), nk.IsCompressedName())

		if re.MatchString(name) {
			values, verr := loadValues(h, offset)
			if verr != nil {
				values = nil
			}
			out = append(out, RegistryKey{
				Path:        keyPath,
				Name:        name,
				SecurityOff: nk.SecurityOffsetRel(),
				Values:      values,
			})
		}

		if nk.SubkeyCount() == 0 {
			return nil
		}
		return walker.WalkSubkeys(h, offset, func(child NK, childRef uint32) error {
			childName := decodeName(child.Name(), child.IsCompressedName())
			return walk(childRef, path.Join(keyPath, childName))
		})
	}

	if err := walk(rootOffset, rootPath); err != nil {
		return nil, err
	}
	return out, nil
}

// descend resolves a backslash-separated path from the hive root to the
// NK offset it names, returning that offset and the root-relative path
// string normalized with forward slashes (path.Join's convention, used
// purely as an internal join separator here).
func descend(h *Hive, p string) (uint32, string, error) {
	offset := h.RootCellOffset()
	if p == "" {
		return offset, "", nil
	}
	segments := strings.Split(strings.Trim(p, `\/`), `\`)
	cur := offset
	for _, seg := range segments {
		payload, perr := h.ResolveCellPayload(cur)
		if perr != nil {
			return 0, "", perr
		}
		parentNK, perr := ParseNK(payload)
		if perr != nil {
			return 0, "", perr
		}
		if parentNK.SubkeyCount() == 0 {
			return 0, "", fmt.Errorf("query: path segment %q not found", seg)
		}

		found := false
		err := walker.WalkSubkeys(h, cur, func(child NK, ref uint32) error {
			if found {
				return walker.ErrStopWalk
			}
			name := decodeName(child.Name(), child.IsCompressedName())
			if strings.EqualFold(name, seg) {
				cur = ref
				found = true
				return walker.ErrStopWalk
			}
			return nil
		})
		if err != nil {
			return 0, "", err
		}
		if !found {
			return 0, "", fmt.Errorf("query: path segment %q not found", seg)
		}
	}
	return cur, strings.Join(segments, "/"), nil
}

// LookupSecurityInfo resolves the SK (security descriptor) cell at the
// given relative offset, wrapping the teacher's SK cell reader.
func LookupSecurityInfo(h *Hive, offset uint32) (SK, error) {
	payload, err := h.ResolveCellPayload(offset)
	if err != nil {
		return SK{}, fmt.Errorf("query: security cell: %w", err)
	}
	return ParseSK(payload)
}
