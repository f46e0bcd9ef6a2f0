// Package subkeys handles reading of Windows Registry subkey lists.
//
// # Overview
//
// This package implements parsing of the four subkey list formats used by
// Windows Registry hives:
//   - LI (Indexed): Simple offset list, no hashes
//   - LF (Fast Leaf): Offset + basic hash, for <=12 entries
//   - LH (Hash Leaf): Offset + improved hash, for >12 entries
//   - RI (Indirect): List of list references, for >1024 entries
//
// All lists are stored in sorted order by lowercased key name for efficient
// binary search and Windows Registry-compatible semantics.
//
// # Key Types
//
// Entry: Single subkey entry
//
//	type Entry struct {
//	    NameLower string // Lowercased key name
//	    NKRef     uint32 // NK cell reference
//	    Hash      uint32 // Windows Registry hash of the name
//	    FNV32     uint32 // FNV-1a hash of the name (0 for UTF-16LE names)
//	}
//
// List: Collection of entries in sorted order
//
//	type List struct {
//	    Entries []Entry
//	}
//
// # Reading Subkey Lists
//
// Read automatically handles all four list formats and, for RI (indirect)
// lists, follows the references and flattens all sub-lists into one List:
//
//	list, err := subkeys.Read(h, listRef)
//	if err != nil {
//	    return err
//	}
//	for _, entry := range list.Entries {
//	    fmt.Printf("Key: %s (NK ref: 0x%X)\n", entry.NameLower, entry.NKRef)
//	}
//
// ReadOffsets/ReadOffsetsInto return just the NK cell offsets without
// decoding names, for callers that only need to walk the tree.
//
// MatchNKsFromOffsets resolves a set of candidate offsets and returns only
// the entries whose name is in targetNames, decoding each name at most once.
//
// # List Formats
//
// LI (Indexed List):
//   - Structure: Signature (2) + Count (2) + [Offset (4)] * count
//   - No hash values, just NK cell offsets
//   - Rarely used in modern hives (legacy format)
//
// LF (Fast Leaf) / LH (Hash Leaf):
//   - Structure: Signature (2) + Count (2) + [Offset (4) + Hash (4)] * count
//   - Identical structure, different hash algorithm (LF: basic, LH: improved)
//
// RI (Indirect List):
//   - Structure: Signature (2) + Count (2) + [SubListRef (4)] * count
//   - References other LF/LH lists, used for >1024 entries
//
// # Hash Algorithm
//
// Windows Registry uses a specific hash for LH lists:
//
//	hash = 0
//	for each character:
//	    hash = hash * 37 + toupper(char)
//
// Hash implements this algorithm; names are stored lowercased in Entry, but
// the hash itself is computed over the uppercased characters (Windows
// semantics).
//
// # Encoding and Decoding
//
// Name decoding is handled automatically based on NK.IsCompressedName():
//
// Compressed names (ASCII/Windows-1252):
//   - Fast path for pure ASCII (most common)
//   - Slow path for Windows-1252 extended characters (0x80-0xFF)
//
// UTF-16LE names:
//   - Full Unicode support, including surrogate pairs; unpaired surrogates are errors
//
// Both are lowercased for storage in Entry.NameLower.
//
// # Error Handling
//
// Read returns errors for:
//   - Truncated cells (insufficient data) -> ErrTruncated
//   - Invalid signatures (not lf/lh/li/ri)
//   - Cell reference out of bounds
//   - Free cells (positive size)
//
// These apply to the list cell itself. Entries whose NK cell cannot be
// resolved or whose name cannot be decoded are skipped, as are unreadable
// sub-lists of an RI list.
//
// # Integration with Other Packages
//
// The subkeys package is used by:
//   - containers/registry: GetRegistryKeys / CheckKeyPresence traversal
//   - containers/registry/walker: Tree traversal with a visited-set cycle guard
//   - containers/registry/index: Build indexes by reading all subkey lists
//
// # Thread Safety
//
// Functions in this package are stateless and safe for concurrent reads.
//
// # Related Packages
//
//   - github.com/hostforensics/triage/containers/registry: Core hive parsing (NK cells)
//   - github.com/hostforensics/triage/containers/registry/values: Value list decoding (similar structure)
//   - github.com/hostforensics/triage/containers/registry/regfmt: Binary format constants
package subkeys
