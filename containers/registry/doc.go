// Package registry provides low-level read-only access to Windows Registry
// hive files.
//
// # Overview
//
// This package implements zero-copy parsing of Windows Registry
// hive files (REGF format). It provides direct access to the binary structures
// without unnecessary allocations, making it suitable for high-performance
// registry analysis and forensics tools.
//
// # Key Types
//
// The main types provided by this package are:
//
//   - Hive: The root structure representing an opened registry hive file
//   - BaseBlock: The 4KB REGF header containing hive metadata
//   - HBIN: A hive bin (4KB-aligned data block)
//   - NK (Name Key): Registry key structure
//   - VK (Value Key): Registry value structure
//   - SK (Security Key): Security descriptor structure
//   - LF/LH/LI/RI: Index structures for subkey lists
//   - Cell: A generic cell container with size header
//
// # File Structure
//
// A registry hive file consists of:
//
//	[REGF Header - 4KB] [HBIN 0] [HBIN 1] ... [HBIN N]
//
// Each HBIN contains cells that store registry keys, values, and index structures.
// Cells are identified by relative offsets from the HBIN start (0x1000).
//
// # Opening a Hive
//
// The primary way to open a hive is through the Open function:
//
//	h, err := registry.Open("/path/to/SYSTEM")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer h.Close()
//
// On Linux and macOS, the file is memory-mapped for efficient access.
// On other platforms, the entire file is read into memory.
//
// # Accessing Registry Data
//
// The package provides low-level accessors for registry structures:
//
//	// Get root key
//	rootOff := h.RootCellOffset()
//	payload, err := h.ResolveCellPayload(rootOff)
//	nk, err := ParseNK(payload)
//
//	// Get key name
//	name := nk.Name()
//
//	// Iterate over subkeys
//	listOff := nk.SubkeyListOffsetRel()
//	// ... parse list structure ...
//
// For recursive traversal (GetRegistryKeys, CheckKeyPresence), see query.go
// and presence.go; walker provides the underlying visited-set-guarded walk.
//
// # Zero-Copy Design
//
// Most types in this package are zero-copy views over the underlying byte slice.
// This means:
//
//   - No allocation overhead for parsing
//   - Direct access to the hive's memory-mapped data
//   - This package never writes back to a hive: triage only ever reads one
//
// # Thread Safety
//
// Hive instances are not thread-safe for concurrent modifications, but this
// package performs none: multiple goroutines can safely read from the same
// Hive concurrently.
//
// # Related Packages
//
//   - github.com/hostforensics/triage/containers/registry/walker: Recursive tree walking with a visited-set cycle guard
//   - github.com/hostforensics/triage/containers/registry/values: Value list decoding
//   - github.com/hostforensics/triage/containers/registry/subkeys: Subkey list decoding
//   - github.com/hostforensics/triage/containers/registry/bigdata: Big-data (db) value chunk reassembly
//   - github.com/hostforensics/triage/containers/registry/index: In-memory path index over a decoded hive
package registry
