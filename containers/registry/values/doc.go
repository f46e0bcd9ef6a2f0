// Package values handles reading of Windows Registry value lists.
//
// # Overview
//
// This package implements parsing of value lists stored in Windows Registry
// hives. Value lists are flat arrays of VK (Value Key) cell references stored
// in NK (Name Key) cells.
//
// Unlike subkey lists (LF/LH/LI/RI), value lists have no special structure:
//   - No hash values
//   - No sorting requirements
//   - Single format (flat uint32 array)
//   - Preserved order from hive
//
// # Key Types
//
// List: Collection of VK cell references
//
//	type List struct {
//	    VKRefs []uint32 // HCELL_INDEX references to VK cells
//	}
//
// Methods:
//   - Len(): Returns number of values
//   - Append(vkRef): Add VK reference to end, returns a new List
//   - Remove(vkRef): Remove first occurrence, returns a new List
//   - Find(vkRef): Search for VK reference
//
// # Reading Value Lists
//
// Read value list from an NK cell:
//
//	nk, err := hive.ParseNK(payload)
//	if err != nil {
//	    return err
//	}
//
//	list, err := values.Read(h, nk)
//	if err != nil {
//	    if errors.Is(err, values.ErrNoValueList) {
//	        // Key has no values
//	        return nil
//	    }
//	    return err
//	}
//
//	// Iterate VK references
//	for _, vkRef := range list.VKRefs {
//	    vk, _ := hive.ParseVK(...)
//	    fmt.Printf("Value: %s\n", vk.Name())
//	}
//
// # Value List Format
//
// On-disk structure:
//
//	[Cell Header: 4 bytes]
//	[VK Ref 1: 4 bytes]
//	[VK Ref 2: 4 bytes]
//	...
//	[VK Ref N: 4 bytes]
//
// Each entry is a uint32 HCELL_INDEX offset to a VK cell.
//
// Example (3 values):
//
//	Offset  Value       Meaning
//	------  ----------  -------
//	0x0000  0xFFFFFFF0  Cell size (-16 bytes allocated)
//	0x0004  0x00001000  VK ref 1 (offset 0x1000)
//	0x0008  0x00002000  VK ref 2 (offset 0x2000)
//	0x000C  0x00003000  VK ref 3 (offset 0x3000)
//
// Total size: 4 + (4 * count) bytes
//
// # List Manipulation
//
// Append/Remove/Find operate on an in-memory List; they do not touch the
// hive bytes (this package never writes a hive back to disk):
//
//	newList := list.Append(0x4000)
//	// newList.VKRefs = [0x1000, 0x2000, 0x3000, 0x4000]
//
//	trimmed := list.Remove(0x2000)
//	// trimmed.VKRefs = [0x1000, 0x3000]
//
//	index := list.Find(0x2000)
//	if index != -1 {
//	    fmt.Printf("Found at index %d\n", index)
//	}
//
// Append and Remove return new List instances (immutable pattern); the
// original list is left unchanged.
//
// # Empty Value Lists
//
// Keys with no values:
//
//	// NK cell has ValueCount = 0, ValueListOffset = InvalidOffset (0xFFFFFFFF)
//	list, err := values.Read(h, nk)
//	if errors.Is(err, values.ErrNoValueList) {
//	    // Key has no values - this is valid
//	}
//
// # Value Ordering
//
// Value lists preserve insertion order (no sorting, unlike subkey lists);
// Windows Registry itself preserves the order values were created in.
//
// # Error Handling
//
// Read returns errors for:
//   - No value list (count = 0 or offset = InvalidOffset) -> ErrNoValueList
//   - Truncated cells (insufficient data) -> ErrTruncated
//   - Cell reference out of bounds
//   - Free cells (positive size)
//
// # Integration with VK Cells
//
// Value lists reference VK cells, which contain the actual value data:
//
//	list, _ := values.Read(h, nk)
//	for _, vkRef := range list.VKRefs {
//	    vkPayload, _ := resolveCell(h, vkRef)
//	    vk, _ := hive.ParseVK(vkPayload)
//	    fmt.Printf("%s = %v\n", vk.Name(), vk.Type())
//	}
//
// # Comparison with Subkey Lists
//
//	Feature           | Value Lists    | Subkey Lists
//	------------------|----------------|------------------
//	Format            | Flat array     | LF/LH/LI/RI
//	Hash values       | No             | Yes (LF/LH)
//	Sorting           | No             | Yes
//	Indirection       | No             | Yes (RI)
//	Order             | Preserved      | Alphabetical
//	Multiple formats  | No (1)         | Yes (4)
//
// # Thread Safety
//
// Functions in this package are stateless and safe for concurrent reads.
// List.Append/Remove return new instances and never mutate the receiver.
//
// # Related Packages
//
//   - github.com/hostforensics/triage/containers/registry: Core hive parsing (NK, VK cells)
//   - github.com/hostforensics/triage/containers/registry/subkeys: Subkey list decoding (similar structure)
//   - github.com/hostforensics/triage/containers/registry/regfmt: Binary format constants
package values
