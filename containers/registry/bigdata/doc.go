// Package bigdata decodes the DB (big-data) format used for registry values
// longer than one data block (MaxBlockSize, 16,344 bytes).
//
// # Overview
//
// Windows Registry values larger than 16KB cannot fit in a single cell and
// are instead split across a DB header cell plus an array of data block
// cells. This package provides the low-level codec for that header and
// blocklist; callers resolve the actual block cells through the hive and
// concatenate their bytes to reconstruct the value.
//
// # DB Format Structure
//
//	[DB Header Cell] -> [Blocklist Cell: N x HCELL_INDEX] -> [Block 0] [Block 1] ... [Block N-1]
//
// The DB header (12 bytes, little-endian) contains:
//
//	Offset  Size  Field
//	------  ----  -----
//	0x00    2     Signature ("db" = 0x6462)
//	0x02    2     Count of data blocks (n)
//	0x04    4     HCELL_INDEX of the blocklist cell
//	0x08    4     Reserved (always zero)
//
// The blocklist cell referenced by the header holds n consecutive uint32
// HCELL_INDEX entries, one per data block.
//
// # Usage
//
// Decoding a DB header and its blocklist:
//
//	hdr, err := bigdata.ReadDBHeader(headerCellPayload)
//	if err != nil {
//	    return err
//	}
//	blockRefs, err := bigdata.ReadBlocklist(blocklistCellPayload, hdr.Count)
//	if err != nil {
//	    return err
//	}
//	// blockRefs holds one HCELL_INDEX per chunk; resolve each cell and
//	// concatenate its payload (trimmed to MaxBlockSize per chunk except
//	// possibly the last) to reassemble the full value.
//
// WriteDBHeader/WriteBlocklist encode the mirror-image on-disk layout and
// exist so the codec round-trips in tests; this package never writes a hive
// back to disk.
//
// # Chunking Strategy
//
// Block size is capped at MaxBlockSize (16344 bytes, the hivex convention)
// per chunk; the final chunk may be smaller.
//
// # Limitations
//
//   - Maximum number of chunks: 65535 (uint16 limit), further bounded by
//     regfmt.DBMaxBlockCount as a sanity check against corrupt headers
//   - Maximum total value size: ~4GB (limited by uint32 chunk size accounting)
//
// # Related Packages
//
//   - github.com/hostforensics/triage/containers/registry: Resolves the DB
//     header/blocklist/data cells referenced here
//   - github.com/hostforensics/triage/containers/registry/regfmt: Bounds-checked
//     primitive reads and format sanity limits
package bigdata
