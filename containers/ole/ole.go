// Package ole parses Microsoft's OLE2 structured-storage (compound file)
// container: the format Jumplist automaticDestinations-ms files and legacy
// Office documents embed their streams in. The MSAT/SAT/SSAT chain-walking
// idiom here is grounded on a Go xlrd compound-document reader; the
// directory model is generalized to spec's tagged-kind contract instead of
// that reader's Excel-specific stream lookup.
package ole

import (
	"encoding/binary"
	"fmt"
	"unicode/utf16"
)

// Sentinel sector IDs (spec §4.5).
const (
	endOfChain  = -2
	freeSector  = -1
	satSector   = -3
	msatSector  = -4
	evilSector  = -5
	headerSize  = 512
	dirEntrySz  = 128
	msatInlineN = 109
)

// DirectoryKind tags the EType byte of an OLE directory entry.
type DirectoryKind int

const (
	KindEmpty DirectoryKind = iota
	KindStorage
	KindStream
	KindLockBytes
	KindProperty
	KindRoot
	KindUnknown
)

func directoryKind(etype byte) DirectoryKind {
	switch etype {
	case 0:
		return KindEmpty
	case 1:
		return KindStorage
	case 2:
		return KindStream
	case 3:
		return KindLockBytes
	case 4:
		return KindProperty
	case 5:
		return KindRoot
	default:
		return KindUnknown
	}
}

// OleDirectory is one resolved directory entry: its name, kind, and (for
// Stream entries) fully materialized byte contents.
type OleDirectory struct {
	Name     string
	Kind     DirectoryKind
	Data     []byte
	ClassID  string
	Children []int
	Parent   int

	// rootFirstSID/rootTotSize carry the entry's own FirstSID/TotSize
	// fields through to resolveStream; left/right/child carry the raw
	// red-black tree links used only while building Children/Parent.
	rootFirstSID int
	rootTotSize  int
	left, right, child int32
}

// Document is a parsed OLE compound file: the directory tree plus enough
// allocation-table state to resolve any entry's stream on demand.
type Document struct {
	Directories []OleDirectory

	data         []byte
	sectorSize   int
	shortSecSize int
	sat          []int32
	ssat         []int32
	sscs         []byte
	minStdStream int
}

// Parse decodes an OLE compound file and resolves every directory entry's
// stream eagerly into Directories.
func Parse(data []byte) (*Document, error) {
	if len(data) < 8 || string(data[0:8]) != "\xd0\xcf\x11\xe0\xa1\xb1\x1a\xe1" {
		return nil, fmt.Errorf("ole: not a compound document")
	}
	if len(data) < 76 {
		return nil, fmt.Errorf("ole: header truncated")
	}
	if data[28] != 0xFE || data[29] != 0xFF {
		return nil, fmt.Errorf("ole: expected little-endian byte-order mark")
	}

	ssz := binary.LittleEndian.Uint16(data[30:32])
	sssz := binary.LittleEndian.Uint16(data[32:34])
	if ssz > 20 {
		ssz = 9
	}
	if sssz > ssz {
		sssz = 6
	}

	d := &Document{
		data:         data,
		sectorSize:   1 << ssz,
		shortSecSize: 1 << sssz,
		minStdStream: int(int32(binary.LittleEndian.Uint32(data[56:60]))),
	}

	dirFirstSID := int32(binary.LittleEndian.Uint32(data[48:52]))
	ssatFirstSID := int32(binary.LittleEndian.Uint32(data[60:64]))
	ssatTotSecs := int32(binary.LittleEndian.Uint32(data[64:68]))
	msatxFirstSID := int32(binary.LittleEndian.Uint32(data[68:72]))
	msatxTotSecs := int32(binary.LittleEndian.Uint32(data[72:76]))

	dataLen := len(data) - headerSize
	dataSecs := (dataLen + d.sectorSize - 1) / d.sectorSize
	seen := make([]int, dataSecs)

	msat, err := d.buildMSAT(msatxFirstSID, msatxTotSecs, dataSecs, seen)
	if err != nil {
		return nil, err
	}
	d.sat = d.buildSAT(msat, dataSecs, seen)

	dirBytes, err := d.chainBytes(dirFirstSID, -1)
	if err != nil {
		return nil, fmt.Errorf("ole: reading directory chain: %w", err)
	}

	if err := d.parseDirectory(dirBytes); err != nil {
		return nil, err
	}

	if len(d.Directories) > 0 {
		root := &d.Directories[0]
		if root.rawFirstSID() >= 0 && root.rawTotSize() > 0 {
			d.sscs, _ = d.chainBytes(int32(root.rawFirstSID()), root.rawTotSize())
		}
	}
	if ssatTotSecs > 0 {
		d.ssat = d.buildExplicitChain(ssatFirstSID, ssatTotSecs)
	}

	for i := range d.Directories {
		if d.Directories[i].Kind != KindStream {
			continue
		}
		data, err := d.resolveStream(i)
		if err != nil {
			return nil, fmt.Errorf("ole: stream %q: %w", d.Directories[i].Name, err)
		}
		d.Directories[i].Data = data
	}

	return d, nil
}

// rawFirstSID/rawTotSize return the first sector ID and total size read from
// each entry's own directory record; on the root entry they describe the SSCS
// (short-stream container) stream.
func (e *OleDirectory) rawFirstSID() int { return e.rootFirstSID }
func (e *OleDirectory) rawTotSize() int  { return e.rootTotSize }

func (d *Document) buildMSAT(firstSID, totSecs int32, dataSecs int, seen []int) ([]int32, error) {
	msat := make([]int32, msatInlineN)
	for i := 0; i < msatInlineN; i++ {
		msat[i] = int32(binary.LittleEndian.Uint32(d.data[76+i*4 : 80+i*4]))
	}
	hasExt := !(totSecs == 0 && (firstSID == endOfChain || firstSID == freeSector || firstSID == 0))
	if !hasExt {
		return msat, nil
	}
	sid := firstSID
	for sid != endOfChain && sid != freeSector && sid != satSector {
		if sid < 0 || int(sid) >= dataSecs {
			break
		}
		if seen[sid] != 0 {
			return nil, fmt.Errorf("ole: MSAT extension cycle at sector %d", sid)
		}
		seen[sid] = 1
		offset := headerSize + int(sid)*d.sectorSize
		if offset+d.sectorSize > len(d.data) {
			break
		}
		n := d.sectorSize / 4
		ext := make([]int32, n)
		for j := 0; j < n; j++ {
			ext[j] = int32(binary.LittleEndian.Uint32(d.data[offset+j*4 : offset+(j+1)*4]))
		}
		msat = append(msat, ext[:n-1]...)
		sid = ext[n-1]
	}
	return msat, nil
}

func (d *Document) buildSAT(msat []int32, dataSecs int, seen []int) []int32 {
	nent := d.sectorSize / 4
	var sat []int32
	for _, msid := range msat {
		if msid == freeSector || msid == endOfChain {
			continue
		}
		if msid < 0 || int(msid) >= dataSecs {
			continue
		}
		if seen[msid] != 0 {
			break
		}
		seen[msid] = 2
		offset := headerSize + int(msid)*d.sectorSize
		if offset+d.sectorSize > len(d.data) {
			continue
		}
		for i := 0; i < nent; i++ {
			sat = append(sat, int32(binary.LittleEndian.Uint32(d.data[offset+i*4:offset+(i+1)*4])))
		}
	}
	return sat
}

func (d *Document) buildExplicitChain(firstSID, totSecs int32) []int32 {
	nent := d.sectorSize / 4
	var out []int32
	sid := firstSID
	for sid >= 0 && totSecs > 0 && int(sid) < len(d.sat) {
		offset := headerSize + int(sid)*d.sectorSize
		if offset+d.sectorSize > len(d.data) {
			break
		}
		for i := 0; i < nent; i++ {
			out = append(out, int32(binary.LittleEndian.Uint32(d.data[offset+i*4:offset+(i+1)*4])))
		}
		sid = d.sat[sid]
		totSecs--
	}
	return out
}

// chainBytes walks the SAT starting at firstSID and concatenates every
// sector until end-of-chain or size bytes have been collected (size < 0
// means "until end-of-chain").
func (d *Document) chainBytes(firstSID int32, size int) ([]byte, error) {
	var out []byte
	sid := firstSID
	for sid >= 0 {
		if int(sid) >= len(d.sat) {
			return out, fmt.Errorf("invalid sector allocation table entry %d", sid)
		}
		offset := headerSize + int(sid)*d.sectorSize
		end := offset + d.sectorSize
		if end > len(d.data) {
			break
		}
		out = append(out, d.data[offset:end]...)
		if size >= 0 && len(out) >= size {
			return out[:size], nil
		}
		sid = d.sat[sid]
	}
	if size >= 0 && len(out) > size {
		out = out[:size]
	}
	return out, nil
}

func (d *Document) parseDirectory(raw []byte) error {
	type rawEntry struct {
		name             string
		etype            byte
		left, right, chd int32
		firstSID         int32
		totSize          int32
	}
	var entries []rawEntry
	for pos := 0; pos+dirEntrySz <= len(raw); pos += dirEntrySz {
		ent := raw[pos : pos+dirEntrySz]
		cbufsize := binary.LittleEndian.Uint16(ent[64:66])
		etype := ent[66]
		left := int32(binary.LittleEndian.Uint32(ent[68:72]))
		right := int32(binary.LittleEndian.Uint32(ent[72:76]))
		chd := int32(binary.LittleEndian.Uint32(ent[76:80]))
		firstSID := int32(binary.LittleEndian.Uint32(ent[116:120]))
		totSize := int32(binary.LittleEndian.Uint32(ent[120:124]))

		var name string
		if cbufsize > 0 && cbufsize <= 64 && int(cbufsize) <= len(ent) {
			nameBytes := ent[0 : cbufsize-2]
			if len(nameBytes)%2 == 0 {
				words := make([]uint16, len(nameBytes)/2)
				for i := range words {
					words[i] = binary.LittleEndian.Uint16(nameBytes[i*2 : i*2+2])
				}
				name = string(utf16.Decode(words))
			}
		}
		entries = append(entries, rawEntry{name, etype, left, right, chd, firstSID, totSize})
	}

	d.Directories = make([]OleDirectory, len(entries))
	for i, e := range entries {
		d.Directories[i] = OleDirectory{
			Name:        e.name,
			Kind:        directoryKind(e.etype),
			Parent:      -1,
			rootFirstSID: int(e.firstSID),
			rootTotSize:  int(e.totSize),
		}
		d.Directories[i].left, d.Directories[i].right, d.Directories[i].child = e.left, e.right, e.chd
	}
	if len(d.Directories) > 0 {
		d.buildFamilyTree(0, d.Directories[0].child)
	}
	return nil
}

func (d *Document) buildFamilyTree(parent int, child int32) {
	if child < 0 || int(child) >= len(d.Directories) {
		return
	}
	d.buildFamilyTree(parent, d.Directories[child].left)
	d.Directories[parent].Children = append(d.Directories[parent].Children, int(child))
	d.Directories[child].Parent = parent
	d.buildFamilyTree(parent, d.Directories[child].right)
	if d.Directories[child].Kind == KindStorage || d.Directories[child].Kind == KindRoot {
		d.buildFamilyTree(int(child), d.Directories[child].child)
	}
}

// resolveStream materializes entry i's bytes, per spec §4.5's invariant:
// streams below minStdStream resolve through SSAT against the short-stream
// container (SSCS), everything else through SAT against the whole file.
func (d *Document) resolveStream(i int) ([]byte, error) {
	e := d.Directories[i]
	firstSID := int32(e.rootFirstSID)
	totSize := e.rootTotSize
	if totSize == 0 || firstSID < 0 {
		return []byte{}, nil
	}
	if totSize >= d.minStdStream {
		return d.chainBytes(firstSID, totSize)
	}
	return d.shortChainBytes(firstSID, totSize)
}

func (d *Document) shortChainBytes(firstSID int32, size int) ([]byte, error) {
	var out []byte
	sid := firstSID
	for sid >= 0 && len(out) < size {
		if int(sid) >= len(d.ssat) {
			return out, fmt.Errorf("invalid short sector allocation table entry %d", sid)
		}
		offset := int(sid) * d.shortSecSize
		end := offset + d.shortSecSize
		if end > len(d.sscs) {
			break
		}
		out = append(out, d.sscs[offset:end]...)
		sid = d.ssat[sid]
	}
	if len(out) > size {
		out = out[:size]
	}
	return out, nil
}

// ByName finds a directory entry by its exact (case-sensitive) name among
// top-level streams, the common case for Jumplist streams named after a
// 16-hex-digit app ID, plus the literal "DestList".
func (d *Document) ByName(name string) (*OleDirectory, bool) {
	for i := range d.Directories {
		if d.Directories[i].Name == name && d.Directories[i].Kind == KindStream {
			return &d.Directories[i], true
		}
	}
	return nil, false
}
