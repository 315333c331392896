package pdbreader

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/a2l-tools/a2ltool/internal/symgraph"
)

const testPageSize = 4096

// buildMinimalPDB assembles, in memory, the smallest MSF container this
// reader can parse: a superblock, a one-page stream directory, a TPI
// stream describing one struct ("Curve" with a single int member), a
// DBI stream naming the symbol-record stream, and a global symbol
// stream with one S_GDATA32 record pointing at that struct.
func buildMinimalPDB(t *testing.T) []byte {
	t.Helper()

	putU16 := func(b []byte, off int, v uint16) { binary.LittleEndian.PutUint16(b[off:], v) }
	putU32 := func(b []byte, off int, v uint32) { binary.LittleEndian.PutUint32(b[off:], v) }

	// --- TPI stream (page 3) ---
	fieldList := make([]byte, 16)
	putU16(fieldList, 0, lfMember)
	putU16(fieldList, 2, 0) // attr
	putU32(fieldList, 4, uint32(stInt32))
	putU16(fieldList, 8, 0) // numeric leaf: offset 0
	copy(fieldList[10:], "value\x00")

	fieldListRec := make([]byte, 2+2+len(fieldList))
	putU16(fieldListRec, 0, uint16(2+len(fieldList)))
	putU16(fieldListRec, 2, lfFieldList)
	copy(fieldListRec[4:], fieldList)

	structPayload := make([]byte, 2+2+4+4+4+2+6)
	putU16(structPayload, 0, 1)              // count
	putU16(structPayload, 2, 0)              // properties
	putU32(structPayload, 4, uint32(0x1000)) // field list index
	putU32(structPayload, 8, 0)              // derived
	putU32(structPayload, 12, 0)             // vshape
	putU16(structPayload, 16, 4)             // size
	copy(structPayload[18:], "Curve\x00")

	structRec := make([]byte, 2+2+len(structPayload))
	putU16(structRec, 0, uint16(2+len(structPayload)))
	putU16(structRec, 2, lfStructure)
	copy(structRec[4:], structPayload)

	tpiHeaderBytes := make([]byte, 56)
	putU32(tpiHeaderBytes, 0, 20)     // version, arbitrary
	putU32(tpiHeaderBytes, 4, 56)     // headerSize
	putU32(tpiHeaderBytes, 8, 0x1000) // typeIndexBegin
	putU32(tpiHeaderBytes, 12, 0x1002)
	putU32(tpiHeaderBytes, 16, uint32(len(fieldListRec)+len(structRec)))

	tpiStream := append(append([]byte{}, tpiHeaderBytes...), fieldListRec...)
	tpiStream = append(tpiStream, structRec...)

	// --- DBI stream (page 4) ---
	dbiStream := make([]byte, 24)
	const symRecordStreamIndex = 5
	putU16(dbiStream, 20, symRecordStreamIndex)

	// --- global symbol stream (page 5) ---
	dataPayload := make([]byte, 4+4+2+len("g_curve\x00"))
	putU32(dataPayload, 0, 0x1001) // type index: the struct above
	putU32(dataPayload, 4, 0x2000) // offset
	putU16(dataPayload, 8, 1)      // segment
	copy(dataPayload[10:], "g_curve\x00")

	dataRec := make([]byte, 2+2+len(dataPayload))
	putU16(dataRec, 0, uint16(2+len(dataPayload)))
	putU16(dataRec, 2, uint16(symGData32))
	copy(dataRec[4:], dataPayload)

	symStream := make([]byte, 4)
	putU32(symStream, 0, 4) // CV_SIGNATURE_C13
	symStream = append(symStream, dataRec...)

	// --- stream directory (page 2) ---
	sizes := []int32{-1, -1, int32(len(tpiStream)), int32(len(dbiStream)), -1, int32(len(symStream))}
	dir := make([]byte, 4+4*len(sizes))
	putU32(dir, 0, uint32(len(sizes)))
	for i, s := range sizes {
		binary.LittleEndian.PutUint32(dir[4+4*i:], uint32(s))
	}
	// page numbers for each present stream, one page apiece.
	dir = append(dir, u32le(3)...) // stream 2 -> page 3
	dir = append(dir, u32le(4)...) // stream 3 -> page 4
	dir = append(dir, u32le(5)...) // stream 5 -> page 5

	// --- assemble pages ---
	raw := make([]byte, 6*testPageSize)
	pageAt := func(n int) []byte { return raw[n*testPageSize : (n+1)*testPageSize] }

	sb := pageAt(0)
	copy(sb, msfMagic)
	off := len(msfMagic)
	putU32(sb, off, testPageSize)
	off += 4
	off += 4 // FreePageMap
	putU32(sb, off, 6) // numPages
	off += 4
	putU32(sb, off, uint32(len(dir))) // dirSize
	off += 4
	off += 4 // unused
	putU32(sb, off, 1) // dirRootPage

	rootList := pageAt(1)
	putU32(rootList, 0, 2) // the directory data lives on page 2

	copy(pageAt(2), dir)
	copy(pageAt(3), tpiStream)
	copy(pageAt(4), dbiStream)
	copy(pageAt(5), symStream)

	return raw
}

func u32le(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func writeTempPDB(t *testing.T, raw []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.pdb")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("writing synthetic pdb: %v", err)
	}
	return path
}

func TestReadBuildsStructAndGlobal(t *testing.T) {
	path := writeTempPDB(t, buildMinimalPDB(t))

	graph, err := Read(path, 8)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	sym, ok := graph.Global("g_curve")
	if !ok {
		t.Fatalf("expected global symbol g_curve")
	}
	if sym.Address != 0x2000 {
		t.Errorf("expected address 0x2000, got 0x%x", sym.Address)
	}
	if sym.Kind != symgraph.SymbolVariable {
		t.Errorf("expected SymbolVariable, got %v", sym.Kind)
	}

	node, ok := graph.Type(sym.Type)
	if !ok {
		t.Fatalf("expected a registered type for g_curve")
	}
	if node.Kind != symgraph.KindStruct || node.Name != "Curve" {
		t.Fatalf("unexpected type node: %+v", node)
	}
	if len(node.Members) != 1 || node.Members[0].Name != "value" {
		t.Fatalf("unexpected struct members: %+v", node.Members)
	}

	memberType, ok := graph.Type(node.Members[0].Type)
	if !ok || memberType.Kind != symgraph.KindBase || memberType.ByteSize != 4 {
		t.Fatalf("unexpected member type: %+v", memberType)
	}
}

func TestReadRejectsNonMSFFile(t *testing.T) {
	path := writeTempPDB(t, []byte("not a pdb file at all"))
	if _, err := Read(path, 8); err == nil {
		t.Errorf("expected an error reading a non-MSF file")
	}
}

func TestOpenMSFRoundTripsStreamBytes(t *testing.T) {
	raw := buildMinimalPDB(t)
	msf, err := openMSF(raw)
	if err != nil {
		t.Fatalf("openMSF failed: %v", err)
	}
	if len(msf.stream(0)) != 0 {
		t.Errorf("expected stream 0 to be absent")
	}
	if len(msf.stream(2)) == 0 {
		t.Errorf("expected stream 2 (TPI) to be present")
	}
}

func TestParseNumericLeafWideForms(t *testing.T) {
	data := []byte{0x00, 0x80, 0x2a} // LF_CHAR tag, value 0x2a
	val, n := parseNumericLeaf(data)
	if val != 0x2a || n != 3 {
		t.Errorf("expected (0x2a, 3), got (%d, %d)", val, n)
	}
}
