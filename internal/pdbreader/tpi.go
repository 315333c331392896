package pdbreader

import (
	"encoding/binary"
	"fmt"

	"github.com/a2l-tools/a2ltool/internal/symgraph"
)

// CodeView leaf kinds the type registry understands. Unrecognized leaf
// kinds yield an Incomplete node rather than aborting the stream, the
// same tolerance spec.md §4.2 asks of the DWARF side.
const (
	lfModifier   = 0x1001
	lfPointer    = 0x1002
	lfProcedure  = 0x1008
	lfMember     = 0x150d
	lfEnumerate  = 0x1502
	lfArray      = 0x1503
	lfStructure  = 0x1505
	lfUnion      = 0x1506
	lfEnum       = 0x1507
	lfBitfield   = 0x1205
	lfFieldList  = 0x1203
)

// typeIndex is a CodeView TI: indices below 0x1000 name a built-in
// primitive ("simple type"); indices at or above 0x1000 refer to a
// record in the TPI stream, numbered sequentially starting at the
// stream header's TypeIndexBegin.
type typeIndex uint32

const firstRecordIndex typeIndex = 0x1000

// simple-type sub-field values (the low byte of a primitive TI),
// following the published CodeView "simple type" table.
const (
	stVoid    = 0x03
	stChar    = 0x10
	stUChar   = 0x20
	stWChar   = 0x71
	stInt16   = 0x11
	stUInt16  = 0x21
	stInt32   = 0x12
	stUInt32  = 0x22
	stInt64   = 0x13
	stUInt64  = 0x23
	stFloat32 = 0x41
	stFloat64 = 0x42
	stBool08  = 0x30
)

// tpiHeader mirrors the published TPI stream header layout: a 56-byte
// fixed record preceding the sequentially-numbered type records.
type tpiHeader struct {
	version          uint32
	headerSize       uint32
	typeIndexBegin   uint32
	typeIndexEnd     uint32
	typeRecordBytes  uint32
}

func parseTPIHeader(data []byte) (tpiHeader, error) {
	if len(data) < 56 {
		return tpiHeader{}, fmt.Errorf("pdbreader: TPI stream shorter than its header")
	}
	h := tpiHeader{
		version:         binary.LittleEndian.Uint32(data[0:]),
		headerSize:      binary.LittleEndian.Uint32(data[4:]),
		typeIndexBegin:  binary.LittleEndian.Uint32(data[8:]),
		typeIndexEnd:    binary.LittleEndian.Uint32(data[12:]),
		typeRecordBytes: binary.LittleEndian.Uint32(data[16:]),
	}
	return h, nil
}

// cvRecord is one length-prefixed type or field-list leaf record.
type cvRecord struct {
	kind uint16
	data []byte
}

func splitRecords(data []byte) []cvRecord {
	var out []cvRecord
	offset := 0
	for offset+4 <= len(data) {
		recLen := int(binary.LittleEndian.Uint16(data[offset:]))
		if recLen < 2 || offset+2+recLen > len(data) {
			break
		}
		kind := binary.LittleEndian.Uint16(data[offset+2:])
		// recLen spans kind+payload; the payload itself starts two
		// bytes further in and is recLen-2 bytes long.
		out = append(out, cvRecord{kind: kind, data: data[offset+4 : offset+2+recLen]})
		offset += 2 + recLen
	}
	return out
}

// typeRegistry maps CodeView TypeIndex values onto symgraph TypeIds,
// populated by a single forward pass over the TPI stream's records:
// CodeView type streams only reference indices strictly lower than
// their own, so a record's dependencies are always already registered
// by the time the record itself is processed (the mirror image of
// dwarfreader's value-identity cache, needed there only because
// debug/dwarf hands back a tree rather than an index-ordered stream).
type typeRegistry struct {
	graph     *symgraph.SymbolGraph
	byIndex   map[typeIndex]symgraph.TypeId
	fieldList map[typeIndex][]symgraph.Member
	bitfields map[typeIndex]bitfieldLeaf
}

func newTypeRegistry(graph *symgraph.SymbolGraph) *typeRegistry {
	return &typeRegistry{
		graph:     graph,
		byIndex:   make(map[typeIndex]symgraph.TypeId),
		fieldList: make(map[typeIndex][]symgraph.Member),
		bitfields: make(map[typeIndex]bitfieldLeaf),
	}
}

// resolve maps any TypeIndex onto a TypeId: record indices must already
// be registered in byIndex by the single forward pass, while primitive
// indices are synthesized (and cached) into a base TypeNode on first use.
func (tr *typeRegistry) resolve(ti typeIndex) (symgraph.TypeId, bool) {
	if id, ok := tr.byIndex[ti]; ok {
		return id, true
	}
	if ti >= firstRecordIndex {
		return 0, false
	}
	node, ok := primitiveNode(ti)
	if !ok {
		return 0, false
	}
	id := tr.graph.AddType(node)
	tr.byIndex[ti] = id
	return id, true
}

func primitiveNode(ti typeIndex) (symgraph.TypeNode, bool) {
	mode := ti & 0xf00 // pointer-mode nibble; 0 = direct value
	base := ti & 0xff
	node, ok := baseTypeNode(base)
	if !ok {
		return symgraph.TypeNode{}, false
	}
	if mode == 0 {
		return node, true
	}
	// Any non-zero pointer-mode nibble (near/far/huge/32-bit/64-bit
	// pointer variants) is not modelled: resolve reports such an index
	// as unknown.
	return symgraph.TypeNode{}, false
}

func baseTypeNode(base typeIndex) (symgraph.TypeNode, bool) {
	switch base {
	case stVoid:
		return symgraph.TypeNode{Kind: symgraph.KindIncomplete, Name: "void"}, true
	case stChar:
		return symgraph.TypeNode{Kind: symgraph.KindBase, Name: "char", ByteSize: 1, Encoding: symgraph.EncSignedChar}, true
	case stUChar:
		return symgraph.TypeNode{Kind: symgraph.KindBase, Name: "unsigned char", ByteSize: 1, Encoding: symgraph.EncUnsignedChar}, true
	case stWChar:
		return symgraph.TypeNode{Kind: symgraph.KindBase, Name: "wchar_t", ByteSize: 2, Encoding: symgraph.EncUnsignedInt}, true
	case stInt16:
		return symgraph.TypeNode{Kind: symgraph.KindBase, Name: "short", ByteSize: 2, Encoding: symgraph.EncSignedInt}, true
	case stUInt16:
		return symgraph.TypeNode{Kind: symgraph.KindBase, Name: "unsigned short", ByteSize: 2, Encoding: symgraph.EncUnsignedInt}, true
	case stInt32:
		return symgraph.TypeNode{Kind: symgraph.KindBase, Name: "int", ByteSize: 4, Encoding: symgraph.EncSignedInt}, true
	case stUInt32:
		return symgraph.TypeNode{Kind: symgraph.KindBase, Name: "unsigned int", ByteSize: 4, Encoding: symgraph.EncUnsignedInt}, true
	case stInt64:
		return symgraph.TypeNode{Kind: symgraph.KindBase, Name: "long long", ByteSize: 8, Encoding: symgraph.EncSignedInt}, true
	case stUInt64:
		return symgraph.TypeNode{Kind: symgraph.KindBase, Name: "unsigned long long", ByteSize: 8, Encoding: symgraph.EncUnsignedInt}, true
	case stFloat32:
		return symgraph.TypeNode{Kind: symgraph.KindBase, Name: "float", ByteSize: 4, Encoding: symgraph.EncFloat}, true
	case stFloat64:
		return symgraph.TypeNode{Kind: symgraph.KindBase, Name: "double", ByteSize: 8, Encoding: symgraph.EncFloat}, true
	case stBool08:
		return symgraph.TypeNode{Kind: symgraph.KindBase, Name: "bool", ByteSize: 1, Encoding: symgraph.EncBoolean}, true
	default:
		return symgraph.TypeNode{}, false
	}
}

// buildTypeStream walks every record in the TPI stream in index order,
// registering each as a TypeId in order starting at h.typeIndexBegin.
func buildTypeStream(graph *symgraph.SymbolGraph, tpiStream []byte, ptrSize int) (*typeRegistry, error) {
	h, err := parseTPIHeader(tpiStream)
	if err != nil {
		return nil, err
	}
	body := tpiStream[h.headerSize:]
	records := splitRecords(body)

	tr := newTypeRegistry(graph)
	idx := typeIndex(h.typeIndexBegin)
	if idx == 0 {
		idx = firstRecordIndex
	}

	// Field lists are consumed by the struct/union/enum record that
	// names them and never surface as standalone TypeNodes, so they
	// are decoded into tr.fieldList instead of tr.byIndex.
	for _, rec := range records {
		switch rec.kind {
		case lfFieldList:
			tr.fieldList[idx] = decodeFieldList(tr, rec.data)
		case lfStructure, lfUnion:
			tr.byIndex[idx] = tr.graph.AddType(decodeStructure(tr, rec))
		case lfEnum:
			tr.byIndex[idx] = tr.graph.AddType(decodeEnum(tr, rec.data))
		case lfArray:
			tr.byIndex[idx] = tr.graph.AddType(decodeArray(tr, rec.data))
		case lfPointer:
			tr.byIndex[idx] = tr.graph.AddType(decodePointer(tr, rec.data, ptrSize))
		case lfModifier:
			tr.byIndex[idx] = tr.graph.AddType(decodeModifier(tr, rec.data))
		case lfProcedure:
			tr.byIndex[idx] = tr.graph.AddType(decodeProcedure(rec.data))
		case lfBitfield:
			// LF_BITFIELD only ever appears referenced from a member's
			// type slot; it never gets its own TypeId, so it is kept
			// in tr.bitfields instead of tr.byIndex.
			if bf, ok := decodeBitfield(rec.data); ok {
				tr.bitfields[idx] = bf
			}
		default:
			tr.byIndex[idx] = tr.graph.AddType(symgraph.TypeNode{Kind: symgraph.KindIncomplete})
		}
		idx++
	}
	return tr, nil
}

func decodeStructure(tr *typeRegistry, rec cvRecord) symgraph.TypeNode {
	d := rec.data
	if len(d) < 16 {
		return symgraph.TypeNode{Kind: symgraph.KindIncomplete}
	}
	kind := symgraph.KindStruct
	if rec.kind == lfUnion {
		kind = symgraph.KindUnion
	}
	count := binary.LittleEndian.Uint16(d[0:])
	properties := binary.LittleEndian.Uint16(d[2:])
	fieldListIndex := typeIndex(binary.LittleEndian.Uint32(d[4:]))
	// Skip derived(4) and vshape(4) before the size/name tail.
	rest := d[16:]
	size, consumed := parseNumericLeaf(rest)
	name := cString(rest[consumed:])

	const forwardRef = 0x0080
	if properties&forwardRef != 0 || count == 0 && fieldListIndex == 0 {
		return symgraph.TypeNode{Kind: symgraph.KindIncomplete, Name: name}
	}

	return symgraph.TypeNode{
		Kind:     kind,
		Name:     name,
		ByteSize: int64(size),
		Members:  tr.fieldList[fieldListIndex],
	}
}

// decodeFieldList walks an LF_FIELDLIST's packed sub-leaves directly:
// unlike top-level type records, sub-leaves carry no explicit length
// prefix, so each kind computes its own extent from its fixed fields
// plus its NUL-terminated name.
func decodeFieldList(tr *typeRegistry, data []byte) []symgraph.Member {
	var members []symgraph.Member
	offset := 0
	for offset+2 <= len(data) {
		kind := binary.LittleEndian.Uint16(data[offset:])
		switch kind {
		case lfMember:
			if offset+8 > len(data) {
				offset = len(data)
				continue
			}
			fieldType := typeIndex(binary.LittleEndian.Uint32(data[offset+4:]))
			val, consumed := parseNumericLeaf(data[offset+8:])
			nameStart := offset + 8 + consumed
			name, nameLen := readCString(data, nameStart)

			m := symgraph.Member{Name: name, ByteOffset: int64(val)}
			if bf, ok := tr.bitfield(fieldType); ok {
				id, _ := tr.resolve(bf.base)
				m.Type = id
				m.BitSize = int(bf.length)
				m.BitOffset = int(bf.position)
			} else if id, ok := tr.resolve(fieldType); ok {
				m.Type = id
			}
			members = append(members, m)
			offset = nameStart + nameLen + 1

		case lfEnumerate:
			if offset+4 > len(data) {
				offset = len(data)
				continue
			}
			val, consumed := parseNumericLeaf(data[offset+4:])
			nameStart := offset + 4 + consumed
			name, nameLen := readCString(data, nameStart)
			members = append(members, symgraph.Member{Name: name, EnumValue: int64(val)})
			offset = nameStart + nameLen + 1

		default:
			// LF_BCLASS, LF_VFUNCTAB, LF_NESTTYPE, and other sub-leaves
			// this reader does not model: their length cannot be
			// computed generically, so the remainder of the field list
			// is skipped rather than guessed.
			offset = len(data)
			continue
		}

		// Sub-leaves are padded to 4-byte alignment with LF_PAD bytes
		// (0xf0-0xff).
		for offset < len(data) && data[offset] >= 0xf0 {
			offset++
		}
	}
	return members
}

func readCString(data []byte, start int) (string, int) {
	if start > len(data) {
		return "", 0
	}
	end := start
	for end < len(data) && data[end] != 0 {
		end++
	}
	return string(data[start:end]), end - start
}

// bitfieldLeaf is a decoded LF_BITFIELD record, kept separate from the
// TPI record table (like field lists, it is only ever referenced from
// a member's type slot, never surfaces as its own TypeId).
type bitfieldLeaf struct {
	base     typeIndex
	length   uint8
	position uint8
}

// bitfield looks a raw TI up in tr.bitfields instead of tr.byIndex,
// since LF_BITFIELD never gets registered there. buildTypeStream decodes
// every LF_BITFIELD into tr.bitfields during its single forward pass.
func (tr *typeRegistry) bitfield(ti typeIndex) (bitfieldLeaf, bool) {
	leaf, ok := tr.bitfields[ti]
	return leaf, ok
}

func decodeArray(tr *typeRegistry, data []byte) symgraph.TypeNode {
	if len(data) < 8 {
		return symgraph.TypeNode{Kind: symgraph.KindIncomplete}
	}
	elemType := typeIndex(binary.LittleEndian.Uint32(data[0:]))
	// indexType at data[4:8] names the subscript's own type; the
	// engine only needs the element count, derived from total size.
	size, _ := parseNumericLeaf(data[8:])
	elem, ok := tr.resolve(elemType)
	if !ok {
		return symgraph.TypeNode{Kind: symgraph.KindIncomplete}
	}
	elemNode, _ := tr.graph.Type(elem)
	node := symgraph.TypeNode{Kind: symgraph.KindArray, Elem: elem}
	if elemNode.ByteSize > 0 {
		node.Count = int64(size) / elemNode.ByteSize
		node.HasCount = true
	}
	return node
}

func decodePointer(tr *typeRegistry, data []byte, ptrSize int) symgraph.TypeNode {
	if len(data) < 8 {
		return symgraph.TypeNode{Kind: symgraph.KindIncomplete}
	}
	underlying := typeIndex(binary.LittleEndian.Uint32(data[0:]))
	elem, ok := tr.resolve(underlying)
	if !ok {
		return symgraph.TypeNode{Kind: symgraph.KindIncomplete}
	}
	// The attribute word also encodes near/far/member-pointer mode and
	// an explicit size override; this reader only ever targets plain
	// 32/64-bit PE/ELF images, so the image's own address size is used
	// rather than decoding every pointer-mode variant.
	return symgraph.TypeNode{Kind: symgraph.KindPointer, Elem: elem, ByteSize: int64(ptrSize)}
}

func decodeModifier(tr *typeRegistry, data []byte) symgraph.TypeNode {
	if len(data) < 6 {
		return symgraph.TypeNode{Kind: symgraph.KindIncomplete}
	}
	underlying := typeIndex(binary.LittleEndian.Uint32(data[0:]))
	flags := binary.LittleEndian.Uint16(data[4:])
	elem, ok := tr.resolve(underlying)
	if !ok {
		return symgraph.TypeNode{Kind: symgraph.KindIncomplete}
	}
	mod := symgraph.ModConst
	switch {
	case flags&0x2 != 0:
		mod = symgraph.ModVolatile
	}
	return symgraph.TypeNode{Kind: symgraph.KindModifier, Mod: mod, Elem: elem}
}

func decodeProcedure(data []byte) symgraph.TypeNode {
	// LF_PROCEDURE's parameter list lives in an LF_ARGLIST this reader
	// does not walk; spec.md's reconciliation engine only ever
	// resolves data symbols, so a function's parameter/return detail
	// is not needed beyond recognizing the symbol as code.
	return symgraph.TypeNode{Kind: symgraph.KindFunction}
}

func decodeBitfield(data []byte) (bitfieldLeaf, bool) {
	if len(data) < 6 {
		return bitfieldLeaf{}, false
	}
	return bitfieldLeaf{
		base:     typeIndex(binary.LittleEndian.Uint32(data[0:])),
		length:   data[4],
		position: data[5],
	}, true
}

func decodeEnum(tr *typeRegistry, data []byte) symgraph.TypeNode {
	if len(data) < 12 {
		return symgraph.TypeNode{Kind: symgraph.KindIncomplete}
	}
	underlying := typeIndex(binary.LittleEndian.Uint32(data[4:]))
	fieldListIndex := typeIndex(binary.LittleEndian.Uint32(data[8:]))
	name := cString(data[12:])

	byteSize := int64(4)
	if id, ok := tr.resolve(underlying); ok {
		if n, ok := tr.graph.Type(id); ok && n.ByteSize > 0 {
			byteSize = n.ByteSize
		}
	}
	return symgraph.TypeNode{
		Kind:     symgraph.KindEnum,
		Name:     name,
		ByteSize: byteSize,
		Encoding: symgraph.EncSignedInt,
		Members:  tr.fieldList[fieldListIndex],
	}
}
