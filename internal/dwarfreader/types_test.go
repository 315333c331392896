package dwarfreader

import (
	"debug/dwarf"
	"testing"

	"github.com/a2l-tools/a2ltool/internal/symgraph"
)

func TestTypeBuilderResolvesBaseTypes(t *testing.T) {
	tb := newTypeBuilder(nil, 8)

	intType := &dwarf.IntType{BasicType: dwarf.BasicType{
		CommonType: dwarf.CommonType{ByteSize: 4, Name: "int"},
	}}

	id, err := tb.resolve(intType)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	node, ok := tb.graph.Type(id)
	if !ok {
		t.Fatalf("expected a registered type node")
	}
	if node.Kind != symgraph.KindBase || node.Encoding != symgraph.EncSignedInt || node.ByteSize != 4 {
		t.Errorf("unexpected node: %+v", node)
	}
}

func TestTypeBuilderCachesByValueIdentity(t *testing.T) {
	tb := newTypeBuilder(nil, 8)

	intType := &dwarf.IntType{BasicType: dwarf.BasicType{
		CommonType: dwarf.CommonType{ByteSize: 4, Name: "int"},
	}}

	first, err := tb.resolve(intType)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	second, err := tb.resolve(intType)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if first != second {
		t.Errorf("expected the same dwarf.Type value to cache to the same TypeId, got %v and %v", first, second)
	}
}

func TestTypeBuilderSelfReferentialPointer(t *testing.T) {
	tb := newTypeBuilder(nil, 8)

	structType := &dwarf.StructType{
		StructName: "Node",
		Kind:       "struct",
		CommonType: dwarf.CommonType{ByteSize: 16},
	}
	ptrType := &dwarf.PtrType{
		CommonType: dwarf.CommonType{ByteSize: 8},
		Type:       structType,
	}
	structType.Field = []*dwarf.StructField{
		{Name: "next", Type: ptrType, ByteOffset: 0},
	}

	id, err := tb.resolve(structType)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	node, _ := tb.graph.Type(id)
	if node.Kind != symgraph.KindStruct || len(node.Members) != 1 {
		t.Fatalf("unexpected struct node: %+v", node)
	}

	ptrNode, _ := tb.graph.Type(node.Members[0].Type)
	if ptrNode.Kind != symgraph.KindPointer {
		t.Fatalf("expected member to be a pointer, got %+v", ptrNode)
	}
	if ptrNode.Elem != id {
		t.Errorf("expected the pointer to point back at the struct's own TypeId")
	}
}

func TestTypeBuilderBitField(t *testing.T) {
	tb := newTypeBuilder(nil, 8)

	intType := &dwarf.IntType{BasicType: dwarf.BasicType{
		CommonType: dwarf.CommonType{ByteSize: 4, Name: "int"},
	}}
	structType := &dwarf.StructType{
		StructName: "Flags",
		Kind:       "struct",
		CommonType: dwarf.CommonType{ByteSize: 4},
		Field: []*dwarf.StructField{
			{Name: "enabled", Type: intType, ByteOffset: 0, ByteSize: 4, BitOffset: 29, BitSize: 3},
		},
	}

	id, err := tb.resolve(structType)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	node, _ := tb.graph.Type(id)
	m := node.Members[0]
	if m.BitSize != 3 || m.BitOffset != 0 {
		t.Errorf("expected lsb bit offset 0 size 3, got offset=%d size=%d", m.BitOffset, m.BitSize)
	}
}

func TestTypeBuilderEnum(t *testing.T) {
	tb := newTypeBuilder(nil, 8)

	enumType := &dwarf.EnumType{
		EnumName:   "Mode",
		CommonType: dwarf.CommonType{ByteSize: 4},
		Val: []*dwarf.EnumValue{
			{Name: "MODE_OFF", Val: 0},
			{Name: "MODE_ON", Val: 1},
		},
	}

	id, err := tb.resolve(enumType)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	node, _ := tb.graph.Type(id)
	if node.Kind != symgraph.KindEnum || len(node.Members) != 2 {
		t.Fatalf("unexpected enum node: %+v", node)
	}
	if node.Members[1].Name != "MODE_ON" || node.Members[1].EnumValue != 1 {
		t.Errorf("unexpected enumerator: %+v", node.Members[1])
	}
}
