package symgraph

import "testing"

func TestCyclicStructViaTypeId(t *testing.T) {
	g := New()

	// struct Node { struct Node *next; int value; };
	nodeID := g.AddType(TypeNode{Kind: KindStruct, Name: "Node"})

	intID := g.AddType(TypeNode{Kind: KindBase, Name: "int", ByteSize: 4, Encoding: EncSignedInt})
	ptrToNodeID := g.AddType(TypeNode{Kind: KindPointer, ByteSize: 8, Elem: nodeID})

	g.SetType(nodeID, TypeNode{
		Kind:     KindStruct,
		Name:     "Node",
		ByteSize: 16,
		Members: []Member{
			{Name: "next", Type: ptrToNodeID, ByteOffset: 0},
			{Name: "value", Type: intID, ByteOffset: 8},
		},
	})

	node, ok := g.Type(nodeID)
	if !ok {
		t.Fatalf("Node type not found")
	}
	if len(node.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(node.Members))
	}

	ptrNode, ok := g.Type(node.Members[0].Type)
	if !ok || ptrNode.Kind != KindPointer {
		t.Fatalf("expected next to be a pointer type")
	}
	if ptrNode.Elem != nodeID {
		t.Fatalf("expected pointer to point back at Node via TypeId, got %v want %v", ptrNode.Elem, nodeID)
	}
}

func TestGlobalsRoundTrip(t *testing.T) {
	g := New()
	intID := g.AddType(TypeNode{Kind: KindBase, Name: "int", ByteSize: 4, Encoding: EncSignedInt})

	g.AddGlobal(GlobalSymbol{Name: "g_counter", Type: intID, Address: 0x4000, BackEnd: BackEndDWARF})

	sym, ok := g.Global("g_counter")
	if !ok {
		t.Fatalf("g_counter not found")
	}
	if sym.Address != 0x4000 {
		t.Errorf("expected address 0x4000, got 0x%x", sym.Address)
	}

	if _, ok := g.Global("does_not_exist"); ok {
		t.Errorf("expected lookup miss for unknown symbol")
	}
}

func TestIncompleteArrayHasNoCount(t *testing.T) {
	g := New()
	elemID := g.AddType(TypeNode{Kind: KindBase, Name: "float", ByteSize: 4, Encoding: EncFloat})
	arrID := g.AddType(TypeNode{Kind: KindArray, Elem: elemID, HasCount: false})

	arr, _ := g.Type(arrID)
	if arr.HasCount {
		t.Errorf("expected HasCount = false for an array with no declared upper bound")
	}
}
