package resolver

import (
	"testing"

	"github.com/a2l-tools/a2ltool/internal/symgraph"
)

func buildGraph(t *testing.T) *symgraph.SymbolGraph {
	t.Helper()
	g := symgraph.New()

	floatID := g.AddType(symgraph.TypeNode{Kind: symgraph.KindBase, Name: "float", ByteSize: 4, Encoding: symgraph.EncFloat})
	intID := g.AddType(symgraph.TypeNode{Kind: symgraph.KindBase, Name: "int", ByteSize: 4, Encoding: symgraph.EncSignedInt})

	arrID := g.AddType(symgraph.TypeNode{Kind: symgraph.KindArray, Elem: floatID, HasCount: true, Count: 4})

	structID := g.AddType(symgraph.TypeNode{
		Kind:     symgraph.KindStruct,
		Name:     "Curve",
		ByteSize: 4 + 16,
		Members: []symgraph.Member{
			{Name: "value", Type: intID, ByteOffset: 0, BitSize: 3, BitOffset: 1},
			{Name: "x", Type: arrID, ByteOffset: 4},
		},
	})

	g.AddGlobal(symgraph.GlobalSymbol{Name: "g_curve", Type: structID, Address: 0x1000})
	return g
}

func TestResolveMemberAndBitMask(t *testing.T) {
	g := buildGraph(t)

	res, err := Resolve(g, "g_curve.value")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Address != 0x1000 {
		t.Errorf("expected address 0x1000, got 0x%x", res.Address)
	}
	if !res.HasBitMask {
		t.Fatalf("expected a bit mask for a bit-field member")
	}
	if res.BitMask != 0b1110 {
		t.Errorf("expected bit mask 0b1110, got %b", res.BitMask)
	}
}

func TestResolveArrayIndex(t *testing.T) {
	g := buildGraph(t)

	res, err := Resolve(g, "g_curve.x[2]")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Address != 0x1000+4+2*4 {
		t.Errorf("unexpected address 0x%x", res.Address)
	}
}

func TestResolveLegacyIndexSynonym(t *testing.T) {
	g := buildGraph(t)

	viaLegacy, err := Resolve(g, "g_curve.x._2_")
	if err != nil {
		t.Fatalf("Resolve failed on legacy path: %v", err)
	}
	viaModern, err := Resolve(g, "g_curve.x[2]")
	if err != nil {
		t.Fatalf("Resolve failed on modern path: %v", err)
	}
	if viaLegacy.Address != viaModern.Address {
		t.Errorf("legacy ._N_ path resolved to a different address than [N]: 0x%x vs 0x%x",
			viaLegacy.Address, viaModern.Address)
	}
}

func TestResolveOutOfBoundsIndex(t *testing.T) {
	g := buildGraph(t)

	if _, err := Resolve(g, "g_curve.x[99]"); err == nil {
		t.Errorf("expected an out-of-bounds array index to fail resolution")
	}
}

func TestResolveUnknownRoot(t *testing.T) {
	g := buildGraph(t)

	if _, err := Resolve(g, "does_not_exist"); err == nil {
		t.Errorf("expected unknown root symbol to fail resolution")
	}
}
