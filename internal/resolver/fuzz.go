package resolver

import "github.com/a2l-tools/a2ltool/internal/symgraph"

// fuzzGraph is built once per process and reused across calls: Fuzz is
// exercising the path grammar in parsePath, not the Symbol Graph.
var fuzzGraph = buildFuzzGraph()

func buildFuzzGraph() *symgraph.SymbolGraph {
	g := symgraph.New()

	i32 := g.AddType(symgraph.TypeNode{Kind: symgraph.KindBase, Name: "int32_t", ByteSize: 4, Encoding: symgraph.EncSignedInt})
	arr := g.AddType(symgraph.TypeNode{Kind: symgraph.KindArray, Elem: i32, Count: 4, HasCount: true, ByteSize: 16})
	ptr := g.AddType(symgraph.TypeNode{Kind: symgraph.KindPointer, Elem: i32, ByteSize: 8})
	st := g.AddType(symgraph.TypeNode{
		Kind:     symgraph.KindStruct,
		Name:     "Curve",
		ByteSize: 24,
		Members: []symgraph.Member{
			{Name: "value", Type: i32, ByteOffset: 0},
			{Name: "x", Type: arr, ByteOffset: 4},
			{Name: "next", Type: ptr, ByteOffset: 20},
		},
	})

	g.AddGlobal(symgraph.GlobalSymbol{Name: "g_curve", Type: st, Address: 0x1000, Kind: symgraph.SymbolVariable})
	g.AddGlobal(symgraph.GlobalSymbol{Name: "g_table", Type: arr, Address: 0x2000, Kind: symgraph.SymbolVariable})

	return g
}

func Fuzz(data []byte) int {
	_, err := Resolve(fuzzGraph, string(data))
	if err != nil {
		return 0
	}
	return 1
}
