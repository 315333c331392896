// Package symgraph holds the back-end-agnostic Symbol Graph that the
// DWARF and PDB readers both populate, and that the Name Resolver and
// A2L Descriptor Synthesizer consume.
//
// TypeId is a stable index into SymbolGraph.types rather than a Go
// pointer: C's "struct B *pNext" style cyclic type graphs would
// otherwise be impossible to represent directly as Go values.
package symgraph

// TypeId indexes into SymbolGraph.types. The first node added gets
// TypeId 0, so the zero value can denote a real type; callers check ok
// along with a lookup.
type TypeId int

// TypeKind tags which payload fields of a TypeNode are meaningful.
type TypeKind int

const (
	KindBase TypeKind = iota
	KindPointer
	KindArray
	KindStruct
	KindUnion
	KindEnum
	KindTypedef
	KindFunction
	KindIncomplete
	KindModifier
)

// Encoding mirrors DWARF's DW_ATE_* / PDB's base-type classification,
// kept narrow to what the Synthesizer's kind-selection table needs.
type Encoding int

const (
	EncUnknown Encoding = iota
	EncSignedInt
	EncUnsignedInt
	EncFloat
	EncBoolean
	EncSignedChar
	EncUnsignedChar
)

// Member is one field of a struct/union TypeNode, or one enumerator of
// an enum TypeNode (in which case Type is the enclosing enum's base
// type and BitSize/BitOffset are zero).
type Member struct {
	Name string
	Type TypeId

	// ByteOffset is the field's byte offset within the struct/union.
	ByteOffset int64

	// BitSize/BitOffset are non-zero for bit-fields. BitOffset is
	// always the value a little-endian reader would use; bit-field
	// back-ends normalize DW_AT_bit_offset (big-endian numbering) to
	// this convention once, in the DWARF reader.
	BitSize   int
	BitOffset int

	// EnumValue holds the enumerator's constant value when the
	// enclosing TypeNode's Kind is KindEnum.
	EnumValue int64
}

// Modifier distinguishes which qualifier a KindModifier TypeNode
// represents (DWARF's const/volatile/restrict DIEs).
type Modifier int

const (
	ModConst Modifier = iota
	ModVolatile
	ModRestrict
)

// TypeNode is a tagged-variant sum type over every shape of C type the
// engine reasons about. Only the fields relevant to Kind are populated;
// others are zero.
type TypeNode struct {
	Kind TypeKind
	Name string

	// ByteSize is the type's size in bytes, when known. Incomplete
	// types (KindIncomplete) leave this zero.
	ByteSize int64

	// KindBase
	Encoding Encoding

	// KindPointer, KindTypedef, KindModifier, KindArray's element type
	Elem TypeId

	// KindModifier
	Mod Modifier

	// KindArray
	// Count is the number of elements; HasCount is false when no
	// upper bound was recorded (spec.md §9 Open Question (b)).
	Count    int64
	HasCount bool

	// KindStruct, KindUnion, KindEnum
	Members []Member

	// KindFunction
	Params    []TypeId
	Return    TypeId
	IsVariadic bool
}

// BackEnd records which reader produced a GlobalSymbol, for diagnostics
// only; it never participates in resolution.
type BackEnd int

const (
	BackEndDWARF BackEnd = iota
	BackEndPDB
)

// SymbolKind distinguishes the three global-symbol shapes spec.md §3's
// data model names.
type SymbolKind int

const (
	SymbolVariable SymbolKind = iota
	SymbolFunctionPointerSlot
	SymbolConstant
)

// GlobalSymbol is one global variable or function the Symbol Graph
// exposes by name.
type GlobalSymbol struct {
	Name    string
	Type    TypeId
	Address uint64
	Kind    SymbolKind
	BackEnd BackEnd
}

// SymbolGraph is the immutable-after-construction result of reading a
// binary's debug info: every global symbol plus the flat type table
// its members reference by TypeId.
type SymbolGraph struct {
	types   []TypeNode
	globals map[string]GlobalSymbol
}

// New returns an empty graph ready for a reader to populate via AddType
// and AddGlobal.
func New() *SymbolGraph {
	return &SymbolGraph{globals: make(map[string]GlobalSymbol)}
}

// AddType appends a type node and returns the TypeId that refers to it.
// Readers register a placeholder node up front for self-referential
// structs, then fill in Members once the full type is known, to break
// load-order cycles (golang-debug's two-pass postponed-field-fill
// approach).
func (g *SymbolGraph) AddType(node TypeNode) TypeId {
	g.types = append(g.types, node)
	return TypeId(len(g.types) - 1)
}

// SetType overwrites a previously reserved TypeId's node in place,
// preserving every TypeId already referencing it.
func (g *SymbolGraph) SetType(id TypeId, node TypeNode) {
	g.types[id] = node
}

// Type resolves a TypeId to its node.
func (g *SymbolGraph) Type(id TypeId) (TypeNode, bool) {
	if int(id) < 0 || int(id) >= len(g.types) {
		return TypeNode{}, false
	}
	return g.types[id], true
}

// AddGlobal registers (or overwrites) a global symbol by name.
func (g *SymbolGraph) AddGlobal(sym GlobalSymbol) {
	g.globals[sym.Name] = sym
}

// Global looks up a global symbol by its exact linker name.
func (g *SymbolGraph) Global(name string) (GlobalSymbol, bool) {
	sym, ok := g.globals[name]
	return sym, ok
}

// Globals returns every global symbol name known to the graph, in no
// particular order.
func (g *SymbolGraph) Globals() []string {
	names := make([]string, 0, len(g.globals))
	for name := range g.globals {
		names = append(names, name)
	}
	return names
}

// TypeCount reports how many type nodes the graph holds, mostly useful
// for tests and diagnostics.
func (g *SymbolGraph) TypeCount() int { return len(g.types) }
