// Package a2l is the in-memory typed contract for the ASAM MCD-2 MC
// (A2L) entities the Synthesizer and Update Coordinator read and write.
// It models the external AST library spec.md §6 names; the A2L
// lexer/printer itself stays out of scope (spec.md §1 Non-goals) — this
// package is only the surface the rest of the engine programs against.
package a2l

// Kind enumerates every entity type the Module can enumerate or insert.
type Kind int

const (
	KindMeasurement Kind = iota
	KindCharacteristic
	KindAxisPts
	KindBlob
	KindInstance
	KindTypedefStructure
	KindTypedefMeasurement
	KindTypedefCharacteristic
	KindCompuMethod
	KindCompuTab
	KindRecordLayout
	KindGroup
)

// CharacteristicKind distinguishes the CHARACTERISTIC sub-shapes
// spec.md §4.5 names.
type CharacteristicKind int

const (
	CharValue CharacteristicKind = iota
	CharValBlk
	CharAscii
	CharCurve
	CharMap
	CharCuboid
	CharCube4
	CharCube5
)

// Measurement is a MEASUREMENT entity: a read-only observable tied to a
// symbol address.
type Measurement struct {
	Name         string
	LongID       string
	Datatype     string
	CompuMethod  string
	RecordLayout string
	Address      uint64
	AddressHex   bool
	BitMask      uint64
	HasBitMask   bool
	SymbolLink   string
	LowerLimit   float64
	UpperLimit   float64
	ArrayDims    []int64
}

// Characteristic is a CHARACTERISTIC entity: a calibratable value, with
// a Kind selecting its concrete shape (scalar, curve, map, ...).
type Characteristic struct {
	Name         string
	LongID       string
	Kind         CharacteristicKind
	RecordLayout string
	CompuMethod  string
	Address      uint64
	AddressHex   bool
	BitMask      uint64
	HasBitMask   bool
	SymbolLink   string
	LowerLimit   float64
	UpperLimit   float64
	AxisRefs     []string
	ArrayDims    []int64
}

// AxisPts is an AXIS_PTS entity: a shared axis for CURVE/MAP/CUBOID
// CHARACTERISTICs.
type AxisPts struct {
	Name         string
	LongID       string
	InputQty     string
	RecordLayout string
	CompuMethod  string
	Address      uint64
	MaxAxisPts   int64
	LowerLimit   float64
	UpperLimit   float64
}

// Blob is a BLOB entity: an opaque byte range.
type Blob struct {
	Name    string
	LongID  string
	Address uint64
	Size    int64
}

// Instance is an INSTANCE entity: a named instantiation of a
// TYPEDEF_STRUCTURE/MEASUREMENT/CHARACTERISTIC at a concrete address.
type Instance struct {
	Name         string
	LongID       string
	TypedefName  string
	Address      uint64
}

// TypedefStructure is a TYPEDEF_STRUCTURE entity: a reusable struct
// layout referenced by Instance entries.
type TypedefStructure struct {
	Name       string
	TotalSize  int64
	Components []StructureComponent
}

// StructureComponent is one member of a TYPEDEF_STRUCTURE.
type StructureComponent struct {
	Name       string
	TypedefRef string
	Offset     int64
	ArrayDims  []int64
}

// TypedefMeasurement is a TYPEDEF_MEASUREMENT entity: a reusable
// MEASUREMENT shape, used inside TYPEDEF_STRUCTURE components.
type TypedefMeasurement struct {
	Name         string
	Datatype     string
	CompuMethod  string
	RecordLayout string
}

// TypedefCharacteristic is a TYPEDEF_CHARACTERISTIC entity: a reusable
// CHARACTERISTIC shape, used inside TYPEDEF_STRUCTURE components.
type TypedefCharacteristic struct {
	Name         string
	Kind         CharacteristicKind
	RecordLayout string
	CompuMethod  string
	LowerLimit   float64
	UpperLimit   float64
}

// CompuMethodKind selects which conversion COMPU_METHOD applies.
type CompuMethodKind int

const (
	CompuLinear CompuMethodKind = iota
	CompuTabVerb
	CompuIdentity
)

// CompuMethod is a COMPU_METHOD entity. NoCompuMethod is never
// synthesized (spec.md §4.5): CompuIdentity is used instead whenever no
// real conversion policy applies.
type CompuMethod struct {
	Name       string
	Kind       CompuMethodKind
	Factor     float64 // Linear: physical = Factor*raw + Offset
	Offset     float64
	CompuTab   string // TabVerb: name of the referenced COMPU_TAB
	Unit       string
}

// CompuTab is a COMPU_TAB entity: an enum-like raw-to-string table.
type CompuTab struct {
	Name    string
	Entries map[int64]string
}

// RecordLayout is a RECORD_LAYOUT entity: the physical memory shape a
// CHARACTERISTIC/AXIS_PTS is read through.
type RecordLayout struct {
	Name     string
	Datatype string
	// AxisDatatype is set only for layouts that describe an axis.
	AxisDatatype string
}

// Group is a GROUP entity: a named collection of MEASUREMENT/
// CHARACTERISTIC references, used for organizing the calibration tree.
type Group struct {
	Name          string
	Measurements  []string
	Characteristics []string
	SubGroups     []string
}

// Module is the mutable module handle spec.md §6 names: enumerate by
// kind, look up by name, insert and remove. It has no method for walking
// GROUP or FUNCTION references; a GROUP's member lists are read through
// Lookup like any other entity, and FUNCTION is not modelled. It is not
// safe for concurrent writes (spec.md §9);
// concurrent reads through the Name Resolver are fine since resolution
// never mutates the Module.
type Module interface {
	// Names lists every entity name of the given kind, in no
	// particular order.
	Names(kind Kind) []string

	// Lookup returns the raw entity value (one of the concrete structs
	// above) for name under kind, and whether it exists.
	Lookup(kind Kind, name string) (interface{}, bool)

	// Insert adds or replaces an entity. entity must be one of the
	// concrete struct types above matching kind.
	Insert(kind Kind, name string, entity interface{})

	// Remove deletes an entity by kind and name. It is a no-op if the
	// entity does not exist.
	Remove(kind Kind, name string)
}
