// Package synth implements the A2L Descriptor Synthesizer of spec.md
// §4.5: given a resolver.Resolved symbol and a creation policy, it
// produces or updates exactly one A2L descriptor plus any supporting
// entities (RECORD_LAYOUT, COMPU_METHOD, COMPU_TAB, AXIS_PTS).
package synth

import (
	"fmt"

	"github.com/a2l-tools/a2ltool/internal/a2l"
	"github.com/a2l-tools/a2ltool/internal/a2lerr"
	"github.com/a2l-tools/a2ltool/internal/resolver"
	"github.com/a2l-tools/a2ltool/internal/symgraph"
)

// KindHint tells the Synthesizer which top-level entity family the
// caller wants for a scalar/array/struct symbol.
type KindHint int

const (
	HintMeasurement KindHint = iota
	HintCharacteristic
)

// CreatePolicy is spec.md §4.5's creation policy.
type CreatePolicy struct {
	KindHint          KindHint
	TargetGroup       string
	UseStructures     bool
	OldArrayNotation  bool
	ArraysAsBlocks    bool
	BigEndianTarget   bool
}

// identityCompuMethod is reused across every descriptor that needs no
// real conversion (spec.md §4.5: NoCompuMethod is never emitted).
const identityCompuMethodName = "A2L_TOOLS_IDENTITY"

// Synthesize creates or updates exactly one descriptor for res inside
// mod, named name, plus any RECORD_LAYOUT/COMPU_METHOD/COMPU_TAB/
// AXIS_PTS it needs. It returns the Incomplete flag when an array with
// no declared upper bound was synthesized with MATRIX_DIM 0 (spec.md §9
// Open Question (b)).
func Synthesize(graph *symgraph.SymbolGraph, res resolver.Resolved, name string, policy CreatePolicy, mod a2l.Module) (incomplete bool, err error) {
	ensureIdentityCompuMethod(mod)

	node, ok := graph.Type(res.EffectiveType)
	if !ok {
		return false, &a2lerr.ResolveError{Path: name, Err: a2lerr.ErrUnresolvedSymbol}
	}

	if node.Kind == symgraph.KindStruct && policy.UseStructures {
		if _, isAxisShape := curveOrMapShape(graph, node); !isAxisShape {
			writeStructureInstance(mod, graph, node, res, name, policy)
			return false, nil
		}
	}

	shape, dims, incomplete := classify(graph, node)
	layout := selectOrCreateRecordLayout(mod, shape)
	compuMethod := selectOrCreateCompuMethod(mod, graph, node, name)

	switch policy.KindHint {
	case HintMeasurement:
		writeMeasurement(mod, graph, res, name, shape, dims, layout, compuMethod, policy)
	case HintCharacteristic:
		writeCharacteristic(mod, graph, node, res, name, shape, dims, layout, compuMethod, policy)
	}

	return incomplete, nil
}

// shape is the pattern classify() recognized, driving both kind
// selection and RECORD_LAYOUT selection.
type shape int

const (
	shapeScalar shape = iota
	shapeValBlk
	shapeCurveInternal
	shapeMapInternal
	shapeCurveExternal
	shapeMapExternal
	shapeEnum
	shapeBitField
	shapeBlob
)

// classify reports the shape a struct/array/base/enum type synthesizes
// to, the descriptor's MATRIX_DIM (nil when the shape has none), and
// whether an array dimension lacked a declared upper bound.
func classify(graph *symgraph.SymbolGraph, node symgraph.TypeNode) (shape, []int64, bool) {
	switch node.Kind {
	case symgraph.KindEnum:
		return shapeEnum, nil, false

	case symgraph.KindBase, symgraph.KindModifier, symgraph.KindTypedef:
		return shapeScalar, nil, false

	case symgraph.KindArray:
		dims, incomplete := arrayDims(graph, node)
		return shapeValBlk, dims, incomplete

	case symgraph.KindStruct:
		if s, ok := curveOrMapShape(graph, node); ok {
			return s, valueMemberDims(graph, node), false
		}
		return shapeBlob, nil, false

	default:
		return shapeBlob, nil, false
	}
}

// arrayDims walks a (possibly multi-dimensional) array chain and
// reports whether any dimension lacked a declared upper bound (spec.md
// §9 Open Question (b)).
func arrayDims(graph *symgraph.SymbolGraph, node symgraph.TypeNode) ([]int64, bool) {
	var dims []int64
	incomplete := false
	for node.Kind == symgraph.KindArray {
		if node.HasCount {
			dims = append(dims, node.Count)
		} else {
			dims = append(dims, 0)
			incomplete = true
		}
		next, ok := graph.Type(node.Elem)
		if !ok {
			break
		}
		node = next
	}
	return dims, incomplete
}

// curveOrMapShape recognizes either of spec.md §4.5's two curve/map
// patterns: a struct with a "value" member plus "x" (curve) or "x" and
// "y" (map) sibling arrays (internal axis), or a struct containing only
// a "value[…]" member whose axes are standalone sibling globals named
// by convention "Axis_1" (curve) / "Axis_1","Axis_2" (map) (external
// axis).
func curveOrMapShape(graph *symgraph.SymbolGraph, node symgraph.TypeNode) (shape, bool) {
	var hasValue, hasX, hasY bool
	for _, m := range node.Members {
		switch m.Name {
		case "value":
			hasValue = true
		case "x":
			hasX = true
		case "y":
			hasY = true
		}
	}
	if hasValue && hasX {
		if hasY {
			return shapeMapInternal, true
		}
		return shapeCurveInternal, true
	}

	if hasValue && len(node.Members) == 1 {
		if dims, ok := externalAxisDims(graph, node); ok {
			if len(dims) == 2 {
				return shapeMapExternal, true
			}
			return shapeCurveExternal, true
		}
	}

	return 0, false
}

// valueMemberDims reports the MATRIX_DIM of a curve/map struct's
// "value" member, used for both the internal- and external-axis
// patterns (the axis arrays, internal or external, match its shape).
func valueMemberDims(graph *symgraph.SymbolGraph, node symgraph.TypeNode) []int64 {
	for _, m := range node.Members {
		if m.Name != "value" {
			continue
		}
		valueType, ok := graph.Type(m.Type)
		if !ok {
			return nil
		}
		dims, _ := arrayDims(graph, valueType)
		return dims
	}
	return nil
}

// externalAxisDims recognizes the external-axis naming convention: a
// lone "value[…]" member (1-D or 2-D) whose every dimension has a
// matching standalone global "Axis_N" (1-based, fastest axis first per
// spec.md §8 scenario 2) already present in the Symbol Graph.
func externalAxisDims(graph *symgraph.SymbolGraph, node symgraph.TypeNode) ([]int64, bool) {
	dims := valueMemberDims(graph, node)
	if len(dims) != 1 && len(dims) != 2 {
		return nil, false
	}
	for i := range dims {
		if _, ok := graph.Global(axisName(i)); !ok {
			return nil, false
		}
	}
	return dims, true
}

// axisName formats the external-axis naming convention's i'th (0-based)
// sibling global.
func axisName(i int) string {
	return fmt.Sprintf("Axis_%d", i+1)
}

func selectOrCreateRecordLayout(mod a2l.Module, s shape) string {
	name := recordLayoutName(s)
	if _, ok := mod.Lookup(a2l.KindRecordLayout, name); ok {
		return name
	}

	layout := a2l.RecordLayout{Name: name, Datatype: recordLayoutDatatype(s)}
	mod.Insert(a2l.KindRecordLayout, name, layout)
	return name
}

func recordLayoutName(s shape) string {
	switch s {
	case shapeScalar, shapeBitField:
		return "A2L_TOOLS_RL_SCALAR"
	case shapeValBlk:
		return "A2L_TOOLS_RL_VALBLK"
	case shapeCurveInternal:
		return "A2L_TOOLS_RL_CURVE"
	case shapeMapInternal:
		return "A2L_TOOLS_RL_MAP"
	case shapeCurveExternal:
		return "A2L_TOOLS_RL_CURVE_EXT"
	case shapeMapExternal:
		return "A2L_TOOLS_RL_MAP_EXT"
	case shapeEnum:
		return "A2L_TOOLS_RL_ENUM"
	default:
		return "A2L_TOOLS_RL_BLOB"
	}
}

// Dims reports the MATRIX_DIM a resolved symbol's current effective
// type would synthesize: an array's own dimensions, or a curve/map
// struct's "value" member dimensions (nil for every other shape).
// Shared by the creation path above and the Update Coordinator's
// mismatch detection so the two never disagree on what counts as a
// shape change.
func Dims(graph *symgraph.SymbolGraph, node symgraph.TypeNode) []int64 {
	_, dims, _ := classify(graph, node)
	return dims
}

// Datatype reports the raw storage datatype a MEASUREMENT would
// synthesize for node, independent of any CHARACTERISTIC kind
// classification.
func Datatype(node symgraph.TypeNode) string {
	return storageDatatype(node)
}

// CharKind reports the CHARACTERISTIC kind node's current effective
// type would synthesize, and false when it classifies to BLOB (which
// has no CharacteristicKind).
func CharKind(graph *symgraph.SymbolGraph, node symgraph.TypeNode) (a2l.CharacteristicKind, bool) {
	return charKindForShape(classifyShapeOnly(graph, node))
}

func classifyShapeOnly(graph *symgraph.SymbolGraph, node symgraph.TypeNode) shape {
	s, _, _ := classify(graph, node)
	return s
}

func charKindForShape(s shape) (a2l.CharacteristicKind, bool) {
	switch s {
	case shapeValBlk:
		return a2l.CharValBlk, true
	case shapeCurveInternal, shapeCurveExternal:
		return a2l.CharCurve, true
	case shapeMapInternal, shapeMapExternal:
		return a2l.CharMap, true
	case shapeBlob:
		return 0, false
	default:
		return a2l.CharValue, true
	}
}

func recordLayoutDatatype(s shape) string {
	switch s {
	case shapeCurveInternal, shapeMapInternal, shapeCurveExternal, shapeMapExternal:
		return "FLOAT32_IEEE"
	default:
		return "UBYTE"
	}
}

// selectOrCreateAxisRecordLayout picks (or creates) the RECORD_LAYOUT
// an external AXIS_PTS entity is read through, keyed by its raw storage
// datatype.
func selectOrCreateAxisRecordLayout(mod a2l.Module, datatype string) string {
	name := "A2L_TOOLS_RL_AXIS_" + datatype
	if _, ok := mod.Lookup(a2l.KindRecordLayout, name); ok {
		return name
	}
	mod.Insert(a2l.KindRecordLayout, name, a2l.RecordLayout{Name: name, AxisDatatype: datatype})
	return name
}

func ensureIdentityCompuMethod(mod a2l.Module) {
	if _, ok := mod.Lookup(a2l.KindCompuMethod, identityCompuMethodName); ok {
		return
	}
	mod.Insert(a2l.KindCompuMethod, identityCompuMethodName, a2l.CompuMethod{
		Name: identityCompuMethodName,
		Kind: a2l.CompuIdentity,
	})
}

// selectOrCreateCompuMethod picks TabVerb (backed by a COMPU_TAB of the
// enumerators) for enum types and the shared Identity method for every
// other type, per spec.md §4.5; no Linear method is created, and
// NoCompuMethod is never emitted.
func selectOrCreateCompuMethod(mod a2l.Module, graph *symgraph.SymbolGraph, node symgraph.TypeNode, name string) string {
	if node.Kind != symgraph.KindEnum {
		return identityCompuMethodName
	}

	tabName := "CT_" + name
	entries := make(map[int64]string, len(node.Members))
	for _, m := range node.Members {
		entries[m.EnumValue] = m.Name
	}
	mod.Insert(a2l.KindCompuTab, tabName, a2l.CompuTab{Name: tabName, Entries: entries})

	cmName := "CM_" + name
	mod.Insert(a2l.KindCompuMethod, cmName, a2l.CompuMethod{
		Name:     cmName,
		Kind:     a2l.CompuTabVerb,
		CompuTab: tabName,
	})
	return cmName
}

func writeMeasurement(mod a2l.Module, graph *symgraph.SymbolGraph, res resolver.Resolved, name string, s shape, dims []int64, layout, compuMethod string, policy CreatePolicy) {
	node, _ := graph.Type(res.EffectiveType)
	lo, hi := storageLimits(node)

	meas := a2l.Measurement{
		Name:         name,
		Datatype:     storageDatatype(node),
		CompuMethod:  compuMethod,
		RecordLayout: layout,
		Address:      res.Address,
		AddressHex:   true,
		SymbolLink:   res.QualifiedName,
		LowerLimit:   lo,
		UpperLimit:   hi,
		ArrayDims:    dims,
	}
	if res.HasBitMask {
		meas.HasBitMask = true
		meas.BitMask = mirrorBitMaskIfNeeded(res.BitMask, node.ByteSize, policy.BigEndianTarget)
	}

	if existing, ok := mod.Lookup(a2l.KindMeasurement, name); ok {
		if old, ok := existing.(a2l.Measurement); ok && old.HasBitMask && !meas.HasBitMask {
			meas.HasBitMask = true
			meas.BitMask = old.BitMask
		}
	}

	mod.Insert(a2l.KindMeasurement, name, meas)
	attachToGroup(mod, policy.TargetGroup, a2l.KindMeasurement, name)
}

func writeCharacteristic(mod a2l.Module, graph *symgraph.SymbolGraph, node symgraph.TypeNode, res resolver.Resolved, name string, s shape, dims []int64, layout, compuMethod string, policy CreatePolicy) {
	lo, hi := storageLimits(node)

	kind, _ := charKindForShape(s)

	if s == shapeBlob {
		mod.Insert(a2l.KindBlob, name, a2l.Blob{
			Name:    name,
			Address: res.Address,
			Size:    node.ByteSize,
		})
		attachToGroup(mod, policy.TargetGroup, a2l.KindBlob, name)
		return
	}

	ch := a2l.Characteristic{
		Name:         name,
		Kind:         kind,
		RecordLayout: layout,
		CompuMethod:  compuMethod,
		Address:      res.Address,
		AddressHex:   true,
		SymbolLink:   res.QualifiedName,
		LowerLimit:   lo,
		UpperLimit:   hi,
		ArrayDims:    dims,
	}
	if res.HasBitMask {
		ch.HasBitMask = true
		ch.BitMask = mirrorBitMaskIfNeeded(res.BitMask, node.ByteSize, policy.BigEndianTarget)
	}
	if s == shapeCurveExternal || s == shapeMapExternal {
		ch.AxisRefs = synthesizeExternalAxes(mod, graph, dims)
	}

	mod.Insert(a2l.KindCharacteristic, name, ch)
	attachToGroup(mod, policy.TargetGroup, a2l.KindCharacteristic, name)
}

// synthesizeExternalAxes creates (or reuses) one AXIS_PTS entity per
// dims element, named by the external-axis convention, and returns
// their names in MATRIX_DIM order for Characteristic.AxisRefs.
func synthesizeExternalAxes(mod a2l.Module, graph *symgraph.SymbolGraph, dims []int64) []string {
	refs := make([]string, 0, len(dims))
	for i, count := range dims {
		name := axisName(i)
		refs = append(refs, name)

		if _, ok := mod.Lookup(a2l.KindAxisPts, name); ok {
			continue
		}

		sym, ok := graph.Global(name)
		if !ok {
			continue
		}
		elemNode, ok := graph.Type(sym.Type)
		if !ok {
			continue
		}
		maxPts := count
		if elemNode.Kind == symgraph.KindArray {
			if elemNode.HasCount {
				maxPts = elemNode.Count
			}
			if elem, ok := graph.Type(elemNode.Elem); ok {
				elemNode = elem
			}
		}

		datatype := storageDatatype(elemNode)
		layout := selectOrCreateAxisRecordLayout(mod, datatype)
		lo, hi := storageLimits(elemNode)
		mod.Insert(a2l.KindAxisPts, name, a2l.AxisPts{
			Name:         name,
			RecordLayout: layout,
			CompuMethod:  identityCompuMethodName,
			Address:      sym.Address,
			MaxAxisPts:   maxPts,
			LowerLimit:   lo,
			UpperLimit:   hi,
		})
	}
	return refs
}

// writeStructureInstance implements spec.md §4.5's "free struct
// (use_structures=true, A2L >= 1.7.1) -> INSTANCE + TYPEDEF_STRUCTURE"
// row: one TYPEDEF_STRUCTURE per distinct struct shape (reused across
// instances sharing it), and one INSTANCE per resolved symbol.
func writeStructureInstance(mod a2l.Module, graph *symgraph.SymbolGraph, node symgraph.TypeNode, res resolver.Resolved, name string, policy CreatePolicy) {
	typedefName := structTypedefName(node)
	if _, ok := mod.Lookup(a2l.KindTypedefStructure, typedefName); !ok {
		components := make([]a2l.StructureComponent, 0, len(node.Members))
		for _, m := range node.Members {
			memberNode, ok := graph.Type(m.Type)
			if !ok {
				continue
			}
			dims, _ := arrayDims(graph, memberNode)
			components = append(components, a2l.StructureComponent{
				Name:       m.Name,
				TypedefRef: ensureMemberTypedef(mod, graph, memberNode, m.Name, policy.KindHint),
				Offset:     m.ByteOffset,
				ArrayDims:  dims,
			})
		}
		mod.Insert(a2l.KindTypedefStructure, typedefName, a2l.TypedefStructure{
			Name:       typedefName,
			TotalSize:  node.ByteSize,
			Components: components,
		})
	}

	mod.Insert(a2l.KindInstance, name, a2l.Instance{
		Name:        name,
		TypedefName: typedefName,
		Address:     res.Address,
	})

	kind := a2l.KindMeasurement
	if policy.KindHint == HintCharacteristic {
		kind = a2l.KindCharacteristic
	}
	attachToGroup(mod, policy.TargetGroup, kind, name)
}

// structTypedefName keys a TYPEDEF_STRUCTURE by the source struct's tag
// name when one is known, so two globals sharing a struct type share
// one TYPEDEF_STRUCTURE rather than each minting their own.
func structTypedefName(node symgraph.TypeNode) string {
	if node.Name != "" {
		return "TS_" + node.Name
	}
	return fmt.Sprintf("TS_ANON_%d_%d", node.ByteSize, len(node.Members))
}

// ensureMemberTypedef creates (or reuses) the TYPEDEF_MEASUREMENT or
// TYPEDEF_CHARACTERISTIC a TYPEDEF_STRUCTURE component references,
// built from the same shape/layout/COMPU_METHOD selection a top-level
// descriptor would use for the same member type.
func ensureMemberTypedef(mod a2l.Module, graph *symgraph.SymbolGraph, node symgraph.TypeNode, memberName string, hint KindHint) string {
	s, _, _ := classify(graph, node)
	layout := selectOrCreateRecordLayout(mod, s)
	compuMethod := selectOrCreateCompuMethod(mod, graph, node, memberName)

	if hint == HintCharacteristic {
		name := "TDC_" + recordLayoutName(s) + "_" + compuMethod
		if _, ok := mod.Lookup(a2l.KindTypedefCharacteristic, name); !ok {
			kind := a2l.CharValue
			if s == shapeValBlk {
				kind = a2l.CharValBlk
			}
			lo, hi := storageLimits(node)
			mod.Insert(a2l.KindTypedefCharacteristic, name, a2l.TypedefCharacteristic{
				Name:         name,
				Kind:         kind,
				RecordLayout: layout,
				CompuMethod:  compuMethod,
				LowerLimit:   lo,
				UpperLimit:   hi,
			})
		}
		return name
	}

	name := "TDM_" + recordLayoutName(s) + "_" + compuMethod
	if _, ok := mod.Lookup(a2l.KindTypedefMeasurement, name); !ok {
		mod.Insert(a2l.KindTypedefMeasurement, name, a2l.TypedefMeasurement{
			Name:         name,
			Datatype:     storageDatatype(node),
			CompuMethod:  compuMethod,
			RecordLayout: layout,
		})
	}
	return name
}

func attachToGroup(mod a2l.Module, group string, kind a2l.Kind, name string) {
	if group == "" {
		return
	}
	raw, ok := mod.Lookup(a2l.KindGroup, group)
	g, _ := raw.(a2l.Group)
	if !ok {
		g = a2l.Group{Name: group}
	}
	switch kind {
	case a2l.KindMeasurement:
		g.Measurements = append(g.Measurements, name)
	case a2l.KindCharacteristic, a2l.KindBlob:
		g.Characteristics = append(g.Characteristics, name)
	}
	mod.Insert(a2l.KindGroup, group, g)
}

func storageDatatype(node symgraph.TypeNode) string {
	switch node.Encoding {
	case symgraph.EncFloat:
		if node.ByteSize == 8 {
			return "FLOAT64_IEEE"
		}
		return "FLOAT32_IEEE"
	case symgraph.EncUnsignedInt, symgraph.EncUnsignedChar:
		return unsignedDatatype(node.ByteSize)
	case symgraph.EncBoolean:
		return "UBYTE"
	default:
		return signedDatatype(node.ByteSize)
	}
}

func unsignedDatatype(size int64) string {
	switch size {
	case 1:
		return "UBYTE"
	case 2:
		return "UWORD"
	case 8:
		return "UQWORD"
	default:
		return "ULONG"
	}
}

func signedDatatype(size int64) string {
	switch size {
	case 1:
		return "SBYTE"
	case 2:
		return "SWORD"
	case 8:
		return "SQWORD"
	default:
		return "SLONG"
	}
}

// storageLimits computes the representable range of node's storage
// type (spec.md §4.5 Limits). A bit-field's width is not taken into
// account: a bit-field member gets the full range of its storage type.
func storageLimits(node symgraph.TypeNode) (float64, float64) {
	bits := node.ByteSize * 8
	if bits <= 0 {
		bits = 32
	}

	switch node.Encoding {
	case symgraph.EncFloat:
		return -3.402823e38, 3.402823e38
	case symgraph.EncUnsignedInt, symgraph.EncUnsignedChar, symgraph.EncBoolean:
		return 0, float64(uint64(1)<<uint(bits) - 1)
	default:
		max := int64(1)<<uint(bits-1) - 1
		min := -(int64(1) << uint(bits-1))
		return float64(min), float64(max)
	}
}

// mirrorBitMaskIfNeeded applies the big-endian bit-offset mirror
// (spec.md §4.5) if the target is big-endian; the DWARF/PDB readers
// already normalize DW_AT_bit_offset into resolver.Resolved's
// little-endian convention, so this only flips for a BE target's
// storage-unit mirroring at write time. The mask is bit-reversed within
// a storage unit of byteSize bytes (64 bits when the size is unknown).
func mirrorBitMaskIfNeeded(mask uint64, byteSize int64, bigEndian bool) uint64 {
	if !bigEndian {
		return mask
	}
	bits := int(byteSize * 8)
	if bits <= 0 || bits > 64 {
		bits = 64
	}
	var mirrored uint64
	for i := 0; i < bits; i++ {
		if mask&(1<<uint(i)) != 0 {
			mirrored |= 1 << uint(bits-1-i)
		}
	}
	return mirrored
}

// NameForIndex formats a per-element descriptor name when
// arrays_as_blocks=false, honoring old_array_notation (spec.md §4.5
// Array notation).
func NameForIndex(base string, index int, oldNotation bool) string {
	if oldNotation {
		return fmt.Sprintf("%s._%d_", base, index)
	}
	return fmt.Sprintf("%s[%d]", base, index)
}
