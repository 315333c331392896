package synth

import (
	"testing"

	"github.com/a2l-tools/a2ltool/internal/a2l"
	"github.com/a2l-tools/a2ltool/internal/resolver"
	"github.com/a2l-tools/a2ltool/internal/symgraph"
)

func scalarGraph(t *testing.T) (*symgraph.SymbolGraph, symgraph.TypeId) {
	t.Helper()
	g := symgraph.New()
	floatID := g.AddType(symgraph.TypeNode{Kind: symgraph.KindBase, Name: "float", ByteSize: 4, Encoding: symgraph.EncFloat})
	g.AddGlobal(symgraph.GlobalSymbol{Name: "g_temp", Type: floatID, Address: 0x2000})
	return g, floatID
}

func TestSynthesizeScalarMeasurement(t *testing.T) {
	g, _ := scalarGraph(t)
	res, err := resolver.Resolve(g, "g_temp")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	mod := a2l.NewMemModule()
	incomplete, err := Synthesize(g, res, "g_temp", CreatePolicy{KindHint: HintMeasurement}, mod)
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if incomplete {
		t.Errorf("scalar measurement should not be marked incomplete")
	}

	raw, ok := mod.Lookup(a2l.KindMeasurement, "g_temp")
	if !ok {
		t.Fatalf("expected a MEASUREMENT named g_temp")
	}
	m := raw.(a2l.Measurement)
	if m.Datatype != "FLOAT32_IEEE" {
		t.Errorf("expected FLOAT32_IEEE datatype, got %s", m.Datatype)
	}
	if m.Address != 0x2000 {
		t.Errorf("unexpected address 0x%x", m.Address)
	}
	if !m.AddressHex {
		t.Errorf("expected hex address display")
	}
}

func TestSynthesizeArrayBecomesValBlk(t *testing.T) {
	g := symgraph.New()
	intID := g.AddType(symgraph.TypeNode{Kind: symgraph.KindBase, Name: "int", ByteSize: 4, Encoding: symgraph.EncSignedInt})
	arrID := g.AddType(symgraph.TypeNode{Kind: symgraph.KindArray, Elem: intID, HasCount: true, Count: 8})
	g.AddGlobal(symgraph.GlobalSymbol{Name: "g_table", Type: arrID, Address: 0x3000})

	res, err := resolver.Resolve(g, "g_table")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	mod := a2l.NewMemModule()
	if _, err := Synthesize(g, res, "g_table", CreatePolicy{KindHint: HintCharacteristic}, mod); err != nil {
		t.Fatalf("synthesize: %v", err)
	}

	raw, ok := mod.Lookup(a2l.KindCharacteristic, "g_table")
	if !ok {
		t.Fatalf("expected a CHARACTERISTIC named g_table")
	}
	c := raw.(a2l.Characteristic)
	if c.Kind != a2l.CharValBlk {
		t.Errorf("expected CharValBlk, got %v", c.Kind)
	}
	if len(c.ArrayDims) != 1 || c.ArrayDims[0] != 8 {
		t.Errorf("expected MATRIX_DIM [8], got %v", c.ArrayDims)
	}
}

func TestSynthesizeIncompleteArrayFlagsMissingBound(t *testing.T) {
	g := symgraph.New()
	intID := g.AddType(symgraph.TypeNode{Kind: symgraph.KindBase, Name: "int", ByteSize: 4, Encoding: symgraph.EncSignedInt})
	arrID := g.AddType(symgraph.TypeNode{Kind: symgraph.KindArray, Elem: intID, HasCount: false})
	g.AddGlobal(symgraph.GlobalSymbol{Name: "g_flex", Type: arrID, Address: 0x4000})

	res, err := resolver.Resolve(g, "g_flex")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	mod := a2l.NewMemModule()
	incomplete, err := Synthesize(g, res, "g_flex", CreatePolicy{KindHint: HintCharacteristic}, mod)
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if !incomplete {
		t.Errorf("expected missing upper bound to flag Incomplete")
	}
}

func TestSynthesizeEnumCreatesCompuTab(t *testing.T) {
	g := symgraph.New()
	enumID := g.AddType(symgraph.TypeNode{
		Kind:     symgraph.KindEnum,
		Name:     "Mode",
		ByteSize: 4,
		Members: []symgraph.Member{
			{Name: "MODE_OFF", EnumValue: 0},
			{Name: "MODE_ON", EnumValue: 1},
		},
	})
	g.AddGlobal(symgraph.GlobalSymbol{Name: "g_mode", Type: enumID, Address: 0x5000})

	res, err := resolver.Resolve(g, "g_mode")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	mod := a2l.NewMemModule()
	if _, err := Synthesize(g, res, "g_mode", CreatePolicy{KindHint: HintMeasurement}, mod); err != nil {
		t.Fatalf("synthesize: %v", err)
	}

	if _, ok := mod.Lookup(a2l.KindCompuTab, "CT_g_mode"); !ok {
		t.Errorf("expected a COMPU_TAB named CT_g_mode")
	}
	raw, ok := mod.Lookup(a2l.KindMeasurement, "g_mode")
	if !ok {
		t.Fatalf("expected a MEASUREMENT named g_mode")
	}
	if raw.(a2l.Measurement).CompuMethod != "CM_g_mode" {
		t.Errorf("expected CM_g_mode compu method, got %s", raw.(a2l.Measurement).CompuMethod)
	}
}

func TestSynthesizeBitFieldSetsMask(t *testing.T) {
	g := symgraph.New()
	intID := g.AddType(symgraph.TypeNode{Kind: symgraph.KindBase, Name: "int", ByteSize: 4, Encoding: symgraph.EncSignedInt})
	structID := g.AddType(symgraph.TypeNode{
		Kind:     symgraph.KindStruct,
		Name:     "Flags",
		ByteSize: 4,
		Members: []symgraph.Member{
			{Name: "enabled", Type: intID, ByteOffset: 0, BitSize: 1, BitOffset: 0},
		},
	})
	g.AddGlobal(symgraph.GlobalSymbol{Name: "g_flags", Type: structID, Address: 0x6000})

	res, err := resolver.Resolve(g, "g_flags.enabled")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	mod := a2l.NewMemModule()
	if _, err := Synthesize(g, res, "g_flags_enabled", CreatePolicy{KindHint: HintMeasurement}, mod); err != nil {
		t.Fatalf("synthesize: %v", err)
	}

	raw, ok := mod.Lookup(a2l.KindMeasurement, "g_flags_enabled")
	if !ok {
		t.Fatalf("expected a MEASUREMENT named g_flags_enabled")
	}
	m := raw.(a2l.Measurement)
	if !m.HasBitMask || m.BitMask != 1 {
		t.Errorf("expected bit mask 1, got hasMask=%v mask=%b", m.HasBitMask, m.BitMask)
	}
}

func TestSynthesizeFreeStructUsesStructures(t *testing.T) {
	g := symgraph.New()
	intID := g.AddType(symgraph.TypeNode{Kind: symgraph.KindBase, Name: "int", ByteSize: 4, Encoding: symgraph.EncSignedInt})
	floatID := g.AddType(symgraph.TypeNode{Kind: symgraph.KindBase, Name: "float", ByteSize: 4, Encoding: symgraph.EncFloat})
	structID := g.AddType(symgraph.TypeNode{
		Kind:     symgraph.KindStruct,
		Name:     "Config",
		ByteSize: 8,
		Members: []symgraph.Member{
			{Name: "count", Type: intID, ByteOffset: 0},
			{Name: "scale", Type: floatID, ByteOffset: 4},
		},
	})
	g.AddGlobal(symgraph.GlobalSymbol{Name: "g_config", Type: structID, Address: 0x7000})

	res, err := resolver.Resolve(g, "g_config")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	mod := a2l.NewMemModule()
	policy := CreatePolicy{KindHint: HintMeasurement, UseStructures: true}
	if _, err := Synthesize(g, res, "g_config", policy, mod); err != nil {
		t.Fatalf("synthesize: %v", err)
	}

	// A free struct must not fall back to BLOB when use_structures is set.
	if _, ok := mod.Lookup(a2l.KindBlob, "g_config"); ok {
		t.Errorf("expected no BLOB for g_config under use_structures")
	}

	raw, ok := mod.Lookup(a2l.KindInstance, "g_config")
	if !ok {
		t.Fatalf("expected an INSTANCE named g_config")
	}
	inst := raw.(a2l.Instance)
	if inst.Address != 0x7000 {
		t.Errorf("unexpected instance address 0x%x", inst.Address)
	}
	if inst.TypedefName != "TS_Config" {
		t.Errorf("expected typedef TS_Config, got %s", inst.TypedefName)
	}

	tdRaw, ok := mod.Lookup(a2l.KindTypedefStructure, "TS_Config")
	if !ok {
		t.Fatalf("expected a TYPEDEF_STRUCTURE named TS_Config")
	}
	td := tdRaw.(a2l.TypedefStructure)
	if len(td.Components) != 2 {
		t.Fatalf("expected 2 components, got %d", len(td.Components))
	}
	for _, c := range td.Components {
		if c.TypedefRef == "" {
			t.Errorf("component %s missing a TypedefRef", c.Name)
		}
		if _, ok := mod.Lookup(a2l.KindTypedefMeasurement, c.TypedefRef); !ok {
			t.Errorf("expected a TYPEDEF_MEASUREMENT named %s", c.TypedefRef)
		}
	}
}

func TestSynthesizeExternalAxisCurveEmitsAxisPts(t *testing.T) {
	g := symgraph.New()
	floatID := g.AddType(symgraph.TypeNode{Kind: symgraph.KindBase, Name: "float", ByteSize: 4, Encoding: symgraph.EncFloat})
	valueArrID := g.AddType(symgraph.TypeNode{Kind: symgraph.KindArray, Elem: floatID, HasCount: true, Count: 5})
	curveID := g.AddType(symgraph.TypeNode{
		Kind:     symgraph.KindStruct,
		Name:     "Curve5",
		ByteSize: 20,
		Members: []symgraph.Member{
			{Name: "value", Type: valueArrID, ByteOffset: 0},
		},
	})
	g.AddGlobal(symgraph.GlobalSymbol{Name: "g_curve", Type: curveID, Address: 0x9000})
	g.AddGlobal(symgraph.GlobalSymbol{Name: "Axis_1", Type: valueArrID, Address: 0x9100})

	res, err := resolver.Resolve(g, "g_curve")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	mod := a2l.NewMemModule()
	if _, err := Synthesize(g, res, "g_curve", CreatePolicy{KindHint: HintCharacteristic}, mod); err != nil {
		t.Fatalf("synthesize: %v", err)
	}

	raw, ok := mod.Lookup(a2l.KindCharacteristic, "g_curve")
	if !ok {
		t.Fatalf("expected a CHARACTERISTIC named g_curve")
	}
	c := raw.(a2l.Characteristic)
	if c.Kind != a2l.CharCurve {
		t.Errorf("expected CharCurve, got %v", c.Kind)
	}
	if len(c.ArrayDims) != 1 || c.ArrayDims[0] != 5 {
		t.Errorf("expected MATRIX_DIM [5], got %v", c.ArrayDims)
	}
	if len(c.AxisRefs) != 1 || c.AxisRefs[0] != "Axis_1" {
		t.Fatalf("expected a single AxisRef Axis_1, got %v", c.AxisRefs)
	}

	axisRaw, ok := mod.Lookup(a2l.KindAxisPts, "Axis_1")
	if !ok {
		t.Fatalf("expected an AXIS_PTS named Axis_1")
	}
	axis := axisRaw.(a2l.AxisPts)
	if axis.Address != 0x9100 {
		t.Errorf("unexpected axis address 0x%x", axis.Address)
	}
	if axis.MaxAxisPts != 5 {
		t.Errorf("expected MaxAxisPts 5, got %d", axis.MaxAxisPts)
	}
}

func TestNameForIndexNotation(t *testing.T) {
	if got := NameForIndex("g_table", 3, true); got != "g_table._3_" {
		t.Errorf("expected legacy notation, got %s", got)
	}
	if got := NameForIndex("g_table", 3, false); got != "g_table[3]" {
		t.Errorf("expected modern notation, got %s", got)
	}
}
