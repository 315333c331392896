package coordinator

import (
	"testing"

	"github.com/a2l-tools/a2ltool/internal/a2l"
	"github.com/a2l-tools/a2ltool/internal/symgraph"
)

func buildGraph() *symgraph.SymbolGraph {
	g := symgraph.New()
	floatID := g.AddType(symgraph.TypeNode{Kind: symgraph.KindBase, Name: "float", ByteSize: 4, Encoding: symgraph.EncFloat})
	g.AddGlobal(symgraph.GlobalSymbol{Name: "g_rpm", Type: floatID, Address: 0x8000})
	return g
}

func TestRunUpdatesResolvedAddress(t *testing.T) {
	mod := a2l.NewMemModule()
	mod.Insert(a2l.KindMeasurement, "g_rpm", a2l.Measurement{Name: "g_rpm", Datatype: "FLOAT32_IEEE", Address: 0})

	report, err := Run(mod, buildGraph(), Policy{What: Full, Mode: Default})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.Updated) != 1 || report.Updated[0] != "g_rpm" {
		t.Fatalf("expected g_rpm to be updated, got %+v", report)
	}

	raw, _ := mod.Lookup(a2l.KindMeasurement, "g_rpm")
	if raw.(a2l.Measurement).Address != 0x8000 {
		t.Errorf("expected address 0x8000, got 0x%x", raw.(a2l.Measurement).Address)
	}
}

func TestRunDefaultRemovesUnresolved(t *testing.T) {
	mod := a2l.NewMemModule()
	mod.Insert(a2l.KindMeasurement, "g_ghost", a2l.Measurement{Name: "g_ghost"})
	mod.Insert(a2l.KindGroup, "Engine", a2l.Group{Name: "Engine", Measurements: []string{"g_ghost"}})

	report, err := Run(mod, buildGraph(), Policy{What: Full, Mode: Default})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.Removed) != 1 || report.Removed[0] != "g_ghost" {
		t.Fatalf("expected g_ghost to be removed, got %+v", report)
	}
	if _, ok := mod.Lookup(a2l.KindMeasurement, "g_ghost"); ok {
		t.Errorf("expected g_ghost descriptor to be gone")
	}

	raw, _ := mod.Lookup(a2l.KindGroup, "Engine")
	if len(raw.(a2l.Group).Measurements) != 0 {
		t.Errorf("expected g_ghost reference dropped from group, got %+v", raw.(a2l.Group).Measurements)
	}
}

func TestRunPreserveZeroesUnresolved(t *testing.T) {
	mod := a2l.NewMemModule()
	mod.Insert(a2l.KindMeasurement, "g_ghost", a2l.Measurement{Name: "g_ghost", Address: 0x99})

	report, err := Run(mod, buildGraph(), Policy{What: Full, Mode: Preserve})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.Zeroed) != 1 {
		t.Fatalf("expected g_ghost to be zeroed, got %+v", report)
	}

	raw, ok := mod.Lookup(a2l.KindMeasurement, "g_ghost")
	if !ok {
		t.Fatalf("expected descriptor to still exist in Preserve mode")
	}
	if raw.(a2l.Measurement).Address != 0 {
		t.Errorf("expected address zeroed, got 0x%x", raw.(a2l.Measurement).Address)
	}
}

func TestRunStrictRejectsUnresolved(t *testing.T) {
	mod := a2l.NewMemModule()
	mod.Insert(a2l.KindMeasurement, "g_ghost", a2l.Measurement{Name: "g_ghost"})

	if _, err := Run(mod, buildGraph(), Policy{What: Full, Mode: Strict}); err == nil {
		t.Fatalf("expected Strict mode to return an error for an unresolved descriptor")
	}
}

func TestRunHonorsSymbolPrefix(t *testing.T) {
	mod := a2l.NewMemModule()
	mod.Insert(a2l.KindMeasurement, "rpm", a2l.Measurement{Name: "rpm", Datatype: "FLOAT32_IEEE"})

	report, err := Run(mod, buildGraph(), Policy{What: Full, Mode: Default, SymbolPrefix: "g_"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.Updated) != 1 {
		t.Fatalf("expected prefixed symbol reference to resolve, got %+v", report)
	}
}

func TestRunAddressesOnlyLeavesBitMaskUntouched(t *testing.T) {
	mod := a2l.NewMemModule()
	mod.Insert(a2l.KindMeasurement, "g_rpm", a2l.Measurement{Name: "g_rpm", Datatype: "FLOAT32_IEEE", HasBitMask: true, BitMask: 0xFF})

	report, err := Run(mod, buildGraph(), Policy{What: AddressesOnly, Mode: Default})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.Updated) != 1 {
		t.Fatalf("expected g_rpm to be updated, got %+v", report)
	}

	raw, _ := mod.Lookup(a2l.KindMeasurement, "g_rpm")
	if raw.(a2l.Measurement).BitMask != 0xFF {
		t.Errorf("expected bit mask preserved under AddressesOnly, got 0x%x", raw.(a2l.Measurement).BitMask)
	}
}

func TestRunDefaultWarnsOnDatatypeMismatch(t *testing.T) {
	mod := a2l.NewMemModule()
	mod.Insert(a2l.KindMeasurement, "g_rpm", a2l.Measurement{Name: "g_rpm", Datatype: "UBYTE"})

	report, err := Run(mod, buildGraph(), Policy{What: Full, Mode: Default})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.Updated) != 1 || report.Updated[0] != "g_rpm" {
		t.Fatalf("expected g_rpm to still be updated despite the mismatch, got %+v", report)
	}
	if len(report.Warned) != 1 {
		t.Fatalf("expected a type-mismatch warning, got %+v", report.Warned)
	}

	raw, _ := mod.Lookup(a2l.KindMeasurement, "g_rpm")
	if raw.(a2l.Measurement).Address != 0x8000 {
		t.Errorf("expected address still updated, got 0x%x", raw.(a2l.Measurement).Address)
	}
}

func TestRunStrictRejectsDatatypeMismatch(t *testing.T) {
	mod := a2l.NewMemModule()
	mod.Insert(a2l.KindMeasurement, "g_rpm", a2l.Measurement{Name: "g_rpm", Datatype: "UBYTE"})

	if _, err := Run(mod, buildGraph(), Policy{What: Full, Mode: Strict}); err == nil {
		t.Fatalf("expected Strict mode to reject a resolved symbol whose datatype changed underneath it")
	}
}

func TestRunStrictRejectsCharacteristicKindMismatch(t *testing.T) {
	mod := a2l.NewMemModule()
	mod.Insert(a2l.KindCharacteristic, "g_rpm", a2l.Characteristic{Name: "g_rpm", Kind: a2l.CharValBlk})

	if _, err := Run(mod, buildGraph(), Policy{What: Full, Mode: Strict}); err == nil {
		t.Fatalf("expected Strict mode to reject a scalar symbol resolved against a ValBlk descriptor")
	}
}
