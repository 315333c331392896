package a2l

import "testing"

func TestMemModuleInsertLookupRemove(t *testing.T) {
	m := NewMemModule()

	m.Insert(KindMeasurement, "engineSpeed", Measurement{
		Name:     "engineSpeed",
		Datatype: "UWORD",
		Address:  0x8000,
	})

	got, ok := m.Lookup(KindMeasurement, "engineSpeed")
	if !ok {
		t.Fatalf("expected engineSpeed to be found")
	}
	meas, ok := got.(Measurement)
	if !ok {
		t.Fatalf("expected a Measurement, got %T", got)
	}
	if meas.Address != 0x8000 {
		t.Errorf("expected address 0x8000, got 0x%x", meas.Address)
	}

	names := m.Names(KindMeasurement)
	if len(names) != 1 || names[0] != "engineSpeed" {
		t.Errorf("unexpected Names() result: %v", names)
	}

	m.Remove(KindMeasurement, "engineSpeed")
	if _, ok := m.Lookup(KindMeasurement, "engineSpeed"); ok {
		t.Errorf("expected engineSpeed to be removed")
	}
}

func TestMemModuleKindsAreIsolated(t *testing.T) {
	m := NewMemModule()
	m.Insert(KindCharacteristic, "shared", Characteristic{Name: "shared"})
	m.Insert(KindMeasurement, "shared", Measurement{Name: "shared"})

	if _, ok := m.Lookup(KindCharacteristic, "shared"); !ok {
		t.Errorf("expected characteristic 'shared' to exist")
	}
	if _, ok := m.Lookup(KindMeasurement, "shared"); !ok {
		t.Errorf("expected measurement 'shared' to exist")
	}

	m.Remove(KindCharacteristic, "shared")
	if _, ok := m.Lookup(KindMeasurement, "shared"); !ok {
		t.Errorf("removing a characteristic must not remove the same-named measurement")
	}
}
