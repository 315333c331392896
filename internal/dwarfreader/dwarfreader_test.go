package dwarfreader

import "testing"

func TestGlobalAddressDirectOp(t *testing.T) {
	loc := []byte{opAddr, 0x00, 0x10, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	addr, ok := globalAddress(loc, nil, 8)
	if !ok {
		t.Fatalf("expected DW_OP_addr to decode")
	}
	if addr != 0x1000 {
		t.Errorf("expected address 0x1000, got 0x%x", addr)
	}
}

func TestGlobalAddressViaAddrxTable(t *testing.T) {
	// 8-byte DWARF5 .debug_addr header, then two 4-byte table entries.
	section := []byte{
		0, 0, 0, 0, 0, 0, 0, 0, // header (unused by addrFromTable)
		0x00, 0x20, 0x00, 0x00, // index 0 -> 0x2000
		0x00, 0x30, 0x00, 0x00, // index 1 -> 0x3000
	}
	loc := []byte{opAddrx, 0x01}

	addr, ok := globalAddress(loc, section, 4)
	if !ok {
		t.Fatalf("expected DW_OP_addrx to decode")
	}
	if addr != 0x3000 {
		t.Errorf("expected address 0x3000, got 0x%x", addr)
	}
}

func TestGlobalAddressRejectsNonStaticExpr(t *testing.T) {
	loc := []byte{0x91, 0x00} // DW_OP_fbreg, not a static address
	if _, ok := globalAddress(loc, nil, 8); ok {
		t.Errorf("expected a frame-relative expression to be rejected")
	}
}

func TestLsbBitOffsetMirrorsMSBConvention(t *testing.T) {
	// A 3-bit field at MSB-relative offset 29 within a 4-byte (32-bit)
	// storage unit should land at LSB-relative offset 0.
	got := lsbBitOffset(4, 29, 3)
	if got != 0 {
		t.Errorf("expected lsb offset 0, got %d", got)
	}
}

func TestDemangleMSRecoversQualifiedName(t *testing.T) {
	got := demangleMS("?value@Curve@@2MA")
	if got != "Curve::value" {
		t.Errorf("expected Curve::value, got %s", got)
	}
}

func TestDemangleMSFallsBackWhenUnrecognized(t *testing.T) {
	got := demangleMS("?weird_no_double_at")
	if got != "?weird_no_double_at" {
		t.Errorf("expected unchanged fallback, got %s", got)
	}
}

func TestDemangleLeavesPlainCNamesUnchanged(t *testing.T) {
	if got := demangle("g_rpm"); got != "g_rpm" {
		t.Errorf("expected plain C name unchanged, got %s", got)
	}
}
