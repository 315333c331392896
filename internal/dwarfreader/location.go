package dwarfreader

// DWARF location-expression opcodes relevant to a static global's
// address; every other opcode implies a register- or frame-relative
// value, which cannot name a global symbol and is treated as
// unresolvable here.
const (
	opAddr  = 0x03 // DW_OP_addr: immediate target-address-sized literal
	opAddrx = 0xa1 // DW_OP_addrx: ULEB128 index into .debug_addr (DWARF5)
)

// globalAddress decodes the narrow subset of DW_AT_location expression
// forms that a global variable's fixed address can take: a direct
// DW_OP_addr literal, or a DWARF5 DW_OP_addrx index into the
// .debug_addr table. Anything else (register locations, computed
// expressions) is not a static global and is reported as unresolved.
func globalAddress(loc []byte, addrSection []byte, ptrSize int) (uint64, bool) {
	if len(loc) == 0 {
		return 0, false
	}

	switch loc[0] {
	case opAddr:
		return readUint(loc[1:], ptrSize)

	case opAddrx:
		idx, _, ok := readULEB128(loc[1:])
		if !ok {
			return 0, false
		}
		return addrFromTable(addrSection, idx, ptrSize)

	default:
		return 0, false
	}
}

// addrFromTable resolves a .debug_addr index to an address. The
// section begins with an 8-byte DWARF5 header (unit_length is assumed
// 32-bit DWARF here, the overwhelming common case for the targets this
// engine reconciles against): 4-byte length, 2-byte version, 1-byte
// address size, 1-byte segment selector size, followed by the address
// table itself.
func addrFromTable(section []byte, index uint64, ptrSize int) (uint64, bool) {
	const headerSize = 8
	offset := headerSize + int(index)*ptrSize
	if offset < 0 || offset+ptrSize > len(section) {
		return 0, false
	}
	return readUint(section[offset:], ptrSize)
}

func readUint(b []byte, size int) (uint64, bool) {
	if len(b) < size {
		return 0, false
	}
	var v uint64
	for i := 0; i < size; i++ {
		v |= uint64(b[i]) << (8 * uint(i))
	}
	return v, true
}

// readULEB128 decodes an unsigned LEB128 value starting at b[0],
// returning the value, the number of bytes consumed, and whether
// decoding succeeded.
func readULEB128(b []byte) (uint64, int, bool) {
	var result uint64
	var shift uint
	for i, byt := range b {
		result |= uint64(byt&0x7f) << shift
		if byt&0x80 == 0 {
			return result, i + 1, true
		}
		shift += 7
		if shift >= 64 {
			return 0, 0, false
		}
	}
	return 0, 0, false
}
