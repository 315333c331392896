package dwarfreader

// lsbBitOffset converts stdlib debug/dwarf's bit-field convention
// (BitOffset counts from the most significant bit of ByteSize bytes
// starting at ByteOffset, per the Go documentation for
// dwarf.StructField) into symgraph.Member's little-endian-reader
// convention the Name Resolver and Synthesizer expect (spec.md §4.2's
// "normalize once, in the DWARF reader").
func lsbBitOffset(byteSize, msbBitOffset, bitSize int64) int {
	storageBits := byteSize * 8
	lsb := storageBits - msbBitOffset - bitSize
	if lsb < 0 {
		lsb = 0
	}
	return int(lsb)
}
