package binimage

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// buildMinimalPE64 assembles a minimal well-formed PE32+ image in memory:
// a DOS header, an NT header whose data directory entries are all left
// zero (no Debug Directory), and one .text section.
func buildMinimalPE64(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer

	dos := ImageDOSHeader{
		Magic:                 ImageDOSSignature,
		AddressOfNewEXEHeader: 0x80,
	}
	binary.Write(&buf, binary.LittleEndian, dos)
	buf.Write(make([]byte, int(dos.AddressOfNewEXEHeader)-buf.Len()))

	buf.Write([]byte{'P', 'E', 0, 0})

	fh := ImageFileHeader{
		Machine:              ImageFileHeaderMachineType(ImageFileMachineAMD64),
		NumberOfSections:     1,
		SizeOfOptionalHeader: uint16(binary.Size(ImageOptionalHeader64{})),
		Characteristics:      ImageFileHeaderCharacteristicsType(ImageFileExecutableImage),
	}
	binary.Write(&buf, binary.LittleEndian, fh)

	oh := ImageOptionalHeader64{
		Magic:               ImageNtOptionalHeader64Magic,
		SectionAlignment:    0x1000,
		FileAlignment:       0x200,
		ImageBase:           0x140000000,
		SizeOfImage:         0x3000,
		SizeOfHeaders:       0x200,
		NumberOfRvaAndSizes: ImageNumberOfDirectoryEntries,
	}
	binary.Write(&buf, binary.LittleEndian, oh)

	sec := ImageSectionHeader{
		VirtualSize:      0x1000,
		VirtualAddress:   0x1000,
		SizeOfRawData:    0x200,
		PointerToRawData: 0x400,
	}
	copy(sec.Name[:], ".text")
	binary.Write(&buf, binary.LittleEndian, sec)

	for buf.Len() < 0x400 {
		buf.WriteByte(0)
	}
	buf.Write(make([]byte, 0x200))

	return buf.Bytes()
}

func TestParseMinimalPE64(t *testing.T) {
	data := buildMinimalPE64(t)

	f, err := NewBytes(data, &Options{Fast: true})
	if err != nil {
		t.Fatalf("NewBytes failed: %v", err)
	}
	defer f.Close()

	if err := f.Parse(); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if !f.Is64 {
		t.Errorf("expected Is64 = true")
	}
	if !f.HasNTHdr {
		t.Errorf("expected HasNTHdr = true")
	}
}

func TestParseDOSHeaderRejectsBadMagic(t *testing.T) {
	data := make([]byte, 128)
	binary.LittleEndian.PutUint16(data[0:2], 0x1234)
	binary.LittleEndian.PutUint32(data[0x3c:0x40], 0x40)

	f, err := NewBytes(data, nil)
	if err != nil {
		t.Fatalf("NewBytes failed: %v", err)
	}
	defer f.Close()

	if err := f.ParseDOSHeader(); err != ErrDOSMagicNotFound {
		t.Fatalf("expected ErrDOSMagicNotFound, got %v", err)
	}
}
