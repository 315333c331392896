package binimage

import (
	"encoding/binary"
	"os"
)

// LoadedImage is the contract the Debug-Info Reader consumes, regardless
// of whether the underlying container was an ELF or a PE/COFF image.
type LoadedImage interface {
	// ByteOrder reports the image's byte order.
	ByteOrder() binary.ByteOrder

	// AddressSize reports the size, in bytes, of a pointer in this
	// image: 4 or 8.
	AddressSize() int

	// ImageBase reports the preferred load address recorded in the
	// image headers.
	ImageBase() uint64

	// SectionNames lists every section present in the image.
	SectionNames() []string

	// SectionBytes returns the raw bytes of the named section, and
	// whether it is present at all.
	SectionBytes(name string) ([]byte, bool)

	// SectionAddressRange returns the named section's absolute virtual
	// address range [start, end), and whether it is present at all.
	SectionAddressRange(name string) (start, end uint64, ok bool)

	// DebugRef reports the path of a debug-info sidecar referenced by
	// the image, if any (the PE Debug Directory's CodeView RSDS path
	// for a PE; empty for an ELF, whose DWARF sections live inline).
	// It is a diagnostic cross-check only; callers must still supply
	// the debug-info path explicitly.
	DebugRef() (path string, ok bool)

	// Close releases the underlying mapping.
	Close() error
}

// Open loads path, sniffing the container format from its leading
// bytes, and returns a LoadedImage backed by the ELF or PE/COFF reader.
func Open(path string, opts *Options) (LoadedImage, error) {
	magic, err := peekMagic(path)
	if err != nil {
		return nil, ErrUnreadableFile
	}

	switch {
	case isELFMagic(magic):
		return OpenELF(path)
	case isPEMagic(magic):
		f, err := New(path, opts)
		if err != nil {
			return nil, ErrUnreadableFile
		}
		if err := f.Parse(); err != nil {
			f.Close()
			return nil, ErrUnreadableFile
		}
		return &peImage{f}, nil
	default:
		return nil, ErrUnsupportedContainer
	}
}

func peekMagic(path string) ([4]byte, error) {
	var magic [4]byte
	f, err := os.Open(path)
	if err != nil {
		return magic, err
	}
	defer f.Close()
	_, err = f.Read(magic[:])
	return magic, err
}

func isELFMagic(magic [4]byte) bool {
	return magic[0] == 0x7f && magic[1] == 'E' && magic[2] == 'L' && magic[3] == 'F'
}

func isPEMagic(magic [4]byte) bool {
	return uint16(magic[0])|uint16(magic[1])<<8 == ImageDOSSignature
}
