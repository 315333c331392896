package binimage

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"os"

	mmap "github.com/edsrzf/mmap-go"
)

// elfImage adapts *elf.File to the LoadedImage contract.
type elfImage struct {
	ef   *elf.File
	data mmap.MMap
	f    *os.File
}

// OpenELF memory-maps path and parses it as an ELF image.
func OpenELF(path string) (LoadedImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ErrUnreadableFile
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, ErrUnreadableFile
	}

	ef, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		data.Unmap()
		f.Close()
		return nil, ErrUnsupportedContainer
	}

	return &elfImage{ef: ef, data: data, f: f}, nil
}

func (e *elfImage) ByteOrder() binary.ByteOrder {
	if e.ef.Data == elf.ELFDATA2MSB {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (e *elfImage) AddressSize() int {
	if e.ef.Class == elf.ELFCLASS64 {
		return 8
	}
	return 4
}

func (e *elfImage) ImageBase() uint64 {
	for _, prog := range e.ef.Progs {
		if prog.Type == elf.PT_LOAD {
			return prog.Vaddr - prog.Vaddr%prog.Align
		}
	}
	return 0
}

func (e *elfImage) SectionNames() []string {
	names := make([]string, 0, len(e.ef.Sections))
	for _, s := range e.ef.Sections {
		names = append(names, s.Name)
	}
	return names
}

func (e *elfImage) SectionBytes(name string) ([]byte, bool) {
	s := e.ef.Section(name)
	if s == nil {
		return nil, false
	}
	b, err := s.Data()
	if err != nil {
		return nil, false
	}
	return b, true
}

// SectionAddressRange reports name's absolute virtual address range.
// ELF section addresses are already absolute, unlike a PE's image-base-
// relative virtual addresses.
func (e *elfImage) SectionAddressRange(name string) (uint64, uint64, bool) {
	s := e.ef.Section(name)
	if s == nil || s.Addr == 0 {
		return 0, 0, false
	}
	return s.Addr, s.Addr + s.Size, true
}

// DebugRef is always empty for ELF: DWARF sections live inline in the
// image, there is no sidecar path to cross-check.
func (e *elfImage) DebugRef() (string, bool) { return "", false }

func (e *elfImage) Close() error {
	_ = e.data.Unmap()
	return e.f.Close()
}
