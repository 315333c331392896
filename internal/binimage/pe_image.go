package binimage

import "encoding/binary"

// peImage adapts *File to the LoadedImage contract.
type peImage struct {
	f *File
}

func (p *peImage) ByteOrder() binary.ByteOrder { return binary.LittleEndian }

func (p *peImage) AddressSize() int {
	if p.f.Is64 {
		return 8
	}
	return 4
}

func (p *peImage) ImageBase() uint64 {
	if p.f.Is64 {
		return p.f.NtHeader.OptionalHeader.(ImageOptionalHeader64).ImageBase
	}
	return uint64(p.f.NtHeader.OptionalHeader.(ImageOptionalHeader32).ImageBase)
}

func (p *peImage) SectionNames() []string {
	names := make([]string, 0, len(p.f.Sections))
	for _, s := range p.f.Sections {
		names = append(names, s.String())
	}
	return names
}

func (p *peImage) SectionBytes(name string) ([]byte, bool) {
	for i := range p.f.Sections {
		s := &p.f.Sections[i]
		if s.String() == name {
			return s.Data(0, 0, p.f), true
		}
	}
	return nil, false
}

// SectionAddressRange reports name's absolute virtual address range:
// the section's RVA plus the image's own preferred load address (spec.md
// §4.1: "relative virtual addresses are combined with the image base to
// produce absolute addresses").
func (p *peImage) SectionAddressRange(name string) (uint64, uint64, bool) {
	for i := range p.f.Sections {
		s := &p.f.Sections[i]
		if s.String() != name {
			continue
		}
		base := p.ImageBase()
		start := base + uint64(s.Header.VirtualAddress)
		return start, start + uint64(s.Header.VirtualSize), true
	}
	return 0, 0, false
}

func (p *peImage) DebugRef() (string, bool) {
	for _, d := range p.f.Debugs {
		switch info := d.Info.(type) {
		case CVInfoPDB70:
			return info.PDBFileName, true
		case CVInfoPDB20:
			return info.PDBFileName, true
		}
	}
	return "", false
}

func (p *peImage) Close() error { return p.f.Close() }
