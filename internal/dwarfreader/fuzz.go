package dwarfreader

import "encoding/binary"

// fuzzImage feeds raw fuzz data in as .debug_info with every other
// section empty, the smallest binimage.LoadedImage that can drive Read.
type fuzzImage struct {
	info []byte
}

func (f *fuzzImage) ByteOrder() binary.ByteOrder { return binary.LittleEndian }
func (f *fuzzImage) AddressSize() int            { return 8 }
func (f *fuzzImage) ImageBase() uint64           { return 0 }
func (f *fuzzImage) SectionNames() []string      { return []string{secInfo} }

func (f *fuzzImage) SectionBytes(name string) ([]byte, bool) {
	if name == secInfo {
		return f.info, true
	}
	return nil, false
}

func (f *fuzzImage) SectionAddressRange(name string) (uint64, uint64, bool) {
	return 0, 0, false
}

func (f *fuzzImage) DebugRef() (string, bool) { return "", false }
func (f *fuzzImage) Close() error             { return nil }

func Fuzz(data []byte) int {
	_, err := Read(&fuzzImage{info: data})
	if err != nil {
		return 0
	}
	return 1
}
