package pdbreader

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// msfMagic is the classic MSF 7.0 superblock signature every modern
// .pdb file starts with, padded to 32 bytes.
var msfMagic = []byte("Microsoft C/C++ MSF 7.00\r\n\x1aDS\x00\x00\x00")

// msfFile is a parsed Multi-Stream Format container: the page-indexed
// container every .pdb file uses to hold its numbered streams (TPI,
// DBI, global symbols, ...).
type msfFile struct {
	pageSize int
	streams  [][]byte
}

// openMSF parses the MSF superblock and stream directory out of a raw
// .pdb file's bytes and slices out every stream's bytes contiguously.
func openMSF(raw []byte) (*msfFile, error) {
	if len(raw) < len(msfMagic)+4*7 {
		return nil, fmt.Errorf("pdbreader: file too small for an MSF superblock")
	}
	if !bytes.Equal(raw[:len(msfMagic)], msfMagic) {
		return nil, fmt.Errorf("pdbreader: not an MSF container (bad magic)")
	}

	off := len(msfMagic)
	pageSize := int(binary.LittleEndian.Uint32(raw[off:]))
	off += 4
	off += 4 // FreePageMap, unused
	numPages := int(binary.LittleEndian.Uint32(raw[off:]))
	off += 4
	dirSize := int(binary.LittleEndian.Uint32(raw[off:]))
	off += 4
	off += 4 // Unknown/reserved
	dirRootPage := int(binary.LittleEndian.Uint32(raw[off:]))

	if pageSize <= 0 || numPages <= 0 {
		return nil, fmt.Errorf("pdbreader: invalid MSF superblock page geometry")
	}

	page := func(n int) ([]byte, error) {
		start := n * pageSize
		if n < 0 || start+pageSize > len(raw) {
			return nil, fmt.Errorf("pdbreader: page %d out of range", n)
		}
		return raw[start : start+pageSize], nil
	}

	// The stream directory itself may span multiple pages; its own page
	// list is stored in the "directory root page list" page(s).
	dirPageCount := numPagesFor(dirSize, pageSize)
	rootListPage, err := page(dirRootPage)
	if err != nil {
		return nil, err
	}
	dirPages := make([]int, 0, dirPageCount)
	for i := 0; i < dirPageCount; i++ {
		if (i+1)*4 > len(rootListPage) {
			return nil, fmt.Errorf("pdbreader: directory root page list truncated")
		}
		dirPages = append(dirPages, int(binary.LittleEndian.Uint32(rootListPage[i*4:])))
	}

	dir := make([]byte, 0, dirSize)
	for _, p := range dirPages {
		b, err := page(p)
		if err != nil {
			return nil, err
		}
		dir = append(dir, b...)
	}
	if len(dir) < dirSize {
		return nil, fmt.Errorf("pdbreader: stream directory shorter than advertised")
	}
	dir = dir[:dirSize]

	numStreams := int(binary.LittleEndian.Uint32(dir))
	cursor := 4
	sizes := make([]int, numStreams)
	for i := range sizes {
		if cursor+4 > len(dir) {
			return nil, fmt.Errorf("pdbreader: stream directory truncated reading sizes")
		}
		sizes[i] = int(int32(binary.LittleEndian.Uint32(dir[cursor:])))
		cursor += 4
	}

	streams := make([][]byte, numStreams)
	for i, size := range sizes {
		if size < 0 {
			// A nil/absent stream, per the MSF convention of 0xFFFFFFFF.
			continue
		}
		count := numPagesFor(size, pageSize)
		buf := make([]byte, 0, size)
		for p := 0; p < count; p++ {
			if cursor+4 > len(dir) {
				return nil, fmt.Errorf("pdbreader: stream directory truncated reading pages")
			}
			pageNum := int(binary.LittleEndian.Uint32(dir[cursor:]))
			cursor += 4
			b, err := page(pageNum)
			if err != nil {
				return nil, err
			}
			buf = append(buf, b...)
		}
		if len(buf) > size {
			buf = buf[:size]
		}
		streams[i] = buf
	}

	return &msfFile{pageSize: pageSize, streams: streams}, nil
}

func numPagesFor(size, pageSize int) int {
	if size <= 0 {
		return 0
	}
	return (size + pageSize - 1) / pageSize
}

// stream returns the bytes of stream index n, or nil if it is absent or
// out of range.
func (m *msfFile) stream(n int) []byte {
	if n < 0 || n >= len(m.streams) {
		return nil
	}
	return m.streams[n]
}
