package pdbreader

import (
	"encoding/binary"
	"fmt"
)

// Fixed stream indices every modern (post-VC7) .pdb reserves.
const (
	streamPDBInfo = 1
	streamTPI     = 2
	streamDBI     = 3
)

// dbiHeader is the subset of the published DBI stream header this
// reader needs: just enough to locate the symbol record stream. The
// module-info and section-contribution substreams that follow the
// header are not walked; this reader resolves only whole-program
// globals, not per-module locals or the RVA-keyed section table.
type dbiHeader struct {
	// globalSymStream is the SymRecordStream field: the stream holding
	// the raw, length-prefixed S_* symbol records this reader parses.
	// It is distinct from GlobalStreamIndex (offset 12), which names
	// the GSI hash table used for fast name lookup, not the records
	// themselves.
	globalSymStream uint16
}

func parseDBIHeader(data []byte) (dbiHeader, error) {
	if len(data) < 24 {
		return dbiHeader{}, fmt.Errorf("pdbreader: DBI stream shorter than its header")
	}
	return dbiHeader{
		globalSymStream: binary.LittleEndian.Uint16(data[20:]),
	}, nil
}
