// Package pdbreader populates a symgraph.SymbolGraph from a Microsoft
// PDB, per spec.md §2 item 2 and §4.3. Unlike the DWARF back-end, a PDB
// is read directly from its own file rather than through a
// binimage.LoadedImage: its MSF stream directory, not a named-section
// table, is the unit of access.
package pdbreader

import (
	"os"

	"github.com/a2l-tools/a2ltool/internal/a2lerr"
	"github.com/a2l-tools/a2ltool/internal/symgraph"
	"github.com/a2l-tools/a2ltool/internal/xlog"
)

var log = xlog.For("pdbreader")

// Read parses path as a .pdb file and returns the Symbol Graph built
// from its TPI type registry and DBI global symbol stream, per
// spec.md §4.3's mapping: TPI stream -> type registry; DBI + global
// symbol stream -> globals.
func Read(path string, ptrSize int) (*symgraph.SymbolGraph, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, a2lerr.ErrUnreadableBinary
	}

	msf, err := openMSF(raw)
	if err != nil {
		return nil, &a2lerr.DebugInfoError{Stream: "MSF", Offset: 0, Err: err}
	}

	tpiStream := msf.stream(streamTPI)
	if len(tpiStream) == 0 {
		return nil, a2lerr.ErrNoDebugInfo
	}
	dbiStream := msf.stream(streamDBI)
	if len(dbiStream) == 0 {
		return nil, a2lerr.ErrNoDebugInfo
	}

	graph := symgraph.New()
	tr, err := buildTypeStream(graph, tpiStream, ptrSize)
	if err != nil {
		return nil, &a2lerr.DebugInfoError{Stream: "TPI", Offset: 0, Err: err}
	}

	dbi, err := parseDBIHeader(dbiStream)
	if err != nil {
		return nil, &a2lerr.DebugInfoError{Stream: "DBI", Offset: 0, Err: err}
	}
	symStream := msf.stream(int(dbi.globalSymStream))
	if len(symStream) == 0 {
		return nil, a2lerr.ErrNoDebugInfo
	}

	for _, rec := range parseSymbolStream(symStream) {
		switch {
		case rec.kind.isGlobalData():
			registerDataSymbol(graph, tr, rec)
		case rec.kind == symConstant:
			registerConstantSymbol(graph, tr, rec)
		}
	}

	if graph.TypeCount() == 0 && len(graph.Globals()) == 0 {
		return nil, a2lerr.ErrNoDebugInfo
	}
	return graph, nil
}

func registerDataSymbol(graph *symgraph.SymbolGraph, tr *typeRegistry, rec symbolRecord) {
	d, ok := parseDataSym(rec.data)
	if !ok || d.name == "" {
		return
	}
	typeID, ok := tr.resolve(typeIndex(d.typeIndex))
	if !ok {
		log.Warnw("msg", "global data symbol references unknown type", "name", d.name)
		return
	}
	// d.offset is segment-relative; a full RVA needs the DBI section
	// contribution substream's segment->RVA base, which this reader
	// does not walk (see DESIGN.md). Callers resolving against a PE
	// image should treat Address as provisional until cross-checked
	// against that image's own section table.
	graph.AddGlobal(symgraph.GlobalSymbol{
		Name:    demangle(d.name),
		Type:    typeID,
		Address: uint64(d.offset),
		Kind:    symgraph.SymbolVariable,
		BackEnd: symgraph.BackEndPDB,
	})
}

func registerConstantSymbol(graph *symgraph.SymbolGraph, tr *typeRegistry, rec symbolRecord) {
	c, ok := parseConstantSym(rec.data)
	if !ok || c.name == "" {
		return
	}
	typeID, ok := tr.resolve(typeIndex(c.typeIndex))
	if !ok {
		return
	}
	graph.AddGlobal(symgraph.GlobalSymbol{
		Name:    demangle(c.name),
		Type:    typeID,
		Address: 0,
		Kind:    symgraph.SymbolConstant,
		BackEnd: symgraph.BackEndPDB,
	})
}
