// Package dwarfreader populates a symgraph.SymbolGraph from a DWARF
// (versions 2-5) debug-info stream, per spec.md §2 item 2 and §4.2.
package dwarfreader

import (
	"debug/dwarf"
	"fmt"

	"github.com/a2l-tools/a2ltool/internal/a2lerr"
	"github.com/a2l-tools/a2ltool/internal/binimage"
	"github.com/a2l-tools/a2ltool/internal/symgraph"
	"github.com/a2l-tools/a2ltool/internal/xlog"
)

var log = xlog.For("dwarfreader")

// standard DWARF section names, valid for both ELF and PE/COFF+MinGW
// images (the debug-info stream format is the same regardless of the
// surrounding container, per spec.md §6).
const (
	secAbbrev      = ".debug_abbrev"
	secInfo        = ".debug_info"
	secStr         = ".debug_str"
	secLine        = ".debug_line"
	secLineStr     = ".debug_line_str"
	secRanges      = ".debug_ranges"
	secRngLists    = ".debug_rnglists"
	secStrOffsets  = ".debug_str_offsets"
	secAddr        = ".debug_addr"
	secAranges     = ".debug_aranges"
)

// Read walks every compile unit in img's DWARF streams and returns the
// populated Symbol Graph. A unit that fails to parse is skipped and
// logged; Read only fails outright when no usable .debug_info/.debug_abbrev
// pair is present at all.
func Read(img binimage.LoadedImage) (*symgraph.SymbolGraph, error) {
	info, ok := img.SectionBytes(secInfo)
	if !ok || len(info) == 0 {
		return nil, a2lerr.ErrNoDebugInfo
	}
	abbrev, _ := img.SectionBytes(secAbbrev)
	str, _ := img.SectionBytes(secStr)
	line, _ := img.SectionBytes(secLine)
	aranges, _ := img.SectionBytes(secAranges)
	ranges, _ := img.SectionBytes(secRanges)

	data, err := dwarf.New(abbrev, aranges, nil, info, line, nil, ranges, str)
	if err != nil {
		return nil, &a2lerr.DebugInfoError{Stream: secInfo, Offset: 0, Err: err}
	}

	// DWARF5-only sections that dwarf.New's fixed argument list has no
	// room for; AddSection is a no-op for formats that never populate
	// them.
	for _, name := range []string{secLineStr, secRngLists, secStrOffsets, secAddr} {
		if b, ok := img.SectionBytes(name); ok && len(b) > 0 {
			_ = data.AddSection(name, b)
		}
	}

	tb := newTypeBuilder(data, img.AddressSize())
	addrSection, _ := img.SectionBytes(secAddr)

	r := data.Reader()
	for {
		entry, err := r.Next()
		if err != nil {
			return nil, &a2lerr.DebugInfoError{Stream: secInfo, Offset: 0, Err: err}
		}
		if entry == nil {
			break
		}
		if entry.Tag != dwarf.TagCompileUnit {
			r.SkipChildren()
			continue
		}
		if err := readUnit(data, r, tb, addrSection, img.AddressSize()); err != nil {
			log.Warnw("msg", "skipping compile unit after parse error", "err", err)
		}
	}

	if tb.graph.TypeCount() == 0 && len(tb.graph.Globals()) == 0 {
		return nil, a2lerr.ErrNoDebugInfo
	}
	return tb.graph, nil
}

// readUnit walks one compile unit's direct children, registering global
// variables and functions into tb.graph. Nested scopes (lexical
// blocks, function bodies) are skipped: spec.md's reconciliation
// engine only resolves against named globals.
func readUnit(data *dwarf.Data, r *dwarf.Reader, tb *typeBuilder, addrSection []byte, ptrSize int) error {
	depth := 0
	for {
		entry, err := r.Next()
		if err != nil {
			return fmt.Errorf("reading compile unit children: %w", err)
		}
		if entry == nil {
			return nil
		}
		if entry.Tag == 0 {
			// End-of-children marker.
			if depth == 0 {
				return nil
			}
			depth--
			continue
		}

		switch entry.Tag {
		case dwarf.TagVariable:
			if depth == 0 {
				registerGlobalVariable(data, tb, entry, addrSection, ptrSize)
			}
		case dwarf.TagSubprogram:
			if depth == 0 {
				registerFunction(tb, entry, ptrSize)
			}
		}

		if entry.Children {
			depth++
		}
	}
}

func registerGlobalVariable(data *dwarf.Data, tb *typeBuilder, entry *dwarf.Entry, addrSection []byte, ptrSize int) {
	name, _ := entry.Val(dwarf.AttrName).(string)
	if name == "" {
		return
	}
	loc, ok := entry.Val(dwarf.AttrLocation).([]byte)
	if !ok {
		return
	}
	addr, ok := globalAddress(loc, addrSection, ptrSize)
	if !ok {
		return
	}

	typeOff, ok := entry.Val(dwarf.AttrType).(dwarf.Offset)
	if !ok {
		return
	}
	dt, err := data.Type(typeOff)
	if err != nil {
		log.Warnw("msg", "variable has unreadable type", "name", name, "err", err)
		return
	}
	typeID, err := tb.resolve(dt)
	if err != nil {
		log.Warnw("msg", "failed to build type for variable", "name", name, "err", err)
		return
	}

	tb.graph.AddGlobal(symgraph.GlobalSymbol{
		Name:    demangle(name),
		Type:    typeID,
		Address: addr,
		Kind:    symgraph.SymbolVariable,
		BackEnd: symgraph.BackEndDWARF,
	})
}

func registerFunction(tb *typeBuilder, entry *dwarf.Entry, ptrSize int) {
	name, _ := entry.Val(dwarf.AttrName).(string)
	if name == "" {
		return
	}
	low, ok := entry.Val(dwarf.AttrLowpc).(uint64)
	if !ok {
		return
	}
	funcID := tb.graph.AddType(symgraph.TypeNode{Kind: symgraph.KindFunction, ByteSize: int64(ptrSize)})
	tb.graph.AddGlobal(symgraph.GlobalSymbol{
		Name:    demangle(name),
		Type:    funcID,
		Address: low,
		Kind:    symgraph.SymbolFunctionPointerSlot,
		BackEnd: symgraph.BackEndDWARF,
	})
}
