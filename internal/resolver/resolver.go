// Package resolver walks dotted/bracketed/arrow variable paths against
// a symgraph.SymbolGraph, per spec.md §4.4. It is a pure function with
// no package-level state, so the Symbol Graph may be shared safely
// across concurrent Resolve calls (spec.md §5).
package resolver

import (
	"strconv"
	"strings"

	"github.com/a2l-tools/a2ltool/internal/a2lerr"
	"github.com/a2l-tools/a2ltool/internal/symgraph"
)

// Resolved is the outcome of walking a path to its final element.
type Resolved struct {
	Address       uint64
	EffectiveType symgraph.TypeId
	HasBitMask    bool
	BitMask       uint64
	Dimensions    []int64
	QualifiedName string
}

// Resolve walks path against graph and returns the resolved location
// and effective type, or an *a2lerr.ResolveError: it wraps
// a2lerr.ErrUnresolvedSymbol when the root, a member or an index is not
// found, and a malformed-path error when path does not parse.
func Resolve(graph *symgraph.SymbolGraph, path string) (Resolved, error) {
	segs, err := parsePath(path)
	if err != nil {
		return Resolved{}, &a2lerr.ResolveError{Path: path, Err: err}
	}
	if len(segs) == 0 {
		return Resolved{}, &a2lerr.ResolveError{Path: path, Err: a2lerr.ErrUnresolvedSymbol}
	}

	root := segs[0].ident
	sym, found := graph.Global(root)
	if !found {
		// Rule 1: retry after re-mangling/re-demangling in known schemes.
		sym, found = retryMangled(graph, root)
	}
	if !found {
		return Resolved{}, &a2lerr.ResolveError{Path: path, Err: a2lerr.ErrUnresolvedSymbol}
	}

	res := Resolved{
		Address:       sym.Address,
		EffectiveType: sym.Type,
		QualifiedName: root,
	}

	for _, seg := range segs[1:] {
		if err := applySegment(graph, &res, seg); err != nil {
			return Resolved{}, &a2lerr.ResolveError{Path: path, Err: err}
		}
	}

	return res, nil
}

// retryMangled is a narrow hook for Rule 1's re-mangle/re-demangle
// fallback; the engine's demangling lives in internal/dwarfreader, so
// this only tries the leading-underscore C-symbol convention (adding or
// stripping one leading "_"), which costs nothing to check here.
func retryMangled(graph *symgraph.SymbolGraph, name string) (symgraph.GlobalSymbol, bool) {
	if sym, ok := graph.Global("_" + name); ok {
		return sym, true
	}
	if strings.HasPrefix(name, "_") {
		if sym, ok := graph.Global(name[1:]); ok {
			return sym, true
		}
	}
	return symgraph.GlobalSymbol{}, false
}

func applySegment(graph *symgraph.SymbolGraph, res *Resolved, seg segment) error {
	node, ok := graph.Type(res.EffectiveType)
	if !ok {
		return a2lerr.ErrUnresolvedSymbol
	}

	switch seg.kind {
	case segKindMember:
		return applyMember(graph, res, node, seg.ident)
	case segKindIndex:
		return applyIndex(graph, res, node, seg.index)
	default:
		return a2lerr.ErrUnresolvedSymbol
	}
}

func applyMember(graph *symgraph.SymbolGraph, res *Resolved, node symgraph.TypeNode, name string) error {
	node = stripQualifiers(graph, node)

	if node.Kind != symgraph.KindStruct && node.Kind != symgraph.KindUnion {
		return a2lerr.ErrUnresolvedSymbol
	}

	for _, m := range node.Members {
		if m.Name != name {
			continue
		}
		res.Address += uint64(m.ByteOffset)
		res.EffectiveType = m.Type
		res.QualifiedName += "." + name
		if m.BitSize > 0 {
			res.HasBitMask = true
			res.BitMask = bitMask(m.BitOffset, m.BitSize)
		} else {
			res.HasBitMask = false
			res.BitMask = 0
		}
		return nil
	}
	return a2lerr.ErrUnresolvedSymbol
}

func applyIndex(graph *symgraph.SymbolGraph, res *Resolved, node symgraph.TypeNode, index int64) error {
	node = stripQualifiers(graph, node)

	if node.Kind != symgraph.KindArray {
		return a2lerr.ErrUnresolvedSymbol
	}
	if node.HasCount && (index < 0 || index >= node.Count) {
		return a2lerr.ErrUnresolvedSymbol
	}

	elem, ok := graph.Type(node.Elem)
	if !ok {
		return a2lerr.ErrUnresolvedSymbol
	}

	res.Address += uint64(index) * uint64(elem.ByteSize)
	res.EffectiveType = node.Elem
	res.QualifiedName += "[" + strconv.FormatInt(index, 10) + "]"
	res.Dimensions = append(res.Dimensions, 1)
	return nil
}

// stripQualifiers follows Modifier/Typedef chains down to the first
// Struct/Union/Array/Base node, per spec.md §4.4 rule 2.
func stripQualifiers(graph *symgraph.SymbolGraph, node symgraph.TypeNode) symgraph.TypeNode {
	for node.Kind == symgraph.KindModifier || node.Kind == symgraph.KindTypedef {
		next, ok := graph.Type(node.Elem)
		if !ok {
			return node
		}
		node = next
	}
	return node
}

// bitMask turns the bit offset/size into a mask value. The DWARF/PDB
// readers hand Member over with an LSB-numbered bit offset (spec.md
// §4.2), so this is a direct little-endian-convention mask build; the
// big-endian mirror (spec.md §4.5) is applied later, by synth, when the
// mask is written.
func bitMask(bitOffset, bitSize int) uint64 {
	var mask uint64
	for i := 0; i < bitSize; i++ {
		mask |= 1 << uint(bitOffset+i)
	}
	return mask
}
