package dwarfreader

import (
	"debug/dwarf"
	"fmt"

	"github.com/a2l-tools/a2ltool/internal/symgraph"
)

// typeBuilder converts debug/dwarf's Type tree into symgraph TypeNodes.
// It caches by the dwarf.Type value itself rather than by DIE offset:
// debug/dwarf's own Data.Type already deduplicates and returns the
// identical *dwarf.StructType/*dwarf.PtrType/... pointer for repeated
// references to the same DIE, so a self-referential graph ("struct
// Node { Node *next; }") presents as the same Go value every time it
// is reached, and keying on that value is enough to represent the
// cycle once, per golang-debug's gocore.Type registration pattern.
type typeBuilder struct {
	data    *dwarf.Data
	graph   *symgraph.SymbolGraph
	cache   map[dwarf.Type]symgraph.TypeId
	ptrSize int
}

func newTypeBuilder(data *dwarf.Data, ptrSize int) *typeBuilder {
	return &typeBuilder{
		data:    data,
		graph:   symgraph.New(),
		cache:   make(map[dwarf.Type]symgraph.TypeId),
		ptrSize: ptrSize,
	}
}

// resolve converts a dwarf.Type into a TypeId, reusing the builder's
// own graph as the backing type table. Read's caller treats tb.graph
// as the canonical graph: resolve never needs a second graph parameter
// because the per-reader builder's graph IS the one Read returns.
func (tb *typeBuilder) resolve(t dwarf.Type) (symgraph.TypeId, error) {
	if id, ok := tb.cache[t]; ok {
		return id, nil
	}

	// Reserve a placeholder before descending, so a self-referential
	// member (directly or through a pointer) resolves to this same id
	// instead of recursing forever.
	placeholder := tb.graph.AddType(symgraph.TypeNode{Kind: symgraph.KindIncomplete})
	tb.cache[t] = placeholder

	node, err := tb.build(t)
	if err != nil {
		return 0, err
	}
	tb.graph.SetType(placeholder, node)
	return placeholder, nil
}

func (tb *typeBuilder) build(t dwarf.Type) (symgraph.TypeNode, error) {
	switch dt := t.(type) {
	case *dwarf.BoolType:
		return symgraph.TypeNode{Kind: symgraph.KindBase, Name: dt.Name, ByteSize: dt.ByteSize, Encoding: symgraph.EncBoolean}, nil

	case *dwarf.CharType:
		return symgraph.TypeNode{Kind: symgraph.KindBase, Name: dt.Name, ByteSize: dt.ByteSize, Encoding: symgraph.EncSignedChar}, nil

	case *dwarf.UcharType:
		return symgraph.TypeNode{Kind: symgraph.KindBase, Name: dt.Name, ByteSize: dt.ByteSize, Encoding: symgraph.EncUnsignedChar}, nil

	case *dwarf.IntType:
		return symgraph.TypeNode{Kind: symgraph.KindBase, Name: dt.Name, ByteSize: dt.ByteSize, Encoding: symgraph.EncSignedInt}, nil

	case *dwarf.UintType:
		return symgraph.TypeNode{Kind: symgraph.KindBase, Name: dt.Name, ByteSize: dt.ByteSize, Encoding: symgraph.EncUnsignedInt}, nil

	case *dwarf.FloatType:
		return symgraph.TypeNode{Kind: symgraph.KindBase, Name: dt.Name, ByteSize: dt.ByteSize, Encoding: symgraph.EncFloat}, nil

	case *dwarf.ComplexType:
		return symgraph.TypeNode{Kind: symgraph.KindBase, Name: dt.Name, ByteSize: dt.ByteSize, Encoding: symgraph.EncFloat}, nil

	case *dwarf.UnspecifiedType:
		return symgraph.TypeNode{Kind: symgraph.KindIncomplete, Name: dt.Name}, nil

	case *dwarf.PtrType:
		elem, err := tb.resolve(dt.Type)
		if err != nil {
			return symgraph.TypeNode{}, err
		}
		size := tb.ptrSize
		if dt.Common().ByteSize > 0 {
			size = int(dt.Common().ByteSize)
		}
		return symgraph.TypeNode{Kind: symgraph.KindPointer, Elem: elem, ByteSize: int64(size)}, nil

	case *dwarf.QualType:
		elem, err := tb.resolve(dt.Type)
		if err != nil {
			return symgraph.TypeNode{}, err
		}
		return symgraph.TypeNode{Kind: symgraph.KindModifier, Mod: qualifierKind(dt.Qual), Elem: elem}, nil

	case *dwarf.TypedefType:
		elem, err := tb.resolve(dt.Type)
		if err != nil {
			return symgraph.TypeNode{}, err
		}
		return symgraph.TypeNode{Kind: symgraph.KindTypedef, Name: dt.Name, Elem: elem}, nil

	case *dwarf.ArrayType:
		return tb.buildArray(dt)

	case *dwarf.StructType:
		return tb.buildStructOrUnion(dt)

	case *dwarf.EnumType:
		return tb.buildEnum(dt)

	case *dwarf.FuncType:
		return tb.buildFunc(dt)

	case *dwarf.VoidType:
		return symgraph.TypeNode{Kind: symgraph.KindIncomplete, Name: "void"}, nil

	default:
		return symgraph.TypeNode{}, fmt.Errorf("dwarfreader: unsupported DWARF type %T", t)
	}
}

func qualifierKind(qual string) symgraph.Modifier {
	switch qual {
	case "volatile":
		return symgraph.ModVolatile
	case "restrict":
		return symgraph.ModRestrict
	default:
		return symgraph.ModConst
	}
}

// buildArray flattens dwarf.ArrayType's multi-dimensional
// dt.Subranges? — stdlib debug/dwarf models multi-dim arrays as a
// single ArrayType with dt.Type as the element and a nested ArrayType
// is not how the stdlib represents it either: stdlib's ArrayType only
// has one Count (the outermost dimension) and dt.Type as the element
// type, which may itself be another ArrayType DIE for inner
// dimensions. We recurse through dt.Type naturally, producing the
// nested KindArray chain the Name Resolver expects.
func (tb *typeBuilder) buildArray(dt *dwarf.ArrayType) (symgraph.TypeNode, error) {
	elem, err := tb.resolve(dt.Type)
	if err != nil {
		return symgraph.TypeNode{}, err
	}
	node := symgraph.TypeNode{Kind: symgraph.KindArray, Elem: elem}
	if dt.Count >= 0 {
		node.Count = dt.Count
		node.HasCount = true
	}
	return node, nil
}

func (tb *typeBuilder) buildStructOrUnion(dt *dwarf.StructType) (symgraph.TypeNode, error) {
	kind := symgraph.KindStruct
	if dt.Kind == "union" {
		kind = symgraph.KindUnion
	}
	if dt.Incomplete {
		return symgraph.TypeNode{Kind: symgraph.KindIncomplete, Name: dt.StructName}, nil
	}

	members := make([]symgraph.Member, 0, len(dt.Field))
	for _, f := range dt.Field {
		memberType, err := tb.resolve(f.Type)
		if err != nil {
			return symgraph.TypeNode{}, err
		}
		m := symgraph.Member{
			Name:       f.Name,
			Type:       memberType,
			ByteOffset: f.ByteOffset,
		}
		if f.BitSize > 0 {
			m.BitSize = int(f.BitSize)
			m.BitOffset = lsbBitOffset(f.ByteSize, f.BitOffset, f.BitSize)
		}
		members = append(members, m)
	}

	return symgraph.TypeNode{
		Kind:     kind,
		Name:     dt.StructName,
		ByteSize: dt.ByteSize,
		Members:  members,
	}, nil
}

func (tb *typeBuilder) buildEnum(dt *dwarf.EnumType) (symgraph.TypeNode, error) {
	members := make([]symgraph.Member, 0, len(dt.Val))
	for _, v := range dt.Val {
		members = append(members, symgraph.Member{Name: v.Name, EnumValue: v.Val})
	}
	byteSize := dt.ByteSize
	if byteSize == 0 {
		byteSize = 4
	}
	return symgraph.TypeNode{
		Kind:     symgraph.KindEnum,
		Name:     dt.EnumName,
		ByteSize: byteSize,
		Encoding: symgraph.EncSignedInt,
		Members:  members,
	}, nil
}

func (tb *typeBuilder) buildFunc(dt *dwarf.FuncType) (symgraph.TypeNode, error) {
	params := make([]symgraph.TypeId, 0, len(dt.ParamType))
	for _, pt := range dt.ParamType {
		id, err := tb.resolve(pt)
		if err != nil {
			return symgraph.TypeNode{}, err
		}
		params = append(params, id)
	}
	ret, err := tb.resolve(dt.ReturnType)
	if err != nil {
		return symgraph.TypeNode{}, err
	}
	return symgraph.TypeNode{Kind: symgraph.KindFunction, Params: params, Return: ret, ByteSize: int64(tb.ptrSize)}, nil
}
