// Package coordinator implements the Update Coordinator of spec.md
// §4.6: it walks an existing A2L module's descriptors, resolves each
// one's symbol reference against a Symbol Graph, and applies the
// FULL/ADDRESSES × DEFAULT/STRICT/PRESERVE outcome matrix.
package coordinator

import (
	"strings"

	"github.com/a2l-tools/a2ltool/internal/a2l"
	"github.com/a2l-tools/a2ltool/internal/a2lerr"
	"github.com/a2l-tools/a2ltool/internal/resolver"
	"github.com/a2l-tools/a2ltool/internal/symgraph"
	"github.com/a2l-tools/a2ltool/internal/synth"
)

// What selects how much of a descriptor's state the Coordinator
// refreshes on a consistent resolution.
type What int

const (
	Full What = iota
	AddressesOnly
)

// Mode selects how the Coordinator reacts to mismatches and
// unresolved symbols.
type Mode int

const (
	Default Mode = iota
	Strict
	Preserve
)

// Policy is spec.md §4.6's input policy plus the project-wide SYMBOL
// prefix transform named in step 2 of the algorithm.
type Policy struct {
	What         What
	Mode         Mode
	SymbolPrefix string
}

// Warning is one non-fatal condition the Coordinator observed while
// applying Default mode.
type Warning struct {
	Descriptor string
	Message    string
}

// Report is the structured outcome spec.md §4.6 step 7 names.
type Report struct {
	Updated    []string
	Zeroed     []string
	Removed    []string
	Warned     []Warning
	Unresolved []string
}

func (r *Report) addUpdated(name string)             { r.Updated = append(r.Updated, name) }
func (r *Report) addZeroed(name string)              { r.Zeroed = append(r.Zeroed, name) }
func (r *Report) addRemoved(name string)              { r.Removed = append(r.Removed, name) }
func (r *Report) addUnresolved(name string)            { r.Unresolved = append(r.Unresolved, name) }
func (r *Report) addWarning(descriptor, message string) {
	r.Warned = append(r.Warned, Warning{Descriptor: descriptor, Message: message})
}

// coordinatedKinds lists every addressable entity kind spec.md §4.6
// step 1 names. TYPEDEF_MEASUREMENT and TYPEDEF_CHARACTERISTIC are
// deliberately excluded: they are shape templates referenced by a
// TYPEDEF_STRUCTURE's components, not individually addressed symbols —
// neither carries an Address or SymbolLink field (see a2l.go) for a
// symbol reference to even attach to. Resolving them by name against
// the Symbol Graph would misfire on the first coincidental match and,
// on every miss, delete the template out from under every INSTANCE
// still referencing it.
var coordinatedKinds = []a2l.Kind{
	a2l.KindMeasurement,
	a2l.KindCharacteristic,
	a2l.KindAxisPts,
	a2l.KindBlob,
	a2l.KindInstance,
}

// Run executes the full algorithm against mod, using graph to resolve
// each descriptor's symbol reference. Resolution runs concurrently
// across descriptors (the Symbol Graph is read-only); every mutation
// to mod happens back on the calling goroutine, satisfying spec.md §5's
// "mutates only the AST" ownership rule.
func Run(mod a2l.Module, graph *symgraph.SymbolGraph, policy Policy) (Report, error) {
	var report Report

	for _, kind := range coordinatedKinds {
		names := mod.Names(kind)
		jobs := make([]job, 0, len(names))
		for _, name := range names {
			raw, ok := mod.Lookup(kind, name)
			if !ok {
				continue
			}
			jobs = append(jobs, job{kind: kind, name: name, entity: raw})
		}

		results := resolveAll(graph, jobs, policy.SymbolPrefix)

		for i, res := range results {
			if err := apply(mod, graph, jobs[i], res, policy, &report); err != nil {
				return report, err
			}
		}
	}

	return report, nil
}

// job is one descriptor queued for concurrent resolution.
type job struct {
	kind   a2l.Kind
	name   string
	entity interface{}
}

// resolution is the outcome of resolving one job's symbol reference.
type resolution struct {
	resolved resolver.Resolved
	err      error
}

// resolveAll resolves every job's symbol reference concurrently,
// bounded by a worker pool, preserving jobs' order in the result slice.
func resolveAll(graph *symgraph.SymbolGraph, jobs []job, prefix string) []resolution {
	results := make([]resolution, len(jobs))
	run(len(jobs), func(i int) {
		ref := symbolReference(jobs[i].kind, jobs[i].name, jobs[i].entity, prefix)
		resolved, err := resolver.Resolve(graph, ref)
		results[i] = resolution{resolved: resolved, err: err}
	})
	return results
}

// symbolReference reconstructs spec.md §4.6 step 2's symbol reference
// string: the descriptor's SYMBOL_LINK if present, else its name,
// transformed by the project-wide SYMBOL prefix.
func symbolReference(kind a2l.Kind, name string, entity interface{}, prefix string) string {
	link := symbolLink(kind, entity)
	if link == "" {
		link = name
	}
	if prefix != "" && !strings.HasPrefix(link, prefix) {
		link = prefix + link
	}
	return link
}

func symbolLink(kind a2l.Kind, entity interface{}) string {
	switch kind {
	case a2l.KindMeasurement:
		return entity.(a2l.Measurement).SymbolLink
	case a2l.KindCharacteristic:
		return entity.(a2l.Characteristic).SymbolLink
	default:
		return ""
	}
}

// apply implements spec.md §4.6 steps 4-6 for one descriptor, mutating
// mod and report. It returns a non-nil error only when Strict mode
// must escalate to a fatal process-level error.
func apply(mod a2l.Module, graph *symgraph.SymbolGraph, j job, res resolution, policy Policy, report *Report) error {
	if res.err != nil {
		return applyUnresolved(mod, j, policy, report)
	}
	return applyResolved(mod, graph, j, res.resolved, policy, report)
}

func applyUnresolved(mod a2l.Module, j job, policy Policy, report *Report) error {
	report.addUnresolved(j.name)
	switch policy.Mode {
	case Strict:
		return &a2lerr.PolicyRejectedError{Descriptor: j.name, Reason: a2lerr.ErrUnresolvedSymbol}

	case Preserve:
		zeroAddress(mod, j)
		report.addZeroed(j.name)
		return nil

	default: // Default
		mod.Remove(j.kind, j.name)
		dropReferences(mod, j.kind, j.name)
		report.addRemoved(j.name)
		return nil
	}
}

func applyResolved(mod a2l.Module, graph *symgraph.SymbolGraph, j job, res resolver.Resolved, policy Policy, report *Report) error {
	mismatch := typeMismatch(graph, j.kind, j.entity, res)

	if !mismatch {
		updateConsistent(mod, graph, j, res, policy)
		report.addUpdated(j.name)
		return nil
	}

	switch policy.Mode {
	case Strict:
		return &a2lerr.PolicyRejectedError{
			Descriptor: j.name,
			Reason:     a2lerr.ErrIncompatibleType,
		}

	case Preserve:
		updateAddressOnly(mod, j, res)
		report.addUpdated(j.name)
		return nil

	default: // Default
		if policy.What == Full {
			updateConsistent(mod, graph, j, res, policy)
		} else {
			updateAddressOnly(mod, j, res)
		}
		report.addUpdated(j.name)
		report.addWarning(j.name, "resolved type does not match existing descriptor")
		return nil
	}
}

// typeMismatch reports whether the resolved symbol's shape disagrees
// with what the descriptor already declares: a newly-set bit mask, a
// changed storage datatype, a changed CHARACTERISTIC kind (e.g. Value
// -> ValBlk), or a changed MATRIX_DIM. Any of these is what spec.md
// §4.6's "resolved, but type mismatches existing A2L" outcome-matrix
// row means by a type mismatch.
func typeMismatch(graph *symgraph.SymbolGraph, kind a2l.Kind, entity interface{}, res resolver.Resolved) bool {
	node, ok := graph.Type(res.EffectiveType)
	if !ok {
		return false
	}

	switch kind {
	case a2l.KindMeasurement:
		m := entity.(a2l.Measurement)
		if m.HasBitMask != res.HasBitMask && res.HasBitMask {
			return true
		}
		if m.Datatype != synth.Datatype(node) {
			return true
		}
		return !dimsEqual(m.ArrayDims, synth.Dims(graph, node))

	case a2l.KindCharacteristic:
		c := entity.(a2l.Characteristic)
		if c.HasBitMask != res.HasBitMask && res.HasBitMask {
			return true
		}
		if newKind, ok := synth.CharKind(graph, node); ok && newKind != c.Kind {
			return true
		}
		return !dimsEqual(c.ArrayDims, synth.Dims(graph, node))

	default:
		return false
	}
}

// dimsEqual compares two MATRIX_DIM slices for equality.
func dimsEqual(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// updateConsistent refreshes address and, in Full mode, type/limits/
// bitmask/enum-backed attributes (spec.md §4.6 step 4 row 1).
func updateConsistent(mod a2l.Module, graph *symgraph.SymbolGraph, j job, res resolver.Resolved, policy Policy) {
	switch j.kind {
	case a2l.KindMeasurement:
		m := j.entity.(a2l.Measurement)
		m.Address = res.Address
		if policy.What == Full {
			applyBitMask(&m.HasBitMask, &m.BitMask, res)
			if node, ok := graph.Type(res.EffectiveType); ok {
				m.ArrayDims = synth.Dims(graph, node)
			}
		}
		mod.Insert(j.kind, j.name, m)

	case a2l.KindCharacteristic:
		c := j.entity.(a2l.Characteristic)
		c.Address = res.Address
		if policy.What == Full {
			applyBitMask(&c.HasBitMask, &c.BitMask, res)
			if node, ok := graph.Type(res.EffectiveType); ok {
				c.ArrayDims = synth.Dims(graph, node)
			}
		}
		mod.Insert(j.kind, j.name, c)

	case a2l.KindAxisPts:
		a := j.entity.(a2l.AxisPts)
		a.Address = res.Address
		mod.Insert(j.kind, j.name, a)

	case a2l.KindBlob:
		b := j.entity.(a2l.Blob)
		b.Address = res.Address
		mod.Insert(j.kind, j.name, b)

	case a2l.KindInstance:
		inst := j.entity.(a2l.Instance)
		inst.Address = res.Address
		mod.Insert(j.kind, j.name, inst)
	}
}

// updateAddressOnly refreshes just the address, leaving every other
// attribute as-is (spec.md §4.6 step 4 row 2's AddressesOnly/Preserve
// branches).
func updateAddressOnly(mod a2l.Module, j job, res resolver.Resolved) {
	switch j.kind {
	case a2l.KindMeasurement:
		m := j.entity.(a2l.Measurement)
		m.Address = res.Address
		mod.Insert(j.kind, j.name, m)
	case a2l.KindCharacteristic:
		c := j.entity.(a2l.Characteristic)
		c.Address = res.Address
		mod.Insert(j.kind, j.name, c)
	case a2l.KindAxisPts:
		a := j.entity.(a2l.AxisPts)
		a.Address = res.Address
		mod.Insert(j.kind, j.name, a)
	case a2l.KindBlob:
		b := j.entity.(a2l.Blob)
		b.Address = res.Address
		mod.Insert(j.kind, j.name, b)
	case a2l.KindInstance:
		inst := j.entity.(a2l.Instance)
		inst.Address = res.Address
		mod.Insert(j.kind, j.name, inst)
	}
}

// applyBitMask implements spec.md §4.6 step 5: an explicit existing
// mask on a descriptor whose resolved type is no longer a bit-field is
// authoritative and is kept; a resolved bit-field always overwrites.
func applyBitMask(hasMask *bool, mask *uint64, res resolver.Resolved) {
	if res.HasBitMask {
		*hasMask = true
		*mask = res.BitMask
		return
	}
	// res has no bit-field: leave *hasMask/*mask untouched.
}

// zeroAddress implements Preserve mode's unresolved outcome: keep the
// descriptor, set its address to 0 (spec.md §4.6 step 4 row 3).
func zeroAddress(mod a2l.Module, j job) {
	switch j.kind {
	case a2l.KindMeasurement:
		m := j.entity.(a2l.Measurement)
		m.Address = 0
		mod.Insert(j.kind, j.name, m)
	case a2l.KindCharacteristic:
		c := j.entity.(a2l.Characteristic)
		c.Address = 0
		mod.Insert(j.kind, j.name, c)
	case a2l.KindAxisPts:
		a := j.entity.(a2l.AxisPts)
		a.Address = 0
		mod.Insert(j.kind, j.name, a)
	case a2l.KindBlob:
		b := j.entity.(a2l.Blob)
		b.Address = 0
		mod.Insert(j.kind, j.name, b)
	case a2l.KindInstance:
		inst := j.entity.(a2l.Instance)
		inst.Address = 0
		mod.Insert(j.kind, j.name, inst)
	}
}

// dropReferences implements spec.md §4.6 step 4 row 3's Default
// branch: a removed descriptor's references from any GROUP are dropped
// too.
func dropReferences(mod a2l.Module, kind a2l.Kind, name string) {
	for _, groupName := range mod.Names(a2l.KindGroup) {
		raw, ok := mod.Lookup(a2l.KindGroup, groupName)
		if !ok {
			continue
		}
		g := raw.(a2l.Group)
		changed := false

		switch kind {
		case a2l.KindMeasurement:
			g.Measurements, changed = removeString(g.Measurements, name)
		case a2l.KindCharacteristic, a2l.KindBlob:
			g.Characteristics, changed = removeString(g.Characteristics, name)
		}

		if changed {
			mod.Insert(a2l.KindGroup, groupName, g)
		}
	}
}

func removeString(list []string, target string) ([]string, bool) {
	out := list[:0:0]
	removed := false
	for _, v := range list {
		if v == target {
			removed = true
			continue
		}
		out = append(out, v)
	}
	return out, removed
}
