package main

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/a2l-tools/a2ltool/internal/a2l"
	"github.com/a2l-tools/a2ltool/internal/binimage"
	"github.com/a2l-tools/a2ltool/internal/resolver"
	"github.com/a2l-tools/a2ltool/internal/symgraph"
	"github.com/a2l-tools/a2ltool/internal/synth"
)

func newCreateCmd() *cobra.Command {
	var (
		binaryPath       string
		pdbPath          string
		modulePath       string
		outPath          string
		kind             string
		targetGroup      string
		useStructures    bool
		oldArrayNotation bool
		arraysAsBlocks   bool
		bigEndianTarget  bool
		addressRange     string
		section          string
		pattern          string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Synthesize new descriptors from a binary's global symbols",
		Long: "Enumerates the Symbol Graph's globals, applies filter.address_range/" +
			"filter.section/filter.regex, and synthesizes one MEASUREMENT or " +
			"CHARACTERISTIC per surviving symbol (spec.md §4.5).",
		RunE: func(cmd *cobra.Command, args []string) error {
			hint := synth.HintMeasurement
			switch kind {
			case "measurement", "":
				hint = synth.HintMeasurement
			case "characteristic":
				hint = synth.HintCharacteristic
			default:
				return fmt.Errorf("a2ltool: unknown --kind %q", kind)
			}

			lo, hi, hasRange, err := parseAddressRange(addressRange)
			if err != nil {
				return err
			}

			var re *regexp.Regexp
			if pattern != "" {
				re, err = regexp.Compile("^(?:" + pattern + ")$")
				if err != nil {
					return fmt.Errorf("a2ltool: invalid --regex: %w", err)
				}
			}

			graph, img, err := loadSymbolGraph(binaryPath, pdbPath)
			if err != nil {
				return err
			}
			defer closeImage(img)

			if section != "" {
				if _, _, ok := img.SectionAddressRange(section); !ok {
					return fmt.Errorf("a2ltool: section %q not found in binary", section)
				}
			}

			mod, err := loadModule(modulePath)
			if err != nil {
				return err
			}

			policy := synth.CreatePolicy{
				KindHint:         hint,
				TargetGroup:      targetGroup,
				UseStructures:    useStructures,
				OldArrayNotation: oldArrayNotation,
				ArraysAsBlocks:   arraysAsBlocks,
				BigEndianTarget:  bigEndianTarget,
			}

			names := graph.Globals()
			sort.Strings(names)

			created := 0
			for _, name := range names {
				sym, ok := graph.Global(name)
				if !ok || sym.Kind != symgraph.SymbolVariable {
					continue
				}
				if hasRange && (sym.Address < lo || sym.Address >= hi) {
					continue
				}
				if section != "" && !withinSection(sym.Address, img, section) {
					continue
				}
				if re != nil && !re.MatchString(name) {
					continue
				}

				res, err := resolver.Resolve(graph, name)
				if err != nil {
					log.Warnw("msg", "skipping unresolved global", "name", name, "err", err)
					continue
				}

				n := synthesizeOne(graph, res, name, policy, mod)
				created += n
			}

			fmt.Printf("%d descriptor(s) created\n", created)

			if outPath == "" {
				outPath = modulePath
			}
			return saveModule(mod, outPath)
		},
	}

	cmd.Flags().StringVar(&binaryPath, "binary", "", "path to the ELF or PE/COFF binary")
	cmd.Flags().StringVar(&pdbPath, "pdb", "", "path to a sibling .pdb (overrides DWARF)")
	cmd.Flags().StringVar(&modulePath, "module", "", "path to the module JSON document to add to")
	cmd.Flags().StringVar(&outPath, "out", "", "path to write the updated module (defaults to --module)")
	cmd.Flags().StringVar(&kind, "kind", "measurement", "measurement | characteristic")
	cmd.Flags().StringVar(&targetGroup, "target-group", "", "GROUP name to attach new items to")
	cmd.Flags().BoolVar(&useStructures, "use-structures", false, "permit INSTANCE + TYPEDEF_STRUCTURE when A2L >= 1.7.1")
	cmd.Flags().BoolVar(&oldArrayNotation, "old-array-notation", false, "force ._i_ array suffix style")
	cmd.Flags().BoolVar(&arraysAsBlocks, "arrays-as-blocks", false, "emit ValBlk/Curve rather than per-element items")
	cmd.Flags().BoolVar(&bigEndianTarget, "big-endian-target", false, "mirror bit-field masks for a big-endian target")
	cmd.Flags().StringVar(&addressRange, "address-range", "", "lo:hi (hex or decimal) range-based insertion filter")
	cmd.Flags().StringVar(&section, "section", "", "named section to enumerate")
	cmd.Flags().StringVar(&pattern, "regex", "", "anchored regex applied to the full qualified name")
	cmd.MarkFlagRequired("binary")
	cmd.MarkFlagRequired("module")

	return cmd
}

// parseAddressRange parses a "lo:hi" string (each side hex with a 0x
// prefix or decimal) into filter.address_range's [lo, hi) bounds.
func parseAddressRange(s string) (lo, hi uint64, ok bool, err error) {
	if s == "" {
		return 0, 0, false, nil
	}
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, false, fmt.Errorf("a2ltool: --address-range must be lo:hi")
	}
	lo, err = strconv.ParseUint(parts[0], 0, 64)
	if err != nil {
		return 0, 0, false, fmt.Errorf("a2ltool: invalid --address-range lo: %w", err)
	}
	hi, err = strconv.ParseUint(parts[1], 0, 64)
	if err != nil {
		return 0, 0, false, fmt.Errorf("a2ltool: invalid --address-range hi: %w", err)
	}
	return lo, hi, true, nil
}

// synthesizeOne synthesizes name's descriptor, honoring
// create.arrays_as_blocks: a top-level array with a declared count is
// expanded into one descriptor per element (named via
// synth.NameForIndex) unless ArraysAsBlocks asks for a single
// ValBlk/Curve/Map descriptor instead. It returns the number of
// descriptors written.
func synthesizeOne(graph *symgraph.SymbolGraph, res resolver.Resolved, name string, policy synth.CreatePolicy, mod *a2l.MemModule) int {
	node, ok := graph.Type(res.EffectiveType)
	if ok && node.Kind == symgraph.KindArray && !policy.ArraysAsBlocks && node.HasCount && node.Count > 0 {
		written := 0
		for i := int64(0); i < node.Count; i++ {
			elemName := synth.NameForIndex(name, int(i), policy.OldArrayNotation)
			elemPath := fmt.Sprintf("%s[%d]", name, i)
			elemRes, err := resolver.Resolve(graph, elemPath)
			if err != nil {
				log.Warnw("msg", "skipping array element", "name", elemPath, "err", err)
				continue
			}
			if writeDescriptor(graph, elemRes, elemName, policy, mod) {
				written++
			}
		}
		return written
	}

	if writeDescriptor(graph, res, name, policy, mod) {
		return 1
	}
	return 0
}

func writeDescriptor(graph *symgraph.SymbolGraph, res resolver.Resolved, name string, policy synth.CreatePolicy, mod *a2l.MemModule) bool {
	incomplete, err := synth.Synthesize(graph, res, name, policy, mod)
	if err != nil {
		log.Warnw("msg", "skipping descriptor synthesis", "name", name, "err", err)
		return false
	}
	if incomplete {
		fmt.Printf("incomplete %s (open-bound array)\n", name)
	}
	fmt.Printf("created   %s\n", name)
	return true
}

func withinSection(addr uint64, img binimage.LoadedImage, section string) bool {
	lo, hi, ok := img.SectionAddressRange(section)
	if !ok {
		return false
	}
	return addr >= lo && addr < hi
}
