package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/a2l-tools/a2ltool/internal/coordinator"
)

func newUpdateCmd() *cobra.Command {
	var (
		binaryPath   string
		pdbPath      string
		modulePath   string
		outPath      string
		symbolPrefix string
		what         string
		mode         string
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Reconcile an existing module's descriptors against a binary",
		Long: "Resolves every MEASUREMENT/CHARACTERISTIC/AXIS_PTS/BLOB/INSTANCE " +
			"descriptor's symbol reference and applies the update.what/update.mode " +
			"outcome matrix (spec.md §4.6). TYPEDEF_MEASUREMENT and " +
			"TYPEDEF_CHARACTERISTIC entries are not resolved and are left unchanged.",
		RunE: func(cmd *cobra.Command, args []string) error {
			policy := coordinator.Policy{SymbolPrefix: symbolPrefix}

			switch what {
			case "full", "":
				policy.What = coordinator.Full
			case "addresses":
				policy.What = coordinator.AddressesOnly
			default:
				return fmt.Errorf("a2ltool: unknown --what %q", what)
			}

			switch mode {
			case "default", "":
				policy.Mode = coordinator.Default
			case "strict":
				policy.Mode = coordinator.Strict
			case "preserve":
				policy.Mode = coordinator.Preserve
			default:
				return fmt.Errorf("a2ltool: unknown --mode %q", mode)
			}

			graph, img, err := loadSymbolGraph(binaryPath, pdbPath)
			if err != nil {
				return err
			}
			defer closeImage(img)

			mod, err := loadModule(modulePath)
			if err != nil {
				return err
			}

			report, err := coordinator.Run(mod, graph, policy)
			if err != nil {
				return err
			}

			printReport(report)

			if outPath == "" {
				outPath = modulePath
			}
			return saveModule(mod, outPath)
		},
	}

	cmd.Flags().StringVar(&binaryPath, "binary", "", "path to the ELF or PE/COFF binary")
	cmd.Flags().StringVar(&pdbPath, "pdb", "", "path to a sibling .pdb (overrides DWARF)")
	cmd.Flags().StringVar(&modulePath, "module", "", "path to the module JSON document to update")
	cmd.Flags().StringVar(&outPath, "out", "", "path to write the updated module (defaults to --module)")
	cmd.Flags().StringVar(&symbolPrefix, "symbol-prefix", "", "project-wide SYMBOL prefix transform")
	cmd.Flags().StringVar(&what, "what", "full", "full | addresses")
	cmd.Flags().StringVar(&mode, "mode", "default", "default | strict | preserve")
	cmd.MarkFlagRequired("binary")
	cmd.MarkFlagRequired("module")

	return cmd
}

func printReport(r coordinator.Report) {
	for _, name := range r.Updated {
		fmt.Printf("updated   %s\n", name)
	}
	for _, name := range r.Zeroed {
		fmt.Printf("zeroed    %s\n", name)
	}
	for _, name := range r.Removed {
		fmt.Printf("removed   %s\n", name)
	}
	for _, name := range r.Unresolved {
		fmt.Printf("unresolved %s\n", name)
	}
	for _, w := range r.Warned {
		fmt.Printf("warning   %s: %s\n", w.Descriptor, w.Message)
	}
}
