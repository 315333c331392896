package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/a2l-tools/a2ltool/internal/coordinator"
)

func newCheckCmd() *cobra.Command {
	var (
		binaryPath   string
		pdbPath      string
		modulePath   string
		symbolPrefix string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Dry-run an update and report what would change",
		Long: "Runs the same resolution and outcome matrix as \"update\" in Strict " +
			"mode against a throwaway copy of the module without writing anything " +
			"back. It stops at the first descriptor Strict mode rejects, reports the " +
			"changes made before that point, and exits non-zero.",
		RunE: func(cmd *cobra.Command, args []string) error {
			graph, img, err := loadSymbolGraph(binaryPath, pdbPath)
			if err != nil {
				return err
			}
			defer closeImage(img)

			mod, err := loadModule(modulePath)
			if err != nil {
				return err
			}

			policy := coordinator.Policy{
				What:         coordinator.Full,
				Mode:         coordinator.Strict,
				SymbolPrefix: symbolPrefix,
			}

			report, err := coordinator.Run(mod, graph, policy)
			printReport(report)
			if err != nil {
				return err
			}
			if len(report.Unresolved) > 0 || len(report.Warned) > 0 {
				return fmt.Errorf("a2ltool: check found %d unresolved, %d warning(s)",
					len(report.Unresolved), len(report.Warned))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&binaryPath, "binary", "", "path to the ELF or PE/COFF binary")
	cmd.Flags().StringVar(&pdbPath, "pdb", "", "path to a sibling .pdb (overrides DWARF)")
	cmd.Flags().StringVar(&modulePath, "module", "", "path to the module JSON document to check")
	cmd.Flags().StringVar(&symbolPrefix, "symbol-prefix", "", "project-wide SYMBOL prefix transform")
	cmd.MarkFlagRequired("binary")
	cmd.MarkFlagRequired("module")

	return cmd
}
