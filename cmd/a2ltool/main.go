// Command a2ltool is the driver spec.md §6 describes: it wires the
// Binary Loader, Debug-Info Readers, Name Resolver, A2L Descriptor
// Synthesizer, and Update Coordinator behind three subcommands
// (update, create, check), following the teacher's own cmd/pedumper.go
// cobra layout.
package main

import (
	"fmt"
	"os"

	kratoslog "github.com/go-kratos/kratos/v2/log"
	"github.com/spf13/cobra"

	"github.com/a2l-tools/a2ltool/internal/xlog"
)

var log = xlog.For("cmd")

var verbose bool

func main() {
	rootCmd := &cobra.Command{
		Use:   "a2ltool",
		Short: "Reconciles ASAM MCD-2 MC (A2L) descriptors against a binary's debug info",
		Long: "a2ltool resolves MEASUREMENT/CHARACTERISTIC/AXIS_PTS/BLOB/INSTANCE " +
			"descriptors against a DWARF or PDB Symbol Graph built from an ELF or " +
			"PE/COFF binary, updating addresses and shapes or synthesizing new " +
			"descriptors from scratch.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				xlog.SetLevel(kratoslog.LevelDebug)
			}
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("a2ltool 0.1.0")
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(newUpdateCmd())
	rootCmd.AddCommand(newCreateCmd())
	rootCmd.AddCommand(newCheckCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
