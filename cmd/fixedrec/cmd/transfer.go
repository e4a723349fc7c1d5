package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Write every record to a compressed export file",
		Long: `Write every live record to a zstd-compressed export. Use - for stdout.

Example:
  fixedrec export instruments.zst`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := storeFrom(cmd)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if args[0] != "-" {
				f, err := os.Create(args[0])
				if err != nil {
					return fmt.Errorf("failed to create export file: %w", err)
				}
				defer f.Close()
				w = f
			}

			n, err := s.Export(cmd.Context(), w)
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			if args[0] != "-" {
				cmd.Printf("Exported %d instruments to %s\n", n, args[0])
			}
			return nil
		},
	}
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Load records from an export file",
		Long: `Load records from a file written by export. Existing ids are updated
in place. Use - for stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := storeFrom(cmd)
			if err != nil {
				return err
			}

			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open import file: %w", err)
				}
				defer f.Close()
				r = f
			}

			n, err := s.Import(cmd.Context(), r)
			if err != nil {
				return fmt.Errorf("import failed after %d instruments: %w", n, err)
			}
			cmd.Printf("Imported %d instruments\n", n)
			return nil
		},
	}
}
