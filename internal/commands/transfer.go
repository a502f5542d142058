package commands

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/klabast/wb-services/residency-counter/internal/app"
	"github.com/klabast/wb-services/residency-counter/internal/store"
)

func (c *cli) exportCmd() *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export trips as JSON, CSV or ICS",
		Long: `Writes all trips to stdout or --output. Only the JSON format can be
imported back.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(func(s *store.TripStore) error {
				snap := s.Export()
				if output == "" {
					return app.WriteExport(cmd.OutOrStdout(), format, snap)
				}

				var buf bytes.Buffer
				if err := app.WriteExport(&buf, format, snap); err != nil {
					return err
				}
				if err := os.WriteFile(output, buf.Bytes(), 0644); err != nil {
					return fmt.Errorf("failed to write %s: %w", output, err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d trips to %s\n", len(snap.Trips), output)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", app.FormatJSON, "Export format: json, csv or ics")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	return cmd
}

func (c *cli) importCmd() *cobra.Command {
	var merge bool

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import trips from a JSON export",
		Long: `Reads a JSON export (use - for stdin). By default the imported trips
replace the stored ones; with --merge they are added and colliding ids are
reassigned. Malformed trips are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to read import: %w", err)
			}

			mode := store.ImportReplace
			if merge {
				mode = store.ImportMerge
			}

			return c.withStore(func(s *store.TripStore) error {
				result, err := s.Import(data, mode)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d trips (%s), skipped %d, reassigned %d ids\n",
					result.Imported, result.Mode, result.Skipped, result.Reassigned)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&merge, "merge", false, "Add to the stored trips instead of replacing them")
	return cmd
}
