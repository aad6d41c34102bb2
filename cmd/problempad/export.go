package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/huangang/problempad/internal/render"
)

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all reports as Markdown or JSON",
		Long: `Export writes every saved report to stdout or to a file.

Examples:
  problempad export > reports.md
  problempad export --format json -o reports.json`,
		Args: cobra.NoArgs,
		RunE: runExportCmd,
	}
	cmd.Flags().String("format", "markdown", "Output format: markdown or json")
	cmd.Flags().StringP("output", "o", "", "Write to this file instead of stdout")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	if format != "markdown" && format != "json" {
		return fmt.Errorf("unsupported format: %s", format)
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	reports, err := readReports(cmd)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if output != "" {
		f, err := os.Create(output) //nolint:gosec // user-supplied output path
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	}
	return render.Markdown(w, reports)
}
