package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/sitebudget/internal/cli"
	"github.com/theirongolddev/sitebudget/internal/export"
)

var (
	flagExportOutput string
	flagExportFormat string
)

var exportCmd = &cobra.Command{
	Use:   "export [project-id]",
	Short: "Export the forecast and expenses as CSV or XLSX",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&flagExportOutput, "output", "o", "", "Output file (default stdout for CSV)")
	exportCmd.Flags().StringVar(&flagExportFormat, "format", "", "csv or xlsx (default from the output extension)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(_ *cobra.Command, args []string) error {
	format := export.FormatFor(flagExportOutput)
	if flagExportFormat != "" {
		f, err := export.ParseFormat(flagExportFormat)
		if err != nil {
			return err
		}
		format = f
	}
	if format == export.XLSX && flagExportOutput == "" {
		return fmt.Errorf("xlsx export needs --output <file>")
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := requestContext()
	defer cancel()

	v, err := a.loadView(ctx, args)
	if notFound(err, "Project") {
		return nil
	}
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if flagExportOutput != "" {
		f, err := os.Create(flagExportOutput)
		if err != nil {
			return fmt.Errorf("creating %s: %w", flagExportOutput, err)
		}
		defer f.Close()
		w = f
	}

	if err := export.Write(w, format, v.Bundle(), v.Source()); err != nil {
		return fmt.Errorf("writing %s export: %w", format, err)
	}
	if flagExportOutput != "" {
		fmt.Fprintln(os.Stderr, cli.Success(fmt.Sprintf("Exported %s to %s", v.Project().Name, flagExportOutput)))
	}
	return nil
}
