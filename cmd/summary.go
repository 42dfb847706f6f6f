package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/sitebudget/internal/cli"
)

var summaryCmd = &cobra.Command{
	Use:   "summary [project-id]",
	Short: "Budget summary with forecast line items",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(_ *cobra.Command, args []string) error {
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

	fmt.Println()
	fmt.Print(cli.RenderSummary(v.Project(), v.Summary()))
	fmt.Println()

	rows := v.Rows()
	if len(rows) == 0 {
		fmt.Println("  No line items yet. Add one with `sitebudget items add`.")
		fmt.Println()
		return nil
	}
	fmt.Print(cli.RenderTable(cli.ItemTable(rows)))
	fmt.Println(cli.Muted(fmt.Sprintf("  Actuals from %s", v.Source())))
	fmt.Println()
	return nil
}
