package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/sitebudget/internal/cli"
)

var drawsCmd = &cobra.Command{
	Use:   "draws",
	Short: "Show a project's construction-loan draws",
	Args:  cobra.NoArgs,
	RunE:  runDraws,
}

var drawsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List draw records",
	Args:  cobra.NoArgs,
	RunE:  runDraws,
}

func init() {
	drawsCmd.PersistentFlags().StringVarP(&flagProject, "project", "p", "", "Project id (defaults to [general] default_project)")
	drawsCmd.AddCommand(drawsListCmd)
	rootCmd.AddCommand(drawsCmd)
}

func runDraws(_ *cobra.Command, _ []string) error {
	_, v, done, err := openProject()
	if notFound(err, "Project") {
		return nil
	}
	if err != nil {
		return err
	}
	defer done()

	draws := v.Draws.All()
	fmt.Println()
	if len(draws) == 0 {
		fmt.Printf("  No draws recorded for %s.\n\n", v.Project().Name)
		return nil
	}

	rows := make([][]string, 0, len(draws))
	for _, d := range draws {
		triggered := cli.Muted("no")
		if d.DrawTriggered {
			triggered = "yes"
		}
		rows = append(rows, []string{
			strconv.FormatInt(d.ID, 10),
			cli.FormatDate(d.LastDrawDate),
			cli.FormatCurrency(d.CashOnHand),
			triggered,
			d.Notes,
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("%s: Draws (%d)", v.Project().Name, len(draws)),
		Headers: []string{"ID", "Last Draw", "Cash on Hand", "Triggered", "Notes"},
		Rows:    rows,
	}))
	fmt.Println()
	return nil
}
