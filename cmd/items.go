package cmd

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/sitebudget/internal/cli"
	"github.com/theirongolddev/sitebudget/internal/form"
	"github.com/theirongolddev/sitebudget/internal/model"
	"github.com/theirongolddev/sitebudget/internal/state"
)

var (
	flagProject      string
	flagItemCategory string
	flagItemDesc     string
	flagItemEstimate string
	flagItemActual   string
	flagItemProgress string
	flagItemStatus   string
	flagItemStart    string
	flagItemEnd      string
)

var itemsCmd = &cobra.Command{
	Use:     "items",
	Aliases: []string{"item", "forecast"},
	Short:   "Manage a project's forecast line items",
	RunE:    runItemsList,
}

var itemsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List line items with estimate, actual and variance",
	Args:  cobra.NoArgs,
	RunE:  runItemsList,
}

var itemsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a line item",
	Args:  cobra.NoArgs,
	RunE:  runItemsAdd,
}

var itemsEditCmd = &cobra.Command{
	Use:   "edit <item-id>",
	Short: "Edit a line item; --actual also records the spend",
	Args:  cobra.ExactArgs(1),
	RunE:  runItemsEdit,
}

var itemsDeleteCmd = &cobra.Command{
	Use:   "delete <item-id>",
	Short: "Delete a line item",
	Args:  cobra.ExactArgs(1),
	RunE:  runItemsDelete,
}

var itemFieldFlags = []string{"category", "description", "estimate", "progress", "status", "start", "end"}

func itemFlags(c *cobra.Command) {
	c.Flags().StringVar(&flagItemCategory, "category", "", "Category, e.g. Framing")
	c.Flags().StringVar(&flagItemDesc, "description", "", "Description")
	c.Flags().StringVar(&flagItemEstimate, "estimate", "", "Estimated cost")
	c.Flags().StringVar(&flagItemActual, "actual", "", "Actual cost")
	c.Flags().StringVar(&flagItemProgress, "progress", "", "Progress percent (0-100)")
	c.Flags().StringVar(&flagItemStatus, "status", "", "not_started, in_progress or completed")
	c.Flags().StringVar(&flagItemStart, "start", "", "Start date (YYYY-MM-DD)")
	c.Flags().StringVar(&flagItemEnd, "end", "", "End date (YYYY-MM-DD)")
}

func init() {
	itemsCmd.PersistentFlags().StringVarP(&flagProject, "project", "p", "", "Project id (defaults to [general] default_project)")
	itemFlags(itemsAddCmd)
	itemFlags(itemsEditCmd)
	itemsDeleteCmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "Skip the confirmation prompt")

	itemsCmd.AddCommand(itemsListCmd, itemsAddCmd, itemsEditCmd, itemsDeleteCmd)
	rootCmd.AddCommand(itemsCmd)
}

// openProject builds the app and loads the project named by --project.
func openProject() (*app, *state.ProjectView, func(), error) {
	a, err := newApp()
	if err != nil {
		return nil, nil, nil, err
	}
	ctx, cancel := requestContext()
	v, err := a.loadView(ctx, []string{flagProject})
	if err != nil {
		cancel()
		a.close()
		return nil, nil, nil, err
	}
	return a, v, func() {
		cancel()
		a.close()
	}, nil
}

func runItemsList(_ *cobra.Command, _ []string) error {
	_, v, done, err := openProject()
	if notFound(err, "Project") {
		return nil
	}
	if err != nil {
		return err
	}
	defer done()

	rows := v.Rows()
	fmt.Println()
	if len(rows) == 0 {
		fmt.Printf("  %s has no line items yet.\n\n", v.Project().Name)
		return nil
	}
	t := cli.ItemTable(rows)
	t.Title = fmt.Sprintf("%s: Forecast (%d)", v.Project().Name, len(rows))
	fmt.Print(cli.RenderTable(t))
	sum := v.Summary()
	fmt.Printf("  %s %s   %s %s\n\n",
		cli.Muted("Forecast"), cli.FormatCurrency(sum.TotalForecast),
		cli.Muted("Actual"), cli.FormatCurrency(sum.TotalActual))
	return nil
}

func itemInput() form.Item {
	return form.Item{
		Category:      flagItemCategory,
		Description:   flagItemDesc,
		EstimatedCost: flagItemEstimate,
		Progress:      flagItemProgress,
		Status:        flagItemStatus,
		StartDate:     flagItemStart,
		EndDate:       flagItemEnd,
	}
}

func runItemsAdd(cmd *cobra.Command, _ []string) error {
	a, v, done, err := openProject()
	if notFound(err, "Project") {
		return nil
	}
	if err != nil {
		return err
	}
	defer done()

	in := itemInput()
	in.ActualCost = flagItemActual
	if !cmd.Flags().Changed("category") {
		err := huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("Category").Placeholder("Framing").Value(&in.Category),
			huh.NewInput().Title("Description").Value(&in.Description),
			huh.NewInput().Title("Estimated cost").Value(&in.EstimatedCost),
			huh.NewInput().Title("Start date").Placeholder("YYYY-MM-DD").Value(&in.StartDate),
			huh.NewInput().Title("End date").Placeholder("YYYY-MM-DD").Value(&in.EndDate),
		)).Run()
		if err != nil {
			return err
		}
	}
	if in.EstimatedCost == "" {
		in.EstimatedCost = "0"
	}
	it, err := in.Parse(model.ForecastItem{})
	if err != nil {
		return err
	}

	ctx, cancel := requestContext()
	defer cancel()

	created, err := v.AddItem(ctx, it)
	if err != nil {
		return err
	}
	a.log.Debug("item created", "project", v.Project().ID, "item", created.ID)
	fmt.Println()
	fmt.Println(cli.Success(fmt.Sprintf("Added item %d: %s (%s)", created.ID, created.Category, cli.FormatCurrency(created.EstimatedCost))))
	fmt.Println()
	return nil
}

func runItemsEdit(cmd *cobra.Command, args []string) error {
	id, err := parseID("item", args[0])
	if err != nil {
		return err
	}
	_, v, done, err := openProject()
	if notFound(err, "Project") {
		return nil
	}
	if err != nil {
		return err
	}
	defer done()

	base, ok := v.Items.Get(id)
	if !ok {
		fmt.Printf("\n  Line item %d not found in %s.\n\n", id, v.Project().Name)
		return nil
	}

	changed := changedFields(cmd, itemFieldFlags)
	in := form.Item{}
	if len(changed) > 0 {
		in = itemInput()
	}
	var actual *decimal.Decimal
	if cmd.Flags().Changed("actual") {
		d, err := form.Amount("actual_cost", "Actual cost", flagItemActual)
		if err != nil {
			return err
		}
		actual = &d
	}
	if len(changed) == 0 && actual == nil {
		return form.Errors{"item": "Nothing to change. Pass --actual, --progress, --status or another field."}
	}

	it, err := in.Parse(base)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext()
	defer cancel()

	res, err := v.EditItem(ctx, it, actual)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.Success(fmt.Sprintf("Updated item %d: %s", res.Item.ID, res.Item.Category)))
	if res.Expense != nil {
		fmt.Println(cli.Muted(fmt.Sprintf("  Tracked expense %d now %s", res.Expense.ID, cli.FormatCurrency(res.Expense.AmountSpent))))
	}
	switch {
	case res.StatusSyncErr != nil:
		fmt.Println(cli.Warn("  Could not update the project status: " + describeError(res.StatusSyncErr)))
	case res.StatusSynced:
		fmt.Println(cli.Muted("  Project status is now " + cli.FormatStatus(res.Status)))
	}
	fmt.Println()
	return nil
}

func runItemsDelete(_ *cobra.Command, args []string) error {
	id, err := parseID("item", args[0])
	if err != nil {
		return err
	}
	_, v, done, err := openProject()
	if notFound(err, "Project") {
		return nil
	}
	if err != nil {
		return err
	}
	defer done()

	it, ok := v.Items.Get(id)
	if !ok {
		fmt.Printf("\n  Line item %d not found in %s.\n\n", id, v.Project().Name)
		return nil
	}
	if !flagYes {
		confirmed := false
		err := huh.NewConfirm().
			Title(fmt.Sprintf("Delete line item %q?", it.Category)).
			Affirmative("Delete").
			Negative("Cancel").
			Value(&confirmed).
			Run()
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("\n  Cancelled.")
			return nil
		}
	}

	ctx, cancel := requestContext()
	defer cancel()

	if err := v.DeleteItem(ctx, id); err != nil {
		if notFound(err, "Line item") {
			return nil
		}
		return err
	}
	fmt.Println()
	fmt.Println(cli.Success(fmt.Sprintf("Deleted item %d", id)))
	fmt.Println()
	return nil
}
