package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/sitebudget/internal/cli"
	"github.com/theirongolddev/sitebudget/internal/form"
	"github.com/theirongolddev/sitebudget/internal/model"
)

var (
	flagExpAmount  string
	flagExpVendor  string
	flagExpItem    string
	flagExpDate    string
	flagExpReceipt string
)

var expensesCmd = &cobra.Command{
	Use:     "expenses",
	Aliases: []string{"expense", "exp"},
	Short:   "Record and list a project's expenses",
	RunE:    runExpensesList,
}

var expensesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List expenses, newest first",
	Args:  cobra.NoArgs,
	RunE:  runExpensesList,
}

var expensesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record an expense",
	Args:  cobra.NoArgs,
	RunE:  runExpensesAdd,
}

var expensesDeleteCmd = &cobra.Command{
	Use:   "delete <expense-id>",
	Short: "Delete an expense",
	Args:  cobra.ExactArgs(1),
	RunE:  runExpensesDelete,
}

func init() {
	expensesCmd.PersistentFlags().StringVarP(&flagProject, "project", "p", "", "Project id (defaults to [general] default_project)")
	expensesAddCmd.Flags().StringVar(&flagExpAmount, "amount", "", "Amount spent")
	expensesAddCmd.Flags().StringVar(&flagExpVendor, "vendor", "", "Vendor")
	expensesAddCmd.Flags().StringVar(&flagExpItem, "item", "", "Line item id this expense belongs to")
	expensesAddCmd.Flags().StringVar(&flagExpDate, "date", "", "Date (YYYY-MM-DD, default today)")
	expensesAddCmd.Flags().StringVar(&flagExpReceipt, "receipt", "", "Receipt URL")
	expensesDeleteCmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "Skip the confirmation prompt")

	expensesCmd.AddCommand(expensesListCmd, expensesAddCmd, expensesDeleteCmd)
	rootCmd.AddCommand(expensesCmd)
}

func runExpensesList(_ *cobra.Command, _ []string) error {
	_, v, done, err := openProject()
	if notFound(err, "Project") {
		return nil
	}
	if err != nil {
		return err
	}
	defer done()

	expenses := v.Expenses.All()
	fmt.Println()
	if len(expenses) == 0 {
		fmt.Printf("  No expenses recorded for %s.\n\n", v.Project().Name)
		return nil
	}
	sort.SliceStable(expenses, func(i, j int) bool {
		if !expenses[i].Date.Equal(expenses[j].Date.Time) {
			return expenses[i].Date.After(expenses[j].Date.Time)
		}
		return expenses[i].ID > expenses[j].ID
	})

	total := decimal.Zero
	rows := make([][]string, 0, len(expenses))
	for _, e := range expenses {
		total = total.Add(e.AmountSpent)
		item := cli.Muted("unlinked")
		if e.ForecastLineItemID != nil {
			item = "#" + strconv.FormatInt(*e.ForecastLineItemID, 10)
			if it, ok := v.Items.Get(*e.ForecastLineItemID); ok {
				item = it.Category
			}
		}
		rows = append(rows, []string{
			strconv.FormatInt(e.ID, 10),
			cli.FormatDate(e.Date),
			e.Vendor,
			item,
			cli.FormatCurrency(e.AmountSpent),
		})
	}
	rows = append(rows, []string{"---"}, []string{"", "", "", "Total", cli.FormatCurrency(total)})

	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("%s: Expenses (%d)", v.Project().Name, len(expenses)),
		Headers: []string{"ID", "Date", "Vendor", "Line Item", "Amount"},
		Rows:    rows,
	}))
	fmt.Println()
	return nil
}

func runExpensesAdd(cmd *cobra.Command, _ []string) error {
	_, v, done, err := openProject()
	if notFound(err, "Project") {
		return nil
	}
	if err != nil {
		return err
	}
	defer done()

	if !cmd.Flags().Changed("amount") {
		err := huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("Amount").Value(&flagExpAmount),
			huh.NewInput().Title("Vendor").Value(&flagExpVendor),
			huh.NewInput().Title("Line item id").Description("Leave empty for an unlinked expense").Value(&flagExpItem),
			huh.NewInput().Title("Date").Placeholder("YYYY-MM-DD").Value(&flagExpDate),
		)).Run()
		if err != nil {
			return err
		}
	}

	errs := form.Errors{}
	e := model.Expense{
		Vendor:     strings.TrimSpace(flagExpVendor),
		ReceiptURL: strings.TrimSpace(flagExpReceipt),
	}
	if amt, err := form.Amount("amount_spent", "Amount", flagExpAmount); err != nil {
		mergeErrors(errs, err)
	} else {
		e.AmountSpent = amt
	}
	if s := strings.TrimSpace(flagExpItem); s != "" {
		id, err := parseID("item", s)
		switch {
		case err != nil:
			mergeErrors(errs, err)
		default:
			if _, ok := v.Items.Get(id); !ok {
				errs.Add("item", fmt.Sprintf("Line item %d is not part of %s", id, v.Project().Name))
			}
			e.ForecastLineItemID = &id
		}
	}
	if s := strings.TrimSpace(flagExpDate); s != "" {
		d, err := model.ParseDate(s)
		if err != nil {
			errs.Add("date", "Date must be YYYY-MM-DD")
		}
		e.Date = d
	}
	if err := errs.Err(); err != nil {
		return err
	}

	ctx, cancel := requestContext()
	defer cancel()

	created, err := v.RecordExpense(ctx, e)
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Println(cli.Success(fmt.Sprintf("Recorded expense %d: %s on %s", created.ID, cli.FormatCurrency(created.AmountSpent), cli.FormatDate(created.Date))))
	if v.Source() == model.ActualsFromItems && created.ForecastLineItemID != nil {
		fmt.Println(cli.Muted("  Actuals come from line items; use `sitebudget items edit --actual` to change the item's spend."))
	}
	fmt.Println()
	return nil
}

func runExpensesDelete(_ *cobra.Command, args []string) error {
	id, err := parseID("expense", args[0])
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

	e, ok := v.Expenses.Get(id)
	if !ok {
		fmt.Printf("\n  Expense %d not found in %s.\n\n", id, v.Project().Name)
		return nil
	}
	if !flagYes {
		confirmed := false
		err := huh.NewConfirm().
			Title(fmt.Sprintf("Delete the %s expense from %s?", cli.FormatCurrency(e.AmountSpent), cli.FormatDate(e.Date))).
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

	if err := v.DeleteExpense(ctx, id); err != nil {
		if notFound(err, "Expense") {
			return nil
		}
		return err
	}
	fmt.Println()
	fmt.Println(cli.Success(fmt.Sprintf("Deleted expense %d", id)))
	fmt.Println()
	return nil
}
