package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/sitebudget/internal/cli"
	"github.com/theirongolddev/sitebudget/internal/session"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE:  runWhoami,
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}

func runWhoami(_ *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	fmt.Println()
	if !a.session.IsAuthenticated() {
		fmt.Println("  Not signed in. Run `sitebudget login`.")
		fmt.Println()
		return nil
	}

	rows := [][]string{}
	if u := a.session.User(); u != nil {
		rows = append(rows,
			[]string{"Name", u.DisplayName()},
			[]string{"Email", u.Email},
			[]string{"User ID", u.ID},
		)
	}
	expires := "never"
	if exp, ok := session.ExpiresAt(a.session.Token()); ok {
		expires = exp.Local().Format("Jan 2, 2006 15:04") + " " + cli.Muted("("+cli.FormatAge(exp)+")")
	}
	rows = append(rows,
		[]string{"Session expires", expires},
		[]string{"API", a.client.BaseURL()},
	)

	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Account",
		Headers: []string{"Field", "Value"},
		Rows:    rows,
	}))
	fmt.Println()
	return nil
}
