package cmd

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/sitebudget/internal/cli"
	"github.com/theirongolddev/sitebudget/internal/form"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	RunE:  runRegister,
}

func init() {
	rootCmd.AddCommand(registerCmd)
}

func runRegister(_ *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	var in form.Register
	err = huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Full name").Value(&in.FullName),
		huh.NewInput().Title("Email").Value(&in.Email),
		huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&in.Password),
		huh.NewInput().Title("Confirm password").EchoMode(huh.EchoModePassword).Value(&in.ConfirmPassword),
	)).Run()
	if err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}

	ctx, cancel := requestContext()
	defer cancel()

	user, err := a.session.Register(ctx, a.svc.Auth, in.Email, in.Password, in.FullName)
	if err != nil {
		return err
	}

	name := in.FullName
	if user != nil {
		name = user.DisplayName()
	}
	fmt.Println()
	fmt.Println(cli.Success("Welcome, " + name + ". You are signed in."))
	fmt.Println()
	return nil
}
