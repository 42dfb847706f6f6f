package cmd

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/sitebudget/internal/api"
	"github.com/theirongolddev/sitebudget/internal/cli"
	"github.com/theirongolddev/sitebudget/internal/form"
)

var (
	flagEmail    string
	flagPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the budget API",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the saved session",
	RunE:  runLogout,
}

func init() {
	loginCmd.Flags().StringVar(&flagEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&flagPassword, "password", "", "Account password (prompted when omitted)")
	rootCmd.AddCommand(loginCmd, logoutCmd)
}

func runLogin(_ *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	in := form.Login{Email: flagEmail, Password: flagPassword}
	if in.Email == "" || in.Password == "" {
		err := huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("Email").Value(&in.Email),
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&in.Password),
		)).Run()
		if err != nil {
			return err
		}
	}
	if err := in.Validate(); err != nil {
		return err
	}

	ctx, cancel := requestContext()
	defer cancel()

	user, err := a.session.Login(ctx, a.svc.Auth, in.Email, in.Password)
	if err != nil {
		return loginError(err)
	}

	name := in.Email
	if user != nil {
		name = user.DisplayName()
	}
	fmt.Println()
	fmt.Println(cli.Success("Signed in as " + name))
	fmt.Println()
	return nil
}

// loginError reports a rejected sign-in as bad credentials. A 401 from the
// login endpoint never means an expired session.
func loginError(err error) error {
	if errors.Is(err, api.ErrAuthRequired) {
		return form.Errors{"password": "Invalid email or password"}
	}
	return err
}

func runLogout(_ *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.session.Logout(); err != nil {
		return err
	}
	if a.cache != nil {
		if err := a.cache.Clear(); err != nil {
			a.log.Warn("clearing offline cache", "err", err)
		}
	}
	fmt.Println()
	fmt.Println(cli.Success("Signed out."))
	fmt.Println()
	return nil
}
