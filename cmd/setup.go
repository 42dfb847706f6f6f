package cmd

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/sitebudget/internal/cli"
	"github.com/theirongolddev/sitebudget/internal/config"
	"github.com/theirongolddev/sitebudget/internal/tui"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	Args:  cobra.NoArgs,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		// Start over from defaults when the existing file is unreadable.
		cfg = config.DefaultConfig()
	}

	fmt.Println()
	fmt.Println("  Welcome to sitebudget!")
	fmt.Println()

	cfg, err = tui.RunSetup(cfg)
	if errors.Is(err, huh.ErrUserAborted) {
		fmt.Println("\n  Setup cancelled.")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.Success("Saved to " + config.ConfigPath()))
	fmt.Println()
	fmt.Printf("  API:     %s\n", cfg.API.BaseURL)
	fmt.Printf("  Actuals: %s\n", cfg.ActualsSource())
	fmt.Printf("  Theme:   %s\n", cfg.Appearance.Theme)
	fmt.Println()
	fmt.Println("  Next: `sitebudget login`, then `sitebudget tui <project-id>`.")
	fmt.Println()
	return nil
}
