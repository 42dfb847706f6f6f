package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/sitebudget/internal/cli"
	"github.com/theirongolddev/sitebudget/internal/config"
	"github.com/theirongolddev/sitebudget/internal/pipeline"
	"github.com/theirongolddev/sitebudget/internal/session"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

var configDefaultCmd = &cobra.Command{
	Use:   "default <project-id>",
	Short: "Set the project used when no id is given (0 clears it)",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigDefault,
}

func init() {
	configCmd.AddCommand(configDefaultCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [API]")
	fmt.Printf("    Base URL:  %s\n", cfg.API.BaseURL)
	fmt.Printf("    Timeout:   %s\n", cfg.Timeout())
	fmt.Println()

	fmt.Println("  [Budget]")
	fmt.Printf("    Actuals source: %s\n", cfg.ActualsSource())
	fmt.Println()

	fmt.Println("  [General]")
	if cfg.General.DefaultProject != 0 {
		fmt.Printf("    Default project: %d\n", cfg.General.DefaultProject)
	} else {
		fmt.Println("    Default project: not set")
	}
	fmt.Printf("    Offline cache:   %v\n", cfg.General.UseCache)
	fmt.Printf("    Auto-refresh:    %v\n", cfg.General.AutoRefresh)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Watch]")
	fmt.Printf("    Address:  %s\n", cfg.Watch.Addr)
	fmt.Printf("    Interval: %s\n", cfg.WatchInterval())
	fmt.Println()

	fmt.Println("  [Files]")
	fmt.Printf("    Session: %s\n", session.NewFileStore(config.ConfigDir()).Path())
	fmt.Printf("    Cache:   %s\n", pipeline.CachePath())
	fmt.Println()

	fmt.Println(cli.Muted("  Run `sitebudget setup` to reconfigure."))
	fmt.Println()
	return nil
}

func runConfigDefault(_ *cobra.Command, args []string) error {
	var id int64
	if args[0] != "0" {
		var err error
		if id, err = parseID("project", args[0]); err != nil {
			return err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.General.DefaultProject = id
	if err := config.Save(cfg); err != nil {
		return err
	}

	fmt.Println()
	if id == 0 {
		fmt.Println(cli.Success("Default project cleared"))
	} else {
		fmt.Println(cli.Success(fmt.Sprintf("Default project set to %d", id)))
	}
	fmt.Println()
	return nil
}
