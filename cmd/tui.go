package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/sitebudget/internal/config"
	"github.com/theirongolddev/sitebudget/internal/tui"
	"github.com/theirongolddev/sitebudget/internal/tui/theme"
)

var tuiCmd = &cobra.Command{
	Use:     "tui [project-id]",
	Aliases: []string{"dash", "dashboard"},
	Short:   "Launch the interactive budget dashboard",
	Args:    cobra.MaximumNArgs(1),
	RunE:    runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}
	id, err := projectID(args, a.cfg.General.DefaultProject)
	if err != nil {
		return err
	}

	theme.SetActive(a.cfg.Appearance.Theme)

	// Background fills need a color profile even when stdout is not detected as a TTY.
	lipgloss.SetColorProfile(termenv.TrueColor)

	app := tui.NewApp(tui.Options{
		ProjectID:       id,
		View:            a.projectView(),
		RefreshInterval: a.cfg.WatchInterval(),
		AutoRefresh:     a.cfg.General.AutoRefresh,
		NeedSetup:       !config.Exists(),
		Logger:          a.log,
	})
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
