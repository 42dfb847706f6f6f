package tui

import (
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/sitebudget/internal/config"
	"github.com/theirongolddev/sitebudget/internal/model"
	"github.com/theirongolddev/sitebudget/internal/tui/theme"
)

// setupValues holds the settings form fields.
type setupValues struct {
	BaseURL     string
	Actuals     string
	Theme       string
	Refresh     string
	AutoRefresh bool
}

// setupValuesFrom seeds the form from the current configuration.
func setupValuesFrom(cfg config.Config) *setupValues {
	return &setupValues{
		BaseURL:     cfg.API.BaseURL,
		Actuals:     string(cfg.ActualsSource()),
		Theme:       cfg.Appearance.Theme,
		Refresh:     strconv.Itoa(cfg.Watch.IntervalSec),
		AutoRefresh: cfg.General.AutoRefresh,
	}
}

func validateInterval(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 10 {
		return errInterval
	}
	return nil
}

type setupError string

func (e setupError) Error() string { return string(e) }

const errInterval = setupError("Refresh interval must be at least 10 seconds")

// newSetupForm builds the settings form used by `sitebudget setup` and the
// dashboard's settings key.
func newSetupForm(v *setupValues) *huh.Form {
	themes := make([]huh.Option[string], 0, len(theme.All))
	for _, name := range theme.Names() {
		themes = append(themes, huh.NewOption(name, name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("sitebudget settings").
				Description("Saved to "+config.ConfigPath()),
			huh.NewInput().
				Title("API base URL").
				Value(&v.BaseURL).
				Validate(func(s string) error {
					if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
						return setupError("URL must start with http:// or https://")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Actual cost source").
				Description("Where a line item's actual spend comes from").
				Options(
					huh.NewOption("Line item actual cost", string(model.ActualsFromItems)),
					huh.NewOption("Sum of linked expenses", string(model.ActualsFromExpenses)),
				).
				Value(&v.Actuals),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themes...).
				Value(&v.Theme),
			huh.NewInput().
				Title("Refresh interval (seconds)").
				Value(&v.Refresh).
				Validate(validateInterval),
			huh.NewConfirm().
				Title("Auto-refresh the dashboard?").
				Value(&v.AutoRefresh),
		),
	).WithTheme(huh.ThemeCharm()).WithShowHelp(true)
}

// apply copies the form values onto cfg.
func (v *setupValues) apply(cfg *config.Config) {
	cfg.API.BaseURL = strings.TrimRight(strings.TrimSpace(v.BaseURL), "/")
	cfg.Budget.ActualsSource = v.Actuals
	cfg.Appearance.Theme = v.Theme
	if n, err := strconv.Atoi(strings.TrimSpace(v.Refresh)); err == nil {
		cfg.Watch.IntervalSec = n
	}
	cfg.General.AutoRefresh = v.AutoRefresh
}

// RunSetup runs the settings form standalone and saves the result.
// It returns huh.ErrUserAborted when the user cancels.
func RunSetup(cfg config.Config) (config.Config, error) {
	v := setupValuesFrom(cfg)
	if err := newSetupForm(v).Run(); err != nil {
		return cfg, err
	}
	v.apply(&cfg)
	theme.SetActive(cfg.Appearance.Theme)
	return cfg, config.Save(cfg)
}

func (a App) openSetupForm() (tea.Model, tea.Cmd) {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.DefaultConfig()
	}
	a.setupVals = setupValuesFrom(cfg)
	a.setupForm = newSetupForm(a.setupVals)
	if a.width > 0 {
		a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
	}
	return a, a.setupForm.Init()
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	f, cmd := a.setupForm.Update(msg)
	if hf, ok := f.(*huh.Form); ok {
		a.setupForm = hf
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		a.saveSetupConfig()
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}
	return a, cmd
}

// saveSetupConfig persists the form. The actuals source takes effect on the
// next start because the view's reconciler is bound to it.
func (a *App) saveSetupConfig() {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.DefaultConfig()
	}
	a.setupVals.apply(&cfg)
	theme.SetActive(cfg.Appearance.Theme)
	a.autoRefresh = cfg.General.AutoRefresh
	a.refreshInterval = cfg.WatchInterval()
	if a.refreshInterval < minRefresh {
		a.refreshInterval = minRefresh
	}

	if err := config.Save(cfg); err != nil {
		a.setFlash("Could not save config: "+err.Error(), true)
		return
	}
	a.setFlash("Settings saved", false)
}
