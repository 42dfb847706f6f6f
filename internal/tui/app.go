// Package tui provides the interactive budget dashboard for one project.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/sitebudget/internal/api"
	"github.com/theirongolddev/sitebudget/internal/cli"
	"github.com/theirongolddev/sitebudget/internal/config"
	"github.com/theirongolddev/sitebudget/internal/state"
	"github.com/theirongolddev/sitebudget/internal/tui/components"
	"github.com/theirongolddev/sitebudget/internal/tui/theme"
)

// Tab indices.
const (
	tabOverview = iota
	tabForecast
	tabExpenses
	tabDraws
	numTabs
)

// Layout constants
const (
	minTerminalWidth = 80
	compactWidth     = 110
	maxContentWidth  = 180
	minContentHeight = 5
	listOverhead     = 8 // header, card border and column headers around a list

	requestTimeout = 30 * time.Second
	minRefresh     = 10 * time.Second
)

// Options configures a dashboard.
type Options struct {
	ProjectID int64
	View      *state.ProjectView
	// RefreshInterval is the auto-refresh period; values under 10s use 30s.
	RefreshInterval time.Duration
	AutoRefresh     bool
	// NeedSetup opens the settings form before the dashboard.
	NeedSetup bool
	Logger    *slog.Logger
}

// App is the top-level bubbletea model.
type App struct {
	view      *state.ProjectView
	projectID int64
	log       *slog.Logger

	width  int
	height int

	loaded      bool
	loadErr     error
	loadTime    time.Duration
	lastRefresh time.Time
	refreshing  bool
	busy        bool

	autoRefresh     bool
	refreshInterval time.Duration

	activeTab int
	cursors   [numTabs]int
	showHelp  bool

	// pendingDelete holds the id armed by the first "x" press.
	pendingDelete int64

	flash    string
	flashErr bool

	spinner spinner.Model

	needSetup bool
	setupForm *huh.Form
	setupVals *setupValues

	editForm *huh.Form
	editVals *itemEditValues
}

// NewApp creates the dashboard model.
func NewApp(opts Options) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	interval := opts.RefreshInterval
	if interval < minRefresh {
		interval = 30 * time.Second
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return App{
		view:            opts.View,
		projectID:       opts.ProjectID,
		log:             log,
		autoRefresh:     opts.AutoRefresh,
		refreshInterval: interval,
		needSetup:       opts.NeedSetup,
		spinner:         sp,
	}
}

// ─── Messages ───────────────────────────────────────────────────

type dataLoadedMsg struct {
	err     error
	elapsed time.Duration
}

type mutationDoneMsg struct {
	message string
	err     error
	syncErr error
}

type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return tickMsg{} })
}

func loadCmd(v *state.ProjectView, id int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		start := time.Now()
		err := v.Load(ctx, id)
		return dataLoadedMsg{err: err, elapsed: time.Since(start)}
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadCmd(a.view, a.projectID),
		a.spinner.Tick,
		tickCmd(),
	)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		if a.editForm != nil {
			a.editForm = a.editForm.WithWidth(formWidth(msg.Width))
		}
		return a, nil

	case tea.MouseMsg:
		return a.updateMouse(msg)

	case tea.KeyMsg:
		return a.updateKey(msg)

	case dataLoadedMsg:
		a.refreshing = false
		a.loadTime = msg.elapsed
		if msg.err != nil {
			a.log.Warn("project load failed", "project_id", a.projectID, "err", msg.err)
			if !a.loaded {
				a.loadErr = msg.err
				return a, nil
			}
			a.setFlash(describe(msg.err), true)
			return a, nil
		}
		a.loaded = true
		a.loadErr = nil
		a.lastRefresh = time.Now()
		a.clampCursors()

		if a.needSetup && a.setupForm == nil {
			return a.openSetupForm()
		}
		return a, nil

	case mutationDoneMsg:
		a.busy = false
		a.clampCursors()
		switch {
		case msg.err != nil:
			a.setFlash(describe(msg.err), true)
		case msg.syncErr != nil:
			a.setFlash(msg.message+" (status sync failed)", true)
		default:
			a.setFlash(msg.message, false)
		}
		return a, nil

	case tickMsg:
		if a.autoRefresh && a.loaded && !a.refreshing && !a.busy &&
			time.Since(a.lastRefresh) >= a.refreshInterval {
			a.refreshing = true
			return a, tea.Batch(loadCmd(a.view, a.projectID), tickCmd())
		}
		return a, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	// Forward remaining messages (cursor blink etc.) to an open form.
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.editForm != nil {
		return a.updateEditForm(msg)
	}
	return a, nil
}

func (a App) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if !a.loaded || a.showHelp || a.setupForm != nil || a.editForm != nil {
		return a, nil
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		a.moveCursor(-1)
	case tea.MouseButtonWheelDown:
		a.moveCursor(1)
	case tea.MouseButtonLeft:
		if msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.activeTab = tab
			}
		}
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return a, tea.Quit
	}

	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.editForm != nil {
		return a.updateEditForm(msg)
	}

	if !a.loaded {
		switch key {
		case "q":
			return a, tea.Quit
		case "r":
			if a.loadErr != nil {
				a.loadErr = nil
				return a, loadCmd(a.view, a.projectID)
			}
		}
		return a, nil
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	if key != "x" {
		a.pendingDelete = 0
	}

	switch key {
	case "q":
		return a, tea.Quit

	case "r":
		if !a.refreshing && !a.busy {
			a.refreshing = true
			return a, loadCmd(a.view, a.projectID)
		}
		return a, nil

	case "R":
		a.autoRefresh = !a.autoRefresh
		// Persist best-effort; a broken config file is left alone.
		if cfg, err := config.Load(); err == nil {
			cfg.General.AutoRefresh = a.autoRefresh
			_ = config.Save(cfg)
		}
		if a.autoRefresh {
			a.setFlash("Auto-refresh on", false)
		} else {
			a.setFlash("Auto-refresh off", false)
		}
		return a, nil

	case "s":
		return a.openSetupForm()

	case "left", "shift+tab":
		a.activeTab = (a.activeTab - 1 + numTabs) % numTabs
		return a, nil
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % numTabs
		return a, nil

	case "j", "down":
		a.moveCursor(1)
		return a, nil
	case "k", "up":
		a.moveCursor(-1)
		return a, nil
	case "g":
		a.cursors[a.activeTab] = 0
		return a, nil
	case "G":
		a.cursors[a.activeTab] = a.listLen() - 1
		a.clampCursors()
		return a, nil

	case "enter":
		if a.activeTab == tabForecast && !a.busy {
			return a.openEditForm()
		}
		return a, nil

	case "x":
		return a.deleteSelected()
	}

	if len(key) == 1 {
		if idx := components.TabIdxByKey(rune(key[0])); idx >= 0 {
			a.activeTab = idx
		}
	}
	return a, nil
}

// deleteSelected arms a delete on the first press and runs it on the second.
func (a App) deleteSelected() (tea.Model, tea.Cmd) {
	if a.busy {
		return a, nil
	}
	v := a.view
	switch a.activeTab {
	case tabForecast:
		rows := v.Rows()
		if len(rows) == 0 {
			return a, nil
		}
		it := rows[a.cursors[tabForecast]].Item
		if a.pendingDelete != it.ID {
			a.pendingDelete = it.ID
			a.setFlash(fmt.Sprintf("Press x again to delete %q", it.Category), false)
			return a, nil
		}
		a.pendingDelete = 0
		a.busy = true
		return a, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			return mutationDoneMsg{message: "Deleted " + it.Category, err: v.DeleteItem(ctx, it.ID)}
		}

	case tabExpenses:
		exps := a.sortedExpenses()
		if len(exps) == 0 {
			return a, nil
		}
		e := exps[a.cursors[tabExpenses]]
		if a.pendingDelete != e.ID {
			a.pendingDelete = e.ID
			a.setFlash(fmt.Sprintf("Press x again to delete expense %d", e.ID), false)
			return a, nil
		}
		a.pendingDelete = 0
		a.busy = true
		return a, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			return mutationDoneMsg{message: fmt.Sprintf("Deleted expense %d", e.ID), err: v.DeleteExpense(ctx, e.ID)}
		}
	}
	return a, nil
}

func (a *App) setFlash(msg string, isErr bool) {
	a.flash = msg
	a.flashErr = isErr
}

func (a App) listLen() int {
	if a.view == nil {
		return 0
	}
	switch a.activeTab {
	case tabForecast:
		return a.view.Items.Len()
	case tabExpenses:
		return a.view.Expenses.Len()
	case tabDraws:
		return a.view.Draws.Len()
	}
	return 0
}

func (a *App) moveCursor(delta int) {
	a.cursors[a.activeTab] += delta
	a.clampCursors()
}

func (a *App) clampCursors() {
	if a.view == nil {
		return
	}
	lens := [numTabs]int{
		tabForecast: a.view.Items.Len(),
		tabExpenses: a.view.Expenses.Len(),
		tabDraws:    a.view.Draws.Len(),
	}
	for i := range a.cursors {
		if a.cursors[i] >= lens[i] {
			a.cursors[i] = lens[i] - 1
		}
		if a.cursors[i] < 0 {
			a.cursors[i] = 0
		}
	}
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.setupForm != nil {
		return a.setupForm.View()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := a.height
	if h < 5 {
		h = 5
	}
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  sitebudget needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderFocus).
		Background(t.Surface).
		Padding(2, 4)

	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	spinnerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	errStyle := lipgloss.NewStyle().Foreground(t.OverBudget).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ sitebudget"))
	b.WriteString(subtitleStyle.Render(" · Construction Budget"))
	b.WriteString("\n\n")

	if a.loadErr != nil {
		b.WriteString(errStyle.Render(describe(a.loadErr)))
		b.WriteString("\n\n")
		b.WriteString(subtitleStyle.Render("[r] retry  [q] quit"))
	} else {
		b.WriteString(spinnerStyle.Render(a.spinner.View()))
		b.WriteString(subtitleStyle.Render(fmt.Sprintf(" Loading project %d...", a.projectID)))
	}

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderFocus).
		Background(t.Surface).
		Padding(1, 3)

	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	sections := []struct {
		title    string
		bindings []struct{ key, desc string }
	}{
		{"Navigation", []struct{ key, desc string }{
			{"o f e d", "Jump to tab"},
			{"← →", "Previous / Next tab"},
			{"j k", "Move selection"},
			{"g G", "First / Last row"},
		}},
		{"Actions", []struct{ key, desc string }{
			{"Enter", "Edit line item"},
			{"x x", "Delete selected row"},
			{"r", "Refresh"},
			{"R", "Toggle auto-refresh"},
			{"s", "Settings"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")
	for _, sec := range sections {
		b.WriteString(sectionStyle.Render(sec.title))
		b.WriteString("\n")
		for _, bind := range sec.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
				descStyle.Render(bind.desc))
		}
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	p := a.view.Project()
	pillStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	pillAccent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	pill := pillStyle.Render(" ") + pillAccent.Render(p.Name)
	if p.Address != "" {
		pill += pillStyle.Render(" │ " + p.Address)
	}
	pill += pillStyle.Render(" │ ") + pillAccent.Render(cli.FormatStatus(a.view.Summary().Status))

	header := components.RenderTabBar(a.activeTab, w) + "\n" +
		lipgloss.NewStyle().Background(t.Surface).Width(w).Render(pill)

	st := components.StatusInfo{
		Source:      string(a.view.Source()),
		FromCache:   a.view.FromCache(),
		Refreshing:  a.refreshing || a.busy,
		AutoRefresh: a.autoRefresh,
		Message:     a.flash,
		IsError:     a.flashErr,
	}
	if at := a.view.FetchedAt(); !at.IsZero() {
		st.Age = cli.FormatAge(at)
	}
	statusBar := components.RenderStatusBar(w, st)

	contentH := h - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if contentH < minContentHeight {
		contentH = minContentHeight
	}

	var content string
	switch a.activeTab {
	case tabOverview:
		content = a.renderOverviewTab(cw)
	case tabForecast:
		content = a.renderForecastTab(cw, contentH)
	case tabExpenses:
		content = a.renderExpensesTab(cw, contentH)
	case tabDraws:
		content = a.renderDrawsTab(cw, contentH)
	}

	if a.editForm != nil {
		content = a.renderEditOverlay(cw, contentH)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// ─── Helpers ────────────────────────────────────────────────────

// describe turns an error into a one-line message for the status bar.
func describe(err error) string {
	var reqErr *api.RequestError
	switch {
	case errors.Is(err, api.ErrAuthRequired):
		return "Session expired. Run `sitebudget login`."
	case errors.Is(err, api.ErrNotFound):
		return "Project not found."
	case api.IsNetwork(err):
		return "Network error. Check your connection."
	case errors.As(err, &reqErr):
		return reqErr.Message
	}
	return err.Error()
}

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit == 1 {
		return "…"
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads every line to width w with the background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	fill := lipgloss.NewStyle().Background(bg)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if gap := w - lipgloss.Width(line); gap > 0 {
			lines[i] = line + fill.Render(strings.Repeat(" ", gap))
		}
	}
	return strings.Join(lines, "\n")
}

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes use the same widths as RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW
		if i < len(components.Tabs)-1 {
			pos++ // separator
		}
	}
	return -1
}

// visibleWindow returns the [start, end) slice of n rows that keeps cursor
// on screen within height rows.
func visibleWindow(n, cursor, height int) (int, int) {
	if height < 1 {
		height = 1
	}
	if n <= height {
		return 0, n
	}
	start := cursor - height/2
	if start < 0 {
		start = 0
	}
	if start+height > n {
		start = n - height
	}
	return start, start + height
}
