// Package theme defines color themes for the sitebudget dashboard.
package theme

import "github.com/charmbracelet/lipgloss"

// Theme maps dashboard roles to colors. The budget roles follow the spend
// thresholds used by the bars and cards: on track, caution from 70% of the
// budget, near the limit from 90%, over budget past 100%.
type Theme struct {
	Name string

	Background  lipgloss.Color
	Surface     lipgloss.Color // cards, tables, status bar
	Selected    lipgloss.Color // cursor row
	Border      lipgloss.Color
	BorderFocus lipgloss.Color // help and loading panels
	TextDim     lipgloss.Color
	TextMuted   lipgloss.Color
	TextPrimary lipgloss.Color

	Accent       lipgloss.Color
	AccentBright lipgloss.Color // titles
	TabActive    lipgloss.Color // active tab background

	OnTrack    lipgloss.Color
	Caution    lipgloss.Color
	NearLimit  lipgloss.Color
	OverBudget lipgloss.Color
	Estimate   lipgloss.Color // forecast bars
	InProgress lipgloss.Color // partial completion
}

// Active is the currently selected theme.
var Active = FlexokiDark

// Track returns the color for a figure that is over budget or on track.
func (t Theme) Track(over bool) lipgloss.Color {
	if over {
		return t.OverBudget
	}
	return t.OnTrack
}

// FlexokiDark is the default theme.
var FlexokiDark = Theme{
	Name:         "flexoki-dark",
	Background:   "#100F0F",
	Surface:      "#1C1B1A",
	Selected:     "#282726",
	Border:       "#403E3C",
	BorderFocus:  "#3AA99F",
	TextDim:      "#575653",
	TextMuted:    "#878580",
	TextPrimary:  "#FFFCF0",
	Accent:       "#3AA99F",
	AccentBright: "#5BC8BE",
	TabActive:    "#1A3533",
	OnTrack:      "#879A39",
	Caution:      "#D0A215",
	NearLimit:    "#DA702C",
	OverBudget:   "#D14D41",
	Estimate:     "#4385BE",
	InProgress:   "#24837B",
}

// Blueprint is a drafting-paper theme: white linework on deep blue.
var Blueprint = Theme{
	Name:         "blueprint",
	Background:   "#0B1F3A",
	Surface:      "#10294B",
	Selected:     "#1B3A66",
	Border:       "#2E5590",
	BorderFocus:  "#9CC3F0",
	TextDim:      "#5C7AA6",
	TextMuted:    "#A7BEDC",
	TextPrimary:  "#F2F6FC",
	Accent:       "#9CC3F0",
	AccentBright: "#D6E6FA",
	TabActive:    "#1F4577",
	OnTrack:      "#7FD18B",
	Caution:      "#F2D16B",
	NearLimit:    "#F29E4C",
	OverBudget:   "#F2665C",
	Estimate:     "#D6E6FA",
	InProgress:   "#6FC2D6",
}

// CatppuccinMocha is a soft pastel theme.
var CatppuccinMocha = Theme{
	Name:         "catppuccin-mocha",
	Background:   "#1E1E2E",
	Surface:      "#313244",
	Selected:     "#45475A",
	Border:       "#585B70",
	BorderFocus:  "#89B4FA",
	TextDim:      "#6C7086",
	TextMuted:    "#A6ADC8",
	TextPrimary:  "#CDD6F4",
	Accent:       "#89B4FA",
	AccentBright: "#B4D0FB",
	TabActive:    "#293147",
	OnTrack:      "#A6E3A1",
	Caution:      "#F9E2AF",
	NearLimit:    "#FAB387",
	OverBudget:   "#F38BA8",
	Estimate:     "#89B4FA",
	InProgress:   "#94E2D5",
}

// TokyoNight is a cool blue and purple theme.
var TokyoNight = Theme{
	Name:         "tokyo-night",
	Background:   "#1A1B26",
	Surface:      "#24283B",
	Selected:     "#343A52",
	Border:       "#565F89",
	BorderFocus:  "#7AA2F7",
	TextDim:      "#565F89",
	TextMuted:    "#A9B1D6",
	TextPrimary:  "#C0CAF5",
	Accent:       "#7AA2F7",
	AccentBright: "#A9C1FF",
	TabActive:    "#252B3F",
	OnTrack:      "#9ECE6A",
	Caution:      "#E0AF68",
	NearLimit:    "#FF9E64",
	OverBudget:   "#F7768E",
	Estimate:     "#7AA2F7",
	InProgress:   "#7DCFFF",
}

// Terminal sticks to the 16 ANSI colors.
var Terminal = Theme{
	Name:         "terminal",
	Background:   "0",
	Surface:      "0",
	Selected:     "8",
	Border:       "8",
	BorderFocus:  "6",
	TextDim:      "8",
	TextMuted:    "7",
	TextPrimary:  "15",
	Accent:       "6",
	AccentBright: "14",
	TabActive:    "0",
	OnTrack:      "2",
	Caution:      "11",
	NearLimit:    "3",
	OverBudget:   "1",
	Estimate:     "4",
	InProgress:   "6",
}

// All available themes in display order.
var All = []Theme{FlexokiDark, Blueprint, CatppuccinMocha, TokyoNight, Terminal}

// ByName returns a theme by its name, defaulting to FlexokiDark.
func ByName(name string) Theme {
	for _, t := range All {
		if t.Name == name {
			return t
		}
	}
	return FlexokiDark
}

// SetActive sets the active theme by name.
func SetActive(name string) {
	Active = ByName(name)
}

// Names lists the available theme names.
func Names() []string {
	names := make([]string, len(All))
	for i, t := range All {
		names[i] = t.Name
	}
	return names
}
