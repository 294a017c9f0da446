package tui

import "github.com/charmbracelet/lipgloss"

// Styles contains all the lipgloss styles for the TUI.
type Styles struct {
	App lipgloss.Style

	Title    lipgloss.Style
	Subtitle lipgloss.Style

	MenuItem         lipgloss.Style
	MenuItemSelected lipgloss.Style
	MenuItemDim      lipgloss.Style

	// Table rows
	Header      lipgloss.Style
	Row         lipgloss.Style
	RowSelected lipgloss.Style

	// Status badges in the title bar
	BadgeIdle   lipgloss.Style
	BadgeActive lipgloss.Style
	LinkUp      lipgloss.Style
	LinkDown    lipgloss.Style

	Label     lipgloss.Style
	Value     lipgloss.Style
	Highlight lipgloss.Style
	Muted     lipgloss.Style
	Error     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style

	Console lipgloss.Style
	Help    lipgloss.Style
}

// DefaultStyles returns the default color scheme.
func DefaultStyles() Styles {
	subtle := lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight := lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special := lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	muted := lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}
	text := lipgloss.AdaptiveColor{Light: "#343433", Dark: "#C1C6B2"}
	danger := lipgloss.Color("#FF6B6B")

	return Styles{
		App: lipgloss.NewStyle().
			Padding(1, 2),

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(highlight).
			Padding(0, 1),

		Subtitle: lipgloss.NewStyle().
			Foreground(muted),

		MenuItem: lipgloss.NewStyle(),

		MenuItemSelected: lipgloss.NewStyle().
			Foreground(highlight).
			Bold(true),

		MenuItemDim: lipgloss.NewStyle().
			Foreground(muted).
			PaddingLeft(4),

		Header: lipgloss.NewStyle().
			Foreground(muted).
			Bold(true),

		Row: lipgloss.NewStyle().
			Foreground(text),

		RowSelected: lipgloss.NewStyle().
			Foreground(highlight).
			Bold(true),

		BadgeIdle: lipgloss.NewStyle().
			Foreground(muted),

		BadgeActive: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(danger).
			Padding(0, 1),

		LinkUp: lipgloss.NewStyle().
			Foreground(special).
			Bold(true),

		LinkDown: lipgloss.NewStyle().
			Foreground(danger).
			Bold(true),

		Label: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#626262"}).
			Width(14),

		Value: lipgloss.NewStyle().
			Foreground(text),

		Highlight: lipgloss.NewStyle().
			Foreground(highlight).
			Bold(true),

		Muted: lipgloss.NewStyle().
			Foreground(muted),

		Error: lipgloss.NewStyle().
			Foreground(danger),

		Success: lipgloss.NewStyle().
			Foreground(special),

		Warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFCC00")),

		Console: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(subtle).
			Padding(0, 1),

		Help: lipgloss.NewStyle().
			Foreground(muted).
			MarginTop(1),
	}
}
