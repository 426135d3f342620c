package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme is a named palette. Card, header and modal styles are derived from it
// by Styles.
type Theme struct {
	Name string

	Background  string // terminal fill behind overlays
	Surface     string // header, command bar and toast
	Selection   string // selected card row
	Border      string
	BorderFocus string

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string

	// Badges are keyed by author role ("guide") or mark ("liked", "saved",
	// "pending").
	Badges map[string]string
}

// Styles holds the lipgloss styles the screens render with.
type Styles struct {
	Background lipgloss.Style
	Surface    lipgloss.Style

	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style

	Header    lipgloss.Style
	Logo      lipgloss.Style
	Selected  lipgloss.Style
	Card      lipgloss.Style
	CardFocus lipgloss.Style
	Toast     lipgloss.Style

	badges     map[string]string
	background string
	muted      string
}

// Styles builds the style set for t.
func (t Theme) Styles() Styles {
	fg := func(c string) lipgloss.Style { return lipgloss.NewStyle().Foreground(lipgloss.Color(c)) }
	card := func(border string) lipgloss.Style {
		return lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(border)).
			Padding(0, 1)
	}
	onSurface := fg(t.Text).Background(lipgloss.Color(t.Surface))

	return Styles{
		Background: lipgloss.NewStyle().Background(lipgloss.Color(t.Background)),
		Surface:    onSurface,

		Text:        fg(t.Text),
		MutedText:   fg(t.Muted),
		FaintText:   fg(t.Faint),
		AccentText:  fg(t.Accent),
		SuccessText: fg(t.Success).Bold(true),
		WarningText: fg(t.Warning),
		DangerText:  fg(t.Danger).Bold(true),

		Header:    onSurface.Padding(0, 1),
		Logo:      fg(t.Warning).Bold(true),
		Selected:  fg(t.Text).Background(lipgloss.Color(t.Selection)),
		Card:      card(t.Border),
		CardFocus: card(t.BorderFocus),
		Toast:     onSurface.Padding(0, 1),

		badges:     t.Badges,
		background: t.Background,
		muted:      t.Muted,
	}
}

func (s Styles) badgeColor(badge string) string {
	if c := s.badges[strings.ToLower(strings.TrimSpace(badge))]; c != "" {
		return c
	}
	return s.muted
}

// BadgeStyle returns a filled pill for a role or mark.
func (s Styles) BadgeStyle(badge string) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.background)).
		Background(lipgloss.Color(s.badgeColor(badge))).
		Padding(0, 1)
}

// BadgeText returns a foreground-only style in the badge's color.
func (s Styles) BadgeText(badge string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(s.badgeColor(badge)))
}

// WithBackground paints every text style onto bgColor so inline spans do not
// punch holes in a filled bar. Card borders and the toast keep their own fill.
func (s Styles) WithBackground(bgColor string) Styles {
	bg := lipgloss.Color(bgColor)
	out := s
	for _, st := range []*lipgloss.Style{
		&out.Background, &out.Surface,
		&out.Text, &out.MutedText, &out.FaintText, &out.AccentText,
		&out.SuccessText, &out.WarningText, &out.DangerText,
		&out.Header, &out.Logo, &out.Selected,
	} {
		*st = st.Background(bg)
	}
	return out
}

var themeOrder = []Theme{basecampTheme(), nightfoxTheme(), kanagawaTheme()}

// GetTheme returns the theme called name, or the first theme.
func GetTheme(name string) Theme {
	for _, t := range themeOrder {
		if strings.EqualFold(t.Name, name) {
			return t
		}
	}
	return themeOrder[0]
}

// NextTheme returns the theme after current in the cycle.
func NextTheme(current string) string {
	for i, t := range themeOrder {
		if strings.EqualFold(t.Name, current) {
			return themeOrder[(i+1)%len(themeOrder)].Name
		}
	}
	return themeOrder[0].Name
}

// basecampTheme is an earthy default: slate rock, glacier blue, prayer-flag
// red and saffron.
func basecampTheme() Theme {
	return Theme{
		Name:        "Basecamp",
		Background:  "#14181c",
		Surface:     "#1d2329",
		Selection:   "#2f3d4a",
		Border:      "#3c4853",
		BorderFocus: "#7fb6d5",
		Text:        "#e4e0d6",
		Muted:       "#8d9499",
		Faint:       "#6b7379",
		Accent:      "#7fb6d5",
		Success:     "#8fbf7a",
		Warning:     "#e8b04a",
		Danger:      "#d9534f",
		Badges: map[string]string{
			"tourist": "#7fb6d5",
			"guide":   "#8fbf7a",
			"admin":   "#b48ead",
			"liked":   "#d9534f",
			"saved":   "#e8b04a",
			"pending": "#6b7379",
		},
	}
}

// nightfoxTheme follows https://github.com/EdenEast/nightfox.nvim.
func nightfoxTheme() Theme {
	return Theme{
		Name:        "Nightfox",
		Background:  "#131a24",
		Surface:     "#192330",
		Selection:   "#2b3b51",
		Border:      "#39506d",
		BorderFocus: "#719cd6",
		Text:        "#cdcecf",
		Muted:       "#738091",
		Faint:       "#71839b",
		Accent:      "#719cd6",
		Success:     "#81b29a",
		Warning:     "#dbc074",
		Danger:      "#c94f6d",
		Badges: map[string]string{
			"tourist": "#719cd6",
			"guide":   "#81b29a",
			"admin":   "#9d79d6",
			"liked":   "#c94f6d",
			"saved":   "#dbc074",
			"pending": "#738091",
		},
	}
}

// kanagawaTheme follows https://github.com/rebelot/kanagawa.nvim.
func kanagawaTheme() Theme {
	return Theme{
		Name:        "Kanagawa",
		Background:  "#16161D",
		Surface:     "#1F1F28",
		Selection:   "#2D4F67",
		Border:      "#54546D",
		BorderFocus: "#7E9CD8",
		Text:        "#DCD7BA",
		Muted:       "#C8C093",
		Faint:       "#727169",
		Accent:      "#7E9CD8",
		Success:     "#98BB6C",
		Warning:     "#E6C384",
		Danger:      "#E46876",
		Badges: map[string]string{
			"tourist": "#7E9CD8",
			"guide":   "#98BB6C",
			"admin":   "#957FB8",
			"liked":   "#E46876",
			"saved":   "#E6C384",
			"pending": "#727169",
		},
	}
}
