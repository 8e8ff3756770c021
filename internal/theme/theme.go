package theme

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Palette names the colours used by the console.
type Palette struct {
	Name      string
	PromptFG  lipgloss.Color
	BannerFG  lipgloss.Color
	ErrorFG   lipgloss.Color
	DoneFG    lipgloss.Color
	FailFG    lipgloss.Color
	TimeoutFG lipgloss.Color
	InfoFG    lipgloss.Color
	RowEvenBG lipgloss.Color
	RowOddBG  lipgloss.Color
	RowFG     lipgloss.Color
}

// Palettes lists the built-in palettes by name.
var Palettes = map[string]Palette{
	"classic": {
		Name:      "classic",
		PromptFG:  lipgloss.Color("3"),
		BannerFG:  lipgloss.Color("4"),
		ErrorFG:   lipgloss.Color("1"),
		DoneFG:    lipgloss.Color("2"),
		FailFG:    lipgloss.Color("1"),
		TimeoutFG: lipgloss.Color("6"),
		InfoFG:    lipgloss.Color("5"),
		RowEvenBG: lipgloss.Color("4"),
		RowOddBG:  lipgloss.Color("3"),
		RowFG:     lipgloss.Color("0"),
	},
	"gruvbox": {
		Name:      "gruvbox",
		PromptFG:  lipgloss.Color("#fabd2f"),
		BannerFG:  lipgloss.Color("#83a598"),
		ErrorFG:   lipgloss.Color("#fb4934"),
		DoneFG:    lipgloss.Color("#b8bb26"),
		FailFG:    lipgloss.Color("#fb4934"),
		TimeoutFG: lipgloss.Color("#8ec07c"),
		InfoFG:    lipgloss.Color("#d3869b"),
		RowEvenBG: lipgloss.Color("#3c3836"),
		RowOddBG:  lipgloss.Color("#504945"),
		RowFG:     lipgloss.Color("#ebdbb2"),
	},
}

// DefaultPalette is used when no palette is configured or the name is unknown.
const DefaultPalette = "classic"

// Lookup returns the named palette, falling back to DefaultPalette.
func Lookup(name string) Palette {
	if p, ok := Palettes[name]; ok {
		return p
	}
	return Palettes[DefaultPalette]
}

// Theme renders styled text for one output stream.
type Theme struct {
	Palette  Palette
	renderer *lipgloss.Renderer
}

// New binds palette p to a renderer detecting the capabilities of w.
func New(w io.Writer, p Palette) *Theme {
	return &Theme{Palette: p, renderer: lipgloss.NewRenderer(w)}
}

func (t *Theme) fg(c lipgloss.Color, s string) string {
	return t.renderer.NewStyle().Foreground(c).Render(s)
}

// Prompt styles the interactive prompt.
func (t *Theme) Prompt(s string) string {
	if t == nil {
		return s
	}
	return t.fg(t.Palette.PromptFG, s)
}

// Banner styles the head banner.
func (t *Theme) Banner(s string) string {
	if t == nil {
		return s
	}
	return t.fg(t.Palette.BannerFG, s)
}

// Error styles error output.
func (t *Theme) Error(s string) string {
	if t == nil {
		return s
	}
	return t.fg(t.Palette.ErrorFG, s)
}

// Info styles informational output such as session details.
func (t *Theme) Info(s string) string {
	if t == nil {
		return s
	}
	return t.fg(t.Palette.InfoFG, s)
}

// Done styles the success tag of a progress line.
func (t *Theme) Done(s string) string {
	if t == nil {
		return s
	}
	return t.fg(t.Palette.DoneFG, s)
}

// Fail styles the failure tag of a progress line.
func (t *Theme) Fail(s string) string {
	if t == nil {
		return s
	}
	return t.fg(t.Palette.FailFG, s)
}

// Timeout styles the timeout tag of a progress line.
func (t *Theme) Timeout(s string) string {
	if t == nil {
		return s
	}
	return t.fg(t.Palette.TimeoutFG, s)
}

// Row styles a result row; rows alternate background by index.
func (t *Theme) Row(index int, s string) string {
	if t == nil {
		return s
	}
	bg := t.Palette.RowEvenBG
	if index%2 == 1 {
		bg = t.Palette.RowOddBG
	}
	return t.renderer.NewStyle().Background(bg).Foreground(t.Palette.RowFG).Render(s)
}

// PromptColor is the colour the line editor uses for the prompt.
func (t *Theme) PromptColor() lipgloss.Color {
	if t == nil {
		return ""
	}
	return t.Palette.PromptFG
}
