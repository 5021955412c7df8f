// Package ui holds the terminal palette and styles shared by the command-line tools.
package ui

import (
	"image/color"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/fang"
)

// Palette
var (
	ColorPrimary   = lipgloss.Color("#7C3AED") // Purple
	ColorSecondary = lipgloss.Color("#06B6D4") // Cyan
	ColorSuccess   = lipgloss.Color("#10B981") // Green
	ColorWarning   = lipgloss.Color("#F59E0B") // Amber
	ColorError     = lipgloss.Color("#EF4444") // Red
	ColorMuted     = lipgloss.Color("#6B7280") // Gray

	ColorText    = lipgloss.Color("#F9FAFB")
	ColorTextDim = lipgloss.Color("#9CA3AF")
)

// Style wraps a lipgloss style so callers only need Render.
type Style struct {
	style lipgloss.Style
}

// Render renders s with the style.
func (s Style) Render(str string) string {
	return s.style.Render(str)
}

// Lipgloss returns the underlying lipgloss style.
func (s Style) Lipgloss() lipgloss.Style {
	return s.style
}

var (
	Bold      = Style{lipgloss.NewStyle().Bold(true)}
	Dim       = Style{lipgloss.NewStyle().Foreground(ColorTextDim)}
	Muted     = Style{lipgloss.NewStyle().Foreground(ColorMuted)}
	Success   = Style{lipgloss.NewStyle().Foreground(ColorSuccess)}
	Warning   = Style{lipgloss.NewStyle().Foreground(ColorWarning)}
	Error     = Style{lipgloss.NewStyle().Foreground(ColorError)}
	Primary   = Style{lipgloss.NewStyle().Foreground(ColorPrimary)}
	Secondary = Style{lipgloss.NewStyle().Foreground(ColorSecondary)}

	Title = Style{lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)}

	// TableHeader and TableCell style rendered tables.
	TableHeader = Style{lipgloss.NewStyle().Foreground(ColorSecondary).Bold(true).Padding(0, 1)}
	TableCell   = Style{lipgloss.NewStyle().Padding(0, 1)}
	TableBorder = Style{lipgloss.NewStyle().Foreground(ColorMuted)}
)

// CheckMark returns a styled check mark.
func CheckMark() string { return Success.Render("✓") }

// CrossMark returns a styled cross mark.
func CrossMark() string { return Error.Render("✗") }

// WarnMark returns a styled warning mark.
func WarnMark() string { return Warning.Render("⚠") }

// KeyValue formats a key-value pair.
func KeyValue(key, value string) string {
	return Dim.Render(key+": ") + value
}

// FangColorScheme maps the palette onto fang's help and error output.
func FangColorScheme(c lipgloss.LightDarkFunc) fang.ColorScheme {
	return fang.ColorScheme{
		Base:           ColorText,
		Title:          ColorPrimary,
		Description:    ColorTextDim,
		Codeblock:      c(lipgloss.Color("#1F2937"), lipgloss.Color("#2F2E36")),
		Program:        ColorSecondary,
		DimmedArgument: ColorMuted,
		Comment:        ColorMuted,
		Flag:           ColorSuccess,
		FlagDefault:    ColorTextDim,
		Command:        ColorPrimary,
		QuotedString:   ColorSecondary,
		Argument:       ColorText,
		Help:           ColorTextDim,
		Dash:           ColorMuted,
		ErrorHeader:    [2]color.Color{ColorText, ColorError},
		ErrorDetails:   ColorError,
	}
}
