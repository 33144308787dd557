package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorBlue   = lipgloss.Color("75")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	// StyleTitle renders headings such as the progress view title.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	// StyleLink renders URLs such as the server's listen address.
	StyleLink = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)
	// StyleDim renders secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)
	// StyleValue renders values next to their labels.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)
	// StyleNumber renders costs and counts.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)
)

var (
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleLabel       = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	styleCommand     = lipgloss.NewStyle().Foreground(colorBlue)
	styleBetter      = lipgloss.NewStyle().Foreground(colorGreen)
	styleWorse       = lipgloss.NewStyle().Foreground(colorRed)
)

// statusKind selects the icon and colour of a status line.
type statusKind int

const (
	statusSuccess statusKind = iota
	statusError
	statusWarning
	statusInfo
)

var statusIcons = [...]struct {
	glyph string
	style lipgloss.Style
}{
	statusSuccess: {"✓", lipgloss.NewStyle().Foreground(colorGreen)},
	statusError:   {"✗", lipgloss.NewStyle().Foreground(colorRed)},
	statusWarning: {"!", lipgloss.NewStyle().Foreground(colorYellow)},
	statusInfo:    {"›", lipgloss.NewStyle().Foreground(colorGray)},
}

func printStatus(kind statusKind, format string, args ...any) {
	icon := statusIcons[kind]
	msg := fmt.Sprintf(format, args...)
	if kind == statusWarning {
		msg = icon.style.Render(msg)
	}
	fmt.Println(icon.style.Render(icon.glyph) + " " + msg)
}

func printSuccess(format string, args ...any) { printStatus(statusSuccess, format, args...) }
func printError(format string, args ...any)   { printStatus(statusError, format, args...) }
func printWarning(format string, args ...any) { printStatus(statusWarning, format, args...) }
func printInfo(format string, args ...any)    { printStatus(statusInfo, format, args...) }

// printDetail prints an indented, dimmed line under a status line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile announces a file that was written.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render("→") + " " + StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Println(styleLabel.Render(key) + " " + StyleValue.Render(value))
}

// printStats prints "N vertices · M accepted · fresh" under a solve. Cached
// results have no meaningful acceptance count, so it is left out.
func printStats(vertices, accepted int, cached bool) {
	var parts []string
	if vertices > 0 {
		parts = append(parts, StyleDim.Render(fmt.Sprintf("%d vertices", vertices)))
	}
	if cached {
		parts = append(parts, styleBetter.Render("cached"))
	} else {
		parts = append(parts, StyleDim.Render(fmt.Sprintf("%d accepted", accepted)), StyleDim.Render("fresh"))
	}
	fmt.Println("  " + strings.Join(parts, StyleDim.Render(" · ")))
}

func formatCost(c float64) string {
	return StyleNumber.Render(fmt.Sprintf("%.6f", c))
}

// formatImprovement renders the relative cost change from initial to final,
// e.g. "-12.40%". A zero initial cost has no meaningful ratio.
func formatImprovement(initial, final float64) string {
	if initial == 0 {
		return StyleDim.Render("n/a")
	}
	pct := 100 * (final - initial) / initial
	s := fmt.Sprintf("%+.2f%%", pct)
	switch {
	case pct < 0:
		return styleBetter.Render(s)
	case pct > 0:
		return styleWorse.Render(s)
	}
	return StyleDim.Render(s)
}

// printNextStep suggests a follow-up command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}
