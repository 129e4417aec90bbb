package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/bnsearch/pkg/score"
)

// Palette.
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

// Styles shared by the commands and the dashboard.
var (
	StyleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleDim     = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	StyleNumber  = lipgloss.NewStyle().Foreground(colorCyan)
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleOptimal     = lipgloss.NewStyle().Foreground(colorGreen)
	styleInvalid     = lipgloss.NewStyle().Foreground(colorRed)
	styleCommand     = lipgloss.NewStyle().Foreground(colorBlue)
	styleKey         = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	styleHeader      = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconArrow   = "→"
	iconOptimal = "optimal"
)

// uiOut receives the human-readable command output. Machine-readable output
// (--json, DOT) goes to the command's own writer instead.
var uiOut io.Writer = os.Stdout

// status markers, one per kind of line.
var (
	markSuccess = lipgloss.NewStyle().Foreground(colorGreen).Render(iconSuccess)
	markError   = lipgloss.NewStyle().Foreground(colorRed).Render(iconError)
	markWarning = lipgloss.NewStyle().Foreground(colorYellow).Render("!")
	markInfo    = lipgloss.NewStyle().Foreground(colorGray).Render("›")
)

func printLine(s string) { fmt.Fprintln(uiOut, s) }

func printSuccess(format string, args ...any) {
	printLine(markSuccess + " " + fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	printLine(markError + " " + fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	printLine(markWarning + " " + StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	printLine(markInfo + " " + fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	printLine("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile points at a file the command wrote.
func printFile(path string) {
	printLine("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	printLine(styleKey.Render(key) + " " + StyleValue.Render(value))
}

// printNextStep suggests a follow-up command.
func printNextStep(description, cmd string) {
	printLine(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

func printNewline() { printLine("") }

// printStats prints run statistics on one line, separated by dots.
func printStats(samples, improvements int, elapsed time.Duration, optimal bool) {
	parts := []string{
		StyleDim.Render(fmt.Sprintf("%d samples", samples)),
		StyleDim.Render(fmt.Sprintf("%d improvements", improvements)),
		StyleDim.Render(elapsed.Round(time.Millisecond).String()),
	}
	if optimal {
		parts = append(parts, styleOptimal.Render(iconOptimal))
	}
	printLine("  " + strings.Join(parts, StyleDim.Render(" · ")))
}

// formatGap renders the distance of s from a known optimum, or "unknown".
func formatGap(s, opt score.Score) string {
	if !opt.Known() || !s.Known() {
		return "unknown"
	}
	if score.IsOptimal(s, opt) {
		return styleOptimal.Render(fmt.Sprintf("%.4f%% (optimal)", score.RelativeGap(s, opt)))
	}
	return fmt.Sprintf("%.4f%% (ratio %.6f)", score.RelativeGap(s, opt), score.Ratio(s, opt))
}
