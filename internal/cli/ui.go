package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/platepack/pkg/packing"
)

// Terminal palette. Status colours follow the verdict: green for proven
// results, amber for timeouts that kept a packing, red for everything else.
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
	StyleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleDim     = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	StyleNumber  = lipgloss.NewStyle().Foreground(colorCyan)
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
	StyleError   = lipgloss.NewStyle().Foreground(colorRed)
)

var (
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleKey         = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	styleCached      = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed    = lipgloss.NewStyle().Foreground(colorGray)
	styleCommand     = lipgloss.NewStyle().Foreground(colorBlue)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

func printSuccess(format string, args ...any) {
	fmt.Println(StyleSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Println(StyleError.Render(iconError) + " " + fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Println(StyleWarning.Render(iconWarning) + " " + StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// printDetail prints an indented, muted line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile lists a written artifact.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Println(styleKey.Render(key) + " " + StyleValue.Render(value))
}

// printStats prints "n circuits · k iterations · 1.2s · fresh".
func printStats(circuits, iterations int, elapsed time.Duration, cached bool) {
	var parts []string
	if circuits > 0 {
		parts = append(parts, StyleDim.Render(fmt.Sprintf("%d circuits", circuits)))
	}
	if iterations > 0 {
		parts = append(parts, StyleDim.Render(fmt.Sprintf("%d iterations", iterations)))
	}
	parts = append(parts, StyleDim.Render(elapsed.Round(time.Millisecond).String()))
	if cached {
		parts = append(parts, styleCached.Render(iconCached))
	} else {
		parts = append(parts, styleComputed.Render(iconFresh))
	}
	fmt.Println("  " + strings.Join(parts, StyleDim.Render(" · ")))
}

// printOutcome prints the verdict headline for a solve.
func printOutcome(out *packing.Outcome) {
	switch out.Status {
	case packing.Optimal:
		printSuccess("Optimal length %s", StyleNumber.Render(fmt.Sprint(out.Length())))
	case packing.TimeoutPartial:
		printWarning("Best length %d (not proven optimal)", out.Length())
	case packing.TimeoutNoSolution:
		printError("No packing found within the budget")
	case packing.Infeasible:
		msg := "Infeasible"
		if out.Reason != "" {
			msg += ": " + out.Reason
		}
		printError("%s", msg)
	}
}

// statusStyle colours a status name as stored in run records.
func statusStyle(status string) lipgloss.Style {
	switch status {
	case packing.Optimal.String():
		return StyleSuccess
	case packing.TimeoutPartial.String():
		return StyleWarning
	case packing.Infeasible.String(), packing.TimeoutNoSolution.String():
		return StyleError
	}
	return StyleDim
}

func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

func printNewline() {
	fmt.Println()
}
