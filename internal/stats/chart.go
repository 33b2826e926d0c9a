package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"golang.org/x/term"
)

// Bar is one row of a horizontal bar chart.
type Bar struct {
	Label string
	Value float64
	Note  string
}

type ansiColor struct {
	name string
	code string
}

const (
	barRune             = "█"
	minBarWidth         = 10
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
)

var colorPalette = []ansiColor{
	{name: "cyan", code: "\x1b[36m"},
	{name: "magenta", code: "\x1b[35m"},
	{name: "yellow", code: "\x1b[33m"},
	{name: "green", code: "\x1b[32m"},
	{name: "blue", code: "\x1b[34m"},
}

// BarChart renders bars scaled to the largest value. A width of zero uses the
// terminal width.
func BarChart(w io.Writer, title string, bars []Bar, width int, forceColor bool) error {
	if len(bars) == 0 {
		return nil
	}
	if width <= 0 {
		width = terminalWidth()
	}

	labelWidth, noteWidth := 0, 0
	maxVal := 0.0
	for _, b := range bars {
		labelWidth = max(labelWidth, displayWidth(b.Label))
		noteWidth = max(noteWidth, displayWidth(b.Note))
		maxVal = math.Max(maxVal, b.Value)
	}
	barWidth := BarWidthFor(width, labelWidth, noteWidth)
	useColor := shouldUseColor(w, forceColor)

	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	for i, b := range bars {
		n := scaleBar(b.Value, maxVal, barWidth)
		bar := strings.Repeat(barRune, n)
		if useColor && n > 0 {
			bar = colorPalette[i%len(colorPalette)].code + bar + colorReset
		}
		line := padCell(b.Label, labelWidth, false) + " │ " + bar + strings.Repeat(" ", barWidth-n)
		if b.Note != "" {
			line += " " + padCell(b.Note, noteWidth, true)
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	return nil
}

// BarWidthFor computes the bar area that fits in totalWidth next to the label
// and note columns.
func BarWidthFor(totalWidth, labelWidth, noteWidth int) int {
	if totalWidth <= 0 {
		return minBarWidth
	}
	used := labelWidth + 3
	if noteWidth > 0 {
		used += noteWidth + 1
	}
	return max(totalWidth-used, minBarWidth)
}

func scaleBar(value, maxVal float64, width int) int {
	if maxVal <= 0 || value <= 0 {
		return 0
	}
	n := int(math.Round(value / maxVal * float64(width)))
	return max(1, min(n, width))
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
