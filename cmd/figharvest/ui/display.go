// Package ui holds the terminal output helpers of the figharvest command.
package ui

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/figharvest/figharvest"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	warningColor = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
	errorColor   = color.New(color.FgRed, color.Bold)
	headerColor  = color.New(color.Bold)

	verboseOutput bool
)

// InitUI applies the global output flags
func InitUI(noColor, verbose bool) {
	if noColor {
		color.NoColor = true
	}
	verboseOutput = verbose
}

// Success prints a success message
func Success(format string, args ...interface{}) {
	successColor.Fprintf(os.Stderr, "✓ "+format+"\n", args...)
}

// Warning prints a warning message
func Warning(format string, args ...interface{}) {
	warningColor.Fprintf(os.Stderr, "⚠ "+format+"\n", args...)
}

// Info prints an informational message
func Info(format string, args ...interface{}) {
	infoColor.Fprintf(os.Stderr, "ℹ "+format+"\n", args...)
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	errorColor.Fprintf(os.Stderr, "✗ "+format+"\n", args...)
}

// Section prints an underlined section header
func Section(title string) {
	fmt.Fprintln(os.Stderr)
	headerColor.Fprintln(os.Stderr, title)
	fmt.Fprintln(os.Stderr, strings.Repeat("=", len(title)))
}

// Newline prints an empty line
func Newline() {
	fmt.Fprintln(os.Stderr)
}

// Summary prints the outcome of an extraction run
func Summary(res *figharvest.Result) {
	Section("Results")

	Info("Strategy: %s", res.Strategy)
	Info("Pages: %d", res.TotalPages)
	if res.AppendixPage > 0 {
		Info("Appendix starts on page %d", res.AppendixPage)
	}

	Newline()
	if len(res.Figures) == 0 {
		Warning("No figures found")
	} else {
		Table(figureRows(res.Figures))
		Newline()
		Success("Selected %d of %d figures", len(res.Selected), len(res.Figures))
	}

	if res.Report != nil {
		if res.Report.TotalDropped() > 0 {
			Warning("%s", res.Report.Summary())
		}
		if verboseOutput {
			for _, w := range res.Report.Warnings {
				Warning("%s", w.String())
			}
		} else if n := len(res.Report.Warnings); n > 0 {
			Info("%d warnings (use -v to list them)", n)
		}
	}
	Info("Metadata: %s", res.MetadataPath)
}

func figureRows(figures []figharvest.Figure) [][]string {
	rows := [][]string{{"", "PAGE", "FIGURE", "SOURCE", "SIZE", "SCORE", "FILE"}}
	for _, f := range figures {
		mark := ""
		if f.Selected {
			mark = "*"
		}
		name := f.FigName
		if name != "" {
			name = f.FigType.String() + " " + name
		} else {
			name = "-"
		}
		file := f.Filename
		if file == "" {
			file = "(not written)"
		}
		rows = append(rows, []string{
			mark,
			fmt.Sprintf("%d", f.Page),
			name,
			f.Source.String(),
			fmt.Sprintf("%dx%d", f.Width, f.Height),
			fmt.Sprintf("%.3f", f.Score),
			file,
		})
	}
	return rows
}

// Table prints rows as aligned columns; the first row is the header
func Table(rows [][]string) {
	w := tabwriter.NewWriter(os.Stderr, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()
}
