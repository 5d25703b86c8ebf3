package ui

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
)

// ProgressBar wraps progressbar with the figharvest theme
type ProgressBar struct {
	bar   *progressbar.ProgressBar
	total int64
}

// NewProgressBar creates a progress bar writing to stderr
func NewProgressBar(total int64, description string) *ProgressBar {
	bar := progressbar.NewOptions64(
		total,
		progressbar.OptionSetWidth(50),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("items"),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
	return &ProgressBar{bar: bar, total: total}
}

// Set moves the bar to an absolute position
func (p *ProgressBar) Set(n int64) {
	_ = p.bar.Set64(n)
}

// SetTotal changes the bar maximum when a later stage reports a new total
func (p *ProgressBar) SetTotal(total int64) {
	if total != p.total {
		p.bar.ChangeMax64(total)
		p.total = total
	}
}

// Finish completes the bar
func (p *ProgressBar) Finish() {
	_ = p.bar.Finish()
}
