package logger

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// ProgressBar renders a gathered/total count as an ASCII bar. Counts above
// the total are clamped so a stale total never overflows the bar.
type ProgressBar struct {
	gathered    int
	total       int
	width       int
	enableColor bool
	prefix      string
}

// NewProgressBar creates a bar for total items, width characters wide
func NewProgressBar(total, width int, enableColor bool) *ProgressBar {
	if width < 1 {
		width = 10
	}
	return &ProgressBar{total: total, width: width, enableColor: enableColor}
}

// Update sets the gathered count
func (pb *ProgressBar) Update(gathered int) {
	pb.gathered = gathered
}

// SetPrefix sets the label printed before the bar
func (pb *ProgressBar) SetPrefix(prefix string) {
	pb.prefix = prefix
}

// Percentage returns the gathered share in [0,100]; 0 when there is nothing to gather
func (pb *ProgressBar) Percentage() int {
	if pb.total <= 0 {
		return 0
	}
	return min(max(pb.gathered*100/pb.total, 0), 100)
}

// Render returns "<prefix>[====    ] gathered/total (pct%)". A category with
// no items renders "no items" instead of an empty bar. Complete bars are
// green, partial ones yellow and untouched ones red when color is enabled.
func (pb *ProgressBar) Render() string {
	if pb.total <= 0 {
		return pb.prefix + "no items"
	}

	perc := pb.Percentage()
	filled := perc * pb.width / 100
	bar := "[" + strings.Repeat("=", filled) + strings.Repeat(" ", pb.width-filled) + "]"
	result := fmt.Sprintf("%s%s %d/%d (%d%%)", pb.prefix, bar, pb.gathered, pb.total, perc)

	if !pb.enableColor {
		return result
	}
	switch {
	case perc == 100:
		return color.New(color.FgGreen).Sprint(result)
	case pb.gathered > 0:
		return color.New(color.FgYellow).Sprint(result)
	default:
		return color.New(color.FgRed).Sprint(result)
	}
}
