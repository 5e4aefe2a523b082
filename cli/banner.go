// Package cli holds the terminal helpers shared by the command line tools:
// boxed panels for reports and promptui prompts for interactive sessions.
package cli

import (
	"strings"
	"sync"
	"unicode"

	"github.com/amp-labs/amp-agents/envutil"
)

const (
	boxTopLeft     = "╒"
	boxTopRight    = "╕"
	boxBottomLeft  = "└"
	boxBottomRight = "┘"
	boxSide        = "│"
	boxTop         = "═"
	boxBottom      = "─"
	dividerLeft    = "┠"
	dividerRight   = "┨"
	ellipsis       = "…"

	// DefaultWidth is the panel width used when none is given.
	DefaultWidth = 72

	borders = 2
)

var plainOutput = sync.OnceValue(func() bool { //nolint:gochecknoglobals
	return envutil.Bool("NO_BANNER", envutil.Default(false)).ValueOrElse(false)
})

// Panel renders title and rows inside a box of the given width. A row that
// is exactly "-" becomes a divider. With NO_BANNER set the box is skipped
// and the lines are returned as plain text.
func Panel(title string, rows []string, width int) string {
	if width <= borders {
		width = DefaultWidth
	}

	if plainOutput() {
		return strings.Join(append([]string{title}, rows...), "\n") + "\n"
	}

	inner := width - borders

	var sb strings.Builder

	sb.WriteString(boxTopLeft + strings.Repeat(boxTop, inner) + boxTopRight + "\n")
	sb.WriteString(boxSide + center(title, inner) + boxSide + "\n")

	for _, row := range rows {
		if row == "-" {
			sb.WriteString(dividerLeft + strings.Repeat(boxBottom, inner) + dividerRight + "\n")

			continue
		}

		sb.WriteString(boxSide + left(row, inner) + boxSide + "\n")
	}

	sb.WriteString(boxBottomLeft + strings.Repeat(boxBottom, inner) + boxBottomRight + "\n")

	return sb.String()
}

func graphicLen(s string) int {
	n := 0

	for _, r := range s {
		if unicode.IsGraphic(r) {
			n++
		}
	}

	return n
}

// fit truncates s to width graphic runes, marking the cut with an ellipsis.
func fit(s string, width int) (string, int) {
	n := graphicLen(s)
	if n <= width {
		return s, n
	}

	var sb strings.Builder

	count := 0

	for _, r := range s {
		if count == width-1 {
			break
		}

		sb.WriteRune(r)

		if unicode.IsGraphic(r) {
			count++
		}
	}

	sb.WriteString(ellipsis)

	return sb.String(), width
}

func left(s string, width int) string {
	str, n := fit(s, width-1)

	return " " + str + strings.Repeat(" ", max(width-n-1, 0))
}

func center(s string, width int) string {
	str, n := fit(s, width)
	pad := width - n

	return strings.Repeat(" ", pad/2) + str + strings.Repeat(" ", pad-pad/2)
}
