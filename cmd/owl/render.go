package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"owl/internal/decoration"
	"owl/internal/source"
)

const tabWidth = 4

func severityColor(s decoration.Severity) *color.Color {
	switch s {
	case decoration.SeverityError:
		return color.New(color.FgRed, color.Bold)
	case decoration.SeverityWarning:
		return color.New(color.FgYellow)
	case decoration.SeverityInformation:
		return color.New(color.FgBlue)
	default:
		return color.New(color.FgGreen)
	}
}

// renderDecorations prints every decoration with the source line it starts
// on and a marker under the covered columns.
func renderDecorations(w io.Writer, text string, decos []decoration.Deco) {
	lines := strings.Split(strings.ReplaceAll(text, "\r", ""), "\n")
	for _, d := range decos {
		c := severityColor(d.Severity())
		sl, sc := source.IndexToLineChar(text, d.Range.From)
		el, ec := source.IndexToLineChar(text, d.Range.Until)

		header := fmt.Sprintf("%s %d:%d-%d:%d %s", d.Kind, sl+1, sc+1, el+1, ec+1, d.HoverText)
		if d.Overlapped {
			header += " (overlapped)"
		}
		fmt.Fprintln(w, c.Sprint(header))

		if int(sl) >= len(lines) {
			continue
		}
		line := []rune(lines[sl])
		end := uint32(len(line)) // #nosec G115 -- line lengths fit in uint32
		if el == sl {
			end = min(ec, end)
		}
		start := min(sc, end)
		fmt.Fprintf(w, "  %s\n", expandTabs(string(line)))
		pad := runewidth.StringWidth(expandTabs(string(line[:start])))
		width := max(runewidth.StringWidth(expandTabs(string(line[start:end]))), 1)
		fmt.Fprintf(w, "  %s%s\n", strings.Repeat(" ", pad), c.Sprint(strings.Repeat("^", width)))
	}
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}
