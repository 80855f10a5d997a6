package tui

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/tuishadow/internal/shadow"
)

type unitState int

const (
	unitPending unitState = iota
	unitPlaying
	unitPlayed
	unitTapped
)

type styledCell struct {
	s       string
	width   int
	isSpace bool
}

func styleFor(state unitState) lipgloss.Style {
	switch state {
	case unitPlaying:
		return playingStyle
	case unitPlayed:
		return playedStyle
	case unitTapped:
		return tappedStyle
	default:
		return pendingStyle
	}
}

// buildStyledCells styles every rune of text by the state of the unit that
// covers it. Stressed units are underlined; runes outside any unit stay pending.
func buildStyledCells(text string, units []shadow.Unit, states []unitState, emphasis []int) []styledCell {
	stressed := make(map[int]bool, len(emphasis))
	for _, idx := range emphasis {
		stressed[idx] = true
	}
	out := make([]styledCell, 0, len(text))
	u := 0
	for pos, r := range text {
		for u < len(units) && pos >= units[u].End {
			u++
		}
		style := pendingStyle
		if u < len(units) && pos >= units[u].Start {
			if u < len(states) {
				style = styleFor(states[u])
			}
			if stressed[u] {
				style = style.Underline(true)
			}
		}
		out = append(out, styledCell{
			s:       style.Render(string(r)),
			width:   runewidth.RuneWidth(r),
			isSpace: unicode.IsSpace(r),
		})
	}
	return out
}

func renderCells(cells []styledCell) string {
	var b strings.Builder
	for _, c := range cells {
		b.WriteString(c.s)
	}
	return b.String()
}

// wrapCells breaks lines at the last space that fits, or mid-word when a
// single word is wider than width.
func wrapCells(cells []styledCell, width int) string {
	if width <= 0 {
		return renderCells(cells)
	}
	var out strings.Builder
	line := make([]styledCell, 0, len(cells))
	lineWidth := 0
	lastSpace := -1

	for i := 0; i < len(cells); {
		c := cells[i]
		if lineWidth+c.width > width && len(line) > 0 {
			if lastSpace >= 0 {
				out.WriteString(renderCells(line[:lastSpace]))
				line = append([]styledCell{}, line[lastSpace+1:]...)
			} else {
				out.WriteString(renderCells(line))
				line = line[:0]
			}
			out.WriteRune('\n')
			lineWidth, lastSpace = measureLine(line)
			continue
		}
		line = append(line, c)
		lineWidth += c.width
		if c.isSpace {
			lastSpace = len(line) - 1
		}
		i++
	}
	out.WriteString(renderCells(line))
	return out.String()
}

func measureLine(line []styledCell) (width, lastSpace int) {
	lastSpace = -1
	for i, c := range line {
		width += c.width
		if c.isSpace {
			lastSpace = i
		}
	}
	return width, lastSpace
}
