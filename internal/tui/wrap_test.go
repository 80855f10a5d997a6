package tui

import (
	"testing"

	"github.com/verte-zerg/tuishadow/internal/model"
	"github.com/verte-zerg/tuishadow/internal/shadow"
)

func plainCells(text string) []styledCell {
	var cells []styledCell
	for _, r := range text {
		w := 1
		if r > 0x1100 {
			w = 2
		}
		cells = append(cells, styledCell{s: string(r), width: w, isSpace: r == ' '})
	}
	return cells
}

func TestBuildStyledCellsFollowsUnitStates(t *testing.T) {
	text := "사랑해"
	units := shadow.Segment(text, model.SegmentAuto)
	cells := buildStyledCells(text, units, []unitState{unitTapped, unitPlaying, unitPending}, []int{1})
	if len(cells) != 3 {
		t.Fatalf("expected 3 cells, got %d", len(cells))
	}
	if cells[0].s != tappedStyle.Render("사") {
		t.Fatalf("expected tapped style for first unit")
	}
	if cells[1].s != playingStyle.Underline(true).Render("랑") {
		t.Fatalf("expected underlined playing style for stressed unit")
	}
	if cells[2].s != pendingStyle.Render("해") {
		t.Fatalf("expected pending style for last unit")
	}
	if cells[0].width != 2 {
		t.Fatalf("expected hangul to be two columns wide, got %d", cells[0].width)
	}
}

func TestBuildStyledCellsLeavesGapsPending(t *testing.T) {
	text := "어디 가?"
	units := shadow.Segment(text, model.SegmentWord)
	cells := buildStyledCells(text, units, []unitState{unitTapped, unitTapped}, nil)
	if len(cells) != 5 {
		t.Fatalf("expected 5 cells, got %d", len(cells))
	}
	if !cells[2].isSpace || cells[2].s != pendingStyle.Render(" ") {
		t.Fatalf("expected pending space between words")
	}
	if cells[3].s != tappedStyle.Render("가") {
		t.Fatalf("expected second word tapped")
	}
}

func TestWrapCellsBreaksAtSpaces(t *testing.T) {
	if got := wrapCells(plainCells("사랑 해요"), 5); got != "사랑\n해요" {
		t.Fatalf("unexpected wrap %q", got)
	}
	if got := wrapCells(plainCells("사랑해요"), 4); got != "사랑\n해요" {
		t.Fatalf("unexpected mid-word wrap %q", got)
	}
	if got := wrapCells(plainCells("ab cd"), 0); got != "ab cd" {
		t.Fatalf("expected no wrap for zero width, got %q", got)
	}
}
