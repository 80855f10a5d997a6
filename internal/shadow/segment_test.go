package shadow

import (
	"testing"

	"golang.org/x/text/unicode/norm"

	"github.com/verte-zerg/tuishadow/internal/model"
)

func TestSegmentHangulSyllables(t *testing.T) {
	units := Segment("사랑해요, 정말!", model.SegmentAuto)
	want := []string{"사", "랑", "해", "요", "정", "말"}
	if len(units) != len(want) {
		t.Fatalf("expected %d units, got %d: %+v", len(want), len(units), units)
	}
	for i, u := range units {
		if u.Text != want[i] {
			t.Fatalf("unit %d = %q, want %q", i, u.Text, want[i])
		}
	}
}

func TestSegmentComposesDecomposedHangul(t *testing.T) {
	decomposed := norm.NFD.String("한국")
	units := Segment(decomposed, model.SegmentAuto)
	if len(units) != 2 {
		t.Fatalf("expected 2 syllables from decomposed input, got %d", len(units))
	}
	if units[0].Text != "한" {
		t.Fatalf("expected composed syllable, got %q", units[0].Text)
	}
}

func TestSegmentWords(t *testing.T) {
	units := Segment("I love  you. —", model.SegmentAuto)
	if len(units) != 3 {
		t.Fatalf("expected 3 words, got %d: %+v", len(units), units)
	}
	if units[2].Text != "you." {
		t.Fatalf("unexpected last word %q", units[2].Text)
	}
	korean := Segment("오늘 날씨가 좋네요", model.SegmentWord)
	if len(korean) != 3 {
		t.Fatalf("expected 3 words in word mode, got %d", len(korean))
	}
}

func TestSegmentOffsetsPointIntoNormalizedText(t *testing.T) {
	text := Normalize("괜찮아 진짜")
	for _, u := range Segment(text, model.SegmentSyllable) {
		if text[u.Start:u.End] != u.Text {
			t.Fatalf("offsets %d:%d do not match %q", u.Start, u.End, u.Text)
		}
	}
}
