package stats

import "testing"

func TestFormatTableAlignsWideRunes(t *testing.T) {
	headers := []string{"Title", "Best"}
	rows := [][]string{
		{"첫눈", "82.5"},
		{"border", "9.0"},
	}
	lines := formatTable(headers, rows, map[int]bool{1: true})
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	want := []string{
		"Title  Best",
		"첫눈   82.5",
		"border  9.0",
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d: expected %q, got %q", i, want[i], lines[i])
		}
	}
}
