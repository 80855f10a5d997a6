package generator

import (
	"testing"

	"github.com/verte-zerg/tuishadow/internal/model"
)

func TestWeight(t *testing.T) {
	g := NewSeeded(1, 2)
	tests := []struct {
		name string
		c    Candidate
		want float64
	}{
		{name: "new item", c: Candidate{}, want: 3},
		{name: "half way", c: Candidate{Progress: model.ShadowProgress{BestScore: 50}}, want: 2},
		{name: "perfect but not mastered", c: Candidate{Progress: model.ShadowProgress{BestScore: 100}}, want: 1},
		{name: "mastered", c: Candidate{Progress: model.ShadowProgress{BestScore: 20}, Mastered: true}, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.Weight(tt.c); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestNextFavoursWeakItems(t *testing.T) {
	g := NewSeeded(42, 9)
	cands := []Candidate{
		{ID: "weak", Progress: model.ShadowProgress{BestScore: 0}},
		{ID: "mastered", Progress: model.ShadowProgress{BestScore: 95}, Mastered: true},
	}
	counts := map[model.ContentID]int{}
	for i := 0; i < 2000; i++ {
		id, ok := g.Next(cands)
		if !ok {
			t.Fatalf("expected a draw")
		}
		counts[id]++
	}
	// Expected ratio is 10:1.
	if counts["weak"] < 5*counts["mastered"] {
		t.Fatalf("expected weak item to dominate, got %v", counts)
	}
	if counts["mastered"] == 0 {
		t.Fatalf("mastered items must still be drawn")
	}
}

func TestSeededIsDeterministic(t *testing.T) {
	cands := []Candidate{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	first := NewSeeded(7, 0).Queue(cands, 10)
	second := NewSeeded(7, 0).Queue(cands, 10)
	if len(first) != 10 {
		t.Fatalf("expected 10 ids, got %d", len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("draw %d differs: %s vs %s", i, first[i], second[i])
		}
		if i > 0 && first[i] == first[i-1] {
			t.Fatalf("repeated id at %d", i)
		}
	}
}

func TestNextEmpty(t *testing.T) {
	if _, ok := NewSeeded(1, 1).Next(nil); ok {
		t.Fatalf("expected no draw from empty candidates")
	}
	if q := NewSeeded(1, 1).Queue(nil, 3); len(q) != 0 {
		t.Fatalf("expected empty queue")
	}
}
