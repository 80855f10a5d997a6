// Package generator picks the next content item to practice.
package generator

import (
	"math/rand"
	"time"

	"github.com/verte-zerg/tuishadow/internal/model"
)

// DefaultFactor is the extra weight given to an item with a best score of 0.
const DefaultFactor = 3.0

// Candidate is a content item together with the learner's progress on it.
type Candidate struct {
	ID       model.ContentID
	Progress model.ShadowProgress
	Mastered bool
}

// Generator draws content ids with a bias toward weak items.
type Generator struct {
	rnd    *rand.Rand
	factor float64
}

// New returns a Generator seeded with the current time.
func New(factor float64) *Generator {
	return NewSeeded(time.Now().UnixNano(), factor)
}

// NewSeeded returns a Generator with a fixed seed. A non-positive factor
// falls back to DefaultFactor.
func NewSeeded(seed int64, factor float64) *Generator {
	if factor <= 0 {
		factor = DefaultFactor
	}
	return &Generator{rnd: rand.New(rand.NewSource(seed)), factor: factor}
}

// Weight returns the draw weight of c: mastered items weigh 1, others
// 1 + factor*(1-best/100).
func (g *Generator) Weight(c Candidate) float64 {
	if c.Mastered {
		return 1
	}
	best := c.Progress.BestScore
	if best < 0 {
		best = 0
	}
	if best > 100 {
		best = 100
	}
	return 1 + g.factor*(1-best/100)
}

// Next draws one candidate id. It returns false when there are none.
func (g *Generator) Next(cands []Candidate) (model.ContentID, bool) {
	if len(cands) == 0 {
		return "", false
	}
	weights := make([]float64, len(cands))
	total := 0.0
	for i, c := range cands {
		w := g.Weight(c)
		weights[i] = w
		total += w
	}
	r := g.rnd.Float64() * total
	acc := 0.0
	for i, w := range weights {
		acc += w
		if r <= acc {
			return cands[i].ID, true
		}
	}
	return cands[len(cands)-1].ID, true
}

// Queue draws n ids, never repeating the previous draw when another
// candidate exists.
func (g *Generator) Queue(cands []Candidate, n int) []model.ContentID {
	out := make([]model.ContentID, 0, n)
	for len(out) < n {
		id, ok := g.Next(cands)
		if !ok {
			break
		}
		if len(cands) > 1 && len(out) > 0 && out[len(out)-1] == id {
			continue
		}
		out = append(out, id)
	}
	return out
}
