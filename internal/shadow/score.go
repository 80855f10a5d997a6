package shadow

import (
	"math"

	"github.com/verte-zerg/tuishadow/internal/model"
)

const epsilon = 1e-9

// Score computes the analysis for an alignment attempted at level.
func (p Params) Score(a Alignment, level model.Level) model.ShadowAnalysis {
	n := len(a.Units)
	out := model.ShadowAnalysis{
		TotalEmphasis: len(a.Emphasis),
		AverageDelay:  a.AverageDelay,
		Units:         n,
		MatchedUnits:  a.Matched,
	}
	// Nothing was heard: score the floor instead of crediting vacuous terms.
	if n == 0 || a.Matched == 0 {
		out.AverageDelay = 0
		return out
	}

	emphasisRatio := 1.0
	for _, idx := range a.Emphasis {
		u := a.Units[idx]
		if u.Matched && math.Abs(u.Observed-u.Expected) <= p.EmphasisWindow+epsilon {
			out.EmphasisMatches++
		}
	}
	if out.TotalEmphasis > 0 {
		emphasisRatio = float64(out.EmphasisMatches) / float64(out.TotalEmphasis)
	}

	out.SyllableLengthAccuracy = syllableLengthAccuracy(a.Units)
	out.TempoAccuracy = tempoAccuracy(a.Units)

	coverage := float64(a.Matched) / float64(n)
	delayTerm := coverage * math.Max(0, 1-math.Abs(a.AverageDelay)/p.tolerance(level))

	out.RhythmScore = clampScore(100 * blend(p.RhythmEmphasisWeight, emphasisRatio, out.SyllableLengthAccuracy))
	out.TimingScore = clampScore(100 * blend(p.TimingTempoWeight, out.TempoAccuracy, delayTerm))
	out.OverallScore = clampScore(blend(p.OverallRhythmWeight, out.RhythmScore, out.TimingScore))
	return out
}

// syllableLengthAccuracy averages inter-onset accuracy over every reference
// interval. An interval with a missing endpoint contributes 0.
func syllableLengthAccuracy(units []UnitPair) float64 {
	if len(units) == 1 {
		if units[0].Matched {
			return 1
		}
		return 0
	}
	var sum float64
	for i := 1; i < len(units); i++ {
		prev, cur := units[i-1], units[i]
		if !prev.Matched || !cur.Matched {
			continue
		}
		sum += relativeAccuracy(cur.Observed-prev.Observed, cur.Expected-prev.Expected)
	}
	return sum / float64(len(units)-1)
}

// tempoAccuracy compares the matched observed span with the expected span of
// the same units, scaled by how much of the full reference span they cover.
func tempoAccuracy(units []UnitPair) float64 {
	first, last := -1, -1
	for i, u := range units {
		if !u.Matched {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	if first < 0 {
		return 0
	}
	if len(units) == 1 {
		return 1
	}
	fullSpan := units[len(units)-1].Expected - units[0].Expected
	matchedSpan := units[last].Expected - units[first].Expected
	if fullSpan <= epsilon || matchedSpan <= epsilon {
		return 0
	}
	observedSpan := units[last].Observed - units[first].Observed
	return relativeAccuracy(observedSpan, matchedSpan) * (matchedSpan / fullSpan)
}

func relativeAccuracy(observed, expected float64) float64 {
	if expected <= epsilon {
		return 0
	}
	return 1 - math.Min(1, math.Abs(observed-expected)/expected)
}

func blend(weight, a, b float64) float64 {
	return weight*a + (1-weight)*b
}

func clampScore(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
