package shadow

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/tuishadow/internal/model"
)

// Analyze aligns and scores a single sentence attempt. Expected onsets come
// from settings; level only selects the delay tolerance, so callers normally
// pass the settings of that same level.
func (e *Engine) Analyze(s model.ReferenceSentence, seg model.Segmentation, settings model.LevelSettings, level model.Level, attempt model.ObservedAttempt) (model.ShadowAnalysis, error) {
	a, err := Align(s, seg, settings, attempt)
	if err != nil {
		return model.ShadowAnalysis{}, err
	}
	return e.params.Score(a, level), nil
}

// AnalyzeContent scores every sentence of a content item and aggregates the
// results weighted by unit count. Sentences without an attempt score as
// empty; attempts beyond the last sentence are ignored. settings and level
// pair as in Analyze.
func (e *Engine) AnalyzeContent(sentences []model.ReferenceSentence, seg model.Segmentation, settings model.LevelSettings, level model.Level, attempts []model.ObservedAttempt) (model.ShadowAnalysis, []model.ShadowAnalysis, error) {
	if len(sentences) == 0 {
		return model.ShadowAnalysis{}, nil, fmt.Errorf("%w: content has no sentences", ErrInvalidInput)
	}
	per := make([]model.ShadowAnalysis, len(sentences))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range sentences {
		var attempt model.ObservedAttempt
		if i < len(attempts) {
			attempt = attempts[i]
		}
		g.Go(func() error {
			analysis, err := e.Analyze(sentences[i], seg, settings, level, attempt)
			if err != nil {
				return fmt.Errorf("sentence %d: %w", i, err)
			}
			per[i] = analysis
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.ShadowAnalysis{}, nil, err
	}
	return Aggregate(per), per, nil
}

// Aggregate combines per-sentence analyses. Scores and accuracies are
// weighted by unit count, the average delay by matched units.
func Aggregate(per []model.ShadowAnalysis) model.ShadowAnalysis {
	if len(per) == 1 {
		return per[0]
	}
	var out model.ShadowAnalysis
	var delaySum float64
	for _, a := range per {
		w := float64(a.Units)
		out.RhythmScore += a.RhythmScore * w
		out.TimingScore += a.TimingScore * w
		out.OverallScore += a.OverallScore * w
		out.SyllableLengthAccuracy += a.SyllableLengthAccuracy * w
		out.TempoAccuracy += a.TempoAccuracy * w
		out.EmphasisMatches += a.EmphasisMatches
		out.TotalEmphasis += a.TotalEmphasis
		out.Units += a.Units
		out.MatchedUnits += a.MatchedUnits
		delaySum += a.AverageDelay * float64(a.MatchedUnits)
	}
	if out.Units > 0 {
		total := float64(out.Units)
		out.RhythmScore = clampScore(out.RhythmScore / total)
		out.TimingScore = clampScore(out.TimingScore / total)
		out.OverallScore = clampScore(out.OverallScore / total)
		out.SyllableLengthAccuracy /= total
		out.TempoAccuracy /= total
	}
	if out.MatchedUnits > 0 {
		out.AverageDelay = delaySum / float64(out.MatchedUnits)
	}
	return out
}

// Result builds the caller-facing result using the engine's parameters.
func (e *Engine) Result(a model.ShadowAnalysis, level model.Level) model.ShadowResult {
	return e.params.Result(a, level)
}
