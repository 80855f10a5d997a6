package shadow

import (
	"math"

	"github.com/verte-zerg/tuishadow/internal/model"
)

// Classify maps an overall score to its feedback label.
func Classify(overall float64) model.Feedback {
	switch {
	case overall >= 90:
		return model.FeedbackExcellent
	case overall >= 75:
		return model.FeedbackGood
	case overall >= 60:
		return model.FeedbackFair
	case overall >= 40:
		return model.FeedbackNeedsPractice
	default:
		return model.FeedbackTryAgain
	}
}

// Result builds the caller-facing result for an analysis attempted at level.
// Feedback is classified on the rounded overall score that is displayed.
func (p Params) Result(a model.ShadowAnalysis, level model.Level) model.ShadowResult {
	overall := math.Round(a.OverallScore)
	return model.ShadowResult{
		Scores: model.Scores{
			Rhythm:  int(math.Round(a.RhythmScore)),
			Timing:  int(math.Round(a.TimingScore)),
			Overall: int(overall),
		},
		Feedback: Classify(overall),
		XP:       p.XP(level, a.OverallScore),
		Level:    level,
	}
}
