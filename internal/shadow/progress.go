package shadow

import (
	"time"

	"github.com/verte-zerg/tuishadow/internal/model"
)

// Advance applies one scored attempt to progress. It returns the next
// progress and the level the attempt was made at; a level-up only affects
// the following attempt.
func (p Params) Advance(prev model.ShadowProgress, a model.ShadowAnalysis, now time.Time) (model.ShadowProgress, model.Level) {
	next := prev
	switch {
	case next.Level < model.Level1:
		next.Level = model.Level1
	case next.Level > model.MaxLevel:
		next.Level = model.MaxLevel
	}
	attempted := next.Level

	next.Attempts++
	practiced := now
	next.LastPracticed = &practiced
	if a.OverallScore > next.BestScore {
		next.BestScore = a.OverallScore
	}
	next.RhythmAccuracy = a.RhythmScore
	next.TimingAccuracy = a.TimingScore

	if a.OverallScore >= p.LevelUpThreshold && attempted < model.MaxLevel {
		next.Level = attempted.Next()
	}
	return next, attempted
}

// Mastered reports whether the content item reached its terminal condition.
func (p Params) Mastered(progress model.ShadowProgress) bool {
	return progress.Level == model.MaxLevel && progress.BestScore >= p.LevelUpThreshold
}
