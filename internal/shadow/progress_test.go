package shadow

import (
	"math/rand"
	"testing"
	"time"

	"github.com/verte-zerg/tuishadow/internal/model"
)

func analysisWithOverall(overall float64) model.ShadowAnalysis {
	return model.ShadowAnalysis{RhythmScore: overall, TimingScore: overall, OverallScore: overall}
}

func TestAdvanceFirstAttemptLevelsUp(t *testing.T) {
	p := DefaultParams()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	next, attempted := p.Advance(model.NewShadowProgress(), analysisWithOverall(85), now)
	if attempted != model.Level1 {
		t.Fatalf("attempt should be recorded at level1, got %s", attempted)
	}
	if next.Attempts != 1 || next.BestScore != 85 {
		t.Fatalf("unexpected progress %+v", next)
	}
	if next.Level != model.Level2 {
		t.Fatalf("expected next level 2, got %s", next.Level)
	}
	if next.LastPracticed == nil || !next.LastPracticed.Equal(now) {
		t.Fatalf("expected last practiced %v, got %v", now, next.LastPracticed)
	}
}

func TestAdvanceBelowThresholdStays(t *testing.T) {
	p := DefaultParams()
	prev := model.ShadowProgress{Level: model.Level3, Attempts: 4, BestScore: 92}
	next, attempted := p.Advance(prev, model.ShadowAnalysis{RhythmScore: 70, TimingScore: 40, OverallScore: 55}, time.Now())
	if attempted != model.Level3 || next.Level != model.Level3 {
		t.Fatalf("expected to stay at level3, got %s -> %s", attempted, next.Level)
	}
	if next.BestScore != 92 {
		t.Fatalf("best score must not drop, got %v", next.BestScore)
	}
	if next.RhythmAccuracy != 70 || next.TimingAccuracy != 40 {
		t.Fatalf("accuracies should track the latest attempt, got %+v", next)
	}
}

func TestAdvanceNeverDemotesAndKeepsRunningMax(t *testing.T) {
	p := DefaultParams()
	rnd := rand.New(rand.NewSource(3))
	progress := model.NewShadowProgress()
	best := 0.0
	for i := 0; i < 200; i++ {
		score := rnd.Float64() * 100
		if score > best {
			best = score
		}
		prevLevel := progress.Level
		progress, _ = p.Advance(progress, analysisWithOverall(score), time.Now())
		if progress.Level < prevLevel {
			t.Fatalf("level decreased from %s to %s", prevLevel, progress.Level)
		}
		if progress.BestScore != best {
			t.Fatalf("best score %v, want running max %v", progress.BestScore, best)
		}
		if progress.Attempts != i+1 {
			t.Fatalf("attempts %d, want %d", progress.Attempts, i+1)
		}
	}
}

func TestAdvanceSaturatesAndMasters(t *testing.T) {
	p := DefaultParams()
	progress := model.NewShadowProgress()
	for i := 0; i < 6; i++ {
		progress, _ = p.Advance(progress, analysisWithOverall(95), time.Now())
	}
	if progress.Level != model.Level4 {
		t.Fatalf("expected level4, got %s", progress.Level)
	}
	if !p.Mastered(progress) {
		t.Fatalf("expected mastered content")
	}
	if p.Mastered(model.ShadowProgress{Level: model.Level3, BestScore: 99}) {
		t.Fatalf("level3 cannot be mastered")
	}
}

func TestAdvanceNormalizesZeroLevel(t *testing.T) {
	next, attempted := DefaultParams().Advance(model.ShadowProgress{}, analysisWithOverall(10), time.Now())
	if attempted != model.Level1 || next.Level != model.Level1 {
		t.Fatalf("expected level1, got %s -> %s", attempted, next.Level)
	}
}
