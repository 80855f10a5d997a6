package stats

import (
	"context"

	"github.com/verte-zerg/tuishadow/internal/model"
)

// Source is the read side of the progress store.
type Source interface {
	ListAttempts(ctx context.Context, cfg model.StatsConfig) ([]model.AttemptRecord, error)
	ListProgress(ctx context.Context, learner string) ([]model.ProgressEntry, error)
	TotalXP(ctx context.Context, learner string) (int, error)
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Attempts []model.AttemptRecord
	// Window holds the most recent CurveWindow attempts.
	Window   []model.AttemptRecord
	Progress []model.ProgressEntry
	TotalXP  int
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, src Source, cfg model.StatsConfig) (Report, error) {
	attempts, err := src.ListAttempts(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	if cfg.Last > 0 && len(attempts) > cfg.Last {
		attempts = attempts[len(attempts)-cfg.Last:]
	}
	progress, err := src.ListProgress(ctx, cfg.Learner)
	if err != nil {
		return Report{}, err
	}
	if cfg.ContentID != "" {
		filtered := progress[:0]
		for _, e := range progress {
			if e.ContentID == cfg.ContentID {
				filtered = append(filtered, e)
			}
		}
		progress = filtered
	}
	xp, err := src.TotalXP(ctx, cfg.Learner)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Attempts: attempts,
		Window:   lastAttempts(attempts, cfg.CurveWindow),
		Progress: progress,
		TotalXP:  xp,
	}, nil
}

func lastAttempts(records []model.AttemptRecord, window int) []model.AttemptRecord {
	if window <= 0 || len(records) <= window {
		return records
	}
	return records[len(records)-window:]
}
