// Package practice scores submitted attempts and persists learner progress.
package practice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/verte-zerg/tuishadow/internal/content"
	"github.com/verte-zerg/tuishadow/internal/model"
	"github.com/verte-zerg/tuishadow/internal/shadow"
	"github.com/verte-zerg/tuishadow/internal/store"
)

// ProgressStore persists per-learner, per-content progress.
type ProgressStore interface {
	UpdateProgress(ctx context.Context, learner string, id model.ContentID, fn store.UpdateFunc) (model.ShadowProgress, error)
	GetProgress(ctx context.Context, learner string, id model.ContentID) (model.ShadowProgress, bool, error)
}

// Outcome is the result of one submitted attempt.
type Outcome struct {
	ContentID model.ContentID
	Result    model.ShadowResult
	Analysis  model.ShadowAnalysis
	Sentences []model.ShadowAnalysis
	Progress  model.ShadowProgress
	LeveledUp bool
	Mastered  bool
}

// Service scores attempts against catalog content.
type Service struct {
	engine  *shadow.Engine
	catalog *content.Catalog
	store   ProgressStore
	logger  *slog.Logger
	now     func() time.Time
}

// New returns a Service. A nil logger uses slog.Default.
func New(engine *shadow.Engine, catalog *content.Catalog, st ProgressStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		engine:  engine,
		catalog: catalog,
		store:   st,
		logger:  logger,
		now:     time.Now,
	}
}

// Catalog returns the content catalog the service scores against.
func (s *Service) Catalog() *content.Catalog {
	return s.catalog
}

// Engine returns the scoring engine.
func (s *Service) Engine() *shadow.Engine {
	return s.engine
}

// Submit scores an attempt at the learner's current level for id and stores
// the updated progress. Unscorable input returns an error wrapping
// shadow.ErrInvalidInput and leaves progress untouched; a low score is a
// normal Outcome.
func (s *Service) Submit(ctx context.Context, learner string, id model.ContentID, attempts []model.ObservedAttempt) (Outcome, error) {
	learner = strings.TrimSpace(learner)
	if learner == "" {
		return Outcome{}, fmt.Errorf("%w: learner is required", shadow.ErrInvalidInput)
	}
	item, err := s.catalog.Get(id)
	if err != nil {
		return Outcome{}, err
	}

	params := s.engine.Params()
	var out Outcome
	progress, err := s.store.UpdateProgress(ctx, learner, id, func(prev model.ShadowProgress) (model.ShadowProgress, *model.AttemptRecord, error) {
		level := prev.Level
		if !level.Valid() {
			level = model.Level1
		}
		analysis, per, err := s.engine.AnalyzeContent(item.Sentences, item.Segmentation, s.Settings(item, level), level, attempts)
		if err != nil {
			return prev, nil, err
		}
		now := s.now()
		next, attempted := params.Advance(prev, analysis, now)
		result := params.Result(analysis, attempted)

		out = Outcome{
			ContentID: id,
			Result:    result,
			Analysis:  analysis,
			Sentences: per,
			LeveledUp: next.Level > attempted,
			Mastered:  params.Mastered(next),
		}
		record := &model.AttemptRecord{
			Learner:     learner,
			ContentID:   id,
			Level:       attempted,
			Rhythm:      analysis.RhythmScore,
			Timing:      analysis.TimingScore,
			Overall:     analysis.OverallScore,
			Feedback:    result.Feedback,
			XP:          result.XP,
			PracticedAt: now,
		}
		return next, record, nil
	})
	if err != nil {
		if errors.Is(err, shadow.ErrInvalidInput) {
			s.logger.Warn("attempt could not be scored", "learner", learner, "content", id, "err", err)
		}
		return Outcome{}, err
	}
	out.Progress = progress

	s.logger.Info("attempt scored",
		"learner", learner,
		"content", id,
		"level", out.Result.Level,
		"overall", out.Result.Scores.Overall,
		"feedback", out.Result.Feedback,
		"xp", out.Result.XP,
	)
	if out.LeveledUp {
		s.logger.Info("level unlocked", "learner", learner, "content", id, "level", progress.Level)
	}
	return out, nil
}

// Preview scores an attempt at level without touching stored progress.
func (s *Service) Preview(id model.ContentID, level model.Level, attempts []model.ObservedAttempt) (model.ShadowResult, model.ShadowAnalysis, error) {
	item, err := s.catalog.Get(id)
	if err != nil {
		return model.ShadowResult{}, model.ShadowAnalysis{}, err
	}
	if !level.Valid() {
		return model.ShadowResult{}, model.ShadowAnalysis{}, fmt.Errorf("%w: unknown level %d", shadow.ErrInvalidInput, int(level))
	}
	analysis, _, err := s.engine.AnalyzeContent(item.Sentences, item.Segmentation, s.Settings(item, level), level, attempts)
	if err != nil {
		return model.ShadowResult{}, model.ShadowAnalysis{}, err
	}
	return s.engine.Result(analysis, level), analysis, nil
}

// Progress returns the learner's stored progress for id, or the initial state.
func (s *Service) Progress(ctx context.Context, learner string, id model.ContentID) (model.ShadowProgress, error) {
	if _, err := s.catalog.Get(id); err != nil {
		return model.ShadowProgress{}, err
	}
	progress, _, err := s.store.GetProgress(ctx, learner, id)
	if err != nil {
		return model.ShadowProgress{}, fmt.Errorf("failed to load progress: %w", err)
	}
	return progress, nil
}

// Settings returns the effective playback settings of item at level.
func (s *Service) Settings(item content.Item, level model.Level) model.LevelSettings {
	return item.Settings(level)
}

// Session returns the item and the progress a practice session starts from.
func (s *Service) Session(ctx context.Context, learner string, id model.ContentID) (content.Item, model.ShadowProgress, error) {
	item, err := s.catalog.Get(id)
	if err != nil {
		return content.Item{}, model.ShadowProgress{}, err
	}
	progress, err := s.Progress(ctx, learner, id)
	if err != nil {
		return content.Item{}, model.ShadowProgress{}, err
	}
	return item, progress, nil
}
