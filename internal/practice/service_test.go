package practice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/tuishadow/internal/content"
	"github.com/verte-zerg/tuishadow/internal/model"
	"github.com/verte-zerg/tuishadow/internal/shadow"
	"github.com/verte-zerg/tuishadow/internal/store"
)

var testItem = content.Item{
	ID:           "love-confession",
	Title:        "Confession",
	Segmentation: model.SegmentAuto,
	Levels:       shadow.DefaultLadder(),
	Sentences: []model.ReferenceSentence{{
		Text:      "사랑해",
		StartTime: 10,
		EndTime:   11.5,
		Speed:     2,
		Emphasis:  []int{1},
	}},
}

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	engine, err := shadow.NewEngine(shadow.DefaultParams())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	catalog, err := content.NewCatalog(testItem)
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	st, err := store.Open(filepath.Join(t.TempDir(), "tuishadow.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	svc := New(engine, catalog, st, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC) }
	return svc, st
}

func perfectAttempt(t *testing.T, level model.Level) []model.ObservedAttempt {
	t.Helper()
	onsets, err := shadow.ExpectedOnsets(testItem.Sentences[0], 3, testItem.Settings(level))
	if err != nil {
		t.Fatalf("expected onsets: %v", err)
	}
	return []model.ObservedAttempt{{Onsets: onsets}}
}

func TestSubmitPerfectAttemptLevelsUp(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	out, err := svc.Submit(ctx, "mina", testItem.ID, perfectAttempt(t, model.Level1))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if out.Result.Scores.Overall != 100 || out.Result.Feedback != model.FeedbackExcellent {
		t.Fatalf("unexpected result %+v", out.Result)
	}
	if out.Result.Level != model.Level1 || !out.LeveledUp || out.Progress.Level != model.Level2 {
		t.Fatalf("expected level1 attempt unlocking level2, got result level %d progress level %d", out.Result.Level, out.Progress.Level)
	}
	if out.Result.XP != 20 {
		t.Fatalf("expected 20 xp, got %d", out.Result.XP)
	}

	xp, err := st.TotalXP(ctx, "mina")
	if err != nil {
		t.Fatalf("total xp: %v", err)
	}
	if xp != 20 {
		t.Fatalf("expected stored xp 20, got %d", xp)
	}

	// The next attempt is scored against the unlocked level.
	out, err = svc.Submit(ctx, "mina", testItem.ID, perfectAttempt(t, model.Level2))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if out.Result.Level != model.Level2 || out.Result.Scores.Overall != 100 || out.Progress.Attempts != 2 {
		t.Fatalf("unexpected second outcome %+v", out)
	}
}

func TestSubmitEmptyAttemptIsScored(t *testing.T) {
	svc, _ := newTestService(t)
	out, err := svc.Submit(context.Background(), "mina", testItem.ID, nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if out.Result.Scores.Overall != 0 || out.Result.Feedback != model.FeedbackTryAgain || out.Result.XP != 0 {
		t.Fatalf("expected floor result, got %+v", out.Result)
	}
	if out.Progress.Attempts != 1 || out.Progress.Level != model.Level1 || out.LeveledUp {
		t.Fatalf("expected one attempt at level1, got %+v", out.Progress)
	}
}

func TestSubmitRejectsBeforeMutation(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Submit(ctx, "mina", "missing", nil); !errors.Is(err, content.ErrUnknownContent) {
		t.Fatalf("expected ErrUnknownContent, got %v", err)
	}
	if _, err := svc.Submit(ctx, " ", testItem.ID, nil); !errors.Is(err, shadow.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank learner, got %v", err)
	}
	records, err := st.ListAttempts(ctx, model.StatsConfig{})
	if err != nil {
		t.Fatalf("list attempts: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no stored attempts, got %d", len(records))
	}
}

func TestPreviewDoesNotPersist(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	result, analysis, err := svc.Preview(testItem.ID, model.Level3, perfectAttempt(t, model.Level3))
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if result.Level != model.Level3 || result.XP != 50 || analysis.MatchedUnits != 3 {
		t.Fatalf("unexpected preview %+v %+v", result, analysis)
	}
	if _, _, err := svc.Preview(testItem.ID, 9, nil); !errors.Is(err, shadow.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad level, got %v", err)
	}
	progress, err := svc.Progress(ctx, "mina", testItem.ID)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if progress.Attempts != 0 || progress.Level != model.Level1 {
		t.Fatalf("expected untouched progress, got %+v", progress)
	}
}

func TestSessionSettingsFollowUnlockedLevel(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	ladder := shadow.DefaultLadder()

	item, progress, err := svc.Session(ctx, "mina", testItem.ID)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if got := svc.Settings(item, progress.Level); got != ladder[0] {
		t.Fatalf("expected level1 settings %+v, got %+v", ladder[0], got)
	}

	if _, err := svc.Submit(ctx, "mina", testItem.ID, perfectAttempt(t, model.Level1)); err != nil {
		t.Fatalf("submit: %v", err)
	}
	item, progress, err = svc.Session(ctx, "mina", testItem.ID)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if got := svc.Settings(item, progress.Level); got != ladder[1] {
		t.Fatalf("expected level2 settings %+v, got %+v", ladder[1], got)
	}
}
