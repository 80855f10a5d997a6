package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/tuishadow/internal/config"
	"github.com/verte-zerg/tuishadow/internal/content"
	"github.com/verte-zerg/tuishadow/internal/generator"
	"github.com/verte-zerg/tuishadow/internal/model"
	"github.com/verte-zerg/tuishadow/internal/shadow"
	"github.com/verte-zerg/tuishadow/internal/store"
)

func TestDefaultConfigTemplateLoads(t *testing.T) {
	var b strings.Builder
	for _, line := range strings.Split(defaultConfigTemplate(), "\n") {
		if strings.HasPrefix(line, "# ") && strings.Contains(line, " = ") {
			line = strings.TrimPrefix(line, "# ")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Practice.LogLevel == nil || *cfg.Practice.LogLevel != defaultLogLevel {
		t.Fatalf("expected log-level %q, got %v", defaultLogLevel, cfg.Practice.LogLevel)
	}
	params, err := cfg.Scoring.Params()
	if err != nil {
		t.Fatalf("Params: %v", err)
	}
	if params != shadow.DefaultParams() {
		t.Fatalf("template params differ from defaults: %+v", params)
	}
}

func TestParseSince(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	got, err := parseSince("2024-05-01T08:00:00Z", now)
	if err != nil || !got.Equal(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)) {
		t.Fatalf("rfc3339: got %v, %v", got, err)
	}

	got, err = parseSince("48h", now)
	if err != nil || !got.Equal(now.Add(-48*time.Hour)) {
		t.Fatalf("duration: got %v, %v", got, err)
	}

	got, err = parseSince("2024-05-01", now)
	if err != nil || got.Year() != 2024 || got.Month() != time.May || got.Day() != 1 {
		t.Fatalf("date: got %v, %v", got, err)
	}

	if _, err := parseSince("last week", now); err == nil {
		t.Fatalf("expected error for free text")
	}
	if _, err := parseSince("-1h", now); err == nil {
		t.Fatalf("expected error for negative duration")
	}
}

func TestWrapScoreErr(t *testing.T) {
	err := wrapScoreErr(shadow.ErrInvalidInput)
	if !strings.HasPrefix(err.Error(), "could not score: ") {
		t.Fatalf("unexpected message %q", err.Error())
	}
	other := os.ErrNotExist
	if wrapScoreErr(other) != other {
		t.Fatalf("non-input errors should pass through")
	}
}

func TestUpNextPlansFromCatalog(t *testing.T) {
	catalog, err := content.NewCatalog(
		content.Item{ID: "goblin", Title: "Goblin", Levels: shadow.DefaultLadder()},
		content.Item{ID: "signal", Title: "Signal", Levels: shadow.DefaultLadder()},
	)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	st, err := store.Open(filepath.Join(t.TempDir(), "tuishadow.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	a := &app{
		settings: settings{learner: "mina", params: shadow.DefaultParams()},
		logger:   slog.Default(),
		catalog:  catalog,
		store:    st,
	}
	defer a.close()

	plan, err := a.upNext(context.Background(), generator.NewSeeded(3, 0), 4)
	if err != nil {
		t.Fatalf("upNext: %v", err)
	}
	if len(plan) != 4 {
		t.Fatalf("expected 4 planned items, got %v", plan)
	}
	for i, id := range plan {
		if _, err := catalog.Get(id); err != nil {
			t.Fatalf("planned unknown id %q", id)
		}
		if i > 0 && plan[i-1] == id {
			t.Fatalf("plan repeats %q back to back: %v", id, plan)
		}
	}

	var buf bytes.Buffer
	writePlan(&buf, []model.ContentID{"goblin", "signal"}, a.titles())
	want := "\nUp next:\n  1. goblin  Goblin\n  2. signal  Signal\n"
	if buf.String() != want {
		t.Fatalf("unexpected plan output %q", buf.String())
	}
}
