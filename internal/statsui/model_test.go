package statsui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/tuishadow/internal/model"
)

type fakeSource struct {
	attempts []model.AttemptRecord
	progress []model.ProgressEntry
	xp       int
	err      error
	lastCfg  model.StatsConfig
}

func (f *fakeSource) ListAttempts(_ context.Context, cfg model.StatsConfig) ([]model.AttemptRecord, error) {
	f.lastCfg = cfg
	return f.attempts, f.err
}

func (f *fakeSource) ListProgress(context.Context, string) ([]model.ProgressEntry, error) {
	return f.progress, nil
}

func (f *fakeSource) TotalXP(context.Context, string) (int, error) {
	return f.xp, nil
}

func sampleSource() *fakeSource {
	at := time.Date(2026, 3, 3, 21, 0, 0, 0, time.UTC)
	return &fakeSource{
		attempts: []model.AttemptRecord{
			{ContentID: "goblin-ep2", Overall: 55, Rhythm: 50, Timing: 60, XP: 11, PracticedAt: at},
			{ContentID: "goblin-ep2", Overall: 85, Rhythm: 80, Timing: 90, XP: 17, PracticedAt: at.Add(time.Hour)},
		},
		progress: []model.ProgressEntry{{
			ContentID: "goblin-ep2",
			Progress:  model.ShadowProgress{Attempts: 2, BestScore: 85, Level: model.Level2},
		}},
		xp: 28,
	}
}

func resize(m *Model) {
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
}

func TestOverviewShowsMetrics(t *testing.T) {
	m := NewModel(sampleSource(), model.StatsConfig{Learner: "mina", CurveWindow: 5}, nil)
	resize(m)
	view := m.View()
	for _, want := range []string{"Overview", "Attempts", "70.0", "Total XP", "28"} {
		if !strings.Contains(view, want) {
			t.Fatalf("overview missing %q:\n%s", want, view)
		}
	}
}

func TestTabsCycle(t *testing.T) {
	m := NewModel(sampleSource(), model.StatsConfig{Learner: "mina", CurveWindow: 5}, map[model.ContentID]string{"goblin-ep2": "First snow"})
	resize(m)
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.activeTab != tabContent {
		t.Fatalf("expected content tab, got %d", m.activeTab)
	}
	if view := m.View(); !strings.Contains(view, "First snow") || !strings.Contains(view, "level2") {
		t.Fatalf("content tab missing row:\n%s", view)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.activeTab != tabCurves || !strings.Contains(m.View(), "Learning Curves") {
		t.Fatalf("expected curves tab")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.activeTab != tabOverview {
		t.Fatalf("expected wrap to overview, got %d", m.activeTab)
	}
}

func TestCurveWindowKeys(t *testing.T) {
	m := NewModel(sampleSource(), model.StatsConfig{CurveWindow: 5}, nil)
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("]")})
	if m.cfg.CurveWindow != 10 {
		t.Fatalf("expected window 10, got %d", m.cfg.CurveWindow)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("[")})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("[")})
	if m.cfg.CurveWindow != 1 {
		t.Fatalf("expected window 1, got %d", m.cfg.CurveWindow)
	}
}

func TestFilterAppliesContent(t *testing.T) {
	src := sampleSource()
	m := NewModel(src, model.StatsConfig{Learner: "mina", CurveWindow: 5}, nil)
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	if !m.filterMode {
		t.Fatalf("expected filter mode")
	}
	m.filterInputs[0].SetValue("goblin-ep2")
	m.filterInputs[2].SetValue("1")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.filterMode || m.filterError != "" {
		t.Fatalf("expected filter to apply, error %q", m.filterError)
	}
	if src.lastCfg.ContentID != "goblin-ep2" || src.lastCfg.Last != 1 || src.lastCfg.Learner != "mina" {
		t.Fatalf("unexpected cfg passed to source: %+v", src.lastCfg)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	m.filterInputs[1].SetValue("yesterday")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.filterMode || m.filterError == "" {
		t.Fatalf("expected bad date to keep the filter open")
	}
}

func TestLoadErrorIsShown(t *testing.T) {
	src := sampleSource()
	src.err = errors.New("disk gone")
	m := NewModel(src, model.StatsConfig{}, nil)
	resize(m)
	if !strings.Contains(m.View(), "disk gone") {
		t.Fatalf("expected error in footer")
	}
}
