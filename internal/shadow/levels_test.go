package shadow

import (
	"errors"
	"math"
	"testing"

	"github.com/verte-zerg/tuishadow/internal/model"
)

func TestDefaultsAreValid(t *testing.T) {
	if err := ValidateLadder(DefaultLadder()); err != nil {
		t.Fatalf("default ladder: %v", err)
	}
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("default params: %v", err)
	}
}

func TestValidateLadderRejectsEasierLevels(t *testing.T) {
	tests := []struct {
		name   string
		modify func(l *model.LevelLadder)
	}{
		{name: "zero speed", modify: func(l *model.LevelLadder) { l[0].Speed = 0 }},
		{name: "negative delay", modify: func(l *model.LevelLadder) { l[3].Delay = -1 }},
		{name: "slower later level", modify: func(l *model.LevelLadder) { l[2].Speed = 0.5 }},
		{name: "longer later delay", modify: func(l *model.LevelLadder) { l[3].Delay = 2 }},
		{name: "pause returns", modify: func(l *model.LevelLadder) { l[3].Pause = true }},
		{name: "identical levels", modify: func(l *model.LevelLadder) { l[1] = l[0] }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ladder := DefaultLadder()
			tt.modify(&ladder)
			if err := ValidateLadder(ladder); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(p *Params)
	}{
		{name: "zero window", modify: func(p *Params) { p.EmphasisWindow = 0 }},
		{name: "tolerance grows", modify: func(p *Params) { p.DelayTolerance[3] = 1 }},
		{name: "weight above one", modify: func(p *Params) { p.TimingTempoWeight = 1.5 }},
		{name: "threshold above 100", modify: func(p *Params) { p.LevelUpThreshold = 120 }},
		{name: "flat xp", modify: func(p *Params) { p.BaseXP[2] = p.BaseXP[1] }},
		{name: "nan window", modify: func(p *Params) { p.EmphasisWindow = math.NaN() }},
		{name: "infinite window", modify: func(p *Params) { p.EmphasisWindow = math.Inf(1) }},
		{name: "nan tolerance", modify: func(p *Params) { p.DelayTolerance[0] = math.NaN() }},
		{name: "nan weight", modify: func(p *Params) { p.RhythmEmphasisWeight = math.NaN() }},
		{name: "nan threshold", modify: func(p *Params) { p.LevelUpThreshold = math.NaN() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.modify(&p)
			if _, err := NewEngine(p); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestValidateSettingsRejectsNonFinite(t *testing.T) {
	tests := []struct {
		name     string
		settings model.LevelSettings
	}{
		{name: "nan delay", settings: model.LevelSettings{Speed: 1, Delay: math.NaN()}},
		{name: "infinite delay", settings: model.LevelSettings{Speed: 1, Delay: math.Inf(1)}},
		{name: "nan speed", settings: model.LevelSettings{Speed: math.NaN()}},
		{name: "infinite speed", settings: model.LevelSettings{Speed: math.Inf(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateSettings(tt.settings); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}

	ladder := DefaultLadder()
	ladder[1].Delay = math.NaN()
	if err := ValidateLadder(ladder); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("ladder with nan delay: expected ErrInvalidInput, got %v", err)
	}
}
