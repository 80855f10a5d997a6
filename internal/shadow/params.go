// Package shadow scores shadow-speaking attempts and drives level progression.
//
// Everything in this package is a pure function of its inputs. An Engine holds
// only immutable parameters and is safe for concurrent use.
package shadow

import (
	"errors"
	"fmt"

	"github.com/verte-zerg/tuishadow/internal/model"
)

// ErrInvalidInput marks a reference, level or parameter set that cannot be scored.
var ErrInvalidInput = errors.New("invalid input")

// Params holds the tunable scoring constants.
type Params struct {
	// EmphasisWindow is the allowed onset deviation for a stressed unit, in seconds.
	EmphasisWindow float64
	// DelayTolerance is the average-delay tolerance per level, loosest first.
	DelayTolerance [4]float64
	// RhythmEmphasisWeight weights the emphasis ratio against syllable-length accuracy.
	RhythmEmphasisWeight float64
	// TimingTempoWeight weights tempo accuracy against the delay term.
	TimingTempoWeight float64
	// OverallRhythmWeight weights the rhythm score against the timing score.
	OverallRhythmWeight float64
	// LevelUpThreshold is the overall score that unlocks the next level.
	LevelUpThreshold float64
	// BaseXP is the reward for a perfect attempt per level.
	BaseXP [4]int
}

// DefaultParams returns the standard scoring constants.
func DefaultParams() Params {
	return Params{
		EmphasisWindow:       0.150,
		DelayTolerance:       [4]float64{0.60, 0.45, 0.30, 0.20},
		RhythmEmphasisWeight: 0.5,
		TimingTempoWeight:    0.5,
		OverallRhythmWeight:  0.5,
		LevelUpThreshold:     80,
		BaseXP:               [4]int{20, 35, 50, 70},
	}
}

// Validate checks that p describes a coherent scoring setup.
func (p Params) Validate() error {
	var errs []error
	if !positive(p.EmphasisWindow) {
		errs = append(errs, fmt.Errorf("emphasis window must be > 0, got %v", p.EmphasisWindow))
	}
	for i, tol := range p.DelayTolerance {
		if !positive(tol) {
			errs = append(errs, fmt.Errorf("delay tolerance for level%d must be > 0, got %v", i+1, tol))
		}
		if i > 0 && tol > p.DelayTolerance[i-1] {
			errs = append(errs, fmt.Errorf("delay tolerance for level%d must not exceed level%d", i+1, i))
		}
	}
	weights := map[string]float64{
		"rhythm emphasis weight": p.RhythmEmphasisWeight,
		"timing tempo weight":    p.TimingTempoWeight,
		"overall rhythm weight":  p.OverallRhythmWeight,
	}
	for name, w := range weights {
		if !(w >= 0 && w <= 1) {
			errs = append(errs, fmt.Errorf("%s must be between 0 and 1, got %v", name, w))
		}
	}
	if !(p.LevelUpThreshold > 0 && p.LevelUpThreshold <= 100) {
		errs = append(errs, fmt.Errorf("level-up threshold must be in (0, 100], got %v", p.LevelUpThreshold))
	}
	for i, xp := range p.BaseXP {
		if xp <= 0 {
			errs = append(errs, fmt.Errorf("base xp for level%d must be > 0, got %d", i+1, xp))
		}
		if i > 0 && xp <= p.BaseXP[i-1] {
			errs = append(errs, fmt.Errorf("base xp for level%d must be greater than level%d", i+1, i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidInput, errors.Join(errs...))
	}
	return nil
}

// Engine scores attempts with a fixed parameter set.
type Engine struct {
	params Params
}

// NewEngine validates p and returns an Engine.
func NewEngine(p Params) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Engine{params: p}, nil
}

// Params returns the engine's scoring constants.
func (e *Engine) Params() Params {
	return e.params
}

func (p Params) tolerance(level model.Level) float64 {
	if !level.Valid() {
		level = model.Level1
	}
	return p.DelayTolerance[level.Index()]
}
