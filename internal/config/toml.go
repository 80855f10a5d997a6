// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/tuishadow/internal/shadow"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Practice PracticeConfig `toml:"practice"`
	Scoring  ScoringConfig  `toml:"scoring"`
}

// PracticeConfig maps practice-related settings.
type PracticeConfig struct {
	Learner     *string  `toml:"learner"`
	ContentDir  *string  `toml:"content-dir"`
	DBPath      *string  `toml:"db-path"`
	LogLevel    *string  `toml:"log-level"`
	QueueFactor *float64 `toml:"queue-factor"`
}

// ScoringConfig maps scoring parameters. Unset fields keep their defaults.
type ScoringConfig struct {
	EmphasisWindow       *float64   `toml:"emphasis-window"`
	DelayTolerance       *[]float64 `toml:"delay-tolerance"`
	RhythmEmphasisWeight *float64   `toml:"rhythm-emphasis-weight"`
	TimingTempoWeight    *float64   `toml:"timing-tempo-weight"`
	OverallRhythmWeight  *float64   `toml:"overall-rhythm-weight"`
	LevelUpThreshold     *float64   `toml:"level-up-threshold"`
	BaseXP               *[]int     `toml:"base-xp"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// Params overlays the scoring table on the default parameters and validates
// the result.
func (c ScoringConfig) Params() (shadow.Params, error) {
	p := shadow.DefaultParams()
	if c.EmphasisWindow != nil {
		p.EmphasisWindow = *c.EmphasisWindow
	}
	if c.DelayTolerance != nil {
		if len(*c.DelayTolerance) != len(p.DelayTolerance) {
			return shadow.Params{}, fmt.Errorf("delay-tolerance needs %d values, got %d", len(p.DelayTolerance), len(*c.DelayTolerance))
		}
		copy(p.DelayTolerance[:], *c.DelayTolerance)
	}
	if c.RhythmEmphasisWeight != nil {
		p.RhythmEmphasisWeight = *c.RhythmEmphasisWeight
	}
	if c.TimingTempoWeight != nil {
		p.TimingTempoWeight = *c.TimingTempoWeight
	}
	if c.OverallRhythmWeight != nil {
		p.OverallRhythmWeight = *c.OverallRhythmWeight
	}
	if c.LevelUpThreshold != nil {
		p.LevelUpThreshold = *c.LevelUpThreshold
	}
	if c.BaseXP != nil {
		if len(*c.BaseXP) != len(p.BaseXP) {
			return shadow.Params{}, fmt.Errorf("base-xp needs %d values, got %d", len(p.BaseXP), len(*c.BaseXP))
		}
		copy(p.BaseXP[:], *c.BaseXP)
	}
	if err := p.Validate(); err != nil {
		return shadow.Params{}, fmt.Errorf("invalid [scoring] config: %w", err)
	}
	return p, nil
}
