package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvConfig holds environment overrides. They sit between the config file
// and command-line flags.
type EnvConfig struct {
	Learner    string `env:"TUISHADOW_LEARNER"`
	DBPath     string `env:"TUISHADOW_DB_PATH"`
	ContentDir string `env:"TUISHADOW_CONTENT_DIR"`
	ConfigPath string `env:"TUISHADOW_CONFIG"`
	LogLevel   string `env:"TUISHADOW_LOG_LEVEL"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadEnv reads the TUISHADOW_* variables.
func LoadEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := ParseEnv(&cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// Apply overlays non-empty environment values onto the practice table.
func (e EnvConfig) Apply(p *PracticeConfig) {
	set := func(dst **string, v string) {
		if v != "" {
			value := v
			*dst = &value
		}
	}
	set(&p.Learner, e.Learner)
	set(&p.DBPath, e.DBPath)
	set(&p.ContentDir, e.ContentDir)
	set(&p.LogLevel, e.LogLevel)
}
