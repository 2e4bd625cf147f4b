package ui

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config contains picker-specific configuration.
type Config struct {
	EnableMouse bool
	Locale      string // only list voices whose locale starts with this

	// Environment
	NoColor bool   `env:"NO_COLOR"`
	Term    string `env:"TERM"`

	// For debugging the UI
	AltScreen bool `env:"PROSODIFY_ALT_SCREEN" envDefault:"true"`
	MaxWidth  uint `env:"PROSODIFY_PICKER_WIDTH" envDefault:"100"`
}

// LoadConfig reads the environment-driven picker settings.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("error parsing picker config: %w", err)
	}
	return cfg, nil
}
