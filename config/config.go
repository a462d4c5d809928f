// Package config loads the pipeline configuration from YAML or JSON.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/alphapulse/env"
)

// Config represents the complete pipeline configuration.
type Config struct {
	Data    DataConfig    `json:"data" yaml:"data"`
	Env     env.Config    `json:"env" yaml:"env"`
	Train   TrainConfig   `json:"train" yaml:"train"`
	Journal JournalConfig `json:"journal" yaml:"journal"`
}

// DataConfig contains data source and storage parameters.
type DataConfig struct {
	Source     string `json:"source" yaml:"source"`         // "oanda" or "dukascopy"
	Instrument string `json:"instrument" yaml:"instrument"` // OANDA style, e.g. "EUR_USD"
	DBPath     string `json:"db_path" yaml:"db_path"`

	// OANDA-specific. The token may also come from the OANDA_TOKEN env var.
	OandaEnv   string `json:"oanda_env,omitempty" yaml:"oanda_env,omitempty"` // "practice" or "live"
	OandaToken string `json:"oanda_token,omitempty" yaml:"oanda_token,omitempty"`
}

// TrainConfig contains training-loop parameters.
type TrainConfig struct {
	Episodes      int     `json:"episodes" yaml:"episodes"`
	LearningRate  float64 `json:"learning_rate" yaml:"learning_rate"`
	Gamma         float64 `json:"gamma" yaml:"gamma"`
	Seed          int64   `json:"seed" yaml:"seed"`
	SnapshotEvery int     `json:"snapshot_every" yaml:"snapshot_every"`
	MetricsAddr   string  `json:"metrics_addr,omitempty" yaml:"metrics_addr,omitempty"`
	PolicyFile    string  `json:"policy_file" yaml:"policy_file"`
}

// JournalConfig contains journaling parameters.
type JournalConfig struct {
	Type         string `json:"type" yaml:"type"` // "sqlite", "csv" or "none"
	DBPath       string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	EpisodesFile string `json:"episodes_file,omitempty" yaml:"episodes_file,omitempty"`
	EquityFile   string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
}

// LoadFromFile loads configuration from a file (YAML or JSON based on
// content; YAML is tried first).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", errors.Join(err, jerr))
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension).
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Data.Source {
	case "oanda", "dukascopy":
	default:
		return fmt.Errorf("data.source must be 'oanda' or 'dukascopy', got %q", c.Data.Source)
	}
	if c.Data.Instrument == "" {
		return fmt.Errorf("data.instrument is required")
	}
	if c.Data.DBPath == "" {
		return fmt.Errorf("data.db_path is required")
	}
	if c.Data.Source == "oanda" && c.Data.OandaEnv != "practice" && c.Data.OandaEnv != "live" {
		return fmt.Errorf("data.oanda_env must be 'practice' or 'live', got %q", c.Data.OandaEnv)
	}

	if err := c.Env.Validate(); err != nil {
		return fmt.Errorf("env: %w", err)
	}

	if c.Train.Episodes <= 0 {
		return fmt.Errorf("train.episodes must be positive")
	}
	if c.Train.LearningRate <= 0 {
		return fmt.Errorf("train.learning_rate must be positive")
	}
	if c.Train.Gamma <= 0 || c.Train.Gamma > 1 {
		return fmt.Errorf("train.gamma must be in (0,1]")
	}

	switch c.Journal.Type {
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal.db_path required for sqlite type")
		}
	case "csv":
		if c.Journal.EpisodesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal episodes_file and equity_file required for csv type")
		}
	case "none":
	default:
		return fmt.Errorf("journal.type must be 'sqlite', 'csv' or 'none', got %q", c.Journal.Type)
	}
	return nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			Source:     "dukascopy",
			Instrument: "EUR_USD",
			DBPath:     "./candles.sqlite",
			OandaEnv:   "practice",
		},
		Env: env.DefaultConfig(),
		Train: TrainConfig{
			Episodes:      1000,
			LearningRate:  0.0003,
			Gamma:         0.99,
			Seed:          0, // 0 means seed from the clock
			SnapshotEvery: 96,
			PolicyFile:    "./policy.json",
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./episodes.sqlite",
		},
	}
}
