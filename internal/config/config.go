// Package config loads adaptiq settings from defaults, an optional YAML
// file and the environment, in that order of increasing priority.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/abhisek/adaptiq/internal/calibrate"
	"github.com/abhisek/adaptiq/internal/irt"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment variables consulted by Load.
const (
	EnvDB     = "ADAPTIQ_DB"
	EnvConfig = "ADAPTIQ_CONFIG"
)

// Config holds all adaptiq configuration.
type Config struct {
	// DBPath overrides the default SQLite location. Empty means default.
	DBPath string `yaml:"db_path"`

	Log         LogConfig        `yaml:"log"`
	Estimator   EstimatorConfig  `yaml:"estimator"`
	Predictor   PredictorConfig  `yaml:"predictor"`
	Calibration calibrate.Config `yaml:"calibration"`
	Evaluate    EvaluateConfig   `yaml:"evaluate"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// EstimatorConfig configures ability estimation.
type EstimatorConfig struct {
	Lower         float64 `yaml:"lower" validate:"ltfield=Upper"`
	Upper         float64 `yaml:"upper"`
	Tolerance     float64 `yaml:"tolerance" validate:"gt=0"`
	MaxIterations int     `yaml:"max_iterations" validate:"gte=1"`
}

// PredictorConfig configures binary prediction.
type PredictorConfig struct {
	// Shift is subtracted from the probability before rounding.
	Shift float64 `yaml:"shift" validate:"gte=0,lt=0.5"`
}

// EvaluateConfig configures the adaptive evaluation harness.
type EvaluateConfig struct {
	Rounds       int `yaml:"rounds" validate:"gte=1"`
	Workers      int `yaml:"workers" validate:"gte=1,lte=256"`
	SnapshotKeep int `yaml:"snapshot_keep" validate:"gte=1"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Estimator: EstimatorConfig{
			Lower:         irt.MinTheta,
			Upper:         irt.MaxTheta,
			Tolerance:     2e-12,
			MaxIterations: 100,
		},
		Predictor: PredictorConfig{
			Shift: irt.DefaultShift,
		},
		Calibration: calibrate.DefaultConfig(),
		Evaluate: EvaluateConfig{
			Rounds:       10,
			Workers:      4,
			SnapshotKeep: 20,
		},
	}
}

var validate = validator.New()

// Validate checks every field constraint.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Load builds the effective configuration. path may be empty, in which case
// ADAPTIQ_CONFIG is consulted; if neither names a file, defaults are used.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := decode(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if db := os.Getenv(EnvDB); db != "" {
		cfg.DBPath = db
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// decode overlays YAML onto cfg, rejecting unknown keys.
func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// NewEstimator builds the ability estimator for the given baseline.
func (c Config) NewEstimator(theta0 float64) irt.Estimator {
	return irt.Estimator{
		Lower:         c.Estimator.Lower,
		Upper:         c.Estimator.Upper,
		Tolerance:     c.Estimator.Tolerance,
		MaxIterations: c.Estimator.MaxIterations,
		Default:       theta0,
	}
}

// NewPredictor builds the predictor.
func (c Config) NewPredictor() irt.Predictor {
	return irt.Predictor{Shift: c.Predictor.Shift}
}
