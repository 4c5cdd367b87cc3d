package utils

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/sheikhrachel/go-gol-engine/model"
)

var (
	// ErrInvalidIntervalRange is returned when the speed bounds are unusable
	ErrInvalidIntervalRange = errors.New("invalid interval range")
	// ErrInvalidProbability is returned when the random fill probability is outside [0, 1]
	ErrInvalidProbability = errors.New("invalid random fill probability")
	// ErrInvalidGeneration is returned for a negative starting generation
	ErrInvalidGeneration = errors.New("invalid initial generation")
)

// Config holds the configuration for a simulation session
type Config struct {
	Rows                  int     `json:"rows"`
	Cols                  int     `json:"cols"`
	InitialGeneration     int     `json:"initial_generation"`
	InitialIntervalMillis int     `json:"initial_interval_millis"`
	MinIntervalMillis     int     `json:"min_interval_millis"`
	MaxIntervalMillis     int     `json:"max_interval_millis"`
	RandomFillProbability float64 `json:"random_fill_probability"`
	Seed                  int64   `json:"seed"` // 0 picks a time based seed
	UseMemoryPool         bool    `json:"use_memory_pool"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Rows:                  25,
		Cols:                  40,
		InitialGeneration:     0,
		InitialIntervalMillis: 1000,
		MinIntervalMillis:     10,
		MaxIntervalMillis:     2000,
		RandomFillProbability: 0.3,
		UseMemoryPool:         true,
	}
}

// LoadConfig loads configuration from JSON file, keeping defaults for absent fields
func LoadConfig(filename string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, errors.Wrapf(err, "[LoadConfig] failed to read file: %+v", filename)
	}

	if err = json.Unmarshal(data, &config); err != nil {
		return config, errors.Wrapf(err, "[LoadConfig] failed to unmarshal data from file: %+v", filename)
	}

	if err = config.Validate(); err != nil {
		return config, errors.Wrapf(err, "[LoadConfig] invalid configuration in file: %+v", filename)
	}

	return config, nil
}

// Validate checks the configuration. The initial interval is not checked
// because it is clamped into the configured range.
func (c Config) Validate() error {
	if c.Rows <= 0 || c.Cols <= 0 {
		return errors.Wrapf(model.ErrInvalidDimensions, "[Validate] rows=%d cols=%d", c.Rows, c.Cols)
	}
	if c.InitialGeneration < 0 {
		return errors.Wrapf(ErrInvalidGeneration, "[Validate] initial_generation=%d", c.InitialGeneration)
	}
	if c.MinIntervalMillis <= 0 || c.MinIntervalMillis > c.MaxIntervalMillis {
		return errors.Wrapf(ErrInvalidIntervalRange, "[Validate] min=%d max=%d", c.MinIntervalMillis, c.MaxIntervalMillis)
	}
	if c.RandomFillProbability < 0 || c.RandomFillProbability > 1 {
		return errors.Wrapf(ErrInvalidProbability, "[Validate] random_fill_probability=%v", c.RandomFillProbability)
	}
	return nil
}

// ClampInterval limits ms to [MinIntervalMillis, MaxIntervalMillis]
func (c Config) ClampInterval(ms int) int {
	return min(max(ms, c.MinIntervalMillis), c.MaxIntervalMillis)
}
