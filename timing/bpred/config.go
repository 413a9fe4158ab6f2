package bpred

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

// ErrInvalidParameter is wrapped by every configuration validation error.
var ErrInvalidParameter = errors.New("invalid predictor parameter")

// MaxHistoryLength is the longest history a register word can hold.
const MaxHistoryLength = 64

// Config holds the construction parameters of a perceptron predictor.
type Config struct {
	// HistoryLength is the number of global history bits (H). The weight
	// vector has HistoryLength+1 entries. Default: 32.
	HistoryLength int `json:"perceptron_history_length"`

	// TrainingThreshold is the confidence bound θ: a correct prediction
	// whose |sum| is at most θ still trains. Default: floor(1.93*H + 14).
	TrainingThreshold int `json:"training_threshold"`

	// WeightBits is the width of each signed weight counter, 1 to 8.
	// Default: 8.
	WeightBits int `json:"weight_num_bits"`

	// NumThreads is the number of hardware threads, one history register
	// each. Default: 1.
	NumThreads int `json:"num_threads"`
}

// DefaultTrainingThreshold returns floor(1.93*h + 14), the classic
// threshold for a perceptron with h history bits.
func DefaultTrainingThreshold(h int) int {
	return int(math.Floor(1.93*float64(h) + 14))
}

// DefaultConfig returns a 32-bit history, 8-bit weight, single-thread
// configuration.
func DefaultConfig() Config {
	return Config{
		HistoryLength:     32,
		TrainingThreshold: DefaultTrainingThreshold(32),
		WeightBits:        8,
		NumThreads:        1,
	}
}

// LoadConfig loads a Config from a JSON file. Fields missing from the file
// keep their defaults; when the file sets a history length but no
// threshold, the threshold is derived from the history length.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read predictor config file: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig decodes a Config from JSON using the same defaulting rules as
// LoadConfig.
func ParseConfig(data []byte) (Config, error) {
	config := DefaultConfig()
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("failed to parse predictor config: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Config{}, fmt.Errorf("failed to parse predictor config: %w", err)
	}

	_, hasLength := fields["perceptron_history_length"]
	_, hasThreshold := fields["training_threshold"]
	if hasLength && !hasThreshold {
		config.TrainingThreshold = DefaultTrainingThreshold(config.HistoryLength)
	}

	return config, nil
}

// SaveConfig writes the Config to a JSON file.
func (c Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize predictor config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write predictor config file: %w", err)
	}

	return nil
}

// Validate checks every parameter. A weight wider than 8 bits is the
// classic fatal case; the other checks guard the register and arena sizes.
func (c Config) Validate() error {
	if c.WeightBits > MaxWeightBits {
		return fmt.Errorf("%w: number of weight bits too large: %d > %d",
			ErrInvalidParameter, c.WeightBits, MaxWeightBits)
	}
	if c.WeightBits < 1 {
		return fmt.Errorf("%w: weight_num_bits must be >= 1, got %d",
			ErrInvalidParameter, c.WeightBits)
	}
	if c.HistoryLength < 1 {
		return fmt.Errorf("%w: perceptron_history_length must be >= 1, got %d",
			ErrInvalidParameter, c.HistoryLength)
	}
	if c.HistoryLength > MaxHistoryLength {
		return fmt.Errorf("%w: perceptron_history_length must be <= %d, got %d",
			ErrInvalidParameter, MaxHistoryLength, c.HistoryLength)
	}
	if c.TrainingThreshold < 0 {
		return fmt.Errorf("%w: training_threshold must be >= 0, got %d",
			ErrInvalidParameter, c.TrainingThreshold)
	}
	if c.NumThreads < 1 {
		return fmt.Errorf("%w: num_threads must be >= 1, got %d",
			ErrInvalidParameter, c.NumThreads)
	}
	return nil
}
