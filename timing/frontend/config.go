package frontend

import "fmt"

// Config holds frontend parameters.
type Config struct {
	// Depth is the number of branches a thread may have in flight before
	// the oldest resolves. 0 resolves every branch right after fetch.
	// Default: 8.
	Depth int `json:"depth"`

	// TrainOnMispredict selects misprediction recovery. When true the
	// mispredicted branch is redirected and later committed, so it trains.
	// When false it goes through the squashed update and never trains.
	// Default: true.
	TrainOnMispredict bool `json:"train_on_mispredict"`

	// WindowSize is the number of committed branches per statistics
	// window. Default: 1000.
	WindowSize int `json:"window_size"`
}

// DefaultConfig returns the default frontend configuration.
func DefaultConfig() Config {
	return Config{
		Depth:             8,
		TrainOnMispredict: true,
		WindowSize:        1000,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Depth < 0 {
		return fmt.Errorf("depth must be >= 0")
	}
	if c.WindowSize <= 0 {
		return fmt.Errorf("window_size must be > 0")
	}
	return nil
}
