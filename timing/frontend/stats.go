package frontend

import (
	"gonum.org/v1/gonum/stat"
)

// Stats holds frontend statistics.
type Stats struct {
	// Fetched counts every branch fetched, re-fetches included.
	Fetched uint64
	// Refetched counts branches fetched again after a squash.
	Refetched uint64
	// Conditional and Unconditional split committed branches by kind.
	Conditional   uint64
	Unconditional uint64
	// Committed is the number of branches resolved.
	Committed uint64
	// Correct is the number of branches whose fetch direction and target
	// were right.
	Correct uint64
	// Mispredictions is the number of branches that redirected fetch.
	Mispredictions uint64
	// BTBMisses counts predicted-taken branches without a BTB target.
	BTBMisses uint64
	// Squashed counts younger in-flight branches thrown away.
	Squashed uint64
	// Windows holds the misprediction rate, in percent, of every complete
	// window of committed branches.
	Windows []float64
}

// Accuracy returns the fetch-direction accuracy as a percentage.
func (s Stats) Accuracy() float64 {
	if s.Committed == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Committed) * 100
}

// MispredictionRate returns the misprediction rate as a percentage.
func (s Stats) MispredictionRate() float64 {
	if s.Committed == 0 {
		return 0
	}
	return float64(s.Mispredictions) / float64(s.Committed) * 100
}

// Summary describes the distribution of windowed misprediction rates.
type Summary struct {
	Windows int
	Mean    float64
	StdDev  float64
	Last    float64
}

// Summary computes the mean and standard deviation of the windowed
// misprediction rates.
func (s Stats) Summary() Summary {
	n := len(s.Windows)
	switch n {
	case 0:
		return Summary{}
	case 1:
		return Summary{Windows: 1, Mean: s.Windows[0], Last: s.Windows[0]}
	}

	mean, std := stat.MeanStdDev(s.Windows, nil)
	return Summary{
		Windows: n,
		Mean:    mean,
		StdDev:  std,
		Last:    s.Windows[n-1],
	}
}
