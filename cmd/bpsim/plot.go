package main

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/sarchlab/bpsim/benchmarks"
)

// plotWindows draws one line per result: misprediction rate against
// committed branches.
func plotWindows(results []benchmarks.Result, windowSize int, path string) error {
	p := plot.New()
	p.Title.Text = "Windowed misprediction rate"
	p.X.Label.Text = "committed branches"
	p.Y.Label.Text = "mispredictions (%)"
	p.Y.Min = 0

	var lines []interface{}
	for _, r := range results {
		if len(r.Windows) == 0 {
			continue
		}

		pts := make(plotter.XYs, len(r.Windows))
		for i, rate := range r.Windows {
			pts[i].X = float64((i + 1) * windowSize)
			pts[i].Y = rate
		}
		lines = append(lines, r.Name, pts)
	}

	if len(lines) == 0 {
		return fmt.Errorf("no complete windows to plot, lower -window")
	}

	if err := plotutil.AddLinePoints(p, lines...); err != nil {
		return fmt.Errorf("failed plotting data: %w", err)
	}

	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}
