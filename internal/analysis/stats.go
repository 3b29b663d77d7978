// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package analysis computes descriptive statistics over decoded axis columns.
package analysis

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes one column of values.
type Summary struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"` // sample standard deviation, 0 when N < 2
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summarize returns the statistics of values. An empty input yields the
// zero Summary.
func Summarize(values []int64) Summary {
	if len(values) == 0 {
		return Summary{}
	}

	xs := make([]float64, len(values))
	for i, v := range values {
		xs[i] = float64(v)
	}

	mean, std := stat.MeanStdDev(xs, nil)
	if len(xs) < 2 {
		std = 0
	}
	return Summary{
		N:      len(xs),
		Mean:   mean,
		StdDev: std,
		Min:    floats.Min(xs),
		Max:    floats.Max(xs),
	}
}
