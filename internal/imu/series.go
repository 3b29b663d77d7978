// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import "iter"

// Series is an ordered, append-only collection of samples.
// The zero value is ready to use.
type Series struct {
	samples []Sample
}

// NewSeries returns a Series with room for n samples.
func NewSeries(n int) *Series {
	return &Series{samples: make([]Sample, 0, n)}
}

// Append adds s at the end of the series.
func (ser *Series) Append(s Sample) {
	ser.samples = append(ser.samples, s)
}

// Len returns the number of samples held.
func (ser *Series) Len() int {
	return len(ser.samples)
}

// At returns the i-th sample in insertion order.
func (ser *Series) At(i int) Sample {
	return ser.samples[i]
}

// All iterates the samples in insertion order.
func (ser *Series) All() iter.Seq[Sample] {
	return func(yield func(Sample) bool) {
		for _, s := range ser.samples {
			if !yield(s) {
				return
			}
		}
	}
}

// Column extracts one field from every sample, in order. An unknown
// column yields nil.
func (ser *Series) Column(c Column) []int64 {
	out := make([]int64, 0, len(ser.samples))
	for _, s := range ser.samples {
		v, err := s.Axis(c)
		if err != nil {
			return nil
		}
		out = append(out, v)
	}
	return out
}

// Window returns the samples whose Time lies in [minTime, maxTime],
// keeping their order.
func (ser *Series) Window(minTime, maxTime uint64) *Series {
	out := &Series{}
	for _, s := range ser.samples {
		if s.Time >= minTime && s.Time <= maxTime {
			out.samples = append(out.samples, s)
		}
	}
	return out
}
