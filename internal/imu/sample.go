// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import (
	"fmt"
	"strconv"
	"strings"
)

// Sample represents a single decoded accelerometer record.
// Each axis is split into the low and high byte of the sensor output
// register, already sign-decoded.
type Sample struct {
	Time uint64 `json:"time"` // sample index as written by the capture tool

	XL int8 `json:"x_l"` // accel X
	XH int8 `json:"x_h"`
	YL int8 `json:"y_l"` // accel Y
	YH int8 `json:"y_h"`
	ZL int8 `json:"z_l"` // accel Z
	ZH int8 `json:"z_h"`
}

// SampleSource is anything that can provide decoded samples in order.
// Next returns io.EOF once the source is exhausted.
type SampleSource interface {
	Next() (Sample, error)
}

// Column identifies one field of a Sample in output column order.
type Column int

const (
	ColTime Column = iota
	ColXL
	ColXH
	ColYL
	ColYH
	ColZL
	ColZH
)

// NumColumns is the number of fields in a record.
const NumColumns = 7

var columnNames = [NumColumns]string{"time", "x_l", "x_h", "y_l", "y_h", "z_l", "z_h"}

func (c Column) String() string {
	if c < 0 || int(c) >= NumColumns {
		return "unknown"
	}
	return columnNames[c]
}

// ParseColumn accepts a column name ("x_l", "Y_H", ...) or its index ("1").
func ParseColumn(s string) (Column, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range columnNames {
		if n == name {
			return Column(i), nil
		}
	}
	if idx, err := strconv.Atoi(name); err == nil && idx >= 0 && idx < NumColumns {
		return Column(idx), nil
	}
	return 0, fmt.Errorf("unknown column %q", s)
}

// Fields returns the sample values in output column order:
// time X_L X_H Y_L Y_H Z_L Z_H.
func (s Sample) Fields() [NumColumns]int64 {
	return [NumColumns]int64{
		int64(s.Time),
		int64(s.XL), int64(s.XH),
		int64(s.YL), int64(s.YH),
		int64(s.ZL), int64(s.ZH),
	}
}

// Axis returns a single column of the sample.
func (s Sample) Axis(c Column) (int64, error) {
	if c < 0 || int(c) >= NumColumns {
		return 0, fmt.Errorf("column %d out of range", int(c))
	}
	return s.Fields()[c], nil
}

// Counts combines each low/high byte pair into the signed 16-bit register
// value the sensor reported.
func (s Sample) Counts() (x, y, z int16) {
	return pair(s.XL, s.XH), pair(s.YL, s.YH), pair(s.ZL, s.ZH)
}

func pair(lo, hi int8) int16 {
	return int16(uint16(uint8(hi))<<8 | uint16(uint8(lo)))
}

// FormatRecord renders raw register bytes as one input log line:
// "<time> <X_L> <X_H> <Y_L> <Y_H> <Z_L> <Z_H>" with two-digit hex bytes.
func FormatRecord(time uint64, raw [6]byte) string {
	return fmt.Sprintf("%d\t%02X %02X %02X %02X %02X %02X",
		time, raw[0], raw[1], raw[2], raw[3], raw[4], raw[5])
}
