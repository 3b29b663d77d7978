// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"math"
	"time"
)

// MockBus is the I2C_BUS value that selects the synthetic accelerometer.
const MockBus = "mock"

type mockAccel struct {
	start time.Time
	now   func() time.Time
}

// NewMockAccel creates a synthetic accelerometer that generates smoothly
// changing left-justified counts: X and Y swing around zero, Z holds ~1 g.
func NewMockAccel() RawReader {
	return newMockAccel(time.Now)
}

func newMockAccel(now func() time.Time) *mockAccel {
	return &mockAccel{start: now(), now: now}
}

func (m *mockAccel) ReadRaw() ([6]byte, error) {
	elapsed := m.now().Sub(m.start).Seconds()

	x := int16(4000 * math.Sin(elapsed))
	y := int16(3000 * math.Cos(elapsed*0.7))
	z := int16(16000)

	return [6]byte{
		byte(x), byte(uint16(x) >> 8),
		byte(y), byte(uint16(y) >> 8),
		byte(z), byte(uint16(z) >> 8),
	}, nil
}
