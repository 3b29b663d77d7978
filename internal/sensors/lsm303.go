// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"log"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// LSM303 accelerometer registers.
const (
	regCtrl1A  = 0x20 // CTRL_REG1_A: ODR and axis enables
	regOutXLA  = 0x28 // OUT_X_L_A, followed by X_H, Y_L, Y_H, Z_L, Z_H
	autoIncrMS = 0x80 // sub-address MSB enables register auto-increment
)

// odrCodes maps the user-facing rate index to CTRL_REG1_A with X/Y/Z
// enabled (low nibble 0x7).
var odrCodes = [...]byte{
	0x00, // power-down
	0x17, // 1 Hz
	0x27, // 10 Hz
	0x37, // 25 Hz
	0x47, // 50 Hz
	0x57, // 100 Hz
	0x67, // 200 Hz
	0x77, // 400 Hz
	0x97, // 1344 Hz
}

var odrHz = [...]int{0, 1, 10, 25, 50, 100, 200, 400, 1344}

// ODRCode returns the CTRL_REG1_A value for rate index n (0-8).
func ODRCode(n int) (byte, error) {
	if n < 0 || n >= len(odrCodes) {
		return 0, fmt.Errorf("ODR %d out of range 0-%d", n, len(odrCodes)-1)
	}
	return odrCodes[n], nil
}

// ODRHz returns the output data rate in Hz for rate index n, 0 if unknown.
func ODRHz(n int) int {
	if n < 0 || n >= len(odrHz) {
		return 0
	}
	return odrHz[n]
}

// RawReader defines the interface for reading the six raw output bytes.
type RawReader interface {
	ReadRaw() ([6]byte, error)
}

// LSM303Accel is the accelerometer half of an LSM303 on an I2C bus.
type LSM303Accel struct {
	dev i2c.Dev
}

var _ RawReader = (*LSM303Accel)(nil)

// NewLSM303Accel configures the accelerometer at addr for rate index odr
// and returns a reader for it.
func NewLSM303Accel(bus i2c.Bus, addr uint16, odr byte) (*LSM303Accel, error) {
	code, err := ODRCode(int(odr))
	if err != nil {
		return nil, fmt.Errorf("LSM303 0x%02X: %w", addr, err)
	}

	a := &LSM303Accel{dev: i2c.Dev{Bus: bus, Addr: addr}}
	if err := a.dev.Tx([]byte{regCtrl1A, code}, nil); err != nil {
		return nil, fmt.Errorf("LSM303 0x%02X: write CTRL_REG1_A: %w", addr, err)
	}
	log.Printf("LSM303 0x%02X: CTRL_REG1_A set to 0x%02X (%d Hz)", addr, code, ODRHz(int(odr)))
	return a, nil
}

// ReadRaw reads OUT_X_L_A through OUT_Z_H_A in one transaction.
func (a *LSM303Accel) ReadRaw() ([6]byte, error) {
	var raw [6]byte
	if err := a.dev.Tx([]byte{regOutXLA | autoIncrMS}, raw[:]); err != nil {
		return raw, fmt.Errorf("LSM303 0x%02X: read output registers: %w", a.dev.Addr, err)
	}
	return raw, nil
}

// OpenBus initializes the periph host drivers and opens the named I2C bus.
// An empty name selects the first available bus.
func OpenBus(name string) (i2c.BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open I2C bus %q: %w", name, err)
	}
	return bus, nil
}
