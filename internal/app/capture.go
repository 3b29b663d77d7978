// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/relabs-tech/accel_decoder/internal/config"
	"github.com/relabs-tech/accel_decoder/internal/imu"
	"github.com/relabs-tech/accel_decoder/internal/sensors"
)

// RunCapture samples the LSM303 accelerometer and writes one raw record
// per reading to cfg.InputPath, the log the converter consumes.
func RunCapture(ctx context.Context, cfg *config.Config) error {
	hz := sensors.ODRHz(int(cfg.LSM303ODR))
	if hz == 0 {
		return errors.New("capture: LSM303_ODR 0 powers the accelerometer down, nothing to sample")
	}

	var acc sensors.RawReader
	if cfg.I2CBus == sensors.MockBus {
		log.Printf("capture: using synthetic accelerometer")
		acc = sensors.NewMockAccel()
	} else {
		bus, err := sensors.OpenBus(cfg.I2CBus)
		if err != nil {
			return fmt.Errorf("capture: %w", err)
		}
		defer bus.Close()

		dev, err := sensors.NewLSM303Accel(bus, cfg.LSM303AccelAddr, cfg.LSM303ODR)
		if err != nil {
			return fmt.Errorf("capture: %w", err)
		}
		acc = dev
	}

	f, err := os.OpenFile(cfg.InputPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("capture: open %s: %w", cfg.InputPath, err)
	}
	defer f.Close()

	log.Printf("capture: sampling bus %s addr 0x%02X at %d Hz into %s", cfg.I2CBus, cfg.LSM303AccelAddr, hz, cfg.InputPath)

	n, err := captureLoop(ctx, acc, f, time.Second/time.Duration(hz), cfg.CaptureSamples)
	log.Printf("capture: %d records written", n)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// captureLoop writes limit records (0 = until ctx is done), one per tick.
// The record time is the sample index.
func captureLoop(ctx context.Context, src sensors.RawReader, w io.Writer, interval time.Duration, limit int) (int, error) {
	bw := bufio.NewWriter(w)
	defer bw.Flush()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	n := 0
	for limit == 0 || n < limit {
		select {
		case <-ctx.Done():
			return n, ctx.Err()
		case <-ticker.C:
		}

		raw, err := src.ReadRaw()
		if err != nil {
			log.Printf("capture: read error: %v", err)
			continue
		}
		if _, err := fmt.Fprintln(bw, imu.FormatRecord(uint64(n), raw)); err != nil {
			return n, fmt.Errorf("capture: write record: %w", err)
		}
		n++
		if err := bw.Flush(); err != nil {
			return n, fmt.Errorf("capture: flush: %w", err)
		}
	}
	return n, nil
}
