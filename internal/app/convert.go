// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/relabs-tech/accel_decoder/internal/config"
	"github.com/relabs-tech/accel_decoder/internal/decoder"
	"github.com/relabs-tech/accel_decoder/internal/export"
	"github.com/relabs-tech/accel_decoder/internal/imu"
	"github.com/relabs-tech/accel_decoder/internal/source"
)

// LoadSeries decodes every record in path. It stops at the first malformed
// record and returns its *decoder.MalformedRecordError.
func LoadSeries(path string) (*imu.Series, error) {
	rc, err := source.Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	dec := decoder.NewReader(rc)
	ser, err := readSeries(dec)
	if err != nil {
		if errors.Is(err, decoder.ErrSourceUnavailable) {
			withPath(err, path)
			return nil, fmt.Errorf("after %d lines: %w", dec.Line(), err)
		}
		return nil, err
	}
	return ser, nil
}

// readSeries drains src until io.EOF.
func readSeries(src imu.SampleSource) (*imu.Series, error) {
	ser := &imu.Series{}
	for {
		s, err := src.Next()
		if errors.Is(err, io.EOF) {
			return ser, nil
		}
		if err != nil {
			return nil, err
		}
		ser.Append(s)
	}
}

// withPath names path in a read failure that does not carry one yet.
func withPath(err error, path string) {
	var su *decoder.SourceUnavailableError
	if errors.As(err, &su) && su.Path == "" {
		su.Path = path
	}
}

// RunConvert decodes cfg.InputPath and writes the samples to cfg.OutputPath.
// Records stream straight into the atomic writer, so the first malformed
// record leaves no output behind.
func RunConvert(cfg *config.Config) error {
	log.Printf("convert: decoding %s", cfg.InputPath)

	rc, err := source.Open(cfg.InputPath)
	if err != nil {
		return fmt.Errorf("convert: %w", err)
	}
	defer rc.Close()

	n, err := export.WriteFile(cfg.OutputPath, cfg.OutputFormat, decoder.DecodeReader(rc))
	if err != nil {
		withPath(err, cfg.InputPath)
		return fmt.Errorf("convert %s: %w", cfg.InputPath, err)
	}

	log.Printf("convert: wrote %d samples to %s (%s)", n, cfg.OutputPath, cfg.OutputFormat)
	return nil
}
