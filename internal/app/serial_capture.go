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
	"strings"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/accel_decoder/internal/config"
	"github.com/relabs-tech/accel_decoder/internal/decoder"
	"github.com/relabs-tech/accel_decoder/internal/export"
)

// RunSerialCapture reads raw records streamed by a logger on a serial line,
// decodes them and appends the samples to cfg.OutputPath as they arrive.
// Unlike the file converter, a malformed line is logged and skipped: a live
// link routinely delivers a partial first line.
func RunSerialCapture(ctx context.Context, cfg *config.Config) error {
	serialOpts := serial.OpenOptions{
		PortName:              cfg.SerialPort,
		BaudRate:              uint(cfg.SerialBaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return &decoder.SourceUnavailableError{Path: cfg.SerialPort, Err: err}
	}
	// closing the port unblocks the pending read on shutdown
	defer closeOnDone(ctx, port)()
	log.Printf("serial: port opened on %s at %d baud", serialOpts.PortName, serialOpts.BaudRate)

	out, err := os.OpenFile(cfg.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("serial: open %s: %w", cfg.OutputPath, err)
	}
	defer out.Close()

	w := export.NewWriter(out, cfg.OutputFormat)
	_, bad, err := decodeLive(ctx, port, w)
	log.Printf("serial: %d samples written to %s, %d lines rejected", w.Rows(), cfg.OutputPath, bad)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// closeOnDone closes c when ctx is done. The returned release closes c
// instead if that has not happened yet; either way c is closed exactly once.
func closeOnDone(ctx context.Context, c io.Closer) (release func()) {
	stop := context.AfterFunc(ctx, func() { c.Close() })
	return func() {
		if stop() {
			c.Close()
		}
	}
}

// decodeLive decodes lines from r until EOF, writing each valid sample to w
// and flushing after every row.
func decodeLive(ctx context.Context, r io.Reader, w *export.Writer) (good, bad int, err error) {
	reader := bufio.NewReader(r)
	lineNum := 0

	for {
		if err := ctx.Err(); err != nil {
			return good, bad, err
		}

		line, readErr := reader.ReadString('\n')
		if line != "" {
			lineNum++
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				s, perr := decoder.ParseRecord(trimmed)
				if perr != nil {
					var me *decoder.MalformedRecordError
					if errors.As(perr, &me) {
						me.Line = lineNum
					}
					log.Printf("serial: skipping %v", perr)
					bad++
				} else {
					if err := w.Write(s); err != nil {
						return good, bad, err
					}
					if err := w.Flush(); err != nil {
						return good, bad, err
					}
					good++
				}
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return good, bad, nil
			}
			return good, bad, &decoder.SourceUnavailableError{Err: readErr}
		}
	}
}
