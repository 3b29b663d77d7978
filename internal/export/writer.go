// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package export renders decoded samples as flat files.
package export

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/relabs-tech/accel_decoder/internal/imu"
)

// Format selects the rendering of each sample.
type Format int

const (
	// Text is "time X_L X_H Y_L Y_H Z_L Z_H", space separated, one per line.
	Text Format = iota
	// CSV is the same columns with a header row.
	CSV
	// JSON is one JSON object per line.
	JSON
)

func (f Format) String() string {
	switch f {
	case Text:
		return "text"
	case CSV:
		return "csv"
	case JSON:
		return "json"
	default:
		return "unknown"
	}
}

// ParseFormat converts a string to a Format. Empty means Text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "txt", "":
		return Text, nil
	case "csv":
		return CSV, nil
	case "json", "ndjson":
		return JSON, nil
	default:
		return Format(0), fmt.Errorf("unsupported output format %q", s)
	}
}

// Header is the CSV column row.
var Header = []string{"time", "x_l", "x_h", "y_l", "y_h", "z_l", "z_h"}

// Writer is a buffered sample writer. It is not safe for concurrent use.
type Writer struct {
	format Format
	buf    *bufio.Writer
	csv    *csv.Writer
	enc    *json.Encoder
	rows   uint64
	header bool
}

// NewWriter returns a Writer rendering samples to w in the given format.
func NewWriter(w io.Writer, format Format) *Writer {
	bw := bufio.NewWriter(w)
	wr := &Writer{format: format, buf: bw}
	switch format {
	case CSV:
		wr.csv = csv.NewWriter(bw)
	case JSON:
		wr.enc = json.NewEncoder(bw)
	}
	return wr
}

// Write appends one sample.
func (w *Writer) Write(s imu.Sample) error {
	switch w.format {
	case CSV:
		if !w.header {
			if err := w.csv.Write(Header); err != nil {
				return fmt.Errorf("csv write header: %w", err)
			}
			w.header = true
		}
		if err := w.csv.Write(row(s)); err != nil {
			return fmt.Errorf("csv write row: %w", err)
		}
	case JSON:
		if err := w.enc.Encode(s); err != nil {
			return fmt.Errorf("json encode: %w", err)
		}
	default:
		if _, err := w.buf.WriteString(strings.Join(row(s), " ")); err != nil {
			return err
		}
		if err := w.buf.WriteByte('\n'); err != nil {
			return err
		}
	}
	w.rows++
	return nil
}

// Flush pushes buffered rows to the underlying writer.
func (w *Writer) Flush() error {
	if w.csv != nil {
		w.csv.Flush()
		if err := w.csv.Error(); err != nil {
			return err
		}
	}
	return w.buf.Flush()
}

// Rows returns the number of samples written (header excluded).
func (w *Writer) Rows() uint64 {
	return w.rows
}

func row(s imu.Sample) []string {
	f := s.Fields()
	out := make([]string, len(f))
	for i, v := range f {
		out[i] = strconv.FormatInt(v, 10)
	}
	return out
}

// WriteFile renders samples to path. The data goes to a temporary file in
// the same directory which replaces path only once every sample has been
// written and synced, so a failure never leaves a partial output behind.
// Iteration stops at the first non-nil error, which is returned.
func WriteFile(path string, format Format, samples iter.Seq2[imu.Sample, error]) (int, error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return 0, fmt.Errorf("create temp output: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	w := NewWriter(tmp, format)
	for s, err := range samples {
		if err != nil {
			return int(w.Rows()), err
		}
		if err := w.Write(s); err != nil {
			return int(w.Rows()), fmt.Errorf("write %s: %w", path, err)
		}
	}
	n := int(w.Rows())

	if err := w.Flush(); err != nil {
		return n, fmt.Errorf("flush %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		return n, fmt.Errorf("sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return n, fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return n, fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return n, fmt.Errorf("rename to %s: %w", path, err)
	}
	committed = true
	return n, nil
}
