// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package decoder

import (
	"bufio"
	"errors"
	"io"
	"iter"

	"github.com/relabs-tech/accel_decoder/internal/imu"
)

// DecodeStream maps every line to a Sample, in order. It stops at the first
// malformed line and yields a *MalformedRecordError carrying the 1-based
// line number. Nothing is skipped.
func DecodeStream(lines iter.Seq[string]) iter.Seq2[imu.Sample, error] {
	return func(yield func(imu.Sample, error) bool) {
		n := 0
		for line := range lines {
			n++
			s, err := parseLine(n, line)
			if err != nil {
				yield(imu.Sample{}, err)
				return
			}
			if !yield(s, nil) {
				return
			}
		}
	}
}

// DecodeReader is DecodeStream over the lines of r. Read failures are
// yielded as *SourceUnavailableError.
func DecodeReader(r io.Reader) iter.Seq2[imu.Sample, error] {
	return func(yield func(imu.Sample, error) bool) {
		dec := NewReader(r)
		for {
			s, err := dec.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(s, err) || err != nil {
				return
			}
		}
	}
}

// Reader decodes records from an io.Reader one at a time.
// It implements imu.SampleSource.
type Reader struct {
	sc   *bufio.Scanner
	line int
	err  error
}

var _ imu.SampleSource = (*Reader)(nil)

// NewReader returns a Reader consuming r line by line.
func NewReader(r io.Reader) *Reader {
	return &Reader{sc: bufio.NewScanner(r)}
}

// Next returns the next decoded sample, io.EOF once the input is exhausted,
// or the error that stopped decoding. Errors are sticky.
func (d *Reader) Next() (imu.Sample, error) {
	if d.err != nil {
		return imu.Sample{}, d.err
	}
	if !d.sc.Scan() {
		d.err = d.scanErr()
		return imu.Sample{}, d.err
	}
	d.line++
	s, err := parseLine(d.line, d.sc.Text())
	if err != nil {
		d.err = err
		return imu.Sample{}, err
	}
	return s, nil
}

// Line returns the number of lines consumed so far.
func (d *Reader) Line() int {
	return d.line
}

func (d *Reader) scanErr() error {
	err := d.sc.Err()
	switch {
	case err == nil:
		return io.EOF
	case errors.Is(err, bufio.ErrTooLong):
		return &MalformedRecordError{Line: d.line + 1, Reason: "line too long", Err: err}
	default:
		return &SourceUnavailableError{Err: err}
	}
}

func parseLine(n int, line string) (imu.Sample, error) {
	s, err := ParseRecord(line)
	if err != nil {
		var me *MalformedRecordError
		if errors.As(err, &me) {
			me.Line = n
		}
		return imu.Sample{}, err
	}
	return s, nil
}
