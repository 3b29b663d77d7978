// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package decoder

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRecord matches any *MalformedRecordError via errors.Is.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrSourceUnavailable matches any *SourceUnavailableError via errors.Is.
	ErrSourceUnavailable = errors.New("source unavailable")
)

// MalformedRecordError reports a line that does not follow the
// "<time> <X_L> <X_H> <Y_L> <Y_H> <Z_L> <Z_H>" grammar.
// Line is 1-based; it is 0 when the record was parsed outside of a stream.
type MalformedRecordError struct {
	Line   int
	Text   string
	Reason string
	Err    error
}

func (e *MalformedRecordError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: malformed record %q: %s", e.Line, e.Text, e.Reason)
	}
	return fmt.Sprintf("malformed record %q: %s", e.Text, e.Reason)
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }

func (e *MalformedRecordError) Is(target error) bool { return target == ErrMalformedRecord }

// SourceUnavailableError reports an input that could not be opened or read.
type SourceUnavailableError struct {
	Path string
	Err  error
}

func (e *SourceUnavailableError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("source unavailable: %v", e.Err)
	}
	return fmt.Sprintf("source %s unavailable: %v", e.Path, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

func (e *SourceUnavailableError) Is(target error) bool { return target == ErrSourceUnavailable }
