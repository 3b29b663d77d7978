// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package source opens raw record logs for decoding.
package source

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/relabs-tech/accel_decoder/internal/decoder"
)

// Open opens the record log at path. Files ending in .gz, .zst or .lz4
// are decompressed transparently. Every failure is a
// *decoder.SourceUnavailableError. The caller must Close the result.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &decoder.SourceUnavailableError{Path: path, Err: err}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, &decoder.SourceUnavailableError{Path: path, Err: err}
		}
		return &stackedCloser{Reader: zr, closers: []io.Closer{zr, f}}, nil
	case ".zst":
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, &decoder.SourceUnavailableError{Path: path, Err: err}
		}
		return &stackedCloser{Reader: zr, closers: []io.Closer{closerFunc(func() error { zr.Close(); return nil }), f}}, nil
	case ".lz4":
		// lz4 frames are validated lazily, on first Read
		return &stackedCloser{Reader: lz4.NewReader(f), closers: []io.Closer{f}}, nil
	default:
		return f, nil
	}
}

// stackedCloser closes a decompressor before the file under it.
type stackedCloser struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedCloser) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
