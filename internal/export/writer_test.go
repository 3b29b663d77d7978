// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package export

import (
	"bytes"
	"errors"
	"iter"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/accel_decoder/internal/imu"
)

var samples = []imu.Sample{
	{Time: 10, XL: -128, XH: 127, YL: 0, YH: -1, ZL: 1, ZH: -127},
	{Time: 11, XL: 3, XH: 0, YL: -2, YH: 0, ZL: 64, ZH: 0},
}

func valid(ss []imu.Sample) iter.Seq2[imu.Sample, error] {
	return func(yield func(imu.Sample, error) bool) {
		for _, s := range ss {
			if !yield(s, nil) {
				return
			}
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", Text, false},
		{"text", Text, false},
		{"CSV", CSV, false},
		{" json ", JSON, false},
		{"ndjson", JSON, false},
		{"xml", Text, true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestWriter_Text(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, Text)
	for _, s := range samples {
		require.NoError(t, w.Write(s))
	}
	require.NoError(t, w.Flush())

	assert.Equal(t, "10 -128 127 0 -1 1 -127\n11 3 0 -2 0 64 0\n", buf.String())
	assert.Equal(t, uint64(2), w.Rows())
}

func TestWriter_CSV(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, CSV)
	for _, s := range samples {
		require.NoError(t, w.Write(s))
	}
	require.NoError(t, w.Flush())

	assert.Equal(t, "time,x_l,x_h,y_l,y_h,z_l,z_h\n10,-128,127,0,-1,1,-127\n11,3,0,-2,0,64,0\n", buf.String())
	assert.Equal(t, uint64(2), w.Rows())
}

func TestWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, JSON)
	require.NoError(t, w.Write(samples[0]))
	require.NoError(t, w.Flush())

	assert.JSONEq(t, `{"time":10,"x_l":-128,"x_h":127,"y_l":0,"y_h":-1,"z_l":1,"z_h":-127}`, buf.String())
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Test.txt")

	n, err := WriteFile(path, Text, valid(samples))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "10 -128 127 0 -1 1 -127\n11 3 0 -2 0 64 0\n", string(b))
}

func TestWriteFile_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Test.txt")

	n, err := WriteFile(path, Text, valid(nil))
	require.NoError(t, err)
	assert.Zero(t, n)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, b)
}

func TestWriteFile_FailureLeavesExistingOutput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Test.txt")
	require.NoError(t, os.WriteFile(path, []byte("previous run\n"), 0o644))

	boom := errors.New("line 2: malformed")
	seq := func(yield func(imu.Sample, error) bool) {
		if !yield(samples[0], nil) {
			return
		}
		yield(imu.Sample{}, boom)
	}

	n, err := WriteFile(path, Text, seq)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, n)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous run\n", string(b))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp file must be cleaned up")
}

func TestWriteFile_FailureCreatesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Test.txt")

	seq := func(yield func(imu.Sample, error) bool) {
		yield(imu.Sample{}, errors.New("bad input"))
	}
	_, err := WriteFile(path, CSV, seq)
	require.Error(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestWriteFile_MissingDir(t *testing.T) {
	_, err := WriteFile(filepath.Join(t.TempDir(), "no", "such", "Test.txt"), Text, valid(samples))
	require.Error(t, err)
}
