// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/accel_decoder/internal/config"
	"github.com/relabs-tech/accel_decoder/internal/decoder"
	"github.com/relabs-tech/accel_decoder/internal/export"
)

const prettyData = "0\t80 7F 00 FF 01 81\n" +
	"1\t02 00 FE FF 40 00\n" +
	"2\t00 00 00 00 00 00\n"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.InputPath = filepath.Join(dir, "PrettyData.txt")
	cfg.OutputPath = filepath.Join(dir, "Test.txt")
	return cfg
}

func TestRunConvert(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.InputPath, []byte(prettyData), 0o644))

	require.NoError(t, RunConvert(cfg))

	b, err := os.ReadFile(cfg.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, "0 -128 127 0 -1 1 -127\n1 2 0 -2 -1 64 0\n2 0 0 0 0 0 0\n", string(b))
}

func TestRunConvert_GzipInputCSVOutput(t *testing.T) {
	cfg := testConfig(t)
	cfg.InputPath += ".gz"
	cfg.OutputFormat = export.CSV

	f, err := os.Create(cfg.InputPath)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write([]byte(prettyData))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	require.NoError(t, RunConvert(cfg))

	b, err := os.ReadFile(cfg.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, "time,x_l,x_h,y_l,y_h,z_l,z_h\n0,-128,127,0,-1,1,-127\n1,2,0,-2,-1,64,0\n2,0,0,0,0,0,0\n", string(b))
}

func TestRunConvert_EmptyInput(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.InputPath, nil, 0o644))

	require.NoError(t, RunConvert(cfg))

	b, err := os.ReadFile(cfg.OutputPath)
	require.NoError(t, err)
	assert.Empty(t, b)
}

func TestRunConvert_MalformedWritesNothing(t *testing.T) {
	cfg := testConfig(t)
	input := prettyData + "5 ZZ 00 00 00 00 00\n" + "6 00 00 00 00 00 00\n"
	require.NoError(t, os.WriteFile(cfg.InputPath, []byte(input), 0o644))

	err := RunConvert(cfg)
	require.ErrorIs(t, err, decoder.ErrMalformedRecord)

	var me *decoder.MalformedRecordError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, 4, me.Line)
	assert.Equal(t, "5 ZZ 00 00 00 00 00", me.Text)

	_, statErr := os.Stat(cfg.OutputPath)
	assert.True(t, os.IsNotExist(statErr), "no output on failure")
}

func TestRunConvert_MissingInput(t *testing.T) {
	cfg := testConfig(t)

	err := RunConvert(cfg)
	require.ErrorIs(t, err, decoder.ErrSourceUnavailable)
	assert.Contains(t, err.Error(), cfg.InputPath)
}

func TestLoadSeries(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.InputPath, []byte(prettyData), 0o644))

	ser, err := LoadSeries(cfg.InputPath)
	require.NoError(t, err)
	require.Equal(t, 3, ser.Len())
	assert.Equal(t, []int64{0, 1, 2}, ser.Column(0))
}

func TestLoadSeries_Malformed(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.InputPath, []byte(prettyData+"3 0x80 00 00 00 00 00\n"), 0o644))

	_, err := LoadSeries(cfg.InputPath)
	var me *decoder.MalformedRecordError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, 4, me.Line)
}

func TestLoadSeries_ReadFailureNamesPathAndLine(t *testing.T) {
	cfg := testConfig(t)
	cfg.InputPath += ".gz"

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(prettyData))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	// drop the trailer: the records decode, then the stream ends early
	require.NoError(t, os.WriteFile(cfg.InputPath, buf.Bytes()[:buf.Len()-8], 0o644))

	_, err = LoadSeries(cfg.InputPath)
	require.ErrorIs(t, err, decoder.ErrSourceUnavailable)
	assert.Contains(t, err.Error(), cfg.InputPath)
	assert.Contains(t, err.Error(), "after 3 lines")
}
