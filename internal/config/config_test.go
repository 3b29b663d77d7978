// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/accel_decoder/internal/export"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_EmptyPathGivesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "PrettyData.txt", cfg.InputPath)
	assert.Equal(t, "Test.txt", cfg.OutputPath)
	assert.Equal(t, uint64(0), cfg.PlotXMin)
	assert.Equal(t, uint64(20), cfg.PlotXMax)
}

func TestLoad_KeyValue(t *testing.T) {
	path := writeConfig(t, "accel_config.txt", `
# accelerometer decoder
INPUT_PATH = logs/PrettyData.txt.gz
OUTPUT_PATH=out/Test.csv
OUTPUT_FORMAT=csv

MQTT_BROKER=tcp://pi.local:1883
TOPIC_SAMPLES=lab/accel
PUBLISH_INTERVAL=100
LSM303_ACCEL_ADDR=0x1E
LSM303_ODR=5
I2C_BUS=2
CAPTURE_SAMPLES=1000
SERIAL_PORT=/dev/ttyACM0
SERIAL_BAUD_RATE=115200
WEB_SERVER_PORT=9090
PLOT_X_MIN=100
PLOT_X_MAX=200
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "logs/PrettyData.txt.gz", cfg.InputPath)
	assert.Equal(t, "out/Test.csv", cfg.OutputPath)
	assert.Equal(t, export.CSV, cfg.OutputFormat)
	assert.Equal(t, "tcp://pi.local:1883", cfg.MQTTBroker)
	assert.Equal(t, "lab/accel", cfg.TopicSamples)
	assert.Equal(t, 100, cfg.PublishInterval)
	assert.Equal(t, uint16(0x1E), cfg.LSM303AccelAddr)
	assert.Equal(t, byte(5), cfg.LSM303ODR)
	assert.Equal(t, "2", cfg.I2CBus)
	assert.Equal(t, 1000, cfg.CaptureSamples)
	assert.Equal(t, "/dev/ttyACM0", cfg.SerialPort)
	assert.Equal(t, 115200, cfg.SerialBaudRate)
	assert.Equal(t, 9090, cfg.WebServerPort)
	assert.Equal(t, uint64(100), cfg.PlotXMin)
	assert.Equal(t, uint64(200), cfg.PlotXMax)

	// untouched keys keep defaults
	assert.Equal(t, "accel-console", cfg.MQTTClientIDConsole)
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, "accel.yaml", `
input_path: raw.txt
output_format: json
lsm303_accel_addr: 0x18
plot_x_max: 50
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "raw.txt", cfg.InputPath)
	assert.Equal(t, export.JSON, cfg.OutputFormat)
	assert.Equal(t, uint16(0x18), cfg.LSM303AccelAddr)
	assert.Equal(t, uint64(50), cfg.PlotXMax)
}

func TestLoad_TOML(t *testing.T) {
	path := writeConfig(t, "accel.toml", `
input_path = "raw.txt.zst"
OUTPUT_FORMAT = "csv"
lsm303_accel_addr = 0x18
publish_interval = 100
plot_x_max = 50
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "raw.txt.zst", cfg.InputPath)
	assert.Equal(t, export.CSV, cfg.OutputFormat)
	assert.Equal(t, uint16(0x18), cfg.LSM303AccelAddr)
	assert.Equal(t, 100, cfg.PublishInterval)
	assert.Equal(t, uint64(50), cfg.PlotXMax)
	assert.Equal(t, "Test.txt", cfg.OutputPath, "unset keys keep their default")
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		wantMsg string
	}{
		{"unknown key", "c.txt", "FOO=1\n", `config line 1: unknown config key: "FOO"`},
		{"missing equals", "c.txt", "# ok\nINPUT_PATH\n", "invalid config line 2"},
		{"bad format", "c.txt", "OUTPUT_FORMAT=xml\n", "invalid OUTPUT_FORMAT"},
		{"reserved address", "c.txt", "LSM303_ACCEL_ADDR=0x52\n", "reserved"},
		{"wide address", "c.txt", "LSM303_ACCEL_ADDR=0x100\n", "7-bit"},
		{"odr range", "c.txt", "LSM303_ODR=9\n", "LSM303_ODR must be 0-8"},
		{"negative interval", "c.txt", "PUBLISH_INTERVAL=-1\n", "PUBLISH_INTERVAL must be >= 0"},
		{"window inverted", "c.txt", "PLOT_X_MIN=30\nPLOT_X_MAX=20\n", "must not exceed"},
		{"empty input", "c.txt", "INPUT_PATH=\n", "INPUT_PATH is required"},
		{"yaml unknown", "c.yml", "bogus: 1\n", `config line 1: unknown config key: "BOGUS"`},
		{"yaml nested", "c.yml", "input_path:\n  nested: x\n", "must be a scalar"},
		{"yaml list", "c.yml", "- a\n- b\n", "must be a mapping"},
		{"toml unknown", "c.toml", "bogus = 1\n", `config key "bogus": unknown config key: "BOGUS"`},
		{"toml table", "c.toml", "[mqtt]\nbroker = \"x\"\n", "must be a scalar"},
		{"toml syntax", "c.toml", "input_path = \n", "parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.file, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.txt"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestInitGlobal(t *testing.T) {
	require.NoError(t, InitGlobal(""))
	cfg := Get()
	require.NotNil(t, cfg)
	assert.Equal(t, "accel/samples", cfg.TopicSamples)

	// later calls are ignored
	require.NoError(t, InitGlobal("/does/not/exist"))
	assert.Same(t, cfg, Get())
}
