// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/relabs-tech/accel_decoder/internal/export"
)

// Config holds all application configuration values.
type Config struct {
	// Files
	InputPath    string
	OutputPath   string
	OutputFormat export.Format

	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDConsole  string
	MQTTClientIDWeb      string

	// Topics
	TopicSamples string

	// Timing
	PublishInterval int // milliseconds, 0 = no pacing

	// LSM303 accelerometer on I2C
	I2CBus          string
	LSM303AccelAddr uint16
	// Output data rate: 0=power-down, 1=1Hz, 2=10Hz, 3=25Hz, 4=50Hz,
	// 5=100Hz, 6=200Hz, 7=400Hz, 8=1344Hz
	LSM303ODR      byte
	CaptureSamples int // 0 = until interrupted

	// Serial
	SerialPort     string
	SerialBaudRate int

	// Web Server
	WebServerPort int

	// Default time window served to plotting clients
	PlotXMin uint64
	PlotXMax uint64
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: only reachable through InitGlobal and Get.
//   - configOnce: ensures InitGlobal() only runs once.
//   - configMu: write lock for initialization, read lock for Get().
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		InputPath:    "PrettyData.txt",
		OutputPath:   "Test.txt",
		OutputFormat: export.Text,

		MQTTBroker:           "tcp://localhost:1883",
		MQTTClientIDProducer: "accel-producer",
		MQTTClientIDConsole:  "accel-console",
		MQTTClientIDWeb:      "accel-web",
		TopicSamples:         "accel/samples",

		I2CBus:          "1",
		LSM303AccelAddr: 0x19,
		LSM303ODR:       2,

		SerialPort:     "/dev/ttyUSB0",
		SerialBaudRate: 9600,

		WebServerPort: 8080,
		PlotXMin:      0,
		PlotXMax:      20,
	}
}

// Load reads the configuration file and returns a Config struct.
// Keys not present in the file keep their Default() value. Files ending
// in .yaml/.yml or .toml are parsed as a flat mapping of the same keys;
// anything else as KEY=VALUE lines.
func Load(configPath string) (*Config, error) {
	cfg := Default()
	if configPath == "" {
		return cfg, nil
	}

	var err error
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		err = cfg.loadYAML(configPath)
	case ".toml":
		err = cfg.loadTOML(configPath)
	default:
		err = cfg.loadKeyValue(configPath)
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadKeyValue(configPath string) error {
	file, err := os.Open(configPath)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := c.setValue(key, value); err != nil {
			return fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

func (c *Config) loadYAML(configPath string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("config: top level must be a mapping")
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		k, v := root.Content[i], root.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return fmt.Errorf("config line %d: value for %q must be a scalar", k.Line, k.Value)
		}
		key := strings.ToUpper(strings.TrimSpace(k.Value))
		if err := c.setValue(key, strings.TrimSpace(v.Value)); err != nil {
			return fmt.Errorf("config line %d: %w", k.Line, err)
		}
	}
	return nil
}

func (c *Config) loadTOML(configPath string) error {
	var raw map[string]any
	md, err := toml.DecodeFile(configPath, &raw)
	if err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	// Keys() keeps file order, so the first bad key is the one reported
	for _, k := range md.Keys() {
		if len(k) != 1 {
			continue // table children; the table key itself fails the scalar check
		}
		name := k[0]

		var value string
		switch v := raw[name].(type) {
		case string:
			value = v
		case int64:
			value = strconv.FormatInt(v, 10)
		case bool, float64:
			value = fmt.Sprint(v)
		default:
			return fmt.Errorf("config key %q: value must be a scalar", name)
		}

		if err := c.setValue(strings.ToUpper(strings.TrimSpace(name)), value); err != nil {
			return fmt.Errorf("config key %q: %w", name, err)
		}
	}
	return nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// Files
	case "INPUT_PATH":
		c.InputPath = value
	case "OUTPUT_PATH":
		c.OutputPath = value
	case "OUTPUT_FORMAT":
		f, err := export.ParseFormat(value)
		if err != nil {
			return fmt.Errorf("invalid OUTPUT_FORMAT: %w", err)
		}
		c.OutputFormat = f

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value

	// Topics
	case "TOPIC_SAMPLES":
		c.TopicSamples = value

	// Timing
	case "PUBLISH_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid PUBLISH_INTERVAL %q: %w", value, err)
		}
		if interval < 0 {
			return fmt.Errorf("PUBLISH_INTERVAL must be >= 0, got %d", interval)
		}
		c.PublishInterval = interval

	// LSM303
	case "I2C_BUS":
		c.I2CBus = value
	case "LSM303_ACCEL_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid LSM303_ACCEL_ADDR %q: %w", value, err)
		}
		if addr > 0x7F {
			return fmt.Errorf("LSM303_ACCEL_ADDR must be a 7-bit address, got 0x%X", addr)
		}
		if addr >= 0x50 && addr <= 0x57 {
			return fmt.Errorf("LSM303_ACCEL_ADDR 0x%X is reserved (0x50-0x57 EEPROM range)", addr)
		}
		c.LSM303AccelAddr = uint16(addr)
	case "LSM303_ODR":
		val, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid LSM303_ODR %q: %w", value, err)
		}
		if val < 0 || val > 8 {
			return fmt.Errorf("LSM303_ODR must be 0-8 (0=off, 1=1Hz ... 8=1344Hz), got %d", val)
		}
		c.LSM303ODR = byte(val)
	case "CAPTURE_SAMPLES":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid CAPTURE_SAMPLES %q: %w", value, err)
		}
		if n < 0 {
			return fmt.Errorf("CAPTURE_SAMPLES must be >= 0, got %d", n)
		}
		c.CaptureSamples = n

	// Serial
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_BAUD_RATE %q: %w", value, err)
		}
		c.SerialBaudRate = rate

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	// Plot window
	case "PLOT_X_MIN":
		v, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid PLOT_X_MIN %q: %w", value, err)
		}
		c.PlotXMin = v
	case "PLOT_X_MAX":
		v, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid PLOT_X_MAX %q: %w", value, err)
		}
		c.PlotXMax = v

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.InputPath == "" {
		return fmt.Errorf("INPUT_PATH is required")
	}
	if c.OutputPath == "" {
		return fmt.Errorf("OUTPUT_PATH is required")
	}
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.TopicSamples == "" {
		return fmt.Errorf("TOPIC_SAMPLES is required")
	}
	if c.SerialBaudRate <= 0 {
		return fmt.Errorf("SERIAL_BAUD_RATE must be positive")
	}
	if c.WebServerPort <= 0 || c.WebServerPort > 65535 {
		return fmt.Errorf("WEB_SERVER_PORT must be 1-65535, got %d", c.WebServerPort)
	}
	if c.PlotXMin > c.PlotXMax {
		return fmt.Errorf("PLOT_X_MIN (%d) must not exceed PLOT_X_MAX (%d)", c.PlotXMin, c.PlotXMax)
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Only the first call has any effect. An empty path installs Default().
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
