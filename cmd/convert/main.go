// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Command convert decodes a raw accelerometer log (PrettyData.txt) into
// signed decimal columns (Test.txt).
package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/accel_decoder/internal/app"
	"github.com/relabs-tech/accel_decoder/internal/config"
	"github.com/relabs-tech/accel_decoder/internal/export"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (defaults apply when empty)")
	in := flag.String("in", "", "raw record log to decode (overrides INPUT_PATH)")
	out := flag.String("out", "", "decoded output file (overrides OUTPUT_PATH)")
	format := flag.String("format", "", "output format: text, csv or json (overrides OUTPUT_FORMAT)")
	flag.Parse()

	log.Println("starting accel-decoder converter (raw log → decoded samples)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := *config.Get()

	if *in != "" {
		cfg.InputPath = *in
	}
	if *out != "" {
		cfg.OutputPath = *out
	}
	if *format != "" {
		f, err := export.ParseFormat(*format)
		if err != nil {
			log.Fatalf("invalid -format: %v", err)
		}
		cfg.OutputFormat = f
	}

	if err := app.RunConvert(&cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
