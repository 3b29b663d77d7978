// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/relabs-tech/accel_decoder/internal/config"
	"github.com/relabs-tech/accel_decoder/internal/imu"
)

// RunProducer decodes cfg.InputPath and publishes every sample as JSON to
// cfg.TopicSamples. A malformed record aborts the run before anything is
// published.
func RunProducer(ctx context.Context, cfg *config.Config) error {
	log.Printf("producer: decoding %s", cfg.InputPath)

	ser, err := LoadSeries(cfg.InputPath)
	if err != nil {
		return fmt.Errorf("producer: %w", err)
	}
	log.Printf("producer: %d samples decoded", ser.Len())

	// --- connect to MQTT ---
	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDProducer)
	if err != nil {
		return err
	}
	defer client.Disconnect(disconnectQuiesceMS)

	log.Printf("producer: connected to MQTT at %s, publishing to %s", cfg.MQTTBroker, cfg.TopicSamples)

	interval := time.Duration(cfg.PublishInterval) * time.Millisecond
	n, err := publishSeries(ctx, ser, mqttPublisher{client: client}, cfg.TopicSamples, interval)
	log.Printf("producer: published %d/%d samples", n, ser.Len())
	return err
}

// publishSeries publishes the samples in order, one every interval
// (back to back when interval is 0).
func publishSeries(ctx context.Context, ser *imu.Series, pub publisher, topic string, interval time.Duration) (int, error) {
	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	n := 0
	for s := range ser.All() {
		if tick != nil {
			select {
			case <-ctx.Done():
				return n, ctx.Err()
			case <-tick:
			}
		} else if err := ctx.Err(); err != nil {
			return n, err
		}

		payload, err := json.Marshal(s)
		if err != nil {
			return n, fmt.Errorf("json marshal sample %d: %w", s.Time, err)
		}
		if err := pub.Publish(topic, payload); err != nil {
			return n, fmt.Errorf("MQTT publish sample %d: %w", s.Time, err)
		}
		n++
	}
	return n, nil
}
