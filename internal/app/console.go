// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/accel_decoder/internal/config"
	"github.com/relabs-tech/accel_decoder/internal/imu"
)

// RunConsoleMQTT prints every sample published on cfg.TopicSamples until
// ctx is cancelled.
func RunConsoleMQTT(ctx context.Context, cfg *config.Config) error {
	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}
	defer client.Disconnect(disconnectQuiesceMS)
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicSamples, 0, func(_ mqtt.Client, msg mqtt.Message) {
		if err := printSample(os.Stdout, msg.Payload()); err != nil {
			log.Printf("console: %v", err)
		}
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicSamples)

	<-ctx.Done()
	log.Println("console: shutting down")
	return nil
}

// printSample renders one JSON sample payload as a console row.
func printSample(w io.Writer, payload []byte) error {
	var s imu.Sample
	if err := json.Unmarshal(payload, &s); err != nil {
		return fmt.Errorf("sample unmarshal error: %w", err)
	}
	x, y, z := s.Counts()
	_, err := fmt.Fprintf(w,
		"[ACC] t=%6d  X_L=%4d X_H=%4d  Y_L=%4d Y_H=%4d  Z_L=%4d Z_H=%4d  |  x=%6d y=%6d z=%6d\n",
		s.Time, s.XL, s.XH, s.YL, s.YH, s.ZL, s.ZH, x, y, z,
	)
	return err
}
