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

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/motracker/internal/sinks"
)

// RunConsole subscribes to the fix topic published by the MQTT sink and
// prints one line per record until ctx is cancelled.
func RunConsole(ctx context.Context, broker, clientID, topic string, out io.Writer) error {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", broker)

	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		line, err := formatRecord(msg.Payload())
		if err != nil {
			log.Printf("console: %v", err)
			return
		}
		fmt.Fprintln(out, line)
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: subscribed to %s", topic)

	<-ctx.Done()

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}

// formatRecord renders one published record as a console line.
func formatRecord(payload []byte) (string, error) {
	var rec sinks.Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return "", fmt.Errorf("record unmarshal error: %w", err)
	}
	f := rec.Fix
	return fmt.Sprintf(
		"[%s] %s fix=%d lat=%.6f lon=%.6f speed=%.1fm/s alt=%.1fm track=%.1f° cell=%s time=%s",
		rec.DeviceID, rec.TrackID, int(f.Mode), f.Latitude, f.Longitude, f.Speed, f.Altitude, f.Heading, rec.Cell, f.Time,
	), nil
}
