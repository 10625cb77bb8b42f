// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/relabs-tech/motracker/internal/app"
	"github.com/relabs-tech/motracker/internal/config"
)

func main() {
	defaults := config.Default()
	flagSet := pflag.NewFlagSet("console", pflag.ExitOnError)
	broker := flagSet.String("broker", "tcp://localhost:1883", "MQTT broker the agent publishes to")
	topic := flagSet.String("topic", defaults.MQTTTopic, "fix topic")
	flagSet.Parse(os.Args[1:])

	log.Println("starting motracker console (MQTT subscriber)")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunConsole(ctx, *broker, "motracker-console", *topic, os.Stdout); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
