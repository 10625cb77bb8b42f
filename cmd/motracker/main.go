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
	flagSet := pflag.NewFlagSet("motracker", pflag.ExitOnError)
	configPath := flagSet.StringP("config", "c", "/etc/motracker/motracker.cfg", "path to the KEY=VALUE configuration file")
	flagSet.Parse(os.Args[1:])

	log.Println("starting motracker (GNSS → sinks, display, battery governor)")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := log.New(os.Stderr, "", log.LstdFlags)
	if err := app.RunAgent(ctx, cfg, logger); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
