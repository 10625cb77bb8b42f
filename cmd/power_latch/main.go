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
)

func main() {
	flagSet := pflag.NewFlagSet("power_latch", pflag.ExitOnError)
	pin := flagSet.String("pin", "GPIO21", "GPIO that keeps the UPS output on while high")
	flagSet.Parse(os.Args[1:])

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunPowerLatch(ctx, *pin); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
