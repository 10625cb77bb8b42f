// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"log"
	"os"

	"github.com/spf13/pflag"

	"github.com/relabs-tech/motracker/internal/app"
	"github.com/relabs-tech/motracker/internal/config"
)

func main() {
	flagSet := pflag.NewFlagSet("display_off", pflag.ExitOnError)
	bus := flagSet.String("bus", config.Default().I2CBus, "I2C bus the panel is attached to")
	flagSet.Parse(os.Args[1:])

	cfg := config.Default()
	cfg.I2CBus = *bus
	if err := app.RunDisplayOff(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
