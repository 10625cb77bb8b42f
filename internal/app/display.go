// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"log"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/motracker/internal/config"
	"github.com/relabs-tech/motracker/internal/display"
)

// openPanel initialises the status panel and shows the boot splash.
func openPanel(bus i2c.Bus, cfg *config.Config, logger *log.Logger) (*display.SSD1306, error) {
	panel, err := display.NewSSD1306(bus, display.Options{
		ShowLoad:    cfg.DisplayShowLoad,
		ShiftFrames: cfg.DisplayShiftFrames,
	})
	if err != nil {
		return nil, err
	}
	if err := panel.Splash(); err != nil {
		logger.Printf("display: error showing splash: %v", err)
	}
	return panel, nil
}

// RunDisplayOff puts the status panel to sleep. It is used when the agent
// is stopped for good so the OLED does not keep a frozen frame lit.
func RunDisplayOff(cfg *config.Config) error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph host: %w", err)
	}

	bus, err := i2creg.Open(cfg.I2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus %q: %w", cfg.I2CBus, err)
	}
	defer bus.Close()

	panel, err := display.NewSSD1306(bus, display.Options{})
	if err != nil {
		return err
	}
	if err := panel.Halt(); err != nil {
		return fmt.Errorf("failed to halt display: %w", err)
	}
	log.Printf("display: panel off")
	return nil
}
