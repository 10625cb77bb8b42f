// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package system

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// HoldPowerLatch drives the UPS "keep running" pin high. The UPS cuts
// power when the pin drops, so the caller keeps the process alive for as
// long as the host should stay up.
func HoldPowerLatch(pin gpio.PinIO) error {
	if err := pin.Out(gpio.High); err != nil {
		return fmt.Errorf("power latch %s: %w", pin, err)
	}
	return nil
}

// LatchPin resolves a pin by its periph name (e.g. "GPIO21").
func LatchPin(name string) (gpio.PinIO, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("power latch pin %q not found", name)
	}
	return p, nil
}
