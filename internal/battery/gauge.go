// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package battery reads the state of charge of the UPS HAT fuel gauge
// (MAX17040 family) over I²C.
package battery

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"
)

// Gauge reports remaining battery capacity.
type Gauge interface {
	// ReadCapacity returns the remaining capacity in percent.
	ReadCapacity(ctx context.Context) (float64, error)
	// Reinit restarts the gauge's state-of-charge estimation.
	Reinit() error
}

// DefaultAddr is the I²C address of the UPS HAT gauge.
const DefaultAddr = 0x32

// Gauge registers; 16-bit big-endian.
const (
	regSOC     = 0x04
	regMode    = 0x06
	regCommand = 0xFE

	modeQuickStart  = 0x4000
	commandPowerOnR = 0x5400
)

// I2CGauge drives the fuel gauge on an I²C bus.
type I2CGauge struct {
	dev *i2c.Dev
	// Settle is the wait between the power-on reset issued before every
	// read and the SOC read itself.
	Settle time.Duration
	// Offset is subtracted from the raw SOC reading; some HATs report
	// capacity shifted by a fixed amount.
	Offset float64
}

// NewI2CGauge returns a gauge on bus at addr. It does not touch the bus.
func NewI2CGauge(bus i2c.Bus, addr uint16) *I2CGauge {
	return &I2CGauge{dev: &i2c.Dev{Bus: bus, Addr: addr}}
}

// Reinit issues a quick-start so the gauge restarts its SOC estimate.
func (g *I2CGauge) Reinit() error {
	if err := g.writeReg(regMode, modeQuickStart); err != nil {
		return fmt.Errorf("battery quick-start: %w", err)
	}
	return nil
}

// ReadCapacity resets the gauge, waits Settle and reads the SOC register:
// high byte whole percent, low byte 1/256 percent.
func (g *I2CGauge) ReadCapacity(ctx context.Context) (float64, error) {
	if err := g.writeReg(regCommand, commandPowerOnR); err != nil {
		return 0, fmt.Errorf("battery power-on reset: %w", err)
	}

	if g.Settle > 0 {
		t := time.NewTimer(g.Settle)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return 0, ctx.Err()
		}
	}

	var r [2]byte
	if err := g.dev.Tx([]byte{regSOC}, r[:]); err != nil {
		return 0, fmt.Errorf("battery read SOC: %w", err)
	}
	raw := binary.BigEndian.Uint16(r[:])
	return float64(raw)/256 - g.Offset, nil
}

func (g *I2CGauge) writeReg(reg byte, v uint16) error {
	w := []byte{reg, 0, 0}
	binary.BigEndian.PutUint16(w[1:], v)
	return g.dev.Tx(w, nil)
}
