// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

//go:build !linux

package system

import "errors"

// LoadAvg is only implemented on Linux.
func LoadAvg() ([3]float64, error) {
	return [3]float64{}, errors.New("load average not supported on this platform")
}
