// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package system

import "golang.org/x/sys/unix"

// sysinfo load averages are fixed point with 16 fractional bits.
const loadScale = 1 << 16

// LoadAvg returns the 1, 5 and 15 minute load averages.
func LoadAvg() ([3]float64, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return [3]float64{}, err
	}
	var out [3]float64
	for i := range out {
		out[i] = float64(info.Loads[i]) / loadScale
	}
	return out, nil
}
