// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package spatial

import (
	"fmt"

	"github.com/golang/geo/s2"
)

// DefaultLevel is the S2 level used for cell tokens. Level 24 cells are
// about 0.3 m², which is already finer than what the GNSS receiver can
// resolve. https://s2geometry.io/resources/s2cell_statistics.html
const DefaultLevel = 24

// Indexer maps coordinates to S2 cell tokens at one fixed level.
type Indexer struct {
	level int
}

// NewIndexer returns an Indexer for the given S2 level (0..30).
func NewIndexer(level int) (Indexer, error) {
	if level < 0 || level > s2.MaxLevel {
		return Indexer{}, fmt.Errorf("cell level %d outside 0..%d", level, s2.MaxLevel)
	}
	return Indexer{level: level}, nil
}

// Level returns the S2 level of the tokens this Indexer produces.
func (ix Indexer) Level() int {
	return ix.level
}

// Token returns the token of the cell containing (lat, lon).
func (ix Indexer) Token(lat, lon float64) string {
	return CellToken(lat, lon, ix.level)
}

// CellToken returns the token of the level-`level` S2 cell containing
// (lat, lon) given in degrees.
func CellToken(lat, lon float64, level int) string {
	return s2.CellIDFromLatLng(s2.LatLngFromDegrees(lat, lon)).Parent(level).ToToken()
}
