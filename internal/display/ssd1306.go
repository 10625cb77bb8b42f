// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package display

import (
	"fmt"
	"image"
	"log"
	"math/rand/v2"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

const (
	panelW = 128
	panelH = 64

	lineHeight = 10
	// maxShift is the largest burn-in offset in pixels, on both axes.
	maxShift = 5
)

// Options configure the SSD1306 renderer.
type Options struct {
	ShowLoad bool
	// ShiftFrames is the number of frames drawn at one offset before a new
	// random offset is picked. 0 disables shifting.
	ShiftFrames int
}

// SSD1306 renders status frames to a 128x64 SSD1306 OLED on I²C address
// 0x3C.
type SSD1306 struct {
	dev  *ssd1306.Dev
	face font.Face
	opts Options

	frames int
	dx, dy int
}

// NewSSD1306 initialises the panel on bus.
func NewSSD1306(bus i2c.Bus, opts Options) (*SSD1306, error) {
	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize display: %w", err)
	}
	face, err := smallFace()
	if err != nil {
		return nil, err
	}
	log.Printf("display: initialized %s", dev)
	return &SSD1306{dev: dev, face: face, opts: opts}, nil
}

// smallFace is an 8pt monospace face: five 10px rows fit the panel.
func smallFace() (font.Face, error) {
	f, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse gomono: %w", err)
	}
	return truetype.NewFace(f, &truetype.Options{Size: 8, DPI: 72, Hinting: font.HintingFull}), nil
}

// Render draws the frame, moving the text block every ShiftFrames frames
// so the same pixels are not lit for hours.
func (d *SSD1306) Render(f Frame) error {
	if d.opts.ShiftFrames > 0 && d.frames%d.opts.ShiftFrames == 0 {
		d.dx = rand.IntN(maxShift + 1)
		d.dy = rand.IntN(maxShift + 1)
	}
	d.frames++

	img := drawLines(d.face, Lines(f, d.opts.ShowLoad), d.dx, d.dy)
	return d.dev.Draw(d.dev.Bounds(), img, image.Point{})
}

// Splash shows a boot screen until the first frame.
func (d *SSD1306) Splash() error {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, panelW, panelH))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	drawer.Dot = fixed.P(29, 26)
	drawer.DrawString("motracker")

	drawer.Dot = fixed.P(22, 43)
	drawer.DrawString("Looking for")

	drawer.Dot = fixed.P(50, 56)
	drawer.DrawString("sats")

	return d.dev.Draw(d.dev.Bounds(), img, image.Point{})
}

// Halt turns the panel off (low power sleep). The next Render turns it
// back on.
func (d *SSD1306) Halt() error {
	return d.dev.Halt()
}

// drawLines renders rows of text top-down at offset (dx, dy) onto a blank
// panel-sized image.
func drawLines(face font.Face, lines []string, dx, dy int) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, panelW, panelH))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: face,
	}

	ascent := face.Metrics().Ascent.Ceil()
	for i, line := range lines {
		drawer.Dot = fixed.P(dx+2, dy+2+ascent+i*lineHeight)
		drawer.DrawString(line)
	}
	return img
}
