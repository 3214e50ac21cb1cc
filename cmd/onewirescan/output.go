// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"image/color"
	"io"

	"github.com/GermanBionicSystems/onewire/onewiregpio"
	"github.com/maruel/ansi256"
	"periph.io/x/conn/v3/onewire"
)

// families names the common 1-wire family codes.
var families = map[byte]string{
	0x01: "DS2401",
	0x10: "DS18S20",
	0x12: "DS2406",
	0x1d: "DS2423",
	0x20: "DS2450",
	0x22: "DS1822",
	0x23: "DS2433",
	0x26: "DS2438",
	0x28: "DS18B20",
	0x29: "DS2408",
	0x2d: "DS2431",
	0x3a: "DS2413",
	0x3b: "DS1825",
	0x42: "DS28EA00",
}

func familyName(f byte) string {
	if n, ok := families[f]; ok {
		return n
	}
	return "unknown"
}

// printer writes one line per discovered device. With a palette, each line
// starts with a color swatch unique to the family code.
type printer struct {
	w       io.Writer
	palette *ansi256.Palette
}

func (p *printer) device(addr onewire.Address) error {
	f := onewiregpio.Family(addr)
	swatch := ""
	if p.palette != nil {
		swatch = p.palette.Block(familyColor(f)) + "\033[0m "
	}
	_, err := fmt.Fprintf(p.w, "%s%s  %#02x %s\n", swatch, onewiregpio.FormatAddress(addr), f, familyName(f))
	return err
}

func (p *printer) summary(n int, alarmOnly bool) error {
	what := "device"
	if alarmOnly {
		what = "alarmed device"
	}
	if n != 1 {
		what += "s"
	}
	_, err := fmt.Fprintf(p.w, "%d %s\n", n, what)
	return err
}

// familyColor spreads family codes over the color cube.
func familyColor(f byte) color.NRGBA {
	return color.NRGBA{R: f * 53, G: f * 97, B: f * 193, A: 255}
}
