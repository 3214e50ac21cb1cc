// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package onewiregpio implements a 1-wire bus master by bit-banging a single
// open-drain GPIO pin.
//
// The line is driven low with Out(gpio.Low) and released with In() so that an
// external pull-up resistor, typically 4.7kΩ, brings it high. All slot timing
// is produced by busy-waiting with a Delay; only the standard speed timing is
// supported.
//
// Dev implements onewire.Bus and onewire.BusSearcher so device drivers written
// against periph.io/x/conn/v3/onewire work unchanged on top of it. It also
// exposes the lower layers directly: bit and byte transfers, ROM commands and
// a step-by-step device search.
//
// # Datasheet
//
// https://www.analog.com/en/resources/technical-articles/1wire-communication-through-software.html
//
// https://www.analog.com/en/resources/app-notes/1wire-search-algorithm.html
package onewiregpio
