// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package onewiregpio

import "fmt"

var (
	// ErrNoPresence is returned when no device answered a reset with a
	// presence pulse. Polling for a device to be attached is legitimate.
	ErrNoPresence error = busError("onewiregpio: no device present")
	// ErrBusShorted is returned when the line did not float high before a
	// reset, usually a short to ground or a missing pull-up resistor.
	ErrBusShorted error = shortedBusError("onewiregpio: bus is held low")
	// ErrNoResponse is returned when no device answered a search round, which
	// happens when devices are removed from the bus during a search.
	ErrNoResponse error = busError("onewiregpio: no device answered search round")
	// ErrCRC is returned when a ROM code or a data block fails its CRC.
	ErrCRC error = busError("onewiregpio: incorrect CRC")
)

// LineError is returned when the GPIO pin itself fails. It is never a 1-wire
// bus error and the operation in progress is abandoned.
type LineError struct {
	Op  string // "drive", "release" or "pullup"
	Err error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("onewiregpio: failed to %s line: %v", e.Op, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// busError implements error and onewire.BusError.
type busError string

func (e busError) Error() string  { return string(e) }
func (e busError) BusError() bool { return true }

// shortedBusError implements error and onewire.ShortedBusError.
type shortedBusError string

func (e shortedBusError) Error() string   { return string(e) }
func (e shortedBusError) IsShorted() bool { return true }
func (e shortedBusError) BusError() bool  { return true }
