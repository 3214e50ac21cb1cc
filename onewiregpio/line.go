// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package onewiregpio

import (
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Standard speed timing, in the order the steps are performed.
const (
	tResetLow       = 480 * time.Microsecond // reset pulse
	tPresenceSample = 70 * time.Microsecond  // release to presence sample
	tResetTail      = 410 * time.Microsecond // rest of the presence window
	tWrite1Low      = 6 * time.Microsecond
	tWrite1Recovery = 64 * time.Microsecond
	tWrite0Low      = 60 * time.Microsecond
	tWrite0Recovery = 10 * time.Microsecond
	tReadLow        = 6 * time.Microsecond
	tReadSample     = 9 * time.Microsecond
	tReadTail       = 55 * time.Microsecond
	tIdlePoll       = 2 * time.Microsecond
	idlePolls       = 125 // up to 250µs for the pull-up to raise the line
)

// Reset issues a reset pulse on the 1-wire bus and returns true if any device
// responded with a presence pulse.
//
// ErrBusShorted is returned if the line does not float high before the pulse.
func (d *Dev) Reset() (bool, error) {
	if err := d.release(); err != nil {
		return false, err
	}
	if err := d.waitHigh(); err != nil {
		return false, err
	}
	if err := d.drive(); err != nil {
		return false, err
	}
	d.delay.Spin(tResetLow)
	if err := d.release(); err != nil {
		return false, err
	}
	d.delay.Spin(tPresenceSample)
	present := d.p.Read() == gpio.Low
	d.delay.Spin(tResetTail)
	return present, nil
}

// WriteBit writes a single time slot. A 1 is a short low pulse, a 0 holds the
// line low for most of the slot.
func (d *Dev) WriteBit(bit bool) error {
	low, recovery := tWrite0Low, tWrite0Recovery
	if bit {
		low, recovery = tWrite1Low, tWrite1Recovery
	}
	if err := d.drive(); err != nil {
		return err
	}
	d.delay.Spin(low)
	if err := d.release(); err != nil {
		return err
	}
	d.delay.Spin(recovery)
	return nil
}

// ReadBit initiates a read time slot and returns the level sampled on the
// line, true meaning high.
func (d *Dev) ReadBit() (bool, error) {
	if err := d.drive(); err != nil {
		return false, err
	}
	d.delay.Spin(tReadLow)
	if err := d.release(); err != nil {
		return false, err
	}
	d.delay.Spin(tReadSample)
	bit := d.p.Read() == gpio.High
	d.delay.Spin(tReadTail)
	return bit, nil
}

// waitHigh polls the line until the pull-up has raised it.
func (d *Dev) waitHigh() error {
	for i := 0; i < idlePolls; i++ {
		if d.p.Read() == gpio.High {
			return nil
		}
		d.delay.Spin(tIdlePoll)
	}
	return ErrBusShorted
}

func (d *Dev) drive() error {
	if err := d.p.Out(gpio.Low); err != nil {
		return &LineError{Op: "drive", Err: err}
	}
	return nil
}

func (d *Dev) release() error {
	if err := d.p.In(d.pull, gpio.NoEdge); err != nil {
		return &LineError{Op: "release", Err: err}
	}
	return nil
}

// pullup actively drives the line high to power parasitic devices until the
// next operation releases it.
func (d *Dev) pullup() error {
	if err := d.p.Out(gpio.High); err != nil {
		return &LineError{Op: "pullup", Err: err}
	}
	return nil
}
