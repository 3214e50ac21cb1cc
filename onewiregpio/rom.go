// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package onewiregpio

import "periph.io/x/conn/v3/onewire"

// ROM commands, sent right after a reset.
const (
	cmdReadROM     = 0x33 // only valid with a single device on the bus
	cmdMatchROM    = 0x55 // followed by the 8 address bytes
	cmdSkipROM     = 0xcc // address all devices
	cmdSearchROM   = 0xf0
	cmdSearchAlarm = 0xec // search restricted to devices in alarm state
)

// Select resets the bus and addresses the device at addr. All other devices
// ignore the bus until the next reset.
func (d *Dev) Select(addr onewire.Address) error {
	if err := d.resetPresent(); err != nil {
		return err
	}
	if err := d.WriteByte(cmdMatchROM); err != nil {
		return err
	}
	b := AddressBytes(addr)
	return d.WriteBytes(b[:])
}

// Skip resets the bus and addresses all devices at once, for broadcast
// commands or when a single device is known to be present.
func (d *Dev) Skip() error {
	if err := d.resetPresent(); err != nil {
		return err
	}
	return d.WriteByte(cmdSkipROM)
}

// SingleDeviceAddress reads the ROM code of the only device on the bus.
//
// With more than one device present the replies collide and the result fails
// the CRC check, returning ErrCRC.
func (d *Dev) SingleDeviceAddress() (onewire.Address, error) {
	if err := d.resetPresent(); err != nil {
		return 0, err
	}
	if err := d.WriteByte(cmdReadROM); err != nil {
		return 0, err
	}
	var b [8]byte
	if err := d.readInto(b[:]); err != nil {
		return 0, err
	}
	return AddressFromBytes(b[:])
}
