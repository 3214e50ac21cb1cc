// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package onewiregpiotest simulates a 1-wire bus and its devices behind a
// GPIO pin, to test onewiregpio without hardware.
//
// Sim is both the pin and the delay source: it keeps a virtual clock that
// only advances through Spin, and decodes the slots from how long the line
// was held low.
package onewiregpiotest

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/onewire"
)

// Slot decoding thresholds on the time the master held the line low.
const (
	minResetLow = 400 * time.Microsecond
	minWrite0   = 15 * time.Microsecond
	maxSample   = 15 * time.Microsecond // after release, a read slot is sampled before this
)

// Sim is a simulated 1-wire line. It implements gpio.PinIO and
// onewiregpio.Delay.
//
// Use the same Sim as pin and as Delay.
type Sim struct {
	gpiotest.Pin

	// Devices on the bus.
	Devices []*Device
	// Stuck holds the line low, like a short to ground.
	Stuck bool
	// Fault is returned by Out and In when set.
	Fault error

	// Spins records every delay requested.
	Spins []time.Duration
	// Resets counts the reset pulses seen.
	Resets int
	// Pulled is true while the master actively drives the line high.
	Pulled bool

	mu       sync.Mutex
	now      time.Duration
	low      bool
	lowAt    time.Duration
	upAt     time.Duration // last release
	short    bool          // short low pulse pending: read slot or write 1
	presence bool          // a presence sample is expected
}

// NewSim returns a Sim with the given devices attached. Each Sim gets a
// distinct pin name.
func NewSim(devices ...*Device) *Sim {
	n := int(simCount.Add(1))
	return &Sim{Pin: gpiotest.Pin{N: "SIM" + strconv.Itoa(n), Num: n}, Devices: devices}
}

var simCount atomic.Int32

// Spin implements onewiregpio.Delay. It advances the virtual clock.
func (s *Sim) Spin(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Spins = append(s.Spins, d)
	s.now += d
	if s.short && s.now-s.upAt > maxSample {
		s.flush()
	}
}

// Now returns the virtual time elapsed.
func (s *Sim) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Out implements gpio.PinOut.
func (s *Sim) Out(l gpio.Level) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fault != nil {
		return s.Fault
	}
	s.flush()
	s.presence = false
	if l == gpio.High {
		s.low = false
		s.Pulled = true
		return nil
	}
	s.Pulled = false
	if !s.low {
		s.low = true
		s.lowAt = s.now
	}
	return nil
}

// In implements gpio.PinIn. Releasing the line ends the low part of a slot.
func (s *Sim) In(pull gpio.Pull, edge gpio.Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fault != nil {
		return s.Fault
	}
	s.Pulled = false
	if !s.low {
		s.flush()
		return nil
	}
	s.low = false
	s.upAt = s.now
	switch held := s.now - s.lowAt; {
	case held >= minResetLow:
		s.Resets++
		for _, d := range s.Devices {
			d.reset()
		}
		s.presence = true
	case held >= minWrite0:
		s.write(false)
	default:
		s.short = true
	}
	return nil
}

// Read implements gpio.PinIn. It samples a read slot, a presence pulse or
// the idle line.
func (s *Sim) Read() gpio.Level {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.low || s.Stuck {
		return gpio.Low
	}
	if s.Pulled {
		return gpio.High
	}
	if s.short {
		s.short = false
		level := gpio.High
		for _, d := range s.Devices {
			if !d.read() {
				level = gpio.Low
			}
		}
		return level
	}
	if s.presence {
		s.presence = false
		if len(s.Devices) != 0 {
			return gpio.Low
		}
	}
	return gpio.High
}

// flush delivers a pending short pulse that was not sampled: a write 1.
func (s *Sim) flush() {
	if s.short {
		s.short = false
		s.write(true)
	}
}

func (s *Sim) write(bit bool) {
	for _, d := range s.Devices {
		d.write(bit)
	}
}

// Device is a simulated 1-wire slave implementing the ROM commands. Once
// selected, bytes written by the master are appended to Received and reads
// are served from Response, then all ones.
type Device struct {
	Addr onewire.Address
	// Alarm makes the device answer alarm searches.
	Alarm bool
	// Response is clocked out on reads once the device is selected.
	Response []byte
	// Received accumulates bytes written once the device is selected.
	Received []byte
	// DropAt makes the device stop answering a search at that 0-based bit,
	// as if it was unplugged mid-search. 0 disables it.
	DropAt int

	state  state
	bit    int  // bit index within the current phase
	acc    byte // bits of the byte being written
	idBit  bool // address bit offered in the current search round
	outBit int  // bits of Response read so far
}

type state int

const (
	idle     state = iota // ignoring the bus until a reset
	command               // receiving a ROM command
	readROM               // clocking out the address
	match                 // receiving an address to compare
	searchID              // search: offering the address bit
	searchCmp             // search: offering its complement
	searchDir             // search: receiving the chosen direction
	selected              // function commands
)

func (d *Device) addrBit(i int) bool {
	return d.Addr>>uint(i)&1 == 1
}

func (d *Device) reset() {
	d.state = command
	d.bit = 0
	d.acc = 0
	d.outBit = 0
}

// read returns the level the device leaves on the line for a read slot,
// false pulling it low.
func (d *Device) read() bool {
	switch d.state {
	case readROM:
		b := d.addrBit(d.bit)
		if d.bit++; d.bit == 64 {
			d.enter(selected)
		}
		return b
	case searchID:
		if d.DropAt != 0 && d.bit >= d.DropAt {
			d.state = idle
			return true
		}
		d.idBit = d.addrBit(d.bit)
		d.state = searchCmp
		return d.idBit
	case searchCmp:
		d.state = searchDir
		return !d.idBit
	case selected:
		i := d.outBit
		d.outBit++
		if i/8 >= len(d.Response) {
			return true
		}
		return d.Response[i/8]>>uint(i%8)&1 == 1
	default:
		d.state = idle
		return true
	}
}

func (d *Device) write(bit bool) {
	switch d.state {
	case command:
		if d.shiftIn(bit) {
			d.dispatch(d.acc)
		}
	case match:
		if bit != d.addrBit(d.bit) {
			d.state = idle
			return
		}
		if d.bit++; d.bit == 64 {
			d.enter(selected)
		}
	case searchDir:
		if bit != d.idBit {
			d.state = idle
			return
		}
		if d.bit++; d.bit == 64 {
			d.enter(selected)
		} else {
			d.state = searchID
		}
	case selected:
		if d.shiftIn(bit) {
			d.Received = append(d.Received, d.acc)
		}
	default:
		d.state = idle
	}
}

// shiftIn accumulates a bit least significant first and returns true when
// a full byte is in acc.
func (d *Device) shiftIn(bit bool) bool {
	if d.bit == 0 {
		d.acc = 0
	}
	if bit {
		d.acc |= 1 << uint(d.bit)
	}
	if d.bit++; d.bit == 8 {
		d.bit = 0
		return true
	}
	return false
}

func (d *Device) dispatch(cmd byte) {
	switch cmd {
	case 0x33:
		d.enter(readROM)
	case 0x55:
		d.enter(match)
	case 0xcc:
		d.enter(selected)
	case 0xf0:
		d.enter(searchID)
	case 0xec:
		if d.Alarm {
			d.enter(searchID)
		} else {
			d.state = idle
		}
	default:
		d.state = idle
	}
}

func (d *Device) enter(s state) {
	d.state = s
	d.bit = 0
}

var _ gpio.PinIO = &Sim{}
