// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package onewiregpio

import (
	"errors"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/onewire"
	"periph.io/x/host/v3/cpu"
)

// Delay is a calibrated busy wait. Spin must not return before d has elapsed
// and should not overshoot by more than a few microseconds, otherwise the
// 1-wire slots get corrupted.
type Delay interface {
	Spin(d time.Duration)
}

// DelayFunc adapts a function to the Delay interface.
type DelayFunc func(d time.Duration)

// Spin implements Delay.
func (f DelayFunc) Spin(d time.Duration) {
	f(d)
}

// Opts contains options to pass to the constructor.
type Opts struct {
	// Pull is the pull applied when the line is released. Use gpio.PullUp
	// only when no external pull-up resistor is fitted and the bus is short.
	Pull gpio.Pull
	// Delay produces the slot timing. nil means cpu.Nanospin.
	Delay Delay
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	Pull:  gpio.PullNoChange,
	Delay: DelayFunc(cpu.Nanospin),
}

// New returns a 1-wire bus master bit-banging the pin p.
//
// The Dev owns p until Halt is called; creating a second Dev on the same pin
// fails. The line is released on return.
func New(p gpio.PinIO, opts *Opts) (*Dev, error) {
	if p == nil {
		return nil, errors.New("onewiregpio: nil pin")
	}
	if opts == nil {
		opts = &DefaultOpts
	}
	delay := opts.Delay
	if delay == nil {
		delay = DefaultOpts.Delay
	}
	if err := claim(p.Name()); err != nil {
		return nil, err
	}
	d := &Dev{p: p, pull: opts.Pull, delay: delay}
	if err := d.release(); err != nil {
		unclaim(p.Name())
		return nil, err
	}
	return d, nil
}

// Dev is a 1-wire bus master on a single GPIO pin. It implements onewire.Bus
// and onewire.BusSearcher.
//
// Dev holds no lock: every operation is a strictly timed sequence and must
// not be interleaved with another one, so a Dev must only be used by one
// goroutine at a time. It keeps no protocol state between calls other than
// what the caller threads through a SearchState.
type Dev struct {
	p     gpio.PinIO // the 1-wire data line
	pull  gpio.Pull  // pull applied when releasing the line
	delay Delay      // slot timing source
}

func (d *Dev) String() string {
	return "onewiregpio{" + d.p.String() + "}"
}

// Halt implements conn.Resource.
//
// It releases the line and gives the pin back; the Dev must not be used
// afterward.
func (d *Dev) Halt() error {
	err := d.release()
	unclaim(d.p.Name())
	return err
}

// Tx performs a bus transaction: a reset, the bytes in w then reading len(r)
// bytes. w normally starts with a ROM command, see Select and Skip.
//
// With power set to onewire.StrongPullup the line is actively driven high
// after the last byte, to power parasitic devices during a temperature
// conversion or an EEPROM write. It stays high until the next operation.
func (d *Dev) Tx(w, r []byte, power onewire.Pullup) error {
	if err := d.resetPresent(); err != nil {
		return err
	}
	if err := d.WriteBytes(w); err != nil {
		return err
	}
	if err := d.readInto(r); err != nil {
		return err
	}
	if power == onewire.StrongPullup {
		return d.pullup()
	}
	return nil
}

// Command resets the bus, addresses the device at addr, or every device
// when addr is nil, and writes the function command cmd. It is to be followed
// by the reads and writes cmd calls for.
func (d *Dev) Command(cmd byte, addr *onewire.Address) error {
	var err error
	if addr != nil {
		err = d.Select(*addr)
	} else {
		err = d.Skip()
	}
	if err != nil {
		return err
	}
	return d.WriteByte(cmd)
}

// Search performs full search cycles on the 1-wire bus and returns the
// addresses of all devices on the bus if alarmOnly is false and of all
// devices in alarm state if alarmOnly is true.
//
// If an error occurs during the search the already-discovered devices are
// returned with the error. An empty bus is not an error.
func (d *Dev) Search(alarmOnly bool) ([]onewire.Address, error) {
	var addrs []onewire.Address
	e := d.Devices(alarmOnly)
	for e.Next() {
		addrs = append(addrs, e.Address())
	}
	err := e.Err()
	if err == ErrNoPresence {
		err = nil
	}
	return addrs, err
}

// resetPresent issues a reset and turns a missing presence pulse into
// ErrNoPresence.
func (d *Dev) resetPresent() error {
	present, err := d.Reset()
	if err != nil {
		return err
	}
	if !present {
		return ErrNoPresence
	}
	return nil
}

// Pins owned by a Dev, by name.
var (
	mu      sync.Mutex
	claimed = map[string]struct{}{}
)

func claim(name string) error {
	mu.Lock()
	defer mu.Unlock()
	if _, ok := claimed[name]; ok {
		return errors.New("onewiregpio: pin " + name + " is already in use by another bus")
	}
	claimed[name] = struct{}{}
	return nil
}

func unclaim(name string) {
	mu.Lock()
	defer mu.Unlock()
	delete(claimed, name)
}

var _ conn.Resource = &Dev{}
var _ onewire.Bus = &Dev{}
var _ onewire.BusSearcher = &Dev{}
var _ onewire.BusError = busError("")
