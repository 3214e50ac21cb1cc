// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package onewiregpio

import "periph.io/x/conn/v3/onewire"

// SearchState carries a search series across calls to SearchNext.
//
// The zero value starts a new series. It is reset to the zero value whenever
// SearchNext returns an error.
type SearchState struct {
	addr            onewire.Address // last discovered address
	lastDiscrepancy int             // 1-based bit of the last 0 taken on a discrepancy, 0 if none
	lastDevice      bool            // no branch left to explore
}

// Done returns true once every device of the series has been discovered.
func (s *SearchState) Done() bool {
	return s.lastDevice
}

// SearchNext discovers the next device of the series tracked by s. found is
// false once the series is complete.
//
// Each call is one pass of the binary tree walk over the 64 address bits:
// where participating devices disagree, the 0 branch is taken first and the
// position remembered, and the following pass takes the 1 branch there.
// Devices are thus returned in ascending order of their bit-reversed address.
func (d *Dev) SearchNext(s *SearchState, alarmOnly bool) (addr onewire.Address, found bool, err error) {
	if s.lastDevice {
		return 0, false, nil
	}
	addr, found, err = d.searchPass(s, alarmOnly)
	switch {
	case err != nil:
		*s = SearchState{}
	case !found:
		*s = SearchState{lastDevice: true}
	}
	return addr, found, err
}

func (d *Dev) searchPass(s *SearchState, alarmOnly bool) (onewire.Address, bool, error) {
	fresh := s.lastDiscrepancy == 0
	if err := d.resetPresent(); err != nil {
		return 0, false, err
	}
	cmd := byte(cmdSearchROM)
	if alarmOnly {
		cmd = cmdSearchAlarm
	}
	if err := d.WriteByte(cmd); err != nil {
		return 0, false, err
	}

	var addr onewire.Address
	lastZero := 0
	for bit := 1; bit <= 64; bit++ {
		mask := onewire.Address(1) << uint(bit-1)
		id, cmp, err := d.readPair()
		if err != nil {
			return 0, false, err
		}
		var dir bool
		switch {
		case id && cmp:
			if alarmOnly && fresh && bit == 1 {
				// Present devices but none of them in alarm state.
				return 0, false, nil
			}
			return 0, false, ErrNoResponse
		case id != cmp:
			dir = id
		case bit < s.lastDiscrepancy:
			dir = s.addr&mask != 0
		default:
			dir = bit == s.lastDiscrepancy
		}
		if !id && !cmp && !dir {
			lastZero = bit
		}
		if dir {
			addr |= mask
		}
		if err := d.WriteBit(dir); err != nil {
			return 0, false, err
		}
	}
	if err := CheckAddress(addr); err != nil {
		return 0, false, err
	}
	s.addr = addr
	s.lastDiscrepancy = lastZero
	s.lastDevice = lastZero == 0
	return addr, true, nil
}

// SearchTriplet performs a single bit search triplet: it reads the bit and
// its complement from the participating devices and writes the chosen
// direction. direction is used only when the devices disagree.
//
// SearchTriplet implements onewire.BusSearcher; use SearchNext or Devices
// instead.
func (d *Dev) SearchTriplet(direction byte) (onewire.TripletResult, error) {
	id, cmp, err := d.readPair()
	if err != nil {
		return onewire.TripletResult{}, err
	}
	tr := onewire.TripletResult{GotZero: !id, GotOne: !cmp}
	dir := id || direction != 0
	if !id && cmp {
		dir = false
	}
	if dir {
		tr.Taken = 1
	}
	return tr, d.WriteBit(dir)
}

// readPair reads the address bit of the participating devices followed by
// its complement. A device with a 0 pulls the first slot low, one with a 1
// the second slot.
func (d *Dev) readPair() (bool, bool, error) {
	id, err := d.ReadBit()
	if err != nil {
		return false, false, err
	}
	cmp, err := d.ReadBit()
	return id, cmp, err
}

// Devices returns an Enumerator walking the devices on the bus one search
// pass at a time.
//
// It is fine to stop before the end. Devices attached, removed or changing
// alarm state during the walk can cause an error or missed devices.
func (d *Dev) Devices(alarmOnly bool) *Enumerator {
	return &Enumerator{d: d, alarmOnly: alarmOnly}
}

// Enumerator is a lazy sequence of device addresses. It stops for good after
// the last device or the first error; create a new one to search again.
//
//	e := d.Devices(false)
//	for e.Next() {
//		fmt.Println(e.Address())
//	}
//	if err := e.Err(); err != nil {
//		...
//	}
type Enumerator struct {
	d         *Dev
	alarmOnly bool
	state     SearchState
	addr      onewire.Address
	err       error
	stopped   bool
}

// Next runs a search pass and returns true if it discovered a device.
func (e *Enumerator) Next() bool {
	if e.stopped {
		return false
	}
	addr, found, err := e.d.SearchNext(&e.state, e.alarmOnly)
	if err != nil || !found {
		e.err = err
		e.stopped = true
		e.addr = 0
		return false
	}
	e.addr = addr
	return true
}

// Address returns the address discovered by the last successful Next.
func (e *Enumerator) Address() onewire.Address {
	return e.addr
}

// Err returns the error that stopped the enumeration, if any.
func (e *Enumerator) Err() error {
	return e.err
}
