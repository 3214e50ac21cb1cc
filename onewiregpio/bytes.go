// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package onewiregpio

import "github.com/GermanBionicSystems/onewire/common"

// WriteByte writes b least significant bit first.
func (d *Dev) WriteByte(b byte) error {
	for i := 0; i < 8; i++ {
		if err := d.WriteBit(b&1 == 1); err != nil {
			return err
		}
		b >>= 1
	}
	return nil
}

// ReadByte reads 8 time slots, least significant bit first.
func (d *Dev) ReadByte() (byte, error) {
	var b byte
	for i := 0; i < 8; i++ {
		bit, err := d.ReadBit()
		if err != nil {
			return 0, err
		}
		if bit {
			b |= 1 << uint(i)
		}
	}
	return b, nil
}

// WriteBytes writes w in order.
func (d *Dev) WriteBytes(w []byte) error {
	for _, b := range w {
		if err := d.WriteByte(b); err != nil {
			return err
		}
	}
	return nil
}

// ReadBytes reads n bytes.
func (d *Dev) ReadBytes(n int) ([]byte, error) {
	r := make([]byte, n)
	if err := d.readInto(r); err != nil {
		return nil, err
	}
	return r, nil
}

// ReadBytesCRC reads n bytes followed by their CRC byte and returns the n
// bytes if the CRC matches, ErrCRC otherwise.
func (d *Dev) ReadBytesCRC(n int) ([]byte, error) {
	r := make([]byte, n+1)
	if err := d.readInto(r); err != nil {
		return nil, err
	}
	if !common.CheckCRC8Maxim(r) {
		return nil, ErrCRC
	}
	return r[:n], nil
}

func (d *Dev) readInto(r []byte) error {
	for i := range r {
		b, err := d.ReadByte()
		if err != nil {
			return err
		}
		r[i] = b
	}
	return nil
}
