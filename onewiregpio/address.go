// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package onewiregpio

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/GermanBionicSystems/onewire/common"
	"periph.io/x/conn/v3/onewire"
)

// Family returns the family code of addr, identifying the device type.
func Family(addr onewire.Address) byte {
	return byte(addr)
}

// AddressBytes returns addr in bus order: family code, 6 serial bytes, CRC.
func AddressBytes(addr onewire.Address) [8]byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(addr))
	return b
}

// AddressFromBytes builds an address from 8 bytes in bus order and checks
// its CRC.
func AddressFromBytes(b []byte) (onewire.Address, error) {
	if len(b) != 8 {
		return 0, errors.New("onewiregpio: an address is 8 bytes")
	}
	addr := onewire.Address(binary.LittleEndian.Uint64(b))
	return addr, CheckAddress(addr)
}

// CheckAddress returns ErrCRC if the last byte of addr is not the CRC of the
// first 7.
//
// An all zero address passes the CRC and is accepted.
func CheckAddress(addr onewire.Address) error {
	b := AddressBytes(addr)
	if common.CRC8Maxim(b[:7]) != b[7] {
		return ErrCRC
	}
	return nil
}

// FormatAddress returns addr as 16 hex digits, most significant (CRC) byte
// first, the way ROM codes are usually printed.
func FormatAddress(addr onewire.Address) string {
	return fmt.Sprintf("%016X", uint64(addr))
}
