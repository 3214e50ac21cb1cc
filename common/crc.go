// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package common contains functions used across multiple packages. For
// example, the Dallas/Maxim CRC8 used on the 1-wire bus.
package common

// CRC8Maxim calculates the Dallas/Maxim 8-bit CRC of the byte slice parameter
// and returns the calculated value.
//
// The polynomial is x^8+x^5+x^4+1 processed least significant bit first with
// an initial value of 0. This is the CRC carried in 1-wire ROM codes and in
// most 1-wire device scratchpads.
func CRC8Maxim(bytes []byte) byte {
	var crc byte
	for _, val := range bytes {
		for range 8 {
			mix := (crc ^ val) & 0x01
			crc >>= 1
			if mix != 0 {
				crc ^= 0x8c
			}
			val >>= 1
		}
	}
	return crc
}

// CheckCRC8Maxim returns true if bytes, including its trailing CRC byte,
// passes the CRC check. Running the CRC over data followed by its own CRC
// always yields 0.
func CheckCRC8Maxim(bytes []byte) bool {
	return CRC8Maxim(bytes) == 0
}
