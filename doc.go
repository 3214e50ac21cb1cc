// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package onewire is a container for a software 1-wire bus master.
//
// The bus master itself is in onewiregpio, its simulated bus for tests in
// onewiregpio/onewiregpiotest and a command line scanner in cmd/onewirescan.
package onewire
