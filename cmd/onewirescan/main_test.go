// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/GermanBionicSystems/onewire/common"
	"github.com/GermanBionicSystems/onewire/onewiregpio"
	"github.com/GermanBionicSystems/onewire/onewiregpio/onewiregpiotest"
	"github.com/google/go-cmp/cmp"
	"github.com/maruel/ansi256"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/onewire"
)

func makeAddr(family byte, serial uint64) onewire.Address {
	a := onewire.Address(family) | onewire.Address(serial&0xffffffffffff)<<8
	b := onewiregpio.AddressBytes(a)
	return a | onewire.Address(common.CRC8Maxim(b[:7]))<<56
}

func newBus(t *testing.T, devices ...*onewiregpiotest.Device) *onewiregpio.Dev {
	sim := onewiregpiotest.NewSim(devices...)
	d, err := onewiregpio.New(sim, &onewiregpio.Opts{Delay: sim})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = d.Halt() })
	return d
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestScan(t *testing.T) {
	bus := newBus(t,
		&onewiregpiotest.Device{Addr: makeAddr(0x28, 0x0b1fcd10)},
		&onewiregpiotest.Device{Addr: makeAddr(0x10, 0x0b1fcd10)},
	)
	var buf bytes.Buffer
	n, err := scan(bus, &printer{w: &buf}, false, discard)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("expected 2 devices, got %d", n)
	}
	want := "0D00000B1FCD1010  0x10 DS18S20\n" +
		"E800000B1FCD1028  0x28 DS18B20\n" +
		"2 devices\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestScan_empty(t *testing.T) {
	bus := newBus(t)
	var buf bytes.Buffer
	n, err := scan(bus, &printer{w: &buf}, true, discard)
	if n != 0 || err != nil {
		t.Fatalf("%d %v", n, err)
	}
	if s := buf.String(); s != "0 alarmed devices\n" {
		t.Fatal(s)
	}
}

func TestScan_error(t *testing.T) {
	bus := newBus(t, &onewiregpiotest.Device{Addr: makeAddr(0x28, 1), DropAt: 3})
	var buf bytes.Buffer
	if _, err := scan(bus, &printer{w: &buf}, false, discard); err != onewiregpio.ErrNoResponse {
		t.Fatalf("expected ErrNoResponse, got %v", err)
	}
}

func TestPrinter_palette(t *testing.T) {
	var buf bytes.Buffer
	p := &printer{w: &buf, palette: ansi256.Default}
	if err := p.device(makeAddr(0x42, 7)); err != nil {
		t.Fatal(err)
	}
	if s := buf.String(); !strings.HasPrefix(s, "\033[") || !strings.HasSuffix(s, "0x42 DS28EA00\n") {
		t.Fatalf("%q", s)
	}
	if familyName(0xfe) != "unknown" {
		t.Fatal("unexpected family name")
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "onewirescan.yaml")
	data := "pin: GPIO17\npull: up\nalarm_only: true\ninterval_ms: 2500\nlog_level: debug\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	want := config{Pin: "GPIO17", Pull: "up", AlarmOnly: true, IntervalMs: 2500, LogLevel: "debug"}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	if err := cfg.validate(); err != nil {
		t.Fatal(err)
	}
	if p, _ := cfg.pull(); p != gpio.PullUp {
		t.Fatal(p)
	}
	if l, _ := cfg.level(); l != slog.LevelDebug {
		t.Fatal(l)
	}
	if d := cfg.interval(); d != 2500*time.Millisecond {
		t.Fatal(d)
	}
}

func TestLoadConfig_defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "onewirescan.yaml")
	if err := os.WriteFile(path, []byte("alarm_only: true\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	want := defaultConfig()
	want.AlarmOnly = true
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestConfig_validate(t *testing.T) {
	for _, c := range []config{
		{Pin: ""},
		{Pin: "GPIO4", Pull: "down"},
		{Pin: "GPIO4", LogLevel: "loud"},
		{Pin: "GPIO4", IntervalMs: -1},
	} {
		if err := c.validate(); err == nil {
			t.Errorf("expected %+v to be invalid", c)
		}
	}
	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected missing file error")
	}
}
