// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// onewirescan lists the devices on a 1-wire bus bit-banged on a GPIO pin.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/GermanBionicSystems/onewire/onewiregpio"
	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	console "github.com/phsym/console-slog"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/onewire"
	"periph.io/x/host/v3"
)

func newLogger(w *os.File, level slog.Level) *slog.Logger {
	if isatty.IsTerminal(w.Fd()) || isatty.IsCygwinTerminal(w.Fd()) {
		return slog.New(console.NewHandler(w, &console.HandlerOptions{Level: level}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func newPrinter(plain bool) *printer {
	if !plain && isatty.IsTerminal(os.Stdout.Fd()) {
		return &printer{w: colorable.NewColorableStdout(), palette: ansi256.Default}
	}
	return &printer{w: os.Stdout}
}

// scanner is the part of onewiregpio.Dev used by scan.
type scanner interface {
	Devices(alarmOnly bool) *onewiregpio.Enumerator
}

// scan prints every device found and returns how many there were.
func scan(bus scanner, p *printer, alarmOnly bool, log *slog.Logger) (int, error) {
	start := time.Now()
	n := 0
	e := bus.Devices(alarmOnly)
	for e.Next() {
		n++
		log.Debug("found", "addr", onewiregpio.FormatAddress(e.Address()))
		if err := p.device(e.Address()); err != nil {
			return n, err
		}
	}
	err := e.Err()
	if errors.Is(err, onewiregpio.ErrNoPresence) {
		log.Warn("no device present")
		err = nil
	}
	if err != nil {
		return n, err
	}
	log.Debug("scan done", "devices", n, "duration", time.Since(start))
	return n, p.summary(n, alarmOnly)
}

func mainImpl() error {
	cfgPath := flag.String("config", "", "YAML configuration file")
	pin := flag.String("pin", "", "GPIO pin of the 1-wire data line (default GPIO4)")
	alarm := flag.Bool("alarm", false, "only list devices in alarm state")
	interval := flag.Duration("interval", 0, "scan repeatedly at this interval")
	plain := flag.Bool("plain", false, "disable colors")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()
	if flag.NArg() != 0 {
		return errors.New("unexpected argument, try -help")
	}

	cfg := defaultConfig()
	if *cfgPath != "" {
		var err error
		if cfg, err = loadConfig(*cfgPath); err != nil {
			return err
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "pin":
			cfg.Pin = *pin
		case "alarm":
			cfg.AlarmOnly = *alarm
		case "interval":
			cfg.IntervalMs = int(*interval / time.Millisecond)
		case "v":
			if *verbose {
				cfg.LogLevel = "debug"
			}
		}
	})
	if err := cfg.validate(); err != nil {
		return err
	}
	level, _ := cfg.level()
	pull, _ := cfg.pull()
	log := newLogger(os.Stderr, level)

	if _, err := host.Init(); err != nil {
		return err
	}
	p := gpioreg.ByName(cfg.Pin)
	if p == nil {
		return fmt.Errorf("no pin named %q", cfg.Pin)
	}
	bus, err := onewiregpio.New(p, &onewiregpio.Opts{Pull: pull, Delay: onewiregpio.DefaultOpts.Delay})
	if err != nil {
		return err
	}
	defer bus.Halt()
	log.Debug("bus ready", "bus", bus.String(), "alarm_only", cfg.AlarmOnly)

	out := newPrinter(*plain)
	if cfg.interval() == 0 {
		_, err := scan(bus, out, cfg.AlarmOnly, log)
		return err
	}
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	t := time.NewTicker(cfg.interval())
	defer t.Stop()
	for {
		if _, err := scan(bus, out, cfg.AlarmOnly, log); err != nil {
			// Bus errors are usually transient, a device being plugged in.
			var be onewire.BusError
			if !errors.As(err, &be) {
				return err
			}
			log.Error("scan failed", "err", err)
		}
		select {
		case <-stop:
			return nil
		case <-t.C:
		}
	}
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "onewirescan: %s.\n", err)
		os.Exit(1)
	}
}
