// dac-test is a command-line tool for exercising an AD5328 DAC from
// the bench, either against real hardware (spidev + GPIO chip select)
// or against the built-in chip simulator.
//
// Usage:
//
//	dac-test -device /dev/spidev0.0 -gpiochip /dev/gpiochip0 -cs-line 25 -op set -channel A -value 2048
//
// Options:
//
//	-config string    Bench config file (sections [dac] and [defaults])
//	-device string    spidev device path (e.g. /dev/spidev0.0)
//	-gpiochip string  GPIO chip device for the chip select line (default: /dev/gpiochip0)
//	-cs-line int      GPIO line offset of the chip select (default: 25)
//	-speed int        SPI clock in Hz (default: 1000000)
//	-mode int         SPI mode 0-3 (default: 1)
//	-sim              Run against the chip simulator instead of hardware
//	-op string        Operation: configure, set, sweep, reset, power-down, status, serve
//	-channel string   Channel letter A-H (for set/sweep)
//	-value int        Channel value 0-4095 (for set)
//	-full             Full reset instead of data-only reset (for reset)
//	-down string      Comma-separated channels to power down, e.g. "A,C" (for power-down)
//	-step int         Value increment per step (for sweep, default: 64)
//	-delay duration   Delay between sweep steps (default: 10ms)
//	-addr string      Listen address for serve (default: :7130)
//	-verbose          Enable debug logging
//
// Examples:
//
//	# Ramp channel B against the simulator
//	dac-test -sim -op sweep -channel B
//
//	# Power down channels A and C on real hardware
//	dac-test -device /dev/spidev0.0 -cs-line 25 -op power-down -down A,C
//
//	# Start the bench server on the simulator
//	dac-test -sim -op serve -addr :7130
//
// Copyright (C) 2026  ad5328-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"ad5328-go/pkg/ad5328"
	"ad5328-go/pkg/config"
	"ad5328-go/pkg/dacsim"
	"ad5328-go/pkg/gpio"
	"ad5328-go/pkg/log"
	"ad5328-go/pkg/remote"
	"ad5328-go/pkg/spidev"
)

func main() {
	configFile := flag.String("config", "", "Bench config file")
	device := flag.String("device", "", "spidev device path (e.g. /dev/spidev0.0)")
	gpiochip := flag.String("gpiochip", "/dev/gpiochip0", "GPIO chip device for the chip select line")
	csLine := flag.Int("cs-line", 25, "GPIO line offset of the chip select")
	speed := flag.Int("speed", 1000000, "SPI clock in Hz")
	mode := flag.Int("mode", 1, "SPI mode 0-3")
	sim := flag.Bool("sim", false, "Run against the chip simulator instead of hardware")
	op := flag.String("op", "set", "Operation: configure, set, sweep, reset, power-down, status, serve")
	channel := flag.String("channel", "A", "Channel letter A-H")
	value := flag.Int("value", 0, "Channel value 0-4095")
	full := flag.Bool("full", false, "Full reset instead of data-only reset")
	down := flag.String("down", "", "Comma-separated channels to power down, e.g. \"A,C\"")
	step := flag.Int("step", 64, "Value increment per sweep step")
	delay := flag.Duration("delay", 10*time.Millisecond, "Delay between sweep steps")
	addr := flag.String("addr", ":7130", "Listen address for serve")
	verbose := flag.Bool("verbose", false, "Enable debug logging")

	flag.Parse()

	logger := log.New("dac-test")
	if *verbose {
		logger.SetLevel(log.DEBUG)
	}

	dacCfg := ad5328.DefaultConfig()
	if *configFile != "" {
		cfg, err := config.Load(*configFile)
		if err != nil {
			fatal("%v", err)
		}
		applyBenchConfig(cfg, device, gpiochip, csLine, speed, mode)
		if err := applyDefaultsConfig(cfg, &dacCfg); err != nil {
			fatal("%v", err)
		}
	}

	var (
		bus  ad5328.Bus
		cs   ad5328.Pin
		chip *dacsim.Chip
	)
	if *sim {
		chip = dacsim.New()
		bus, cs = chip, chip
		logger.Info("using chip simulator")
	} else {
		if *device == "" {
			fmt.Fprintf(os.Stderr, "Error: -device is required (or use -sim)\n")
			flag.Usage()
			os.Exit(1)
		}
		spiCfg := spidev.Config{
			Device:      *device,
			Mode:        uint8(*mode),
			BitsPerWord: 8,
			SpeedHz:     uint32(*speed),
		}
		conn, err := spidev.Open(spiCfg)
		if err != nil {
			fatal("%v", err)
		}
		defer conn.Close()

		// Chip select idles high; frames are active-low.
		pin, err := gpio.OpenPin(*gpiochip, uint32(*csLine), true)
		if err != nil {
			fatal("%v", err)
		}
		defer pin.Close()

		bus, cs = conn, pin
		logger.Info("connected to %s, cs line %d on %s", *device, *csLine, *gpiochip)
	}

	dev, err := ad5328.New(bus, cs, dacCfg)
	if err != nil {
		fatal("initial configuration failed: %v", err)
	}
	logger.Debug("device configured: %+v", dacCfg)

	switch *op {
	case "configure":
		// New already applied the configuration; re-apply explicitly
		// so the operation works as a standalone verb too.
		if err := dev.Configure(dacCfg); err != nil {
			fatal("configure: %v", err)
		}
		fmt.Println("configured")

	case "set":
		ch, err := parseChannel(*channel)
		if err != nil {
			fatal("%v", err)
		}
		if err := dev.SetChannel(ch, uint16(*value)); err != nil {
			fatal("set channel %s: %v", ch, err)
		}
		fmt.Printf("channel %s = %d\n", ch, *value)

	case "sweep":
		ch, err := parseChannel(*channel)
		if err != nil {
			fatal("%v", err)
		}
		if *step < 1 {
			fatal("sweep step must be positive")
		}
		logger.Info("sweeping channel %s, step %d, delay %v", ch, *step, *delay)
		for v := 0; v <= ad5328.MaxValue; v += *step {
			if err := dev.SetChannel(ch, uint16(v)); err != nil {
				fatal("sweep at %d: %v", v, err)
			}
			time.Sleep(*delay)
		}
		fmt.Printf("swept channel %s to %d\n", ch, ad5328.MaxValue)

	case "reset":
		if err := dev.Reset(*full); err != nil {
			fatal("reset: %v", err)
		}
		if *full {
			fmt.Println("full reset sent")
		} else {
			fmt.Println("data reset sent")
		}

	case "power-down":
		channels, err := parseChannelList(*down)
		if err != nil {
			fatal("%v", err)
		}
		if err := dev.PowerDown(channels); err != nil {
			fatal("power down: %v", err)
		}
		fmt.Printf("power-down mask applied: %s\n", *down)

	case "status":
		if chip == nil {
			fatal("status is only available with -sim")
		}
		out, _ := json.MarshalIndent(chip.Status(), "", "  ")
		fmt.Println(string(out))

	case "serve":
		var status remote.StatusFunc
		if chip != nil {
			status = func() any { return chip.Status() }
		}
		srv := remote.New(remote.Config{
			Addr:   *addr,
			DAC:    dev,
			Status: status,
			Logger: log.New("remote"),
		})

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sig
			logger.Info("shutting down")
			srv.Stop()
		}()
		if err := srv.Start(); err != nil {
			fatal("server: %v", err)
		}

	default:
		fatal("unknown operation %q", *op)
	}
}

// applyBenchConfig fills connection flags from the [dac] section for
// flags still at their defaults.
func applyBenchConfig(cfg *config.Config, device, gpiochip *string, csLine, speed, mode *int) {
	if !cfg.HasSection("dac") {
		return
	}
	dac, _ := cfg.Section("dac")
	if *device == "" {
		*device, _ = dac.Get("device", *device)
	}
	if !isFlagSet("gpiochip") {
		*gpiochip, _ = dac.Get("gpiochip", *gpiochip)
	}
	if !isFlagSet("cs-line") {
		*csLine, _ = dac.GetInt("cs_line", *csLine)
	}
	if !isFlagSet("speed") {
		*speed, _ = dac.GetInt("speed", *speed)
	}
	if !isFlagSet("mode") {
		*mode, _ = dac.GetInt("mode", *mode)
	}
}

// applyDefaultsConfig builds the driver configuration from the
// [defaults] section.
func applyDefaultsConfig(cfg *config.Config, dacCfg *ad5328.Config) error {
	if !cfg.HasSection("defaults") {
		return nil
	}
	defaults, _ := cfg.Section("defaults")

	fields := []struct {
		option string
		dst    *uint8
		max    int
	}{
		{"gain_ad", (*uint8)(&dacCfg.GainAD), 1},
		{"gain_eh", (*uint8)(&dacCfg.GainEH), 1},
		{"buf_ad", (*uint8)(&dacCfg.BufAD), 1},
		{"buf_eh", (*uint8)(&dacCfg.BufEH), 1},
		{"vdd_ad", (*uint8)(&dacCfg.VddAD), 1},
		{"vdd_eh", (*uint8)(&dacCfg.VddEH), 1},
		{"ldac", (*uint8)(&dacCfg.Ldac), 2},
	}
	for _, f := range fields {
		if !defaults.HasOption(f.option) {
			continue
		}
		v, err := defaults.GetInt(f.option)
		if err != nil {
			return err
		}
		if v < 0 || v > f.max {
			return fmt.Errorf("config: option '%s' must be 0..%d", f.option, f.max)
		}
		*f.dst = uint8(v)
	}
	return nil
}

// isFlagSet reports whether a flag was given explicitly.
func isFlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// parseChannel converts a channel letter (A-H, case-insensitive) to a
// Channel.
func parseChannel(s string) (ad5328.Channel, error) {
	t := strings.ToUpper(strings.TrimSpace(s))
	if len(t) != 1 || t[0] < 'A' || t[0] > 'H' {
		return 0, fmt.Errorf("invalid channel %q (want A-H)", s)
	}
	return ad5328.Channel(t[0] - 'A'), nil
}

// parseChannelList converts "A,C,H" into per-channel flags.
func parseChannelList(s string) ([8]bool, error) {
	var channels [8]bool
	if strings.TrimSpace(s) == "" {
		return channels, fmt.Errorf("no channels given (use -down, e.g. -down A,C)")
	}
	for _, part := range strings.Split(s, ",") {
		ch, err := parseChannel(part)
		if err != nil {
			return channels, err
		}
		channels[ch] = true
	}
	return channels, nil
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
