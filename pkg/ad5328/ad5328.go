// Package ad5328 provides a driver for the Analog Devices AD5328
// octal 12-bit DAC controlled over SPI.
//
// Datasheet: https://www.analog.com/media/en/technical-documentation/data-sheets/AD5308_5318_5328.pdf
//
// The chip is write-only from the driver's perspective: every
// operation is a single framed 16-bit command word, and the chip's
// internal state (stored channel values, LDAC mode, power state) is
// not modeled or cached here.
//
// Copyright (C) 2026  ad5328-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package ad5328

// Bus is the write-only byte transport the driver sends command words
// over. The driver writes exactly two bytes per call. Implementations
// report failures with their own error values, which the driver wraps
// in an ErrBus Error.
type Bus interface {
	Write(p []byte) error
}

// Pin is the binary output line used as the chip's active-low SYNC /
// chip select. Implementations report failures with their own error
// values, which the driver wraps in an ErrPin Error.
type Pin interface {
	Set(high bool) error
}

// Device is a handle to one AD5328. It owns its bus and chip-select
// resources exclusively and performs no internal locking: callers
// needing concurrent access must serialize calls externally.
type Device struct {
	bus Bus
	cs  Pin

	// Scratch buffer reused across calls to avoid per-write
	// allocation. Overwritten on every transaction.
	buf [2]byte
}

// New creates a Device and applies the initial configuration. If the
// configuration write fails, the error is returned and no handle
// escapes to the caller.
func New(bus Bus, cs Pin, config Config) (*Device, error) {
	d := &Device{bus: bus, cs: cs}
	if err := d.Configure(config); err != nil {
		return nil, err
	}
	return d, nil
}

// write delivers one command word as a framed transaction: chip
// select low, two bytes big-endian in a single bus write, chip select
// high. The rising chip-select edge latches the word in the chip.
//
// The first failing step aborts the sequence. Note that a failed bus
// write leaves the chip select low, since the line is only raised
// after a successful write; recovery timing is the caller's call.
func (d *Device) write(cmd uint16) error {
	if err := d.cs.Set(false); err != nil {
		return pinError(err)
	}
	d.buf[0] = byte(cmd >> 8)
	d.buf[1] = byte(cmd)
	if err := d.bus.Write(d.buf[:]); err != nil {
		return busError(err)
	}
	if err := d.cs.Set(true); err != nil {
		return pinError(err)
	}
	return nil
}

// Configure (re-)applies a configuration, sending its control word
// and LDAC word in order. A failure on either word aborts the pair,
// leaving the chip in a hardware-defined partial state.
func (d *Device) Configure(config Config) error {
	for _, cmd := range config.commands() {
		if err := d.write(cmd); err != nil {
			return err
		}
	}
	return nil
}

// Reset resets all DAC data. A full reset also resets the control
// registers.
func (d *Device) Reset(full bool) error {
	return d.write(resetCommand(full))
}

// PowerDown powers down the channels whose flag is set, channel A at
// index 0 through channel H at index 7.
func (d *Device) PowerDown(channels [8]bool) error {
	return d.write(powerDownCommand(channels))
}

// SetChannel sets the value of one DAC channel. Values above MaxValue
// are rejected with an ErrOutOfBounds Error before any bus or pin
// call is made.
func (d *Device) SetChannel(ch Channel, value uint16) error {
	if value > MaxValue {
		return oobError(value)
	}
	return d.write(channelCommand(ch, value))
}
