// AD5328 command word encoding
//
// Every transaction with the chip is one 16-bit command word. Bit 15
// selects between channel writes (0) and control commands (1); the
// remaining high bits identify the control command class.
//
// Copyright (C) 2026  ad5328-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package ad5328

// MaxValue is the largest channel value the 12-bit DACs accept.
const MaxValue = 4095

// Fixed command identifiers (high bits of the 16-bit command word).
const (
	cmdControl   uint16 = 0x8000
	cmdLdac      uint16 = 0xA000
	cmdPowerDown uint16 = 0xC000
	cmdResetData uint16 = 0xE000
	cmdResetFull uint16 = 0xF000
)

// Config holds the GAIN, BUF and VDD bits for the two channel groups
// (A-D and E-H) plus the LDAC mode shared by all channels.
//
// Encoding a Config is a pure function of its fields; the same Config
// always produces the same two command words.
type Config struct {
	// GainAD and GainEH set the output range per group.
	GainAD Gain
	GainEH Gain

	// BufAD and BufEH set reference buffering per group.
	BufAD Buf
	BufEH Buf

	// VddAD and VddEH select VDD as the reference per group. These
	// override the gain and buffer bits for their group (see Vdd).
	VddAD Vdd
	VddEH Vdd

	// Ldac selects when input registers propagate to DAC registers.
	Ldac Ldac
}

// DefaultConfig returns the configuration matching the chip's
// power-on defaults: buffered external reference, 0V-Vref range,
// LDAC permanently high.
func DefaultConfig() Config {
	return Config{
		GainAD: Gain0Vref,
		GainEH: Gain0Vref,
		BufAD:  Buffered,
		BufEH:  Buffered,
		VddAD:  ExternalRef,
		VddEH:  ExternalRef,
		Ldac:   LdacHigh,
	}
}

// commands serializes the configuration as its two command words. The
// control word must be sent first; both words are always sent as a
// pair on every (re)configuration.
func (c Config) commands() [2]uint16 {
	control := cmdControl |
		uint16(c.GainAD)<<4 | uint16(c.GainEH)<<5 |
		uint16(c.BufAD)<<2 | uint16(c.BufEH)<<3 |
		uint16(c.VddAD) | uint16(c.VddEH)<<1
	return [2]uint16{control, cmdLdac | uint16(c.Ldac)}
}

// channelCommand builds a channel write command. The value must
// already be validated to fit in 12 bits.
func channelCommand(ch Channel, value uint16) uint16 {
	return ch.address() | value
}

// resetCommand builds a reset command. A full reset also clears the
// control registers; a data reset clears only the DAC data.
func resetCommand(full bool) uint16 {
	if full {
		return cmdResetFull
	}
	return cmdResetData
}

// powerDownCommand builds a power-down command from per-channel flags,
// channel A at bit 0 through channel H at bit 7.
func powerDownCommand(channels [8]bool) uint16 {
	cmd := cmdPowerDown
	for n, down := range channels {
		if down {
			cmd |= 1 << n
		}
	}
	return cmd
}
