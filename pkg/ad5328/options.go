// AD5328 hardware option types
//
// Copyright (C) 2026  ad5328-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package ad5328

// Channel identifies one of the eight DAC outputs. The channels are
// configurable in two groups: A...D and E...H.
type Channel uint8

// All available DAC channels.
const (
	ChannelA Channel = iota
	ChannelB
	ChannelC
	ChannelD
	ChannelE
	ChannelF
	ChannelG
	ChannelH
)

// String returns the channel letter (A..H).
func (c Channel) String() string {
	if c > ChannelH {
		return "?"
	}
	return string(rune('A' + c))
}

// address returns the 3-bit channel address shifted into bits 14-12 of
// a channel write command.
func (c Channel) address() uint16 {
	return uint16(c) << 12
}

// Gain selects the output voltage range of a channel group. Bit 4 of
// the control command covers group A-D, bit 5 covers group E-H.
type Gain uint8

const (
	// Gain0Vref gives an output range of 0V to Vref.
	Gain0Vref Gain = iota

	// Gain02Vref gives an output range of 0V to 2*Vref.
	Gain02Vref
)

// Buf selects whether the reference of a channel group is buffered.
// Bit 2 of the control command covers group A-D, bit 3 covers group E-H.
type Buf uint8

const (
	// Unbuffered reference input.
	Unbuffered Buf = iota

	// Buffered reference input.
	Buffered
)

// Vdd selects the reference source of a channel group. Bit 0 of the
// control command covers group A-D, bit 1 covers group E-H.
//
// The VDD bits have priority over the BUF bits: when VDD is the
// reference it is always unbuffered with an output range of 0V to VREF,
// regardless of the GAIN and BUF bits. The chip enforces that
// precedence in hardware; the encoder only sets the bits as given.
type Vdd uint8

const (
	// ExternalRef uses the external voltage reference input.
	ExternalRef Vdd = iota

	// VddAsRef uses the VDD supply as the voltage reference.
	VddAsRef
)

// Ldac controls when data moves from the input registers to the DAC
// registers (datasheet table 8).
type Ldac uint8

const (
	// LdacLow ties LDAC permanently low, so the DAC registers update
	// continuously as input registers are written.
	LdacLow Ldac = iota

	// LdacHigh ties LDAC permanently high. The DAC registers are
	// latched and input registers can change without affecting them.
	// This is the chip's default mode.
	LdacHigh

	// LdacSingleUpdate produces a single pulse on LDAC, updating the
	// DAC registers once.
	LdacSingleUpdate
)
