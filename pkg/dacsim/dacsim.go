// Package dacsim provides a software model of the AD5328 for testing
// the driver and bench tooling without hardware.
//
// The simulator implements both the driver's Bus and Pin contracts:
// wire it in as both and it behaves like the chip on the other end of
// the SPI bus. Bytes are only accepted while chip select is low, and
// a command word is decoded on the rising chip-select edge, matching
// the chip's latching behavior.
//
// Copyright (C) 2026  ad5328-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package dacsim

import (
	"fmt"
	"sync"
)

// LDAC modes as encoded in the low bits of the 0xA000 command.
const (
	ldacLow    = 0
	ldacHigh   = 1
	ldacSingle = 2
)

// Status is a snapshot of the simulated chip state.
type Status struct {
	// Input registers, one per channel A..H.
	Input [8]uint16 `json:"input"`

	// DAC registers (the values driving the outputs).
	DAC [8]uint16 `json:"dac"`

	// Per-channel power-down flags.
	PowerDown [8]bool `json:"power_down"`

	// LDAC mode code (0=low, 1=high, 2=single update).
	LdacMode uint8 `json:"ldac_mode"`

	// Control bits per group.
	GainAD bool `json:"gain_ad"`
	GainEH bool `json:"gain_eh"`
	BufAD  bool `json:"buf_ad"`
	BufEH  bool `json:"buf_eh"`
	VddAD  bool `json:"vdd_ad"`
	VddEH  bool `json:"vdd_eh"`

	// Effective output range per group. The VDD bit overrides the
	// gain bit: with VDD as reference the range is always 0-Vref.
	RangeAD string `json:"range_ad"`
	RangeEH string `json:"range_eh"`

	// Words is the number of command words received so far.
	Words int `json:"words"`

	// FrameErrors counts protocol violations (writes outside a
	// frame, frames that are not exactly two bytes).
	FrameErrors int `json:"frame_errors"`
}

// Chip simulates one AD5328.
type Chip struct {
	mu sync.Mutex

	csLow bool
	frame []byte

	input     [8]uint16
	dac       [8]uint16
	powerDown uint8
	ldacMode  uint8
	control   uint16 // low 6 bits of the last control command

	words       []uint16
	frameErrors int

	// WriteErr and SetErr, when non-nil, are returned by Write and
	// Set respectively. Used to drive the driver's failure paths.
	WriteErr error
	SetErr   error
}

// New creates a simulated chip in its power-on state.
func New() *Chip {
	return &Chip{ldacMode: ldacHigh}
}

// Set implements the driver's Pin contract for the chip select line.
// A rising edge latches the bytes received since the falling edge.
func (c *Chip) Set(high bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.SetErr != nil {
		return c.SetErr
	}
	if high {
		if c.csLow {
			c.latchFrame()
		}
		c.csLow = false
		return nil
	}
	if !c.csLow {
		c.csLow = true
		c.frame = c.frame[:0]
	}
	return nil
}

// Write implements the driver's Bus contract. Bytes are only accepted
// while chip select is low.
func (c *Chip) Write(p []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.WriteErr != nil {
		return c.WriteErr
	}
	if !c.csLow {
		c.frameErrors++
		return fmt.Errorf("dacsim: write of %d bytes while chip select high", len(p))
	}
	c.frame = append(c.frame, p...)
	return nil
}

// latchFrame decodes the completed frame. Called with the lock held.
func (c *Chip) latchFrame() {
	if len(c.frame) == 0 {
		return
	}
	if len(c.frame) != 2 {
		c.frameErrors++
		return
	}
	word := uint16(c.frame[0])<<8 | uint16(c.frame[1])
	c.words = append(c.words, word)
	c.decode(word)
}

// decode applies one command word to the chip state.
func (c *Chip) decode(word uint16) {
	if word&0x8000 == 0 {
		ch := (word >> 12) & 0x7
		c.input[ch] = word & 0x0FFF
		if c.ldacMode == ldacLow {
			// LDAC tied low: DAC registers follow the inputs.
			c.dac[ch] = c.input[ch]
		}
		return
	}

	switch word >> 12 {
	case 0x8:
		c.control = word & 0x003F
	case 0xA:
		c.ldacMode = uint8(word & 0x3)
		switch c.ldacMode {
		case ldacLow:
			c.dac = c.input
		case ldacSingle:
			// One pulse on LDAC: update once, stay latched after.
			c.dac = c.input
		}
	case 0xC:
		c.powerDown = uint8(word & 0xFF)
	case 0xE:
		c.input = [8]uint16{}
		c.dac = [8]uint16{}
	case 0xF:
		c.input = [8]uint16{}
		c.dac = [8]uint16{}
		c.control = 0
		c.powerDown = 0
		c.ldacMode = ldacHigh
	default:
		// Not a command the chip documents; count it as noise.
		c.frameErrors++
	}
}

// DAC returns the DAC register of one channel (0=A .. 7=H).
func (c *Chip) DAC(ch int) uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dac[ch&7]
}

// Input returns the input register of one channel (0=A .. 7=H).
func (c *Chip) Input(ch int) uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input[ch&7]
}

// PoweredDown reports whether a channel is powered down.
func (c *Chip) PoweredDown(ch int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.powerDown&(1<<(ch&7)) != 0
}

// Words returns a copy of every command word received so far.
func (c *Chip) Words() []uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]uint16, len(c.words))
	copy(out, c.words)
	return out
}

// Status returns a snapshot of the chip state.
func (c *Chip) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Status{
		Input:       c.input,
		DAC:         c.dac,
		LdacMode:    c.ldacMode,
		GainAD:      c.control&0x10 != 0,
		GainEH:      c.control&0x20 != 0,
		BufAD:       c.control&0x04 != 0,
		BufEH:       c.control&0x08 != 0,
		VddAD:       c.control&0x01 != 0,
		VddEH:       c.control&0x02 != 0,
		Words:       len(c.words),
		FrameErrors: c.frameErrors,
	}
	for i := 0; i < 8; i++ {
		s.PowerDown[i] = c.powerDown&(1<<i) != 0
	}
	s.RangeAD = outputRange(s.GainAD, s.VddAD)
	s.RangeEH = outputRange(s.GainEH, s.VddEH)
	return s
}

// outputRange resolves the effective range of a group, honoring the
// chip's VDD-over-GAIN precedence.
func outputRange(gain, vdd bool) string {
	if vdd || !gain {
		return "0-vref"
	}
	return "0-2vref"
}
