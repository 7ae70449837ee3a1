// AD5328 simulator tests
//
// Copyright (C) 2026  ad5328-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package dacsim

import (
	"testing"

	"ad5328-go/pkg/ad5328"
)

// sendWord drives one framed transaction by hand.
func sendWord(t *testing.T, c *Chip, word uint16) {
	t.Helper()
	if err := c.Set(false); err != nil {
		t.Fatalf("cs low: %v", err)
	}
	if err := c.Write([]byte{byte(word >> 8), byte(word)}); err != nil {
		t.Fatalf("write %#04x: %v", word, err)
	}
	if err := c.Set(true); err != nil {
		t.Fatalf("cs high: %v", err)
	}
}

func TestFraming(t *testing.T) {
	c := New()

	// Writes outside a frame are rejected and counted.
	if err := c.Write([]byte{0x20, 0x00}); err == nil {
		t.Fatal("expected error for write with chip select high")
	}
	if got := c.Status().FrameErrors; got != 1 {
		t.Fatalf("frame errors = %d, want 1", got)
	}

	// A proper frame latches on the rising edge only.
	if err := c.Set(false); err != nil {
		t.Fatalf("cs low: %v", err)
	}
	if err := c.Write([]byte{0x20, 0x40}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := c.Status().Words; got != 0 {
		t.Fatalf("word latched before rising edge (words=%d)", got)
	}
	if err := c.Set(true); err != nil {
		t.Fatalf("cs high: %v", err)
	}
	if got := c.Status().Words; got != 1 {
		t.Fatalf("words = %d, want 1", got)
	}
	if got := c.Input(2); got != 0x40 {
		t.Fatalf("channel C input register %#03x, want 0x040", got)
	}

	// A frame that is not exactly two bytes is dropped.
	c.Set(false)
	c.Write([]byte{0x21})
	c.Set(true)
	if got := c.Status().FrameErrors; got != 2 {
		t.Fatalf("frame errors = %d, want 2", got)
	}
}

func TestLdacModes(t *testing.T) {
	c := New()

	// Power-on mode is LDAC high: inputs latch, DAC registers hold.
	sendWord(t, c, 0x0123) // channel A input = 0x123
	if got := c.DAC(0); got != 0 {
		t.Fatalf("DAC register updated while latched (got %#03x)", got)
	}
	if got := c.Input(0); got != 0x123 {
		t.Fatalf("input register = %#03x, want 0x123", got)
	}

	// Single update copies the inputs once.
	sendWord(t, c, 0xA002)
	if got := c.DAC(0); got != 0x123 {
		t.Fatalf("DAC register = %#03x after single update, want 0x123", got)
	}
	sendWord(t, c, 0x0456)
	if got := c.DAC(0); got != 0x123 {
		t.Fatalf("DAC register followed input after single update (got %#03x)", got)
	}

	// LDAC low makes the DAC registers transparent.
	sendWord(t, c, 0xA000)
	if got := c.DAC(0); got != 0x456 {
		t.Fatalf("DAC register = %#03x after ldac low, want 0x456", got)
	}
	sendWord(t, c, 0x1789)
	if got := c.DAC(1); got != 0x789 {
		t.Fatalf("DAC register B = %#03x, want 0x789", got)
	}
}

func TestControlAndRangePrecedence(t *testing.T) {
	c := New()

	// Gain x2 on both groups, VDD as reference for E-H only.
	sendWord(t, c, 0x8030|0x02)
	s := c.Status()
	if !s.GainAD || !s.GainEH || s.VddAD || !s.VddEH {
		t.Fatalf("control bits decoded wrong: %+v", s)
	}
	if s.RangeAD != "0-2vref" {
		t.Fatalf("range A-D = %q, want 0-2vref", s.RangeAD)
	}
	// VDD as reference forces 0-Vref regardless of the gain bit.
	if s.RangeEH != "0-vref" {
		t.Fatalf("range E-H = %q, want 0-vref", s.RangeEH)
	}
}

func TestResets(t *testing.T) {
	c := New()
	sendWord(t, c, 0xA000) // ldac low
	sendWord(t, c, 0x0FFF)
	sendWord(t, c, 0x8031)
	sendWord(t, c, 0xC005)

	// Data reset clears registers but keeps control state.
	sendWord(t, c, 0xE000)
	s := c.Status()
	if s.Input[0] != 0 || s.DAC[0] != 0 {
		t.Fatalf("registers survived data reset: %+v", s)
	}
	if !s.GainAD || !s.PowerDown[0] || s.LdacMode != 0 {
		t.Fatalf("data reset touched control state: %+v", s)
	}

	// Full reset clears everything.
	sendWord(t, c, 0x0FFF)
	sendWord(t, c, 0xF000)
	s = c.Status()
	if s.Input[0] != 0 || s.DAC[0] != 0 || s.GainAD || s.PowerDown[0] {
		t.Fatalf("state survived full reset: %+v", s)
	}
	if s.LdacMode != 1 {
		t.Fatalf("ldac mode = %d after full reset, want 1", s.LdacMode)
	}
}

func TestPowerDown(t *testing.T) {
	c := New()
	sendWord(t, c, 0xC041) // channels A and G
	if !c.PoweredDown(0) || !c.PoweredDown(6) || c.PoweredDown(1) {
		t.Fatalf("power-down mask decoded wrong: %+v", c.Status().PowerDown)
	}
	sendWord(t, c, 0xC000)
	if c.PoweredDown(0) {
		t.Fatal("channel A still powered down after clearing mask")
	}
}

// TestDriverAgainstSimulator runs the real driver against the
// simulated chip end to end.
func TestDriverAgainstSimulator(t *testing.T) {
	chip := New()
	cfg := ad5328.DefaultConfig()
	cfg.Ldac = ad5328.LdacLow

	dev, err := ad5328.New(chip, chip, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := dev.SetChannel(ad5328.ChannelE, 2048); err != nil {
		t.Fatalf("SetChannel: %v", err)
	}
	if got := chip.DAC(4); got != 2048 {
		t.Fatalf("channel E output = %d, want 2048", got)
	}

	if err := dev.PowerDown([8]bool{4: true}); err != nil {
		t.Fatalf("PowerDown: %v", err)
	}
	if !chip.PoweredDown(4) {
		t.Fatal("channel E not powered down")
	}

	words := chip.Words()
	want := []uint16{0x800C, 0xA000, 0x4800, 0xC010}
	if len(words) != len(want) {
		t.Fatalf("words %#04x, want %#04x", words, want)
	}
	for i := range want {
		if words[i] != want[i] {
			t.Fatalf("word %d = %#04x, want %#04x", i, words[i], want[i])
		}
	}
}

// TestDriverFailurePaths injects transport failures under the driver.
func TestDriverFailurePaths(t *testing.T) {
	chip := New()
	dev, err := ad5328.New(chip, chip, ad5328.DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	chip.WriteErr = errDeliberate
	if err := dev.Reset(false); !ad5328.IsCode(err, ad5328.ErrBus) {
		t.Fatalf("error %v, want code %s", err, ad5328.ErrBus)
	}
	chip.WriteErr = nil

	chip.SetErr = errDeliberate
	if err := dev.Reset(false); !ad5328.IsCode(err, ad5328.ErrPin) {
		t.Fatalf("error %v, want code %s", err, ad5328.ErrPin)
	}
}

var errDeliberate = &deliberateError{}

type deliberateError struct{}

func (*deliberateError) Error() string { return "deliberate failure" }
