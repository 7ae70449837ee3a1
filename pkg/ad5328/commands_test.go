// AD5328 command encoding tests
//
// Copyright (C) 2026  ad5328-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package ad5328

import "testing"

func TestChannelCommand_Bits(t *testing.T) {
	channels := []Channel{
		ChannelA, ChannelB, ChannelC, ChannelD,
		ChannelE, ChannelF, ChannelG, ChannelH,
	}
	values := []uint16{0, 1, 0x555, 0x800, MaxValue}

	for _, ch := range channels {
		for _, v := range values {
			cmd := channelCommand(ch, v)
			if cmd&0x8000 != 0 {
				t.Errorf("channel %s value %d: bit 15 set in %#04x", ch, v, cmd)
			}
			if got := (cmd >> 12) & 0x7; got != uint16(ch) {
				t.Errorf("channel %s value %d: address bits %d, want %d", ch, v, got, ch)
			}
			if got := cmd & 0x0FFF; got != v {
				t.Errorf("channel %s value %d: payload %d", ch, v, got)
			}
		}
	}
}

func TestConfigCommands_Default(t *testing.T) {
	// Buffered reference on both groups sets bits 2 and 3; everything
	// else in the default config encodes as zero.
	want := [2]uint16{0x8000 | 0x4 | 0x8, 0xA001}
	got := DefaultConfig().commands()
	if got != want {
		t.Fatalf("default config commands %#04x, want %#04x", got, want)
	}
}

func TestConfigCommands_FieldBits(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		control uint16
		ldac    uint16
	}{
		{"all zero", Config{}, 0x8000, 0xA000},
		{"gain A-D", Config{GainAD: Gain02Vref}, 0x8010, 0xA000},
		{"gain E-H", Config{GainEH: Gain02Vref}, 0x8020, 0xA000},
		{"buf A-D", Config{BufAD: Buffered}, 0x8004, 0xA000},
		{"buf E-H", Config{BufEH: Buffered}, 0x8008, 0xA000},
		{"vdd A-D", Config{VddAD: VddAsRef}, 0x8001, 0xA000},
		{"vdd E-H", Config{VddEH: VddAsRef}, 0x8002, 0xA000},
		{"ldac high", Config{Ldac: LdacHigh}, 0x8000, 0xA001},
		{"ldac single", Config{Ldac: LdacSingleUpdate}, 0x8000, 0xA002},
		{
			"everything",
			Config{
				GainAD: Gain02Vref, GainEH: Gain02Vref,
				BufAD: Buffered, BufEH: Buffered,
				VddAD: VddAsRef, VddEH: VddAsRef,
				Ldac: LdacSingleUpdate,
			},
			0x803F, 0xA002,
		},
	}

	for _, tt := range tests {
		cmds := tt.config.commands()
		if cmds[0] != tt.control {
			t.Errorf("%s: control word %#04x, want %#04x", tt.name, cmds[0], tt.control)
		}
		if cmds[1] != tt.ldac {
			t.Errorf("%s: ldac word %#04x, want %#04x", tt.name, cmds[1], tt.ldac)
		}
	}
}

func TestConfigCommands_Idempotent(t *testing.T) {
	cfg := Config{GainEH: Gain02Vref, VddAD: VddAsRef, Ldac: LdacLow}
	first := cfg.commands()
	second := cfg.commands()
	if first != second {
		t.Fatalf("encoding drifted: %#04x then %#04x", first, second)
	}
}

func TestResetCommand(t *testing.T) {
	if cmd := resetCommand(false); cmd != 0xE000 {
		t.Errorf("data reset command %#04x, want 0xE000", cmd)
	}
	if cmd := resetCommand(true); cmd != 0xF000 {
		t.Errorf("full reset command %#04x, want 0xF000", cmd)
	}
}

func TestPowerDownCommand(t *testing.T) {
	tests := []struct {
		name     string
		channels [8]bool
		want     uint16
	}{
		{"none", [8]bool{}, 0xC000},
		{"A and C", [8]bool{true, false, true}, 0xC005},
		{"H only", [8]bool{7: true}, 0xC080},
		{"all", [8]bool{true, true, true, true, true, true, true, true}, 0xC0FF},
	}

	for _, tt := range tests {
		if got := powerDownCommand(tt.channels); got != tt.want {
			t.Errorf("%s: %#04x, want %#04x", tt.name, got, tt.want)
		}
	}
}

func TestChannelString(t *testing.T) {
	if s := ChannelA.String(); s != "A" {
		t.Errorf("ChannelA.String() = %q", s)
	}
	if s := ChannelH.String(); s != "H" {
		t.Errorf("ChannelH.String() = %q", s)
	}
	if s := Channel(8).String(); s != "?" {
		t.Errorf("Channel(8).String() = %q", s)
	}
}
