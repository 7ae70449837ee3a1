// Copyright (C) 2026  ad5328-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package spidev

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Mode != 1 {
		t.Errorf("default mode = %d, want 1", cfg.Mode)
	}
	if cfg.BitsPerWord != 8 {
		t.Errorf("default bits per word = %d, want 8", cfg.BitsPerWord)
	}
	if cfg.SpeedHz != 1000000 {
		t.Errorf("default speed = %d, want 1000000", cfg.SpeedHz)
	}
}

func TestOpenValidation(t *testing.T) {
	if _, err := Open(Config{}); err == nil {
		t.Error("expected error for empty device path")
	}
	if _, err := Open(Config{Device: "/dev/spidev0.0", Mode: 4}); err == nil {
		t.Error("expected error for invalid SPI mode")
	}
	if _, err := Open(Config{Device: "/nonexistent/spidev"}); err == nil {
		t.Error("expected error for missing device")
	}
}
