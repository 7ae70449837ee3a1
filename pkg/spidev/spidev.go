// Package spidev provides a write-only SPI connection over the Linux
// spidev character device, suitable as the bus under the AD5328
// driver.
//
// Copyright (C) 2026  ad5328-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package spidev

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Common errors
var (
	ErrClosed     = errors.New("spidev: connection closed")
	ErrShortWrite = errors.New("spidev: short write")
)

// ioctl request numbers from linux/spi/spidev.h.
const (
	spiIOCWrMode        = 0x40016B01 // SPI_IOC_WR_MODE (u8)
	spiIOCWrBitsPerWord = 0x40016B03 // SPI_IOC_WR_BITS_PER_WORD (u8)
	spiIOCWrMaxSpeedHz  = 0x40046B04 // SPI_IOC_WR_MAX_SPEED_HZ (u32)
)

// Config holds spidev connection parameters.
type Config struct {
	// Device path (e.g., /dev/spidev0.0)
	Device string

	// SPI mode 0-3 (clock polarity and phase)
	Mode uint8

	// Bits per word (default: 8)
	BitsPerWord uint8

	// Maximum clock speed in Hz (default: 1 MHz)
	SpeedHz uint32
}

// DefaultConfig returns a Config with default values. Mode 1 matches
// the AD5328, which clocks data in on the falling SCLK edge.
func DefaultConfig() Config {
	return Config{
		Mode:        1,
		BitsPerWord: 8,
		SpeedHz:     1000000,
	}
}

// Conn represents an open spidev connection.
type Conn struct {
	mu     sync.Mutex
	fd     int
	device string
	closed bool
}

// Open opens and configures a spidev device.
func Open(cfg Config) (*Conn, error) {
	if runtime.GOOS != "linux" {
		return nil, fmt.Errorf("spidev: unsupported platform %s", runtime.GOOS)
	}
	if cfg.Device == "" {
		return nil, errors.New("spidev: no device specified")
	}
	if cfg.Mode > 3 {
		return nil, fmt.Errorf("spidev: invalid SPI mode %d", cfg.Mode)
	}
	if cfg.BitsPerWord == 0 {
		cfg.BitsPerWord = 8
	}
	if cfg.SpeedHz == 0 {
		cfg.SpeedHz = 1000000
	}

	fd, err := unix.Open(cfg.Device, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("spidev: open %s: %w", cfg.Device, err)
	}

	c := &Conn{fd: fd, device: cfg.Device}
	if err := c.configure(cfg); err != nil {
		unix.Close(fd)
		return nil, err
	}
	return c, nil
}

// configure applies mode, word size and clock speed via ioctl.
func (c *Conn) configure(cfg Config) error {
	mode := cfg.Mode
	if err := ioctlPtr(c.fd, spiIOCWrMode, unsafe.Pointer(&mode)); err != nil {
		return fmt.Errorf("spidev: set mode %d on %s: %w", cfg.Mode, c.device, err)
	}
	bits := cfg.BitsPerWord
	if err := ioctlPtr(c.fd, spiIOCWrBitsPerWord, unsafe.Pointer(&bits)); err != nil {
		return fmt.Errorf("spidev: set bits per word %d on %s: %w", cfg.BitsPerWord, c.device, err)
	}
	speed := cfg.SpeedHz
	if err := ioctlPtr(c.fd, spiIOCWrMaxSpeedHz, unsafe.Pointer(&speed)); err != nil {
		return fmt.Errorf("spidev: set speed %d on %s: %w", cfg.SpeedHz, c.device, err)
	}
	return nil
}

// Write sends p as one half-duplex SPI transfer. It implements the
// AD5328 driver's Bus contract.
func (c *Conn) Write(p []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	n, err := unix.Write(c.fd, p)
	if err != nil {
		return fmt.Errorf("spidev: write %s: %w", c.device, err)
	}
	if n != len(p) {
		return fmt.Errorf("%w: %d of %d bytes", ErrShortWrite, n, len(p))
	}
	return nil
}

// Device returns the device path of the connection.
func (c *Conn) Device() string {
	return c.device
}

// Close closes the connection.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return unix.Close(c.fd)
}

// ioctlPtr issues an ioctl whose argument is a pointer.
func ioctlPtr(fd int, req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}
