// Package gpio provides a single output line over the Linux GPIO
// character device (uAPI v2), suitable as the chip select under the
// AD5328 driver.
//
// Copyright (C) 2026  ad5328-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package gpio

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ErrClosed is returned for operations on a closed line.
var ErrClosed = errors.New("gpio: line closed")

// Structures and constants from linux/gpio.h (uAPI v2).

const (
	gpioV2LineFlagOutput = 1 << 3

	gpioV2LineAttrIDOutputValues = 2

	gpioV2GetLineIoctl       = 0xC250B407 // GPIO_V2_GET_LINE
	gpioV2LineSetValuesIoctl = 0xC010B40F // GPIO_V2_LINE_SET_VALUES
)

type lineAttribute struct {
	id      uint32
	padding uint32
	value   uint64
}

type lineConfigAttribute struct {
	attr lineAttribute
	mask uint64
}

type lineConfig struct {
	flags    uint64
	numAttrs uint32
	padding  [5]uint32
	attrs    [10]lineConfigAttribute
}

type lineRequest struct {
	offsets         [64]uint32
	consumer        [32]byte
	config          lineConfig
	numLines        uint32
	eventBufferSize uint32
	padding         [5]uint32
	fd              int32
}

type lineValues struct {
	bits uint64
	mask uint64
}

// Pin is one requested GPIO output line.
type Pin struct {
	mu     sync.Mutex
	fd     int
	chip   string
	offset uint32
	closed bool
}

// OpenPin requests one line of a GPIO chip (e.g., /dev/gpiochip0) as
// an output, driven to the given initial level. For an AD5328 chip
// select the initial level should be high (frames are active-low).
func OpenPin(chip string, offset uint32, initialHigh bool) (*Pin, error) {
	if runtime.GOOS != "linux" {
		return nil, fmt.Errorf("gpio: unsupported platform %s", runtime.GOOS)
	}
	if chip == "" {
		return nil, errors.New("gpio: no chip specified")
	}

	chipFd, err := unix.Open(chip, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("gpio: open %s: %w", chip, err)
	}
	defer unix.Close(chipFd)

	var req lineRequest
	req.offsets[0] = offset
	req.numLines = 1
	copy(req.consumer[:], "ad5328")
	req.config.flags = gpioV2LineFlagOutput
	req.config.numAttrs = 1
	req.config.attrs[0].mask = 1
	req.config.attrs[0].attr.id = gpioV2LineAttrIDOutputValues
	if initialHigh {
		req.config.attrs[0].attr.value = 1
	}

	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(chipFd),
		gpioV2GetLineIoctl, uintptr(unsafe.Pointer(&req)))
	if errno != 0 {
		return nil, fmt.Errorf("gpio: request line %d on %s: %w", offset, chip, errno)
	}

	return &Pin{fd: int(req.fd), chip: chip, offset: offset}, nil
}

// Set drives the line high or low. It implements the AD5328 driver's
// Pin contract.
func (p *Pin) Set(high bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	values := lineValues{mask: 1}
	if high {
		values.bits = 1
	}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(p.fd),
		gpioV2LineSetValuesIoctl, uintptr(unsafe.Pointer(&values)))
	if errno != 0 {
		return fmt.Errorf("gpio: set line %d on %s: %w", p.offset, p.chip, errno)
	}
	return nil
}

// Close releases the line.
func (p *Pin) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return unix.Close(p.fd)
}
