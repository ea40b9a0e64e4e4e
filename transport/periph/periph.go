// go-gpiocom
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-gpiocom.
//
// go-gpiocom is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-gpiocom is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-gpiocom; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package periph drives bus lines through periph.io host drivers, which cover
// the Raspberry Pi, Allwinner and generic Linux sysfs/character device GPIO.
package periph

import (
	"errors"
	"fmt"
	"strconv"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/ZaparooProject/go-gpiocom"
)

// ErrPinNotFound is returned when a line number does not name a registered pin.
var ErrPinNotFound = errors.New("pin not found")

// Driver opens the host's GPIO through periph.io.
type Driver struct{}

// New returns a periph.io driver.
func New() *Driver {
	return &Driver{}
}

// Open initializes periph host drivers and returns a chip that resolves line
// numbers through gpioreg, so line 17 is the pin registered as "17"/"GPIO17".
// periph.io registers the lines of every controller on the host; controller
// only labels the chip in errors and logs.
func (*Driver) Open(controller string) (gpiocom.Chip, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}
	return NewChip(controller, lookupRegistered), nil
}

func lookupRegistered(line int) gpio.PinIO {
	return gpioreg.ByName(strconv.Itoa(line))
}

// Lookup resolves a line number to a pin, returning nil if there is none.
type Lookup func(line int) gpio.PinIO

// Pins returns a Lookup over a fixed set of pins, e.g. gpiotest pins in tests.
func Pins(pins map[int]gpio.PinIO) Lookup {
	return func(line int) gpio.PinIO {
		return pins[line]
	}
}

// Chip implements gpiocom.Chip over periph.io pins.
type Chip struct {
	lookup     Lookup
	pins       map[int]gpio.PinIO
	outputs    map[int]bool
	controller string
	closed     bool
}

// NewChip creates a chip that resolves lines with lookup.
func NewChip(controller string, lookup Lookup) *Chip {
	return &Chip{
		controller: controller,
		lookup:     lookup,
		pins:       map[int]gpio.PinIO{},
		outputs:    map[int]bool{},
	}
}

func (c *Chip) resolve(line int) (gpio.PinIO, error) {
	if c.closed {
		return nil, fmt.Errorf("%s: %w", c.controller, gpiocom.ErrBusClosed)
	}
	pin := c.lookup(line)
	if pin == nil {
		return nil, fmt.Errorf("%s line %d: %w", c.controller, line, ErrPinNotFound)
	}
	return pin, nil
}

// ClaimOutput configures line as an output driven Low.
func (c *Chip) ClaimOutput(line int) error {
	pin, err := c.resolve(line)
	if err != nil {
		return err
	}
	if err := pin.Out(gpio.Low); err != nil {
		return fmt.Errorf("%s: output: %w", pin.Name(), err)
	}
	c.pins[line] = pin
	c.outputs[line] = true
	return nil
}

// ClaimInput configures line as a floating input without edge detection;
// the bus polls the clock line instead.
func (c *Chip) ClaimInput(line int) error {
	pin, err := c.resolve(line)
	if err != nil {
		return err
	}
	if err := pin.In(gpio.Float, gpio.NoEdge); err != nil {
		return fmt.Errorf("%s: input: %w", pin.Name(), err)
	}
	c.pins[line] = pin
	c.outputs[line] = false
	return nil
}

func (c *Chip) claimed(line int, output bool) (gpio.PinIO, error) {
	if c.closed {
		return nil, fmt.Errorf("%s: %w", c.controller, gpiocom.ErrBusClosed)
	}
	pin, ok := c.pins[line]
	if !ok || c.outputs[line] != output {
		return nil, fmt.Errorf("%s line %d: not claimed as %s", c.controller, line, direction(output))
	}
	return pin, nil
}

func direction(output bool) string {
	if output {
		return "output"
	}
	return "input"
}

// Write drives an output line.
func (c *Chip) Write(line int, level gpio.Level) error {
	pin, err := c.claimed(line, true)
	if err != nil {
		return err
	}
	if err := pin.Out(level); err != nil {
		return fmt.Errorf("%s: write: %w", pin.Name(), err)
	}
	return nil
}

// Read samples an input line.
func (c *Chip) Read(line int) (gpio.Level, error) {
	pin, err := c.claimed(line, false)
	if err != nil {
		return gpio.Low, err
	}
	return pin.Read(), nil
}

// Close drives outputs Low and halts every claimed pin.
func (c *Chip) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	var errs []error
	for line, pin := range c.pins {
		if c.outputs[line] {
			if err := pin.Out(gpio.Low); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", pin.Name(), err))
			}
		}
		if err := pin.Halt(); err != nil {
			errs = append(errs, fmt.Errorf("%s: halt: %w", pin.Name(), err))
		}
	}
	c.pins = map[int]gpio.PinIO{}
	return errors.Join(errs...)
}
