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

// Package modem turns the modem control lines of a serial port into a
// narrow GPIO bus. RTS and DTR are outputs; CTS, DSR, RI and DCD are inputs.
// With a null-modem cable RTS meets CTS and DTR meets DSR, which gives a
// one-wire data bus with a clock:
//
//	sender:   DataLines: [LineRTS], ClockLine: LineDTR
//	receiver: DataLines: [LineCTS], ClockLine: LineDSR
//
// The controller identifier is the port path, e.g. /dev/ttyUSB0 or COM3.
package modem

import (
	"errors"
	"fmt"

	"go.bug.st/serial"
	"periph.io/x/conn/v3/gpio"

	"github.com/ZaparooProject/go-gpiocom"
)

// Modem control lines, usable as bus line numbers.
const (
	LineRTS = iota // output
	LineDTR        // output
	LineCTS        // input
	LineDSR        // input
	LineRI         // input
	LineDCD        // input
)

var lineNames = [...]string{"RTS", "DTR", "CTS", "DSR", "RI", "DCD"}

// ErrNoSuchLine is returned for line numbers outside the modem lines or
// claims in a direction the line does not support.
var ErrNoSuchLine = errors.New("no such modem line")

// modemPort is the subset of serial.Port used for line control.
type modemPort interface {
	SetDTR(dtr bool) error
	SetRTS(rts bool) error
	GetModemStatusBits() (*serial.ModemStatusBits, error)
	Close() error
}

// Driver opens serial ports for modem line control.
type Driver struct {
	mode serial.Mode
}

// New returns a driver. The baud rate is irrelevant for line control but some
// drivers refuse to open without one.
func New() *Driver {
	return &Driver{mode: serial.Mode{BaudRate: 9600}}
}

// Open opens the port named by controller.
func (d *Driver) Open(controller string) (gpiocom.Chip, error) {
	mode := d.mode
	port, err := serial.Open(controller, &mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", controller, err)
	}
	return newChip(controller, port), nil
}

// ListPorts returns the serial ports present on the system.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	return ports, nil
}

// LineName returns the modem signal name of line.
func LineName(line int) string {
	if line < 0 || line >= len(lineNames) {
		return fmt.Sprintf("line%d", line)
	}
	return lineNames[line]
}

// Chip implements gpiocom.Chip over a serial port's modem lines.
type Chip struct {
	port    modemPort
	name    string
	claimed map[int]bool
	closed  bool
}

func newChip(name string, port modemPort) *Chip {
	return &Chip{port: port, name: name, claimed: map[int]bool{}}
}

func isOutput(line int) bool {
	return line == LineRTS || line == LineDTR
}

func isInput(line int) bool {
	return line >= LineCTS && line <= LineDCD
}

func (c *Chip) claim(line int, output bool) error {
	if c.closed {
		return fmt.Errorf("%s: %w", c.name, gpiocom.ErrBusClosed)
	}
	if (output && !isOutput(line)) || (!output && !isInput(line)) {
		return fmt.Errorf("%s %s: %w", c.name, LineName(line), ErrNoSuchLine)
	}
	c.claimed[line] = true
	return nil
}

// ClaimOutput claims RTS or DTR and drives it Low.
func (c *Chip) ClaimOutput(line int) error {
	if err := c.claim(line, true); err != nil {
		return err
	}
	return c.Write(line, gpio.Low)
}

// ClaimInput claims CTS, DSR, RI or DCD.
func (c *Chip) ClaimInput(line int) error {
	return c.claim(line, false)
}

// Write sets RTS or DTR.
func (c *Chip) Write(line int, level gpio.Level) error {
	if c.closed {
		return fmt.Errorf("%s: %w", c.name, gpiocom.ErrBusClosed)
	}
	if !c.claimed[line] || !isOutput(line) {
		return fmt.Errorf("%s %s: not claimed as output", c.name, LineName(line))
	}

	var err error
	if line == LineRTS {
		err = c.port.SetRTS(bool(level))
	} else {
		err = c.port.SetDTR(bool(level))
	}
	if err != nil {
		return fmt.Errorf("%s %s: %w", c.name, LineName(line), err)
	}
	return nil
}

// Read samples one input line. Each call queries the port's status bits.
func (c *Chip) Read(line int) (gpio.Level, error) {
	if c.closed {
		return gpio.Low, fmt.Errorf("%s: %w", c.name, gpiocom.ErrBusClosed)
	}
	if !c.claimed[line] || !isInput(line) {
		return gpio.Low, fmt.Errorf("%s %s: not claimed as input", c.name, LineName(line))
	}

	bits, err := c.port.GetModemStatusBits()
	if err != nil {
		return gpio.Low, fmt.Errorf("%s: modem status: %w", c.name, err)
	}

	switch line {
	case LineCTS:
		return gpio.Level(bits.CTS), nil
	case LineDSR:
		return gpio.Level(bits.DSR), nil
	case LineRI:
		return gpio.Level(bits.RI), nil
	default:
		return gpio.Level(bits.DCD), nil
	}
}

// Close drops RTS and DTR and closes the port.
func (c *Chip) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	var errs []error
	if c.claimed[LineRTS] {
		if err := c.port.SetRTS(false); err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", c.name, LineName(LineRTS), err))
		}
	}
	if c.claimed[LineDTR] {
		if err := c.port.SetDTR(false); err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", c.name, LineName(LineDTR), err))
		}
	}
	if err := c.port.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close serial port %s: %w", c.name, err))
	}
	return errors.Join(errs...)
}
