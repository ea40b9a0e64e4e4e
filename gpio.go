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

// Package gpiocom moves byte streams across a parallel GPIO bus with a
// dedicated clock line.
//
// Every transfer is a frame: START (0x02), payload, an additive checksum and
// STOP (0x03). Frame bytes are cut into groups as wide as the data bus and
// strobed one group per clock pulse. Files and folders are sent as a header
// frame followed by 64-byte chunk frames.
//
// The protocol has no escaping: payload bytes equal to 0x02 or 0x03 corrupt
// framing. It has no retransmission or backpressure either; the receiver must
// keep up with the sender's fixed inter-edge delay.
package gpiocom

import "periph.io/x/conn/v3/gpio"

// Chip is an opened GPIO controller. Lines are addressed by number.
//
// Implementations exist for periph.io host drivers (transport/periph) and for
// serial port modem lines (transport/modem).
type Chip interface {
	// ClaimOutput reserves line as an output driven Low.
	ClaimOutput(line int) error
	// ClaimInput reserves line as an input.
	ClaimInput(line int) error
	// Write drives an output line.
	Write(line int, level gpio.Level) error
	// Read samples an input line.
	Read(line int) (gpio.Level, error)
	// Close releases the controller and every claimed line.
	Close() error
}

// Driver opens GPIO controllers by identifier.
type Driver interface {
	Open(controller string) (Chip, error)
}

// DriverFunc adapts a function to the Driver interface.
type DriverFunc func(controller string) (Chip, error)

// Open implements Driver.
func (f DriverFunc) Open(controller string) (Chip, error) {
	return f(controller)
}

// Role is the side of the half-duplex bus a session owns.
type Role int

const (
	// RoleSender drives data and clock lines.
	RoleSender Role = iota
	// RoleReceiver samples data and clock lines.
	RoleReceiver
)

func (r Role) String() string {
	if r == RoleSender {
		return "sender"
	}
	return "receiver"
}
