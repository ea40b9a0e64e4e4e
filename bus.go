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

package gpiocom

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"periph.io/x/conn/v3/gpio"

	"github.com/ZaparooProject/go-gpiocom/internal/bitgroup"
)

// Bus is the clocked transport: one bit group per clock pulse. A rising edge
// means "data valid" and a falling edge "data consumed".
//
// A Bus has exactly one role and one owner. It is not safe for concurrent
// use; Sender and Receiver serialize access for their callers.
type Bus struct {
	chip   Chip
	config BusConfig
	role   Role
	closed bool
}

// OpenBus validates cfg, opens the controller and claims all lines for role.
// If any claim fails the controller is released before returning.
func OpenBus(driver Driver, cfg BusConfig, role Role) (*Bus, error) {
	cfg = cfg.clone()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	chip, err := driver.Open(cfg.Controller)
	if err != nil {
		return nil, NewResourceError("open", cfg.Controller, -1, err)
	}

	claim := chip.ClaimInput
	if role == RoleSender {
		claim = chip.ClaimOutput
	}
	lines := append([]int{cfg.ClockLine}, cfg.DataLines...)
	for _, line := range lines {
		if err := claim(line); err != nil {
			claimErr := NewResourceError("claim", cfg.Controller, line, err)
			if closeErr := chip.Close(); closeErr != nil {
				return nil, errors.Join(claimErr, NewResourceError("close", cfg.Controller, -1, closeErr))
			}
			return nil, claimErr
		}
	}

	Debugf("bus open: controller=%s role=%s width=%d clock=%d data=%v delay=%s",
		cfg.Controller, role, cfg.Width(), cfg.ClockLine, cfg.DataLines, cfg.Delay)

	return &Bus{chip: chip, config: cfg, role: role}, nil
}

// Config returns a copy of the bus configuration.
func (b *Bus) Config() BusConfig {
	return b.config.clone()
}

// Role returns the role the bus was opened for.
func (b *Bus) Role() Role {
	return b.role
}

// Width returns the number of data lines.
func (b *Bus) Width() int {
	return b.config.Width()
}

// Close releases the controller. Only the first call has an effect.
func (b *Bus) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true

	if err := b.chip.Close(); err != nil {
		return NewResourceError("close", b.config.Controller, -1, err)
	}
	Debugf("bus closed: controller=%s", b.config.Controller)
	return nil
}

func (b *Bus) check(want Role, op string) error {
	if b.closed {
		return &BusError{Op: op, Controller: b.config.Controller, Line: -1, Err: ErrBusClosed, Kind: KindUsage}
	}
	if b.role != want {
		return &BusError{
			Op: op, Controller: b.config.Controller, Line: -1,
			Err:  fmt.Errorf("%w: bus opened as %s", ErrWrongRole, b.role),
			Kind: KindUsage,
		}
	}
	return nil
}

// WriteGroup drives the data lines, then pulses the clock: high, hold, low, hold.
func (b *Bus) WriteGroup(ctx context.Context, g bitgroup.Group) error {
	if err := b.check(RoleSender, "writeGroup"); err != nil {
		return err
	}
	if len(g) != b.Width() {
		return fmt.Errorf("%w: group of %d bits on %d-wire bus", ErrConfiguration, len(g), b.Width())
	}

	for i, line := range b.config.DataLines {
		if err := b.chip.Write(line, g[i]); err != nil {
			return NewResourceError("write", b.config.Controller, line, err)
		}
	}
	if err := b.pulse(ctx, gpio.High); err != nil {
		return err
	}
	return b.pulse(ctx, gpio.Low)
}

func (b *Bus) pulse(ctx context.Context, level gpio.Level) error {
	if err := b.chip.Write(b.config.ClockLine, level); err != nil {
		return NewResourceError("clock", b.config.Controller, b.config.ClockLine, err)
	}
	return b.hold(ctx)
}

// ReadGroup waits for a rising clock edge, samples the data lines, waits for
// the falling edge and holds for the configured delay. The waits only end
// early when ctx is done.
func (b *Bus) ReadGroup(ctx context.Context) (bitgroup.Group, error) {
	if err := b.check(RoleReceiver, "readGroup"); err != nil {
		return nil, err
	}

	if err := b.waitClock(ctx, gpio.High); err != nil {
		return nil, err
	}

	g := make(bitgroup.Group, b.Width())
	for i, line := range b.config.DataLines {
		level, err := b.chip.Read(line)
		if err != nil {
			return nil, NewResourceError("read", b.config.Controller, line, err)
		}
		g[i] = level
	}

	if err := b.waitClock(ctx, gpio.Low); err != nil {
		return nil, err
	}
	if err := b.hold(ctx); err != nil {
		return nil, err
	}
	return g, nil
}

// waitClock polls the clock line until it reads want.
func (b *Bus) waitClock(ctx context.Context, want gpio.Level) error {
	line := b.config.ClockLine
	for {
		level, err := b.chip.Read(line)
		if err != nil {
			return NewResourceError("clock", b.config.Controller, line, err)
		}
		if level == want {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return NewTimeoutError("waitClock", b.config.Controller, line, err)
		}

		if b.config.PollInterval > 0 {
			time.Sleep(b.config.PollInterval)
		} else {
			runtime.Gosched()
		}
	}
}

// hold sleeps for the inter-edge delay unless ctx ends first.
func (b *Bus) hold(ctx context.Context) error {
	if b.config.Delay <= 0 {
		return nil
	}

	timer := time.NewTimer(b.config.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return NewTimeoutError("hold", b.config.Controller, b.config.ClockLine, ctx.Err())
	case <-timer.C:
		return nil
	}
}
