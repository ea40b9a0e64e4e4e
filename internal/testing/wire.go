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

// Package testing provides an in-memory GPIO bus for exercising the protocol
// without hardware. It mirrors the gpiocom Chip method set rather than
// importing the root package, to avoid an import cycle with its tests.
package testing

import (
	"errors"
	"fmt"
	"maps"

	"periph.io/x/conn/v3/gpio"

	"github.com/ZaparooProject/go-gpiocom/internal/syncutil"
)

var (
	// ErrNotClaimed is returned for I/O on a line that was never claimed.
	ErrNotClaimed = errors.New("line not claimed")
	// ErrWrongDirection is returned when writing an input or reading an output.
	ErrWrongDirection = errors.New("line claimed in other direction")
	// ErrChipClosed is returned for I/O after Close.
	ErrChipClosed = errors.New("chip closed")
)

// snapshot is the state of every line right after a clock write.
type snapshot map[int]gpio.Level

// Wire joins one sending chip and one receiving chip.
//
// Every write to the clock line is latched as a snapshot of all lines, and
// each clock read on the receiving side consumes the next snapshot. The
// receiver therefore sees every edge the sender produced, in order, however
// the two goroutines are scheduled. Real hardware offers no such guarantee.
type Wire struct {
	live      snapshot
	current   snapshot
	corrupt   map[int][]int
	openErr   error
	claimErr  map[int]error
	queue     []snapshot
	opens     int
	closes    int
	rising    int
	clockLine int
	mu        syncutil.RWMutex
}

// NewWire creates a wire whose clock is on clockLine.
func NewWire(clockLine int) *Wire {
	return &Wire{
		clockLine: clockLine,
		live:      snapshot{},
		current:   snapshot{},
		corrupt:   map[int][]int{},
		claimErr:  map[int]error{},
	}
}

// CorruptGroup inverts data line `line` in the n-th group (0-based) the
// sender clocks out, as seen by the receiver.
func (w *Wire) CorruptGroup(n, line int) {
	w.mu.Lock()
	w.corrupt[n] = append(w.corrupt[n], line)
	w.mu.Unlock()
}

// FailOpen makes every following Open return err.
func (w *Wire) FailOpen(err error) {
	w.mu.Lock()
	w.openErr = err
	w.mu.Unlock()
}

// FailClaim makes claiming line return err.
func (w *Wire) FailClaim(line int, err error) {
	w.mu.Lock()
	w.claimErr[line] = err
	w.mu.Unlock()
}

// Pulses returns the number of rising clock edges driven so far.
func (w *Wire) Pulses() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.rising
}

// Pending returns the number of clock edges not yet observed by the receiver.
func (w *Wire) Pending() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.queue)
}

// Opens returns how many chips were opened on this wire.
func (w *Wire) Opens() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.opens
}

// Closes returns how many chips were closed on this wire.
func (w *Wire) Closes() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.closes
}

// Open returns a new chip attached to the wire. controller is ignored.
func (w *Wire) Open(_ string) (*Chip, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.openErr != nil {
		return nil, w.openErr
	}
	w.opens++
	return &Chip{wire: w, claims: map[int]direction{}}, nil
}

func (w *Wire) drive(line int, level gpio.Level) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.live[line] = level
	if line != w.clockLine {
		return
	}

	snap := maps.Clone(w.live)
	if level == gpio.High {
		for _, l := range w.corrupt[w.rising] {
			snap[l] = !snap[l]
		}
		w.rising++
	}
	w.queue = append(w.queue, snap)
}

func (w *Wire) sample(line int) gpio.Level {
	w.mu.Lock()
	defer w.mu.Unlock()

	if line == w.clockLine && len(w.queue) > 0 {
		w.current = w.queue[0]
		w.queue = w.queue[1:]
	}
	return w.current[line]
}

type direction int

const (
	dirInput direction = iota + 1
	dirOutput
)

// Chip is one side's handle on a Wire. It has the gpiocom.Chip method set.
type Chip struct {
	wire   *Wire
	claims map[int]direction
	closed bool
}

// ClaimOutput claims line as an output driven Low.
func (c *Chip) ClaimOutput(line int) error {
	if err := c.claim(line, dirOutput); err != nil {
		return err
	}
	c.wire.drive(line, gpio.Low)
	return nil
}

// ClaimInput claims line as an input.
func (c *Chip) ClaimInput(line int) error {
	return c.claim(line, dirInput)
}

func (c *Chip) claim(line int, dir direction) error {
	if c.closed {
		return ErrChipClosed
	}
	c.wire.mu.RLock()
	err := c.wire.claimErr[line]
	c.wire.mu.RUnlock()
	if err != nil {
		return err
	}
	c.claims[line] = dir
	return nil
}

func (c *Chip) use(line int, want direction) error {
	if c.closed {
		return ErrChipClosed
	}
	dir, ok := c.claims[line]
	switch {
	case !ok:
		return fmt.Errorf("line %d: %w", line, ErrNotClaimed)
	case dir != want:
		return fmt.Errorf("line %d: %w", line, ErrWrongDirection)
	}
	return nil
}

// Write drives an output line.
func (c *Chip) Write(line int, level gpio.Level) error {
	if err := c.use(line, dirOutput); err != nil {
		return err
	}
	c.wire.drive(line, level)
	return nil
}

// Read samples an input line. Reading the clock consumes one latched edge.
func (c *Chip) Read(line int) (gpio.Level, error) {
	if err := c.use(line, dirInput); err != nil {
		return gpio.Low, err
	}
	return c.wire.sample(line), nil
}

// Close releases the chip.
func (c *Chip) Close() error {
	if c.closed {
		return ErrChipClosed
	}
	c.closed = true
	c.wire.mu.Lock()
	c.wire.closes++
	c.wire.mu.Unlock()
	return nil
}
