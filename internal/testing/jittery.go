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

package testing

import (
	"math/rand/v2"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// JitterConfig configures the behavior of JitteryChip.
type JitterConfig struct {
	// MaxLatency bounds the random delay added before every line access
	MaxLatency time.Duration
	// StallAfter stalls once after this many clock writes (0 disables)
	StallAfter    int
	StallDuration time.Duration
	Seed          uint64
}

// DefaultJitterConfig returns a sensible default configuration for testing.
func DefaultJitterConfig() JitterConfig {
	return JitterConfig{
		MaxLatency: 200 * time.Microsecond,
	}
}

// JitteryChip wraps a Chip to simulate a host that gets preempted between
// line accesses, the way a busy Linux scheduler delays a bit-banging loop.
//
// The wire still latches every clock edge, so jitter changes timing but never
// the data. It is useful for exercising the hold and poll paths of the bus
// with realistic scheduling.
type JitteryChip struct {
	chip        *Chip
	rng         *rand.Rand
	config      JitterConfig
	clockWrites int
	stalled     bool
}

// NewJitteryChip wraps chip with jitter simulation.
func NewJitteryChip(chip *Chip, config JitterConfig) *JitteryChip {
	var rng *rand.Rand
	if config.Seed != 0 {
		rng = rand.New(rand.NewPCG(config.Seed, config.Seed^0xDEADBEEF)) //nolint:gosec // Test code, not crypto
	} else {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // Test code, not crypto
	}
	return &JitteryChip{chip: chip, config: config, rng: rng}
}

func (j *JitteryChip) delay() {
	if j.config.MaxLatency <= 0 {
		return
	}
	if d := time.Duration(j.rng.Int64N(int64(j.config.MaxLatency) + 1)); d > 0 {
		time.Sleep(d)
	}
}

// ClaimOutput passes through to the wrapped chip.
func (j *JitteryChip) ClaimOutput(line int) error {
	return j.chip.ClaimOutput(line)
}

// ClaimInput passes through to the wrapped chip.
func (j *JitteryChip) ClaimInput(line int) error {
	return j.chip.ClaimInput(line)
}

// Write drives line after a random delay, stalling once after StallAfter
// clock writes if configured.
func (j *JitteryChip) Write(line int, level gpio.Level) error {
	j.delay()
	if line == j.chip.wire.clockLine {
		j.clockWrites++
		if j.config.StallAfter > 0 && !j.stalled && j.clockWrites >= j.config.StallAfter {
			j.stalled = true
			time.Sleep(j.config.StallDuration)
		}
	}
	return j.chip.Write(line, level)
}

// Read samples line after a random delay.
func (j *JitteryChip) Read(line int) (gpio.Level, error) {
	j.delay()
	return j.chip.Read(line)
}

// Close passes through to the wrapped chip.
func (j *JitteryChip) Close() error {
	return j.chip.Close()
}

// ResetStallState re-arms the one-shot stall.
func (j *JitteryChip) ResetStallState() {
	j.clockWrites = 0
	j.stalled = false
}
