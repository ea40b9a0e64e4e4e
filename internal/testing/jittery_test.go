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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
)

const jitterClock = 1

func jitteryPair(t *testing.T, config JitterConfig) (tx, rx *JitteryChip, w *Wire) {
	t.Helper()
	w = NewWire(jitterClock)

	txChip, err := w.Open("sim")
	require.NoError(t, err)
	rxChip, err := w.Open("sim")
	require.NoError(t, err)

	tx = NewJitteryChip(txChip, config)
	rx = NewJitteryChip(rxChip, config)
	require.NoError(t, tx.ClaimOutput(jitterClock))
	require.NoError(t, tx.ClaimOutput(0))
	require.NoError(t, rx.ClaimInput(jitterClock))
	require.NoError(t, rx.ClaimInput(0))
	return tx, rx, w
}

func TestJitteryChip_PreservesEdges(t *testing.T) {
	t.Parallel()
	tx, rx, w := jitteryPair(t, JitterConfig{MaxLatency: 50 * time.Microsecond, Seed: 42})

	bits := []gpio.Level{gpio.High, gpio.Low, gpio.High, gpio.High}
	for _, b := range bits {
		require.NoError(t, tx.Write(0, b))
		require.NoError(t, tx.Write(jitterClock, gpio.High))
		require.NoError(t, tx.Write(jitterClock, gpio.Low))
	}
	assert.Equal(t, len(bits), w.Pulses())

	// The clock claim latched one Low edge ahead of the pulses.
	level, err := rx.Read(jitterClock)
	require.NoError(t, err)
	assert.Equal(t, gpio.Low, level)

	for i, want := range bits {
		level, err := rx.Read(jitterClock)
		require.NoError(t, err)
		require.Equal(t, gpio.High, level, "edge %d", i)

		got, err := rx.Read(0)
		require.NoError(t, err)
		assert.Equal(t, want, got, "bit %d", i)

		level, err = rx.Read(jitterClock)
		require.NoError(t, err)
		require.Equal(t, gpio.Low, level, "edge %d", i)
	}
	assert.Zero(t, w.Pending())
}

func TestJitteryChip_StallsOnce(t *testing.T) {
	t.Parallel()
	tx, _, _ := jitteryPair(t, JitterConfig{StallAfter: 2, StallDuration: 20 * time.Millisecond, Seed: 1})

	start := time.Now()
	require.NoError(t, tx.Write(jitterClock, gpio.High))
	require.NoError(t, tx.Write(jitterClock, gpio.Low))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	start = time.Now()
	require.NoError(t, tx.Write(jitterClock, gpio.High))
	require.NoError(t, tx.Write(jitterClock, gpio.Low))
	assert.Less(t, time.Since(start), 20*time.Millisecond, "stall is one-shot")

	tx.ResetStallState()
	start = time.Now()
	require.NoError(t, tx.Write(jitterClock, gpio.High))
	require.NoError(t, tx.Write(jitterClock, gpio.Low))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestJitteryChip_Close(t *testing.T) {
	t.Parallel()
	tx, _, w := jitteryPair(t, DefaultJitterConfig())

	require.NoError(t, tx.Close())
	require.ErrorIs(t, tx.Write(0, gpio.High), ErrChipClosed)
	assert.Equal(t, 1, w.Closes())
}
