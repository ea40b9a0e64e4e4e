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

package gpiocom_test

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ZaparooProject/go-gpiocom"
	"github.com/ZaparooProject/go-gpiocom/internal/frame"
	simtest "github.com/ZaparooProject/go-gpiocom/internal/testing"
)

const testClockLine = 10

// testConfig returns a bus of the given width on the simulated wire. The wire
// latches every edge, so no inter-edge delay is needed.
func testConfig(width int) gpiocom.BusConfig {
	lines := make([]int, width)
	for i := range lines {
		lines[i] = i
	}
	return gpiocom.BusConfig{
		Controller: "sim",
		DataLines:  lines,
		ClockLine:  testClockLine,
	}
}

func wireDriver(w *simtest.Wire) gpiocom.Driver {
	return gpiocom.DriverFunc(func(controller string) (gpiocom.Chip, error) {
		c, err := w.Open(controller)
		if err != nil {
			return nil, err
		}
		return c, nil
	})
}

type link struct {
	tx   *gpiocom.Sender
	rx   *gpiocom.Receiver
	wire *simtest.Wire
}

func newLinkWithConfig(t *testing.T, cfg gpiocom.BusConfig, opts ...gpiocom.Option) *link {
	t.Helper()
	w := simtest.NewWire(cfg.ClockLine)

	tx, err := gpiocom.NewSender(wireDriver(w), cfg)
	require.NoError(t, err)
	rx, err := gpiocom.NewReceiver(wireDriver(w), cfg, opts...)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = tx.Close()
		_ = rx.Close()
	})
	return &link{tx: tx, rx: rx, wire: w}
}

func newLink(t *testing.T, width int, opts ...gpiocom.Option) *link {
	t.Helper()
	return newLinkWithConfig(t, testConfig(width), opts...)
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// goSend runs fn on its own goroutine, as the sending device would.
func goSend(fn func() error) <-chan error {
	done := make(chan error, 1)
	go func() { done <- fn() }()
	return done
}

// framableData returns n pseudo-random bytes that can be sent in ChunkSize
// frames: no STOP byte anywhere and no chunk whose checksum is STOP.
func framableData(seed uint64, n int) []byte {
	rng := rand.New(rand.NewPCG(seed, seed^0x5EED)) //nolint:gosec // Test code, not crypto
	data := make([]byte, n)
	for i := range data {
		b := byte(rng.IntN(256))
		if b == frame.Stop {
			b++
		}
		data[i] = b
	}

	for off := 0; off < n; off += gpiocom.ChunkSize {
		chunk := data[off:min(off+gpiocom.ChunkSize, n)]
		for !frame.Framable(chunk) {
			last := len(chunk) - 1
			chunk[last]++
			if chunk[last] == frame.Stop {
				chunk[last]++
			}
		}
	}
	return data
}
