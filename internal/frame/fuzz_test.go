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

package frame

import (
	"bytes"
	"testing"
)

// =============================================================================
// Fuzz Tests for Frame Decoding
// =============================================================================
// The decoder consumes whatever the bus delivers, including noise from a
// partner that started mid-frame or lines that glitched. It must never panic.
//
// Run with: go test -fuzz=FuzzDecodeBytes -fuzztime=30s ./internal/frame/

func FuzzDecodeBytes(f *testing.F) {
	f.Add([]byte{Start, 0x00, Stop})
	f.Add([]byte{Start, 0x41, 0x41, Stop})
	f.Add([]byte{Start, Stop})
	f.Add([]byte{})
	f.Add([]byte{Stop, Start})
	f.Add([]byte{0xFF, 0xFF, Start, 0x10, 0x20, 0x30, Stop})

	f.Fuzz(func(t *testing.T, raw []byte) {
		payload, err := DecodeBytes(raw)
		if err != nil {
			return
		}
		if bytes.IndexByte(payload, Stop) >= 0 {
			t.Fatalf("decoded payload contains STOP: % X", payload)
		}
	})
}

// FuzzEncodeDecode checks that marker-free payloads survive a round trip.
func FuzzEncodeDecode(f *testing.F) {
	f.Add([]byte("hello"))
	f.Add([]byte{})
	f.Add([]byte{0x00, 0x00, 0x00, 0x2A})

	f.Fuzz(func(t *testing.T, payload []byte) {
		if ContainsMarker(payload) {
			t.Skip()
		}
		got, err := DecodeBytes(Encode(payload))
		if err != nil {
			t.Fatalf("DecodeBytes: %v", err)
		}
		if !bytes.Equal(got, payload) {
			t.Fatalf("round trip mismatch: got % X want % X", got, payload)
		}
	})
}
