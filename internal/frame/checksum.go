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

// Checksum computes the additive checksum of a payload.
// This is the sum of all bytes modulo 256
func Checksum(data []byte) byte {
	chk := byte(0)
	for _, b := range data {
		chk += b
	}
	return chk
}

// ContainsMarker reports whether data holds a byte equal to Start or Stop.
// Such payloads cannot be framed reliably because markers are never escaped.
func ContainsMarker(data []byte) bool {
	for _, b := range data {
		if b == Start || b == Stop {
			return true
		}
	}
	return false
}

// Framable reports whether a frame built from payload will be read back
// intact. A STOP byte inside the payload or as the checksum ends the frame
// early on the receiving side. START inside a payload is harmless because the
// receiver only looks for it between frames.
func Framable(payload []byte) bool {
	for _, b := range payload {
		if b == Stop {
			return false
		}
	}
	return Checksum(payload) != Stop
}
