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
	"errors"
	"fmt"
	"io"
)

var (
	// ErrChecksumMismatch is returned when the received checksum byte does not
	// match the sum of the received payload.
	ErrChecksumMismatch = errors.New("checksum mismatch")
	// ErrEmptyFrame is returned when STOP immediately follows START, leaving no
	// room for a checksum byte.
	ErrEmptyFrame = errors.New("empty frame")
)

// ChecksumError carries the transmitted and recomputed checksums of a rejected frame.
type ChecksumError struct {
	Got  byte // checksum byte found on the wire
	Want byte // checksum computed over the received payload
	Len  int  // payload length
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("%v: got 0x%02X, calculated 0x%02X over %d bytes", ErrChecksumMismatch, e.Got, e.Want, e.Len)
}

// Is makes errors.Is(err, ErrChecksumMismatch) hold for every ChecksumError.
func (*ChecksumError) Is(target error) bool {
	return target == ErrChecksumMismatch
}

// ByteFunc yields the next decoded byte from the wire.
type ByteFunc func() (byte, error)

// Encode wraps a payload as START ++ payload ++ checksum ++ STOP.
func Encode(payload []byte) []byte {
	out := make([]byte, 0, len(payload)+Overhead)
	out = append(out, Start)
	out = append(out, payload...)
	out = append(out, Checksum(payload), Stop)
	return out
}

// Decode reads one frame from next and returns its validated payload.
//
// Bytes before the first START are discarded. Everything up to the next STOP
// belongs to the frame; the byte immediately preceding STOP is the checksum.
// Errors from next are returned unchanged.
func Decode(next ByteFunc) ([]byte, error) {
	for {
		b, err := next()
		if err != nil {
			return nil, err
		}
		if b == Start {
			break
		}
	}

	var body []byte
	for {
		b, err := next()
		if err != nil {
			return nil, err
		}
		if b == Stop {
			break
		}
		body = append(body, b)
	}

	return Validate(body)
}

// Validate splits a frame body (the bytes between START and STOP) into payload
// and checksum and verifies it.
func Validate(body []byte) ([]byte, error) {
	if len(body) == 0 {
		return nil, ErrEmptyFrame
	}

	payload := body[:len(body)-1]
	got := body[len(body)-1]
	if want := Checksum(payload); got != want {
		return nil, &ChecksumError{Got: got, Want: want, Len: len(payload)}
	}

	return payload, nil
}

// DecodeBytes decodes the first frame found in raw. A frame cut short by the
// end of raw yields io.ErrUnexpectedEOF, and raw without any START yields io.EOF.
func DecodeBytes(raw []byte) ([]byte, error) {
	pos := 0
	started := false
	payload, err := Decode(func() (byte, error) {
		if pos >= len(raw) {
			if started {
				return 0, io.ErrUnexpectedEOF
			}
			return 0, io.EOF
		}
		b := raw[pos]
		pos++
		if b == Start {
			started = true
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return payload, nil
}
