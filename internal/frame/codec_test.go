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
	"io"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// markerFree returns n pseudo-random bytes that avoid both frame markers.
func markerFree(rng *rand.Rand, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		b := byte(rng.IntN(256))
		for b == Start || b == Stop {
			b = byte(rng.IntN(256))
		}
		out[i] = b
	}
	return out
}

func TestEncode_Layout(t *testing.T) {
	t.Parallel()

	got := Encode([]byte{0x10, 0x20})
	assert.Equal(t, []byte{Start, 0x10, 0x20, 0x30, Stop}, got)

	empty := Encode(nil)
	assert.Equal(t, []byte{Start, 0x00, Stop}, empty)
}

func TestDecodeBytes_RoundTrip(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewPCG(1, 2)) //nolint:gosec // Test code, not crypto

	for _, n := range []int{0, 1, 2, 4, 63, 64, 65, 300} {
		payload := markerFree(rng, n)
		raw := Encode(payload)

		got, err := DecodeBytes(raw)
		require.NoError(t, err, "length %d", n)
		assert.Equal(t, payload, got, "length %d", n)
		assert.Equal(t, Checksum(payload), raw[len(raw)-2])
	}
}

func TestDecodeBytes_SkipsNoiseBeforeStart(t *testing.T) {
	t.Parallel()

	raw := append([]byte{0xFF, 0x00, 0x55}, Encode([]byte("hi"))...)
	got, err := DecodeBytes(raw)
	require.NoError(t, err)
	assert.Equal(t, []byte("hi"), got)
}

func TestDecodeBytes_EmptyFrame(t *testing.T) {
	t.Parallel()

	_, err := DecodeBytes([]byte{Start, Stop})
	require.ErrorIs(t, err, ErrEmptyFrame)
}

func TestDecodeBytes_SingleBitFlip(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewPCG(7, 11)) //nolint:gosec // Test code, not crypto
	payload := markerFree(rng, 16)
	raw := Encode(payload)

	for i := 1; i <= len(payload); i++ {
		for bit := range 8 {
			corrupted := append([]byte(nil), raw...)
			corrupted[i] ^= 1 << bit
			if corrupted[i] == Stop {
				// Turns into an early STOP; framing itself is lost.
				continue
			}

			_, err := DecodeBytes(corrupted)
			require.ErrorIs(t, err, ErrChecksumMismatch, "byte %d bit %d", i, bit)

			var ce *ChecksumError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, raw[len(raw)-2], ce.Got)
		}
	}
}

func TestDecodeBytes_Truncated(t *testing.T) {
	t.Parallel()

	_, err := DecodeBytes([]byte{Start, 0x41, 0x41})
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, err = DecodeBytes([]byte{0x41, 0x42})
	require.ErrorIs(t, err, io.EOF)
}

func TestDecode_PropagatesSourceError(t *testing.T) {
	t.Parallel()
	sentinel := errors.New("line read failed")

	calls := 0
	_, err := Decode(func() (byte, error) {
		calls++
		if calls == 3 {
			return 0, sentinel
		}
		return Start, nil
	})
	require.ErrorIs(t, err, sentinel)
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		wantErr error
		name    string
		body    []byte
		want    []byte
	}{
		{name: "empty body", body: nil, wantErr: ErrEmptyFrame},
		{name: "checksum only", body: []byte{0x00}, want: []byte{}},
		{name: "valid", body: []byte{0x01, 0x04, 0x05}, want: []byte{0x01, 0x04}},
		{name: "bad checksum", body: []byte{0x01, 0x04, 0x06}, wantErr: ErrChecksumMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Validate(tt.body)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
