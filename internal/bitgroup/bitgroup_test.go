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

package bitgroup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
)

func TestEncodeDecode_AllBytesAllWidths(t *testing.T) {
	t.Parallel()

	for _, width := range []int{1, 2, 3, 4, 5, 6, 7, 8} {
		for v := range 256 {
			groups, err := Encode(byte(v), width)
			require.NoError(t, err)
			require.Len(t, groups, GroupsPerByte(width))

			got, err := Decode(groups, width)
			require.NoError(t, err)
			require.Equal(t, byte(v), got, "width %d value %d", width, v)
		}
	}
}

func TestEncode_LSBFirstWithHighPadding(t *testing.T) {
	t.Parallel()

	// 0xB5 = 1011 0101, LSB first: 1 0 1 0 1 1 0 1
	groups, err := Encode(0xB5, 3)
	require.NoError(t, err)
	require.Len(t, groups, 3)
	assert.Equal(t, "101", groups[0].String())
	assert.Equal(t, "011", groups[1].String())
	assert.Equal(t, "010", groups[2].String(), "last group padded with zero")

	groups, err = Encode(0x01, 8)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "10000000", groups[0].String())
}

func TestCheckWidth(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		width   int
		wantErr bool
	}{
		{name: "zero", width: 0, wantErr: true},
		{name: "negative", width: -1, wantErr: true},
		{name: "one", width: 1},
		{name: "eight", width: 8},
		{name: "nine", width: 9, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := CheckWidth(tt.width)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidWidth)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestPadding(t *testing.T) {
	t.Parallel()
	want := map[int]int{1: 0, 2: 0, 3: 1, 4: 0, 5: 2, 6: 4, 7: 6, 8: 0}
	for width, pad := range want {
		assert.Equal(t, pad, Padding(width), "width %d", width)
	}
}

func TestDecoder_StreamStaysAligned(t *testing.T) {
	t.Parallel()
	msg := []byte{0x02, 'h', 'i', 0xFF, 0x00, 0xD1, 0x03}

	for _, width := range []int{1, 2, 3, 4, 5, 6, 7, 8} {
		d, err := NewDecoder(width)
		require.NoError(t, err)

		var got []byte
		for _, b := range msg {
			groups, err := Encode(b, width)
			require.NoError(t, err)
			for _, g := range groups {
				require.NoError(t, d.Push(g))
				if out, ok := d.Byte(); ok {
					got = append(got, out)
				}
			}
		}
		assert.Equal(t, msg, got, "width %d", width)
		assert.Zero(t, d.Buffered(), "width %d", width)
	}
}

func TestDecoder_BitsSpanGroupBoundary(t *testing.T) {
	t.Parallel()
	d, err := NewDecoder(3)
	require.NoError(t, err)

	groups, err := Encode(0x5A, 3)
	require.NoError(t, err)

	require.NoError(t, d.Push(groups[0]))
	require.NoError(t, d.Push(groups[1]))
	_, ok := d.Byte()
	assert.False(t, ok, "6 bits are not a byte")
	assert.Equal(t, 6, d.Buffered())

	require.NoError(t, d.Push(groups[2]))
	b, ok := d.Byte()
	require.True(t, ok)
	assert.Equal(t, byte(0x5A), b)
	assert.Zero(t, d.Buffered())
}

func TestDecoder_PushErrors(t *testing.T) {
	t.Parallel()
	d, err := NewDecoder(4)
	require.NoError(t, err)

	require.ErrorIs(t, d.Push(Group{gpio.High}), ErrGroupWidth)

	high := Group{gpio.High, gpio.High, gpio.High, gpio.High}
	for range 3 {
		require.NoError(t, d.Push(high))
	}
	require.ErrorIs(t, d.Push(high), ErrOverflow)

	d.Reset()
	assert.Zero(t, d.Buffered())
	require.NoError(t, d.Push(high))
}

func TestNewDecoder_InvalidWidth(t *testing.T) {
	t.Parallel()
	_, err := NewDecoder(0)
	require.ErrorIs(t, err, ErrInvalidWidth)
	_, err = Encode(0x00, 9)
	require.ErrorIs(t, err, ErrInvalidWidth)
}
