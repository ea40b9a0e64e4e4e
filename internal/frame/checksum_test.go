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

import "testing"

func TestChecksum(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		data []byte
		want byte
	}{
		{
			name: "empty data",
			data: []byte{},
			want: 0,
		},
		{
			name: "single byte",
			data: []byte{0x42},
			want: 0x42,
		},
		{
			name: "two bytes",
			data: []byte{0x10, 0x20},
			want: 0x30,
		},
		{
			name: "overflow handling",
			data: []byte{0xFF, 0x01},
			want: 0x00, // 255 + 1 = 256, truncated to 0
		},
		{
			name: "number payload",
			data: []byte{0x00, 0x00, 0x00, 0x2A},
			want: 0x2A,
		},
		{
			name: "file header",
			data: []byte{0x00, 0x05, 'a', '.', 't', 'x', 't', 0x00, 0x00, 0x00, 0x40},
			want: 0x34,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Checksum(tt.data); got != tt.want {
				t.Errorf("Checksum() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContainsMarker(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{name: "nil", data: nil, want: false},
		{name: "plain text", data: []byte("hello"), want: false},
		{name: "start marker", data: []byte{0x41, Start}, want: true},
		{name: "stop marker", data: []byte{Stop}, want: true},
		{name: "neighbours", data: []byte{0x01, 0x04}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ContainsMarker(tt.data); got != tt.want {
				t.Errorf("ContainsMarker() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFramable(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{name: "empty", data: nil, want: true},
		{name: "start inside payload", data: []byte{Start, 0x10}, want: true},
		{name: "stop inside payload", data: []byte{0x10, Stop, 0x10}, want: false},
		{name: "checksum equals stop", data: []byte{0x01, 0x01, 0x01}, want: false},
		{name: "text", data: []byte("hi"), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Framable(tt.data); got != tt.want {
				t.Errorf("Framable() = %v, want %v", got, tt.want)
			}
		})
	}
}
