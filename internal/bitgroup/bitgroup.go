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

// Package bitgroup splits bytes into fixed-width groups of line levels for a
// parallel bus and reassembles them on the receiving side.
//
// Bits travel least-significant first. When the bus width does not divide 8,
// the last group of every byte is padded with Low on the high side, and the
// Decoder drops that padding again so consecutive bytes stay aligned.
package bitgroup

import (
	"errors"
	"fmt"
	"strings"

	"periph.io/x/conn/v3/gpio"
)

// Supported bus widths.
const (
	MinWidth = 1
	MaxWidth = 8
)

// maxBuffered bounds the decoder queue: at most 7 leftover bits plus one group.
const maxBuffered = 7 + MaxWidth

var (
	// ErrInvalidWidth is returned for bus widths outside MinWidth..MaxWidth.
	ErrInvalidWidth = errors.New("invalid bus width")
	// ErrGroupWidth is returned when a group does not match the decoder width.
	ErrGroupWidth = errors.New("group width does not match bus width")
	// ErrOverflow is returned when groups are pushed without draining bytes.
	ErrOverflow = errors.New("bit buffer overflow")
)

// Group is one set of line levels transferred per clock pulse; index i is data line i.
type Group []gpio.Level

// String renders the group as bits in line order, e.g. "101".
func (g Group) String() string {
	var sb strings.Builder
	for _, l := range g {
		if l {
			_ = sb.WriteByte('1')
		} else {
			_ = sb.WriteByte('0')
		}
	}
	return sb.String()
}

// CheckWidth validates a bus width.
func CheckWidth(width int) error {
	if width < MinWidth || width > MaxWidth {
		return fmt.Errorf("%w: %d (must be %d..%d)", ErrInvalidWidth, width, MinWidth, MaxWidth)
	}
	return nil
}

// GroupsPerByte returns ceil(8/width).
func GroupsPerByte(width int) int {
	return (8 + width - 1) / width
}

// Padding returns the number of zero bits appended to every byte at this width.
func Padding(width int) int {
	return GroupsPerByte(width)*width - 8
}

// Encode splits b into GroupsPerByte(width) groups, least-significant bit first.
func Encode(b byte, width int) ([]Group, error) {
	if err := CheckWidth(width); err != nil {
		return nil, err
	}

	n := GroupsPerByte(width)
	groups := make([]Group, n)
	bit := 0
	for i := range n {
		g := make(Group, width)
		for j := range width {
			if bit < 8 {
				g[j] = gpio.Level(b>>bit&1 == 1)
			}
			bit++
		}
		groups[i] = g
	}
	return groups, nil
}

// Decoder reassembles bytes from groups. It keeps undelivered bits between
// calls, so one Decoder must live as long as the receiving session.
// A Decoder is not safe for concurrent use.
type Decoder struct {
	queue [maxBuffered]gpio.Level
	n     int // bits queued
	owed  int // padding bits still to drop
	width int
	pad   int
}

// NewDecoder creates a decoder for the given bus width.
func NewDecoder(width int) (*Decoder, error) {
	if err := CheckWidth(width); err != nil {
		return nil, err
	}
	return &Decoder{width: width, pad: Padding(width)}, nil
}

// Width returns the bus width the decoder was created for.
func (d *Decoder) Width() int {
	return d.width
}

// Buffered returns the number of bits waiting in the queue.
func (d *Decoder) Buffered() int {
	return d.n
}

// Push appends one received group to the queue.
func (d *Decoder) Push(g Group) error {
	if len(g) != d.width {
		return fmt.Errorf("%w: got %d, want %d", ErrGroupWidth, len(g), d.width)
	}
	for _, l := range g {
		if d.owed > 0 {
			d.owed--
			continue
		}
		if d.n == len(d.queue) {
			return ErrOverflow
		}
		d.queue[d.n] = l
		d.n++
	}
	return nil
}

// Byte pops the next byte once 8 bits are queued. The padding that follows
// every byte on the wire is discarded, whether already queued or still to come.
func (d *Decoder) Byte() (byte, bool) {
	if d.n < 8 {
		return 0, false
	}

	var b byte
	for i := range 8 {
		if d.queue[i] {
			b |= 1 << i
		}
	}
	copy(d.queue[:], d.queue[8:d.n])
	d.n -= 8

	// Padding is dropped rather than left queued as surplus bits. A reader that
	// keeps it shifts every later byte at widths 3, 5, 6 and 7, since each byte
	// carries its own padding on the wire.
	drop := min(d.pad, d.n)
	if drop > 0 {
		copy(d.queue[:], d.queue[drop:d.n])
		d.n -= drop
	}
	d.owed = d.pad - drop

	return b, true
}

// Reset discards all queued bits, e.g. after a framing error.
func (d *Decoder) Reset() {
	d.n = 0
	d.owed = 0
}

// Decode is a convenience for a single byte's worth of groups.
func Decode(groups []Group, width int) (byte, error) {
	d, err := NewDecoder(width)
	if err != nil {
		return 0, err
	}
	for _, g := range groups {
		if err := d.Push(g); err != nil {
			return 0, err
		}
	}
	b, ok := d.Byte()
	if !ok {
		return 0, fmt.Errorf("need 8 bits, have %d", d.n)
	}
	return b, nil
}
