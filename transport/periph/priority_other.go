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

//go:build !linux

package periph

import "errors"

// ErrPriorityUnsupported is returned where niceness cannot be changed.
var ErrPriorityUnsupported = errors.New("process priority not supported on this platform")

// RaisePriority is only implemented on Linux.
func RaisePriority(_ int) error {
	return ErrPriorityUnsupported
}

// Priority is only implemented on Linux.
func Priority() (int, error) {
	return 0, ErrPriorityUnsupported
}
