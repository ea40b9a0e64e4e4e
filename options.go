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

package gpiocom

import "time"

// Progress reports how far a file transfer has come.
type Progress struct {
	// Name is the file name as carried in the file header
	Name string
	// FileIndex is the 0-based index of the file within a folder transfer
	FileIndex int
	// FileCount is the number of files in the transfer (1 for single files)
	FileCount int
	// BytesDone is the number of file bytes moved so far
	BytesDone int64
	// BytesTotal is the declared file size
	BytesTotal int64
	// Elapsed is the time since the file header was sent or received
	Elapsed time.Duration
}

// ProgressFunc is called after every chunk frame. It runs on the transfer
// goroutine and should return quickly; the partner keeps clocking meanwhile.
type ProgressFunc func(Progress)

// Option configures a Sender or Receiver.
type Option func(*sessionOptions)

type sessionOptions struct {
	progress  ProgressFunc
	traceSize int
}

func defaultSessionOptions() sessionOptions {
	return sessionOptions{traceSize: 16}
}

// WithProgress sets a callback invoked after each chunk of a file transfer.
//
//	rx, err := gpiocom.NewReceiver(drv, cfg,
//	    gpiocom.WithProgress(func(p gpiocom.Progress) {
//	        fmt.Printf("%s %d/%d\n", p.Name, p.BytesDone, p.BytesTotal)
//	    }),
//	)
func WithProgress(fn ProgressFunc) Option {
	return func(o *sessionOptions) {
		o.progress = fn
	}
}

// WithTraceSize sets how many recent frames are attached to errors.
func WithTraceSize(n int) Option {
	return func(o *sessionOptions) {
		o.traceSize = n
	}
}

func (o *sessionOptions) report(p Progress) {
	if o.progress != nil {
		o.progress(p)
	}
}
