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

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZaparooProject/go-gpiocom/internal/bitgroup"
	"github.com/ZaparooProject/go-gpiocom/internal/frame"
	"github.com/ZaparooProject/go-gpiocom/internal/syncutil"
)

// Receiver owns the sampling side of a bus. Its decoder keeps bits that
// arrived past the end of one byte for the next, so a Receiver must be used
// for the whole session rather than recreated per frame.
type Receiver struct {
	bus     *Bus
	decoder *bitgroup.Decoder
	trace   *TraceBuffer
	opts    sessionOptions
	mu      syncutil.Mutex
}

// NewReceiver opens the controller in cfg and claims every line as an input.
func NewReceiver(driver Driver, cfg BusConfig, opts ...Option) (*Receiver, error) {
	o := defaultSessionOptions()
	for _, opt := range opts {
		opt(&o)
	}

	bus, err := OpenBus(driver, cfg, RoleReceiver)
	if err != nil {
		return nil, err
	}
	decoder, err := bitgroup.NewDecoder(bus.Width())
	if err != nil {
		_ = bus.Close()
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return &Receiver{
		bus:     bus,
		decoder: decoder,
		trace:   NewTraceBuffer(cfg.Controller, o.traceSize),
		opts:    o,
	}, nil
}

// Close releases the controller. It is safe to call more than once.
func (r *Receiver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bus.Close()
}

// Config returns the bus configuration.
func (r *Receiver) Config() BusConfig {
	return r.bus.Config()
}

// ReceiveFrame blocks until a complete frame arrives and returns its payload.
// Without a deadline on ctx or a FrameTimeout the wait is unbounded.
//
//nolint:wrapcheck // WrapError intentionally wraps errors with trace data
func (r *Receiver) ReceiveFrame(ctx context.Context) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.receiveFrame(ctx)
}

func (r *Receiver) receiveFrame(ctx context.Context) ([]byte, error) {
	if timeout := r.bus.config.FrameTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var raw []byte
	payload, err := frame.Decode(func() (byte, error) {
		b, err := r.readByte(ctx)
		if err != nil {
			return 0, err
		}
		if len(raw) == 0 && b != frame.Start {
			return b, nil
		}
		raw = append(raw, b)
		return b, nil
	})
	if err != nil {
		var be *BusError
		if errors.As(err, &be) {
			// Partial groups are meaningless once the handshake broke off.
			r.decoder.Reset()
		}
		if len(raw) > 0 {
			r.trace.RecordRX(raw, "rejected")
		}
		return nil, r.trace.WrapError(err)
	}

	r.trace.RecordRX(raw, "")
	return payload, nil
}

func (r *Receiver) readByte(ctx context.Context) (byte, error) {
	for {
		if b, ok := r.decoder.Byte(); ok {
			return b, nil
		}
		g, err := r.bus.ReadGroup(ctx)
		if err != nil {
			return 0, err
		}
		if err := r.decoder.Push(g); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrConfiguration, err)
		}
	}
}

// ReceiveText receives one frame as text. Invalid UTF-8 is replaced with U+FFFD.
func (r *Receiver) ReceiveText(ctx context.Context) (string, error) {
	data, err := r.ReceiveFrame(ctx)
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(data), "\uFFFD"), nil
}

// ReceiveNumber receives one 4-byte big-endian number.
func (r *Receiver) ReceiveNumber(ctx context.Context) (uint32, error) {
	data, err := r.ReceiveFrame(ctx)
	if err != nil {
		return 0, err
	}
	if len(data) != 4 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidNumberLength, len(data))
	}
	return binary.BigEndian.Uint32(data), nil
}

// ReceiveFile receives a file header and its chunks and writes the file into
// outDir, returning its path. Frames are appended until at least the declared
// size has arrived.
//
// Data goes to a temporary file in outDir that replaces any existing file of
// the same name only once the transfer completes. On any error the temporary
// file is removed and an existing file is left untouched.
func (r *Receiver) ReceiveFile(ctx context.Context, outDir string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.receiveFile(ctx, outDir, 0, 1)
}

func (r *Receiver) receiveFile(ctx context.Context, outDir string, index, count int) (string, error) {
	payload, err := r.receiveFrame(ctx)
	if err != nil {
		return "", err
	}

	var hdr FileHeader
	if err := hdr.UnmarshalBinary(payload); err != nil {
		return "", r.trace.WrapError(err)
	}

	f, err := os.CreateTemp(outDir, "."+hdr.Name+".part-*")
	if err != nil {
		return "", fmt.Errorf("receive file: %w", err)
	}
	tmp := f.Name()

	if err := r.receiveChunks(ctx, f, hdr, index, count); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("receive file: %w", err)
	}

	dst := filepath.Join(outDir, hdr.Name)
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("receive file: %w", err)
	}
	return dst, nil
}

// receiveChunks appends chunk frames to f until hdr.Size bytes have arrived.
func (r *Receiver) receiveChunks(ctx context.Context, f *os.File, hdr FileHeader, index, count int) error {
	Debugf("receive file %q: %d bytes", hdr.Name, hdr.Size)
	start := time.Now()
	progress := Progress{Name: hdr.Name, FileIndex: index, FileCount: count, BytesTotal: int64(hdr.Size)}
	for progress.BytesDone < int64(hdr.Size) {
		chunk, err := r.receiveFrame(ctx)
		if err != nil {
			return err
		}
		if _, err := f.Write(chunk); err != nil {
			return fmt.Errorf("receive file: %w", err)
		}
		progress.BytesDone += int64(len(chunk))
		progress.Elapsed = time.Since(start)
		r.opts.report(progress)
	}
	return nil
}

// ReceiveFolder receives a folder header and then exactly that many files.
// On error the paths of files already completed are returned with it.
func (r *Receiver) ReceiveFolder(ctx context.Context, outDir string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	payload, err := r.receiveFrame(ctx)
	if err != nil {
		return nil, err
	}

	var hdr FolderHeader
	if err := hdr.UnmarshalBinary(payload); err != nil {
		return nil, r.trace.WrapError(err)
	}

	Debugf("receive folder: %d files", hdr.Count)
	paths := make([]string, 0, hdr.Count)
	for i := range hdr.Count {
		path, err := r.receiveFile(ctx, outDir, i, hdr.Count)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
