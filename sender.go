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
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/ZaparooProject/go-gpiocom/internal/bitgroup"
	"github.com/ZaparooProject/go-gpiocom/internal/frame"
	"github.com/ZaparooProject/go-gpiocom/internal/syncutil"
)

// Sender owns the driving side of a bus.
type Sender struct {
	bus   *Bus
	trace *TraceBuffer
	opts  sessionOptions
	mu    syncutil.Mutex
}

// NewSender opens the controller in cfg and claims every line as an output.
func NewSender(driver Driver, cfg BusConfig, opts ...Option) (*Sender, error) {
	o := defaultSessionOptions()
	for _, opt := range opts {
		opt(&o)
	}

	bus, err := OpenBus(driver, cfg, RoleSender)
	if err != nil {
		return nil, err
	}
	return &Sender{
		bus:   bus,
		trace: NewTraceBuffer(cfg.Controller, o.traceSize),
		opts:  o,
	}, nil
}

// Close releases the controller. It is safe to call more than once.
func (s *Sender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bus.Close()
}

// Config returns the bus configuration.
func (s *Sender) Config() BusConfig {
	return s.bus.Config()
}

// SendFrame sends payload as one frame.
//
// Payloads for which frame.Framable is false are still sent, because the
// wire format has no escaping; the receiver will reject or truncate them.
//
//nolint:wrapcheck // WrapError intentionally wraps errors with trace data
func (s *Sender) SendFrame(ctx context.Context, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sendFrame(ctx, payload, "")
}

func (s *Sender) sendFrame(ctx context.Context, payload []byte, note string) error {
	if !frame.Framable(payload) {
		Debugf("frame of %d bytes contains STOP in payload or checksum; receiver will not decode it", len(payload))
	}

	raw := frame.Encode(payload)
	s.trace.RecordTX(raw, note)
	for _, b := range raw {
		if err := s.sendByte(ctx, b); err != nil {
			return s.trace.WrapError(err)
		}
	}
	return nil
}

func (s *Sender) sendByte(ctx context.Context, b byte) error {
	groups, err := bitgroup.Encode(b, s.bus.Width())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	for _, g := range groups {
		if err := s.bus.WriteGroup(ctx, g); err != nil {
			return err
		}
	}
	return nil
}

// SendText sends text as UTF-8 in a single frame.
func (s *Sender) SendText(ctx context.Context, text string) error {
	return s.SendFrame(ctx, []byte(text))
}

// SendNumber sends n as a 4-byte big-endian frame.
func (s *Sender) SendNumber(ctx context.Context, n uint32) error {
	return s.SendFrame(ctx, binary.BigEndian.AppendUint32(nil, n))
}

// SendFile sends a file header frame followed by ChunkSize data frames.
// Empty files are sent as a header alone.
func (s *Sender) SendFile(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sendFile(ctx, path, 0, 1)
}

func (s *Sender) sendFile(ctx context.Context, path string, index, count int) error {
	f, err := os.Open(path) //nolint:gosec // caller chooses the file to send
	if err != nil {
		return fmt.Errorf("send file: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("send file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("send file %s: not a regular file", path)
	}
	if info.Size() > math.MaxUint32 {
		return fmt.Errorf("send file %s: %w: %d bytes", path, ErrFileTooLarge, info.Size())
	}

	hdr := FileHeader{Name: filepath.Base(path), Size: uint32(info.Size())} //nolint:gosec // bounded above
	payload, err := hdr.MarshalBinary()
	if err != nil {
		return fmt.Errorf("send file %s: %w", path, err)
	}

	Debugf("send file %q: %d bytes", hdr.Name, hdr.Size)
	start := time.Now()
	if err := s.sendFrame(ctx, payload, "file header "+hdr.Name); err != nil {
		return err
	}

	progress := Progress{Name: hdr.Name, FileIndex: index, FileCount: count, BytesTotal: int64(hdr.Size)}
	r := io.LimitReader(f, int64(hdr.Size))
	buf := make([]byte, ChunkSize)
	for {
		n, readErr := io.ReadFull(r, buf)
		if n > 0 {
			if err := s.sendFrame(ctx, buf[:n], ""); err != nil {
				return err
			}
			progress.BytesDone += int64(n)
			progress.Elapsed = time.Since(start)
			s.opts.report(progress)
		}
		if errors.Is(readErr, io.EOF) || errors.Is(readErr, io.ErrUnexpectedEOF) {
			break
		}
		if readErr != nil {
			return fmt.Errorf("send file %s: %w", path, readErr)
		}
	}

	if progress.BytesDone != int64(hdr.Size) {
		return fmt.Errorf("send file %s: %w: file shrank to %d of %d bytes",
			path, io.ErrUnexpectedEOF, progress.BytesDone, hdr.Size)
	}
	return nil
}

// SendFolder sends every regular file directly inside dir. Symlinks are
// followed; subdirectories are skipped. Files go out in os.ReadDir order.
func (s *Sender) SendFolder(ctx context.Context, dir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := listFiles(dir)
	if err != nil {
		return err
	}

	payload, err := FolderHeader{Count: len(files)}.MarshalBinary()
	if err != nil {
		return fmt.Errorf("send folder %s: %w", dir, err)
	}

	Debugf("send folder %q: %d files", dir, len(files))
	if err := s.sendFrame(ctx, payload, "folder header"); err != nil {
		return err
	}
	for i, path := range files {
		if err := s.sendFile(ctx, path, i, len(files)); err != nil {
			return err
		}
	}
	return nil
}

func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("send folder: %w", err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			Debugf("send folder: skipping %s", path)
			continue
		}
		files = append(files, path)
	}
	return files, nil
}
