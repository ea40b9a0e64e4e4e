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
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ZaparooProject/go-gpiocom/internal/bitgroup"
	"github.com/ZaparooProject/go-gpiocom/internal/frame"
)

// Protocol errors. Every operation either succeeds or fails with an error
// matching one of these; nothing is retried internally.
var (
	// ErrConfiguration reports an unusable bus configuration.
	ErrConfiguration = errors.New("invalid bus configuration")
	// ErrResource reports a failure to open, claim or release the controller.
	ErrResource = errors.New("gpio resource error")

	// ErrChecksumMismatch reports a frame whose checksum byte does not match its payload.
	ErrChecksumMismatch = frame.ErrChecksumMismatch
	// ErrEmptyFrame reports a frame with STOP directly after START.
	ErrEmptyFrame = frame.ErrEmptyFrame
	// ErrInvalidNumberLength reports a number frame whose payload is not 4 bytes.
	ErrInvalidNumberLength = errors.New("invalid number length")
	// ErrMalformedHeader reports a file or folder header that cannot be parsed.
	ErrMalformedHeader = errors.New("malformed transfer header")
	// ErrFileTooLarge reports a file or folder that does not fit the header fields.
	ErrFileTooLarge = errors.New("file too large for transfer header")

	// ErrBusClosed reports use of a session after Close.
	ErrBusClosed = errors.New("bus is closed")
	// ErrWrongRole reports reading on a sending bus or writing on a receiving one.
	ErrWrongRole = errors.New("operation not allowed for bus role")
	// ErrTimeout reports a wait on the clock line that was cancelled or timed out.
	ErrTimeout = errors.New("bus timeout")
)

// ErrorKind classifies errors returned by this package.
type ErrorKind int

const (
	// KindNone is the kind of a nil error.
	KindNone ErrorKind = iota
	// KindConfiguration covers ErrConfiguration.
	KindConfiguration
	// KindChecksumMismatch covers ErrChecksumMismatch.
	KindChecksumMismatch
	// KindEmptyFrame covers ErrEmptyFrame.
	KindEmptyFrame
	// KindInvalidNumberLength covers ErrInvalidNumberLength.
	KindInvalidNumberLength
	// KindResource covers ErrResource and chip I/O failures.
	KindResource
	// KindMalformedHeader covers ErrMalformedHeader and ErrFileTooLarge.
	KindMalformedHeader
	// KindTimeout covers ErrTimeout and context cancellation.
	KindTimeout
	// KindUsage covers ErrBusClosed and ErrWrongRole.
	KindUsage
	// KindIO covers local filesystem failures during transfers.
	KindIO
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindConfiguration:
		return "configuration"
	case KindChecksumMismatch:
		return "checksum mismatch"
	case KindEmptyFrame:
		return "empty frame"
	case KindInvalidNumberLength:
		return "invalid number length"
	case KindResource:
		return "resource"
	case KindMalformedHeader:
		return "malformed header"
	case KindTimeout:
		return "timeout"
	case KindUsage:
		return "usage"
	case KindIO:
		return "io"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// KindOf classifies err. Errors not produced by the protocol layer, such as
// filesystem errors during a transfer, are KindIO.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var be *BusError
	if errors.As(err, &be) && be.Kind != KindNone {
		return be.Kind
	}

	switch {
	case errors.Is(err, ErrConfiguration), errors.Is(err, bitgroup.ErrInvalidWidth):
		return KindConfiguration
	case errors.Is(err, ErrChecksumMismatch):
		return KindChecksumMismatch
	case errors.Is(err, ErrEmptyFrame):
		return KindEmptyFrame
	case errors.Is(err, ErrInvalidNumberLength):
		return KindInvalidNumberLength
	case errors.Is(err, ErrResource):
		return KindResource
	case errors.Is(err, ErrMalformedHeader), errors.Is(err, ErrFileTooLarge):
		return KindMalformedHeader
	case errors.Is(err, ErrTimeout),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, ErrBusClosed), errors.Is(err, ErrWrongRole):
		return KindUsage
	default:
		return KindIO
	}
}

// BusError wraps a failure on a specific controller line with context.
type BusError struct {
	Err        error     // Underlying error
	Op         string    // Operation that failed
	Controller string    // Controller identifier
	Line       int       // Line number, -1 when not line specific
	Kind       ErrorKind // Error category
}

func (e *BusError) Error() string {
	if e.Line >= 0 {
		return fmt.Sprintf("%s %s line %d: %v", e.Op, e.Controller, e.Line, e.Err)
	}
	if e.Controller != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Controller, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *BusError) Unwrap() error {
	return e.Err
}

// NewResourceError wraps a controller failure as a resource error.
func NewResourceError(op, controller string, line int, err error) *BusError {
	return &BusError{
		Op:         op,
		Controller: controller,
		Line:       line,
		Err:        fmt.Errorf("%w: %w", ErrResource, err),
		Kind:       KindResource,
	}
}

// NewTimeoutError wraps a cancelled wait on the clock line.
func NewTimeoutError(op, controller string, line int, cause error) *BusError {
	return &BusError{
		Op:         op,
		Controller: controller,
		Line:       line,
		Err:        fmt.Errorf("%w: %w", ErrTimeout, cause),
		Kind:       KindTimeout,
	}
}

// =============================================================================
// Frame Trace
// =============================================================================
// TraceableError embeds the most recent frames in errors so callers can see
// what was on the wire when a transfer failed.

// TraceDirection indicates the direction of a traced frame
type TraceDirection string

const (
	// TraceTX indicates a frame sent on the bus
	TraceTX TraceDirection = "TX"
	// TraceRX indicates a frame received from the bus
	TraceRX TraceDirection = "RX"
)

// TraceEntry represents one frame seen on the bus
type TraceEntry struct {
	Timestamp time.Time
	Direction TraceDirection
	Note      string
	Data      []byte
}

// String formats a trace entry for display
func (e TraceEntry) String() string {
	hexData := formatHexBytes(e.Data)
	if e.Note != "" {
		return fmt.Sprintf("[%s] %s: %s (%s)", e.Timestamp.Format("15:04:05.000"), e.Direction, hexData, e.Note)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Timestamp.Format("15:04:05.000"), e.Direction, hexData)
}

// TraceableError wraps an error with the frames that preceded it.
//
//	var te *gpiocom.TraceableError
//	if errors.As(err, &te) {
//	    log.Printf("Frame trace:\n%s", te.FormatTrace())
//	}
type TraceableError struct {
	Err        error
	Controller string
	Trace      []TraceEntry
}

// Error implements the error interface
func (e *TraceableError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/As compatibility
func (e *TraceableError) Unwrap() error {
	return e.Err
}

// FormatTrace returns a human-readable formatted trace log
func (e *TraceableError) FormatTrace() string {
	if len(e.Trace) == 0 {
		return fmt.Sprintf("[%s] (no trace data)", e.Controller)
	}

	var sb strings.Builder
	_, _ = sb.WriteString(fmt.Sprintf("[%s] Frame trace (%d entries):\n", e.Controller, len(e.Trace)))
	for _, entry := range e.Trace {
		direction := ">"
		if entry.Direction == TraceRX {
			direction = "<"
		}
		if entry.Note != "" {
			_, _ = sb.WriteString(fmt.Sprintf("  %s %s (%s)\n", direction, formatHexBytes(entry.Data), entry.Note))
		} else {
			_, _ = sb.WriteString(fmt.Sprintf("  %s %s\n", direction, formatHexBytes(entry.Data)))
		}
	}
	return sb.String()
}

// formatHexBytes formats a byte slice as space-separated hex values
func formatHexBytes(data []byte) string {
	if len(data) == 0 {
		return "(empty)"
	}
	n := min(len(data), 32)
	parts := make([]string, n)
	for i := range n {
		parts[i] = fmt.Sprintf("%02X", data[i])
	}
	if len(data) > n {
		return strings.Join(parts, " ") + fmt.Sprintf(" ... (%d bytes total)", len(data))
	}
	return strings.Join(parts, " ")
}

// TraceBuffer keeps the last few frames of a session in a fixed-size ring.
type TraceBuffer struct {
	controller string
	entries    []TraceEntry
	maxSize    int
}

// NewTraceBuffer creates a new trace buffer with the specified capacity
func NewTraceBuffer(controller string, maxSize int) *TraceBuffer {
	if maxSize <= 0 {
		maxSize = 16
	}
	return &TraceBuffer{
		entries:    make([]TraceEntry, 0, maxSize),
		maxSize:    maxSize,
		controller: controller,
	}
}

// RecordTX records a frame written to the bus
func (tb *TraceBuffer) RecordTX(data []byte, note string) {
	tb.record(TraceTX, data, note)
}

// RecordRX records a frame read from the bus
func (tb *TraceBuffer) RecordRX(data []byte, note string) {
	tb.record(TraceRX, data, note)
}

// record adds an entry to the buffer, evicting oldest if full
func (tb *TraceBuffer) record(dir TraceDirection, data []byte, note string) {
	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)

	entry := TraceEntry{
		Direction: dir,
		Data:      dataCopy,
		Timestamp: time.Now(),
		Note:      note,
	}

	if len(tb.entries) >= tb.maxSize {
		copy(tb.entries, tb.entries[1:])
		tb.entries[len(tb.entries)-1] = entry
	} else {
		tb.entries = append(tb.entries, entry)
	}
}

// Entries returns a copy of the recorded entries, oldest first.
func (tb *TraceBuffer) Entries() []TraceEntry {
	out := make([]TraceEntry, len(tb.entries))
	copy(out, tb.entries)
	return out
}

// WrapError wraps an error with the collected trace data.
// Returns nil if err is nil.
func (tb *TraceBuffer) WrapError(err error) error {
	if err == nil {
		return nil
	}
	return &TraceableError{
		Err:        err,
		Trace:      tb.Entries(),
		Controller: tb.controller,
	}
}

// Clear resets the trace buffer
func (tb *TraceBuffer) Clear() {
	tb.entries = tb.entries[:0]
}

// GetTrace extracts trace data from an error, returning nil if not present
func GetTrace(err error) *TraceableError {
	var te *TraceableError
	if errors.As(err, &te) {
		return te
	}
	return nil
}
