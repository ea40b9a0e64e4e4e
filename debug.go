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
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/ZaparooProject/go-gpiocom/internal/syncutil"
)

const debugTimeFormat = "15:04:05.000"

var (
	logMu syncutil.Mutex

	// debugEnabled controls whether debug output reaches the console
	debugEnabled = false

	consoleLog = newConsoleLogger(os.Stdout)
	sessionLog *zerolog.Logger
)

func init() {
	// Enable debug logging if GPIOCOM_DEBUG or DEBUG environment variable is set
	if os.Getenv("GPIOCOM_DEBUG") != "" || os.Getenv("DEBUG") != "" {
		debugEnabled = true
	}
}

func newConsoleLogger(out io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: debugTimeFormat}).
		With().Timestamp().Logger()
}

// Debugf logs a debug message.
// Always written to the session log (if initialized); printed to the console
// only when debug mode is enabled.
func Debugf(format string, args ...any) {
	emit(fmt.Sprintf(format, args...))
}

// Debugln logs a debug message built like fmt.Sprint.
func Debugln(args ...any) {
	emit(fmt.Sprint(args...))
}

func emit(message string) {
	// Writes happen under logMu so CloseSessionLog cannot close the file mid-write.
	logMu.Lock()
	defer logMu.Unlock()

	if sessionLog != nil {
		sessionLog.Debug().Msg(message)
	}
	if debugEnabled {
		consoleLog.Debug().Msg(message)
	}
}

// SetDebugEnabled allows programmatic control of debug logging
func SetDebugEnabled(enabled bool) {
	logMu.Lock()
	debugEnabled = enabled
	logMu.Unlock()
}

// DebugEnabled reports whether console debug output is on.
func DebugEnabled() bool {
	logMu.Lock()
	defer logMu.Unlock()
	return debugEnabled
}

// SetDebugOutput redirects console debug output, e.g. to os.Stderr.
func SetDebugOutput(w io.Writer) {
	logMu.Lock()
	consoleLog = newConsoleLogger(w)
	logMu.Unlock()
}
