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
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Session log state, guarded by logMu
var (
	sessionLogFile *os.File
	sessionLogPath string
)

// InitSessionLog creates a new JSON-lines session log in the current directory.
// Returns the log file path for display to the user.
func InitSessionLog() (string, error) {
	return InitSessionLogIn(".")
}

// InitSessionLogIn creates the session log in dir.
func InitSessionLogIn(dir string) (string, error) {
	timestamp := time.Now().Format("20060102_150405")
	path := filepath.Join(dir, fmt.Sprintf("gpiocom_%s.log", timestamp))

	logFile, err := os.Create(path) //nolint:gosec // filename is constructed internally
	if err != nil {
		return "", fmt.Errorf("failed to create session log: %w", err)
	}

	logger := zerolog.New(logFile).With().Timestamp().Logger()
	writeSessionHeader(&logger)

	logMu.Lock()
	prev := sessionLogFile
	sessionLogFile = logFile
	sessionLogPath = path
	sessionLog = &logger
	logMu.Unlock()

	if prev != nil {
		_ = prev.Close()
	}
	return path, nil
}

// CloseSessionLog writes the footer and closes the current session log.
func CloseSessionLog() error {
	logMu.Lock()
	logFile := sessionLogFile
	logger := sessionLog
	sessionLogFile = nil
	sessionLogPath = ""
	sessionLog = nil
	logMu.Unlock()

	if logFile == nil {
		return nil
	}
	logger.Info().Msg("session ended")
	if err := logFile.Close(); err != nil {
		return fmt.Errorf("failed to close session log: %w", err)
	}
	return nil
}

// GetSessionLogPath returns the current session log file path.
func GetSessionLogPath() string {
	logMu.Lock()
	defer logMu.Unlock()
	return sessionLogPath
}

// writeSessionHeader records metadata about the process at the top of the log.
func writeSessionHeader(logger *zerolog.Logger) {
	event := logger.Info().
		Int("pid", os.Getpid()).
		Str("os", runtime.GOOS+"/"+runtime.GOARCH).
		Str("go_version", runtime.Version()).
		Str("command_line", strings.Join(os.Args, " "))
	if exe, err := os.Executable(); err == nil {
		event = event.Str("executable", exe)
	}
	event.Msg("session started")
}
