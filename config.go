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
	"slices"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/ZaparooProject/go-gpiocom/internal/bitgroup"
)

// ChunkSize is the payload size of each file data frame.
const ChunkSize = 64

// BusConfig describes the physical bus. Sender and receiver must agree on the
// width, line order and delay out of band.
type BusConfig struct {
	// Controller identifies the GPIO controller, e.g. "gpiochip0" or a serial port path
	Controller string
	// DataLines are the data line numbers; index 0 carries the lowest bit of each group
	DataLines []int
	// ClockLine is the strobe line number
	ClockLine int
	// Delay is held after each clock edge
	Delay time.Duration
	// PollInterval is slept between clock samples while waiting for an edge.
	// Zero yields the processor instead of sleeping.
	PollInterval time.Duration
	// FrameTimeout bounds each received frame. Zero waits forever.
	FrameTimeout time.Duration
}

// DefaultBusConfig returns a three-wire bus on a Raspberry Pi header.
func DefaultBusConfig() BusConfig {
	return BusConfig{
		Controller: "gpiochip0",
		DataLines:  []int{17, 27, 22},
		ClockLine:  18,
		Delay:      time.Millisecond,
	}
}

// Width returns the number of data lines.
func (c BusConfig) Width() int {
	return len(c.DataLines)
}

// Validate checks the configuration and returns an error wrapping ErrConfiguration.
func (c BusConfig) Validate() error {
	if err := bitgroup.CheckWidth(c.Width()); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	if c.ClockLine < 0 {
		return fmt.Errorf("%w: clock line %d", ErrConfiguration, c.ClockLine)
	}

	seen := map[int]bool{c.ClockLine: true}
	for _, line := range c.DataLines {
		if line < 0 {
			return fmt.Errorf("%w: data line %d", ErrConfiguration, line)
		}
		if seen[line] {
			return fmt.Errorf("%w: line %d used twice", ErrConfiguration, line)
		}
		seen[line] = true
	}

	if c.Delay < 0 || c.PollInterval < 0 || c.FrameTimeout < 0 {
		return fmt.Errorf("%w: negative duration", ErrConfiguration)
	}
	return nil
}

// clone returns a copy that does not share the DataLines slice.
func (c BusConfig) clone() BusConfig {
	c.DataLines = slices.Clone(c.DataLines)
	return c
}

// busFile is the on-disk TOML layout of a BusConfig.
type busFile struct {
	Controller   *string `toml:"controller"`
	DataLines    []int   `toml:"data_lines"`
	ClockLine    *int    `toml:"clock_line"`
	Delay        string  `toml:"delay"`
	PollInterval string  `toml:"poll_interval"`
	FrameTimeout string  `toml:"frame_timeout"`
}

// LoadBusConfig reads a TOML bus description. Keys missing from the file keep
// their DefaultBusConfig values. Durations use time.ParseDuration syntax.
//
//	controller = "gpiochip0"
//	data_lines = [17, 27, 22]
//	clock_line = 18
//	delay = "1ms"
func LoadBusConfig(path string) (BusConfig, error) {
	var f busFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return BusConfig{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}

	cfg := DefaultBusConfig()
	if f.Controller != nil {
		cfg.Controller = *f.Controller
	}
	if f.DataLines != nil {
		cfg.DataLines = f.DataLines
	}
	if f.ClockLine != nil {
		cfg.ClockLine = *f.ClockLine
	}

	durations := []struct {
		dst  *time.Duration
		name string
		raw  string
	}{
		{dst: &cfg.Delay, name: "delay", raw: f.Delay},
		{dst: &cfg.PollInterval, name: "poll_interval", raw: f.PollInterval},
		{dst: &cfg.FrameTimeout, name: "frame_timeout", raw: f.FrameTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return BusConfig{}, fmt.Errorf("%w: %s: %w", ErrConfiguration, d.name, err)
		}
		*d.dst = v
	}

	if err := cfg.Validate(); err != nil {
		return BusConfig{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}
