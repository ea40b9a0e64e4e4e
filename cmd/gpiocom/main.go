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

// Command gpiocom sends and receives text, numbers, files and folders over a
// clocked GPIO bus.
//
//	gpiocom -data 17,27,22 -clock 18 send-file ./photo.jpg
//	gpiocom -data 17,27,22 -clock 18 recv-file ./incoming
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ZaparooProject/go-gpiocom"
	"github.com/ZaparooProject/go-gpiocom/transport/modem"
	"github.com/ZaparooProject/go-gpiocom/transport/periph"
)

const usage = `usage: gpiocom [flags] <command> [argument]

commands:
  send-text TEXT       send one text frame
  send-number N        send a 32-bit unsigned number
  send-file PATH       send one file
  send-folder DIR      send every regular file in DIR
  recv-text            receive and print one text frame
  recv-number          receive and print one number
  recv-file [DIR]      receive one file into DIR (default .)
  recv-folder [DIR]    receive a folder into DIR (default .)
  ports                list serial ports for the modem backend

flags:
`

var commands = map[string]bool{
	"send-text": true, "send-number": true, "send-file": true, "send-folder": true,
	"recv-text": true, "recv-number": true, "recv-file": true, "recv-folder": true,
	"ports": true,
}

type config struct {
	bus        gpiocom.BusConfig
	configPath string
	backend    string
	logDir     string
	command    string
	args       []string
	nice       int
	debug      bool
	progress   bool
}

// parseConfig reads flags from args. A bus config file is applied first and
// explicitly set flags override it.
func parseConfig(args []string, stderr io.Writer) (*config, error) {
	fs := flag.NewFlagSet("gpiocom", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		_, _ = fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	defaults := gpiocom.DefaultBusConfig()
	cfg := &config{}
	var (
		controller string
		data       string
		clock      int
		delay      time.Duration
		poll       time.Duration
		timeout    time.Duration
	)
	fs.StringVar(&cfg.configPath, "config", "", "TOML bus configuration file")
	fs.StringVar(&cfg.backend, "backend", "periph", "line backend: periph or modem")
	fs.StringVar(&controller, "controller", defaults.Controller, "GPIO controller or serial port")
	fs.StringVar(&data, "data", joinLines(defaults.DataLines), "comma separated data lines, lowest bit first")
	fs.IntVar(&clock, "clock", defaults.ClockLine, "clock line")
	fs.DurationVar(&delay, "delay", defaults.Delay, "hold time after each clock edge")
	fs.DurationVar(&poll, "poll", defaults.PollInterval, "sleep between clock samples (0 yields instead)")
	fs.DurationVar(&timeout, "timeout", defaults.FrameTimeout, "per-frame receive timeout (0 waits forever)")
	fs.BoolVar(&cfg.debug, "debug", false, "Enable debug output")
	fs.StringVar(&cfg.logDir, "log", "", "write a JSON session log into this directory")
	fs.IntVar(&cfg.nice, "nice", 0, "process niceness while transferring (negative needs privileges)")
	fs.BoolVar(&cfg.progress, "progress", true, "print file transfer progress")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	cfg.bus = defaults
	if cfg.configPath != "" {
		loaded, err := gpiocom.LoadBusConfig(cfg.configPath)
		if err != nil {
			return nil, err
		}
		cfg.bus = loaded
	}

	var flagErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "controller":
			cfg.bus.Controller = controller
		case "data":
			lines, err := parseLines(data)
			if err != nil {
				flagErr = err
				return
			}
			cfg.bus.DataLines = lines
		case "clock":
			cfg.bus.ClockLine = clock
		case "delay":
			cfg.bus.Delay = delay
		case "poll":
			cfg.bus.PollInterval = poll
		case "timeout":
			cfg.bus.FrameTimeout = timeout
		}
	})
	if flagErr != nil {
		return nil, flagErr
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return nil, errors.New("no command given")
	}
	cfg.command = fs.Arg(0)
	cfg.args = fs.Args()[1:]
	if !commands[cfg.command] {
		fs.Usage()
		return nil, fmt.Errorf("unknown command: %s", cfg.command)
	}
	return cfg, nil
}

func parseLines(s string) ([]int, error) {
	fields := strings.Split(s, ",")
	lines := make([]int, 0, len(fields))
	for _, f := range fields {
		line, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, fmt.Errorf("invalid data line %q: %w", f, err)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func joinLines(lines []int) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = strconv.Itoa(l)
	}
	return strings.Join(parts, ",")
}

func newDriver(backend string) (gpiocom.Driver, error) {
	switch strings.ToLower(backend) {
	case "periph", "gpio":
		return periph.New(), nil
	case "modem", "serial":
		return modem.New(), nil
	default:
		return nil, fmt.Errorf("unsupported backend: %s", backend)
	}
}

func progressPrinter(out io.Writer) gpiocom.Option {
	return gpiocom.WithProgress(func(p gpiocom.Progress) {
		_, _ = fmt.Fprintf(out, "%s [%d/%d]: %d/%d bytes\n",
			p.Name, p.FileIndex+1, p.FileCount, p.BytesDone, p.BytesTotal)
	})
}

func wantArg(cfg *config) (string, error) {
	if len(cfg.args) != 1 {
		return "", fmt.Errorf("%s needs exactly one argument", cfg.command)
	}
	return cfg.args[0], nil
}

func outDir(cfg *config) string {
	if len(cfg.args) > 0 {
		return cfg.args[0]
	}
	return "."
}

func isSend(command string) bool {
	return strings.HasPrefix(command, "send-")
}

func runSend(ctx context.Context, cfg *config, drv gpiocom.Driver, out io.Writer) error {
	arg, err := wantArg(cfg)
	if err != nil {
		return err
	}

	var opts []gpiocom.Option
	if cfg.progress {
		opts = append(opts, progressPrinter(out))
	}
	tx, err := gpiocom.NewSender(drv, cfg.bus, opts...)
	if err != nil {
		return fmt.Errorf("failed to open bus: %w", err)
	}
	defer func() {
		if err := tx.Close(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Failed to close bus: %v\n", err)
		}
	}()

	switch cfg.command {
	case "send-text":
		err = tx.SendText(ctx, arg)
	case "send-number":
		n, parseErr := strconv.ParseUint(arg, 10, 32)
		if parseErr != nil {
			return fmt.Errorf("invalid number %q: %w", arg, parseErr)
		}
		err = tx.SendNumber(ctx, uint32(n)) //nolint:gosec // parsed with bitSize 32
	case "send-file":
		err = tx.SendFile(ctx, arg)
	case "send-folder":
		err = tx.SendFolder(ctx, arg)
	default:
		return fmt.Errorf("unknown command: %s", cfg.command)
	}
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "%s: done\n", cfg.command)
	return nil
}

func runReceive(ctx context.Context, cfg *config, drv gpiocom.Driver, out io.Writer) error {
	var opts []gpiocom.Option
	if cfg.progress {
		opts = append(opts, progressPrinter(out))
	}
	rx, err := gpiocom.NewReceiver(drv, cfg.bus, opts...)
	if err != nil {
		return fmt.Errorf("failed to open bus: %w", err)
	}
	defer func() {
		if err := rx.Close(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Failed to close bus: %v\n", err)
		}
	}()

	switch cfg.command {
	case "recv-text":
		text, err := rx.ReceiveText(ctx)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, text)
	case "recv-number":
		n, err := rx.ReceiveNumber(ctx)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, n)
	case "recv-file":
		path, err := rx.ReceiveFile(ctx, outDir(cfg))
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "received %s\n", path)
	case "recv-folder":
		paths, err := rx.ReceiveFolder(ctx, outDir(cfg))
		for _, p := range paths {
			_, _ = fmt.Fprintf(out, "received %s\n", p)
		}
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown command: %s", cfg.command)
	}
	return nil
}

func listPorts(out io.Writer) error {
	ports, err := modem.ListPorts()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		_, _ = fmt.Fprintln(out, "no serial ports found")
		return nil
	}
	for _, p := range ports {
		_, _ = fmt.Fprintln(out, p)
	}
	return nil
}

func run(ctx context.Context, cfg *config, drv gpiocom.Driver, out io.Writer) error {
	if cfg.command == "ports" {
		return listPorts(out)
	}
	if isSend(cfg.command) {
		return runSend(ctx, cfg, drv, out)
	}
	return runReceive(ctx, cfg, drv, out)
}

// setup applies the process-wide options: debug output, session log and niceness.
func setup(cfg *config) (cleanup func(), err error) {
	if cfg.debug {
		gpiocom.SetDebugEnabled(true)
		gpiocom.SetDebugOutput(os.Stderr)
	}

	cleanup = func() {}
	if cfg.logDir != "" {
		path, err := gpiocom.InitSessionLogIn(cfg.logDir)
		if err != nil {
			return nil, err
		}
		_, _ = fmt.Fprintf(os.Stderr, "Session log: %s\n", path)
		cleanup = func() { _ = gpiocom.CloseSessionLog() }
	}

	if cfg.nice != 0 {
		if err := periph.RaisePriority(cfg.nice); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}
	return cleanup, nil
}

func main() {
	os.Exit(mainWithExitCode(os.Args[1:]))
}

func mainWithExitCode(args []string) int {
	cfg, err := parseConfig(args, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	cleanup, err := setup(cfg)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer cleanup()

	drv, err := newDriver(cfg.backend)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	// Setup signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, drv, os.Stdout); err != nil {
		if errors.Is(err, context.Canceled) {
			// User requested shutdown, exit cleanly
			return 0
		}
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if te := gpiocom.GetTrace(err); te != nil && cfg.debug {
			_, _ = fmt.Fprint(os.Stderr, te.FormatTrace())
		}
		return 1
	}
	return 0
}
