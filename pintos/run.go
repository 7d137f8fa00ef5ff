// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/pprof"
	"strings"

	"github.com/google/subcommands"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/sluminis/pintos/bin"
	"github.com/sluminis/pintos/fsys"
	"github.com/sluminis/pintos/kernel"
)

// runCmd boots a machine and runs one command line on it.
type runCmd struct {
	fs          string
	disk        string
	trace       bool
	verbose     bool
	maxfd       int
	lenient     bool
	killUnknown bool
	hostmem     bool
	cpuprofile  string
}

// Name implements subcommands.Command.Name.
func (*runCmd) Name() string { return "run" }

// Synopsis implements subcommands.Command.Synopsis.
func (*runCmd) Synopsis() string { return "run a user program" }

// Usage implements subcommands.Command.Usage.
func (*runCmd) Usage() string {
	return `run [flags] [command line]

Run boots a machine with the standard programs installed, runs the
command line (default sh) and powers off when it exits. The exit
status is the program's. Typing ^\ stops the machine at once.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (c *runCmd) SetFlags(f *flag.FlagSet) {
	def := kernel.DefaultConfig()
	f.StringVar(&c.fs, "fs", "", "load the txtar disk `file` when -disk is unset or empty")
	f.StringVar(&c.disk, "disk", "", "load the database disk `file` and save it back at power off")
	f.BoolVar(&c.trace, "trace", false, "log every system call")
	f.BoolVar(&c.verbose, "v", false, "log process events")
	f.IntVar(&c.maxfd, "maxfd", def.MaxFD, "descriptor table size per process")
	f.BoolVar(&c.lenient, "lenient", false, "accept user strings that end exactly at a page boundary")
	f.BoolVar(&c.killUnknown, "killunknown", false, "terminate processes that make unknown system calls")
	f.BoolVar(&c.hostmem, "hostmem", false, "back user memory with host pages")
	f.StringVar(&c.cpuprofile, "cpuprofile", "", "write cpuprofile to `file`")
}

// Execute implements subcommands.Command.Execute.
func (c *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if c.cpuprofile != "" {
		pf, err := os.Create(c.cpuprofile)
		if err != nil {
			return fatalf("%v", err)
		}
		if err := pprof.StartCPUProfile(pf); err != nil {
			return fatalf("%v", err)
		}
		defer pprof.StopCPUProfile()
	}

	fs, err := c.loadDisk()
	if err != nil {
		return fatalf("%v", err)
	}

	cfg := kernel.DefaultConfig()
	cfg.MaxFD = c.maxfd
	cfg.Lenient = c.lenient
	cfg.KillUnknown = c.killUnknown
	cfg.Trace = c.trace
	cfg.HostMemory = c.hostmem

	var out io.Writer = os.Stdout
	stdin := int(os.Stdin.Fd())
	raw := isatty.IsTerminal(os.Stdin.Fd())
	if raw {
		old, err := term.MakeRaw(stdin)
		if err != nil {
			return fatalf("%v", err)
		}
		defer term.Restore(stdin, old)
		out = crlfWriter{os.Stdout}
	}

	log, err := newLogger(c.verbose, c.trace, raw)
	if err != nil {
		return fatalf("%v", err)
	}
	defer log.Sync()

	console := kernel.NewConsole(out)
	sys, err := kernel.NewSystem(kernel.Disk(fs), console, cfg)
	if err != nil {
		return fatalf("%v", err)
	}
	sys.Log = log
	if err := bin.Install(sys, fs); err != nil {
		return fatalf("%v", err)
	}

	cmdline := strings.Join(f.Args(), " ")
	if cmdline == "" {
		cmdline = "sh"
	}

	// Stdin reads cannot be interrupted, so the pump
	// runs outside the group and dies with the process.
	quit := make(chan struct{})
	go pump(os.Stdin, console, quit)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	g, ctx := errgroup.WithContext(ctx)

	var status int32
	g.Go(func() error {
		defer cancel()
		var err error
		status, err = sys.Run(cmdline)
		if errors.Is(err, kernel.ErrPowerOff) {
			err = nil
		}
		return err
	})
	g.Go(func() error {
		select {
		case <-ctx.Done():
		case <-quit:
			log.Info("quit from console")
		}
		sys.PowerOff()
		return nil
	})
	err = g.Wait()
	sys.Wait()

	if c.disk != "" {
		if serr := fs.Save(c.disk); serr != nil && err == nil {
			err = serr
		}
	}
	if err != nil {
		return fatalf("%v", err)
	}
	if status != 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// loadDisk returns the file system named by -disk and -fs.
func (c *runCmd) loadDisk() (*fsys.FS, error) {
	fs := fsys.New()
	if c.disk != "" {
		var err error
		if fs, err = fsys.LoadDB(c.disk); err != nil {
			return nil, err
		}
	}
	if c.fs != "" && len(fs.Names()) == 0 {
		data, err := os.ReadFile(c.fs)
		if err != nil {
			return nil, err
		}
		if fs, err = fsys.Load(data); err != nil {
			return nil, fmt.Errorf("%s: %v", c.fs, err)
		}
	}
	return fs, nil
}

// pump feeds r to the console until end of input,
// which arrives as ^D. A ^\ closes quit.
func pump(r io.Reader, console *kernel.Console, quit chan<- struct{}) {
	buf := make([]byte, 100)
	for {
		n, err := r.Read(buf)
		b := buf[:n]
		if i := bytes.IndexByte(b, 0x1c); i >= 0 {
			console.Feed(b[:i])
			close(quit)
			return
		}
		console.Feed(b)
		if err != nil {
			console.Feed([]byte{'D' - '@'})
			return
		}
	}
}

// A crlfWriter turns \n into \r\n for a terminal in raw mode.
type crlfWriter struct {
	w io.Writer
}

func (c crlfWriter) Write(b []byte) (int, error) {
	if _, err := c.w.Write(bytes.ReplaceAll(b, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(b), nil
}

// newLogger returns a console logger on standard error.
func newLogger(verbose, debug, raw bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	cfg.DisableCaller = true
	cfg.EncoderConfig.TimeKey = ""
	if raw {
		cfg.EncoderConfig.LineEnding = "\r\n"
	}
	switch {
	case debug:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case verbose:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	return cfg.Build()
}
