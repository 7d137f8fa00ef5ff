// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"github.com/sluminis/pintos/fsys"
)

// mkdiskCmd converts between txtar and bbolt disks.
type mkdiskCmd struct {
	extract bool
}

// Name implements subcommands.Command.Name.
func (*mkdiskCmd) Name() string { return "mkdisk" }

// Synopsis implements subcommands.Command.Synopsis.
func (*mkdiskCmd) Synopsis() string { return "convert a txtar disk to a database disk" }

// Usage implements subcommands.Command.Usage.
func (*mkdiskCmd) Usage() string {
	return `mkdisk [-x] input output

Mkdisk reads the txtar disk input and writes its files to the
database disk output, replacing any files already there.
With -x, input is a database disk and output is a txtar file
(- for standard output).
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (c *mkdiskCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.extract, "x", false, "extract a database disk to txtar")
}

// Execute implements subcommands.Command.Execute.
func (c *mkdiskCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() != 2 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	in, out := f.Arg(0), f.Arg(1)

	if c.extract {
		fs, err := fsys.LoadDB(in)
		if err != nil {
			return fatalf("%v", err)
		}
		if out == "-" {
			_, err = os.Stdout.Write(fs.Archive())
		} else {
			err = os.WriteFile(out, fs.Archive(), 0o666)
		}
		if err != nil {
			return fatalf("%v", err)
		}
		return subcommands.ExitSuccess
	}

	data, err := os.ReadFile(in)
	if err != nil {
		return fatalf("%v", err)
	}
	fs, err := fsys.Load(data)
	if err != nil {
		return fatalf("%s: %v", in, err)
	}
	if err := fs.Save(out); err != nil {
		return fatalf("%v", err)
	}
	return subcommands.ExitSuccess
}

// lsCmd lists the files on a database disk.
type lsCmd struct{}

// Name implements subcommands.Command.Name.
func (*lsCmd) Name() string { return "ls" }

// Synopsis implements subcommands.Command.Synopsis.
func (*lsCmd) Synopsis() string { return "list the files on a database disk" }

// Usage implements subcommands.Command.Usage.
func (*lsCmd) Usage() string { return "ls disk.db\n" }

// SetFlags implements subcommands.Command.SetFlags.
func (*lsCmd) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*lsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	fs, err := fsys.LoadDB(f.Arg(0))
	if err != nil {
		return fatalf("%v", err)
	}
	if err := list(os.Stdout, fs); err != nil {
		return fatalf("%v", err)
	}
	return subcommands.ExitSuccess
}

// list prints the name and size of each file in fs,
// followed by the total.
func list(w io.Writer, fs *fsys.FS) error {
	for _, name := range fs.Names() {
		data, err := fs.ReadFile(name)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%8d %s\n", len(data), name); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%8d total\n", fs.Used())
	return err
}
