// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Pintos runs user programs on the simulated Pintos kernel
// and manages the disks they run on.
//
// Usage:
//
//	pintos run [flags] [command line]
//	pintos mkdisk [-x] input output
//	pintos ls disk.db
//
// A disk is either a txtar archive, one file per entry, or a bbolt
// database written by mkdisk or by run -disk. The command line
// defaults to sh, which reads commands from the console.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/subcommands"
)

func main() {
	log.SetPrefix("pintos: ")
	log.SetFlags(0)

	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(new(runCmd), "")
	subcommands.Register(new(mkdiskCmd), "disk")
	subcommands.Register(new(lsCmd), "disk")

	flag.Parse()
	os.Exit(int(subcommands.Execute(context.Background())))
}

// fatalf prints a message and returns a failure status.
func fatalf(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "pintos: "+format+"\n", args...)
	return subcommands.ExitFailure
}
