// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bin holds the standard user programs.
//
// A program runs only if the file system also holds an executable
// file of the same name; Install writes one for each program
// that does not have one yet.
package bin

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sluminis/pintos/fsys"
	"github.com/sluminis/pintos/kernel"
	"github.com/sluminis/pintos/usys"
)

var programs = map[string]func(p *usys.Proc, args []string) int{
	"args":     printArgs,
	"cat":      cat,
	"cp":       cp,
	"echo":     echo,
	"halt":     halt,
	"practice": practice,
	"rm":       rm,
	"sh":       sh,
	"touch":    touch,
}

// Programs returns the standard programs by name.
func Programs() map[string]kernel.Program {
	m := make(map[string]kernel.Program)
	for name, fn := range programs {
		m[name] = usys.Main(fn)
	}
	return m
}

// Install registers the standard programs with sys and writes an
// executable file into fs for each one that fs does not yet have.
func Install(sys *kernel.System, fs *fsys.FS) error {
	for name, prog := range Programs() {
		sys.Programs[name] = prog
		if _, err := fs.ReadFile(name); err == nil {
			continue
		}
		if err := fs.WriteFile(name, []byte("#!pintos "+name+"\n")); err != nil && !errors.Is(err, fsys.ErrExist) {
			return err
		}
	}
	return nil
}

func printArgs(p *usys.Proc, args []string) int {
	for i, arg := range args {
		p.Print(fmt.Sprintf("argv[%d] = '%s'\n", i, arg))
	}
	return 0
}

func echo(p *usys.Proc, args []string) int {
	p.Print(strings.Join(args[1:], " ") + "\n")
	return 0
}

func halt(p *usys.Proc, args []string) int {
	p.Halt()
	return 0
}

func practice(p *usys.Proc, args []string) int {
	status := 0
	for _, arg := range args[1:] {
		i, err := strconv.Atoi(arg)
		if err != nil {
			p.Print(fmt.Sprintf("practice: bad number %q\n", arg))
			status = 1
			continue
		}
		p.Print(fmt.Sprintf("practice(%d) = %d\n", i, p.Practice(i)))
	}
	return status
}

func cat(p *usys.Proc, args []string) int {
	status := 0
	for _, name := range args[1:] {
		fd := p.Open(name)
		if fd < 0 {
			p.Print("cat: " + name + ": cannot open\n")
			status = 1
			continue
		}
		for {
			b := p.ReadBytes(fd, 512)
			if len(b) == 0 {
				break
			}
			p.WriteBytes(1, b)
		}
		p.Close(fd)
	}
	return status
}

func cp(p *usys.Proc, args []string) int {
	if len(args) != 3 {
		p.Print("usage: cp src dst\n")
		return 1
	}
	src := p.Open(args[1])
	if src < 0 {
		p.Print("cp: " + args[1] + ": cannot open\n")
		return 1
	}
	defer p.Close(src)
	if !p.Create(args[2], p.Filesize(src)) {
		p.Print("cp: " + args[2] + ": cannot create\n")
		return 1
	}
	dst := p.Open(args[2])
	if dst < 0 {
		p.Print("cp: " + args[2] + ": cannot open\n")
		return 1
	}
	defer p.Close(dst)
	for {
		b := p.ReadBytes(src, 512)
		if len(b) == 0 {
			return 0
		}
		if p.WriteBytes(dst, b) != len(b) {
			p.Print("cp: " + args[2] + ": short write\n")
			return 1
		}
	}
}

func rm(p *usys.Proc, args []string) int {
	status := 0
	for _, name := range args[1:] {
		if !p.Remove(name) {
			p.Print("rm: " + name + ": cannot remove\n")
			status = 1
		}
	}
	return status
}

// touch creates each named file with the size given by -s (default 0).
func touch(p *usys.Proc, args []string) int {
	size := 0
	args = args[1:]
	if len(args) >= 2 && args[0] == "-s" {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 0 {
			p.Print("touch: bad size " + args[1] + "\n")
			return 1
		}
		size = n
		args = args[2:]
	}
	status := 0
	for _, name := range args {
		if !p.Create(name, size) {
			p.Print("touch: " + name + ": cannot create\n")
			status = 1
		}
	}
	return status
}
