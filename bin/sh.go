// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bin

import (
	"fmt"
	"strings"

	"github.com/sluminis/pintos/usys"
)

// readLine reads a line from the console, echoing as it goes.
// It reports false at end of input (^D on an empty line).
func readLine(p *usys.Proc) (string, bool) {
	var line []byte
	for {
		c := p.ReadBytes(0, 1)[0]
		switch c {
		case '\r', '\n':
			p.Print("\n")
			return string(line), true
		case '\b', 0x7F:
			if len(line) > 0 {
				line = line[:len(line)-1]
				p.Print("\b \b")
			}
		case 'D' - '@':
			if len(line) == 0 {
				return "", false
			}
		case 'U' - '@':
			p.Print(strings.Repeat("\b \b", len(line)))
			line = line[:0]
		default:
			line = append(line, c)
			p.WriteBytes(1, []byte{c})
		}
	}
}

// sh runs each command line typed at the console and waits for it.
func sh(p *usys.Proc, args []string) int {
	for {
		p.Print("$ ")
		line, ok := readLine(p)
		if !ok {
			p.Print("\n")
			return 0
		}
		f := strings.Fields(line)
		if len(f) == 0 {
			continue
		}
		switch f[0] {
		case "exit":
			return 0
		case "wait":
			// wait pid: reap a child started with &.
			if len(f) == 2 {
				var pid int
				fmt.Sscan(f[1], &pid)
				p.Print(fmt.Sprintf("%d\n", p.Wait(pid)))
			}
			continue
		}
		line = strings.TrimSpace(line)
		background := strings.HasSuffix(line, "&")
		line = strings.TrimSuffix(line, "&")
		pid := p.Exec(line)
		if pid < 0 {
			p.Print("sh: " + f[0] + ": exec failed\n")
			continue
		}
		if background {
			p.Print(fmt.Sprintf("[%d]\n", pid))
			continue
		}
		p.Wait(pid)
	}
}
