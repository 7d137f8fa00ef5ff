// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kernel

import (
	"github.com/sluminis/pintos/fdtable"
	"github.com/sluminis/pintos/vm"
)

func (p *Proc) copyIn(addr vm.Addr, n uint32) []byte {
	b := make([]byte, n)
	if err := p.chk.CopyIn(b, addr); err != nil {
		p.terminate(ExitFailure)
	}
	return b
}

func (p *Proc) copyOut(addr vm.Addr, b []byte) {
	if err := p.chk.CopyOut(addr, b); err != nil {
		p.terminate(ExitFailure)
	}
}

/*
 * read system call.
 * Reads from the console return only once
 * every requested keystroke has arrived.
 */
func sysread(p *Proc) {
	n := p.Args[2]
	buf := p.buf(1, n, true)
	switch int32(p.Args[0]) {
	case fdtable.Stdin:
		for i := uint32(0); i < n; i++ {
			c, err := p.Sys.Console.ReadByte()
			if err != nil {
				panic(haltUnwind{})
			}
			p.copyOut(buf+vm.Addr(i), []byte{c})
		}
		p.ret(int32(n))
	case fdtable.Stdout, fdtable.Reserved:
		p.ret(-1)
	default:
		fd := p.fd(0)
		b := make([]byte, n)
		var k int
		p.Sys.gate.do(func() {
			k = p.getf(fd).Read(b)
		})
		p.copyOut(buf, b[:k])
		p.ret(int32(k))
	}
}

/*
 * write system call.
 * A console write is displayed as one chunk.
 */
func syswrite(p *Proc) {
	n := p.Args[2]
	buf := p.buf(1, n, false)
	switch int32(p.Args[0]) {
	case fdtable.Stdout:
		p.Sys.Console.Write(p.copyIn(buf, n))
		p.ret(int32(n))
	case fdtable.Stdin, fdtable.Reserved:
		p.ret(-1)
	default:
		fd := p.fd(0)
		b := p.copyIn(buf, n)
		var k int
		p.Sys.gate.do(func() {
			k = p.getf(fd).Write(b)
		})
		p.ret(int32(k))
	}
}

func b2i(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

func syscreate(p *Proc) {
	name := p.str(0)
	size := int(p.Args[1])
	var err error
	p.Sys.gate.do(func() {
		err = p.Sys.FS.Create(name, size)
	})
	p.ret(b2i(err == nil))
}

func sysremove(p *Proc) {
	name := p.str(0)
	var err error
	p.Sys.gate.do(func() {
		err = p.Sys.FS.Remove(name)
	})
	p.ret(b2i(err == nil))
}
