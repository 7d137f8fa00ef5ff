// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package usys

import (
	"github.com/sluminis/pintos/kernel"
	"github.com/sluminis/pintos/vm"
)

// scratch marks the heap; calling the result frees
// everything allocated since.
func (p *Proc) scratch() func() {
	mark := p.brk
	return func() { p.brk = mark }
}

// Halt powers the machine off. It does not return.
func (p *Proc) Halt() {
	p.Syscall(kernel.SYS_HALT)
	panic("usys: halt returned")
}

// Exit exits with status. It does not return.
func (p *Proc) Exit(status int) {
	p.Syscall(kernel.SYS_EXIT, uint32(status))
	panic("usys: exit returned")
}

// Exec runs cmdline as a child process and returns its pid, or -1.
func (p *Proc) Exec(cmdline string) int {
	defer p.scratch()()
	return int(p.Syscall(kernel.SYS_EXEC, uint32(p.CString(cmdline))))
}

// Wait waits for child pid to exit and returns its status, or -1.
func (p *Proc) Wait(pid int) int {
	return int(p.Syscall(kernel.SYS_WAIT, uint32(pid)))
}

func (p *Proc) Create(name string, size int) bool {
	defer p.scratch()()
	return p.Syscall(kernel.SYS_CREATE, uint32(p.CString(name)), uint32(size)) != 0
}

func (p *Proc) Remove(name string) bool {
	defer p.scratch()()
	return p.Syscall(kernel.SYS_REMOVE, uint32(p.CString(name))) != 0
}

// Open opens name and returns its descriptor, or -1.
func (p *Proc) Open(name string) int {
	defer p.scratch()()
	return int(p.Syscall(kernel.SYS_OPEN, uint32(p.CString(name))))
}

func (p *Proc) Filesize(fd int) int {
	return int(p.Syscall(kernel.SYS_FILESIZE, uint32(fd)))
}

// Read reads up to n bytes from fd into memory at buf.
func (p *Proc) Read(fd int, buf vm.Addr, n int) int {
	return int(p.Syscall(kernel.SYS_READ, uint32(fd), uint32(buf), uint32(n)))
}

// Write writes the n bytes at buf to fd.
func (p *Proc) Write(fd int, buf vm.Addr, n int) int {
	return int(p.Syscall(kernel.SYS_WRITE, uint32(fd), uint32(buf), uint32(n)))
}

func (p *Proc) Seek(fd, pos int) {
	p.Syscall(kernel.SYS_SEEK, uint32(fd), uint32(pos))
}

func (p *Proc) Tell(fd int) int {
	return int(p.Syscall(kernel.SYS_TELL, uint32(fd)))
}

func (p *Proc) Close(fd int) {
	p.Syscall(kernel.SYS_CLOSE, uint32(fd))
}

func (p *Proc) Practice(i int) int {
	return int(p.Syscall(kernel.SYS_PRACTICE, uint32(i)))
}

// ReadBytes reads up to n bytes from fd through a heap buffer.
func (p *Proc) ReadBytes(fd, n int) []byte {
	defer p.scratch()()
	buf := p.Alloc(n)
	k := p.Read(fd, buf, n)
	if k < 0 {
		return nil
	}
	return p.Get(buf, k)
}

// WriteBytes writes b to fd through a heap buffer.
func (p *Proc) WriteBytes(fd int, b []byte) int {
	defer p.scratch()()
	return p.Write(fd, p.Bytes(b), len(b))
}

// Print writes s to the console.
func (p *Proc) Print(s string) {
	p.WriteBytes(1, []byte(s))
}
