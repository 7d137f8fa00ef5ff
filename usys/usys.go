// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package usys is the user-side system call library.
//
// Each call pushes its number and argument words onto the user stack,
// traps into the kernel and returns the result register, just as the
// C library stubs of a user program would. Everything a call points at
// must live in user memory: Alloc and CString place data on the
// user heap.
//
// User code runs in user mode: a bad memory access raises a fault,
// which kills the process.
package usys

import (
	"github.com/sluminis/pintos/kernel"
	"github.com/sluminis/pintos/vm"
)

// A Proc is the running user program.
type Proc struct {
	u   *kernel.User
	brk vm.Addr
}

// New returns the user library for the program running as u.
func New(u *kernel.User) *Proc {
	return &Proc{u: u, brk: kernel.HeapBase}
}

// Syscall makes system call nr with the given argument words.
func (p *Proc) Syscall(nr int, args ...uint32) int32 {
	saved := p.u.Regs.ESP
	esp := saved - vm.Addr(vm.WordSize*(len(args)+1))
	p.putw(esp, uint32(nr))
	for i, w := range args {
		p.putw(esp+vm.Addr((i+1)*vm.WordSize), w)
	}
	p.u.Regs.ESP = esp
	p.u.Trap()
	p.u.Regs.ESP = saved
	return int32(p.u.Regs.EAX)
}

// TrapAt traps with the stack pointer set to esp, whatever is there.
func (p *Proc) TrapAt(esp vm.Addr) int32 {
	saved := p.u.Regs.ESP
	p.u.Regs.ESP = esp
	p.u.Trap()
	p.u.Regs.ESP = saved
	return int32(p.u.Regs.EAX)
}

func (p *Proc) putw(addr vm.Addr, w uint32) {
	if err := vm.WriteW(p.u.Mem, addr, w); err != nil {
		panic(err)
	}
}

// Word reads the word at addr.
func (p *Proc) Word(addr vm.Addr) uint32 {
	w, err := vm.ReadW(p.u.Mem, addr)
	if err != nil {
		panic(err)
	}
	return w
}

// Alloc returns the address of n fresh bytes of heap.
// Running off the end of the heap faults.
func (p *Proc) Alloc(n int) vm.Addr {
	addr := p.brk
	p.brk += vm.Addr(n+vm.WordSize-1) &^ (vm.WordSize - 1)
	if n > 0 {
		vm.MustWriteB(p.u.Mem, p.brk-1, 0)
	}
	return addr
}

// Bytes copies b onto the heap and returns its address.
func (p *Proc) Bytes(b []byte) vm.Addr {
	addr := p.Alloc(len(b))
	p.Put(addr, b)
	return addr
}

// CString copies s onto the heap as a NUL-terminated string.
func (p *Proc) CString(s string) vm.Addr {
	return p.Bytes(append([]byte(s), 0))
}

// Put copies b into memory at addr.
func (p *Proc) Put(addr vm.Addr, b []byte) {
	for i, c := range b {
		vm.MustWriteB(p.u.Mem, addr+vm.Addr(i), c)
	}
}

// Get returns a copy of the n bytes at addr.
func (p *Proc) Get(addr vm.Addr, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = vm.MustReadB(p.u.Mem, addr+vm.Addr(i))
	}
	return b
}

// GoString returns the NUL-terminated string at addr.
func (p *Proc) GoString(addr vm.Addr) string {
	var b []byte
	for ; ; addr++ {
		c := vm.MustReadB(p.u.Mem, addr)
		if c == 0 {
			return string(b)
		}
		b = append(b, c)
	}
}

// Args returns the argument vector laid out on the initial stack.
// It must be called before the stack pointer moves.
func (p *Proc) Args() []string {
	esp := p.u.Regs.ESP
	argc := int(p.Word(esp + vm.WordSize))
	argv := vm.Addr(p.Word(esp + 2*vm.WordSize))
	args := make([]string, argc)
	for i := range args {
		args[i] = p.GoString(vm.Addr(p.Word(argv + vm.Addr(i*vm.WordSize))))
	}
	return args
}

// Main returns a Program that runs fn and then exits with its result,
// the way a C runtime start routine calls exit(main(argc, argv)).
func Main(fn func(p *Proc, args []string) int) kernel.Program {
	return func(u *kernel.User) {
		p := New(u)
		p.Exit(fn(p, p.Args()))
	}
}
