// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vm models the 32-bit user address space of a process:
// page-granular mappings with read and write permissions,
// and the fault that results from touching anything else.
package vm

import (
	"encoding/binary"
	"fmt"
	"runtime"
)

// An Addr is a user virtual address.
type Addr uint32

const (
	PGBITS = 12          // number of offset bits
	PGSIZE = 1 << PGBITS // bytes in a page
	PGMASK = PGSIZE - 1

	// PhysBase is the user/kernel split.
	// Every address at or above PhysBase belongs to the kernel.
	PhysBase Addr = 0xC0000000

	// WordSize is the size of a syscall argument word.
	WordSize = 4
)

// PageRoundDown returns a rounded down to the start of its page.
func (a Addr) PageRoundDown() Addr {
	return a &^ PGMASK
}

// PageRoundUp returns a rounded up to the next page boundary.
// ok is false if rounding wrapped around the top of the address space.
func (a Addr) PageRoundUp() (addr Addr, ok bool) {
	addr = (a + PGMASK).PageRoundDown()
	return addr, addr >= a
}

// PageOffset returns the offset of a within its page.
func (a Addr) PageOffset() uint32 {
	return uint32(a & PGMASK)
}

// IsUser reports whether a is below the user/kernel split.
func (a Addr) IsUser() bool {
	return a < PhysBase
}

func (a Addr) String() string {
	return fmt.Sprintf("%#08x", uint32(a))
}

// An Access is the kind of memory access that faulted.
type Access uint8

const (
	Read Access = iota
	Write
)

func (a Access) String() string {
	if a == Write {
		return "write"
	}
	return "read"
}

// A Fault is the error reported for an access to an address
// that is not mapped, or not mapped with the needed permission.
type Fault struct {
	Addr   Addr
	Access Access
}

func (f *Fault) Error() string {
	return fmt.Sprintf("page fault: %v at %v", f.Access, f.Addr)
}

// IsFault reports whether v, a value recovered from a panic, is a memory fault:
// a *Fault raised by MustReadB or MustWriteB, or a hardware fault
// raised while debug.SetPanicOnFault is on.
func IsFault(v any) bool {
	switch v.(type) {
	case *Fault:
		return true
	case interface {
		runtime.Error
		Addr() uintptr
	}:
		return true
	}
	return false
}

// A Memory is a byte-addressable user memory.
type Memory interface {
	ReadB(addr Addr) (uint8, error)
	WriteB(addr Addr, val uint8) error
}

// A Space is a Memory whose mappings can be changed.
type Space interface {
	Memory

	// Map maps npages zeroed pages starting at the page containing start.
	Map(start Addr, npages int, writable bool) error

	// Protect changes the permission of already mapped pages.
	Protect(start Addr, npages int, writable bool) error

	// Unmap removes the mappings of npages pages starting at start.
	Unmap(start Addr, npages int)

	// Release frees every page. The space must not be used afterward.
	Release()
}

// ReadW reads the little-endian 32-bit word at addr.
func ReadW(m Memory, addr Addr) (uint32, error) {
	var b [WordSize]byte
	if err := ReadAt(m, b[:], addr); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

// WriteW writes val as a little-endian 32-bit word at addr.
func WriteW(m Memory, addr Addr, val uint32) error {
	var b [WordSize]byte
	binary.LittleEndian.PutUint32(b[:], val)
	return WriteAt(m, b[:], addr)
}

// ReadAt fills b with the bytes starting at addr.
func ReadAt(m Memory, b []byte, addr Addr) error {
	for i := range b {
		c, err := m.ReadB(addr + Addr(i))
		if err != nil {
			return err
		}
		b[i] = c
	}
	return nil
}

// WriteAt copies b into memory starting at addr.
func WriteAt(m Memory, b []byte, addr Addr) error {
	for i, c := range b {
		if err := m.WriteB(addr+Addr(i), c); err != nil {
			return err
		}
	}
	return nil
}

// MustReadB is ReadB for code running in user mode:
// a fault is raised as a panic, the way a hardware fault
// interrupts the instruction stream.
func MustReadB(m Memory, addr Addr) uint8 {
	v, err := m.ReadB(addr)
	if err != nil {
		panic(err)
	}
	return v
}

// MustWriteB is WriteB for code running in user mode.
func MustWriteB(m Memory, addr Addr, val uint8) {
	if err := m.WriteB(addr, val); err != nil {
		panic(err)
	}
}
