// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package uaccess decides whether memory named by an untrusted
// user process may be touched by the kernel.
//
// Every check is built on a one-byte probe that cannot take the
// kernel down: a fault raised while probing, whether reported as an
// error by the memory or raised as a panic by a real hardware fault,
// is caught and turned into a failed probe.
//
// The checks only report. Deciding what to do with a process that
// passed bad memory is up to the caller.
package uaccess

import (
	"runtime/debug"

	"github.com/sluminis/pintos/vm"
)

// A Checker validates addresses against one process's memory.
type Checker struct {
	Mem vm.Memory

	// Limit is the first address the process may not reference.
	// Zero means vm.PhysBase.
	Limit vm.Addr

	// Lenient makes ValidString accept a string that runs into Limit
	// without a terminating NUL. By default such a string is invalid.
	Lenient bool
}

func (c *Checker) limit() vm.Addr {
	if c.Limit == 0 {
		return vm.PhysBase
	}
	return c.Limit
}

// catchFault is the recovery point for a probe.
// A memory fault sets *ok to false; anything else keeps panicking.
func catchFault(ok *bool) {
	e := recover()
	if e == nil {
		return
	}
	if vm.IsFault(e) {
		*ok = false
		return
	}
	panic(e)
}

// ProbeRead reads the byte at addr. It reports ok == false if the read faulted.
// The address is not checked against Limit.
func (c *Checker) ProbeRead(addr vm.Addr) (val uint8, ok bool) {
	defer catchFault(&ok)
	defer debug.SetPanicOnFault(debug.SetPanicOnFault(true))
	v, err := c.Mem.ReadB(addr)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ProbeWrite reports whether the byte at addr can be written.
// It writes back the value already there, so memory is left unchanged.
// The address is not checked against Limit.
func (c *Checker) ProbeWrite(addr vm.Addr) (ok bool) {
	defer catchFault(&ok)
	defer debug.SetPanicOnFault(debug.SetPanicOnFault(true))
	v, err := c.Mem.ReadB(addr)
	if err != nil {
		return false
	}
	return c.Mem.WriteB(addr, v) == nil
}

// ValidAddr reports whether addr is a user address that
// can be read, or written if write is set.
func (c *Checker) ValidAddr(addr vm.Addr, write bool) bool {
	if addr >= c.limit() {
		return false
	}
	if write {
		return c.ProbeWrite(addr)
	}
	_, ok := c.ProbeRead(addr)
	return ok
}

// ValidRange reports whether the n bytes starting at start are valid.
// Validity is a property of whole pages, so it probes start and then
// the first byte of each following page the range touches, once per page,
// and stops at the first bad one. An empty range is valid.
func (c *Checker) ValidRange(start vm.Addr, n uint32, write bool) bool {
	for off := uint64(0); off < uint64(n); {
		a := start + vm.Addr(off)
		if uint64(start)+off > uint64(^vm.Addr(0)) || !c.ValidAddr(a, write) {
			return false
		}
		off = uint64(a.PageRoundDown()) + vm.PGSIZE - uint64(start)
	}
	return true
}

// ValidString reports whether a NUL-terminated string starts at start,
// with every byte up to and including the NUL readable.
func (c *Checker) ValidString(start vm.Addr) bool {
	lim := c.limit()
	for a := start; a < lim; a++ {
		v, ok := c.ProbeRead(a)
		if !ok {
			return false
		}
		if v == 0 {
			return true
		}
		if a == ^vm.Addr(0) {
			break
		}
	}
	return c.Lenient
}

// ValidWords reports whether count argument words starting at start are readable.
func (c *Checker) ValidWords(start vm.Addr, count int) bool {
	return c.ValidRange(start, uint32(count*vm.WordSize), false)
}
