// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux && (amd64 || arm64)

package vm

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// A HostMem is a Space backed by a reservation of host virtual memory.
// Page permissions are enforced by the host MMU: touching an unmapped
// or read-only page raises a real memory fault, not an error.
// Code that may touch such pages must run with
// debug.SetPanicOnFault(true) so that the fault becomes a recoverable panic.
type HostMem struct {
	b      []byte
	mapped map[Addr]bool
}

// HostSupported reports whether NewHostMem can be used on this platform.
const HostSupported = true

// NewHostMem reserves size bytes of address space, all of it unmapped.
func NewHostMem(size Addr) (*HostMem, error) {
	if size == 0 || size > PhysBase || size&PGMASK != 0 {
		return nil, fmt.Errorf("hostmem: invalid size %v", size)
	}
	b, err := unix.Mmap(-1, 0, int(size), unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANON|unix.MAP_NORESERVE)
	if err != nil {
		return nil, fmt.Errorf("hostmem: reserve: %w", err)
	}
	return &HostMem{b: b, mapped: make(map[Addr]bool)}, nil
}

func (m *HostMem) ReadB(addr Addr) (uint8, error) {
	if uint64(addr) >= uint64(len(m.b)) {
		return 0, &Fault{addr, Read}
	}
	return m.b[addr], nil
}

func (m *HostMem) WriteB(addr Addr, val uint8) error {
	if uint64(addr) >= uint64(len(m.b)) {
		return &Fault{addr, Write}
	}
	m.b[addr] = val
	return nil
}

func (m *HostMem) span(start Addr, npages int) ([]byte, []Addr, error) {
	list, err := pageRange(start, npages)
	if err != nil {
		return nil, nil, err
	}
	base := start.PageRoundDown()
	end := uint64(base) + uint64(npages)*PGSIZE
	if end > uint64(len(m.b)) {
		return nil, nil, fmt.Errorf("hostmem: %v+%d pages outside reservation", start, npages)
	}
	return m.b[base:end], list, nil
}

func prot(writable bool) int {
	if writable {
		return unix.PROT_READ | unix.PROT_WRITE
	}
	return unix.PROT_READ
}

func (m *HostMem) Map(start Addr, npages int, writable bool) error {
	b, list, err := m.span(start, npages)
	if err != nil || len(b) == 0 {
		return err
	}
	for _, a := range list {
		if m.mapped[a] {
			return fmt.Errorf("map %v: page already mapped", a)
		}
	}
	if err := unix.Mprotect(b, prot(writable)); err != nil {
		return fmt.Errorf("hostmem: map: %w", err)
	}
	for _, a := range list {
		m.mapped[a] = true
	}
	return nil
}

func (m *HostMem) Protect(start Addr, npages int, writable bool) error {
	b, list, err := m.span(start, npages)
	if err != nil || len(b) == 0 {
		return err
	}
	for _, a := range list {
		if !m.mapped[a] {
			return fmt.Errorf("protect %v: page not mapped", a)
		}
	}
	if err := unix.Mprotect(b, prot(writable)); err != nil {
		return fmt.Errorf("hostmem: protect: %w", err)
	}
	return nil
}

func (m *HostMem) Unmap(start Addr, npages int) {
	b, list, err := m.span(start, npages)
	if err != nil || len(b) == 0 {
		return
	}
	// Dropping the pages makes a later Map see zeroes again.
	unix.Madvise(b, unix.MADV_DONTNEED)
	unix.Mprotect(b, unix.PROT_NONE)
	for _, a := range list {
		delete(m.mapped, a)
	}
}

func (m *HostMem) Release() {
	if m.b == nil {
		return
	}
	unix.Munmap(m.b)
	m.b = nil
	clear(m.mapped)
}
