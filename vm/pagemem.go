// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vm

import "fmt"

type page struct {
	data     [PGSIZE]byte
	writable bool
}

// A PageMem is a Space backed by a sparse table of pages.
// Only mapped pages below PhysBase can be read,
// and only writable ones can be written.
//
// A PageMem is owned by one process and is not safe for concurrent use.
type PageMem struct {
	pages map[Addr]*page
}

// NewPageMem returns an empty address space.
func NewPageMem() *PageMem {
	return &PageMem{pages: make(map[Addr]*page)}
}

func (m *PageMem) lookup(addr Addr) *page {
	if !addr.IsUser() {
		return nil
	}
	return m.pages[addr.PageRoundDown()]
}

func (m *PageMem) ReadB(addr Addr) (uint8, error) {
	pg := m.lookup(addr)
	if pg == nil {
		return 0, &Fault{addr, Read}
	}
	return pg.data[addr.PageOffset()], nil
}

func (m *PageMem) WriteB(addr Addr, val uint8) error {
	pg := m.lookup(addr)
	if pg == nil || !pg.writable {
		return &Fault{addr, Write}
	}
	pg.data[addr.PageOffset()] = val
	return nil
}

// pageRange returns the page-aligned addresses of the npages pages
// starting at start, or an error if they leave user space.
func pageRange(start Addr, npages int) ([]Addr, error) {
	base := start.PageRoundDown()
	if npages < 0 || uint64(base)+uint64(npages)*PGSIZE > uint64(PhysBase) {
		return nil, fmt.Errorf("map %v+%d pages: outside user space", start, npages)
	}
	list := make([]Addr, npages)
	for i := range list {
		list[i] = base + Addr(i*PGSIZE)
	}
	return list, nil
}

func (m *PageMem) Map(start Addr, npages int, writable bool) error {
	list, err := pageRange(start, npages)
	if err != nil {
		return err
	}
	for _, a := range list {
		if m.pages[a] != nil {
			return fmt.Errorf("map %v: page already mapped", a)
		}
	}
	for _, a := range list {
		m.pages[a] = &page{writable: writable}
	}
	return nil
}

func (m *PageMem) Protect(start Addr, npages int, writable bool) error {
	list, err := pageRange(start, npages)
	if err != nil {
		return err
	}
	for _, a := range list {
		if m.pages[a] == nil {
			return fmt.Errorf("protect %v: page not mapped", a)
		}
	}
	for _, a := range list {
		m.pages[a].writable = writable
	}
	return nil
}

func (m *PageMem) Unmap(start Addr, npages int) {
	list, err := pageRange(start, npages)
	if err != nil {
		return
	}
	for _, a := range list {
		delete(m.pages, a)
	}
}

func (m *PageMem) Release() {
	clear(m.pages)
}

// Mapped reports whether the page containing addr is mapped,
// and whether it is writable.
func (m *PageMem) Mapped(addr Addr) (mapped, writable bool) {
	pg := m.lookup(addr)
	if pg == nil {
		return false, false
	}
	return true, pg.writable
}
