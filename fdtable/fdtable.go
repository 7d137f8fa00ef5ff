// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fdtable implements a per-process file descriptor table:
// a fixed number of slots indexed by small integers, each empty or
// holding one open resource that the table owns exclusively.
//
// Descriptors 0 and 1 name the console and 2 is reserved;
// none of the three ever holds a resource.
//
// A Table is used only by the process that owns it and is not safe
// for concurrent use.
package fdtable

import (
	"errors"
	"fmt"
	"io"
)

const (
	Stdin    = 0 // console input
	Stdout   = 1 // console output
	Reserved = 2 // never allocated
	First    = 3 // lowest descriptor that can name a resource
)

var (
	ErrRange    = errors.New("fd out of range")
	ErrReserved = errors.New("fd reserved")
	ErrEmpty    = errors.New("fd not open")
	ErrFull     = errors.New("fd table full")
)

// A Table maps descriptors to resources of type F.
type Table[F io.Closer] struct {
	slots []slot[F]
	used  int
}

type slot[F any] struct {
	f  F
	ok bool
}

// New returns an empty table with descriptors 0 through n-1.
func New[F io.Closer](n int) *Table[F] {
	if n <= First {
		panic(fmt.Sprintf("fdtable: size %d leaves no room for files", n))
	}
	return &Table[F]{slots: make([]slot[F], n)}
}

// Cap returns the number of descriptors, reserved ones included.
func (t *Table[F]) Cap() int {
	return len(t.slots)
}

// Used returns the number of open resources.
func (t *Table[F]) Used() int {
	return t.used
}

// InRange reports whether fd is a descriptor of the table.
func (t *Table[F]) InRange(fd int) bool {
	return 0 <= fd && fd < len(t.slots)
}

func (t *Table[F]) check(fd int) error {
	if !t.InRange(fd) {
		return fmt.Errorf("fd %d: %w", fd, ErrRange)
	}
	if fd < First {
		return fmt.Errorf("fd %d: %w", fd, ErrReserved)
	}
	if !t.slots[fd].ok {
		return fmt.Errorf("fd %d: %w", fd, ErrEmpty)
	}
	return nil
}

// Install stores f in the lowest empty slot and returns its descriptor.
// If every slot is in use it returns ErrFull and f is not stored:
// releasing it is still the caller's job.
func (t *Table[F]) Install(f F) (int, error) {
	for fd := First; fd < len(t.slots); fd++ {
		if !t.slots[fd].ok {
			t.slots[fd] = slot[F]{f: f, ok: true}
			t.used++
			return fd, nil
		}
	}
	return -1, ErrFull
}

// Get returns the resource named by fd.
func (t *Table[F]) Get(fd int) (F, error) {
	if err := t.check(fd); err != nil {
		var zero F
		return zero, err
	}
	return t.slots[fd].f, nil
}

// Remove empties the slot named by fd and returns what it held.
// The table no longer refers to the resource; the caller must close it.
func (t *Table[F]) Remove(fd int) (F, error) {
	f, err := t.Get(fd)
	if err != nil {
		return f, err
	}
	t.slots[fd] = slot[F]{}
	t.used--
	return f, nil
}

// Each calls fn for each open descriptor in increasing order.
func (t *Table[F]) Each(fn func(fd int, f F)) {
	for fd := First; fd < len(t.slots); fd++ {
		if t.slots[fd].ok {
			fn(fd, t.slots[fd].f)
		}
	}
}

// Drain empties every slot and closes what they held,
// returning the first error from Close.
func (t *Table[F]) Drain() error {
	var first error
	for fd := First; fd < len(t.slots); fd++ {
		if !t.slots[fd].ok {
			continue
		}
		f := t.slots[fd].f
		t.slots[fd] = slot[F]{}
		t.used--
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
