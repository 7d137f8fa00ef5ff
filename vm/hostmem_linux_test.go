// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux && (amd64 || arm64)

package vm

import (
	"runtime/debug"
	"testing"
)

var sink uint8

// touch reads addr with faults turned into panics and reports whether it faulted.
func touch(m *HostMem, addr Addr, write bool) (faulted bool) {
	defer debug.SetPanicOnFault(debug.SetPanicOnFault(true))
	defer func() {
		if e := recover(); e != nil {
			faulted = true
		}
	}()
	if write {
		m.WriteB(addr, 1)
	} else {
		sink, _ = m.ReadB(addr)
	}
	return false
}

func TestHostMem(t *testing.T) {
	m, err := NewHostMem(16 * PGSIZE)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Release()

	if !touch(m, 3*PGSIZE, false) {
		t.Fatalf("read of reserved but unmapped page did not fault")
	}
	if err := m.Map(3*PGSIZE, 1, true); err != nil {
		t.Fatal(err)
	}
	if touch(m, 3*PGSIZE+7, true) {
		t.Fatalf("write to mapped page faulted")
	}
	if v, _ := m.ReadB(3*PGSIZE + 7); v != 1 {
		t.Fatalf("ReadB = %d, want 1", v)
	}
	if err := m.Protect(3*PGSIZE, 1, false); err != nil {
		t.Fatal(err)
	}
	if !touch(m, 3*PGSIZE, true) {
		t.Fatalf("write to read-only page did not fault")
	}
	if touch(m, 3*PGSIZE, false) {
		t.Fatalf("read of read-only page faulted")
	}
	if _, err := m.ReadB(16 * PGSIZE); err == nil {
		t.Fatalf("read past reservation succeeded")
	}

	m.Unmap(3*PGSIZE, 1)
	if err := m.Map(3*PGSIZE, 1, true); err != nil {
		t.Fatal(err)
	}
	if v, _ := m.ReadB(3*PGSIZE + 7); v != 0 {
		t.Fatalf("remapped page not zeroed: %d", v)
	}
}
