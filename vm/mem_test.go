// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vm

import (
	"errors"
	"testing"
)

func TestPageRound(t *testing.T) {
	tests := []struct {
		a        Addr
		down, up Addr
		upOK     bool
		offset   uint32
	}{
		{0, 0, 0, true, 0},
		{1, 0, PGSIZE, true, 1},
		{PGSIZE, PGSIZE, PGSIZE, true, 0},
		{PGSIZE + 5, PGSIZE, 2 * PGSIZE, true, 5},
		{0xFFFFFFFF, 0xFFFFF000, 0, false, PGMASK},
	}
	for _, tt := range tests {
		if d := tt.a.PageRoundDown(); d != tt.down {
			t.Errorf("%v.PageRoundDown() = %v, want %v", tt.a, d, tt.down)
		}
		if u, ok := tt.a.PageRoundUp(); u != tt.up || ok != tt.upOK {
			t.Errorf("%v.PageRoundUp() = %v, %v, want %v, %v", tt.a, u, ok, tt.up, tt.upOK)
		}
		if o := tt.a.PageOffset(); o != tt.offset {
			t.Errorf("%v.PageOffset() = %d, want %d", tt.a, o, tt.offset)
		}
	}
}

func TestPageMem(t *testing.T) {
	m := NewPageMem()
	const base = 0x08048000
	if err := m.Map(base, 2, true); err != nil {
		t.Fatal(err)
	}
	if err := m.Map(base+PGSIZE, 1, true); err == nil {
		t.Fatalf("double map succeeded")
	}
	if err := WriteW(m, base+PGSIZE-2, 0x11223344); err != nil {
		t.Fatalf("WriteW across page boundary: %v", err)
	}
	w, err := ReadW(m, base+PGSIZE-2)
	if err != nil || w != 0x11223344 {
		t.Fatalf("ReadW = %#x, %v, want %#x, nil", w, err, 0x11223344)
	}

	var f *Fault
	if _, err := m.ReadB(base + 2*PGSIZE); !errors.As(err, &f) || f.Access != Read {
		t.Fatalf("read past mapping: err = %v, want read fault", err)
	}

	if err := m.Protect(base, 1, false); err != nil {
		t.Fatal(err)
	}
	if err := m.WriteB(base, 1); !errors.As(err, &f) || f.Access != Write || f.Addr != base {
		t.Fatalf("write to read-only page: err = %v, want write fault at %v", err, Addr(base))
	}
	if _, err := m.ReadB(base); err != nil {
		t.Fatalf("read of read-only page: %v", err)
	}

	m.Unmap(base, 1)
	if mapped, _ := m.Mapped(base); mapped {
		t.Fatalf("page still mapped after Unmap")
	}
	if mapped, writable := m.Mapped(base + PGSIZE); !mapped || !writable {
		t.Fatalf("Mapped(second page) = %v, %v, want true, true", mapped, writable)
	}
}

func TestPageMemKernelSpace(t *testing.T) {
	m := NewPageMem()
	if err := m.Map(PhysBase-PGSIZE, 2, true); err == nil {
		t.Fatalf("mapping across PhysBase succeeded")
	}
	if err := m.Map(PhysBase-PGSIZE, 1, true); err != nil {
		t.Fatal(err)
	}
	if _, err := m.ReadB(PhysBase); err == nil {
		t.Fatalf("read at PhysBase succeeded")
	}
}

func TestMustReadPanics(t *testing.T) {
	m := NewPageMem()
	defer func() {
		e := recover()
		if _, ok := e.(*Fault); !ok {
			t.Fatalf("recover() = %v, want *Fault", e)
		}
	}()
	MustReadB(m, 0x1000)
	t.Fatalf("MustReadB of unmapped page returned")
}
