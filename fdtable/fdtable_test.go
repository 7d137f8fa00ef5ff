// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fdtable

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"
)

type file struct {
	name   string
	closed int
}

func (f *file) Close() error {
	f.closed++
	return nil
}

func TestInstallLowest(t *testing.T) {
	tab := New[*file](6)
	var fds []int
	for _, name := range []string{"a", "b", "c"} {
		fd, err := tab.Install(&file{name: name})
		if err != nil {
			t.Fatal(err)
		}
		fds = append(fds, fd)
	}
	if diff := cmp.Diff([]int{3, 4, 5}, fds); diff != "" {
		t.Fatalf("descriptors (-want +got):\n%s", diff)
	}

	extra := &file{name: "d"}
	if fd, err := tab.Install(extra); !errors.Is(err, ErrFull) || fd != -1 {
		t.Fatalf("Install on full table = %d, %v, want -1, ErrFull", fd, err)
	}

	f, err := tab.Remove(4)
	if err != nil || f.name != "b" {
		t.Fatalf("Remove(4) = %v, %v", f, err)
	}
	if _, err := tab.Get(4); !errors.Is(err, ErrEmpty) {
		t.Fatalf("Get after Remove: err = %v, want ErrEmpty", err)
	}
	if fd, err := tab.Install(extra); fd != 4 || err != nil {
		t.Fatalf("Install after Remove = %d, %v, want 4, nil", fd, err)
	}
}

func TestGetErrors(t *testing.T) {
	tab := New[*file](8)
	tests := []struct {
		fd   int
		want error
	}{
		{-1, ErrRange},
		{8, ErrRange},
		{1 << 20, ErrRange},
		{Stdin, ErrReserved},
		{Stdout, ErrReserved},
		{Reserved, ErrReserved},
		{5, ErrEmpty},
	}
	for _, tt := range tests {
		if _, err := tab.Get(tt.fd); !errors.Is(err, tt.want) {
			t.Errorf("Get(%d) err = %v, want %v", tt.fd, err, tt.want)
		}
		if _, err := tab.Remove(tt.fd); !errors.Is(err, tt.want) {
			t.Errorf("Remove(%d) err = %v, want %v", tt.fd, err, tt.want)
		}
	}
	if !tab.InRange(7) || tab.InRange(8) || tab.InRange(-1) {
		t.Errorf("InRange wrong at the edges")
	}
}

func TestDrain(t *testing.T) {
	tab := New[*file](16)
	var files []*file
	for i := 0; i < 5; i++ {
		f := &file{}
		files = append(files, f)
		tab.Install(f)
	}
	tab.Remove(5)
	if err := tab.Drain(); err != nil {
		t.Fatal(err)
	}
	if tab.Used() != 0 {
		t.Fatalf("Used() = %d after Drain", tab.Used())
	}
	var closed []int
	for _, f := range files {
		closed = append(closed, f.closed)
	}
	if diff := cmp.Diff([]int{1, 1, 0, 1, 1}, closed); diff != "" {
		t.Fatalf("close counts (-want +got):\n%s", diff)
	}
}

func TestTableModel(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		size := rapid.IntRange(First+1, 12).Draw(t, "size")
		tab := New[*file](size)
		model := make(map[int]*file)

		lowestFree := func() int {
			for fd := First; fd < size; fd++ {
				if model[fd] == nil {
					return fd
				}
			}
			return -1
		}

		t.Repeat(map[string]func(*rapid.T){
			"install": func(t *rapid.T) {
				f := &file{}
				want := lowestFree()
				fd, err := tab.Install(f)
				if fd != want {
					t.Fatalf("Install = %d, want %d", fd, want)
				}
				if want == -1 {
					if !errors.Is(err, ErrFull) {
						t.Fatalf("Install on full table: err = %v", err)
					}
					return
				}
				model[fd] = f
			},
			"remove": func(t *rapid.T) {
				fd := rapid.IntRange(-2, size+1).Draw(t, "fd")
				f, err := tab.Remove(fd)
				if model[fd] == nil {
					if err == nil {
						t.Fatalf("Remove(%d) of empty slot succeeded", fd)
					}
					return
				}
				if err != nil || f != model[fd] {
					t.Fatalf("Remove(%d) = %p, %v, want %p", fd, f, err, model[fd])
				}
				delete(model, fd)
			},
			"": func(t *rapid.T) {
				if tab.Used() != len(model) {
					t.Fatalf("Used() = %d, want %d", tab.Used(), len(model))
				}
				seen := map[*file]bool{}
				tab.Each(func(fd int, f *file) {
					if model[fd] != f {
						t.Fatalf("slot %d holds %p, want %p", fd, f, model[fd])
					}
					if seen[f] {
						t.Fatalf("resource in two slots")
					}
					seen[f] = true
				})
			},
		})
	})
}
