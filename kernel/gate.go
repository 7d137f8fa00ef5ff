// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kernel

import (
	"sync"

	"github.com/sluminis/pintos/fsys"
)

// A FileService is the file system the kernel serves files from.
// Its methods, and those of the Files it returns, are only ever
// called with the file gate held, one call at a time system-wide.
type FileService interface {
	Create(name string, size int) error
	Remove(name string) error
	Open(name string) (File, error)
}

// A File is an open file of a FileService.
type File interface {
	Read(b []byte) int
	Write(b []byte) int
	Seek(pos int)
	Tell() int
	Length() int
	Close() error
	DenyWrite()
	AllowWrite()
}

// Disk returns fs as a FileService.
func Disk(fs *fsys.FS) FileService {
	return disk{fs}
}

type disk struct {
	*fsys.FS
}

func (d disk) Open(name string) (File, error) {
	f, err := d.FS.Open(name)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// The gate is the file-service critical section.
// A process that terminates inside it unwinds through the
// deferred release, so the gate is never left held.
type gate struct {
	mu sync.Mutex
}

func (g *gate) do(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn()
}
