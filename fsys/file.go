// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fsys

import "fmt"

// A File is an open handle on a file.
// Each handle has its own position.
type File struct {
	fs     *FS
	ip     *inode
	name   string
	pos    int
	denied bool
	closed bool
}

// Name returns the name the file was opened under.
func (f *File) Name() string { return f.name }

// Inum returns the file's inode number.
// Two handles with the same Inum are open on the same file.
func (f *File) Inum() int { return f.ip.inum }

// Read reads from the current position into b and advances the position.
// It returns the number of bytes read, which is short at end of file.
func (f *File) Read(b []byte) int {
	n := f.ReadAt(b, f.pos)
	f.pos += n
	return n
}

// ReadAt reads into b from offset off without moving the position.
func (f *File) ReadAt(b []byte, off int) int {
	if off < 0 || off >= len(f.ip.data) {
		return 0
	}
	return copy(b, f.ip.data[off:])
}

// Write writes b at the current position and advances the position.
// Files do not grow, so the write stops at end of file,
// and nothing is written while writes are denied.
func (f *File) Write(b []byte) int {
	n := f.WriteAt(b, f.pos)
	f.pos += n
	return n
}

// WriteAt writes b at offset off without moving the position.
func (f *File) WriteAt(b []byte, off int) int {
	if f.ip.denyWrite > 0 || off < 0 || off >= len(f.ip.data) {
		return 0
	}
	return copy(f.ip.data[off:], b)
}

// Seek sets the position to pos bytes from the start.
// A position past end of file is allowed; reads there return 0 bytes.
func (f *File) Seek(pos int) {
	if pos < 0 {
		pos = 0
	}
	f.pos = pos
}

// Tell returns the current position.
func (f *File) Tell() int { return f.pos }

// Length returns the size of the file in bytes.
func (f *File) Length() int { return len(f.ip.data) }

// DenyWrite stops writes to the file through any handle
// until AllowWrite is called on this one or it is closed.
func (f *File) DenyWrite() {
	if !f.denied {
		f.denied = true
		f.ip.denyWrite++
	}
}

// AllowWrite undoes a DenyWrite on this handle.
func (f *File) AllowWrite() {
	if f.denied {
		f.denied = false
		f.ip.denyWrite--
	}
}

// Close releases the handle.
// Closing the last handle on a removed file frees its data.
func (f *File) Close() error {
	if f.closed {
		return fmt.Errorf("%s: %w", f.name, ErrClosed)
	}
	f.AllowWrite()
	f.closed = true
	f.ip.count--
	f.fs.iput(f.ip)
	return nil
}
