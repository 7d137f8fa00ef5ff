// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fsys is a small in-memory file system: one flat directory
// of fixed-size files, each reachable through any number of open
// handles with independent positions.
//
// An FS and its Files are not safe for concurrent use.
// Callers that share one must serialize every call.
package fsys

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

const (
	NameMax     = 14      // max bytes in a file name
	MaxFileSize = 8 << 20 // max bytes in one file
)

var (
	ErrNotFound = errors.New("file not found")
	ErrExist    = errors.New("file exists")
	ErrName     = errors.New("invalid file name")
	ErrNoSpace  = errors.New("no space left on device")
	ErrClosed   = errors.New("file already closed")
)

type inode struct {
	inum      int
	count     int // open handles
	nlink     int // 1 while listed in the directory
	denyWrite int // handles that forbid writing
	data      []byte
}

// An FS is a file system.
type FS struct {
	inodes []*inode // by inode number; nil is free
	dir    map[string]*inode

	// Capacity bounds the total bytes of all live files.
	// Zero means no limit.
	Capacity int
	used     int
}

// New returns an empty file system.
func New() *FS {
	return &FS{dir: make(map[string]*inode)}
}

// cleanName validates name and strips a single leading slash.
func cleanName(name string) (string, error) {
	name = strings.TrimPrefix(name, "/")
	if name == "" || len(name) > NameMax || strings.ContainsAny(name, "/\x00") {
		return "", fmt.Errorf("%q: %w", name, ErrName)
	}
	return name, nil
}

func (fs *FS) ialloc(size int) (*inode, error) {
	if size < 0 || size > MaxFileSize || fs.Capacity > 0 && fs.used+size > fs.Capacity {
		return nil, ErrNoSpace
	}
	ip := &inode{nlink: 1, data: make([]byte, size)}
	for i, slot := range fs.inodes {
		if slot == nil {
			ip.inum = i
			fs.inodes[i] = ip
			fs.used += size
			return ip, nil
		}
	}
	ip.inum = len(fs.inodes)
	fs.inodes = append(fs.inodes, ip)
	fs.used += size
	return ip, nil
}

// iput drops one reference to ip, freeing it once
// it is neither open nor listed in the directory.
func (fs *FS) iput(ip *inode) {
	if ip.count > 0 || ip.nlink > 0 {
		return
	}
	fs.used -= len(ip.data)
	fs.inodes[ip.inum] = nil
}

// Create creates name as a file holding size zero bytes.
// Files never grow: size is fixed at creation.
func (fs *FS) Create(name string, size int) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	if fs.dir[name] != nil {
		return fmt.Errorf("%s: %w", name, ErrExist)
	}
	ip, err := fs.ialloc(size)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	fs.dir[name] = ip
	return nil
}

// Remove deletes name from the directory.
// Handles already open keep working until they are closed.
func (fs *FS) Remove(name string) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	ip := fs.dir[name]
	if ip == nil {
		return fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	delete(fs.dir, name)
	ip.nlink--
	fs.iput(ip)
	return nil
}

// Open returns a new handle on name, positioned at the start.
func (fs *FS) Open(name string) (*File, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	ip := fs.dir[name]
	if ip == nil {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	ip.count++
	return &File{fs: fs, ip: ip, name: name}, nil
}

// Names returns the directory's file names in sorted order.
func (fs *FS) Names() []string {
	var names []string
	for name := range fs.dir {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ReadFile returns a copy of the contents of name.
func (fs *FS) ReadFile(name string) ([]byte, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	ip := fs.dir[name]
	if ip == nil {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return slices.Clone(ip.data), nil
}

// WriteFile creates name with exactly the contents data.
func (fs *FS) WriteFile(name string, data []byte) error {
	if err := fs.Create(name, len(data)); err != nil {
		return err
	}
	n, _ := cleanName(name)
	copy(fs.dir[n].data, data)
	return nil
}

// Used returns the bytes held by live files, removed-but-open ones included.
func (fs *FS) Used() int {
	return fs.used
}

// Inodes returns the number of live files, removed-but-open ones included.
func (fs *FS) Inodes() int {
	n := 0
	for _, ip := range fs.inodes {
		if ip != nil {
			n++
		}
	}
	return n
}
