// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uaccess

import (
	"strings"

	"github.com/sluminis/pintos/vm"
)

// The copy routines below assume the memory they touch has already
// passed the matching check. They still return the memory's error
// rather than trusting that nothing changed in between.

// ReadWord returns the argument word at addr.
func (c *Checker) ReadWord(addr vm.Addr) (uint32, error) {
	return vm.ReadW(c.Mem, addr)
}

// ReadString returns the NUL-terminated string at addr,
// which must have passed ValidString.
func (c *Checker) ReadString(addr vm.Addr) (string, error) {
	var b strings.Builder
	lim := c.limit()
	for a := addr; a < lim; a++ {
		v, err := c.Mem.ReadB(a)
		if err != nil {
			return "", err
		}
		if v == 0 {
			break
		}
		b.WriteByte(v)
	}
	return b.String(), nil
}

// CopyIn copies len(dst) bytes of user memory starting at addr into dst.
func (c *Checker) CopyIn(dst []byte, addr vm.Addr) error {
	return vm.ReadAt(c.Mem, dst, addr)
}

// CopyOut copies src into user memory starting at addr.
func (c *Checker) CopyOut(addr vm.Addr, src []byte) error {
	return vm.WriteAt(c.Mem, src, addr)
}
