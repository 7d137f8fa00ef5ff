// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !(linux && (amd64 || arm64))

package vm

import "errors"

// HostSupported reports whether NewHostMem can be used on this platform.
const HostSupported = false

// HostMem is only available on 64-bit Linux.
type HostMem struct {
	PageMem
}

func NewHostMem(size Addr) (*HostMem, error) {
	return nil, errors.New("hostmem: not supported on this platform")
}
