// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kernel

import "github.com/sluminis/pintos/vm"

// System call numbers.
const (
	SYS_HALT     = 0  // halt()
	SYS_EXIT     = 1  // exit(status)
	SYS_EXEC     = 2  // exec(cmdline) = pid
	SYS_WAIT     = 3  // wait(pid) = status
	SYS_CREATE   = 4  // create(name, size) = ok
	SYS_REMOVE   = 5  // remove(name) = ok
	SYS_OPEN     = 6  // open(name) = fd
	SYS_FILESIZE = 7  // filesize(fd) = size
	SYS_READ     = 8  // read(fd, buf, n) = n
	SYS_WRITE    = 9  // write(fd, buf, n) = n
	SYS_SEEK     = 10 // seek(fd, pos)
	SYS_TELL     = 11 // tell(fd) = pos
	SYS_CLOSE    = 12 // close(fd)
	SYS_PRACTICE = 13 // practice(i) = i+1
)

const (
	DefaultMaxFD = 128 // descriptors per process, reserved ones included
	ExitFailure  = -1  // status of a killed process; also the failed-call result
	NameMax      = 15  // max bytes in a process name

	CodeBase     vm.Addr = 0x08048000 // executable image, read-only
	HeapBase     vm.Addr = 0x10000000 // user heap, read-write
	MaxCodePages         = 256
)

// A Config holds the tunable parameters of a System.
type Config struct {
	// MaxFD is the size of each process's descriptor table.
	MaxFD int

	// Lenient accepts a string argument that runs into the
	// kernel address space without a terminating NUL.
	Lenient bool

	// KillUnknown terminates a process that makes an unknown
	// system call. Otherwise the call is reported on the console
	// and the process continues with its result register unchanged.
	KillUnknown bool

	// Trace logs every system call at debug level.
	Trace bool

	// HostMemory backs user address spaces with host memory
	// protected by mmap and mprotect, so that bad user pointers
	// raise real faults. It is only available on some platforms.
	HostMemory bool

	StackPages int // user stack size
	HeapPages  int // user heap size
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		MaxFD:      DefaultMaxFD,
		StackPages: 1,
		HeapPages:  4,
	}
}
