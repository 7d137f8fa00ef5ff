// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kernel

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// ErrPowerOff is returned by a console read interrupted by power-off.
var ErrPowerOff = errors.New("machine powered off")

// A Console is the machine's keyboard and display.
type Console struct {
	outMu sync.Mutex
	out   io.Writer

	inMu  sync.Mutex
	keys  []byte
	ready chan struct{} // signaled when keys arrive
	off   <-chan struct{}
}

// NewConsole returns a console that displays on out.
func NewConsole(out io.Writer) *Console {
	return &Console{
		out:   out,
		ready: make(chan struct{}, 1),
	}
}

// Write displays b as one chunk: output from concurrent writers
// never interleaves within a single call.
func (c *Console) Write(b []byte) (int, error) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	if c.out == nil {
		return len(b), nil
	}
	return c.out.Write(b)
}

// Printf formats a line of kernel output onto the console.
func (c *Console) Printf(format string, args ...any) {
	c.Write(fmt.Appendf(nil, format, args...))
}

// WriteByte queues a keystroke.
func (c *Console) WriteByte(b byte) error {
	c.Feed([]byte{b})
	return nil
}

// Feed queues keystrokes in order.
func (c *Console) Feed(b []byte) {
	if len(b) == 0 {
		return
	}
	c.inMu.Lock()
	c.keys = append(c.keys, b...)
	c.inMu.Unlock()
	c.wake()
}

func (c *Console) wake() {
	select {
	case c.ready <- struct{}{}:
	default:
	}
}

// ReadByte returns the next keystroke, waiting until one is available.
// It returns ErrPowerOff if the machine is powered off while waiting.
func (c *Console) ReadByte() (byte, error) {
	for {
		c.inMu.Lock()
		if len(c.keys) > 0 {
			b := c.keys[0]
			c.keys = c.keys[1:]
			more := len(c.keys) > 0
			c.inMu.Unlock()
			if more {
				c.wake()
			}
			return b, nil
		}
		c.inMu.Unlock()

		select {
		case <-c.ready:
		case <-c.off:
			return 0, ErrPowerOff
		}
	}
}

// Pending returns the number of queued keystrokes.
func (c *Console) Pending() int {
	c.inMu.Lock()
	defer c.inMu.Unlock()
	return len(c.keys)
}
