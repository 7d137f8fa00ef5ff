// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kernel

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sluminis/pintos/vm"
)

// Trap handles a system call from p. The call number and its
// argument words are on the user stack at p.Frame.ESP.
//
// Trap validates the number word, then exactly as many argument
// words as the call takes, before reading any of them; handlers
// validate pointer arguments before using them. A call that fails
// validation terminates p, and Trap does not return. Otherwise
// the result, if the call has one, is left in p.Frame.EAX.
func Trap(p *Proc) {
	sys := p.Sys
	if sys.Halted() {
		panic(haltUnwind{})
	}
	esp := p.Frame.ESP
	if !p.chk.ValidWords(esp, 1) {
		p.terminate(ExitFailure)
	}
	nr := p.word(esp)
	if nr >= uint32(len(sysent)) || sysent[nr].impl == nil {
		p.unknown(nr)
		return
	}
	ent := &sysent[nr]
	if !p.chk.ValidWords(esp+vm.WordSize, ent.args) {
		p.terminate(ExitFailure)
	}
	for i := 0; i < ent.args; i++ {
		p.Args[i] = p.word(esp + vm.Addr((i+1)*vm.WordSize))
	}

	var desc []byte
	if sys.Config.Trace {
		desc = p.describe(ent)
		sys.Log.Debug("trap", zap.Int32("pid", p.Pid), zap.ByteString("call", desc))
	}
	ent.impl(p)
	if sys.Config.Trace {
		desc = p.describeResult(ent, desc)
		sys.Log.Debug("trap done", zap.Int32("pid", p.Pid), zap.ByteString("call", desc))
	}
}

func (p *Proc) unknown(nr uint32) {
	p.Sys.Log.Warn("unknown syscall", zap.Int32("pid", p.Pid), zap.Uint32("nr", nr))
	p.Sys.Console.Printf("%s: can't handle such syscall!\n", p.Name)
	if p.Sys.Config.KillUnknown {
		p.terminate(ExitFailure)
	}
}

// word reads the validated argument word at addr.
func (p *Proc) word(addr vm.Addr) uint32 {
	w, err := p.chk.ReadWord(addr)
	if err != nil {
		p.terminate(ExitFailure)
	}
	return w
}

// ret sets the result of the current system call.
func (p *Proc) ret(v int32) {
	p.Frame.EAX = uint32(v)
}

// str returns the string that argument i points at,
// terminating p if it is not a valid string.
func (p *Proc) str(i int) string {
	addr := vm.Addr(p.Args[i])
	if !p.chk.ValidString(addr) {
		p.terminate(ExitFailure)
	}
	s, err := p.chk.ReadString(addr)
	if err != nil {
		p.terminate(ExitFailure)
	}
	return s
}

// buf checks that the n bytes at argument i may be read,
// or written if write is set, terminating p otherwise.
func (p *Proc) buf(i int, n uint32, write bool) vm.Addr {
	addr := vm.Addr(p.Args[i])
	if !p.chk.ValidRange(addr, n, write) {
		p.terminate(ExitFailure)
	}
	return addr
}

const traceMax = 32 // buffer bytes shown in a trace

// describe formats the call part of ent's trace line.
// It only reads user memory that passes validation.
func (p *Proc) describe(ent *sysentry) []byte {
	var desc []byte
	arg := 0
	name := ent.name
	for i := 0; i < len(name); i++ {
		if c := name[i]; c != '%' {
			desc = append(desc, c)
			if c == ')' {
				break
			}
			continue
		}
		i++
		switch c := name[i]; c {
		case 'd':
			desc = fmt.Appendf(desc, "%d", int32(p.Args[arg]))
			arg++
		case 'u':
			desc = fmt.Appendf(desc, "%d", p.Args[arg])
			arg++
		case 'p':
			desc = fmt.Appendf(desc, "%v", vm.Addr(p.Args[arg]))
			arg++
		case 's':
			addr := vm.Addr(p.Args[arg])
			var s string
			ok := p.chk.ValidString(addr)
			if ok {
				var err error
				s, err = p.chk.ReadString(addr)
				ok = err == nil
			}
			if ok {
				desc = fmt.Appendf(desc, "%q", s)
			} else {
				desc = fmt.Appendf(desc, "%v", addr)
			}
			arg++
		case 'q':
			addr, n := vm.Addr(p.Args[arg]), p.Args[arg+1]
			shown := min(n, traceMax)
			b := make([]byte, shown)
			if p.chk.ValidRange(addr, shown, false) && p.chk.CopyIn(b, addr) == nil {
				desc = fmt.Appendf(desc, "%q", b)
				if shown < n {
					desc = append(desc, "..."...)
				}
			} else {
				desc = fmt.Appendf(desc, "%v", addr)
			}
			desc = fmt.Appendf(desc, ", %d", n)
			arg += 2
		default:
			desc = append(desc, '%', c)
		}
	}
	return desc
}

// describeResult appends the result part of ent's trace line to desc.
func (p *Proc) describeResult(ent *sysentry, desc []byte) []byte {
	i := strings.Index(ent.name, ")")
	if i < 0 {
		return desc
	}
	for i++; i < len(ent.name); i++ {
		if c := ent.name[i]; c != '%' {
			desc = append(desc, c)
			continue
		}
		i++
		switch c := ent.name[i]; c {
		case 'd':
			desc = fmt.Appendf(desc, "%d", int32(p.Frame.EAX))
		default:
			desc = append(desc, '%', c)
		}
	}
	return desc
}
