// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kernel

// fd returns argument i as a descriptor,
// terminating p if it is outside the descriptor table.
func (p *Proc) fd(i int) int {
	fd := int(int32(p.Args[i]))
	if !p.files.InRange(fd) {
		p.terminate(ExitFailure)
	}
	return fd
}

// getf returns the file open on fd, terminating p if there is none.
// The gate must be held.
func (p *Proc) getf(fd int) File {
	f, err := p.files.Get(fd)
	if err != nil {
		p.terminate(ExitFailure)
	}
	return f
}

/*
 * open system call
 */
func sysopen(p *Proc) {
	name := p.str(0)
	fd := -1
	p.Sys.gate.do(func() {
		f, err := p.Sys.FS.Open(name)
		if err != nil {
			return
		}
		if fd, err = p.files.Install(f); err != nil {
			f.Close()
		}
	})
	p.ret(int32(fd))
}

/*
 * close system call
 */
func sysclose(p *Proc) {
	fd := p.fd(0)
	p.Sys.gate.do(func() {
		f, err := p.files.Remove(fd)
		if err != nil {
			p.terminate(ExitFailure)
		}
		f.Close()
	})
}

func sysfilesize(p *Proc) {
	fd := p.fd(0)
	var n int
	p.Sys.gate.do(func() {
		n = p.getf(fd).Length()
	})
	p.ret(int32(n))
}

func sysseek(p *Proc) {
	fd := p.fd(0)
	pos := int(p.Args[1])
	p.Sys.gate.do(func() {
		p.getf(fd).Seek(pos)
	})
}

func systell(p *Proc) {
	fd := p.fd(0)
	var pos int
	p.Sys.gate.do(func() {
		pos = p.getf(fd).Tell()
	})
	p.ret(int32(pos))
}
