// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kernel

import "go.uber.org/zap"

func syshalt(p *Proc) {
	p.halt()
}

func sysexit(p *Proc) {
	p.terminate(int32(p.Args[0]))
}

func sysexec(p *Proc) {
	cmdline := p.str(0)
	c, err := p.Sys.exec(p, cmdline)
	if err != nil {
		p.Sys.Log.Debug("exec failed", zap.Int32("pid", p.Pid), zap.Error(err))
		p.ret(ExitFailure)
		return
	}
	p.ret(c.Pid)
}

func syswait(p *Proc) {
	p.ret(p.Sys.wait(p, int32(p.Args[0])))
}

func syspractice(p *Proc) {
	p.ret(int32(p.Args[0]) + 1)
}
