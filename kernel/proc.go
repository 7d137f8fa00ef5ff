// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package kernel implements the system call boundary of a small
// teaching operating system: user processes, each running in its own
// goroutine against its own address space, enter the kernel through
// Trap, which validates every argument before acting on it.
package kernel

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/sluminis/pintos/fdtable"
	"github.com/sluminis/pintos/uaccess"
	"github.com/sluminis/pintos/vm"
)

var (
	ErrNoProgram = errors.New("no such program")
	ErrTooBig    = errors.New("executable too large")
)

// A TrapFrame holds the user registers saved on entry to the kernel.
type TrapFrame struct {
	ESP vm.Addr // system call number, then argument words
	EAX uint32  // result
}

// A Program is the user-mode code of an executable.
//
// It starts with Regs.ESP pointing at a zero return address,
// with argc and argv above it, and enters the kernel only through
// Trap. Returning from a Program jumps to that zero address,
// which kills the process like any other page fault.
type Program func(u *User)

// A User is the user-mode view of a process.
type User struct {
	Regs *TrapFrame
	Mem  vm.Memory
	p    *Proc
}

// Trap enters the kernel to make the system call described by the stack.
func (u *User) Trap() {
	Trap(u.p)
}

type Proc struct {
	Sys    *System
	Pid    int32
	Name   string
	Frame  TrapFrame
	Args   [3]uint32 // system call arguments
	Status int32     // exit status

	parent *Proc
	waited bool
	exited bool
	halted bool
	done   chan struct{}
	mem    vm.Space
	chk    uaccess.Checker
	files  *fdtable.Table[File]
	exe    File
}

// Done returns a channel that is closed once p has exited
// and released its resources.
func (p *Proc) Done() <-chan struct{} {
	return p.done
}

// Unwinding panic values, recovered in run.
type (
	exitUnwind struct{}
	haltUnwind struct{}
)

type System struct {
	Config   Config
	Log      *zap.Logger
	Console  *Console
	FS       FileService
	Programs map[string]Program

	gate    gate
	mu      sync.Mutex
	procs   map[int32]*Proc
	nextPid int32
	wg      sync.WaitGroup
	off     chan struct{}
	offOnce sync.Once
}

// NewSystem returns a machine that serves files from fs
// and talks to the user through console.
func NewSystem(fs FileService, console *Console, cfg Config) (*System, error) {
	if cfg.MaxFD <= fdtable.First {
		return nil, fmt.Errorf("kernel: MaxFD %d leaves no room for files", cfg.MaxFD)
	}
	if cfg.StackPages < 1 || cfg.HeapPages < 0 {
		return nil, fmt.Errorf("kernel: invalid memory layout: %d stack pages, %d heap pages", cfg.StackPages, cfg.HeapPages)
	}
	if cfg.HostMemory && !vm.HostSupported {
		return nil, fmt.Errorf("kernel: host memory not supported on this platform")
	}
	sys := &System{
		Config:   cfg,
		Log:      zap.NewNop(),
		Console:  console,
		FS:       fs,
		Programs: make(map[string]Program),
		procs:    make(map[int32]*Proc),
		nextPid:  1,
		off:      make(chan struct{}),
	}
	console.off = sys.off
	return sys, nil
}

// PowerOff turns the machine off. Each process stops the next
// time it enters the kernel or while it waits in the kernel.
func (sys *System) PowerOff() {
	sys.offOnce.Do(func() {
		close(sys.off)
		sys.Log.Info("power off")
	})
}

// Halted reports whether the machine has been powered off.
func (sys *System) Halted() bool {
	select {
	case <-sys.off:
		return true
	default:
		return false
	}
}

// Start runs cmdline as a process with no parent.
func (sys *System) Start(cmdline string) (*Proc, error) {
	return sys.exec(nil, cmdline)
}

// Run runs cmdline as a process with no parent and waits for it to exit.
// It returns ErrPowerOff if the machine was powered off first.
func (sys *System) Run(cmdline string) (int32, error) {
	p, err := sys.Start(cmdline)
	if err != nil {
		return ExitFailure, err
	}
	select {
	case <-p.done:
		if p.halted {
			return ExitFailure, ErrPowerOff
		}
		return p.Status, nil
	case <-sys.off:
		return ExitFailure, ErrPowerOff
	}
}

// Wait waits for every process to exit.
func (sys *System) Wait() {
	sys.wg.Wait()
}

func procName(name string) string {
	if len(name) > NameMax {
		name = name[:NameMax]
	}
	return name
}

func (sys *System) newSpace() (vm.Space, error) {
	if sys.Config.HostMemory {
		return vm.NewHostMem(vm.PhysBase)
	}
	return vm.NewPageMem(), nil
}

// exec starts a child of parent running cmdline, whose first word
// names an executable file that is also a registered Program.
// The executable stays open and unwritable until the child exits.
func (sys *System) exec(parent *Proc, cmdline string) (*Proc, error) {
	argv := strings.Fields(cmdline)
	if len(argv) == 0 {
		return nil, fmt.Errorf("exec: empty command line")
	}
	if sys.Halted() {
		return nil, ErrPowerOff
	}
	name := argv[0]
	prog := sys.Programs[name]
	if prog == nil {
		return nil, fmt.Errorf("exec %s: %w", name, ErrNoProgram)
	}

	var exe File
	var text []byte
	var err error
	sys.gate.do(func() {
		exe, err = sys.FS.Open(name)
		if err != nil {
			return
		}
		if exe.Length() > MaxCodePages*vm.PGSIZE {
			exe.Close()
			exe, err = nil, ErrTooBig
			return
		}
		text = make([]byte, exe.Length())
		exe.Read(text)
		exe.DenyWrite()
	})
	if err != nil {
		return nil, fmt.Errorf("exec %s: %w", name, err)
	}

	mem, err := sys.newSpace()
	if err == nil {
		var esp vm.Addr
		esp, err = load(mem, text, argv, sys.Config)
		if err == nil {
			p := sys.newProc(parent, procName(name), mem, exe, esp)
			sys.Log.Info("exec", zap.Int32("pid", p.Pid), zap.String("cmdline", cmdline))
			go sys.run(p, prog)
			return p, nil
		}
		mem.Release()
	}
	sys.gate.do(func() { exe.Close() })
	return nil, fmt.Errorf("exec %s: %w", name, err)
}

func (sys *System) newProc(parent *Proc, name string, mem vm.Space, exe File, esp vm.Addr) *Proc {
	p := &Proc{
		Sys:    sys,
		Name:   name,
		parent: parent,
		done:   make(chan struct{}),
		mem:    mem,
		exe:    exe,
		files:  fdtable.New[File](sys.Config.MaxFD),
		chk:    uaccess.Checker{Mem: mem, Lenient: sys.Config.Lenient},
	}
	p.Frame.ESP = esp

	sys.mu.Lock()
	defer sys.mu.Unlock()
	for sys.nextPid <= 0 || sys.procs[sys.nextPid] != nil {
		sys.nextPid++
		if sys.nextPid <= 0 {
			sys.nextPid = 1
		}
	}
	p.Pid = sys.nextPid
	sys.nextPid++
	sys.procs[p.Pid] = p
	sys.wg.Add(1)
	return p
}

// load lays out a new address space: the executable image read-only
// at CodeBase, the heap at HeapBase, and the stack just below
// PhysBase holding argv. It returns the initial stack pointer.
func load(mem vm.Space, text []byte, argv []string, cfg Config) (vm.Addr, error) {
	npages := max(1, (len(text)+vm.PGMASK)/vm.PGSIZE)
	if err := mem.Map(CodeBase, npages, true); err != nil {
		return 0, err
	}
	if err := vm.WriteAt(mem, text, CodeBase); err != nil {
		return 0, err
	}
	if err := mem.Protect(CodeBase, npages, false); err != nil {
		return 0, err
	}
	if cfg.HeapPages > 0 {
		if err := mem.Map(HeapBase, cfg.HeapPages, true); err != nil {
			return 0, err
		}
	}
	if err := mem.Map(vm.PhysBase-vm.Addr(cfg.StackPages*vm.PGSIZE), cfg.StackPages, true); err != nil {
		return 0, err
	}
	esp, err := setupArgs(mem, argv)
	if err != nil {
		return 0, fmt.Errorf("argument list too long: %w", err)
	}
	return esp, nil
}

// setupArgs pushes argv onto the stack below PhysBase:
// the strings, padding to a word boundary, the argv array with a
// terminating null pointer, then argv, argc and a zero return address.
func setupArgs(m vm.Memory, argv []string) (vm.Addr, error) {
	esp := vm.PhysBase
	addrs := make([]vm.Addr, len(argv))
	for i := len(argv) - 1; i >= 0; i-- {
		esp -= vm.Addr(len(argv[i]) + 1)
		if err := vm.WriteAt(m, append([]byte(argv[i]), 0), esp); err != nil {
			return 0, err
		}
		addrs[i] = esp
	}
	esp &^= vm.WordSize - 1

	push := func(w uint32) error {
		esp -= vm.WordSize
		return vm.WriteW(m, esp, w)
	}
	words := []uint32{0}
	for i := len(addrs) - 1; i >= 0; i-- {
		words = append(words, uint32(addrs[i]))
	}
	for _, w := range words {
		if err := push(w); err != nil {
			return 0, err
		}
	}
	argvp := esp
	for _, w := range []uint32{uint32(argvp), uint32(len(argv)), 0} {
		if err := push(w); err != nil {
			return 0, err
		}
	}
	return esp, nil
}

// run is the body of p's goroutine.
func (sys *System) run(p *Proc, prog Program) {
	defer sys.wg.Done()
	defer sys.reap(p)
	defer func() {
		e := recover()
		switch e.(type) {
		case nil:
			// Returned to the zero return address.
			p.exit(ExitFailure)
		case exitUnwind:
		case haltUnwind:
			p.halted = true
		default:
			if !vm.IsFault(e) {
				panic(e)
			}
			sys.Log.Debug("user fault", zap.Int32("pid", p.Pid), zap.Any("fault", e))
			p.exit(ExitFailure)
		}
	}()
	debug.SetPanicOnFault(true)
	prog(&User{Regs: &p.Frame, Mem: p.mem, p: p})
}

// exit records status as p's exit status and reports it on the console.
func (p *Proc) exit(status int32) {
	p.Status = status
	p.Sys.Console.Printf("%s: exit(%d)\n", p.Name, status)
	p.Sys.Log.Info("exit", zap.Int32("pid", p.Pid), zap.String("name", p.Name), zap.Int32("status", status))
}

// terminate ends p with the given status. It does not return.
func (p *Proc) terminate(status int32) {
	p.exit(status)
	panic(exitUnwind{})
}

// halt powers the machine off and stops p. It does not return.
func (p *Proc) halt() {
	p.Sys.PowerOff()
	panic(haltUnwind{})
}

// reap releases everything p holds once its goroutine is done.
func (sys *System) reap(p *Proc) {
	sys.gate.do(func() {
		p.files.Drain()
		p.exe.Close()
	})
	p.mem.Release()

	sys.mu.Lock()
	defer sys.mu.Unlock()
	p.exited = true
	for pid, c := range sys.procs {
		if c.parent == p {
			c.parent = nil
			if c.exited {
				delete(sys.procs, pid)
			}
		}
	}
	if p.parent == nil {
		delete(sys.procs, p.Pid)
	}
	close(p.done)
}

// wait waits for p's child pid to exit and returns its status.
// Each child can be waited for once.
func (sys *System) wait(p *Proc, pid int32) int32 {
	sys.mu.Lock()
	c := sys.procs[pid]
	if c == nil || c.parent != p || c.waited {
		sys.mu.Unlock()
		return ExitFailure
	}
	c.waited = true
	sys.mu.Unlock()

	select {
	case <-c.done:
	case <-sys.off:
		panic(haltUnwind{})
	}

	sys.mu.Lock()
	delete(sys.procs, pid)
	sys.mu.Unlock()
	if c.halted {
		return ExitFailure
	}
	return c.Status
}

// Procs returns the number of processes not yet reaped.
func (sys *System) Procs() int {
	sys.mu.Lock()
	defer sys.mu.Unlock()
	return len(sys.procs)
}
