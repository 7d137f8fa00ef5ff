// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bin

import (
	"bytes"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/zap/zaptest"

	"github.com/sluminis/pintos/fsys"
	"github.com/sluminis/pintos/kernel"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func boot(t *testing.T, fs *fsys.FS) (*kernel.System, *lockedBuffer) {
	t.Helper()
	out := new(lockedBuffer)
	sys, err := kernel.NewSystem(kernel.Disk(fs), kernel.NewConsole(out), kernel.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	sys.Log = zaptest.NewLogger(t)
	if err := Install(sys, fs); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		sys.PowerOff()
		sys.Wait()
	})
	return sys, out
}

func TestInstall(t *testing.T) {
	fs := fsys.New()
	fs.WriteFile("echo", []byte("custom"))
	sys, _ := boot(t, fs)

	var want []string
	for name := range programs {
		want = append(want, name)
		if sys.Programs[name] == nil {
			t.Errorf("program %s not registered", name)
		}
	}
	if diff := cmp.Diff(want, fs.Names(), cmpopts.SortSlices(func(a, b string) bool { return a < b })); diff != "" {
		t.Fatalf("files (-want +got):\n%s", diff)
	}
	if data, _ := fs.ReadFile("echo"); string(data) != "custom" {
		t.Fatalf("Install replaced echo: %q", data)
	}
	if data, _ := fs.ReadFile("cat"); string(data) != "#!pintos cat\n" {
		t.Fatalf("cat = %q", data)
	}
}

func TestPrograms(t *testing.T) {
	tests := []struct {
		cmdline string
		status  int32
		out     string
	}{
		{"echo a  b", 0, "a b\necho: exit(0)\n"},
		{"args x y", 0, "argv[0] = 'args'\nargv[1] = 'x'\nargv[2] = 'y'\nargs: exit(0)\n"},
		{"practice 1 -5", 0, "practice(1) = 2\npractice(-5) = -4\npractice: exit(0)\n"},
		{"practice x", 1, "practice: bad number \"x\"\npractice: exit(1)\n"},
		{"cat README", 0, "hello\ncat: exit(0)\n"},
		{"cat nope", 1, "cat: nope: cannot open\ncat: exit(1)\n"},
		{"cp README", 1, "usage: cp src dst\ncp: exit(1)\n"},
		{"rm nope", 1, "rm: nope: cannot remove\nrm: exit(1)\n"},
		{"touch -s x f", 1, "touch: bad size x\ntouch: exit(1)\n"},
	}
	for _, tt := range tests {
		fs := fsys.New()
		fs.WriteFile("README", []byte("hello\n"))
		sys, out := boot(t, fs)
		status, err := sys.Run(tt.cmdline)
		if err != nil {
			t.Fatalf("%s: %v", tt.cmdline, err)
		}
		if status != tt.status {
			t.Errorf("%s: status %d, want %d", tt.cmdline, status, tt.status)
		}
		if diff := cmp.Diff(tt.out, out.String()); diff != "" {
			t.Errorf("%s: output (-want +got):\n%s", tt.cmdline, diff)
		}
	}
}

func TestCopyTouchRemove(t *testing.T) {
	fs := fsys.New()
	fs.WriteFile("README", []byte("hello\n"))
	sys, _ := boot(t, fs)
	for _, cmdline := range []string{"cp README copy", "touch -s 4 a b", "rm README"} {
		if status, err := sys.Run(cmdline); status != 0 || err != nil {
			t.Fatalf("%s: status %d, err %v", cmdline, status, err)
		}
	}
	files := map[string]string{}
	for _, name := range []string{"copy", "a", "b", "README"} {
		data, err := fs.ReadFile(name)
		if err != nil {
			continue
		}
		files[name] = string(data)
	}
	want := map[string]string{"copy": "hello\n", "a": "\x00\x00\x00\x00", "b": "\x00\x00\x00\x00"}
	if diff := cmp.Diff(want, files); diff != "" {
		t.Fatalf("files (-want +got):\n%s", diff)
	}
}
