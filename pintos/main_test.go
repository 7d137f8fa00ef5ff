// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/subcommands"

	"github.com/sluminis/pintos/fsys"
	"github.com/sluminis/pintos/kernel"
)

const testDisk = `-- README --
hello
-- empty size=3 --
`

func execute(t *testing.T, cmd subcommands.Command, args ...string) subcommands.ExitStatus {
	t.Helper()
	f := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	cmd.SetFlags(f)
	if err := f.Parse(args); err != nil {
		t.Fatal(err)
	}
	return cmd.Execute(context.Background(), f)
}

func TestMkdisk(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "disk.txtar")
	db := filepath.Join(dir, "disk.db")
	out := filepath.Join(dir, "out.txtar")
	if err := os.WriteFile(txt, []byte(testDisk), 0o666); err != nil {
		t.Fatal(err)
	}

	if st := execute(t, new(mkdiskCmd), txt, db); st != subcommands.ExitSuccess {
		t.Fatalf("mkdisk: status %v", st)
	}
	fs, err := fsys.LoadDB(db)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"README", "empty"}, fs.Names()); diff != "" {
		t.Fatalf("names (-want +got):\n%s", diff)
	}

	if st := execute(t, new(mkdiskCmd), "-x", db, out); st != subcommands.ExitSuccess {
		t.Fatalf("mkdisk -x: status %v", st)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	back, err := fsys.Load(data)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := back.ReadFile("empty")
	if !bytes.Equal(got, make([]byte, 3)) {
		t.Fatalf("empty = %q after round trip", got)
	}

	if st := execute(t, new(mkdiskCmd), txt); st != subcommands.ExitUsageError {
		t.Fatalf("mkdisk with one argument: status %v", st)
	}
}

func TestList(t *testing.T) {
	fs, err := fsys.Load([]byte(testDisk))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := list(&buf, fs); err != nil {
		t.Fatal(err)
	}
	want := "       6 README\n" +
		"       3 empty\n" +
		"       9 total\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Fatalf("list (-want +got):\n%s", diff)
	}
}

func TestLoadDisk(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "disk.txtar")
	db := filepath.Join(dir, "disk.db")
	if err := os.WriteFile(txt, []byte(testDisk), 0o666); err != nil {
		t.Fatal(err)
	}

	// An empty database takes its files from -fs.
	c := &runCmd{fs: txt, disk: db}
	fs, err := c.loadDisk()
	if err != nil {
		t.Fatal(err)
	}
	if len(fs.Names()) != 2 {
		t.Fatalf("loaded %v, want the txtar files", fs.Names())
	}

	// A populated one wins.
	only := fsys.New()
	only.WriteFile("db", []byte("x"))
	if err := only.Save(db); err != nil {
		t.Fatal(err)
	}
	fs, err = c.loadDisk()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"db"}, fs.Names()); diff != "" {
		t.Fatalf("names (-want +got):\n%s", diff)
	}

	c = &runCmd{fs: filepath.Join(dir, "missing")}
	if _, err := c.loadDisk(); err == nil {
		t.Fatal("loadDisk succeeded with a missing -fs file")
	}
}

func TestPump(t *testing.T) {
	c := kernel.NewConsole(nil)
	quit := make(chan struct{})
	pump(strings.NewReader("ab"), c, quit)
	var got []byte
	for c.Pending() > 0 {
		b, err := c.ReadByte()
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, b)
	}
	if string(got) != "ab\x04" {
		t.Fatalf("console got %q, want %q", got, "ab\x04")
	}
	select {
	case <-quit:
		t.Fatal("quit closed at end of input")
	default:
	}

	pump(strings.NewReader("x\x1cy"), c, quit)
	<-quit
	if c.Pending() != 1 {
		t.Fatalf("Pending() = %d after ^\\, want 1", c.Pending())
	}
}

func TestCRLFWriter(t *testing.T) {
	var buf bytes.Buffer
	n, err := crlfWriter{&buf}.Write([]byte("a\nb\n"))
	if n != 4 || err != nil {
		t.Fatalf("Write = %d, %v, want 4, nil", n, err)
	}
	if got := buf.String(); got != "a\r\nb\r\n" {
		t.Fatalf("wrote %q", got)
	}
}
