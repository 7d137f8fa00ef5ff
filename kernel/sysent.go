// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kernel

var sysent [14]sysentry

// A sysentry describes one system call.
// The name is a trace format: in the argument list %d is a signed
// word, %u an unsigned one, %p an address, %s a string and %q a
// buffer and its length; after the closing parenthesis %d is the result.
type sysentry struct {
	args int // argument words after the number
	name string
	impl func(*Proc)
}

func init() {
	sysent = [...]sysentry{
		{0, "halt()", syshalt},                /*  0 = halt */
		{1, "exit(%d)", sysexit},              /*  1 = exit */
		{1, "exec(%s) = %d", sysexec},         /*  2 = exec */
		{1, "wait(%d) = %d", syswait},         /*  3 = wait */
		{2, "create(%s, %u) = %d", syscreate}, /*  4 = create */
		{1, "remove(%s) = %d", sysremove},     /*  5 = remove */
		{1, "open(%s) = %d", sysopen},         /*  6 = open */
		{1, "filesize(%d) = %d", sysfilesize}, /*  7 = filesize */
		{3, "read(%d, %p, %u) = %d", sysread}, /*  8 = read */
		{3, "write(%d, %q) = %d", syswrite},   /*  9 = write */
		{2, "seek(%d, %u)", sysseek},          /* 10 = seek */
		{1, "tell(%d) = %d", systell},         /* 11 = tell */
		{1, "close(%d)", sysclose},            /* 12 = close */
		{1, "practice(%d) = %d", syspractice}, /* 13 = practice */
	}
}
