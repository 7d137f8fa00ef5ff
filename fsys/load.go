// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fsys

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/tools/txtar"
)

// Load returns a file system holding the files of a txtar archive.
//
// Each archive file name is followed by optional k=v fields:
//
//	size=N    make the file N bytes long, zero-padding the data
//	base64=1  the data is base64-encoded
func Load(archive []byte) (*FS, error) {
	fs := New()
	ar := txtar.Parse(archive)
	for _, file := range ar.Files {
		f := strings.Fields(file.Name)
		if len(f) == 0 {
			return nil, fmt.Errorf("txtar file with empty name")
		}
		name := f[0]
		size := -1
		b64 := false
		for _, arg := range f[1:] {
			k, v, ok := strings.Cut(arg, "=")
			if !ok {
				return nil, fmt.Errorf("invalid txtar k=v: %s", arg)
			}
			i, err := strconv.ParseInt(v, 0, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid txtar k=v: %s", arg)
			}
			switch k {
			default:
				return nil, fmt.Errorf("invalid txtar k=v: %s", arg)
			case "size":
				if i < 0 || i > MaxFileSize {
					return nil, fmt.Errorf("%s: size %d: %w", name, i, ErrNoSpace)
				}
				size = int(i)
			case "base64":
				b64 = i != 0
			}
		}

		data := file.Data
		if b64 {
			dec, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
			if err != nil {
				return nil, fmt.Errorf("%s: decoding: %v", name, err)
			}
			data = dec
		}
		if size >= 0 {
			if len(data) > size {
				return nil, fmt.Errorf("%s: %d bytes of data for size=%d", name, len(data), size)
			}
			data = append(data, make([]byte, size-len(data))...)
		}
		if err := fs.WriteFile(name, data); err != nil {
			return nil, err
		}
	}
	return fs, nil
}

// Archive returns the files of fs as a txtar archive that Load accepts.
// Files whose contents would not survive as text are base64-encoded.
func (fs *FS) Archive() []byte {
	ar := new(txtar.Archive)
	for _, name := range fs.Names() {
		data := fs.dir[name].data
		switch {
		case len(data) == 0:
			ar.Files = append(ar.Files, txtar.File{Name: name})
		case isText(data):
			ar.Files = append(ar.Files, txtar.File{Name: name, Data: data})
		default:
			enc := base64.StdEncoding.EncodeToString(data)
			ar.Files = append(ar.Files, txtar.File{
				Name: name + " base64=1",
				Data: []byte(enc + "\n"),
			})
		}
	}
	return txtar.Format(ar)
}

// isText reports whether data round-trips through a txtar file unchanged:
// valid UTF-8 ending in a newline with no line that looks like a file marker.
func isText(data []byte) bool {
	if !utf8.Valid(data) || data[len(data)-1] != '\n' {
		return false
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "-- ") || strings.ContainsRune(line, 0) {
			return false
		}
	}
	return true
}
