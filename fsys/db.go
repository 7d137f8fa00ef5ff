// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fsys

import (
	"errors"
	"fmt"
	"slices"
	"time"

	bolt "go.etcd.io/bbolt"
)

var filesBucket = []byte("files")

func openDB(path string) (*bolt.DB, error) {
	return bolt.Open(path, 0o666, &bolt.Options{Timeout: time.Second})
}

// LoadDB returns a file system holding the files saved in the bolt
// database at path. A database with no saved files yields an empty file system.
func LoadDB(path string) (*FS, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	fs := New()
	err = db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(filesBucket)
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, v []byte) error {
			// v is only valid during the transaction.
			return fs.WriteFile(string(k), slices.Clone(v))
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fs, nil
}

// Save replaces the files saved in the bolt database at path,
// creating it if needed, with the files now in fs.
// Removed files that are still open are not saved.
func (fs *FS) Save(path string) error {
	db, err := openDB(path)
	if err != nil {
		return err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(filesBucket); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		bucket, err := tx.CreateBucket(filesBucket)
		if err != nil {
			return err
		}
		for _, name := range fs.Names() {
			if err := bucket.Put([]byte(name), fs.dir[name].data); err != nil {
				return err
			}
		}
		return nil
	})
	if cerr := db.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
