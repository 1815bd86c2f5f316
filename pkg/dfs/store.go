/*
   BeebDFS - Acorn DFS disk image maintenance toolkit
   Copyright (c) 2021, Alexander Vollschwitz

   This file is part of BeebDFS.

   BeebDFS is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   BeebDFS is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with BeebDFS. If not, see <http://www.gnu.org/licenses/>.
*/

package dfs

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
)

/*
Store presents an image file as a byte array of bounded size. Reads past
the end of the file yield zero bytes, so a truncated image behaves like
a shrunk one. Writes never happen implicitly; the image flushes through
Write on save.
*/
type Store struct {
	//
	path string
	//
	file     *os.File
	base     int64
	window   int64
	owned    bool
	readOnly bool
	isNew    bool
}

// OpenStore opens the image file at path according to mode and access.
func OpenStore(path string, mode OpenMode, forWrite bool) (*Store, error) {

	if mode == OpenNew && !forWrite {
		return nil, fmt.Errorf("cannot create new image read only")
	}

	flags := os.O_RDONLY
	if forWrite {
		flags = os.O_RDWR
	}

	isNew := false

	switch mode {
	case OpenNew:
		flags |= os.O_CREATE | os.O_EXCL
		isNew = true
	case OpenExisting:
	case OpenAlways:
		if forWrite {
			if _, err := os.Stat(path); os.IsNotExist(err) {
				flags |= os.O_CREATE | os.O_EXCL
				isNew = true
			}
		}
	default:
		return nil, fmt.Errorf("invalid open mode: %d", mode)
	}

	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"path":  path,
		"write": forWrite,
		"new":   isNew,
	}).Debug("store opened")

	return &Store{
		path:     path,
		file:     f,
		window:   -1,
		owned:    true,
		readOnly: !forWrite,
		isNew:    isNew,
	}, nil
}

/*
NewStoreWindow creates a store over a fixed size window of an already
open file, starting at base. The file is borrowed, not owned; closing
the window store leaves it open. This is how MMB slots hand out image
views.
*/
func NewStoreWindow(f *os.File, base, size int64, readOnly bool) *Store {
	return &Store{
		path:     f.Name(),
		file:     f,
		base:     base,
		window:   size,
		readOnly: readOnly,
	}
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) IsReadOnly() bool {
	return s.readOnly
}

func (s *Store) IsNew() bool {
	return s.isNew
}

// Size returns the current payload size, i.e. the file size clamped to the
// window for windowed stores.
func (s *Store) Size() (int64, error) {
	if s.file == nil {
		return 0, ErrClosed
	}
	info, err := s.file.Stat()
	if err != nil {
		return 0, err
	}
	size := info.Size() - s.base
	if size < 0 {
		size = 0
	}
	if s.window >= 0 && size > s.window {
		size = s.window
	}
	return size, nil
}

// Read fills p from the store at offset. Bytes beyond the end of the file
// read as zero.
func (s *Store) Read(offset int64, p []byte) error {

	if s.file == nil {
		return ErrClosed
	}
	if s.window >= 0 && offset+int64(len(p)) > s.window {
		return fmt.Errorf("%w: read beyond store window", ErrAddressOutOfRange)
	}

	n, err := s.file.ReadAt(p, s.base+offset)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		for i := n; i < len(p); i++ {
			p[i] = 0
		}
		return nil
	}
	return err
}

// Write stores p at offset, extending the file as needed.
func (s *Store) Write(offset int64, p []byte) error {

	if s.file == nil {
		return ErrClosed
	}
	if s.readOnly {
		return ErrReadOnly
	}
	if s.window >= 0 && offset+int64(len(p)) > s.window {
		return fmt.Errorf("%w: write beyond store window", ErrAddressOutOfRange)
	}

	_, err := s.file.WriteAt(p, s.base+offset)
	return err
}

// Truncate resizes the backing file. It is a no-op for windowed stores,
// whose slots have fixed extent in the container.
func (s *Store) Truncate(size int64) error {
	if s.file == nil {
		return ErrClosed
	}
	if s.readOnly {
		return ErrReadOnly
	}
	if s.window >= 0 {
		return nil
	}
	return s.file.Truncate(size)
}

func (s *Store) Sync() error {
	if s.file == nil {
		return ErrClosed
	}
	return s.file.Sync()
}

/*
Close releases the underlying file when owned. When discard is set and
the store created the file, the file is removed again, so that a failed
image creation does not leave an empty husk behind.
*/
func (s *Store) Close(discard bool) error {

	if s.file == nil || !s.owned {
		s.file = nil
		return nil
	}

	err := s.file.Close()
	s.file = nil

	if discard && s.isNew {
		if rerr := os.Remove(s.path); rerr != nil {
			log.Warnf("cannot remove discarded image file: %v", rerr)
		}
	}
	return err
}
