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

package mmb

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/beebdfs/pkg/dfs"
)

const (
	// MaxEntries is the number of image slots in an MMB file.
	MaxEntries = 511

	entrySize = 16
	indexSize = (MaxEntries + 1) * entrySize

	// SlotSize is the payload size of one slot, a single sided 80 track
	// SSD.
	SlotSize = dfs.DoubleTracks * dfs.TrackSize

	// FullSize is the size of a freshly created MMB file.
	FullSize = indexSize + MaxEntries*SlotSize
)

var (
	ErrOutOfSlots    = errors.New("MMB slot index out of range")
	ErrUninitialized = errors.New("MMB slot is uninitialized")
)

/*
File is an open MMB container: an 8 KiB index region followed by up to
511 fixed 200 KiB SSD slots. The index is held in memory and written
back on save; slot payloads are never buffered here, they are accessed
through windowed image views handed out by OpenImage.
*/
type File struct {
	//
	path     string
	filename string
	//
	file  *os.File
	index []byte
	count int
	//
	readOnly bool
	isNew    bool
	//
	entryModified  []bool
	onbootModified bool
}

// Open opens an existing MMB file.
func Open(path string, forWrite bool) (*File, error) {
	return open(path, forWrite, false)
}

// Create creates a new MMB file with all slots zero filled and marked
// uninitialized. It fails when the file already exists.
func Create(path string) (*File, error) {
	return open(path, true, true)
}

func open(path string, forWrite, create bool) (*File, error) {

	flags := os.O_RDONLY
	if forWrite {
		flags = os.O_RDWR
	}
	if create {
		flags |= os.O_CREATE | os.O_EXCL
	}

	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, err
	}

	m := &File{
		path:          path,
		filename:      filepath.Base(path),
		file:          f,
		index:         make([]byte, indexSize),
		readOnly:      !forWrite,
		isNew:         create,
		entryModified: make([]bool, MaxEntries+1),
	}

	if create {
		m.count = MaxEntries
		for i := 1; i <= MaxEntries; i++ {
			m.Entry(i).SetStatusByte(StatusUninitialized)
		}
		for drive := 0; drive < 4; drive++ {
			if err := m.SetOnBoot(drive, drive+1); err != nil {
				m.close(false)
				return nil, err
			}
		}
		if err := f.Truncate(FullSize); err != nil {
			m.close(false)
			return nil, err
		}
		if err := m.Save(); err != nil {
			m.close(false)
			return nil, err
		}
		return m, nil
	}

	info, err := f.Stat()
	if err != nil {
		m.close(false)
		return nil, err
	}
	m.count = slotCount(info.Size())
	if m.count == 0 {
		m.close(false)
		return nil, fmt.Errorf("%w: %s is not a valid MMB file",
			dfs.ErrNotAnImage, m.filename)
	}

	if _, err := io.ReadFull(f, m.index); err != nil {
		m.close(false)
		return nil, fmt.Errorf("%s: short read on MMB index: %v",
			m.filename, err)
	}

	log.WithFields(log.Fields{
		"mmb":   m.filename,
		"slots": m.count,
	}).Debug("MMB file opened")

	return m, nil
}

// slotCount derives the number of usable slots from the file size; 0
// means the file cannot be an MMB at all.
func slotCount(size int64) int {
	if size < indexSize+SlotSize {
		return 0
	}
	count := (size - indexSize) / SlotSize
	if count > MaxEntries {
		count = MaxEntries
	}
	return int(count)
}

func (m *File) Path() string {
	return m.path
}

func (m *File) Filename() string {
	return m.filename
}

// Count is the number of slots present in the file.
func (m *File) Count() int {
	return m.count
}

func (m *File) IsReadOnly() bool {
	return m.readOnly
}

func (m *File) checkOpen() error {
	if m.file == nil {
		return dfs.ErrClosed
	}
	return nil
}

func (m *File) checkSlot(index int) error {
	if index < 1 || index > m.count {
		return fmt.Errorf("%w: %d", ErrOutOfSlots, index)
	}
	return nil
}

func (m *File) setEntryModified(index int) {
	m.entryModified[index] = true
}

func (m *File) IsModified() bool {
	if m.onbootModified {
		return true
	}
	for _, mod := range m.entryModified {
		if mod {
			return true
		}
	}
	return false
}

// Entry returns the catalog entry for slot index, 1 through Count.
func (m *File) Entry(index int) *Entry {
	offset := index * entrySize
	return &Entry{
		index: index,
		data:  m.index[offset : offset+entrySize],
		owner: m,
	}
}

// GetEntry is Entry with bounds checking.
func (m *File) GetEntry(index int) (*Entry, error) {
	if err := m.checkOpen(); err != nil {
		return nil, err
	}
	if err := m.checkSlot(index); err != nil {
		return nil, err
	}
	return m.Entry(index), nil
}

// Entries lists the initialized slots.
func (m *File) Entries() []*Entry {
	var entries []*Entry
	for i := 1; i <= m.count; i++ {
		if e := m.Entry(i); e.Initialized() {
			entries = append(entries, e)
		}
	}
	return entries
}

// AllEntries lists every slot, initialized or not.
func (m *File) AllEntries() []*Entry {
	entries := make([]*Entry, 0, m.count)
	for i := 1; i <= m.count; i++ {
		entries = append(entries, m.Entry(i))
	}
	return entries
}

// ImageCount counts the initialized slots.
func (m *File) ImageCount() int {
	return len(m.Entries())
}

/*
OnBoot reads which slot is inserted into one of the four emulated
drives at boot time. The record sits at the start of the index: one
low byte per drive at offset 0..3, the high bytes at offset 4..7.
*/
func (m *File) OnBoot(drive int) (int, error) {
	if err := m.checkOpen(); err != nil {
		return 0, err
	}
	if drive < 0 || drive > 3 {
		return 0, fmt.Errorf("invalid drive number: %d", drive)
	}
	return int(m.index[drive]) | int(m.index[drive+4])<<8, nil
}

func (m *File) SetOnBoot(drive, slot int) error {
	if err := m.checkOpen(); err != nil {
		return err
	}
	if m.readOnly {
		return dfs.ErrReadOnly
	}
	if drive < 0 || drive > 3 {
		return fmt.Errorf("invalid drive number: %d", drive)
	}
	if err := m.checkSlot(slot); err != nil {
		return err
	}
	m.index[drive] = byte(slot)
	m.index[drive+4] = byte(slot >> 8)
	m.onbootModified = true
	return nil
}

func (m *File) slotBase(index int) int64 {
	return indexSize + int64(index-1)*SlotSize
}

/*
OpenImage opens slot index as a single sided 80 track SSD image view.
The view borrows a 200 KiB window of the container file for its
lifetime; close the view before going back to the container, and close
it with save to flush changes into the slot.
*/
func (m *File) OpenImage(index int, warnMode dfs.WarnMode) (*dfs.Image, error) {

	if err := m.checkOpen(); err != nil {
		return nil, err
	}
	if err := m.checkSlot(index); err != nil {
		return nil, err
	}

	store := dfs.NewStoreWindow(m.file, m.slotBase(index), SlotSize,
		m.readOnly)
	name := fmt.Sprintf("%s:%d", m.filename, index)

	img, err := dfs.OpenSlot(store, name, index, warnMode)
	if err != nil {
		return nil, err
	}
	return img, nil
}

/*
DRecat refreshes the catalog titles from the slots themselves: every
initialized slot is opened as an SSD, and its disk title written into
the MMB entry. Returns the number of titles that changed.
*/
func (m *File) DRecat(warnMode dfs.WarnMode) (int, error) {

	count := 0
	for _, entry := range m.Entries() {

		img, err := m.OpenImage(entry.Index(), warnMode)
		if err != nil {
			return count, err
		}
		title := img.Side(0).Title()
		if cerr := img.Close(false); cerr != nil {
			return count, cerr
		}

		if entry.Title() != title {
			if err := entry.SetTitle(title); err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}

// Save writes the index region back to the file.
func (m *File) Save() error {
	if err := m.checkOpen(); err != nil {
		return err
	}
	if m.readOnly {
		return dfs.ErrReadOnly
	}
	if _, err := m.file.WriteAt(m.index, 0); err != nil {
		return fmt.Errorf("%s: failed to write index: %v", m.filename, err)
	}
	m.onbootModified = false
	for i := range m.entryModified {
		m.entryModified[i] = false
	}
	return nil
}

func (m *File) close(save bool) error {

	if m.file == nil {
		return nil
	}

	var err error
	if save && !m.readOnly && m.IsModified() {
		err = m.Save()
	}

	if cerr := m.file.Close(); err == nil {
		err = cerr
	}
	m.file = nil

	if !save && m.isNew {
		if rerr := os.Remove(m.path); rerr != nil {
			log.Warnf("cannot remove discarded MMB file: %v", rerr)
		}
	}
	return err
}

// Close flushes the index when save is set and releases the file. A
// discarded freshly created file is removed again.
func (m *File) Close(save bool) error {
	return m.close(save)
}

func (m *File) String() string {
	if m.file == nil {
		return fmt.Sprintf("MMBFile('%s') [closed]", m.filename)
	}
	return fmt.Sprintf("MMBFile('%s', write=%v)", m.filename, !m.readOnly)
}
