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
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/beebdfs/pkg/dfs"
)

// status byte values in the MMB catalog; any other value round-trips
// unchanged and renders as invalid
const (
	StatusLocked        = 0x00
	StatusUnlocked      = 0x0f
	StatusUninitialized = 0xf0
	//
	statusUninitializedMask = 0xf0
	//
	statusOffset = 15
	titleLength  = 12
)

/*
Entry is one slot descriptor in the MMB catalog: a 12 byte title,
reserved bytes, and the status byte at offset 15. It views the
catalog bytes held by the owning File; mutations mark the entry dirty
so the index gets written back on save.
*/
type Entry struct {
	index int
	data  []byte
	owner *File
}

// Index is the 1-based slot number.
func (e *Entry) Index() int {
	return e.index
}

func (e *Entry) markModified() {
	if e.owner != nil {
		e.owner.setEntryModified(e.index)
	}
}

// Title is the disk title recorded in the MMB catalog.
func (e *Entry) Title() string {
	raw := e.data[0:titleLength]
	end := len(raw)
	for end > 0 && raw[end-1] == 0 {
		end--
	}
	return string(raw[:end])
}

func (e *Entry) SetTitle(title string) error {
	if len(title) > titleLength {
		return fmt.Errorf("title too long: '%s'", title)
	}
	raw := make([]byte, titleLength)
	copy(raw, title)
	if string(e.data[0:titleLength]) != string(raw) {
		e.markModified()
		copy(e.data[0:titleLength], raw)
	}
	return nil
}

// StatusByte is the raw status value, no questions asked.
func (e *Entry) StatusByte() byte {
	return e.data[statusOffset]
}

func (e *Entry) SetStatusByte(value byte) {
	if e.data[statusOffset] != value {
		e.markModified()
		e.data[statusOffset] = value
	}
}

func (e *Entry) Locked() bool {
	return e.StatusByte() == StatusLocked
}

func (e *Entry) Initialized() bool {
	return e.StatusByte()&statusUninitializedMask != StatusUninitialized
}

// Status renders the catalog status the way *DCAT shows it: 'L' locked,
// 'U' uninitialized, 'I' for a status byte this tooling does not know.
func (e *Entry) Status() string {
	switch {
	case !e.Initialized():
		return "U"
	case e.Locked():
		return "L"
	case e.StatusByte() == StatusUnlocked:
		return ""
	}
	return "I"
}

/*
DKill marks the slot uninitialized. The 200 KiB payload stays in
place; only the status byte changes. A locked slot refuses unless
unlock is set. Killing an already uninitialized slot is a no-op and
reports false.
*/
func (e *Entry) DKill(unlock bool) (bool, error) {
	if !e.Initialized() {
		log.Warnf("image %d already uninitialized", e.index)
		return false, nil
	}
	if e.Locked() && !unlock {
		return false, fmt.Errorf("%w: image %d", dfs.ErrLocked, e.index)
	}
	e.SetStatusByte(StatusUninitialized)
	return true, nil
}

// DRestore marks the slot initialized again, optionally locked. Restoring
// an already initialized slot is a no-op and reports false.
func (e *Entry) DRestore(lock bool) (bool, error) {
	if e.Initialized() {
		log.Warnf("image %d already initialized", e.index)
		return false, nil
	}
	if lock {
		e.SetStatusByte(StatusLocked)
	} else {
		e.SetStatusByte(StatusUnlocked)
	}
	return true, nil
}

// SetLocked locks or unlocks an initialized slot.
func (e *Entry) SetLocked(locked bool) error {
	if !e.Initialized() {
		return fmt.Errorf("%w: image %d", ErrUninitialized, e.index)
	}
	if locked {
		e.SetStatusByte(StatusLocked)
	} else {
		e.SetStatusByte(StatusUnlocked)
	}
	return nil
}

// DCatLine renders the slot the way *DCAT lists it.
func (e *Entry) DCatLine() string {
	return fmt.Sprintf("%5d %-12s %1s", e.index, e.Title(), e.Status())
}

func (e *Entry) String() string {
	return e.DCatLine()
}
