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
	"strings"
)

/*
Entry is a view onto a single file entry in the catalog sectors of a
side. It holds the two 8 byte slots backing the entry, one per catalog
sector, and decodes and encodes fields in place. Mutations mark the
owning side dirty.

The second slot packs the high bits of the 18 bit load & exec addresses
and length, and of the 10 bit start sector, into byte 6:

	bits 7-6  exec address bits 17-16
	bits 5-4  length bits 17-16
	bits 3-2  load address bits 17-16
	bits 1-0  start sector bits 9-8

A load or exec address with both high bits set reads back sign extended
to the FFxxxx range, following the DFS convention for host addresses.
*/
type Entry struct {
	side  *Side
	index int
	e1    []byte
	e2    []byte
}

func (e *Entry) Index() int {
	return e.index
}

func (e *Entry) Side() *Side {
	return e.side
}

func (e *Entry) dirty() {
	if e.side != nil {
		e.side.markModified()
	}
}

// Name is the file name, up to 7 characters, without the directory.
func (e *Entry) Name() string {
	raw := make([]byte, 7)
	for i := 0; i < 7; i++ {
		raw[i] = e.e1[i] & 0x7f
	}
	return strings.TrimRight(string(raw), " ")
}

func (e *Entry) SetName(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	padded := name + strings.Repeat(" ", 7-len(name))
	e.dirty()
	copy(e.e1[0:7], padded)
	return nil
}

// Dir is the single character directory name, '$' by default.
func (e *Entry) Dir() byte {
	return e.e1[7] & 0x7f
}

func (e *Entry) SetDir(dir byte) error {
	if err := validateDir(dir); err != nil {
		return err
	}
	e.dirty()
	e.e1[7] = e.e1[7]&0x80 | dir
	return nil
}

// FullName is the directory and file name joined with a dot.
func (e *Entry) FullName() string {
	return fmt.Sprintf("%c.%s", e.Dir(), e.Name())
}

func (e *Entry) Locked() bool {
	return e.e1[7]&0x80 != 0
}

func (e *Entry) SetLocked(locked bool) {
	e.dirty()
	if locked {
		e.e1[7] |= 0x80
	} else {
		e.e1[7] &= 0x7f
	}
}

// Access is the attribute string as shown by *INFO, "L" or empty.
func (e *Entry) Access() string {
	if e.Locked() {
		return "L"
	}
	return ""
}

func (e *Entry) highBits(index uint) int {
	return int(e.e2[6]>>(2*index)) & 3
}

func (e *Entry) setHighBits(index uint, value int) {
	mask := byte(3) << (2 * index)
	e.e2[6] = e.e2[6]&^mask | byte(value&3)<<(2*index)
}

func (e *Entry) LoadAddr() int {
	high := e.highBits(1)
	if high == 3 {
		high = 255
	}
	return int(e.e2[0]) | int(e.e2[1])<<8 | high<<16
}

func (e *Entry) SetLoadAddr(addr int) {
	e.dirty()
	e.e2[0] = byte(addr)
	e.e2[1] = byte(addr >> 8)
	e.setHighBits(1, addr>>16)
}

func (e *Entry) ExecAddr() int {
	high := e.highBits(3)
	if high == 3 {
		high = 255
	}
	return int(e.e2[2]) | int(e.e2[3])<<8 | high<<16
}

func (e *Entry) SetExecAddr(addr int) {
	e.dirty()
	e.e2[2] = byte(addr)
	e.e2[3] = byte(addr >> 8)
	e.setHighBits(3, addr>>16)
}

// Size is the file length in bytes.
func (e *Entry) Size() int {
	return int(e.e2[4]) | int(e.e2[5])<<8 | e.highBits(2)<<16
}

func (e *Entry) SetSize(size int) {
	e.dirty()
	e.e2[4] = byte(size)
	e.e2[5] = byte(size >> 8)
	e.setHighBits(2, size>>16)
}

// StartSector is the logical number of the first sector of file data.
func (e *Entry) StartSector() int {
	return int(e.e2[7]) | e.highBits(0)<<8
}

func (e *Entry) SetStartSector(sector int) {
	e.dirty()
	e.e2[7] = byte(sector)
	e.setHighBits(0, sector>>8)
}

// Sectors is the number of sectors occupied by the file data.
func (e *Entry) Sectors() int {
	return (e.Size() + SectorSize - 1) / SectorSize
}

// EndSector is the logical number of the first sector after the file data.
func (e *Entry) EndSector() int {
	return e.StartSector() + e.Sectors()
}

// RawName returns the 8 name bytes with attribute bits stripped, as used
// for file digests.
func (e *Entry) RawName() []byte {
	raw := make([]byte, 8)
	for i := range raw {
		raw[i] = e.e1[i] & 0x7f
	}
	return raw
}

func (e *Entry) clear() {
	e.dirty()
	for i := 0; i < 8; i++ {
		e.e1[i] = 0
		e.e2[i] = 0
	}
}

// Info renders the entry the way *INFO does.
func (e *Entry) Info() string {
	access := " "
	if e.Locked() {
		access = "L"
	}
	return fmt.Sprintf("%-10s %1s  %06X %06X %06X %03X",
		e.FullName(), access, e.LoadAddr(), e.ExecAddr(), e.Size(),
		e.StartSector())
}

// matches reports whether the entry has the given directory and name,
// compared case insensitively as DFS does.
func (e *Entry) matches(dir byte, name string) bool {
	return lowerByte(e.Dir()) == lowerByte(dir) &&
		strings.EqualFold(e.Name(), name)
}

func lowerByte(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + 32
	}
	return c
}
