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
	"bytes"
	"testing"
)

func TestCatalogRoundTrip(t *testing.T) {

	// arbitrary catalog sectors, including reserved bits and garbage in
	// unused slots, must survive decode/encode byte for byte
	s0 := make([]byte, SectorSize)
	s1 := make([]byte, SectorSize)
	for i := range s0 {
		s0[i] = byte(i * 7)
		s1[i] = byte(255 - i)
	}

	v := DecodeCatalog(s0, s1)
	o0, o1 := v.Encode()

	if !bytes.Equal(s0, o0) {
		t.Error("sector 0 did not round trip")
	}
	if !bytes.Equal(s1, o1) {
		t.Error("sector 1 did not round trip")
	}
}

func TestCatalogFields(t *testing.T) {

	s0 := make([]byte, SectorSize)
	s1 := make([]byte, SectorSize)
	copy(s0[0:8], "DISKTITL")
	copy(s1[0:4], "E 12")
	s1[4] = 0x42        // sequence
	s1[5] = 2 * 8       // two files
	s1[6] = 0x30 | 0x03 // boot EXEC, sector count high bits
	s1[7] = 0x20        // 0x320 = 800 sectors

	v := DecodeCatalog(s0, s1)

	if got := v.Title(); got != "DISKTITLE 12" {
		t.Errorf("title: want 'DISKTITLE 12', got '%s'", got)
	}
	if got := v.SequenceNumber(); got != 42 {
		t.Errorf("sequence: want 42, got %d", got)
	}
	if got := v.NumberOfFiles(); got != 2 {
		t.Errorf("files: want 2, got %d", got)
	}
	if got := v.BootOption(); got != BootExec {
		t.Errorf("boot option: want EXEC, got %v", got)
	}
	if got := v.TotalSectors(); got != 800 {
		t.Errorf("sectors: want 800, got %d", got)
	}
}

func TestEntryBitfields(t *testing.T) {

	v := &CatalogView{}
	e := v.File(0)

	if err := e.SetName("PROG"); err != nil {
		t.Fatal(err)
	}
	if err := e.SetDir('D'); err != nil {
		t.Fatal(err)
	}
	e.SetLoadAddr(0x31900)
	e.SetExecAddr(0x28023)
	e.SetSize(0x12345)
	e.SetStartSector(0x234)
	e.SetLocked(true)

	if got := e.Name(); got != "PROG" {
		t.Errorf("name: want PROG, got %s", got)
	}
	if got := e.FullName(); got != "D.PROG" {
		t.Errorf("full name: want D.PROG, got %s", got)
	}
	if !e.Locked() {
		t.Error("locked flag lost")
	}
	// both high bits of 0x31900 are set, so it reads back sign extended
	if got := e.LoadAddr(); got != 0xFF1900 {
		t.Errorf("load address: want 0xFF1900, got 0x%X", got)
	}
	if got := e.ExecAddr(); got != 0x28023 {
		t.Errorf("exec address: want 0x28023, got 0x%X", got)
	}
	if got := e.Size(); got != 0x12345 {
		t.Errorf("size: want 0x12345, got 0x%X", got)
	}
	if got := e.StartSector(); got != 0x234 {
		t.Errorf("start sector: want 0x234, got 0x%X", got)
	}
	if got := e.Sectors(); got != (0x12345+255)/256 {
		t.Errorf("sector count: got %d", got)
	}
}

func TestEntryAddressSignExtension(t *testing.T) {

	// load & exec addresses with both high bits set read back as host
	// addresses in the FFxxxx range
	v := &CatalogView{}
	e := v.File(0)

	e.SetLoadAddr(0x3FFFF)
	if got := e.LoadAddr(); got != 0xFFFFFF {
		t.Errorf("load address: want 0xFFFFFF, got 0x%X", got)
	}
	e.SetExecAddr(0x38023)
	if got := e.ExecAddr(); got != 0xFF8023 {
		t.Errorf("exec address: want 0xFF8023, got 0x%X", got)
	}

	// a single high bit is not sign extended
	e.SetLoadAddr(0x18000)
	if got := e.LoadAddr(); got != 0x18000 {
		t.Errorf("load address: want 0x18000, got 0x%X", got)
	}
}

func TestEntryHighBitsPacking(t *testing.T) {

	// the packed byte must hold all four bitfields without crosstalk
	v := &CatalogView{}
	e := v.File(0)

	e.SetStartSector(0x3ff)
	e.SetLoadAddr(0x2aaaa)
	e.SetExecAddr(0x15555)
	e.SetSize(0x30000)

	if got := e.StartSector(); got != 0x3ff {
		t.Errorf("start sector: want 0x3ff, got 0x%X", got)
	}
	if got := e.LoadAddr(); got != 0x2aaaa {
		t.Errorf("load address: want 0x2aaaa, got 0x%X", got)
	}
	if got := e.ExecAddr(); got != 0x15555 {
		t.Errorf("exec address: want 0x15555, got 0x%X", got)
	}
	if got := e.Size(); got != 0x30000 {
		t.Errorf("size: want 0x30000, got 0x%X", got)
	}
}
