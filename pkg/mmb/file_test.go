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
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xelalexv/beebdfs/pkg/dfs"
)

func newTestMMB(t *testing.T) *File {
	t.Helper()
	m, err := Create(filepath.Join(t.TempDir(), "disks.mmb"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { m.Close(false) })
	return m
}

func TestCreateMMB(t *testing.T) {

	m := newTestMMB(t)

	if m.Count() != MaxEntries {
		t.Errorf("slot count: want %d, got %d", MaxEntries, m.Count())
	}
	if m.ImageCount() != 0 {
		t.Errorf("image count on fresh file: want 0, got %d", m.ImageCount())
	}

	info, err := os.Stat(m.Path())
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != FullSize {
		t.Errorf("file size: want %d, got %d", int64(FullSize), info.Size())
	}

	for _, entry := range m.AllEntries() {
		if entry.Initialized() {
			t.Fatalf("slot %d not uninitialized on fresh file", entry.Index())
		}
	}
}

func TestSlotBounds(t *testing.T) {

	m := newTestMMB(t)

	if _, err := m.GetEntry(0); !errors.Is(err, ErrOutOfSlots) {
		t.Errorf("slot 0: want ErrOutOfSlots, got %v", err)
	}
	if _, err := m.GetEntry(MaxEntries + 1); !errors.Is(err, ErrOutOfSlots) {
		t.Errorf("slot %d: want ErrOutOfSlots, got %v", MaxEntries+1, err)
	}
	if _, err := m.GetEntry(1); err != nil {
		t.Errorf("slot 1: unexpected error: %v", err)
	}
}

func TestSlotImageAndKillRestore(t *testing.T) {

	m := newTestMMB(t)

	// put a formatted disk with one file into slot 12
	img, err := m.OpenImage(12, dfs.WarnNone)
	if err != nil {
		t.Fatal(err)
	}
	if err := img.Format("SLOTDISK", dfs.BootOff); err != nil {
		t.Fatal(err)
	}
	if _, err := img.AddFile("HELLO", []byte("hello world"), 0x1900, 0,
		false, dfs.AddOptions{}); err != nil {
		t.Fatal(err)
	}
	if err := img.Close(true); err != nil {
		t.Fatal(err)
	}

	entry, err := m.GetEntry(12)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := entry.DRestore(false); err != nil {
		t.Fatal(err)
	}
	if err := entry.SetTitle("SLOTDISK"); err != nil {
		t.Fatal(err)
	}
	if err := m.Save(); err != nil {
		t.Fatal(err)
	}

	// remember the slot payload
	raw, err := os.ReadFile(m.Path())
	if err != nil {
		t.Fatal(err)
	}
	base := indexSize + 11*SlotSize
	payload := make([]byte, SlotSize)
	copy(payload, raw[base:base+SlotSize])

	// dkill flips the status byte only
	changed, err := entry.DKill(false)
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Error("dkill reported no change")
	}
	if entry.StatusByte() != StatusUninitialized {
		t.Errorf("status: want 0x%02x, got 0x%02x",
			StatusUninitialized, entry.StatusByte())
	}
	if err := m.Save(); err != nil {
		t.Fatal(err)
	}

	raw, err = os.ReadFile(m.Path())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(payload, raw[base:base+SlotSize]) {
		t.Error("dkill touched the slot payload")
	}

	// and drestore brings it back
	if changed, err = entry.DRestore(false); err != nil || !changed {
		t.Fatalf("drestore: %v (changed=%v)", err, changed)
	}
	if entry.StatusByte() != StatusUnlocked {
		t.Errorf("status after restore: want 0x%02x, got 0x%02x",
			StatusUnlocked, entry.StatusByte())
	}

	// the slot content survived the round trip
	img, err = m.OpenImage(12, dfs.WarnNone)
	if err != nil {
		t.Fatal(err)
	}
	defer img.Close(false)

	file, err := img.FindFile("HELLO")
	if err != nil {
		t.Fatal(err)
	}
	if file == nil {
		t.Fatal("file lost from slot")
	}
	data, err := file.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello world" {
		t.Error("slot file content changed")
	}
}

func TestLockedSlotRefusesKill(t *testing.T) {

	m := newTestMMB(t)

	entry, err := m.GetEntry(3)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := entry.DRestore(true); err != nil {
		t.Fatal(err)
	}
	if !entry.Locked() {
		t.Fatal("slot not locked after restore with lock")
	}

	if _, err := entry.DKill(false); !errors.Is(err, dfs.ErrLocked) {
		t.Errorf("want ErrLocked, got %v", err)
	}
	if changed, err := entry.DKill(true); err != nil || !changed {
		t.Errorf("dkill with unlock: %v (changed=%v)", err, changed)
	}
}

func TestOnBoot(t *testing.T) {

	m := newTestMMB(t)

	// fresh file maps drives 0..3 to slots 1..4
	for drive := 0; drive < 4; drive++ {
		slot, err := m.OnBoot(drive)
		if err != nil {
			t.Fatal(err)
		}
		if slot != drive+1 {
			t.Errorf("drive %d: want slot %d, got %d", drive, drive+1, slot)
		}
	}

	if err := m.SetOnBoot(2, 300); err != nil {
		t.Fatal(err)
	}
	if err := m.Save(); err != nil {
		t.Fatal(err)
	}

	// verify the split little-endian layout on disk
	raw, err := os.ReadFile(m.Path())
	if err != nil {
		t.Fatal(err)
	}
	if raw[2] != byte(300&0xff) || raw[6] != byte(300>>8) {
		t.Errorf("onboot bytes: got %02x %02x", raw[2], raw[6])
	}

	if slot, _ := m.OnBoot(2); slot != 300 {
		t.Errorf("drive 2: want slot 300, got %d", slot)
	}

	if err := m.SetOnBoot(4, 1); err == nil {
		t.Error("drive 4 not rejected")
	}
	if err := m.SetOnBoot(0, 600); !errors.Is(err, ErrOutOfSlots) {
		t.Errorf("slot 600: want ErrOutOfSlots, got %v", err)
	}
}

func TestDRecat(t *testing.T) {

	m := newTestMMB(t)

	img, err := m.OpenImage(7, dfs.WarnNone)
	if err != nil {
		t.Fatal(err)
	}
	if err := img.Format("REALTITLE", dfs.BootOff); err != nil {
		t.Fatal(err)
	}
	if err := img.Close(true); err != nil {
		t.Fatal(err)
	}

	entry, err := m.GetEntry(7)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := entry.DRestore(false); err != nil {
		t.Fatal(err)
	}
	if err := entry.SetTitle("STALE"); err != nil {
		t.Fatal(err)
	}

	count, err := m.DRecat(dfs.WarnNone)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("drecat: want 1 change, got %d", count)
	}
	if got := m.Entry(7).Title(); got != "REALTITLE" {
		t.Errorf("title after drecat: want REALTITLE, got %q", got)
	}
}

func TestStatusRoundTripsUnknownValues(t *testing.T) {

	m := newTestMMB(t)

	entry, err := m.GetEntry(42)
	if err != nil {
		t.Fatal(err)
	}
	entry.SetStatusByte(0x5a)
	if err := m.Save(); err != nil {
		t.Fatal(err)
	}
	if err := m.Close(true); err != nil {
		t.Fatal(err)
	}

	m2, err := Open(m.Path(), false)
	if err != nil {
		t.Fatal(err)
	}
	defer m2.Close(false)

	if got := m2.Entry(42).StatusByte(); got != 0x5a {
		t.Errorf("status byte: want 0x5a, got 0x%02x", got)
	}
	if got := m2.Entry(42).Status(); got != "I" {
		t.Errorf("status string: want I, got %q", got)
	}
}
