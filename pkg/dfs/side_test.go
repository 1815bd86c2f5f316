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
	"errors"
	"fmt"
	"path/filepath"
	"testing"
)

func newTestImage(t *testing.T, name string, opts OpenOptions) *Image {
	t.Helper()
	img, err := Create(filepath.Join(t.TempDir(), name), opts)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { img.Close(false) })
	return img
}

func checkInvariants(t *testing.T, side *Side) {
	t.Helper()
	end := side.TotalSectors()
	for _, f := range side.Files() {
		if f.EndSector() > end {
			t.Errorf("entry #%d (%s) out of order or overlapping: "+
				"end %d above %d", f.Index(), f.FullName(), f.EndSector(), end)
		}
		if f.StartSector() < CatalogSectors {
			t.Errorf("entry #%d (%s) overlaps catalog", f.Index(),
				f.FullName())
		}
		end = f.StartSector()
	}
}

func TestAddFileHighAllocation(t *testing.T) {

	img := newTestImage(t, "g.ssd", OpenOptions{})
	side := img.Side(0)
	if err := side.SetTitle("GAMES"); err != nil {
		t.Fatal(err)
	}

	data := make([]byte, 100)
	entry, err := side.AddFile('$', "A", data, 0x1900, 0x8023, true,
		AddOptions{})
	if err != nil {
		t.Fatal(err)
	}

	// one sector file on an empty 80 track side lands as high as possible
	if got := entry.StartSector(); got != 799 {
		t.Errorf("start sector: want 799, got %d", got)
	}
	if got := entry.Size(); got != 100 {
		t.Errorf("size: want 100, got %d", got)
	}
	if !entry.Locked() {
		t.Error("locked flag not set")
	}
	if got := side.SequenceNumber(); got != 1 {
		t.Errorf("sequence: want 1, got %d", got)
	}
	if got := side.NumberOfFiles(); got != 1 {
		t.Errorf("files: want 1, got %d", got)
	}
	checkInvariants(t, side)
}

func TestDeleteLocked(t *testing.T) {

	img := newTestImage(t, "g.ssd", OpenOptions{})
	side := img.Side(0)

	if _, err := side.AddFile('$', "A", make([]byte, 100), 0, 0, true,
		AddOptions{}); err != nil {
		t.Fatal(err)
	}

	if err := side.Delete('$', "A", false); !errors.Is(err, ErrLocked) {
		t.Errorf("want ErrLocked, got %v", err)
	}

	if err := side.Delete('$', "A", true); err != nil {
		t.Fatal(err)
	}
	if got := side.NumberOfFiles(); got != 0 {
		t.Errorf("files: want 0, got %d", got)
	}
	if got := side.SequenceNumber(); got != 2 {
		t.Errorf("sequence: want 2, got %d", got)
	}
}

func TestAddFileCollisions(t *testing.T) {

	img := newTestImage(t, "g.ssd", OpenOptions{})
	side := img.Side(0)

	if _, err := side.AddFile('$', "PROG", []byte("one"), 0, 0, false,
		AddOptions{}); err != nil {
		t.Fatal(err)
	}

	// same name, case insensitive, without replace
	_, err := side.AddFile('$', "prog", []byte("two"), 0, 0, false,
		AddOptions{})
	if !errors.Is(err, ErrExists) {
		t.Errorf("want ErrExists, got %v", err)
	}

	// replace of a locked file needs ignore access
	if err := side.SetAttrib('$', "PROG", boolPtr(true), nil,
		nil); err != nil {
		t.Fatal(err)
	}
	_, err = side.AddFile('$', "PROG", []byte("two"), 0, 0, false,
		AddOptions{Replace: true})
	if !errors.Is(err, ErrLocked) {
		t.Errorf("want ErrLocked, got %v", err)
	}

	entry, err := side.AddFile('$', "PROG", []byte("two"), 0, 0, false,
		AddOptions{Replace: true, IgnoreAccess: true})
	if err != nil {
		t.Fatal(err)
	}
	got, err := entry.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "two" {
		t.Errorf("replaced content: want 'two', got '%s'", got)
	}
}

func boolPtr(v bool) *bool {
	return &v
}

func TestCatalogFull(t *testing.T) {

	img := newTestImage(t, "g.ssd", OpenOptions{})
	side := img.Side(0)

	for i := 0; i < MaxFiles; i++ {
		if _, err := side.AddFile('$', fmt.Sprintf("F%d", i), []byte{1},
			0, 0, false, AddOptions{}); err != nil {
			t.Fatal(err)
		}
	}
	_, err := side.AddFile('$', "ONEMORE", []byte{1}, 0, 0, false,
		AddOptions{})
	if !errors.Is(err, ErrFull) {
		t.Errorf("want ErrFull, got %v", err)
	}
	checkInvariants(t, side)
}

func TestAddDeleteKeepsOrder(t *testing.T) {

	img := newTestImage(t, "g.ssd", OpenOptions{})
	side := img.Side(0)

	sizes := []int{100, 5000, 256, 1, 700, 12000}
	for i, size := range sizes {
		if _, err := side.AddFile('$', fmt.Sprintf("F%d", i),
			make([]byte, size), 0, 0, false, AddOptions{}); err != nil {
			t.Fatal(err)
		}
		checkInvariants(t, side)
	}

	for _, name := range []string{"F1", "F4", "F0"} {
		if err := side.Delete('$', name, false); err != nil {
			t.Fatal(err)
		}
		checkInvariants(t, side)
	}

	if _, err := side.AddFile('$', "G", make([]byte, 4000), 0, 0, false,
		AddOptions{}); err != nil {
		t.Fatal(err)
	}
	checkInvariants(t, side)

	if got := side.NumberOfFiles(); got != 4 {
		t.Errorf("files: want 4, got %d", got)
	}
}

func TestNoSpaceAndCompact(t *testing.T) {

	img := newTestImage(t, "g.ssd", OpenOptions{Tracks: SingleTracks})
	side := img.Side(0)

	// B ends up wedged between two free fragments once A is gone
	if _, err := side.AddFile('$', "A", make([]byte, 100*SectorSize),
		0, 0, false, AddOptions{}); err != nil {
		t.Fatal(err)
	}
	if _, err := side.AddFile('$', "B", make([]byte, 1*SectorSize),
		0, 0, false, AddOptions{}); err != nil {
		t.Fatal(err)
	}
	if err := side.Delete('$', "A", false); err != nil {
		t.Fatal(err)
	}

	bContent, err := side.FindEntry('$', "B").ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	free := side.FreeSectors()
	largest := side.LargestFreeBlock() / SectorSize
	if largest >= free {
		t.Fatalf("free space not fragmented: %d free, largest %d",
			free, largest)
	}

	// wants more than the largest fragment, less than total free
	big := make([]byte, (largest+1)*SectorSize)

	_, err = side.AddFile('$', "BIG", big, 0, 0, false,
		AddOptions{NoCompact: true})
	if !errors.Is(err, ErrNoSpace) {
		t.Errorf("want ErrNoSpace, got %v", err)
	}

	if _, err = side.AddFile('$', "BIG", big, 0, 0, false,
		AddOptions{}); err != nil {
		t.Fatal(err)
	}
	checkInvariants(t, side)

	// the survivor moved down to the catalog boundary intact
	b := side.FindEntry('$', "B")
	if b == nil {
		t.Fatal("file B lost in compaction")
	}
	if got := b.StartSector(); got != CatalogSectors {
		t.Errorf("B start sector after compact: want 2, got %d", got)
	}
	after, err := b.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(bContent, after) {
		t.Error("file B content changed during compaction")
	}
}

func TestCompactPacksFiles(t *testing.T) {

	img := newTestImage(t, "g.ssd", OpenOptions{})
	side := img.Side(0)

	contents := map[string][]byte{}
	for i, size := range []int{700, 300, 1500, 42} {
		name := fmt.Sprintf("F%d", i)
		data := bytes.Repeat([]byte{byte(i + 1)}, size)
		contents[name] = data
		if _, err := side.AddFile('$', name, data, 0, 0, false,
			AddOptions{}); err != nil {
			t.Fatal(err)
		}
	}
	if err := side.Delete('$', "F1", false); err != nil {
		t.Fatal(err)
	}
	delete(contents, "F1")

	used := side.UsedSectors()
	seq := side.SequenceNumber()

	if err := side.Compact(); err != nil {
		t.Fatal(err)
	}

	if got := side.UsedSectors(); got != used {
		t.Errorf("used sectors changed: %d -> %d", used, got)
	}
	if got := side.SequenceNumber(); got != seq+1 {
		t.Errorf("sequence after compact: want %d, got %d", seq+1, got)
	}

	// regions now form one contiguous run from the catalog up
	next := CatalogSectors
	files := side.Files()
	for i := len(files) - 1; i >= 0; i-- {
		if got := files[i].StartSector(); got != next {
			t.Errorf("%s: want start %d, got %d", files[i].FullName(),
				next, got)
		}
		next = files[i].EndSector()
	}

	for name, want := range contents {
		got, err := side.FindEntry('$', name).ReadAll()
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(want, got) {
			t.Errorf("%s: content changed during compaction", name)
		}
	}
	checkInvariants(t, side)
}

func TestFormatResets(t *testing.T) {

	img := newTestImage(t, "g.ssd", OpenOptions{})
	side := img.Side(0)

	if _, err := side.AddFile('$', "X", []byte("x"), 0, 0, false,
		AddOptions{}); err != nil {
		t.Fatal(err)
	}

	if err := side.Format("NEWTITLE", BootRun); err != nil {
		t.Fatal(err)
	}

	if got := side.NumberOfFiles(); got != 0 {
		t.Errorf("files after format: want 0, got %d", got)
	}
	if got := side.Title(); got != "NEWTITLE" {
		t.Errorf("title: want NEWTITLE, got %s", got)
	}
	if got := side.BootOption(); got != BootRun {
		t.Errorf("boot option: want RUN, got %v", got)
	}
	if got := side.TotalSectors(); got != DoubleSectors {
		t.Errorf("sectors: want %d, got %d", DoubleSectors, got)
	}
	if got := side.SequenceNumber(); got != 0 {
		t.Errorf("sequence: want 0, got %d", got)
	}
}

func TestValidatorFlagsCorruptCatalog(t *testing.T) {

	img := newTestImage(t, "g.ssd", OpenOptions{})
	side := img.Side(0)

	// a ragged end offset invalidates the catalog
	side.cat1[5] = 7

	valid, warnings := side.Validate(WarnAll)
	if valid {
		t.Error("corrupt catalog passed validation")
	}
	if len(warnings) == 0 {
		t.Fatal("no warnings emitted")
	}
	found := false
	for _, w := range warnings {
		if w.Kind == WarnBadEndOffset {
			found = true
		}
	}
	if !found {
		t.Error("bad end offset not reported")
	}

	// mutation refuses on an invalid side
	_, err := side.AddFile('$', "X", []byte("x"), 0, 0, false, AddOptions{})
	if !errors.Is(err, ErrCatalogCorrupt) {
		t.Errorf("want ErrCatalogCorrupt, got %v", err)
	}
}

func TestValidatorWarnModes(t *testing.T) {

	img := newTestImage(t, "g.ssd", OpenOptions{})
	side := img.Side(0)

	// two independent problems
	side.cat1[5] = 7
	side.cat1[6] |= 0x40

	_, all := side.Validate(WarnAll)
	if len(all) < 2 {
		t.Errorf("warn all: want at least 2 warnings, got %d", len(all))
	}

	_, first := side.Validate(WarnFirst)
	if len(first) != 1 {
		t.Errorf("warn first: want 1 warning, got %d", len(first))
	}

	_, none := side.Validate(WarnNone)
	if len(none) != 0 {
		t.Errorf("warn none: want no warnings, got %d", len(none))
	}
}

func TestValidatorFlagsOverlap(t *testing.T) {

	img := newTestImage(t, "g.ssd", OpenOptions{})
	side := img.Side(0)

	if _, err := side.AddFile('$', "A", make([]byte, 1000), 0, 0, false,
		AddOptions{}); err != nil {
		t.Fatal(err)
	}
	if _, err := side.AddFile('$', "B", make([]byte, 1000), 0, 0, false,
		AddOptions{}); err != nil {
		t.Fatal(err)
	}

	// drag B's region over A's
	side.File(1).SetStartSector(side.File(0).StartSector() + 1)

	valid, warnings := side.Validate(WarnAll)
	if valid {
		t.Error("overlapping entries passed validation")
	}
	found := false
	for _, w := range warnings {
		if w.Kind == WarnBadOrder || w.Kind == WarnOverlap {
			found = true
		}
	}
	if !found {
		t.Errorf("overlap not reported: %v", warnings)
	}
}
