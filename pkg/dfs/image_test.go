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
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

func TestCreateSavesFullSize(t *testing.T) {

	path := filepath.Join(t.TempDir(), "g.ssd")
	img, err := Create(path, OpenOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if err := img.Side(0).SetTitle("GAMES"); err != nil {
		t.Fatal(err)
	}
	if err := img.Close(true); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != 204800 {
		t.Errorf("image size: want 204800, got %d", info.Size())
	}
}

func TestOpenCloseLeavesFileUntouched(t *testing.T) {

	path := filepath.Join(t.TempDir(), "g.ssd")
	img, err := Create(path, OpenOptions{})
	if err != nil {
		t.Fatal(err)
	}
	img.Side(0).SetTitle("KEEP")
	if _, err := img.AddFile("A", []byte("payload"), 0x1900, 0, false,
		AddOptions{}); err != nil {
		t.Fatal(err)
	}
	if err := img.Close(true); err != nil {
		t.Fatal(err)
	}

	before, err := ioutil.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	// read only round trip
	img, err = Open(path, OpenOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if err := img.Close(true); err != nil {
		t.Fatal(err)
	}

	// writable round trip, no mutation
	img, err = Open(path, OpenOptions{ForWrite: true, Mode: OpenExisting})
	if err != nil {
		t.Fatal(err)
	}
	if err := img.Close(true); err != nil {
		t.Fatal(err)
	}

	after, err := ioutil.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Error("file changed by open/close without mutation")
	}
}

func TestOpenModes(t *testing.T) {

	dir := t.TempDir()
	path := filepath.Join(dir, "g.ssd")

	if _, err := Open(path, OpenOptions{ForWrite: true,
		Mode: OpenExisting}); err == nil {
		t.Error("existing mode on absent file should fail")
	}

	img, err := Open(path, OpenOptions{ForWrite: true, Mode: OpenAlways})
	if err != nil {
		t.Fatal(err)
	}
	img.Close(true)

	if _, err := Open(path, OpenOptions{ForWrite: true,
		Mode: OpenNew}); err == nil {
		t.Error("new mode on existing file should fail")
	}

	img, err = Open(path, OpenOptions{ForWrite: true, Mode: OpenExisting})
	if err != nil {
		t.Fatal(err)
	}
	img.Close(false)
}

func TestDiscardedNewImageIsRemoved(t *testing.T) {

	path := filepath.Join(t.TempDir(), "g.ssd")
	img, err := Create(path, OpenOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if err := img.Close(false); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("discarded new image file not removed")
	}
}

func TestShrinkAndTruncatedRead(t *testing.T) {

	path := filepath.Join(t.TempDir(), "g.ssd")
	img, err := Create(path, OpenOptions{})
	if err != nil {
		t.Fatal(err)
	}
	payload := bytes.Repeat([]byte{0xAB}, 700)
	if _, err := img.AddFile("LOW", payload, 0, 0, false,
		AddOptions{}); err != nil {
		t.Fatal(err)
	}
	if err := img.Side(0).Compact(); err != nil {
		t.Fatal(err)
	}
	if err := img.Save(SizeShrink); err != nil {
		t.Fatal(err)
	}
	if err := img.Close(false); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	// catalog + 3 sectors of file data
	if want := int64(5 * SectorSize); info.Size() != want {
		t.Errorf("shrunk size: want %d, got %d", want, info.Size())
	}

	// the truncated image reads back with the tail as zeros
	img, err = Open(path, OpenOptions{})
	if err != nil {
		t.Fatal(err)
	}
	defer img.Close(false)

	entry, err := img.FindFile("LOW")
	if err != nil {
		t.Fatal(err)
	}
	data, err := entry.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, payload) {
		t.Error("file content lost by shrink")
	}

	if img.Geometry().Tracks != DoubleTracks {
		t.Errorf("geometry: want 80 tracks, got %d", img.Geometry().Tracks)
	}

	sectors, err := img.Side(0).Sectors(700, 701, -1)
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range sectors.ReadAll() {
		if b != 0 {
			t.Fatal("tail of truncated image not read as zeros")
		}
	}
}

func TestExpand(t *testing.T) {

	path := filepath.Join(t.TempDir(), "g.ssd")
	img, err := Create(path, OpenOptions{})
	if err != nil {
		t.Fatal(err)
	}
	img.Save(SizeShrink)
	img.Close(false)

	img, err = Open(path, OpenOptions{ForWrite: true, Mode: OpenExisting})
	if err != nil {
		t.Fatal(err)
	}
	if err := img.Save(SizeExpand); err != nil {
		t.Fatal(err)
	}
	img.Close(false)

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != 204800 {
		t.Errorf("expanded size: want 204800, got %d", info.Size())
	}
}

func TestImportExportRoundTrip(t *testing.T) {

	img := newTestImage(t, "g.ssd", OpenOptions{})

	// odd length, not sector aligned
	payload := make([]byte, 3001)
	for i := range payload {
		payload[i] = byte(i % 251)
	}

	if _, err := img.AddFile("D.DATA", payload, 0x3000, 0x3001, false,
		AddOptions{}); err != nil {
		t.Fatal(err)
	}

	entry, err := img.FindFile("D.DATA")
	if err != nil {
		t.Fatal(err)
	}
	if entry == nil {
		t.Fatal("imported file not found")
	}
	got, err := entry.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(payload, got) {
		t.Error("import/export round trip lost data")
	}
	if entry.LoadAddr() != 0x3000 || entry.ExecAddr() != 0x3001 {
		t.Error("addresses lost on import")
	}
}

func TestParseFileName(t *testing.T) {

	img := newTestImage(t, "d.dsd", OpenOptions{Heads: 2})

	cases := []struct {
		in   string
		dir  byte
		name string
		head int
	}{
		{"PROG", '$', "PROG", -1},
		{"D.PROG", 'D', "PROG", -1},
		{":2.PROG", '$', "PROG", 1},
		{":0.A.B", 'A', "B", 0},
	}

	for _, c := range cases {
		dir, name, head, err := img.ParseFileName(c.in)
		if err != nil {
			t.Errorf("%q: unexpected error: %v", c.in, err)
			continue
		}
		if dir != c.dir || name != c.name || head != c.head {
			t.Errorf("%q: want %c/%s/%d, got %c/%s/%d",
				c.in, c.dir, c.name, c.head, dir, name, head)
		}
	}

	for _, in := range []string{"", "TOOLONGNAME", ":5.X", ":0X"} {
		if _, _, _, err := img.ParseFileName(in); err == nil {
			t.Errorf("%q: expected error", in)
		}
	}
}

func TestRenameAndCopy(t *testing.T) {

	img := newTestImage(t, "g.ssd", OpenOptions{})

	if _, err := img.AddFile("A", []byte("data-a"), 0x1900, 0, false,
		AddOptions{}); err != nil {
		t.Fatal(err)
	}

	if err := img.RenameFile("A", "B", CopyOptions{}); err != nil {
		t.Fatal(err)
	}
	if entry, _ := img.FindFile("A"); entry != nil {
		t.Error("old name still present after rename")
	}
	entry, err := img.FindFile("B")
	if err != nil || entry == nil {
		t.Fatal("new name not found after rename")
	}

	if err := img.CopyFile("B", "C", CopyOptions{}); err != nil {
		t.Fatal(err)
	}
	b, _ := img.FindFile("B")
	c, _ := img.FindFile("C")
	if b == nil || c == nil {
		t.Fatal("copy lost a file")
	}
	db, _ := b.ReadAll()
	dc, _ := c.ReadAll()
	if !bytes.Equal(db, dc) {
		t.Error("copy content differs")
	}
	if c.LoadAddr() != 0x1900 {
		t.Error("copy lost load address")
	}

	if err := img.CopyFile("B", "B", CopyOptions{}); err == nil {
		t.Error("copy onto itself should fail")
	}
}

func TestMoveAcrossSides(t *testing.T) {

	img := newTestImage(t, "d.dsd", OpenOptions{Heads: 2})

	if _, err := img.AddFile(":0.PROG", []byte("xyz"), 0, 0, false,
		AddOptions{}); err != nil {
		t.Fatal(err)
	}

	if err := img.RenameFile(":0.PROG", ":2.PROG", CopyOptions{}); err != nil {
		t.Fatal(err)
	}

	if img.Side(0).FindEntry('$', "PROG") != nil {
		t.Error("file still on side 0")
	}
	entry := img.Side(1).FindEntry('$', "PROG")
	if entry == nil {
		t.Fatal("file not on side 1")
	}
	data, _ := entry.ReadAll()
	if string(data) != "xyz" {
		t.Error("content lost in move")
	}
}

func TestDestroyAndLockPatterns(t *testing.T) {

	img := newTestImage(t, "g.ssd", OpenOptions{})

	for _, name := range []string{"PROG1", "PROG2", "OTHER"} {
		if _, err := img.AddFile(name, []byte("x"), 0, 0, false,
			AddOptions{}); err != nil {
			t.Fatal(err)
		}
	}

	count, err := img.SetLocked([]string{"PROG*"}, true)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("lock count: want 2, got %d", count)
	}

	// locked files survive destroy without ignore access
	count, err = img.Destroy([]string{"*"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("destroy count: want 1, got %d", count)
	}

	count, err = img.Destroy([]string{"*"}, true)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("destroy count with ignore access: want 2, got %d", count)
	}
	if got := img.Side(0).NumberOfFiles(); got != 0 {
		t.Errorf("files left: %d", got)
	}
}

func TestConvertLinearToInterleaved(t *testing.T) {

	dir := t.TempDir()
	srcPath := filepath.Join(dir, "l.ssd")
	dstPath := filepath.Join(dir, "i.dsd")

	src, err := Create(srcPath, OpenOptions{Heads: 2})
	if err != nil {
		t.Fatal(err)
	}
	if !src.Geometry().Linear {
		t.Fatal("double sided ssd not linear by default")
	}
	src.Side(0).SetTitle("SIDE0")
	src.Side(1).SetTitle("SIDE1")
	if _, err := src.AddFile(":0.F0", bytes.Repeat([]byte{0x11}, 1000),
		0, 0, false, AddOptions{}); err != nil {
		t.Fatal(err)
	}
	if _, err := src.AddFile(":2.F2", bytes.Repeat([]byte{0x22}, 2000),
		0, 0, false, AddOptions{}); err != nil {
		t.Fatal(err)
	}
	if err := src.Close(true); err != nil {
		t.Fatal(err)
	}

	src, err = Open(srcPath, OpenOptions{})
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close(false)

	dst, err := Create(dstPath, OpenOptions{Heads: 2})
	if err != nil {
		t.Fatal(err)
	}
	if dst.Geometry().Linear {
		t.Fatal("dsd not interleaved by default")
	}
	if err := dst.Backup(src); err != nil {
		t.Fatal(err)
	}
	if err := dst.Close(true); err != nil {
		t.Fatal(err)
	}

	lin, err := ioutil.ReadFile(srcPath)
	if err != nil {
		t.Fatal(err)
	}
	inter, err := ioutil.ReadFile(dstPath)
	if err != nil {
		t.Fatal(err)
	}

	gl := Geometry{Heads: 2, Tracks: 80, Linear: true}
	gi := Geometry{Heads: 2, Tracks: 80, Linear: false}

	for head := 0; head < 2; head++ {
		for track := 0; track < 80; track++ {
			for sector := 0; sector < 10; sector++ {
				lo := gl.SectorStart(head, track, sector)
				io := gi.SectorStart(head, track, sector)
				if !bytes.Equal(lin[lo:lo+SectorSize],
					inter[io:io+SectorSize]) {
					t.Fatalf("sector mismatch at %d/%d/%d",
						head, track, sector)
				}
			}
		}
	}
}

func TestDigestModes(t *testing.T) {

	img := newTestImage(t, "g.ssd", OpenOptions{})
	sha, err := HashByName("sha1")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := img.AddFile("A", []byte("digest me"), 0x1900, 0x1900,
		false, AddOptions{}); err != nil {
		t.Fatal(err)
	}
	entry, err := img.FindFile("A")
	if err != nil {
		t.Fatal(err)
	}

	dataBefore, _ := entry.Digest(DigestData, sha)
	fileBefore, _ := entry.Digest(DigestFile, sha)
	allBefore, _ := entry.Digest(DigestAll, sha)

	// changing the load address leaves the data digest alone, but moves
	// the file and all digests
	if err := img.Side(0).SetAttrib('$', "A", nil, intPtr(0x2000),
		nil); err != nil {
		t.Fatal(err)
	}

	dataAfter, _ := entry.Digest(DigestData, sha)
	fileAfter, _ := entry.Digest(DigestFile, sha)

	if dataBefore != dataAfter {
		t.Error("data digest depends on load address")
	}
	if fileBefore == fileAfter {
		t.Error("file digest ignores load address")
	}

	// changing the locked attribute moves only the all digest
	fileBefore = fileAfter
	allBefore, _ = entry.Digest(DigestAll, sha)
	if err := img.Side(0).SetAttrib('$', "A", boolPtr(true), nil,
		nil); err != nil {
		t.Fatal(err)
	}
	fileAfter, _ = entry.Digest(DigestFile, sha)
	allAfter, _ := entry.Digest(DigestAll, sha)

	if fileBefore != fileAfter {
		t.Error("file digest depends on locked attribute")
	}
	if allBefore == allAfter {
		t.Error("all digest ignores locked attribute")
	}
}

func intPtr(v int) *int {
	return &v
}

func TestCatalogSectorDigest(t *testing.T) {

	path := filepath.Join(t.TempDir(), "g.ssd")
	img, err := Create(path, OpenOptions{})
	if err != nil {
		t.Fatal(err)
	}
	img.Side(0).SetTitle("DIGEST")
	if _, err := img.AddFile("A", []byte("abc"), 0, 0, false,
		AddOptions{}); err != nil {
		t.Fatal(err)
	}
	if err := img.Close(true); err != nil {
		t.Fatal(err)
	}

	img, err = Open(path, OpenOptions{})
	if err != nil {
		t.Fatal(err)
	}
	defer img.Close(false)

	sectors, err := img.Side(0).Sectors(0, 2, -1)
	if err != nil {
		t.Fatal(err)
	}
	sha, _ := HashByName("sha1")
	got := sectors.Digest(sha)

	raw, err := ioutil.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	sum := sha1.Sum(raw[0 : 2*SectorSize])
	if want := hex.EncodeToString(sum[:]); got != want {
		t.Errorf("catalog digest: want %s, got %s", want, got)
	}
}

func TestCopyOverBetweenImages(t *testing.T) {

	dir := t.TempDir()

	src, err := Create(filepath.Join(dir, "src.ssd"), OpenOptions{})
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close(false)

	dst, err := Create(filepath.Join(dir, "dst.ssd"), OpenOptions{})
	if err != nil {
		t.Fatal(err)
	}
	defer dst.Close(false)

	for _, name := range []string{"GAME1", "GAME2", "UTIL"} {
		if _, err := src.AddFile(name, []byte(name), 0x1900, 0x8000,
			name == "GAME1", AddOptions{}); err != nil {
			t.Fatal(err)
		}
	}

	count, err := dst.CopyOver(src, []string{"GAME*"}, CopyOptions{
		PreserveAttr: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("copied: want 2, got %d", count)
	}

	g1 := dst.Side(0).FindEntry('$', "GAME1")
	if g1 == nil {
		t.Fatal("GAME1 missing on destination")
	}
	if !g1.Locked() {
		t.Error("locked attribute not preserved")
	}
	data, _ := g1.ReadAll()
	if string(data) != "GAME1" {
		t.Error("content lost in copy over")
	}
	if dst.Side(0).FindEntry('$', "UTIL") != nil {
		t.Error("pattern matched too much")
	}
}

func TestReadOnlyRefusesMutation(t *testing.T) {

	path := filepath.Join(t.TempDir(), "g.ssd")
	img, err := Create(path, OpenOptions{})
	if err != nil {
		t.Fatal(err)
	}
	img.Close(true)

	img, err = Open(path, OpenOptions{})
	if err != nil {
		t.Fatal(err)
	}
	defer img.Close(false)

	_, err = img.AddFile("X", []byte("x"), 0, 0, false, AddOptions{})
	if !errors.Is(err, ErrReadOnly) {
		t.Errorf("want ErrReadOnly, got %v", err)
	}
}
