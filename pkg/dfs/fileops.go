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
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
)

// CopyOptions control collision handling for copy style operations.
type CopyOptions struct {
	Replace         bool
	IgnoreAccess    bool
	NoCompact       bool
	PreserveAttr    bool
	ContinueOnError bool
}

/*
ParseFileName splits a DFS file name into side, directory and name. A
":0." or ":2." prefix selects the side, a single character directory
prefix the directory; both are optional. The returned head is -1 when
the name does not pin a side. This is for concrete file names; pattern
characters have no special meaning here.
*/
func (img *Image) ParseFileName(filename string) (byte, string, int, error) {

	name := strings.TrimRight(filename, " ")
	head := -1
	dir := byte(0)

	for {
		if strings.HasPrefix(name, ":") {
			if len(name) < 3 || name[2] != '.' {
				return 0, "", 0, fmt.Errorf("invalid drive name in '%s'",
					filename)
			}
			h, err := driveToHead(name[1], img.geometry.Heads)
			if err != nil {
				return 0, "", 0, err
			}
			head = h
			name = name[3:]
			continue
		}
		if strings.HasPrefix(name, ".") {
			dir = ' '
			name = name[1:]
			continue
		}
		if len(name) > 1 && name[1] == '.' {
			dir = name[0]
			name = name[2:]
			continue
		}
		break
	}

	if dir == 0 {
		dir = img.currentDir
	}

	if err := validateName(name); err != nil {
		return 0, "", 0, err
	}
	if err := validateDir(dir); err != nil {
		return 0, "", 0, err
	}
	return dir, name, head, nil
}

/*
FindFile looks a file up by name on the default sides, or on the side
pinned by the name's drive prefix. Finding the same name on both sides
with no side selected is an error.
*/
func (img *Image) FindFile(filename string) (*Entry, error) {

	dir, name, head, err := img.ParseFileName(filename)
	if err != nil {
		return nil, err
	}

	var sides []*Side
	if head >= 0 {
		sides = []*Side{img.sides[head]}
	} else {
		sides = img.DefaultSides()
	}

	var found *Entry
	for _, side := range sides {
		if entry := side.FindEntry(dir, name); entry != nil {
			if found != nil {
				return nil, fmt.Errorf("ambiguous file name '%s'", filename)
			}
			found = entry
		}
	}
	return found, nil
}

/*
AddFile adds a file under the given DFS name. When the name does not
pin a side, the side already holding a file of that name wins, then
the first side that can accommodate the data.
*/
func (img *Image) AddFile(filename string, data []byte,
	loadAddr, execAddr int, locked bool, opts AddOptions) (*Entry, error) {

	dir, name, head, err := img.ParseFileName(filename)
	if err != nil {
		return nil, err
	}

	if head < 0 {
		head = img.defaultHead
	}
	if head < 0 {
		for _, side := range img.sides {
			if side.FindEntry(dir, name) != nil {
				head = side.head
				break
			}
		}
	}
	if head < 0 {
		size := len(data)
		for _, side := range img.sides {
			if side.valid && side.NumberOfFiles() < MaxFiles &&
				(side.LargestFreeBlock() >= size ||
					(!opts.NoCompact && side.FreeBytes() >= size)) {
				head = side.head
				break
			}
		}
	}
	if head < 0 {
		head = 0
	}

	return img.sides[head].AddFile(dir, name, data, loadAddr, execAddr,
		locked, opts)
}

// DeleteFile deletes a single file. With silent set, a missing file is
// not an error.
func (img *Image) DeleteFile(filename string, ignoreAccess,
	silent bool) (bool, error) {

	entry, err := img.FindFile(filename)
	if err != nil {
		return false, err
	}
	if entry == nil {
		if silent {
			return false, nil
		}
		return false, fmt.Errorf("%w: '%s'", ErrNotFound, filename)
	}
	if err := entry.side.Delete(entry.Dir(), entry.Name(),
		ignoreAccess); err != nil {
		return false, err
	}
	return true, nil
}

/*
RenameFile renames a file, or moves it to the other side when the new
name pins a different drive. A plain rename updates the catalog entry
in place; a move re-adds the data on the target side and deletes the
source.
*/
func (img *Image) RenameFile(from, to string, opts CopyOptions) error {

	entry, err := img.FindFile(from)
	if err != nil {
		return err
	}
	if entry == nil {
		return fmt.Errorf("%w: '%s'", ErrNotFound, from)
	}
	side := entry.side
	if err := side.checkMutable(); err != nil {
		return err
	}
	if entry.Locked() && !opts.IgnoreAccess {
		return fmt.Errorf("%w: '%s'", ErrLocked, entry.FullName())
	}

	toDir, toName, toHead, err := img.ParseFileName(to)
	if err != nil {
		return err
	}
	if toHead < 0 {
		toHead = side.head
	}

	if toHead != side.head {
		// moving to the other side
		data, err := entry.ReadAll()
		if err != nil {
			return err
		}
		_, err = img.sides[toHead].AddFile(toDir, toName, data,
			entry.LoadAddr(), entry.ExecAddr(), entry.Locked(), AddOptions{
				Replace:      opts.Replace,
				IgnoreAccess: opts.IgnoreAccess,
				NoCompact:    opts.NoCompact,
			})
		if err != nil {
			return err
		}
		return side.Delete(entry.Dir(), entry.Name(), opts.IgnoreAccess)
	}

	if existing := side.FindEntry(toDir, toName); existing != nil {
		if existing.Index() == entry.Index() {
			return fmt.Errorf("'%s' and '%s' are the same", from, to)
		}
		if !opts.Replace {
			return fmt.Errorf("%w: '%s'", ErrExists, existing.FullName())
		}
		index := entry.Index()
		if err := side.Delete(existing.Dir(), existing.Name(),
			opts.IgnoreAccess); err != nil {
			return err
		}
		if index > existing.Index() {
			index--
		}
		entry = side.File(index)
	}

	if err := entry.SetName(toName); err != nil {
		return err
	}
	if err := entry.SetDir(toDir); err != nil {
		return err
	}
	side.bumpSequence()
	return nil
}

// CopyFile copies a file within the image, possibly across sides. The
// locked attribute travels along only with PreserveAttr.
func (img *Image) CopyFile(from, to string, opts CopyOptions) error {

	entry, err := img.FindFile(from)
	if err != nil {
		return err
	}
	if entry == nil {
		return fmt.Errorf("%w: '%s'", ErrNotFound, from)
	}

	toDir, toName, toHead, err := img.ParseFileName(to)
	if err != nil {
		return err
	}
	if toHead < 0 {
		toHead = entry.side.head
	}
	if toHead == entry.side.head && entry.matches(toDir, toName) {
		return fmt.Errorf("'%s' and '%s' are the same", from, to)
	}

	data, err := entry.ReadAll()
	if err != nil {
		return err
	}
	_, err = img.sides[toHead].AddFile(toDir, toName, data,
		entry.LoadAddr(), entry.ExecAddr(),
		opts.PreserveAttr && entry.Locked(), AddOptions{
			Replace:      opts.Replace,
			IgnoreAccess: opts.IgnoreAccess,
			NoCompact:    opts.NoCompact,
		})
	return err
}

// GetFiles collects the entries matching any of the patterns, over the
// default sides. With no patterns, all files of the default sides.
func (img *Image) GetFiles(patterns []string) ([]*Entry, *PatternList, error) {

	list, err := ParsePatterns(patterns, img.geometry.Heads)
	if err != nil {
		return nil, nil, err
	}

	var files []*Entry
	for _, side := range img.sides {
		for _, entry := range side.Files() {
			if entry.MatchList(list, img.defaultHead) {
				files = append(files, entry)
			}
		}
	}
	return files, list, nil
}

// Destroy deletes all files matching the patterns and reports how many
// went away. Locked files stay unless ignoreAccess is set.
func (img *Image) Destroy(patterns []string, ignoreAccess bool) (int, error) {

	list, err := ParsePatterns(patterns, img.geometry.Heads)
	if err != nil {
		return 0, err
	}

	count := 0
	skipped := 0
	for _, side := range img.sides {
		if err := side.checkMutable(); err != nil {
			return count, err
		}
		index := 0
		for index < side.NumberOfFiles() {
			entry := side.File(index)
			if entry.MatchList(list, img.defaultHead) {
				if !entry.Locked() || ignoreAccess {
					if err := side.Delete(entry.Dir(), entry.Name(),
						ignoreAccess); err != nil {
						return count, err
					}
					count++
					continue
				}
				skipped++
			}
			index++
		}
	}
	if skipped != 0 {
		log.Warnf("%s: %d files not deleted", img.filename, skipped)
	}
	return count, nil
}

// SetLocked locks or unlocks all files matching the patterns and reports
// how many changed state.
func (img *Image) SetLocked(patterns []string, locked bool) (int, error) {

	files, list, err := img.GetFiles(patterns)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, entry := range files {
		if err := entry.side.checkMutable(); err != nil {
			return count, err
		}
		if entry.Locked() != locked {
			count++
		}
		entry.SetLocked(locked)
		entry.side.bumpSequence()
	}
	if err := list.EnsureMatched(); err != nil {
		return count, err
	}
	return count, nil
}

// Compact compacts the default sides.
func (img *Image) Compact() error {
	for _, side := range img.DefaultSides() {
		if err := side.Compact(); err != nil {
			return err
		}
	}
	return nil
}

// Format formats the default sides with the given title and boot option.
func (img *Image) Format(title string, opt BootOption) error {
	if img.readOnly {
		return ErrReadOnly
	}
	for _, side := range img.DefaultSides() {
		if err := side.Format(title, opt); err != nil {
			return err
		}
	}
	return nil
}

/*
Backup copies all sector data from the source image's default sides
onto this image's default sides, then revalidates. Side counts must
line up, and an 80 track source does not fit a 40 track target.
*/
func (img *Image) Backup(source *Image) error {

	if source.geometry.Tracks > img.geometry.Tracks {
		return fmt.Errorf("cannot copy %d track floppy to %d tracks",
			source.geometry.Tracks, img.geometry.Tracks)
	}

	srcSides := source.DefaultSides()
	dstSides := img.DefaultSides()

	if len(srcSides) > len(dstSides) {
		return fmt.Errorf("source side must be selected")
	}
	if len(srcSides) < len(dstSides) {
		return fmt.Errorf("destination side must be selected")
	}

	for i, src := range srcSides {
		if err := dstSides[i].AllSectors().WriteAll(
			src.ReadAll()); err != nil {
			return err
		}
	}

	img.Validate(WarnNone)
	return nil
}

/*
CopyOver copies all files matching the patterns from the source image
into this image. Collisions follow the usual replace and access rules;
with ContinueOnError, failures are logged and the batch carries on,
except that running out of space ends it.
*/
func (img *Image) CopyOver(source *Image, patterns []string,
	opts CopyOptions) (int, error) {

	files, list, err := source.GetFiles(patterns)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, entry := range files {

		data, err := entry.ReadAll()
		if err != nil {
			return count, err
		}

		_, err = img.AddFile(entry.FullName(), data,
			entry.LoadAddr(), entry.ExecAddr(),
			opts.PreserveAttr && entry.Locked(), AddOptions{
				Replace:      opts.Replace,
				IgnoreAccess: opts.IgnoreAccess,
				NoCompact:    opts.NoCompact,
			})
		if err != nil {
			if !opts.ContinueOnError {
				return count, err
			}
			log.Warnf("%s: %v", img.filename, err)
			if isNoSpace(err) {
				break
			}
			continue
		}

		log.WithFields(log.Fields{
			"file": entry.FullName(),
			"from": source.filename,
		}).Debug("file copied over")
		count++
	}

	if count != len(files) {
		log.Warnf("%s: %d files not copied", img.filename, len(files)-count)
	}
	if err := list.EnsureMatched(); err != nil {
		return count, err
	}
	return count, nil
}

func isNoSpace(err error) bool {
	return errors.Is(err, ErrNoSpace) || errors.Is(err, ErrFull)
}

// ReadAll reads the file bytes of an entry.
func (e *Entry) ReadAll() ([]byte, error) {
	sectors, err := e.side.Sectors(e.StartSector(), e.EndSector(), e.Size())
	if err != nil {
		return nil, err
	}
	return sectors.ReadAll(), nil
}
