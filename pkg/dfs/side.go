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

	log "github.com/sirupsen/logrus"
)

/*
Side is one recording surface of a floppy image. It owns the catalog
invariants: entries are kept pairwise disjoint and ordered by
descending start sector, the end offset always equals eight times the
file count, and the sequence number is bumped as BCD on every catalog
mutation.

All field access decodes and encodes the catalog sectors in place, so
a side that is opened and never mutated closes byte-identical.
*/
type Side struct {
	image *Image
	head  int
	cat0  []byte
	cat1  []byte
	valid bool
}

// AddOptions control collision and allocation behavior of AddFile.
type AddOptions struct {
	Replace      bool
	IgnoreAccess bool
	NoCompact    bool
}

func (s *Side) Image() *Image {
	return s.image
}

// Head is the side index, 0 or 1.
func (s *Side) Head() int {
	return s.head
}

// Drive is the drive number according to DFS, 0 for side 1, 2 for side 2.
func (s *Side) Drive() int {
	return s.head * 2
}

func (s *Side) IsValid() bool {
	return s.valid
}

func (s *Side) markModified() {
	if s.image != nil {
		s.image.markModified()
	}
}

// checkMutable guards every mutating operation: a read only image and a
// catalog that failed validation both refuse modification.
func (s *Side) checkMutable() error {
	if s.image != nil && s.image.readOnly {
		return ErrReadOnly
	}
	if !s.valid {
		return fmt.Errorf("%w: refusing to modify", ErrCatalogCorrupt)
	}
	return nil
}

// TitleRaw returns the 12 title bytes with attribute bits stripped but no
// character translation.
func (s *Side) TitleRaw() []byte {
	raw := make([]byte, 12)
	for i := 0; i < 8; i++ {
		raw[i] = s.cat0[i] & 0x7f
	}
	for i := 0; i < 4; i++ {
		raw[8+i] = s.cat1[i] & 0x7f
	}
	return raw
}

func (s *Side) Title() string {
	return trimTitle(s.TitleRaw())
}

func (s *Side) SetTitle(title string) error {
	if len(title) > 12 {
		return fmt.Errorf("title too long: '%s'", title)
	}
	raw := make([]byte, 12)
	copy(raw, title)
	s.markModified()
	copy(s.cat0[0:8], raw[0:8])
	copy(s.cat1[0:4], raw[8:12])
	return nil
}

// SequenceNumber is the BCD catalog write counter, decoded to decimal.
func (s *Side) SequenceNumber() int {
	return FromBCD(s.cat1[4])
}

func (s *Side) SequenceByte() byte {
	return s.cat1[4]
}

func (s *Side) bumpSequence() {
	s.markModified()
	s.cat1[4] = ToBCD(FromBCD(s.cat1[4]) + 1)
}

// EndOffset is the offset of the byte just past the last used catalog
// entry, i.e. eight times the file count.
func (s *Side) EndOffset() int {
	return int(s.cat1[5])
}

func (s *Side) setEndOffset(value int) error {
	if value&7 != 0 || value < 0 || value > MaxFiles*8 {
		return fmt.Errorf("%w: bad end of catalog offset %d",
			ErrCatalogCorrupt, value)
	}
	s.markModified()
	s.cat1[5] = byte(value)
	return nil
}

// NumberOfFiles is the catalog file count. For a side that failed
// validation, 0 is returned to hide whatever garbage the catalog holds.
func (s *Side) NumberOfFiles() int {
	if !s.valid {
		return 0
	}
	return s.EndOffset() / 8
}

func (s *Side) OptByte() byte {
	return s.cat1[6]
}

func (s *Side) BootOption() BootOption {
	return BootOption(s.cat1[6] >> 4 & 3)
}

func (s *Side) SetBootOption(opt BootOption) error {
	if opt < 0 || opt > 3 {
		return fmt.Errorf("invalid boot option value: %d", opt)
	}
	s.markModified()
	s.cat1[6] = s.cat1[6]&0xcf | byte(opt&3)<<4
	return nil
}

// TotalSectors is the sector count recorded in the catalog, 800 for 80
// track sides and 400 for 40 track sides.
func (s *Side) TotalSectors() int {
	return int(s.cat1[7]) | int(s.cat1[6]&3)<<8
}

func (s *Side) setTotalSectors(value int) error {
	if value != SingleSectors && value != DoubleSectors {
		return fmt.Errorf("invalid total number of sectors: %d", value)
	}
	s.markModified()
	s.cat1[7] = byte(value)
	s.cat1[6] = s.cat1[6]&^byte(3) | byte(value>>8)&3
	return nil
}

// PhysicalSectors is the sector capacity given by the image geometry, as
// opposed to the count recorded in the catalog.
func (s *Side) PhysicalSectors() int {
	return s.image.geometry.SectorsPerSide()
}

func (s *Side) UsedSectors() int {
	if !s.valid {
		return s.TotalSectors()
	}
	used := CatalogSectors
	for _, f := range s.Files() {
		used += f.Sectors()
	}
	return used
}

func (s *Side) FreeSectors() int {
	return s.TotalSectors() - s.UsedSectors()
}

func (s *Side) FreeBytes() int {
	return s.FreeSectors() * SectorSize
}

/*
LastUsedSector is the first sector after the highest sector occupied by
any file, used for computing the minimum image size. For an invalid
side the full physical capacity is reported, so that shrinking never
drops data the catalog cannot vouch for.
*/
func (s *Side) LastUsedSector() int {
	if !s.valid {
		return s.PhysicalSectors()
	}
	if s.NumberOfFiles() == 0 {
		return CatalogSectors
	}
	// entries are ordered by descending start sector, so the first one
	// ends highest
	return s.File(0).EndSector()
}

// LargestFreeBlock is the size in bytes of the largest contiguous free
// sector run.
func (s *Side) LargestFreeBlock() int {
	if !s.valid {
		return 0
	}
	largest := 0
	end := s.TotalSectors()
	for _, f := range s.Files() {
		if gap := end - f.EndSector(); gap > largest {
			largest = gap
		}
		end = f.StartSector()
	}
	if gap := end - CatalogSectors; gap > largest {
		largest = gap
	}
	return largest * SectorSize
}

// File returns the entry view for catalog slot index.
func (s *Side) File(index int) *Entry {
	start := (index + 1) * 8
	return &Entry{
		side:  s,
		index: index,
		e1:    s.cat0[start : start+8],
		e2:    s.cat1[start : start+8],
	}
}

// Files lists all used entries, in catalog order.
func (s *Side) Files() []*Entry {
	n := s.NumberOfFiles()
	files := make([]*Entry, n)
	for i := 0; i < n; i++ {
		files[i] = s.File(i)
	}
	return files
}

// FindEntry looks up a file by directory and name, case insensitively.
func (s *Side) FindEntry(dir byte, name string) *Entry {
	for _, f := range s.Files() {
		if f.matches(dir, name) {
			return f
		}
	}
	return nil
}

// Sectors returns the chain for a run of logical sectors.
func (s *Side) Sectors(start, end, usedSize int) (*Sectors, error) {
	return s.image.logicalSectors(s.head, start, end, usedSize)
}

// AllSectors returns the chain covering the whole side.
func (s *Side) AllSectors() *Sectors {
	sec, _ := s.image.logicalSectors(s.head, 0, s.PhysicalSectors(), -1)
	return sec
}

// ReadAll reads the raw side surface.
func (s *Side) ReadAll() []byte {
	return s.AllSectors().ReadAll()
}

/*
findFreeBlock locates a free run of at least size bytes, scanning from
the highest free sector downward, so new files land as high as
possible. The file is placed at the top of the first fitting gap. It
returns the start sector and the catalog index at which the new entry
keeps the table ordered by descending start sector; when the topmost
gap is taken, that index is 0.
*/
func (s *Side) findFreeBlock(size int) (int, int, bool) {
	sectors := (size + SectorSize - 1) / SectorSize
	if sectors == 0 {
		// an empty file still gets a real start sector
		sectors = 1
	}
	n := s.NumberOfFiles()
	end := s.TotalSectors()
	for index := 0; index <= n; index++ {
		lower := CatalogSectors
		if index < n {
			lower = s.File(index).EndSector()
		}
		if end-lower >= sectors {
			return end - sectors, index, true
		}
		if index < n {
			end = s.File(index).StartSector()
		}
	}
	return 0, 0, false
}

func (s *Side) removeEntry(index int) error {
	end := s.EndOffset() + 8
	start := (index + 2) * 8

	s.markModified()
	if start != end {
		copy(s.cat0[start-8:end-8], s.cat0[start:end])
		copy(s.cat1[start-8:end-8], s.cat1[start:end])
	}
	s.File(s.NumberOfFiles() - 1).clear()
	return s.setEndOffset(end - 16)
}

func (s *Side) insertEntry(index int, dir byte, name string,
	startSector, size int) (*Entry, error) {

	end := s.EndOffset() + 8
	start := (index + 1) * 8
	sectors := (size + SectorSize - 1) / SectorSize

	if index < s.NumberOfFiles() {
		if below := s.File(index).EndSector(); startSector < below {
			return nil, fmt.Errorf(
				"%w: sector overlaps previous file (%d < %d)",
				ErrCatalogCorrupt, startSector, below)
		}
	}
	if startSector < CatalogSectors {
		return nil, fmt.Errorf("%w: sector overlaps catalog (%d < 2)",
			ErrCatalogCorrupt, startSector)
	}
	if index > 0 {
		if above := s.File(index - 1).StartSector(); startSector+sectors > above {
			return nil, fmt.Errorf(
				"%w: sector overlaps next file (%d > %d)",
				ErrCatalogCorrupt, startSector+sectors, above)
		}
	}
	if startSector+sectors > s.TotalSectors() {
		return nil, fmt.Errorf("%w: sector overflows disk (%d > %d)",
			ErrCatalogCorrupt, startSector+sectors, s.TotalSectors())
	}
	if end+8 > SectorSize {
		return nil, fmt.Errorf("%w: catalog sector overflow", ErrFull)
	}

	s.markModified()
	if start != end {
		copy(s.cat0[start+8:end+8], s.cat0[start:end])
		copy(s.cat1[start+8:end+8], s.cat1[start:end])
	}
	if err := s.setEndOffset(end); err != nil {
		return nil, err
	}

	entry := s.File(index)
	entry.clear()
	if err := entry.SetName(name); err != nil {
		return nil, err
	}
	if err := entry.SetDir(dir); err != nil {
		return nil, err
	}
	entry.SetStartSector(startSector)
	entry.SetSize(size)
	return entry, nil
}

/*
AddFile writes a new file to the side. Allocation is first-fit from the
highest free sector downward; when no contiguous free run fits and
compaction is not disabled, the side is compacted and allocation
retried. On success the catalog entry is inserted at the slot that
keeps entries ordered by descending start sector, and the sequence
number is bumped once for the addition. Deleting a replaced file and
an implicit compaction each bump it once more.
*/
func (s *Side) AddFile(dir byte, name string, data []byte,
	loadAddr, execAddr int, locked bool, opts AddOptions) (*Entry, error) {

	if err := s.checkMutable(); err != nil {
		return nil, err
	}
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateDir(dir); err != nil {
		return nil, err
	}

	size := len(data)

	if old := s.FindEntry(dir, name); old != nil {
		if !opts.Replace {
			return nil, fmt.Errorf("%w: '%s'", ErrExists, old.FullName())
		}
		if err := s.Delete(dir, name, opts.IgnoreAccess); err != nil {
			return nil, err
		}
	}

	if s.NumberOfFiles() == MaxFiles {
		return nil, fmt.Errorf("%w: %s", ErrFull, s.Title())
	}
	if size > s.FreeSectors()*SectorSize {
		return nil, fmt.Errorf("%w: %d bytes free", ErrNoSpace, s.FreeBytes())
	}

	if size > s.LargestFreeBlock() {
		if opts.NoCompact {
			return nil, fmt.Errorf(
				"%w: no contiguous free block of %d bytes", ErrNoSpace, size)
		}
		if err := s.Compact(); err != nil {
			return nil, err
		}
	}

	start, index, ok := s.findFreeBlock(size)
	if !ok {
		return nil, fmt.Errorf(
			"%w: no contiguous free block of %d bytes", ErrNoSpace, size)
	}

	if loadAddr < 0 {
		loadAddr = 0
	}
	if execAddr < 0 {
		execAddr = loadAddr
	}

	entry, err := s.insertEntry(index, dir, name, start, size)
	if err != nil {
		return nil, err
	}

	sectors, err := s.Sectors(entry.StartSector(), entry.EndSector(), size)
	if err != nil {
		return nil, err
	}
	if err := sectors.WriteAll(data); err != nil {
		return nil, err
	}

	entry.SetLoadAddr(loadAddr)
	entry.SetExecAddr(execAddr)
	entry.SetLocked(locked)
	s.bumpSequence()

	log.WithFields(log.Fields{
		"file":   entry.FullName(),
		"sector": entry.StartSector(),
		"size":   size,
	}).Debug("file added")

	return entry, nil
}

// Delete removes a file. The freed sectors keep their contents; they are
// only dropped from the file map.
func (s *Side) Delete(dir byte, name string, ignoreAccess bool) error {

	if err := s.checkMutable(); err != nil {
		return err
	}

	entry := s.FindEntry(dir, name)
	if entry == nil {
		return fmt.Errorf("%w: '%c.%s'", ErrNotFound, dir, name)
	}
	if entry.Locked() && !ignoreAccess {
		return fmt.Errorf("%w: '%s'", ErrLocked, entry.FullName())
	}
	if err := s.removeEntry(entry.Index()); err != nil {
		return err
	}
	s.bumpSequence()
	return nil
}

// SetAttrib updates the locked flag and load & exec addresses of a file.
// Nil means leave alone.
func (s *Side) SetAttrib(dir byte, name string,
	locked *bool, loadAddr, execAddr *int) error {

	if err := s.checkMutable(); err != nil {
		return err
	}

	entry := s.FindEntry(dir, name)
	if entry == nil {
		return fmt.Errorf("%w: '%c.%s'", ErrNotFound, dir, name)
	}
	if locked != nil {
		entry.SetLocked(*locked)
	}
	if loadAddr != nil {
		entry.SetLoadAddr(*loadAddr)
	}
	if execAddr != nil {
		entry.SetExecAddr(*execAddr)
	}
	s.bumpSequence()
	return nil
}

/*
Compact repacks all file regions downward so that they follow each
other contiguously from sector 2, eliminating free space fragments.
File bytes and catalog order are preserved; only start sectors change.
The sequence number is bumped once for the whole compaction.

The pre-compaction catalog is held aside; if moving a region fails,
the catalog bytes are restored, so the side model never ends up
describing a half-moved layout.
*/
func (s *Side) Compact() error {

	if err := s.checkMutable(); err != nil {
		return err
	}

	undo0 := make([]byte, SectorSize)
	undo1 := make([]byte, SectorSize)
	copy(undo0, s.cat0)
	copy(undo1, s.cat1)

	if err := s.compact(); err != nil {
		copy(s.cat0, undo0)
		copy(s.cat1, undo1)
		return fmt.Errorf("%w: %v", ErrIoDuringCompact, err)
	}

	s.bumpSequence()
	return nil
}

func (s *Side) compact() error {

	start := CatalogSectors
	lastUsed := s.LastUsedSector()

	files := s.Files()
	// walk in ascending start sector order, i.e. catalog order reversed
	for i := len(files) - 1; i >= 0; i-- {
		entry := files[i]
		count := entry.Sectors()
		if entry.StartSector() != start {
			src, err := s.Sectors(entry.StartSector(), entry.EndSector(), -1)
			if err != nil {
				return err
			}
			dst, err := s.Sectors(start, start+count, -1)
			if err != nil {
				return err
			}
			if err := dst.WriteAll(src.ReadAll()); err != nil {
				return err
			}
			entry.SetStartSector(start)
		}
		start += count
	}

	// scrub the tail that files vacated
	if start != lastUsed {
		gap, err := s.Sectors(start, lastUsed, -1)
		if err != nil {
			return err
		}
		gap.Clear()
	}
	return nil
}

/*
Format resets the side to an empty catalog with the given title and
boot option. The sector count in the catalog is preserved from the
image geometry; all data sectors are filled with 0xE5, the classic
formatting pattern.
*/
func (s *Side) Format(title string, opt BootOption) error {

	s.AllSectors().Fill(0xe5)
	for i := 0; i < SectorSize; i++ {
		s.cat0[i] = 0
		s.cat1[i] = 0
	}
	s.valid = true
	if err := s.setTotalSectors(s.PhysicalSectors()); err != nil {
		return err
	}
	if err := s.SetTitle(title); err != nil {
		return err
	}
	return s.SetBootOption(opt)
}

// CatalogView decodes the side's catalog into a standalone view.
func (s *Side) CatalogView() *CatalogView {
	return DecodeCatalog(s.cat0, s.cat1)
}

func (s *Side) String() string {
	return fmt.Sprintf("Side(%s, %d)", s.image.Filename(), s.head)
}
