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
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

/*
Image is a DFS floppy disk image loaded into memory, holding one or two
Sides over one backing store. All engine operations mutate the memory
buffer; nothing reaches the file before Save or a saving Close, so an
image that is opened and closed without mutation leaves the file byte
identical.
*/
type Image struct {
	//
	path     string
	filename string
	//
	geometry Geometry
	data     []byte
	sides    []*Side
	//
	store        *Store
	originalSize int64
	readOnly     bool
	isNew        bool
	modified     bool
	modSeq       int
	valid        bool
	//
	currentDir  byte
	defaultHead int
	//
	slot int
}

/*
OpenOptions collect everything that influences how an image file is
opened. The zero value opens an existing file read only with automatic
geometry detection and first-warning validation.
*/
type OpenOptions struct {
	ForWrite bool
	Mode     OpenMode
	// geometry overrides; zero means automatic
	Heads  int
	Tracks int
	Linear *bool
	//
	WarnMode WarnMode
	// 1 or 2 narrows operations to one side; 0 means both
	Side int
}

// Open opens or, depending on mode, creates a disk image file.
func Open(path string, opts OpenOptions) (*Image, error) {

	if opts.Mode == OpenNew {
		return Create(path, opts)
	}

	store, err := OpenStore(path, opts.Mode, opts.ForWrite)
	if err != nil {
		if os.IsNotExist(err) && opts.Mode == OpenAlways && opts.ForWrite {
			return Create(path, opts)
		}
		return nil, err
	}

	if store.IsNew() {
		img, err := createOnStore(path, store, opts)
		if err != nil {
			store.Close(true)
		}
		return img, err
	}

	img, err := load(path, store, opts)
	if err != nil {
		store.Close(false)
		return nil, err
	}
	return img, nil
}

// Create creates a new, formatted disk image file. It fails when the file
// already exists.
func Create(path string, opts OpenOptions) (*Image, error) {
	store, err := OpenStore(path, OpenNew, true)
	if err != nil {
		return nil, err
	}
	img, err := createOnStore(path, store, opts)
	if err != nil {
		store.Close(true)
		return nil, err
	}
	return img, nil
}

/*
OpenSlot opens an image over a window store, as handed out by an MMB
container for one of its slots. Slot payloads are always single sided
80 track SSDs.
*/
func OpenSlot(store *Store, name string, slot int,
	warnMode WarnMode) (*Image, error) {

	opts := OpenOptions{
		ForWrite: !store.IsReadOnly(),
		Heads:    1,
		Tracks:   DoubleTracks,
		WarnMode: warnMode,
	}
	img, err := load(name, store, opts)
	if err != nil {
		return nil, err
	}
	img.slot = slot
	return img, nil
}

func defaultGeometry(path string, opts OpenOptions) Geometry {

	heads := opts.Heads
	if heads == 0 {
		if strings.HasSuffix(strings.ToLower(path), ".dsd") {
			heads = 2
		} else {
			heads = 1
		}
	}
	tracks := opts.Tracks
	if tracks == 0 {
		tracks = DoubleTracks
	}

	var linear bool
	switch {
	case heads == 1:
		linear = true
	case opts.Linear != nil:
		linear = *opts.Linear
	default:
		linear = strings.HasSuffix(strings.ToLower(path), ".ssd")
	}

	return Geometry{Heads: heads, Tracks: tracks, Linear: linear}
}

func newImage(path string, g Geometry, store *Store) *Image {
	img := &Image{
		path:        path,
		filename:    filepath.Base(path),
		geometry:    g,
		data:        make([]byte, g.MaxSize()),
		store:       store,
		readOnly:    store.IsReadOnly(),
		isNew:       store.IsNew(),
		currentDir:  '$',
		defaultHead: -1,
		slot:        -1,
	}
	img.sides = make([]*Side, g.Heads)
	for head := 0; head < g.Heads; head++ {
		c0 := img.sectorData(head, 0, 0)
		c1 := img.sectorData(head, 0, 1)
		img.sides[head] = &Side{image: img, head: head, cat0: c0, cat1: c1}
	}
	if g.Heads == 1 {
		img.defaultHead = 0
	}
	return img
}

func createOnStore(path string, store *Store, opts OpenOptions) (*Image, error) {

	img := newImage(path, defaultGeometry(path, opts), store)
	img.valid = true

	for _, side := range img.sides {
		side.valid = true
		if err := side.Format("", BootOff); err != nil {
			return nil, err
		}
	}
	img.modified = true

	if err := img.setDefaultSide(opts.Side); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"image":    img.filename,
		"geometry": img.geometry.String(),
	}).Debug("image created")

	return img, nil
}

func load(path string, store *Store, opts OpenOptions) (*Image, error) {

	fsize, err := store.Size()
	if err != nil {
		return nil, err
	}

	peek := make([]byte, CatalogSectors*SectorSize)
	if err := store.Read(0, peek); err != nil {
		return nil, err
	}

	g, err := InferGeometry(path, fsize, peek,
		opts.Heads, opts.Tracks, opts.Linear)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	img := newImage(path, g, store)
	img.originalSize = fsize

	if err := store.Read(0, img.data); err != nil {
		return nil, err
	}

	img.Validate(opts.WarnMode)

	if fsize < img.MinSize() {
		return nil, fmt.Errorf("%w: %s: file smaller than used area",
			ErrNotAnImage, img.filename)
	}

	if err := img.setDefaultSide(opts.Side); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"image":    img.filename,
		"geometry": g.String(),
		"size":     fsize,
	}).Debug("image loaded")

	return img, nil
}

func (img *Image) Path() string {
	return img.path
}

func (img *Image) Filename() string {
	return img.filename
}

// Basename is the image file name without its extension.
func (img *Image) Basename() string {
	name := img.filename
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func (img *Image) Geometry() Geometry {
	return img.geometry
}

func (img *Image) IsValid() bool {
	return img.valid
}

func (img *Image) IsReadOnly() bool {
	return img.readOnly
}

func (img *Image) IsModified() bool {
	return img.modified
}

// ModSeq counts in-memory mutations; property caches key off it.
func (img *Image) ModSeq() int {
	return img.modSeq
}

// Slot is the MMB slot index this image was opened from, or -1 for plain
// image files.
func (img *Image) Slot() int {
	return img.slot
}

func (img *Image) markModified() {
	img.modified = true
	img.modSeq++
}

// CurrentDir is the default directory for names given without one.
func (img *Image) CurrentDir() byte {
	return img.currentDir
}

func (img *Image) SetCurrentDir(dir byte) error {
	if err := validateDir(dir); err != nil {
		return err
	}
	img.currentDir = dir
	return nil
}

func (img *Image) setDefaultSide(side int) error {
	if side == 0 {
		return nil
	}
	if side < 1 || side > img.geometry.Heads {
		return fmt.Errorf("invalid disk side number: %d", side)
	}
	img.defaultHead = side - 1
	return nil
}

// Side returns the side for a head index.
func (img *Image) Side(head int) *Side {
	return img.sides[head]
}

func (img *Image) Sides() []*Side {
	return img.sides
}

// DefaultSides returns the selected side, or all sides when no side is
// selected.
func (img *Image) DefaultSides() []*Side {
	if img.defaultHead >= 0 && img.geometry.Heads > 1 {
		return []*Side{img.sides[img.defaultHead]}
	}
	if img.geometry.Heads == 1 {
		return []*Side{img.sides[0]}
	}
	return img.sides
}

func (img *Image) sectorData(head, track, sector int) []byte {
	start := img.geometry.SectorStart(head, track, sector)
	return img.data[start : start+SectorSize]
}

// Sector returns the data of one physical sector.
func (img *Image) Sector(head, track, sector int) ([]byte, error) {
	if err := img.geometry.validateAddress(head, track, sector); err != nil {
		return nil, err
	}
	return img.sectorData(head, track, sector), nil
}

/*
logicalSectors builds the chunk chain for a run of logical sectors of
one side. In a linear image the run is one chunk; in an interleaved
image it breaks at every track boundary. usedSize < 0 means the full
sector capacity is payload.
*/
func (img *Image) logicalSectors(head, start, end, usedSize int) (*Sectors, error) {

	max := img.geometry.SectorsPerSide()
	if head < 0 || head >= img.geometry.Heads {
		return nil, fmt.Errorf("%w: head %d", ErrAddressOutOfRange, head)
	}
	if start < 0 || end > max || start > end {
		return nil, fmt.Errorf("%w: sectors %d..%d", ErrAddressOutOfRange,
			start, end)
	}

	size := (end - start) * SectorSize
	if usedSize < 0 {
		usedSize = size
	}
	if usedSize > size {
		return nil, fmt.Errorf("used size %d exceeds chain size %d",
			usedSize, size)
	}

	var chunks [][]byte

	if img.geometry.Linear {
		if start != end {
			lo := img.geometry.LogicalSectorStart(head, start)
			chunks = append(chunks, img.data[lo:lo+int64(size)])
		}
	} else {
		for sec := start; sec < end; {
			track := sec / SectorsPerTrack
			last := (track + 1) * SectorsPerTrack
			if last > end {
				last = end
			}
			lo := img.geometry.LogicalSectorStart(head, sec)
			chunks = append(chunks, img.data[lo:lo+int64(last-sec)*SectorSize])
			sec = last
		}
	}

	return &Sectors{image: img, chunks: chunks, size: size,
		usedSize: usedSize}, nil
}

// MinSize is the image file size when only used sectors are kept, rounded
// to whole sectors, never below the catalog of any side.
func (img *Image) MinSize() int64 {
	var end int64
	for head, side := range img.sides {
		last := side.LastUsedSector() - 1
		if last < CatalogSectors-1 {
			last = CatalogSectors - 1
		}
		e := img.geometry.LogicalSectorStart(head, last) + SectorSize
		if e > end {
			end = e
		}
	}
	return end
}

// MaxSize is the image file size with all sectors present.
func (img *Image) MaxSize() int64 {
	return img.geometry.MaxSize()
}

func (img *Image) sizeForSave(opt SizeOption) int64 {
	if opt == SizeExpand || (img.isNew && opt == SizeKeep) {
		return img.MaxSize()
	}
	if opt == SizeShrink ||
		(img.modified && img.originalSize < img.MinSize()) {
		return img.MinSize()
	}
	return img.originalSize
}

// Size is the image file size as it would be after a plain save.
func (img *Image) Size() int64 {
	return img.sizeForSave(SizeKeep)
}

// Validate runs the catalog checks on all sides.
func (img *Image) Validate(mode WarnMode) (bool, []Warning) {
	valid := true
	var all []Warning
	for _, side := range img.sides {
		ok, warnings := side.Validate(mode)
		valid = valid && ok
		all = append(all, warnings...)
	}
	img.valid = valid
	return valid, all
}

/*
Save writes the image data back to the backing store. The size option
selects between keeping the current file size, expanding to the full
geometry, and shrinking to the last used sector.
*/
func (img *Image) Save(opt SizeOption) error {

	if img.data == nil {
		return ErrClosed
	}
	if img.readOnly {
		return ErrReadOnly
	}

	size := img.sizeForSave(opt)
	if err := img.store.Write(0, img.data[:size]); err != nil {
		return err
	}
	if opt == SizeShrink || size < img.originalSize {
		if err := img.store.Truncate(size); err != nil {
			return err
		}
	}

	img.modified = false
	img.isNew = false
	img.originalSize = size

	log.WithFields(log.Fields{
		"image": img.filename,
		"size":  size,
	}).Debug("image saved")

	return nil
}

/*
Close flushes dirty sides when save is set and the image is writable,
then releases the backing store. When a fresh image is discarded
without saving, the created file is removed again. Close reports the
first error but always releases the store.
*/
func (img *Image) Close(save bool) error {

	if img.data == nil {
		return nil
	}

	var err error
	if save && !img.readOnly && img.modified {
		err = img.Save(SizeKeep)
	}

	discard := !save && img.isNew
	if cerr := img.store.Close(discard); err == nil {
		err = cerr
	}

	img.data = nil
	img.sides = nil
	return err
}

func (img *Image) String() string {
	return fmt.Sprintf("Image('%s', %s)", img.filename, img.geometry)
}
