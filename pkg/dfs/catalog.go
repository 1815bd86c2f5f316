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

/*
CatalogView is the decoded form of the two catalog sectors of a side.

Decoding never fails; whatever the two sectors contain is carried
verbatim, including reserved bits and the slot bytes beyond the last
used entry, so that Encode reproduces previously decoded sectors byte
for byte. Fields that cannot be represented, such as an end offset that
is not a multiple of eight, are left for the validator to flag.

The title is kept as raw bytes; translating BBC code 0x60 to a pound
sign is a display concern and not done here.
*/
type CatalogView struct {
	//
	TitleRaw  [12]byte
	Sequence  byte
	EndOffset byte
	OptByte   byte
	SectLow   byte
	//
	slots1 [MaxFiles][8]byte
	slots2 [MaxFiles][8]byte
}

// DecodeCatalog parses the two catalog sectors into a CatalogView. Short
// input reads as zero bytes.
func DecodeCatalog(sector0, sector1 []byte) *CatalogView {

	s0 := make([]byte, SectorSize)
	s1 := make([]byte, SectorSize)
	copy(s0, sector0)
	copy(s1, sector1)

	v := &CatalogView{
		Sequence:  s1[4],
		EndOffset: s1[5],
		OptByte:   s1[6],
		SectLow:   s1[7],
	}
	copy(v.TitleRaw[0:8], s0[0:8])
	copy(v.TitleRaw[8:12], s1[0:4])

	for i := 0; i < MaxFiles; i++ {
		off := (i + 1) * 8
		copy(v.slots1[i][:], s0[off:off+8])
		copy(v.slots2[i][:], s1[off:off+8])
	}
	return v
}

// Encode renders the view back into two catalog sectors. It is total on
// any view and inverse to DecodeCatalog.
func (v *CatalogView) Encode() ([]byte, []byte) {

	s0 := make([]byte, SectorSize)
	s1 := make([]byte, SectorSize)

	copy(s0[0:8], v.TitleRaw[0:8])
	copy(s1[0:4], v.TitleRaw[8:12])
	s1[4] = v.Sequence
	s1[5] = v.EndOffset
	s1[6] = v.OptByte
	s1[7] = v.SectLow

	for i := 0; i < MaxFiles; i++ {
		off := (i + 1) * 8
		copy(s0[off:off+8], v.slots1[i][:])
		copy(s1[off:off+8], v.slots2[i][:])
	}
	return s0, s1
}

func (v *CatalogView) Title() string {
	return trimTitle(v.TitleRaw[:])
}

func (v *CatalogView) SequenceNumber() int {
	return FromBCD(v.Sequence)
}

// NumberOfFiles derives the file count from the end offset.
func (v *CatalogView) NumberOfFiles() int {
	return int(v.EndOffset) / 8
}

func (v *CatalogView) BootOption() BootOption {
	return BootOption(v.OptByte >> 4 & 3)
}

// TotalSectors is the sector count recorded in the catalog, including the
// two high bits from the options byte.
func (v *CatalogView) TotalSectors() int {
	return int(v.SectLow) | int(v.OptByte&3)<<8
}

// File returns an entry view over slot i. The view shares the slot storage,
// so mutations through it are reflected by Encode.
func (v *CatalogView) File(i int) *Entry {
	return &Entry{index: i, e1: v.slots1[i][:], e2: v.slots2[i][:]}
}
