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
Geometry describes the physical shape of a disk image: number of sides,
tracks per side, and how the sides are laid out in the file. In a linear
image all tracks of side 0 precede all tracks of side 1; in an
interleaved image the two sides alternate track by track. Single sided
images are always linear.
*/
type Geometry struct {
	Heads  int
	Tracks int
	Linear bool
}

func (g Geometry) SectorsPerSide() int {
	return g.Tracks * SectorsPerTrack
}

func (g Geometry) SideSize() int64 {
	return int64(g.Tracks) * TrackSize
}

// MaxSize is the image file size with all sectors present.
func (g Geometry) MaxSize() int64 {
	return int64(g.Heads) * g.SideSize()
}

func (g Geometry) String() string {
	layout := "interleaved"
	if g.Linear {
		layout = "linear"
	}
	return fmt.Sprintf("%d side(s), %d tracks, %s", g.Heads, g.Tracks, layout)
}

// TrackStart is the file offset of the first byte of a track.
func (g Geometry) TrackStart(head, track int) int64 {
	if g.Linear {
		return int64(head*g.Tracks+track) * TrackSize
	}
	return int64(track*g.Heads+head) * TrackSize
}

// SectorStart is the file offset of the first byte of a sector given by
// physical address.
func (g Geometry) SectorStart(head, track, sector int) int64 {
	return g.TrackStart(head, track) + int64(sector)*SectorSize
}

// LogicalSectorStart is the file offset of the first byte of a sector given
// by logical sector number.
func (g Geometry) LogicalSectorStart(head, logical int) int64 {
	track, sector := LogicalToPhysical(logical)
	return g.SectorStart(head, track, sector)
}

func (g Geometry) validateAddress(head, track, sector int) error {
	if head < 0 || head >= g.Heads {
		return fmt.Errorf("%w: head %d", ErrAddressOutOfRange, head)
	}
	if track < 0 || track >= g.Tracks {
		return fmt.Errorf("%w: track %d", ErrAddressOutOfRange, track)
	}
	if sector < 0 || sector >= SectorsPerTrack {
		return fmt.Errorf("%w: sector %d", ErrAddressOutOfRange, sector)
	}
	return nil
}

// LogicalToPhysical converts a logical sector number to a physical track
// and sector number.
func LogicalToPhysical(logical int) (int, int) {
	return logical / SectorsPerTrack, logical % SectorsPerTrack
}

// PhysicalToLogical converts a physical track and sector number to a
// logical sector number. Sector 10 is accepted as pointing just past the
// end of a track.
func PhysicalToLogical(track, sector int) (int, error) {
	if sector < 0 || sector > SectorsPerTrack {
		return 0, fmt.Errorf("%w: sector %d", ErrAddressOutOfRange, sector)
	}
	return track*SectorsPerTrack + sector, nil
}

/*
InferGeometry determines the geometry for an existing image file, based
on file size, file name extension, and the total sector count stored in
the first catalog, honoring explicit overrides. heads and tracks may be
0 for automatic selection; linear may be nil for automatic selection.

When the heuristics are ambiguous, the single sided 80 track reading
wins; .dsd files default to double sided interleaved, double sided .ssd
files to linear. Files smaller than their canonical size are treated as
truncated, i.e. geometry is promoted to the smallest canonical size
that holds them.
*/
func InferGeometry(name string, fsize int64, catalog []byte,
	heads, tracks int, linear *bool) (Geometry, error) {

	if fsize < CatalogSectors*SectorSize {
		return Geometry{}, fmt.Errorf("%w: file too small (%d bytes)",
			ErrNotAnImage, fsize)
	}
	if fsize%SectorSize != 0 {
		return Geometry{}, fmt.Errorf(
			"%w: size %d not a multiple of sector size", ErrNotAnImage, fsize)
	}

	isDSD := strings.HasSuffix(strings.ToLower(name), ".dsd")
	isSSD := strings.HasSuffix(strings.ToLower(name), ".ssd")

	if heads == 0 {
		if isDSD || fsize > int64(DoubleTracks)*TrackSize {
			heads = 2
		} else {
			heads = 1
		}
	}
	if heads != 1 && heads != 2 {
		return Geometry{}, fmt.Errorf("invalid number of disk sides: %d", heads)
	}

	if tracks == 0 {
		if fsize <= int64(heads)*SingleTracks*TrackSize {
			// Small file: believe the catalog, default to 80 tracks
			tracks = peekTracks(catalog)
		} else {
			tracks = DoubleTracks
		}
	}
	if tracks != SingleTracks && tracks != DoubleTracks {
		return Geometry{}, fmt.Errorf("invalid number of tracks: %d", tracks)
	}

	var lin bool
	switch {
	case heads == 1:
		lin = true
	case linear != nil:
		lin = *linear
	default:
		lin = isSSD
	}

	g := Geometry{Heads: heads, Tracks: tracks, Linear: lin}

	if fsize > g.MaxSize() {
		return Geometry{}, fmt.Errorf("%w: image too big for %s",
			ErrNotAnImage, g)
	}

	// The catalog of the second side must be within the file
	if heads == 2 {
		need := g.SectorStart(1, 0, CatalogSectors)
		if fsize < need {
			return Geometry{}, fmt.Errorf("%w: image too small for %s",
				ErrNotAnImage, g)
		}
	}

	return g, nil
}

// peekTracks reads the total sector count out of raw catalog bytes and maps
// it to a track count, defaulting to 80 tracks for anything unexpected.
func peekTracks(catalog []byte) int {
	if len(catalog) < CatalogSectors*SectorSize {
		return DoubleTracks
	}
	sectors := int(catalog[SectorSize+7]) | int(catalog[SectorSize+6]&3)<<8
	if sectors == SingleSectors {
		return SingleTracks
	}
	return DoubleTracks
}
