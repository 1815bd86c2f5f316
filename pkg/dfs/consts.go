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

const (
	SectorSize      = 256
	SectorsPerTrack = 10
	TrackSize       = SectorsPerTrack * SectorSize

	SingleTracks = 40
	DoubleTracks = 80

	SingleSectors = SingleTracks * SectorsPerTrack
	DoubleSectors = DoubleTracks * SectorsPerTrack

	// sectors 0 and 1 of each side hold the catalog
	CatalogSectors = 2

	MaxFiles = 31
)

// OpenMode selects how the backing file is opened.
type OpenMode int

const (
	OpenAlways OpenMode = iota
	OpenNew
	OpenExisting
)

// SizeOption controls the image file size on save.
type SizeOption int

const (
	SizeKeep SizeOption = iota
	SizeExpand
	SizeShrink
)

// WarnMode controls how validation warnings are reported.
type WarnMode int

const (
	WarnFirst WarnMode = iota
	WarnNone
	WarnAll
)

// InfMode controls how .inf sidecar files are treated on import.
type InfMode int

const (
	InfAuto InfMode = iota
	InfAlways
	InfNever
)

// DigestMode selects what goes into a digest.
type DigestMode int

const (
	// DigestAll covers the entire side surface, or for a file its data,
	// load & exec addresses, and access attribute.
	DigestAll DigestMode = iota
	// DigestUsed covers the used catalog bytes and all file data.
	DigestUsed
	// DigestFile covers file data plus load & exec addresses; at side level
	// it covers all files, sorted, with names, addresses and lengths.
	DigestFile
	// DigestData covers file data only; at side level it is the same as
	// DigestFile.
	DigestData
)

// BootOption is the action taken for $.!BOOT when the disk is booted.
type BootOption int

const (
	BootOff BootOption = iota
	BootLoad
	BootRun
	BootExec
)

func (b BootOption) String() string {
	switch b {
	case BootOff:
		return "off"
	case BootLoad:
		return "LOAD"
	case BootRun:
		return "RUN"
	case BootExec:
		return "EXEC"
	}
	return "?"
}
