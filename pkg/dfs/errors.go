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
)

// Error kinds of the engine. Operations wrap these with context via %w, so
// callers can test with errors.Is.
var (
	ErrNotAnImage        = errors.New("not a DFS image")
	ErrGeometryAmbiguous = errors.New("ambiguous disk geometry")
	ErrCatalogCorrupt    = errors.New("disk catalog is corrupted")

	ErrAddressOutOfRange = errors.New("sector address out of range")

	ErrNameInvalid = errors.New("invalid file name")
	ErrNameTooLong = errors.New("file name too long")
	ErrDirInvalid  = errors.New("invalid directory name")

	ErrExists   = errors.New("file already exists")
	ErrNotFound = errors.New("file not found")
	ErrLocked   = errors.New("file is locked")
	ErrFull     = errors.New("catalog full")
	ErrNoSpace  = errors.New("no space for file")

	ErrReadOnly = errors.New("image open for read only")
	ErrClosed   = errors.New("image file closed")

	ErrIoDuringCompact = errors.New("i/o error during compaction")
)
