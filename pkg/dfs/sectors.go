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
)

/*
Sectors is a possibly non-contiguous chain of byte chunks in the image
data, covering a run of logical sectors. On an interleaved image the
sectors of one side are not adjacent in the file, so a run generally
consists of one chunk per track. The chunks alias the image buffer;
writing through them mutates the image.
*/
type Sectors struct {
	image    *Image
	chunks   [][]byte
	size     int
	usedSize int
}

// Size is the total sector capacity of the chain in bytes.
func (s *Sectors) Size() int {
	return s.size
}

// UsedSize is the payload size; for file sectors the last sector may only
// be partially used.
func (s *Sectors) UsedSize() int {
	return s.usedSize
}

// ReadAll copies the used payload out of the chain.
func (s *Sectors) ReadAll() []byte {
	out := make([]byte, 0, s.usedSize)
	left := s.usedSize
	for _, c := range s.chunks {
		if left <= 0 {
			break
		}
		n := len(c)
		if n > left {
			n = left
		}
		out = append(out, c[:n]...)
		left -= n
	}
	return out
}

// WriteAll copies data into the chain, zero filling the remainder of the
// last touched sector and everything after it.
func (s *Sectors) WriteAll(data []byte) error {

	if len(data) > s.size {
		return fmt.Errorf("data too long for sector chain (%d > %d)",
			len(data), s.size)
	}

	s.image.markModified()

	offset := 0
	for _, c := range s.chunks {
		n := copy(c, data[offset:])
		offset += n
		for i := n; i < len(c); i++ {
			c[i] = 0
		}
	}
	return nil
}

// Fill sets every byte of the chain to value.
func (s *Sectors) Fill(value byte) {
	s.image.markModified()
	for _, c := range s.chunks {
		for i := range c {
			c[i] = value
		}
	}
}

// Clear zero fills the chain.
func (s *Sectors) Clear() {
	s.Fill(0)
}
