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

package run

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/xelalexv/beebdfs/pkg/dfs"
)

func NewDump() *Dump {

	d := &Dump{}
	d.Runner = *NewRunner(
		"dump [flags] {image} [file]",
		"hex dump a file or disk side",
		"\nUse the dump command to output a hex dump of a file inside a disk image, or of the whole side when no file is named.",
		runnerHelpEpilogue, d.Run)

	d.AddImageSettings()
	d.AddSetting(&d.NoEllipsis, "no-ellipsis", "e", "", false,
		"print repeating lines instead of '...'", false)

	return d
}

type Dump struct {
	//
	Runner
	//
	NoEllipsis bool
}

func (d *Dump) Run() error {

	d.ParseSettings()
	if len(d.Args) < 1 {
		return fmt.Errorf("dump needs an image file argument")
	}

	img, container, err := d.openImage(d.Args[0], false)
	if err != nil {
		return err
	}
	defer closeImage(img, container, false)

	var data []byte
	if len(d.Args) > 1 {
		entry, err := img.FindFile(d.Args[1])
		if err != nil {
			return err
		}
		if entry == nil {
			return fmt.Errorf("%w: '%s'", dfs.ErrNotFound, d.Args[1])
		}
		if data, err = entry.ReadAll(); err != nil {
			return err
		}
	} else {
		for _, side := range img.DefaultSides() {
			data = append(data, side.ReadAll()...)
		}
	}

	hexdump(os.Stdout, data, !d.NoEllipsis)
	return nil
}

// hexdump writes the classic address / hex / ASCII dump, compressing
// repeated lines into an ellipsis.
func hexdump(w io.Writer, data []byte, ellipsis bool) {

	const width = 16
	var prev []byte
	skipping := false

	for offset := 0; offset < len(data); offset += width {

		end := offset + width
		if end > len(data) {
			end = len(data)
		}
		line := data[offset:end]

		if ellipsis && bytes.Equal(line, prev) && end < len(data) {
			if !skipping {
				fmt.Fprintln(w, "...")
				skipping = true
			}
			continue
		}
		skipping = false
		prev = line

		hexPart := ""
		asciiPart := ""
		for _, b := range line {
			hexPart += fmt.Sprintf("%02x ", b)
			if 32 <= b && b < 127 {
				asciiPart += string(rune(b))
			} else {
				asciiPart += "."
			}
		}
		fmt.Fprintf(w, "%06X  %-*s %s\n", offset, 3*width, hexPart, asciiPart)
	}
}
