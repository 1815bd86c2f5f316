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
	"fmt"
	"strings"

	"github.com/xelalexv/beebdfs/pkg/dfs"
)

func NewDigest() *Digest {

	d := &Digest{}
	d.Runner = *NewRunner(
		"digest [flags] {image} [file]...",
		"compute digests of files or disk sides",
		"\nUse the digest command to compute a hash over files, or over whole disk sides when no file is named.",
		`- Digest modes: 'data' hashes file bytes alone, 'file' adds load & exec
  addresses, 'all' also the access attribute. For sides, 'all' hashes the
  raw surface, 'used' only the used areas, 'file' the sorted files.
- A sector range such as '--sectors 0-1' hashes raw sectors instead.
`+runnerHelpEpilogue, d.Run)

	d.AddImageSettings()
	d.AddSetting(&d.Mode, "digest-mode", "d", "", "file",
		"digest mode: all, used, file, data", false)
	d.AddSetting(&d.Algorithm, "algorithm", "a", "", "sha1",
		"digest algorithm: sha1, sha256, md5", false)
	d.AddSetting(&d.Sectors, "sectors", "", "", "",
		"logical sector range 'first-last' to hash instead", false)

	return d
}

type Digest struct {
	//
	Runner
	//
	Mode      string
	Algorithm string
	Sectors   string
}

func (d *Digest) Run() error {

	d.ParseSettings()
	if len(d.Args) < 1 {
		return fmt.Errorf("digest needs an image file argument")
	}

	hash, err := dfs.HashByName(d.Algorithm)
	if err != nil {
		return err
	}
	mode, err := parseDigestMode(d.Mode)
	if err != nil {
		return err
	}

	img, container, err := d.openImage(d.Args[0], false)
	if err != nil {
		return err
	}
	defer closeImage(img, container, false)

	if d.Sectors != "" {
		return d.sectorDigest(img, hash)
	}

	if len(d.Args) == 1 {
		for _, side := range img.DefaultSides() {
			digest, err := side.Digest(mode, hash)
			if err != nil {
				return err
			}
			fmt.Printf("%s  %s:%d\n", digest, img.Filename(), side.Head())
		}
		return nil
	}

	for _, name := range d.Args[1:] {
		entry, err := img.FindFile(name)
		if err != nil {
			return err
		}
		if entry == nil {
			return fmt.Errorf("%w: '%s'", dfs.ErrNotFound, name)
		}
		digest, err := entry.Digest(mode, hash)
		if err != nil {
			return err
		}
		fmt.Printf("%s  %s\n", digest, entry.FullName())
	}
	return nil
}

func (d *Digest) sectorDigest(img *dfs.Image, hash dfs.HashFunc) error {

	var first, last int
	if n, err := fmt.Sscanf(d.Sectors, "%d-%d", &first, &last); err != nil ||
		n != 2 || first > last {
		return fmt.Errorf("invalid sector range: %s", d.Sectors)
	}

	for _, side := range img.DefaultSides() {
		sectors, err := side.Sectors(first, last+1, -1)
		if err != nil {
			return err
		}
		fmt.Printf("%s  %s:%d sectors %d-%d\n", sectors.Digest(hash),
			img.Filename(), side.Head(), first, last)
	}
	return nil
}

func parseDigestMode(s string) (dfs.DigestMode, error) {
	switch strings.ToLower(s) {
	case "all":
		return dfs.DigestAll, nil
	case "used":
		return dfs.DigestUsed, nil
	case "", "file":
		return dfs.DigestFile, nil
	case "data":
		return dfs.DigestData, nil
	}
	return 0, fmt.Errorf("invalid digest mode: %s", s)
}
