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

	"github.com/xelalexv/beebdfs/pkg/dfs"
)

func NewConvert() *Convert {

	c := &Convert{}
	c.Runner = *NewRunner(
		"convert [flags] {source-image} {target-image}",
		"convert a disk image between layouts",
		"\nUse the convert command to rewrite a disk image in another layout, e.g. a linear double sided SSD into an interleaved DSD. Sector contents are preserved exactly.",
		runnerHelpEpilogue, c.Run)

	c.AddImageSettings()

	return c
}

type Convert struct {
	Runner
}

func (c *Convert) Run() error {

	c.ParseSettings()
	if len(c.Args) != 2 {
		return fmt.Errorf("convert takes a source and a target image")
	}

	opts, err := c.imageOptions(false)
	if err != nil {
		return err
	}

	source, err := dfs.Open(c.Args[0], opts)
	if err != nil {
		return err
	}
	defer source.Close(false)

	targetOpts := dfs.OpenOptions{
		ForWrite: true,
		Mode:     dfs.OpenNew,
		Heads:    source.Geometry().Heads,
		Tracks:   source.Geometry().Tracks,
	}

	target, err := dfs.Create(c.Args[1], targetOpts)
	if err != nil {
		return err
	}

	if err := target.Backup(source); err != nil {
		target.Close(false)
		return err
	}

	if err := target.Close(true); err != nil {
		return err
	}

	fmt.Printf("%s (%s) -> %s (%s)\n",
		source.Filename(), source.Geometry(),
		target.Filename(), target.Geometry())
	return nil
}
