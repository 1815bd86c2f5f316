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
	"github.com/xelalexv/beebdfs/pkg/mmb"
)

func NewCreate() *Create {

	c := &Create{}
	c.Runner = *NewRunner(
		"create [flags] {image}",
		"create a new disk image or MMB file",
		"\nUse the create command to create a new, formatted disk image, or an empty MMB container when the file name ends in '.mmb'.",
		runnerHelpEpilogue, c.Run)

	c.AddImageSettings()
	c.AddSetting(&c.Title, "title", "T", "", "", "disk title", false)
	c.AddSetting(&c.BootOpt, "bootopt", "b", "", "off",
		"boot option: off, LOAD, RUN, EXEC", false)
	c.AddSetting(&c.Sides, "sides", "d", "", 0,
		"number of sides (1 or 2)", false)

	return c
}

type Create struct {
	//
	Runner
	//
	Title   string
	BootOpt string
	Sides   int
}

func (c *Create) Run() error {

	c.ParseSettings()

	if len(c.Args) != 1 {
		return fmt.Errorf("create takes exactly one image file argument")
	}
	path := c.Args[0]

	if strings.HasSuffix(strings.ToLower(path), ".mmb") {
		container, err := mmb.Create(path)
		if err != nil {
			return err
		}
		fmt.Printf("created %s with %d slots\n", path, container.Count())
		return container.Close(true)
	}

	opts, err := c.imageOptions(true)
	if err != nil {
		return err
	}
	opts.Heads = c.Sides

	boot, err := dfs.ParseBootOption(c.BootOpt)
	if err != nil {
		return err
	}

	img, err := dfs.Create(path, opts)
	if err != nil {
		return err
	}

	if err := img.Format(c.Title, boot); err != nil {
		img.Close(false)
		return err
	}

	return img.Close(true)
}
