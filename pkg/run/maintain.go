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

func NewCompact() *Compact {

	c := &Compact{}
	c.Runner = *NewRunner(
		"compact [flags] {image}",
		"compact fragmented free space",
		"\nUse the compact command to repack all files so free space forms one continuous block.",
		runnerHelpEpilogue, c.Run)

	c.AddImageSettings()
	c.AddSaveSetting()

	return c
}

type Compact struct {
	Runner
}

func (c *Compact) Run() error {

	c.ParseSettings()
	if len(c.Args) != 1 {
		return fmt.Errorf("compact takes exactly one image file argument")
	}

	return c.mutate(c.Args[0], func(img *dfs.Image) error {
		return img.Compact()
	})
}

func NewFormat() *Format {

	f := &Format{}
	f.Runner = *NewRunner(
		"format [flags] {image}",
		"format a disk image",
		"\nUse the format command to reset a disk image to an empty catalog.",
		runnerHelpEpilogue, f.Run)

	f.AddImageSettings()
	f.AddSaveSetting()
	f.AddSetting(&f.Title, "title", "T", "", "", "disk title", false)
	f.AddSetting(&f.BootOpt, "bootopt", "b", "", "off",
		"boot option: off, LOAD, RUN, EXEC", false)

	return f
}

type Format struct {
	//
	Runner
	//
	Title   string
	BootOpt string
}

func (f *Format) Run() error {

	f.ParseSettings()
	if len(f.Args) != 1 {
		return fmt.Errorf("format takes exactly one image file argument")
	}

	boot, err := dfs.ParseBootOption(f.BootOpt)
	if err != nil {
		return err
	}

	return f.mutate(f.Args[0], func(img *dfs.Image) error {
		return img.Format(f.Title, boot)
	})
}

func NewValidate() *Validate {

	v := &Validate{}
	v.Runner = *NewRunner(
		"validate [flags] {image}",
		"check a disk image's catalog structure",
		"\nUse the validate command to run the structural catalog checks and list the findings.",
		runnerHelpEpilogue, v.Run)

	v.AddImageSettings()

	return v
}

type Validate struct {
	Runner
}

func (v *Validate) Run() error {

	v.ParseSettings()
	if len(v.Args) != 1 {
		return fmt.Errorf("validate takes exactly one image file argument")
	}

	// the findings are wanted here, so validation itself runs quiet and
	// everything gets listed below
	v.Warn = "none"

	img, container, err := v.openImage(v.Args[0], false)
	if err != nil {
		return err
	}
	defer closeImage(img, container, false)

	valid, warnings := img.Validate(dfs.WarnAll)
	for _, w := range warnings {
		fmt.Println(w.Message)
	}
	if !valid {
		return fmt.Errorf("%s: validation failed", img.Filename())
	}

	fmt.Printf("%s: OK\n", img.Filename())
	return nil
}
