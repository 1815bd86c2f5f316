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

/*
mutate opens an image for writing, runs fn on it, and saves with the
runner's size option when fn succeeds. On failure, nothing is written
back.
*/
func (r *Runner) mutate(ref string, fn func(*dfs.Image) error) error {

	sizeOpt, err := r.sizeOption()
	if err != nil {
		return err
	}

	img, container, err := r.openImage(ref, true)
	if err != nil {
		return err
	}

	if err := fn(img); err != nil {
		closeImage(img, container, false)
		return err
	}

	if img.IsModified() || img.IsReadOnly() == false && sizeOpt != dfs.SizeKeep {
		if err := img.Save(sizeOpt); err != nil {
			closeImage(img, container, false)
			return err
		}
	}
	return closeImage(img, container, true)
}

func NewDelete() *Delete {

	d := &Delete{}
	d.Runner = *NewRunner(
		"rm [flags] {image} {file}",
		"delete a single file",
		"\nUse the rm command to delete one file from a disk image.",
		runnerHelpEpilogue, d.Run)

	d.AddImageSettings()
	d.AddSaveSetting()
	d.AddSetting(&d.IgnoreAccess, "ignore-access", "", "", false,
		"delete even when the file is locked", false)
	d.AddSetting(&d.Silent, "silent", "", "", false,
		"no error when the file does not exist", false)

	return d
}

type Delete struct {
	//
	Runner
	//
	IgnoreAccess bool
	Silent       bool
}

func (d *Delete) Run() error {

	d.ParseSettings()
	if len(d.Args) != 2 {
		return fmt.Errorf("rm takes an image and one file name")
	}

	return d.mutate(d.Args[0], func(img *dfs.Image) error {
		deleted, err := img.DeleteFile(d.Args[1], d.IgnoreAccess, d.Silent)
		if err == nil && deleted {
			fmt.Printf("deleted %s\n", d.Args[1])
		}
		return err
	})
}

func NewDestroy() *Destroy {

	d := &Destroy{}
	d.Runner = *NewRunner(
		"destroy [flags] {image} {pattern}...",
		"delete all files matching patterns",
		"\nUse the destroy command to delete every file matching the given patterns.",
		runnerHelpEpilogue, d.Run)

	d.AddImageSettings()
	d.AddSaveSetting()
	d.AddSetting(&d.IgnoreAccess, "ignore-access", "", "", false,
		"also delete locked files", false)

	return d
}

type Destroy struct {
	//
	Runner
	//
	IgnoreAccess bool
}

func (d *Destroy) Run() error {

	d.ParseSettings()
	if len(d.Args) < 2 {
		return fmt.Errorf("destroy takes an image and at least one pattern")
	}

	return d.mutate(d.Args[0], func(img *dfs.Image) error {
		count, err := img.Destroy(d.Args[1:], d.IgnoreAccess)
		fmt.Printf("%d file(s) deleted\n", count)
		return err
	})
}

func NewRename() *Rename {

	r := &Rename{}
	r.Runner = *NewRunner(
		"mv [flags] {image} {from} {to}",
		"rename or move a file",
		"\nUse the mv command to rename a file, or to move it to the other side when the new name carries a drive prefix.",
		runnerHelpEpilogue, r.Run)

	r.AddImageSettings()
	r.AddSaveSetting()
	r.AddSetting(&r.Replace, "replace", "", "", false,
		"replace an existing file of the new name", false)
	r.AddSetting(&r.IgnoreAccess, "ignore-access", "", "", false,
		"also rename or replace locked files", false)

	return r
}

type Rename struct {
	//
	Runner
	//
	Replace      bool
	IgnoreAccess bool
}

func (r *Rename) Run() error {

	r.ParseSettings()
	if len(r.Args) != 3 {
		return fmt.Errorf("mv takes an image, a source and a target name")
	}

	return r.mutate(r.Args[0], func(img *dfs.Image) error {
		return img.RenameFile(r.Args[1], r.Args[2], dfs.CopyOptions{
			Replace:      r.Replace,
			IgnoreAccess: r.IgnoreAccess,
		})
	})
}

func NewCopy() *Copy {

	c := &Copy{}
	c.Runner = *NewRunner(
		"cp [flags] {image} {from} {to}",
		"copy a file within a disk image",
		"\nUse the cp command to copy a file inside a disk image, possibly to the other side.",
		runnerHelpEpilogue, c.Run)

	c.AddImageSettings()
	c.AddSaveSetting()
	c.AddSetting(&c.Replace, "replace", "", "", false,
		"replace an existing file of the target name", false)
	c.AddSetting(&c.IgnoreAccess, "ignore-access", "", "", false,
		"also replace locked files", false)
	c.AddSetting(&c.PreserveAttr, "preserve-attr", "", "", false,
		"carry the locked attribute over", false)

	return c
}

type Copy struct {
	//
	Runner
	//
	Replace      bool
	IgnoreAccess bool
	PreserveAttr bool
}

func (c *Copy) Run() error {

	c.ParseSettings()
	if len(c.Args) != 3 {
		return fmt.Errorf("cp takes an image, a source and a target name")
	}

	return c.mutate(c.Args[0], func(img *dfs.Image) error {
		return img.CopyFile(c.Args[1], c.Args[2], dfs.CopyOptions{
			Replace:      c.Replace,
			IgnoreAccess: c.IgnoreAccess,
			PreserveAttr: c.PreserveAttr,
		})
	})
}

func NewCopyOver() *CopyOver {

	c := &CopyOver{}
	c.Runner = *NewRunner(
		"copyover [flags] {source-image} {target-image} [pattern]...",
		"copy files from one disk image to another",
		"\nUse the copyover command to copy all files matching the patterns from a source image into a target image.",
		runnerHelpEpilogue, c.Run)

	c.AddImageSettings()
	c.AddSaveSetting()
	c.AddSetting(&c.Replace, "replace", "", "", false,
		"replace existing files", false)
	c.AddSetting(&c.IgnoreAccess, "ignore-access", "", "", false,
		"also replace locked files", false)
	c.AddSetting(&c.PreserveAttr, "preserve-attr", "", "", false,
		"carry the locked attribute over", false)
	c.AddSetting(&c.NoCompact, "no-compact", "", "", false,
		"fail instead of compacting when free space is fragmented", false)
	c.AddSetting(&c.ContinueOnError, "continue-on-error", "", "", true,
		"keep copying after an error", false)

	return c
}

type CopyOver struct {
	//
	Runner
	//
	Replace         bool
	IgnoreAccess    bool
	PreserveAttr    bool
	NoCompact       bool
	ContinueOnError bool
}

func (c *CopyOver) Run() error {

	c.ParseSettings()
	if len(c.Args) < 2 {
		return fmt.Errorf("copyover takes a source and a target image")
	}

	source, srcContainer, err := c.openImage(c.Args[0], false)
	if err != nil {
		return err
	}
	defer closeImage(source, srcContainer, false)

	return c.mutate(c.Args[1], func(img *dfs.Image) error {
		count, err := img.CopyOver(source, c.Args[2:], dfs.CopyOptions{
			Replace:         c.Replace,
			IgnoreAccess:    c.IgnoreAccess,
			PreserveAttr:    c.PreserveAttr,
			NoCompact:       c.NoCompact,
			ContinueOnError: c.ContinueOnError,
		})
		fmt.Printf("%d file(s) copied\n", count)
		return err
	})
}

func NewBackup() *Backup {

	b := &Backup{}
	b.Runner = *NewRunner(
		"backup [flags] {source-image} {target-image}",
		"copy all sectors from one disk image to another",
		"\nUse the backup command to copy the raw sector contents of a disk image into another, e.g. between layouts.",
		runnerHelpEpilogue, b.Run)

	b.AddImageSettings()
	b.AddSaveSetting()

	return b
}

type Backup struct {
	Runner
}

func (b *Backup) Run() error {

	b.ParseSettings()
	if len(b.Args) != 2 {
		return fmt.Errorf("backup takes a source and a target image")
	}

	source, srcContainer, err := b.openImage(b.Args[0], false)
	if err != nil {
		return err
	}
	defer closeImage(source, srcContainer, false)

	return b.mutate(b.Args[1], func(img *dfs.Image) error {
		return img.Backup(source)
	})
}
