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
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/xelalexv/beebdfs/pkg/dfs"
)

func NewList() *List {

	l := &List{}
	l.Runner = *NewRunner(
		"ls [flags] {image} [pattern]...",
		"list files in a disk image",
		"\nUse the ls command to list the catalog of a disk image. Patterns restrict the listing to matching files.",
		`- Formats: cat (default, *CAT style), info (*INFO style), raw (names only),
  inf (as in .inf sidecars), dcat (*DCAT style), json, or a custom format
  string with {property} references.
`+runnerHelpEpilogue, l.Run)

	l.AddImageSettings()
	l.AddSetting(&l.Format, "format", "f", "", "cat", "listing format", false)
	l.AddSetting(&l.Digests, "digests", "g", "", false,
		"include SHA1 digests in json listings", false)

	return l
}

type List struct {
	//
	Runner
	//
	Format  string
	Digests bool
}

func (l *List) Run() error {

	l.ParseSettings()

	if len(l.Args) < 1 {
		return fmt.Errorf("ls needs an image file argument")
	}

	img, container, err := l.openImage(l.Args[0], false)
	if err != nil {
		return err
	}
	defer closeImage(img, container, false)

	return listing(os.Stdout, img, l.Format, l.Args[1:], l.Digests)
}

func listing(w io.Writer, img *dfs.Image, format string,
	patterns []string, digests bool) error {

	files, list, err := img.GetFiles(patterns)
	if err != nil {
		return err
	}

	switch strings.ToLower(format) {

	case "", "cat":
		for _, side := range img.DefaultSides() {
			catListing(w, side, files)
		}

	case "info":
		for _, f := range files {
			fmt.Fprintln(w, f.Info())
		}

	case "raw":
		for _, f := range files {
			fmt.Fprintln(w, f.FullName())
		}

	case "inf":
		for _, f := range files {
			fmt.Fprintln(w, f.EntryInf())
		}

	case "dcat":
		for _, side := range img.DefaultSides() {
			index := side.Head()
			if img.Slot() >= 0 {
				index = img.Slot()
			}
			fmt.Fprintf(w, "%5d %-12s\n", index, side.Title())
		}

	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(img.Record(digests, true))

	case "table":
		format = "{image_filename:15}|{index:2}|{fullname:9}|{access:1}|" +
			"{load_addr:06X}|{exec_addr:06X}|{size:06X}|{start_sector:03X}"
		fallthrough

	default:
		for _, f := range files {
			record := f.Record(digests)
			line, err := record.Format(format)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, line)
		}
	}

	return list.EnsureMatched()
}

// catListing emulates the *CAT screen for one side: header lines, then
// the files of the current directory, then the rest, two per line.
func catListing(w io.Writer, side *dfs.Side, files []*dfs.Entry) {

	drive := side.Drive()
	fmt.Fprintf(w, "%s (%02d)\n", side.Title(), side.SequenceNumber())
	fmt.Fprintf(w, "%-20s%s\n", fmt.Sprintf("Drive %d", drive),
		fmt.Sprintf("Option %d (%s)", side.BootOption(),
			side.BootOption()))
	fmt.Fprintf(w, "%-20s%s\n\n", fmt.Sprintf("Dir. :%d.%c", drive,
		side.Image().CurrentDir()), "Lib. :0.$")

	var mine []*dfs.Entry
	for _, f := range files {
		if f.Side() == side {
			mine = append(mine, f)
		}
	}
	sort.SliceStable(mine, func(i, j int) bool {
		return strings.ToLower(mine[i].FullName()) <
			strings.ToLower(mine[j].FullName())
	})

	current := side.Image().CurrentDir()
	printCatLines(w, mine, current, true)
	printCatLines(w, mine, current, false)
}

func printCatLines(w io.Writer, files []*dfs.Entry, dir byte, inDir bool) {

	pending := ""
	for _, f := range files {
		if (f.Dir() == dir) != inDir {
			continue
		}
		name := f.Name()
		if !inDir {
			name = fmt.Sprintf("%c.%s", f.Dir(), f.Name())
		}
		access := " "
		if f.Locked() {
			access = "L"
		}
		cell := fmt.Sprintf("%4s%-7s  %1s", "", name, access)
		if !inDir {
			cell = fmt.Sprintf("  %-9s  %1s", name, access)
		}
		if pending != "" {
			fmt.Fprintf(w, "%-20s%s\n", pending, cell)
			pending = ""
		} else {
			pending = cell
		}
	}
	if pending != "" {
		fmt.Fprintln(w, pending)
	}
}

func NewCat() *Cat {

	c := &Cat{}
	c.Runner = *NewRunner(
		"cat [flags] {image} [pattern]...",
		"list files the way *CAT does",
		"\nUse the cat command to show the catalog of a disk image in the layout of the *CAT command.",
		runnerHelpEpilogue, c.Run)
	c.AddImageSettings()
	return c
}

type Cat struct {
	Runner
}

func (c *Cat) Run() error {

	c.ParseSettings()
	if len(c.Args) < 1 {
		return fmt.Errorf("cat needs an image file argument")
	}

	img, container, err := c.openImage(c.Args[0], false)
	if err != nil {
		return err
	}
	defer closeImage(img, container, false)

	return listing(os.Stdout, img, "cat", c.Args[1:], false)
}

func NewInfo() *Info {

	i := &Info{}
	i.Runner = *NewRunner(
		"info [flags] {image} [pattern]...",
		"list files the way *INFO does",
		"\nUse the info command to show file details in the layout of the *INFO command.",
		runnerHelpEpilogue, i.Run)
	i.AddImageSettings()
	return i
}

type Info struct {
	Runner
}

func (i *Info) Run() error {

	i.ParseSettings()
	if len(i.Args) < 1 {
		return fmt.Errorf("info needs an image file argument")
	}

	img, container, err := i.openImage(i.Args[0], false)
	if err != nil {
		return err
	}
	defer closeImage(img, container, false)

	return listing(os.Stdout, img, "info", i.Args[1:], false)
}
