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
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/beebdfs/pkg/dfs"
)

func NewExport() *Export {

	e := &Export{}
	e.Runner = *NewRunner(
		"export [flags] {image} [pattern]...",
		"export files from a disk image to the host",
		"\nUse the export command to copy files from a disk image into a host directory. Load and exec addresses go into .inf sidecar files.",
		runnerHelpEpilogue, e.Run)

	e.AddImageSettings()
	e.AddSetting(&e.Output, "output", "o", "", ".",
		"output directory", false)
	e.AddSetting(&e.Inf, "inf", "i", "", "auto",
		"inf sidecar mode: auto, always, never", false)
	e.AddSetting(&e.Replace, "replace", "", "", false,
		"overwrite existing host files", false)
	e.AddSetting(&e.ContinueOnError, "continue-on-error", "", "", true,
		"keep exporting after an error", false)

	return e
}

type Export struct {
	//
	Runner
	//
	Output          string
	Inf             string
	Replace         bool
	ContinueOnError bool
}

func (e *Export) Run() error {

	e.ParseSettings()

	if len(e.Args) < 1 {
		return fmt.Errorf("export needs an image file argument")
	}

	infMode, err := parseInfMode(e.Inf)
	if err != nil {
		return err
	}

	img, container, err := e.openImage(e.Args[0], false)
	if err != nil {
		return err
	}
	defer closeImage(img, container, false)

	files, list, err := img.GetFiles(e.Args[1:])
	if err != nil {
		return err
	}

	count := 0
	for _, entry := range files {
		if err := e.exportEntry(entry, infMode); err != nil {
			if !e.ContinueOnError {
				return err
			}
			log.Warnf("%s: %v", entry.FullName(), err)
			continue
		}
		count++
	}
	fmt.Printf("%d file(s) exported\n", count)

	return list.EnsureMatched()
}

func (e *Export) exportEntry(entry *dfs.Entry, infMode dfs.InfMode) error {

	data, err := entry.ReadAll()
	if err != nil {
		return err
	}

	name := hostFileName(entry)
	path := filepath.Join(e.Output, name)

	if !e.Replace {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("host file '%s' already exists", path)
		}
	}

	if err := ioutil.WriteFile(path, data, 0644); err != nil {
		return err
	}

	if infMode != dfs.InfNever {
		inf := entry.EntryInf()
		if err := ioutil.WriteFile(path+".inf",
			[]byte(inf.String()+"\n"), 0644); err != nil {
			return err
		}
	}

	log.WithFields(log.Fields{
		"file": entry.FullName(),
		"host": path,
	}).Debug("file exported")

	return nil
}

// hostFileName translates a DFS name into something every host file
// system accepts, replacing the characters Windows objects to.
func hostFileName(entry *dfs.Entry) string {

	name := entry.Name()
	if entry.Dir() != '$' {
		name = fmt.Sprintf("%c.%s", entry.Dir(), name)
	}

	var out strings.Builder
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c < 32 || c >= 127 || strings.IndexByte("\"*/\\:<>?|", c) >= 0 {
			out.WriteByte('_')
		} else {
			out.WriteByte(c)
		}
	}
	return out.String()
}
