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
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/beebdfs/pkg/dfs"
)

func NewImport() *Import {

	i := &Import{}
	i.Runner = *NewRunner(
		"import [flags] {image} {file}...",
		"import host files into a disk image",
		"\nUse the import command to copy files from the host file system into a disk image. Metadata comes from .inf sidecar files, unless overridden with flags.",
		`- The inf modes: 'auto' reads sidecars when present, 'always' requires
  them, 'never' ignores them.
`+runnerHelpEpilogue, i.Run)

	i.AddImageSettings()
	i.AddSaveSetting()
	i.AddSetting(&i.Inf, "inf", "i", "", "auto",
		"inf sidecar mode: auto, always, never", false)
	i.AddSetting(&i.Name, "name", "n", "", "",
		"DFS name for the imported file (single file import only)", false)
	i.AddSetting(&i.Load, "load", "", "", "",
		"load address (hex), overrides inf", false)
	i.AddSetting(&i.Exec, "exec", "", "", "",
		"exec address (hex), overrides inf", false)
	i.AddSetting(&i.Locked, "locked", "", "", false,
		"set the locked attribute", false)
	i.AddSetting(&i.Replace, "replace", "", "", false,
		"replace existing files", false)
	i.AddSetting(&i.IgnoreAccess, "ignore-access", "", "", false,
		"replace locked files", false)
	i.AddSetting(&i.NoCompact, "no-compact", "", "", false,
		"fail instead of compacting when free space is fragmented", false)
	i.AddSetting(&i.ContinueOnError, "continue-on-error", "", "", true,
		"keep importing after an error", false)

	return i
}

type Import struct {
	//
	Runner
	//
	Inf             string
	Name            string
	Load            string
	Exec            string
	Locked          bool
	Replace         bool
	IgnoreAccess    bool
	NoCompact       bool
	ContinueOnError bool
}

func (i *Import) Run() error {

	i.ParseSettings()

	if len(i.Args) < 2 {
		return fmt.Errorf("import needs an image and at least one file")
	}

	infMode, err := parseInfMode(i.Inf)
	if err != nil {
		return err
	}
	if i.Name != "" && len(i.Args) > 2 {
		return fmt.Errorf("--name only works with a single file")
	}

	sizeOpt, err := i.sizeOption()
	if err != nil {
		return err
	}

	img, container, err := i.openImage(i.Args[0], true)
	if err != nil {
		return err
	}

	count, err := i.importFiles(img, i.Args[1:], infMode)
	if err != nil {
		closeImage(img, container, false)
		return err
	}
	fmt.Printf("%d file(s) imported\n", count)

	if err := img.Save(sizeOpt); err != nil {
		closeImage(img, container, false)
		return err
	}
	return closeImage(img, container, true)
}

func (i *Import) importFiles(img *dfs.Image, hostFiles []string,
	infMode dfs.InfMode) (int, error) {

	count := 0
	for _, hostFile := range hostFiles {

		if strings.HasSuffix(strings.ToLower(hostFile), ".inf") {
			continue
		}

		inf, err := readSidecar(hostFile, infMode)
		if err != nil {
			if i.ContinueOnError {
				log.Warnf("%s: %v", hostFile, err)
				continue
			}
			return count, err
		}

		data, err := ioutil.ReadFile(hostFile)
		if err != nil {
			if i.ContinueOnError {
				log.Warnf("%s: %v", hostFile, err)
				continue
			}
			return count, err
		}

		name := i.Name
		if name == "" {
			if inf != nil {
				name = inf.Name
			} else {
				name = filepath.Base(hostFile)
			}
		}

		load, exec := 0, -1
		locked := i.Locked
		if inf != nil {
			load = inf.LoadAddr
			exec = inf.ExecAddr
			locked = locked || inf.Locked
		}
		if i.Load != "" {
			if load, err = parseHexAddr(i.Load); err != nil {
				return count, err
			}
		}
		if i.Exec != "" {
			if exec, err = parseHexAddr(i.Exec); err != nil {
				return count, err
			}
		}

		_, err = img.AddFile(name, data, load, exec, locked, dfs.AddOptions{
			Replace:      i.Replace,
			IgnoreAccess: i.IgnoreAccess,
			NoCompact:    i.NoCompact,
		})
		if err != nil {
			if i.ContinueOnError {
				log.Warnf("%s: %v", hostFile, err)
				continue
			}
			return count, err
		}
		count++
	}
	return count, nil
}

// readSidecar loads the .inf companion of a host file per the inf mode.
func readSidecar(hostFile string, mode dfs.InfMode) (*dfs.Inf, error) {

	if mode == dfs.InfNever {
		return nil, nil
	}

	line, err := ioutil.ReadFile(hostFile + ".inf")
	if err != nil {
		if os.IsNotExist(err) {
			if mode == dfs.InfAlways {
				return nil, fmt.Errorf("missing inf file for '%s'", hostFile)
			}
			return nil, nil
		}
		return nil, err
	}
	return dfs.ParseInf(string(line))
}

func parseInfMode(s string) (dfs.InfMode, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return dfs.InfAuto, nil
	case "always":
		return dfs.InfAlways, nil
	case "never":
		return dfs.InfNever, nil
	}
	return 0, fmt.Errorf("invalid inf mode: %s", s)
}

func parseHexAddr(s string) (int, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "&"), 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid address: %s", s)
	}
	return int(v), nil
}
