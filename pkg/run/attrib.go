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

func NewAttrib() *Attrib {

	a := &Attrib{}
	a.Runner = *NewRunner(
		"attrib [flags] {image} {file}",
		"change file attributes",
		"\nUse the attrib command to change the locked attribute and the load & exec addresses of a file.",
		runnerHelpEpilogue, a.Run)

	a.AddImageSettings()
	a.AddSaveSetting()
	a.AddSetting(&a.Locked, "locked", "", "", "",
		"set or clear the locked attribute ('yes' or 'no')", false)
	a.AddSetting(&a.Load, "load", "", "", "", "new load address (hex)", false)
	a.AddSetting(&a.Exec, "exec", "", "", "", "new exec address (hex)", false)

	return a
}

type Attrib struct {
	//
	Runner
	//
	Locked string
	Load   string
	Exec   string
}

func (a *Attrib) Run() error {

	a.ParseSettings()
	if len(a.Args) != 2 {
		return fmt.Errorf("attrib takes an image and one file name")
	}

	var locked *bool
	switch a.Locked {
	case "":
	case "yes", "true":
		v := true
		locked = &v
	case "no", "false":
		v := false
		locked = &v
	default:
		return fmt.Errorf("invalid value for --locked: %s", a.Locked)
	}

	var load, exec *int
	if a.Load != "" {
		v, err := parseHexAddr(a.Load)
		if err != nil {
			return err
		}
		load = &v
	}
	if a.Exec != "" {
		v, err := parseHexAddr(a.Exec)
		if err != nil {
			return err
		}
		exec = &v
	}

	if locked == nil && load == nil && exec == nil {
		return fmt.Errorf("nothing to change")
	}

	return a.mutate(a.Args[0], func(img *dfs.Image) error {
		entry, err := img.FindFile(a.Args[1])
		if err != nil {
			return err
		}
		if entry == nil {
			return fmt.Errorf("%w: '%s'", dfs.ErrNotFound, a.Args[1])
		}
		return entry.Side().SetAttrib(entry.Dir(), entry.Name(),
			locked, load, exec)
	})
}

func NewLock() *Lock {

	l := &Lock{}
	l.Runner = *NewRunner(
		"lock [flags] {image} {pattern}...",
		"lock files matching patterns",
		"\nUse the lock command to set the locked attribute on all files matching the given patterns.",
		runnerHelpEpilogue, l.Run)

	l.AddImageSettings()
	l.AddSaveSetting()

	return l
}

type Lock struct {
	Runner
}

func (l *Lock) Run() error {

	l.ParseSettings()
	if len(l.Args) < 2 {
		return fmt.Errorf("lock takes an image and at least one pattern")
	}

	return l.mutate(l.Args[0], func(img *dfs.Image) error {
		count, err := img.SetLocked(l.Args[1:], true)
		fmt.Printf("%d file(s) locked\n", count)
		return err
	})
}

func NewUnlock() *Unlock {

	u := &Unlock{}
	u.Runner = *NewRunner(
		"unlock [flags] {image} {pattern}...",
		"unlock files matching patterns",
		"\nUse the unlock command to clear the locked attribute on all files matching the given patterns.",
		runnerHelpEpilogue, u.Run)

	u.AddImageSettings()
	u.AddSaveSetting()

	return u
}

type Unlock struct {
	Runner
}

func (u *Unlock) Run() error {

	u.ParseSettings()
	if len(u.Args) < 2 {
		return fmt.Errorf("unlock takes an image and at least one pattern")
	}

	return u.mutate(u.Args[0], func(img *dfs.Image) error {
		count, err := img.SetLocked(u.Args[1:], false)
		fmt.Printf("%d file(s) unlocked\n", count)
		return err
	})
}
