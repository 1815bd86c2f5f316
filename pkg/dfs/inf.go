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

package dfs

import (
	"fmt"
	"strconv"
	"strings"
)

/*
Inf holds the metadata of a .inf sidecar file: one line of whitespace
separated tokens, "name load exec length [access]", with the addresses
in plain hex and an optional "L" or "Locked" access token. Only the
name is mandatory; everything else defaults.
*/
type Inf struct {
	Name     string
	LoadAddr int
	ExecAddr int
	Size     int
	Locked   bool
	//
	HasExec bool
	HasSize bool
}

// ParseInf reads inf metadata from a sidecar line.
func ParseInf(line string) (*Inf, error) {

	fields := strings.Fields(strings.TrimRight(line, "\r\n \t"))
	if len(fields) == 0 {
		return nil, fmt.Errorf("invalid inf file: empty line")
	}

	inf := &Inf{Name: fields[0]}
	if inf.Name == "" {
		return nil, fmt.Errorf("invalid inf file: empty name")
	}

	rest := fields[1:]

	parseHex := func(s string) (int, error) {
		v, err := strconv.ParseUint(s, 16, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid inf file: bad address '%s'", s)
		}
		return int(v), nil
	}

	var err error
	if len(rest) > 0 {
		if inf.LoadAddr, err = parseHex(rest[0]); err != nil {
			return nil, err
		}
		rest = rest[1:]
	}
	if len(rest) > 0 && !isAccessToken(rest[0]) {
		if inf.ExecAddr, err = parseHex(rest[0]); err != nil {
			return nil, err
		}
		inf.HasExec = true
		rest = rest[1:]
	}
	if len(rest) > 0 && !isAccessToken(rest[0]) {
		if inf.Size, err = parseHex(rest[0]); err != nil {
			return nil, err
		}
		inf.HasSize = true
		rest = rest[1:]
	}
	if len(rest) > 0 && isAccessToken(rest[0]) {
		inf.Locked = true
	}

	if !inf.HasExec {
		inf.ExecAddr = inf.LoadAddr
	}
	return inf, nil
}

func isAccessToken(s string) bool {
	l := strings.ToLower(s)
	return l == "l" || l == "locked"
}

// String renders the inf line the way it is written next to exported
// files.
func (inf *Inf) String() string {
	line := fmt.Sprintf("%-12s %06X %06X %06X",
		inf.Name, inf.LoadAddr, inf.ExecAddr, inf.Size)
	if inf.Locked {
		line += " Locked"
	}
	return line
}

// EntryInf synthesizes inf metadata for a catalog entry.
func (e *Entry) EntryInf() *Inf {
	return &Inf{
		Name:     e.FullName(),
		LoadAddr: e.LoadAddr(),
		ExecAddr: e.ExecAddr(),
		Size:     e.Size(),
		Locked:   e.Locked(),
		HasExec:  true,
		HasSize:  true,
	}
}
