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
	"github.com/xelalexv/beebdfs/pkg/api"
)

func NewServe() *Serve {

	s := &Serve{}
	s.Runner = *NewRunner(
		"serve [-a|--address {address}] [-R|--root {dir}]",
		"serve disk image catalogs over HTTP",
		"\nUse the serve command to run a small read only HTTP service over a directory of disk images, for browsing catalogs and fetching files.",
		runnerHelpEpilogue, s.Run)

	s.AddSetting(&s.Address, "address", "a", "BEEBDFS_ADDRESS", "0.0.0.0:8190",
		"address and port at which to serve the API", false)
	s.AddSetting(&s.Root, "root", "R", "BEEBDFS_ROOT", ".",
		"directory containing the disk images", false)

	return s
}

type Serve struct {
	//
	Runner
	//
	Address string
	Root    string
}

func (s *Serve) Run() error {
	s.ParseSettings()
	return api.NewAPIServer(s.Address, s.Root).Serve()
}
