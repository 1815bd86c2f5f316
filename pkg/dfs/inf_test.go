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
	"testing"
)

func TestParseInf(t *testing.T) {

	cases := []struct {
		line   string
		name   string
		load   int
		exec   int
		size   int
		locked bool
	}{
		{"$.PROG FF1900 FF8023 000064 L",
			"$.PROG", 0xFF1900, 0xFF8023, 0x64, true},
		{"MYFILE 1900", "MYFILE", 0x1900, 0x1900, 0, false},
		{"D.X 0 0", "D.X", 0, 0, 0, false},
		{"$.B 1234 5678 9A Locked", "$.B", 0x1234, 0x5678, 0x9A, true},
		{"NAME 1900 L", "NAME", 0x1900, 0x1900, 0, true},
	}

	for _, c := range cases {
		inf, err := ParseInf(c.line)
		if err != nil {
			t.Errorf("%q: unexpected error: %v", c.line, err)
			continue
		}
		if inf.Name != c.name || inf.LoadAddr != c.load ||
			inf.ExecAddr != c.exec || inf.Size != c.size ||
			inf.Locked != c.locked {
			t.Errorf("%q: got %+v", c.line, inf)
		}
	}

	for _, line := range []string{"", "   ", "NAME XYZ"} {
		if _, err := ParseInf(line); err == nil {
			t.Errorf("%q: expected error", line)
		}
	}
}

func TestInfRoundTrip(t *testing.T) {

	img := newTestImage(t, "g.ssd", OpenOptions{})

	if _, err := img.AddFile("PROG", make([]byte, 100), 0x1900, 0x8023,
		true, AddOptions{}); err != nil {
		t.Fatal(err)
	}
	entry, err := img.FindFile("PROG")
	if err != nil {
		t.Fatal(err)
	}

	line := entry.EntryInf().String()
	inf, err := ParseInf(line)
	if err != nil {
		t.Fatalf("%q: %v", line, err)
	}
	if inf.Name != "$.PROG" || inf.LoadAddr != 0x1900 ||
		inf.ExecAddr != 0x8023 || inf.Size != 100 || !inf.Locked {
		t.Errorf("inf round trip: %q -> %+v", line, inf)
	}
}
