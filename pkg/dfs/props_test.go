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
	"strings"
	"testing"
)

func TestFormatFileRecord(t *testing.T) {

	img := newTestImage(t, "g.ssd", OpenOptions{})

	if _, err := img.AddFile("PROG", make([]byte, 100), 0x1900, 0x8023,
		true, AddOptions{}); err != nil {
		t.Fatal(err)
	}
	entry, err := img.FindFile("PROG")
	if err != nil {
		t.Fatal(err)
	}
	record := entry.Record(false)

	cases := []struct {
		format string
		want   string
	}{
		{"{fullname}", "$.PROG"},
		{"{fullname:9}|{access:1}", "$.PROG   |L"},
		{"{load_addr:06X} {exec_addr:06X}", "001900 008023"},
		{"{size:4}", " 100"},
		{"{{literal}}", "{literal}"},
	}

	for _, c := range cases {
		got, err := record.Format(c.format)
		if err != nil {
			t.Errorf("%q: unexpected error: %v", c.format, err)
			continue
		}
		if got != c.want {
			t.Errorf("%q: want %q, got %q", c.format, c.want, got)
		}
	}

	if _, err := record.Format("{nosuch}"); err == nil {
		t.Error("unknown property not rejected")
	}
	if _, err := record.Format("{open"); err == nil {
		t.Error("unbalanced brace not rejected")
	}
}

func TestSideRecord(t *testing.T) {

	img := newTestImage(t, "g.ssd", OpenOptions{})
	side := img.Side(0)
	side.SetTitle("MYDISK")
	side.SetBootOption(BootExec)

	record := side.Record(false, false)
	if record.Title != "MYDISK" || record.BootOptStr != "EXEC" ||
		record.Sectors != 800 {
		t.Errorf("side record off: %+v", record)
	}

	line, err := record.Format("{title:12}|{opt_str:4}|{sectors:3}")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(line, "MYDISK      |EXEC|800") {
		t.Errorf("side format line: %q", line)
	}
}

func TestEntryInfoLine(t *testing.T) {

	img := newTestImage(t, "g.ssd", OpenOptions{})
	side := img.Side(0)

	entry, err := side.AddFile('$', "A", make([]byte, 100), 0x1900, 0x8023,
		true, AddOptions{})
	if err != nil {
		t.Fatal(err)
	}

	want := "$.A        L  001900 008023 000064 31F"
	if got := entry.Info(); got != want {
		t.Errorf("info line:\nwant %q\ngot  %q", want, got)
	}
}
