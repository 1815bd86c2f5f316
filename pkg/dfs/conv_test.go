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

func TestBCD(t *testing.T) {

	cases := []struct {
		bcd byte
		dec int
	}{
		{0x00, 0},
		{0x01, 1},
		{0x09, 9},
		{0x10, 10},
		{0x42, 42},
		{0x99, 99},
	}

	for _, c := range cases {
		if got := FromBCD(c.bcd); got != c.dec {
			t.Errorf("FromBCD(0x%02x): want %d, got %d", c.bcd, c.dec, got)
		}
		if got := ToBCD(c.dec); got != c.bcd {
			t.Errorf("ToBCD(%d): want 0x%02x, got 0x%02x", c.dec, c.bcd, got)
		}
	}
}

func TestBCDWrap(t *testing.T) {
	// a full catalog sequence rolls from 0x99 over to 0x00
	if got := ToBCD(FromBCD(0x99) + 1); got != 0x00 {
		t.Errorf("sequence wrap: want 0x00, got 0x%02x", got)
	}
}

func TestParseBootOption(t *testing.T) {

	cases := []struct {
		in   string
		want BootOption
		ok   bool
	}{
		{"off", BootOff, true},
		{"LOAD", BootLoad, true},
		{"run", BootRun, true},
		{"Exec", BootExec, true},
		{"2", BootRun, true},
		{"bogus", 0, false},
		{"7", 0, false},
	}

	for _, c := range cases {
		got, err := ParseBootOption(c.in)
		if c.ok != (err == nil) {
			t.Errorf("ParseBootOption(%q): unexpected error state: %v",
				c.in, err)
			continue
		}
		if c.ok && got != c.want {
			t.Errorf("ParseBootOption(%q): want %v, got %v", c.in, c.want, got)
		}
	}
}

func TestNameValidation(t *testing.T) {

	for _, name := range []string{"A", "PROG", "HELLO12", "a-b_c"} {
		if err := validateName(name); err != nil {
			t.Errorf("validateName(%q): unexpected error: %v", name, err)
		}
	}
	for _, name := range []string{"", "TOOLONGNAME", "BAD\x01", "X\x00Y"} {
		if err := validateName(name); err == nil {
			t.Errorf("validateName(%q): expected error", name)
		}
	}
}
