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
	"errors"
	"testing"
)

func TestOffsetsLinear(t *testing.T) {

	g := Geometry{Heads: 2, Tracks: 80, Linear: true}

	cases := []struct {
		head, track, sector int
		want                int64
	}{
		{0, 0, 0, 0},
		{0, 0, 5, 5 * 256},
		{0, 79, 9, 79*2560 + 9*256},
		{1, 0, 0, 80 * 2560},
		{1, 3, 2, 80*2560 + 3*2560 + 2*256},
	}

	for _, c := range cases {
		if got := g.SectorStart(c.head, c.track, c.sector); got != c.want {
			t.Errorf("linear (%d,%d,%d): want %d, got %d",
				c.head, c.track, c.sector, c.want, got)
		}
	}
}

func TestOffsetsInterleaved(t *testing.T) {

	g := Geometry{Heads: 2, Tracks: 80, Linear: false}

	cases := []struct {
		head, track, sector int
		want                int64
	}{
		{0, 0, 0, 0},
		{1, 0, 0, 2560},
		{0, 1, 0, 2 * 2560},
		{1, 1, 3, 3*2560 + 3*256},
		{0, 79, 9, 158*2560 + 9*256},
	}

	for _, c := range cases {
		if got := g.SectorStart(c.head, c.track, c.sector); got != c.want {
			t.Errorf("interleaved (%d,%d,%d): want %d, got %d",
				c.head, c.track, c.sector, c.want, got)
		}
	}
}

func TestLogicalPhysical(t *testing.T) {

	track, sector := LogicalToPhysical(397)
	if track != 39 || sector != 7 {
		t.Errorf("logical 397: want 39/7, got %d/%d", track, sector)
	}

	logical, err := PhysicalToLogical(39, 7)
	if err != nil || logical != 397 {
		t.Errorf("physical 39/7: want 397, got %d (%v)", logical, err)
	}

	// sector 10 points just past a track and is accepted
	if logical, err = PhysicalToLogical(4, 10); err != nil || logical != 50 {
		t.Errorf("physical 4/10: want 50, got %d (%v)", logical, err)
	}

	if _, err = PhysicalToLogical(0, 11); !errors.Is(err,
		ErrAddressOutOfRange) {
		t.Errorf("sector 11: want ErrAddressOutOfRange, got %v", err)
	}
}

func TestInferGeometry(t *testing.T) {

	catalog := make([]byte, 512)
	// catalog claiming 800 sectors
	catalog[256+6] = 3
	catalog[256+7] = 0x20

	cases := []struct {
		name   string
		size   int64
		heads  int
		tracks int
		linear bool
	}{
		{"a.ssd", 204800, 1, 80, true},
		{"a.ssd", 102400, 1, 80, true}, // catalog says 80 tracks
		{"b.dsd", 409600, 2, 80, false},
		{"b.dsd", 204800, 2, 80, false},
		{"c.ssd", 409600, 2, 80, true}, // too big for one side
	}

	for _, c := range cases {
		g, err := InferGeometry(c.name, c.size, catalog, 0, 0, nil)
		if err != nil {
			t.Errorf("%s/%d: unexpected error: %v", c.name, c.size, err)
			continue
		}
		if g.Heads != c.heads || g.Tracks != c.tracks || g.Linear != c.linear {
			t.Errorf("%s/%d: want %d/%d/%v, got %d/%d/%v", c.name, c.size,
				c.heads, c.tracks, c.linear, g.Heads, g.Tracks, g.Linear)
		}
	}
}

func TestInferGeometry40Tracks(t *testing.T) {

	catalog := make([]byte, 512)
	// catalog claiming 400 sectors
	catalog[256+6] = 1
	catalog[256+7] = 0x90

	g, err := InferGeometry("a.ssd", 102400, catalog, 0, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if g.Tracks != SingleTracks {
		t.Errorf("want 40 tracks, got %d", g.Tracks)
	}
}

func TestInferGeometryRejects(t *testing.T) {

	catalog := make([]byte, 512)

	if _, err := InferGeometry("x.ssd", 300, catalog, 0, 0, nil); err == nil {
		t.Error("odd size not rejected")
	}
	if _, err := InferGeometry("x.ssd", 256, catalog, 0, 0, nil); err == nil {
		t.Error("too small size not rejected")
	}
	if _, err := InferGeometry("x.ssd", 512000, catalog, 0, 0,
		nil); err == nil {
		t.Error("oversized image not rejected")
	}
}
