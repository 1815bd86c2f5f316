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
	"strconv"

	"github.com/xelalexv/beebdfs/pkg/mmb"
)

// withMMB opens an MMB container, runs fn, and saves when fn succeeded.
func withMMB(path string, forWrite bool, fn func(*mmb.File) error) error {

	container, err := mmb.Open(path, forWrite)
	if err != nil {
		return err
	}

	if err := fn(container); err != nil {
		container.Close(false)
		return err
	}
	return container.Close(true)
}

func parseSlot(s string) (int, error) {
	slot, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid slot index: %s", s)
	}
	return slot, nil
}

func NewDKill() *DKill {

	d := &DKill{}
	d.Runner = *NewRunner(
		"dkill [flags] {mmb-file} {slot}",
		"mark an MMB slot as uninitialized",
		"\nUse the dkill command to mark a slot in an MMB file as uninitialized. The slot's disk contents stay in place.",
		runnerHelpEpilogue, d.Run)

	d.AddSetting(&d.Unlock, "dunlock", "", "", false,
		"also clear the slot's lock", false)

	return d
}

type DKill struct {
	//
	Runner
	//
	Unlock bool
}

func (d *DKill) Run() error {

	d.ParseSettings()
	if len(d.Args) != 2 {
		return fmt.Errorf("dkill takes an MMB file and a slot index")
	}
	slot, err := parseSlot(d.Args[1])
	if err != nil {
		return err
	}

	return withMMB(d.Args[0], true, func(m *mmb.File) error {
		entry, err := m.GetEntry(slot)
		if err != nil {
			return err
		}
		changed, err := entry.DKill(d.Unlock)
		if err == nil && changed {
			fmt.Printf("slot %d uninitialized\n", slot)
		}
		return err
	})
}

func NewDRestore() *DRestore {

	d := &DRestore{}
	d.Runner = *NewRunner(
		"drestore [flags] {mmb-file} {slot}",
		"restore an uninitialized MMB slot",
		"\nUse the drestore command to mark an uninitialized slot in an MMB file as initialized again.",
		runnerHelpEpilogue, d.Run)

	d.AddSetting(&d.Lock, "dlock", "", "", false,
		"also lock the slot", false)

	return d
}

type DRestore struct {
	//
	Runner
	//
	Lock bool
}

func (d *DRestore) Run() error {

	d.ParseSettings()
	if len(d.Args) != 2 {
		return fmt.Errorf("drestore takes an MMB file and a slot index")
	}
	slot, err := parseSlot(d.Args[1])
	if err != nil {
		return err
	}

	return withMMB(d.Args[0], true, func(m *mmb.File) error {
		entry, err := m.GetEntry(slot)
		if err != nil {
			return err
		}
		changed, err := entry.DRestore(d.Lock)
		if err == nil && changed {
			fmt.Printf("slot %d restored\n", slot)
		}
		return err
	})
}

func NewDRecat() *DRecat {

	d := &DRecat{}
	d.Runner = *NewRunner(
		"drecat [flags] {mmb-file}",
		"rebuild the MMB title index from slot contents",
		"\nUse the drecat command to re-read the disk title of every initialized slot and refresh the MMB catalog with it.",
		runnerHelpEpilogue, d.Run)

	d.AddImageSettings()

	return d
}

type DRecat struct {
	Runner
}

func (d *DRecat) Run() error {

	d.ParseSettings()
	if len(d.Args) != 1 {
		return fmt.Errorf("drecat takes exactly one MMB file argument")
	}

	warn, err := d.warnMode()
	if err != nil {
		return err
	}

	return withMMB(d.Args[0], true, func(m *mmb.File) error {
		count, err := m.DRecat(warn)
		fmt.Printf("%d title(s) updated\n", count)
		return err
	})
}

func NewDOnBoot() *DOnBoot {

	d := &DOnBoot{}
	d.Runner = *NewRunner(
		"donboot [flags] {mmb-file} [drive slot]",
		"show or set the on-boot drive mapping",
		"\nUse the donboot command to show which slots are inserted into the four drives at boot time, or to map a drive to a slot.",
		runnerHelpEpilogue, d.Run)

	return d
}

type DOnBoot struct {
	Runner
}

func (d *DOnBoot) Run() error {

	d.ParseSettings()

	switch len(d.Args) {

	case 1:
		return withMMB(d.Args[0], false, func(m *mmb.File) error {
			for drive := 0; drive < 4; drive++ {
				slot, err := m.OnBoot(drive)
				if err != nil {
					return err
				}
				title := ""
				if slot >= 1 && slot <= m.Count() {
					title = m.Entry(slot).Title()
				}
				fmt.Printf("drive %d: slot %d %s\n", drive, slot, title)
			}
			return nil
		})

	case 3:
		drive, err := strconv.Atoi(d.Args[1])
		if err != nil {
			return fmt.Errorf("invalid drive number: %s", d.Args[1])
		}
		slot, err := parseSlot(d.Args[2])
		if err != nil {
			return err
		}
		return withMMB(d.Args[0], true, func(m *mmb.File) error {
			return m.SetOnBoot(drive, slot)
		})
	}

	return fmt.Errorf("donboot takes an MMB file, optionally drive and slot")
}

func NewDCat() *DCat {

	d := &DCat{}
	d.Runner = *NewRunner(
		"dcat [flags] {mmb-file}",
		"list the MMB catalog",
		"\nUse the dcat command to list the slots of an MMB file the way *DCAT does.",
		runnerHelpEpilogue, d.Run)

	d.AddSetting(&d.All, "all", "a", "", false,
		"also list uninitialized slots", false)

	return d
}

type DCat struct {
	//
	Runner
	//
	All bool
}

func (d *DCat) Run() error {

	d.ParseSettings()
	if len(d.Args) != 1 {
		return fmt.Errorf("dcat takes exactly one MMB file argument")
	}

	return withMMB(d.Args[0], false, func(m *mmb.File) error {
		entries := m.Entries()
		if d.All {
			entries = m.AllEntries()
		}
		line := ""
		for i, entry := range entries {
			line += entry.DCatLine()
			if (i+1)%4 == 0 {
				fmt.Println(line)
				line = ""
			}
		}
		if line != "" {
			fmt.Println(line)
		}
		return nil
	})
}
