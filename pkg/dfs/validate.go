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

	log "github.com/sirupsen/logrus"
)

// WarningKind classifies validation warnings.
type WarningKind int

const (
	WarnBadSectorCount WarningKind = iota
	WarnSectorCountMismatch
	WarnBadEndOffset
	WarnBadOptByte
	WarnBadSequence
	WarnBadName
	WarnBadDir
	WarnBadStartSector
	WarnBadEndSector
	WarnBadOrder
	WarnOverlap
)

// Warning is one validation finding.
type Warning struct {
	Kind    WarningKind
	Message string
}

func (w Warning) String() string {
	return w.Message
}

/*
Validate runs the structural catalog checks on the side and returns the
findings in the order they were encountered. mode controls how far
validation goes: WarnFirst reports only the first finding and stops
checking at the first one that invalidates the side, WarnAll
enumerates everything, WarnNone checks but reports nothing.

A side that fails validation is marked invalid. Reading it remains
possible, but mutating operations refuse to rely on the bad catalog.
*/
func (s *Side) Validate(mode WarnMode) (bool, []Warning) {

	valid := true
	var warnings []Warning

	report := func(kind WarningKind, format string, args ...interface{}) {
		w := Warning{Kind: kind, Message: fmt.Sprintf(format, args...)}
		if mode == WarnAll || mode == WarnFirst && len(warnings) == 0 {
			warnings = append(warnings, w)
			log.Warnf("%s: %s", s, w.Message)
		}
	}

	more := func() bool {
		return valid || mode == WarnAll
	}

	if ts := s.TotalSectors(); ts != SingleSectors && ts != DoubleSectors {
		valid = false
		report(WarnBadSectorCount, "invalid total number of sectors (%d)", ts)
	}
	if more() && s.TotalSectors() > s.PhysicalSectors() {
		valid = false
		report(WarnSectorCountMismatch,
			"catalog claims %d sectors, geometry has %d",
			s.TotalSectors(), s.PhysicalSectors())
	}
	if more() && s.EndOffset()&7 != 0 {
		valid = false
		report(WarnBadEndOffset, "invalid end of catalog value (0x%02x)",
			s.EndOffset())
	}
	if more() && s.OptByte()&0xcc != 0 {
		valid = false
		report(WarnBadOptByte,
			"invalid option byte or unsupported format (0x%02x)", s.OptByte())
	}
	if more() {
		if b := s.SequenceByte(); b&0x0f > 9 || b>>4 > 9 {
			// a bad BCD byte does not make the catalog unusable
			report(WarnBadSequence, "sequence byte is not BCD (0x%02x)", b)
		}
	}

	nfiles := s.EndOffset() / 8
	endSector := s.TotalSectors()
	badOrder := false

	for index := 0; more() && index < nfiles; index++ {
		entry := s.File(index)
		valid = s.validateEntry(entry, report, more) && valid
		if more() && entry.EndSector() > endSector {
			report(WarnBadOrder,
				"catalog entries are not ordered properly in entry #%d",
				index+1)
			badOrder = true
			valid = false
		}
		endSector = entry.StartSector()
	}

	if badOrder {
		valid = s.checkAllocation(report, more) && valid
	}

	s.valid = valid
	return valid, warnings
}

func (s *Side) validateEntry(entry *Entry,
	report func(WarningKind, string, ...interface{}), more func() bool) bool {

	valid := true

	for i := 0; i < 7; i++ {
		if !IsNameChar(entry.e1[i] & 0x7f) {
			// invalid names happen in the wild; warn but keep the disk usable
			report(WarnBadName, "invalid file name in catalog entry #%d",
				entry.Index()+1)
			break
		}
	}
	if !IsNameChar(entry.Dir()) {
		report(WarnBadDir, "invalid directory name in catalog entry #%d",
			entry.Index()+1)
	}
	if start := entry.StartSector(); start < CatalogSectors ||
		start > s.TotalSectors() {
		report(WarnBadStartSector,
			"invalid start sector (%d) in catalog entry #%d",
			start, entry.Index()+1)
		valid = false
	}
	if !more() && !valid {
		return false
	}
	if end := entry.EndSector(); end > s.TotalSectors() ||
		end < entry.StartSector() {
		report(WarnBadEndSector,
			"invalid end sector (%d) in catalog entry #%d",
			end, entry.Index()+1)
		valid = false
	}
	return valid
}

// checkAllocation builds a per-sector ownership map to pin down which
// files overlap when entry order is off.
func (s *Side) checkAllocation(
	report func(WarningKind, string, ...interface{}), more func() bool) bool {

	valid := true
	if s.TotalSectors() < CatalogSectors {
		return false
	}
	owner := make([]int, s.TotalSectors())
	owner[0] = -1
	owner[1] = -1

	nfiles := s.EndOffset() / 8
	for index := 0; index < nfiles && more(); index++ {
		entry := s.File(index)
		start, end := entry.StartSector(), entry.EndSector()
		if start < 0 || end < 0 || end > len(owner) || start > end {
			valid = false
			continue
		}
		for sec := start; sec < end; sec++ {
			switch owner[sec] {
			case -1:
				report(WarnOverlap, "file #%d overlaps catalog sectors",
					index+1)
				valid = false
			case 0:
				owner[sec] = index + 1
			default:
				report(WarnOverlap, "file #%d overlaps file #%d",
					index+1, owner[sec])
				valid = false
			}
			if !more() {
				return valid
			}
		}
	}
	return valid
}
