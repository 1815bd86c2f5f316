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
	"path"
	"strings"
)

/*
Pattern is a parsed DFS file name pattern. A pattern may carry a drive
prefix (":0." or ":2.") pinning it to one side, and a directory part;
without a directory it matches the current directory only. Name and
directory parts use fnmatch style globbing with '*', '?' and
'[ranges]'.
*/
type Pattern struct {
	//
	Head int // -1 when the pattern does not pin a side
	Dir  string
	Name string
	//
	matchCount int
}

// PatternList is a set of patterns; a file matches the list when it
// matches any element.
type PatternList struct {
	patterns []*Pattern
}

func (l *PatternList) Patterns() []*Pattern {
	if l == nil {
		return nil
	}
	return l.patterns
}

// EnsureMatched returns ErrNotFound for any pattern that matched nothing.
func (l *PatternList) EnsureMatched() error {
	if l == nil {
		return nil
	}
	for _, p := range l.patterns {
		if p.matchCount == 0 {
			return fmt.Errorf("%w: no file matching '%s'", ErrNotFound, p)
		}
	}
	return nil
}

func (p *Pattern) String() string {
	dir := p.Dir
	if dir == "" {
		dir = "$"
	}
	if p.Head >= 0 {
		return fmt.Sprintf(":%d.%s.%s", p.Head*2, dir, p.Name)
	}
	return fmt.Sprintf("%s.%s", dir, p.Name)
}

/*
ParsePattern splits a pattern into drive, directory and name parts.
heads is the number of sides of the image the pattern will run
against, for validating the drive prefix. A bare drive (":0" / ":2")
is accepted as matching everything on that side.
*/
func ParsePattern(pattern string, heads int) (*Pattern, error) {

	p := &Pattern{Head: -1}
	name := pattern

	if len(name) == 2 && name[0] == ':' {
		head, err := driveToHead(name[1], heads)
		if err != nil {
			return nil, err
		}
		p.Head = head
		p.Dir = "?"
		p.Name = "*"
		return p, nil
	}

	if strings.HasPrefix(name, ":") {
		if len(name) < 3 || name[2] != '.' {
			return nil, fmt.Errorf("invalid drive name in '%s'", pattern)
		}
		head, err := driveToHead(name[1], heads)
		if err != nil {
			return nil, err
		}
		p.Head = head
		name = name[3:]
	}

	// split off a directory part; the first letter may be a bracket
	// expression, which can itself contain a dot
	first := skipFirstLetter(name)
	if len(name) > first && name[first] == '.' {
		p.Dir = name[:first]
		name = name[first+1:]
	}

	if name == "" {
		return nil, fmt.Errorf("%w: empty pattern", ErrNameInvalid)
	}
	p.Name = name
	return p, nil
}

// ParsePatterns parses a set of patterns into a list.
func ParsePatterns(patterns []string, heads int) (*PatternList, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	list := &PatternList{}
	for _, s := range patterns {
		p, err := ParsePattern(s, heads)
		if err != nil {
			return nil, err
		}
		list.patterns = append(list.patterns, p)
	}
	return list, nil
}

func driveToHead(drive byte, heads int) (int, error) {
	if drive != '0' && drive != '2' {
		return 0, fmt.Errorf("bad drive: %c", drive)
	}
	head := int(drive-'0') / 2
	if head >= heads {
		return 0, fmt.Errorf("bad drive: %c", drive)
	}
	return head, nil
}

// skipFirstLetter returns the index after the pattern's first letter,
// stepping over a complete bracket expression when present.
func skipFirstLetter(pattern string) int {
	if len(pattern) == 0 || pattern[0] != '[' {
		return 1
	}
	scan := 1
	if len(pattern) > 1 && (pattern[1] == '!' || pattern[1] == '^') {
		scan = 2
	}
	if len(pattern) > scan && pattern[scan] == ']' {
		scan++
	}
	if end := strings.IndexByte(pattern[scan:], ']'); end != -1 {
		return scan + end + 1
	}
	return 1
}

// globMatch runs a case insensitive fnmatch style comparison. '[!...]'
// complements a set, as fnmatch has it.
func globMatch(pattern, name string) bool {
	pattern = strings.ReplaceAll(strings.ToLower(pattern), "[!", "[^")
	ok, err := path.Match(pattern, strings.ToLower(name))
	return err == nil && ok
}

/*
Match tests the entry against a single pattern. defaultHead restricts
matching to one side for patterns without a drive prefix; pass -1 for
no restriction.
*/
func (e *Entry) Match(p *Pattern, defaultHead int) bool {

	if p.Head >= 0 {
		if p.Head != e.side.head {
			return false
		}
	} else if defaultHead >= 0 && defaultHead != e.side.head {
		return false
	}

	if p.Dir != "" {
		if !globMatch(p.Dir, string(e.Dir())) {
			return false
		}
	} else if e.Dir() != e.side.image.currentDir {
		return false
	}

	if !globMatch(p.Name, e.Name()) {
		return false
	}

	p.matchCount++
	return true
}

// MatchList tests the entry against a pattern list. A nil list matches
// everything on the default side.
func (e *Entry) MatchList(list *PatternList, defaultHead int) bool {
	if list == nil {
		return defaultHead < 0 || defaultHead == e.side.head
	}
	for _, p := range list.patterns {
		if e.Match(p, defaultHead) {
			return true
		}
	}
	return false
}
