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

// FromBCD converts a binary coded decimal byte to its decimal value.
func FromBCD(val byte) int {
	return int(val%16) + int(val>>4)*10
}

// ToBCD converts a decimal value to a binary coded decimal byte. The value
// wraps at 100, so a sequence of 0x99 increments to 0x00.
func ToBCD(val int) byte {
	val %= 100
	return byte(val%10) + byte(val/10)<<4
}

// IsNameChar reports whether c is acceptable in a DFS file or directory
// name. Codes 32 through 126 are accepted; characters such as ':' and '.'
// may still confuse a real DFS, but are not rejected here.
func IsNameChar(c byte) bool {
	return 32 <= c && c < 127
}

func validateName(name string) error {
	if len(name) == 0 {
		return fmt.Errorf("%w: empty name", ErrNameInvalid)
	}
	if len(name) > 7 {
		return fmt.Errorf("%w: '%s'", ErrNameTooLong, name)
	}
	for i := 0; i < len(name); i++ {
		if !IsNameChar(name[i]) {
			return fmt.Errorf("%w: '%s'", ErrNameInvalid, name)
		}
	}
	return nil
}

func validateDir(dir byte) error {
	if !IsNameChar(dir) {
		return fmt.Errorf("%w: %#02x", ErrDirInvalid, dir)
	}
	return nil
}

// ParseBootOption converts a boot option string, either one of the DFS
// names or a plain number, to its flag value.
func ParseBootOption(s string) (BootOption, error) {
	switch strings.ToLower(s) {
	case "off":
		return BootOff, nil
	case "load":
		return BootLoad, nil
	case "run":
		return BootRun, nil
	case "exec":
		return BootExec, nil
	}
	if v, err := strconv.Atoi(s); err == nil && 0 <= v && v <= 3 {
		return BootOption(v), nil
	}
	return 0, fmt.Errorf("invalid boot option: %s", s)
}

// trimTitle strips the NUL padding from a raw title.
func trimTitle(raw []byte) string {
	end := len(raw)
	for end > 0 && (raw[end-1] == 0 || raw[end-1] == ' ') {
		end--
	}
	return string(raw[:end])
}
