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
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"sort"
)

// HashFunc is the pluggable digest primitive: bytes in, digest out.
type HashFunc func() hash.Hash

// HashByName resolves a hash algorithm name; sha1 is the DFS tooling
// default.
func HashByName(name string) (HashFunc, error) {
	switch name {
	case "", "sha1":
		return sha1.New, nil
	case "sha256":
		return sha256.New, nil
	case "md5":
		return md5.New, nil
	}
	return nil, fmt.Errorf("unsupported digest algorithm: %s", name)
}

func hexDigest(h HashFunc, parts ...[]byte) string {
	d := h()
	for _, p := range parts {
		d.Write(p)
	}
	return hex.EncodeToString(d.Sum(nil))
}

// le3 encodes an 18 bit value into 3 little-endian bytes for digests.
func le3(v int) []byte {
	v &= 0x3ffff
	return []byte{byte(v), byte(v >> 8), byte(v >> 16)}
}

/*
Digest hashes a file entry. DigestData covers the bytes alone, so it
does not change when addresses or attributes do; DigestFile adds the
load and exec addresses; DigestAll and DigestUsed also mix in the
locked attribute.
*/
func (e *Entry) Digest(mode DigestMode, h HashFunc) (string, error) {

	data, err := e.ReadAll()
	if err != nil {
		return "", err
	}

	switch mode {
	case DigestAll, DigestUsed:
		lockByte := []byte{0}
		if e.Locked() {
			lockByte[0] = 1
		}
		return hexDigest(h, le3(e.LoadAddr()), le3(e.ExecAddr()),
			lockByte, data), nil
	case DigestFile:
		return hexDigest(h, le3(e.LoadAddr()), le3(e.ExecAddr()), data), nil
	default:
		return hexDigest(h, data), nil
	}
}

/*
Digest hashes the side. DigestAll covers the raw surface as stored;
DigestUsed the used catalog bytes plus all file data; DigestFile and
DigestData the files sorted by name with their names, addresses and
lengths, so that two sides holding the same files hash alike no matter
where the files sit.
*/
func (s *Side) Digest(mode DigestMode, h HashFunc) (string, error) {

	switch mode {

	case DigestUsed:
		end := s.EndOffset()
		parts := [][]byte{
			{byte(end)},
			s.cat0[:end+8],
			s.cat1[:end+8],
		}
		for _, f := range s.Files() {
			data, err := f.ReadAll()
			if err != nil {
				return "", err
			}
			parts = append(parts, data)
		}
		return hexDigest(h, parts...), nil

	case DigestFile, DigestData:
		files := s.Files()
		sort.SliceStable(files, func(i, j int) bool {
			return sortKey(files[i]) < sortKey(files[j])
		})
		var parts [][]byte
		for _, f := range files {
			data, err := f.ReadAll()
			if err != nil {
				return "", err
			}
			parts = append(parts, f.RawName(), le3(f.LoadAddr()),
				le3(f.ExecAddr()), le3(f.Size()), data)
		}
		return hexDigest(h, parts...), nil

	default:
		return hexDigest(h, s.ReadAll()), nil
	}
}

// Digest hashes the image file bytes as they would be written by a plain
// save.
func (img *Image) Digest(h HashFunc) string {
	return hexDigest(h, img.data[:img.sizeForSave(SizeKeep)])
}

// Digest hashes the payload of a sector chain.
func (s *Sectors) Digest(h HashFunc) string {
	return hexDigest(h, s.ReadAll())
}

/*
sortingTranslation maps name bytes so that byte-wise comparison groups
capital and small versions of the same letter together, the way the
DFS catalog listing sorts.
*/
var sortingTranslation = func() [256]byte {
	var t [256]byte
	for x := 0; x < 256; x++ {
		switch {
		case x <= 'A' || x > 'z':
			t[x] = byte(x)
		case x <= 'Z':
			t[x] = byte(x*2 - 0x41)
		case x < 'a':
			t[x] = byte(x + 26)
		default:
			t[x] = byte(x*2 - 0x80)
		}
	}
	return t
}()

func sortKey(e *Entry) string {
	raw := make([]byte, 0, 8)
	raw = append(raw, sortingTranslation[e.Dir()])
	for i := 0; i < 7; i++ {
		raw = append(raw, sortingTranslation[e.e1[i]&0x7f])
	}
	return string(raw)
}
