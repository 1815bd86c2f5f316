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

/*
	The listing layer works off three typed property records, one each for
	file, side, and image. Custom listing format strings look property
	names up in static dispatch tables over these records; no reflection
	involved.
*/

// FileRecord carries the properties of one catalog entry.
type FileRecord struct {
	Index       int    `json:"index"`
	FullName    string `json:"fullname"`
	Directory   string `json:"directory"`
	Filename    string `json:"filename"`
	Access      string `json:"access"`
	Locked      bool   `json:"locked"`
	LoadAddr    int    `json:"load_addr"`
	ExecAddr    int    `json:"exec_addr"`
	Size        int    `json:"size"`
	StartSector int    `json:"start_sector"`
	EndSector   int    `json:"end_sector"`
	Sectors     int    `json:"sectors"`
	Side        int    `json:"side"`
	Drive       int    `json:"drive"`
	ImageName   string `json:"image_filename"`
	SHA1        string `json:"sha1"`
	SHA1Data    string `json:"sha1_data"`
	SHA1All     string `json:"sha1_all"`
}

// SideRecord carries the properties of one disk side.
type SideRecord struct {
	Side          int    `json:"side"`
	Title         string `json:"title"`
	Sequence      int    `json:"sequence"`
	BootOpt       int    `json:"opt"`
	BootOptStr    string `json:"opt_str"`
	IsValid       bool   `json:"is_valid"`
	NumberOfFiles int    `json:"number_of_files"`
	Sectors       int    `json:"sectors"`
	FreeSectors   int    `json:"free_sectors"`
	FreeBytes     int    `json:"free_bytes"`
	UsedSectors   int    `json:"used_sectors"`
	MaxFreeBlock  int    `json:"max_free_blk"`
	LastUsed      int    `json:"last_used_sector"`
	Tracks        int    `json:"tracks"`
	Drive         int    `json:"drive"`
	EndOffset     int    `json:"end_offset"`
	Filename      string `json:"filename"`
	SHA1          string `json:"sha1"`

	Files []FileRecord `json:"files,omitempty"`
}

// ImageRecord carries the properties of a whole image file.
type ImageRecord struct {
	Path     string `json:"image_path"`
	Filename string `json:"image_filename"`
	Basename string `json:"image_basename"`
	NumSides int    `json:"number_of_sides"`
	Tracks   int    `json:"tracks"`
	Size     int64  `json:"size"`
	MinSize  int64  `json:"min_size"`
	MaxSize  int64  `json:"max_size"`
	IsValid  bool   `json:"is_valid"`
	IsLinear bool   `json:"is_linear"`
	SHA1     string `json:"sha1"`

	Sides []SideRecord `json:"sides,omitempty"`
}

// Record builds the property record of an entry. Digests are filled only
// when withDigests is set; they cost a full read of the file.
func (e *Entry) Record(withDigests bool) FileRecord {
	r := FileRecord{
		Index:       e.Index() + 1,
		FullName:    e.FullName(),
		Directory:   string(e.Dir()),
		Filename:    e.Name(),
		Access:      e.Access(),
		Locked:      e.Locked(),
		LoadAddr:    e.LoadAddr(),
		ExecAddr:    e.ExecAddr(),
		Size:        e.Size(),
		StartSector: e.StartSector(),
		EndSector:   e.EndSector(),
		Sectors:     e.Sectors(),
		Side:        e.side.head + 1,
		Drive:       e.side.Drive(),
		ImageName:   e.side.image.filename,
	}
	if withDigests {
		r.SHA1, _ = e.Digest(DigestFile, mustHash("sha1"))
		r.SHA1Data, _ = e.Digest(DigestData, mustHash("sha1"))
		r.SHA1All, _ = e.Digest(DigestAll, mustHash("sha1"))
	}
	return r
}

// Record builds the property record of a side.
func (s *Side) Record(withDigests, withFiles bool) SideRecord {
	r := SideRecord{
		Side:          s.head + 1,
		Title:         s.Title(),
		Sequence:      s.SequenceNumber(),
		BootOpt:       int(s.BootOption()),
		BootOptStr:    s.BootOption().String(),
		IsValid:       s.valid,
		NumberOfFiles: s.NumberOfFiles(),
		Sectors:       s.TotalSectors(),
		FreeSectors:   s.FreeSectors(),
		FreeBytes:     s.FreeBytes(),
		UsedSectors:   s.UsedSectors(),
		MaxFreeBlock:  s.LargestFreeBlock(),
		LastUsed:      s.LastUsedSector(),
		Tracks:        s.TotalSectors() / SectorsPerTrack,
		Drive:         s.Drive(),
		EndOffset:     s.EndOffset(),
		Filename:      s.image.filename,
	}
	if withDigests {
		r.SHA1, _ = s.Digest(DigestAll, mustHash("sha1"))
	}
	if withFiles {
		for _, f := range s.Files() {
			r.Files = append(r.Files, f.Record(withDigests))
		}
	}
	return r
}

// Record builds the property record of the image.
func (img *Image) Record(withDigests, withSides bool) ImageRecord {
	r := ImageRecord{
		Path:     img.path,
		Filename: img.filename,
		Basename: img.Basename(),
		NumSides: img.geometry.Heads,
		Tracks:   img.geometry.Tracks,
		Size:     img.Size(),
		MinSize:  img.MinSize(),
		MaxSize:  img.MaxSize(),
		IsValid:  img.valid,
		IsLinear: img.geometry.Linear,
	}
	if withDigests {
		r.SHA1 = img.Digest(mustHash("sha1"))
	}
	if withSides {
		for _, s := range img.DefaultSides() {
			r.Sides = append(r.Sides, s.Record(withDigests, true))
		}
	}
	return r
}

func mustHash(name string) HashFunc {
	h, _ := HashByName(name)
	return h
}

// dispatch tables for custom format strings

var fileProps = map[string]func(*FileRecord) interface{}{
	"index":          func(r *FileRecord) interface{} { return r.Index },
	"fullname":       func(r *FileRecord) interface{} { return r.FullName },
	"directory":      func(r *FileRecord) interface{} { return r.Directory },
	"filename":       func(r *FileRecord) interface{} { return r.Filename },
	"access":         func(r *FileRecord) interface{} { return r.Access },
	"locked":         func(r *FileRecord) interface{} { return r.Locked },
	"load_addr":      func(r *FileRecord) interface{} { return r.LoadAddr },
	"exec_addr":      func(r *FileRecord) interface{} { return r.ExecAddr },
	"size":           func(r *FileRecord) interface{} { return r.Size },
	"start_sector":   func(r *FileRecord) interface{} { return r.StartSector },
	"end_sector":     func(r *FileRecord) interface{} { return r.EndSector },
	"sectors":        func(r *FileRecord) interface{} { return r.Sectors },
	"side":           func(r *FileRecord) interface{} { return r.Side },
	"drive":          func(r *FileRecord) interface{} { return r.Drive },
	"image_filename": func(r *FileRecord) interface{} { return r.ImageName },
	"sha1":           func(r *FileRecord) interface{} { return r.SHA1 },
	"sha1_data":      func(r *FileRecord) interface{} { return r.SHA1Data },
	"sha1_all":       func(r *FileRecord) interface{} { return r.SHA1All },
}

var sideProps = map[string]func(*SideRecord) interface{}{
	"side":             func(r *SideRecord) interface{} { return r.Side },
	"title":            func(r *SideRecord) interface{} { return r.Title },
	"sequence":         func(r *SideRecord) interface{} { return r.Sequence },
	"opt":              func(r *SideRecord) interface{} { return r.BootOpt },
	"opt_str":          func(r *SideRecord) interface{} { return r.BootOptStr },
	"is_valid":         func(r *SideRecord) interface{} { return r.IsValid },
	"number_of_files":  func(r *SideRecord) interface{} { return r.NumberOfFiles },
	"sectors":          func(r *SideRecord) interface{} { return r.Sectors },
	"free_sectors":     func(r *SideRecord) interface{} { return r.FreeSectors },
	"free_bytes":       func(r *SideRecord) interface{} { return r.FreeBytes },
	"used_sectors":     func(r *SideRecord) interface{} { return r.UsedSectors },
	"max_free_blk":     func(r *SideRecord) interface{} { return r.MaxFreeBlock },
	"last_used_sector": func(r *SideRecord) interface{} { return r.LastUsed },
	"tracks":           func(r *SideRecord) interface{} { return r.Tracks },
	"drive":            func(r *SideRecord) interface{} { return r.Drive },
	"end_offset":       func(r *SideRecord) interface{} { return r.EndOffset },
	"filename":         func(r *SideRecord) interface{} { return r.Filename },
	"sha1":             func(r *SideRecord) interface{} { return r.SHA1 },
}

var imageProps = map[string]func(*ImageRecord) interface{}{
	"image_path":      func(r *ImageRecord) interface{} { return r.Path },
	"image_filename":  func(r *ImageRecord) interface{} { return r.Filename },
	"image_basename":  func(r *ImageRecord) interface{} { return r.Basename },
	"number_of_sides": func(r *ImageRecord) interface{} { return r.NumSides },
	"tracks":          func(r *ImageRecord) interface{} { return r.Tracks },
	"size":            func(r *ImageRecord) interface{} { return r.Size },
	"min_size":        func(r *ImageRecord) interface{} { return r.MinSize },
	"max_size":        func(r *ImageRecord) interface{} { return r.MaxSize },
	"is_valid":        func(r *ImageRecord) interface{} { return r.IsValid },
	"is_linear":       func(r *ImageRecord) interface{} { return r.IsLinear },
	"sha1":            func(r *ImageRecord) interface{} { return r.SHA1 },
}

// FormatFile renders a custom format string against a file record.
func (r *FileRecord) Format(format string) (string, error) {
	return renderFormat(format, func(name string) (interface{}, bool) {
		fn, ok := fileProps[name]
		if !ok {
			return nil, false
		}
		return fn(r), true
	})
}

// Format renders a custom format string against a side record.
func (r *SideRecord) Format(format string) (string, error) {
	return renderFormat(format, func(name string) (interface{}, bool) {
		fn, ok := sideProps[name]
		if !ok {
			return nil, false
		}
		return fn(r), true
	})
}

// Format renders a custom format string against an image record.
func (r *ImageRecord) Format(format string) (string, error) {
	return renderFormat(format, func(name string) (interface{}, bool) {
		fn, ok := imageProps[name]
		if !ok {
			return nil, false
		}
		return fn(r), true
	})
}

/*
renderFormat substitutes "{name}" and "{name:spec}" references in a
format string. The spec subset mirrors what the listing formats use: a
plain width pads, "0NX" renders an integer as zero padded uppercase
hex. "{{" and "}}" escape literal braces.
*/
func renderFormat(format string,
	lookup func(string) (interface{}, bool)) (string, error) {

	var out strings.Builder

	for i := 0; i < len(format); {

		c := format[i]

		if c == '{' && i+1 < len(format) && format[i+1] == '{' {
			out.WriteByte('{')
			i += 2
			continue
		}
		if c == '}' && i+1 < len(format) && format[i+1] == '}' {
			out.WriteByte('}')
			i += 2
			continue
		}
		if c != '{' {
			out.WriteByte(c)
			i++
			continue
		}

		end := strings.IndexByte(format[i:], '}')
		if end < 0 {
			return "", fmt.Errorf("unbalanced brace in format string")
		}
		ref := format[i+1 : i+end]
		i += end + 1

		name, spec := ref, ""
		if colon := strings.IndexByte(ref, ':'); colon >= 0 {
			name, spec = ref[:colon], ref[colon+1:]
		}

		value, ok := lookup(name)
		if !ok {
			return "", fmt.Errorf("unknown property: %s", name)
		}
		out.WriteString(renderValue(value, spec))
	}

	return out.String(), nil
}

func renderValue(value interface{}, spec string) string {

	if spec == "" {
		return fmt.Sprintf("%v", value)
	}

	if strings.HasSuffix(spec, "X") {
		width, _ := strconv.Atoi(strings.TrimSuffix(spec, "X"))
		return fmt.Sprintf("%0*X", width, value)
	}

	width, err := strconv.Atoi(spec)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}

	switch value.(type) {
	case int, int64:
		return fmt.Sprintf("%*v", width, value)
	default:
		return fmt.Sprintf("%-*v", width, value)
	}
}
