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
	"strings"

	"github.com/xelalexv/beebdfs/pkg/dfs"
	"github.com/xelalexv/beebdfs/pkg/mmb"
)

const runnerHelpEpilogue = `- Image references may carry an MMB slot index, as in 'disks.mmb:12'.
- When a flag can be set via environment variable, the variable name is given
  in parenthesis at the end of the flag explanation. Note however that a flag,
  when specified, overrides an environment variable.
`

/*
NewRunner creates a base runner for commands to use. The parameters are
passed to the base command wrapped by this runner.
*/
func NewRunner(use, short, long, helpEpilogue string,
	exec func() error) *Runner {
	return &Runner{
		Command: *NewCommand(use, short, long, helpEpilogue, exec),
	}
}

/*
Runner carries the settings shared by all image commands: geometry
overrides, open mode, side selection, and validation warning mode.
*/
type Runner struct {
	//
	Command
	//
	Side       int
	Tracks     int
	Layout     string
	Mode       string
	Warn       string
	SaveOption string
}

func (r *Runner) AddImageSettings() {
	// Implementation Note: This cannot be included in NewRunner, but rather
	// has to be called from the top level command type. Otherwise, we will
	// confuse Cobra/Viper and the settings will not be filled with their
	// values.
	r.AddSetting(&r.Side, "side", "s", "", 0,
		"disk side to operate on (1 or 2)", false)
	r.AddSetting(&r.Tracks, "tracks", "t", "", 0,
		"tracks per side (40 or 80)", false)
	r.AddSetting(&r.Layout, "layout", "l", "", "",
		"double sided layout, 'interleaved' or 'linear'", false)
	r.AddSetting(&r.Mode, "mode", "m", "", "always",
		"file open mode, 'new', 'existing', or 'always'", false)
	r.AddSetting(&r.Warn, "warn", "w", "", "first",
		"validation warning mode, 'none', 'first', or 'all'", false)
}

func (r *Runner) AddSaveSetting() {
	r.AddSetting(&r.SaveOption, "resize", "r", "", "keep",
		"image file size on save, 'keep', 'expand', or 'shrink'", false)
}

func (r *Runner) openMode() (dfs.OpenMode, error) {
	switch strings.ToLower(r.Mode) {
	case "", "always":
		return dfs.OpenAlways, nil
	case "new":
		return dfs.OpenNew, nil
	case "existing":
		return dfs.OpenExisting, nil
	}
	return 0, fmt.Errorf("invalid open mode: %s", r.Mode)
}

func (r *Runner) warnMode() (dfs.WarnMode, error) {
	switch strings.ToLower(r.Warn) {
	case "", "first":
		return dfs.WarnFirst, nil
	case "none":
		return dfs.WarnNone, nil
	case "all":
		return dfs.WarnAll, nil
	}
	return 0, fmt.Errorf("invalid warning mode: %s", r.Warn)
}

func (r *Runner) sizeOption() (dfs.SizeOption, error) {
	switch strings.ToLower(r.SaveOption) {
	case "", "keep":
		return dfs.SizeKeep, nil
	case "expand":
		return dfs.SizeExpand, nil
	case "shrink":
		return dfs.SizeShrink, nil
	}
	return 0, fmt.Errorf("invalid size option: %s", r.SaveOption)
}

func (r *Runner) imageOptions(forWrite bool) (dfs.OpenOptions, error) {

	opts := dfs.OpenOptions{ForWrite: forWrite, Side: r.Side}

	mode, err := r.openMode()
	if err != nil {
		return opts, err
	}
	opts.Mode = mode

	warn, err := r.warnMode()
	if err != nil {
		return opts, err
	}
	opts.WarnMode = warn

	if r.Tracks != 0 {
		if r.Tracks != dfs.SingleTracks && r.Tracks != dfs.DoubleTracks {
			return opts, fmt.Errorf("invalid track count: %d", r.Tracks)
		}
		opts.Tracks = r.Tracks
	}

	switch strings.ToLower(r.Layout) {
	case "":
	case "interleaved":
		linear := false
		opts.Linear = &linear
	case "linear":
		linear := true
		opts.Linear = &linear
	default:
		return opts, fmt.Errorf("invalid layout: %s", r.Layout)
	}

	return opts, nil
}

/*
splitImageRef splits an image reference of the form 'file.mmb:12' into
file name and slot index. A reference without a slot index returns
slot 0.
*/
func splitImageRef(ref string) (string, int, error) {
	colon := strings.LastIndex(ref, ":")
	if colon <= 0 {
		return ref, 0, nil
	}
	slot, err := strconv.Atoi(ref[colon+1:])
	if err != nil {
		// not a slot suffix, e.g. a Windows drive letter
		return ref, 0, nil
	}
	if !strings.HasSuffix(strings.ToLower(ref[:colon]), ".mmb") {
		return "", 0, fmt.Errorf("slot index on non-MMB file: %s", ref)
	}
	return ref[:colon], slot, nil
}

/*
openImage resolves an image reference and opens it. For MMB references
the container is opened alongside and returned, so the caller can
close it after the image view; it is nil for plain image files.
*/
func (r *Runner) openImage(ref string,
	forWrite bool) (*dfs.Image, *mmb.File, error) {

	opts, err := r.imageOptions(forWrite)
	if err != nil {
		return nil, nil, err
	}

	path, slot, err := splitImageRef(ref)
	if err != nil {
		return nil, nil, err
	}

	if slot > 0 || strings.HasSuffix(strings.ToLower(path), ".mmb") {
		if slot == 0 {
			return nil, nil, fmt.Errorf(
				"MMB reference needs a slot index: %s", ref)
		}
		container, err := mmb.Open(path, forWrite)
		if err != nil {
			return nil, nil, err
		}
		img, err := container.OpenImage(slot, opts.WarnMode)
		if err != nil {
			container.Close(false)
			return nil, nil, err
		}
		return img, container, nil
	}

	img, err := dfs.Open(path, opts)
	if err != nil {
		return nil, nil, err
	}
	return img, nil, nil
}

// closeImage closes an image view and, when present, its MMB container.
// The first error wins, but both always get closed.
func closeImage(img *dfs.Image, container *mmb.File, save bool) error {
	err := img.Close(save)
	if container != nil {
		if cerr := container.Close(save); err == nil {
			err = cerr
		}
	}
	return err
}
