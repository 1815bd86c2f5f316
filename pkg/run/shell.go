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
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/xelalexv/beebdfs/pkg/dfs"
	"github.com/xelalexv/beebdfs/pkg/mmb"
)

func NewShell() *Shell {

	s := &Shell{}
	s.Runner = *NewRunner(
		"shell [flags] {image}",
		"browse a disk image interactively",
		"\nUse the shell command to browse a disk image with an interactive prompt. Type 'help' at the prompt for the available commands.",
		runnerHelpEpilogue, s.Run)

	s.AddImageSettings()

	return s
}

type Shell struct {
	//
	Runner
	//
	img       *dfs.Image
	container *mmb.File
}

func (s *Shell) Run() error {

	s.ParseSettings()
	if len(s.Args) != 1 {
		return fmt.Errorf("shell takes exactly one image file argument")
	}

	img, container, err := s.openImage(s.Args[0], false)
	if err != nil {
		return err
	}
	s.img = img
	s.container = container
	defer closeImage(img, container, false)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          fmt.Sprintf("%s> ", img.Filename()),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		if done, err := s.dispatch(strings.Fields(line)); done {
			return nil
		} else if err != nil {
			fmt.Printf("%v\n", err)
		}
	}
}

func (s *Shell) dispatch(words []string) (bool, error) {

	if len(words) == 0 {
		return false, nil
	}

	switch words[0] {

	case "exit", "quit", "q":
		return true, nil

	case "help", "?":
		fmt.Print(`
cat [pattern]...    catalog listing
info [pattern]...   file details
dump {file}         hex dump of a file
title               show the disk title
free                show free space
validate            run catalog checks
exit                leave the shell

`)

	case "cat":
		return false, listing(os.Stdout, s.img, "cat", words[1:], false)

	case "info":
		return false, listing(os.Stdout, s.img, "info", words[1:], false)

	case "dump":
		if len(words) != 2 {
			return false, fmt.Errorf("dump takes one file name")
		}
		entry, err := s.img.FindFile(words[1])
		if err != nil {
			return false, err
		}
		if entry == nil {
			return false, fmt.Errorf("%w: '%s'", dfs.ErrNotFound, words[1])
		}
		data, err := entry.ReadAll()
		if err != nil {
			return false, err
		}
		hexdump(os.Stdout, data, true)

	case "title":
		for _, side := range s.img.DefaultSides() {
			fmt.Printf(":%d %s\n", side.Drive(), side.Title())
		}

	case "free":
		for _, side := range s.img.DefaultSides() {
			fmt.Printf(":%d %d sectors free (%d bytes), largest block %d bytes\n",
				side.Drive(), side.FreeSectors(), side.FreeBytes(),
				side.LargestFreeBlock())
		}

	case "validate":
		_, warnings := s.img.Validate(dfs.WarnAll)
		if len(warnings) == 0 {
			fmt.Println("OK")
		}
		for _, w := range warnings {
			fmt.Println(w.Message)
		}

	default:
		return false, fmt.Errorf("unknown command: %s", words[0])
	}

	return false, nil
}
