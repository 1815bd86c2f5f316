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

package main

import (
	"fmt"
	"os"

	"github.com/xelalexv/beebdfs/pkg/run"
)

var BeebDFSVersion string

func synopsis() {
	fmt.Print(`
synopsis: dfsctl {create|ls|cat|info|import|export|cp|mv|rm|destroy|lock|
                  unlock|attrib|compact|format|validate|digest|dump|convert|
                  copyover|backup|dcat|dkill|drestore|drecat|donboot|shell|
                  serve|send|version} ...

run 'dfsctl {action} -h|--help' to see detailed info

`)
}

func version() {
	fmt.Printf("\nBeebDFS %s\n\n", BeebDFSVersion)
}

func main() {

	var action string
	var args []string

	if len(os.Args) > 1 {
		action = os.Args[1]
	}

	if len(os.Args) > 2 {
		args = os.Args[2:]
	}

	switch action {

	case "create":
		run.DieOnError(run.NewCreate().Execute(args))

	case "ls":
		run.DieOnError(run.NewList().Execute(args))

	case "cat":
		run.DieOnError(run.NewCat().Execute(args))

	case "info":
		run.DieOnError(run.NewInfo().Execute(args))

	case "import":
		run.DieOnError(run.NewImport().Execute(args))

	case "export":
		run.DieOnError(run.NewExport().Execute(args))

	case "cp":
		run.DieOnError(run.NewCopy().Execute(args))

	case "mv":
		run.DieOnError(run.NewRename().Execute(args))

	case "rm":
		run.DieOnError(run.NewDelete().Execute(args))

	case "destroy":
		run.DieOnError(run.NewDestroy().Execute(args))

	case "lock":
		run.DieOnError(run.NewLock().Execute(args))

	case "unlock":
		run.DieOnError(run.NewUnlock().Execute(args))

	case "attrib":
		run.DieOnError(run.NewAttrib().Execute(args))

	case "compact":
		run.DieOnError(run.NewCompact().Execute(args))

	case "format":
		run.DieOnError(run.NewFormat().Execute(args))

	case "validate":
		run.DieOnError(run.NewValidate().Execute(args))

	case "digest":
		run.DieOnError(run.NewDigest().Execute(args))

	case "dump":
		run.DieOnError(run.NewDump().Execute(args))

	case "convert":
		run.DieOnError(run.NewConvert().Execute(args))

	case "copyover":
		run.DieOnError(run.NewCopyOver().Execute(args))

	case "backup":
		run.DieOnError(run.NewBackup().Execute(args))

	case "dcat":
		run.DieOnError(run.NewDCat().Execute(args))

	case "dkill":
		run.DieOnError(run.NewDKill().Execute(args))

	case "drestore":
		run.DieOnError(run.NewDRestore().Execute(args))

	case "drecat":
		run.DieOnError(run.NewDRecat().Execute(args))

	case "donboot":
		run.DieOnError(run.NewDOnBoot().Execute(args))

	case "shell":
		run.DieOnError(run.NewShell().Execute(args))

	case "serve":
		version()
		run.DieOnError(run.NewServe().Execute(args))

	case "send":
		run.DieOnError(run.NewSend().Execute(args))

	case "version":
		version()

	case "":
		fallthrough
	case "-h":
		fallthrough
	case "--help":
		synopsis()

	default:
		run.Die("unknown action: %s\n", action)
	}
}
