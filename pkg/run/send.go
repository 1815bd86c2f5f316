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

	"github.com/jacobsa/go-serial/serial"
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/beebdfs/pkg/dfs"
)

func NewSend() *Send {

	s := &Send{}
	s.Runner = *NewRunner(
		"send [flags] -p|--port {port} {image}",
		"stream a disk side over a serial link",
		"\nUse the send command to stream the sectors of a disk side over a serial port, for feeding a BBC with a serial disk transfer client listening on the other end.",
		runnerHelpEpilogue, s.Run)

	s.AddImageSettings()
	s.AddSetting(&s.Port, "port", "p", "BEEBDFS_PORT", nil,
		"serial port for the transfer", true)
	s.AddSetting(&s.Baud, "baud", "b", "BEEBDFS_BAUD", 115200,
		"baud rate", false)

	return s
}

type Send struct {
	//
	Runner
	//
	Port string
	Baud int
}

func (s *Send) Run() error {

	s.ParseSettings()
	if len(s.Args) != 1 {
		return fmt.Errorf("send takes exactly one image file argument")
	}

	img, container, err := s.openImage(s.Args[0], false)
	if err != nil {
		return err
	}
	defer closeImage(img, container, false)

	port, err := openPort(s.Port, s.Baud)
	if err != nil {
		return err
	}
	defer port.Close()

	for _, side := range img.DefaultSides() {
		if err := sendSide(port, side); err != nil {
			return err
		}
	}
	return nil
}

func openPort(p string, baud int) (io.ReadWriteCloser, error) {
	return serial.Open(serial.OpenOptions{
		PortName:        p,
		BaudRate:        uint(baud),
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
	})
}

/*
sendSide streams a side sector by sector: for each sector a 2 byte
little-endian logical sector number, then the 256 data bytes. The
receiver acknowledges each sector with a single byte; anything but
0x06 aborts the transfer.
*/
func sendSide(port io.ReadWriteCloser, side *dfs.Side) error {

	total := side.PhysicalSectors()
	log.WithFields(log.Fields{
		"side":    side.Head(),
		"sectors": total,
	}).Info("sending side")

	ack := make([]byte, 1)

	for sec := 0; sec < total; sec++ {

		sectors, err := side.Sectors(sec, sec+1, -1)
		if err != nil {
			return err
		}

		header := []byte{byte(sec), byte(sec >> 8)}
		if _, err := port.Write(header); err != nil {
			return err
		}
		if _, err := port.Write(sectors.ReadAll()); err != nil {
			return err
		}

		if _, err := io.ReadFull(port, ack); err != nil {
			return err
		}
		if ack[0] != 0x06 {
			return fmt.Errorf("transfer aborted at sector %d (0x%02x)",
				sec, ack[0])
		}

		if sec%100 == 0 {
			log.Debugf("%d/%d sectors sent", sec, total)
		}
	}

	log.Infof("side %d sent", side.Head())
	return nil
}
