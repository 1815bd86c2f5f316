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

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/beebdfs/pkg/dfs"
)

/*
APIServer serves a read only HTTP view over a directory of disk
images: catalog listings, file metadata and file downloads. One
request handles one image; images are opened per request and closed
once the reply is written, so the server never holds an image across
requests.
*/
type APIServer interface {
	Serve() error
	Stop() error
}

func NewAPIServer(addr, root string) APIServer {
	return &api{address: addr, root: root}
}

type api struct {
	address string
	root    string
	server  *http.Server
}

func (a *api) Serve() error {

	router := mux.NewRouter().StrictSlash(true)

	addRoute(router, "status", "GET", "/status", a.status)
	addRoute(router, "images", "GET", "/images", a.images)
	addRoute(router, "catalog", "GET", "/image/{image}/catalog", a.catalog)
	addRoute(router, "files", "GET", "/image/{image}/files", a.files)
	addRoute(router, "file", "GET", "/image/{image}/file/{file}", a.file)

	addr := a.address
	if len(strings.Split(addr, ":")) < 2 {
		addr = fmt.Sprintf("%s:8190", a.address)
	}

	log.Infof("BeebDFS API starts listening on %s", addr)
	a.server = &http.Server{Addr: addr, Handler: router}

	err := a.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *api) Stop() error {
	if a.server != nil {
		log.Info("API server stopping...")
		err := a.server.Shutdown(context.Background())
		a.server = nil
		return err
	}
	return nil
}

func addRoute(r *mux.Router, name, method, pattern string,
	handler http.HandlerFunc) {
	r.Methods(method).
		Path(pattern).
		Name(name).
		Handler(requestLogger(handler, name))
}

func requestLogger(inner http.Handler, name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		log.WithFields(log.Fields{
			"remote": r.RemoteAddr,
			"method": r.Method,
			"path":   r.RequestURI,
		}).Debugf("API BEGIN | %s", name)

		start := time.Now()
		inner.ServeHTTP(w, r)

		log.WithFields(log.Fields{
			"remote":   r.RemoteAddr,
			"method":   r.Method,
			"path":     r.RequestURI,
			"duration": time.Since(start),
		}).Debugf("API END   | %s", name)
	})
}

func (a *api) status(w http.ResponseWriter, req *http.Request) {
	sendJSONReply(map[string]interface{}{
		"root":   a.root,
		"images": len(a.imageList()),
	}, http.StatusOK, w)
}

func (a *api) imageList() []string {
	var images []string
	entries, err := os.ReadDir(a.root)
	if err != nil {
		log.Errorf("cannot read image directory: %v", err)
		return images
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".ssd", ".dsd":
			images = append(images, e.Name())
		}
	}
	sort.Strings(images)
	return images
}

func (a *api) images(w http.ResponseWriter, req *http.Request) {
	sendJSONReply(a.imageList(), http.StatusOK, w)
}

// openImage resolves and opens the image named in the request, read only.
func (a *api) openImage(w http.ResponseWriter,
	req *http.Request) *dfs.Image {

	name := mux.Vars(req)["image"]
	if strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		sendReply([]byte("invalid image name"), http.StatusBadRequest, w)
		return nil
	}

	img, err := dfs.Open(filepath.Join(a.root, name), dfs.OpenOptions{
		Mode:     dfs.OpenExisting,
		WarnMode: dfs.WarnNone,
	})
	if err != nil {
		if os.IsNotExist(err) {
			sendReply([]byte("no such image"), http.StatusNotFound, w)
		} else {
			sendReply([]byte(err.Error()), http.StatusInternalServerError, w)
		}
		return nil
	}
	return img
}

func (a *api) catalog(w http.ResponseWriter, req *http.Request) {

	img := a.openImage(w, req)
	if img == nil {
		return
	}
	defer img.Close(false)

	sendJSONReply(img.Record(false, true), http.StatusOK, w)
}

func (a *api) files(w http.ResponseWriter, req *http.Request) {

	img := a.openImage(w, req)
	if img == nil {
		return
	}
	defer img.Close(false)

	files, _, err := img.GetFiles(nil)
	if err != nil {
		sendReply([]byte(err.Error()), http.StatusInternalServerError, w)
		return
	}

	records := make([]dfs.FileRecord, 0, len(files))
	for _, f := range files {
		records = append(records, f.Record(false))
	}
	sendJSONReply(records, http.StatusOK, w)
}

func (a *api) file(w http.ResponseWriter, req *http.Request) {

	img := a.openImage(w, req)
	if img == nil {
		return
	}
	defer img.Close(false)

	entry, err := img.FindFile(mux.Vars(req)["file"])
	if err != nil {
		sendReply([]byte(err.Error()), http.StatusBadRequest, w)
		return
	}
	if entry == nil {
		sendReply([]byte("no such file"), http.StatusNotFound, w)
		return
	}

	data, err := entry.ReadAll()
	if err != nil {
		sendReply([]byte(err.Error()), http.StatusInternalServerError, w)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func sendReply(body []byte, status int, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Errorf("problem sending reply: %v", err)
	}
}

func sendJSONReply(data interface{}, status int, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		log.Errorf("problem sending JSON reply: %v", err)
	}
}
