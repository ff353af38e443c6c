// Package staticfs serves files out of a configured directory under a
// registered URL prefix: default-file resolution, a fixed MIME table,
// a path-traversal block, and a maximum served file size.
package staticfs

import (
	"os"
	"strings"

	"github.com/trivago/netrunner/httpmsg"
)

// MaxFileSize is the largest file this server will read and serve; files
// above this size return 500 without the body being read into memory.
const MaxFileSize = 10 * 1024 * 1024 // 10 MiB

// mimeTypes maps a lower-cased file extension (without the dot) to its
// Content-Type.
var mimeTypes = map[string]string{
	"html": "text/html",
	"htm":  "text/html",
	"css":  "text/css",
	"js":   "application/javascript",
	"json": "application/json",
	"xml":  "application/xml",
	"txt":  "text/plain",

	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"svg":  "image/svg+xml",
	"ico":  "image/x-icon",

	"woff":  "font/woff",
	"woff2": "font/woff2",
	"ttf":   "font/ttf",
}

// mimeType returns the Content-Type for filePath by its extension,
// falling back to application/octet-stream when unrecognised.
func mimeType(filePath string) string {
	dot := strings.LastIndexByte(filePath, '.')
	if dot < 0 || dot == len(filePath)-1 {
		return "application/octet-stream"
	}
	if t, ok := mimeTypes[strings.ToLower(filePath[dot+1:])]; ok {
		return t
	}
	return "application/octet-stream"
}

// Server maps one URL prefix to one filesystem directory.
type Server struct {
	URLPrefix   string
	Directory   string
	DefaultFile string
}

// New creates a static file server. defaultFile falls back to
// "index.html" when empty.
func New(urlPrefix, directory, defaultFile string) *Server {
	if defaultFile == "" {
		defaultFile = "index.html"
	}
	return &Server{URLPrefix: urlPrefix, Directory: directory, DefaultFile: defaultFile}
}

// Serve attempts to resolve path under s and write the result into resp.
// ok is false when path does not fall under the registered URL prefix at
// all, signalling the caller should try other resolution (e.g. a final
// 404); any other outcome (success, 403, 404, 500) is reported through
// resp with ok true.
func (s *Server) Serve(path string, resp *httpmsg.Response) (ok bool) {
	if !strings.HasPrefix(path, s.URLPrefix) {
		return false
	}

	relative := strings.TrimPrefix(path, s.URLPrefix)
	relative = strings.TrimPrefix(relative, "/")

	var filePath string
	if relative == "" || strings.HasSuffix(relative, "/") {
		filePath = s.Directory + "/" + relative + s.DefaultFile
	} else {
		filePath = s.Directory + "/" + relative
	}

	if strings.Contains(filePath, "..") {
		resp.Status = 403
		resp.Body = []byte("403 Forbidden")
		return true
	}

	info, err := os.Stat(filePath)
	if err != nil || info.IsDir() {
		resp.Status = 404
		resp.Body = []byte("404 Not Found")
		return true
	}

	if info.Size() > MaxFileSize {
		resp.Status = 500
		resp.Body = []byte("File too large")
		return true
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		resp.Status = 500
		resp.Body = []byte("500 Internal Server Error")
		return true
	}

	resp.Status = 200
	resp.SetHeader("Content-Type", mimeType(filePath))
	resp.Body = content
	return true
}
