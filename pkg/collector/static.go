package collector

import (
	"errors"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

var mimeTypes = map[string]string{
	".html": "text/html; charset=utf-8",
	".js":   "application/javascript; charset=utf-8",
	".css":  "text/css; charset=utf-8",
	".json": "application/json; charset=utf-8",
	".txt":  "text/plain; charset=utf-8",
}

var errForbidden = errors.New("collector: path escapes static root")

// safeJoin maps a URL path onto a path inside the static root.
func safeJoin(urlPath string) (string, error) {
	if urlPath == "" || urlPath == "/" {
		urlPath = "/index.html"
	}
	cleaned := path.Clean(strings.TrimPrefix(urlPath, "/"))
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") || !fs.ValidPath(cleaned) {
		return "", errForbidden
	}
	return cleaned, nil
}

func contentType(name string) string {
	if t, ok := mimeTypes[strings.ToLower(path.Ext(name))]; ok {
		return t
	}
	return "application/octet-stream"
}

// serveStatic serves a file from the static root. Missing files fall back to
// index.html so client-side routes resolve.
func (s *Server) serveStatic(w http.ResponseWriter, r *http.Request) {
	name, err := safeJoin(r.URL.Path)
	if err != nil {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	data, err := readRegular(s.static, name)
	if err != nil {
		data, err = readRegular(s.static, "index.html")
		if err != nil {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		name = "index.html"
	}

	w.Header().Set("Content-Type", contentType(name))
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(data)
	}
}

func readRegular(files fs.FS, name string) ([]byte, error) {
	info, err := fs.Stat(files, name)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fs.ErrNotExist
	}
	return fs.ReadFile(files, name)
}
