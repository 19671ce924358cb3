package preview

import (
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// encodings lists precompressed siblings in preference order.
var encodings = []struct {
	name   string
	suffix string
}{
	{"br", ".br"},
	{"gzip", ".gz"},
}

// staticHandler serves files under root, preferring a precompressed sibling when the
// client accepts its encoding.
type staticHandler struct {
	fs   afero.Fs
	root string
}

func (h *staticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := path.Clean("/" + r.URL.Path)
	if strings.HasSuffix(r.URL.Path, "/") {
		name = path.Join(name, "index.html")
	}
	full := filepath.Join(h.root, filepath.FromSlash(name))

	info, err := h.fs.Stat(full)
	if err == nil && info.IsDir() {
		name = path.Join(name, "index.html")
		full = filepath.Join(full, "index.html")
		info, err = h.fs.Stat(full)
	}
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	w.Header().Add("Vary", "Accept-Encoding")
	accepted := acceptedEncodings(r.Header.Get("Accept-Encoding"))
	for _, enc := range encodings {
		if !accepted[enc.name] {
			continue
		}
		sibling := full + enc.suffix
		if si, err := h.fs.Stat(sibling); err == nil && !si.IsDir() {
			if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
				w.Header().Set("Content-Type", ct)
			}
			w.Header().Set("Content-Encoding", enc.name)
			h.serve(w, r, name, sibling)
			return
		}
	}
	h.serve(w, r, name, full)
}

func (h *staticHandler) serve(w http.ResponseWriter, r *http.Request, name, full string) {
	f, err := h.fs.Open(full)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer func() { _ = f.Close() }()
	info, err := f.Stat()
	if err != nil {
		http.Error(w, "stat failed", http.StatusInternalServerError)
		return
	}
	http.ServeContent(w, r, name, info.ModTime(), f)
}

// acceptedEncodings parses an Accept-Encoding header into the set of codings with a
// non-zero quality.
func acceptedEncodings(header string) map[string]bool {
	out := map[string]bool{}
	for _, part := range strings.Split(header, ",") {
		coding, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		coding = strings.ToLower(strings.TrimSpace(coding))
		if coding == "" {
			continue
		}
		q := 1.0
		for _, p := range strings.Split(params, ";") {
			k, v, ok := strings.Cut(strings.TrimSpace(p), "=")
			if ok && strings.EqualFold(k, "q") {
				if f, err := strconv.ParseFloat(v, 64); err == nil {
					q = f
				}
			}
		}
		if q > 0 {
			out[coding] = true
		}
	}
	return out
}
