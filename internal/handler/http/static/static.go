// Package static serves plain files from one directory for the companion
// file server. Directory listings are never produced.
package static

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"

	httph "charcounter/internal/handler/http"
	"charcounter/internal/handler/http/respond"
)

var errFileNotFound = errors.New("file not found")

// Handler serves regular files from Dir by name, read through an os.Root so
// that no request can escape the directory.
type Handler struct {
	root        *os.Root
	dir         string
	defaultFile string
	logger      *slog.Logger
}

// New opens dir. defaultFile is the sample the server exists to offer; it is
// reported by Check but any regular file in dir can be requested.
func New(dir, defaultFile string, logger *slog.Logger) (*Handler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("open static dir %q: %w", dir, err)
	}
	return &Handler{root: root, dir: dir, defaultFile: defaultFile, logger: logger}, nil
}

// Close releases the directory handle.
func (h *Handler) Close() error {
	return h.root.Close()
}

// Register mounts the handler under prefix, e.g. "/api/FileProcessing".
// GET patterns also match HEAD.
func (h *Handler) Register(mux *http.ServeMux, prefix string) {
	mux.Handle("GET "+strings.TrimSuffix(prefix, "/")+"/{file}", h)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("file")
	if !validName(name) {
		respond.SafeError(w, http.StatusNotFound, errFileNotFound)
		return
	}

	f, err := h.root.Open(name)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			h.logger.Warn("static file open failed", slog.String("file", name), slog.Any("error", err))
		}
		respond.SafeError(w, http.StatusNotFound, errFileNotFound)
		return
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		respond.SafeError(w, http.StatusNotFound, errFileNotFound)
		return
	}

	if strings.HasSuffix(name, ".txt") {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	http.ServeContent(w, r, name, info.ModTime(), f)
}

// Check reports whether the default file is present and readable.
func (h *Handler) Check(context.Context) httph.CheckStatus {
	info, err := h.root.Stat(h.defaultFile)
	switch {
	case err != nil:
		return httph.CheckStatus{
			Status:  httph.StatusUnhealthy,
			Message: "sample file unavailable",
			Details: map[string]any{"file": h.defaultFile, "dir": h.dir},
		}
	case !info.Mode().IsRegular():
		return httph.CheckStatus{
			Status:  httph.StatusUnhealthy,
			Message: "sample file is not a regular file",
			Details: map[string]any{"file": h.defaultFile},
		}
	default:
		return httph.CheckStatus{
			Status:  httph.StatusHealthy,
			Details: map[string]any{"file": h.defaultFile, "bytes": info.Size()},
		}
	}
}

// validName accepts a single visible path element.
func validName(name string) bool {
	return name != "" &&
		!strings.HasPrefix(name, ".") &&
		!strings.ContainsAny(name, `/\`) &&
		fs.ValidPath(name)
}
