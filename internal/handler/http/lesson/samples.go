package lesson

import (
	"io/fs"
	"mime"
	"net/http"
	"slices"

	"charcounter/internal/handler/http/respond"
	"charcounter/public"
)

var sampleNames = []string{"wap.txt", "hello.txt"}

// SampleNames lists the downloadable sample files.
func SampleNames() []string {
	return slices.Clone(sampleNames)
}

// SampleHandler offers the fixed sample files as attachments.
type SampleHandler struct{}

func (SampleHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if !slices.Contains(sampleNames, name) {
		respond.SafeError(w, http.StatusNotFound, respond.NewAppError(http.StatusNotFound, "sample not found", nil))
		return
	}
	data, err := fs.ReadFile(public.Samples, name)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
