package lesson

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"charcounter/internal/handler/http/requestid"
	"charcounter/internal/handler/http/respond"
	"charcounter/internal/observability/metrics"
	lessonUC "charcounter/internal/usecase/lesson"
)

var (
	errUploadTooLarge = errors.New("upload too large")
	errUploadInvalid  = errors.New("invalid upload: multipart form with a file field is required")
)

// UploadHandler accepts a multipart form with a "file" field and dispatches
// its content for counting. Without a file it redirects back to the page
// and does nothing else.
type UploadHandler struct {
	Svc      Service
	MaxBytes int64
}

func (h UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := slog.Default().With(slog.String("request_id", requestid.FromContext(r.Context())))
	if h.MaxBytes > 0 {
		if r.ContentLength > h.MaxBytes {
			metrics.RecordUpload(metrics.UploadReadError, 0)
			respond.SafeError(w, http.StatusRequestEntityTooLarge, errUploadTooLarge)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)
	}

	file, header, err := r.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		metrics.RecordUpload(metrics.UploadMissingFile, 0)
		logger.Debug("upload without file selection")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	case err != nil:
		metrics.RecordUpload(metrics.UploadReadError, 0)
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respond.SafeError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("%w: %w", errUploadTooLarge, err))
			return
		}
		logger.Debug("upload form rejected", slog.Any("error", err))
		respond.SafeError(w, http.StatusBadRequest, errUploadInvalid)
		return
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(file)
	if err != nil {
		metrics.RecordUpload(metrics.UploadReadError, 0)
		respond.SafeError(w, http.StatusInternalServerError, fmt.Errorf("read upload: %w", err))
		return
	}

	name := filepath.Base(header.Filename)
	if !strings.EqualFold(filepath.Ext(name), ".txt") {
		logger.Debug("upload is not a .txt file, counting anyway", slog.String("file", name))
	}

	if _, err := h.Svc.Upload(r.Context(), name, string(content)); err != nil {
		if errors.Is(err, lessonUC.ErrNoContent) {
			metrics.RecordUpload(metrics.UploadMissingFile, 0)
		} else {
			metrics.RecordUpload(metrics.UploadReadError, 0)
			logger.Info("upload not dispatched", slog.Any("error", err))
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	metrics.RecordUpload(metrics.UploadAccepted, int64(len(content)))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
