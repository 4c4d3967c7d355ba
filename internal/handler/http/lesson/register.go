// Package lesson serves the lesson page and its endpoints.
package lesson

import (
	"context"
	"net/http"

	"charcounter/internal/handler/http/middleware"
	"charcounter/internal/usecase/compute"
	lessonUC "charcounter/internal/usecase/lesson"
)

// Service is the part of the lesson use case the handlers need.
type Service interface {
	Upload(ctx context.Context, name, content string) (compute.Ticket, error)
	Snapshot() lessonUC.Snapshot
}

// Register mounts the lesson routes on mux.
// Uploads are limited to maxUploadBytes and, when uploadLimiter is set,
// rate limited per client.
func Register(mux *http.ServeMux, svc Service, uploadLimiter *middleware.ClientRateLimiter, maxUploadBytes int64) {
	mux.Handle("GET /{$}", PageHandler{Svc: svc})
	mux.Handle("GET /api/frequencies", FrequenciesHandler{Svc: svc})
	mux.Handle("GET /samples/{name}", SampleHandler{})

	var upload http.Handler = UploadHandler{Svc: svc, MaxBytes: maxUploadBytes}
	if uploadLimiter != nil {
		upload = uploadLimiter.Middleware(upload)
	}
	mux.Handle("POST /upload", upload)
}
