// Package responsewriter wraps http.ResponseWriter to record the status code
// and body size for request logs and metrics.
package responsewriter

import "net/http"

// ResponseWriter records what the wrapped handler wrote.
type ResponseWriter struct {
	http.ResponseWriter
	statusCode    int
	bytesWritten  int
	headerWritten bool
}

// Wrap returns w itself if it is already a *ResponseWriter, so stacked
// middleware share one recorder.
func Wrap(w http.ResponseWriter) *ResponseWriter {
	if rw, ok := w.(*ResponseWriter); ok {
		return rw
	}
	return &ResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

// WriteHeader records the first status code written.
func (w *ResponseWriter) WriteHeader(statusCode int) {
	if w.headerWritten {
		return
	}
	w.statusCode = statusCode
	w.headerWritten = true
	w.ResponseWriter.WriteHeader(statusCode)
}

// Write writes b, sending an implicit 200 first if needed.
func (w *ResponseWriter) Write(b []byte) (int, error) {
	if !w.headerWritten {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytesWritten += n
	return n, err
}

// StatusCode returns the recorded status code.
func (w *ResponseWriter) StatusCode() int { return w.statusCode }

// BytesWritten returns the number of body bytes written.
func (w *ResponseWriter) BytesWritten() int { return w.bytesWritten }

// Unwrap supports http.ResponseController.
func (w *ResponseWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
