package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// useRecorder installs an in-memory exporter for the duration of the test.
func useRecorder(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	prevTracer := tracer
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	tracer = tp.Tracer(instrumentationName)

	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		tracer = prevTracer
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator())
	})
	return exporter
}

func attrMap(attrs []attribute.KeyValue) map[attribute.Key]attribute.Value {
	m := make(map[attribute.Key]attribute.Value, len(attrs))
	for _, a := range attrs {
		m[a.Key] = a.Value
	}
	return m
}

func TestMiddleware_CreatesSpan(t *testing.T) {
	exporter := useRecorder(t)

	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/frequencies", nil))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /api/frequencies", spans[0].Name)

	attrs := attrMap(spans[0].Attributes)
	assert.Equal(t, "GET", attrs["http.method"].AsString())
	assert.Equal(t, "/api/frequencies", attrs["http.path"].AsString())
	assert.Equal(t, int64(200), attrs["http.status_code"].AsInt64())
	assert.NotContains(t, attrs, attribute.Key("error"))
}

func TestMiddleware_UsesRoutePatternAsSpanName(t *testing.T) {
	exporter := useRecorder(t)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /samples/{name}", func(w http.ResponseWriter, r *http.Request) {})

	Middleware(mux).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/samples/wap.txt", nil))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /samples/{name}", spans[0].Name)
}

func TestMiddleware_AddsTraceIDToResponse(t *testing.T) {
	useRecorder(t)

	rr := httptest.NewRecorder()
	Middleware(http.NotFoundHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Len(t, rr.Header().Get("X-Trace-Id"), 32)
}

func TestMiddleware_PropagatesTraceContext(t *testing.T) {
	exporter := useRecorder(t)

	var inner string
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner = TraceID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext.TraceID().String())
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", inner)
}

func TestMiddleware_ErrorAttribute(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantError bool
	}{
		{name: "server error", status: http.StatusInternalServerError, wantError: true},
		{name: "not found", status: http.StatusNotFound, wantError: false},
		{name: "too many requests", status: http.StatusTooManyRequests, wantError: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exporter := useRecorder(t)

			handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/upload", nil))

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			_, hasError := attrMap(spans[0].Attributes)["error"]
			assert.Equal(t, tt.wantError, hasError)
		})
	}
}

func TestTraceID_EmptyWithoutSpan(t *testing.T) {
	assert.Empty(t, TraceID(context.Background()))
}

func TestInit(t *testing.T) {
	prevTracer := tracer
	t.Cleanup(func() {
		tracer = prevTracer
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator())
	})

	_, err := Init(Config{SampleRatio: 1.5})
	require.Error(t, err)

	shutdown, err := Init(Config{ServiceName: "charcounter-test", SampleRatio: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = shutdown(context.Background()) })

	ctx, span := GetTracer().Start(context.Background(), "probe")
	defer span.End()
	assert.True(t, span.SpanContext().IsSampled())
	assert.NotEmpty(t, TraceID(ctx))
}
