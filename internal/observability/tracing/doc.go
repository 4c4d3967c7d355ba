// Package tracing provides OpenTelemetry tracing integration.
//
// Init installs an SDK tracer provider and the W3C trace-context propagator.
// Middleware opens a server span per HTTP request, and GetTracer is used by
// the sample fetcher and the computation host for their own spans.
//
//	shutdown, err := tracing.Init(tracing.Config{ServiceName: "charcounter-lesson", SampleRatio: 1})
//	if err != nil {
//	    return err
//	}
//	defer shutdown(context.Background())
package tracing
