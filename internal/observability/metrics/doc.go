// Package metrics holds the lesson server's domain metrics: sample fetches,
// uploads and page-state updates. HTTP RED metrics live with the HTTP
// middleware and computation metrics live with the computation host.
//
// All metrics register with the Prometheus default registry and are exposed
// on /metrics.
package metrics
