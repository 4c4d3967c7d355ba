// Package resilience groups the fault-tolerance helpers used around the
// sample fetch: a gobreaker-backed circuit breaker and retry with
// exponential backoff and jitter.
//
//	cb := circuitbreaker.New(circuitbreaker.SampleFetchConfig())
//	body, err := circuitbreaker.Do(cb, func() ([]byte, error) {
//	    return fetch(ctx)
//	})
//
//	err := retry.WithBackoff(ctx, retry.SampleFetchConfig(), func() error {
//	    return fetchOnce(ctx)
//	})
package resilience
