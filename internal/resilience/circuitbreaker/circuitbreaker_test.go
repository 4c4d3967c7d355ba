package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          50 * time.Millisecond,
		FailureThreshold: 0.5,
		MinRequests:      2,
	}
}

func TestNew(t *testing.T) {
	cb := New(testConfig("new-circuit"))

	assert.Equal(t, "new-circuit", cb.Name())
	assert.Equal(t, gobreaker.StateClosed, cb.State())
	assert.False(t, cb.IsOpen())
	assert.Equal(t, float64(0), testutil.ToFloat64(breakerState.WithLabelValues("new-circuit")))
}

func TestDo_Success(t *testing.T) {
	cb := New(testConfig("do-success"))

	body, err := Do(cb, func() ([]byte, error) { return []byte("Hello."), nil })

	require.NoError(t, err)
	assert.Equal(t, []byte("Hello."), body)
	assert.Equal(t, uint32(1), cb.Counts().TotalSuccesses)
}

func TestDo_TripsAndRecovers(t *testing.T) {
	cb := New(testConfig("do-trip"))
	boom := errors.New("connection refused")

	for i := 0; i < 2; i++ {
		_, err := Do(cb, func() (string, error) { return "", boom })
		assert.ErrorIs(t, err, boom)
	}

	require.True(t, cb.IsOpen())
	assert.Equal(t, float64(gobreaker.StateOpen), testutil.ToFloat64(breakerState.WithLabelValues("do-trip")))

	called := false
	_, err := Do(cb, func() (string, error) { called = true; return "x", nil })
	assert.ErrorIs(t, err, ErrOpenState)
	assert.False(t, called)

	require.Eventually(t, func() bool {
		return cb.State() == gobreaker.StateHalfOpen
	}, time.Second, 5*time.Millisecond)

	got, err := Do(cb, func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestExecute_Untyped(t *testing.T) {
	cb := New(DefaultConfig("execute"))

	res, err := cb.Execute(func() (any, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, res)
}

func TestSampleFetchConfig(t *testing.T) {
	cfg := SampleFetchConfig()
	assert.Equal(t, "sample-fetch", cfg.Name)
	assert.Positive(t, cfg.Timeout)
	assert.Greater(t, cfg.FailureThreshold, 0.0)
	assert.LessOrEqual(t, cfg.FailureThreshold, 1.0)
}
