package metrics

import "time"

// Fetch triggers.
const (
	TriggerStartup  = "startup"
	TriggerSchedule = "schedule"
)

// Upload outcomes.
const (
	UploadAccepted    = "accepted"
	UploadMissingFile = "missing_file"
	UploadReadError   = "read_error"
	UploadRateLimited = "rate_limited"
)

// RecordSampleFetchSuccess records a fetch that produced a body of size bytes.
func RecordSampleFetchSuccess(trigger string, duration time.Duration, size int) {
	SampleFetchesTotal.WithLabelValues(trigger, "success").Inc()
	SampleFetchDuration.Observe(duration.Seconds())
	SampleFetchBytes.Observe(float64(size))
}

// RecordSampleFetchFailed records a failed fetch.
// Reason is a short classification such as "circuit_open", "cancelled" or "failure".
func RecordSampleFetchFailed(trigger, reason string, duration time.Duration) {
	SampleFetchesTotal.WithLabelValues(trigger, reason).Inc()
	SampleFetchDuration.Observe(duration.Seconds())
}

// RecordUpload records an upload attempt. size is only observed for accepted uploads.
func RecordUpload(outcome string, size int64) {
	UploadsTotal.WithLabelValues(outcome).Inc()
	if outcome == UploadAccepted {
		UploadBytes.Observe(float64(size))
	}
}

// RecordStateUpdate records a page state replacement.
func RecordStateUpdate(generation uint64, rows, textLength int) {
	StateUpdatesTotal.Inc()
	StateGeneration.Set(float64(generation))
	StateRows.Set(float64(rows))
	StateTextLength.Set(float64(textLength))
}
