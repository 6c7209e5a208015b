package metrics

import "time"

// ResultLabel enumerates outcome categories for counters.
type ResultLabel string

const (
	ResultSuccess     ResultLabel = "success"
	ResultClientError ResultLabel = "client_error"
	ResultServerError ResultLabel = "server_error"
	ResultNetwork     ResultLabel = "network_error"
)

// ResultForStatus buckets an HTTP status code. Zero means the request never
// produced a response.
func ResultForStatus(status int) ResultLabel {
	switch {
	case status == 0:
		return ResultNetwork
	case status >= 500:
		return ResultServerError
	case status >= 400:
		return ResultClientError
	default:
		return ResultSuccess
	}
}

// Recorder defines observability hooks for upstream calls and served requests.
type Recorder interface {
	ObserveUpstreamRequest(service, operation string, result ResultLabel, d time.Duration)
	IncUpstreamRetry(service string)
	IncTokenRefresh(service string)
	ObserveHTTPRequest(route string, status int, d time.Duration)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveUpstreamRequest(string, string, ResultLabel, time.Duration) {}
func (NoopRecorder) IncUpstreamRetry(string)                                          {}
func (NoopRecorder) IncTokenRefresh(string)                                           {}
func (NoopRecorder) ObserveHTTPRequest(string, int, time.Duration)                    {}
