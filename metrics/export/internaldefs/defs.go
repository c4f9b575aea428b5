package internaldefs

import (
	mcsession "github.com/mmiura-2351/mcsession"
)

// CounterDef defines a public type used by mcsession APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   mcsession.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by mcsession APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   mcsession.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the session manager.
var CounterDefs = []CounterDef{
	{ID: mcsession.MetricRefreshSuccess, Name: "mcsession_refresh_success_total", Help: "Successful refresh operations."},
	{ID: mcsession.MetricRefreshFailure, Name: "mcsession_refresh_failure_total", Help: "Failed refresh operations."},
	{ID: mcsession.MetricRefreshRateLimited, Name: "mcsession_refresh_rate_limited_total", Help: "Refresh attempts rejected by the minimum-interval limit."},
	{ID: mcsession.MetricRefreshJoined, Name: "mcsession_refresh_joined_total", Help: "Refresh calls that joined an in-flight refresh."},
	{ID: mcsession.MetricTokenExpired, Name: "mcsession_token_expired_total", Help: "Access tokens found expired by local inspection."},
	{ID: mcsession.MetricLogout, Name: "mcsession_logout_total", Help: "Forced logout operations."},
	{ID: mcsession.MetricUnauthorizedHandled, Name: "mcsession_unauthorized_handled_total", Help: "Unauthorized API statuses reported through HandleAPIError."},
	{ID: mcsession.MetricStorageError, Name: "mcsession_storage_error_total", Help: "Credential storage failures observed by the manager."},
}

// HistogramDefs is an exported constant or variable used by the session manager.
var HistogramDefs = []HistogramDef{
	{ID: mcsession.MetricRefreshLatency, Name: "mcsession_refresh_latency_seconds", Help: "Refresh network call latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the session manager.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the session manager.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets may return an error when input validation, dependency calls, or security checks fail.
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets may return an error when input validation, dependency calls, or security checks fail.
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
