package speed

import (
	"strings"
	"time"
)

// ErrorType classifies a failed downstream call.
type ErrorType string

const (
	ErrorNone        ErrorType = "none"
	ErrorRateLimit   ErrorType = "rate_limit"
	ErrorTimeout     ErrorType = "timeout"
	ErrorServerError ErrorType = "server_error"
	ErrorClientError ErrorType = "client_error"
)

// Observation is the outcome of one downstream call.
type Observation struct {
	Success      bool
	ResponseTime time.Duration
	ErrorType    ErrorType
	Timestamp    time.Time
}

// Metrics aggregates the observations currently held by a Window.
type Metrics struct {
	Samples             int
	SuccessRate         float64
	ErrorRate           float64
	AverageResponseTime time.Duration
	RateLimitHits       int
	Timeouts            int
	ServerErrors        int
}

// Window keeps the most recent observations, evicting the oldest first.
// It is not safe for concurrent use; Controller guards it.
type Window struct {
	size  int
	obs   []Observation
	clock func() time.Time
}

// NewWindow returns a window holding at most size observations. Sizes below
// one fall back to DefaultWindowSize.
func NewWindow(size int) *Window {
	if size < 1 {
		size = DefaultWindowSize
	}
	return &Window{size: size, obs: make([]Observation, 0, size), clock: time.Now}
}

// Record classifies hint and appends the observation.
func (w *Window) Record(success bool, responseTime time.Duration, hint string) {
	errType := ErrorNone
	if !success {
		errType = ClassifyError(hint)
	}
	if responseTime < 0 {
		responseTime = 0
	}
	w.obs = append(w.obs, Observation{
		Success:      success,
		ResponseTime: responseTime,
		ErrorType:    errType,
		Timestamp:    w.clock(),
	})
	if over := len(w.obs) - w.size; over > 0 {
		w.obs = append(w.obs[:0], w.obs[over:]...)
	}
}

// Len returns the number of observations held.
func (w *Window) Len() int {
	return len(w.obs)
}

// Observations returns a copy of the held observations, oldest first.
func (w *Window) Observations() []Observation {
	out := make([]Observation, len(w.obs))
	copy(out, w.obs)
	return out
}

// Reset drops every observation.
func (w *Window) Reset() {
	w.obs = w.obs[:0]
}

// Metrics computes aggregates over the window. An empty window reports a
// neutral baseline so a cold controller does not start throttled.
func (w *Window) Metrics() Metrics {
	if len(w.obs) == 0 {
		return Metrics{SuccessRate: 1.0}
	}
	var (
		m         Metrics
		successes int
		total     time.Duration
	)
	for _, o := range w.obs {
		total += o.ResponseTime
		if o.Success {
			successes++
			continue
		}
		switch o.ErrorType {
		case ErrorRateLimit:
			m.RateLimitHits++
		case ErrorTimeout:
			m.Timeouts++
		case ErrorServerError:
			m.ServerErrors++
		}
	}
	n := len(w.obs)
	m.Samples = n
	m.SuccessRate = float64(successes) / float64(n)
	m.ErrorRate = float64(n-successes) / float64(n)
	m.AverageResponseTime = total / time.Duration(n)
	return m
}

// ClassifyError maps a raw error hint (HTTP status, message) to an ErrorType.
// Anything unrecognised is a client error.
func ClassifyError(hint string) ErrorType {
	h := strings.ToLower(strings.TrimSpace(hint))
	switch {
	case strings.Contains(h, "429") || strings.Contains(h, "rate limit"):
		return ErrorRateLimit
	case strings.Contains(h, "timeout"):
		return ErrorTimeout
	case strings.HasPrefix(h, "5"):
		return ErrorServerError
	default:
		return ErrorClientError
	}
}
