package speed

import (
	"testing"
	"time"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		hint string
		want ErrorType
	}{
		{name: "status 429", hint: "429", want: ErrorRateLimit},
		{name: "rate limit message", hint: "gemini: Rate Limit exceeded", want: ErrorRateLimit},
		{name: "status in message", hint: "gemini status 429: resource exhausted", want: ErrorRateLimit},
		{name: "timeout", hint: "request timeout", want: ErrorTimeout},
		{name: "server error", hint: "503 service unavailable", want: ErrorServerError},
		{name: "client error", hint: "400 bad request", want: ErrorClientError},
		{name: "empty", hint: "", want: ErrorClientError},
		{name: "garbage", hint: "???", want: ErrorClientError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.hint); got != tt.want {
				t.Fatalf("ClassifyError(%q) = %q, want %q", tt.hint, got, tt.want)
			}
		})
	}
}

func TestWindowEmptyMetricsBaseline(t *testing.T) {
	m := NewWindow(5).Metrics()
	if m.SuccessRate != 1.0 {
		t.Fatalf("SuccessRate = %v, want 1.0", m.SuccessRate)
	}
	if m.ErrorRate != 0 || m.RateLimitHits != 0 || m.Timeouts != 0 || m.ServerErrors != 0 {
		t.Fatalf("unexpected non-zero counters: %#v", m)
	}
}

func TestWindowEvictsOldest(t *testing.T) {
	w := NewWindow(3)
	w.Record(false, time.Second, "429")
	w.Record(true, time.Second, "")
	w.Record(true, time.Second, "")
	w.Record(true, time.Second, "")

	if w.Len() != 3 {
		t.Fatalf("Len = %d, want 3", w.Len())
	}
	m := w.Metrics()
	if m.RateLimitHits != 0 {
		t.Fatalf("RateLimitHits = %d, want 0 after eviction", m.RateLimitHits)
	}
	if m.SuccessRate != 1.0 {
		t.Fatalf("SuccessRate = %v, want 1.0", m.SuccessRate)
	}
}

func TestWindowMetrics(t *testing.T) {
	w := NewWindow(10)
	w.Record(true, 1*time.Second, "")
	w.Record(false, 3*time.Second, "429")
	w.Record(false, 5*time.Second, "timeout")
	w.Record(false, 7*time.Second, "500 internal")

	m := w.Metrics()
	if m.Samples != 4 {
		t.Fatalf("Samples = %d, want 4", m.Samples)
	}
	if m.SuccessRate != 0.25 {
		t.Fatalf("SuccessRate = %v, want 0.25", m.SuccessRate)
	}
	if m.ErrorRate != 0.75 {
		t.Fatalf("ErrorRate = %v, want 0.75", m.ErrorRate)
	}
	if m.AverageResponseTime != 4*time.Second {
		t.Fatalf("AverageResponseTime = %s, want 4s", m.AverageResponseTime)
	}
	if m.RateLimitHits != 1 || m.Timeouts != 1 || m.ServerErrors != 1 {
		t.Fatalf("unexpected error counters: %#v", m)
	}
}

func TestWindowSuccessIgnoresHint(t *testing.T) {
	w := NewWindow(2)
	w.Record(true, time.Second, "429")
	obs := w.Observations()
	if obs[0].ErrorType != ErrorNone {
		t.Fatalf("ErrorType = %q, want %q", obs[0].ErrorType, ErrorNone)
	}
}
