package speed

import (
	"fmt"
	"sync"
	"time"
)

// AdjustmentType names the decision a Recommendation represents.
type AdjustmentType string

const (
	SpeedUp        AdjustmentType = "speed_up"
	SlowDown       AdjustmentType = "slow_down"
	Maintain       AdjustmentType = "maintain"
	EmergencyBrake AdjustmentType = "emergency_brake"
)

const (
	DefaultMinDelay         = 500 * time.Millisecond
	DefaultMaxDelay         = 10 * time.Second
	DefaultBaseDelay        = 1500 * time.Millisecond
	DefaultSuccessThreshold = 0.85
	DefaultErrorThreshold   = 0.15
	DefaultAdjustmentFactor = 1.3
	DefaultWindowSize       = 20

	// MaxParallelism bounds the advisory parallelism recommendation.
	MaxParallelism = 3

	emergencyMinSamples   = 5
	emergencyRateLimits   = 3
	speedUpMaxLatency     = 30 * time.Second
	parallelUpMaxLatency  = 20 * time.Second
	parallelUpSuccessRate = 0.95
	mildSlowdownFactor    = 1.1
)

// Config tunes the controller. Zero values fall back to the defaults.
type Config struct {
	MinDelay         time.Duration
	MaxDelay         time.Duration
	BaseDelay        time.Duration
	SuccessThreshold float64
	ErrorThreshold   float64
	AdjustmentFactor float64
	WindowSize       int
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		MinDelay:         DefaultMinDelay,
		MaxDelay:         DefaultMaxDelay,
		BaseDelay:        DefaultBaseDelay,
		SuccessThreshold: DefaultSuccessThreshold,
		ErrorThreshold:   DefaultErrorThreshold,
		AdjustmentFactor: DefaultAdjustmentFactor,
		WindowSize:       DefaultWindowSize,
	}
}

func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.MinDelay <= 0 {
		c.MinDelay = d.MinDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = d.MaxDelay
	}
	if c.MaxDelay < c.MinDelay {
		c.MaxDelay = c.MinDelay
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = d.BaseDelay
	}
	c.BaseDelay = clampDuration(c.BaseDelay, c.MinDelay, c.MaxDelay)
	if c.SuccessThreshold <= 0 || c.SuccessThreshold > 1 {
		c.SuccessThreshold = d.SuccessThreshold
	}
	if c.ErrorThreshold <= 0 || c.ErrorThreshold > 1 {
		c.ErrorThreshold = d.ErrorThreshold
	}
	if c.AdjustmentFactor <= 1 {
		c.AdjustmentFactor = d.AdjustmentFactor
	}
	if c.WindowSize < 1 {
		c.WindowSize = d.WindowSize
	}
	return c
}

// Recommendation is the pacing decision produced by Controller.Recommend.
type Recommendation struct {
	Delay          time.Duration
	Parallelism    int
	Reasoning      string
	Confidence     float64
	AdjustmentType AdjustmentType
	Metrics        Metrics
}

// State is a snapshot of the controller's mutable state.
type State struct {
	Delay       time.Duration
	Parallelism int
	Samples     int
}

// Controller turns recent call outcomes into a delay and parallelism
// recommendation. Create one per job run; the state is not meant to be shared
// across jobs.
type Controller struct {
	mu          sync.Mutex
	cfg         Config
	window      *Window
	delay       time.Duration
	parallelism int
}

// NewController builds a controller starting at the base delay with a
// parallelism of one.
func NewController(cfg Config) *Controller {
	cfg = cfg.normalized()
	return &Controller{
		cfg:         cfg,
		window:      NewWindow(cfg.WindowSize),
		delay:       cfg.BaseDelay,
		parallelism: 1,
	}
}

// Config returns the effective configuration.
func (c *Controller) Config() Config {
	return c.cfg
}

// Record adds the outcome of one downstream call to the window.
func (c *Controller) Record(success bool, responseTime time.Duration, hint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.window.Record(success, responseTime, hint)
}

// Metrics returns the aggregates of the current window.
func (c *Controller) Metrics() Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.window.Metrics()
}

// State returns the current delay, parallelism and window size.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{Delay: c.delay, Parallelism: c.parallelism, Samples: c.window.Len()}
}

// Recommend evaluates the window and updates the controller state. The rules
// are checked in priority order and the first match wins, so the call is not
// side-effect free: invoke it once per decision point.
func (c *Controller) Recommend() Recommendation {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.window.Metrics()
	cfg := c.cfg

	switch {
	case m.Samples >= emergencyMinSamples && m.RateLimitHits >= emergencyRateLimits:
		c.delay = c.clamp(c.delay * 2)
		c.parallelism = 1
		return c.recommendation(m, EmergencyBrake, 0.95,
			fmt.Sprintf("emergency brake: %d rate limit hits in last %d calls", m.RateLimitHits, m.Samples))

	case m.ErrorRate > cfg.ErrorThreshold*2:
		c.delay = c.clamp(scale(c.delay, cfg.AdjustmentFactor))
		c.parallelism = 1
		return c.recommendation(m, SlowDown, 0.8,
			fmt.Sprintf("high error rate %.0f%% exceeds %.0f%%", m.ErrorRate*100, cfg.ErrorThreshold*200))

	case m.SuccessRate > cfg.SuccessThreshold && m.AverageResponseTime < speedUpMaxLatency && m.RateLimitHits == 0:
		c.delay = c.clamp(scale(c.delay, 1/cfg.AdjustmentFactor))
		if m.SuccessRate > parallelUpSuccessRate && m.AverageResponseTime < parallelUpMaxLatency && c.parallelism < MaxParallelism {
			c.parallelism++
		}
		return c.recommendation(m, SpeedUp, 0.7,
			fmt.Sprintf("success rate %.0f%% with average response %s", m.SuccessRate*100, m.AverageResponseTime.Round(time.Millisecond)))

	case m.ErrorRate > cfg.ErrorThreshold:
		c.delay = c.clamp(scale(c.delay, mildSlowdownFactor))
		if c.parallelism > 1 {
			c.parallelism--
		}
		return c.recommendation(m, SlowDown, 0.6,
			fmt.Sprintf("error rate %.0f%% exceeds %.0f%%", m.ErrorRate*100, cfg.ErrorThreshold*100))

	default:
		return c.recommendation(m, Maintain, 0.5, "performance within expected range")
	}
}

// Reset clears the window and restores the base delay and a parallelism of one.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.window.Reset()
	c.delay = c.cfg.BaseDelay
	c.parallelism = 1
}

// SetEmergencyMode forces the maximum delay when enabled and the base delay
// when disabled. Parallelism drops to one either way.
func (c *Controller) SetEmergencyMode(enable bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if enable {
		c.delay = c.cfg.MaxDelay
	} else {
		c.delay = c.cfg.BaseDelay
	}
	c.parallelism = 1
}

func (c *Controller) recommendation(m Metrics, kind AdjustmentType, confidence float64, reason string) Recommendation {
	return Recommendation{
		Delay:          c.delay,
		Parallelism:    c.parallelism,
		Reasoning:      reason,
		Confidence:     confidence,
		AdjustmentType: kind,
		Metrics:        m,
	}
}

func (c *Controller) clamp(d time.Duration) time.Duration {
	return clampDuration(d, c.cfg.MinDelay, c.cfg.MaxDelay)
}

func scale(d time.Duration, factor float64) time.Duration {
	return time.Duration(float64(d) * factor)
}

func clampDuration(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}
