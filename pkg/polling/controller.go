// Package polling owns the telemetry sampling cadence. The interval follows
// the latest movement speed: fast while the device is moving quickly, normal
// otherwise.
package polling

import (
	"context"
	"sync"
	"time"

	"network-orchestrator-be/internal/pkg/logger"
	"network-orchestrator-be/pkg/metrics"
)

const (
	DefaultHighSpeedThresholdKmh = 60.0
	DefaultFastInterval          = 500 * time.Millisecond
	DefaultNormalInterval        = time.Second
)

type Config struct {
	HighSpeedThresholdKmh float64
	FastInterval          time.Duration
	NormalInterval        time.Duration
}

func DefaultConfig() Config {
	return Config{
		HighSpeedThresholdKmh: DefaultHighSpeedThresholdKmh,
		FastInterval:          DefaultFastInterval,
		NormalInterval:        DefaultNormalInterval,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.HighSpeedThresholdKmh <= 0 {
		c.HighSpeedThresholdKmh = d.HighSpeedThresholdKmh
	}
	if c.FastInterval <= 0 {
		c.FastInterval = d.FastInterval
	}
	if c.NormalInterval <= 0 {
		c.NormalInterval = d.NormalInterval
	}
	return c
}

// Sampler is invoked on every tick.
type Sampler func(ctx context.Context)

// Controller is the only component allowed to change the sampling interval.
// It starts at the normal interval.
type Controller struct {
	cfg     Config
	sampler Sampler
	logger  logger.ILogger
	metrics *metrics.Metrics

	mu          sync.Mutex
	interval    time.Duration
	reschedules int
	timer       *time.Timer
	generation  uint64
	ctx         context.Context
	running     bool
}

func NewController(cfg Config, sampler Sampler, log logger.ILogger, m *metrics.Metrics) *Controller {
	cfg = cfg.withDefaults()
	c := &Controller{
		cfg:      cfg,
		sampler:  sampler,
		logger:   log,
		metrics:  m,
		interval: cfg.NormalInterval,
	}
	m.ObserveInterval(cfg.NormalInterval.Milliseconds(), false)
	return c
}

// Start schedules the first tick. Ticks stop when ctx is done or Stop is called.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	c.ctx = ctx
	c.running = true
	c.scheduleLocked()

	context.AfterFunc(ctx, c.Stop)
}

func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	c.generation++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// OnMovementSample recomputes the interval from velocityKmh and restarts the
// timer when it changes. It returns the interval now in effect.
func (c *Controller) OnMovementSample(velocityKmh float64) time.Duration {
	target := c.cfg.NormalInterval
	if velocityKmh > c.cfg.HighSpeedThresholdKmh {
		target = c.cfg.FastInterval
	}

	c.mu.Lock()
	if target == c.interval {
		c.mu.Unlock()
		return target
	}
	prev := c.interval
	c.interval = target
	c.reschedules++
	if c.running {
		c.scheduleLocked()
	}
	c.mu.Unlock()

	c.metrics.ObserveInterval(target.Milliseconds(), true)
	c.logger.Info("PollingController", "Sampling interval changed", map[string]interface{}{
		"velocity_kmh": velocityKmh,
		"from_ms":      prev.Milliseconds(),
		"to_ms":        target.Milliseconds(),
	})
	return target
}

func (c *Controller) Interval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interval
}

// Reschedules counts interval changes since construction.
func (c *Controller) Reschedules() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reschedules
}

// scheduleLocked cancels the pending tick and arms a new one. Each timer
// carries a generation so a callback that lost the race with Stop never
// samples. Caller must hold mu.
func (c *Controller) scheduleLocked() {
	if c.timer != nil {
		c.timer.Stop()
	}
	c.generation++
	gen := c.generation
	c.timer = time.AfterFunc(c.interval, func() { c.tick(gen) })
}

func (c *Controller) tick(gen uint64) {
	c.mu.Lock()
	if !c.running || gen != c.generation {
		c.mu.Unlock()
		return
	}
	ctx := c.ctx
	c.mu.Unlock()

	if c.sampler != nil {
		c.sampler(ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running && gen == c.generation {
		c.scheduleLocked()
	}
}
