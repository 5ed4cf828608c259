// Package reset arms the single midnight timer that starts each new
// medication day.
package reset

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"medtrack/internal/clock"
	"medtrack/internal/medicine"
)

// RolloverService is the slice of the medication service the
// coordinator drives.
type RolloverService interface {
	ApplyRollover(now time.Time) error
	CatchUpRollover(now time.Time) error
}

// Coordinator owns one timer armed for the next midnight. A fired or
// failed rollover always re-arms; the chain only stops on Stop.
type Coordinator struct {
	svc    RolloverService
	clock  clock.Clock
	logger *zap.Logger

	mu      sync.Mutex
	timer   *time.Timer
	running bool
}

func New(svc RolloverService, clk clock.Clock, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		svc:    svc,
		clock:  clk,
		logger: logger,
	}
}

// Start applies any rollover missed while the process was down, then
// arms the midnight timer. Idempotent.
func (c *Coordinator) Start() error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = true
	c.mu.Unlock()

	if err := c.svc.CatchUpRollover(c.clock.Now()); err != nil {
		c.logger.Error("Failed to catch up on missed rollover", zap.Error(err))
	}

	c.arm()
	return nil
}

// Stop cancels the armed timer.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	c.running = false
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// IsRunning returns whether the midnight timer chain is armed.
func (c *Coordinator) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *Coordinator) arm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}

	now := c.clock.Now()
	next := medicine.NextMidnight(now)
	d := next.Sub(now)

	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(d, c.fire)
	c.logger.Debug("Midnight rollover armed",
		zap.Time("at", next),
		zap.Duration("in", d),
	)
}

func (c *Coordinator) fire() {
	// Re-arm before applying so a failed rollover still gets retried
	// at the next midnight.
	c.arm()

	now := c.clock.Now()
	if err := c.svc.ApplyRollover(now); err != nil {
		c.logger.Error("Midnight rollover failed", zap.Error(err))
	}
}
