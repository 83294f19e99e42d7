// Package stream wraps a video frame source with the retry and reconnect
// behavior an unreliable network camera needs. Callers see a single
// Next(ctx) call that either yields a frame or reports that the controller
// was stopped; every transient failure is absorbed inside.
package stream

import (
	"context"
	"errors"
	"image"
	"log"
	"time"

	"platewatch/internal/vision"
)

// ErrStopped is returned by Next once the controller's context is done.
var ErrStopped = errors.New("stream: stopped")

// State of the connection as seen by the controller.
type State int

const (
	// StateConnected means the last read succeeded.
	StateConnected State = iota
	// StateFailing means reads are failing but the failure budget is not
	// yet exhausted.
	StateFailing
	// StateReconnecting means the source handle was released and the
	// controller is cycling reopen attempts.
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "CONNECTED"
	case StateFailing:
		return "FAILING"
	case StateReconnecting:
		return "RECONNECTING"
	default:
		return "UNKNOWN"
	}
}

// Opener reopens the video source during a reconnect cycle.
type Opener func() (vision.FrameSource, error)

// Config tunes the controller. Zero fields fall back to the defaults that
// match a flaky MJPEG camera stream.
type Config struct {
	// MaxFailures is how many consecutive failed reads are tolerated
	// before the source handle is released and reopened.
	MaxFailures int
	// RetryDelay is slept between failed reads so a dead stream does not
	// busy-spin the loop.
	RetryDelay time.Duration
	// ReconnectDelay is the cool-down before each reopen attempt.
	ReconnectDelay time.Duration
	// SettleDelay gives a freshly opened source time to start delivering.
	SettleDelay time.Duration
	// Sleep is injectable for tests; it must honor ctx cancellation.
	Sleep func(ctx context.Context, d time.Duration) error
}

func (c *Config) applyDefaults() {
	if c.MaxFailures <= 0 {
		c.MaxFailures = 10
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 50 * time.Millisecond
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = 3 * time.Second
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = 2 * time.Second
	}
	if c.Sleep == nil {
		c.Sleep = sleep
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Controller owns the source handle and the failure-counting state machine
// around it. It is not safe for concurrent use; the pipeline drives it from
// a single loop.
type Controller struct {
	src      vision.FrameSource
	open     Opener
	cfg      Config
	state    State
	failures int
}

// NewController wraps an already opened source. open is used to reacquire
// the source whenever the failure budget is exhausted.
func NewController(src vision.FrameSource, open Opener, cfg Config) *Controller {
	cfg.applyDefaults()
	return &Controller{src: src, open: open, cfg: cfg, state: StateConnected}
}

// State reports the current connection state.
func (c *Controller) State() State {
	return c.state
}

// Failures reports the current consecutive read failure count.
func (c *Controller) Failures() int {
	return c.failures
}

// Next blocks until a frame is available or ctx is cancelled. Read failures
// are retried in place up to the failure budget; beyond it the source is
// released and reopened, indefinitely, rate-limited by the reconnect
// cool-down. Only cancellation makes Next give up.
func (c *Controller) Next(ctx context.Context) (image.Image, error) {
	for {
		if ctx.Err() != nil {
			return nil, ErrStopped
		}

		if img, ok := c.src.Read(); ok {
			c.state = StateConnected
			c.failures = 0
			return img, nil
		}

		c.failures++
		if c.failures < c.cfg.MaxFailures {
			c.state = StateFailing
			if err := c.cfg.Sleep(ctx, c.cfg.RetryDelay); err != nil {
				return nil, ErrStopped
			}
			continue
		}

		if err := c.reconnect(ctx); err != nil {
			return nil, err
		}
	}
}

// reconnect releases the current handle and cycles reopen attempts until
// one succeeds or ctx is cancelled.
func (c *Controller) reconnect(ctx context.Context) error {
	c.state = StateReconnecting
	log.Printf("stream: connection lost after %d consecutive read failures, reconnecting", c.failures)
	if c.src != nil {
		c.src.Close()
		c.src = nil
	}

	for {
		if err := c.cfg.Sleep(ctx, c.cfg.ReconnectDelay); err != nil {
			return ErrStopped
		}

		src, err := c.open()
		if err != nil {
			log.Printf("stream: reconnect failed: %v", err)
			continue
		}

		if err := c.cfg.Sleep(ctx, c.cfg.SettleDelay); err != nil {
			src.Close()
			return ErrStopped
		}

		log.Printf("stream: reconnected")
		c.src = src
		c.state = StateConnected
		c.failures = 0
		return nil
	}
}

// Close releases the underlying source handle.
func (c *Controller) Close() error {
	if c.src == nil {
		return nil
	}
	err := c.src.Close()
	c.src = nil
	return err
}
