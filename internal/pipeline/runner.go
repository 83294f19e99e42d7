// Package pipeline contains the per-frame fusion and temporal decision
// logic: aggregating detector and recognizer output into plate candidates,
// voting candidates into sightings, and the single loop that drives it all.
package pipeline

import (
	"context"
	"errors"
	"image"
	"log"
	"time"

	"platewatch/internal/stream"
	"platewatch/internal/vision"
)

// Reporter delivers a finalized sighting together with the frame it was
// decided on. Implementations must be fire-and-forget: a delivery failure
// is theirs to log and swallow.
type Reporter interface {
	Report(ctx context.Context, s Sighting, frame image.Image)
}

// FrameStream is the controller contract the runner pulls frames from.
type FrameStream interface {
	Next(ctx context.Context) (image.Image, error)
}

// Runner is the single-threaded processing loop. All mutable pipeline state
// (the voting accumulator, last reported plate, frame counter) is owned by
// the runner and touched only from Run; no locks, no globals.
type Runner struct {
	frames       FrameStream
	aggregator   *Aggregator
	policy       Policy
	reporter     Reporter
	clock        func() time.Time
	processEvery int

	frameIndex int64
}

// RunnerConfig wires a runner. Clock defaults to time.Now and ProcessEvery
// to 1 (process every frame).
type RunnerConfig struct {
	Frames       FrameStream
	Aggregator   *Aggregator
	Policy       Policy
	Reporter     Reporter
	Clock        func() time.Time
	ProcessEvery int
}

func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.ProcessEvery < 1 {
		cfg.ProcessEvery = 1
	}
	return &Runner{
		frames:       cfg.Frames,
		aggregator:   cfg.Aggregator,
		policy:       cfg.Policy,
		reporter:     cfg.Reporter,
		clock:        cfg.Clock,
		processEvery: cfg.ProcessEvery,
	}
}

// Run pulls frames until the stream stops or ctx is cancelled. Each
// iteration: read a frame, optionally skip it for cadence, run
// detection/recognition, feed candidates into the policy, poll the policy
// against the current clock, and deliver any finalized sighting inline. A
// slow report delays the next read but never loses what the window already
// holds.
func (r *Runner) Run(ctx context.Context) error {
	for {
		img, err := r.frames.Next(ctx)
		if err != nil {
			if errors.Is(err, stream.ErrStopped) {
				log.Printf("pipeline: stream stopped after %d frames", r.frameIndex)
				return nil
			}
			return err
		}
		r.frameIndex++

		if r.frameIndex%int64(r.processEvery) == 0 {
			now := r.clock()
			frame := vision.Frame{Image: img, Index: r.frameIndex, CapturedAt: now}
			for _, candidate := range r.aggregator.Process(ctx, frame) {
				if sighting, ok := r.policy.Observe(candidate.Text, now); ok {
					r.emit(ctx, sighting, img)
				}
			}
		}

		if sighting, ok := r.policy.Poll(r.clock()); ok {
			r.emit(ctx, sighting, img)
		}
	}
}

func (r *Runner) emit(ctx context.Context, s Sighting, frame image.Image) {
	log.Printf("pipeline: plate %s (%d/%d votes)", s.Plate, s.VoteCount, s.TotalCandidates)
	if r.reporter != nil {
		r.reporter.Report(ctx, s, frame)
	}
}
