package pipeline

import "time"

// Sighting is a finalized plate observation, ready for reporting.
type Sighting struct {
	Plate           string
	VoteCount       int
	TotalCandidates int
	DetectedAt      time.Time
}

// Policy decides when a stream of noisy candidates becomes a Sighting. The
// single pipeline loop feeds every candidate through Observe and calls Poll
// once per iteration; time is polled rather than timer-driven, so window
// boundaries are only as precise as the frame cadence.
type Policy interface {
	// Observe records one candidate and may emit a sighting immediately.
	Observe(text string, now time.Time) (Sighting, bool)
	// Poll gives time-based policies a chance to close their window.
	Poll(now time.Time) (Sighting, bool)
}

// WindowPolicy accumulates candidates over a fixed interval and picks the
// most frequent one when the window closes. The window opens with the first
// candidate after the previous close. A winner equal to the previously
// reported plate is suppressed, but the window still resets.
type WindowPolicy struct {
	duration    time.Duration
	buffer      []string
	windowStart time.Time
	started     bool
	lastPlate   string
}

// NewWindowPolicy returns a window policy with the given accumulation
// interval.
func NewWindowPolicy(duration time.Duration) *WindowPolicy {
	return &WindowPolicy{duration: duration}
}

func (p *WindowPolicy) Observe(text string, now time.Time) (Sighting, bool) {
	if !p.started {
		p.windowStart = now
		p.started = true
	}
	p.buffer = append(p.buffer, text)
	return Sighting{}, false
}

func (p *WindowPolicy) Poll(now time.Time) (Sighting, bool) {
	if !p.started || now.Sub(p.windowStart) < p.duration {
		return Sighting{}, false
	}

	winner, votes := majority(p.buffer)
	total := len(p.buffer)
	p.buffer = p.buffer[:0]
	p.started = false

	if winner == p.lastPlate {
		return Sighting{}, false
	}
	p.lastPlate = winner
	return Sighting{
		Plate:           winner,
		VoteCount:       votes,
		TotalCandidates: total,
		DetectedAt:      now,
	}, true
}

// majority returns the most frequent string; ties go to the one seen first.
func majority(texts []string) (string, int) {
	counts := make(map[string]int, len(texts))
	var order []string
	for _, t := range texts {
		if counts[t] == 0 {
			order = append(order, t)
		}
		counts[t]++
	}
	var winner string
	best := 0
	for _, t := range order {
		if counts[t] > best {
			winner = t
			best = counts[t]
		}
	}
	return winner, best
}

// ImmediatePolicy emits every candidate as it arrives, suppressing only
// repeats of the same plate within a minimum interval. Used when latency
// matters more than vote strength.
type ImmediatePolicy struct {
	minInterval time.Duration
	lastPlate   string
	lastEmit    time.Time
	emitted     bool
}

// NewImmediatePolicy returns an immediate policy with the given minimum
// re-report interval.
func NewImmediatePolicy(minInterval time.Duration) *ImmediatePolicy {
	return &ImmediatePolicy{minInterval: minInterval}
}

func (p *ImmediatePolicy) Observe(text string, now time.Time) (Sighting, bool) {
	if p.emitted && text == p.lastPlate && now.Sub(p.lastEmit) < p.minInterval {
		return Sighting{}, false
	}
	p.lastPlate = text
	p.lastEmit = now
	p.emitted = true
	return Sighting{
		Plate:           text,
		VoteCount:       1,
		TotalCandidates: 1,
		DetectedAt:      now,
	}, true
}

func (p *ImmediatePolicy) Poll(time.Time) (Sighting, bool) {
	return Sighting{}, false
}
