package pipeline

import (
	"context"
	"image"
	"log"
	"math"
	"time"

	"platewatch/internal/segment"
	"platewatch/internal/vision"
)

// cropPadding widens each side of a detected box by this fraction of the box
// size so tight detections don't clip glyph edges.
const cropPadding = 0.05

// Candidate is one fully assembled plate reading from one region of one
// frame.
type Candidate struct {
	Text       string
	Confidence float64
	FrameIndex int64
	CapturedAt time.Time
}

// Aggregator fuses the detector and recognizer outputs for a single frame
// into zero or more plate candidates. A failure in any one region is logged
// and skipped; one bad detection never aborts the rest of the frame.
type Aggregator struct {
	detector      vision.Detector
	recognizer    vision.Recognizer
	minConfidence float64
	minLength     int
}

// NewAggregator builds an aggregator accepting regions at or above
// minConfidence. Assembled strings shorter than four characters are
// rejected as partial reads.
func NewAggregator(detector vision.Detector, recognizer vision.Recognizer, minConfidence float64) *Aggregator {
	return &Aggregator{
		detector:      detector,
		recognizer:    recognizer,
		minConfidence: minConfidence,
		minLength:     4,
	}
}

// Process runs detection and per-region recognition for one frame and
// returns every candidate the frame yielded. No in-frame deduplication is
// performed; that is the voting window's job.
func (a *Aggregator) Process(ctx context.Context, frame vision.Frame) []Candidate {
	regions, err := a.detector.Detect(ctx, frame.Image)
	if err != nil {
		log.Printf("pipeline: detection failed on frame %d: %v", frame.Index, err)
		return nil
	}

	var candidates []Candidate
	for _, region := range regions {
		if region.Confidence < a.minConfidence {
			continue
		}

		crop := cropRegion(frame.Image, region)
		if crop == nil {
			continue
		}

		fragments, err := a.recognizer.Read(crop)
		if err != nil {
			log.Printf("pipeline: recognition failed on frame %d: %v", frame.Index, err)
			continue
		}

		text := segment.Assemble(toSegmentFragments(fragments))
		if len(text) < a.minLength {
			continue
		}

		candidates = append(candidates, Candidate{
			Text:       text,
			Confidence: meanConfidence(fragments),
			FrameIndex: frame.Index,
			CapturedAt: frame.CapturedAt,
		})
	}
	return candidates
}

func toSegmentFragments(fragments []vision.TextFragment) []segment.Fragment {
	out := make([]segment.Fragment, len(fragments))
	for i, f := range fragments {
		out[i] = segment.Fragment{
			Text:       f.Text,
			Confidence: f.Confidence,
			Left:       f.Left,
			Height:     f.Height,
		}
	}
	return out
}

func meanConfidence(fragments []vision.TextFragment) float64 {
	if len(fragments) == 0 {
		return 0
	}
	var sum float64
	for _, f := range fragments {
		sum += f.Confidence
	}
	return sum / float64(len(fragments))
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// cropRegion converts a normalized region into a padded pixel rectangle and
// crops the frame to it. It returns nil when the result would be empty or
// the image type does not support cropping.
func cropRegion(frame image.Image, region vision.Region) image.Image {
	bounds := frame.Bounds()
	w := float64(bounds.Dx())
	h := float64(bounds.Dy())

	x1 := region.X1 * w
	y1 := region.Y1 * h
	x2 := region.X2 * w
	y2 := region.Y2 * h

	padX := (x2 - x1) * cropPadding
	padY := (y2 - y1) * cropPadding

	rect := image.Rect(
		bounds.Min.X+int(math.Max(0, x1-padX)),
		bounds.Min.Y+int(math.Max(0, y1-padY)),
		bounds.Min.X+int(math.Min(w, x2+padX)),
		bounds.Min.Y+int(math.Min(h, y2+padY)),
	)
	if rect.Empty() {
		return nil
	}

	src, ok := frame.(subImager)
	if !ok {
		return nil
	}
	crop := src.SubImage(rect)
	if crop.Bounds().Empty() {
		return nil
	}
	return crop
}
