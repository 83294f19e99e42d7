// Package vision defines the capability interfaces the recognition pipeline
// depends on: a frame source, a plate detector and a text recognizer. The
// pipeline only ever sees these interfaces, so the external models behind
// them can be swapped or faked in tests.
package vision

import (
	"context"
	"image"
	"time"
)

// Frame is one decoded video frame with tracking metadata.
type Frame struct {
	Image      image.Image
	Index      int64
	CapturedAt time.Time
}

// Region is a single detector hit. Coordinates are normalized to [0,1]
// relative to the frame, x growing right and y growing down.
type Region struct {
	X1, Y1, X2, Y2 float64
	Confidence     float64
}

// TextFragment is one recognized token inside a plate crop. Left is the
// x position of the token's left edge within the crop and Height the glyph
// height in pixels, both of which the segmenter uses for ordering and
// letter-class assignment.
type TextFragment struct {
	Text       string
	Confidence float64
	Left       float64
	Height     float64
}

// FrameSource yields frames from a video stream. Read reports false when no
// frame could be captured; a persistently false Read signals end-of-stream
// or a broken connection and is handled by the stream controller.
type FrameSource interface {
	Read() (image.Image, bool)
	Close() error
}

// Detector locates plate regions in a frame.
type Detector interface {
	Detect(ctx context.Context, frame image.Image) ([]Region, error)
}

// Recognizer reads text fragments out of a cropped plate region.
type Recognizer interface {
	Read(crop image.Image) ([]TextFragment, error)
	Close() error
}
