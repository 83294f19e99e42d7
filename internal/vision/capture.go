package vision

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// CaptureSource reads frames from a camera or network stream through
// OpenCV. It implements FrameSource. Not safe for concurrent use; the
// pipeline reads from a single loop.
type CaptureSource struct {
	capture *gocv.VideoCapture
	mat     gocv.Mat
	flip    bool
}

// OpenCapture opens a video source by URL or device index ("0" opens the
// default camera). flip mirrors each frame horizontally, which ESP32-CAM
// streams need.
func OpenCapture(source string, flip bool) (*CaptureSource, error) {
	capture, err := gocv.OpenVideoCapture(source)
	if err != nil {
		return nil, fmt.Errorf("open video source %s: %w", source, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("video source %s did not open", source)
	}
	return &CaptureSource{capture: capture, mat: gocv.NewMat(), flip: flip}, nil
}

// Read captures the next frame. A false return means no frame was
// available; the stream controller decides what persistent falses mean.
func (s *CaptureSource) Read() (image.Image, bool) {
	if !s.capture.Read(&s.mat) || s.mat.Empty() {
		return nil, false
	}
	if s.flip {
		gocv.Flip(s.mat, &s.mat, 1)
	}
	decoded, err := s.mat.ToImage()
	if err != nil {
		return nil, false
	}
	return decoded, true
}

// FPS reports the source's frame rate as advertised by the stream, which
// may be zero for MJPEG cameras that don't declare one.
func (s *CaptureSource) FPS() float64 {
	return s.capture.Get(gocv.VideoCaptureFPS)
}

// Close releases the OpenCV handle and the reusable frame buffer.
func (s *CaptureSource) Close() error {
	s.mat.Close()
	return s.capture.Close()
}
