package models

import "time"

// Detection is one stored plate sighting: the voted plate string, how the
// vote went, and the representative frame as a base64 JPEG.
type Detection struct {
	ID              int64
	PlateNumber     string
	DetectionCount  int
	TotalDetections int
	ImageData       string
	Timestamp       time.Time
}

// NewDetection builds a detection stamped with the current time. The ID is
// assigned on insert.
func NewDetection(plateNumber string, detectionCount, totalDetections int, imageData string) *Detection {
	return &Detection{
		PlateNumber:     plateNumber,
		DetectionCount:  detectionCount,
		TotalDetections: totalDetections,
		ImageData:       imageData,
		Timestamp:       time.Now().UTC(),
	}
}

// Accuracy is the fraction of window candidates that voted for the winner,
// as a percentage for display.
func (d Detection) Accuracy() float64 {
	if d.TotalDetections == 0 {
		return 0
	}
	return float64(d.DetectionCount) / float64(d.TotalDetections) * 100
}
