package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"time"
)

// YOLODetector calls an external detection service that runs the plate
// model. The service accepts a base64 JPEG and answers with normalized
// boxes. It implements Detector.
type YOLODetector struct {
	endpoint      string
	http          *http.Client
	maxDetections int
}

// NewYOLODetector builds a client for the detection service at endpoint,
// e.g. http://localhost:8081/detect.
func NewYOLODetector(endpoint string) *YOLODetector {
	return &YOLODetector{
		endpoint:      endpoint,
		http:          &http.Client{Timeout: 5 * time.Second},
		maxDetections: 5,
	}
}

type detectRequest struct {
	Image string `json:"image"`
}

type detectResponse struct {
	Detections []struct {
		X1         float64 `json:"x1"`
		Y1         float64 `json:"y1"`
		X2         float64 `json:"x2"`
		Y2         float64 `json:"y2"`
		Confidence float64 `json:"confidence"`
	} `json:"detections"`
}

// Detect submits the frame and returns the detected plate regions, capped
// at the detector's max-detections limit.
func (d *YOLODetector) Detect(ctx context.Context, frame image.Image) ([]Region, error) {
	var img bytes.Buffer
	if err := jpeg.Encode(&img, frame, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}

	body, err := json.Marshal(detectRequest{Image: base64.StdEncoding.EncodeToString(img.Bytes())})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("detection service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("detection service returned status %d", resp.StatusCode)
	}

	var dr detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, fmt.Errorf("decode detections: %w", err)
	}

	regions := make([]Region, 0, len(dr.Detections))
	for _, det := range dr.Detections {
		if len(regions) >= d.maxDetections {
			break
		}
		regions = append(regions, Region{
			X1:         det.X1,
			Y1:         det.Y1,
			X2:         det.X2,
			Y2:         det.Y2,
			Confidence: det.Confidence,
		})
	}
	return regions, nil
}
