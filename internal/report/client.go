// Package report delivers finalized sightings to the plate backend. The
// reporter is deliberately fire-and-forget: the detection pipeline's
// liveness must never depend on the backend being up, so every delivery
// failure is logged and dropped, never retried and never surfaced.
package report

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"log"
	"net/http"
	"time"

	"platewatch/internal/pipeline"
)

const (
	requestTimeout = 2 * time.Second
	jpegQuality    = 85
)

// Client posts sightings to the backend ingest endpoint.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient builds a reporter for the given ingest URL, e.g.
// http://localhost:8080/api/detect.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: requestTimeout},
	}
}

type detectionPayload struct {
	PlateNumber     string `json:"plate_number"`
	DetectionCount  int    `json:"detection_count"`
	TotalDetections int    `json:"total_detections"`
	Image           string `json:"image"`
}

type detectionResponse struct {
	Success bool  `json:"success"`
	ID      int64 `json:"id"`
}

// Report serializes the sighting with its representative frame as a base64
// JPEG and posts it. Failures of any kind are logged and swallowed.
func (c *Client) Report(ctx context.Context, s pipeline.Sighting, frame image.Image) {
	if err := c.deliver(ctx, s, frame); err != nil {
		log.Printf("report: dropping sighting %s: %v", s.Plate, err)
	}
}

func (c *Client) deliver(ctx context.Context, s pipeline.Sighting, frame image.Image) error {
	encoded, err := encodeFrame(frame)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}

	body, err := json.Marshal(detectionPayload{
		PlateNumber:     s.Plate,
		DetectionCount:  s.VoteCount,
		TotalDetections: s.TotalCandidates,
		Image:           encoded,
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend returned status %d", resp.StatusCode)
	}

	var dr detectionResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	log.Printf("report: sighting %s stored as detection %d", s.Plate, dr.ID)
	return nil
}

func encodeFrame(frame image.Image) (string, error) {
	if frame == nil {
		return "", fmt.Errorf("no frame")
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
