package report

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"testing"

	"platewatch/internal/pipeline"
)

func testSighting() pipeline.Sighting {
	return pipeline.Sighting{Plate: "AB123", VoteCount: 4, TotalCandidates: 5}
}

func testImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 16, 16))
}

func TestClientDeliversPayload(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected JSON content type, got %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("bad body: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{"success": true, "id": 42})
	}))
	defer srv.Close()

	NewClient(srv.URL).Report(context.Background(), testSighting(), testImage())

	if got["plate_number"] != "AB123" {
		t.Errorf("expected plate_number AB123, got %v", got["plate_number"])
	}
	if got["detection_count"] != float64(4) || got["total_detections"] != float64(5) {
		t.Errorf("expected counts 4/5, got %v/%v", got["detection_count"], got["total_detections"])
	}
	img, ok := got["image"].(string)
	if !ok || img == "" {
		t.Fatal("expected a base64 image in the payload")
	}
	raw, err := base64.StdEncoding.DecodeString(img)
	if err != nil {
		t.Fatalf("image is not valid base64: %v", err)
	}
	// JPEG SOI marker.
	if len(raw) < 2 || raw[0] != 0xFF || raw[1] != 0xD8 {
		t.Error("image payload is not a JPEG")
	}
}

func TestClientSwallowsConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	// Must neither panic nor block; the failure is logged and dropped.
	NewClient(url).Report(context.Background(), testSighting(), testImage())
}

func TestClientSwallowsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	NewClient(srv.URL).Report(context.Background(), testSighting(), testImage())
}

func TestClientSwallowsNilFrame(t *testing.T) {
	NewClient("http://127.0.0.1:0").Report(context.Background(), testSighting(), nil)
}
