package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"platewatch/internal/database"
	"platewatch/internal/storage"
)

func setupTestApp(t *testing.T) (*App, *httptest.Server) {
	t.Helper()

	db, err := database.NewDB(database.Config{Type: "sqlite", SQLitePath: ":memory:"})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	snapshots, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create snapshot storage: %v", err)
	}

	app := &App{
		Detections:  database.NewDetectionRepository(db),
		Snapshots:   snapshots,
		TemplateDir: "../../web/templates",
	}
	server := httptest.NewServer(NewRouter(app))
	t.Cleanup(server.Close)

	return app, server
}

func postDetection(t *testing.T, server *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(server.URL+"/api/detect", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("Failed to POST detection: %v", err)
	}
	return resp
}

func TestDetectHandler(t *testing.T) {
	_, server := setupTestApp(t)

	image := base64.StdEncoding.EncodeToString([]byte{0xFF, 0xD8, 0xFF, 0xD9})
	body := fmt.Sprintf(`{"plate_number":"AB123CD","detection_count":12,"total_detections":15,"image":%q}`, image)

	resp := postDetection(t, server, body)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Success bool  `json:"success"`
		ID      int64 `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !result.Success {
		t.Error("Expected success true")
	}
	if result.ID == 0 {
		t.Error("Expected a non-zero detection id")
	}
}

func TestDetectHandler_BadPayload(t *testing.T) {
	_, server := setupTestApp(t)

	cases := []struct {
		name string
		body string
	}{
		{"MalformedJSON", `{"plate_number": `},
		{"MissingPlate", `{"detection_count":1,"total_detections":1}`},
		{"BadBase64Image", `{"plate_number":"AB123CD","image":"!!not-base64!!"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := postDetection(t, server, tc.body)
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", resp.StatusCode)
			}
		})
	}
}

func TestListDetectionsHandler(t *testing.T) {
	_, server := setupTestApp(t)

	for _, plate := range []string{"AA111AA", "BB222BB"} {
		resp := postDetection(t, server, fmt.Sprintf(`{"plate_number":%q,"detection_count":3,"total_detections":4}`, plate))
		resp.Body.Close()
	}

	resp, err := http.Get(server.URL + "/api/detections")
	if err != nil {
		t.Fatalf("Failed to GET detections: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var detections []struct {
		ID          int64   `json:"id"`
		PlateNumber string  `json:"plate_number"`
		Accuracy    float64 `json:"accuracy"`
		Image       string  `json:"image"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&detections); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(detections) != 2 {
		t.Fatalf("Expected 2 detections, got %d", len(detections))
	}
	if detections[0].ID <= detections[1].ID {
		t.Errorf("Expected newest first, got ids %d, %d", detections[0].ID, detections[1].ID)
	}
	if detections[0].Accuracy != 75 {
		t.Errorf("Expected accuracy 75, got %v", detections[0].Accuracy)
	}
	if detections[0].Image != "" {
		t.Errorf("Expected list to omit image data, got %d bytes", len(detections[0].Image))
	}
}

func TestListDetectionsHandler_Filter(t *testing.T) {
	_, server := setupTestApp(t)

	for _, plate := range []string{"AB123CD", "XY987ZW"} {
		resp := postDetection(t, server, fmt.Sprintf(`{"plate_number":%q,"detection_count":1,"total_detections":1}`, plate))
		resp.Body.Close()
	}

	resp, err := http.Get(server.URL + "/api/detections?q=XY")
	if err != nil {
		t.Fatalf("Failed to GET detections: %v", err)
	}
	defer resp.Body.Close()

	var detections []struct {
		PlateNumber string `json:"plate_number"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&detections); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(detections) != 1 || detections[0].PlateNumber != "XY987ZW" {
		t.Errorf("Expected only XY987ZW, got %+v", detections)
	}
}

func TestGetDetectionHandler(t *testing.T) {
	_, server := setupTestApp(t)

	image := base64.StdEncoding.EncodeToString([]byte("jpeg bytes"))
	resp := postDetection(t, server, fmt.Sprintf(`{"plate_number":"AB123CD","detection_count":5,"total_detections":5,"image":%q}`, image))
	var created struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("Failed to decode create response: %v", err)
	}
	resp.Body.Close()

	getResp, err := http.Get(fmt.Sprintf("%s/api/detections/%d", server.URL, created.ID))
	if err != nil {
		t.Fatalf("Failed to GET detection: %v", err)
	}
	defer getResp.Body.Close()

	if getResp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", getResp.StatusCode)
	}

	var detection struct {
		PlateNumber string `json:"plate_number"`
		Image       string `json:"image"`
	}
	if err := json.NewDecoder(getResp.Body).Decode(&detection); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if detection.PlateNumber != "AB123CD" {
		t.Errorf("Expected plate AB123CD, got %s", detection.PlateNumber)
	}
	if detection.Image != image {
		t.Errorf("Expected image data in single-detection response")
	}
}

func TestGetDetectionHandler_NotFound(t *testing.T) {
	_, server := setupTestApp(t)

	resp, err := http.Get(server.URL + "/api/detections/9999")
	if err != nil {
		t.Fatalf("Failed to GET detection: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected JSON error body, got content type %s", ct)
	}
}

func TestPingHandler(t *testing.T) {
	_, server := setupTestApp(t)

	resp, err := http.Get(server.URL + "/ping")
	if err != nil {
		t.Fatalf("Failed to GET ping: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
}
