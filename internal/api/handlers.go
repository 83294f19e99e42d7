package api

import (
	"encoding/base64"
	"encoding/json"
	"html/template"
	"log"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"platewatch/internal/database"
	"platewatch/internal/models"
	"platewatch/internal/storage"
)

const recentDetectionsLimit = 100

func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

type App struct {
	Detections  *database.DetectionRepository
	Snapshots   storage.Storage
	TemplateDir string
}

type detectRequest struct {
	PlateNumber     string `json:"plate_number"`
	DetectionCount  int    `json:"detection_count"`
	TotalDetections int    `json:"total_detections"`
	Image           string `json:"image"`
}

type detectResponse struct {
	Success bool  `json:"success"`
	ID      int64 `json:"id"`
}

type detectionJSON struct {
	ID              int64   `json:"id"`
	PlateNumber     string  `json:"plate_number"`
	DetectionCount  int     `json:"detection_count"`
	TotalDetections int     `json:"total_detections"`
	Accuracy        float64 `json:"accuracy"`
	Timestamp       string  `json:"timestamp"`
	Image           string  `json:"image,omitempty"`
}

func toDetectionJSON(d *models.Detection, withImage bool) detectionJSON {
	out := detectionJSON{
		ID:              d.ID,
		PlateNumber:     d.PlateNumber,
		DetectionCount:  d.DetectionCount,
		TotalDetections: d.TotalDetections,
		Accuracy:        d.Accuracy(),
		Timestamp:       d.Timestamp.UTC().Format("2006-01-02T15:04:05Z"),
	}
	if withImage {
		out.Image = d.ImageData
	}
	return out
}

// DetectHandler accepts a plate sighting from the recognizer. The snapshot
// is kept both in the database row and as a file on disk so rows stay
// self-contained while files remain browsable.
func (app *App) DetectHandler(w http.ResponseWriter, r *http.Request) {
	var req detectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if req.PlateNumber == "" {
		writeJSONError(w, http.StatusBadRequest, "plate_number is required")
		return
	}

	if req.Image != "" {
		imageBytes, err := base64.StdEncoding.DecodeString(req.Image)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "image is not valid base64")
			return
		}
		if _, err := app.Snapshots.SaveSnapshot(imageBytes); err != nil {
			log.Printf("Failed to save snapshot: %v", err)
			writeJSONError(w, http.StatusInternalServerError, "failed to save snapshot")
			return
		}
	}

	detection := models.NewDetection(req.PlateNumber, req.DetectionCount, req.TotalDetections, req.Image)
	if err := app.Detections.InsertDetection(r.Context(), detection); err != nil {
		log.Printf("Failed to insert detection: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to store detection")
		return
	}

	writeJSON(w, http.StatusOK, detectResponse{Success: true, ID: detection.ID})
}

func (app *App) ListDetectionsHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	detections, err := app.Detections.ListDetections(r.Context(), query, recentDetectionsLimit)
	if err != nil {
		log.Printf("Failed to list detections: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to list detections")
		return
	}

	out := make([]detectionJSON, 0, len(detections))
	for i := range detections {
		out = append(out, toDetectionJSON(&detections[i], false))
	}
	writeJSON(w, http.StatusOK, out)
}

func (app *App) GetDetectionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid detection id")
		return
	}

	detection, err := app.Detections.GetDetectionByID(r.Context(), id)
	if err != nil {
		log.Printf("Failed to get detection: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to get detection")
		return
	}
	if detection == nil {
		writeJSONError(w, http.StatusNotFound, "detection not found")
		return
	}

	writeJSON(w, http.StatusOK, toDetectionJSON(detection, true))
}

func (app *App) HomeHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	total, err := app.Detections.CountDetections(ctx)
	if err != nil {
		http.Error(w, "Error loading stats", http.StatusInternalServerError)
		return
	}
	unique, err := app.Detections.CountUniquePlates(ctx)
	if err != nil {
		http.Error(w, "Error loading stats", http.StatusInternalServerError)
		return
	}
	detections, err := app.Detections.ListDetections(ctx, r.URL.Query().Get("q"), recentDetectionsLimit)
	if err != nil {
		http.Error(w, "Error loading detections", http.StatusInternalServerError)
		return
	}

	tmplPath := filepath.Join(app.TemplateDir, "index.html")
	tmpl, err := template.ParseFiles(tmplPath)
	if err != nil {
		http.Error(w, "Error loading template", http.StatusInternalServerError)
		return
	}

	data := struct {
		Total        int
		UniquePlates int
		Query        string
		Detections   []models.Detection
	}{
		Total:        total,
		UniquePlates: unique,
		Query:        r.URL.Query().Get("q"),
		Detections:   detections,
	}

	if err := tmpl.Execute(w, data); err != nil {
		http.Error(w, "Error rendering template", http.StatusInternalServerError)
		return
	}
}

func (app *App) DetectionPageHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	detection, err := app.Detections.GetDetectionByID(r.Context(), id)
	if err != nil || detection == nil {
		http.NotFound(w, r)
		return
	}

	tmplPath := filepath.Join(app.TemplateDir, "detection.html")
	tmpl, err := template.ParseFiles(tmplPath)
	if err != nil {
		http.Error(w, "Error loading template", http.StatusInternalServerError)
		return
	}

	if err := tmpl.Execute(w, detection); err != nil {
		http.Error(w, "Error rendering template", http.StatusInternalServerError)
		return
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
