package database

import (
	"context"
	"database/sql"
	"fmt"

	"platewatch/internal/models"
)

type DetectionRepository struct {
	db *DB
}

func NewDetectionRepository(db *DB) *DetectionRepository {
	return &DetectionRepository{db: db}
}

func (r *DetectionRepository) InsertDetection(ctx context.Context, d *models.Detection) error {
	if r.db.dbType == "postgres" {
		query := r.db.rebind(`
			INSERT INTO detections (plate_number, detection_count, total_detections, image_data, timestamp)
			VALUES (?, ?, ?, ?, ?)
			RETURNING id`)
		err := r.db.conn.QueryRowContext(ctx, query,
			d.PlateNumber, d.DetectionCount, d.TotalDetections, d.ImageData, d.Timestamp,
		).Scan(&d.ID)
		if err != nil {
			return fmt.Errorf("failed to insert detection: %w", err)
		}
		return nil
	}

	query := `
		INSERT INTO detections (plate_number, detection_count, total_detections, image_data, timestamp)
		VALUES (?, ?, ?, ?, ?)`
	result, err := r.db.conn.ExecContext(ctx, query,
		d.PlateNumber, d.DetectionCount, d.TotalDetections, d.ImageData, d.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert detection: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted id: %w", err)
	}
	d.ID = id
	return nil
}

// ListDetections returns the newest detections first. The image column is
// skipped here; it is only loaded for the single-detection view.
func (r *DetectionRepository) ListDetections(ctx context.Context, query string, limit int) ([]models.Detection, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if query != "" {
		q := r.db.rebind(`
			SELECT id, plate_number, detection_count, total_detections, timestamp
			FROM detections
			WHERE plate_number LIKE ?
			ORDER BY timestamp DESC, id DESC
			LIMIT ?`)
		rows, err = r.db.conn.QueryContext(ctx, q, "%"+query+"%", limit)
	} else {
		q := r.db.rebind(`
			SELECT id, plate_number, detection_count, total_detections, timestamp
			FROM detections
			ORDER BY timestamp DESC, id DESC
			LIMIT ?`)
		rows, err = r.db.conn.QueryContext(ctx, q, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list detections: %w", err)
	}
	defer rows.Close()

	var detections []models.Detection
	for rows.Next() {
		var d models.Detection
		if err := rows.Scan(&d.ID, &d.PlateNumber, &d.DetectionCount, &d.TotalDetections, &d.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan detection: %w", err)
		}
		detections = append(detections, d)
	}
	return detections, rows.Err()
}

func (r *DetectionRepository) GetDetectionByID(ctx context.Context, id int64) (*models.Detection, error) {
	query := r.db.rebind(`
		SELECT id, plate_number, detection_count, total_detections, image_data, timestamp
		FROM detections
		WHERE id = ?`)

	var d models.Detection
	var imageData sql.NullString
	err := r.db.conn.QueryRowContext(ctx, query, id).Scan(
		&d.ID, &d.PlateNumber, &d.DetectionCount, &d.TotalDetections, &imageData, &d.Timestamp)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get detection: %w", err)
	}
	d.ImageData = imageData.String
	return &d, nil
}

func (r *DetectionRepository) CountDetections(ctx context.Context) (int, error) {
	var count int
	err := r.db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM detections`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count detections: %w", err)
	}
	return count, nil
}

func (r *DetectionRepository) CountUniquePlates(ctx context.Context) (int, error) {
	var count int
	err := r.db.conn.QueryRowContext(ctx, `SELECT COUNT(DISTINCT plate_number) FROM detections`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unique plates: %w", err)
	}
	return count, nil
}
