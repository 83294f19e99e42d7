// Package config reads the environment for both binaries. Every key has a
// working default so a bare `go run` comes up against a local webcam and a
// SQLite file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"platewatch/internal/database"
)

// ServerConfig drives the detections backend.
type ServerConfig struct {
	Port        string
	SnapshotDir string
	TemplateDir string
	DB          database.Config
}

// RecognizerConfig drives the camera-side pipeline.
type RecognizerConfig struct {
	StreamURL         string
	DetectEndpoint    string
	ServerURL         string
	VotePolicy        string
	VoteWindow        time.Duration
	MinReportInterval time.Duration
	DetectConfidence  float64
	ProcessEvery      int
	FlipHorizontal    bool
}

func LoadServer() (ServerConfig, error) {
	cfg := ServerConfig{
		Port:        getEnv("PORT", "8080"),
		SnapshotDir: getEnv("SNAPSHOT_DIR", "./snapshots"),
		TemplateDir: getEnv("TEMPLATE_DIR", "./web/templates"),
	}

	cfg.DB.Type = getEnv("DB_TYPE", "sqlite")
	switch cfg.DB.Type {
	case "sqlite":
		cfg.DB.SQLitePath = getEnv("DB_PATH", "./platewatch.db")
	case "postgres":
		cfg.DB.Host = getEnv("DB_HOST", "localhost")
		port, err := getEnvInt("DB_PORT", 5432)
		if err != nil {
			return ServerConfig{}, err
		}
		cfg.DB.Port = port
		cfg.DB.User = getEnv("DB_USER", "platewatch")
		cfg.DB.Password = getEnv("DB_PASSWORD", "platewatch_dev")
		cfg.DB.Name = getEnv("DB_NAME", "platewatch")
	default:
		return ServerConfig{}, fmt.Errorf("unsupported DB_TYPE: %s", cfg.DB.Type)
	}

	return cfg, nil
}

func LoadRecognizer() (RecognizerConfig, error) {
	cfg := RecognizerConfig{
		StreamURL:      getEnv("STREAM_URL", "0"),
		DetectEndpoint: getEnv("DETECT_ENDPOINT", "http://localhost:8000/detect"),
		ServerURL:      getEnv("SERVER_URL", "http://localhost:8080"),
		VotePolicy:     getEnv("VOTE_POLICY", "window"),
	}

	if cfg.VotePolicy != "window" && cfg.VotePolicy != "immediate" {
		return RecognizerConfig{}, fmt.Errorf("unsupported VOTE_POLICY: %s", cfg.VotePolicy)
	}

	var err error
	if cfg.VoteWindow, err = getEnvDuration("VOTE_WINDOW", 5*time.Second); err != nil {
		return RecognizerConfig{}, err
	}
	if cfg.MinReportInterval, err = getEnvDuration("MIN_REPORT_INTERVAL", 500*time.Millisecond); err != nil {
		return RecognizerConfig{}, err
	}
	if cfg.DetectConfidence, err = getEnvFloat("DETECT_CONFIDENCE", 0.35); err != nil {
		return RecognizerConfig{}, err
	}
	if cfg.ProcessEvery, err = getEnvInt("PROCESS_EVERY", 1); err != nil {
		return RecognizerConfig{}, err
	}
	if cfg.FlipHorizontal, err = getEnvBool("FLIP_HORIZONTAL", false); err != nil {
		return RecognizerConfig{}, err
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
