package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"platewatch/internal/api"
	"platewatch/internal/config"
	"platewatch/internal/database"
	"platewatch/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatal("Invalid configuration:", err)
	}

	snapshots, err := storage.NewLocalStorage(cfg.SnapshotDir)
	if err != nil {
		log.Fatal("Failed to initialize snapshot storage:", err)
	}

	db, err := database.NewDB(cfg.DB)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer db.Close()

	app := &api.App{
		Detections:  database.NewDetectionRepository(db),
		Snapshots:   snapshots,
		TemplateDir: cfg.TemplateDir,
	}

	log.Printf("Server starting on port %s (db: %s)", cfg.Port, cfg.DB.Type)
	if err := http.ListenAndServe(":"+cfg.Port, api.NewRouter(app)); err != nil {
		log.Fatal("Server failed:", err)
	}
}
