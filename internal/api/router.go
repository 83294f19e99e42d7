package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(app *App) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", app.HomeHandler)
	r.Get("/ping", PingHandler)
	r.Get("/detection/{id}", app.DetectionPageHandler)

	r.Route("/api", func(r chi.Router) {
		r.Post("/detect", app.DetectHandler)
		r.Get("/detections", app.ListDetectionsHandler)
		r.Get("/detections/{id}", app.GetDetectionHandler)
	})

	return r
}
