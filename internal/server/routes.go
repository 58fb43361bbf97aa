package server

import (
	"github.com/go-chi/chi/v5"
)

// SetupRoutes configures all routes of the geometry API.
func SetupRoutes(router chi.Router, h *Handlers) {
	router.Get("/healthz", h.Health)

	router.Route("/api", func(r chi.Router) {
		r.Get("/scene", h.GetScene)
		r.Post("/scene", h.PutScene)
		r.Put("/scene", h.PutScene)
		r.Get("/scene/stream", h.SceneUpdates)
		r.Post("/scene/params", h.UpdateParams)

		r.Get("/render", h.Render)
		r.Get("/surface", h.Surface)
		r.Get("/surface.obj", h.SurfaceOBJ)
		r.Get("/tangent", h.Tangent)
		r.Get("/field", h.Field)

		r.Get("/presets", h.Presets)
		r.Get("/symbols", h.Symbols)
		r.Get("/eval", h.Eval)
	})
}
