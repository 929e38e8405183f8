// Package handlers exposes the telemetry pipeline's producer API over the
// agent's local HTTP surface: enqueue, flush, status.
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/learning-platform/internal/platform/api"
	"github.com/example/learning-platform/internal/platform/auth"
	"github.com/example/learning-platform/internal/platform/httpserver"
	"github.com/example/learning-platform/internal/progress"
	"github.com/example/learning-platform/internal/syncer"
)

type enqueueRequest struct {
	ContentKey      string  `json:"content_key"`
	PositionSeconds float64 `json:"position_seconds"`
	DurationSeconds float64 `json:"duration_seconds"`
	CourseID        string  `json:"course_id"`
	ModuleID        string  `json:"module_id"`
	Title           string  `json:"title"`
	URL             string  `json:"url"`
}

// Register mounts the producer API under /v1. An empty jwtSecret disables
// producer auth for trusted localhost deployments.
func Register(r chi.Router, svc *syncer.Service, jwtSecret string) {
	r.Route("/v1", func(r chi.Router) {
		if jwtSecret != "" {
			r.Use(auth.RequireUser(auth.JWTVerifier{Secret: []byte(jwtSecret)}))
		}
		r.Post("/progress", Enqueue(svc))
		r.Post("/flush", Flush(svc))
		r.Get("/status", Status(svc))
	})
}

// Enqueue accepts one playback progress sample. It always returns quickly:
// coalescing, persistence and delivery happen behind the accept.
func Enqueue(svc *syncer.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		var req enqueueRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "Invalid JSON", rid, nil)
			return
		}
		req.ContentKey = strings.TrimSpace(req.ContentKey)
		if req.ContentKey == "" {
			api.BadRequest(w, "MISSING_CONTENT_KEY", "content_key is required", rid, nil)
			return
		}

		svc.Enqueue(req.ContentKey,
			progress.NewSample(req.PositionSeconds, req.DurationSeconds),
			progress.ParentRefs{CourseID: req.CourseID, ModuleID: req.ModuleID},
			progress.Display{Title: req.Title, URL: req.URL},
		)
		w.WriteHeader(http.StatusAccepted)
	}
}

// Flush runs an opportunistic flush cycle, e.g. before navigation.
func Flush(svc *syncer.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		svc.Flush()
		w.WriteHeader(http.StatusAccepted)
	}
}

// Status reports read-only pipeline diagnostics.
func Status(svc *syncer.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		api.WriteJSON(w, http.StatusOK, svc.Status())
	}
}
