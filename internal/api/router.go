// Package api provides HTTP router setup.
package api

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/contentlabs/sift/internal/config"
	"github.com/contentlabs/sift/internal/database"
	"github.com/contentlabs/sift/internal/detect"
)

// NewRouter creates a new HTTP router with all routes configured.
func NewRouter(cfg *config.Config, engine *detect.Engine, store database.Store, staticFS embed.FS) http.Handler {
	r := chi.NewRouter()

	handler := NewHandler(engine, store, cfg.Limits.ImageMaxBytes)

	// Global middleware
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Health check (no throttle)
		r.Get("/health", handler.HealthCheck)

		r.Group(func(r chi.Router) {
			if cfg.RateLimit.GlobalPerMinute > 0 {
				r.Use(ThrottleMiddleware(cfg.RateLimit.GlobalPerMinute))
			}
			if cfg.Database.Enabled {
				r.Use(AuditMiddleware(store))
			}

			// Detection endpoints
			r.Post("/detect-text", handler.DetectText)
			r.Post("/detect-image", handler.DetectImage)
		})

		if cfg.Database.Enabled {
			r.Get("/audit", handler.GetAuditLogs)
		}
	})

	// Serve static frontend if enabled
	if cfg.Server.EnableUI {
		staticContent, err := fs.Sub(staticFS, "static")
		if err == nil {
			fileServer := http.FileServer(http.FS(staticContent))
			r.Handle("/*", fileServer)
		} else {
			// Serve a simple placeholder if no static files
			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
    <title>Sift - AI Content Detector</title>
    <style>
        body { font-family: system-ui, sans-serif; max-width: 800px; margin: 50px auto; padding: 20px; }
        h1 { color: #2563eb; }
        code { background: #f1f5f9; padding: 2px 6px; border-radius: 4px; }
        .endpoint { margin: 10px 0; }
    </style>
</head>
<body>
    <h1>Sift API</h1>
    <p>AI content detection API is running. Use the endpoints below:</p>

    <h2>Endpoints</h2>
    <div class="endpoint"><code>GET /api/health</code> - Health check</div>
    <div class="endpoint"><code>POST /api/detect-text</code> - Detect AI-generated text</div>
    <div class="endpoint"><code>POST /api/detect-image</code> - Detect AI-generated images</div>
</body>
</html>`))
			})
		}
	}

	return r
}
