// Package api provides HTTP API handlers.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/contentlabs/sift/internal/database"
	"github.com/contentlabs/sift/internal/detect"
	"github.com/contentlabs/sift/internal/models"
)

// Handler contains all HTTP handlers.
type Handler struct {
	engine       *detect.Engine
	store        database.Store
	imageMaxMem  int64
	imageMaxSize int64
}

// NewHandler creates a new handler. imageMaxSize bounds how many multipart
// bytes are read into memory.
func NewHandler(engine *detect.Engine, store database.Store, imageMaxSize int64) *Handler {
	return &Handler{
		engine:       engine,
		store:        store,
		imageMaxMem:  8 << 20,
		imageMaxSize: imageMaxSize,
	}
}

// HealthCheck returns the service health status.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"version":   "1.0.0",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	writeJSON(w, http.StatusOK, response)
}

// DetectText handles text detection requests.
func (h *Handler) DetectText(w http.ResponseWriter, r *http.Request) {
	var req models.DetectTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.engine.DetectText(r.Context(), clientID(r), req.Text)
	if err != nil {
		writeDetectError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// DetectImage handles image detection requests. The image arrives as a
// multipart form with a single "image" field.
func (h *Handler) DetectImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.imageMaxMem); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart body")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing image field")
		return
	}
	defer file.Close()

	// Read at most one byte past the limit so the validator can reject
	// oversized payloads without the handler buffering them whole.
	data, err := io.ReadAll(io.LimitReader(file, h.imageMaxSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read image")
		return
	}

	result, err := h.engine.DetectImage(r.Context(), clientID(r), data, header.Header.Get("Content-Type"))
	if err != nil {
		writeDetectError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GetAuditLogs returns paginated audit logs.
func (h *Handler) GetAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	logs, err := h.store.GetAuditLogs(r.Context(), limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get audit logs")
		writeError(w, http.StatusInternalServerError, "Failed to get audit logs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"logs":   logs,
		"limit":  limit,
		"offset": offset,
	})
}

// writeDetectError maps pipeline failures onto stable, client-safe HTTP
// responses. Raw capability detail stays in the server log.
func writeDetectError(w http.ResponseWriter, err error) {
	var vErr *models.ValidationError
	if errors.As(err, &vErr) {
		status := http.StatusBadRequest
		switch vErr.Kind {
		case models.ValidationTooLarge:
			status = http.StatusRequestEntityTooLarge
		case models.ValidationUnsupportedType:
			status = http.StatusUnsupportedMediaType
		}
		writeError(w, status, vErr.Message)
		return
	}

	var rlErr *models.RateLimitedError
	if errors.As(err, &rlErr) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", strconv.Itoa(rlErr.RetryAfter))
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":             "Rate limit exceeded",
			"retryAfterSeconds": rlErr.RetryAfter,
		})
		return
	}

	var iErr *models.InvocationError
	if errors.As(err, &iErr) {
		switch iErr.Kind {
		case models.InvocationTimeout:
			writeError(w, http.StatusGatewayTimeout, "Detection timed out")
		case models.InvocationMalformed:
			writeError(w, http.StatusBadGateway, "Detection service returned an unusable response")
		default:
			writeError(w, http.StatusBadGateway, "Detection service is unavailable")
		}
		return
	}

	log.Error().Err(err).Msg("Unclassified detection failure")
	writeError(w, http.StatusInternalServerError, "Detection failed")
}

// clientID derives the opaque client identity used for rate limiting. The
// RealIP middleware has already resolved forwarded addresses.
func clientID(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
