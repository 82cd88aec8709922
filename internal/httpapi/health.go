package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// HealthResponse represents the JSON response from the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Index     string `json:"index"`
	Timestamp string `json:"timestamp"`
}

// HealthChecker is the health check dependency. The vector index implements
// this via its Health method.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// NewHealthHandler creates an HTTP handler for the /health endpoint.
// It checks vector index connectivity and returns appropriate status codes.
func NewHealthHandler(index HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		err := index.Health(ctx)

		response := HealthResponse{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}

		w.Header().Set("Content-Type", "application/json")

		if err != nil {
			response.Status = "unhealthy"
			response.Index = "disconnected"
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(response)
			return
		}

		response.Status = "healthy"
		response.Index = "connected"
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response)
	}
}
