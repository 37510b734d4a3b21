package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// LivenessHandler returns an HTTP handler for liveness probes.
func LivenessHandler(agg *Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		if agg.LivenessCheck() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("OK"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("UNHEALTHY"))
	}
}

// ReadinessHandler returns an HTTP handler for readiness probes.
func ReadinessHandler(agg *Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "text/plain")
		if agg.ReadinessCheck(ctx) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("OK"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("UNHEALTHY"))
	}
}

// CheckJSON is the JSON shape of one check in the detailed response.
type CheckJSON struct {
	Name            string  `json:"name"`
	Status          string  `json:"status"`
	Healthy         bool    `json:"healthy"`
	DurationSeconds float64 `json:"durationSeconds"`
	Error           *string `json:"error"`
}

// SummaryJSON is the JSON shape of the aggregate counters.
type SummaryJSON struct {
	Total     int `json:"total"`
	Healthy   int `json:"healthy"`
	Degraded  int `json:"degraded"`
	Unhealthy int `json:"unhealthy"`
}

// ResponseJSON is the JSON shape of the detailed health response.
type ResponseJSON struct {
	Status  string      `json:"status"`
	Healthy bool        `json:"healthy"`
	Checks  []CheckJSON `json:"checks"`
	Summary SummaryJSON `json:"summary"`
}

// DetailedHandler returns an HTTP handler serving the full aggregate result
// as JSON.
func DetailedHandler(agg *Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		result := agg.CheckAll(ctx)

		resp := ResponseJSON{
			Status:  result.Status.String(),
			Healthy: result.Healthy,
			Checks:  make([]CheckJSON, 0, len(result.Checks)),
			Summary: SummaryJSON{
				Total:     result.Summary.Total,
				Healthy:   result.Summary.Healthy,
				Degraded:  result.Summary.Degraded,
				Unhealthy: result.Summary.Unhealthy,
			},
		}

		for _, c := range result.Checks {
			cj := CheckJSON{
				Name:            c.Name,
				Status:          c.Status.String(),
				Healthy:         c.Healthy,
				DurationSeconds: c.Duration.Seconds(),
			}
			if c.Error != nil {
				msg := c.Error.Error()
				cj.Error = &msg
			}
			resp.Checks = append(resp.Checks, cj)
		}

		w.Header().Set("Content-Type", "application/json")
		if result.Status == StatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// RegisterHandlers registers the health handlers on the given mux:
// /healthz (liveness), /readyz (readiness), /health (detailed JSON).
func RegisterHandlers(mux *http.ServeMux, agg *Aggregator) {
	mux.HandleFunc("/healthz", LivenessHandler(agg))
	mux.HandleFunc("/readyz", ReadinessHandler(agg))
	mux.HandleFunc("/health", DetailedHandler(agg))
}
