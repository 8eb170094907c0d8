package http

import (
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/majesticmotors/dealerauth/internal/auth/store"
	"github.com/majesticmotors/dealerauth/pkg/httpx"
)

// ReadyzHandler is the readiness probe. The database is a hard dependency;
// Redis only backs the rate limiter, which fails open, so a cache outage
// degrades the report without failing it.
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	cache *redis.Client,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &HealthChecks{
			Database: "ok",
			Cache:    "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if cache != nil {
			if err := cache.Ping(r.Context()).Err(); err != nil {
				checks.Cache = "error: " + err.Error()
				if overallStatus == "ok" {
					overallStatus = "degraded"
				}
			}
		} else {
			checks.Cache = "disabled"
		}

		httpx.WriteJSON(w, statusCode, HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
