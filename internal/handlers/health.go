package handlers

import (
	"net/http"
	"time"

	applog "coffeeshop/internal/log"
)

type healthResponse struct {
	Status   string    `json:"status"`
	Database string    `json:"database"`
	Time     time.Time `json:"time"`
}

// Health is a readiness handler suitable for infrastructure probes. It pings
// the drink store when the store supports it.
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	applog.Debug(r.Context(), "health check requested", "method", r.Method)
	resp := healthResponse{
		Status:   "ok",
		Database: "ok",
		Time:     time.Now().UTC(),
	}
	status := http.StatusOK

	if p, ok := a.drinks.(pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			applog.Error(r.Context(), "health check database ping failed", "error", err)
			resp.Status = "degraded"
			resp.Database = "unavailable"
			status = http.StatusServiceUnavailable
		}
	} else {
		resp.Database = "unknown"
	}

	writeJSON(w, r, status, resp)
}
