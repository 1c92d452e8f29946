package api

import (
	"fmt"
	"net/http"
	"strconv"
)

// StatsHandler handles stats requests.
type StatsHandler struct {
	statsProvider StatsProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(statsProvider StatsProvider) *StatsHandler {
	return &StatsHandler{statsProvider: statsProvider}
}

// HandleStats handles GET /stats requests. With ?ratings=true the cached
// ratings are included, highest first.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats := h.statsProvider.GetStats()

	if raw := r.URL.Query().Get("ratings"); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: ratings must be a boolean", ErrBadRequest))
			return
		}
		if include {
			stats["ratings"] = h.statsProvider.CachedRatings(r.Context())
		}
	}

	writeJSON(w, http.StatusOK, stats)
}
