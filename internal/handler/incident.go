package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/contract-auditor/internal/model"
)

// IncidentFeed is satisfied by *incident.Client.
type IncidentFeed interface {
	Recent(ctx context.Context) ([]model.Incident, error)
}

// IncidentHandler proxies the public hacks feed. No auth.
type IncidentHandler struct {
	feed   IncidentFeed
	logger *slog.Logger
}

func NewIncidentHandler(feed IncidentFeed, logger *slog.Logger) *IncidentHandler {
	return &IncidentHandler{feed: feed, logger: logger}
}

// HandleList serves GET /api/attacks (legacy: GET /attacks).
func (h *IncidentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	incidents, err := h.feed.Recent(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, incidents)
}
