package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	appenrichment "osintgraph/application/enrichment"
	"osintgraph/domain/core/valueobjects"
	apperrors "osintgraph/pkg/errors"
)

// EnrichHandler serves /enrich/yente: free-text sanctions search and
// adjacency-based graph linking.
type EnrichHandler struct {
	service *appenrichment.Service
	logger  *zap.Logger
}

func NewEnrichHandler(service *appenrichment.Service, logger *zap.Logger) *EnrichHandler {
	return &EnrichHandler{service: service, logger: logger}
}

func (h *EnrichHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		respondError(w, h.logger, apperrors.Validation("query is required"))
		return
	}
	limit := queryInt(r, "limit", 10)

	hits, err := h.service.Search(r.Context(), query, limit)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, sanctionsHitDTOs(hits))
}

func (h *EnrichHandler) Link(w http.ResponseWriter, r *http.Request) {
	inv, err := valueobjects.NewInvestigationIDFromString(chi.URLParam(r, "inv"))
	if err != nil {
		respondError(w, h.logger, apperrors.Validation("invalid investigation id"))
		return
	}
	eid, err := valueobjects.NewEntityIDFromString(chi.URLParam(r, "eid"))
	if err != nil {
		respondError(w, h.logger, apperrors.Validation("invalid entity id"))
		return
	}

	result, err := h.service.Link(r.Context(), inv, eid)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, result)
}
