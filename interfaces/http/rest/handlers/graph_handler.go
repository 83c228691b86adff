package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"osintgraph/application/ports"
)

// GraphHandler serves GET /investigations/{id}/graph, a skip/limit page
// over the whole entity+edge graph (the ListGraphPage).
type GraphHandler struct {
	store  ports.GraphStore
	logger *zap.Logger
}

func NewGraphHandler(store ports.GraphStore, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{store: store, logger: logger}
}

func (h *GraphHandler) Page(w http.ResponseWriter, r *http.Request) {
	inv, err := parseInvestigationID(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	skip := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", 100)

	entityList, edgeList, total, err := h.store.ListGraphPage(r.Context(), inv, skip, limit)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, GraphPageResponse{
		Entities: entityDTOs(entityList), Edges: edgeDTOs(edgeList), Total: total, Skip: skip, Limit: limit,
	})
}
