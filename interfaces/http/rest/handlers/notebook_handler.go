package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"osintgraph/application/ports"
	apperrors "osintgraph/pkg/errors"
)

// NotebookHandler serves GET/PUT /investigations/{id}/notebook:
// optimistic-concurrency canvas persistence.
type NotebookHandler struct {
	store  ports.NotebookStore
	logger *zap.Logger
}

func NewNotebookHandler(store ports.NotebookStore, logger *zap.Logger) *NotebookHandler {
	return &NotebookHandler{store: store, logger: logger}
}

type notebookResponse struct {
	CanvasDoc json.RawMessage `json:"canvas_doc"`
	Version   int             `json:"version"`
}

func (h *NotebookHandler) Get(w http.ResponseWriter, r *http.Request) {
	inv, err := parseInvestigationID(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	canvas, version, err := h.store.GetOrCreate(r.Context(), inv)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, notebookResponse{CanvasDoc: canvas, Version: version})
}

type saveNotebookRequest struct {
	ExpectedVersion int             `json:"expected_version"`
	CanvasDoc       json.RawMessage `json:"canvas_doc" validate:"required"`
}

func (h *NotebookHandler) Save(w http.ResponseWriter, r *http.Request) {
	inv, err := parseInvestigationID(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	var req saveNotebookRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, apperrors.Validation("invalid request body: "+err.Error()))
		return
	}
	newVersion, err := h.store.Save(r.Context(), inv, req.ExpectedVersion, req.CanvasDoc)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, notebookResponse{CanvasDoc: req.CanvasDoc, Version: newVersion})
}
