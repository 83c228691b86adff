package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"osintgraph/application/investigations"
	"osintgraph/domain/core/valueobjects"
	apperrors "osintgraph/pkg/errors"
	"osintgraph/pkg/utils"
)

// InvestigationHandler serves the /investigations resource.
type InvestigationHandler struct {
	service *investigations.Service
	logger  *zap.Logger
}

func NewInvestigationHandler(service *investigations.Service, logger *zap.Logger) *InvestigationHandler {
	return &InvestigationHandler{service: service, logger: logger}
}

type createInvestigationRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description,omitempty"`
}

func (h *InvestigationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createInvestigationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, apperrors.Validation("invalid request body: "+err.Error()))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		respondError(w, h.logger, apperrors.Validation(err.Error()))
		return
	}

	inv, err := h.service.Create(r.Context(), req.Name, req.Description)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusCreated, investigationDTO(inv))
}

func (h *InvestigationHandler) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.ListSummaries(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	out := make([]InvestigationDTO, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, investigationSummaryDTO(s))
	}
	respondJSON(w, h.logger, http.StatusOK, out)
}

func (h *InvestigationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseInvestigationID(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	summary, err := h.service.GetSummary(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, investigationSummaryDTO(summary))
}

func (h *InvestigationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseInvestigationID(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusNoContent, nil)
}

// parseInvestigationID extracts and validates the {id} path param shared by
// every investigation-scoped route.
func parseInvestigationID(r *http.Request) (valueobjects.InvestigationID, error) {
	raw := chi.URLParam(r, "id")
	id, err := valueobjects.NewInvestigationIDFromString(raw)
	if err != nil {
		return "", apperrors.Validation("invalid investigation id: " + raw)
	}
	return id, nil
}
