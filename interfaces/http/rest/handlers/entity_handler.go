package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	appentities "osintgraph/application/entities"
	"osintgraph/domain/core/valueobjects"
	apperrors "osintgraph/pkg/errors"
	"osintgraph/pkg/utils"
)

// EntityHandler serves the /investigations/{id}/entities resource.
type EntityHandler struct {
	service *appentities.Service
	logger  *zap.Logger
}

func NewEntityHandler(service *appentities.Service, logger *zap.Logger) *EntityHandler {
	return &EntityHandler{service: service, logger: logger}
}

type createEntityRequest struct {
	ID         string              `json:"id,omitempty"`
	Schema     string              `json:"schema"`
	Properties map[string][]string `json:"properties"`
}

func (h *EntityHandler) Create(w http.ResponseWriter, r *http.Request) {
	inv, err := parseInvestigationID(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	var req createEntityRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, apperrors.Validation("invalid request body: "+err.Error()))
		return
	}
	entity, err := h.service.Create(r.Context(), inv, req.ID, req.Schema, req.Properties)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusCreated, entityDTO(entity))
}

func (h *EntityHandler) List(w http.ResponseWriter, r *http.Request) {
	inv, err := parseInvestigationID(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	search := r.URL.Query().Get("search")
	list, err := h.service.List(r.Context(), inv, search)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, entityDTOs(list))
}

func (h *EntityHandler) Get(w http.ResponseWriter, r *http.Request) {
	inv, eid, err := parseEntityRef(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	entity, err := h.service.Get(r.Context(), inv, eid)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, entityDTO(entity))
}

type updateEntityRequest struct {
	Properties map[string][]string `json:"properties"`
}

func (h *EntityHandler) Update(w http.ResponseWriter, r *http.Request) {
	inv, eid, err := parseEntityRef(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	var req updateEntityRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, apperrors.Validation("invalid request body: "+err.Error()))
		return
	}
	entity, err := h.service.Update(r.Context(), inv, eid, req.Properties)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, entityDTO(entity))
}

func (h *EntityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	inv, eid, err := parseEntityRef(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	found, err := h.service.Delete(r.Context(), inv, eid)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if !found {
		respondError(w, h.logger, apperrors.NotFound("entity not found: "+eid.String()))
		return
	}
	respondJSON(w, h.logger, http.StatusNoContent, nil)
}

func (h *EntityHandler) Expand(w http.ResponseWriter, r *http.Request) {
	inv, eid, err := parseEntityRef(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	result, err := h.service.Expand(r.Context(), inv, eid)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, expandResponse(result))
}

func (h *EntityHandler) Duplicates(w http.ResponseWriter, r *http.Request) {
	inv, err := parseInvestigationID(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	schemaName := r.URL.Query().Get("schema")
	threshold := queryFloat(r, "threshold", 0.5)
	limit := queryInt(r, "limit", 50)
	candidates, err := h.service.FindDuplicates(r.Context(), inv, schemaName, threshold, limit)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, duplicateCandidateDTOs(candidates))
}

type mergeRequest struct {
	SourceIDs  []string            `json:"source_ids" validate:"required,min=2"`
	TargetID   string              `json:"target_id" validate:"required"`
	Properties map[string][]string `json:"properties,omitempty"`
}

func (h *EntityHandler) Merge(w http.ResponseWriter, r *http.Request) {
	inv, err := parseInvestigationID(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	var req mergeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, apperrors.Validation("invalid request body: "+err.Error()))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		respondError(w, h.logger, apperrors.Validation(err.Error()))
		return
	}
	sourceIDs := make([]valueobjects.EntityID, 0, len(req.SourceIDs))
	for _, id := range req.SourceIDs {
		sourceIDs = append(sourceIDs, valueobjects.EntityID(id))
	}
	result, err := h.service.Merge(r.Context(), inv, sourceIDs, valueobjects.EntityID(req.TargetID), req.Properties)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, mergeResponse(result))
}

func parseEntityRef(r *http.Request) (valueobjects.InvestigationID, valueobjects.EntityID, error) {
	inv, err := parseInvestigationID(r)
	if err != nil {
		return "", "", err
	}
	raw := chi.URLParam(r, "eid")
	eid, err := valueobjects.NewEntityIDFromString(raw)
	if err != nil {
		return "", "", apperrors.Validation("invalid entity id")
	}
	return inv, eid, nil
}
