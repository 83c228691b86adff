package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"osintgraph/domain/schema"
	apperrors "osintgraph/pkg/errors"
)

// SchemaHandler serves GET /schema and GET /schema/{name} against the catalog.
type SchemaHandler struct {
	catalog *schema.Catalog
	logger  *zap.Logger
}

func NewSchemaHandler(catalog *schema.Catalog, logger *zap.Logger) *SchemaHandler {
	return &SchemaHandler{catalog: catalog, logger: logger}
}

func (h *SchemaHandler) List(w http.ResponseWriter, r *http.Request) {
	schemas := h.catalog.List()
	out := make([]SchemaDTO, 0, len(schemas))
	for _, s := range schemas {
		out = append(out, schemaDTO(s))
	}
	respondJSON(w, h.logger, http.StatusOK, out)
}

func (h *SchemaHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s, ok := h.catalog.Get(name)
	if !ok {
		respondError(w, h.logger, apperrors.NotFound("unknown schema: "+name))
		return
	}
	respondJSON(w, h.logger, http.StatusOK, schemaDTO(s))
}
