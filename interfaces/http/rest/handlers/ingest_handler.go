package handlers

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	appentities "osintgraph/application/entities"
	"osintgraph/application/ingest"
	"osintgraph/application/ports"
	"osintgraph/application/workflow"
	"osintgraph/domain/core/valueobjects"
	apperrors "osintgraph/pkg/errors"
)

// structuredRecordSuffixes are the filename extensions the ingestor ingests
// synchronously; anything else is routed through the workflow engine's durable workflow
// (the ingest dispatch rule).
var structuredRecordSuffixes = []string{".ftm", ".ijson", ".json", ".ndjson"}

const maxUploadBytes = 64 << 20 // 64MiB

// IngestHandler serves the /investigations/{id}/ingest routes, dispatching
// between the ingestor (structured records) and the workflow engine (documents) by filename suffix.
type IngestHandler struct {
	ingestService *ingest.Service
	entityService *appentities.Service
	objectStore   ports.ObjectStore
	workflow      *workflow.Engine
	logger        *zap.Logger
}

func NewIngestHandler(
	ingestService *ingest.Service,
	entityService *appentities.Service,
	objectStore ports.ObjectStore,
	workflowEngine *workflow.Engine,
	logger *zap.Logger,
) *IngestHandler {
	return &IngestHandler{
		ingestService: ingestService, entityService: entityService,
		objectStore: objectStore, workflow: workflowEngine, logger: logger,
	}
}

func (h *IngestHandler) Upload(w http.ResponseWriter, r *http.Request) {
	inv, err := parseInvestigationID(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, h.logger, apperrors.Validation("invalid multipart upload: "+err.Error()))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, h.logger, apperrors.Validation("missing file field"))
		return
	}
	defer file.Close()

	body, err := io.ReadAll(file)
	if err != nil {
		respondError(w, h.logger, apperrors.Internal("failed to read upload: "+err.Error()))
		return
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if isStructuredRecord(header.Filename) {
		records, err := ingest.ParseRecords(body)
		if err != nil {
			respondError(w, h.logger, apperrors.Validation(err.Error()))
			return
		}
		result := h.ingestService.Ingest(r.Context(), inv, records)
		respondJSON(w, h.logger, http.StatusOK, result)
		return
	}

	h.ingestDocument(w, r, inv, header.Filename, contentType, body)
}

// ingestDocument implements the document branch: create a queued Document
// entity, upload the raw bytes via the object store, and start the workflow
// engine in a background goroutine; the response returns before it finishes.
func (h *IngestHandler) ingestDocument(w http.ResponseWriter, r *http.Request, inv valueobjects.InvestigationID, filename, contentType string, body []byte) {
	doc, err := h.entityService.Create(r.Context(), inv, "", "Document", map[string][]string{
		"fileName":         {filename},
		"mimeType":         {contentType},
		"processingStatus": {"queued"},
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	if _, err := h.objectStore.Put(r.Context(), inv, doc.ID().String(), filename, contentType, body); err != nil {
		respondError(w, h.logger, err)
		return
	}

	// Runs detached from the request context: the workflow must keep going
	// after this handler returns its 200, and its own step table is what
	// makes that safe to retry.
	workflowID := valueobjects.NewWorkflowID().String()
	go h.workflow.Run(context.Background(), workflowID, workflow.Input{
		InvestigationID: inv, DocumentID: doc.ID().String(), Filename: filename, ContentType: contentType,
	})

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"processed":     1,
		"nodes_created": 1,
		"edges_created": 0,
		"status":        "processing",
		"workflow_id":   workflowID,
	})
}

func (h *IngestHandler) Status(w http.ResponseWriter, r *http.Request) {
	if _, err := parseInvestigationID(r); err != nil {
		respondError(w, h.logger, err)
		return
	}
	workflowID := chi.URLParam(r, "wfid")
	status, result, errMsg, err := h.workflow.GetStatus(r.Context(), workflowID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if status == workflow.StatusNotFound {
		respondError(w, h.logger, apperrors.NotFound("workflow not found: "+workflowID))
		return
	}
	resp := map[string]interface{}{"workflow_id": workflowID, "status": string(status)}
	if result != nil {
		resp["result"] = result
	}
	if errMsg != "" {
		resp["error"] = errMsg
	}
	respondJSON(w, h.logger, http.StatusOK, resp)
}

func isStructuredRecord(filename string) bool {
	lower := strings.ToLower(filename)
	for _, suffix := range structuredRecordSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}
