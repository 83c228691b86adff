// Package workflow implements the extraction workflow: a durable
// four-step pipeline (download -> parse -> extract -> persist) with a
// client-visible workflow_id. Each step's output is appended to a durable
// step log before the next step runs, so a crashed or retried run resumes
// from the last completed step instead of redoing earlier work.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"osintgraph/application/entities"
	"osintgraph/application/ingest"
	"osintgraph/application/ports"
	"osintgraph/domain/core/valueobjects"
	"osintgraph/domain/events"
	"osintgraph/domain/schema"
	"osintgraph/infrastructure/docparse"
	"osintgraph/infrastructure/extraction"
	apperrors "osintgraph/pkg/errors"
)

// Status enumerates the client-visible workflow status surface.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusSuccess   Status = "SUCCESS"
	StatusError     Status = "ERROR"
	StatusCancelled Status = "CANCELLED"
	StatusNotFound  Status = "NOT_FOUND"
)

const (
	stepDownload = "download"
	stepParse    = "parse"
	stepExtract  = "extract"
	stepPersist  = "persist"
)

// PersistSummary is persist_step's return shape.
type PersistSummary struct {
	Processed    int      `json:"processed"`
	NodesCreated int      `json:"nodes_created"`
	EdgesCreated int      `json:"edges_created"`
	Errors       []string `json:"errors"`
	DocumentID   string   `json:"document_id"`
}

// Engine executes the extraction workflow's four steps, replaying from the
// last completed step on restart.
type Engine struct {
	workflowStore ports.WorkflowStore
	objectStore   ports.ObjectStore
	entityService *entities.Service
	catalog       *schema.Catalog
	extractor     *extraction.Extractor
	logger        *zap.Logger
	events        ports.EventPublisher
}

func NewEngine(
	workflowStore ports.WorkflowStore,
	objectStore ports.ObjectStore,
	entityService *entities.Service,
	catalog *schema.Catalog,
	extractor *extraction.Extractor,
	logger *zap.Logger,
	publisher ports.EventPublisher,
) *Engine {
	return &Engine{
		workflowStore: workflowStore,
		objectStore:   objectStore,
		entityService: entityService,
		catalog:       catalog,
		extractor:     extractor,
		logger:        logger,
		events:        publisher,
	}
}

// Input is everything the workflow needs to run the four steps.
type Input struct {
	InvestigationID valueobjects.InvestigationID
	DocumentID      string
	Filename        string
	ContentType     string
}

type parsedPayload struct {
	Content      string            `json:"content"`
	MimeType     string            `json:"mime_type"`
	Metadata     map[string]string `json:"metadata"`
	DocumentType string            `json:"document_type"`
}

// Run executes (or resumes) the workflow synchronously. A real deployment
// would enqueue this onto a worker pool; the step-table durability contract
// is what makes that safe to retry.
func (e *Engine) Run(ctx context.Context, workflowID string, in Input) {
	_ = e.workflowStore.SetStatus(ctx, workflowID, string(StatusRunning), nil, "")

	raw, err := e.runStep(ctx, workflowID, stepDownload, func() ([]byte, error) {
		return e.objectStore.Get(ctx, in.InvestigationID, in.DocumentID, in.Filename)
	})
	if err != nil {
		e.fail(ctx, workflowID, err)
		return
	}

	parsedBytes, err := e.runStep(ctx, workflowID, stepParse, func() ([]byte, error) {
		parsed, perr := docparse.Parse(raw, in.Filename, in.ContentType)
		if perr != nil {
			return nil, perr
		}
		return json.Marshal(parsedPayload{
			Content: parsed.Content, MimeType: parsed.MimeType,
			Metadata: parsed.Metadata, DocumentType: parsed.DocumentType,
		})
	})
	if err != nil {
		e.fail(ctx, workflowID, err)
		return
	}
	var parsed parsedPayload
	if err := json.Unmarshal(parsedBytes, &parsed); err != nil {
		e.fail(ctx, workflowID, err)
		return
	}

	candidatesBytes, err := e.runStep(ctx, workflowID, stepExtract, func() ([]byte, error) {
		candidates, cerr := e.extractor.Extract(ctx, parsed.Content, parsed.DocumentType)
		if cerr != nil {
			return nil, cerr
		}
		return json.Marshal(candidates)
	})
	if err != nil {
		e.fail(ctx, workflowID, err)
		return
	}
	var candidates []extraction.Candidate
	if err := json.Unmarshal(candidatesBytes, &candidates); err != nil {
		e.fail(ctx, workflowID, err)
		return
	}

	summaryBytes, err := e.runStep(ctx, workflowID, stepPersist, func() ([]byte, error) {
		summary, perr := e.persist(ctx, in, parsed, candidates)
		if perr != nil {
			return nil, perr
		}
		return json.Marshal(summary)
	})
	if err != nil {
		e.fail(ctx, workflowID, err)
		return
	}

	_ = e.workflowStore.SetStatus(ctx, workflowID, string(StatusSuccess), summaryBytes, "")
}

// runStep replays a cached step output if present (the replay-by-skipping
// contract), else executes fn and persists its output.
func (e *Engine) runStep(ctx context.Context, workflowID, stepName string, fn func() ([]byte, error)) ([]byte, error) {
	if cached, found, err := e.workflowStore.GetStep(ctx, workflowID, stepName); err == nil && found {
		return cached, nil
	}
	out, err := fn()
	if err != nil {
		return nil, err
	}
	if err := e.workflowStore.PutStep(ctx, workflowID, stepName, out); err != nil {
		return nil, err
	}
	if e.events != nil {
		if err := e.events.Publish(ctx, events.NewWorkflowStepCompleted(workflowID, stepName)); err != nil {
			e.logger.Warn("failed to publish domain event", zap.String("step", stepName), zap.Error(err))
		}
	}
	return out, nil
}

func (e *Engine) fail(ctx context.Context, workflowID string, err error) {
	e.logger.Error("extraction workflow failed", zap.String("workflow_id", workflowID), zap.Error(err))
	_ = e.workflowStore.SetStatus(ctx, workflowID, string(StatusError), nil, err.Error())
}

// persist merges parsed fields onto the document entity, then creates
// every node candidate before attempting any relation candidate, since a
// relation's endpoints may reference a node created in this same batch.
func (e *Engine) persist(ctx context.Context, in Input, parsed parsedPayload, candidates []extraction.Candidate) (*PersistSummary, error) {
	docID := valueobjects.EntityID(in.DocumentID)
	doc, err := e.entityService.Get(ctx, in.InvestigationID, docID)
	if err != nil {
		return nil, apperrors.Validation("document entity must exist before persist: " + in.DocumentID)
	}

	bucket, err := e.objectStore.EnsureBucket(ctx, in.InvestigationID)
	if err != nil {
		return nil, err
	}
	sourceURI := fmt.Sprintf("s3://%s/%s/%s", bucket, in.DocumentID, in.Filename)
	merged := doc.Properties().ToMap()
	merged["fileName"] = []string{in.Filename}
	merged["mimeType"] = []string{parsed.MimeType}
	merged["bodyText"] = []string{parsed.Content}
	merged["sourceUrl"] = []string{sourceURI}
	merged["processingStatus"] = []string{"completed"}
	if _, err := e.entityService.Update(ctx, in.InvestigationID, docID, merged); err != nil {
		return nil, err
	}

	summary := &PersistSummary{DocumentID: in.DocumentID}
	nameCache := map[string]valueobjects.EntityID{}

	var relationCandidates []extraction.Candidate
	for _, c := range candidates {
		if e.catalog.IsRelationSchema(c.Schema) {
			relationCandidates = append(relationCandidates, c)
			continue
		}
		name := firstProp(c.Properties, "name")
		// Deterministic from (document, schema, name) so re-running persist
		// with the same candidates resolves to the same node instead of
		// creating a duplicate (P7).
		nodeID := valueobjects.DeterministicEntityID(in.DocumentID, c.Schema, name)
		created, err := e.entityService.Create(ctx, in.InvestigationID, nodeID.String(), c.Schema, c.Properties)
		if err != nil {
			if _, getErr := e.entityService.Get(ctx, in.InvestigationID, nodeID); getErr != nil {
				summary.Errors = append(summary.Errors, err.Error())
				continue
			}
			updated, updErr := e.entityService.Update(ctx, in.InvestigationID, nodeID, c.Properties)
			if updErr != nil {
				summary.Errors = append(summary.Errors, updErr.Error())
				continue
			}
			nameCache[strings.ToLower(updated.Name())] = updated.ID()
			continue
		}
		summary.NodesCreated++
		nameCache[strings.ToLower(created.Name())] = created.ID()
	}

	for _, c := range relationCandidates {
		props := ingest.ApplyAliases(c.Schema, c.Properties)
		sourceSlot, targetSlot, sourceRef, targetRef, ok := ingest.ResolveEndpoints(c.Schema, props)
		if !ok {
			summary.Errors = append(summary.Errors, "unresolved relation endpoints for "+c.Schema)
			continue
		}
		sourceID, sourceOK := e.resolveRef(ctx, in.InvestigationID, sourceRef, nameCache)
		targetID, targetOK := e.resolveRef(ctx, in.InvestigationID, targetRef, nameCache)
		if !sourceOK || !targetOK {
			summary.Errors = append(summary.Errors, "unresolved relation endpoints for "+c.Schema)
			continue
		}
		props[sourceSlot] = []string{sourceID.String()}
		props[targetSlot] = []string{targetID.String()}
		if len(props["proof"]) == 0 {
			props["proof"] = []string{in.DocumentID}
		}
		if err := e.catalog.Validate(c.Schema, props); err != nil {
			summary.Errors = append(summary.Errors, err.Error())
			continue
		}
		// Deterministic edge id: same (document, schema, endpoints) always
		// upserts the same edge, so a retried persist neither duplicates
		// edges nor re-counts them as newly created.
		edgeID := valueobjects.DeterministicEntityID(in.DocumentID, c.Schema, sourceID.String(), targetID.String())
		alreadyExists := e.edgeExists(ctx, in.InvestigationID, sourceID, edgeID.String())
		if _, err := e.entityService.CreateEdge(ctx, in.InvestigationID, edgeID.String(), c.Schema, sourceID, targetID, props); err != nil {
			summary.Errors = append(summary.Errors, err.Error())
			continue
		}
		if !alreadyExists {
			summary.EdgesCreated++
		}
	}

	summary.Processed = summary.NodesCreated + summary.EdgesCreated
	return summary, nil
}

// edgeExists reports whether an edge with the given id already touches
// source, used to keep the edges_created counter at 0 on a persist retry.
func (e *Engine) edgeExists(ctx context.Context, inv valueobjects.InvestigationID, source valueobjects.EntityID, edgeID string) bool {
	expanded, err := e.entityService.Expand(ctx, inv, source)
	if err != nil {
		return false
	}
	for _, edge := range expanded.Edges {
		if edge.ID() == edgeID {
			return true
		}
	}
	return false
}

// firstProp returns the first value of key in props, or "" if absent.
func firstProp(props map[string][]string, key string) string {
	if vs := props[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// resolveRef tries the in-memory name cache built this run first, then
// falls back to a graph lookup by id or by name via the entity service.
func (e *Engine) resolveRef(ctx context.Context, inv valueobjects.InvestigationID, ref string, cache map[string]valueobjects.EntityID) (valueobjects.EntityID, bool) {
	if id, ok := cache[strings.ToLower(ref)]; ok {
		return id, true
	}
	if ent, err := e.entityService.Get(ctx, inv, valueobjects.EntityID(ref)); err == nil {
		return ent.ID(), true
	}
	matches, err := e.entityService.List(ctx, inv, ref)
	if err != nil {
		return "", false
	}
	lowered := strings.ToLower(ref)
	for _, ent := range matches {
		for _, name := range ent.Properties().Get("name") {
			if strings.ToLower(name) == lowered {
				return ent.ID(), true
			}
		}
	}
	return "", false
}

// GetStatus implements get_status(workflow_id).
func (e *Engine) GetStatus(ctx context.Context, workflowID string) (Status, json.RawMessage, string, error) {
	status, result, errMsg, found, err := e.workflowStore.GetStatus(ctx, workflowID)
	if err != nil {
		return "", nil, "", err
	}
	if !found {
		return StatusNotFound, nil, "", nil
	}
	return Status(status), result, errMsg, nil
}
