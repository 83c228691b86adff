package workflow

import (
	"context"
	"encoding/json"
	"testing"

	"go.uber.org/zap"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osintgraph/application/entities"
	"osintgraph/domain/core/valueobjects"
	"osintgraph/domain/schema"
	"osintgraph/infrastructure/extraction"
	"osintgraph/internal/testfakes"
)

func newTestEngine() (*Engine, *testfakes.GraphStore, *testfakes.WorkflowStore) {
	store := testfakes.NewGraphStore()
	catalog := schema.NewCatalog()
	entitySvc := entities.NewService(store, catalog, zap.NewNop(), &testfakes.EventPublisher{})
	workflowStore := testfakes.NewWorkflowStore()
	engine := NewEngine(workflowStore, testfakes.NewObjectStore(), entitySvc, catalog, nil, zap.NewNop(), &testfakes.EventPublisher{})
	return engine, store, workflowStore
}

func TestRunStepExecutesOnceAndCachesOutput(t *testing.T) {
	engine, _, workflowStore := newTestEngine()
	ctx := context.Background()

	calls := 0
	fn := func() ([]byte, error) {
		calls++
		return []byte("result"), nil
	}

	out, err := engine.runStep(ctx, "wf-1", stepDownload, fn)
	require.NoError(t, err)
	assert.Equal(t, "result", string(out))
	assert.Equal(t, 1, calls)

	out, err = engine.runStep(ctx, "wf-1", stepDownload, fn)
	require.NoError(t, err)
	assert.Equal(t, "result", string(out))
	assert.Equal(t, 1, calls, "a cached step must replay its stored output instead of calling fn again")
	assert.Equal(t, 1, workflowStore.StepCallCount("wf-1", stepDownload))
}

func TestRunStepPropagatesFailureWithoutCaching(t *testing.T) {
	engine, _, workflowStore := newTestEngine()
	ctx := context.Background()

	_, err := engine.runStep(ctx, "wf-2", stepParse, func() ([]byte, error) {
		return nil, assert.AnError
	})
	assert.Error(t, err)
	assert.Equal(t, 0, workflowStore.StepCallCount("wf-2", stepParse))
}

func TestGetStatusReportsNotFoundForUnknownWorkflow(t *testing.T) {
	engine, _, _ := newTestEngine()
	status, _, _, err := engine.GetStatus(context.Background(), "does-not-exist")
	require.NoError(t, err)
	assert.Equal(t, StatusNotFound, status)
}

func TestGetStatusReflectsStoredResult(t *testing.T) {
	engine, _, workflowStore := newTestEngine()
	ctx := context.Background()

	summary := PersistSummary{DocumentID: "doc-1", NodesCreated: 2}
	raw, err := json.Marshal(summary)
	require.NoError(t, err)
	require.NoError(t, workflowStore.SetStatus(ctx, "wf-3", string(StatusSuccess), raw, ""))

	status, result, errMsg, err := engine.GetStatus(ctx, "wf-3")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, status)
	assert.Empty(t, errMsg)

	var got PersistSummary
	require.NoError(t, json.Unmarshal(result, &got))
	assert.Equal(t, summary, got)
}

func TestResolveRefPrefersNameCacheOverGraphLookup(t *testing.T) {
	engine, store, _ := newTestEngine()
	inv := valueobjects.NewInvestigationID()
	ctx := context.Background()

	cache := map[string]valueobjects.EntityID{"john doe": "cached-id"}

	id, ok := engine.resolveRef(ctx, inv, "John Doe", cache)
	assert.True(t, ok)
	assert.Equal(t, valueobjects.EntityID("cached-id"), id)
	_ = store
}

func TestResolveRefFallsBackToGraphLookupByIDThenName(t *testing.T) {
	engine, store, _ := newTestEngine()
	inv := valueobjects.NewInvestigationID()
	ctx := context.Background()

	created, err := engine.entityService.Create(ctx, inv, "person-42", "Person", map[string][]string{"name": {"Jane Roe"}})
	require.NoError(t, err)

	id, ok := engine.resolveRef(ctx, inv, "person-42", map[string]valueobjects.EntityID{})
	assert.True(t, ok)
	assert.Equal(t, created.ID(), id)

	id, ok = engine.resolveRef(ctx, inv, "Jane Roe", map[string]valueobjects.EntityID{})
	assert.True(t, ok)
	assert.Equal(t, created.ID(), id)

	_, ok = engine.resolveRef(ctx, inv, "Nobody At All", map[string]valueobjects.EntityID{})
	assert.False(t, ok)
	_ = store
}

func TestPersistCreatesNodesThenRelationsAndUpdatesDocument(t *testing.T) {
	engine, store, _ := newTestEngine()
	inv := valueobjects.NewInvestigationID()
	ctx := context.Background()

	doc, err := engine.entityService.Create(ctx, inv, "doc-1", "Document", map[string][]string{"title": {"memo"}})
	require.NoError(t, err)

	candidates := []extraction.Candidate{
		{Schema: "Person", Properties: map[string][]string{"name": {"Alice"}}},
		{Schema: "Company", Properties: map[string][]string{"name": {"Acme"}}},
		{Schema: "Employment", Properties: map[string][]string{
			"person": {"Alice"}, "organization": {"Acme"}, "role": {"CEO"},
		}},
	}

	summary, err := engine.persist(ctx, Input{InvestigationID: inv, DocumentID: "doc-1", Filename: "memo.txt"},
		parsedPayload{Content: "Alice works at Acme", MimeType: "text/plain"}, candidates)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.NodesCreated)
	assert.Equal(t, 1, summary.EdgesCreated)
	assert.Empty(t, summary.Errors)

	updatedDoc, err := store.GetEntity(ctx, inv, doc.ID())
	require.NoError(t, err)
	assert.Equal(t, []string{"memo.txt"}, updatedDoc.Properties().Get("fileName"))
	assert.Equal(t, []string{"completed"}, updatedDoc.Properties().Get("processingStatus"))

	edges, err := store.EdgesOf(ctx, inv, doc.ID())
	require.NoError(t, err)
	assert.Empty(t, edges, "the Employment edge connects Alice and Acme, not the document")
}

func TestPersistRecordsErrorForUnresolvedRelation(t *testing.T) {
	engine, _, _ := newTestEngine()
	inv := valueobjects.NewInvestigationID()
	ctx := context.Background()

	_, err := engine.entityService.Create(ctx, inv, "doc-1", "Document", nil)
	require.NoError(t, err)

	candidates := []extraction.Candidate{
		{Schema: "Employment", Properties: map[string][]string{"role": {"CEO"}}},
	}

	summary, err := engine.persist(ctx, Input{InvestigationID: inv, DocumentID: "doc-1", Filename: "memo.txt"},
		parsedPayload{Content: "irrelevant"}, candidates)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.EdgesCreated)
	require.Len(t, summary.Errors, 1)
}
