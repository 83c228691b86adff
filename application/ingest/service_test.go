package ingest

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osintgraph/domain/core/entities"
	"osintgraph/domain/core/valueobjects"
	"osintgraph/domain/schema"
	"osintgraph/internal/testfakes"
)

func newTestIngestService() (*Service, *testfakes.GraphStore) {
	store := testfakes.NewGraphStore()
	catalog := schema.NewCatalog()
	return NewService(store, catalog, zap.NewNop()), store
}

func TestParseRecordsJSONArray(t *testing.T) {
	records, err := ParseRecords([]byte(`[{"schema":"Person","properties":{"name":["A"]}}]`))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Person", records[0].Schema)
}

func TestParseRecordsNDJSON(t *testing.T) {
	data := []byte("{\"schema\":\"Person\",\"properties\":{\"name\":[\"A\"]}}\n{\"schema\":\"Company\",\"properties\":{\"name\":[\"B\"]}}\n")
	records, err := ParseRecords(data)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Person", records[0].Schema)
	assert.Equal(t, "Company", records[1].Schema)
}

func TestParseRecordsEmptyInput(t *testing.T) {
	records, err := ParseRecords([]byte("   "))
	require.NoError(t, err)
	assert.Empty(t, records)
}

// Employment properties keyed by person/organization/role must resolve
// against already-known entities via alias and name lookup.
func TestIngestEmploymentAliasResolution(t *testing.T) {
	svc, store := newTestIngestService()
	inv := valueobjects.NewInvestigationID()
	ctx := context.Background()

	person := entities.NewEntity("person-1", inv, "Person", valueobjects.FromMap(map[string][]string{"name": {"John Doe"}}))
	require.NoError(t, store.CreateEntity(ctx, inv, person))
	company := entities.NewEntity("company-1", inv, "Company", valueobjects.FromMap(map[string][]string{"name": {"Acme Corp"}}))
	require.NoError(t, store.CreateEntity(ctx, inv, company))

	result := svc.Ingest(ctx, inv, []Record{
		{Schema: "Employment", Properties: map[string][]string{
			"person": {"John Doe"}, "organization": {"Acme Corp"}, "role": {"CEO"},
		}},
	})

	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 0, result.NodesCreated)
	assert.Equal(t, 1, result.EdgesCreated)
	assert.Empty(t, result.Errors)

	edges, err := store.EdgesOf(ctx, inv, valueobjects.EntityID("person-1"))
	require.NoError(t, err)
	require.Len(t, edges, 1)
	e := edges[0]
	assert.Equal(t, "Employment", e.Schema())
	assert.Equal(t, valueobjects.EntityID("person-1"), e.Source())
	assert.Equal(t, valueobjects.EntityID("company-1"), e.Target())
	assert.Equal(t, []string{"person-1"}, e.Properties().Get("employee"))
	assert.Equal(t, []string{"company-1"}, e.Properties().Get("employer"))
	assert.Equal(t, []string{"CEO"}, e.Properties().Get("role"))
}

// A relation record whose endpoints can't be resolved against any
// existing entity must be reported as an error, not silently dropped.
func TestIngestUnresolvedEndpointsReportsError(t *testing.T) {
	svc, _ := newTestIngestService()
	inv := valueobjects.NewInvestigationID()
	ctx := context.Background()

	result := svc.Ingest(ctx, inv, []Record{
		{Schema: "Ownership", Properties: map[string][]string{
			"owner": {"Nobody"}, "asset": {"Nothing"},
		}},
	})

	assert.Equal(t, 0, result.EdgesCreated)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "unresolved relation endpoints")
}

func TestIngestNodeCreateThenUpdateOnDuplicateID(t *testing.T) {
	svc, store := newTestIngestService()
	inv := valueobjects.NewInvestigationID()
	ctx := context.Background()

	result := svc.Ingest(ctx, inv, []Record{
		{ID: "p1", Schema: "Person", Properties: map[string][]string{"name": {"John"}}},
		{ID: "p1", Schema: "Person", Properties: map[string][]string{"name": {"John Updated"}}},
	})

	assert.Equal(t, 1, result.NodesCreated)
	assert.Empty(t, result.Errors)

	fetched, err := store.GetEntity(ctx, inv, "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"John Updated"}, fetched.Properties().Get("name"))
}

func TestIngestMissingSchemaIsRecordedAsError(t *testing.T) {
	svc, _ := newTestIngestService()
	inv := valueobjects.NewInvestigationID()
	ctx := context.Background()

	result := svc.Ingest(ctx, inv, []Record{
		{Properties: map[string][]string{"name": {"No Schema"}}},
	})

	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 0, result.NodesCreated)
	require.Len(t, result.Errors, 1)
}

func TestIngestOneBadRecordDoesNotAbortBatch(t *testing.T) {
	svc, _ := newTestIngestService()
	inv := valueobjects.NewInvestigationID()
	ctx := context.Background()

	result := svc.Ingest(ctx, inv, []Record{
		{Properties: map[string][]string{"name": {"No Schema"}}},
		{ID: "p1", Schema: "Person", Properties: map[string][]string{"name": {"Valid"}}},
	})

	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.NodesCreated)
	require.Len(t, result.Errors, 1)
}
