package enrichment

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appentities "osintgraph/application/entities"
	"osintgraph/application/ports"
	"osintgraph/domain/core/entities"
	"osintgraph/domain/core/valueobjects"
	"osintgraph/domain/schema"
	"osintgraph/internal/testfakes"
)

func newTestService(t *testing.T) (*Service, *testfakes.GraphStore, *testfakes.SanctionsSearcher, valueobjects.InvestigationID) {
	store := testfakes.NewGraphStore()
	catalog := schema.NewCatalog()
	entitySvc := appentities.NewService(store, catalog, zap.NewNop(), &testfakes.EventPublisher{})
	searcher := &testfakes.SanctionsSearcher{}
	svc := NewService(searcher, store, entitySvc, zap.NewNop())

	inv := valueobjects.NewInvestigationID()
	ctx := context.Background()
	queried := entities.NewEntity("queried-id", inv, "Person", valueobjects.NewPropertySet())
	require.NoError(t, store.CreateEntity(ctx, inv, queried))
	present := entities.NewEntity("present-id", inv, "Person", valueobjects.NewPropertySet())
	require.NoError(t, store.CreateEntity(ctx, inv, present))

	return svc, store, searcher, inv
}

func TestLinkCreatesEdgeForEachSurvivingAdjacentID(t *testing.T) {
	svc, store, searcher, inv := newTestService(t)
	ctx := context.Background()

	searcher.AdjacencyData = map[string]map[string]interface{}{
		"queried-id": {"_adjacent_ids": []string{"present-id", "absent-id", "queried-id"}},
	}

	result, err := svc.Link(ctx, inv, "queried-id")
	require.NoError(t, err)

	assert.Equal(t, []string{"present-id"}, result.LinkedIDs, "only ids present in this investigation's graph, excluding the queried id itself, are linked")
	assert.Equal(t, 1, result.Count)

	edges, err := store.EdgesOf(ctx, inv, "queried-id")
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, "YenteAdjacent", edges[0].Schema())
	assert.Equal(t, []string{"yente"}, edges[0].Properties().Get("source"))
}

func TestLinkFailsForUnknownEntity(t *testing.T) {
	svc, _, _, inv := newTestService(t)
	_, err := svc.Link(context.Background(), inv, "does-not-exist")
	assert.Error(t, err)
}

func TestLinkWithNoAdjacentIDsReturnsEmpty(t *testing.T) {
	svc, _, searcher, inv := newTestService(t)
	searcher.AdjacencyData = map[string]map[string]interface{}{"queried-id": {}}

	result, err := svc.Link(context.Background(), inv, "queried-id")
	require.NoError(t, err)
	assert.Empty(t, result.LinkedIDs)
	assert.Equal(t, 0, result.Count)
}

func TestSearchProxiesSearcher(t *testing.T) {
	svc, _, searcher, _ := newTestService(t)
	searcher.Hits = []ports.SanctionsHit{{ID: "hit-1", Schema: "Company", Caption: "Acme Corp"}}

	hits, err := svc.Search(context.Background(), "acme", 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}
