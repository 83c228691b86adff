package investigations

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osintgraph/domain/core/entities"
	"osintgraph/domain/core/valueobjects"
	"osintgraph/internal/testfakes"
)

func newTestService() (*Service, *testfakes.GraphStore) {
	store := testfakes.NewGraphStore()
	objStore := testfakes.NewObjectStore()
	return NewService(store, objStore, zap.NewNop(), &testfakes.EventPublisher{}), store
}

func TestCreateAssignsIDAndPersistsMeta(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	inv, err := svc.Create(ctx, "Panama Papers Follow-up", "investigating shell companies")
	require.NoError(t, err)
	assert.NotEmpty(t, inv.ID())
	assert.Equal(t, "Panama Papers Follow-up", inv.Name())

	fetched, err := svc.Get(ctx, inv.ID())
	require.NoError(t, err)
	assert.Equal(t, inv.ID(), fetched.ID())
}

func TestCreateRejectsEmptyName(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Create(context.Background(), "", "")
	assert.Error(t, err)
}

func TestCreateRejectsOverlongName(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Create(context.Background(), strings.Repeat("x", 256), "")
	assert.Error(t, err)
}

func TestListReturnsAllCreatedInvestigations(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "Case A", "")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "Case B", "")
	require.NoError(t, err)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDeleteCascadesMetaAndGraph(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	inv, err := svc.Create(ctx, "To Delete", "")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, inv.ID()))

	_, err = svc.Get(ctx, inv.ID())
	assert.Error(t, err)

	count, err := store.CountEntities(ctx, inv.ID())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestDeleteNonExistentInvestigationFails(t *testing.T) {
	svc, _ := newTestService()
	err := svc.Delete(context.Background(), "does-not-exist")
	assert.Error(t, err)
}

func TestGetSummaryFansInEntityCount(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	inv, err := svc.Create(ctx, "Summary Case", "")
	require.NoError(t, err)

	entity := entities.NewEntity(valueobjects.NewEntityID(), inv.ID(), "Thing", valueobjects.NewPropertySet())
	require.NoError(t, store.CreateEntity(ctx, inv.ID(), entity))

	summary, err := svc.GetSummary(ctx, inv.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.EntityCount)
}
