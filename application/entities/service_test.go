package entities

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osintgraph/domain/core/valueobjects"
	"osintgraph/domain/schema"
	apperrors "osintgraph/pkg/errors"
	"osintgraph/internal/testfakes"
)

func newTestService() (*Service, *testfakes.GraphStore) {
	store := testfakes.NewGraphStore()
	catalog := schema.NewCatalog()
	svc := NewService(store, catalog, zap.NewNop(), &testfakes.EventPublisher{})
	return svc, store
}

func TestCreateAssignsUUIDWhenIDAbsent(t *testing.T) {
	svc, _ := newTestService()
	inv := valueobjects.NewInvestigationID()

	e, err := svc.Create(context.Background(), inv, "", "Person", map[string][]string{"name": {"John Doe"}})
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID())
	assert.Equal(t, "Person", e.Schema())
	assert.Equal(t, []string{"John Doe"}, e.Properties().Get("name"))
}

func TestCreateDefaultsToThingSchema(t *testing.T) {
	svc, _ := newTestService()
	inv := valueobjects.NewInvestigationID()

	e, err := svc.Create(context.Background(), inv, "", "", map[string][]string{"name": {"Mystery"}})
	require.NoError(t, err)
	assert.Equal(t, "Thing", e.Schema())
}

func TestCreateFailsWhenIDAlreadyExists(t *testing.T) {
	svc, _ := newTestService()
	inv := valueobjects.NewInvestigationID()
	ctx := context.Background()

	_, err := svc.Create(ctx, inv, "person-1", "Person", map[string][]string{"name": {"John"}})
	require.NoError(t, err)

	_, err = svc.Create(ctx, inv, "person-1", "Person", map[string][]string{"name": {"Someone Else"}})
	assert.Error(t, err)
}

func TestCreateValidatesSchemaProperties(t *testing.T) {
	svc, _ := newTestService()
	inv := valueobjects.NewInvestigationID()

	_, err := svc.Create(context.Background(), inv, "", "Person", map[string][]string{"birthDate": {"not-a-date"}})
	assert.Error(t, err)
	var de *apperrors.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, apperrors.SchemaErrorKind, de.Kind)
}

// A created entity read back must keep every non-empty property list,
// with cleaning already applied.
func TestCreateGetRoundTripPreservesProperties(t *testing.T) {
	svc, _ := newTestService()
	inv := valueobjects.NewInvestigationID()
	ctx := context.Background()

	created, err := svc.Create(ctx, inv, "", "Person", map[string][]string{
		"name":    {"  John   Doe  "},
		"country": {"US"},
	})
	require.NoError(t, err)

	fetched, err := svc.Get(ctx, inv, created.ID())
	require.NoError(t, err)
	assert.Equal(t, []string{"John Doe"}, fetched.Properties().Get("name"))
	assert.Equal(t, []string{"us"}, fetched.Properties().Get("country"))
}

func TestGetNotFound(t *testing.T) {
	svc, _ := newTestService()
	inv := valueobjects.NewInvestigationID()

	_, err := svc.Get(context.Background(), inv, valueobjects.EntityID("missing"))
	assert.Error(t, err)
	var de *apperrors.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, apperrors.NotFoundError, de.Kind)
}

// Deleting the same entity twice must report true then false, never error.
func TestDeleteIsIdempotent(t *testing.T) {
	svc, _ := newTestService()
	inv := valueobjects.NewInvestigationID()
	ctx := context.Background()

	e, err := svc.Create(ctx, inv, "", "Person", map[string][]string{"name": {"John"}})
	require.NoError(t, err)

	first, err := svc.Delete(ctx, inv, e.ID())
	require.NoError(t, err)
	assert.True(t, first)

	second, err := svc.Delete(ctx, inv, e.ID())
	require.NoError(t, err)
	assert.False(t, second)
}

func TestUpdateReplacesPropertySetWholesale(t *testing.T) {
	svc, _ := newTestService()
	inv := valueobjects.NewInvestigationID()
	ctx := context.Background()

	e, err := svc.Create(ctx, inv, "", "Person", map[string][]string{"name": {"John"}, "role": {"CEO"}})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, inv, e.ID(), map[string][]string{"name": {"John"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"John"}, updated.Properties().Get("name"))
	assert.Empty(t, updated.Properties().Get("role"), "update must wholly replace the property set")
}

func TestListSearchMatchesIDOrName(t *testing.T) {
	svc, _ := newTestService()
	inv := valueobjects.NewInvestigationID()
	ctx := context.Background()

	_, err := svc.Create(ctx, inv, "acme-id", "Company", map[string][]string{"name": {"Acme Corp"}})
	require.NoError(t, err)
	_, err = svc.Create(ctx, inv, "other-id", "Company", map[string][]string{"name": {"Other Inc"}})
	require.NoError(t, err)

	results, err := svc.List(ctx, inv, "acme")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, valueobjects.EntityID("acme-id"), results[0].ID())
}

// Expand must follow edges in both directions and never list the
// entity itself as one of its own neighbors.
func TestExpandIsBidirectionalAndExcludesSelf(t *testing.T) {
	svc, _ := newTestService()
	inv := valueobjects.NewInvestigationID()
	ctx := context.Background()

	a, err := svc.Create(ctx, inv, "a", "Person", map[string][]string{"name": {"A"}})
	require.NoError(t, err)
	b, err := svc.Create(ctx, inv, "b", "Person", map[string][]string{"name": {"B"}})
	require.NoError(t, err)

	_, err = svc.CreateEdge(ctx, inv, "", "Associate", a.ID(), b.ID(), map[string][]string{})
	require.NoError(t, err)

	expandA, err := svc.Expand(ctx, inv, a.ID())
	require.NoError(t, err)
	require.Len(t, expandA.Edges, 1)
	require.Len(t, expandA.Neighbors, 1)
	assert.Equal(t, b.ID(), expandA.Neighbors[0].ID())

	expandB, err := svc.Expand(ctx, inv, b.ID())
	require.NoError(t, err)
	require.Len(t, expandB.Edges, 1)
	require.Len(t, expandB.Neighbors, 1)
	assert.Equal(t, a.ID(), expandB.Neighbors[0].ID())

	for _, n := range expandA.Neighbors {
		assert.NotEqual(t, a.ID(), n.ID())
	}
}

func TestCreateEdgeValidatesSchema(t *testing.T) {
	svc, _ := newTestService()
	inv := valueobjects.NewInvestigationID()
	ctx := context.Background()

	a, _ := svc.Create(ctx, inv, "a", "Person", nil)
	b, _ := svc.Create(ctx, inv, "b", "Person", nil)

	_, err := svc.CreateEdge(ctx, inv, "", "NotARealSchema", a.ID(), b.ID(), nil)
	assert.Error(t, err)
}
