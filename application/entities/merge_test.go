package entities

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osintgraph/domain/core/valueobjects"
)

// Edges whose other endpoint survives the merge must be rewired onto
// the target in the same direction, and every merged-away source
// entity must be removed.
func TestMergeRewiresEdgesAndDeletesSources(t *testing.T) {
	svc, _ := newTestService()
	inv := valueobjects.NewInvestigationID()
	ctx := context.Background()

	p1, err := svc.Create(ctx, inv, "p1", "Person", map[string][]string{"name": {"P1"}})
	require.NoError(t, err)
	p2, err := svc.Create(ctx, inv, "p2", "Person", map[string][]string{"name": {"P2"}})
	require.NoError(t, err)
	p3, err := svc.Create(ctx, inv, "p3", "Person", map[string][]string{"name": {"P3"}})
	require.NoError(t, err)

	_, err = svc.CreateEdge(ctx, inv, "e1", "Associate", p1.ID(), p3.ID(), map[string][]string{"role": {"knows"}})
	require.NoError(t, err)
	_, err = svc.CreateEdge(ctx, inv, "e2", "Associate", p3.ID(), p2.ID(), map[string][]string{"role": {"works_with"}})
	require.NoError(t, err)

	result, err := svc.Merge(ctx, inv, []valueobjects.EntityID{p1.ID(), p2.ID()}, p2.ID(), nil)
	require.NoError(t, err)
	assert.Equal(t, p2.ID(), result.Target.ID())
	assert.Equal(t, []valueobjects.EntityID{p1.ID()}, result.MergedSourceIDs)

	_, err = svc.Get(ctx, inv, p1.ID())
	assert.Error(t, err, "merged-away source must no longer exist")

	expandP2, err := svc.Expand(ctx, inv, p2.ID())
	require.NoError(t, err)
	require.Len(t, expandP2.Edges, 2)

	var sawP2KnowsP3, sawP3WorksWithP2 bool
	for _, e := range expandP2.Edges {
		if e.Schema() == "Associate" && e.Source() == p2.ID() && e.Target() == p3.ID() {
			sawP2KnowsP3 = true
			assert.Equal(t, []string{"knows"}, e.Properties().Get("role"))
		}
		if e.Schema() == "Associate" && e.Source() == p3.ID() && e.Target() == p2.ID() {
			sawP3WorksWithP2 = true
			assert.Equal(t, []string{"works_with"}, e.Properties().Get("role"))
		}
	}
	assert.True(t, sawP2KnowsP3, "P1 -> P3 edge must be rewired to P2 -> P3")
	assert.True(t, sawP3WorksWithP2, "P3 -> P2 edge must survive unchanged")
}

func TestMergeRequiresAtLeastTwoDistinctSources(t *testing.T) {
	svc, _ := newTestService()
	inv := valueobjects.NewInvestigationID()
	ctx := context.Background()

	p1, err := svc.Create(ctx, inv, "p1", "Person", nil)
	require.NoError(t, err)

	_, err = svc.Merge(ctx, inv, []valueobjects.EntityID{p1.ID(), p1.ID()}, p1.ID(), nil)
	assert.Error(t, err)
}

func TestMergeRequiresTargetAmongSources(t *testing.T) {
	svc, _ := newTestService()
	inv := valueobjects.NewInvestigationID()
	ctx := context.Background()

	p1, _ := svc.Create(ctx, inv, "p1", "Person", nil)
	p2, _ := svc.Create(ctx, inv, "p2", "Person", nil)
	other, _ := svc.Create(ctx, inv, "other", "Person", nil)

	_, err := svc.Merge(ctx, inv, []valueobjects.EntityID{p1.ID(), p2.ID()}, other.ID(), nil)
	assert.Error(t, err)
}

func TestMergeRequiresSameSchema(t *testing.T) {
	svc, _ := newTestService()
	inv := valueobjects.NewInvestigationID()
	ctx := context.Background()

	p1, _ := svc.Create(ctx, inv, "p1", "Person", nil)
	c1, _ := svc.Create(ctx, inv, "c1", "Company", nil)

	_, err := svc.Merge(ctx, inv, []valueobjects.EntityID{p1.ID(), c1.ID()}, p1.ID(), nil)
	assert.Error(t, err)
}

func TestMergeUnionsPropertiesWhenNoneSupplied(t *testing.T) {
	svc, _ := newTestService()
	inv := valueobjects.NewInvestigationID()
	ctx := context.Background()

	p1, _ := svc.Create(ctx, inv, "p1", "Person", map[string][]string{"name": {"P1"}, "nationality": {"us"}})
	p2, _ := svc.Create(ctx, inv, "p2", "Person", map[string][]string{"name": {"P2"}})

	result, err := svc.Merge(ctx, inv, []valueobjects.EntityID{p1.ID(), p2.ID()}, p2.ID(), nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"P2", "P1"}, result.Target.Properties().Get("name"))
	assert.Equal(t, []string{"us"}, result.Target.Properties().Get("nationality"))
}

func TestMergeDropsSelfLoopAfterRewire(t *testing.T) {
	svc, _ := newTestService()
	inv := valueobjects.NewInvestigationID()
	ctx := context.Background()

	p1, _ := svc.Create(ctx, inv, "p1", "Person", nil)
	p2, _ := svc.Create(ctx, inv, "p2", "Person", nil)

	// An edge directly between the two merge candidates becomes a self
	// loop on the target after rewrite and must be dropped.
	_, err := svc.CreateEdge(ctx, inv, "e1", "Associate", p1.ID(), p2.ID(), nil)
	require.NoError(t, err)

	_, err = svc.Merge(ctx, inv, []valueobjects.EntityID{p1.ID(), p2.ID()}, p2.ID(), nil)
	require.NoError(t, err)

	expanded, err := svc.Expand(ctx, inv, p2.ID())
	require.NoError(t, err)
	assert.Empty(t, expanded.Edges)
}

func TestMergeWithExplicitMergedProperties(t *testing.T) {
	svc, _ := newTestService()
	inv := valueobjects.NewInvestigationID()
	ctx := context.Background()

	p1, _ := svc.Create(ctx, inv, "p1", "Person", map[string][]string{"name": {"P1"}})
	p2, _ := svc.Create(ctx, inv, "p2", "Person", map[string][]string{"name": {"P2"}})

	result, err := svc.Merge(ctx, inv, []valueobjects.EntityID{p1.ID(), p2.ID()}, p2.ID(),
		map[string][]string{"name": {"Canonical Name"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Canonical Name"}, result.Target.Properties().Get("name"))
}
