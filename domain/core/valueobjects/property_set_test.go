package valueobjects

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromMapCopiesSlices(t *testing.T) {
	src := map[string][]string{"name": {"Acme Corp"}}
	ps := FromMap(src)
	src["name"][0] = "mutated"

	assert.Equal(t, "Acme Corp", ps.First("name"))
}

func TestPropertySetGetFirst(t *testing.T) {
	ps := FromMap(map[string][]string{"name": {"John Doe", "J. Doe"}})

	assert.Equal(t, []string{"John Doe", "J. Doe"}, ps.Get("name"))
	assert.Equal(t, "John Doe", ps.First("name"))
	assert.Equal(t, "", ps.First("missing"))
	assert.Nil(t, ps.Get("missing"))
}

func TestPropertySetSetEmptyClears(t *testing.T) {
	ps := FromMap(map[string][]string{"role": {"CEO"}})
	cleared := ps.Set("role", nil)

	assert.Empty(t, cleared.Get("role"))
	assert.Equal(t, []string{"CEO"}, ps.Get("role"), "Set must not mutate the receiver")
}

func TestPropertySetMergeOverlaysKeys(t *testing.T) {
	base := FromMap(map[string][]string{"role": {"CEO"}, "name": {"John"}})
	overlay := FromMap(map[string][]string{"role": {"CTO"}})

	merged := base.Merge(overlay)

	assert.Equal(t, []string{"CTO"}, merged.Get("role"))
	assert.Equal(t, []string{"John"}, merged.Get("name"))
	assert.Equal(t, []string{"CEO"}, base.Get("role"), "Merge must not mutate the receiver")
}

func TestPropertySetIsEmpty(t *testing.T) {
	assert.True(t, NewPropertySet().IsEmpty())
	assert.False(t, FromMap(map[string][]string{"name": {"x"}}).IsEmpty())
}

func TestPropertySetNormalizeTrimsAndDrops(t *testing.T) {
	ps := FromMap(map[string][]string{
		"name": {"  John   Doe  ", "   ", ""},
	})

	normalized := ps.Normalize()

	assert.Equal(t, []string{"John Doe"}, normalized.Get("name"))
}

func TestPropertySetToMapIsDefensiveCopy(t *testing.T) {
	ps := FromMap(map[string][]string{"name": {"Acme"}})
	m := ps.ToMap()
	m["name"][0] = "mutated"

	assert.Equal(t, "Acme", ps.First("name"))
}
