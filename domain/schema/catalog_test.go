package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCatalogHasFallbackSchemas(t *testing.T) {
	c := NewCatalog()

	for _, name := range []string{"Thing", "Person", "Company", "Organization", "Document"} {
		assert.True(t, c.Exists(name), "expected built-in schema %s", name)
	}
	for _, name := range RelationSchemaNames() {
		assert.True(t, c.Exists(name), "expected relation schema %s", name)
		s, ok := c.Get(name)
		require.True(t, ok)
		assert.True(t, s.IsRelation)
	}
}

func TestIsRelationSchema(t *testing.T) {
	c := NewCatalog()

	assert.True(t, c.IsRelationSchema("Ownership"))
	assert.False(t, c.IsRelationSchema("Person"))
	assert.False(t, c.IsRelationSchema("NoSuchSchema"))
}

func TestEndpointsFor(t *testing.T) {
	primary, alternate, ok := EndpointsFor("Ownership")
	require.True(t, ok)
	assert.Equal(t, EndpointPair{"owner", "asset"}, primary)
	assert.Equal(t, EndpointPair{"source", "target"}, alternate)

	_, _, ok = EndpointsFor("Associate")
	require.True(t, ok)

	_, _, ok = EndpointsFor("NotARelation")
	assert.False(t, ok)
}

func TestValidateUnknownSchemaRejected(t *testing.T) {
	c := NewCatalog()
	err := c.Validate("NoSuchSchema", map[string][]string{"name": {"x"}})
	assert.Error(t, err)
}

func TestValidateUnknownPropertyKeyAccepted(t *testing.T) {
	c := NewCatalog()
	err := c.Validate("Person", map[string][]string{"favoriteColor": {"blue"}})
	assert.NoError(t, err)
}

func TestValidateDateType(t *testing.T) {
	c := NewCatalog()

	assert.NoError(t, c.Validate("Person", map[string][]string{"birthDate": {"1990-01-02"}}))
	assert.NoError(t, c.Validate("Person", map[string][]string{"birthDate": {"1990"}}))
	assert.NoError(t, c.Validate("Person", map[string][]string{"birthDate": {"1990-01"}}))
	assert.Error(t, c.Validate("Person", map[string][]string{"birthDate": {"not-a-date"}}))
}

func TestValidateNumberType(t *testing.T) {
	c := NewCatalog()

	assert.NoError(t, c.Validate("Ownership", map[string][]string{"amount": {"42.5"}}))
	assert.Error(t, c.Validate("Ownership", map[string][]string{"amount": {"not-a-number"}}))
}

func TestValidateAllowListedKeysBypassTypeChecks(t *testing.T) {
	c := NewCatalog()
	// Ownership declares "confidence" nowhere near its own property map, but
	// the relation schemas all declare "amount" as typed - use the
	// allow-listed "confidence" key instead, which must bypass checks even
	// though it would fail a number check if it were typed.
	err := c.Validate("Ownership", map[string][]string{
		"confidence": {"not-a-number-but-allowed-key-skips-check"},
	})
	assert.NoError(t, err)
}
