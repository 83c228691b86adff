package valueobjects

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInvestigationID(t *testing.T) {
	id := NewInvestigationID()

	assert.NotEmpty(t, id.String())
	_, err := uuid.Parse(id.String())
	assert.NoError(t, err)
}

func TestNewInvestigationIDFromString(t *testing.T) {
	valid := uuid.New().String()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid uuid", input: valid, wantErr: false},
		{name: "empty string", input: "", wantErr: true},
		{name: "not a uuid", input: "not-a-uuid", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := NewInvestigationIDFromString(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, id.String())
		})
	}
}

func TestInvestigationIDJSONRoundTrip(t *testing.T) {
	id := NewInvestigationID()

	data, err := json.Marshal(id)
	require.NoError(t, err)

	var decoded InvestigationID
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, id, decoded)
}

func TestEntityIDFromStringRejectsEmpty(t *testing.T) {
	_, err := NewEntityIDFromString("")
	assert.Error(t, err)
}

func TestEntityIDFromStringAcceptsNonUUID(t *testing.T) {
	// Unlike InvestigationID, client-supplied entity ids need not be UUIDs
	// (ingest and merge both accept arbitrary caller-chosen ids).
	id, err := NewEntityIDFromString("person-1")
	require.NoError(t, err)
	assert.Equal(t, "person-1", id.String())
}

func TestNewWorkflowIDIsUnique(t *testing.T) {
	a := NewWorkflowID()
	b := NewWorkflowID()
	assert.NotEqual(t, a, b)
}
