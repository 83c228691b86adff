package valueobjects

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// InvestigationID identifies a tenancy boundary: one graph, one bucket, one
// notebook.
type InvestigationID string

func NewInvestigationID() InvestigationID {
	return InvestigationID(uuid.NewString())
}

func NewInvestigationIDFromString(s string) (InvestigationID, error) {
	if s == "" {
		return "", fmt.Errorf("investigation id cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("invalid investigation id %q: %w", s, err)
	}
	return InvestigationID(s), nil
}

func (id InvestigationID) String() string { return string(id) }

func (id InvestigationID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(id))
}

func (id *InvestigationID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*id = InvestigationID(s)
	return nil
}

// EntityID identifies a node within one investigation graph. It may be
// client-supplied (ingest, dedup merge) so, unlike InvestigationID, it does
// not require UUID shape.
type EntityID string

func NewEntityID() EntityID {
	return EntityID(uuid.NewString())
}

func NewEntityIDFromString(s string) (EntityID, error) {
	if s == "" {
		return "", fmt.Errorf("entity id cannot be empty")
	}
	return EntityID(s), nil
}

func (id EntityID) String() string { return string(id) }

func (id EntityID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(id))
}

func (id *EntityID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*id = EntityID(s)
	return nil
}

// extractionNamespace seeds the deterministic ids the extraction workflow's
// persist step assigns to node and edge candidates, so re-running persist
// with the same inputs resolves to the same ids instead of creating
// duplicates (the workflow's only non-idempotent step made idempotent).
var extractionNamespace = uuid.MustParse("8f14e45f-ceea-467e-bd26-7bcb2a5b39f1")

// DeterministicEntityID derives a stable id from the given parts via
// UUIDv5, so the same (document, schema, name) seed always yields the same
// entity id across retries.
func DeterministicEntityID(parts ...string) EntityID {
	seed := ""
	for i, p := range parts {
		if i > 0 {
			seed += "\x1f"
		}
		seed += p
	}
	return EntityID(uuid.NewSHA1(extractionNamespace, []byte(seed)).String())
}

// WorkflowID identifies one durable extraction workflow run.
type WorkflowID string

func NewWorkflowID() WorkflowID {
	return WorkflowID(uuid.NewString())
}

func (id WorkflowID) String() string { return string(id) }
