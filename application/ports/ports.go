// Package ports defines the capability interfaces the application layer
// depends on, one narrow repository-style interface per capability rather
// than one broad "graph handle" type: GraphStore exposes only the specific
// shapes the entity service, ingestor, workflow engine, and sanctions
// client actually use, not a general query language.
package ports

import (
	"context"

	"osintgraph/domain/core/entities"
	"osintgraph/domain/core/valueobjects"
)

// GraphStore is the graph store capability surface.
type GraphStore interface {
	CreateEntity(ctx context.Context, inv valueobjects.InvestigationID, e *entities.Entity) error
	GetEntity(ctx context.Context, inv valueobjects.InvestigationID, id valueobjects.EntityID) (*entities.Entity, error)
	ListEntities(ctx context.Context, inv valueobjects.InvestigationID, search string) ([]*entities.Entity, error)
	ListEntitiesBySchema(ctx context.Context, inv valueobjects.InvestigationID, schema string) ([]*entities.Entity, error)
	UpdateEntity(ctx context.Context, inv valueobjects.InvestigationID, e *entities.Entity) error
	DeleteEntity(ctx context.Context, inv valueobjects.InvestigationID, id valueobjects.EntityID) (bool, error)
	CountEntities(ctx context.Context, inv valueobjects.InvestigationID) (int, error)

	UpsertEdge(ctx context.Context, inv valueobjects.InvestigationID, e *entities.Edge) error
	EdgesOf(ctx context.Context, inv valueobjects.InvestigationID, id valueobjects.EntityID) ([]*entities.Edge, error)
	DeleteEdge(ctx context.Context, inv valueobjects.InvestigationID, id string) error
	ListGraphPage(ctx context.Context, inv valueobjects.InvestigationID, skip, limit int) ([]*entities.Entity, []*entities.Edge, int, error)

	DeleteGraph(ctx context.Context, inv valueobjects.InvestigationID) error

	PutInvestigationMeta(ctx context.Context, inv *entities.Investigation) error
	GetInvestigationMeta(ctx context.Context, id valueobjects.InvestigationID) (*entities.Investigation, error)
	ListInvestigationMeta(ctx context.Context) ([]*entities.Investigation, error)
	DeleteInvestigationMeta(ctx context.Context, id valueobjects.InvestigationID) error
}

// ObjectStore is the object store capability surface.
type ObjectStore interface {
	EnsureBucket(ctx context.Context, inv valueobjects.InvestigationID) (string, error)
	Put(ctx context.Context, inv valueobjects.InvestigationID, documentID, filename, contentType string, body []byte) (uri string, err error)
	Get(ctx context.Context, inv valueobjects.InvestigationID, documentID, filename string) ([]byte, error)
}

// WorkflowStore is the workflow engine's durability contract: step results
// keyed by (workflow_id, step_name), append-only once written.
type WorkflowStore interface {
	GetStep(ctx context.Context, workflowID, stepName string) (output []byte, found bool, err error)
	PutStep(ctx context.Context, workflowID, stepName string, output []byte) error
	SetStatus(ctx context.Context, workflowID string, status string, result []byte, errMsg string) error
	GetStatus(ctx context.Context, workflowID string) (status string, result []byte, errMsg string, found bool, err error)
}

// NotebookStore is the notebook store capability surface.
type NotebookStore interface {
	GetOrCreate(ctx context.Context, inv valueobjects.InvestigationID) (canvasDoc []byte, version int, err error)
	Save(ctx context.Context, inv valueobjects.InvestigationID, expectedVersion int, canvasDoc []byte) (newVersion int, err error)
}

// SanctionsSearcher is the sanctions search capability surface against the
// external Yente/OpenSanctions service.
type SanctionsSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]SanctionsHit, error)
	Adjacency(ctx context.Context, id string) (map[string]interface{}, error)
}

type SanctionsHit struct {
	ID         string
	Schema     string
	Caption    string
	Score      *float64
	Datasets   []string
	Properties map[string][]string
}

// EventPublisher fans out domain events to whatever sink is wired in.
type EventPublisher interface {
	Publish(ctx context.Context, event interface{ EventType() string }) error
}
