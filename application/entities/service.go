// Package entities implements the entity service: CRUD, expansion,
// duplicate-candidate scoring, and transactional merge-with-rewire, called
// directly rather than bus-dispatched since its operations carry complex,
// heterogeneous payloads rather than a single uniform command shape.
package entities

import (
	"context"

	"go.uber.org/zap"

	"osintgraph/application/ports"
	"osintgraph/domain/cleaning"
	"osintgraph/domain/core/entities"
	"osintgraph/domain/core/valueobjects"
	"osintgraph/domain/events"
	"osintgraph/domain/schema"
	apperrors "osintgraph/pkg/errors"
)

type Service struct {
	store   ports.GraphStore
	catalog *schema.Catalog
	logger  *zap.Logger
	events  ports.EventPublisher
}

func NewService(store ports.GraphStore, catalog *schema.Catalog, logger *zap.Logger, publisher ports.EventPublisher) *Service {
	return &Service{store: store, catalog: catalog, logger: logger, events: publisher}
}

// publish fans out a domain event, logging (not failing the caller) if the
// publisher itself errors — event delivery never blocks a core operation.
func (s *Service) publish(ctx context.Context, event interface{ EventType() string }) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish domain event", zap.String("event_type", event.EventType()), zap.Error(err))
	}
}

// Create validates with the schema catalog, assigns a UUID if absent, and fails if the
// supplied id already exists.
func (s *Service) Create(ctx context.Context, inv valueobjects.InvestigationID, id, schemaName string, rawProps map[string][]string) (*entities.Entity, error) {
	if schemaName == "" {
		schemaName = "Thing"
	}
	cleaned := cleaning.Clean(rawProps)
	if err := s.catalog.Validate(schemaName, cleaned); err != nil {
		return nil, err
	}

	var entityID valueobjects.EntityID
	if id == "" {
		entityID = valueobjects.NewEntityID()
	} else {
		entityID = valueobjects.EntityID(id)
		if _, err := s.store.GetEntity(ctx, inv, entityID); err == nil {
			return nil, apperrors.Conflict("entity already exists: " + id)
		}
	}

	entity := entities.NewEntity(entityID, inv, schemaName, valueobjects.FromMap(cleaned))
	if err := s.store.CreateEntity(ctx, inv, entity); err != nil {
		return nil, err
	}
	s.publish(ctx, events.NewEntityCreated(entity.ID().String(), inv.String(), schemaName))
	return entity, nil
}

func (s *Service) List(ctx context.Context, inv valueobjects.InvestigationID, search string) ([]*entities.Entity, error) {
	return s.store.ListEntities(ctx, inv, search)
}

func (s *Service) Get(ctx context.Context, inv valueobjects.InvestigationID, id valueobjects.EntityID) (*entities.Entity, error) {
	return s.store.GetEntity(ctx, inv, id)
}

// Delete removes the node and detaches all its edges (idempotent: second
// call returns false, P2).
func (s *Service) Delete(ctx context.Context, inv valueobjects.InvestigationID, id valueobjects.EntityID) (bool, error) {
	found, err := s.store.DeleteEntity(ctx, inv, id)
	if err == nil && found {
		s.publish(ctx, events.NewEntityDeleted(id.String(), inv.String()))
	}
	return found, err
}

// Update wholly replaces the property set (every key outside {id, schema}
// removed then re-set).
func (s *Service) Update(ctx context.Context, inv valueobjects.InvestigationID, id valueobjects.EntityID, rawProps map[string][]string) (*entities.Entity, error) {
	existing, err := s.store.GetEntity(ctx, inv, id)
	if err != nil {
		return nil, err
	}
	cleaned := cleaning.Clean(rawProps)
	if err := s.catalog.Validate(existing.Schema(), cleaned); err != nil {
		return nil, err
	}
	existing.ReplaceProperties(valueobjects.FromMap(cleaned))
	if err := s.store.UpdateEntity(ctx, inv, existing); err != nil {
		return nil, err
	}
	s.publish(ctx, events.NewEntityUpdated(id.String(), inv.String()))
	return existing, nil
}

// CreateEdge validates and upserts a relation edge whose endpoints have
// already been resolved — used by the workflow engine's persist step and
// the enrichment linker.
func (s *Service) CreateEdge(ctx context.Context, inv valueobjects.InvestigationID, id, schemaName string, source, target valueobjects.EntityID, rawProps map[string][]string) (*entities.Edge, error) {
	if err := s.catalog.Validate(schemaName, rawProps); err != nil {
		return nil, err
	}
	if id == "" {
		id = valueobjects.NewEntityID().String()
	}
	edge := entities.NewEdge(id, inv, schemaName, source, target, valueobjects.FromMap(rawProps))
	if err := s.store.UpsertEdge(ctx, inv, edge); err != nil {
		return nil, err
	}
	s.publish(ctx, events.NewEdgeCreated(edge.ID(), inv.String(), schemaName, source.String(), target.String()))
	return edge, nil
}

// ExpandResult is the entity service's expand(inv, id) response shape.
type ExpandResult struct {
	Entity    *entities.Entity
	Neighbors []*entities.Entity
	Edges     []*entities.Edge
}

// Expand returns the entity, every edge touching it in either direction,
// and the distinct other endpoints (P3: bidirectional, self excluded).
func (s *Service) Expand(ctx context.Context, inv valueobjects.InvestigationID, id valueobjects.EntityID) (*ExpandResult, error) {
	entity, err := s.store.GetEntity(ctx, inv, id)
	if err != nil {
		return nil, err
	}
	edges, err := s.store.EdgesOf(ctx, inv, id)
	if err != nil {
		return nil, err
	}

	seen := map[valueobjects.EntityID]bool{id: true}
	var neighbors []*entities.Entity
	for _, e := range edges {
		other := e.Target()
		if other == id {
			other = e.Source()
		}
		if seen[other] {
			continue
		}
		seen[other] = true
		neighbor, err := s.store.GetEntity(ctx, inv, other)
		if err != nil {
			continue // a dangling edge endpoint should not fail the whole expand
		}
		neighbors = append(neighbors, neighbor)
	}

	return &ExpandResult{Entity: entity, Neighbors: neighbors, Edges: edges}, nil
}
