// Package investigations implements the investigation service: a thin
// composition service over the graph store and the object store, since an
// investigation is purely the tenancy boundary those two already key on.
package investigations

import (
	"context"

	"go.uber.org/zap"

	"osintgraph/application/ports"
	"osintgraph/domain/core/entities"
	"osintgraph/domain/core/valueobjects"
	"osintgraph/domain/events"
	apperrors "osintgraph/pkg/errors"
)

type Service struct {
	store       ports.GraphStore
	objectStore ports.ObjectStore
	logger      *zap.Logger
	events      ports.EventPublisher
}

func NewService(store ports.GraphStore, objectStore ports.ObjectStore, logger *zap.Logger, publisher ports.EventPublisher) *Service {
	return &Service{store: store, objectStore: objectStore, logger: logger, events: publisher}
}

// Create allocates an investigation id and its metadata record, then
// eagerly provisions its object storage bucket so a document upload never
// races bucket creation.
func (s *Service) Create(ctx context.Context, name, description string) (*entities.Investigation, error) {
	if name == "" {
		return nil, apperrors.Validation("investigation name is required")
	}
	if len(name) > 255 {
		return nil, apperrors.Validation("investigation name must be 255 characters or fewer")
	}
	inv := entities.NewInvestigation(valueobjects.NewInvestigationID(), name, description)
	if err := s.store.PutInvestigationMeta(ctx, inv); err != nil {
		return nil, err
	}
	if _, err := s.objectStore.EnsureBucket(ctx, inv.ID()); err != nil {
		s.logger.Warn("failed to eagerly provision investigation bucket", zap.String("investigation_id", inv.ID().String()), zap.Error(err))
	}
	if s.events != nil {
		if err := s.events.Publish(ctx, events.NewInvestigationCreated(inv.ID().String(), inv.Name())); err != nil {
			s.logger.Warn("failed to publish domain event", zap.Error(err))
		}
	}
	return inv, nil
}

func (s *Service) List(ctx context.Context) ([]*entities.Investigation, error) {
	return s.store.ListInvestigationMeta(ctx)
}

func (s *Service) Get(ctx context.Context, id valueobjects.InvestigationID) (*entities.Investigation, error) {
	return s.store.GetInvestigationMeta(ctx, id)
}

// Summary is an investigation plus its fanned-in entity count, computed at
// read time rather than stored denormalized on the investigation record.
type Summary struct {
	Investigation *entities.Investigation
	EntityCount   int
}

func (s *Service) GetSummary(ctx context.Context, id valueobjects.InvestigationID) (*Summary, error) {
	inv, err := s.store.GetInvestigationMeta(ctx, id)
	if err != nil {
		return nil, err
	}
	count, err := s.store.CountEntities(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Summary{Investigation: inv, EntityCount: count}, nil
}

func (s *Service) ListSummaries(ctx context.Context) ([]*Summary, error) {
	invs, err := s.store.ListInvestigationMeta(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*Summary, 0, len(invs))
	for _, inv := range invs {
		count, err := s.store.CountEntities(ctx, inv.ID())
		if err != nil {
			return nil, err
		}
		out = append(out, &Summary{Investigation: inv, EntityCount: count})
	}
	return out, nil
}

// Delete removes the investigation's metadata and its entire graph
// (entities + edges), per the cascade.
func (s *Service) Delete(ctx context.Context, id valueobjects.InvestigationID) error {
	if _, err := s.store.GetInvestigationMeta(ctx, id); err != nil {
		return err
	}
	if err := s.store.DeleteGraph(ctx, id); err != nil {
		return err
	}
	if err := s.store.DeleteInvestigationMeta(ctx, id); err != nil {
		return err
	}
	if s.events != nil {
		if err := s.events.Publish(ctx, events.NewInvestigationDeleted(id.String())); err != nil {
			s.logger.Warn("failed to publish domain event", zap.Error(err))
		}
	}
	return nil
}
