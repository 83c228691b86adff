// Package enrichment composes the sanctions-service client
// (infrastructure/enrichment) with the graph store to implement the
// enrichment linker: search plus "link adjacency into this investigation's
// graph", grounded on yente_service.py's link_entity.
package enrichment

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"osintgraph/application/entities"
	"osintgraph/application/ports"
	"osintgraph/domain/core/valueobjects"
)

// yenteAdjacentSchema is the edge schema the linker creates; not an FTM
// ingest relation (no endpoint-slot pair), registered in the catalog solely
// so CreateEdge's validation pass accepts it.
const yenteAdjacentSchema = "YenteAdjacent"

type Service struct {
	searcher      ports.SanctionsSearcher
	store         ports.GraphStore
	entityService *entities.Service
	logger        *zap.Logger
}

func NewService(searcher ports.SanctionsSearcher, store ports.GraphStore, entityService *entities.Service, logger *zap.Logger) *Service {
	return &Service{searcher: searcher, store: store, entityService: entityService, logger: logger}
}

// Search proxies a free-text sanctions-list search.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]ports.SanctionsHit, error) {
	return s.searcher.Search(ctx, query, limit)
}

// LinkResult is Link's response shape: the linked neighbor ids and their
// count.
type LinkResult struct {
	LinkedIDs []string `json:"linked_ids"`
	Count     int      `json:"count"`
}

// Link implements the adjacency linker: fetch the queried id's
// adjacency payload, collect every nested id, drop the queried id itself,
// intersect with ids actually present in the investigation's graph, and
// upsert a YenteAdjacent edge for each survivor.
func (s *Service) Link(ctx context.Context, inv valueobjects.InvestigationID, entityID valueobjects.EntityID) (*LinkResult, error) {
	if _, err := s.entityService.Get(ctx, inv, entityID); err != nil {
		return nil, err
	}

	adjacency, err := s.searcher.Adjacency(ctx, entityID.String())
	if err != nil {
		return nil, err
	}

	candidateIDs, _ := adjacency["_adjacent_ids"].([]string)

	present, err := s.store.ListEntities(ctx, inv, "")
	if err != nil {
		return nil, err
	}
	presentByID := make(map[valueobjects.EntityID]bool, len(present))
	for _, e := range present {
		presentByID[e.ID()] = true
	}

	var linked []string
	for _, candidate := range candidateIDs {
		candidateID := valueobjects.EntityID(candidate)
		if candidateID == entityID || !presentByID[candidateID] {
			continue
		}
		edgeID := "yente-adjacent-" + entityID.String() + "-" + candidate
		if _, err := s.entityService.CreateEdge(ctx, inv, edgeID, yenteAdjacentSchema, entityID, candidateID,
			map[string][]string{"schema": {yenteAdjacentSchema}, "source": {"yente"}}); err != nil {
			s.logger.Warn("failed to create yente adjacency edge",
				zap.String("investigation_id", inv.String()), zap.String("entity_id", entityID.String()), zap.Error(err))
			continue
		}
		linked = append(linked, candidate)
	}
	sort.Strings(linked)

	return &LinkResult{LinkedIDs: linked, Count: len(linked)}, nil
}
