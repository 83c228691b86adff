package entities

import (
	"context"

	"osintgraph/domain/cleaning"
	"osintgraph/domain/core/entities"
	"osintgraph/domain/core/valueobjects"
	"osintgraph/domain/events"
	apperrors "osintgraph/pkg/errors"
)

// MergeResult is merge's response shape: the updated target and the list of
// absorbed source ids in their original order.
type MergeResult struct {
	Target           *entities.Entity
	MergedSourceIDs  []valueobjects.EntityID
}

// Merge implements the merge algorithm: rewires every edge of the
// source entities onto target and deletes the sources. Not atomic with
// respect to concurrent readers — callers must serialize their own
// merges.
func (s *Service) Merge(ctx context.Context, inv valueobjects.InvestigationID, sourceIDs []valueobjects.EntityID, targetID valueobjects.EntityID, mergedProps map[string][]string) (*MergeResult, error) {
	if len(uniqueIDs(sourceIDs)) < 2 {
		return nil, apperrors.Validation("merge requires at least 2 distinct source_ids")
	}
	if !containsID(sourceIDs, targetID) {
		return nil, apperrors.Validation("target_id must be one of source_ids")
	}

	loaded := make(map[valueobjects.EntityID]*entities.Entity, len(sourceIDs))
	var refSchema string
	for _, id := range uniqueIDs(sourceIDs) {
		e, err := s.store.GetEntity(ctx, inv, id)
		if err != nil {
			return nil, err
		}
		if refSchema == "" {
			refSchema = e.Schema()
		} else if e.Schema() != refSchema {
			return nil, apperrors.Validation("all source_ids must share the same schema")
		}
		loaded[id] = e
	}

	finalProps := mergedProps
	if finalProps == nil {
		finalProps = unionProperties(loaded, uniqueIDs(sourceIDs))
	}
	cleanedFinal := cleaning.Clean(finalProps)
	if err := s.catalog.Validate(refSchema, cleanedFinal); err != nil {
		return nil, err
	}

	var merged []valueobjects.EntityID
	for _, id := range uniqueIDs(sourceIDs) {
		if id == targetID {
			continue
		}
		if err := s.rewireEdges(ctx, inv, id, targetID); err != nil {
			return nil, err
		}
		if _, err := s.store.DeleteEntity(ctx, inv, id); err != nil {
			return nil, err
		}
		merged = append(merged, id)
	}

	target := loaded[targetID]
	target.ReplaceProperties(valueobjects.FromMap(cleanedFinal))
	if err := s.store.UpdateEntity(ctx, inv, target); err != nil {
		return nil, err
	}

	mergedStrs := make([]string, 0, len(merged))
	for _, id := range merged {
		mergedStrs = append(mergedStrs, id.String())
	}
	s.publish(ctx, events.NewEntitiesMerged(targetID.String(), inv.String(), mergedStrs))

	return &MergeResult{Target: target, MergedSourceIDs: merged}, nil
}

// rewireEdges recreates every edge touching source onto target, dropping
// self-loops, then lets the caller delete source (which detaches any
// residual edges still pointing at it).
func (s *Service) rewireEdges(ctx context.Context, inv valueobjects.InvestigationID, source, target valueobjects.EntityID) error {
	edges, err := s.store.EdgesOf(ctx, inv, source)
	if err != nil {
		return err
	}
	for _, e := range edges {
		var newSource, newTarget valueobjects.EntityID
		switch source {
		case e.Source():
			newSource, newTarget = target, e.Target()
		case e.Target():
			newSource, newTarget = e.Source(), target
		default:
			continue
		}
		if newSource == newTarget {
			continue // self-loop after rewrite: drop
		}
		rewired := entities.NewEdge(e.ID(), inv, e.Schema(), newSource, newTarget, e.Properties())
		if err := s.store.UpsertEdge(ctx, inv, rewired); err != nil {
			return err
		}
	}
	return nil
}

func unionProperties(loaded map[valueobjects.EntityID]*entities.Entity, order []valueobjects.EntityID) map[string][]string {
	out := make(map[string][]string)
	seen := make(map[string]map[string]bool)
	for _, id := range order {
		e := loaded[id]
		for _, key := range e.Properties().Keys() {
			if seen[key] == nil {
				seen[key] = make(map[string]bool)
			}
			for _, v := range e.Properties().Get(key) {
				lower := v
				if seen[key][lower] {
					continue
				}
				seen[key][lower] = true
				out[key] = append(out[key], v)
			}
		}
	}
	return out
}

func uniqueIDs(ids []valueobjects.EntityID) []valueobjects.EntityID {
	seen := make(map[valueobjects.EntityID]bool, len(ids))
	out := make([]valueobjects.EntityID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func containsID(ids []valueobjects.EntityID, target valueobjects.EntityID) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}
