// Package testfakes provides in-memory fake implementations of the
// application/ports capability interfaces for unit testing, mirroring the
// in-memory-fake-repository style
// (sync.RWMutex-guarded maps) rather than a generated-mock library, since
// the ports surface here is small and hand-written fakes stay readable.
package testfakes

import (
	"context"
	"sort"
	"strings"
	"sync"

	"osintgraph/domain/core/entities"
	"osintgraph/domain/core/valueobjects"
	apperrors "osintgraph/pkg/errors"
)

// GraphStore is an in-memory ports.GraphStore, one map of entities/edges per
// investigation plus a separate meta map, matching the graph store's real separation.
type GraphStore struct {
	mu       sync.RWMutex
	entities map[valueobjects.InvestigationID]map[valueobjects.EntityID]*entities.Entity
	edges    map[valueobjects.InvestigationID]map[string]*entities.Edge
	meta     map[valueobjects.InvestigationID]*entities.Investigation
}

func NewGraphStore() *GraphStore {
	return &GraphStore{
		entities: make(map[valueobjects.InvestigationID]map[valueobjects.EntityID]*entities.Entity),
		edges:    make(map[valueobjects.InvestigationID]map[string]*entities.Edge),
		meta:     make(map[valueobjects.InvestigationID]*entities.Investigation),
	}
}

func (g *GraphStore) CreateEntity(_ context.Context, inv valueobjects.InvestigationID, e *entities.Entity) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	bucket := g.entityBucket(inv)
	if _, exists := bucket[e.ID()]; exists {
		return apperrors.Conflict("entity already exists: " + e.ID().String())
	}
	bucket[e.ID()] = e
	return nil
}

func (g *GraphStore) GetEntity(_ context.Context, inv valueobjects.InvestigationID, id valueobjects.EntityID) (*entities.Entity, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e, ok := g.entityBucket(inv)[id]
	if !ok {
		return nil, apperrors.NotFound("entity not found: " + id.String())
	}
	return e, nil
}

func (g *GraphStore) ListEntities(_ context.Context, inv valueobjects.InvestigationID, search string) ([]*entities.Entity, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return filterSorted(g.entityBucket(inv), search, ""), nil
}

func (g *GraphStore) ListEntitiesBySchema(_ context.Context, inv valueobjects.InvestigationID, schema string) ([]*entities.Entity, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return filterSorted(g.entityBucket(inv), "", schema), nil
}

func (g *GraphStore) UpdateEntity(_ context.Context, inv valueobjects.InvestigationID, e *entities.Entity) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	bucket := g.entityBucket(inv)
	if _, ok := bucket[e.ID()]; !ok {
		return apperrors.NotFound("entity not found: " + e.ID().String())
	}
	bucket[e.ID()] = e
	return nil
}

func (g *GraphStore) DeleteEntity(_ context.Context, inv valueobjects.InvestigationID, id valueobjects.EntityID) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	bucket := g.entityBucket(inv)
	if _, ok := bucket[id]; !ok {
		return false, nil
	}
	delete(bucket, id)
	edges := g.edgeBucket(inv)
	for edgeID, e := range edges {
		if e.Source() == id || e.Target() == id {
			delete(edges, edgeID)
		}
	}
	return true, nil
}

func (g *GraphStore) CountEntities(_ context.Context, inv valueobjects.InvestigationID) (int, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.entityBucket(inv)), nil
}

func (g *GraphStore) UpsertEdge(_ context.Context, inv valueobjects.InvestigationID, e *entities.Edge) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.edgeBucket(inv)[e.ID()] = e
	return nil
}

func (g *GraphStore) EdgesOf(_ context.Context, inv valueobjects.InvestigationID, id valueobjects.EntityID) ([]*entities.Edge, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []*entities.Edge
	for _, e := range g.edgeBucket(inv) {
		if e.Source() == id || e.Target() == id {
			out = append(out, e)
		}
	}
	return out, nil
}

func (g *GraphStore) DeleteEdge(_ context.Context, inv valueobjects.InvestigationID, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.edgeBucket(inv), id)
	return nil
}

func (g *GraphStore) ListGraphPage(_ context.Context, inv valueobjects.InvestigationID, skip, limit int) ([]*entities.Entity, []*entities.Edge, int, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	all := filterSorted(g.entityBucket(inv), "", "")
	total := len(all)
	if skip > total {
		skip = total
	}
	end := skip + limit
	if limit <= 0 || end > total {
		end = total
	}
	var edges []*entities.Edge
	for _, e := range g.edgeBucket(inv) {
		edges = append(edges, e)
	}
	return all[skip:end], edges, total, nil
}

func (g *GraphStore) DeleteGraph(_ context.Context, inv valueobjects.InvestigationID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.entities, inv)
	delete(g.edges, inv)
	return nil
}

func (g *GraphStore) PutInvestigationMeta(_ context.Context, inv *entities.Investigation) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.meta[inv.ID()] = inv
	return nil
}

func (g *GraphStore) GetInvestigationMeta(_ context.Context, id valueobjects.InvestigationID) (*entities.Investigation, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	inv, ok := g.meta[id]
	if !ok {
		return nil, apperrors.NotFound("investigation not found: " + id.String())
	}
	return inv, nil
}

func (g *GraphStore) ListInvestigationMeta(_ context.Context) ([]*entities.Investigation, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*entities.Investigation, 0, len(g.meta))
	for _, inv := range g.meta {
		out = append(out, inv)
	}
	return out, nil
}

func (g *GraphStore) DeleteInvestigationMeta(_ context.Context, id valueobjects.InvestigationID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.meta[id]; !ok {
		return apperrors.NotFound("investigation not found: " + id.String())
	}
	delete(g.meta, id)
	return nil
}

func (g *GraphStore) entityBucket(inv valueobjects.InvestigationID) map[valueobjects.EntityID]*entities.Entity {
	b, ok := g.entities[inv]
	if !ok {
		b = make(map[valueobjects.EntityID]*entities.Entity)
		g.entities[inv] = b
	}
	return b
}

func (g *GraphStore) edgeBucket(inv valueobjects.InvestigationID) map[string]*entities.Edge {
	b, ok := g.edges[inv]
	if !ok {
		b = make(map[string]*entities.Edge)
		g.edges[inv] = b
	}
	return b
}

// filterSorted returns entities matching search (case-insensitive on id or
// any "name" value) and/or schema, always ordered by id.
func filterSorted(bucket map[valueobjects.EntityID]*entities.Entity, search, schemaName string) []*entities.Entity {
	lowered := strings.ToLower(search)
	out := make([]*entities.Entity, 0, len(bucket))
	for _, e := range bucket {
		if schemaName != "" && e.Schema() != schemaName {
			continue
		}
		if search != "" && !matchesSearch(e, lowered) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

func matchesSearch(e *entities.Entity, lowered string) bool {
	if strings.Contains(strings.ToLower(e.ID().String()), lowered) {
		return true
	}
	for _, name := range e.Properties().Get("name") {
		if strings.Contains(strings.ToLower(name), lowered) {
			return true
		}
	}
	return false
}
