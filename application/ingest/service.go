package ingest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"osintgraph/application/ports"
	"osintgraph/domain/cleaning"
	"osintgraph/domain/core/entities"
	"osintgraph/domain/core/valueobjects"
	"osintgraph/domain/schema"
)

// Record is the wire shape of one FTM record: a schema name plus its
// property map.
type Record struct {
	ID         string              `json:"id,omitempty"`
	Schema     string              `json:"schema"`
	Properties map[string][]string `json:"properties"`
}

// Result is the ingestor's per-batch response shape.
type Result struct {
	Processed     int      `json:"processed"`
	NodesCreated  int      `json:"nodes_created"`
	EdgesCreated  int      `json:"edges_created"`
	Errors        []string `json:"errors"`
}

type Service struct {
	store      ports.GraphStore
	catalog    *schema.Catalog
	logger     *zap.Logger
}

func NewService(store ports.GraphStore, catalog *schema.Catalog, logger *zap.Logger) *Service {
	return &Service{store: store, catalog: catalog, logger: logger}
}

// ParseRecords decodes either a JSON array of records or NDJSON, per the
// input format rule.
func ParseRecords(data []byte) ([]Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var records []Record
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("invalid JSON array: %w", err)
		}
		return records, nil
	}

	var records []Record
	scanner := bufio.NewScanner(bytes.NewReader(trimmed))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var r Record
		if err := json.Unmarshal(line, &r); err != nil {
			return nil, fmt.Errorf("invalid NDJSON line: %w", err)
		}
		records = append(records, r)
	}
	return records, scanner.Err()
}

// Ingest runs the per-record ingestion pipeline. Per-record errors are
// collected in Result.Errors as human-readable strings prefixed with the
// record index; they never abort the batch.
func (s *Service) Ingest(ctx context.Context, inv valueobjects.InvestigationID, records []Record) Result {
	result := Result{}
	resolutionCache := make(map[string]valueobjects.EntityID) // casefolded reference -> resolved id, per-file

	for i, rec := range records {
		result.Processed++
		if err := s.ingestOne(ctx, inv, rec, resolutionCache, &result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("record %d: %v", i, err))
		}
	}
	return result
}

func (s *Service) ingestOne(ctx context.Context, inv valueobjects.InvestigationID, rec Record, cache map[string]valueobjects.EntityID, result *Result) error {
	if rec.Schema == "" {
		return fmt.Errorf("schema is required")
	}

	props := rec.Properties
	if props == nil {
		props = map[string][]string{}
	}
	cleaned := cleaning.Clean(props)

	if s.catalog.IsRelationSchema(rec.Schema) {
		cleaned = ApplyAliases(rec.Schema, cleaned)
		return s.ingestRelation(ctx, inv, rec.ID, rec.Schema, cleaned, cache, result)
	}
	return s.ingestNode(ctx, inv, rec.ID, rec.Schema, cleaned, cache, result)
}

func (s *Service) ingestNode(ctx context.Context, inv valueobjects.InvestigationID, id, schemaName string, props map[string][]string, cache map[string]valueobjects.EntityID, result *Result) error {
	if err := s.catalog.Validate(schemaName, props); err != nil {
		return err
	}

	var entityID valueobjects.EntityID
	if id != "" {
		entityID = valueobjects.EntityID(id)
	} else {
		entityID = valueobjects.NewEntityID()
	}

	entity := entities.NewEntity(entityID, inv, schemaName, valueobjects.FromMap(props))
	if err := s.store.CreateEntity(ctx, inv, entity); err != nil {
		// duplicate id: fall back to update
		existing, getErr := s.store.GetEntity(ctx, inv, entityID)
		if getErr != nil {
			return err
		}
		existing.ReplaceProperties(valueobjects.FromMap(props))
		if updErr := s.store.UpdateEntity(ctx, inv, existing); updErr != nil {
			return updErr
		}
		cache[cacheKey(existing)] = entityID
		return nil
	}
	result.NodesCreated++
	cache[cacheKey(entity)] = entityID
	return nil
}

func cacheKey(e *entities.Entity) string {
	return strings.ToLower(e.Name())
}

func (s *Service) ingestRelation(ctx context.Context, inv valueobjects.InvestigationID, id, schemaName string, props map[string][]string, cache map[string]valueobjects.EntityID, result *Result) error {
	sourceSlot, targetSlot, sourceRef, targetRef, ok := ResolveEndpoints(schemaName, props)
	if !ok {
		return fmt.Errorf("unresolved relation endpoints")
	}

	sourceID, err := s.resolveEndpoint(ctx, inv, sourceRef, cache)
	if err != nil {
		return fmt.Errorf("unresolved relation endpoints: %w", err)
	}
	targetID, err := s.resolveEndpoint(ctx, inv, targetRef, cache)
	if err != nil {
		return fmt.Errorf("unresolved relation endpoints: %w", err)
	}

	props[sourceSlot] = []string{sourceID.String()}
	props[targetSlot] = []string{targetID.String()}

	if err := s.catalog.Validate(schemaName, props); err != nil {
		return err
	}

	edgeID := id
	if edgeID == "" {
		edgeID = valueobjects.NewEntityID().String()
	}
	edge := entities.NewEdge(edgeID, inv, schemaName, sourceID, targetID, valueobjects.FromMap(props))
	if err := s.store.UpsertEdge(ctx, inv, edge); err != nil {
		return err
	}
	result.EdgesCreated++
	return nil
}

// resolveEndpoint resolves a relation endpoint reference: match by id first, then
// case-insensitive first name value, using the per-batch resolution cache.
func (s *Service) resolveEndpoint(ctx context.Context, inv valueobjects.InvestigationID, ref string, cache map[string]valueobjects.EntityID) (valueobjects.EntityID, error) {
	if id, ok := cache[strings.ToLower(ref)]; ok {
		return id, nil
	}
	if e, err := s.store.GetEntity(ctx, inv, valueobjects.EntityID(ref)); err == nil {
		cache[strings.ToLower(ref)] = e.ID()
		return e.ID(), nil
	}

	matches, err := s.store.ListEntities(ctx, inv, ref)
	if err != nil {
		return "", err
	}
	lowered := strings.ToLower(ref)
	for _, e := range matches {
		if strings.ToLower(e.Properties().First("name")) == lowered {
			cache[lowered] = e.ID()
			return e.ID(), nil
		}
	}
	return "", fmt.Errorf("no entity matches %q", ref)
}
