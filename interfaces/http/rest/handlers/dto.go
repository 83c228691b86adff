// Package handlers implements the HTTP surface over the core services: one
// handler type per resource group, JSON in/out, errors funneled through
// pkg/errors.DomainError.
package handlers

import (
	"time"

	appentities "osintgraph/application/entities"
	"osintgraph/application/investigations"
	"osintgraph/application/ports"
	"osintgraph/domain/core/entities"
	"osintgraph/domain/schema"
)

// InvestigationDTO is the wire shape of an Investigation.
type InvestigationDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	EntityCount *int      `json:"entity_count,omitempty"`
}

func investigationDTO(inv *entities.Investigation) InvestigationDTO {
	return InvestigationDTO{
		ID: inv.ID().String(), Name: inv.Name(), Description: inv.Description(), CreatedAt: inv.CreatedAt(),
	}
}

func investigationSummaryDTO(s *investigations.Summary) InvestigationDTO {
	dto := investigationDTO(s.Investigation)
	count := s.EntityCount
	dto.EntityCount = &count
	return dto
}

// EntityDTO is the wire shape of an Entity (graph node).
type EntityDTO struct {
	ID         string              `json:"id"`
	Schema     string              `json:"schema"`
	Properties map[string][]string `json:"properties"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

func entityDTO(e *entities.Entity) EntityDTO {
	return EntityDTO{
		ID: e.ID().String(), Schema: e.Schema(), Properties: e.Properties().ToMap(),
		CreatedAt: e.CreatedAt(), UpdatedAt: e.UpdatedAt(),
	}
}

func entityDTOs(es []*entities.Entity) []EntityDTO {
	out := make([]EntityDTO, 0, len(es))
	for _, e := range es {
		out = append(out, entityDTO(e))
	}
	return out
}

// EdgeDTO is the wire shape of an Edge (typed relationship).
type EdgeDTO struct {
	ID         string              `json:"id"`
	Schema     string              `json:"schema"`
	Source     string              `json:"source"`
	Target     string              `json:"target"`
	Properties map[string][]string `json:"properties"`
	CreatedAt  time.Time           `json:"created_at"`
}

func edgeDTO(e *entities.Edge) EdgeDTO {
	return EdgeDTO{
		ID: e.ID(), Schema: e.Schema(), Source: e.Source().String(), Target: e.Target().String(),
		Properties: e.Properties().ToMap(), CreatedAt: e.CreatedAt(),
	}
}

func edgeDTOs(es []*entities.Edge) []EdgeDTO {
	out := make([]EdgeDTO, 0, len(es))
	for _, e := range es {
		out = append(out, edgeDTO(e))
	}
	return out
}

// ExpandResponse is GET .../entities/{id}/expand's response shape.
type ExpandResponse struct {
	Entity    EntityDTO   `json:"entity"`
	Neighbors []EntityDTO `json:"neighbors"`
	Edges     []EdgeDTO   `json:"edges"`
}

func expandResponse(r *appentities.ExpandResult) ExpandResponse {
	return ExpandResponse{
		Entity:    entityDTO(r.Entity),
		Neighbors: entityDTOs(r.Neighbors),
		Edges:     edgeDTOs(r.Edges),
	}
}

// DuplicateCandidateDTO is one scored pair from find_duplicates.
type DuplicateCandidateDTO struct {
	A      EntityDTO `json:"a"`
	B      EntityDTO `json:"b"`
	Score  float64   `json:"score"`
	Reason string    `json:"reason"`
}

func duplicateCandidateDTOs(cs []appentities.DuplicateCandidate) []DuplicateCandidateDTO {
	out := make([]DuplicateCandidateDTO, 0, len(cs))
	for _, c := range cs {
		out = append(out, DuplicateCandidateDTO{A: entityDTO(c.A), B: entityDTO(c.B), Score: c.Score, Reason: c.Reason})
	}
	return out
}

// MergeResponse is POST .../entities/merge's response shape.
type MergeResponse struct {
	Target          EntityDTO `json:"target"`
	MergedSourceIDs []string  `json:"merged_source_ids"`
}

func mergeResponse(r *appentities.MergeResult) MergeResponse {
	ids := make([]string, 0, len(r.MergedSourceIDs))
	for _, id := range r.MergedSourceIDs {
		ids = append(ids, id.String())
	}
	return MergeResponse{Target: entityDTO(r.Target), MergedSourceIDs: ids}
}

// SchemaDTO is the wire shape of one catalog schema entry.
type SchemaDTO struct {
	Name       string            `json:"name"`
	IsRelation bool              `json:"is_relation"`
	Properties map[string]string `json:"properties"`
}

func schemaDTO(s schema.Schema) SchemaDTO {
	props := make(map[string]string, len(s.Properties))
	for k, v := range s.Properties {
		props[k] = string(v)
	}
	return SchemaDTO{Name: s.Name, IsRelation: s.IsRelation, Properties: props}
}

// SanctionsHitDTO is the wire shape of one yente search hit.
type SanctionsHitDTO struct {
	ID         string              `json:"id"`
	Schema     string              `json:"schema"`
	Caption    string              `json:"caption"`
	Score      *float64            `json:"score,omitempty"`
	Datasets   []string            `json:"datasets,omitempty"`
	Properties map[string][]string `json:"properties,omitempty"`
}

func sanctionsHitDTOs(hits []ports.SanctionsHit) []SanctionsHitDTO {
	out := make([]SanctionsHitDTO, 0, len(hits))
	for _, h := range hits {
		out = append(out, SanctionsHitDTO{
			ID: h.ID, Schema: h.Schema, Caption: h.Caption, Score: h.Score,
			Datasets: h.Datasets, Properties: h.Properties,
		})
	}
	return out
}

// GraphPageResponse is GET .../graph's response shape.
type GraphPageResponse struct {
	Entities []EntityDTO `json:"entities"`
	Edges    []EdgeDTO   `json:"edges"`
	Total    int         `json:"total"`
	Skip     int         `json:"skip"`
	Limit    int         `json:"limit"`
}
