package entities

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/antzucaro/matchr"

	"osintgraph/domain/core/entities"
	"osintgraph/domain/core/valueobjects"
)

// overlapFields is the attribute-overlap field set used by scorePair.
var overlapFields = []string{
	"birthDate", "country", "nationality", "jurisdiction",
	"registrationNumber", "email", "innCode", "vatCode",
}

// DuplicateCandidate pairs two same-schema entities with their composite
// similarity score and human-readable reason.
type DuplicateCandidate struct {
	A      *entities.Entity
	B      *entities.Entity
	Score  float64
	Reason string
}

// FindDuplicates scores every pair of same-schema entities, discards pairs
// below threshold, sorts by score desc, and truncates to limit.
func (s *Service) FindDuplicates(ctx context.Context, inv valueobjects.InvestigationID, schemaName string, threshold float64, limit int) ([]DuplicateCandidate, error) {
	var pool []*entities.Entity
	var err error
	if schemaName != "" {
		pool, err = s.store.ListEntitiesBySchema(ctx, inv, schemaName)
	} else {
		pool, err = s.store.ListEntities(ctx, inv, "")
	}
	if err != nil {
		return nil, err
	}

	bySchema := make(map[string][]*entities.Entity)
	for _, e := range pool {
		bySchema[e.Schema()] = append(bySchema[e.Schema()], e)
	}

	var candidates []DuplicateCandidate
	for _, bucket := range bySchema {
		for i := 0; i < len(bucket); i++ {
			for j := i + 1; j < len(bucket); j++ {
				score, reason := scorePair(bucket[i], bucket[j])
				if score < threshold {
					continue
				}
				candidates = append(candidates, DuplicateCandidate{A: bucket[i], B: bucket[j], Score: score, Reason: reason})
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// scorePair implements the deterministic duplicate-scoring formula.
func scorePair(a, b *entities.Entity) (float64, string) {
	nameA := strings.ToLower(a.Name())
	nameB := strings.ToLower(b.Name())
	nameSimilarity := matchr.RatcliffObershelp(nameA, nameB)

	score := 0.7 * nameSimilarity

	checked, overlap := 0, 0
	for _, field := range overlapFields {
		va := a.Properties().Get(field)
		vb := b.Properties().Get(field)
		if len(va) == 0 || len(vb) == 0 {
			continue
		}
		checked++
		if intersects(va, vb) {
			overlap++
		}
	}
	if checked > 0 {
		score += 0.3 * (float64(overlap) / float64(checked))
	}
	if score > 1.0 {
		score = 1.0
	}

	reason := fmt.Sprintf("name similarity %.2f", nameSimilarity)
	if checked > 0 {
		reason += fmt.Sprintf(", attribute overlap %.2f", float64(overlap)/float64(checked))
	}
	return score, reason
}

func intersects(a, b []string) bool {
	set := make(map[string]bool, len(a))
	for _, v := range a {
		set[strings.ToLower(v)] = true
	}
	for _, v := range b {
		if set[strings.ToLower(v)] {
			return true
		}
	}
	return false
}
