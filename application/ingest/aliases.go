// Package ingest implements the FTM-record ingestor: parses JSON/NDJSON
// records, classifies each as node or relation candidate, resolves relation
// endpoints against already-present entities, and upserts idempotently.
package ingest

import "osintgraph/domain/schema"

// relationPropertyAliases is the per-schema alias table, kept centralized
// here and reused by the workflow engine's persist step so there is
// exactly one copy of the aliasing rules.
var relationPropertyAliases = map[string]map[string]string{
	"Employment":     {"person": "employee", "organization": "employer"},
	"Directorship":   {"person": "director"},
	"Membership":     {"person": "member"},
	"Ownership":      {"source": "owner", "target": "asset"},
	"Representation": {"source": "agent", "target": "client"},
	"Payment":        {"seller": "payer", "buyer": "beneficiary"},
	"UnknownLink":    {"source": "subject", "target": "object"},
}

// ApplyAliases rewrites alias keys to their canonical name, only when the
// canonical key is absent from props.
func ApplyAliases(schemaName string, props map[string][]string) map[string][]string {
	aliases, ok := relationPropertyAliases[schemaName]
	if !ok {
		return props
	}
	for from, to := range aliases {
		if _, hasCanonical := props[to]; hasCanonical {
			continue
		}
		if v, hasAlias := props[from]; hasAlias {
			props[to] = v
		}
	}
	return props
}

// ResolveEndpoints tries the schema's primary slot
// pair, then alternate, then the generic candidate list. A pair qualifies
// when both slots have ≥1 value.
func ResolveEndpoints(schemaName string, props map[string][]string) (sourceSlot, targetSlot, sourceRef, targetRef string, ok bool) {
	primary, alternate, found := schema.EndpointsFor(schemaName)
	candidates := []schema.EndpointPair{}
	if found {
		candidates = append(candidates, primary)
		if alternate.Source != "" {
			candidates = append(candidates, alternate)
		}
	}
	candidates = append(candidates, schema.GenericEndpointCandidates...)

	for _, pair := range candidates {
		sv := props[pair.Source]
		tv := props[pair.Target]
		if len(sv) > 0 && len(tv) > 0 {
			return pair.Source, pair.Target, sv[0], tv[0], true
		}
	}
	return "", "", "", "", false
}
