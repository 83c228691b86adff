// Package schema implements the FollowTheMoney-compatible schema catalog: a
// built-in fallback catalog plus the property/type validation rules every
// entity and edge must pass before persistence.
package schema

import (
	"regexp"
	"strconv"

	apperrors "osintgraph/pkg/errors"
)

// PropertyType enumerates the type checks a property value can be subject to.
type PropertyType string

const (
	TypeString PropertyType = "string"
	TypeDate   PropertyType = "date"
	TypeNumber PropertyType = "number"
)

// Schema describes one catalog entry: its declared properties and whether
// it is a relation schema (becomes an Edge rather than a node).
type Schema struct {
	Name       string
	IsRelation bool
	Properties map[string]PropertyType
}

// EndpointPair is one named (source, target) endpoint slot pair from the
// relation-schema table.
type EndpointPair struct {
	Source, Target string
}

var relationEndpoints = map[string]struct {
	Primary   EndpointPair
	Alternate EndpointPair
}{
	"Ownership":      {Primary: EndpointPair{"owner", "asset"}, Alternate: EndpointPair{"source", "target"}},
	"Directorship":   {Primary: EndpointPair{"director", "organization"}, Alternate: EndpointPair{"person", "organization"}},
	"Employment":     {Primary: EndpointPair{"employee", "employer"}, Alternate: EndpointPair{"person", "organization"}},
	"Associate":      {Primary: EndpointPair{"person", "associate"}},
	"Family":         {Primary: EndpointPair{"person", "relative"}},
	"Membership":     {Primary: EndpointPair{"member", "organization"}, Alternate: EndpointPair{"person", "organization"}},
	"Representation": {Primary: EndpointPair{"agent", "client"}, Alternate: EndpointPair{"source", "target"}},
	"Payment":        {Primary: EndpointPair{"payer", "beneficiary"}, Alternate: EndpointPair{"seller", "buyer"}},
	"UnknownLink":    {Primary: EndpointPair{"subject", "object"}, Alternate: EndpointPair{"source", "target"}},
}

// GenericEndpointCandidates is the fallback list tried after a schema's own
// primary/alternate slots fail to qualify.
var GenericEndpointCandidates = []EndpointPair{
	{"subject", "object"},
	{"source", "target"},
	{"owner", "asset"},
	{"employee", "employer"},
	{"person", "organization"},
	{"seller", "buyer"},
}

// RelationSchemaNames lists every schema in the endpoint-role table — the
// set that marks an ingest record as a relation candidate rather than a node.
func RelationSchemaNames() []string {
	names := make([]string, 0, len(relationEndpoints))
	for name := range relationEndpoints {
		names = append(names, name)
	}
	return names
}

func EndpointsFor(schemaName string) (primary, alternate EndpointPair, ok bool) {
	ep, found := relationEndpoints[schemaName]
	if !found {
		return EndpointPair{}, EndpointPair{}, false
	}
	return ep.Primary, ep.Alternate, true
}

// allowListedKeys bypass catalog property checks entirely.
var allowListedKeys = map[string]bool{
	"confidence":    true,
	"charStart":     true,
	"charEnd":       true,
	"relationGroup": true,
}

var dateRegex = regexp.MustCompile(`^\d{4}(-\d{2}(-\d{2})?)?$`)

// Catalog is the in-memory fallback catalog. It is small enough to hold
// entirely in memory — no caching tier is wired for it.
type Catalog struct {
	schemas map[string]Schema
}

func NewCatalog() *Catalog {
	c := &Catalog{schemas: make(map[string]Schema)}
	for _, s := range builtinSchemas() {
		c.schemas[s.Name] = s
	}
	return c
}

func builtinSchemas() []Schema {
	entities := []Schema{
		{Name: "Thing", Properties: map[string]PropertyType{"name": TypeString}},
		{Name: "Person", Properties: map[string]PropertyType{
			"name": TypeString, "birthDate": TypeDate, "deathDate": TypeDate,
			"nationality": TypeString, "country": TypeString,
		}},
		{Name: "Company", Properties: map[string]PropertyType{
			"name": TypeString, "incorporationDate": TypeDate, "dissolutionDate": TypeDate,
			"jurisdiction": TypeString, "registrationNumber": TypeString,
		}},
		{Name: "Organization", Properties: map[string]PropertyType{
			"name": TypeString, "country": TypeString,
		}},
		{Name: "Document", Properties: map[string]PropertyType{
			"name": TypeString, "fileName": TypeString, "mimeType": TypeString,
			"bodyText": TypeString, "sourceUrl": TypeString, "processingStatus": TypeString,
		}},
		{Name: "Security", Properties: map[string]PropertyType{"name": TypeString}},
		{Name: "Email", Properties: map[string]PropertyType{"name": TypeString, "email": TypeString}},
	}

	relations := make([]Schema, 0, len(relationEndpoints)+1)
	for name := range relationEndpoints {
		props := map[string]PropertyType{
			"amount": TypeNumber, "amountUsd": TypeNumber, "amountEur": TypeNumber,
			"date": TypeDate, "startDate": TypeDate, "endDate": TypeDate,
		}
		relations = append(relations, Schema{Name: name, IsRelation: true, Properties: props})
	}
	// YenteAdjacent is not an FTM ingest relation (no endpoint-slot pair in
	// relationEndpoints); it is created directly by the enrichment linker
	// and only needs catalog validation to accept its "schema" and "source"
	// props.
	relations = append(relations, Schema{Name: "YenteAdjacent", IsRelation: true, Properties: map[string]PropertyType{
		"schema": TypeString,
		"source": TypeString,
	}})
	return append(entities, relations...)
}

func (c *Catalog) List() []Schema {
	out := make([]Schema, 0, len(c.schemas))
	for _, s := range c.schemas {
		out = append(out, s)
	}
	return out
}

func (c *Catalog) Get(name string) (Schema, bool) {
	s, ok := c.schemas[name]
	return s, ok
}

func (c *Catalog) Exists(name string) bool {
	_, ok := c.schemas[name]
	return ok
}

func (c *Catalog) IsRelationSchema(name string) bool {
	s, ok := c.schemas[name]
	return ok && s.IsRelation
}

// Validate enforces the property/type rules. props maps property name to
// ordered string values.
func (c *Catalog) Validate(schemaName string, props map[string][]string) error {
	s, ok := c.schemas[schemaName]
	if !ok {
		// Unknown schema names are rejected; unknown *properties* within a
		// known schema are accepted for extensibility.
		return apperrors.Schema("unknown schema: " + schemaName)
	}

	for key, values := range props {
		if allowListedKeys[key] {
			continue
		}
		propType, declared := s.Properties[key]
		if !declared {
			continue // unknown property keys accepted
		}
		switch propType {
		case TypeDate:
			for _, v := range values {
				if v == "" {
					continue
				}
				if !dateRegex.MatchString(v) {
					return apperrors.Schema("property " + key + " is not a valid date: " + v)
				}
			}
		case TypeNumber:
			for _, v := range values {
				if v == "" {
					continue
				}
				if _, err := strconv.ParseFloat(v, 64); err != nil {
					return apperrors.Schema("property " + key + " is not a valid number: " + v)
				}
			}
		}
	}
	return nil
}

