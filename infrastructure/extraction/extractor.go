// Package extraction implements the LLM extractor: prompt-driven
// extraction of node- and relation-candidates, using
// github.com/anthropics/anthropic-sdk-go (sourced from jordigilh-kubernaut)
// as the single LLM provider.
package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"osintgraph/domain/cleaning"
	"osintgraph/domain/schema"
)

// allowedEntitySchemas is the entity allow-list.
var allowedEntitySchemas = map[string]bool{
	"Person": true, "Company": true, "Organization": true, "Security": true, "Email": true,
}

// Candidate is one extracted node or relation candidate.
type Candidate struct {
	Schema     string              `json:"schema"`
	Properties map[string][]string `json:"properties"`
}

type rawCandidate struct {
	Schema     string              `json:"schema"`
	Properties map[string][]string `json:"properties"`
	CharStart  *int                `json:"charStart,omitempty"`
	CharEnd    *int                `json:"charEnd,omitempty"`
	Confidence *float64            `json:"confidence,omitempty"`
	Span       string              `json:"span,omitempty"`
}

// Extractor wraps the Anthropic client with the allow-list and
// property-cleaning pass every extracted candidate goes through.
type Extractor struct {
	client  anthropic.Client
	modelID string
	catalog *schema.Catalog
}

func NewExtractor(apiKey, modelID string, catalog *schema.Catalog) *Extractor {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Extractor{client: client, modelID: modelID, catalog: catalog}
}

// Extract prompts the model for entity/relation candidates restricted to
// the allow-list, then cleans every candidate's properties via the property cleaner.
func (e *Extractor) Extract(ctx context.Context, text, documentType string) ([]Candidate, error) {
	prompt := buildPrompt(text, documentType)

	msg, err := e.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(e.modelID),
		MaxTokens: 4096,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("llm extraction request failed: %w", err)
	}

	var rawText string
	for _, block := range msg.Content {
		if block.Type == "text" {
			rawText += block.Text
		}
	}

	var raw []rawCandidate
	if err := json.Unmarshal([]byte(rawText), &raw); err != nil {
		return nil, fmt.Errorf("llm response was not valid candidate JSON: %w", err)
	}

	return e.filterAndClean(raw), nil
}

func (e *Extractor) filterAndClean(raw []rawCandidate) []Candidate {
	relationSchemas := make(map[string]bool)
	for _, name := range schema.RelationSchemaNames() {
		relationSchemas[name] = true
	}

	var out []Candidate
	for _, rc := range raw {
		if !allowedEntitySchemas[rc.Schema] && !relationSchemas[rc.Schema] {
			continue // outside the allow-list
		}
		props := rc.Properties
		if props == nil {
			props = map[string][]string{}
		}
		if rc.Confidence != nil {
			props["confidence"] = []string{strconv.FormatFloat(*rc.Confidence, 'f', -1, 64)}
		}
		if rc.CharStart != nil {
			props["charStart"] = []string{strconv.Itoa(*rc.CharStart)}
		}
		if rc.CharEnd != nil {
			props["charEnd"] = []string{strconv.Itoa(*rc.CharEnd)}
		}
		if rc.Span != "" && len(props["name"]) == 0 {
			props["name"] = []string{rc.Span}
		}
		out = append(out, Candidate{Schema: rc.Schema, Properties: cleaning.Clean(props)})
	}
	return out
}

const basePrompt = `Extract named entities and relationships from the following text. ` +
	`Respond with a JSON array of objects, each with "schema" (one of Person, Company, ` +
	`Organization, Security, Email, or a relation schema) and "properties" (a map of ` +
	`property name to string array). For relations, include endpoint references by name ` +
	`or id in the appropriate property slots.

TEXT:
`

func buildPrompt(text, documentType string) string {
	switch documentType {
	case "sec_filing":
		return "This is an SEC filing. Pay special attention to officers, directors, " +
			"subsidiaries, and ownership relationships.\n\n" + basePrompt + text
	case "email":
		return "This is an email. Pay special attention to sender/recipient identities " +
			"and any organizations or individuals discussed.\n\n" + basePrompt + text
	default:
		return basePrompt + text
	}
}
