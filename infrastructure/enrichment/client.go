// Package enrichment implements the sanctions/OSINT enrichment client: a
// circuit-broken HTTP client against a Yente/OpenSanctions-compatible
// matching API, following the same github.com/sony/gobreaker usage in
// 2lar-b2/backend's internal/middleware/circuit_breaker.go (ReadyToTrip on
// a failure ratio, OnStateChange logged) adapted from an inbound HTTP
// middleware to an outbound client wrapper.
package enrichment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"osintgraph/application/ports"
	"osintgraph/infrastructure/cache"
	apperrors "osintgraph/pkg/errors"
)

// searchCacheTTLSeconds bounds how long an identical free-text search is
// served from cache before hitting the sanctions service again.
const searchCacheTTLSeconds = 30

// Client calls a Yente-compatible /search and /entities/{id} API, circuit
// broken so a degraded sanctions service cannot cascade into request
// timeouts across the rest of the API. External outages in the sanctions client are
// reported as 503 rather than allowed to cascade. Search results are cached briefly via an
// in-memory TTL cache (infrastructure/cache) since repeated
// free-text lookups during one investigation session are common and the
// sanctions dataset changes slowly relative to a session.
type Client struct {
	httpClient *http.Client
	baseURL    string
	breaker    *gobreaker.CircuitBreaker
	logger     *zap.Logger
	cache      *cache.InMemoryCache
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "yente-enrichment",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 3 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("enrichment circuit breaker state change",
				zap.String("name", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		breaker:    breaker,
		logger:     logger,
		cache:      cache.NewInMemoryCache(),
	}
}

type searchResponse struct {
	Results []struct {
		ID         string              `json:"id"`
		Schema     string              `json:"schema"`
		Caption    string              `json:"caption"`
		Score      *float64            `json:"score"`
		Datasets   []string            `json:"datasets"`
		Properties map[string][]string `json:"properties"`
	} `json:"results"`
}

// Search calls the matching API's free-text entity search endpoint.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]ports.SanctionsHit, error) {
	cacheKey := fmt.Sprintf("search:%s:%d", query, limit)
	if cached, found := c.cache.Get(ctx, cacheKey); found {
		return cached.([]ports.SanctionsHit), nil
	}

	url := fmt.Sprintf("%s/search/default?q=%s&limit=%d", c.baseURL, urlEscape(query), limit)
	body, err := c.doGet(ctx, url)
	if err != nil {
		return nil, err
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("invalid sanctions search response: %w", err)
	}

	hits := make([]ports.SanctionsHit, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		hits = append(hits, ports.SanctionsHit{
			ID: r.ID, Schema: r.Schema, Caption: r.Caption,
			Score: r.Score, Datasets: r.Datasets, Properties: r.Properties,
		})
	}
	_ = c.cache.Set(ctx, cacheKey, hits, searchCacheTTLSeconds)
	return hits, nil
}

// Adjacency fetches one entity record and recursively scans the decoded
// JSON for every nested "id" reference — grounded directly on
// yente_service.py's _extract_entity_ids recursive dict/list walk, the
// natural Go shape for the arbitrarily-nested response being
// map[string]any/[]any rather than a fixed struct.
func (c *Client) Adjacency(ctx context.Context, id string) (map[string]interface{}, error) {
	url := fmt.Sprintf("%s/entities/%s", c.baseURL, urlEscape(id))
	body, err := c.doGet(ctx, url)
	if err != nil {
		return nil, err
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("invalid sanctions entity response: %w", err)
	}

	ids := map[string]bool{}
	extractIDs(doc, ids)
	delete(ids, id)

	adjacent := make([]string, 0, len(ids))
	for k := range ids {
		adjacent = append(adjacent, k)
	}
	doc["_adjacent_ids"] = adjacent
	return doc, nil
}

// extractIDs recursively walks any decoded JSON value, collecting every
// string found under an "id" key.
func extractIDs(v interface{}, out map[string]bool) {
	switch node := v.(type) {
	case map[string]interface{}:
		for k, val := range node {
			if k == "id" {
				if s, ok := val.(string); ok && s != "" {
					out[s] = true
				}
			}
			extractIDs(val, out)
		}
	case []interface{}:
		for _, item := range node {
			extractIDs(item, out)
		}
	}
}

func (c *Client) doGet(ctx context.Context, url string) ([]byte, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, bytes.NewReader(nil))
		if err != nil {
			return nil, err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("sanctions service returned %d", resp.StatusCode)
		}
		return body, nil
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, apperrors.Unavailable("sanctions enrichment service is unavailable")
		}
		return nil, apperrors.Unavailable("sanctions enrichment request failed: " + err.Error())
	}
	return result.([]byte), nil
}

func urlEscape(s string) string {
	var buf bytes.Buffer
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			buf.WriteRune(r)
			continue
		}
		fmt.Fprintf(&buf, "%%%02X", r)
	}
	return buf.String()
}
