// Package graphstore implements the graph store adapter as a DynamoDB
// single-table design, following the same
// infrastructure/persistence/dynamodb/graph_repository.go partitioning
// idiom (PK/SK/GSI1PK/GSI1SK), repurposed from a node/graph aggregate store
// into a per-investigation property-graph store.
//
// Partitioning:
//
//	PK = INVESTIGATION#{id}          SK = ENTITY#{entityID}   (entity item)
//	PK = INVESTIGATION#{id}          SK = EDGE#{edgeID}       (edge item)
//	PK = META#investigations         SK = INVESTIGATION#{id}  (meta record)
//	GSI1PK = INVESTIGATION#{id}      GSI1SK = ENTITY#{id} | EDGE#{id}
//
// Node label is always "Entity"; the edge's schema name is stored verbatim
// as the Schema attribute and its sanitized form as the EdgeType attribute.
package graphstore

import (
	"context"
	stderrors "errors"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"osintgraph/domain/core/entities"
	"osintgraph/domain/core/valueobjects"
	"osintgraph/infrastructure/metrics"
	apperrors "osintgraph/pkg/errors"
)

const (
	metaPartitionKey = "META#investigations"
)

// entityItem and edgeItem are the DynamoDB wire shapes. Properties are
// stored in a nested map attribute rather than flattened onto the item, so
// they never collide with the item's own reserved attributes (PK, SK,
// GSI1PK, GSI1SK, Schema, ...) without needing the spec's `_`-prefix
// convention — that convention matters only for an adapter that flattens
// properties alongside reserved names in the same namespace.
type entityItem struct {
	PK         string              `dynamodbav:"PK"`
	SK         string              `dynamodbav:"SK"`
	GSI1PK     string              `dynamodbav:"GSI1PK"`
	GSI1SK     string              `dynamodbav:"GSI1SK"`
	Kind       string              `dynamodbav:"Kind"`
	EntityID   string              `dynamodbav:"EntityID"`
	Schema     string              `dynamodbav:"Schema"`
	Properties map[string][]string `dynamodbav:"Properties"`
	CreatedAt  string              `dynamodbav:"CreatedAt"`
	UpdatedAt  string              `dynamodbav:"UpdatedAt"`
}

type edgeItem struct {
	PK         string              `dynamodbav:"PK"`
	SK         string              `dynamodbav:"SK"`
	GSI1PK     string              `dynamodbav:"GSI1PK"`
	GSI1SK     string              `dynamodbav:"GSI1SK"`
	Kind       string              `dynamodbav:"Kind"`
	EdgeID     string              `dynamodbav:"EdgeID"`
	Schema     string              `dynamodbav:"Schema"`
	EdgeType   string              `dynamodbav:"EdgeType"`
	Source     string              `dynamodbav:"Source"`
	Target     string              `dynamodbav:"Target"`
	Properties map[string][]string `dynamodbav:"Properties"`
	CreatedAt  string              `dynamodbav:"CreatedAt"`
}

type investigationItem struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	InvID       string `dynamodbav:"InvID"`
	Name        string `dynamodbav:"Name"`
	Description string `dynamodbav:"Description"`
	CreatedAt   string `dynamodbav:"CreatedAt"`
}

// Store is the DynamoDB-backed implementation of ports.GraphStore.
type Store struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
	metrics   *metrics.Collector
}

func NewStore(client *dynamodb.Client, tableName string, logger *zap.Logger) *Store {
	return &Store{client: client, tableName: tableName, logger: logger}
}

// NewInstrumentedStore is NewStore plus a metrics collector, so every
// write, GetEntity, ListGraphPage, DeleteGraph and the investigation-meta
// get/put/delete also record a Prometheus counter/histogram pair.
// ListEntities, ListEntitiesBySchema, CountEntities, EdgesOf and
// ListInvestigationMeta are not recorded.
func NewInstrumentedStore(client *dynamodb.Client, tableName string, logger *zap.Logger, collector *metrics.Collector) *Store {
	return &Store{client: client, tableName: tableName, logger: logger, metrics: collector}
}

// observe records operation outcome and latency. Safe to call with a nil
// collector (NewStore builds a Store without one).
func (s *Store) observe(operation string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	s.metrics.GraphStoreOperations.WithLabelValues(operation, status).Inc()
	s.metrics.GraphStoreDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func invPK(inv valueobjects.InvestigationID) string { return "INVESTIGATION#" + inv.String() }
func entitySK(id valueobjects.EntityID) string      { return "ENTITY#" + id.String() }
func edgeSK(id string) string                       { return "EDGE#" + id }

// SanitizeSchemaName implements the edge-type sanitization rule:
// uppercase, non-alphanumerics → `_`, a leading digit is prefixed `R_`.
func SanitizeSchemaName(schema string) string {
	upper := strings.ToUpper(schema)
	sanitized := regexp.MustCompile(`[^A-Z0-9]`).ReplaceAllString(upper, "_")
	if len(sanitized) > 0 && sanitized[0] >= '0' && sanitized[0] <= '9' {
		sanitized = "R_" + sanitized
	}
	return sanitized
}

func (s *Store) CreateEntity(ctx context.Context, inv valueobjects.InvestigationID, e *entities.Entity) (err error) {
	defer func(start time.Time) { s.observe("create_entity", start, err) }(time.Now())
	item := entityItem{
		PK: invPK(inv), SK: entitySK(e.ID()),
		GSI1PK: invPK(inv), GSI1SK: entitySK(e.ID()),
		Kind: "Entity", EntityID: e.ID().String(), Schema: e.Schema(),
		Properties: e.Properties().ToMap(),
		CreatedAt:  e.CreatedAt().Format(time.RFC3339), UpdatedAt: e.UpdatedAt().Format(time.RFC3339),
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return apperrors.Internal("marshal entity").WithCause(err)
	}

	cond := expression.AttributeNotExists(expression.Name("PK"))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return apperrors.Internal("build condition expression").WithCause(err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(s.tableName),
		Item:                      av,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var cce *types.ConditionalCheckFailedException
		if stderrors.As(err, &cce) {
			return apperrors.Conflict("entity already exists: " + e.ID().String())
		}
		return apperrors.Unavailable("graph store put entity").WithCause(err)
	}
	return nil
}

func (s *Store) GetEntity(ctx context.Context, inv valueobjects.InvestigationID, id valueobjects.EntityID) (ent *entities.Entity, err error) {
	defer func(start time.Time) { s.observe("get_entity", start, err) }(time.Now())
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: invPK(inv)},
			"SK": &types.AttributeValueMemberS{Value: entitySK(id)},
		},
	})
	if err != nil {
		return nil, apperrors.Unavailable("graph store get entity").WithCause(err)
	}
	if out.Item == nil {
		return nil, apperrors.NotFound("entity not found: " + id.String())
	}
	var item entityItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, apperrors.Internal("unmarshal entity").WithCause(err)
	}
	return toEntity(inv, item), nil
}

func toEntity(inv valueobjects.InvestigationID, item entityItem) *entities.Entity {
	e := entities.NewEntity(valueobjects.EntityID(item.EntityID), inv, item.Schema, valueobjects.FromMap(item.Properties))
	return e
}

func (s *Store) ListEntities(ctx context.Context, inv valueobjects.InvestigationID, search string) ([]*entities.Entity, error) {
	all, err := s.queryEntities(ctx, inv)
	if err != nil {
		return nil, err
	}
	if search == "" {
		sortEntitiesByID(all)
		return all, nil
	}
	lowered := strings.ToLower(search)
	var out []*entities.Entity
	for _, e := range all {
		if strings.Contains(strings.ToLower(e.ID().String()), lowered) {
			out = append(out, e)
			continue
		}
		for _, name := range e.Properties().Get("name") {
			if strings.Contains(strings.ToLower(name), lowered) {
				out = append(out, e)
				break
			}
		}
	}
	sortEntitiesByID(out)
	return out, nil
}

func (s *Store) ListEntitiesBySchema(ctx context.Context, inv valueobjects.InvestigationID, schema string) ([]*entities.Entity, error) {
	all, err := s.queryEntities(ctx, inv)
	if err != nil {
		return nil, err
	}
	var out []*entities.Entity
	for _, e := range all {
		if e.Schema() == schema {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) queryEntities(ctx context.Context, inv valueobjects.InvestigationID) ([]*entities.Entity, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(invPK(inv))).
		And(expression.Key("SK").BeginsWith("ENTITY#"))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, apperrors.Internal("build query expression").WithCause(err)
	}
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, apperrors.Unavailable("graph store query entities").WithCause(err)
	}
	result := make([]*entities.Entity, 0, len(out.Items))
	for _, raw := range out.Items {
		var item entityItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, apperrors.Internal("unmarshal entity").WithCause(err)
		}
		result = append(result, toEntity(inv, item))
	}
	return result, nil
}

func sortEntitiesByID(es []*entities.Entity) {
	for i := 1; i < len(es); i++ {
		for j := i; j > 0 && es[j-1].ID() > es[j].ID(); j-- {
			es[j-1], es[j] = es[j], es[j-1]
		}
	}
}

func (s *Store) UpdateEntity(ctx context.Context, inv valueobjects.InvestigationID, e *entities.Entity) (err error) {
	defer func(start time.Time) { s.observe("update_entity", start, err) }(time.Now())
	item := entityItem{
		PK: invPK(inv), SK: entitySK(e.ID()),
		GSI1PK: invPK(inv), GSI1SK: entitySK(e.ID()),
		Kind: "Entity", EntityID: e.ID().String(), Schema: e.Schema(),
		Properties: e.Properties().ToMap(),
		CreatedAt:  e.CreatedAt().Format(time.RFC3339), UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return apperrors.Internal("marshal entity").WithCause(err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(s.tableName), Item: av})
	if err != nil {
		return apperrors.Unavailable("graph store update entity").WithCause(err)
	}
	return nil
}

func (s *Store) DeleteEntity(ctx context.Context, inv valueobjects.InvestigationID, id valueobjects.EntityID) (found bool, err error) {
	defer func(start time.Time) { s.observe("delete_entity", start, err) }(time.Now())
	edges, err := s.EdgesOf(ctx, inv, id)
	if err != nil {
		return false, err
	}
	for _, edge := range edges {
		_ = s.DeleteEdge(ctx, inv, edge.ID())
	}

	out, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: invPK(inv)},
			"SK": &types.AttributeValueMemberS{Value: entitySK(id)},
		},
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return false, apperrors.Unavailable("graph store delete entity").WithCause(err)
	}
	return len(out.Attributes) > 0, nil
}

func (s *Store) CountEntities(ctx context.Context, inv valueobjects.InvestigationID) (int, error) {
	all, err := s.queryEntities(ctx, inv)
	if err != nil {
		return 0, err
	}
	return len(all), nil
}

func (s *Store) UpsertEdge(ctx context.Context, inv valueobjects.InvestigationID, e *entities.Edge) (err error) {
	defer func(start time.Time) { s.observe("upsert_edge", start, err) }(time.Now())
	item := edgeItem{
		PK: invPK(inv), SK: edgeSK(e.ID()),
		GSI1PK: invPK(inv), GSI1SK: edgeSK(e.ID()),
		Kind: "Edge", EdgeID: e.ID(), Schema: e.Schema(), EdgeType: SanitizeSchemaName(e.Schema()),
		Source: e.Source().String(), Target: e.Target().String(),
		Properties: e.Properties().ToMap(), CreatedAt: e.CreatedAt().Format(time.RFC3339),
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return apperrors.Internal("marshal edge").WithCause(err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(s.tableName), Item: av})
	if err != nil {
		return apperrors.Unavailable("graph store upsert edge").WithCause(err)
	}
	return nil
}

func (s *Store) EdgesOf(ctx context.Context, inv valueobjects.InvestigationID, id valueobjects.EntityID) ([]*entities.Edge, error) {
	all, err := s.queryEdges(ctx, inv)
	if err != nil {
		return nil, err
	}
	var out []*entities.Edge
	for _, e := range all {
		if e.Source() == id || e.Target() == id {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) queryEdges(ctx context.Context, inv valueobjects.InvestigationID) ([]*entities.Edge, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(invPK(inv))).
		And(expression.Key("SK").BeginsWith("EDGE#"))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, apperrors.Internal("build query expression").WithCause(err)
	}
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, apperrors.Unavailable("graph store query edges").WithCause(err)
	}
	result := make([]*entities.Edge, 0, len(out.Items))
	for _, raw := range out.Items {
		var item edgeItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, apperrors.Internal("unmarshal edge").WithCause(err)
		}
		edge := entities.NewEdge(item.EdgeID, inv, item.Schema,
			valueobjects.EntityID(item.Source), valueobjects.EntityID(item.Target),
			valueobjects.FromMap(item.Properties))
		result = append(result, edge)
	}
	return result, nil
}

func (s *Store) DeleteEdge(ctx context.Context, inv valueobjects.InvestigationID, id string) (err error) {
	defer func(start time.Time) { s.observe("delete_edge", start, err) }(time.Now())
	_, err = s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: invPK(inv)},
			"SK": &types.AttributeValueMemberS{Value: edgeSK(id)},
		},
	})
	if err != nil {
		return apperrors.Unavailable("graph store delete edge").WithCause(err)
	}
	return nil
}

func (s *Store) ListGraphPage(ctx context.Context, inv valueobjects.InvestigationID, skip, limit int) (pageEntities []*entities.Entity, pageEdges []*entities.Edge, total int, err error) {
	defer func(start time.Time) { s.observe("list_graph_page", start, err) }(time.Now())
	allEntities, err := s.queryEntities(ctx, inv)
	if err != nil {
		return nil, nil, 0, err
	}
	sortEntitiesByID(allEntities)
	total = len(allEntities)

	end := skip + limit
	if skip > total {
		skip = total
	}
	if end > total {
		end = total
	}
	pageEntities = allEntities[skip:end]

	allEdges, err := s.queryEdges(ctx, inv)
	if err != nil {
		return nil, nil, 0, err
	}
	inPage := make(map[valueobjects.EntityID]bool, len(pageEntities))
	for _, e := range pageEntities {
		inPage[e.ID()] = true
	}
	for _, e := range allEdges {
		if inPage[e.Source()] && inPage[e.Target()] {
			pageEdges = append(pageEdges, e)
		}
	}
	return pageEntities, pageEdges, total, nil
}

func (s *Store) DeleteGraph(ctx context.Context, inv valueobjects.InvestigationID) (err error) {
	defer func(start time.Time) { s.observe("delete_graph", start, err) }(time.Now())
	entities, err := s.queryEntities(ctx, inv)
	if err != nil {
		return err
	}
	for _, e := range entities {
		if _, err := s.DeleteEntity(ctx, inv, e.ID()); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) PutInvestigationMeta(ctx context.Context, inv *entities.Investigation) (err error) {
	defer func(start time.Time) { s.observe("put_investigation_meta", start, err) }(time.Now())
	item := investigationItem{
		PK: metaPartitionKey, SK: "INVESTIGATION#" + inv.ID().String(),
		InvID: inv.ID().String(), Name: inv.Name(), Description: inv.Description(),
		CreatedAt: inv.CreatedAt().Format(time.RFC3339),
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return apperrors.Internal("marshal investigation").WithCause(err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(s.tableName), Item: av})
	if err != nil {
		return apperrors.Unavailable("graph store put investigation meta").WithCause(err)
	}
	return nil
}

func (s *Store) GetInvestigationMeta(ctx context.Context, id valueobjects.InvestigationID) (inv *entities.Investigation, err error) {
	defer func(start time.Time) { s.observe("get_investigation_meta", start, err) }(time.Now())
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: metaPartitionKey},
			"SK": &types.AttributeValueMemberS{Value: "INVESTIGATION#" + id.String()},
		},
	})
	if err != nil {
		return nil, apperrors.Unavailable("graph store get investigation meta").WithCause(err)
	}
	if out.Item == nil {
		return nil, apperrors.NotFound("investigation not found: " + id.String())
	}
	var item investigationItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, apperrors.Internal("unmarshal investigation").WithCause(err)
	}
	return toInvestigation(item), nil
}

func toInvestigation(item investigationItem) *entities.Investigation {
	return entities.NewInvestigation(valueobjects.InvestigationID(item.InvID), item.Name, item.Description)
}

func (s *Store) ListInvestigationMeta(ctx context.Context) ([]*entities.Investigation, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(metaPartitionKey))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, apperrors.Internal("build query expression").WithCause(err)
	}
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName: aws.String(s.tableName), KeyConditionExpression: expr.KeyCondition(),
		ExpressionAttributeNames: expr.Names(), ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, apperrors.Unavailable("graph store list investigations").WithCause(err)
	}
	result := make([]*entities.Investigation, 0, len(out.Items))
	for _, raw := range out.Items {
		var item investigationItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, apperrors.Internal("unmarshal investigation").WithCause(err)
		}
		result = append(result, toInvestigation(item))
	}
	return result, nil
}

func (s *Store) DeleteInvestigationMeta(ctx context.Context, id valueobjects.InvestigationID) (err error) {
	defer func(start time.Time) { s.observe("delete_investigation_meta", start, err) }(time.Now())
	_, err = s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: metaPartitionKey},
			"SK": &types.AttributeValueMemberS{Value: "INVESTIGATION#" + id.String()},
		},
	})
	if err != nil {
		return apperrors.Unavailable("graph store delete investigation meta").WithCause(err)
	}
	return nil
}
