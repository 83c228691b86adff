// Package di hand-wires the application container. Provider functions are
// invoked directly from InitializeContainer rather than through
// google/wire — the container graph here is small and static enough that
// generated wiring code would add a build step without adding clarity.
package di

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"osintgraph/application/entities"
	appenrichment "osintgraph/application/enrichment"
	"osintgraph/application/ingest"
	"osintgraph/application/investigations"
	"osintgraph/application/ports"
	"osintgraph/application/workflow"
	"osintgraph/domain/schema"
	"osintgraph/infrastructure/config"
	"osintgraph/infrastructure/enrichment"
	eventinfra "osintgraph/infrastructure/events"
	"osintgraph/infrastructure/extraction"
	"osintgraph/infrastructure/graphstore"
	"osintgraph/infrastructure/metrics"
	"osintgraph/infrastructure/notebook"
	"osintgraph/infrastructure/objectstore"
)

// ProvideLogger builds a zap logger whose shape switches on environment.
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideAWSConfig builds the shared AWS config used by the DynamoDB and S3
// clients. A non-empty DynamoEndpoint/S3EndpointURL routes requests at a
// local stand-in (e.g. DynamoDB Local, MinIO) for development, producing a
// single aws.Config shared across service clients.
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWSRegion),
	}
	if cfg.DynamoEndpoint != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(awscreds.NewStaticCredentialsProvider("local", "local", "")))
	}
	return awsconfig.LoadDefaultConfig(ctx, opts...)
}

func ProvideDynamoDBClient(awsCfg aws.Config, cfg *config.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg, func(o *awsdynamodb.Options) {
		if cfg.DynamoEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoEndpoint)
		}
	})
}

func ProvideS3Client(awsCfg aws.Config, cfg *config.Config) *awss3.Client {
	return awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.S3EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.S3EndpointURL)
			o.UsePathStyle = true
		}
	})
}

// ProvideNotebookPool opens the notebook store's Postgres pool and runs its idempotent
// migration before handing the pool to callers.
func ProvideNotebookPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.NotebookDatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("notebook pool: %w", err)
	}
	if err := notebook.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func ProvideGraphStore(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger, collector *metrics.Collector) ports.GraphStore {
	return graphstore.NewInstrumentedStore(client, cfg.DynamoDBTable, logger, collector)
}

func ProvideObjectStore(client *awss3.Client, cfg *config.Config, logger *zap.Logger) ports.ObjectStore {
	return objectstore.NewStore(client, cfg.S3BucketPrefix, logger)
}

func ProvideWorkflowStore(client *awsdynamodb.Client, cfg *config.Config) ports.WorkflowStore {
	return workflow.NewStore(client, cfg.WorkflowTableName)
}

func ProvideNotebookStore(pool *pgxpool.Pool) ports.NotebookStore {
	return notebook.NewStore(pool)
}

func ProvideCatalog() *schema.Catalog {
	return schema.NewCatalog()
}

// ProvideMetricsCollector builds the process's Prometheus registry even
// when metrics are disabled, since the /metrics route's presence is gated
// on cfg.EnableMetrics rather than the collector's existence.
func ProvideMetricsCollector() *metrics.Collector {
	return metrics.NewCollector("osintgraph")
}

// ProvideEventPublisher fans every domain event out to the structured
// logger and, when metrics are enabled, to the Prometheus collector too.
func ProvideEventPublisher(logger *zap.Logger, collector *metrics.Collector, cfg *config.Config) ports.EventPublisher {
	logging := eventinfra.NewLoggingPublisher(logger)
	if !cfg.EnableMetrics {
		return logging
	}
	return eventinfra.NewFanoutPublisher(logging, eventinfra.NewMetricsPublisher(collector))
}

func ProvideEntityService(store ports.GraphStore, catalog *schema.Catalog, logger *zap.Logger, publisher ports.EventPublisher) *entities.Service {
	return entities.NewService(store, catalog, logger, publisher)
}

func ProvideIngestService(store ports.GraphStore, catalog *schema.Catalog, logger *zap.Logger) *ingest.Service {
	return ingest.NewService(store, catalog, logger)
}

func ProvideExtractor(cfg *config.Config, catalog *schema.Catalog) *extraction.Extractor {
	return extraction.NewExtractor(cfg.AnthropicAPIKey, cfg.ExtractionModelID, catalog)
}

func ProvideWorkflowEngine(
	workflowStore ports.WorkflowStore,
	objectStore ports.ObjectStore,
	entityService *entities.Service,
	catalog *schema.Catalog,
	extractor *extraction.Extractor,
	logger *zap.Logger,
	publisher ports.EventPublisher,
) *workflow.Engine {
	return workflow.NewEngine(workflowStore, objectStore, entityService, catalog, extractor, logger, publisher)
}

func ProvideInvestigationService(store ports.GraphStore, objectStore ports.ObjectStore, logger *zap.Logger, publisher ports.EventPublisher) *investigations.Service {
	return investigations.NewService(store, objectStore, logger, publisher)
}

func ProvideEnrichmentClient(cfg *config.Config, logger *zap.Logger) *enrichment.Client {
	return enrichment.NewClient(cfg.YenteURL, time.Duration(cfg.YenteTimeoutSeconds)*time.Second, logger)
}

func ProvideEnrichmentService(client *enrichment.Client, store ports.GraphStore, entityService *entities.Service, logger *zap.Logger) *appenrichment.Service {
	return appenrichment.NewService(client, store, entityService, logger)
}

// Container holds every wired dependency the HTTP layer needs, assembled
// by hand rather than via a DI-generation tool.
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	GraphStore    ports.GraphStore
	ObjectStore   ports.ObjectStore
	WorkflowStore ports.WorkflowStore
	NotebookStore ports.NotebookStore

	Catalog       *schema.Catalog
	EntityService *entities.Service
	IngestService *ingest.Service
	Extractor     *extraction.Extractor
	Workflow      *workflow.Engine
	Investigation *investigations.Service
	Enrichment    *appenrichment.Service
	Metrics       *metrics.Collector

	notebookPool *pgxpool.Pool
}

// InitializeContainer builds the full dependency graph in dependency order.
// There is no generated wire_gen.go counterpart here: every provider above
// is called directly, by design (see DESIGN.md).
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	awsCfg, err := ProvideAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}
	dynamoClient := ProvideDynamoDBClient(awsCfg, cfg)
	s3Client := ProvideS3Client(awsCfg, cfg)

	notebookPool, err := ProvideNotebookPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("notebook pool: %w", err)
	}

	metricsCollector := ProvideMetricsCollector()

	graphStore := ProvideGraphStore(dynamoClient, cfg, logger, metricsCollector)
	objectStore := ProvideObjectStore(s3Client, cfg, logger)
	workflowStore := ProvideWorkflowStore(dynamoClient, cfg)
	notebookStore := ProvideNotebookStore(notebookPool)

	catalog := ProvideCatalog()
	eventPublisher := ProvideEventPublisher(logger, metricsCollector, cfg)
	entityService := ProvideEntityService(graphStore, catalog, logger, eventPublisher)
	ingestService := ProvideIngestService(graphStore, catalog, logger)
	extractor := ProvideExtractor(cfg, catalog)
	workflowEngine := ProvideWorkflowEngine(workflowStore, objectStore, entityService, catalog, extractor, logger, eventPublisher)
	investigationService := ProvideInvestigationService(graphStore, objectStore, logger, eventPublisher)
	enrichmentClient := ProvideEnrichmentClient(cfg, logger)
	enrichmentService := ProvideEnrichmentService(enrichmentClient, graphStore, entityService, logger)

	return &Container{
		Config:        cfg,
		Logger:        logger,
		GraphStore:    graphStore,
		ObjectStore:   objectStore,
		WorkflowStore: workflowStore,
		NotebookStore: notebookStore,
		Catalog:       catalog,
		EntityService: entityService,
		IngestService: ingestService,
		Extractor:     extractor,
		Workflow:      workflowEngine,
		Investigation: investigationService,
		Enrichment:    enrichmentService,
		Metrics:       metricsCollector,
		notebookPool:  notebookPool,
	}, nil
}

// Close releases pooled resources on shutdown.
func (c *Container) Close() {
	if c.notebookPool != nil {
		c.notebookPool.Close()
	}
}
