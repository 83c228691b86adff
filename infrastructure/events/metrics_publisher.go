package events

import (
	"context"

	"osintgraph/infrastructure/metrics"
)

// MetricsPublisher implements ports.EventPublisher by routing each domain
// event to the matching Prometheus counter, so the business metrics stay
// derived from the same events the logger already sees rather than a
// second instrumentation pass scattered through the services.
type MetricsPublisher struct {
	collector *metrics.Collector
}

func NewMetricsPublisher(collector *metrics.Collector) *MetricsPublisher {
	return &MetricsPublisher{collector: collector}
}

func (p *MetricsPublisher) Publish(_ context.Context, event interface{ EventType() string }) error {
	switch event.EventType() {
	case "entity.created":
		p.collector.EntitiesCreated.Inc()
	case "entity.deleted":
		p.collector.EntitiesDeleted.Inc()
	case "entity.merged":
		p.collector.EntitiesMerged.Inc()
	case "edge.created":
		p.collector.EdgesCreated.Inc()
	case "workflow.step_completed":
		if step, ok := event.(interface{ StepLabel() string }); ok {
			p.collector.WorkflowStepsCompleted.WithLabelValues(step.StepLabel()).Inc()
		} else {
			p.collector.WorkflowStepsCompleted.WithLabelValues("unknown").Inc()
		}
	}
	return nil
}

// FanoutPublisher dispatches one event to every wrapped publisher in
// order, so the logging publisher and the metrics publisher can both
// observe the same event stream without either needing to know of the
// other.
type FanoutPublisher struct {
	publishers []publisher
}

type publisher interface {
	Publish(ctx context.Context, event interface{ EventType() string }) error
}

func NewFanoutPublisher(publishers ...publisher) *FanoutPublisher {
	return &FanoutPublisher{publishers: publishers}
}

func (f *FanoutPublisher) Publish(ctx context.Context, event interface{ EventType() string }) error {
	var firstErr error
	for _, p := range f.publishers {
		if err := p.Publish(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
