package events

import "time"

// DomainEvent is implemented by every fact the core publishes, each
// embedding BaseEvent for its common fields.
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
	AggregateID() string
}

type BaseEvent struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Aggregate string    `json:"aggregate_id"`
}

func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }
func (e BaseEvent) AggregateID() string   { return e.Aggregate }

func newBase(eventType, aggregateID string) BaseEvent {
	return BaseEvent{Type: eventType, Timestamp: time.Now().UTC(), Aggregate: aggregateID}
}

type InvestigationCreated struct {
	BaseEvent
	Name string
}

func NewInvestigationCreated(investigationID, name string) InvestigationCreated {
	return InvestigationCreated{BaseEvent: newBase("investigation.created", investigationID), Name: name}
}

type InvestigationDeleted struct {
	BaseEvent
}

func NewInvestigationDeleted(investigationID string) InvestigationDeleted {
	return InvestigationDeleted{BaseEvent: newBase("investigation.deleted", investigationID)}
}

type EntityCreated struct {
	BaseEvent
	InvestigationID string
	Schema          string
}

func NewEntityCreated(entityID, investigationID, schema string) EntityCreated {
	return EntityCreated{BaseEvent: newBase("entity.created", entityID), InvestigationID: investigationID, Schema: schema}
}

type EntityUpdated struct {
	BaseEvent
	InvestigationID string
}

func NewEntityUpdated(entityID, investigationID string) EntityUpdated {
	return EntityUpdated{BaseEvent: newBase("entity.updated", entityID), InvestigationID: investigationID}
}

type EntityDeleted struct {
	BaseEvent
	InvestigationID string
}

func NewEntityDeleted(entityID, investigationID string) EntityDeleted {
	return EntityDeleted{BaseEvent: newBase("entity.deleted", entityID), InvestigationID: investigationID}
}

type EntitiesMerged struct {
	BaseEvent
	InvestigationID string
	SourceIDs       []string
}

func NewEntitiesMerged(targetID, investigationID string, sourceIDs []string) EntitiesMerged {
	return EntitiesMerged{BaseEvent: newBase("entity.merged", targetID), InvestigationID: investigationID, SourceIDs: sourceIDs}
}

type EdgeCreated struct {
	BaseEvent
	InvestigationID string
	Schema          string
	Source          string
	Target          string
}

func NewEdgeCreated(edgeID, investigationID, schema, source, target string) EdgeCreated {
	return EdgeCreated{
		BaseEvent:       newBase("edge.created", edgeID),
		InvestigationID: investigationID,
		Schema:          schema,
		Source:          source,
		Target:          target,
	}
}

type WorkflowStepCompleted struct {
	BaseEvent
	StepName string
}

func NewWorkflowStepCompleted(workflowID, stepName string) WorkflowStepCompleted {
	return WorkflowStepCompleted{BaseEvent: newBase("workflow.step_completed", workflowID), StepName: stepName}
}

// StepLabel identifies the metrics label for this event, distinct from
// EventType (which is the same "workflow.step_completed" for every step).
func (e WorkflowStepCompleted) StepLabel() string { return e.StepName }
