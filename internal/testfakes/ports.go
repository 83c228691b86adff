package testfakes

import (
	"context"
	"fmt"
	"sync"

	"osintgraph/application/ports"
	"osintgraph/domain/core/valueobjects"
	apperrors "osintgraph/pkg/errors"
)

// ObjectStore is an in-memory ports.ObjectStore keyed by
// (investigation, document_id, filename), mirroring the real store's
// per-document key shape.
type ObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func NewObjectStore() *ObjectStore {
	return &ObjectStore{objects: make(map[string][]byte)}
}

func objectKey(inv valueobjects.InvestigationID, documentID, filename string) string {
	return inv.String() + "/" + documentID + "/" + filename
}

func (o *ObjectStore) EnsureBucket(_ context.Context, inv valueobjects.InvestigationID) (string, error) {
	return "fake-bucket-" + inv.String(), nil
}

func (o *ObjectStore) Put(_ context.Context, inv valueobjects.InvestigationID, documentID, filename, _ string, body []byte) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.objects[objectKey(inv, documentID, filename)] = body
	return fmt.Sprintf("s3://fake-bucket-%s/%s/%s", inv.String(), documentID, filename), nil
}

func (o *ObjectStore) Get(_ context.Context, inv valueobjects.InvestigationID, documentID, filename string) ([]byte, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	body, ok := o.objects[objectKey(inv, documentID, filename)]
	if !ok {
		return nil, apperrors.NotFound("object not found")
	}
	return body, nil
}

// WorkflowStore is an in-memory ports.WorkflowStore: step outputs keyed by
// (workflow_id, step_name) plus one status record per workflow, matching
// the workflow engine's durability contract.
type WorkflowStore struct {
	mu      sync.Mutex
	steps   map[string][]byte
	puts    map[string]int
	status  map[string]string
	result  map[string][]byte
	errMsg  map[string]string
}

func NewWorkflowStore() *WorkflowStore {
	return &WorkflowStore{
		steps:  make(map[string][]byte),
		puts:   make(map[string]int),
		status: make(map[string]string),
		result: make(map[string][]byte),
		errMsg: make(map[string]string),
	}
}

func stepKey(workflowID, stepName string) string { return workflowID + "|" + stepName }

func (w *WorkflowStore) GetStep(_ context.Context, workflowID, stepName string) ([]byte, bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	out, ok := w.steps[stepKey(workflowID, stepName)]
	return out, ok, nil
}

func (w *WorkflowStore) PutStep(_ context.Context, workflowID, stepName string, output []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.steps[stepKey(workflowID, stepName)] = output
	w.puts[stepKey(workflowID, stepName)]++
	return nil
}

func (w *WorkflowStore) SetStatus(_ context.Context, workflowID string, status string, result []byte, errMsg string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status[workflowID] = status
	w.result[workflowID] = result
	w.errMsg[workflowID] = errMsg
	return nil
}

func (w *WorkflowStore) GetStatus(_ context.Context, workflowID string) (string, []byte, string, bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	status, found := w.status[workflowID]
	if !found {
		return "", nil, "", false, nil
	}
	return status, w.result[workflowID], w.errMsg[workflowID], true, nil
}

// StepCallCount lets a test assert a step only ran once across a resumed
// run by counting PutStep calls per step name.
func (w *WorkflowStore) StepCallCount(workflowID, stepName string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.puts[stepKey(workflowID, stepName)]
}

// NotebookStore is an in-memory ports.NotebookStore implementing the same
// version-CAS contract as the Postgres adapter.
type NotebookStore struct {
	mu      sync.Mutex
	docs    map[valueobjects.InvestigationID][]byte
	version map[valueobjects.InvestigationID]int
}

func NewNotebookStore() *NotebookStore {
	return &NotebookStore{
		docs:    make(map[valueobjects.InvestigationID][]byte),
		version: make(map[valueobjects.InvestigationID]int),
	}
}

func (n *NotebookStore) GetOrCreate(_ context.Context, inv valueobjects.InvestigationID) ([]byte, int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if v, ok := n.version[inv]; ok {
		return n.docs[inv], v, nil
	}
	empty := []byte(`{"nodes":[],"edges":[],"viewport":{"x":0,"y":0,"zoom":1}}`)
	n.docs[inv] = empty
	n.version[inv] = 1
	return empty, 1, nil
}

func (n *NotebookStore) Save(_ context.Context, inv valueobjects.InvestigationID, expectedVersion int, canvasDoc []byte) (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	current, ok := n.version[inv]
	if !ok || current != expectedVersion {
		return 0, apperrors.Conflict("notebook version mismatch: expected version is stale")
	}
	n.version[inv] = current + 1
	n.docs[inv] = canvasDoc
	return n.version[inv], nil
}

// SanctionsSearcher is a scripted ports.SanctionsSearcher fake.
type SanctionsSearcher struct {
	Hits          []ports.SanctionsHit
	AdjacencyData map[string]map[string]interface{}
}

func (s *SanctionsSearcher) Search(_ context.Context, _ string, _ int) ([]ports.SanctionsHit, error) {
	return s.Hits, nil
}

func (s *SanctionsSearcher) Adjacency(_ context.Context, id string) (map[string]interface{}, error) {
	if s.AdjacencyData == nil {
		return map[string]interface{}{}, nil
	}
	return s.AdjacencyData[id], nil
}

// EventPublisher is a recording no-op ports.EventPublisher.
type EventPublisher struct {
	mu     sync.Mutex
	Events []interface{ EventType() string }
}

func (p *EventPublisher) Publish(_ context.Context, event interface{ EventType() string }) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, event)
	return nil
}
