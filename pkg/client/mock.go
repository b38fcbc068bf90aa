package client

import (
	"context"

	"github.com/pipelinekit/pipeline-client/pkg/job"
	"github.com/pipelinekit/pipeline-client/pkg/script"
)

// MockClient implements Client for testing
type MockClient struct {
	// AliveResponse is returned by Alive
	AliveResponse *Alive

	// ScriptsByID holds the scripts returned by Scripts and Script
	ScriptsByID map[string]*script.Script

	// CreateJobXML is fed into the job on CreateJob when set
	CreateJobXML []byte

	// JobXML is fed into the job on Job when set
	JobXML []byte

	// LogData is returned by Log
	LogData []byte

	// DeletedJobs records the ids passed to DeleteJob
	DeletedJobs []string

	// Error simulates failures for every operation when set
	Error error

	// CallCounts track method invocations
	AliveCallCount     int
	ScriptsCallCount   int
	ScriptCallCount    int
	CreateJobCallCount int
	JobCallCount       int
	DeleteJobCallCount int
	LogCallCount       int
	HaltCallCount      int
}

// NewMockClient creates a new mock web service client for testing
func NewMockClient() *MockClient {
	return &MockClient{
		AliveResponse: &Alive{Mode: "local", Version: "1.14"},
		ScriptsByID:   make(map[string]*script.Script),
	}
}

// Alive returns the configured liveness descriptor
func (m *MockClient) Alive(ctx context.Context) (*Alive, error) {
	m.AliveCallCount++
	if m.Error != nil {
		return nil, m.Error
	}
	return m.AliveResponse, nil
}

// Scripts returns all configured scripts
func (m *MockClient) Scripts(ctx context.Context) ([]*script.Script, error) {
	m.ScriptsCallCount++
	if m.Error != nil {
		return nil, m.Error
	}
	scripts := make([]*script.Script, 0, len(m.ScriptsByID))
	for _, s := range m.ScriptsByID {
		scripts = append(scripts, s)
	}
	return scripts, nil
}

// Script returns the configured script with the given id
func (m *MockClient) Script(ctx context.Context, id string) (*script.Script, error) {
	m.ScriptCallCount++
	if m.Error != nil {
		return nil, m.Error
	}
	s, ok := m.ScriptsByID[id]
	if !ok {
		return nil, &ClientError{
			Type:    "not_found",
			Message: "no script with id: " + id,
		}
	}
	return s, nil
}

// CreateJob feeds the configured response XML into the job
func (m *MockClient) CreateJob(ctx context.Context, j *job.Job) error {
	m.CreateJobCallCount++
	if m.Error != nil {
		return m.Error
	}
	if m.CreateJobXML != nil {
		return j.SetJobXML(m.CreateJobXML)
	}
	return nil
}

// Job feeds the configured response XML into the job
func (m *MockClient) Job(ctx context.Context, j *job.Job) error {
	m.JobCallCount++
	if m.Error != nil {
		return m.Error
	}
	if m.JobXML != nil {
		return j.SetJobXML(m.JobXML)
	}
	return nil
}

// DeleteJob records the deletion
func (m *MockClient) DeleteJob(ctx context.Context, id string) error {
	m.DeleteJobCallCount++
	if m.Error != nil {
		return m.Error
	}
	m.DeletedJobs = append(m.DeletedJobs, id)
	return nil
}

// Log returns the configured log data
func (m *MockClient) Log(ctx context.Context, id string) ([]byte, error) {
	m.LogCallCount++
	if m.Error != nil {
		return nil, m.Error
	}
	return m.LogData, nil
}

// Halt records the halt request
func (m *MockClient) Halt(ctx context.Context, key string) error {
	m.HaltCallCount++
	return m.Error
}
