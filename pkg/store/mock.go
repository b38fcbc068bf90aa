package store

import (
	"path/filepath"
	"sort"

	"github.com/pipelinekit/pipeline-client/pkg/job"
)

// MockStore implements Store for testing
type MockStore struct {
	// Jobs holds the saved jobs by id
	Jobs map[string]*job.Job

	// SaveError simulates save failures when set
	SaveError error

	// LoadError simulates load failures when set
	LoadError error

	// DeleteError simulates delete failures when set
	DeleteError error

	// ListError simulates list failures when set
	ListError error

	// CallCounts track method invocations
	SaveCallCount   int
	LoadCallCount   int
	DeleteCallCount int
	ListCallCount   int
}

// NewMockStore creates a new mock store for testing
func NewMockStore() *MockStore {
	return &MockStore{
		Jobs: make(map[string]*job.Job),
	}
}

// Save stores the job in memory
func (m *MockStore) Save(j *job.Job) (string, error) {
	m.SaveCallCount++
	if m.SaveError != nil {
		return "", m.SaveError
	}
	if err := checkID(j.ID()); err != nil {
		return "", err
	}
	m.Jobs[j.ID()] = j
	return m.JobDir(j.ID()), nil
}

// Load returns the stored job
func (m *MockStore) Load(id string) (*job.Job, error) {
	m.LoadCallCount++
	if m.LoadError != nil {
		return nil, m.LoadError
	}
	j, ok := m.Jobs[id]
	if !ok {
		return nil, &StoreError{
			Type:    "not_found",
			Message: "no saved job with id: " + id,
		}
	}
	return j, nil
}

// Delete removes the stored job
func (m *MockStore) Delete(id string) error {
	m.DeleteCallCount++
	if m.DeleteError != nil {
		return m.DeleteError
	}
	delete(m.Jobs, id)
	return nil
}

// ListJobs returns the stored job ids in ascending order
func (m *MockStore) ListJobs() ([]string, error) {
	m.ListCallCount++
	if m.ListError != nil {
		return nil, m.ListError
	}
	ids := make([]string, 0, len(m.Jobs))
	for id := range m.Jobs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// JobDir returns a synthetic job directory path
func (m *MockStore) JobDir(id string) string {
	return filepath.Join("mock-store", id)
}
