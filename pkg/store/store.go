// Package store persists jobs to a local directory tree, one subdirectory
// per job:
//
//	<base>/<job-id>/job.xml     serialized job request
//	<base>/<job-id>/script.xml  script description the job is bound to
//	<base>/<job-id>/meta.yaml   bookkeeping the XML files cannot carry
//	<base>/<job-id>/context/    materialized job context
//
// A save is a full rewrite of the job directory; partial updates are not
// supported.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"gopkg.in/yaml.v3"

	"github.com/pipelinekit/pipeline-client/pkg/job"
	"github.com/pipelinekit/pipeline-client/pkg/jobcontext"
	"github.com/pipelinekit/pipeline-client/pkg/script"
)

const (
	jobFileName    = "job.xml"
	scriptFileName = "script.xml"
	metaFileName   = "meta.yaml"
	contextDirName = "context"

	// legacyJobFileName is the request file name older trees used.
	legacyJobFileName = "jobRequest.xml"
)

// Store defines the interface for job persistence
// This enables dependency injection and testing with mock implementations
type Store interface {
	// Save writes the job, its script and its context under the base
	// directory and returns the job directory
	Save(j *job.Job) (string, error)

	// Load reads a previously saved job back into memory
	Load(id string) (*job.Job, error)

	// Delete removes a saved job; deleting an unknown id is not an error
	Delete(id string) error

	// ListJobs returns the ids of all saved jobs in ascending order
	ListJobs() ([]string, error)

	// JobDir returns the directory a job with the given id is saved under
	JobDir(id string) string
}

// Meta carries the job state that job.xml cannot: the request format has no
// room for the client-side id or the last status observed from the service.
type Meta struct {
	ID         string    `yaml:"id"`
	Nicename   string    `yaml:"nicename,omitempty"`
	BatchID    string    `yaml:"batchId,omitempty"`
	ScriptID   string    `yaml:"scriptId,omitempty"`
	ScriptHref string    `yaml:"scriptHref,omitempty"`
	Href       string    `yaml:"href,omitempty"`
	Status     string    `yaml:"status,omitempty"`
	CreatedAt  time.Time `yaml:"createdAt"`
	UpdatedAt  time.Time `yaml:"updatedAt"`
}

// DiskStore implements Store on a local directory, optionally versioning
// every save and delete through a Versioner.
type DiskStore struct {
	baseDir   string
	versioner Versioner
	log       logr.Logger
}

// NewDiskStore creates a store rooted at baseDir. versioner may be nil to
// disable versioning.
func NewDiskStore(baseDir string, versioner Versioner, log logr.Logger) *DiskStore {
	return &DiskStore{
		baseDir:   baseDir,
		versioner: versioner,
		log:       log,
	}
}

// JobDir returns the directory a job with the given id is saved under.
func (s *DiskStore) JobDir(id string) string {
	return filepath.Join(s.baseDir, id)
}

// Save writes job.xml, script.xml and meta.yaml, flushes the job context
// into context/, and commits the result when versioning is enabled.
func (s *DiskStore) Save(j *job.Job) (string, error) {
	if err := checkID(j.ID()); err != nil {
		return "", err
	}
	if j.Script() == nil {
		return "", &StoreError{
			Type:    "invalid_input",
			Message: "job has no script bound, cannot save",
			Context: j.ID(),
		}
	}

	jobDir := s.JobDir(j.ID())
	if err := os.MkdirAll(jobDir, 0755); err != nil {
		return "", &StoreError{
			Type:    "file_error",
			Message: fmt.Sprintf("failed to create job directory: %s", jobDir),
			Err:     err,
		}
	}

	requestXML, err := j.RequestXML()
	if err != nil {
		return "", fmt.Errorf("failed to serialize job request: %w", err)
	}
	if err := writeFile(filepath.Join(jobDir, jobFileName), requestXML); err != nil {
		return "", err
	}

	scriptXML, err := j.Script().XML()
	if err != nil {
		return "", fmt.Errorf("failed to serialize script description: %w", err)
	}
	if err := writeFile(filepath.Join(jobDir, scriptFileName), scriptXML); err != nil {
		return "", err
	}

	if err := s.writeMeta(jobDir, j); err != nil {
		return "", err
	}

	if err := j.Context().Flush(filepath.Join(jobDir, contextDirName)); err != nil {
		return "", fmt.Errorf("failed to flush job context: %w", err)
	}

	if s.versioner != nil {
		if err := s.versioner.CommitJob(s.baseDir, j.ID(), "save"); err != nil {
			return "", err
		}
	}

	s.log.V(1).Info("saved job", "job", j.ID(), "dir", jobDir)
	return jobDir, nil
}

// writeMeta writes meta.yaml, preserving the original creation time across
// re-saves.
func (s *DiskStore) writeMeta(jobDir string, j *job.Job) error {
	now := time.Now().UTC()
	meta := Meta{
		ID:        j.ID(),
		Nicename:  j.Nicename(),
		BatchID:   j.BatchID(),
		Href:      j.Href(),
		Status:    string(j.Status()),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if sc := j.Script(); sc != nil {
		meta.ScriptID = sc.ID
		meta.ScriptHref = sc.Href
	}

	if previous, err := s.readMeta(jobDir); err == nil && !previous.CreatedAt.IsZero() {
		meta.CreatedAt = previous.CreatedAt
	}

	data, err := yaml.Marshal(&meta)
	if err != nil {
		return &StoreError{
			Type:    "serialization_error",
			Message: "failed to marshal job metadata",
			Err:     err,
		}
	}
	return writeFile(filepath.Join(jobDir, metaFileName), data)
}

func (s *DiskStore) readMeta(jobDir string) (*Meta, error) {
	data, err := os.ReadFile(filepath.Join(jobDir, metaFileName))
	if err != nil {
		return nil, err
	}
	var meta Meta
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, &StoreError{
			Type:    "serialization_error",
			Message: "failed to parse job metadata",
			Err:     err,
			Context: jobDir,
		}
	}
	return &meta, nil
}

// Load reads a saved job back: script description first, then the request
// bound against it, then the materialized context.
func (s *DiskStore) Load(id string) (*job.Job, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	jobDir := s.JobDir(id)
	if _, err := os.Stat(jobDir); err != nil {
		return nil, &StoreError{
			Type:    "not_found",
			Message: fmt.Sprintf("no saved job with id: %s", id),
			Err:     err,
		}
	}

	scriptData, err := os.ReadFile(filepath.Join(jobDir, scriptFileName))
	if err != nil {
		return nil, &StoreError{
			Type:    "file_error",
			Message: "failed to read script description",
			Err:     err,
			Context: jobDir,
		}
	}
	sc, err := script.FromXML(scriptData)
	if err != nil {
		return nil, fmt.Errorf("failed to parse saved script description: %w", err)
	}

	requestData, err := readJobFile(jobDir)
	if err != nil {
		return nil, err
	}
	j, err := job.ParseRequest(requestData, sc, s.log)
	if err != nil {
		return nil, fmt.Errorf("failed to parse saved job request: %w", err)
	}
	j.SetID(id)

	if meta, err := s.readMeta(jobDir); err == nil {
		if meta.Nicename != "" {
			j.SetNicename(meta.Nicename)
		}
		if meta.BatchID != "" {
			j.SetBatchID(meta.BatchID)
		}
	}

	// Re-register the materialized context files so file-valued arguments
	// resolve after a reload.
	ctx, err := jobcontext.FromDir(filepath.Join(jobDir, contextDirName))
	if err != nil {
		return nil, fmt.Errorf("failed to read saved job context: %w", err)
	}
	for _, p := range ctx.Paths() {
		file, _ := ctx.FileFor(p)
		if _, err := j.Context().AddFile(file, p); err != nil {
			return nil, fmt.Errorf("failed to restore context entry %s: %w", p, err)
		}
	}

	s.log.V(1).Info("loaded job", "job", id, "dir", jobDir)
	return j, nil
}

// readJobFile reads job.xml, falling back to the legacy jobRequest.xml name.
func readJobFile(jobDir string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(jobDir, jobFileName))
	if err == nil {
		return data, nil
	}
	if !os.IsNotExist(err) {
		return nil, &StoreError{
			Type:    "file_error",
			Message: "failed to read job request",
			Err:     err,
			Context: jobDir,
		}
	}
	data, err = os.ReadFile(filepath.Join(jobDir, legacyJobFileName))
	if err != nil {
		return nil, &StoreError{
			Type:    "file_error",
			Message: "failed to read job request",
			Err:     err,
			Context: jobDir,
		}
	}
	return data, nil
}

// Delete removes the job directory. Deleting a job that was never saved is
// not an error.
func (s *DiskStore) Delete(id string) error {
	if err := checkID(id); err != nil {
		return err
	}

	jobDir := s.JobDir(id)
	if _, err := os.Stat(jobDir); os.IsNotExist(err) {
		return nil
	}
	if err := os.RemoveAll(jobDir); err != nil {
		return &StoreError{
			Type:    "file_error",
			Message: fmt.Sprintf("failed to delete job directory: %s", jobDir),
			Err:     err,
		}
	}

	if s.versioner != nil {
		if err := s.versioner.CommitJob(s.baseDir, id, "delete"); err != nil {
			return err
		}
	}

	s.log.V(1).Info("deleted job", "job", id, "dir", jobDir)
	return nil
}

// ListJobs returns the ids of all saved jobs: base-directory subdirectories
// holding both a job request and a script description.
func (s *DiskStore) ListJobs() ([]string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &StoreError{
			Type:    "file_error",
			Message: fmt.Sprintf("failed to read store directory: %s", s.baseDir),
			Err:     err,
		}
	}

	// os.ReadDir sorts by name, so ids come out in ascending order.
	var ids []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		jobDir := filepath.Join(s.baseDir, entry.Name())
		if !fileExists(filepath.Join(jobDir, jobFileName)) &&
			!fileExists(filepath.Join(jobDir, legacyJobFileName)) {
			continue
		}
		if !fileExists(filepath.Join(jobDir, scriptFileName)) {
			continue
		}
		ids = append(ids, entry.Name())
	}
	return ids, nil
}

// checkID rejects ids that are empty or would escape the base directory.
func checkID(id string) error {
	if id == "" {
		return &StoreError{
			Type:    "invalid_input",
			Message: "job id cannot be empty",
		}
	}
	if id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return &StoreError{
			Type:    "invalid_input",
			Message: fmt.Sprintf("job id is not a valid directory name: %s", id),
		}
	}
	return nil
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &StoreError{
			Type:    "file_error",
			Message: fmt.Sprintf("failed to write file: %s", path),
			Err:     err,
		}
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
