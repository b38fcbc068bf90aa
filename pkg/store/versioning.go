package store

import (
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Versioner defines the interface for versioning the store directory
// This enables dependency injection and testing with mock implementations
type Versioner interface {
	// Initialize creates a repository at the store root if one doesn't exist
	Initialize(baseDir string) error

	// IsRepository checks if the store root is already under version control
	IsRepository(baseDir string) bool

	// CommitJob stages the job's directory and records one commit per
	// save or delete
	CommitJob(baseDir, jobID, action string) error
}

// GitVersioner implements Versioner using the go-git library
type GitVersioner struct {
	AuthorName  string
	AuthorEmail string
}

// NewGitVersioner creates a versioner committing as the given author
func NewGitVersioner(authorName, authorEmail string) Versioner {
	return &GitVersioner{
		AuthorName:  authorName,
		AuthorEmail: authorEmail,
	}
}

// Initialize creates a repository at the store root if one doesn't exist
func (v *GitVersioner) Initialize(baseDir string) error {
	if baseDir == "" {
		return &StoreError{
			Type:    "invalid_input",
			Message: "store directory cannot be empty",
		}
	}
	if v.IsRepository(baseDir) {
		return nil
	}
	if _, err := git.PlainInit(baseDir, false); err != nil {
		return &StoreError{
			Type:    "versioning_error",
			Message: "failed to initialize repository",
			Err:     err,
			Context: baseDir,
		}
	}
	return nil
}

// IsRepository checks if the store root is already under version control
func (v *GitVersioner) IsRepository(baseDir string) bool {
	_, err := git.PlainOpen(baseDir)
	return err == nil
}

// CommitJob stages everything under the job's directory and commits it.
// Deletions stage the same way: go-git records removed files when the
// directory is added by path.
func (v *GitVersioner) CommitJob(baseDir, jobID, action string) error {
	repo, err := git.PlainOpen(baseDir)
	if err != nil {
		return &StoreError{
			Type:    "versioning_error",
			Message: "store directory is not a repository",
			Err:     err,
			Context: baseDir,
		}
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return &StoreError{
			Type:    "versioning_error",
			Message: "failed to get working tree",
			Err:     err,
			Context: baseDir,
		}
	}

	if err := worktree.AddWithOptions(&git.AddOptions{Path: jobID}); err != nil {
		return &StoreError{
			Type:    "versioning_error",
			Message: fmt.Sprintf("failed to stage job directory: %s", jobID),
			Err:     err,
			Context: baseDir,
		}
	}

	message := fmt.Sprintf("job(%s): %s", jobID, action)
	_, err = worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  v.AuthorName,
			Email: v.AuthorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return &StoreError{
			Type:    "versioning_error",
			Message: "failed to create commit",
			Err:     err,
			Context: baseDir,
		}
	}
	return nil
}
