// Package store defines the persistence contract for job openings and
// candidates. Implementations live in the memory and postgres subpackages.
package store

import (
	"context"
	"errors"

	"github.com/smarthow-source/ATS-design-concept/internal/pipeline"
)

// ErrNotFound is returned when a job or candidate does not exist.
var ErrNotFound = errors.New("not found")

// Store persists jobs and candidates. Candidate logs are stored with the
// candidate and always written together with its status.
type Store interface {
	ListJobs(ctx context.Context) ([]pipeline.Job, error)
	GetJob(ctx context.Context, id string) (*pipeline.Job, error)
	// UpdateJob applies fn to the job under a write lock. An error from fn
	// aborts the update.
	UpdateJob(ctx context.Context, id string, fn func(*pipeline.Job) error) (*pipeline.Job, error)

	ListCandidates(ctx context.Context) ([]pipeline.Candidate, error)
	GetCandidate(ctx context.Context, id string) (*pipeline.Candidate, error)
	CreateCandidate(ctx context.Context, c pipeline.Candidate) error
	// UpdateCandidate applies fn to the candidate atomically: either every
	// change fn makes is stored or none is. fn may call GetJob.
	UpdateCandidate(ctx context.Context, id string, fn func(*pipeline.Candidate) error) (*pipeline.Candidate, error)

	// Seed inserts jobs and candidates that do not exist yet.
	Seed(ctx context.Context, jobs []pipeline.Job, candidates []pipeline.Candidate) error
}
