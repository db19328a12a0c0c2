// Package memory is an in-process Store. It is the default backend and the
// one the tests run against.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/smarthow-source/ATS-design-concept/internal/pipeline"
	"github.com/smarthow-source/ATS-design-concept/internal/store"
)

// Store keeps jobs and candidates in maps. Lock order is candidates then
// jobs, so an UpdateCandidate callback may read jobs.
type Store struct {
	candMu     sync.RWMutex
	candidates map[string]pipeline.Candidate
	order      []string

	jobsMu  sync.RWMutex
	jobs    map[string]pipeline.Job
	jobList []string
}

var _ store.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		candidates: make(map[string]pipeline.Candidate),
		jobs:       make(map[string]pipeline.Job),
	}
}

func (s *Store) ListJobs(_ context.Context) ([]pipeline.Job, error) {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()
	out := make([]pipeline.Job, 0, len(s.jobList))
	for _, id := range s.jobList {
		out = append(out, s.jobs[id])
	}
	return out, nil
}

func (s *Store) GetJob(_ context.Context, id string) (*pipeline.Job, error) {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", id, store.ErrNotFound)
	}
	return &j, nil
}

func (s *Store) UpdateJob(_ context.Context, id string, fn func(*pipeline.Job) error) (*pipeline.Job, error) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", id, store.ErrNotFound)
	}
	if err := fn(&j); err != nil {
		return nil, err
	}
	j.ID = id
	s.jobs[id] = j
	return &j, nil
}

func (s *Store) ListCandidates(_ context.Context) ([]pipeline.Candidate, error) {
	s.candMu.RLock()
	defer s.candMu.RUnlock()
	out := make([]pipeline.Candidate, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, clone(s.candidates[id]))
	}
	return out, nil
}

func (s *Store) GetCandidate(_ context.Context, id string) (*pipeline.Candidate, error) {
	s.candMu.RLock()
	defer s.candMu.RUnlock()
	c, ok := s.candidates[id]
	if !ok {
		return nil, fmt.Errorf("candidate %s: %w", id, store.ErrNotFound)
	}
	c = clone(c)
	return &c, nil
}

func (s *Store) CreateCandidate(_ context.Context, c pipeline.Candidate) error {
	s.candMu.Lock()
	defer s.candMu.Unlock()
	if _, exists := s.candidates[c.ID]; exists {
		return fmt.Errorf("candidate %s already exists", c.ID)
	}
	s.candidates[c.ID] = clone(c)
	s.order = append(s.order, c.ID)
	return nil
}

// UpdateCandidate runs fn on a private copy and swaps it in only when fn
// succeeds.
func (s *Store) UpdateCandidate(_ context.Context, id string, fn func(*pipeline.Candidate) error) (*pipeline.Candidate, error) {
	s.candMu.Lock()
	defer s.candMu.Unlock()
	cur, ok := s.candidates[id]
	if !ok {
		return nil, fmt.Errorf("candidate %s: %w", id, store.ErrNotFound)
	}
	next := clone(cur)
	if err := fn(&next); err != nil {
		return nil, err
	}
	next.ID = id
	s.candidates[id] = next
	out := clone(next)
	return &out, nil
}

func (s *Store) Seed(_ context.Context, jobs []pipeline.Job, candidates []pipeline.Candidate) error {
	s.candMu.Lock()
	defer s.candMu.Unlock()
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	for _, j := range jobs {
		if _, ok := s.jobs[j.ID]; ok {
			continue
		}
		s.jobs[j.ID] = j
		s.jobList = append(s.jobList, j.ID)
	}
	for _, c := range candidates {
		if _, ok := s.candidates[c.ID]; ok {
			continue
		}
		s.candidates[c.ID] = clone(c)
		s.order = append(s.order, c.ID)
	}
	return nil
}

// clone copies the slices a caller could otherwise mutate in place.
func clone(c pipeline.Candidate) pipeline.Candidate {
	c.Log = slices.Clone(c.Log)
	c.PreviousApplications = slices.Clone(c.PreviousApplications)
	if c.DueDate != nil {
		d := *c.DueDate
		c.DueDate = &d
	}
	return c
}
