// Package scheduler wires up the cron job that periodically flags candidates
// nobody has acted on for a while.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/smarthow-source/ATS-design-concept/internal/pipeline"
	"github.com/smarthow-source/ATS-design-concept/internal/tracker"
)

// Source is the part of the tracker service the sweep needs.
type Source interface {
	ListCandidates(ctx context.Context, f tracker.Filter) ([]pipeline.Candidate, error)
	Publish(ctx context.Context, e tracker.Event) error
}

// Scheduler wraps robfig/cron and manages the follow-up sweep.
type Scheduler struct {
	cron       *cron.Cron
	src        Source
	log        *zap.Logger
	spec       string // cron spec, e.g. "@every 1h"
	staleAfter time.Duration
	now        func() time.Time

	wg sync.WaitGroup
}

// New creates a Scheduler that fires on spec and flags candidates idle for
// longer than staleAfter.
func New(src Source, spec string, staleAfter time.Duration, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("scheduler")
	return &Scheduler{
		cron:       cron.New(cron.WithLogger(cron.PrintfLogger(zap.NewStdLog(log)))),
		src:        src,
		log:        log,
		spec:       spec,
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// Start registers the job and starts the scheduler. Also runs one sweep
// immediately so reminders go out without waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.run(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.log.Info("cron started", zap.String("spec", s.spec), zap.Duration("staleAfter", s.staleAfter))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
	return nil
}

// Stop shuts down the scheduler and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.log.Info("cron stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	n, err := s.Sweep(ctx)
	if err != nil {
		s.log.Error("sweep failed", zap.Error(err))
		return
	}
	s.log.Info("sweep complete", zap.Int("due", n))
}

// Sweep publishes EVENT_FOLLOW_UP_DUE for every due candidate and returns
// how many there were.
func (s *Scheduler) Sweep(ctx context.Context) (int, error) {
	list, err := s.src.ListCandidates(ctx, tracker.Filter{})
	if err != nil {
		return 0, fmt.Errorf("list candidates: %w", err)
	}
	now := s.now()
	n := 0
	for _, c := range list {
		if !Due(c, now, s.staleAfter) {
			continue
		}
		n++
		err := s.src.Publish(ctx, tracker.Event{
			Type:        tracker.EventFollowUpDue,
			CandidateID: c.ID,
			JobID:       c.JobID,
			To:          string(c.Status),
			Actor:       c.AssignedTA,
			At:          now,
		})
		if err != nil {
			s.log.Warn("publish failed", zap.String("candidateId", c.ID), zap.Error(err))
		}
	}
	return n, nil
}

// Due reports whether c needs a follow-up at now: it is still in the
// pipeline and either its due date has passed or nobody acted on it for
// staleAfter.
func Due(c pipeline.Candidate, now time.Time, staleAfter time.Duration) bool {
	switch c.Status {
	case pipeline.StageDisqualified, pipeline.StageOnboarding:
		return false
	}
	if c.DueDate != nil && c.DueDate.Before(now) {
		return true
	}
	return !c.LastActionDate.IsZero() && now.Sub(c.LastActionDate) > staleAfter
}
