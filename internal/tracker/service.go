// Package tracker contains the candidate-pipeline service. It is
// transport-agnostic: used by the HTTP handler, the gRPC server and the CLI.
package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smarthow-source/ATS-design-concept/internal/document"
	"github.com/smarthow-source/ATS-design-concept/internal/pipeline"
	"github.com/smarthow-source/ATS-design-concept/internal/settings"
	"github.com/smarthow-source/ATS-design-concept/internal/store"
)

// DefaultTAName is the TA on duty when none is configured.
const DefaultTAName = "Sarah Jenks"

// AllWork is the worklist tab that shows every status.
const AllWork = "All Work"

// ─── Service ─────────────────────────────────────────────────────────────────

// Service encapsulates the pipeline business logic over a Store.
type Service struct {
	store    store.Store
	settings *settings.Catalog
	events   Publisher
	log      *zap.Logger
	validate *validator.Validate
	taName   string
	now      func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithTAName sets the name recorded for actions taken in the TA role.
func WithTAName(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.taName = name
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService returns a configured Service. A nil publisher disables events.
func NewService(st store.Store, cat *settings.Catalog, pub Publisher, log *zap.Logger, opts ...Option) *Service {
	if pub == nil {
		pub = NopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		store:    st,
		settings: cat,
		events:   pub,
		log:      log.Named("tracker"),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		taName:   DefaultTAName,
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Settings exposes the settings catalog.
func (s *Service) Settings() *settings.Catalog { return s.settings }

// ─── Jobs ────────────────────────────────────────────────────────────────────

// ListJobs returns every job opening.
func (s *Service) ListJobs(ctx context.Context) ([]pipeline.Job, error) {
	jobs, err := s.store.ListJobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listJobs: %w", err)
	}
	return jobs, nil
}

// GetJob returns one job opening.
func (s *Service) GetJob(ctx context.Context, id string) (*pipeline.Job, error) {
	return s.store.GetJob(ctx, id)
}

// AssignTA allocates a roster TA to a job opening.
func (s *Service) AssignTA(ctx context.Context, jobID, ta string) (*pipeline.Job, error) {
	ta = strings.TrimSpace(ta)
	if ta == "" {
		return nil, invalidf("a TA name is required")
	}
	if !s.settings.HasTA(ta) {
		return nil, invalidf("%q is not on the TA roster", ta)
	}
	job, err := s.store.UpdateJob(ctx, jobID, func(j *pipeline.Job) error {
		j.AssignedTA = ta
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	s.log.Info("TA assigned", zap.String("jobId", jobID), zap.String("ta", ta))
	return job, nil
}

// CheckJob enforces that a job references a known job family.
func (s *Service) CheckJob(j pipeline.Job) error {
	if j.ID == "" || j.Title == "" {
		return invalidf("job openings need an id and a title")
	}
	if _, ok := s.settings.Family(j.JobFamilyCode); !ok {
		return invalidf("job %s references unknown job family %q", j.ID, j.JobFamilyCode)
	}
	return nil
}

// RemoveFamily deletes a job family that no job opening references.
func (s *Service) RemoveFamily(ctx context.Context, code string) error {
	jobs, err := s.store.ListJobs(ctx)
	if err != nil {
		return fmt.Errorf("removeFamily: %w", err)
	}
	for _, j := range jobs {
		if j.JobFamilyCode == code {
			return invalidf("job family %q is used by job %s", code, j.ID)
		}
	}
	if err := s.settings.RemoveFamily(code); err != nil {
		return translate(err)
	}
	s.log.Info("job family removed", zap.String("code", code))
	return nil
}

// ─── Candidates ──────────────────────────────────────────────────────────────

// NewCandidate is the input of AddCandidate.
type NewCandidate struct {
	JobID          string `json:"jobId" validate:"required"`
	Name           string `json:"name" validate:"required"`
	Email          string `json:"email" validate:"omitempty,email"`
	Gender         string `json:"gender"`
	Age            int    `json:"age" validate:"gte=0,lte=120"`
	PhoneNumber    string `json:"phoneNumber"`
	LineID         string `json:"lineId"`
	Location       string `json:"location"`
	Education      string `json:"education"`
	MilitaryStatus string `json:"militaryStatus"`
	DrivingAbility string `json:"drivingAbility"`
}

// AddCandidate creates a candidate in Application for an existing job.
// Earlier applications with the same email are linked for reference.
func (s *Service) AddCandidate(ctx context.Context, in NewCandidate) (*pipeline.Candidate, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := s.validate.Struct(in); err != nil {
		return nil, translate(err)
	}
	job, err := s.store.GetJob(ctx, in.JobID)
	if err != nil {
		return nil, invalidf("job opening %q does not exist", in.JobID)
	}

	var previous []pipeline.PreviousApplication
	if in.Email != "" {
		all, err := s.store.ListCandidates(ctx)
		if err != nil {
			return nil, fmt.Errorf("addCandidate: %w", err)
		}
		for _, c := range all {
			if strings.EqualFold(c.Email, in.Email) {
				previous = append(previous, pipeline.PreviousApplication{Role: c.Role, Status: c.Status})
			}
		}
	}

	now := s.now()
	c := pipeline.Candidate{
		ID:                   uuid.NewString(),
		JobID:                job.ID,
		Name:                 in.Name,
		Email:                in.Email,
		Role:                 job.Title,
		Status:               pipeline.StageApplication,
		LastActionDate:       now,
		ApplicationTimestamp: now,
		PreviousApplications: previous,
		AssignedTA:           s.taName,
		HiringManager:        job.HiringManager,
		Gender:               in.Gender,
		Age:                  in.Age,
		PhoneNumber:          in.PhoneNumber,
		LineID:               in.LineID,
		Location:             in.Location,
		Education:            in.Education,
		MilitaryStatus:       orDefault(in.MilitaryStatus, "N/A"),
		DrivingAbility:       orDefault(in.DrivingAbility, "N/A"),
		Log:                  pipeline.Log{},
	}
	if err := s.store.CreateCandidate(ctx, c); err != nil {
		return nil, fmt.Errorf("addCandidate: %w", err)
	}
	s.log.Info("candidate added", zap.String("candidateId", c.ID), zap.String("jobId", job.ID))
	return &c, nil
}

// Filter narrows the worklist. Empty fields match everything; Status may
// also be AllWork.
type Filter struct {
	JobID  string
	Status string
	Query  string
}

// ListCandidates returns the worklist, newest application first.
func (s *Service) ListCandidates(ctx context.Context, f Filter) ([]pipeline.Candidate, error) {
	var status pipeline.Stage
	if f.Status != "" && f.Status != AllWork {
		st, err := pipeline.ParseStage(f.Status)
		if err != nil {
			return nil, invalidf("%v", err)
		}
		status = st
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))

	all, err := s.store.ListCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("listCandidates: %w", err)
	}
	out := make([]pipeline.Candidate, 0, len(all))
	for _, c := range all {
		if f.JobID != "" && c.JobID != f.JobID {
			continue
		}
		if status != "" && c.Status != status {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(c.Name), q) {
			continue
		}
		out = append(out, c)
	}
	slices.SortStableFunc(out, func(a, b pipeline.Candidate) int {
		if n := b.ApplicationTimestamp.Compare(a.ApplicationTimestamp); n != 0 {
			return n
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

// StageCount is one worklist tab.
type StageCount struct {
	Stage string `json:"stage"`
	Count int    `json:"count"`
}

// StageCounts returns the "All Work" total followed by one count per stage
// in registry order. An empty jobID counts every job.
func (s *Service) StageCounts(ctx context.Context, jobID string) ([]StageCount, error) {
	list, err := s.ListCandidates(ctx, Filter{JobID: jobID})
	if err != nil {
		return nil, err
	}
	byStage := make(map[pipeline.Stage]int, len(list))
	for _, c := range list {
		byStage[c.Status]++
	}
	out := []StageCount{{Stage: AllWork, Count: len(list)}}
	for _, st := range pipeline.Stages() {
		out = append(out, StageCount{Stage: string(st), Count: byStage[st]})
	}
	return out, nil
}

// GetCandidate returns one candidate.
func (s *Service) GetCandidate(ctx context.Context, id string) (*pipeline.Candidate, error) {
	return s.store.GetCandidate(ctx, id)
}

// ─── Journey ─────────────────────────────────────────────────────────────────

// JourneyEntry is a log entry with its decoded snapshot.
type JourneyEntry struct {
	pipeline.Entry
	Kind     string            `json:"kind"`
	Snapshot pipeline.Snapshot `json:"snapshot"`
}

// Journey is the pipeline view of one candidate: the replayed drafts and
// the full audit trail.
type Journey struct {
	Candidate    *pipeline.Candidate `json:"candidate"`
	Job          *pipeline.Job       `json:"job,omitempty"`
	WorkingStage pipeline.Stage      `json:"workingStage"`
	Drafts       pipeline.Drafts     `json:"drafts"`
	Log          []JourneyEntry      `json:"log"`
	CanMove      bool                `json:"canMove"`
	CanDrop      bool                `json:"canDrop"`

	Shortlisted     bool `json:"shortlisted"`
	PrescreenPassed bool `json:"prescreenPassed"`
}

// Journey opens the pipeline view for candidate id.
func (s *Service) Journey(ctx context.Context, id string) (*Journey, error) {
	c, job, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	sess := pipeline.Select(c, job, s.now())

	entries := make([]JourneyEntry, 0, len(c.Log))
	for _, e := range c.Log {
		snap := pipeline.DecodeSnapshot(e)
		kind := "form"
		switch snap.(type) {
		case pipeline.DropRecord:
			kind = "drop"
		case pipeline.LegacyNote:
			kind = "note"
		}
		entries = append(entries, JourneyEntry{Entry: e, Kind: kind, Snapshot: snap})
	}

	return &Journey{
		Candidate:    c,
		Job:          job,
		WorkingStage: pipeline.WorkingStage(c.Status),
		Drafts:       sess.Drafts,
		Log:          entries,
		CanMove:      c.CanMove(),
		CanDrop:      c.CanDrop(),

		Shortlisted:     c.Status.In(pipeline.PostShortlist),
		PrescreenPassed: c.Status.In(pipeline.PostPrescreen),
	}, nil
}

// Outcome is the result of a journey action.
type Outcome struct {
	Candidate *pipeline.Candidate `json:"candidate"`
	Entry     pipeline.Entry      `json:"entry"`
	From      pipeline.Stage      `json:"from"`
	To        pipeline.Stage      `json:"to"`
}

// Changed reports whether the action moved the candidate's status.
func (o *Outcome) Changed() bool { return o.From != o.To }

// ConfirmStage merges patch onto the stage draft, runs the transition
// engine and appends exactly one log entry. Status only changes when stage
// is the candidate's working stage.
func (s *Service) ConfirmStage(ctx context.Context, id, stageName string, patch json.RawMessage, role pipeline.Role) (*Outcome, error) {
	stage, err := pipeline.ParseStage(stageName)
	if err != nil {
		return nil, invalidf("%v", err)
	}
	if stage.IsSkipMarker() {
		return nil, invalidf("stage %s has no form to confirm", stage)
	}

	cur, job, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	jobID := cur.JobID
	now := s.now()
	actor := pipeline.ActorName(role, s.taName, job)

	var out Outcome
	updated, err := s.store.UpdateCandidate(ctx, id, func(c *pipeline.Candidate) error {
		if c.JobID != jobID {
			return invalidf("candidate moved to another job; reload and retry")
		}
		working := pipeline.WorkingStage(c.Status)
		if !pipeline.AtOrPast(working, stage) {
			return invalidf("stage %s is not open yet for a candidate at %s", stage, c.Status)
		}

		sess := pipeline.Select(c, job, now)
		if err := sess.Edit(stage, patch); err != nil {
			return invalidf("invalid %s form: %v", stage, err)
		}
		dec, err := pipeline.Confirm(stage, working, &sess.Drafts, job, now)
		if err != nil {
			return err
		}

		out.From = c.Status
		out.Entry = pipeline.NewEntry(dec.Stage, dec.Result, dec.Snapshot, actor, now)
		c.Log = c.Log.Append(out.Entry)
		if dec.Advances {
			c.Status = dec.Next
		}
		c.LastActionDate = now
		out.To = c.Status
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	out.Candidate = updated

	s.log.Info("stage confirmed",
		zap.String("candidateId", id),
		zap.String("stage", string(stage)),
		zap.String("result", out.Entry.Result),
		zap.String("from", string(out.From)),
		zap.String("to", string(out.To)),
	)
	if out.Changed() {
		s.publishStageChanged(ctx, updated, out.From, actor, now)
	}
	return &out, nil
}

// SubmitHMFeedback logs the hiring manager's interview feedback without
// moving the candidate.
func (s *Service) SubmitHMFeedback(ctx context.Context, id string, f pipeline.HMInterviewForm, role pipeline.Role) (*Outcome, error) {
	if strings.TrimSpace(f.Result) == "" {
		return nil, invalidf("an interview result is required")
	}
	cur, job, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur.Status != pipeline.StageHMInterview {
		return nil, invalidf("feedback can only be submitted while the candidate is at %s", pipeline.StageHMInterview)
	}
	if f.Interviewer == "" && job != nil {
		f.Interviewer = job.HiringManager
	}
	result, snap, err := pipeline.HMFeedback(f)
	if err != nil {
		return nil, translate(err)
	}
	return s.appendEntry(ctx, id, pipeline.StageHMInterview, result, snap, pipeline.ActorName(role, s.taName, job), "")
}

// ChangeStatus moves a candidate between the list markers (Application,
// Shortlisted, Disqualified) and records who did it.
func (s *Service) ChangeStatus(ctx context.Context, id, to string, role pipeline.Role) (*Outcome, error) {
	target, err := pipeline.ParseStage(to)
	if err != nil {
		return nil, invalidf("%v", err)
	}
	cur, job, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	mv, err := pipeline.PlanManualMove(cur.Status, target, role)
	if err != nil {
		return nil, translate(err)
	}
	return s.appendEntry(ctx, id, mv.From, mv.Result, mv.Note, pipeline.ActorName(role, s.taName, job), mv.To)
}

// Drop disqualifies a candidate with a reason.
func (s *Service) Drop(ctx context.Context, id, reason, notes string, role pipeline.Role) (*Outcome, error) {
	snap, err := pipeline.PlanDrop(strings.TrimSpace(reason), notes)
	if err != nil {
		return nil, translate(err)
	}
	cur, job, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !cur.CanDrop() {
		return nil, invalidf("candidate is already %s", pipeline.StageDisqualified)
	}
	return s.appendEntry(ctx, id, cur.Status, pipeline.ResultDropped, snap, pipeline.ActorName(role, s.taName, job), pipeline.StageDisqualified)
}

// appendEntry logs an entry on stage and optionally moves the candidate to
// `to`. The write fails if the candidate left stage concurrently.
func (s *Service) appendEntry(ctx context.Context, id string, stage pipeline.Stage, result, reason, actor string, to pipeline.Stage) (*Outcome, error) {
	now := s.now()
	var out Outcome
	updated, err := s.store.UpdateCandidate(ctx, id, func(c *pipeline.Candidate) error {
		if c.Status != stage {
			return invalidf("candidate is now at %s; reload and retry", c.Status)
		}
		out.From = c.Status
		out.Entry = pipeline.NewEntry(stage, result, reason, actor, now)
		c.Log = c.Log.Append(out.Entry)
		if to != "" {
			c.Status = to
		}
		c.LastActionDate = now
		out.To = c.Status
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	out.Candidate = updated

	s.log.Info("entry logged",
		zap.String("candidateId", id),
		zap.String("stage", string(stage)),
		zap.String("result", result),
		zap.String("to", string(out.To)),
	)
	if out.Changed() {
		s.publishStageChanged(ctx, updated, out.From, actor, now)
	}
	return &out, nil
}

// MoveCandidate re-assigns a candidate to another job opening and applies
// the re-leveling rule in the same write.
func (s *Service) MoveCandidate(ctx context.Context, id, newJobID string, role pipeline.Role) (*Outcome, error) {
	if strings.TrimSpace(newJobID) == "" {
		return nil, invalidf("a target job opening is required")
	}
	newJob, err := s.store.GetJob(ctx, newJobID)
	if err != nil {
		return nil, invalidf("job opening %q does not exist", newJobID)
	}
	cur, oldJob, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if oldJob == nil {
		return nil, invalidf("candidate %s has no current job opening", id)
	}
	now := s.now()
	actor := pipeline.ActorName(role, s.taName, newJob)

	var out Outcome
	updated, err := s.store.UpdateCandidate(ctx, id, func(c *pipeline.Candidate) error {
		if c.JobID != cur.JobID {
			return invalidf("candidate moved to another job; reload and retry")
		}
		m, err := pipeline.PlanMove(c, oldJob, newJob, actor, now)
		if err != nil {
			return err
		}
		out.From = c.Status
		*c = m.Apply(*c)
		out.Entry = c.Log[0]
		out.To = c.Status
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	out.Candidate = updated

	s.log.Info("candidate moved",
		zap.String("candidateId", id),
		zap.String("fromJobId", oldJob.ID),
		zap.String("toJobId", newJob.ID),
		zap.String("status", string(out.To)),
	)
	s.publish(ctx, Event{
		Type:        EventCandidateMoved,
		CandidateID: id,
		JobID:       newJob.ID,
		FromJobID:   oldJob.ID,
		From:        string(out.From),
		To:          string(out.To),
		Actor:       actor,
		At:          now,
	})
	if out.Changed() {
		s.publishStageChanged(ctx, updated, out.From, actor, now)
	}
	return &out, nil
}

// ─── Documents ───────────────────────────────────────────────────────────────

// HandOff builds the hand-off summary from the replayed drafts.
func (s *Service) HandOff(ctx context.Context, id string) (document.HandOff, error) {
	c, job, err := s.load(ctx, id)
	if err != nil {
		return document.HandOff{}, err
	}
	now := s.now()
	return document.NewHandOff(c, job, pipeline.Select(c, job, now).Drafts), nil
}

// Contract builds the employment contract from the offering draft.
func (s *Service) Contract(ctx context.Context, id string) (document.Contract, error) {
	c, job, err := s.load(ctx, id)
	if err != nil {
		return document.Contract{}, err
	}
	now := s.now()
	return document.NewContract(c, job, pipeline.Select(c, job, now).Drafts, now), nil
}

// CEOTriggers evaluates the CEO-trigger rules of the candidate's job family
// against its profile. Advisory only: the result never moves the candidate.
func (s *Service) CEOTriggers(ctx context.Context, id string) ([]settings.Trigger, error) {
	c, job, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, invalidf("candidate %s has no job opening", id)
	}
	d := pipeline.Select(c, job, s.now()).Drafts
	// Band is left empty: no candidate or form field records a pay band,
	// so the band table never fires here.
	p := settings.Profile{
		University: d.Prescreen.University,
		Faculty:    d.Prescreen.Faculty,
		GPA:        d.Prescreen.GPA,
		Assessment: d.CognitiveTest.TestResult,
	}
	if c.Age > 0 {
		p.Age = strconv.Itoa(c.Age)
	}
	triggers, err := s.settings.EvaluateTriggers(p, job.JobFamilyCode)
	if err != nil {
		return nil, translate(err)
	}
	return triggers, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// load returns the candidate and its job. A dangling job reference yields
// a nil job rather than an error.
func (s *Service) load(ctx context.Context, id string) (*pipeline.Candidate, *pipeline.Job, error) {
	c, err := s.store.GetCandidate(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	job, err := s.store.GetJob(ctx, c.JobID)
	if err != nil {
		s.log.Warn("candidate references a missing job", zap.String("candidateId", id), zap.String("jobId", c.JobID))
		job = nil
	}
	return c, job, nil
}

func (s *Service) publishStageChanged(ctx context.Context, c *pipeline.Candidate, from pipeline.Stage, actor string, at time.Time) {
	s.publish(ctx, Event{
		Type:        EventStageChanged,
		CandidateID: c.ID,
		JobID:       c.JobID,
		From:        string(from),
		To:          string(c.Status),
		Actor:       actor,
		At:          at,
	})
}

// publish delivers e. Failures are logged and never fail the operation.
func (s *Service) publish(ctx context.Context, e Event) {
	if err := s.events.Publish(ctx, e); err != nil {
		s.log.Warn("publish failed", zap.String("type", e.Type), zap.String("candidateId", e.CandidateID), zap.Error(err))
	}
}

// Publish delivers an event on behalf of other components (the scheduler).
func (s *Service) Publish(ctx context.Context, e Event) error {
	return s.events.Publish(ctx, e)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
