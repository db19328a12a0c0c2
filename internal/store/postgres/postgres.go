// Package postgres is the PostgreSQL Store. The stage log lives in the
// candidates.contact_logs JSONB column and is written in the same statement
// as the status, so a confirmation or move is never half-applied.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smarthow-source/ATS-design-concept/internal/pipeline"
	"github.com/smarthow-source/ATS-design-concept/internal/store"
)

// Store implements store.Store over a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

// New returns a Store backed by pool. The schema must already be migrated.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// profile holds the candidate fields kept in the profile JSONB column.
type profile struct {
	Gender         string `json:"gender"`
	Age            int    `json:"age"`
	PhoneNumber    string `json:"phoneNumber"`
	LineID         string `json:"lineId"`
	Location       string `json:"location"`
	Education      string `json:"education"`
	MilitaryStatus string `json:"militaryStatus"`
	DrivingAbility string `json:"drivingAbility"`
}

const jobColumns = `id, title, department, location, hiring_manager, management,
	open_date, priority, assigned_ta, job_family_code`

const candidateColumns = `id, job_id, name, email, role, status, last_action_date,
	application_timestamp, due_date, assigned_ta, hiring_manager, profile,
	previous_applications, contact_logs`

// ─── Jobs ────────────────────────────────────────────────────────────────────

func (s *Store) ListJobs(ctx context.Context) ([]pipeline.Job, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+jobColumns+` FROM job_openings ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listJobs query: %w", err)
	}
	defer rows.Close()

	jobs := make([]pipeline.Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("listJobs scan: %w", err)
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

func (s *Store) GetJob(ctx context.Context, id string) (*pipeline.Job, error) {
	j, err := scanJob(s.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM job_openings WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("job %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getJob: %w", err)
	}
	return j, nil
}

func (s *Store) UpdateJob(ctx context.Context, id string, fn func(*pipeline.Job) error) (*pipeline.Job, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("updateJob begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	j, err := scanJob(tx.QueryRow(ctx, `SELECT `+jobColumns+` FROM job_openings WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("job %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("updateJob select: %w", err)
	}
	if err := fn(j); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		`UPDATE job_openings
		 SET title = $2, department = $3, location = $4, hiring_manager = $5,
		     management = $6, open_date = $7, priority = $8, assigned_ta = $9,
		     job_family_code = $10, updated_at = NOW()
		 WHERE id = $1`,
		id, j.Title, j.Department, j.Location, j.HiringManager, j.Management,
		j.OpenDate, j.Priority, j.AssignedTA, j.JobFamilyCode,
	)
	if err != nil {
		return nil, fmt.Errorf("updateJob: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("updateJob commit: %w", err)
	}
	j.ID = id
	return j, nil
}

// ─── Candidates ──────────────────────────────────────────────────────────────

func (s *Store) ListCandidates(ctx context.Context) ([]pipeline.Candidate, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+candidateColumns+` FROM candidates ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listCandidates query: %w", err)
	}
	defer rows.Close()

	out := make([]pipeline.Candidate, 0)
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("listCandidates scan: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (s *Store) GetCandidate(ctx context.Context, id string) (*pipeline.Candidate, error) {
	c, err := scanCandidate(s.pool.QueryRow(ctx, `SELECT `+candidateColumns+` FROM candidates WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("candidate %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getCandidate: %w", err)
	}
	return c, nil
}

func (s *Store) CreateCandidate(ctx context.Context, c pipeline.Candidate) error {
	args, err := candidateArgs(&c)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO candidates (`+candidateColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("createCandidate: %w", err)
	}
	return nil
}

// UpdateCandidate locks the row with SELECT … FOR UPDATE, runs fn and
// writes the result back in the same transaction.
func (s *Store) UpdateCandidate(ctx context.Context, id string, fn func(*pipeline.Candidate) error) (*pipeline.Candidate, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("updateCandidate begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	c, err := scanCandidate(tx.QueryRow(ctx, `SELECT `+candidateColumns+` FROM candidates WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("candidate %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("updateCandidate select: %w", err)
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	c.ID = id

	args, err := candidateArgs(c)
	if err != nil {
		return nil, err
	}
	_, err = tx.Exec(ctx,
		`UPDATE candidates
		 SET job_id = $2, name = $3, email = $4, role = $5, status = $6,
		     last_action_date = $7, application_timestamp = $8, due_date = $9,
		     assigned_ta = $10, hiring_manager = $11, profile = $12,
		     previous_applications = $13, contact_logs = $14, updated_at = NOW()
		 WHERE id = $1`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("updateCandidate: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("updateCandidate commit: %w", err)
	}
	return c, nil
}

func (s *Store) Seed(ctx context.Context, jobs []pipeline.Job, candidates []pipeline.Candidate) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, j := range jobs {
		_, err := tx.Exec(ctx,
			`INSERT INTO job_openings (`+jobColumns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			 ON CONFLICT (id) DO NOTHING`,
			j.ID, j.Title, j.Department, j.Location, j.HiringManager, j.Management,
			j.OpenDate, j.Priority, j.AssignedTA, j.JobFamilyCode,
		)
		if err != nil {
			return fmt.Errorf("seed job %s: %w", j.ID, err)
		}
	}
	for i := range candidates {
		args, err := candidateArgs(&candidates[i])
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO candidates (`+candidateColumns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			 ON CONFLICT (id) DO NOTHING`,
			args...,
		); err != nil {
			return fmt.Errorf("seed candidate %s: %w", candidates[i].ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}
	return nil
}

// ─── Row mapping ─────────────────────────────────────────────────────────────

func scanJob(row pgx.Row) (*pipeline.Job, error) {
	var j pipeline.Job
	if err := row.Scan(
		&j.ID, &j.Title, &j.Department, &j.Location, &j.HiringManager, &j.Management,
		&j.OpenDate, &j.Priority, &j.AssignedTA, &j.JobFamilyCode,
	); err != nil {
		return nil, err
	}
	return &j, nil
}

func scanCandidate(row pgx.Row) (*pipeline.Candidate, error) {
	var (
		c      pipeline.Candidate
		status string
		due    *time.Time
	)
	var rawProfile, rawPrev, rawLog []byte
	if err := row.Scan(
		&c.ID, &c.JobID, &c.Name, &c.Email, &c.Role, &status, &c.LastActionDate,
		&c.ApplicationTimestamp, &due, &c.AssignedTA, &c.HiringManager,
		&rawProfile, &rawPrev, &rawLog,
	); err != nil {
		return nil, err
	}
	c.Status = pipeline.Stage(status)
	c.DueDate = due

	var p profile
	if err := json.Unmarshal(rawProfile, &p); err != nil {
		return nil, fmt.Errorf("candidate %s profile: %w", c.ID, err)
	}
	c.Gender, c.Age, c.PhoneNumber, c.LineID = p.Gender, p.Age, p.PhoneNumber, p.LineID
	c.Location, c.Education, c.MilitaryStatus, c.DrivingAbility = p.Location, p.Education, p.MilitaryStatus, p.DrivingAbility

	if err := json.Unmarshal(rawPrev, &c.PreviousApplications); err != nil {
		return nil, fmt.Errorf("candidate %s previous applications: %w", c.ID, err)
	}
	if err := json.Unmarshal(rawLog, &c.Log); err != nil {
		return nil, fmt.Errorf("candidate %s contact logs: %w", c.ID, err)
	}
	return &c, nil
}

// candidateArgs returns the column values in candidateColumns order.
func candidateArgs(c *pipeline.Candidate) ([]any, error) {
	prof, err := json.Marshal(profile{
		Gender: c.Gender, Age: c.Age, PhoneNumber: c.PhoneNumber, LineID: c.LineID,
		Location: c.Location, Education: c.Education, MilitaryStatus: c.MilitaryStatus,
		DrivingAbility: c.DrivingAbility,
	})
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}
	prev := c.PreviousApplications
	if prev == nil {
		prev = []pipeline.PreviousApplication{}
	}
	prevJSON, err := json.Marshal(prev)
	if err != nil {
		return nil, fmt.Errorf("encode previous applications: %w", err)
	}
	log := c.Log
	if log == nil {
		log = pipeline.Log{}
	}
	logJSON, err := json.Marshal(log)
	if err != nil {
		return nil, fmt.Errorf("encode contact logs: %w", err)
	}
	return []any{
		c.ID, c.JobID, c.Name, c.Email, c.Role, string(c.Status), c.LastActionDate,
		c.ApplicationTimestamp, c.DueDate, c.AssignedTA, c.HiringManager,
		prof, prevJSON, logJSON,
	}, nil
}
