// Package seed loads demo job openings and candidates from YAML.
package seed

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/smarthow-source/ATS-design-concept/internal/pipeline"
)

//go:embed seed.yaml
var defaultSeed []byte

// File is the on-disk seed format. Timestamps are durations before load
// time so the data never goes stale.
type File struct {
	Jobs       []pipeline.Job `yaml:"jobs"`
	Candidates []Candidate    `yaml:"candidates"`
}

// Candidate is one seeded candidate.
type Candidate struct {
	ID                   string                         `yaml:"id"`
	JobID                string                         `yaml:"jobId"`
	Name                 string                         `yaml:"name"`
	Email                string                         `yaml:"email"`
	Status               string                         `yaml:"status"`
	AssignedTA           string                         `yaml:"assignedTA"`
	LastActionAgo        time.Duration                  `yaml:"lastActionAgo"`
	AppliedAgo           time.Duration                  `yaml:"appliedAgo"`
	PreviousApplications []pipeline.PreviousApplication `yaml:"previousApplications"`
	Profile              Profile                        `yaml:"profile"`
	Log                  []Entry                        `yaml:"log"`
}

type Profile struct {
	Gender         string `yaml:"gender"`
	Age            int    `yaml:"age"`
	PhoneNumber    string `yaml:"phoneNumber"`
	LineID         string `yaml:"lineId"`
	Location       string `yaml:"location"`
	Education      string `yaml:"education"`
	MilitaryStatus string `yaml:"militaryStatus"`
	DrivingAbility string `yaml:"drivingAbility"`
}

// Entry is a seeded log entry, newest first like the stored log.
type Entry struct {
	ID     string `yaml:"id"`
	Date   string `yaml:"date"`
	Time   string `yaml:"time"`
	Result string `yaml:"result"`
	Stage  string `yaml:"stage"`
	Actor  string `yaml:"taName"`
	Reason string `yaml:"reason"`
}

// Load reads the seed at path, or the embedded default when path is empty.
func Load(path string) (*File, error) {
	if path == "" {
		return Decode(bytes.NewReader(defaultSeed))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses a seed document. Unknown fields are rejected.
func Decode(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return &f, nil
}

// Build resolves the seed against now. Role and hiring manager come from
// the candidate's job; candidates without a TA get defaultTA.
func (f *File) Build(now time.Time, defaultTA string) ([]pipeline.Job, []pipeline.Candidate, error) {
	jobs := make(map[string]pipeline.Job, len(f.Jobs))
	for _, j := range f.Jobs {
		if _, dup := jobs[j.ID]; dup {
			return nil, nil, fmt.Errorf("seed: duplicate job %q", j.ID)
		}
		jobs[j.ID] = j
	}

	out := make([]pipeline.Candidate, 0, len(f.Candidates))
	seen := make(map[string]bool, len(f.Candidates))
	for _, sc := range f.Candidates {
		if seen[sc.ID] {
			return nil, nil, fmt.Errorf("seed: duplicate candidate %q", sc.ID)
		}
		seen[sc.ID] = true

		job, ok := jobs[sc.JobID]
		if !ok {
			return nil, nil, fmt.Errorf("seed: candidate %s references unknown job %q", sc.ID, sc.JobID)
		}
		status, err := pipeline.ParseStage(sc.Status)
		if err != nil {
			return nil, nil, fmt.Errorf("seed: candidate %s: %w", sc.ID, err)
		}
		log, err := sc.log()
		if err != nil {
			return nil, nil, err
		}
		ta := sc.AssignedTA
		if ta == "" {
			ta = defaultTA
		}
		p := sc.Profile
		out = append(out, pipeline.Candidate{
			ID:                   sc.ID,
			JobID:                job.ID,
			Name:                 sc.Name,
			Email:                sc.Email,
			Role:                 job.Title,
			Status:               status,
			LastActionDate:       now.Add(-sc.LastActionAgo),
			ApplicationTimestamp: now.Add(-sc.AppliedAgo),
			PreviousApplications: sc.PreviousApplications,
			AssignedTA:           ta,
			HiringManager:        job.HiringManager,
			Gender:               p.Gender,
			Age:                  p.Age,
			PhoneNumber:          p.PhoneNumber,
			LineID:               p.LineID,
			Location:             p.Location,
			Education:            p.Education,
			MilitaryStatus:       p.MilitaryStatus,
			DrivingAbility:       p.DrivingAbility,
			Log:                  log,
		})
	}
	return f.Jobs, out, nil
}

func (sc Candidate) log() (pipeline.Log, error) {
	l := make(pipeline.Log, 0, len(sc.Log))
	for _, e := range sc.Log {
		stage, err := pipeline.ParseStage(e.Stage)
		if err != nil {
			return nil, fmt.Errorf("seed: candidate %s entry %s: %w", sc.ID, e.ID, err)
		}
		clock := e.Time
		if clock == "" {
			clock = "00:00"
		}
		at, err := time.Parse("2006-01-02 15:04", e.Date+" "+clock)
		if err != nil {
			return nil, fmt.Errorf("seed: candidate %s entry %s: %w", sc.ID, e.ID, err)
		}
		l = append(l, pipeline.Entry{
			ID:     e.ID,
			Stage:  stage,
			Result: e.Result,
			Reason: e.Reason,
			Actor:  e.Actor,
			Date:   e.Date,
			Time:   e.Time,
			At:     at,
		})
	}
	return l, nil
}
