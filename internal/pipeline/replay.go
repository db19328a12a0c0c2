package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Replay rebuilds the per-stage drafts from a log: start from base, then
// merge every entry's snapshot onto its stage's draft, oldest first, so the
// latest value of each field wins. Entries whose reason is not a stage form
// (legacy text, drops, skip-marker stages) leave the drafts untouched.
func Replay(l Log, base Drafts) Drafts {
	d := base
	for _, e := range l.Chronological() {
		if e.Result == ResultDropped {
			continue
		}
		_ = d.Merge(e.Stage, []byte(e.Reason))
	}
	return d
}

// Merge applies a JSON object patch onto the draft for stage s. Fields
// absent from the patch keep their current value. On error the drafts are
// unchanged.
func (d *Drafts) Merge(s Stage, patch []byte) error {
	var err error
	switch s {
	case StagePrescreen:
		err = mergeInto(&d.Prescreen, patch)
		if err == nil {
			var carry struct {
				OnlineTestDueDate string `json:"onlineTestDueDate"`
			}
			_ = json.Unmarshal(patch, &carry)
			if carry.OnlineTestDueDate != "" {
				d.OnlineTest.DueDate = carry.OnlineTestDueDate
			}
		}
	case StageOnlineTest:
		err = mergeInto(&d.OnlineTest, patch)
	case StageCognitiveTest:
		err = mergeInto(&d.CognitiveTest, patch)
	case StageHMInterview:
		err = mergeInto(&d.HMInterview, patch)
		if err == nil {
			var carry struct {
				NeedsScheduling   bool   `json:"needsScheduling"`
				NextInterviewDate string `json:"nextInterviewDate"`
				NextInterviewTime string `json:"nextInterviewTime"`
			}
			_ = json.Unmarshal(patch, &carry)
			if carry.NeedsScheduling && carry.NextInterviewDate != "" {
				d.ManagementInterview.Date = carry.NextInterviewDate
				d.ManagementInterview.Time = carry.NextInterviewTime
				if d.ManagementInterview.Time == "" {
					d.ManagementInterview.Time = "10:00"
				}
			}
		}
	case StageManagementInterview:
		err = mergeInto(&d.ManagementInterview, patch)
	case StageCEOInterview:
		err = mergeInto(&d.CEOInterview, patch)
	case StageOffering:
		err = mergeInto(&d.Offering, patch)
	case StageSignContract:
		err = mergeInto(&d.SignContract, patch)
	case StageOnboarding:
		err = mergeInto(&d.Onboarding, patch)
	default:
		return fmt.Errorf("stage %q has no form", s)
	}
	return err
}

func mergeInto[T any](dst *T, patch []byte) error {
	tmp := *dst
	if err := decodeObject(string(patch), &tmp); err != nil {
		return err
	}
	*dst = tmp
	return nil
}

// Session is the working state for the one candidate currently open in the
// journey view: the candidate, its job and the uncommitted stage drafts.
type Session struct {
	Candidate *Candidate
	Job       *Job
	Drafts    Drafts
}

// Select opens a session on c: every draft is reset to its default and the
// candidate's log is replayed on top.
func Select(c *Candidate, job *Job, now time.Time) *Session {
	return &Session{
		Candidate: c,
		Job:       job,
		Drafts:    Replay(c.Log, DefaultDrafts(job, c, now)),
	}
}

// Edit merges a form patch onto the draft for stage s.
func (s *Session) Edit(stage Stage, patch []byte) error {
	patch = bytes.TrimSpace(patch)
	if len(patch) == 0 || bytes.Equal(patch, []byte("null")) {
		return nil
	}
	return s.Drafts.Merge(stage, patch)
}

// Confirm runs the transition engine for stage against the session drafts.
func (s *Session) Confirm(stage Stage, now time.Time) (Decision, error) {
	return Confirm(stage, s.Candidate.Status, &s.Drafts, s.Job, now)
}
