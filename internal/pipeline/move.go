package pipeline

import (
	"fmt"
	"time"
)

// Relevel applies the cross-job re-leveling rule. Within one job family a
// candidate past Cognitive-test goes back to Cognitive-test for review with
// the score kept. Across families a candidate at or past Cognitive-test goes
// back to Cognitive-test and must retake it (purge is true). Everyone else
// keeps their status.
func Relevel(status Stage, oldFamily, newFamily string) (next Stage, purge bool) {
	if oldFamily == newFamily {
		if Past(status, StageCognitiveTest) {
			return StageCognitiveTest, false
		}
		return status, false
	}
	if AtOrPast(status, StageCognitiveTest) {
		return StageCognitiveTest, true
	}
	return status, false
}

// JobMove is the full effect of moving a candidate to another job. It is
// applied in one step by the store.
type JobMove struct {
	CandidateID   string
	FromJobID     string
	ToJobID       string
	Role          string
	HiringManager string
	Status        Stage
	// Log is the complete new log: for a cross-family move every earlier
	// Cognitive-test entry removed, then the "Moved" entry in front.
	Log           Log
	At time.Time
}

// PlanMove computes a JobMove for c from oldJob to newJob.
func PlanMove(c *Candidate, oldJob, newJob *Job, actor string, now time.Time) (JobMove, error) {
	if newJob == nil {
		return JobMove{}, invalid("a target job opening is required")
	}
	if oldJob == nil {
		return JobMove{}, invalid("candidate %s has no current job opening", c.ID)
	}
	if newJob.ID == oldJob.ID {
		return JobMove{}, invalid("candidate is already in %q", newJob.Title)
	}
	if !c.CanMove() {
		return JobMove{}, invalid("candidates at %s or later cannot be moved", StageOffering)
	}

	entry := NewEntry(c.Status, ResultMoved,
		fmt.Sprintf("Moved from %q to %q.", oldJob.Title, newJob.Title), actor, now)

	status, purge := Relevel(c.Status, oldJob.JobFamilyCode, newJob.JobFamilyCode)
	log := c.Log
	if purge {
		log = log.WithoutStage(StageCognitiveTest)
	}
	log = log.Append(entry)

	return JobMove{
		CandidateID:   c.ID,
		FromJobID:     oldJob.ID,
		ToJobID:       newJob.ID,
		Role:          newJob.Title,
		HiringManager: newJob.HiringManager,
		Status:        status,
		Log:           log,
		At:            now,
	}, nil
}

// Apply returns a copy of c with the move applied.
func (m JobMove) Apply(c Candidate) Candidate {
	c.JobID = m.ToJobID
	c.Role = m.Role
	c.HiringManager = m.HiringManager
	c.Status = m.Status
	c.LastActionDate = m.At
	c.Log = m.Log
	return c
}
