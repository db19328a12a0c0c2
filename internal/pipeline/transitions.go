package pipeline

import (
	"encoding/json"
	"fmt"
	"time"
)

// Decision is the outcome of confirming one stage.
type Decision struct {
	Stage    Stage
	Result   string
	Snapshot string
	// Next is the stage the candidate moves to, or "" when the result
	// leaves the candidate where it is.
	Next     Stage
	// Advances is true when Next applies: Next is set and the confirmed
	// stage is the candidate's current stage. Edits to historical stages
	// are logged but never move the status.
	Advances bool
}

// ValidationError wraps a user-facing validation message.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

func invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// Confirm computes the log result, serialized snapshot and next status for
// stage from its draft. current is the candidate's status; job supplies the
// approver identities for the HM-interview shortcut. The drafts for
// Online-test and Offering are rewritten in place the same way the stored
// snapshot is (next due/follow-up dates promoted, salary defaulted).
func Confirm(stage, current Stage, d *Drafts, job *Job, now time.Time) (Decision, error) {
	if !stage.Valid() {
		return Decision{}, invalid("unknown candidate stage %q", stage)
	}
	if stage.IsSkipMarker() {
		return Decision{}, invalid("stage %s has no form to confirm", stage)
	}

	var (
		result string
		snap   Snapshot
		next   Stage
	)
	advance := func() Stage {
		s, _ := NextActionable(stage)
		return s
	}

	switch stage {
	case StagePrescreen:
		d.Prescreen.Date = now.Format(dateLayout)
		result, snap = d.Prescreen.PrescreenResult, d.Prescreen
		switch result {
		case ResultPass:
			next = advance()
		case ResultFail, ResultCandidateReject:
			next = StageDisqualified
		}

	case StageOnlineTest:
		if d.OnlineTest.NextDueDate != "" {
			d.OnlineTest.DueDate = d.OnlineTest.NextDueDate
			d.OnlineTest.NextDueDate = ""
		}
		result, snap = d.OnlineTest.TestResult, d.OnlineTest
		switch {
		case result == ResultPass && d.OnlineTest.ContinueProcess == "Yes":
			next = advance()
		case result == ResultFail || d.OnlineTest.ContinueProcess == "No":
			next = StageDisqualified
		}

	case StageCognitiveTest:
		result, snap = d.CognitiveTest.TestResult, d.CognitiveTest
		next = passFail(result, advance)

	case StageHMInterview:
		result, snap = d.HMInterview.Result, d.HMInterview
		switch result {
		case ResultPass:
			// Without a job there is no approver to compare, so the
			// management interview is kept.
			if job != nil && job.SameApprover() {
				next = StageOffering
			} else {
				next = advance()
			}
		case ResultFail:
			next = StageDisqualified
		}

	case StageManagementInterview:
		result, snap = d.ManagementInterview.Result, d.ManagementInterview
		switch result {
		case ResultPass:
			if d.ManagementInterview.CEOTrigger {
				next = advance()
			} else {
				next = StageOffering
			}
		case ResultFail:
			next = StageDisqualified
		}

	case StageCEOInterview:
		result, snap = d.CEOInterview.Result, d.CEOInterview
		next = passFail(result, advance)

	case StageOffering:
		if d.Offering.Salary == "" {
			d.Offering.Salary = d.Prescreen.ExpectedSalary
		}
		if d.Offering.NextFollowUpDate != "" {
			d.Offering.FollowUpDate = d.Offering.NextFollowUpDate
			d.Offering.NextFollowUpDate = ""
		}
		result, snap = d.Offering.OfferResult, d.Offering
		next = passFail(result, advance)

	case StageSignContract:
		result, snap = d.SignContract.ContractStatus, d.SignContract
		switch result {
		case ResultSigned:
			next = advance()
		case ResultDeclined:
			next = StageDisqualified
		}

	case StageOnboarding:
		// Completed is final: no automatic progression.
		result, snap = d.Onboarding.OnboardingStatus, d.Onboarding
	}

	encoded, err := EncodeSnapshot(snap)
	if err != nil {
		return Decision{}, err
	}
	return Decision{
		Stage:    stage,
		Result:   result,
		Snapshot: encoded,
		Next:     next,
		Advances: next != "" && stage == current,
	}, nil
}

func passFail(result string, advance func() Stage) Stage {
	switch result {
	case ResultPass:
		return advance()
	case ResultFail:
		return StageDisqualified
	}
	return ""
}

// HMFeedback builds the feedback-only HM-interview entry payload. It is
// logged without touching the candidate's status.
func HMFeedback(f HMInterviewForm) (result, snapshot string, err error) {
	b, err := json.Marshal(struct {
		Result      string `json:"result"`
		Interviewer string `json:"interviewer"`
		Note        string `json:"manualNote"`
	}{f.Result, f.Interviewer, f.Note})
	if err != nil {
		return "", "", fmt.Errorf("encode hm feedback: %w", err)
	}
	return f.Result, string(b), nil
}

// ManualMove describes a worklist move to one of the list markers
// (Application, Shortlisted, Disqualified).
type ManualMove struct {
	From   Stage
	To     Stage
	Result string
	Note   string
}

// PlanManualMove validates a marker move and labels it for the log.
func PlanManualMove(from, to Stage, role Role) (ManualMove, error) {
	if !to.IsSkipMarker() {
		return ManualMove{}, invalid("manual moves can only target Application, Shortlisted or Disqualified, got %q", to)
	}
	if from == to {
		return ManualMove{}, invalid("candidate is already in %s", to)
	}

	actor := role.actorLabel()
	var result string
	switch {
	case from == StageDisqualified:
		result = "Reactivated by " + actor
	case to == StageDisqualified:
		result = "Disqualified by " + actor
	case to == StageShortlisted && from == StageApplication:
		result = "Shortlisted by " + actor
	default:
		result = "Moved by " + actor
	}
	return ManualMove{
		From:   from,
		To:     to,
		Result: result,
		Note:   fmt.Sprintf("Candidate moved from %s to %s by %s.", from, to, actor),
	}, nil
}

// PlanDrop builds the "Dropped" entry payload. A reason is required.
func PlanDrop(reason, notes string) (string, error) {
	if reason == "" {
		return "", invalid("a drop reason is required")
	}
	b, err := json.Marshal(DropRecord{Reason: reason, Notes: notes})
	if err != nil {
		return "", fmt.Errorf("encode drop: %w", err)
	}
	return string(b), nil
}

// DropReasons are the reasons offered when dropping a candidate.
var DropReasons = []string{
	"Does not meet minimum qualifications",
	"Failed technical assessment",
	"Poor culture fit",
	"Unresponsive",
	"Accepted another offer",
	"Salary expectations too high",
	"Relocation issues",
	"Hiring freeze / Position closed",
	"Other",
}
