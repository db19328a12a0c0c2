package pipeline_test

// Snapshot rewriting and manual moves. The core rule matrix lives in
// transitions_test.go.

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/smarthow-source/ATS-design-concept/internal/pipeline"
)

// Online-test promotes the follow-up due date into the due date.
func TestConfirm_OnlineTestPromotesNextDueDate(t *testing.T) {
	d := drafts(splitJob)
	d.OnlineTest.NextDueDate = "2025-02-01"
	dec, err := pipeline.Confirm(pipeline.StageOnlineTest, pipeline.StageOnlineTest, &d, splitJob, now)
	if err != nil {
		t.Fatal(err)
	}
	var saved pipeline.OnlineTestForm
	if err := json.Unmarshal([]byte(dec.Snapshot), &saved); err != nil {
		t.Fatal(err)
	}
	if saved.DueDate != "2025-02-01" || saved.NextDueDate != "" {
		t.Errorf("saved due=%q next=%q, want due promoted and next cleared", saved.DueDate, saved.NextDueDate)
	}
}

// Offering falls back to the prescreen expected salary.
func TestConfirm_OfferingSalaryFallback(t *testing.T) {
	d := drafts(splitJob)
	d.Prescreen.ExpectedSalary = "85000"
	d.Offering.NextFollowUpDate = "2025-01-25"
	dec, err := pipeline.Confirm(pipeline.StageOffering, pipeline.StageOffering, &d, splitJob, now)
	if err != nil {
		t.Fatal(err)
	}
	snap, ok := pipeline.DecodeSnapshot(pipeline.Entry{Stage: pipeline.StageOffering, Reason: dec.Snapshot}).(pipeline.OfferingForm)
	if !ok {
		t.Fatalf("offering snapshot did not decode as OfferingForm")
	}
	if snap.Salary != "85000" {
		t.Errorf("salary = %q, want prescreen expected salary", snap.Salary)
	}
	if snap.FollowUpDate != "2025-01-25" || snap.NextFollowUpDate != "" {
		t.Errorf("follow-up = %q / %q, want promoted", snap.FollowUpDate, snap.NextFollowUpDate)
	}
}

// Prescreen stamps the confirmation date.
func TestConfirm_PrescreenStampsDate(t *testing.T) {
	d := drafts(splitJob)
	d.Prescreen.Date = ""
	dec, _ := pipeline.Confirm(pipeline.StagePrescreen, pipeline.StagePrescreen, &d, splitJob, now)
	snap := pipeline.DecodeSnapshot(pipeline.Entry{Stage: pipeline.StagePrescreen, Reason: dec.Snapshot}).(pipeline.PrescreenForm)
	if snap.Date != "2025-01-20" {
		t.Errorf("prescreen date = %q, want 2025-01-20", snap.Date)
	}
}

func TestPlanManualMove_Labels(t *testing.T) {
	cases := []struct {
		from, to pipeline.Stage
		role     pipeline.Role
		want     string
	}{
		{pipeline.StageApplication, pipeline.StageShortlisted, pipeline.RoleTA, "Shortlisted by TA"},
		{pipeline.StageShortlisted, pipeline.StageDisqualified, pipeline.RoleHiringManager, "Disqualified by Hiring Manager"},
		{pipeline.StageDisqualified, pipeline.StageShortlisted, pipeline.RoleTA, "Reactivated by TA"},
		{pipeline.StageShortlisted, pipeline.StageApplication, pipeline.RoleTAManager, "Moved by Hiring Manager"},
	}
	for _, c := range cases {
		m, err := pipeline.PlanManualMove(c.from, c.to, c.role)
		if err != nil {
			t.Fatalf("PlanManualMove(%s → %s) error: %v", c.from, c.to, err)
		}
		if m.Result != c.want {
			t.Errorf("PlanManualMove(%s → %s) = %q, want %q", c.from, c.to, m.Result, c.want)
		}
	}
}

func TestPlanManualMove_RejectsWorkStages(t *testing.T) {
	_, err := pipeline.PlanManualMove(pipeline.StageApplication, pipeline.StageOffering, pipeline.RoleTA)
	var ve *pipeline.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("moving straight to Offering should be a validation error, got %v", err)
	}
	if _, err := pipeline.PlanManualMove(pipeline.StageShortlisted, pipeline.StageShortlisted, pipeline.RoleTA); err == nil {
		t.Error("self-move should be rejected")
	}
}

func TestPlanDrop_RequiresReason(t *testing.T) {
	if _, err := pipeline.PlanDrop("", "notes"); err == nil {
		t.Error("PlanDrop without reason should fail")
	}
	raw, err := pipeline.PlanDrop("Unresponsive", "three calls")
	if err != nil {
		t.Fatal(err)
	}
	got := pipeline.DecodeSnapshot(pipeline.Entry{Stage: pipeline.StagePrescreen, Result: pipeline.ResultDropped, Reason: raw})
	drop, ok := got.(pipeline.DropRecord)
	if !ok || drop.Reason != "Unresponsive" || drop.Notes != "three calls" || drop.Stage != pipeline.StagePrescreen {
		t.Errorf("decoded drop = %#v", got)
	}
}

func TestHMFeedback_KeepsResult(t *testing.T) {
	result, snap, err := pipeline.HMFeedback(pipeline.HMInterviewForm{Result: pipeline.ResultOnHold, Interviewer: "David Chen", Note: "strong on systems"})
	if err != nil {
		t.Fatal(err)
	}
	if result != pipeline.ResultOnHold {
		t.Errorf("result = %q", result)
	}
	form := pipeline.DecodeSnapshot(pipeline.Entry{Stage: pipeline.StageHMInterview, Reason: snap}).(pipeline.HMInterviewForm)
	if form.Note != "strong on systems" || form.Interviewer != "David Chen" {
		t.Errorf("decoded feedback = %#v", form)
	}
}
