package tracker_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/smarthow-source/ATS-design-concept/internal/pipeline"
	"github.com/smarthow-source/ATS-design-concept/internal/settings"
	"github.com/smarthow-source/ATS-design-concept/internal/store/memory"
	"github.com/smarthow-source/ATS-design-concept/internal/tracker"
)

var now = time.Date(2025, 1, 20, 9, 30, 0, 0, time.UTC)

// recorder is a Publisher that keeps every event.
type recorder struct {
	mu     sync.Mutex
	events []tracker.Event
	err    error
}

func (r *recorder) Publish(_ context.Context, e tracker.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func snap(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func newService(t *testing.T) (*tracker.Service, *recorder) {
	t.Helper()
	st := memory.New()
	jobs := []pipeline.Job{
		{ID: "job-1", Title: "Senior Frontend Engineer", Department: "Engineering",
			HiringManager: "David Chen", Management: "Sarah Zhang", JobFamilyCode: "D"},
		{ID: "job-2", Title: "Backend Engineer", Department: "Engineering",
			HiringManager: "Tom Baker", Management: "Tom Baker", JobFamilyCode: "D"},
		{ID: "job-4", Title: "Marketing Specialist", Department: "Marketing",
			HiringManager: "Jane Doe", Management: "Sarah Zhang", JobFamilyCode: "R"},
	}
	day := func(n int) time.Time { return now.AddDate(0, 0, -n) }
	prescreen := pipeline.NewEntry(pipeline.StagePrescreen, "Pass",
		snap(t, map[string]string{"prescreenResult": "Pass", "university": "University of Oxford", "gpa": "3.6"}),
		"Sarah Jenks", day(5))
	online := pipeline.NewEntry(pipeline.StageOnlineTest, "Pass", `{"testResult":"Pass"}`, "Sarah Jenks", day(4))
	cognitive := pipeline.NewEntry(pipeline.StageCognitiveTest, "Pending", `{"testScore":"88"}`, "Sarah Jenks", day(3))

	cands := []pipeline.Candidate{
		{ID: "1", JobID: "job-1", Name: "Pam Beesly", Email: "pam@example.com", Role: "Senior Frontend Engineer",
			Status: pipeline.StageApplication, ApplicationTimestamp: day(1), AssignedTA: "Sarah Jenks",
			HiringManager: "David Chen", Log: pipeline.Log{}},
		{ID: "2", JobID: "job-1", Name: "Jim Halpert", Email: "jim@example.com", Role: "Senior Frontend Engineer",
			Status: pipeline.StageCognitiveTest, ApplicationTimestamp: day(6), AssignedTA: "Sarah Jenks",
			HiringManager: "David Chen", Age: 38,
			Log: pipeline.Log{}.Append(prescreen).Append(online).Append(cognitive)},
		{ID: "3", JobID: "job-4", Name: "Dwight Schrute", Role: "Marketing Specialist",
			Status: pipeline.StageOffering, ApplicationTimestamp: day(10), AssignedTA: "Sarah Jenks",
			HiringManager: "Jane Doe", Log: pipeline.Log{}},
		{ID: "4", JobID: "job-2", Name: "Stanley Hudson", Role: "Backend Engineer",
			Status: pipeline.StageHMInterview, ApplicationTimestamp: day(8), AssignedTA: "Sarah Jenks",
			HiringManager: "Tom Baker", Log: pipeline.Log{}},
	}
	require.NoError(t, st.Seed(context.Background(), jobs, cands))

	rec := &recorder{}
	svc := tracker.NewService(st, settings.New(settings.Defaults()), rec, zaptest.NewLogger(t),
		tracker.WithClock(func() time.Time { return now }))
	return svc, rec
}

func assertInvalid(t *testing.T, err error) {
	t.Helper()
	var ve *tracker.ValidationError
	require.Error(t, err)
	assert.True(t, errors.As(err, &ve), "want *ValidationError, got %T: %v", err, err)
}

func TestAddCandidate_Defaults(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	c, err := svc.AddCandidate(ctx, tracker.NewCandidate{JobID: "job-4", Name: " Pam Beesly ", Email: "PAM@example.com"})
	require.NoError(t, err)

	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "Pam Beesly", c.Name)
	assert.Equal(t, pipeline.StageApplication, c.Status)
	assert.Equal(t, "Marketing Specialist", c.Role)
	assert.Equal(t, "Jane Doe", c.HiringManager)
	assert.Equal(t, tracker.DefaultTAName, c.AssignedTA)
	assert.Equal(t, "N/A", c.MilitaryStatus)
	assert.Equal(t, "N/A", c.DrivingAbility)
	assert.Equal(t, now, c.ApplicationTimestamp)
	assert.Empty(t, c.Log)
	assert.Equal(t, []pipeline.PreviousApplication{{Role: "Senior Frontend Engineer", Status: pipeline.StageApplication}},
		c.PreviousApplications)

	got, err := svc.GetCandidate(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
}

func TestAddCandidate_Validation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.AddCandidate(ctx, tracker.NewCandidate{JobID: "job-1"})
	assertInvalid(t, err)
	assert.Contains(t, err.Error(), "Name is required")

	_, err = svc.AddCandidate(ctx, tracker.NewCandidate{JobID: "job-1", Name: "X", Email: "nope"})
	assertInvalid(t, err)

	_, err = svc.AddCandidate(ctx, tracker.NewCandidate{JobID: "job-9", Name: "X"})
	assertInvalid(t, err)
}

func TestListCandidates_FilterAndOrder(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	all, err := svc.ListCandidates(ctx, tracker.Filter{Status: tracker.AllWork})
	require.NoError(t, err)
	ids := make([]string, len(all))
	for i, c := range all {
		ids[i] = c.ID
	}
	assert.Equal(t, []string{"1", "2", "4", "3"}, ids, "newest application first")

	byJob, err := svc.ListCandidates(ctx, tracker.Filter{JobID: "job-1", Query: "JIM"})
	require.NoError(t, err)
	require.Len(t, byJob, 1)
	assert.Equal(t, "2", byJob[0].ID)

	_, err = svc.ListCandidates(ctx, tracker.Filter{Status: "Hired"})
	assertInvalid(t, err)
}

func TestStageCounts(t *testing.T) {
	svc, _ := newService(t)
	counts, err := svc.StageCounts(context.Background(), "job-1")
	require.NoError(t, err)

	require.Len(t, counts, 1+len(pipeline.Stages()))
	assert.Equal(t, tracker.StageCount{Stage: tracker.AllWork, Count: 2}, counts[0])
	by := map[string]int{}
	for _, c := range counts[1:] {
		by[c.Stage] = c.Count
	}
	assert.Equal(t, 1, by["Application"])
	assert.Equal(t, 1, by["Cognitive-test"])
	assert.Equal(t, 0, by["Offering"])
}

func TestConfirmStage_PrescreenFromApplication(t *testing.T) {
	svc, rec := newService(t)

	out, err := svc.ConfirmStage(context.Background(), "1", "Prescreen",
		json.RawMessage(`{"prescreenResult":"Pass","expectedSalary":"90000"}`), pipeline.RoleTA)
	require.NoError(t, err)

	assert.Equal(t, pipeline.StageApplication, out.From)
	assert.Equal(t, pipeline.StageOnlineTest, out.To)
	assert.Equal(t, pipeline.StagePrescreen, out.Entry.Stage)
	assert.Equal(t, "Pass", out.Entry.Result)
	assert.Equal(t, "Sarah Jenks", out.Entry.Actor)
	assert.Equal(t, now, out.Candidate.LastActionDate)
	require.Len(t, out.Candidate.Log, 1)

	require.Equal(t, []string{tracker.EventStageChanged}, rec.types())
	assert.Equal(t, "Online-test", rec.events[0].To)

	j, err := svc.Journey(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "90000", j.Drafts.Prescreen.ExpectedSalary)
	assert.Equal(t, pipeline.StageOnlineTest, j.WorkingStage)
}

func TestConfirmStage_RejectsFutureAndMarkerStages(t *testing.T) {
	svc, rec := newService(t)
	ctx := context.Background()

	_, err := svc.ConfirmStage(ctx, "1", "HM-interview", json.RawMessage(`{"result":"Pass"}`), pipeline.RoleTA)
	assertInvalid(t, err)

	_, err = svc.ConfirmStage(ctx, "1", "Shortlisted", nil, pipeline.RoleTA)
	assertInvalid(t, err)

	_, err = svc.ConfirmStage(ctx, "1", "Nope", nil, pipeline.RoleTA)
	assertInvalid(t, err)

	_, err = svc.ConfirmStage(ctx, "missing", "Prescreen", nil, pipeline.RoleTA)
	assert.ErrorIs(t, err, tracker.ErrNotFound)

	c, err := svc.GetCandidate(ctx, "1")
	require.NoError(t, err)
	assert.Empty(t, c.Log)
	assert.Empty(t, rec.types())
}

func TestConfirmStage_PastStageLogsWithoutMoving(t *testing.T) {
	svc, rec := newService(t)

	out, err := svc.ConfirmStage(context.Background(), "2", "Prescreen",
		json.RawMessage(`{"manualNote":"called again"}`), pipeline.RoleHiringManager)
	require.NoError(t, err)

	assert.False(t, out.Changed())
	assert.Equal(t, pipeline.StageCognitiveTest, out.Candidate.Status)
	assert.Equal(t, "Pass", out.Entry.Result, "replayed draft keeps the earlier result")
	assert.Equal(t, "David Chen", out.Entry.Actor)
	assert.Len(t, out.Candidate.Log, 4)
	assert.Empty(t, rec.types())
}

func TestConfirmStage_HMPassWithSameApproverSkipsToOffering(t *testing.T) {
	svc, _ := newService(t)
	out, err := svc.ConfirmStage(context.Background(), "4", "HM-interview", json.RawMessage(`{"result":"Pass"}`), pipeline.RoleTA)
	require.NoError(t, err)
	assert.Equal(t, pipeline.StageOffering, out.To)
}

func TestConfirmStage_PublishFailureIsNotFatal(t *testing.T) {
	svc, rec := newService(t)
	rec.err = errors.New("redis down")

	out, err := svc.ConfirmStage(context.Background(), "2", "Cognitive-test",
		json.RawMessage(`{"testResult":"Fail"}`), pipeline.RoleTA)
	require.NoError(t, err)
	assert.Equal(t, pipeline.StageDisqualified, out.Candidate.Status)
	assert.Equal(t, []string{tracker.EventStageChanged}, rec.types())
}

func TestSubmitHMFeedback(t *testing.T) {
	svc, rec := newService(t)
	ctx := context.Background()

	_, err := svc.SubmitHMFeedback(ctx, "4", pipeline.HMInterviewForm{}, pipeline.RoleHiringManager)
	assertInvalid(t, err)

	_, err = svc.SubmitHMFeedback(ctx, "1", pipeline.HMInterviewForm{Result: "Pass"}, pipeline.RoleHiringManager)
	assertInvalid(t, err)

	out, err := svc.SubmitHMFeedback(ctx, "4", pipeline.HMInterviewForm{Result: "Pass", Note: "strong"}, pipeline.RoleHiringManager)
	require.NoError(t, err)
	assert.Equal(t, pipeline.StageHMInterview, out.Candidate.Status)
	assert.Equal(t, pipeline.StageHMInterview, out.Entry.Stage)
	assert.Equal(t, "Tom Baker", out.Entry.Actor)
	assert.JSONEq(t, `{"result":"Pass","interviewer":"Tom Baker","manualNote":"strong"}`, out.Entry.Reason)
	assert.Empty(t, rec.types())
}

func TestChangeStatus(t *testing.T) {
	svc, rec := newService(t)
	ctx := context.Background()

	out, err := svc.ChangeStatus(ctx, "1", "Shortlisted", pipeline.RoleTA)
	require.NoError(t, err)
	assert.Equal(t, pipeline.StageShortlisted, out.Candidate.Status)
	assert.Equal(t, pipeline.StageApplication, out.Entry.Stage)
	assert.Equal(t, "Shortlisted by TA", out.Entry.Result)
	assert.Equal(t, "Candidate moved from Application to Shortlisted by TA.", out.Entry.Reason)
	assert.Equal(t, []string{tracker.EventStageChanged}, rec.types())

	_, err = svc.ChangeStatus(ctx, "1", "Shortlisted", pipeline.RoleTA)
	assertInvalid(t, err)

	_, err = svc.ChangeStatus(ctx, "1", "Offering", pipeline.RoleTA)
	assertInvalid(t, err)
}

func TestDrop(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Drop(ctx, "2", "  ", "", pipeline.RoleTA)
	assertInvalid(t, err)

	out, err := svc.Drop(ctx, "2", "Unresponsive", "three calls", pipeline.RoleTA)
	require.NoError(t, err)
	assert.Equal(t, pipeline.StageDisqualified, out.Candidate.Status)
	assert.Equal(t, pipeline.StageCognitiveTest, out.Entry.Stage)
	assert.Equal(t, pipeline.ResultDropped, out.Entry.Result)
	assert.JSONEq(t, `{"reason":"Unresponsive","notes":"three calls"}`, out.Entry.Reason)

	_, err = svc.Drop(ctx, "2", "Other", "", pipeline.RoleTA)
	assertInvalid(t, err)

	j, err := svc.Journey(ctx, "2")
	require.NoError(t, err)
	assert.False(t, j.CanDrop)
	assert.Equal(t, "drop", j.Log[0].Kind)
	assert.Equal(t, "form", j.Log[1].Kind)
}

func TestMoveCandidate_CrossFamilyPurgesCognitive(t *testing.T) {
	svc, rec := newService(t)

	out, err := svc.MoveCandidate(context.Background(), "2", "job-4", pipeline.RoleHiringManager)
	require.NoError(t, err)

	c := out.Candidate
	assert.Equal(t, "job-4", c.JobID)
	assert.Equal(t, "Marketing Specialist", c.Role)
	assert.Equal(t, "Jane Doe", c.HiringManager)
	assert.Equal(t, pipeline.StageCognitiveTest, c.Status)
	// The old score is gone; the only Cognitive-test entry left is the move itself.
	assert.Equal(t, 1, c.Log.CountStage(pipeline.StageCognitiveTest))
	latest, ok := c.Log.Latest(pipeline.StageCognitiveTest)
	require.True(t, ok)
	assert.Equal(t, pipeline.ResultMoved, latest.Result)
	assert.Equal(t, pipeline.ResultMoved, c.Log[0].Result)
	assert.Equal(t, "Jane Doe", c.Log[0].Actor, "actor comes from the new job")
	assert.Len(t, c.Log, 3)

	assert.Equal(t, []string{tracker.EventCandidateMoved}, rec.types())
	assert.Equal(t, "job-1", rec.events[0].FromJobID)
}

func TestMoveCandidate_Guards(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.MoveCandidate(ctx, "3", "job-1", pipeline.RoleTA)
	assertInvalid(t, err)

	_, err = svc.MoveCandidate(ctx, "2", "job-1", pipeline.RoleTA)
	assertInvalid(t, err)

	_, err = svc.MoveCandidate(ctx, "2", "job-9", pipeline.RoleTA)
	assertInvalid(t, err)

	_, err = svc.MoveCandidate(ctx, "2", "", pipeline.RoleTA)
	assertInvalid(t, err)
}

func TestJourney(t *testing.T) {
	svc, _ := newService(t)
	j, err := svc.Journey(context.Background(), "2")
	require.NoError(t, err)

	assert.True(t, j.CanMove)
	assert.True(t, j.CanDrop)
	assert.True(t, j.Shortlisted)
	assert.True(t, j.PrescreenPassed)
	assert.Equal(t, "job-1", j.Job.ID)
	assert.Equal(t, "University of Oxford", j.Drafts.Prescreen.University)
	assert.Equal(t, "88", j.Drafts.CognitiveTest.TestScore)
	require.Len(t, j.Log, 3)
	assert.Equal(t, pipeline.StageCognitiveTest, j.Log[0].Stage)
	assert.IsType(t, pipeline.CognitiveTestForm{}, j.Log[0].Snapshot)

	_, err = svc.Journey(context.Background(), "missing")
	assert.ErrorIs(t, err, tracker.ErrNotFound)
}

func TestCEOTriggers(t *testing.T) {
	svc, _ := newService(t)
	hits, err := svc.CEOTriggers(context.Background(), "2")
	require.NoError(t, err)

	tables := make([]settings.Table, len(hits))
	for i, h := range hits {
		tables[i] = h.Table
	}
	assert.Equal(t, []settings.Table{settings.TableAge, settings.TableTopUniversity, settings.TableGPA}, tables)
	assert.NotContains(t, tables, settings.TableBand, "no field records a band")

	c, err := svc.GetCandidate(context.Background(), "2")
	require.NoError(t, err)
	assert.Equal(t, pipeline.StageCognitiveTest, c.Status, "triggers never move the candidate")
}

func TestRemoveFamily_RejectsFamilyInUse(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	assertInvalid(t, svc.RemoveFamily(ctx, "D"))
	_, ok := svc.Settings().Family("D")
	assert.True(t, ok, "family in use must survive")
	_, err := svc.CEOTriggers(ctx, "2")
	assert.NoError(t, err)

	require.NoError(t, svc.RemoveFamily(ctx, "L"))
	_, ok = svc.Settings().Family("L")
	assert.False(t, ok)
	assert.ErrorIs(t, svc.RemoveFamily(ctx, "L"), tracker.ErrNotFound)
}

func TestAssignTA(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	job, err := svc.AssignTA(ctx, "job-1", "Mike Ross")
	require.NoError(t, err)
	assert.Equal(t, "Mike Ross", job.AssignedTA)

	_, err = svc.AssignTA(ctx, "job-1", "Harvey Specter")
	assertInvalid(t, err)

	_, err = svc.AssignTA(ctx, "job-9", "Mike Ross")
	assert.ErrorIs(t, err, tracker.ErrNotFound)
}

func TestDocuments(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	h, err := svc.HandOff(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "Jim Halpert", h.CandidateName)
	assert.Equal(t, "University of Oxford", h.UniversityGraduated)
	assert.Equal(t, "88 / 100", h.CognitiveTestScore)

	k, err := svc.Contract(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "January 20, 2025", k.EffectiveDate)
	assert.Equal(t, "David Chen", k.SignatoryName)
}
