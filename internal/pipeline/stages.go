// Package pipeline defines the candidate-journey state machine.
//
// Stage registry, in order:
//
//	Application ─► Shortlisted ─► Disqualified ─► Prescreen ─► Online-test ─►
//	Cognitive-test ─► HM-interview ─► Management-interview ─► CEO-interview ─►
//	Offering ─► Sign-contract ─► Onboarding
//
// Application, Shortlisted and Disqualified are entry/sink markers, not work
// stages: the "next stage" lookup always skips them. Onboarding is the only
// terminal success state.
package pipeline

import "fmt"

// Stage values mirror the candidate_status enum in PostgreSQL.
type Stage string

const (
	StageApplication         Stage = "Application"
	StageShortlisted         Stage = "Shortlisted"
	StageDisqualified        Stage = "Disqualified"
	StagePrescreen           Stage = "Prescreen"
	StageOnlineTest          Stage = "Online-test"
	StageCognitiveTest       Stage = "Cognitive-test"
	StageHMInterview         Stage = "HM-interview"
	StageManagementInterview Stage = "Management-interview"
	StageCEOInterview        Stage = "CEO-interview"
	StageOffering            Stage = "Offering"
	StageSignContract        Stage = "Sign-contract"
	StageOnboarding          Stage = "Onboarding"
)

// registry is the fixed stage order. Index positions are significant.
var registry = [...]struct {
	stage Stage
	label string
}{
	{StageApplication, "Application"},
	{StageShortlisted, "Shortlisted"},
	{StageDisqualified, "Disqualified"},
	{StagePrescreen, "Pre-screen"},
	{StageOnlineTest, "Online Test"},
	{StageCognitiveTest, "Cognitive Test"},
	{StageHMInterview, "HM Interview"},
	{StageManagementInterview, "Management Interview"},
	{StageCEOInterview, "CEO Interview"},
	{StageOffering, "Offer"},
	{StageSignContract, "Sign Contract"},
	{StageOnboarding, "Onboarding"},
}

// Stages returns every registered stage in registry order.
func Stages() []Stage {
	out := make([]Stage, len(registry))
	for i, r := range registry {
		out[i] = r.stage
	}
	return out
}

// ParseStage converts a raw string to a Stage, returning an error for
// unknown values. Matching is exact and case-sensitive.
func ParseStage(s string) (Stage, error) {
	st := Stage(s)
	if st.Index() < 0 {
		return "", fmt.Errorf("unknown candidate stage %q", s)
	}
	return st, nil
}

// Index returns the registry position of s, or -1 if s is not registered.
func (s Stage) Index() int {
	for i, r := range registry {
		if r.stage == s {
			return i
		}
	}
	return -1
}

// Label is the human-readable stage name shown on the worklist tabs.
func (s Stage) Label() string {
	if i := s.Index(); i >= 0 {
		return registry[i].label
	}
	return string(s)
}

// Valid reports whether s is a registry member.
func (s Stage) Valid() bool { return s.Index() >= 0 }

// IsSkipMarker reports whether s is an entry/sink marker rather than a
// work stage.
func (s Stage) IsSkipMarker() bool {
	switch s {
	case StageApplication, StageShortlisted, StageDisqualified:
		return true
	}
	return false
}

// NextActionable returns the first work stage after s. The second return
// is false when there is no further stage (s is Onboarding) or s is unknown.
func NextActionable(s Stage) (Stage, bool) {
	i := s.Index()
	if i < 0 {
		return "", false
	}
	for j := i + 1; j < len(registry); j++ {
		if next := registry[j].stage; !next.IsSkipMarker() {
			return next, true
		}
	}
	return "", false
}

// WorkingStage is the stage whose form is open for a candidate at status.
// A candidate waiting in Application or Shortlisted works on Prescreen;
// everyone else works on their status. Disqualified has no working form.
func WorkingStage(status Stage) Stage {
	switch status {
	case StageApplication, StageShortlisted:
		next, _ := NextActionable(status)
		return next
	}
	return status
}

// AtOrPast reports whether s sits at or after ref in the registry.
// Unknown stages are never at or past anything.
func AtOrPast(s, ref Stage) bool {
	i, j := s.Index(), ref.Index()
	return i >= 0 && j >= 0 && i >= j
}

// Past reports whether s sits strictly after ref in the registry.
func Past(s, ref Stage) bool {
	i, j := s.Index(), ref.Index()
	return i >= 0 && j >= 0 && i > j
}

// PostShortlist lists the stages a shortlisted candidate can be in.
var PostShortlist = []Stage{
	StageShortlisted, StagePrescreen, StageOnlineTest, StageCognitiveTest,
	StageHMInterview, StageManagementInterview, StageCEOInterview,
	StageOffering, StageSignContract, StageOnboarding,
}

// PostPrescreen lists the stages reached once prescreening has passed.
var PostPrescreen = []Stage{
	StageOnlineTest, StageCognitiveTest, StageHMInterview,
	StageManagementInterview, StageCEOInterview, StageOffering,
	StageSignContract, StageOnboarding,
}

// In reports whether s is one of set.
func (s Stage) In(set []Stage) bool {
	for _, x := range set {
		if x == s {
			return true
		}
	}
	return false
}
