package pipeline

import (
	"encoding/json"
	"fmt"
)

// Snapshot is the decoded form of an entry's Reason: one typed payload per
// stage, a DropRecord for "Dropped" entries, or a LegacyNote when the
// reason is not a JSON object.
type Snapshot interface {
	SnapshotStage() Stage
}

func (PrescreenForm) SnapshotStage() Stage           { return StagePrescreen }
func (OnlineTestForm) SnapshotStage() Stage          { return StageOnlineTest }
func (CognitiveTestForm) SnapshotStage() Stage       { return StageCognitiveTest }
func (HMInterviewForm) SnapshotStage() Stage         { return StageHMInterview }
func (ManagementInterviewForm) SnapshotStage() Stage { return StageManagementInterview }
func (CEOInterviewForm) SnapshotStage() Stage        { return StageCEOInterview }
func (OfferingForm) SnapshotStage() Stage            { return StageOffering }
func (SignContractForm) SnapshotStage() Stage        { return StageSignContract }
func (OnboardingForm) SnapshotStage() Stage          { return StageOnboarding }

// DropRecord is the payload of a "Dropped" entry.
type DropRecord struct {
	Stage  Stage  `json:"-"`
	Reason string `json:"reason"`
	Notes  string `json:"notes"`
}

func (d DropRecord) SnapshotStage() Stage { return d.Stage }

// LegacyNote wraps a free-text reason that carries no form state.
type LegacyNote struct {
	Stage Stage  `json:"-"`
	Text  string `json:"text"`
}

func (n LegacyNote) SnapshotStage() Stage { return n.Stage }

// EncodeSnapshot serializes a stage form for storage in Entry.Reason.
func EncodeSnapshot(s Snapshot) (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode %s snapshot: %w", s.SnapshotStage(), err)
	}
	return string(b), nil
}

// DecodeSnapshot decodes e.Reason into its typed payload. It never fails:
// anything that does not decode as the stage's form is a LegacyNote.
func DecodeSnapshot(e Entry) Snapshot {
	legacy := LegacyNote{Stage: e.Stage, Text: e.Reason}
	if e.Result == ResultDropped {
		d := DropRecord{Stage: e.Stage}
		if err := decodeObject(e.Reason, &d); err != nil {
			return legacy
		}
		return d
	}

	var drafts Drafts
	target := drafts.form(e.Stage)
	if target == nil {
		return legacy
	}
	if err := decodeObject(e.Reason, target); err != nil {
		return legacy
	}
	return snapshotOf(&drafts, e.Stage)
}

// decodeObject unmarshals raw into v, rejecting anything but a JSON object.
func decodeObject(raw string, v any) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return err
	}
	if probe == nil {
		return fmt.Errorf("snapshot is null")
	}
	return json.Unmarshal([]byte(raw), v)
}

func snapshotOf(d *Drafts, s Stage) Snapshot {
	switch s {
	case StagePrescreen:
		return d.Prescreen
	case StageOnlineTest:
		return d.OnlineTest
	case StageCognitiveTest:
		return d.CognitiveTest
	case StageHMInterview:
		return d.HMInterview
	case StageManagementInterview:
		return d.ManagementInterview
	case StageCEOInterview:
		return d.CEOInterview
	case StageOffering:
		return d.Offering
	case StageSignContract:
		return d.SignContract
	case StageOnboarding:
		return d.Onboarding
	}
	return nil
}
