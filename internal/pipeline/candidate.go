package pipeline

import "time"

// Role identifies who is acting on the worklist.
type Role string

const (
	RoleTA            Role = "TA"
	RoleHiringManager Role = "HiringManager"
	RoleTAManager     Role = "TAManager"
)

const hiringManagerTitle = "Hiring Manager"

// ParseRole accepts the three worklist roles; an empty string means TA.
func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case "":
		return RoleTA, true
	case RoleTA, RoleHiringManager, RoleTAManager:
		return r, true
	}
	return "", false
}

// actorLabel is the short actor name used in manual-move results.
func (r Role) actorLabel() string {
	if r == RoleTA {
		return "TA"
	}
	return hiringManagerTitle
}

// Job is a job opening a candidate applies for.
type Job struct {
	ID            string `json:"id" yaml:"id"`
	Title         string `json:"title" yaml:"title"`
	Department    string `json:"department" yaml:"department"`
	Location      string `json:"location" yaml:"location"`
	HiringManager string `json:"hiringManager" yaml:"hiringManager"`
	Management    string `json:"management" yaml:"management"`
	OpenDate      string `json:"openDate" yaml:"openDate"`
	Priority      string `json:"priority" yaml:"priority"`
	AssignedTA    string `json:"assignedTA" yaml:"assignedTA"`
	JobFamilyCode string `json:"jobFamilyCode" yaml:"jobFamilyCode"`
}

// SameApprover reports whether one person holds both the hiring-manager
// and the management approver role.
func (j Job) SameApprover() bool {
	return j.HiringManager == j.Management
}

// PreviousApplication records an earlier application by the same person.
type PreviousApplication struct {
	Role   string `json:"role"`
	Status Stage  `json:"status"`
}

// Candidate is one applicant in the pipeline. Log is newest-first.
type Candidate struct {
	ID                   string                `json:"id"`
	JobID                string                `json:"jobId"`
	Name                 string                `json:"name"`
	Email                string                `json:"email"`
	Role                 string                `json:"role"`
	Status               Stage                 `json:"status"`
	LastActionDate       time.Time             `json:"lastActionDate"`
	ApplicationTimestamp time.Time             `json:"applicationTimestamp"`
	DueDate              *time.Time            `json:"dueDate,omitempty"`
	PreviousApplications []PreviousApplication `json:"previousApplications,omitempty"`
	AssignedTA           string                `json:"assignedTA"`
	HiringManager        string                `json:"hiringManager"`

	Gender         string `json:"gender"`
	Age            int    `json:"age"`
	PhoneNumber    string `json:"phoneNumber"`
	LineID         string `json:"lineId"`
	Location       string `json:"location"`
	Education      string `json:"education"`
	MilitaryStatus string `json:"militaryStatus"`
	DrivingAbility string `json:"drivingAbility"`

	Log Log `json:"contactLogs"`
}

// CanMove reports whether the candidate may still be moved to another job.
// Moves are closed from Offering on.
func (c *Candidate) CanMove() bool {
	return c.Status.Index() < StageOffering.Index()
}

// CanDrop reports whether the candidate can be dropped.
func (c *Candidate) CanDrop() bool {
	return c.Status != StageDisqualified
}

// ActorName resolves who is recorded on a log entry: the TA on duty for the
// TA role, otherwise the job's hiring manager.
func ActorName(role Role, taName string, job *Job) string {
	if role == RoleTA {
		return taName
	}
	if job != nil && job.HiringManager != "" {
		return job.HiringManager
	}
	return hiringManagerTitle
}
