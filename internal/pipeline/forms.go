package pipeline

import "time"

const dateLayout = "2006-01-02"

// Result values shared by several stage forms.
const (
	ResultPending         = "Pending"
	ResultPass            = "Pass"
	ResultFail            = "Fail"
	ResultOnHold          = "On Hold"
	ResultCandidateReject = "Candidate Reject"
	ResultSigned          = "Signed"
	ResultDeclined        = "Declined"
	ResultCompleted       = "Completed"
	ResultMoved           = "Moved"
	ResultDropped         = "Dropped"
)

// PrescreenForm is filled in during the prescreen phone call.
type PrescreenForm struct {
	ContactResult      string `json:"contactResult"`
	PrescreenResult    string `json:"prescreenResult"`
	FailReason         string `json:"failReason"`
	RejectReason       string `json:"rejectReason"`
	CurrentSalary      string `json:"currentSalary"`
	ExpectedSalary     string `json:"expectedSalary"`
	Date               string `json:"date"`
	CurrentPosition    string `json:"currentPosition"`
	ReasonForChange    string `json:"reasonForChange"`
	GPA                string `json:"gpa"`
	University         string `json:"university"`
	Faculty            string `json:"faculty"`
	MasterUniversity   string `json:"masterUniversity"`
	MasterFaculty      string `json:"masterFaculty"`
	PhDUniversity      string `json:"phdUniversity"`
	PhDFaculty         string `json:"phdFaculty"`
	LocationConvenient string `json:"locationConvenience"`
	NoticePeriod       string `json:"noticePeriod"`
	OnlineTestLink     string `json:"onlineTestLink"`
	OnlineTestDueDate  string `json:"onlineTestDueDate"`

	GPACeoTrigger            bool `json:"gpaCeoTrigger"`
	UniversityCeoTrigger     bool `json:"universityCeoTrigger"`
	FacultyCeoTrigger        bool `json:"facultyCeoTrigger"`
	CurrentSalaryCeoTrigger  bool `json:"currentSalaryCeoTrigger"`
	ExpectedSalaryCeoTrigger bool `json:"expectedSalaryCeoTrigger"`

	Note string `json:"manualNote"`
}

// OnlineTestForm tracks the online assessment and interview scheduling.
type OnlineTestForm struct {
	TestResult            string `json:"testResult"`
	IQScore               string `json:"iqScore"`
	EnglishScore          string `json:"englishScore"`
	ContinueProcess       string `json:"continueProcess"`
	InterviewDate         string `json:"interviewDate"`
	InterviewTime         string `json:"interviewTime"`
	EmailStatus           string `json:"emailStatus"`
	EmailDate             string `json:"emailDate"`
	DueDate               string `json:"dueDate"`
	LastFollowUp          string `json:"lastFollowUp"`
	FollowUpContactResult string `json:"followUpContactResult"`
	NextDueDate           string `json:"nextDueDate"`
	InterviewType         string `json:"interviewType"`
	HMInterviewer         string `json:"hmInterviewer"`
	ManagementInterviewer string `json:"managementInterviewer"`

	Note string `json:"manualNote"`
}

// CognitiveTestForm holds the cognitive assessment score.
type CognitiveTestForm struct {
	TestScore           string `json:"testScore"`
	TestResult          string `json:"testResult"`
	TestScoreCeoTrigger bool   `json:"testScoreCeoTrigger"`

	Note string `json:"manualNote"`
}

// HMInterviewForm records the hiring-manager interview.
type HMInterviewForm struct {
	Result            string `json:"result"`
	Interviewer       string `json:"interviewer"`
	Date              string `json:"date"`
	Time              string `json:"time"`
	NeedsScheduling   bool   `json:"needsScheduling"`
	NextInterviewDate string `json:"nextInterviewDate"`
	NextInterviewTime string `json:"nextInterviewTime"`

	Note string `json:"manualNote"`
}

// ManagementInterviewForm records the management interview. CEOTrigger
// escalates the candidate to a CEO interview.
type ManagementInterviewForm struct {
	Result      string `json:"result"`
	Interviewer string `json:"interviewer"`
	CEOTrigger  bool   `json:"ceoTrigger"`
	Date        string `json:"date"`
	Time        string `json:"time"`

	Note string `json:"manualNote"`
}

// CEOInterviewForm records the CEO interview.
type CEOInterviewForm struct {
	Result      string `json:"result"`
	Interviewer string `json:"interviewer"`
	Date        string `json:"date"`
	Time        string `json:"time"`

	Note string `json:"manualNote"`
}

// OfferingForm tracks the offer until the candidate accepts or declines.
type OfferingForm struct {
	ApproveOfferStatus    string `json:"isApproveOfferStatus"`
	FollowUpDate          string `json:"followUpDate"`
	ContactStatus         string `json:"contactStatus"`
	OfferResult           string `json:"offerResult"`
	ContractSignDate      string `json:"contractSignDate"`
	ContractSignTime      string `json:"contractSignTime"`
	OnboardingDate        string `json:"onboardingDate"`
	Salary                string `json:"salary"`
	FollowUpContactResult string `json:"followUpContactResult"`
	NextFollowUpDate      string `json:"nextFollowUpDate"`

	Note string `json:"manualNote"`
}

// SignContractForm tracks the contract signature.
type SignContractForm struct {
	ContractStatus string `json:"contractStatus"`

	Note string `json:"manualNote"`
}

// OnboardingForm tracks onboarding completion.
type OnboardingForm struct {
	OnboardingStatus string `json:"onboardingStatus"`

	Note string `json:"manualNote"`
}

// Drafts is the full set of per-stage forms for one candidate.
type Drafts struct {
	Prescreen           PrescreenForm           `json:"prescreen"`
	OnlineTest          OnlineTestForm          `json:"onlineTest"`
	CognitiveTest       CognitiveTestForm       `json:"cognitiveTest"`
	HMInterview         HMInterviewForm         `json:"hmInterview"`
	ManagementInterview ManagementInterviewForm `json:"managementInterview"`
	CEOInterview        CEOInterviewForm        `json:"ceoInterview"`
	Offering            OfferingForm            `json:"offering"`
	SignContract        SignContractForm        `json:"signContract"`
	Onboarding          OnboardingForm          `json:"onboarding"`
}

// DefaultDrafts returns the pending defaults for every stage. Interviewers
// come from the job; online-test email and due dates are derived from the
// application timestamp.
func DefaultDrafts(job *Job, c *Candidate, now time.Time) Drafts {
	var hm, mgmt string
	if job != nil {
		hm, mgmt = job.HiringManager, job.Management
	}
	var applied time.Time
	if c != nil {
		applied = c.ApplicationTimestamp
	}

	return Drafts{
		Prescreen: PrescreenForm{
			ContactResult:      "Contactable",
			PrescreenResult:    ResultPending,
			LocationConvenient: ResultPending,
			Date:               now.Format(dateLayout),
		},
		OnlineTest: OnlineTestForm{
			TestResult:            ResultPending,
			ContinueProcess:       "Yes",
			InterviewTime:         "09:00",
			EmailStatus:           "Sent",
			EmailDate:             applied.AddDate(0, 0, 1).Format(dateLayout),
			DueDate:               applied.AddDate(0, 0, 7).Format(dateLayout),
			FollowUpContactResult: "No Answer",
			InterviewType:         "Offline",
			HMInterviewer:         hm,
			ManagementInterviewer: mgmt,
		},
		CognitiveTest: CognitiveTestForm{},
		HMInterview: HMInterviewForm{
			Result:            ResultPending,
			Interviewer:       hm,
			Time:              "10:00",
			NextInterviewTime: "10:00",
		},
		ManagementInterview: ManagementInterviewForm{
			Result:      ResultPending,
			Interviewer: mgmt,
			Time:        "10:00",
		},
		CEOInterview: CEOInterviewForm{
			Result:      ResultPending,
			Interviewer: "CEO",
			Time:        "10:00",
		},
		Offering: OfferingForm{
			ApproveOfferStatus:    "Approved",
			FollowUpDate:          now.AddDate(0, 0, 3).Format(dateLayout),
			ContactStatus:         "Contactable",
			OfferResult:           ResultPending,
			ContractSignTime:      "10:00",
			FollowUpContactResult: "No Answer",
		},
		SignContract: SignContractForm{ContractStatus: "Pending Signature"},
		Onboarding:   OnboardingForm{OnboardingStatus: "Not Started"},
	}
}

// form returns a pointer to the draft for stage s, or nil for skip-markers.
func (d *Drafts) form(s Stage) any {
	switch s {
	case StagePrescreen:
		return &d.Prescreen
	case StageOnlineTest:
		return &d.OnlineTest
	case StageCognitiveTest:
		return &d.CognitiveTest
	case StageHMInterview:
		return &d.HMInterview
	case StageManagementInterview:
		return &d.ManagementInterview
	case StageCEOInterview:
		return &d.CEOInterview
	case StageOffering:
		return &d.Offering
	case StageSignContract:
		return &d.SignContract
	case StageOnboarding:
		return &d.Onboarding
	}
	return nil
}
