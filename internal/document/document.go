// Package document renders the candidate hand-off summary and the
// employment contract from a candidate's replayed stage drafts.
package document

import (
	"embed"
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/smarthow-source/ATS-design-concept/internal/pipeline"
)

//go:embed templates/*.tmpl
var templateFiles embed.FS

var templates = template.Must(template.ParseFS(templateFiles, "templates/*.tmpl"))

const (
	notAvailable = "N/A"
	employer     = "Nexus ATS Corp."
)

// HandOff is the summary passed to the hiring manager after a stage.
type HandOff struct {
	CandidateName         string `json:"candidateName"`
	PositionAppliedFor    string `json:"positionAppliedFor"`
	ExpectedBand          string `json:"expectedBand"`
	Resume                string `json:"resume"`
	RecruiterTAName       string `json:"recruiterTaName"`
	Age                   int    `json:"age"`
	EducationalBackground string `json:"educationalBackground"`
	UniversityGraduated   string `json:"universityGraduated"`
	JobStabilityScore     string `json:"jobStabilityScore"`

	OnlineTestScoreEnglish string `json:"onlineTestScoreEnglish"`
	OnlineTestScoreIQ      string `json:"onlineTestScoreIq"`
	OnlineTestResult       string `json:"onlineTestResult"`
	CognitiveTestSet       string `json:"cognitiveTestSet"`
	CognitiveTestScore     string `json:"cognitiveTestScore"`
	CognitiveTestResult    string `json:"cognitiveTestResult"`

	CEOInterviewTrigger string `json:"ceoInterviewTrigger"`

	CurrentStage            pipeline.Stage `json:"currentStage"`
	HiringManager           string         `json:"hiringManager"`
	HMInterviewDate         string         `json:"hmInterviewDate"`
	Management              string         `json:"management"`
	ManagementInterviewDate string         `json:"managementInterviewDate"`
}

// NewHandOff builds the hand-off summary. job may be nil.
func NewHandOff(c *pipeline.Candidate, job *pipeline.Job, d pipeline.Drafts) HandOff {
	h := HandOff{
		CandidateName:         c.Name,
		PositionAppliedFor:    c.Role,
		ExpectedBand:          notAvailable,
		Resume:                "N/A - Link Placeholder",
		RecruiterTAName:       c.AssignedTA,
		Age:                   c.Age,
		EducationalBackground: c.Education,
		UniversityGraduated:   orNA(d.Prescreen.University, c.Education),
		JobStabilityScore:     "N/A - Placeholder",

		OnlineTestScoreEnglish: orNA(d.OnlineTest.EnglishScore),
		OnlineTestScoreIQ:      orNA(d.OnlineTest.IQScore),
		OnlineTestResult:       orNA(d.OnlineTest.TestResult),
		CognitiveTestSet:       "Standard Cognitive Assessment",
		CognitiveTestScore:     notAvailable,
		CognitiveTestResult:    orNA(d.CognitiveTest.TestResult),

		CEOInterviewTrigger: "No",

		CurrentStage:            c.Status,
		HiringManager:           c.HiringManager,
		HMInterviewDate:         orNA(d.HMInterview.Date),
		ManagementInterviewDate: orNA(d.ManagementInterview.Date),
	}
	if job != nil {
		h.PositionAppliedFor = job.Title
		h.HiringManager = job.HiringManager
		h.Management = job.Management
	}
	if d.Prescreen.ExpectedSalary != "" {
		h.ExpectedBand = "$" + d.Prescreen.ExpectedSalary
	}
	if d.CognitiveTest.TestScore != "" {
		h.CognitiveTestScore = d.CognitiveTest.TestScore + " / 100"
	}
	if d.ManagementInterview.CEOTrigger {
		h.CEOInterviewTrigger = "Yes"
	}
	return h
}

// PlainText renders the copy-to-clipboard form.
func (h HandOff) PlainText() (string, error) {
	return render("handoff.txt.tmpl", h)
}

// Markdown renders the hand-off as a Markdown document.
func (h HandOff) Markdown() (string, error) {
	return render("handoff.md.tmpl", h)
}

// Contract holds the fields of the employment contract.
type Contract struct {
	EffectiveDate    string `json:"effectiveDate"`
	Employer         string `json:"employer"`
	EmployeeName     string `json:"employeeName"`
	EmployeeLocation string `json:"employeeLocation"`
	JobTitle         string `json:"jobTitle"`
	Department       string `json:"department"`
	StartDate        string `json:"startDate"`
	Salary           string `json:"salary"`
	SignatoryName    string `json:"signatoryName"`
	SignatoryTitle   string `json:"signatoryTitle"`
}

// NewContract builds the contract from the offering draft. The salary falls
// back to the prescreen expected salary; a missing onboarding date
// renders as a placeholder.
func NewContract(c *pipeline.Candidate, job *pipeline.Job, d pipeline.Drafts, now time.Time) Contract {
	k := Contract{
		EffectiveDate:    longDate(now),
		Employer:         employer,
		EmployeeName:     c.Name,
		EmployeeLocation: c.Location,
		JobTitle:         c.Role,
		StartDate:        "[START DATE]",
		SignatoryName:    c.HiringManager,
		SignatoryTitle:   "Hiring Manager",
	}
	if job != nil {
		k.JobTitle = job.Title
		k.Department = job.Department
		k.SignatoryName = job.HiringManager
	}
	if t, err := time.Parse("2006-01-02", d.Offering.OnboardingDate); err == nil {
		k.StartDate = longDate(t)
	}
	salary := d.Offering.Salary
	if salary == "" {
		salary = d.Prescreen.ExpectedSalary
	}
	k.Salary = groupThousands(salary)
	return k
}

// Markdown renders the contract.
func (k Contract) Markdown() (string, error) {
	return render("contract.md.tmpl", k)
}

func render(name string, data any) (string, error) {
	var b strings.Builder
	if err := templates.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return strings.TrimSpace(b.String()) + "\n", nil
}

// orNA returns the first non-empty value, or "N/A".
func orNA(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return notAvailable
}

func longDate(t time.Time) string {
	return t.Format("January 2, 2006")
}

// groupThousands formats a salary like 95000 as 95,000. Unparsable input
// counts as zero.
func groupThousands(raw string) string {
	f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(raw), ",", ""), 64)
	if err != nil || f < 0 {
		f = 0
	}
	whole := strconv.FormatInt(int64(f), 10)
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
