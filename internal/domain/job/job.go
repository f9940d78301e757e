package job

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"jobsite/internal/common"
)

type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPublished Status = "PUBLISHED"
	StatusClosed    Status = "CLOSED"
	StatusArchived  Status = "ARCHIVED"
)

func (s Status) Display() string {
	switch s {
	case StatusDraft:
		return "Draft"
	case StatusPublished:
		return "Published"
	case StatusClosed:
		return "Closed"
	case StatusArchived:
		return "Archived"
	default:
		return string(s)
	}
}

type Type string

const (
	TypeFullTime   Type = "FULL_TIME"
	TypePartTime   Type = "PART_TIME"
	TypeContract   Type = "CONTRACT"
	TypeInternship Type = "INTERNSHIP"
	TypeRemote     Type = "REMOTE"
)

func (t Type) Display() string {
	switch t {
	case TypeFullTime:
		return "Full Time"
	case TypePartTime:
		return "Part Time"
	case TypeContract:
		return "Contract"
	case TypeInternship:
		return "Internship"
	case TypeRemote:
		return "Remote"
	default:
		return string(t)
	}
}

type Job struct {
	ID                 int64            `json:"-"`
	UID                string           `json:"uid"`
	RecruiterID        int64            `json:"-"`
	RecruiterUID       common.UUID      `json:"recruiter"`
	RecruiterName      string           `json:"recruiter_name"`
	Title              string           `json:"title" validate:"required,max=255"`
	Description        string           `json:"description" validate:"required"`
	JobType            Type             `json:"job_type" validate:"required,oneof=FULL_TIME PART_TIME CONTRACT INTERNSHIP REMOTE"`
	Location           string           `json:"location" validate:"required,max=255"`
	SalaryMin          *decimal.Decimal `json:"salary_min"`
	SalaryMax          *decimal.Decimal `json:"salary_max"`
	Deadline           time.Time        `json:"deadline" validate:"required"`
	Requirements       string           `json:"requirements" validate:"required"`
	Responsibilities   string           `json:"responsibilities" validate:"required"`
	Status             Status           `json:"status"`
	CompanyName        string           `json:"company_name" validate:"required,max=255"`
	CompanyDescription string           `json:"company_description"`
	ExperienceRequired int              `json:"experience_required" validate:"gte=0"`
	SkillsRequired     []string         `json:"skills_required" validate:"required,min=1,dive,required"`
	Benefits           string           `json:"benefits"`
	IsFeatured         bool             `json:"is_featured"`
	ViewsCount         int              `json:"views_count"`
	ApplicationsCount  int              `json:"applications_count"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

func (j Job) OwnedBy(userID int64) bool {
	return userID != 0 && j.RecruiterID == userID
}

// AcceptsApplications reports whether new applications may be filed at now.
func (j Job) AcceptsApplications(now time.Time) error {
	if j.Status != StatusPublished {
		return common.NewValidationError("job not open", map[string]string{"job": "Cannot apply to unpublished job."})
	}
	if j.Deadline.Before(now) {
		return common.NewValidationError("deadline passed", map[string]string{"job": "Job application deadline has passed."})
	}
	return nil
}

// Validate checks the editable attributes, including the salary range.
func Validate(j Job) error {
	fields := common.FieldErrors(j)
	if fields == nil {
		fields = map[string]string{}
	}
	if j.SalaryMin != nil && j.SalaryMin.IsNegative() {
		fields["salary_min"] = "Ensure this value is greater than or equal to 0."
	}
	if j.SalaryMax != nil && j.SalaryMax.IsNegative() {
		fields["salary_max"] = "Ensure this value is greater than or equal to 0."
	}
	if j.SalaryMin != nil && j.SalaryMax != nil && j.SalaryMin.GreaterThan(*j.SalaryMax) {
		fields["salary_min"] = "Minimum salary cannot be greater than maximum salary"
	}
	if len(fields) > 0 {
		return common.NewValidationError("invalid job", fields)
	}
	return nil
}

// NewUID returns a public job identifier such as JOB-1A2B3C4D.
func NewUID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("JOB-%s", strings.ToUpper(raw[:8]))
}

// OptionalDecimal distinguishes an absent field from an explicit null.
type OptionalDecimal struct {
	Set   bool
	Value *decimal.Decimal
}

func (o *OptionalDecimal) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	o.Value = &d
	return nil
}

// Patch carries a partial update; nil pointers leave the field unchanged.
type Patch struct {
	Title              *string         `json:"title"`
	Description        *string         `json:"description"`
	JobType            *Type           `json:"job_type"`
	Location           *string         `json:"location"`
	SalaryMin          OptionalDecimal `json:"salary_min"`
	SalaryMax          OptionalDecimal `json:"salary_max"`
	Deadline           *time.Time      `json:"deadline"`
	Requirements       *string         `json:"requirements"`
	Responsibilities   *string         `json:"responsibilities"`
	CompanyName        *string         `json:"company_name"`
	CompanyDescription *string         `json:"company_description"`
	ExperienceRequired *int            `json:"experience_required"`
	SkillsRequired     *[]string       `json:"skills_required"`
	Benefits           *string         `json:"benefits"`
	IsFeatured         *bool           `json:"is_featured"`
}

// Apply returns a copy of j with the patch applied. Status, ownership and
// derived counters are never touched.
func (p Patch) Apply(j Job) Job {
	if p.Title != nil {
		j.Title = *p.Title
	}
	if p.Description != nil {
		j.Description = *p.Description
	}
	if p.JobType != nil {
		j.JobType = *p.JobType
	}
	if p.Location != nil {
		j.Location = *p.Location
	}
	if p.SalaryMin.Set {
		j.SalaryMin = p.SalaryMin.Value
	}
	if p.SalaryMax.Set {
		j.SalaryMax = p.SalaryMax.Value
	}
	if p.Deadline != nil {
		j.Deadline = *p.Deadline
	}
	if p.Requirements != nil {
		j.Requirements = *p.Requirements
	}
	if p.Responsibilities != nil {
		j.Responsibilities = *p.Responsibilities
	}
	if p.CompanyName != nil {
		j.CompanyName = *p.CompanyName
	}
	if p.CompanyDescription != nil {
		j.CompanyDescription = *p.CompanyDescription
	}
	if p.ExperienceRequired != nil {
		j.ExperienceRequired = *p.ExperienceRequired
	}
	if p.SkillsRequired != nil {
		j.SkillsRequired = append([]string(nil), (*p.SkillsRequired)...)
	}
	if p.Benefits != nil {
		j.Benefits = *p.Benefits
	}
	if p.IsFeatured != nil {
		j.IsFeatured = *p.IsFeatured
	}
	return j
}

// RecruiterStats is the dashboard aggregate scoped to one recruiter's jobs.
type RecruiterStats struct {
	TotalPublishedJobs      int `json:"total_published_jobs"`
	TotalClosedJobs         int `json:"total_closed_jobs"`
	TotalApplications       int `json:"total_applications"`
	TotalCandidatesHired    int `json:"total_candidates_hired"`
	TotalCandidatesRejected int `json:"total_candidates_rejected"`
}
