package application

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"jobsite/internal/common"
)

type Status string

const (
	StatusPending     Status = "PENDING"
	StatusReviewed    Status = "REVIEWED"
	StatusShortlisted Status = "SHORTLISTED"
	StatusRejected    Status = "REJECTED"
	StatusAccepted    Status = "ACCEPTED"
)

var Statuses = []Status{StatusPending, StatusReviewed, StatusShortlisted, StatusRejected, StatusAccepted}

// ParseStatus accepts only the exact enum tokens.
func ParseStatus(value string) (Status, bool) {
	for _, status := range Statuses {
		if string(status) == value {
			return status, true
		}
	}
	return "", false
}

func StatusTokens() string {
	tokens := make([]string, len(Statuses))
	for i, status := range Statuses {
		tokens[i] = string(status)
	}
	return strings.Join(tokens, ", ")
}

func (s Status) Display() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusReviewed:
		return "Reviewed"
	case StatusShortlisted:
		return "Shortlisted"
	case StatusRejected:
		return "Rejected"
	case StatusAccepted:
		return "Accepted"
	default:
		return string(s)
	}
}

type Application struct {
	ID             int64
	UID            common.UUID
	JobID          int64
	JobUID         string
	JobTitle       string
	JobRecruiterID int64
	CandidateID    int64
	CandidateUID   common.UUID
	CandidateName  string
	Status         Status
	CoverLetter    string
	Resume         string
	ExpectedSalary *decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// VisibleTo mirrors the list scope: candidates see their own rows, recruiters
// see rows against jobs they own.
func (a Application) VisibleTo(userID int64, recruiter bool) bool {
	if recruiter {
		return a.JobRecruiterID == userID
	}
	return a.CandidateID == userID
}

// ErrDuplicate is returned when the candidate already applied to the job.
func ErrDuplicate() *common.Error {
	return common.NewValidationError("duplicate application", map[string]string{"job": "You have already applied to this job."})
}
