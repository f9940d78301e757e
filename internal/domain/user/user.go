package user

import (
	"strings"
	"time"

	"jobsite/internal/common"
)

type Role string

const (
	RoleRecruiter Role = "RECRUITER"
	RoleCandidate Role = "CANDIDATE"
)

// ParseRole accepts the enum token case-insensitively.
func ParseRole(value string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(value))) {
	case RoleRecruiter:
		return RoleRecruiter, true
	case RoleCandidate:
		return RoleCandidate, true
	default:
		return "", false
	}
}

func (r Role) Display() string {
	switch r {
	case RoleRecruiter:
		return "Recruiter"
	case RoleCandidate:
		return "Candidate"
	default:
		return string(r)
	}
}

type User struct {
	ID           int64       `json:"-"`
	UID          common.UUID `json:"uid"`
	Username     string      `json:"username"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	FirstName    string      `json:"first_name"`
	LastName     string      `json:"last_name"`
	Phone        string      `json:"phone"`
	Role         Role        `json:"role"`
	IsStaff      bool        `json:"is_staff"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
