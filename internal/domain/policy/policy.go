// Package policy holds the capability predicates every job and application
// operation is composed from. Role checks go through here and nowhere else.
package policy

import (
	"jobsite/internal/common"
	"jobsite/internal/domain/user"
)

// Actor is the identity a request runs as. The zero value is anonymous.
type Actor struct {
	UserID  int64
	UID     common.UUID
	Role    user.Role
	IsStaff bool
}

func ActorFor(account user.User) Actor {
	return Actor{UserID: account.ID, UID: account.UID, Role: account.Role, IsStaff: account.IsStaff}
}

func (a Actor) Authenticated() bool {
	return a.UserID != 0
}

func IsRecruiter(a Actor) bool {
	return a.Authenticated() && a.Role == user.RoleRecruiter
}

func IsCandidate(a Actor) bool {
	return a.Authenticated() && a.Role == user.RoleCandidate
}

// IsOwnerOrRecruiter is the object-level check: recruiters always pass,
// anyone else only when they own the object.
func IsOwnerOrRecruiter(a Actor, ownerID int64) bool {
	if IsRecruiter(a) {
		return true
	}
	return a.Authenticated() && ownerID == a.UserID
}

// SeesAllJobs reports whether job listings skip the PUBLISHED filter.
func SeesAllJobs(a Actor) bool {
	return a.Authenticated() && (a.IsStaff || a.Role == user.RoleRecruiter)
}

func RequireAuthenticated(a Actor) error {
	if !a.Authenticated() {
		return common.ErrAuthenticationRequired()
	}
	return nil
}

func RequireRecruiter(a Actor) error {
	if err := RequireAuthenticated(a); err != nil {
		return err
	}
	if !IsRecruiter(a) {
		return common.ErrPermissionDenied("recruiter role required")
	}
	return nil
}

func RequireCandidate(a Actor) error {
	if err := RequireAuthenticated(a); err != nil {
		return err
	}
	if !IsCandidate(a) {
		return common.ErrPermissionDenied("candidate role required")
	}
	return nil
}

// RequireOwner checks recruiter role first, then ownership.
func RequireOwner(a Actor, ownerID int64, message string) error {
	if err := RequireRecruiter(a); err != nil {
		return err
	}
	if ownerID != a.UserID {
		return common.ErrPermissionDenied(message)
	}
	return nil
}
