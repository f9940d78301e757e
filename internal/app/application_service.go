package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"jobsite/internal/common"
	"jobsite/internal/domain/application"
	"jobsite/internal/domain/job"
	"jobsite/internal/domain/policy"
)

type ApplicationService struct {
	repo    application.Repository
	jobs    job.Repository
	tx      Transactor
	resumes ResumeStore
	logger  *slog.Logger
	clock   func() time.Time
}

func NewApplicationService(repo application.Repository, jobs job.Repository, tx Transactor, resumes ResumeStore, logger *slog.Logger) *ApplicationService {
	return &ApplicationService{repo: repo, jobs: jobs, tx: tx, resumes: resumes, logger: loggerOrDefault(logger), clock: time.Now}
}

type ApplyInput struct {
	JobUID         string
	CoverLetter    string
	ResumeName     string
	Resume         io.Reader
	ExpectedSalary *decimal.Decimal
}

// Apply files a PENDING application and recounts the job's applications in
// the same transaction.
func (s *ApplicationService) Apply(ctx context.Context, actor policy.Actor, in ApplyInput) (*application.Application, error) {
	if err := policy.RequireCandidate(actor); err != nil {
		return nil, err
	}
	fields := map[string]string{}
	if strings.TrimSpace(in.JobUID) == "" {
		fields["job"] = "This field is required."
	}
	if strings.TrimSpace(in.CoverLetter) == "" {
		fields["cover_letter"] = "This field is required."
	}
	if in.Resume == nil {
		fields["resume"] = "No file was submitted."
	}
	if in.ExpectedSalary != nil && in.ExpectedSalary.IsNegative() {
		fields["expected_salary"] = "Ensure this value is greater than or equal to 0."
	}
	if len(fields) > 0 {
		return nil, common.NewValidationError("invalid application", fields)
	}

	var (
		created *application.Application
		stored  string
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		target, err := s.jobs.GetByUIDForUpdate(ctx, strings.TrimSpace(in.JobUID))
		if err != nil {
			if common.Is(err, common.CodeNotFound) {
				return common.NewValidationError("unknown job", map[string]string{"job": "Invalid job - object does not exist."})
			}
			return err
		}
		if err := target.AcceptsApplications(s.clock()); err != nil {
			return err
		}
		exists, err := s.repo.Exists(ctx, target.ID, actor.UserID)
		if err != nil {
			return err
		}
		if exists {
			return application.ErrDuplicate()
		}
		stored, err = s.resumes.Save(ctx, in.ResumeName, in.Resume)
		if err != nil {
			return err
		}
		created, err = s.repo.Create(ctx, application.Application{
			JobID:          target.ID,
			CandidateID:    actor.UserID,
			Status:         application.StatusPending,
			CoverLetter:    in.CoverLetter,
			Resume:         stored,
			ExpectedSalary: in.ExpectedSalary,
		})
		if err != nil {
			return err
		}
		count, err := s.jobs.RecountApplications(ctx, target.ID)
		if err != nil {
			return err
		}
		s.logger.InfoContext(ctx, "application.created", "application_uid", created.UID, "job_uid", target.UID, "applications_count", count)
		return nil
	})
	if err != nil {
		if stored != "" {
			if cleanupErr := s.resumes.Delete(ctx, stored); cleanupErr != nil {
				s.logger.WarnContext(ctx, "resume cleanup failed", "resume", stored, "error", cleanupErr)
			}
		}
		return nil, err
	}
	return created, nil
}

// ChangeStatus sets any status on an application under a job the actor owns.
func (s *ApplicationService) ChangeStatus(ctx context.Context, actor policy.Actor, uid, status string) (*application.Application, error) {
	if err := policy.RequireRecruiter(actor); err != nil {
		return nil, err
	}
	token := strings.TrimSpace(status)
	if token == "" {
		return nil, common.NewValidationError("status is required", map[string]string{"status": "This field is required."})
	}
	current, err := s.repo.GetByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if err := policy.RequireOwner(actor, current.JobRecruiterID, "you can only change status of applications for your jobs"); err != nil {
		return nil, err
	}
	next, ok := application.ParseStatus(token)
	if !ok {
		return nil, common.NewValidationError("invalid status", map[string]string{"status": fmt.Sprintf("Invalid status. Must be one of: %s.", application.StatusTokens())})
	}
	updated, err := s.repo.UpdateStatus(ctx, current.ID, next)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "application.status_changed", "application_uid", updated.UID, "from", current.Status, "to", next)
	return updated, nil
}

// List returns the caller's own applications for candidates and applications
// to owned jobs for recruiters. Other actors get an empty list.
func (s *ApplicationService) List(ctx context.Context, actor policy.Actor) ([]application.Application, error) {
	if err := policy.RequireAuthenticated(actor); err != nil {
		return nil, err
	}
	switch {
	case policy.IsCandidate(actor):
		return s.repo.ListByCandidate(ctx, actor.UserID)
	case policy.IsRecruiter(actor):
		return s.repo.ListByRecruiter(ctx, actor.UserID)
	default:
		return []application.Application{}, nil
	}
}

func (s *ApplicationService) Get(ctx context.Context, actor policy.Actor, uid string) (*application.Application, error) {
	if err := policy.RequireAuthenticated(actor); err != nil {
		return nil, err
	}
	item, err := s.repo.GetByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if !visible(actor, *item) {
		return nil, common.NewError(common.CodeNotFound, "application not found", nil)
	}
	return item, nil
}

// OpenResume streams the stored resume of a visible application.
func (s *ApplicationService) OpenResume(ctx context.Context, actor policy.Actor, uid string) (io.ReadCloser, *application.Application, error) {
	item, err := s.Get(ctx, actor, uid)
	if err != nil {
		return nil, nil, err
	}
	if item.Resume == "" {
		return nil, nil, common.NewError(common.CodeNotFound, "resume not found", nil)
	}
	rc, err := s.resumes.Open(ctx, item.Resume)
	if err != nil {
		return nil, nil, err
	}
	return rc, item, nil
}

func visible(actor policy.Actor, item application.Application) bool {
	switch {
	case policy.IsCandidate(actor):
		return item.VisibleTo(actor.UserID, false)
	case policy.IsRecruiter(actor):
		return item.VisibleTo(actor.UserID, true)
	default:
		return false
	}
}
