package app

import (
	"context"
	"log/slog"

	"jobsite/internal/common"
	"jobsite/internal/domain/application"
	"jobsite/internal/domain/job"
	"jobsite/internal/domain/policy"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type JobService struct {
	jobs         job.Repository
	applications application.Repository
	resumes      ResumeStore
	logger       *slog.Logger
}

func NewJobService(jobs job.Repository, applications application.Repository, resumes ResumeStore, logger *slog.Logger) *JobService {
	return &JobService{jobs: jobs, applications: applications, resumes: resumes, logger: loggerOrDefault(logger)}
}

// ListQuery carries the optional list filters.
type ListQuery struct {
	Skills []string
	Mine   bool
	Limit  int
	Offset int
}

func (s *JobService) Create(ctx context.Context, actor policy.Actor, fields job.Job) (*job.Job, error) {
	if err := policy.RequireRecruiter(actor); err != nil {
		return nil, err
	}
	fields.ID = 0
	fields.UID = ""
	fields.RecruiterID = actor.UserID
	fields.Status = job.StatusDraft
	fields.ViewsCount = 0
	fields.ApplicationsCount = 0
	if err := job.Validate(fields); err != nil {
		return nil, err
	}
	created, err := s.jobs.Create(ctx, fields)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "job.created", "job_uid", created.UID, "recruiter_id", actor.UserID)
	return created, nil
}

// Get resolves uid within the actor's list scope and counts a view when the
// reader is not the owner.
func (s *JobService) Get(ctx context.Context, actor policy.Actor, uid string) (*job.Job, error) {
	if err := policy.RequireAuthenticated(actor); err != nil {
		return nil, err
	}
	item, err := s.jobs.GetByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if !policy.SeesAllJobs(actor) && item.Status != job.StatusPublished {
		return nil, common.NewError(common.CodeNotFound, "job not found", nil)
	}
	if !item.OwnedBy(actor.UserID) {
		if err := s.jobs.IncrementViews(ctx, item.ID); err != nil {
			return nil, err
		}
		item.ViewsCount++
	}
	return item, nil
}

func (s *JobService) List(ctx context.Context, actor policy.Actor, query ListQuery) ([]job.Job, error) {
	if err := policy.RequireAuthenticated(actor); err != nil {
		return nil, err
	}
	filter := job.ListFilter{
		PublishedOnly: !policy.SeesAllJobs(actor),
		Skills:        query.Skills,
		Limit:         query.Limit,
		Offset:        query.Offset,
	}
	if query.Mine {
		if err := policy.RequireRecruiter(actor); err != nil {
			return nil, err
		}
		filter.RecruiterID = actor.UserID
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.jobs.List(ctx, filter)
}

// Update applies a partial edit. Status, owner and counters are not editable.
func (s *JobService) Update(ctx context.Context, actor policy.Actor, uid string, patch job.Patch) (*job.Job, error) {
	current, err := s.owned(ctx, actor, uid, "you can only update your own jobs")
	if err != nil {
		return nil, err
	}
	return s.save(ctx, actor, patch.Apply(*current))
}

// Replace overwrites every editable field with the supplied values.
func (s *JobService) Replace(ctx context.Context, actor policy.Actor, uid string, fields job.Job) (*job.Job, error) {
	current, err := s.owned(ctx, actor, uid, "you can only update your own jobs")
	if err != nil {
		return nil, err
	}
	fields.ID = current.ID
	fields.UID = current.UID
	fields.RecruiterID = current.RecruiterID
	fields.RecruiterUID = current.RecruiterUID
	fields.RecruiterName = current.RecruiterName
	fields.Status = current.Status
	fields.ViewsCount = current.ViewsCount
	fields.ApplicationsCount = current.ApplicationsCount
	fields.CreatedAt = current.CreatedAt
	return s.save(ctx, actor, fields)
}

func (s *JobService) save(ctx context.Context, actor policy.Actor, next job.Job) (*job.Job, error) {
	if err := job.Validate(next); err != nil {
		return nil, err
	}
	updated, err := s.jobs.Update(ctx, next)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "job.updated", "job_uid", updated.UID, "recruiter_id", actor.UserID)
	return updated, nil
}

func (s *JobService) Publish(ctx context.Context, actor policy.Actor, uid string) (*job.Job, error) {
	return s.setStatus(ctx, actor, uid, job.StatusPublished)
}

func (s *JobService) Close(ctx context.Context, actor policy.Actor, uid string) (*job.Job, error) {
	return s.setStatus(ctx, actor, uid, job.StatusClosed)
}

func (s *JobService) Archive(ctx context.Context, actor policy.Actor, uid string) (*job.Job, error) {
	return s.setStatus(ctx, actor, uid, job.StatusArchived)
}

// setStatus moves a job to status from any current status.
func (s *JobService) setStatus(ctx context.Context, actor policy.Actor, uid string, status job.Status) (*job.Job, error) {
	current, err := s.owned(ctx, actor, uid, "you can only change the status of your own jobs")
	if err != nil {
		return nil, err
	}
	if current.Status == status {
		return current, nil
	}
	updated, err := s.jobs.SetStatus(ctx, current.ID, status)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "job.status_changed", "job_uid", updated.UID, "from", current.Status, "to", status)
	return updated, nil
}

// Delete removes the job and its applications, then drops their resume
// files. File cleanup failures are logged only.
func (s *JobService) Delete(ctx context.Context, actor policy.Actor, uid string) error {
	current, err := s.owned(ctx, actor, uid, "you can only delete your own jobs")
	if err != nil {
		return err
	}
	resumes, err := s.applications.ListResumesByJob(ctx, current.ID)
	if err != nil {
		return err
	}
	if err := s.jobs.Delete(ctx, current.ID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "job.deleted", "job_uid", current.UID, "applications", len(resumes))
	if s.resumes == nil {
		return nil
	}
	for _, ref := range resumes {
		if err := s.resumes.Delete(ctx, ref); err != nil {
			s.logger.WarnContext(ctx, "resume cleanup failed", "job_uid", current.UID, "resume", ref, "error", err)
		}
	}
	return nil
}

// owned resolves uid among all jobs for a recruiter and requires ownership.
func (s *JobService) owned(ctx context.Context, actor policy.Actor, uid, message string) (*job.Job, error) {
	if err := policy.RequireRecruiter(actor); err != nil {
		return nil, err
	}
	current, err := s.jobs.GetByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if err := policy.RequireOwner(actor, current.RecruiterID, message); err != nil {
		return nil, err
	}
	return current, nil
}
