package app

import (
	"context"

	"jobsite/internal/domain/job"
	"jobsite/internal/domain/policy"
)

type DashboardService struct {
	jobs job.Repository
}

func NewDashboardService(jobs job.Repository) *DashboardService {
	return &DashboardService{jobs: jobs}
}

// Stats is recomputed on every call.
func (s *DashboardService) Stats(ctx context.Context, actor policy.Actor) (*job.RecruiterStats, error) {
	if err := policy.RequireRecruiter(actor); err != nil {
		return nil, err
	}
	return s.jobs.RecruiterStats(ctx, actor.UserID)
}
