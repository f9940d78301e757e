package application

import "context"

type Repository interface {
	// Create fails with a validation error when the (job, candidate) pair
	// already exists.
	Create(ctx context.Context, app Application) (*Application, error)
	GetByUID(ctx context.Context, uid string) (*Application, error)
	Exists(ctx context.Context, jobID, candidateID int64) (bool, error)
	ListByCandidate(ctx context.Context, candidateID int64) ([]Application, error)
	ListByRecruiter(ctx context.Context, recruiterID int64) ([]Application, error)
	ListResumesByJob(ctx context.Context, jobID int64) ([]string, error)
	UpdateStatus(ctx context.Context, id int64, status Status) (*Application, error)
}
