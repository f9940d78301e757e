package job

import "context"

type ListFilter struct {
	PublishedOnly bool
	RecruiterID   int64
	Skills        []string
	Limit         int
	Offset        int
}

type Repository interface {
	Create(ctx context.Context, j Job) (*Job, error)
	Update(ctx context.Context, j Job) (*Job, error)
	GetByUID(ctx context.Context, uid string) (*Job, error)
	// GetByUIDForUpdate also locks the row for the rest of the transaction.
	GetByUIDForUpdate(ctx context.Context, uid string) (*Job, error)
	List(ctx context.Context, filter ListFilter) ([]Job, error)
	Delete(ctx context.Context, id int64) error
	SetStatus(ctx context.Context, id int64, status Status) (*Job, error)
	// RecountApplications stores and returns the number of application rows
	// referencing the job.
	RecountApplications(ctx context.Context, id int64) (int, error)
	IncrementViews(ctx context.Context, id int64) error
	RecruiterStats(ctx context.Context, recruiterID int64) (*RecruiterStats, error)
}
