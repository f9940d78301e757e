package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"jobsite/internal/common"
	"jobsite/internal/domain/application"
	"jobsite/internal/domain/job"
)

const uidAttempts = 5

type JobRepository struct {
	db *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

const jobSelect = `SELECT j.id, j.uid, j.recruiter_id, u.uid,
	COALESCE(NULLIF(TRIM(u.first_name || ' ' || u.last_name), ''), u.username),
	j.title, j.description, j.job_type, j.location, j.salary_min, j.salary_max, j.deadline,
	j.requirements, j.responsibilities, j.status, j.company_name, j.company_description,
	j.experience_required, j.skills_required, j.benefits, j.is_featured, j.views_count,
	j.applications_count, j.created_at, j.updated_at
	FROM jobs j
	JOIN users u ON u.id = j.recruiter_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*job.Job, error) {
	var (
		j         job.Job
		salaryMin decimal.NullDecimal
		salaryMax decimal.NullDecimal
	)
	err := row.Scan(&j.ID, &j.UID, &j.RecruiterID, &j.RecruiterUID, &j.RecruiterName,
		&j.Title, &j.Description, &j.JobType, &j.Location, &salaryMin, &salaryMax, &j.Deadline,
		&j.Requirements, &j.Responsibilities, &j.Status, &j.CompanyName, &j.CompanyDescription,
		&j.ExperienceRequired, pq.Array(&j.SkillsRequired), &j.Benefits, &j.IsFeatured, &j.ViewsCount,
		&j.ApplicationsCount, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	j.SalaryMin = decimalPtr(salaryMin)
	j.SalaryMax = decimalPtr(salaryMax)
	return &j, nil
}

// Create inserts the job under a fresh uid, retrying on uid collisions.
func (r *JobRepository) Create(ctx context.Context, j job.Job) (*job.Job, error) {
	now := time.Now().UTC()
	q := conn(ctx, r.db)
	for attempt := 0; attempt < uidAttempts; attempt++ {
		j.UID = job.NewUID()
		var id int64
		err := q.QueryRowContext(ctx, `INSERT INTO jobs (uid, recruiter_id, title, description, job_type, location, salary_min, salary_max, deadline,
			requirements, responsibilities, status, company_name, company_description, experience_required, skills_required, benefits,
			is_featured, views_count, applications_count, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, 0, 0, $19, $19)
			RETURNING id`,
			j.UID, j.RecruiterID, j.Title, j.Description, j.JobType, j.Location, nullDecimal(j.SalaryMin), nullDecimal(j.SalaryMax), j.Deadline.UTC(),
			j.Requirements, j.Responsibilities, j.Status, j.CompanyName, j.CompanyDescription, j.ExperienceRequired, pq.Array(j.SkillsRequired), j.Benefits,
			j.IsFeatured, now,
		).Scan(&id)
		if err == nil {
			return r.getByID(ctx, id)
		}
		if constraint, ok := uniqueViolation(err); ok && constraint == "jobs_uid_key" {
			continue
		}
		return nil, common.NewError(common.CodeInternal, "failed to create job", err)
	}
	return nil, common.NewError(common.CodeInternal, "failed to allocate job uid", nil)
}

// Update writes the editable attributes only.
func (r *JobRepository) Update(ctx context.Context, j job.Job) (*job.Job, error) {
	result, err := conn(ctx, r.db).ExecContext(ctx, `UPDATE jobs SET title = $1, description = $2, job_type = $3, location = $4, salary_min = $5,
		salary_max = $6, deadline = $7, requirements = $8, responsibilities = $9, company_name = $10, company_description = $11,
		experience_required = $12, skills_required = $13, benefits = $14, is_featured = $15, updated_at = $16
		WHERE id = $17`,
		j.Title, j.Description, j.JobType, j.Location, nullDecimal(j.SalaryMin), nullDecimal(j.SalaryMax), j.Deadline.UTC(),
		j.Requirements, j.Responsibilities, j.CompanyName, j.CompanyDescription, j.ExperienceRequired, pq.Array(j.SkillsRequired),
		j.Benefits, j.IsFeatured, time.Now().UTC(), j.ID)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to update job", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return nil, common.NewError(common.CodeNotFound, "job not found", sql.ErrNoRows)
	}
	return r.getByID(ctx, j.ID)
}

func (r *JobRepository) GetByUID(ctx context.Context, uid string) (*job.Job, error) {
	item, err := scanJob(conn(ctx, r.db).QueryRowContext(ctx, jobSelect+` WHERE j.uid = $1`, uid))
	return item, translateJobErr(err)
}

// GetByUIDForUpdate locks the job row until the surrounding transaction ends.
// Applies to one job run one after another, so each recount sees every earlier
// commit.
func (r *JobRepository) GetByUIDForUpdate(ctx context.Context, uid string) (*job.Job, error) {
	item, err := scanJob(conn(ctx, r.db).QueryRowContext(ctx, jobSelect+` WHERE j.uid = $1 FOR UPDATE OF j`, uid))
	return item, translateJobErr(err)
}

func (r *JobRepository) getByID(ctx context.Context, id int64) (*job.Job, error) {
	item, err := scanJob(conn(ctx, r.db).QueryRowContext(ctx, jobSelect+` WHERE j.id = $1`, id))
	return item, translateJobErr(err)
}

func translateJobErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return common.NewError(common.CodeNotFound, "job not found", err)
	}
	return common.NewError(common.CodeInternal, "failed to load job", err)
}

func (r *JobRepository) List(ctx context.Context, filter job.ListFilter) ([]job.Job, error) {
	var (
		where []string
		args  []any
	)
	if filter.PublishedOnly {
		args = append(args, job.StatusPublished)
		where = append(where, fmt.Sprintf("j.status = $%d", len(args)))
	}
	if filter.RecruiterID != 0 {
		args = append(args, filter.RecruiterID)
		where = append(where, fmt.Sprintf("j.recruiter_id = $%d", len(args)))
	}
	if len(filter.Skills) > 0 {
		args = append(args, pq.Array(filter.Skills))
		where = append(where, fmt.Sprintf("j.skills_required && $%d", len(args)))
	}
	query := jobSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY j.created_at DESC, j.id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to list jobs", err)
	}
	defer rows.Close()
	items := []job.Job{}
	for rows.Next() {
		item, err := scanJob(rows)
		if err != nil {
			return nil, common.NewError(common.CodeInternal, "failed to scan job", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to list jobs", err)
	}
	return items, nil
}

// Delete cascades to the job's applications.
func (r *JobRepository) Delete(ctx context.Context, id int64) error {
	result, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return common.NewError(common.CodeInternal, "failed to delete job", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return common.NewError(common.CodeNotFound, "job not found", sql.ErrNoRows)
	}
	return nil
}

func (r *JobRepository) SetStatus(ctx context.Context, id int64, status job.Status) (*job.Job, error) {
	result, err := conn(ctx, r.db).ExecContext(ctx, `UPDATE jobs SET status = $1, updated_at = $2 WHERE id = $3`, status, time.Now().UTC(), id)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to update job status", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return nil, common.NewError(common.CodeNotFound, "job not found", sql.ErrNoRows)
	}
	return r.getByID(ctx, id)
}

// RecountApplications recomputes the counter from the authoritative rows.
// Callers that insert applications hold the job row lock first.
func (r *JobRepository) RecountApplications(ctx context.Context, id int64) (int, error) {
	var count int
	err := conn(ctx, r.db).QueryRowContext(ctx, `UPDATE jobs
		SET applications_count = (SELECT COUNT(*) FROM job_applications WHERE job_id = $1)
		WHERE id = $1
		RETURNING applications_count`, id).Scan(&count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.NewError(common.CodeNotFound, "job not found", err)
		}
		return 0, common.NewError(common.CodeInternal, "failed to recount applications", err)
	}
	return count, nil
}

func (r *JobRepository) IncrementViews(ctx context.Context, id int64) error {
	if _, err := conn(ctx, r.db).ExecContext(ctx, `UPDATE jobs SET views_count = views_count + 1 WHERE id = $1`, id); err != nil {
		return common.NewError(common.CodeInternal, "failed to count job view", err)
	}
	return nil
}

func (r *JobRepository) RecruiterStats(ctx context.Context, recruiterID int64) (*job.RecruiterStats, error) {
	var stats job.RecruiterStats
	err := conn(ctx, r.db).QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM jobs WHERE recruiter_id = $1 AND status = $2),
		(SELECT COUNT(*) FROM jobs WHERE recruiter_id = $1 AND status = $3),
		COUNT(a.id),
		COUNT(a.id) FILTER (WHERE a.status = $4),
		COUNT(a.id) FILTER (WHERE a.status = $5)
		FROM job_applications a
		JOIN jobs j ON j.id = a.job_id
		WHERE j.recruiter_id = $1`,
		recruiterID, job.StatusPublished, job.StatusClosed, application.StatusAccepted, application.StatusRejected,
	).Scan(&stats.TotalPublishedJobs, &stats.TotalClosedJobs, &stats.TotalApplications, &stats.TotalCandidatesHired, &stats.TotalCandidatesRejected)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to compute recruiter stats", err)
	}
	return &stats, nil
}
