package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"jobsite/internal/common"
	"jobsite/internal/domain/application"
)

const applicationUniqueConstraint = "job_applications_job_candidate_key"

type ApplicationRepository struct {
	db *sql.DB
}

func NewApplicationRepository(db *sql.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

const applicationSelect = `SELECT a.id, a.uid, a.job_id, j.uid, j.title, j.recruiter_id, a.candidate_id, u.uid,
	COALESCE(NULLIF(TRIM(u.first_name || ' ' || u.last_name), ''), u.username),
	a.status, a.cover_letter, a.resume, a.expected_salary, a.created_at, a.updated_at
	FROM job_applications a
	JOIN jobs j ON j.id = a.job_id
	JOIN users u ON u.id = a.candidate_id`

func scanApplication(row rowScanner) (*application.Application, error) {
	var (
		app    application.Application
		salary decimal.NullDecimal
	)
	err := row.Scan(&app.ID, &app.UID, &app.JobID, &app.JobUID, &app.JobTitle, &app.JobRecruiterID, &app.CandidateID, &app.CandidateUID,
		&app.CandidateName, &app.Status, &app.CoverLetter, &app.Resume, &salary, &app.CreatedAt, &app.UpdatedAt)
	if err != nil {
		return nil, err
	}
	app.ExpectedSalary = decimalPtr(salary)
	return &app, nil
}

// Create relies on the (job_id, candidate_id) unique constraint to reject
// concurrent duplicates.
func (r *ApplicationRepository) Create(ctx context.Context, app application.Application) (*application.Application, error) {
	app.UID = common.NewUUID()
	now := time.Now().UTC()
	var id int64
	err := conn(ctx, r.db).QueryRowContext(ctx, `INSERT INTO job_applications (uid, job_id, candidate_id, status, cover_letter, resume, expected_salary, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8) RETURNING id`,
		app.UID, app.JobID, app.CandidateID, app.Status, app.CoverLetter, app.Resume, nullDecimal(app.ExpectedSalary), now,
	).Scan(&id)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok && constraint == applicationUniqueConstraint {
			return nil, application.ErrDuplicate()
		}
		return nil, common.NewError(common.CodeInternal, "failed to create application", err)
	}
	return r.getByID(ctx, id)
}

func (r *ApplicationRepository) GetByUID(ctx context.Context, uid string) (*application.Application, error) {
	if _, err := common.ParseUUID(uid); err != nil {
		return nil, common.NewError(common.CodeNotFound, "application not found", err)
	}
	item, err := scanApplication(conn(ctx, r.db).QueryRowContext(ctx, applicationSelect+` WHERE a.uid = $1`, uid))
	return item, translateApplicationErr(err)
}

func (r *ApplicationRepository) getByID(ctx context.Context, id int64) (*application.Application, error) {
	item, err := scanApplication(conn(ctx, r.db).QueryRowContext(ctx, applicationSelect+` WHERE a.id = $1`, id))
	return item, translateApplicationErr(err)
}

func translateApplicationErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return common.NewError(common.CodeNotFound, "application not found", err)
	}
	return common.NewError(common.CodeInternal, "failed to load application", err)
}

func (r *ApplicationRepository) Exists(ctx context.Context, jobID, candidateID int64) (bool, error) {
	var exists bool
	err := conn(ctx, r.db).QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM job_applications WHERE job_id = $1 AND candidate_id = $2)`, jobID, candidateID).Scan(&exists)
	if err != nil {
		return false, common.NewError(common.CodeInternal, "failed to check application", err)
	}
	return exists, nil
}

func (r *ApplicationRepository) ListByCandidate(ctx context.Context, candidateID int64) ([]application.Application, error) {
	return r.list(ctx, applicationSelect+` WHERE a.candidate_id = $1 ORDER BY a.created_at DESC, a.id DESC`, candidateID)
}

func (r *ApplicationRepository) ListByRecruiter(ctx context.Context, recruiterID int64) ([]application.Application, error) {
	return r.list(ctx, applicationSelect+` WHERE j.recruiter_id = $1 ORDER BY a.created_at DESC, a.id DESC`, recruiterID)
}

func (r *ApplicationRepository) list(ctx context.Context, query string, arg any) ([]application.Application, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, arg)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to list applications", err)
	}
	defer rows.Close()
	items := []application.Application{}
	for rows.Next() {
		item, err := scanApplication(rows)
		if err != nil {
			return nil, common.NewError(common.CodeInternal, "failed to scan application", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to list applications", err)
	}
	return items, nil
}

func (r *ApplicationRepository) ListResumesByJob(ctx context.Context, jobID int64) ([]string, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, `SELECT resume FROM job_applications WHERE job_id = $1 AND resume <> ''`, jobID)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to list resumes", err)
	}
	defer rows.Close()
	var refs []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, common.NewError(common.CodeInternal, "failed to scan resume", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id int64, status application.Status) (*application.Application, error) {
	result, err := conn(ctx, r.db).ExecContext(ctx, `UPDATE job_applications SET status = $1, updated_at = $2 WHERE id = $3`, status, time.Now().UTC(), id)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to update application", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return nil, common.NewError(common.CodeNotFound, "application not found", sql.ErrNoRows)
	}
	return r.getByID(ctx, id)
}
