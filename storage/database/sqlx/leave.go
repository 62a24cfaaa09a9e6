package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolconnect/core/leave"
)

const leaveColumns = `id, applicant_id, leave_type, start_date, end_date, message, status, applied_date,
	reviewed_by, reviewed_at, created_at`

type leaveRepository struct {
	db sqlx.ExtContext
}

func NewLeaveRepository(db sqlx.ExtContext) leave.Repository {
	return &leaveRepository{db: db}
}

func (repo *leaveRepository) CreateApplication(ctx context.Context, app leave.Application) (leave.Application, error) {
	q := `INSERT INTO leave_applications (` + leaveColumns + `)
	VALUES (:id, :applicant_id, :leave_type, :start_date, :end_date, :message, :status, :applied_date,
		:reviewed_by, :reviewed_at, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.db, q, app); err != nil {
		return leave.Application{}, errors.Wrap(err, "inserting leave application")
	}
	return app, nil
}

func (repo *leaveRepository) QueryApplications(ctx context.Context, applicantID string) ([]leave.Application, error) {
	q := `SELECT ` + leaveColumns + ` FROM leave_applications`
	var args []interface{}
	if applicantID != "" {
		q += ` WHERE applicant_id = $1`
		args = append(args, applicantID)
	}
	q += ` ORDER BY created_at DESC`

	apps := make([]leave.Application, 0)
	if err := sqlx.SelectContext(ctx, repo.db, &apps, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying leave applications")
	}
	return apps, nil
}

func (repo *leaveRepository) GetApplication(ctx context.Context, id string) (leave.Application, error) {
	var app leave.Application
	q := `SELECT ` + leaveColumns + ` FROM leave_applications WHERE id = $1`
	if err := sqlx.GetContext(ctx, repo.db, &app, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return leave.Application{}, leave.ErrNotFound
		}
		return leave.Application{}, errors.Wrap(err, "getting leave application")
	}
	return app, nil
}

func (repo *leaveRepository) UpdateApplication(ctx context.Context, app leave.Application) (leave.Application, error) {
	q := `UPDATE leave_applications SET status = :status, reviewed_by = :reviewed_by, reviewed_at = :reviewed_at
	WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.db, q, app)
	if err != nil {
		return leave.Application{}, errors.Wrap(err, "updating leave application")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return leave.Application{}, leave.ErrNotFound
	}
	return app, nil
}
