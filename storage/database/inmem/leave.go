package inmemdb

import (
	"context"

	"github.com/trezcool/schoolconnect/core/leave"
)

type leaveRepository struct {
	db *leaveTable
}

func NewLeaveRepository(db *DB) leave.Repository {
	return &leaveRepository{db: db.leave}
}

// CreateApplication prepends app so the table stays newest first.
func (repo *leaveRepository) CreateApplication(_ context.Context, app leave.Application) (leave.Application, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.table = append([]*leave.Application{&app}, repo.db.table...)
	return app, nil
}

func (repo *leaveRepository) QueryApplications(_ context.Context, applicantID string) ([]leave.Application, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	apps := make([]leave.Application, 0, len(repo.db.table))
	for _, app := range repo.db.table {
		if applicantID == "" || app.ApplicantID == applicantID {
			apps = append(apps, *app)
		}
	}
	return apps, nil
}

func (repo *leaveRepository) GetApplication(_ context.Context, id string) (leave.Application, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, app := range repo.db.table {
		if app.ID == id {
			return *app, nil
		}
	}
	return leave.Application{}, leave.ErrNotFound
}

func (repo *leaveRepository) UpdateApplication(_ context.Context, app leave.Application) (leave.Application, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for i, orig := range repo.db.table {
		if orig.ID == app.ID {
			// only the review can change
			orig.Status = app.Status
			orig.ReviewedBy = app.ReviewedBy
			orig.ReviewedAt = app.ReviewedAt
			repo.db.table[i] = orig
			return *orig, nil
		}
	}
	return leave.Application{}, leave.ErrNotFound
}
