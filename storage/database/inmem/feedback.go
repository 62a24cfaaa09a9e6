package inmemdb

import (
	"context"

	"github.com/trezcool/schoolconnect/core/feedback"
)

type feedbackRepository struct {
	db *feedbackTable
}

func NewFeedbackRepository(db *DB) feedback.Repository {
	return &feedbackRepository{db: db.feedback}
}

func (repo *feedbackRepository) CreateFeedback(_ context.Context, fb feedback.Feedback) (feedback.Feedback, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.table = append(repo.db.table, &fb)
	return fb, nil
}

// QueryFeedback returns everything submitted so far, oldest first.
func QueryFeedback(db *DB) []feedback.Feedback {
	db.feedback.mutex.RLock()
	defer db.feedback.mutex.RUnlock()

	res := make([]feedback.Feedback, 0, len(db.feedback.table))
	for _, fb := range db.feedback.table {
		res = append(res, *fb)
	}
	return res
}
