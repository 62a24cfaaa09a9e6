package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolconnect/core/feedback"
)

type feedbackRepository struct {
	db sqlx.ExtContext
}

func NewFeedbackRepository(db sqlx.ExtContext) feedback.Repository {
	return &feedbackRepository{db: db}
}

func (repo *feedbackRepository) CreateFeedback(ctx context.Context, fb feedback.Feedback) (feedback.Feedback, error) {
	q := `INSERT INTO feedback (id, submitter_id, category, rating, body, created_at)
	VALUES (:id, :submitter_id, :category, :rating, :body, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.db, q, fb); err != nil {
		return feedback.Feedback{}, errors.Wrap(err, "inserting feedback")
	}
	return fb, nil
}
