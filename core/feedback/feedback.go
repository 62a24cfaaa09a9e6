package feedback

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolconnect/core"
	"github.com/trezcool/schoolconnect/core/session"
)

type Category string

const (
	CategoryGeneral    Category = "general"
	CategorySuggestion Category = "suggestion"
	CategoryCompliment Category = "compliment"
	CategoryIssue      Category = "issue"
)

const MaxBodyLength = 500

var (
	ErrEmpty = errors.New("Please enter your feedback before submitting.")

	// ThankYou is shown once the feedback is recorded.
	ThankYou = "Your feedback has been submitted successfully. We appreciate your input and will review it carefully."
)

type (
	Feedback struct {
		ID          string    `json:"id" db:"id"`
		SubmitterID string    `json:"submitterId" db:"submitter_id"`
		Category    Category  `json:"category" db:"category"`
		Rating      int       `json:"rating" db:"rating"`
		Body        string    `json:"body" db:"body"`
		CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	}

	NewFeedback struct {
		Category Category `json:"category" validate:"omitempty,oneof=general suggestion compliment issue"`
		// Rating is the number of stars, 0 meaning unrated.
		Rating int    `json:"rating" validate:"min=0,max=5"`
		Body   string `json:"body"`
	}

	Repository interface {
		CreateFeedback(ctx context.Context, fb Feedback) (Feedback, error)
	}

	Service struct {
		repo  Repository
		delay time.Duration
	}
)

func NewService(repo Repository, delay time.Duration) *Service {
	return &Service{repo: repo, delay: delay}
}

// Submit records the feedback after the configured delay. Only the text is required.
func (svc *Service) Submit(ctx context.Context, submitter session.User, nf NewFeedback) (Feedback, error) {
	if core.IsBlank(nf.Body) {
		return Feedback{}, core.NewValidationError(ErrEmpty)
	}
	if err := core.CheckTextLimits(core.TextLimit{Field: "body", Value: nf.Body, Max: MaxBodyLength}); err != nil {
		return Feedback{}, err
	}
	if nf.Rating < 0 || nf.Rating > 5 {
		return Feedback{}, core.NewValidationError(
			errors.New("invalid rating"), core.FieldError{Field: "rating", Error: "rating must be between 0 and 5"})
	}
	if nf.Category == "" {
		nf.Category = CategoryGeneral
	}

	if err := core.Sleep(ctx, svc.delay); err != nil {
		return Feedback{}, errors.Wrap(err, "waiting to submit")
	}

	return svc.repo.CreateFeedback(ctx, Feedback{
		ID:          uuid.NewString(),
		SubmitterID: submitter.ID,
		Category:    nf.Category,
		Rating:      nf.Rating,
		Body:        core.CleanString(nf.Body),
		CreatedAt:   time.Now().UTC(),
	})
}
