package leave

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolconnect/core"
	"github.com/trezcool/schoolconnect/core/session"
)

type (
	Repository interface {
		CreateApplication(ctx context.Context, app Application) (Application, error)
		// QueryApplications returns applications newest first; an empty applicantID returns all of them.
		QueryApplications(ctx context.Context, applicantID string) ([]Application, error)
		GetApplication(ctx context.Context, id string) (Application, error)
		UpdateApplication(ctx context.Context, app Application) (Application, error)
	}

	Service struct {
		repo Repository
		now  func() time.Time
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Submit validates the form and records a new pending application for the applicant.
// No overlap or duplicate detection is done.
func (svc *Service) Submit(ctx context.Context, applicant session.User, na NewApplication) (Application, error) {
	start, end, err := na.Validate()
	if err != nil {
		return Application{}, err
	}

	id, err := uuid.NewUUID() // time-based
	if err != nil {
		return Application{}, errors.Wrap(err, "generating application id")
	}
	now := svc.now().UTC()
	app := Application{
		ID:          id.String(),
		ApplicantID: applicant.ID,
		LeaveType:   core.CleanString(na.LeaveType),
		StartDate:   start,
		EndDate:     end,
		Message:     core.CleanString(na.Message),
		Status:      StatusPending,
		AppliedDate: core.NewDate(now.Year(), now.Month(), now.Day()),
		CreatedAt:   now,
	}
	return svc.repo.CreateApplication(ctx, app)
}

// List returns the applicant's applications, most recent first. Staff see everyone's.
func (svc *Service) List(ctx context.Context, viewer session.User) ([]Application, error) {
	applicantID := viewer.ID
	if viewer.Role.IsStaff() {
		applicantID = ""
	}
	return svc.repo.QueryApplications(ctx, applicantID)
}

// Mine returns the viewer's own applications, most recent first.
func (svc *Service) Mine(ctx context.Context, viewer session.User) ([]Application, error) {
	return svc.repo.QueryApplications(ctx, viewer.ID)
}

// Review approves or rejects a pending application. Only staff can review.
func (svc *Service) Review(ctx context.Context, reviewer session.User, id string, rv Review) (Application, error) {
	if !reviewer.Role.IsStaff() {
		return Application{}, core.ErrForbidden
	}
	if rv.Decision != StatusApproved && rv.Decision != StatusRejected {
		return Application{}, core.NewValidationError(
			errors.New("invalid decision"), core.FieldError{Field: "decision", Error: "must be one of approved, rejected"})
	}

	app, err := svc.repo.GetApplication(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if app.Status != StatusPending {
		return Application{}, core.NewValidationError(ErrAlreadyClosed)
	}

	now := svc.now().UTC()
	app.Status = rv.Decision
	app.ReviewedBy = &reviewer.ID
	app.ReviewedAt = &now
	return svc.repo.UpdateApplication(ctx, app)
}
