package leave

import (
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/schoolconnect/core"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

// Types lists the leave types offered by the application form.
var Types = []string{
	"Sick Leave",
	"Personal Leave",
	"Family Emergency",
	"Medical Appointment",
	"Religious Holiday",
	"Other",
}

const MaxMessageLength = 500

var (
	ErrNotFound      = errors.Wrap(core.ErrNotFound, "leave application")
	ErrIncomplete    = errors.New("Please fill in all fields")
	ErrDateOrder     = errors.New("End date must be after start date")
	ErrAlreadyClosed = errors.New("leave application has already been reviewed")
)

type (
	// Application is a submitted leave request.
	Application struct {
		ID          string     `json:"id" db:"id"`
		ApplicantID string     `json:"applicantId" db:"applicant_id"`
		LeaveType   string     `json:"leaveType" db:"leave_type"`
		StartDate   core.Date  `json:"startDate" db:"start_date"`
		EndDate     core.Date  `json:"endDate" db:"end_date"`
		Message     string     `json:"message" db:"message"`
		Status      Status     `json:"status" db:"status"`
		AppliedDate core.Date  `json:"appliedDate" db:"applied_date"`
		ReviewedBy  *string    `json:"reviewedBy,omitempty" db:"reviewed_by"`
		ReviewedAt  *time.Time `json:"reviewedAt,omitempty" db:"reviewed_at"`
		CreatedAt   time.Time  `json:"-" db:"created_at"`
	}

	// NewApplication is the leave form as typed by the applicant.
	NewApplication struct {
		LeaveType string `json:"leaveType"`
		StartDate string `json:"startDate"`
		EndDate   string `json:"endDate"`
		Message   string `json:"message"`
	}

	// Review is a teacher or admin decision on a pending application.
	Review struct {
		Decision Status `json:"decision" validate:"required,oneof=approved rejected"`
	}
)

// Days returns the inclusive number of days covered by the application.
func (app Application) Days() int {
	return int(app.EndDate.Sub(app.StartDate.Time).Hours()/24) + 1
}

// Validate checks that every field is filled in and that the dates are in order.
// Equal start and end dates are a valid one-day leave.
func (na NewApplication) Validate() (start, end core.Date, err error) {
	var missing []core.FieldError
	for _, f := range []struct{ name, value string }{
		{"leaveType", na.LeaveType},
		{"startDate", na.StartDate},
		{"endDate", na.EndDate},
		{"message", na.Message},
	} {
		if core.IsBlank(f.value) {
			missing = append(missing, core.FieldError{Field: f.name, Error: "this field is required"})
		}
	}
	if missing != nil {
		return start, end, core.NewValidationError(ErrIncomplete, missing...)
	}
	if err = core.CheckTextLimits(core.TextLimit{Field: "message", Value: na.Message, Max: MaxMessageLength}); err != nil {
		return start, end, err
	}

	if start, err = core.ParseDate(na.StartDate); err != nil {
		return start, end, core.NewValidationError(
			ErrIncomplete, core.FieldError{Field: "startDate", Error: "must be a date formatted as YYYY-MM-DD"})
	}
	if end, err = core.ParseDate(na.EndDate); err != nil {
		return start, end, core.NewValidationError(
			ErrIncomplete, core.FieldError{Field: "endDate", Error: "must be a date formatted as YYYY-MM-DD"})
	}
	if start.After(end.Time) {
		return start, end, core.NewValidationError(ErrDateOrder, core.FieldError{Field: "endDate", Error: ErrDateOrder.Error()})
	}
	return start, end, nil
}
