package school

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/trezcool/schoolconnect/core"
	"github.com/trezcool/schoolconnect/core/session"
)

var (
	ErrStudentNotFound = core.NewNotFoundError("Student not found")
	ErrNoRecords       = errors.New("no attendance records")
)

type Repositories struct {
	Students    StudentRepository
	Teachers    TeacherRepository
	Assignments AssignmentRepository
	Attendance  AttendanceRepository
	Messages    MessageRepository
	Events      EventRepository
	Bus         BusRepository
}

// Service exposes the school records to signed-in users.
type Service struct {
	repos Repositories
}

func NewService(repos Repositories) *Service {
	return &Service{repos: repos}
}

func (svc *Service) Student(ctx context.Context, id string) (StudentDetail, error) {
	return svc.repos.Students.GetStudent(ctx, id)
}

func (svc *Service) StudentAssignments(ctx context.Context, studentID string) ([]AssignmentDetail, error) {
	return svc.repos.Assignments.QueryAssignmentsByStudent(ctx, studentID)
}

func (svc *Service) StudentAttendance(ctx context.Context, filter AttendanceFilter) ([]Attendance, error) {
	for field, val := range map[string]string{"from": filter.From, "to": filter.To} {
		if val == "" {
			continue
		}
		if _, err := core.ParseDate(val); err != nil {
			return nil, core.NewValidationError(err, core.FieldError{Field: field, Error: field + " must be a date (YYYY-MM-DD)"})
		}
	}
	return svc.repos.Attendance.QueryAttendance(ctx, filter)
}

func (svc *Service) AttendanceStats(ctx context.Context, studentID, month string) (json.RawMessage, error) {
	return svc.repos.Attendance.AttendanceStats(ctx, studentID, month)
}

// MarkAttendance stamps every record with the marking staff member.
func (svc *Service) MarkAttendance(ctx context.Context, marker session.User, records []Attendance) ([]Attendance, error) {
	if !marker.Role.IsStaff() {
		return nil, core.ErrForbidden
	}
	if len(records) == 0 {
		return nil, core.NewValidationError(ErrNoRecords)
	}
	for i := range records {
		records[i].MarkedBy = marker.ID
	}
	return svc.repos.Attendance.MarkAttendance(ctx, records)
}

func (svc *Service) Events(ctx context.Context, filter EventFilter) ([]Event, error) {
	return svc.repos.Events.QueryEvents(ctx, filter)
}

func (svc *Service) RegisterForEvent(ctx context.Context, user session.User, eventID string) (EventRegistration, error) {
	return svc.repos.Events.RegisterForEvent(ctx, eventID, user.ID)
}

func (svc *Service) BusRoutes(ctx context.Context, schoolID string) ([]BusRouteDetail, error) {
	return svc.repos.Bus.QueryRoutes(ctx, schoolID)
}

func (svc *Service) BusLocation(ctx context.Context, routeID string) (BusTracking, error) {
	return svc.repos.Bus.LatestLocation(ctx, routeID)
}
