package school

import (
	"context"
	"encoding/json"
)

type (
	StudentRepository interface {
		GetStudent(ctx context.Context, id string) (StudentDetail, error)
		GetStudentByUserID(ctx context.Context, userID string) (StudentDetail, error)
		QueryStudentsBySection(ctx context.Context, sectionID string) ([]StudentDetail, error)
	}

	TeacherRepository interface {
		GetTeacher(ctx context.Context, id string) (TeacherDetail, error)
		GetTeacherByUserID(ctx context.Context, userID string) (TeacherDetail, error)
		QueryTeacherSubjects(ctx context.Context, teacherID string) ([]TeacherSubject, error)
	}

	AssignmentRepository interface {
		CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		// QueryAssignmentsBySection returns active assignments ordered by due date.
		QueryAssignmentsBySection(ctx context.Context, sectionID string) ([]AssignmentDetail, error)
		// QueryAssignmentsByStudent resolves the student's section first.
		QueryAssignmentsByStudent(ctx context.Context, studentID string) ([]AssignmentDetail, error)
		SubmitAssignment(ctx context.Context, s AssignmentSubmission) (AssignmentSubmission, error)
	}

	AttendanceRepository interface {
		// MarkAttendance upserts on (student_id, date).
		MarkAttendance(ctx context.Context, records []Attendance) ([]Attendance, error)
		QueryAttendance(ctx context.Context, filter AttendanceFilter) ([]Attendance, error)
		AttendanceStats(ctx context.Context, studentID, month string) (json.RawMessage, error)
	}

	MessageRepository interface {
		SendMessage(ctx context.Context, m Message) (Message, error)
		// QueryConversation returns the messages between both users, oldest first.
		QueryConversation(ctx context.Context, userID, otherUserID string) ([]MessageDetail, error)
		RecentChats(ctx context.Context, userID string) (json.RawMessage, error)
		MarkAsRead(ctx context.Context, messageID string) error
	}

	EventRepository interface {
		CreateEvent(ctx context.Context, e Event) (Event, error)
		QueryEvents(ctx context.Context, filter EventFilter) ([]Event, error)
		RegisterForEvent(ctx context.Context, eventID, userID string) (EventRegistration, error)
	}

	BusRepository interface {
		QueryRoutes(ctx context.Context, schoolID string) ([]BusRouteDetail, error)
		LatestLocation(ctx context.Context, routeID string) (BusTracking, error)
		UpdateLocation(ctx context.Context, t BusTracking) (BusTracking, error)
	}

	// AttendanceFilter bounds are inclusive ISO dates; empty means unbounded.
	AttendanceFilter struct {
		StudentID string
		From      string
		To        string
	}

	EventFilter struct {
		From     string
		To       string
		SchoolID string
	}
)

// Change is one row change pushed by the realtime backend.
type Change struct {
	Table  string          `json:"table"`
	Type   string          `json:"type"`
	Record json.RawMessage `json:"record"`
}

type (
	ChangeHandler func(Change)

	Subscription interface {
		Unsubscribe() error
	}

	Subscriptions interface {
		// SubscribeMessages delivers messages inserted for recipientID.
		SubscribeMessages(ctx context.Context, recipientID string, fn ChangeHandler) (Subscription, error)
		SubscribeBusTracking(ctx context.Context, routeID string, fn ChangeHandler) (Subscription, error)
		SubscribeAnnouncements(ctx context.Context, schoolID string, fn ChangeHandler) (Subscription, error)
	}
)
