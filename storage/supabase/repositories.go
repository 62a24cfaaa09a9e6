package supabase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/schoolconnect/core"
	"github.com/trezcool/schoolconnect/core/school"
)

const (
	studentDetailColumns = `*, profiles(*), sections(*), classes(*)`
	withProfileColumns   = `*, profiles(*)`
)

// NewRepositories returns every school repository backed by client.
func NewRepositories(client *Client) school.Repositories {
	return school.Repositories{
		Students:    &studentRepository{client},
		Teachers:    &teacherRepository{client},
		Assignments: &assignmentRepository{client},
		Attendance:  &attendanceRepository{client},
		Messages:    &messageRepository{client},
		Events:      &eventRepository{client},
		Bus:         &busRepository{client},
	}
}

type studentRepository struct{ client *Client }

func (repo *studentRepository) GetStudent(ctx context.Context, id string) (school.StudentDetail, error) {
	var s school.StudentDetail
	err := repo.client.From("students").Select(studentDetailColumns).Eq("id", id).Single().Execute(ctx, &s)
	return s, errors.Wrapf(err, "getting student %s", id)
}

func (repo *studentRepository) GetStudentByUserID(ctx context.Context, userID string) (school.StudentDetail, error) {
	var s school.StudentDetail
	err := repo.client.From("students").Select(studentDetailColumns).Eq("user_id", userID).Single().Execute(ctx, &s)
	return s, errors.Wrapf(err, "getting student of user %s", userID)
}

func (repo *studentRepository) QueryStudentsBySection(ctx context.Context, sectionID string) ([]school.StudentDetail, error) {
	var students []school.StudentDetail
	err := repo.client.From("students").
		Select(withProfileColumns).
		Eq("section_id", sectionID).
		Eq("status", school.StudentActive).
		Execute(ctx, &students)
	return students, errors.Wrapf(err, "querying students of section %s", sectionID)
}

type teacherRepository struct{ client *Client }

func (repo *teacherRepository) GetTeacher(ctx context.Context, id string) (school.TeacherDetail, error) {
	var t school.TeacherDetail
	err := repo.client.From("teachers").Select(withProfileColumns).Eq("id", id).Single().Execute(ctx, &t)
	return t, errors.Wrapf(err, "getting teacher %s", id)
}

func (repo *teacherRepository) GetTeacherByUserID(ctx context.Context, userID string) (school.TeacherDetail, error) {
	var t school.TeacherDetail
	err := repo.client.From("teachers").Select(withProfileColumns).Eq("user_id", userID).Single().Execute(ctx, &t)
	return t, errors.Wrapf(err, "getting teacher of user %s", userID)
}

func (repo *teacherRepository) QueryTeacherSubjects(ctx context.Context, teacherID string) ([]school.TeacherSubject, error) {
	var subjects []school.TeacherSubject
	err := repo.client.From("teacher_subjects").
		Select(`*, subjects(*), sections(*)`).
		Eq("teacher_id", teacherID).
		Execute(ctx, &subjects)
	return subjects, errors.Wrapf(err, "querying subjects of teacher %s", teacherID)
}

type assignmentRepository struct{ client *Client }

func (repo *assignmentRepository) CreateAssignment(ctx context.Context, a school.Assignment) (school.Assignment, error) {
	var created school.Assignment
	err := repo.client.From("assignments").Select("*").Single().Insert(ctx, a, &created)
	return created, errors.Wrap(err, "creating assignment")
}

func (repo *assignmentRepository) QueryAssignmentsBySection(ctx context.Context, sectionID string) ([]school.AssignmentDetail, error) {
	var assignments []school.AssignmentDetail
	err := repo.client.From("assignments").
		Select(`*, subjects(*), teachers(profiles(*))`).
		Eq("section_id", sectionID).
		Eq("status", school.AssignmentActive).
		Order("due_date", true).
		Execute(ctx, &assignments)
	return assignments, errors.Wrapf(err, "querying assignments of section %s", sectionID)
}

func (repo *assignmentRepository) QueryAssignmentsByStudent(ctx context.Context, studentID string) ([]school.AssignmentDetail, error) {
	var student struct {
		SectionID string `json:"section_id"`
	}
	err := repo.client.From("students").Select("section_id").Eq("id", studentID).Single().Execute(ctx, &student)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, school.ErrStudentNotFound
		}
		return nil, errors.Wrapf(err, "getting section of student %s", studentID)
	}
	return repo.QueryAssignmentsBySection(ctx, student.SectionID)
}

func (repo *assignmentRepository) SubmitAssignment(ctx context.Context, s school.AssignmentSubmission) (school.AssignmentSubmission, error) {
	var created school.AssignmentSubmission
	err := repo.client.From("assignment_submissions").Select("*").Single().Insert(ctx, s, &created)
	return created, errors.Wrap(err, "submitting assignment")
}

type attendanceRepository struct{ client *Client }

func (repo *attendanceRepository) MarkAttendance(ctx context.Context, records []school.Attendance) ([]school.Attendance, error) {
	var saved []school.Attendance
	err := repo.client.From("attendance").Select("*").OnConflict("student_id,date").Insert(ctx, records, &saved)
	return saved, errors.Wrap(err, "marking attendance")
}

func (repo *attendanceRepository) QueryAttendance(ctx context.Context, filter school.AttendanceFilter) ([]school.Attendance, error) {
	q := repo.client.From("attendance").
		Select("*").
		Eq("student_id", filter.StudentID).
		Order("date", false)
	if filter.From != "" {
		q.Gte("date", filter.From)
	}
	if filter.To != "" {
		q.Lte("date", filter.To)
	}

	var records []school.Attendance
	err := q.Execute(ctx, &records)
	return records, errors.Wrapf(err, "querying attendance of student %s", filter.StudentID)
}

func (repo *attendanceRepository) AttendanceStats(ctx context.Context, studentID, month string) (json.RawMessage, error) {
	args := map[string]interface{}{"student_id": studentID, "month_filter": nil}
	if month != "" {
		args["month_filter"] = month
	}
	var stats json.RawMessage
	err := repo.client.RPC(ctx, "get_attendance_stats", args, &stats)
	return stats, errors.Wrapf(err, "getting attendance stats of student %s", studentID)
}

type messageRepository struct{ client *Client }

func (repo *messageRepository) SendMessage(ctx context.Context, m school.Message) (school.Message, error) {
	m.IsRead = false
	var sent school.Message
	err := repo.client.From("messages").Select("*").Single().Insert(ctx, m, &sent)
	return sent, errors.Wrap(err, "sending message")
}

func (repo *messageRepository) QueryConversation(ctx context.Context, userID, otherUserID string) ([]school.MessageDetail, error) {
	var msgs []school.MessageDetail
	err := repo.client.From("messages").
		Select(`*, sender:profiles!sender_id(*), recipient:profiles!recipient_id(*)`).
		Or(fmt.Sprintf(
			"and(sender_id.eq.%[1]s,recipient_id.eq.%[2]s),and(sender_id.eq.%[2]s,recipient_id.eq.%[1]s)",
			userID, otherUserID,
		)).
		Order("created_at", true).
		Execute(ctx, &msgs)
	return msgs, errors.Wrap(err, "querying conversation")
}

func (repo *messageRepository) RecentChats(ctx context.Context, userID string) (json.RawMessage, error) {
	var chats json.RawMessage
	err := repo.client.RPC(ctx, "get_recent_chats", map[string]string{"user_id": userID}, &chats)
	return chats, errors.Wrapf(err, "getting recent chats of user %s", userID)
}

func (repo *messageRepository) MarkAsRead(ctx context.Context, messageID string) error {
	err := repo.client.From("messages").Eq("id", messageID).Update(ctx, map[string]bool{"is_read": true}, nil)
	return errors.Wrapf(err, "marking message %s as read", messageID)
}

type eventRepository struct{ client *Client }

func (repo *eventRepository) CreateEvent(ctx context.Context, e school.Event) (school.Event, error) {
	var created school.Event
	err := repo.client.From("events").Select("*").Single().Insert(ctx, e, &created)
	return created, errors.Wrap(err, "creating event")
}

func (repo *eventRepository) QueryEvents(ctx context.Context, filter school.EventFilter) ([]school.Event, error) {
	q := repo.client.From("events").
		Select("*").
		Gte("start_date", filter.From).
		Lte("start_date", filter.To).
		Order("start_date", true)
	if filter.SchoolID != "" {
		q.Eq("school_id", filter.SchoolID)
	}

	var events []school.Event
	err := q.Execute(ctx, &events)
	return events, errors.Wrap(err, "querying events")
}

func (repo *eventRepository) RegisterForEvent(ctx context.Context, eventID, userID string) (school.EventRegistration, error) {
	var reg school.EventRegistration
	err := repo.client.From("event_registrations").Select("*").Single().Insert(ctx, school.EventRegistration{
		EventID: eventID,
		UserID:  userID,
		Status:  "registered",
	}, &reg)
	return reg, errors.Wrapf(err, "registering user %s to event %s", userID, eventID)
}

type busRepository struct{ client *Client }

func (repo *busRepository) QueryRoutes(ctx context.Context, schoolID string) ([]school.BusRouteDetail, error) {
	var routes []school.BusRouteDetail
	err := repo.client.From("bus_routes").
		Select(`*, bus_stops(*)`).
		Eq("school_id", schoolID).
		Eq("status", school.RouteActive).
		Execute(ctx, &routes)
	return routes, errors.Wrapf(err, "querying bus routes of school %s", schoolID)
}

func (repo *busRepository) LatestLocation(ctx context.Context, routeID string) (school.BusTracking, error) {
	var t school.BusTracking
	err := repo.client.From("bus_tracking").
		Select("*").
		Eq("route_id", routeID).
		Order("timestamp", false).
		Limit(1).
		Single().
		Execute(ctx, &t)
	return t, errors.Wrapf(err, "getting latest location of route %s", routeID)
}

func (repo *busRepository) UpdateLocation(ctx context.Context, t school.BusTracking) (school.BusTracking, error) {
	var saved school.BusTracking
	err := repo.client.From("bus_tracking").Select("*").Single().Insert(ctx, t, &saved)
	return saved, errors.Wrap(err, "updating bus location")
}
