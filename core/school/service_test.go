package school

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/schoolconnect/core"
	"github.com/trezcool/schoolconnect/core/session"
)

type fakeAttendance struct {
	marked []Attendance
	filter AttendanceFilter
}

func (f *fakeAttendance) MarkAttendance(_ context.Context, records []Attendance) ([]Attendance, error) {
	f.marked = append(f.marked, records...)
	return records, nil
}

func (f *fakeAttendance) QueryAttendance(_ context.Context, filter AttendanceFilter) ([]Attendance, error) {
	f.filter = filter
	return nil, nil
}

func (f *fakeAttendance) AttendanceStats(context.Context, string, string) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func TestService_MarkAttendance(t *testing.T) {
	ctx := context.Background()
	repo := new(fakeAttendance)
	svc := NewService(Repositories{Attendance: repo})
	records := []Attendance{
		{StudentID: "s1", Date: "2025-02-03", Status: AttendancePresent},
		{StudentID: "s2", Date: "2025-02-03", Status: AttendanceLate, MarkedBy: "someone else"},
	}

	_, err := svc.MarkAttendance(ctx, session.User{ID: "1", Role: session.RoleStudent}, records)
	assert.Equal(t, core.ErrForbidden, err)

	_, err = svc.MarkAttendance(ctx, session.User{ID: "2", Role: session.RoleTeacher}, nil)
	assert.True(t, core.IsValidationError(err))

	saved, err := svc.MarkAttendance(ctx, session.User{ID: "2", Role: session.RoleTeacher}, records)
	require.NoError(t, err)
	require.Len(t, saved, 2)
	for _, rec := range repo.marked {
		assert.Equal(t, "2", rec.MarkedBy)
	}
}

func TestService_StudentAttendance(t *testing.T) {
	ctx := context.Background()
	repo := new(fakeAttendance)
	svc := NewService(Repositories{Attendance: repo})

	tests := []struct {
		name    string
		filter  AttendanceFilter
		wantErr bool
	}{
		{name: "unbounded", filter: AttendanceFilter{StudentID: "s1"}},
		{name: "bounded", filter: AttendanceFilter{StudentID: "s1", From: "2025-01-01", To: "2025-01-31"}},
		{name: "bad from", filter: AttendanceFilter{StudentID: "s1", From: "January"}, wantErr: true},
		{name: "bad to", filter: AttendanceFilter{StudentID: "s1", To: "2025-13-01"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.StudentAttendance(ctx, tt.filter)
			if tt.wantErr {
				assert.True(t, core.IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.filter, repo.filter)
		})
	}
}
