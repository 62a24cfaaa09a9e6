package testutil

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/trezcool/schoolconnect/core"
	"github.com/trezcool/schoolconnect/core/leave"
	"github.com/trezcool/schoolconnect/core/session"
	logsvc "github.com/trezcool/schoolconnect/services/logger"
)

// Demo users, matching session.DemoDirectory.
var (
	Student = session.User{ID: "1", Name: "Siddh Salgia", Email: "siddhsalgia@example.com", Role: session.RoleStudent}
	Teacher = session.User{ID: "2", Name: "Mrs. Harshal Yamgar", Email: "teacher@example.com", Role: session.RoleTeacher}
	Admin   = session.User{ID: "3", Name: "Bhavna Pujari", Email: "admin@example.com", Role: session.RoleAdmin}
)

// NewLogger returns a logger that reports nowhere.
func NewLogger() core.Logger {
	return logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), core.NewTestConfig())
}

func CreateLeave(t *testing.T, svc *leave.Service, applicant session.User, leaveType, start, end, msg string) leave.Application {
	app, err := svc.Submit(context.Background(), applicant, leave.NewApplication{
		LeaveType: leaveType,
		StartDate: start,
		EndDate:   end,
		Message:   msg,
	})
	if err != nil {
		t.Fatalf("CreateLeave() failed: %v", err)
	}
	return app
}
