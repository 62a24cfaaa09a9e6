package inmemdb

import (
	"sync"

	"github.com/trezcool/schoolconnect/core"
	"github.com/trezcool/schoolconnect/core/broadcast"
	"github.com/trezcool/schoolconnect/core/feedback"
	"github.com/trezcool/schoolconnect/core/leave"
	"github.com/trezcool/schoolconnect/core/message"
	"github.com/trezcool/schoolconnect/core/session"
)

type (
	DB struct {
		account   *accountTable
		leave     *leaveTable
		broadcast *broadcastTable
		feedback  *feedbackTable
		message   *messageTable
	}

	accountTable struct {
		table map[string]session.Account
		mutex sync.RWMutex
	}

	leaveTable struct {
		table []*leave.Application
		mutex sync.RWMutex
	}

	broadcastTable struct {
		table []*broadcast.Broadcast
		mutex sync.RWMutex
	}

	feedbackTable struct {
		table []*feedback.Feedback
		mutex sync.RWMutex
	}

	messageTable struct {
		// threads are keyed by viewer, then by contact.
		table map[string][]message.Thread
		mutex sync.RWMutex
	}
)

// Open returns an empty database.
func Open() *DB {
	return &DB{
		account:   &accountTable{table: make(map[string]session.Account)},
		leave:     &leaveTable{},
		broadcast: &broadcastTable{},
		feedback:  &feedbackTable{},
		message:   &messageTable{table: make(map[string][]message.Thread)},
	}
}

// OpenDemo returns a database holding the demo accounts, their leave history and their conversations.
func OpenDemo(passwordHash []byte) *DB {
	db := Open()
	for email, acc := range session.DemoDirectory(passwordHash) {
		db.account.table[email] = acc
	}
	db.leave.table = demoLeaves()
	return db
}

func demoLeaves() []*leave.Application {
	return []*leave.Application{
		{
			ID:          "2",
			ApplicantID: "1",
			LeaveType:   "Family Emergency",
			StartDate:   core.NewDate(2025, 1, 25),
			EndDate:     core.NewDate(2025, 1, 25),
			Message:     "Family emergency requires immediate attention.",
			Status:      leave.StatusPending,
			AppliedDate: core.NewDate(2025, 1, 24),
		},
		{
			ID:          "1",
			ApplicantID: "1",
			LeaveType:   "Sick Leave",
			StartDate:   core.NewDate(2025, 1, 20),
			EndDate:     core.NewDate(2025, 1, 22),
			Message:     "I am suffering from fever and need rest for recovery.",
			Status:      leave.StatusApproved,
			AppliedDate: core.NewDate(2025, 1, 18),
		},
	}
}
