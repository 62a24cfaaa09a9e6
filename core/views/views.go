// Package views builds the role-dependent parts of the app shell.
package views

import "github.com/trezcool/schoolconnect/core/session"

type QuickAction struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Route string `json:"route"`
}

var (
	actionReports     = QuickAction{ID: "reports", Title: "Reports", Route: "/(app)/(tabs)/reports"}
	actionAddClass    = QuickAction{ID: "add-class", Title: "Add Class", Route: "/(app)/manage-classes"}
	actionMyClasses   = QuickAction{ID: "my-classes", Title: "My Classes", Route: "/(app)/my-classes"}
	actionSendMessage = QuickAction{ID: "send-message", Title: "Send Message", Route: "/(app)/send-message"}
	actionBroadcast   = QuickAction{ID: "broadcast", Title: "Broadcast", Route: "/(app)/broadcast-message"}
	actionManageUsers = QuickAction{ID: "manage-users", Title: "Manage Users", Route: "/(app)/manage-users"}
	actionAttendance  = QuickAction{ID: "attendance", Title: "Attendance", Route: "/(app)/(tabs)/calendar"}
	actionBusTrack    = QuickAction{ID: "bus-track", Title: "Bus Track", Route: "/(app)/track"}

	commonActions = []QuickAction{actionAttendance, actionBusTrack}
)

// QuickActions returns the home screen shortcuts of a role: the role's own first, then the common ones.
func QuickActions(role session.Role) []QuickAction {
	var own []QuickAction
	switch role {
	case session.RoleStudent:
		own = []QuickAction{actionReports}
	case session.RoleTeacher:
		own = []QuickAction{actionAddClass, actionMyClasses, actionSendMessage}
	case session.RoleAdmin:
		own = []QuickAction{actionBroadcast, actionManageUsers}
	default:
		return nil
	}
	return append(own, commonActions...)
}

// Composer is the screen opened by the "new message" button.
type Composer string

const (
	ComposerNone         Composer = ""
	ComposerClassMessage Composer = "send-message"
	ComposerBroadcast    Composer = "broadcast-message"
)

// NewMessageTarget returns the composer a role may open. Students can only reply to existing conversations.
func NewMessageTarget(role session.Role) Composer {
	switch role {
	case session.RoleTeacher:
		return ComposerClassMessage
	case session.RoleAdmin:
		return ComposerBroadcast
	case session.RoleStudent:
		return ComposerNone
	default:
		return ComposerNone
	}
}
