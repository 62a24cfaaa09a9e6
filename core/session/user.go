package session

import "github.com/trezcool/schoolconnect/core"

// User is the signed-in user record, persisted as-is under the session key.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	Avatar    string `json:"avatar,omitempty"`
	Class     string `json:"class,omitempty"`
	Section   string `json:"section,omitempty"`
	Grade     string `json:"grade,omitempty"`
	StudentID string `json:"studentId,omitempty"`
	TeacherID string `json:"teacherId,omitempty"`
}

func (u User) IsStudent() bool { return u.Role == RoleStudent }
func (u User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u User) IsAdmin() bool   { return u.Role == RoleAdmin }

// Person returns the user as seen by the loggers.
func (u User) Person() core.Person {
	return core.Person{ID: u.ID, Name: u.Name, Email: u.Email}
}
