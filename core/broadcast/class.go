package broadcast

import "fmt"

type (
	TeacherClass struct {
		ID           string `json:"id"`
		Subject      string `json:"subject"`
		ClassName    string `json:"className"`
		Section      string `json:"section"`
		StudentCount int    `json:"studentCount"`
	}

	// ClassMessage is the teacher's message form.
	ClassMessage struct {
		ClassID string `json:"classId"`
		Title   string `json:"title"`
		Body    string `json:"body"`
	}
)

// DemoClasses returns the classes taught by the demo teacher.
func DemoClasses() []TeacherClass {
	return []TeacherClass{
		{ID: "1", Subject: "Mathematics", ClassName: "4", Section: "D", StudentCount: 28},
		{ID: "2", Subject: "Science", ClassName: "5", Section: "A", StudentCount: 32},
		{ID: "3", Subject: "Mathematics", ClassName: "5", Section: "B", StudentCount: 30},
	}
}

func (c TeacherClass) Label() string {
	return fmt.Sprintf("Class %s%s", c.ClassName, c.Section)
}

func (c TeacherClass) AudienceID() AudienceID {
	return AudienceID("class:" + c.ID)
}
