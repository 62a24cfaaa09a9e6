package school

import (
	"encoding/json"
	"time"
)

// Row types of the backend tables. Optional columns use omitempty or pointers.
type (
	School struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Address   string    `json:"address,omitempty"`
		Phone     string    `json:"phone,omitempty"`
		Email     string    `json:"email,omitempty"`
		Website   string    `json:"website,omitempty"`
		LogoURL   string    `json:"logo_url,omitempty"`
		CreatedAt time.Time `json:"created_at"`
	}

	Profile struct {
		ID          string    `json:"id"`
		Email       string    `json:"email"`
		FullName    string    `json:"full_name"`
		Role        string    `json:"role"`
		AvatarURL   string    `json:"avatar_url,omitempty"`
		Phone       string    `json:"phone,omitempty"`
		Address     string    `json:"address,omitempty"`
		DateOfBirth string    `json:"date_of_birth,omitempty"`
		CreatedAt   time.Time `json:"created_at"`
		UpdatedAt   time.Time `json:"updated_at"`
	}

	Class struct {
		ID           string    `json:"id"`
		SchoolID     string    `json:"school_id"`
		Name         string    `json:"name"`
		AcademicYear string    `json:"academic_year"`
		CreatedAt    time.Time `json:"created_at"`
	}

	Section struct {
		ID        string    `json:"id"`
		ClassID   string    `json:"class_id"`
		Name      string    `json:"name"`
		Capacity  int       `json:"capacity"`
		CreatedAt time.Time `json:"created_at"`
	}

	Subject struct {
		ID          string    `json:"id"`
		SchoolID    string    `json:"school_id"`
		Name        string    `json:"name"`
		Code        string    `json:"code,omitempty"`
		Description string    `json:"description,omitempty"`
		CreatedAt   time.Time `json:"created_at"`
	}

	Student struct {
		ID               string          `json:"id"`
		UserID           string          `json:"user_id"`
		SchoolID         string          `json:"school_id"`
		SectionID        string          `json:"section_id"`
		StudentID        string          `json:"student_id"`
		AdmissionDate    string          `json:"admission_date,omitempty"`
		Status           StudentStatus   `json:"status"`
		ParentContact    string          `json:"parent_contact,omitempty"`
		EmergencyContact string          `json:"emergency_contact,omitempty"`
		MedicalInfo      json.RawMessage `json:"medical_info,omitempty"`
		CreatedAt        time.Time       `json:"created_at"`
	}

	// StudentDetail is a student with its embedded relations.
	StudentDetail struct {
		Student
		Profile *Profile `json:"profiles,omitempty"`
		Section *Section `json:"sections,omitempty"`
		Class   *Class   `json:"classes,omitempty"`
	}

	Teacher struct {
		ID              string        `json:"id"`
		UserID          string        `json:"user_id"`
		SchoolID        string        `json:"school_id"`
		TeacherID       string        `json:"teacher_id"`
		Department      string        `json:"department,omitempty"`
		Qualification   string        `json:"qualification,omitempty"`
		ExperienceYears *int          `json:"experience_years,omitempty"`
		HireDate        string        `json:"hire_date,omitempty"`
		Salary          *float64      `json:"salary,omitempty"`
		Status          TeacherStatus `json:"status"`
		CreatedAt       time.Time     `json:"created_at"`
	}

	TeacherDetail struct {
		Teacher
		Profile *Profile `json:"profiles,omitempty"`
	}

	TeacherSubject struct {
		ID        string   `json:"id"`
		TeacherID string   `json:"teacher_id"`
		SubjectID string   `json:"subject_id"`
		SectionID string   `json:"section_id"`
		Subject   *Subject `json:"subjects,omitempty"`
		Section   *Section `json:"sections,omitempty"`
	}

	Assignment struct {
		ID             string           `json:"id,omitempty"`
		TeacherID      string           `json:"teacher_id"`
		SubjectID      string           `json:"subject_id"`
		SectionID      string           `json:"section_id"`
		Title          string           `json:"title"`
		Description    string           `json:"description,omitempty"`
		DueDate        string           `json:"due_date"`
		MaxMarks       *int             `json:"max_marks,omitempty"`
		AttachmentURLs []string         `json:"attachment_urls,omitempty"`
		Status         AssignmentStatus `json:"status"`
		CreatedAt      *time.Time       `json:"created_at,omitempty"`
	}

	AssignmentDetail struct {
		Assignment
		Subject *Subject `json:"subjects,omitempty"`
		Teacher *struct {
			Profile *Profile `json:"profiles,omitempty"`
		} `json:"teachers,omitempty"`
	}

	AssignmentSubmission struct {
		ID             string     `json:"id,omitempty"`
		AssignmentID   string     `json:"assignment_id"`
		StudentID      string     `json:"student_id"`
		SubmissionText string     `json:"submission_text,omitempty"`
		AttachmentURLs []string   `json:"attachment_urls,omitempty"`
		SubmittedAt    *time.Time `json:"submitted_at,omitempty"`
		MarksObtained  *float64   `json:"marks_obtained,omitempty"`
		Feedback       string     `json:"feedback,omitempty"`
		GradedAt       *time.Time `json:"graded_at,omitempty"`
		GradedBy       string     `json:"graded_by,omitempty"`
	}

	Attendance struct {
		ID        string           `json:"id,omitempty"`
		StudentID string           `json:"student_id" validate:"required"`
		Date      string           `json:"date" validate:"required,isodate"`
		Status    AttendanceStatus `json:"status" validate:"required,oneof=present absent late excused"`
		MarkedBy  string           `json:"marked_by"`
		Notes     string           `json:"notes,omitempty"`
		MarkedAt  *time.Time       `json:"marked_at,omitempty"`
	}

	Message struct {
		ID              string      `json:"id,omitempty"`
		SenderID        string      `json:"sender_id"`
		RecipientID     string      `json:"recipient_id"`
		Subject         string      `json:"subject,omitempty"`
		Content         string      `json:"content"`
		AttachmentURLs  []string    `json:"attachment_urls,omitempty"`
		IsRead          bool        `json:"is_read"`
		MessageType     MessageType `json:"message_type"`
		ParentMessageID string      `json:"parent_message_id,omitempty"`
		CreatedAt       *time.Time  `json:"created_at,omitempty"`
	}

	MessageDetail struct {
		Message
		Sender    *Profile `json:"sender,omitempty"`
		Recipient *Profile `json:"recipient,omitempty"`
	}

	Event struct {
		ID                   string     `json:"id,omitempty"`
		SchoolID             string     `json:"school_id"`
		CreatedBy            string     `json:"created_by"`
		Title                string     `json:"title"`
		Description          string     `json:"description,omitempty"`
		EventType            EventType  `json:"event_type"`
		StartDate            string     `json:"start_date"`
		EndDate              string     `json:"end_date,omitempty"`
		Location             string     `json:"location,omitempty"`
		TargetAudience       []string   `json:"target_audience,omitempty"`
		MaxParticipants      *int       `json:"max_participants,omitempty"`
		RegistrationRequired bool       `json:"registration_required"`
		CreatedAt            *time.Time `json:"created_at,omitempty"`
	}

	EventRegistration struct {
		ID      string `json:"id,omitempty"`
		EventID string `json:"event_id"`
		UserID  string `json:"user_id"`
		Status  string `json:"status"`
	}

	BusRoute struct {
		ID          string      `json:"id"`
		SchoolID    string      `json:"school_id"`
		RouteName   string      `json:"route_name"`
		DriverName  string      `json:"driver_name,omitempty"`
		DriverPhone string      `json:"driver_phone,omitempty"`
		BusNumber   string      `json:"bus_number,omitempty"`
		Capacity    *int        `json:"capacity,omitempty"`
		Status      RouteStatus `json:"status"`
		CreatedAt   time.Time   `json:"created_at"`
	}

	BusStop struct {
		ID            string    `json:"id"`
		RouteID       string    `json:"route_id"`
		StopName      string    `json:"stop_name"`
		Latitude      *float64  `json:"latitude,omitempty"`
		Longitude     *float64  `json:"longitude,omitempty"`
		EstimatedTime string    `json:"estimated_time,omitempty"`
		StopOrder     int       `json:"stop_order"`
		CreatedAt     time.Time `json:"created_at"`
	}

	BusRouteDetail struct {
		BusRoute
		Stops []BusStop `json:"bus_stops"`
	}

	BusTracking struct {
		ID        string     `json:"id,omitempty"`
		RouteID   string     `json:"route_id" validate:"required"`
		Latitude  float64    `json:"latitude" validate:"min=-90,max=90"`
		Longitude float64    `json:"longitude" validate:"min=-180,max=180"`
		Speed     *float64   `json:"speed,omitempty"`
		Heading   *float64   `json:"heading,omitempty"`
		Timestamp *time.Time `json:"timestamp,omitempty"`
		DriverID  string     `json:"driver_id,omitempty"`
	}

	HealthRecord struct {
		ID            string           `json:"id"`
		StudentID     string           `json:"student_id"`
		RecordType    HealthRecordType `json:"record_type"`
		Date          string           `json:"date"`
		Description   string           `json:"description,omitempty"`
		HeightCM      *float64         `json:"height_cm,omitempty"`
		WeightKG      *float64         `json:"weight_kg,omitempty"`
		BMI           *float64         `json:"bmi,omitempty"`
		BloodPressure string           `json:"blood_pressure,omitempty"`
		Notes         string           `json:"notes,omitempty"`
		RecordedBy    string           `json:"recorded_by"`
		CreatedAt     time.Time        `json:"created_at"`
	}

	Exam struct {
		ID              string    `json:"id"`
		SubjectID       string    `json:"subject_id"`
		SectionID       string    `json:"section_id"`
		TeacherID       string    `json:"teacher_id"`
		AcademicTermID  string    `json:"academic_term_id"`
		Title           string    `json:"title"`
		ExamDate        string    `json:"exam_date"`
		MaxMarks        float64   `json:"max_marks"`
		DurationMinutes *int      `json:"duration_minutes,omitempty"`
		ExamType        ExamType  `json:"exam_type"`
		CreatedAt       time.Time `json:"created_at"`
	}

	ExamResult struct {
		ID            string    `json:"id"`
		ExamID        string    `json:"exam_id"`
		StudentID     string    `json:"student_id"`
		MarksObtained float64   `json:"marks_obtained"`
		Grade         string    `json:"grade,omitempty"`
		Remarks       string    `json:"remarks,omitempty"`
		CreatedAt     time.Time `json:"created_at"`
	}
)

type (
	StudentStatus    string
	TeacherStatus    string
	AssignmentStatus string
	AttendanceStatus string
	MessageType      string
	EventType        string
	RouteStatus      string
	HealthRecordType string
	ExamType         string
)

const (
	StudentActive      StudentStatus = "active"
	StudentInactive    StudentStatus = "inactive"
	StudentGraduated   StudentStatus = "graduated"
	StudentTransferred StudentStatus = "transferred"

	TeacherActive   TeacherStatus = "active"
	TeacherInactive TeacherStatus = "inactive"
	TeacherOnLeave  TeacherStatus = "on_leave"

	AssignmentActive    AssignmentStatus = "active"
	AssignmentCompleted AssignmentStatus = "completed"
	AssignmentCancelled AssignmentStatus = "cancelled"

	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceExcused AttendanceStatus = "excused"

	MessageDirect       MessageType = "direct"
	MessageAnnouncement MessageType = "announcement"
	MessageGroup        MessageType = "group"

	EventClass    EventType = "class"
	EventExam     EventType = "exam"
	EventHoliday  EventType = "holiday"
	EventMeeting  EventType = "meeting"
	EventSports   EventType = "sports"
	EventCultural EventType = "cultural"
	EventOther    EventType = "other"

	RouteActive      RouteStatus = "active"
	RouteInactive    RouteStatus = "inactive"
	RouteMaintenance RouteStatus = "maintenance"

	HealthCheckup     HealthRecordType = "checkup"
	HealthVaccination HealthRecordType = "vaccination"
	HealthIllness     HealthRecordType = "illness"
	HealthInjury      HealthRecordType = "injury"
	HealthFitnessTest HealthRecordType = "fitness_test"

	ExamQuiz      ExamType = "quiz"
	ExamUnitTest  ExamType = "unit_test"
	ExamMidterm   ExamType = "midterm"
	ExamFinal     ExamType = "final"
	ExamPractical ExamType = "practical"
)
