package tests

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/schoolconnect/core"
	"github.com/trezcool/schoolconnect/core/leave"
	emailsvc "github.com/trezcool/schoolconnect/services/email"
)

func decodeLeaves(t *testing.T, body []byte) []leave.Application {
	var apps []leave.Application
	require.NoError(t, json.Unmarshal(body, &apps))
	return apps
}

func Test_leaveApi(t *testing.T) {
	app := newTestApp()
	student := signIn(t, app, "student@example.com")
	teacher := signIn(t, app, "teacher@example.com")
	admin := signIn(t, app, "admin@example.com")

	t.Run("List", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/leaves", student)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		apps := decodeLeaves(t, rec.Body.Bytes())
		require.Len(t, apps, 2)
		assert.Equal(t, "Family Emergency", apps[0].LeaveType)
		assert.Equal(t, "Sick Leave", apps[1].LeaveType)
		assert.Equal(t, 3, apps[1].Days())
	})

	t.Run("Admin sees nothing of their own", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/leaves/report.pdf", admin)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "leaves.pdf")
		assert.Equal(t, "%PDF-", rec.Body.String()[:5])
	})

	t.Run("Email report", func(t *testing.T) {
		emailsvc.ResetSentMessages()
		req, rec := newAuthRequest(http.MethodPost, "/v1/leaves/report/email", student)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{"success":"The report has been sent to siddhsalgia@example.com."}`, rec.Body.String())

		sent := emailsvc.Sent()
		require.Len(t, sent, 1)
		msg := sent[0]
		require.Len(t, msg.To, 1)
		assert.Equal(t, "siddhsalgia@example.com", msg.To[0].Address)
		assert.Contains(t, msg.TextContent, "Hello Siddh Salgia,")
		require.Len(t, msg.Attachments, 1)
		assert.Equal(t, "leaves.pdf", msg.Attachments[0].Filename)
		assert.Equal(t, "application/pdf", msg.Attachments[0].ContentType)
		pdf, err := base64.StdEncoding.DecodeString(msg.Attachments[0].Content.String())
		require.NoError(t, err)
		assert.Equal(t, "%PDF-", string(pdf[:5]))
	})

	var submitted leave.Application
	t.Run("Submit", func(t *testing.T) {
		body := marshalObj(t, leave.NewApplication{
			LeaveType: "Medical Appointment",
			StartDate: "2025-03-03",
			EndDate:   "2025-03-03",
			Message:   "  Dentist  ",
		})
		req, rec := newAuthRequest(http.MethodPost, "/v1/leaves", student, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &submitted))
		assert.Equal(t, leave.StatusPending, submitted.Status)
		assert.Equal(t, "Dentist", submitted.Message)
		assert.Equal(t, core.Today(), submitted.AppliedDate)

		req, rec = newAuthRequest(http.MethodGet, "/v1/leaves", student)
		app.ServeHTTP(rec, req)
		apps := decodeLeaves(t, rec.Body.Bytes())
		require.Len(t, apps, 3)
		assert.Equal(t, submitted.ID, apps[0].ID)
	})

	invalid := func(na leave.NewApplication) []byte { return marshalObj(t, na) }
	runHTTPTests(t, app, []httpTest{
		{
			name: "Submit incomplete", method: http.MethodPost, path: "/v1/leaves", token: student,
			body:     invalid(leave.NewApplication{LeaveType: "Other", StartDate: "2025-03-03", EndDate: "2025-03-04"}),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"error": "Please fill in all fields", "fields": {"message": "this field is required"}}`),
		},
		{
			name: "Submit dates out of order", method: http.MethodPost, path: "/v1/leaves", token: student,
			body:     invalid(leave.NewApplication{LeaveType: "Other", StartDate: "2025-03-05", EndDate: "2025-03-04", Message: "x"}),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"error": "End date must be after start date", "fields": {"endDate": "End date must be after start date"}}`),
		},
		{
			name: "Student cannot review", method: http.MethodPost, path: "/v1/leaves/2/review", token: student,
			body: []byte(`{"decision":"approved"}`), wantCode: http.StatusForbidden,
			wantData: marshalObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Invalid decision", method: http.MethodPost, path: "/v1/leaves/2/review", token: teacher,
			body: []byte(`{"decision":"maybe"}`), wantCode: http.StatusBadRequest,
		},
		{
			name: "Unknown application", method: http.MethodPost, path: "/v1/leaves/404/review", token: teacher,
			body: []byte(`{"decision":"approved"}`), wantCode: http.StatusNotFound,
			wantData: marshalObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "Already reviewed", method: http.MethodPost, path: "/v1/leaves/1/review", token: admin,
			body: []byte(`{"decision":"rejected"}`), wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: leave.ErrAlreadyClosed.Error()}),
		},
	})

	t.Run("Review", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/leaves/"+submitted.ID+"/review", teacher, []byte(`{"decision":"approved"}`))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var reviewed leave.Application
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reviewed))
		assert.Equal(t, leave.StatusApproved, reviewed.Status)
		require.NotNil(t, reviewed.ReviewedBy)
		assert.Equal(t, "2", *reviewed.ReviewedBy)
	})

	t.Run("Types", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/leaves/types", student)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, string(marshalObj(t, leave.Types)), rec.Body.String())
	})
}
