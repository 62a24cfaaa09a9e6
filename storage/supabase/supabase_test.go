package supabase

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/schoolconnect/core"
	"github.com/trezcool/schoolconnect/core/school"
	testutil "github.com/trezcool/schoolconnect/tests"
)

type recordedRequest struct {
	method string
	path   string
	query  map[string][]string
	header http.Header
	body   string
}

// newTestServer answers every request with status and body, recording the last request.
func newTestServer(t *testing.T, status int, body string) (*Client, *recordedRequest) {
	rec := new(recordedRequest)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		*rec = recordedRequest{method: r.Method, path: r.URL.Path, query: r.URL.Query(), header: r.Header, body: string(b)}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	conf := core.NewTestConfig()
	conf.Supabase.URL = srv.URL + "/"
	conf.Supabase.APIKey = "anon-key"
	client, err := NewClient(conf, srv.Client())
	require.NoError(t, err)
	return client, rec
}

func TestNewClient_requiresConfig(t *testing.T) {
	_, err := NewClient(core.NewTestConfig(), nil)
	assert.Equal(t, errNotConfigured, err)
}

func TestStudentRepository_GetStudent(t *testing.T) {
	client, rec := newTestServer(t, http.StatusOK, `{
		"id": "s1", "user_id": "u1", "section_id": "sec1", "student_id": "S-12559", "status": "active",
		"profiles": {"id": "u1", "email": "siddh@example.com", "full_name": "Siddh Salgia", "role": "student"},
		"sections": {"id": "sec1", "class_id": "c4", "name": "D", "capacity": 30},
		"classes": {"id": "c4", "name": "4", "academic_year": "2024-2025"}
	}`)
	repos := NewRepositories(client)

	s, err := repos.Students.GetStudent(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "S-12559", s.StudentID)
	require.NotNil(t, s.Profile)
	assert.Equal(t, "Siddh Salgia", s.Profile.FullName)
	require.NotNil(t, s.Section)
	assert.Equal(t, "D", s.Section.Name)

	assert.Equal(t, http.MethodGet, rec.method)
	assert.Equal(t, "/rest/v1/students", rec.path)
	assert.Equal(t, []string{"*,profiles(*),sections(*),classes(*)"}, rec.query["select"])
	assert.Equal(t, []string{"eq.s1"}, rec.query["id"])
	assert.Equal(t, "anon-key", rec.header.Get("apikey"))
	assert.Equal(t, "Bearer anon-key", rec.header.Get("Authorization"))
	assert.Equal(t, "application/vnd.pgrst.object+json", rec.header.Get("Accept"))
}

func TestStudentRepository_notFound(t *testing.T) {
	client, _ := newTestServer(t, http.StatusNotAcceptable,
		`{"code":"PGRST116","details":"The result contains 0 rows","hint":null,"message":"JSON object requested, multiple (or no) rows returned"}`)

	_, err := NewRepositories(client).Students.GetStudent(context.Background(), "nope")
	assert.True(t, core.IsNotFound(err))
}

func TestAssignmentRepository_byStudent(t *testing.T) {
	t.Run("missing student", func(t *testing.T) {
		client, rec := newTestServer(t, http.StatusNotAcceptable, `{"code":"PGRST116","message":"no rows"}`)
		_, err := NewRepositories(client).Assignments.QueryAssignmentsByStudent(context.Background(), "s404")
		assert.Equal(t, school.ErrStudentNotFound, err)
		assert.Equal(t, "Student not found", err.Error())
		assert.True(t, core.IsNotFound(err))
		assert.Equal(t, []string{"section_id"}, rec.query["select"])
	})

	t.Run("server error", func(t *testing.T) {
		client, _ := newTestServer(t, http.StatusInternalServerError, `{"message":"boom"}`)
		_, err := NewRepositories(client).Assignments.QueryAssignmentsByStudent(context.Background(), "s1")
		require.Error(t, err)
		assert.False(t, core.IsNotFound(err))
		assert.Contains(t, err.Error(), "boom")
	})
}

func TestAssignmentRepository_bySection(t *testing.T) {
	client, rec := newTestServer(t, http.StatusOK, `[{"id":"a1","title":"Fractions","due_date":"2025-02-01","status":"active",
		"subjects":{"id":"m","name":"Mathematics"},"teachers":{"profiles":{"full_name":"Mrs. Harshal Yamgar"}}}]`)

	assignments, err := NewRepositories(client).Assignments.QueryAssignmentsBySection(context.Background(), "sec1")
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, "Fractions", assignments[0].Title)
	assert.Equal(t, "Mrs. Harshal Yamgar", assignments[0].Teacher.Profile.FullName)

	assert.Equal(t, []string{"eq.sec1"}, rec.query["section_id"])
	assert.Equal(t, []string{"eq.active"}, rec.query["status"])
	assert.Equal(t, []string{"due_date.asc"}, rec.query["order"])
}

func TestAttendanceRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("mark upserts", func(t *testing.T) {
		client, rec := newTestServer(t, http.StatusCreated, `[{"id":"x","student_id":"s1","date":"2025-02-03","status":"present","marked_by":"2"}]`)
		saved, err := NewRepositories(client).Attendance.MarkAttendance(ctx, []school.Attendance{
			{StudentID: "s1", Date: "2025-02-03", Status: school.AttendancePresent, MarkedBy: "2"},
		})
		require.NoError(t, err)
		assert.Len(t, saved, 1)

		assert.Equal(t, http.MethodPost, rec.method)
		assert.Equal(t, []string{"student_id,date"}, rec.query["on_conflict"])
		assert.Equal(t, "resolution=merge-duplicates,return=representation", rec.header.Get("Prefer"))
		assert.JSONEq(t, `[{"student_id":"s1","date":"2025-02-03","status":"present","marked_by":"2"}]`, rec.body)
	})

	t.Run("query with range", func(t *testing.T) {
		client, rec := newTestServer(t, http.StatusOK, `[]`)
		_, err := NewRepositories(client).Attendance.QueryAttendance(ctx, school.AttendanceFilter{
			StudentID: "s1", From: "2025-01-01", To: "2025-01-31",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"gte.2025-01-01", "lte.2025-01-31"}, rec.query["date"])
		assert.Equal(t, []string{"date.desc"}, rec.query["order"])
	})

	t.Run("stats rpc", func(t *testing.T) {
		client, rec := newTestServer(t, http.StatusOK, `{"present":18,"absent":2}`)
		stats, err := NewRepositories(client).Attendance.AttendanceStats(ctx, "s1", "")
		require.NoError(t, err)
		assert.JSONEq(t, `{"present":18,"absent":2}`, string(stats))
		assert.Equal(t, "/rest/v1/rpc/get_attendance_stats", rec.path)
		assert.JSONEq(t, `{"student_id":"s1","month_filter":null}`, rec.body)
	})
}

func TestMessageRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("conversation", func(t *testing.T) {
		client, rec := newTestServer(t, http.StatusOK, `[]`)
		_, err := NewRepositories(client).Messages.QueryConversation(ctx, "u1", "u2")
		require.NoError(t, err)
		assert.Equal(t,
			[]string{"(and(sender_id.eq.u1,recipient_id.eq.u2),and(sender_id.eq.u2,recipient_id.eq.u1))"},
			rec.query["or"])
		assert.Equal(t, []string{"created_at.asc"}, rec.query["order"])
	})

	t.Run("send forces unread", func(t *testing.T) {
		client, rec := newTestServer(t, http.StatusCreated, `{"id":"m1","sender_id":"u1","recipient_id":"u2","content":"hi","is_read":false,"message_type":"direct"}`)
		m, err := NewRepositories(client).Messages.SendMessage(ctx, school.Message{
			SenderID: "u1", RecipientID: "u2", Content: "hi", IsRead: true, MessageType: school.MessageDirect,
		})
		require.NoError(t, err)
		assert.Equal(t, "m1", m.ID)

		var sent map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(rec.body), &sent))
		assert.Equal(t, false, sent["is_read"])
	})

	t.Run("mark as read", func(t *testing.T) {
		client, rec := newTestServer(t, http.StatusNoContent, ``)
		require.NoError(t, NewRepositories(client).Messages.MarkAsRead(ctx, "m1"))
		assert.Equal(t, http.MethodPatch, rec.method)
		assert.Equal(t, []string{"eq.m1"}, rec.query["id"])
		assert.JSONEq(t, `{"is_read":true}`, rec.body)
	})
}

func TestEventRepository_QueryEvents(t *testing.T) {
	client, rec := newTestServer(t, http.StatusOK, `[{"id":"e1","title":"Sports Day","event_type":"sports","start_date":"2025-03-01"}]`)

	events, err := NewRepositories(client).Events.QueryEvents(context.Background(), school.EventFilter{
		From: "2025-03-01", To: "2025-03-31",
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, school.EventSports, events[0].EventType)
	assert.Equal(t, []string{"gte.2025-03-01", "lte.2025-03-31"}, rec.query["start_date"])
	assert.Nil(t, rec.query["school_id"])
}

func TestBusRepository_LatestLocation(t *testing.T) {
	client, rec := newTestServer(t, http.StatusOK, `{"id":"t1","route_id":"r1","latitude":18.52,"longitude":73.85}`)

	loc, err := NewRepositories(client).Bus.LatestLocation(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, 18.52, loc.Latitude)
	assert.Equal(t, []string{"timestamp.desc"}, rec.query["order"])
	assert.Equal(t, []string{"1"}, rec.query["limit"])
}

func TestSubscriptions(t *testing.T) {
	upgrader := websocket.Upgrader{}
	joined := make(chan envelope, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/realtime/v1/websocket", r.URL.Path)
		assert.Equal(t, "anon-key", r.URL.Query().Get("apikey"))
		conn, err := upgrader.Upgrade(w, r, nil)
		if !assert.NoError(t, err) {
			return
		}
		defer func() { _ = conn.Close() }()

		var join envelope
		if !assert.NoError(t, conn.ReadJSON(&join)) {
			return
		}
		joined <- join

		assert.NoError(t, conn.WriteJSON(envelope{Topic: join.Topic, Event: "phx_reply", Payload: json.RawMessage(`{"status":"ok"}`), Ref: join.Ref}))
		assert.NoError(t, conn.WriteJSON(envelope{
			Topic:   join.Topic,
			Event:   "postgres_changes",
			Payload: json.RawMessage(`{"data":{"type":"INSERT","table":"bus_tracking","record":{"route_id":"r1","latitude":1.5}}}`),
		}))

		// wait for the leave
		var leave envelope
		_ = conn.ReadJSON(&leave)
	}))
	defer srv.Close()

	conf := core.NewTestConfig()
	conf.Supabase.URL = srv.URL
	conf.Supabase.APIKey = "anon-key"
	rt := NewRealtime(conf, testutil.NewLogger())
	defer func() { _ = rt.Close() }()

	changes := make(chan school.Change, 1)
	sub, err := NewSubscriptions(rt).SubscribeBusTracking(context.Background(), "r1", func(c school.Change) { changes <- c })
	require.NoError(t, err)

	select {
	case join := <-joined:
		assert.Equal(t, "realtime:public:bus_tracking:route_id=eq.r1", join.Topic)
		assert.Equal(t, "phx_join", join.Event)
	case <-time.After(5 * time.Second):
		t.Fatal("no join received")
	}

	select {
	case c := <-changes:
		assert.Equal(t, "INSERT", c.Type)
		assert.Equal(t, "bus_tracking", c.Table)
		assert.JSONEq(t, `{"route_id":"r1","latitude":1.5}`, string(c.Record))
	case <-time.After(5 * time.Second):
		t.Fatal("no change received")
	}

	assert.NoError(t, sub.Unsubscribe())
}

func TestSubscriptions_sharedTopic(t *testing.T) {
	upgrader := websocket.Upgrader{}
	push := make(chan struct{})
	received := make(chan envelope, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if !assert.NoError(t, err) {
			return
		}
		defer func() { _ = conn.Close() }()

		var join envelope
		if !assert.NoError(t, conn.ReadJSON(&join)) {
			return
		}
		received <- join

		<-push
		assert.NoError(t, conn.WriteJSON(envelope{
			Topic:   join.Topic,
			Event:   "postgres_changes",
			Payload: json.RawMessage(`{"data":{"type":"INSERT","table":"bus_tracking","record":{"route_id":"r1"}}}`),
		}))

		var next envelope
		if err := conn.ReadJSON(&next); err == nil {
			received <- next
		}
	}))
	defer srv.Close()

	conf := core.NewTestConfig()
	conf.Supabase.URL = srv.URL
	rt := NewRealtime(conf, testutil.NewLogger())
	defer func() { _ = rt.Close() }()
	subs := NewSubscriptions(rt)

	first := make(chan school.Change, 1)
	second := make(chan school.Change, 1)
	sub1, err := subs.SubscribeBusTracking(context.Background(), "r1", func(c school.Change) { first <- c })
	require.NoError(t, err)
	sub2, err := subs.SubscribeBusTracking(context.Background(), "r1", func(c school.Change) { second <- c })
	require.NoError(t, err)

	select {
	case join := <-received:
		assert.Equal(t, "phx_join", join.Event)
	case <-time.After(5 * time.Second):
		t.Fatal("no join received")
	}
	close(push)

	for name, ch := range map[string]chan school.Change{"first": first, "second": second} {
		select {
		case c := <-ch:
			assert.JSONEq(t, `{"route_id":"r1"}`, string(c.Record), name)
		case <-time.After(5 * time.Second):
			t.Fatalf("%s subscriber received nothing", name)
		}
	}

	// the channel is left by the last subscriber only
	require.NoError(t, sub1.Unsubscribe())
	require.NoError(t, sub1.Unsubscribe())
	require.NoError(t, sub2.Unsubscribe())
	select {
	case leave := <-received:
		assert.Equal(t, "phx_leave", leave.Event)
		assert.Equal(t, "realtime:public:bus_tracking:route_id=eq.r1", leave.Topic)
	case <-time.After(5 * time.Second):
		t.Fatal("no leave received")
	}
}
