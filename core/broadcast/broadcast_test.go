package broadcast_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/schoolconnect/core"
	"github.com/trezcool/schoolconnect/core/broadcast"
	inmemdb "github.com/trezcool/schoolconnect/storage/database/inmem"
	testutil "github.com/trezcool/schoolconnect/tests"
)

type recordingDispatcher struct {
	mu   sync.Mutex
	sent []broadcast.Broadcast
	err  error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, b broadcast.Broadcast) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, b)
	return nil
}

func newService(disp broadcast.Dispatcher) *broadcast.Service {
	repo := inmemdb.NewBroadcastRepository(inmemdb.Open())
	return broadcast.NewService(repo, disp, testutil.NewLogger(), broadcast.WithDelays(0, 0))
}

func TestAudience(t *testing.T) {
	aud := broadcast.NewAudience()
	assert.Equal(t, []broadcast.AudienceID{broadcast.AudienceStudents, broadcast.AudienceTeachers}, aud.SelectedIDs())
	assert.Equal(t, 1335, aud.TotalRecipients())
	assert.Equal(t, "All Students, All Teachers", aud.Labels())

	require.NoError(t, aud.Toggle(broadcast.AudienceParents))
	assert.Equal(t, 2315, aud.TotalRecipients())

	require.NoError(t, aud.Toggle(broadcast.AudienceStudents))
	assert.Equal(t, "All Teachers, All Parents", aud.Labels())

	err := aud.Toggle("aliens")
	assert.True(t, errors.Is(err, broadcast.ErrUnknownAudience))

	require.NoError(t, aud.Select())
	assert.Empty(t, aud.Selected())
	assert.Zero(t, aud.TotalRecipients())
	assert.Len(t, aud.Options(), 4)
}

func TestDraft(t *testing.T) {
	tests := []struct {
		name    string
		draft   func() broadcast.Draft
		wantErr error
	}{
		{
			name:  "sendable",
			draft: func() broadcast.Draft { return broadcast.Draft{Title: "Closed", Body: "Snow day", Audience: broadcast.NewAudience()} },
		},
		{
			name: "no audience",
			draft: func() broadcast.Draft {
				aud := broadcast.NewAudience()
				_ = aud.Select()
				return broadcast.Draft{Title: "Closed", Body: "Snow day", Audience: aud}
			},
			wantErr: broadcast.ErrNoAudience,
		},
		{
			name:    "blank title",
			draft:   func() broadcast.Draft { return broadcast.Draft{Title: " ", Body: "Snow day", Audience: broadcast.NewAudience()} },
			wantErr: broadcast.ErrNoContent,
		},
		{
			name: "longest title and body",
			draft: func() broadcast.Draft {
				return broadcast.Draft{
					Title:    " " + strings.Repeat("t", broadcast.MaxTitleLength) + " ",
					Body:     strings.Repeat("b", broadcast.MaxBodyLength),
					Audience: broadcast.NewAudience(),
				}
			},
		},
		{
			name: "title too long",
			draft: func() broadcast.Draft {
				return broadcast.Draft{Title: strings.Repeat("t", broadcast.MaxTitleLength+1), Body: "Snow day", Audience: broadcast.NewAudience()}
			},
			wantErr: core.ErrTooLong,
		},
		{
			name: "body too long",
			draft: func() broadcast.Draft {
				return broadcast.Draft{Title: "Closed", Body: strings.Repeat("é", broadcast.MaxBodyLength+1), Audience: broadcast.NewAudience()}
			},
			wantErr: core.ErrTooLong,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := tt.draft()
			err := d.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				assert.True(t, d.CanSend())
				return
			}
			var vErr *core.ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.wantErr, vErr.Err)
			assert.False(t, d.CanSend())
		})
	}
}

func TestDraft_Confirmation(t *testing.T) {
	d := broadcast.Draft{Title: "t", Body: "b", Audience: broadcast.NewAudience()}
	assert.Equal(t,
		"Are you sure you want to send this message to 1335 recipients?\n\nAudience: All Students, All Teachers",
		d.Confirmation())
}

func TestService_Send(t *testing.T) {
	ctx := context.Background()
	disp := new(recordingDispatcher)
	svc := newService(disp)
	draft := broadcast.Draft{Title: " School closed ", Body: "Snow day tomorrow.", Audience: broadcast.NewAudience()}

	_, err := svc.Send(ctx, testutil.Teacher, draft)
	assert.Equal(t, core.ErrForbidden, err)

	b, err := svc.Send(ctx, testutil.Admin, draft)
	require.NoError(t, err)
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, broadcast.KindBroadcast, b.Kind)
	assert.Equal(t, "School closed", b.Title)
	assert.Equal(t, 1335, b.Recipients)
	assert.Equal(t, "Your message has been successfully sent to 1335 recipients.", b.Message())
	require.Len(t, disp.sent, 1)
	assert.Equal(t, b.ID, disp.sent[0].ID)

	history, err := svc.History(ctx, testutil.Admin)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, b.ID, history[0].ID)
}

func TestService_Send_failures(t *testing.T) {
	draft := broadcast.Draft{Title: "t", Body: "b", Audience: broadcast.NewAudience()}

	t.Run("dispatch fails", func(t *testing.T) {
		svc := newService(&recordingDispatcher{err: errors.New("smtp down")})
		_, err := svc.Send(context.Background(), testutil.Admin, draft)
		assert.Equal(t, broadcast.ErrSendFailed, errors.Cause(err))
	})

	t.Run("cancelled before sending", func(t *testing.T) {
		disp := new(recordingDispatcher)
		repo := inmemdb.NewBroadcastRepository(inmemdb.Open())
		svc := broadcast.NewService(repo, disp, testutil.NewLogger())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := svc.Send(ctx, testutil.Admin, draft)
		assert.True(t, errors.Is(err, context.Canceled))
		assert.Empty(t, disp.sent)

		history, err := svc.History(context.Background(), testutil.Admin)
		require.NoError(t, err)
		assert.Empty(t, history)
	})
}

func TestService_SendClassMessage(t *testing.T) {
	ctx := context.Background()
	disp := new(recordingDispatcher)
	svc := newService(disp)

	tests := []struct {
		name    string
		msg     broadcast.ClassMessage
		wantErr error
	}{
		{name: "no class", msg: broadcast.ClassMessage{Title: "Quiz", Body: "Friday"}, wantErr: broadcast.ErrClassIncomplete},
		{name: "unknown class", msg: broadcast.ClassMessage{ClassID: "9", Title: "Quiz", Body: "Friday"}, wantErr: broadcast.ErrClassNotFound},
		{
			name:    "title too long",
			msg:     broadcast.ClassMessage{ClassID: "2", Title: strings.Repeat("t", broadcast.MaxTitleLength+1), Body: "Friday"},
			wantErr: core.ErrTooLong,
		},
		{
			name:    "body too long",
			msg:     broadcast.ClassMessage{ClassID: "2", Title: "Quiz", Body: strings.Repeat("b", broadcast.MaxClassBodyLength+1)},
			wantErr: core.ErrTooLong,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SendClassMessage(ctx, testutil.Teacher, tt.msg)
			var vErr *core.ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.wantErr, vErr.Err)
		})
	}

	_, err := svc.SendClassMessage(ctx, testutil.Admin, broadcast.ClassMessage{ClassID: "1", Title: "Quiz", Body: "Friday"})
	assert.Equal(t, core.ErrForbidden, err)

	b, err := svc.SendClassMessage(ctx, testutil.Teacher, broadcast.ClassMessage{ClassID: "2", Title: "Quiz", Body: "Friday"})
	require.NoError(t, err)
	assert.Equal(t, broadcast.KindClass, b.Kind)
	assert.Equal(t, "Class 5A", b.Labels)
	assert.Equal(t, []broadcast.AudienceID{"class:2"}, b.Audiences)
	assert.Equal(t, "Your message has been sent to all 32 students in Class 5A.", b.Message())

	history, err := svc.History(ctx, testutil.Teacher)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	_, err = svc.SendClassMessage(ctx, testutil.Teacher, broadcast.ClassMessage{
		ClassID: "2",
		Title:   strings.Repeat("t", broadcast.MaxTitleLength),
		Body:    strings.Repeat("b", broadcast.MaxClassBodyLength),
	})
	require.NoError(t, err, "longest class message")

	_, err = svc.History(ctx, testutil.Student)
	assert.Equal(t, core.ErrForbidden, err)
}

func TestService_Classes(t *testing.T) {
	svc := newService(new(recordingDispatcher))

	classes, err := svc.Classes(testutil.Teacher)
	require.NoError(t, err)
	require.Len(t, classes, 3)
	assert.Equal(t, "Class 4D", classes[0].Label())

	_, err = svc.Classes(testutil.Student)
	assert.Equal(t, core.ErrForbidden, err)
}
