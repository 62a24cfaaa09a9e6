package message_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/schoolconnect/core"
	"github.com/trezcool/schoolconnect/core/message"
	inmemdb "github.com/trezcool/schoolconnect/storage/database/inmem"
	testutil "github.com/trezcool/schoolconnect/tests"
)

func TestSearch(t *testing.T) {
	contacts := []message.Contact{
		{ID: "1", Name: "Mrs. Sarah Wilson", LastMessage: "Don't forget to submit your homework by Friday"},
		{ID: "2", Name: "Mr. James Brown", LastMessage: "Great work on your project presentation"},
		{ID: "3", Name: "Principal Davis", LastMessage: "Reminder: Parent-teacher meeting next week"},
	}

	tests := []struct {
		name    string
		query   string
		wantIDs []string
	}{
		{name: "empty query", query: "", wantIDs: []string{"1", "2", "3"}},
		{name: "by name", query: "BROWN", wantIDs: []string{"2"}},
		{name: "by last message", query: "meeting", wantIDs: []string{"3"}},
		{name: "matches both", query: "wil", wantIDs: []string{"1"}},
		{name: "no match", query: "zebra", wantIDs: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids := []string{}
			for _, c := range message.Search(contacts, tt.query) {
				ids = append(ids, c.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestService_Conversation(t *testing.T) {
	ctx := context.Background()
	svc := message.NewService(inmemdb.NewMessageRepository(inmemdb.Open()))

	contacts, err := svc.Contacts(ctx, testutil.Student, "")
	require.NoError(t, err)
	require.Len(t, contacts, 3)
	assert.Equal(t, 1, contacts[0].Unread)

	conv, err := svc.Conversation(ctx, testutil.Student, "1")
	require.NoError(t, err)
	contact, ok := conv.Contact()
	require.True(t, ok)
	assert.Equal(t, "Mrs. Sarah Wilson", contact.Name)

	// the student shares id "1" with Mrs. Wilson, so her messages read as the student's own
	msgs := conv.Messages()
	require.Len(t, msgs, 4)
	assert.True(t, conv.IsOwn(msgs[0]))
	assert.True(t, conv.IsOwn(msgs[2]))
	assert.Equal(t, 0, conv.UnreadCount())

	conv, err = svc.Conversation(ctx, testutil.Teacher, "1")
	require.NoError(t, err)
	msgs = conv.Messages()
	require.Len(t, msgs, 4)
	assert.False(t, conv.IsOwn(msgs[0]))
	assert.True(t, conv.IsOwn(msgs[2]))
	assert.Equal(t, 1, conv.UnreadCount())

	_, err = svc.Conversation(ctx, testutil.Student, "99")
	assert.True(t, core.IsNotFound(err))
}

func TestConversation_Send(t *testing.T) {
	conv := message.NewConversation("1", &message.Thread{Contact: message.Contact{ID: "2"}})

	assert.False(t, conv.Send(), "empty draft")

	conv.SetDraft("   ")
	assert.False(t, conv.Send(), "blank draft")
	assert.Equal(t, "   ", conv.Draft())

	conv.SetDraft("See you tomorrow")
	assert.True(t, conv.Send())
	assert.Empty(t, conv.Draft())
	assert.Empty(t, conv.Messages(), "sent messages are not stored")

	noChat := message.NewConversation("1", nil)
	noChat.SetDraft("hello?")
	assert.False(t, noChat.Send())
	_, ok := noChat.Contact()
	assert.False(t, ok)
}
