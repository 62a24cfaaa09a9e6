package message

import (
	"sync"

	"github.com/trezcool/schoolconnect/core"
)

// Conversation is the open chat view: one thread plus the draft being typed.
type Conversation struct {
	mu       sync.Mutex
	viewerID string
	thread   *Thread
	draft    string
}

func NewConversation(viewerID string, thread *Thread) *Conversation {
	return &Conversation{viewerID: viewerID, thread: thread}
}

// Contact returns the selected chat, if any.
func (c *Conversation) Contact() (Contact, bool) {
	if c.thread == nil {
		return Contact{}, false
	}
	return c.thread.Contact, true
}

func (c *Conversation) Messages() []Message {
	if c.thread == nil {
		return nil
	}
	return c.thread.Messages
}

// IsOwn reports whether the viewer sent m.
func (c *Conversation) IsOwn(m Message) bool {
	return m.SenderID == c.viewerID
}

func (c *Conversation) UnreadCount() int {
	n := 0
	for _, m := range c.Messages() {
		if !m.Read && !c.IsOwn(m) {
			n++
		}
	}
	return n
}

func (c *Conversation) SetDraft(text string) {
	c.mu.Lock()
	c.draft = text
	c.mu.Unlock()
}

func (c *Conversation) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Send clears a non-blank draft when a chat is selected and reports whether it did.
// Nothing is delivered: chat messages are not persisted yet.
func (c *Conversation) Send() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if core.IsBlank(c.draft) || c.thread == nil {
		return false
	}
	c.draft = ""
	return true
}
