package message

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/schoolconnect/core"
)

var ErrNotFound = errors.Wrap(core.ErrNotFound, "conversation")

type AttachmentType string

const (
	AttachmentImage    AttachmentType = "image"
	AttachmentDocument AttachmentType = "document"
)

type (
	Attachment struct {
		Type AttachmentType `json:"type"`
		URL  string         `json:"url"`
		Name string         `json:"name,omitempty"`
	}

	Message struct {
		ID         string      `json:"id"`
		SenderID   string      `json:"senderId"`
		Text       string      `json:"text"`
		Time       string      `json:"time"`
		Read       bool        `json:"read"`
		Attachment *Attachment `json:"attachment,omitempty"`
	}

	// Contact is one row of the recent conversations list.
	Contact struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Role        string `json:"role"`
		Avatar      string `json:"avatar"`
		LastMessage string `json:"lastMessage"`
		Time        string `json:"time"`
		Unread      int    `json:"unread"`
	}

	Thread struct {
		Contact  Contact   `json:"contact"`
		Messages []Message `json:"messages"`
	}
)

// Search keeps the contacts whose name or last message contains query, ignoring case.
// An empty query keeps everything.
func Search(contacts []Contact, query string) []Contact {
	query = strings.ToLower(query)
	if query == "" {
		return contacts
	}
	found := make([]Contact, 0, len(contacts))
	for _, c := range contacts {
		if strings.Contains(strings.ToLower(c.Name), query) || strings.Contains(strings.ToLower(c.LastMessage), query) {
			found = append(found, c)
		}
	}
	return found
}
