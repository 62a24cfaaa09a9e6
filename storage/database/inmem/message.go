package inmemdb

import (
	"context"

	"github.com/trezcool/schoolconnect/core/message"
)

type messageRepository struct {
	db *messageTable
}

// NewMessageRepository serves the demo conversations, seeded per viewer on first access.
func NewMessageRepository(db *DB) message.Repository {
	return &messageRepository{db: db.message}
}

func (repo *messageRepository) threads(viewerID string) []message.Thread {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	threads, ok := repo.db.table[viewerID]
	if !ok {
		threads = message.DemoThreads(viewerID)
		repo.db.table[viewerID] = threads
	}
	return threads
}

func (repo *messageRepository) QueryContacts(_ context.Context, viewerID string) ([]message.Contact, error) {
	threads := repo.threads(viewerID)
	contacts := make([]message.Contact, len(threads))
	for i, t := range threads {
		contacts[i] = t.Contact
	}
	return contacts, nil
}

func (repo *messageRepository) GetThread(_ context.Context, viewerID, contactID string) (message.Thread, error) {
	for _, t := range repo.threads(viewerID) {
		if t.Contact.ID == contactID {
			t.Messages = append([]message.Message(nil), t.Messages...)
			return t, nil
		}
	}
	return message.Thread{}, message.ErrNotFound
}
