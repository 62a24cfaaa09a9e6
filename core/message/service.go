package message

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/schoolconnect/core/session"
)

type (
	Repository interface {
		QueryContacts(ctx context.Context, viewerID string) ([]Contact, error)
		// GetThread returns ErrNotFound when the viewer has no conversation with contactID.
		GetThread(ctx context.Context, viewerID, contactID string) (Thread, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Contacts lists the viewer's recent conversations filtered by query.
func (svc *Service) Contacts(ctx context.Context, viewer session.User, query string) ([]Contact, error) {
	contacts, err := svc.repo.QueryContacts(ctx, viewer.ID)
	if err != nil {
		return nil, errors.Wrap(err, "querying contacts")
	}
	return Search(contacts, query), nil
}

// Conversation opens the viewer's chat with contactID.
func (svc *Service) Conversation(ctx context.Context, viewer session.User, contactID string) (*Conversation, error) {
	thread, err := svc.repo.GetThread(ctx, viewer.ID, contactID)
	if err != nil {
		return nil, err
	}
	return NewConversation(viewer.ID, &thread), nil
}
