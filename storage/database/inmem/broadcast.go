package inmemdb

import (
	"context"

	"github.com/trezcool/schoolconnect/core/broadcast"
)

type broadcastRepository struct {
	db *broadcastTable
}

func NewBroadcastRepository(db *DB) broadcast.Repository {
	return &broadcastRepository{db: db.broadcast}
}

func (repo *broadcastRepository) CreateBroadcast(_ context.Context, b broadcast.Broadcast) (broadcast.Broadcast, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	b.Audiences = append([]broadcast.AudienceID(nil), b.Audiences...)
	repo.db.table = append([]*broadcast.Broadcast{&b}, repo.db.table...)
	return b, nil
}

func (repo *broadcastRepository) QueryBroadcasts(_ context.Context, senderID string) ([]broadcast.Broadcast, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	res := make([]broadcast.Broadcast, 0, len(repo.db.table))
	for _, b := range repo.db.table {
		if senderID == "" || b.SenderID == senderID {
			res = append(res, *b)
		}
	}
	return res, nil
}
