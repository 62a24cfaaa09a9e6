package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolconnect/core/broadcast"
)

type (
	broadcastRepository struct {
		db sqlx.ExtContext
	}

	broadcastRow struct {
		broadcast.Broadcast
		Audiences pq.StringArray `db:"audiences"`
	}
)

func NewBroadcastRepository(db sqlx.ExtContext) broadcast.Repository {
	return &broadcastRepository{db: db}
}

func (row broadcastRow) toBroadcast() broadcast.Broadcast {
	b := row.Broadcast
	b.Audiences = make([]broadcast.AudienceID, len(row.Audiences))
	for i, id := range row.Audiences {
		b.Audiences[i] = broadcast.AudienceID(id)
	}
	return b
}

func (repo *broadcastRepository) CreateBroadcast(ctx context.Context, b broadcast.Broadcast) (broadcast.Broadcast, error) {
	row := broadcastRow{Broadcast: b, Audiences: make(pq.StringArray, len(b.Audiences))}
	for i, id := range b.Audiences {
		row.Audiences[i] = string(id)
	}

	q := `INSERT INTO broadcasts (id, kind, sender_id, sender_name, title, body, audiences, labels, recipients, sent_at)
	VALUES (:id, :kind, :sender_id, :sender_name, :title, :body, :audiences, :labels, :recipients, :sent_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.db, q, row); err != nil {
		return broadcast.Broadcast{}, errors.Wrap(err, "inserting broadcast")
	}
	return b, nil
}

func (repo *broadcastRepository) QueryBroadcasts(ctx context.Context, senderID string) ([]broadcast.Broadcast, error) {
	q := `SELECT id, kind, sender_id, sender_name, title, body, audiences, labels, recipients, sent_at FROM broadcasts`
	var args []interface{}
	if senderID != "" {
		q += ` WHERE sender_id = $1`
		args = append(args, senderID)
	}
	q += ` ORDER BY sent_at DESC`

	var rows []broadcastRow
	if err := sqlx.SelectContext(ctx, repo.db, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying broadcasts")
	}
	res := make([]broadcast.Broadcast, len(rows))
	for i, row := range rows {
		res[i] = row.toBroadcast()
	}
	return res, nil
}
