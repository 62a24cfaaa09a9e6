package inmemdb

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/schoolconnect/core"
	"github.com/trezcool/schoolconnect/core/session"
)

type accountDirectory struct {
	db *accountTable
}

func NewAccountDirectory(db *DB) session.Directory {
	return &accountDirectory{db: db.account}
}

func (dir *accountDirectory) Lookup(_ context.Context, email string) (session.Account, error) {
	dir.db.mutex.RLock()
	defer dir.db.mutex.RUnlock()

	if acc, ok := dir.db.table[strings.ToLower(email)]; ok {
		return acc, nil
	}
	return session.Account{}, errors.Wrapf(core.ErrNotFound, "account %q", email)
}

// AddAccount registers acc under its lowercased sign-in email.
func AddAccount(db *DB, email string, acc session.Account) {
	db.account.mutex.Lock()
	defer db.account.mutex.Unlock()
	db.account.table[strings.ToLower(email)] = acc
}
