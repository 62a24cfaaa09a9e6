package main

import (
	"context"
	"database/sql"

	"github.com/trezcool/schoolconnect/storage/database"
)

var migrateFunc = database.RunMigrations // mockable

func (cli *commandLine) migrate(db *sql.DB, args []string) error {
	return migrateFunc(context.Background(), args[0], db, args[1:]...)
}
