package db

import (
	"context"
	"database/sql"
	"errors"
)

// History pairs the run history queries with the handle they were opened
// from so callers can group writes into a single transaction.
type History struct {
	*Queries
	database *sql.DB
}

func NewHistory(database *sql.DB) History {
	return History{
		Queries:  New(database),
		database: database,
	}
}

// Tx runs fn inside one transaction. Nothing fn wrote survives unless it
// returns nil and the commit succeeds.
func (h History) Tx(ctx context.Context, fn func(tx *Queries) error) error {
	sqltx, err := h.database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	err = fn(h.WithTx(sqltx))
	if err != nil {
		return errors.Join(err, sqltx.Rollback())
	}
	return sqltx.Commit()
}
