package db

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

const (
	mysqlErrLockWaitTimeout = 1205
	mysqlErrDeadlock        = 1213
)

// RunInTx executes fn inside a transaction. The transaction commits when fn
// returns nil and rolls back otherwise, so every multi-row mutation lands as
// one unit. A deadlock or lock-wait timeout is retried exactly once; any
// other error is surfaced immediately.
func RunInTx(dbc *sql.DB, fn func(tx *sql.Tx) error) error {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		err = runOnce(dbc, fn)
		if err == nil || !IsRetryable(err) {
			return err
		}
	}
	return err
}

func runOnce(dbc *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := dbc.Begin()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// IsRetryable reports whether the error is a transient MySQL locking failure.
func IsRetryable(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlErrDeadlock || me.Number == mysqlErrLockWaitTimeout
	}
	return false
}
