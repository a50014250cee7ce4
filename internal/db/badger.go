package db

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

const maxTxnRetries = 5

// OpenBadger opens the embedded key-value store used when no PostgreSQL
// server is configured.
func OpenBadger(path string) (*badger.DB, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLoggingLevel(badger.WARNING))
	if err != nil {
		return nil, fmt.Errorf("badger open %s: %w", path, err)
	}
	return db, nil
}

// Update runs fn in a read-write transaction, retrying when Badger reports a
// conflict with a concurrent transaction.
func Update(db *badger.DB, fn func(txn *badger.Txn) error) error {
	var err error
	for i := 0; i < maxTxnRetries; i++ {
		err = db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}
