package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"fonnect/internal/db"
	apperrors "fonnect/internal/errors"

	"github.com/dgraph-io/badger/v4"
)

const (
	userPrefix   = "user:"
	userIDPrefix = "user-id:"
)

// BadgerRepository is the embedded Store. Users live under
// "user:{username}" with a "user-id:{id}" -> username index.
type BadgerRepository struct {
	db *badger.DB
}

func NewBadgerRepository(db *badger.DB) *BadgerRepository {
	return &BadgerRepository{db: db}
}

// record keeps the password hash, which User hides from JSON.
type record struct {
	User
	Password string `json:"password"`
}

func (r *BadgerRepository) CreateUser(_ context.Context, u *User) error {
	data, err := json.Marshal(record{User: *u, Password: u.Password})
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	return db.Update(r.db, func(txn *badger.Txn) error {
		key := []byte(userPrefix + u.Username)
		if _, err := txn.Get(key); err == nil {
			return apperrors.ErrUsernameTaken
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set([]byte(userIDPrefix+u.ID), []byte(u.Username))
	})
}

func (r *BadgerRepository) GetUserByUsername(_ context.Context, username string) (*User, error) {
	var u *User
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		u, err = getByUsername(txn, username)
		return err
	})
	return u, err
}

func (r *BadgerRepository) GetUserByID(_ context.Context, id string) (*User, error) {
	var u *User
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		u, err = getByID(txn, id)
		return err
	})
	return u, err
}

func (r *BadgerRepository) GetUsersByIDs(_ context.Context, ids []string) (map[string]*User, error) {
	out := make(map[string]*User, len(ids))
	err := r.db.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			u, err := getByID(txn, id)
			if errors.Is(err, apperrors.ErrUserNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			out[id] = u
		}
		return nil
	})
	return out, err
}

func (r *BadgerRepository) ListUsers(_ context.Context) ([]User, error) {
	var users []User
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(userPrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec record
			if err := it.Item().Value(func(v []byte) error { return json.Unmarshal(v, &rec) }); err != nil {
				return err
			}
			users = append(users, rec.User)
		}
		return nil
	})
	sort.SliceStable(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, err
}

func getByID(txn *badger.Txn, id string) (*User, error) {
	item, err := txn.Get([]byte(userIDPrefix + id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	username, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	return getByUsername(txn, string(username))
}

func getByUsername(txn *badger.Txn, username string) (*User, error) {
	item, err := txn.Get([]byte(userPrefix + username))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	var rec record
	if err := item.Value(func(v []byte) error { return json.Unmarshal(v, &rec) }); err != nil {
		return nil, err
	}
	u := rec.User
	u.Password = rec.Password
	return &u, nil
}
