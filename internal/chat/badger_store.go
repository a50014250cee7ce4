package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"

	"fonnect/internal/db"
	apperrors "fonnect/internal/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	convPrefix = "conv:"
	pairPrefix = "pair:"
)

// BadgerStore is the embedded Store for single-instance deployments.
// Conversations are stored whole under "conv:{id}"; unnamed ones are indexed
// by "pair:{pairKey}" -> id, which makes the participant set unique.
type BadgerStore struct {
	db *badger.DB
	// writes serializes read-modify-write cycles on conversations.
	writes sync.Mutex
}

func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

func (s *BadgerStore) Create(_ context.Context, c *Conversation) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}

	s.writes.Lock()
	defer s.writes.Unlock()
	return db.Update(s.db, func(txn *badger.Txn) error {
		if key := c.PairKey(); key != "" {
			pk := []byte(pairPrefix + key)
			if _, err := txn.Get(pk); err == nil {
				return apperrors.ErrDuplicateConversation
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			if err := txn.Set(pk, []byte(c.ID)); err != nil {
				return err
			}
		}
		return txn.Set([]byte(convPrefix+c.ID), data)
	})
}

func (s *BadgerStore) FindByID(_ context.Context, id string) (*Conversation, error) {
	var c *Conversation
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		c, err = getConversation(txn, id)
		return err
	})
	return c, err
}

func (s *BadgerStore) FindByParticipants(_ context.Context, participants []string) (*Conversation, error) {
	var c *Conversation
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(pairPrefix + PairKey(participants...)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return apperrors.ErrConversationNotFound
		}
		if err != nil {
			return err
		}
		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		c, err = getConversation(txn, string(id))
		return err
	})
	return c, err
}

func (s *BadgerStore) FindNamed(_ context.Context) ([]GroupSummary, error) {
	var groups []GroupSummary
	err := s.scan(func(c *Conversation) {
		if c.IsGroup() {
			groups = append(groups, GroupSummary{ID: c.ID, Name: c.Name})
		}
	})
	return groups, err
}

func (s *BadgerStore) FindUnnamedFor(_ context.Context, userID string) ([]Conversation, error) {
	var out []Conversation
	err := s.scan(func(c *Conversation) {
		if !c.IsGroup() && c.HasParticipant(userID) {
			c.Messages = nil
			out = append(out, *c)
		}
	})
	return out, err
}

func (s *BadgerStore) AppendMessage(_ context.Context, id string, m Message) error {
	return s.modify(id, func(c *Conversation) error {
		c.Messages = append(c.Messages, m)
		return nil
	})
}

func (s *BadgerStore) AddParticipant(_ context.Context, id, userID string) error {
	return s.modify(id, func(c *Conversation) error {
		if c.HasParticipant(userID) {
			return apperrors.ErrAlreadyParticipant
		}
		c.Participants = append(c.Participants, userID)
		return nil
	})
}

func (s *BadgerStore) modify(id string, fn func(c *Conversation) error) error {
	s.writes.Lock()
	defer s.writes.Unlock()
	return db.Update(s.db, func(txn *badger.Txn) error {
		c, err := getConversation(txn, id)
		if err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}
		data, err := json.Marshal(c)
		if err != nil {
			return err
		}
		return txn.Set([]byte(convPrefix+id), data)
	})
}

// scan visits every conversation in creation order.
func (s *BadgerStore) scan(visit func(c *Conversation)) error {
	var all []*Conversation
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(convPrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			c := &Conversation{}
			if err := it.Item().Value(func(v []byte) error { return json.Unmarshal(v, c) }); err != nil {
				return err
			}
			all = append(all, c)
		}
		return nil
	})
	if err != nil {
		return err
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	for _, c := range all {
		visit(c)
	}
	return nil
}

func getConversation(txn *badger.Txn, id string) (*Conversation, error) {
	item, err := txn.Get([]byte(convPrefix + id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, apperrors.ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}
	c := &Conversation{}
	if err := item.Value(func(v []byte) error { return json.Unmarshal(v, c) }); err != nil {
		return nil, err
	}
	return c, nil
}
