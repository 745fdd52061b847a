package users

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/go-playground/validator/v10"
)

const keyPrefix = "users/"

var validate = validator.New()

// BadgerStore keeps each user as a JSON document under users/<id>.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens the store at path. An empty path opens an in-memory database.
func OpenBadger(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(strings.TrimSpace(path)).WithLogger(nil)
	if opts.Dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open user store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func key(id int) []byte {
	return []byte(keyPrefix + strconv.Itoa(id))
}

func (s *BadgerStore) Get(ctx context.Context, id int) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	var u User
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return sonic.Unmarshal(val, &u)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

func (s *BadgerStore) Put(ctx context.Context, u User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validate.Struct(u); err != nil {
		return fmt.Errorf("invalid user: %w", err)
	}
	data, err := sonic.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user %d: %w", u.ID, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(u.ID), data)
	})
}

func (s *BadgerStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
