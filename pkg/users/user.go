// Package users serves user records from a badger-backed document store.
package users

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a Store when no user has the requested id.
var ErrNotFound = errors.New("user not found")

// User is the stored document.
type User struct {
	ID    int    `json:"id" validate:"gt=0"`
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

// Placeholder is returned for ids that have no stored document.
func Placeholder(id int) User {
	return User{ID: id, Name: "not found", Email: "na"}
}

// Store persists users by id.
type Store interface {
	Get(ctx context.Context, id int) (User, error)
	Put(ctx context.Context, u User) error
	Close() error
}
