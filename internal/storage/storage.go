// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"errors"

	"rent_bot/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Storage is the interface for all persistence operations.
type Storage interface {
	// Subscribe registers chatID with the given criteria. It reports false
	// and leaves existing data untouched if the chat is already subscribed.
	Subscribe(ctx context.Context, chatID int64, c model.Criteria) (bool, error)
	IsSubscribed(ctx context.Context, chatID int64) (bool, error)
	// ListSubscribers returns subscribers in registration order.
	ListSubscribers(ctx context.Context) ([]model.Subscriber, error)
	// RemoveSubscribers deletes the subscribers and their criteria.
	RemoveSubscribers(ctx context.Context, chatIDs ...int64) error

	GetCriteria(ctx context.Context, chatID int64) (model.Criteria, error)
	// SaveCriteria replaces the whole criteria record of chatID. It returns
	// ErrNotFound for a chat that is not subscribed.
	SaveCriteria(ctx context.Context, chatID int64, c model.Criteria) error

	MarkSeen(ctx context.Context, ids ...string) error
	IsSeen(ctx context.Context, id string) (bool, error)
	ListSeen(ctx context.Context) ([]string, error)

	Close() error
}
