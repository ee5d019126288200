package services

import (
	"context"
	"errors"

	"blogapi/domain/entities"
)

var (
	ErrNonExistentData = errors.New("storage: non-existent data")
	ErrUnavailable     = errors.New("storage: unavailable")
)

// Storage is the data-access layer between the post service and a document store.
// Insert assigns the id of the post it is given. Implementations return
// ErrNonExistentData for unknown ids and wrap connectivity failures with
// ErrUnavailable.
type Storage interface {
	Insert(ctx context.Context, post *entities.Post) error
	FindByID(ctx context.Context, id string) (*entities.Post, error)
	FindAll(ctx context.Context) ([]entities.Post, error)
	UpdateByID(ctx context.Context, id string, patch entities.PostPatch) error
	DeleteByID(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

// Pinger is implemented by storages that can report backend reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}
