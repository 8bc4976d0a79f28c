package repository

import (
	"context"
	"errors"

	"github.com/kunalverma25/users-api/internal/domain/entity"
)

// Sentinel errors the store surfaces instead of raising. The controller maps
// these onto envelope failures.
var (
	ErrNotFound      = errors.New("user does not exist")
	ErrUsernameTaken = errors.New("a user with that username already exists")
)

// UserRepository defines the interface for user-related database operations.
// List orders by created descending with id as tie-break; nil limit/offset
// mean unbounded.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	List(ctx context.Context, limit, offset *int) ([]*entity.User, int64, error)
	Update(ctx context.Context, u *entity.User) error
	Delete(ctx context.Context, id string) error
}
