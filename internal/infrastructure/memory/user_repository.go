package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/kunalverma25/users-api/internal/domain/entity"
	"github.com/kunalverma25/users-api/internal/domain/repository"
)

// UserRepository is an in-memory stand-in for the Postgres store. It honors
// the same contract: username uniqueness, sentinel errors, created-descending
// ordering. Used by tests and local experiments; safe for concurrent use.
type UserRepository struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]*entity.User)}
}

func (r *UserRepository) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, other := range r.users {
		if other.Username == u.Username {
			return repository.ErrUsernameTaken
		}
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepository) List(_ context.Context, limit, offset *int) ([]*entity.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]*entity.User, 0, len(r.users))
	for _, u := range r.users {
		cp := *u
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].Created.Equal(all[j].Created) {
			return all[i].Created.After(all[j].Created)
		}
		return all[i].ID < all[j].ID
	})

	count := int64(len(all))
	if offset != nil {
		if *offset >= len(all) {
			all = nil
		} else {
			all = all[*offset:]
		}
	}
	if limit != nil && *limit < len(all) {
		all = all[:*limit]
	}
	return all, count, nil
}

func (r *UserRepository) Update(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, other := range r.users {
		if id != u.ID && other.Username == u.Username {
			return repository.ErrUsernameTaken
		}
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *UserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

// Count reports the number of stored records; test helper.
func (r *UserRepository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

var _ repository.UserRepository = (*UserRepository)(nil)
