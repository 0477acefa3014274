package persistence

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/docflow/modules/core/domain/aggregates/user"
)

// InmemUserRepository backs tests.
type InmemUserRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*user.User
}

func NewInmemUserRepository() *InmemUserRepository {
	return &InmemUserRepository{users: make(map[uuid.UUID]*user.User)}
}

func (r *InmemUserRepository) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, found := r.users[id]
	if !found {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (r *InmemUserRepository) GetByIDs(_ context.Context, ids []uuid.UUID) ([]*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*user.User, 0, len(ids))
	for _, id := range ids {
		if u, found := r.users[id]; found {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *InmemUserRepository) GetByEmail(_ context.Context, email string) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.users {
		if u.Email() == email {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *InmemUserRepository) Search(_ context.Context, params *user.FindParams) ([]*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q := strings.ToLower(params.Q)
	out := make([]*user.User, 0)
	for _, u := range r.users {
		if u.ID() == params.ExcludeID {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(u.Name()), q) && !strings.Contains(u.Email(), q) {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	if params.Limit > 0 && params.Limit < len(out) {
		out = out[:params.Limit]
	}
	return out, nil
}

func (r *InmemUserRepository) Create(_ context.Context, u *user.User) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	created := user.Hydrate(uuid.New(), u.Email(), u.Name(), u.PasswordHash(), now, now)
	r.users[created.ID()] = created
	return created, nil
}

func (r *InmemUserRepository) Update(_ context.Context, u *user.User) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, found := r.users[u.ID()]; !found {
		return nil, ErrUserNotFound
	}
	r.users[u.ID()] = u
	return u, nil
}

func (r *InmemUserRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, found := r.users[id]; !found {
		return ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}
