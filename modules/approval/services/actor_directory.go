package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/iota-uz/docflow/modules/core/domain/aggregates/user"
	corepersistence "github.com/iota-uz/docflow/modules/core/infrastructure/persistence"
)

// Actor is the slice of a user the approval module cares about.
type Actor struct {
	ID    uuid.UUID
	Name  string
	Email string
}

// ActorDirectory resolves user IDs to display data. The approval module
// never touches user credentials, only identity.
type ActorDirectory interface {
	Resolve(ctx context.Context, id uuid.UUID) (Actor, error)
	ResolveMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Actor, error)
}

type userDirectory struct {
	repo user.Repository
}

func NewUserDirectory(repo user.Repository) ActorDirectory {
	return &userDirectory{repo: repo}
}

func (d *userDirectory) Resolve(ctx context.Context, id uuid.UUID) (Actor, error) {
	u, err := d.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, corepersistence.ErrUserNotFound) {
			return Actor{}, errInvalidWorkflow("assignee does not exist: " + id.String())
		}
		return Actor{}, err
	}
	return Actor{ID: u.ID(), Name: u.Name(), Email: u.Email()}, nil
}

func (d *userDirectory) ResolveMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Actor, error) {
	users, err := d.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]Actor, len(users))
	for _, u := range users {
		out[u.ID()] = Actor{ID: u.ID(), Name: u.Name(), Email: u.Email()}
	}
	return out, nil
}
