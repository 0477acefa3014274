package user

import (
	"context"

	"github.com/google/uuid"
)

type FindParams struct {
	Q         string
	ExcludeID uuid.UUID
	Limit     int
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Search(ctx context.Context, params *FindParams) ([]*User, error)
	Create(ctx context.Context, u *User) (*User, error)
	Update(ctx context.Context, u *User) (*User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
