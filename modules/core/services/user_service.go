package services

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/iota-uz/docflow/modules/core/domain/aggregates/user"
	"github.com/iota-uz/docflow/modules/core/infrastructure/persistence"
	"github.com/iota-uz/docflow/pkg/composables"
	"github.com/iota-uz/docflow/pkg/eventbus"
	"github.com/iota-uz/docflow/pkg/serrors"
)

type UserService struct {
	repo      user.Repository
	publisher eventbus.EventBus
}

func NewUserService(repo user.Repository, publisher eventbus.EventBus) *UserService {
	return &UserService{
		repo:      repo,
		publisher: publisher,
	}
}

type RegisterParams struct {
	Email    string
	Name     string
	Password string
}

func (s *UserService) Register(ctx context.Context, params RegisterParams) (*user.User, error) {
	params.Email = strings.TrimSpace(params.Email)
	params.Name = strings.TrimSpace(params.Name)
	if params.Email == "" || params.Name == "" {
		return nil, serrors.New(http.StatusBadRequest, "USER_INVALID_BODY", "email and name are required")
	}
	if len(params.Password) < 6 {
		return nil, serrors.New(http.StatusBadRequest, "USER_WEAK_PASSWORD", "password must be at least 6 characters")
	}

	entity := user.New(params.Email, params.Name)
	if err := entity.SetPassword(params.Password); err != nil {
		return nil, err
	}

	var created *user.User
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.GetByEmail(txCtx, entity.Email()); err == nil {
			return serrors.New(http.StatusBadRequest, "USER_EMAIL_TAKEN", "email already registered")
		} else if !errors.Is(err, persistence.ErrUserNotFound) {
			return err
		}
		u, err := s.repo.Create(txCtx, entity)
		if err != nil {
			return err
		}
		created = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(&user.CreatedEvent{Result: created})
	return created, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, persistence.ErrUserNotFound) {
			return nil, serrors.Wrap(http.StatusNotFound, "USER_NOT_FOUND", "user not found", err)
		}
		return nil, err
	}
	return u, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, persistence.ErrUserNotFound) {
			return nil, serrors.Wrap(http.StatusNotFound, "USER_NOT_FOUND", "user not found", err)
		}
		return nil, err
	}
	return u, nil
}

func (s *UserService) Search(ctx context.Context, params *user.FindParams) ([]*user.User, error) {
	return s.repo.Search(ctx, params)
}

type UpdateProfileParams struct {
	Name  *string
	Email *string
}

func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, params UpdateProfileParams) (*user.User, error) {
	if params.Name == nil && params.Email == nil {
		return nil, serrors.New(http.StatusBadRequest, "USER_INVALID_BODY", "no fields to update")
	}

	var updated *user.User
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		entity, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			if errors.Is(err, persistence.ErrUserNotFound) {
				return serrors.Wrap(http.StatusNotFound, "USER_NOT_FOUND", "user not found", err)
			}
			return err
		}
		if params.Email != nil {
			existing, err := s.repo.GetByEmail(txCtx, *params.Email)
			if err == nil && existing.ID() != id {
				return serrors.New(http.StatusBadRequest, "USER_EMAIL_TAKEN", "email already in use")
			} else if err != nil && !errors.Is(err, persistence.ErrUserNotFound) {
				return err
			}
			entity.SetEmail(*params.Email)
		}
		if params.Name != nil {
			entity.SetName(*params.Name)
		}
		u, err := s.repo.Update(txCtx, entity)
		if err != nil {
			return err
		}
		updated = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(&user.UpdatedEvent{Result: updated})
	return updated, nil
}

func (s *UserService) ChangePassword(ctx context.Context, id uuid.UUID, currentPassword, newPassword string) error {
	if len(newPassword) < 6 {
		return serrors.New(http.StatusBadRequest, "USER_WEAK_PASSWORD", "password must be at least 6 characters")
	}
	return composables.InTx(ctx, func(txCtx context.Context) error {
		entity, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			if errors.Is(err, persistence.ErrUserNotFound) {
				return serrors.Wrap(http.StatusNotFound, "USER_NOT_FOUND", "user not found", err)
			}
			return err
		}
		if !entity.CheckPassword(currentPassword) {
			return serrors.New(http.StatusBadRequest, "USER_WRONG_PASSWORD", "current password is incorrect")
		}
		if err := entity.SetPassword(newPassword); err != nil {
			return err
		}
		_, err = s.repo.Update(txCtx, entity)
		return err
	})
}

func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	var deleted *user.User
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		entity, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			if errors.Is(err, persistence.ErrUserNotFound) {
				return serrors.Wrap(http.StatusNotFound, "USER_NOT_FOUND", "user not found", err)
			}
			return err
		}
		if err := s.repo.Delete(txCtx, id); err != nil {
			return err
		}
		deleted = entity
		return nil
	})
	if err != nil {
		return err
	}

	s.publisher.Publish(&user.DeletedEvent{Result: deleted})
	return nil
}
