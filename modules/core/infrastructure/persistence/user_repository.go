package persistence

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/docflow/modules/core/domain/aggregates/user"
	"github.com/iota-uz/docflow/modules/core/infrastructure/persistence/models"
	"github.com/iota-uz/docflow/pkg/composables"
)

var (
	ErrUserNotFound = fmt.Errorf("user not found")
)

const (
	userFindQuery = `SELECT id, email, name, password_hash, created_at, updated_at FROM users`
)

type UserRepository struct{}

func NewUserRepository() user.Repository {
	return &UserRepository{}
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	users, err := r.queryUsers(ctx, userFindQuery+" WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, ErrUserNotFound
	}
	return users[0], nil
}

func (r *UserRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*user.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.queryUsers(ctx, userFindQuery+" WHERE id = ANY($1)", ids)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	users, err := r.queryUsers(ctx, userFindQuery+" WHERE email = $1", email)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, ErrUserNotFound
	}
	return users[0], nil
}

func (r *UserRepository) Search(ctx context.Context, params *user.FindParams) ([]*user.User, error) {
	query := userFindQuery
	args := make([]interface{}, 0, 3)
	where := ""
	if params.Q != "" {
		args = append(args, "%"+params.Q+"%")
		where = fmt.Sprintf(" WHERE (name ILIKE $%d OR email ILIKE $%d)", len(args), len(args))
	}
	if params.ExcludeID != uuid.Nil {
		args = append(args, params.ExcludeID)
		if where == "" {
			where = fmt.Sprintf(" WHERE id != $%d", len(args))
		} else {
			where += fmt.Sprintf(" AND id != $%d", len(args))
		}
	}
	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	query += where + fmt.Sprintf(" ORDER BY name LIMIT $%d", len(args))
	return r.queryUsers(ctx, query, args...)
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) (*user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	query := `
		INSERT INTO users (email, name, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	var id uuid.UUID
	if err := tx.QueryRow(ctx, query, u.Email(), u.Name(), u.PasswordHash()).Scan(&id); err != nil {
		return nil, errors.Wrap(err, "failed to create user")
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepository) Update(ctx context.Context, u *user.User) (*user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	query := `
		UPDATE users
		SET email = $1, name = $2, password_hash = $3, updated_at = now()
		WHERE id = $4
		RETURNING id
	`
	var id uuid.UUID
	if err := tx.QueryRow(ctx, query, u.Email(), u.Name(), u.PasswordHash(), u.ID()).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(err, "failed to update user")
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete user")
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) queryUsers(ctx context.Context, query string, args ...interface{}) ([]*user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query users")
	}
	defer rows.Close()

	users := make([]*user.User, 0)
	for rows.Next() {
		var m models.User
		if err := rows.Scan(&m.ID, &m.Email, &m.Name, &m.PasswordHash, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan user row")
		}
		users = append(users, user.Hydrate(m.ID, m.Email, m.Name, m.PasswordHash, m.CreatedAt, m.UpdatedAt))
	}
	return users, rows.Err()
}
