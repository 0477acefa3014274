package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/iota-uz/docflow/modules/approval/domain/request"
	"github.com/iota-uz/docflow/modules/approval/infrastructure/persistence/models"
	"github.com/iota-uz/docflow/pkg/composables"
)

const commentFindQuery = `
	SELECT id, request_id, user_id, comment, created_at
	FROM request_comments`

type CommentRepository struct{}

func NewCommentRepository() request.CommentRepository {
	return &CommentRepository{}
}

func (r *CommentRepository) Create(ctx context.Context, c *request.Comment) (*request.Comment, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	query := `
		INSERT INTO request_comments (id, request_id, user_id, comment, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := tx.Exec(ctx, query, c.ID, c.RequestID, c.UserID, c.Body, c.CreatedAt); err != nil {
		return nil, errors.Wrap(err, "failed to create comment")
	}
	return c, nil
}

func (r *CommentRepository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*request.Comment, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, commentFindQuery+" WHERE request_id = $1 ORDER BY created_at", requestID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query comments")
	}
	defer rows.Close()

	out := make([]*request.Comment, 0)
	for rows.Next() {
		var m models.Comment
		if err := rows.Scan(&m.ID, &m.RequestID, &m.UserID, &m.Comment, &m.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan comment row")
		}
		out = append(out, &request.Comment{
			ID:        m.ID,
			RequestID: m.RequestID,
			UserID:    m.UserID,
			Body:      m.Comment,
			CreatedAt: m.CreatedAt,
		})
	}
	return out, rows.Err()
}
