package request

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ListParams struct {
	CreatorID       uuid.UUID
	Status          *Status
	IncludeAssigned bool
	Limit           int
	Offset          int
}

type Repository interface {
	Create(ctx context.Context, req *Request, stages []*Stage) (*Request, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Request, error)
	// GetByIDForUpdate locks the request row for the duration of the
	// surrounding transaction, serializing mutations per request id.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Request, error)
	List(ctx context.Context, params *ListParams) ([]*Request, int64, error)
	UpdateMetadata(ctx context.Context, req *Request) error
	UpdateState(ctx context.Context, req *Request) error
	Delete(ctx context.Context, id uuid.UUID) error

	GetStages(ctx context.Context, requestID uuid.UUID) ([]*Stage, error)
	GetStageByID(ctx context.Context, id uuid.UUID) (*Stage, error)
	GetStagesByAssignee(ctx context.Context, assigneeID uuid.UUID, status StageStatus, typeFilter *StageType) ([]*Stage, error)
	UpdateStage(ctx context.Context, stage *Stage) error
	SkipOpenStages(ctx context.Context, requestID uuid.UUID) error
}

type Comment struct {
	ID        uuid.UUID `json:"id"`
	RequestID uuid.UUID `json:"request_id"`
	UserID    uuid.UUID `json:"user_id"`
	Body      string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

type CommentRepository interface {
	Create(ctx context.Context, c *Comment) (*Comment, error)
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*Comment, error)
}
