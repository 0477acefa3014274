package dtos

import "github.com/google/uuid"

type CreateStageRequest struct {
	StageType  string    `json:"stage_type" validate:"required,oneof=RECOMMEND APPROVE"`
	AssigneeID uuid.UUID `json:"assignee_id" validate:"required"`
	OrderIndex int       `json:"order_index" validate:"required,min=1"`
}

type CreateRequestRequest struct {
	Title       string               `json:"title" validate:"required,min=1,max=500"`
	Description *string              `json:"description" validate:"omitempty,max=5000"`
	Stages      []CreateStageRequest `json:"stages" validate:"omitempty,dive"`
}

type UpdateRequestRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=500"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
}

type ActRequest struct {
	Action  string  `json:"action" validate:"required,oneof=RECOMMENDED APPROVED REJECTED"`
	Comment *string `json:"comment" validate:"omitempty,max=5000"`
}

type CreateCommentRequest struct {
	Comment string `json:"comment" validate:"required,min=1,max=5000"`
}
