package services

import (
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/docflow/modules/approval/domain/request"
)

// View types returned to the transport layer. They join workflow state with
// resolved actor display data so controllers never hit the user store.

type ActorView struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

type StageView struct {
	ID         uuid.UUID            `json:"id"`
	RequestID  uuid.UUID            `json:"request_id"`
	Type       request.StageType    `json:"stage_type"`
	Assignee   ActorView            `json:"assignee"`
	OrderIndex int                  `json:"order_index"`
	Status     request.StageStatus  `json:"status"`
	Action     *request.StageAction `json:"action,omitempty"`
	Comment    *string              `json:"comment,omitempty"`
	ActedAt    *time.Time           `json:"acted_at,omitempty"`
}

type RequestView struct {
	ID             uuid.UUID      `json:"id"`
	Title          string         `json:"title"`
	Description    *string        `json:"description,omitempty"`
	Creator        ActorView      `json:"creator"`
	Status         request.Status `json:"status"`
	CurrentStageID *uuid.UUID     `json:"current_stage_id,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	SubmittedAt    *time.Time     `json:"submitted_at,omitempty"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
}

type RequestDetail struct {
	RequestView
	Stages    []*StageView `json:"stages"`
	CanEdit   bool         `json:"can_edit"`
	CanSubmit bool         `json:"can_submit"`
	CanCancel bool         `json:"can_cancel"`
}

type RequestList struct {
	Items  []*RequestView `json:"items"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// TransitionResult is returned by submit and act: the request's new status
// and the stage now awaiting a decision, nil once the request is terminal.
type TransitionResult struct {
	RequestID uuid.UUID      `json:"request_id"`
	Status    request.Status `json:"status"`
	NextStage *StageView     `json:"next_stage,omitempty"`
}

type PendingAction struct {
	StageID     uuid.UUID         `json:"stage_id"`
	RequestID   uuid.UUID         `json:"request_id"`
	Title       string            `json:"title"`
	Description *string           `json:"description,omitempty"`
	Creator     ActorView         `json:"creator"`
	StageType   request.StageType `json:"stage_type"`
	OrderIndex  int               `json:"order_index"`
	SubmittedAt *time.Time        `json:"submitted_at,omitempty"`
	DaysPending int               `json:"days_pending"`
}

type PendingActions struct {
	Items                  []*PendingAction `json:"items"`
	Total                  int              `json:"total"`
	RecommendationsPending int              `json:"recommendations_pending"`
	ApprovalsPending       int              `json:"approvals_pending"`
}

type CommentView struct {
	ID        uuid.UUID `json:"id"`
	RequestID uuid.UUID `json:"request_id"`
	Author    ActorView `json:"author"`
	Body      string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

func stageView(stage *request.Stage, assignee Actor) *StageView {
	return &StageView{
		ID:         stage.ID,
		RequestID:  stage.RequestID,
		Type:       stage.Type,
		Assignee:   ActorView(assignee),
		OrderIndex: stage.OrderIndex,
		Status:     stage.Status,
		Action:     stage.Action,
		Comment:    stage.Comment,
		ActedAt:    stage.ActedAt,
	}
}

func requestView(req *request.Request, creator Actor) *RequestView {
	return &RequestView{
		ID:             req.ID,
		Title:          req.Title,
		Description:    req.Description,
		Creator:        ActorView(creator),
		Status:         req.Status,
		CurrentStageID: req.CurrentStageID,
		CreatedAt:      req.CreatedAt,
		UpdatedAt:      req.UpdatedAt,
		SubmittedAt:    req.SubmittedAt,
		CompletedAt:    req.CompletedAt,
	}
}
