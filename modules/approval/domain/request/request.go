package request

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a request. The zero value is invalid;
// requests are created in StatusDraft.
type Status string

const (
	StatusDraft      Status = "DRAFT"
	StatusInReview   Status = "IN_REVIEW"
	StatusInApproval Status = "IN_APPROVAL"
	StatusApproved   Status = "APPROVED"
	StatusRejected   Status = "REJECTED"
	StatusCancelled  Status = "CANCELLED"
)

func ParseStatus(v string) (Status, error) {
	switch Status(v) {
	case StatusDraft, StatusInReview, StatusInApproval, StatusApproved, StatusRejected, StatusCancelled:
		return Status(v), nil
	}
	return "", fmt.Errorf("invalid request status: %q", v)
}

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// IsActive reports whether the request has a stage in progress.
func (s Status) IsActive() bool {
	return s == StatusInReview || s == StatusInApproval
}

type Request struct {
	ID             uuid.UUID  `json:"id"`
	Title          string     `json:"title"`
	Description    *string    `json:"description,omitempty"`
	CreatorID      uuid.UUID  `json:"creator_id"`
	Status         Status     `json:"status"`
	CurrentStageID *uuid.UUID `json:"current_stage_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	SubmittedAt    *time.Time `json:"submitted_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}
