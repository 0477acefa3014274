package request

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StageType distinguishes the two kinds of decision points.
type StageType string

const (
	StageTypeRecommend StageType = "RECOMMEND"
	StageTypeApprove   StageType = "APPROVE"
)

func ParseStageType(v string) (StageType, error) {
	switch StageType(v) {
	case StageTypeRecommend, StageTypeApprove:
		return StageType(v), nil
	}
	return "", fmt.Errorf("invalid stage type: %q", v)
}

type StageStatus string

const (
	StageStatusPending    StageStatus = "PENDING"
	StageStatusInProgress StageStatus = "IN_PROGRESS"
	StageStatusCompleted  StageStatus = "COMPLETED"
	StageStatusSkipped    StageStatus = "SKIPPED"
)

func ParseStageStatus(v string) (StageStatus, error) {
	switch StageStatus(v) {
	case StageStatusPending, StageStatusInProgress, StageStatusCompleted, StageStatusSkipped:
		return StageStatus(v), nil
	}
	return "", fmt.Errorf("invalid stage status: %q", v)
}

// StageAction is the decision recorded on a completed stage.
type StageAction string

const (
	ActionRecommended StageAction = "RECOMMENDED"
	ActionApproved    StageAction = "APPROVED"
	ActionRejected    StageAction = "REJECTED"
)

func ParseStageAction(v string) (StageAction, error) {
	switch StageAction(v) {
	case ActionRecommended, ActionApproved, ActionRejected:
		return StageAction(v), nil
	}
	return "", fmt.Errorf("invalid stage action: %q", v)
}

// AllowedFor reports whether the action is consistent with the stage type:
// RECOMMEND stages accept only RECOMMENDED, APPROVE stages accept APPROVED
// or REJECTED.
func (a StageAction) AllowedFor(t StageType) bool {
	switch t {
	case StageTypeRecommend:
		return a == ActionRecommended
	case StageTypeApprove:
		return a == ActionApproved || a == ActionRejected
	}
	return false
}

type Stage struct {
	ID         uuid.UUID    `json:"id"`
	RequestID  uuid.UUID    `json:"request_id"`
	Type       StageType    `json:"stage_type"`
	AssigneeID uuid.UUID    `json:"assignee_id"`
	OrderIndex int          `json:"order_index"`
	Status     StageStatus  `json:"status"`
	Action     *StageAction `json:"action,omitempty"`
	Comment    *string      `json:"comment,omitempty"`
	ActedAt    *time.Time   `json:"acted_at,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}

// Actionable reports whether the stage itself is still open for a decision.
func (s *Stage) Actionable() bool {
	return s.Status == StageStatusPending || s.Status == StageStatusInProgress
}
