package models

import (
	"time"

	"github.com/google/uuid"
)

type Request struct {
	ID             uuid.UUID
	Title          string
	Description    *string
	CreatorID      uuid.UUID
	Status         string
	CurrentStageID *uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
	SubmittedAt    *time.Time
	CompletedAt    *time.Time
}

type Stage struct {
	ID         uuid.UUID
	RequestID  uuid.UUID
	StageType  string
	AssigneeID uuid.UUID
	OrderIndex int
	Status     string
	Action     *string
	Comment    *string
	ActedAt    *time.Time
	CreatedAt  time.Time
}

type Comment struct {
	ID        uuid.UUID
	RequestID uuid.UUID
	UserID    uuid.UUID
	Comment   string
	CreatedAt time.Time
}
