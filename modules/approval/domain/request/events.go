package request

import "github.com/google/uuid"

// Workflow events are published best-effort after a transition commits.
// Delivery is the subscriber's concern; the engine never waits on it.

type SubmittedEvent struct {
	Request    *Request
	FirstStage *Stage
}

type StageAdvancedEvent struct {
	Request        *Request
	CompletedStage *Stage
	NextStage      *Stage
}

type ApprovedEvent struct {
	Request    *Request
	FinalStage *Stage
}

type RejectedEvent struct {
	Request        *Request
	RejectingStage *Stage
}

type CancelledEvent struct {
	Request      *Request
	Participants []uuid.UUID
}
