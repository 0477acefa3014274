package request

import "github.com/google/uuid"

// Policy checks are pure functions of current state; they never mutate.

// CanView: the creator and every stage assignee may see a request.
func CanView(actorID uuid.UUID, req *Request, ledger *Ledger) bool {
	if req.CreatorID == actorID {
		return true
	}
	for _, stage := range ledger.Stages() {
		if stage.AssigneeID == actorID {
			return true
		}
	}
	return false
}

// CanMutateMetadata: only the creator of a draft may edit or delete it.
func CanMutateMetadata(actorID uuid.UUID, req *Request) bool {
	return req.CreatorID == actorID && req.Status == StatusDraft
}

// CanSubmit: only the creator of a draft with a non-empty ledger.
func CanSubmit(actorID uuid.UUID, req *Request, ledger *Ledger) bool {
	return req.CreatorID == actorID && req.Status == StatusDraft && !ledger.Empty()
}

// CanCancel: only the creator, and never once the request is terminal.
func CanCancel(actorID uuid.UUID, req *Request) bool {
	return req.CreatorID == actorID && !req.Status.IsTerminal()
}

// CanActOnStage enforces strict in-order progression: the actor must be the
// assignee, the stage must still be open, and the stage must be the
// request's current stage. An assignee of a later stage may not act early.
func CanActOnStage(actorID uuid.UUID, stage *Stage, req *Request) bool {
	if stage.AssigneeID != actorID {
		return false
	}
	if !stage.Actionable() {
		return false
	}
	return req.CurrentStageID != nil && *req.CurrentStageID == stage.ID
}
