package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/docflow/modules/approval/domain/request"
	"github.com/iota-uz/docflow/pkg/eventbus"
)

// WorkflowService is the transition engine. Every mutation runs inside one
// transaction and re-reads the request with a row lock, so concurrent calls
// on the same request serialize and the loser observes the committed state.
type WorkflowService struct {
	repo      request.Repository
	directory ActorDirectory
	publisher eventbus.EventBus
}

func NewWorkflowService(repo request.Repository, directory ActorDirectory, publisher eventbus.EventBus) *WorkflowService {
	return &WorkflowService{repo: repo, directory: directory, publisher: publisher}
}

// Submit moves a draft into its workflow. The entry status follows the type
// of the first stage: RECOMMEND opens in review, APPROVE directly in
// approval.
func (s *WorkflowService) Submit(ctx context.Context, actorID, requestID uuid.UUID) (*TransitionResult, error) {
	type outcome struct {
		result *TransitionResult
		event  request.SubmittedEvent
	}
	out, err := inTx(ctx, func(txCtx context.Context) (outcome, error) {
		req, err := s.repo.GetByIDForUpdate(txCtx, requestID)
		if err != nil {
			return outcome{}, mapRepoError(err, "request not found")
		}
		stages, err := s.repo.GetStages(txCtx, requestID)
		if err != nil {
			return outcome{}, mapRepoError(err, "request not found")
		}
		ledger := request.NewLedger(stages)

		if req.CreatorID != actorID {
			return outcome{}, errForbidden("only the creator may submit a request")
		}
		if req.Status != request.StatusDraft {
			return outcome{}, errInvalidState("only draft requests can be submitted")
		}
		if ledger.Empty() {
			return outcome{}, errEmptyWorkflow("request has no workflow stages")
		}

		first := ledger.First()
		now := time.Now()

		first.Status = request.StageStatusInProgress
		if err := s.repo.UpdateStage(txCtx, first); err != nil {
			return outcome{}, mapRepoError(err, "stage not found")
		}

		if first.Type == request.StageTypeApprove {
			req.Status = request.StatusInApproval
		} else {
			req.Status = request.StatusInReview
		}
		req.CurrentStageID = &first.ID
		req.SubmittedAt = &now
		req.UpdatedAt = now
		if err := s.repo.UpdateState(txCtx, req); err != nil {
			return outcome{}, mapRepoError(err, "request not found")
		}

		result, err := s.transitionResult(txCtx, req, first)
		if err != nil {
			return outcome{}, err
		}
		return outcome{
			result: result,
			event:  request.SubmittedEvent{Request: req, FirstStage: first},
		}, nil
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(out.event)
	return out.result, nil
}

// Act records a decision on a stage and advances or terminates the request.
func (s *WorkflowService) Act(ctx context.Context, actorID, stageID uuid.UUID, action request.StageAction, comment *string) (*TransitionResult, error) {
	type outcome struct {
		result *TransitionResult
		events []interface{}
	}
	out, err := inTx(ctx, func(txCtx context.Context) (outcome, error) {
		stage, err := s.repo.GetStageByID(txCtx, stageID)
		if err != nil {
			return outcome{}, mapRepoError(err, "stage not found")
		}
		req, err := s.repo.GetByIDForUpdate(txCtx, stage.RequestID)
		if err != nil {
			return outcome{}, mapRepoError(err, "request not found")
		}
		// Re-read under the lock: the stage may have been completed by a
		// concurrent call between the first read and the lock acquisition.
		stage, err = s.repo.GetStageByID(txCtx, stageID)
		if err != nil {
			return outcome{}, mapRepoError(err, "stage not found")
		}

		if stage.AssigneeID != actorID {
			return outcome{}, errForbidden("you are not the assignee of this stage")
		}
		if !stage.Actionable() {
			return outcome{}, errInvalidState("stage has already been decided")
		}
		if req.CurrentStageID == nil || *req.CurrentStageID != stage.ID {
			return outcome{}, errOutOfOrder("stage is not the request's current stage")
		}
		if !action.AllowedFor(stage.Type) {
			return outcome{}, errInvalidAction("action " + string(action) + " is not valid for a " + string(stage.Type) + " stage")
		}

		now := time.Now()
		stage.Status = request.StageStatusCompleted
		stage.Action = &action
		stage.Comment = comment
		stage.ActedAt = &now
		if err := s.repo.UpdateStage(txCtx, stage); err != nil {
			return outcome{}, mapRepoError(err, "stage not found")
		}

		if action == request.ActionRejected {
			// Terminal. Remaining stages are left as they are; only
			// cancellation sweeps them to SKIPPED.
			req.Status = request.StatusRejected
			req.CurrentStageID = nil
			req.CompletedAt = &now
			req.UpdatedAt = now
			if err := s.repo.UpdateState(txCtx, req); err != nil {
				return outcome{}, mapRepoError(err, "request not found")
			}
			result, err := s.transitionResult(txCtx, req, nil)
			if err != nil {
				return outcome{}, err
			}
			return outcome{
				result: result,
				events: []interface{}{request.RejectedEvent{Request: req, RejectingStage: stage}},
			}, nil
		}

		stages, err := s.repo.GetStages(txCtx, req.ID)
		if err != nil {
			return outcome{}, mapRepoError(err, "request not found")
		}
		next := request.NewLedger(stages).Next(stage.OrderIndex)

		if next == nil {
			req.Status = request.StatusApproved
			req.CurrentStageID = nil
			req.CompletedAt = &now
			req.UpdatedAt = now
			if err := s.repo.UpdateState(txCtx, req); err != nil {
				return outcome{}, mapRepoError(err, "request not found")
			}
			result, err := s.transitionResult(txCtx, req, nil)
			if err != nil {
				return outcome{}, err
			}
			return outcome{
				result: result,
				events: []interface{}{request.ApprovedEvent{Request: req, FinalStage: stage}},
			}, nil
		}

		next.Status = request.StageStatusInProgress
		if err := s.repo.UpdateStage(txCtx, next); err != nil {
			return outcome{}, mapRepoError(err, "stage not found")
		}
		if stage.Type == request.StageTypeRecommend && next.Type == request.StageTypeApprove {
			req.Status = request.StatusInApproval
		}
		req.CurrentStageID = &next.ID
		req.UpdatedAt = now
		if err := s.repo.UpdateState(txCtx, req); err != nil {
			return outcome{}, mapRepoError(err, "request not found")
		}
		result, err := s.transitionResult(txCtx, req, next)
		if err != nil {
			return outcome{}, err
		}
		return outcome{
			result: result,
			events: []interface{}{request.StageAdvancedEvent{Request: req, CompletedStage: stage, NextStage: next}},
		}, nil
	})
	if err != nil {
		return nil, err
	}
	for _, ev := range out.events {
		s.publisher.Publish(ev)
	}
	return out.result, nil
}

// Cancel terminates the request and skips every stage that has not yet been
// decided. Completed stages keep their action and comment.
func (s *WorkflowService) Cancel(ctx context.Context, actorID, requestID uuid.UUID) (*TransitionResult, error) {
	type outcome struct {
		result *TransitionResult
		event  request.CancelledEvent
	}
	out, err := inTx(ctx, func(txCtx context.Context) (outcome, error) {
		req, err := s.repo.GetByIDForUpdate(txCtx, requestID)
		if err != nil {
			return outcome{}, mapRepoError(err, "request not found")
		}
		if req.CreatorID != actorID {
			return outcome{}, errForbidden("only the creator may cancel a request")
		}
		if !request.CanCancel(actorID, req) {
			return outcome{}, errInvalidState("request is already in a terminal state")
		}

		stages, err := s.repo.GetStages(txCtx, requestID)
		if err != nil {
			return outcome{}, mapRepoError(err, "request not found")
		}
		if err := s.repo.SkipOpenStages(txCtx, requestID); err != nil {
			return outcome{}, mapRepoError(err, "request not found")
		}

		now := time.Now()
		req.Status = request.StatusCancelled
		req.CurrentStageID = nil
		req.CompletedAt = &now
		req.UpdatedAt = now
		if err := s.repo.UpdateState(txCtx, req); err != nil {
			return outcome{}, mapRepoError(err, "request not found")
		}

		result, err := s.transitionResult(txCtx, req, nil)
		if err != nil {
			return outcome{}, err
		}
		return outcome{
			result: result,
			event: request.CancelledEvent{
				Request:      req,
				Participants: request.NewLedger(stages).AssigneeIDs(),
			},
		}, nil
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(out.event)
	return out.result, nil
}

// PendingActions lists the stages waiting on the actor, newest submissions
// first, with counts split by stage type.
func (s *WorkflowService) PendingActions(ctx context.Context, actorID uuid.UUID, typeFilter *request.StageType) (*PendingActions, error) {
	stages, err := s.repo.GetStagesByAssignee(ctx, actorID, request.StageStatusInProgress, typeFilter)
	if err != nil {
		return nil, mapRepoError(err, "stage not found")
	}

	out := &PendingActions{Items: make([]*PendingAction, 0, len(stages))}
	now := time.Now()
	for _, stage := range stages {
		req, err := s.repo.GetByID(ctx, stage.RequestID)
		if err != nil {
			return nil, mapRepoError(err, "request not found")
		}
		creator, err := s.directory.ResolveMany(ctx, []uuid.UUID{req.CreatorID})
		if err != nil {
			return nil, err
		}
		days := 0
		if req.SubmittedAt != nil {
			days = int(now.Sub(*req.SubmittedAt).Hours() / 24)
		}
		out.Items = append(out.Items, &PendingAction{
			StageID:     stage.ID,
			RequestID:   req.ID,
			Title:       req.Title,
			Description: req.Description,
			Creator:     ActorView(actorOrPlaceholder(creator, req.CreatorID)),
			StageType:   stage.Type,
			OrderIndex:  stage.OrderIndex,
			SubmittedAt: req.SubmittedAt,
			DaysPending: days,
		})
		switch stage.Type {
		case request.StageTypeRecommend:
			out.RecommendationsPending++
		case request.StageTypeApprove:
			out.ApprovalsPending++
		}
	}
	out.Total = len(out.Items)
	return out, nil
}

// History returns all stages of a request in order, with full decision
// detail, for any participant.
func (s *WorkflowService) History(ctx context.Context, actorID, requestID uuid.UUID) ([]*StageView, error) {
	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, mapRepoError(err, "request not found")
	}
	stages, err := s.repo.GetStages(ctx, requestID)
	if err != nil {
		return nil, mapRepoError(err, "request not found")
	}
	ledger := request.NewLedger(stages)
	if !request.CanView(actorID, req, ledger) {
		return nil, errForbidden("you do not have access to this request")
	}

	assignees, err := s.directory.ResolveMany(ctx, ledger.AssigneeIDs())
	if err != nil {
		return nil, err
	}
	views := make([]*StageView, 0, ledger.Len())
	for _, stage := range ledger.Stages() {
		views = append(views, stageView(stage, actorOrPlaceholder(assignees, stage.AssigneeID)))
	}
	return views, nil
}

func (s *WorkflowService) transitionResult(ctx context.Context, req *request.Request, active *request.Stage) (*TransitionResult, error) {
	result := &TransitionResult{RequestID: req.ID, Status: req.Status}
	if active != nil {
		assignee, err := s.directory.Resolve(ctx, active.AssigneeID)
		if err != nil {
			return nil, err
		}
		result.NextStage = stageView(active, assignee)
	}
	return result, nil
}
