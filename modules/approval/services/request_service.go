package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/docflow/modules/approval/domain/request"
	"github.com/iota-uz/docflow/pkg/configuration"
)

type CreateStageInput struct {
	Type       request.StageType
	AssigneeID uuid.UUID
	OrderIndex int
}

type CreateRequestInput struct {
	Title       string
	Description *string
	Stages      []CreateStageInput
}

type UpdateRequestInput struct {
	Title       *string
	Description *string
}

// RequestService owns request CRUD and comments. Lifecycle transitions live
// in WorkflowService; this service only ever touches drafts and read views.
type RequestService struct {
	repo      request.Repository
	comments  request.CommentRepository
	directory ActorDirectory
}

func NewRequestService(
	repo request.Repository,
	comments request.CommentRepository,
	directory ActorDirectory,
) *RequestService {
	return &RequestService{
		repo:      repo,
		comments:  comments,
		directory: directory,
	}
}

func (s *RequestService) Create(ctx context.Context, actorID uuid.UUID, input CreateRequestInput) (*RequestDetail, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, errInvalidBody("title is required")
	}

	now := time.Now()
	req := &request.Request{
		ID:          uuid.New(),
		Title:       title,
		Description: input.Description,
		CreatorID:   actorID,
		Status:      request.StatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	stages := make([]*request.Stage, 0, len(input.Stages))
	for _, in := range input.Stages {
		stages = append(stages, &request.Stage{
			ID:         uuid.New(),
			RequestID:  req.ID,
			Type:       in.Type,
			AssigneeID: in.AssigneeID,
			OrderIndex: in.OrderIndex,
			Status:     request.StageStatusPending,
			CreatedAt:  now,
		})
	}

	ledger := request.NewLedger(stages)
	if err := ledger.ValidateOrder(); err != nil {
		return nil, errInvalidWorkflow(err.Error())
	}

	return inTx(ctx, func(txCtx context.Context) (*RequestDetail, error) {
		// Every assignee must resolve before the workflow is persisted.
		for _, id := range ledger.AssigneeIDs() {
			if _, err := s.directory.Resolve(txCtx, id); err != nil {
				return nil, err
			}
		}
		created, err := s.repo.Create(txCtx, req, ledger.Stages())
		if err != nil {
			return nil, mapRepoError(err, "request not found")
		}
		return s.detail(txCtx, actorID, created, ledger.Stages())
	})
}

func (s *RequestService) GetByID(ctx context.Context, actorID, id uuid.UUID) (*RequestDetail, error) {
	req, stages, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !request.CanView(actorID, req, request.NewLedger(stages)) {
		return nil, errForbidden("you do not have access to this request")
	}
	return s.detail(ctx, actorID, req, stages)
}

func (s *RequestService) List(ctx context.Context, actorID uuid.UUID, params *request.ListParams) (*RequestList, error) {
	conf := configuration.Use()
	if params.Limit <= 0 {
		params.Limit = conf.PageSize
	}
	if params.Limit > conf.MaxPageSize {
		params.Limit = conf.MaxPageSize
	}
	if params.Offset < 0 {
		params.Offset = 0
	}
	params.CreatorID = actorID

	items, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, mapRepoError(err, "request not found")
	}

	creatorIDs := make([]uuid.UUID, 0, len(items))
	for _, req := range items {
		creatorIDs = append(creatorIDs, req.CreatorID)
	}
	creators, err := s.directory.ResolveMany(ctx, creatorIDs)
	if err != nil {
		return nil, err
	}

	views := make([]*RequestView, 0, len(items))
	for _, req := range items {
		views = append(views, requestView(req, actorOrPlaceholder(creators, req.CreatorID)))
	}
	return &RequestList{Items: views, Total: total, Limit: params.Limit, Offset: params.Offset}, nil
}

func (s *RequestService) Update(ctx context.Context, actorID, id uuid.UUID, input UpdateRequestInput) (*RequestDetail, error) {
	return inTx(ctx, func(txCtx context.Context) (*RequestDetail, error) {
		req, err := s.repo.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return nil, mapRepoError(err, "request not found")
		}
		if req.CreatorID != actorID {
			return nil, errForbidden("only the creator may edit a request")
		}
		if !request.CanMutateMetadata(actorID, req) {
			return nil, errInvalidState("only draft requests can be edited")
		}
		if input.Title != nil {
			title := strings.TrimSpace(*input.Title)
			if title == "" {
				return nil, errInvalidBody("title cannot be empty")
			}
			req.Title = title
		}
		if input.Description != nil {
			req.Description = input.Description
		}
		req.UpdatedAt = time.Now()
		if err := s.repo.UpdateMetadata(txCtx, req); err != nil {
			return nil, mapRepoError(err, "request not found")
		}
		stages, err := s.repo.GetStages(txCtx, id)
		if err != nil {
			return nil, mapRepoError(err, "request not found")
		}
		return s.detail(txCtx, actorID, req, stages)
	})
}

func (s *RequestService) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	_, err := inTx(ctx, func(txCtx context.Context) (struct{}, error) {
		req, err := s.repo.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return struct{}{}, mapRepoError(err, "request not found")
		}
		if req.CreatorID != actorID {
			return struct{}{}, errForbidden("only the creator may delete a request")
		}
		if !request.CanMutateMetadata(actorID, req) {
			return struct{}{}, errInvalidState("only draft requests can be deleted")
		}
		if err := s.repo.Delete(txCtx, id); err != nil {
			return struct{}{}, mapRepoError(err, "request not found")
		}
		return struct{}{}, nil
	})
	return err
}

func (s *RequestService) AddComment(ctx context.Context, actorID, requestID uuid.UUID, body string) (*CommentView, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, errInvalidBody("comment cannot be empty")
	}
	req, stages, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !request.CanView(actorID, req, request.NewLedger(stages)) {
		return nil, errForbidden("you do not have access to this request")
	}
	comment, err := s.comments.Create(ctx, &request.Comment{
		ID:        uuid.New(),
		RequestID: requestID,
		UserID:    actorID,
		Body:      body,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return nil, mapRepoError(err, "request not found")
	}
	author, err := s.directory.Resolve(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return commentView(comment, author), nil
}

func (s *RequestService) ListComments(ctx context.Context, actorID, requestID uuid.UUID) ([]*CommentView, error) {
	req, stages, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !request.CanView(actorID, req, request.NewLedger(stages)) {
		return nil, errForbidden("you do not have access to this request")
	}
	comments, err := s.comments.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, mapRepoError(err, "request not found")
	}
	authorIDs := make([]uuid.UUID, 0, len(comments))
	for _, c := range comments {
		authorIDs = append(authorIDs, c.UserID)
	}
	authors, err := s.directory.ResolveMany(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	views := make([]*CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, commentView(c, actorOrPlaceholder(authors, c.UserID)))
	}
	return views, nil
}

func (s *RequestService) load(ctx context.Context, id uuid.UUID) (*request.Request, []*request.Stage, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, mapRepoError(err, "request not found")
	}
	stages, err := s.repo.GetStages(ctx, id)
	if err != nil {
		return nil, nil, mapRepoError(err, "request not found")
	}
	return req, stages, nil
}

func (s *RequestService) detail(ctx context.Context, actorID uuid.UUID, req *request.Request, stages []*request.Stage) (*RequestDetail, error) {
	ledger := request.NewLedger(stages)
	ids := append(ledger.AssigneeIDs(), req.CreatorID)
	actors, err := s.directory.ResolveMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	stageViews := make([]*StageView, 0, ledger.Len())
	for _, stage := range ledger.Stages() {
		stageViews = append(stageViews, stageView(stage, actorOrPlaceholder(actors, stage.AssigneeID)))
	}
	return &RequestDetail{
		RequestView: *requestView(req, actorOrPlaceholder(actors, req.CreatorID)),
		Stages:      stageViews,
		CanEdit:     request.CanMutateMetadata(actorID, req),
		CanSubmit:   request.CanSubmit(actorID, req, ledger),
		CanCancel:   request.CanCancel(actorID, req),
	}, nil
}

func commentView(c *request.Comment, author Actor) *CommentView {
	return &CommentView{
		ID:        c.ID,
		RequestID: c.RequestID,
		Author:    ActorView(author),
		Body:      c.Body,
		CreatedAt: c.CreatedAt,
	}
}

// actorOrPlaceholder keeps views renderable when a participant has been
// deleted from the user store.
func actorOrPlaceholder(actors map[uuid.UUID]Actor, id uuid.UUID) Actor {
	if a, ok := actors[id]; ok {
		return a
	}
	return Actor{ID: id, Name: "Unknown"}
}
