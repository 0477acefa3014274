package persistence

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/iota-uz/docflow/modules/approval/domain/request"
)

type SafeMap[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

func NewSafeMap[K comparable, V any]() *SafeMap[K, V] {
	return &SafeMap[K, V]{
		m: make(map[K]V),
	}
}

func (s *SafeMap[K, V]) Set(key K, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
}

func (s *SafeMap[K, V]) Get(key K) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, found := s.m[key]
	return val, found
}

func (s *SafeMap[K, V]) Delete(key K) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
}

func (s *SafeMap[K, V]) Values() []V {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Collect(maps.Values(s.m))
}

// InmemRequestRepository backs tests. Values are copied on the way in and
// out so callers never share state with the store.
type InmemRequestRepository struct {
	requests *SafeMap[uuid.UUID, request.Request]
	stages   *SafeMap[uuid.UUID, request.Stage]
}

func NewInmemRequestRepository() *InmemRequestRepository {
	return &InmemRequestRepository{
		requests: NewSafeMap[uuid.UUID, request.Request](),
		stages:   NewSafeMap[uuid.UUID, request.Stage](),
	}
}

func (r *InmemRequestRepository) Create(ctx context.Context, req *request.Request, stages []*request.Stage) (*request.Request, error) {
	r.requests.Set(req.ID, *req)
	for _, stage := range stages {
		r.stages.Set(stage.ID, *stage)
	}
	return r.GetByID(ctx, req.ID)
}

func (r *InmemRequestRepository) GetByID(_ context.Context, id uuid.UUID) (*request.Request, error) {
	req, found := r.requests.Get(id)
	if !found {
		return nil, ErrRequestNotFound
	}
	return &req, nil
}

func (r *InmemRequestRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*request.Request, error) {
	return r.GetByID(ctx, id)
}

func (r *InmemRequestRepository) List(_ context.Context, params *request.ListParams) ([]*request.Request, int64, error) {
	assigned := make(map[uuid.UUID]struct{})
	if params.IncludeAssigned {
		for _, stage := range r.stages.Values() {
			if stage.AssigneeID == params.CreatorID {
				assigned[stage.RequestID] = struct{}{}
			}
		}
	}

	matched := make([]*request.Request, 0)
	for _, req := range r.requests.Values() {
		req := req
		_, isAssigned := assigned[req.ID]
		if req.CreatorID != params.CreatorID && !isAssigned {
			continue
		}
		if params.Status != nil && req.Status != *params.Status {
			continue
		}
		matched = append(matched, &req)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if params.Offset >= len(matched) {
		return []*request.Request{}, total, nil
	}
	matched = matched[params.Offset:]
	if params.Limit > 0 && params.Limit < len(matched) {
		matched = matched[:params.Limit]
	}
	return matched, total, nil
}

func (r *InmemRequestRepository) UpdateMetadata(_ context.Context, req *request.Request) error {
	stored, found := r.requests.Get(req.ID)
	if !found {
		return ErrRequestNotFound
	}
	stored.Title = req.Title
	stored.Description = req.Description
	stored.UpdatedAt = req.UpdatedAt
	r.requests.Set(req.ID, stored)
	return nil
}

func (r *InmemRequestRepository) UpdateState(_ context.Context, req *request.Request) error {
	stored, found := r.requests.Get(req.ID)
	if !found {
		return ErrRequestNotFound
	}
	stored.Status = req.Status
	stored.CurrentStageID = req.CurrentStageID
	stored.SubmittedAt = req.SubmittedAt
	stored.CompletedAt = req.CompletedAt
	stored.UpdatedAt = req.UpdatedAt
	r.requests.Set(req.ID, stored)
	return nil
}

func (r *InmemRequestRepository) Delete(_ context.Context, id uuid.UUID) error {
	if _, found := r.requests.Get(id); !found {
		return ErrRequestNotFound
	}
	r.requests.Delete(id)
	for _, stage := range r.stages.Values() {
		if stage.RequestID == id {
			r.stages.Delete(stage.ID)
		}
	}
	return nil
}

func (r *InmemRequestRepository) GetStages(_ context.Context, requestID uuid.UUID) ([]*request.Stage, error) {
	out := make([]*request.Stage, 0)
	for _, stage := range r.stages.Values() {
		stage := stage
		if stage.RequestID == requestID {
			out = append(out, &stage)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].OrderIndex < out[j].OrderIndex
	})
	return out, nil
}

func (r *InmemRequestRepository) GetStageByID(_ context.Context, id uuid.UUID) (*request.Stage, error) {
	stage, found := r.stages.Get(id)
	if !found {
		return nil, ErrStageNotFound
	}
	return &stage, nil
}

func (r *InmemRequestRepository) GetStagesByAssignee(_ context.Context, assigneeID uuid.UUID, status request.StageStatus, typeFilter *request.StageType) ([]*request.Stage, error) {
	out := make([]*request.Stage, 0)
	for _, stage := range r.stages.Values() {
		stage := stage
		if stage.AssigneeID != assigneeID || stage.Status != status {
			continue
		}
		if typeFilter != nil && stage.Type != *typeFilter {
			continue
		}
		out = append(out, &stage)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *InmemRequestRepository) UpdateStage(_ context.Context, stage *request.Stage) error {
	if _, found := r.stages.Get(stage.ID); !found {
		return ErrStageNotFound
	}
	r.stages.Set(stage.ID, *stage)
	return nil
}

func (r *InmemRequestRepository) SkipOpenStages(_ context.Context, requestID uuid.UUID) error {
	for _, stage := range r.stages.Values() {
		if stage.RequestID != requestID {
			continue
		}
		if stage.Status == request.StageStatusPending || stage.Status == request.StageStatusInProgress {
			stage.Status = request.StageStatusSkipped
			r.stages.Set(stage.ID, stage)
		}
	}
	return nil
}

// InmemCommentRepository backs comment tests.
type InmemCommentRepository struct {
	comments *SafeMap[uuid.UUID, request.Comment]
}

func NewInmemCommentRepository() *InmemCommentRepository {
	return &InmemCommentRepository{comments: NewSafeMap[uuid.UUID, request.Comment]()}
}

func (r *InmemCommentRepository) Create(_ context.Context, c *request.Comment) (*request.Comment, error) {
	r.comments.Set(c.ID, *c)
	out := *c
	return &out, nil
}

func (r *InmemCommentRepository) ListByRequest(_ context.Context, requestID uuid.UUID) ([]*request.Comment, error) {
	out := make([]*request.Comment, 0)
	for _, c := range r.comments.Values() {
		c := c
		if c.RequestID == requestID {
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
