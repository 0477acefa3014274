package persistence

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/iota-uz/docflow/modules/approval/domain/request"
	"github.com/iota-uz/docflow/modules/approval/infrastructure/persistence/models"
	"github.com/iota-uz/docflow/pkg/composables"
)

var (
	ErrRequestNotFound = fmt.Errorf("request not found")
	ErrStageNotFound   = fmt.Errorf("stage not found")
)

const (
	requestFindQuery = `
		SELECT id, title, description, creator_id, status, current_stage_id,
		       created_at, updated_at, submitted_at, completed_at
		FROM requests`

	stageFindQuery = `
		SELECT id, request_id, stage_type, assignee_id, order_index, status,
		       action, comment, acted_at, created_at
		FROM workflow_stages`

	requestInsertQuery = `
		INSERT INTO requests (id, title, description, creator_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	stageInsertQuery = `
		INSERT INTO workflow_stages (id, request_id, stage_type, assignee_id, order_index, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	requestUpdateMetadataQuery = `
		UPDATE requests SET title = $1, description = $2, updated_at = $3 WHERE id = $4`

	requestUpdateStateQuery = `
		UPDATE requests
		SET status = $1, current_stage_id = $2, submitted_at = $3, completed_at = $4, updated_at = $5
		WHERE id = $6`

	stageUpdateQuery = `
		UPDATE workflow_stages
		SET status = $1, action = $2, comment = $3, acted_at = $4
		WHERE id = $5`

	stageSkipOpenQuery = `
		UPDATE workflow_stages
		SET status = 'SKIPPED'
		WHERE request_id = $1 AND status IN ('PENDING', 'IN_PROGRESS')`
)

type RequestRepository struct{}

func NewRequestRepository() request.Repository {
	return &RequestRepository{}
}

func (r *RequestRepository) Create(ctx context.Context, req *request.Request, stages []*request.Stage) (*request.Request, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, requestInsertQuery,
		req.ID, req.Title, req.Description, req.CreatorID, req.Status, req.CreatedAt, req.UpdatedAt,
	); err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	for _, stage := range stages {
		if _, err := tx.Exec(ctx, stageInsertQuery,
			stage.ID, stage.RequestID, stage.Type, stage.AssigneeID, stage.OrderIndex, stage.Status, stage.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to create workflow stage")
		}
	}
	return r.GetByID(ctx, req.ID)
}

func (r *RequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*request.Request, error) {
	requests, err := r.queryRequests(ctx, requestFindQuery+" WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	if len(requests) == 0 {
		return nil, ErrRequestNotFound
	}
	return requests[0], nil
}

func (r *RequestRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*request.Request, error) {
	requests, err := r.queryRequests(ctx, requestFindQuery+" WHERE id = $1 FOR UPDATE", id)
	if err != nil {
		return nil, err
	}
	if len(requests) == 0 {
		return nil, ErrRequestNotFound
	}
	return requests[0], nil
}

func (r *RequestRepository) List(ctx context.Context, params *request.ListParams) ([]*request.Request, int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, 0, err
	}

	args := make([]interface{}, 0, 4)
	args = append(args, params.CreatorID)
	where := " WHERE creator_id = $1"
	if params.IncludeAssigned {
		where = ` WHERE (creator_id = $1 OR id IN (
			SELECT request_id FROM workflow_stages WHERE assignee_id = $1
		))`
	}
	if params.Status != nil {
		args = append(args, *params.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int64
	if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM requests"+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count requests")
	}

	args = append(args, params.Limit)
	limitClause := fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))
	args = append(args, params.Offset)
	limitClause += fmt.Sprintf(" OFFSET $%d", len(args))

	requests, err := r.queryRequests(ctx, requestFindQuery+where+limitClause, args...)
	if err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

func (r *RequestRepository) UpdateMetadata(ctx context.Context, req *request.Request) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, requestUpdateMetadataQuery, req.Title, req.Description, req.UpdatedAt, req.ID)
	if err != nil {
		return errors.Wrap(err, "failed to update request")
	}
	if tag.RowsAffected() == 0 {
		return ErrRequestNotFound
	}
	return nil
}

func (r *RequestRepository) UpdateState(ctx context.Context, req *request.Request) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, requestUpdateStateQuery,
		req.Status, req.CurrentStageID, req.SubmittedAt, req.CompletedAt, req.UpdatedAt, req.ID,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update request state")
	}
	if tag.RowsAffected() == 0 {
		return ErrRequestNotFound
	}
	return nil
}

func (r *RequestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	// Stages and comments go with the request via ON DELETE CASCADE.
	tag, err := tx.Exec(ctx, `DELETE FROM requests WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete request")
	}
	if tag.RowsAffected() == 0 {
		return ErrRequestNotFound
	}
	return nil
}

func (r *RequestRepository) GetStages(ctx context.Context, requestID uuid.UUID) ([]*request.Stage, error) {
	return r.queryStages(ctx, stageFindQuery+" WHERE request_id = $1 ORDER BY order_index", requestID)
}

func (r *RequestRepository) GetStageByID(ctx context.Context, id uuid.UUID) (*request.Stage, error) {
	stages, err := r.queryStages(ctx, stageFindQuery+" WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	if len(stages) == 0 {
		return nil, ErrStageNotFound
	}
	return stages[0], nil
}

func (r *RequestRepository) GetStagesByAssignee(ctx context.Context, assigneeID uuid.UUID, status request.StageStatus, typeFilter *request.StageType) ([]*request.Stage, error) {
	query := stageFindQuery + " WHERE assignee_id = $1 AND status = $2"
	args := []interface{}{assigneeID, status}
	if typeFilter != nil {
		args = append(args, *typeFilter)
		query += fmt.Sprintf(" AND stage_type = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"
	return r.queryStages(ctx, query, args...)
}

func (r *RequestRepository) UpdateStage(ctx context.Context, stage *request.Stage) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, stageUpdateQuery, stage.Status, stage.Action, stage.Comment, stage.ActedAt, stage.ID)
	if err != nil {
		return errors.Wrap(err, "failed to update workflow stage")
	}
	if tag.RowsAffected() == 0 {
		return ErrStageNotFound
	}
	return nil
}

func (r *RequestRepository) SkipOpenStages(ctx context.Context, requestID uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, stageSkipOpenQuery, requestID); err != nil {
		return errors.Wrap(err, "failed to skip open stages")
	}
	return nil
}

func (r *RequestRepository) queryRequests(ctx context.Context, query string, args ...interface{}) ([]*request.Request, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query requests")
	}
	defer rows.Close()

	out := make([]*request.Request, 0)
	for rows.Next() {
		var m models.Request
		if err := rows.Scan(
			&m.ID, &m.Title, &m.Description, &m.CreatorID, &m.Status, &m.CurrentStageID,
			&m.CreatedAt, &m.UpdatedAt, &m.SubmittedAt, &m.CompletedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan request row")
		}
		status, err := request.ParseStatus(m.Status)
		if err != nil {
			return nil, err
		}
		out = append(out, &request.Request{
			ID:             m.ID,
			Title:          m.Title,
			Description:    m.Description,
			CreatorID:      m.CreatorID,
			Status:         status,
			CurrentStageID: m.CurrentStageID,
			CreatedAt:      m.CreatedAt,
			UpdatedAt:      m.UpdatedAt,
			SubmittedAt:    m.SubmittedAt,
			CompletedAt:    m.CompletedAt,
		})
	}
	return out, rows.Err()
}

func (r *RequestRepository) queryStages(ctx context.Context, query string, args ...interface{}) ([]*request.Stage, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query workflow stages")
	}
	defer rows.Close()

	out := make([]*request.Stage, 0)
	for rows.Next() {
		var m models.Stage
		if err := rows.Scan(
			&m.ID, &m.RequestID, &m.StageType, &m.AssigneeID, &m.OrderIndex, &m.Status,
			&m.Action, &m.Comment, &m.ActedAt, &m.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan stage row")
		}
		stage, err := toDomainStage(&m)
		if err != nil {
			return nil, err
		}
		out = append(out, stage)
	}
	return out, rows.Err()
}

func toDomainStage(m *models.Stage) (*request.Stage, error) {
	stageType, err := request.ParseStageType(m.StageType)
	if err != nil {
		return nil, err
	}
	status, err := request.ParseStageStatus(m.Status)
	if err != nil {
		return nil, err
	}
	var action *request.StageAction
	if m.Action != nil {
		parsed, err := request.ParseStageAction(*m.Action)
		if err != nil {
			return nil, err
		}
		action = &parsed
	}
	return &request.Stage{
		ID:         m.ID,
		RequestID:  m.RequestID,
		Type:       stageType,
		AssigneeID: m.AssigneeID,
		OrderIndex: m.OrderIndex,
		Status:     status,
		Action:     action,
		Comment:    m.Comment,
		ActedAt:    m.ActedAt,
		CreatedAt:  m.CreatedAt,
	}, nil
}
