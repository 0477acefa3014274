package services_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/docflow/modules/approval/domain/request"
	"github.com/iota-uz/docflow/modules/approval/infrastructure/persistence"
	"github.com/iota-uz/docflow/modules/approval/services"
	"github.com/iota-uz/docflow/pkg/composables"
	"github.com/iota-uz/docflow/pkg/eventbus"
	"github.com/iota-uz/docflow/pkg/serrors"
)

// fakeTx satisfies composables.Tx so services run their transactional
// sections against the in-memory repository without a database.
type fakeTx struct{}

func (fakeTx) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	panic("unexpected SQL query in test")
}

func (fakeTx) QueryRow(context.Context, string, ...interface{}) pgx.Row {
	panic("unexpected SQL query in test")
}

func (fakeTx) Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error) {
	panic("unexpected SQL exec in test")
}

type stubDirectory struct {
	actors map[uuid.UUID]services.Actor
}

func (d *stubDirectory) Resolve(_ context.Context, id uuid.UUID) (services.Actor, error) {
	if a, ok := d.actors[id]; ok {
		return a, nil
	}
	return services.Actor{}, serrors.New(http.StatusUnprocessableEntity, services.CodeInvalidWorkflow, "assignee does not exist: "+id.String())
}

func (d *stubDirectory) ResolveMany(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]services.Actor, error) {
	out := make(map[uuid.UUID]services.Actor, len(ids))
	for _, id := range ids {
		if a, ok := d.actors[id]; ok {
			out[id] = a
		}
	}
	return out, nil
}

type fixture struct {
	ctx       context.Context
	repo      *persistence.InmemRequestRepository
	requests  *services.RequestService
	workflow  *services.WorkflowService
	bus       eventbus.EventBus
	creator   uuid.UUID
	reviewer  uuid.UUID
	approver  uuid.UUID
	directory *stubDirectory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	creator, reviewer, approver := uuid.New(), uuid.New(), uuid.New()
	directory := &stubDirectory{actors: map[uuid.UUID]services.Actor{
		creator:  {ID: creator, Name: "Alice", Email: "alice@example.com"},
		reviewer: {ID: reviewer, Name: "Bob", Email: "bob@example.com"},
		approver: {ID: approver, Name: "Carol", Email: "carol@example.com"},
	}}
	repo := persistence.NewInmemRequestRepository()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	bus := eventbus.NewEventPublisher(logger)
	return &fixture{
		ctx:       composables.WithTx(context.Background(), fakeTx{}),
		repo:      repo,
		requests:  services.NewRequestService(repo, persistence.NewInmemCommentRepository(), directory),
		workflow:  services.NewWorkflowService(repo, directory, bus),
		bus:       bus,
		creator:   creator,
		reviewer:  reviewer,
		approver:  approver,
		directory: directory,
	}
}

func (f *fixture) createRequest(t *testing.T, stages ...services.CreateStageInput) *services.RequestDetail {
	t.Helper()
	detail, err := f.requests.Create(f.ctx, f.creator, services.CreateRequestInput{
		Title:  "Server purchase",
		Stages: stages,
	})
	require.NoError(t, err)
	return detail
}

func recommendStage(assignee uuid.UUID, order int) services.CreateStageInput {
	return services.CreateStageInput{Type: request.StageTypeRecommend, AssigneeID: assignee, OrderIndex: order}
}

func approveStage(assignee uuid.UUID, order int) services.CreateStageInput {
	return services.CreateStageInput{Type: request.StageTypeApprove, AssigneeID: assignee, OrderIndex: order}
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var svcErr *serrors.Error
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, code, svcErr.Code)
}

func TestWorkflowService_Submit(t *testing.T) {
	t.Run("recommend first stage enters review", func(t *testing.T) {
		f := newFixture(t)
		detail := f.createRequest(t, recommendStage(f.reviewer, 1), approveStage(f.approver, 2))

		result, err := f.workflow.Submit(f.ctx, f.creator, detail.ID)
		require.NoError(t, err)
		require.Equal(t, request.StatusInReview, result.Status)
		require.NotNil(t, result.NextStage)
		require.Equal(t, detail.Stages[0].ID, result.NextStage.ID)
		require.Equal(t, request.StageStatusInProgress, result.NextStage.Status)

		stored, err := f.repo.GetByID(f.ctx, detail.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.SubmittedAt)
		require.Equal(t, detail.Stages[0].ID, *stored.CurrentStageID)
	})

	t.Run("approve first stage enters approval directly", func(t *testing.T) {
		f := newFixture(t)
		detail := f.createRequest(t, approveStage(f.approver, 1))

		result, err := f.workflow.Submit(f.ctx, f.creator, detail.ID)
		require.NoError(t, err)
		require.Equal(t, request.StatusInApproval, result.Status)
	})

	t.Run("empty workflow fails", func(t *testing.T) {
		f := newFixture(t)
		detail := f.createRequest(t)

		_, err := f.workflow.Submit(f.ctx, f.creator, detail.ID)
		requireCode(t, err, services.CodeEmptyWorkflow)
	})

	t.Run("only the creator may submit", func(t *testing.T) {
		f := newFixture(t)
		detail := f.createRequest(t, recommendStage(f.reviewer, 1))

		_, err := f.workflow.Submit(f.ctx, f.reviewer, detail.ID)
		requireCode(t, err, services.CodeForbidden)
	})

	t.Run("already submitted fails", func(t *testing.T) {
		f := newFixture(t)
		detail := f.createRequest(t, recommendStage(f.reviewer, 1))
		_, err := f.workflow.Submit(f.ctx, f.creator, detail.ID)
		require.NoError(t, err)

		_, err = f.workflow.Submit(f.ctx, f.creator, detail.ID)
		requireCode(t, err, services.CodeInvalidState)
	})

	t.Run("unknown request", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.workflow.Submit(f.ctx, f.creator, uuid.New())
		requireCode(t, err, services.CodeNotFound)
	})
}

func TestWorkflowService_Act(t *testing.T) {
	t.Run("full recommend then approve flow", func(t *testing.T) {
		f := newFixture(t)
		detail := f.createRequest(t, recommendStage(f.reviewer, 1), approveStage(f.approver, 2))
		_, err := f.workflow.Submit(f.ctx, f.creator, detail.ID)
		require.NoError(t, err)

		comment := "looks good"
		result, err := f.workflow.Act(f.ctx, f.reviewer, detail.Stages[0].ID, request.ActionRecommended, &comment)
		require.NoError(t, err)
		require.Equal(t, request.StatusInApproval, result.Status)
		require.Equal(t, detail.Stages[1].ID, result.NextStage.ID)

		result, err = f.workflow.Act(f.ctx, f.approver, detail.Stages[1].ID, request.ActionApproved, nil)
		require.NoError(t, err)
		require.Equal(t, request.StatusApproved, result.Status)
		require.Nil(t, result.NextStage)

		stored, err := f.repo.GetByID(f.ctx, detail.ID)
		require.NoError(t, err)
		require.Nil(t, stored.CurrentStageID)
		require.NotNil(t, stored.CompletedAt)

		stages, err := f.repo.GetStages(f.ctx, detail.ID)
		require.NoError(t, err)
		for _, stage := range stages {
			require.Equal(t, request.StageStatusCompleted, stage.Status)
		}
		require.Equal(t, comment, *stages[0].Comment)
		require.Equal(t, request.ActionRecommended, *stages[0].Action)
		require.NotNil(t, stages[0].ActedAt)
	})

	t.Run("rejection is terminal at any position", func(t *testing.T) {
		f := newFixture(t)
		detail := f.createRequest(t, approveStage(f.approver, 1), approveStage(f.reviewer, 2))
		_, err := f.workflow.Submit(f.ctx, f.creator, detail.ID)
		require.NoError(t, err)

		result, err := f.workflow.Act(f.ctx, f.approver, detail.Stages[0].ID, request.ActionRejected, nil)
		require.NoError(t, err)
		require.Equal(t, request.StatusRejected, result.Status)
		require.Nil(t, result.NextStage)

		stored, err := f.repo.GetByID(f.ctx, detail.ID)
		require.NoError(t, err)
		require.Nil(t, stored.CurrentStageID)
		require.NotNil(t, stored.CompletedAt)

		// Rejection does not sweep the remaining stages; only cancellation
		// does.
		stages, err := f.repo.GetStages(f.ctx, detail.ID)
		require.NoError(t, err)
		require.Equal(t, request.StageStatusCompleted, stages[0].Status)
		require.Equal(t, request.StageStatusPending, stages[1].Status)
	})

	t.Run("out of order act fails even for the correct assignee", func(t *testing.T) {
		f := newFixture(t)
		detail := f.createRequest(t, recommendStage(f.reviewer, 1), approveStage(f.approver, 2))
		_, err := f.workflow.Submit(f.ctx, f.creator, detail.ID)
		require.NoError(t, err)

		_, err = f.workflow.Act(f.ctx, f.approver, detail.Stages[1].ID, request.ActionRejected, nil)
		requireCode(t, err, services.CodeOutOfOrder)
	})

	t.Run("wrong assignee fails", func(t *testing.T) {
		f := newFixture(t)
		detail := f.createRequest(t, recommendStage(f.reviewer, 1))
		_, err := f.workflow.Submit(f.ctx, f.creator, detail.ID)
		require.NoError(t, err)

		_, err = f.workflow.Act(f.ctx, f.approver, detail.Stages[0].ID, request.ActionRecommended, nil)
		requireCode(t, err, services.CodeForbidden)
	})

	t.Run("action must match stage type", func(t *testing.T) {
		f := newFixture(t)
		detail := f.createRequest(t, recommendStage(f.reviewer, 1))
		_, err := f.workflow.Submit(f.ctx, f.creator, detail.ID)
		require.NoError(t, err)

		_, err = f.workflow.Act(f.ctx, f.reviewer, detail.Stages[0].ID, request.ActionApproved, nil)
		requireCode(t, err, services.CodeInvalidAction)

		_, err = f.workflow.Act(f.ctx, f.reviewer, detail.Stages[0].ID, request.ActionRejected, nil)
		requireCode(t, err, services.CodeInvalidAction)
	})

	t.Run("acting twice on the same stage fails", func(t *testing.T) {
		f := newFixture(t)
		detail := f.createRequest(t, recommendStage(f.reviewer, 1), approveStage(f.approver, 2))
		_, err := f.workflow.Submit(f.ctx, f.creator, detail.ID)
		require.NoError(t, err)

		_, err = f.workflow.Act(f.ctx, f.reviewer, detail.Stages[0].ID, request.ActionRecommended, nil)
		require.NoError(t, err)

		_, err = f.workflow.Act(f.ctx, f.reviewer, detail.Stages[0].ID, request.ActionRecommended, nil)
		requireCode(t, err, services.CodeInvalidState)
	})

	t.Run("single approve stage goes terminal", func(t *testing.T) {
		f := newFixture(t)
		detail := f.createRequest(t, approveStage(f.approver, 1))
		_, err := f.workflow.Submit(f.ctx, f.creator, detail.ID)
		require.NoError(t, err)

		result, err := f.workflow.Act(f.ctx, f.approver, detail.Stages[0].ID, request.ActionApproved, nil)
		require.NoError(t, err)
		require.Equal(t, request.StatusApproved, result.Status)
	})

	t.Run("unknown stage", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.workflow.Act(f.ctx, f.reviewer, uuid.New(), request.ActionApproved, nil)
		requireCode(t, err, services.CodeNotFound)
	})
}

func TestWorkflowService_Cancel(t *testing.T) {
	t.Run("cancel sweeps open stages and keeps completed ones", func(t *testing.T) {
		f := newFixture(t)
		detail := f.createRequest(t,
			recommendStage(f.reviewer, 1),
			approveStage(f.approver, 2),
			approveStage(f.approver, 3),
		)
		_, err := f.workflow.Submit(f.ctx, f.creator, detail.ID)
		require.NoError(t, err)
		comment := "fine by me"
		_, err = f.workflow.Act(f.ctx, f.reviewer, detail.Stages[0].ID, request.ActionRecommended, &comment)
		require.NoError(t, err)

		result, err := f.workflow.Cancel(f.ctx, f.creator, detail.ID)
		require.NoError(t, err)
		require.Equal(t, request.StatusCancelled, result.Status)

		stages, err := f.repo.GetStages(f.ctx, detail.ID)
		require.NoError(t, err)
		require.Equal(t, request.StageStatusCompleted, stages[0].Status)
		require.Equal(t, comment, *stages[0].Comment)
		require.Equal(t, request.StageStatusSkipped, stages[1].Status)
		require.Equal(t, request.StageStatusSkipped, stages[2].Status)

		stored, err := f.repo.GetByID(f.ctx, detail.ID)
		require.NoError(t, err)
		require.Nil(t, stored.CurrentStageID)
		require.NotNil(t, stored.CompletedAt)
	})

	t.Run("terminal requests cannot be cancelled", func(t *testing.T) {
		f := newFixture(t)
		detail := f.createRequest(t, approveStage(f.approver, 1))
		_, err := f.workflow.Submit(f.ctx, f.creator, detail.ID)
		require.NoError(t, err)
		_, err = f.workflow.Act(f.ctx, f.approver, detail.Stages[0].ID, request.ActionApproved, nil)
		require.NoError(t, err)

		_, err = f.workflow.Cancel(f.ctx, f.creator, detail.ID)
		requireCode(t, err, services.CodeInvalidState)
	})

	t.Run("only the creator may cancel", func(t *testing.T) {
		f := newFixture(t)
		detail := f.createRequest(t, approveStage(f.approver, 1))

		_, err := f.workflow.Cancel(f.ctx, f.approver, detail.ID)
		requireCode(t, err, services.CodeForbidden)
	})
}

func TestWorkflowService_Events(t *testing.T) {
	f := newFixture(t)

	var submitted []request.SubmittedEvent
	var advanced []request.StageAdvancedEvent
	var approved []request.ApprovedEvent
	f.bus.Subscribe(func(ev request.SubmittedEvent) { submitted = append(submitted, ev) })
	f.bus.Subscribe(func(ev request.StageAdvancedEvent) { advanced = append(advanced, ev) })
	f.bus.Subscribe(func(ev request.ApprovedEvent) { approved = append(approved, ev) })

	detail := f.createRequest(t, recommendStage(f.reviewer, 1), approveStage(f.approver, 2))
	_, err := f.workflow.Submit(f.ctx, f.creator, detail.ID)
	require.NoError(t, err)
	_, err = f.workflow.Act(f.ctx, f.reviewer, detail.Stages[0].ID, request.ActionRecommended, nil)
	require.NoError(t, err)
	_, err = f.workflow.Act(f.ctx, f.approver, detail.Stages[1].ID, request.ActionApproved, nil)
	require.NoError(t, err)

	require.Len(t, submitted, 1)
	require.Equal(t, f.reviewer, submitted[0].FirstStage.AssigneeID)
	require.Len(t, advanced, 1)
	require.Equal(t, f.approver, advanced[0].NextStage.AssigneeID)
	require.Len(t, approved, 1)
	require.Equal(t, f.creator, approved[0].Request.CreatorID)
}

func TestWorkflowService_PendingActions(t *testing.T) {
	f := newFixture(t)

	first := f.createRequest(t, recommendStage(f.reviewer, 1), approveStage(f.approver, 2))
	second := f.createRequest(t, approveStage(f.reviewer, 1))
	_, err := f.workflow.Submit(f.ctx, f.creator, first.ID)
	require.NoError(t, err)
	_, err = f.workflow.Submit(f.ctx, f.creator, second.ID)
	require.NoError(t, err)

	actions, err := f.workflow.PendingActions(f.ctx, f.reviewer, nil)
	require.NoError(t, err)
	require.Equal(t, 2, actions.Total)
	require.Equal(t, 1, actions.RecommendationsPending)
	require.Equal(t, 1, actions.ApprovalsPending)
	for _, action := range actions.Items {
		require.Equal(t, "Alice", action.Creator.Name)
		require.Equal(t, 0, action.DaysPending)
		require.NotNil(t, action.SubmittedAt)
	}

	recommendOnly := request.StageTypeRecommend
	actions, err = f.workflow.PendingActions(f.ctx, f.reviewer, &recommendOnly)
	require.NoError(t, err)
	require.Equal(t, 1, actions.Total)
	require.Equal(t, first.ID, actions.Items[0].RequestID)

	t.Run("days pending floors to whole days", func(t *testing.T) {
		stored, err := f.repo.GetByID(f.ctx, second.ID)
		require.NoError(t, err)
		past := time.Now().Add(-49 * time.Hour)
		stored.SubmittedAt = &past
		require.NoError(t, f.repo.UpdateState(f.ctx, stored))

		actions, err := f.workflow.PendingActions(f.ctx, f.reviewer, nil)
		require.NoError(t, err)
		for _, action := range actions.Items {
			if action.RequestID == second.ID {
				require.Equal(t, 2, action.DaysPending)
			}
		}
	})

	t.Run("nothing pending for the approver before their turn", func(t *testing.T) {
		actions, err := f.workflow.PendingActions(f.ctx, f.approver, nil)
		require.NoError(t, err)
		require.Equal(t, 0, actions.Total)
	})
}

func TestWorkflowService_History(t *testing.T) {
	f := newFixture(t)
	detail := f.createRequest(t, recommendStage(f.reviewer, 1), approveStage(f.approver, 2))
	_, err := f.workflow.Submit(f.ctx, f.creator, detail.ID)
	require.NoError(t, err)

	t.Run("participants see ordered stages", func(t *testing.T) {
		for _, actor := range []uuid.UUID{f.creator, f.reviewer, f.approver} {
			stages, err := f.workflow.History(f.ctx, actor, detail.ID)
			require.NoError(t, err)
			require.Len(t, stages, 2)
			require.Equal(t, 1, stages[0].OrderIndex)
			require.Equal(t, 2, stages[1].OrderIndex)
			require.Equal(t, "Bob", stages[0].Assignee.Name)
		}
	})

	t.Run("strangers are rejected", func(t *testing.T) {
		_, err := f.workflow.History(f.ctx, uuid.New(), detail.ID)
		requireCode(t, err, services.CodeForbidden)
	})
}
