package services_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/docflow/modules/approval/domain/request"
	"github.com/iota-uz/docflow/modules/approval/services"
)

func TestRequestService_Create(t *testing.T) {
	t.Run("draft with resolved stages", func(t *testing.T) {
		f := newFixture(t)
		detail := f.createRequest(t, recommendStage(f.reviewer, 1), approveStage(f.approver, 2))

		require.Equal(t, request.StatusDraft, detail.Status)
		require.Nil(t, detail.CurrentStageID)
		require.Len(t, detail.Stages, 2)
		require.Equal(t, "Bob", detail.Stages[0].Assignee.Name)
		require.Equal(t, "Alice", detail.Creator.Name)
		require.True(t, detail.CanEdit)
		require.True(t, detail.CanSubmit)
		require.True(t, detail.CanCancel)
	})

	t.Run("empty title fails", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.requests.Create(f.ctx, f.creator, services.CreateRequestInput{Title: "   "})
		requireCode(t, err, services.CodeInvalidBody)
	})

	t.Run("non-contiguous order fails", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.requests.Create(f.ctx, f.creator, services.CreateRequestInput{
			Title:  "Broken",
			Stages: []services.CreateStageInput{recommendStage(f.reviewer, 1), approveStage(f.approver, 3)},
		})
		requireCode(t, err, services.CodeInvalidWorkflow)
	})

	t.Run("unknown assignee fails", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.requests.Create(f.ctx, f.creator, services.CreateRequestInput{
			Title:  "Nobody home",
			Stages: []services.CreateStageInput{recommendStage(uuid.New(), 1)},
		})
		requireCode(t, err, services.CodeInvalidWorkflow)
	})

	t.Run("no stages makes a workflow-less draft", func(t *testing.T) {
		f := newFixture(t)
		detail := f.createRequest(t)
		require.Empty(t, detail.Stages)
		require.False(t, detail.CanSubmit)
	})
}

func TestRequestService_GetByID(t *testing.T) {
	f := newFixture(t)
	detail := f.createRequest(t, recommendStage(f.reviewer, 1))

	t.Run("creator and assignee may view", func(t *testing.T) {
		for _, actor := range []uuid.UUID{f.creator, f.reviewer} {
			got, err := f.requests.GetByID(f.ctx, actor, detail.ID)
			require.NoError(t, err)
			require.Equal(t, detail.ID, got.ID)
		}
	})

	t.Run("view flags depend on the viewer", func(t *testing.T) {
		got, err := f.requests.GetByID(f.ctx, f.reviewer, detail.ID)
		require.NoError(t, err)
		require.False(t, got.CanEdit)
		require.False(t, got.CanSubmit)
		require.False(t, got.CanCancel)
	})

	t.Run("stranger is rejected", func(t *testing.T) {
		_, err := f.requests.GetByID(f.ctx, uuid.New(), detail.ID)
		requireCode(t, err, services.CodeForbidden)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := f.requests.GetByID(f.ctx, f.creator, uuid.New())
		requireCode(t, err, services.CodeNotFound)
	})
}

func TestRequestService_List(t *testing.T) {
	f := newFixture(t)
	mine := f.createRequest(t, recommendStage(f.reviewer, 1))
	f.createRequest(t)

	t.Run("creator sees own requests", func(t *testing.T) {
		list, err := f.requests.List(f.ctx, f.creator, &request.ListParams{})
		require.NoError(t, err)
		require.EqualValues(t, 2, list.Total)
		require.Len(t, list.Items, 2)
	})

	t.Run("assignee sees nothing without include_assigned", func(t *testing.T) {
		list, err := f.requests.List(f.ctx, f.reviewer, &request.ListParams{})
		require.NoError(t, err)
		require.EqualValues(t, 0, list.Total)
	})

	t.Run("include_assigned pulls in assigned requests", func(t *testing.T) {
		list, err := f.requests.List(f.ctx, f.reviewer, &request.ListParams{IncludeAssigned: true})
		require.NoError(t, err)
		require.EqualValues(t, 1, list.Total)
		require.Equal(t, mine.ID, list.Items[0].ID)
	})

	t.Run("status filter", func(t *testing.T) {
		draft := request.StatusDraft
		list, err := f.requests.List(f.ctx, f.creator, &request.ListParams{Status: &draft})
		require.NoError(t, err)
		require.EqualValues(t, 2, list.Total)

		approvedStatus := request.StatusApproved
		list, err = f.requests.List(f.ctx, f.creator, &request.ListParams{Status: &approvedStatus})
		require.NoError(t, err)
		require.EqualValues(t, 0, list.Total)
	})

	t.Run("pagination clamps and offsets", func(t *testing.T) {
		list, err := f.requests.List(f.ctx, f.creator, &request.ListParams{Limit: 1})
		require.NoError(t, err)
		require.EqualValues(t, 2, list.Total)
		require.Len(t, list.Items, 1)

		list, err = f.requests.List(f.ctx, f.creator, &request.ListParams{Limit: 1, Offset: 5})
		require.NoError(t, err)
		require.Empty(t, list.Items)
	})
}

func TestRequestService_Update(t *testing.T) {
	f := newFixture(t)
	detail := f.createRequest(t, recommendStage(f.reviewer, 1))

	t.Run("creator edits a draft", func(t *testing.T) {
		title := "Amended title"
		desc := "now with details"
		got, err := f.requests.Update(f.ctx, f.creator, detail.ID, services.UpdateRequestInput{
			Title:       &title,
			Description: &desc,
		})
		require.NoError(t, err)
		require.Equal(t, title, got.Title)
		require.Equal(t, desc, *got.Description)
	})

	t.Run("non-creator is rejected", func(t *testing.T) {
		title := "hijack"
		_, err := f.requests.Update(f.ctx, f.reviewer, detail.ID, services.UpdateRequestInput{Title: &title})
		requireCode(t, err, services.CodeForbidden)
	})

	t.Run("submitted request is immutable", func(t *testing.T) {
		_, err := f.workflow.Submit(f.ctx, f.creator, detail.ID)
		require.NoError(t, err)

		title := "too late"
		_, err = f.requests.Update(f.ctx, f.creator, detail.ID, services.UpdateRequestInput{Title: &title})
		requireCode(t, err, services.CodeInvalidState)
	})
}

func TestRequestService_Delete(t *testing.T) {
	t.Run("creator deletes a draft", func(t *testing.T) {
		f := newFixture(t)
		detail := f.createRequest(t)
		require.NoError(t, f.requests.Delete(f.ctx, f.creator, detail.ID))

		_, err := f.requests.GetByID(f.ctx, f.creator, detail.ID)
		requireCode(t, err, services.CodeNotFound)
	})

	t.Run("submitted request cannot be deleted", func(t *testing.T) {
		f := newFixture(t)
		detail := f.createRequest(t, recommendStage(f.reviewer, 1))
		_, err := f.workflow.Submit(f.ctx, f.creator, detail.ID)
		require.NoError(t, err)

		err = f.requests.Delete(f.ctx, f.creator, detail.ID)
		requireCode(t, err, services.CodeInvalidState)
	})

	t.Run("non-creator is rejected", func(t *testing.T) {
		f := newFixture(t)
		detail := f.createRequest(t)
		err := f.requests.Delete(f.ctx, f.reviewer, detail.ID)
		requireCode(t, err, services.CodeForbidden)
	})
}

func TestRequestService_Comments(t *testing.T) {
	f := newFixture(t)
	detail := f.createRequest(t, recommendStage(f.reviewer, 1))

	t.Run("participants comment and read back in order", func(t *testing.T) {
		first, err := f.requests.AddComment(f.ctx, f.creator, detail.ID, "please review")
		require.NoError(t, err)
		require.Equal(t, "Alice", first.Author.Name)

		_, err = f.requests.AddComment(f.ctx, f.reviewer, detail.ID, "on it")
		require.NoError(t, err)

		comments, err := f.requests.ListComments(f.ctx, f.creator, detail.ID)
		require.NoError(t, err)
		require.Len(t, comments, 2)
		require.Equal(t, "please review", comments[0].Body)
		require.Equal(t, "on it", comments[1].Body)
	})

	t.Run("empty comment fails", func(t *testing.T) {
		_, err := f.requests.AddComment(f.ctx, f.creator, detail.ID, "  ")
		requireCode(t, err, services.CodeInvalidBody)
	})

	t.Run("stranger may not comment or read", func(t *testing.T) {
		stranger := uuid.New()
		_, err := f.requests.AddComment(f.ctx, stranger, detail.ID, "me too")
		requireCode(t, err, services.CodeForbidden)

		_, err = f.requests.ListComments(f.ctx, stranger, detail.ID)
		requireCode(t, err, services.CodeForbidden)
	})
}
