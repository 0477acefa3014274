package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/iota-uz/docflow/modules/approval/domain/request"
	"github.com/iota-uz/docflow/modules/approval/presentation/controllers/dtos"
	"github.com/iota-uz/docflow/modules/approval/services"
	"github.com/iota-uz/docflow/pkg/application"
	"github.com/iota-uz/docflow/pkg/constants"
	"github.com/iota-uz/docflow/pkg/middleware"
)

type WorkflowController struct {
	app       application.Application
	workflow  *services.WorkflowService
	apiPrefix string
}

func NewWorkflowController(app application.Application) application.Controller {
	return &WorkflowController{
		app:       app,
		workflow:  app.Service(services.WorkflowService{}).(*services.WorkflowService),
		apiPrefix: "/api/v1/workflow",
	}
}

func (c *WorkflowController) Key() string {
	return c.apiPrefix
}

func (c *WorkflowController) Register(r *mux.Router) {
	api := r.PathPrefix(c.apiPrefix).Subrouter()
	api.Use(middleware.Authorize())

	api.HandleFunc("/stages/{id}:act", c.Act).Methods(http.MethodPost)
	api.HandleFunc("/pending-actions", c.PendingActions).Methods(http.MethodGet)
}

func (c *WorkflowController) Act(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	actorID, ok := requireActor(w, r, requestID)
	if !ok {
		return
	}
	stageID, ok := pathUUID(w, r, requestID, "id")
	if !ok {
		return
	}

	var body dtos.ActRequest
	if err := decodeJSON(r.Body, &body); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "APPROVAL_INVALID_BODY", "invalid JSON body")
		return
	}
	if err := constants.Validate.Struct(body); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "APPROVAL_INVALID_BODY", err.Error())
		return
	}
	action, err := request.ParseStageAction(body.Action)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "APPROVAL_INVALID_BODY", err.Error())
		return
	}

	result, err := c.workflow.Act(r.Context(), actorID, stageID, action, body.Comment)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (c *WorkflowController) PendingActions(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	actorID, ok := requireActor(w, r, requestID)
	if !ok {
		return
	}

	var typeFilter *request.StageType
	if raw := r.URL.Query().Get("stage_type"); raw != "" {
		stageType, err := request.ParseStageType(raw)
		if err != nil {
			writeAPIError(w, http.StatusBadRequest, requestID, "APPROVAL_INVALID_QUERY", err.Error())
			return
		}
		typeFilter = &stageType
	}

	actions, err := c.workflow.PendingActions(r.Context(), actorID, typeFilter)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, actions)
}
