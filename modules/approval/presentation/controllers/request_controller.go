package controllers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/iota-uz/docflow/modules/approval/domain/request"
	"github.com/iota-uz/docflow/modules/approval/presentation/controllers/dtos"
	"github.com/iota-uz/docflow/modules/approval/services"
	"github.com/iota-uz/docflow/pkg/application"
	"github.com/iota-uz/docflow/pkg/constants"
	"github.com/iota-uz/docflow/pkg/middleware"
)

type RequestController struct {
	app       application.Application
	requests  *services.RequestService
	workflow  *services.WorkflowService
	apiPrefix string
}

func NewRequestController(app application.Application) application.Controller {
	return &RequestController{
		app:       app,
		requests:  app.Service(services.RequestService{}).(*services.RequestService),
		workflow:  app.Service(services.WorkflowService{}).(*services.WorkflowService),
		apiPrefix: "/api/v1/requests",
	}
}

func (c *RequestController) Key() string {
	return c.apiPrefix
}

func (c *RequestController) Register(r *mux.Router) {
	api := r.PathPrefix(c.apiPrefix).Subrouter()
	api.Use(middleware.Authorize())

	api.HandleFunc("", c.Create).Methods(http.MethodPost)
	api.HandleFunc("", c.List).Methods(http.MethodGet)
	api.HandleFunc("/{id}", c.Get).Methods(http.MethodGet)
	api.HandleFunc("/{id}", c.Update).Methods(http.MethodPatch)
	api.HandleFunc("/{id}", c.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/{id}:submit", c.Submit).Methods(http.MethodPost)
	api.HandleFunc("/{id}:cancel", c.Cancel).Methods(http.MethodPost)
	api.HandleFunc("/{id}/workflow", c.Workflow).Methods(http.MethodGet)
	api.HandleFunc("/{id}/comments", c.ListComments).Methods(http.MethodGet)
	api.HandleFunc("/{id}/comments", c.AddComment).Methods(http.MethodPost)
}

func (c *RequestController) Create(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	actorID, ok := requireActor(w, r, requestID)
	if !ok {
		return
	}

	var body dtos.CreateRequestRequest
	if err := decodeJSON(r.Body, &body); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "APPROVAL_INVALID_BODY", "invalid JSON body")
		return
	}
	if err := constants.Validate.Struct(body); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "APPROVAL_INVALID_BODY", err.Error())
		return
	}

	input := services.CreateRequestInput{
		Title:       body.Title,
		Description: body.Description,
		Stages:      make([]services.CreateStageInput, 0, len(body.Stages)),
	}
	for _, stage := range body.Stages {
		stageType, err := request.ParseStageType(stage.StageType)
		if err != nil {
			writeAPIError(w, http.StatusBadRequest, requestID, "APPROVAL_INVALID_BODY", err.Error())
			return
		}
		input.Stages = append(input.Stages, services.CreateStageInput{
			Type:       stageType,
			AssigneeID: stage.AssigneeID,
			OrderIndex: stage.OrderIndex,
		})
	}

	detail, err := c.requests.Create(r.Context(), actorID, input)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, detail)
}

func (c *RequestController) List(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	actorID, ok := requireActor(w, r, requestID)
	if !ok {
		return
	}

	params := &request.ListParams{
		IncludeAssigned: r.URL.Query().Get("include_assigned") == "true",
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := request.ParseStatus(raw)
		if err != nil {
			writeAPIError(w, http.StatusBadRequest, requestID, "APPROVAL_INVALID_QUERY", err.Error())
			return
		}
		params.Status = &status
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			writeAPIError(w, http.StatusBadRequest, requestID, "APPROVAL_INVALID_QUERY", "limit must be a positive integer")
			return
		}
		params.Limit = limit
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			writeAPIError(w, http.StatusBadRequest, requestID, "APPROVAL_INVALID_QUERY", "offset must be a non-negative integer")
			return
		}
		params.Offset = offset
	}

	list, err := c.requests.List(r.Context(), actorID, params)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (c *RequestController) Get(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	actorID, ok := requireActor(w, r, requestID)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, requestID, "id")
	if !ok {
		return
	}

	detail, err := c.requests.GetByID(r.Context(), actorID, id)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (c *RequestController) Update(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	actorID, ok := requireActor(w, r, requestID)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, requestID, "id")
	if !ok {
		return
	}

	var body dtos.UpdateRequestRequest
	if err := decodeJSON(r.Body, &body); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "APPROVAL_INVALID_BODY", "invalid JSON body")
		return
	}
	if err := constants.Validate.Struct(body); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "APPROVAL_INVALID_BODY", err.Error())
		return
	}

	detail, err := c.requests.Update(r.Context(), actorID, id, services.UpdateRequestInput{
		Title:       body.Title,
		Description: body.Description,
	})
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (c *RequestController) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	actorID, ok := requireActor(w, r, requestID)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, requestID, "id")
	if !ok {
		return
	}

	if err := c.requests.Delete(r.Context(), actorID, id); err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *RequestController) Submit(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	actorID, ok := requireActor(w, r, requestID)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, requestID, "id")
	if !ok {
		return
	}

	result, err := c.workflow.Submit(r.Context(), actorID, id)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (c *RequestController) Cancel(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	actorID, ok := requireActor(w, r, requestID)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, requestID, "id")
	if !ok {
		return
	}

	result, err := c.workflow.Cancel(r.Context(), actorID, id)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (c *RequestController) Workflow(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	actorID, ok := requireActor(w, r, requestID)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, requestID, "id")
	if !ok {
		return
	}

	stages, err := c.workflow.History(r.Context(), actorID, id)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"stages": stages})
}

func (c *RequestController) ListComments(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	actorID, ok := requireActor(w, r, requestID)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, requestID, "id")
	if !ok {
		return
	}

	comments, err := c.requests.ListComments(r.Context(), actorID, id)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": comments})
}

func (c *RequestController) AddComment(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	actorID, ok := requireActor(w, r, requestID)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, requestID, "id")
	if !ok {
		return
	}

	var body dtos.CreateCommentRequest
	if err := decodeJSON(r.Body, &body); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "APPROVAL_INVALID_BODY", "invalid JSON body")
		return
	}
	if err := constants.Validate.Struct(body); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "APPROVAL_INVALID_BODY", err.Error())
		return
	}

	comment, err := c.requests.AddComment(r.Context(), actorID, id, body.Comment)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}
