package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/iota-uz/docflow/modules/core/domain/aggregates/user"
	"github.com/iota-uz/docflow/modules/core/presentation/controllers/dtos"
	"github.com/iota-uz/docflow/modules/core/services"
	"github.com/iota-uz/docflow/pkg/application"
	"github.com/iota-uz/docflow/pkg/composables"
	"github.com/iota-uz/docflow/pkg/constants"
	"github.com/iota-uz/docflow/pkg/middleware"
)

type UserController struct {
	app       application.Application
	users     *services.UserService
	apiPrefix string
}

func NewUserController(app application.Application) application.Controller {
	return &UserController{
		app:       app,
		users:     app.Service(services.UserService{}).(*services.UserService),
		apiPrefix: "/api/v1/users",
	}
}

func (c *UserController) Key() string {
	return c.apiPrefix
}

func (c *UserController) Register(r *mux.Router) {
	api := r.PathPrefix(c.apiPrefix).Subrouter()
	api.Use(middleware.Authorize())

	api.HandleFunc("", c.Search).Methods(http.MethodGet)
	api.HandleFunc("/me", c.GetProfile).Methods(http.MethodGet)
	api.HandleFunc("/me", c.UpdateProfile).Methods(http.MethodPatch)
	api.HandleFunc("/me:change-password", c.ChangePassword).Methods(http.MethodPost)
}

// Search backs assignee pickers: match by name or email, exclude the
// caller by default.
func (c *UserController) Search(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	u, err := composables.UseUser(r.Context())
	if err != nil {
		writeAPIError(w, http.StatusUnauthorized, requestID, "AUTH_UNAUTHORIZED", "no authenticated user")
		return
	}

	params := &user.FindParams{
		Q:         strings.TrimSpace(r.URL.Query().Get("q")),
		ExcludeID: u.ID(),
	}
	if raw := r.URL.Query().Get("exclude_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeAPIError(w, http.StatusBadRequest, requestID, "USER_INVALID_QUERY", "exclude_id is not a valid uuid")
			return
		}
		params.ExcludeID = id
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			writeAPIError(w, http.StatusBadRequest, requestID, "USER_INVALID_QUERY", "limit must be a positive integer")
			return
		}
		params.Limit = limit
	}

	found, err := c.users.Search(r.Context(), params)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	out := make([]dtos.UserResponse, 0, len(found))
	for _, item := range found {
		out = append(out, dtos.NewUserResponse(item))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": out})
}

func (c *UserController) GetProfile(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	u, err := composables.UseUser(r.Context())
	if err != nil {
		writeAPIError(w, http.StatusUnauthorized, requestID, "AUTH_UNAUTHORIZED", "no authenticated user")
		return
	}
	writeJSON(w, http.StatusOK, dtos.NewUserResponse(u))
}

func (c *UserController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	u, err := composables.UseUser(r.Context())
	if err != nil {
		writeAPIError(w, http.StatusUnauthorized, requestID, "AUTH_UNAUTHORIZED", "no authenticated user")
		return
	}

	var body dtos.UpdateProfileRequest
	if err := decodeJSON(r.Body, &body); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "USER_INVALID_BODY", "invalid JSON body")
		return
	}
	if err := constants.Validate.Struct(body); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "USER_INVALID_BODY", err.Error())
		return
	}

	updated, err := c.users.UpdateProfile(r.Context(), u.ID(), services.UpdateProfileParams{
		Name:  body.Name,
		Email: body.Email,
	})
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, dtos.NewUserResponse(updated))
}

func (c *UserController) ChangePassword(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	u, err := composables.UseUser(r.Context())
	if err != nil {
		writeAPIError(w, http.StatusUnauthorized, requestID, "AUTH_UNAUTHORIZED", "no authenticated user")
		return
	}

	var body dtos.ChangePasswordRequest
	if err := decodeJSON(r.Body, &body); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "USER_INVALID_BODY", "invalid JSON body")
		return
	}
	if err := constants.Validate.Struct(body); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "USER_INVALID_BODY", err.Error())
		return
	}

	if err := c.users.ChangePassword(r.Context(), u.ID(), body.CurrentPassword, body.NewPassword); err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "password changed"})
}
