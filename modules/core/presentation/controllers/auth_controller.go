package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/iota-uz/docflow/modules/core/presentation/controllers/dtos"
	"github.com/iota-uz/docflow/modules/core/services"
	"github.com/iota-uz/docflow/pkg/application"
	"github.com/iota-uz/docflow/pkg/composables"
	"github.com/iota-uz/docflow/pkg/constants"
	"github.com/iota-uz/docflow/pkg/middleware"
)

type AuthController struct {
	app       application.Application
	auth      *services.AuthService
	users     *services.UserService
	apiPrefix string
}

func NewAuthController(app application.Application) application.Controller {
	return &AuthController{
		app:       app,
		auth:      app.Service(services.AuthService{}).(*services.AuthService),
		users:     app.Service(services.UserService{}).(*services.UserService),
		apiPrefix: "/api/v1/auth",
	}
}

func (c *AuthController) Key() string {
	return c.apiPrefix
}

func (c *AuthController) Register(r *mux.Router) {
	public := r.PathPrefix(c.apiPrefix).Subrouter()
	public.HandleFunc("/register", c.RegisterUser).Methods(http.MethodPost)
	public.HandleFunc("/login", c.Login).Methods(http.MethodPost)
	public.HandleFunc("/refresh", c.Refresh).Methods(http.MethodPost)

	private := r.PathPrefix(c.apiPrefix).Subrouter()
	private.Use(middleware.Authorize())
	private.HandleFunc("/me", c.Me).Methods(http.MethodGet)
}

func (c *AuthController) RegisterUser(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)

	var body dtos.RegisterRequest
	if err := decodeJSON(r.Body, &body); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "AUTH_INVALID_BODY", "invalid JSON body")
		return
	}
	if err := constants.Validate.Struct(body); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "AUTH_INVALID_BODY", err.Error())
		return
	}

	u, err := c.users.Register(r.Context(), services.RegisterParams{
		Email:    body.Email,
		Name:     body.Name,
		Password: body.Password,
	})
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	pair, err := c.auth.IssueTokens(u)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, dtos.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
		User:         dtos.NewUserResponse(u),
	})
}

func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)

	var body dtos.LoginRequest
	if err := decodeJSON(r.Body, &body); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "AUTH_INVALID_BODY", "invalid JSON body")
		return
	}
	if err := constants.Validate.Struct(body); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "AUTH_INVALID_BODY", err.Error())
		return
	}

	u, pair, err := c.auth.Authenticate(r.Context(), body.Email, body.Password)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, dtos.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
		User:         dtos.NewUserResponse(u),
	})
}

func (c *AuthController) Refresh(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)

	var body dtos.RefreshRequest
	if err := decodeJSON(r.Body, &body); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "AUTH_INVALID_BODY", "invalid JSON body")
		return
	}
	if err := constants.Validate.Struct(body); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "AUTH_INVALID_BODY", err.Error())
		return
	}

	access, err := c.auth.Refresh(r.Context(), body.RefreshToken)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": access,
		"token_type":   "bearer",
	})
}

func (c *AuthController) Me(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)

	u, err := composables.UseUser(r.Context())
	if err != nil {
		writeAPIError(w, http.StatusUnauthorized, requestID, "AUTH_UNAUTHORIZED", "no authenticated user")
		return
	}
	writeJSON(w, http.StatusOK, dtos.NewUserResponse(u))
}
