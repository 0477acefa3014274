package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/docflow/modules/core/infrastructure/persistence"
	"github.com/iota-uz/docflow/modules/core/presentation/controllers"
	"github.com/iota-uz/docflow/modules/core/services"
	"github.com/iota-uz/docflow/pkg/application"
	"github.com/iota-uz/docflow/pkg/constants"
	"github.com/iota-uz/docflow/pkg/eventbus"
	"github.com/iota-uz/docflow/pkg/middleware"
)

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

func newAuthRouter(t *testing.T) *mux.Router {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	app := application.New(&application.ApplicationOptions{
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})
	userService := services.NewUserService(persistence.NewInmemUserRepository(), app.EventPublisher())
	app.RegisterServices(userService, services.NewAuthService(userService))

	router := mux.NewRouter()
	router.Use(
		middleware.WithLogger(logger),
		middleware.Provide(constants.AppKey, app),
		middleware.Provide(constants.TxKey, fakeTx{}),
	)
	controllers.NewAuthController(app).Register(router)
	controllers.NewUserController(app).Register(router)
	return router
}

func doJSON(t *testing.T, router *mux.Router, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAuthController_RegisterLoginMe(t *testing.T) {
	router := newAuthRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    "alice@example.com",
		"name":     "Alice",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var registered struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		User         struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &registered))
	require.NotEmpty(t, registered.AccessToken)
	require.Equal(t, "alice@example.com", registered.User.Email)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/auth/me", registered.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me struct {
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	require.Equal(t, "Alice", me.Name)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{
		"refresh_token": registered.RefreshToken,
	})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthController_BadCredentials(t *testing.T) {
	router := newAuthRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "ghost@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    "not-an-email",
		"name":     "X",
		"password": "password123",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/auth/me", "garbage-token", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserController_Search(t *testing.T) {
	router := newAuthRouter(t)

	var tokens []string
	for _, u := range []struct{ email, name string }{
		{"alice@example.com", "Alice"},
		{"bob@example.com", "Bob"},
	} {
		rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
			"email":    u.email,
			"name":     u.name,
			"password": "password123",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
		var out struct {
			AccessToken string `json:"access_token"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		tokens = append(tokens, out.AccessToken)
	}

	// The caller is excluded from results by default.
	rec := doJSON(t, router, http.MethodGet, "/api/v1/users?q=", tokens[0], nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Items []struct {
			Name string `json:"name"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Items, 1)
	require.Equal(t, "Bob", list.Items[0].Name)
}
