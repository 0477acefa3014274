package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	coreservices "github.com/iota-uz/docflow/modules/core/services"
	"github.com/iota-uz/docflow/pkg/application"
	"github.com/iota-uz/docflow/pkg/composables"
	"github.com/iota-uz/docflow/pkg/constants"
)

// Authorize validates the Bearer access token and places the authenticated
// user into the request context. Requires Provide(constants.AppKey, app)
// earlier in the chain.
func Authorize() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			app, ok := r.Context().Value(constants.AppKey).(application.Application)
			if !ok {
				writeUnauthorized(w, r, "application not configured")
				return
			}
			token := BearerToken(r)
			if token == "" {
				writeUnauthorized(w, r, "missing bearer token")
				return
			}

			auth := app.Service(coreservices.AuthService{}).(*coreservices.AuthService)
			users := app.Service(coreservices.UserService{}).(*coreservices.UserService)

			claims, err := auth.VerifyToken(token, coreservices.TokenTypeAccess)
			if err != nil {
				writeUnauthorized(w, r, "invalid or expired token")
				return
			}
			u, err := users.GetByID(r.Context(), claims.UserID)
			if err != nil {
				writeUnauthorized(w, r, "user not found")
				return
			}

			ctx := composables.WithUser(r.Context(), u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, r *http.Request, message string) {
	meta := map[string]string{}
	if requestID, ok := composables.UseRequestID(r.Context()); ok {
		meta["request_id"] = requestID
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"code":    "AUTH_UNAUTHORIZED",
		"message": message,
		"meta":    meta,
	})
}
