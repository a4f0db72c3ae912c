package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/ledgersandbox/ledger-sandbox/internal/http/response"
)

// AdminOnly пропускает только запросы с ролью admin.
func AdminOnly(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsAdmin(r.Context()) {
				log.Warn("admin role required",
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.String("path", r.URL.Path))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("admin role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SelfOrAdmin пропускает запрос, если параметр маршрута param совпадает с ID
// пользователя из токена, либо запрос выполняет администратор.
func SelfOrAdmin(param string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, _ := UserIDFrom(r.Context())
			if IsAdmin(r.Context()) || (userID != "" && chi.URLParam(r, param) == userID) {
				next.ServeHTTP(w, r)
				return
			}
			log.Warn("access to another user's resources denied",
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("user_id", userID))
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("unauthorized"))
		})
	}
}
