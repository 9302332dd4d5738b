package account

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"rbreg/entity"
	"rbreg/lib/api/cont"
	"rbreg/lib/api/response"
	"rbreg/lib/sl"
)

type Core interface {
	CompleteProfile(ctx context.Context, user *entity.User, form *entity.ProfileForm) (*entity.User, error)
	DeleteAccount(ctx context.Context, uid string) error
}

func requestLog(log *slog.Logger, r *http.Request) *slog.Logger {
	return log.With(
		sl.Module("http.handlers.account"),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// Profile returns the authenticated user's own record.
func Profile(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := cont.GetUser(r.Context())
		render.JSON(w, r, response.Ok(user))
	}
}

// Setup stores the profile fields a fresh account is missing. Until it
// succeeds the profile gate keeps the rest of the api closed.
func Setup(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLog(log, r)
		user := cont.GetUser(r.Context())

		var form entity.ProfileForm
		if err := render.Bind(r, &form); err != nil {
			logger.Error("bind request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request payload"))
			return
		}

		updated, err := handler.CompleteProfile(r.Context(), user, &form)
		if err != nil {
			logger.Error("complete profile", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Profile update failed"))
			return
		}

		logger.Info("profile updated", slog.String("user", updated.Uid))
		render.JSON(w, r, response.Ok(updated))
	}
}

// Delete removes the account and every event it owns.
func Delete(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLog(log, r)
		user := cont.GetUser(r.Context())

		if err := handler.DeleteAccount(r.Context(), user.Uid); err != nil {
			logger.Error("delete account", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Account deletion failed"))
			return
		}

		logger.Info("account deleted", slog.String("user", user.Uid))
		render.JSON(w, r, response.Ok(nil))
	}
}
