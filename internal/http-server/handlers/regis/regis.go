package regis

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"rbreg/entity"
	"rbreg/lib/api/cont"
	"rbreg/lib/api/response"
	"rbreg/lib/sl"
)

type Core interface {
	GetEvent(ctx context.Context, uid, callerUid string) (*entity.Event, *entity.Status, error)
	Register(ctx context.Context, event *entity.Event, caller *entity.User, form *entity.RegisterForm) (*entity.Status, error)
	RegisterManual(ctx context.Context, event *entity.Event, callerUid string, form *entity.RegisterForm) (string, *entity.Status, error)
	Unregister(ctx context.Context, event *entity.Event, callerUid string) (*entity.Status, error)
}

func reject(w http.ResponseWriter, r *http.Request, st *entity.Status) {
	render.Status(r, st.HTTPStatus())
	render.JSON(w, r, response.Failed(st.Code, st.Message))
}

func requestLog(log *slog.Logger, r *http.Request) *slog.Logger {
	return log.With(
		sl.Module("http.handlers.regis"),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("event", chi.URLParam(r, "id")),
	)
}

// loadEvent resolves the routed event for the caller, applying the registry
// visibility rule.
func loadEvent(w http.ResponseWriter, r *http.Request, logger *slog.Logger, handler Core) *entity.Event {
	user := cont.GetUser(r.Context())
	event, status, err := handler.GetEvent(r.Context(), chi.URLParam(r, "id"), user.Uid)
	if err != nil {
		logger.Error("fetch event", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Event lookup failed"))
		return nil
	}
	if status != nil {
		reject(w, r, status)
		return nil
	}
	return event
}

func Register(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLog(log, r)
		user := cont.GetUser(r.Context())

		event := loadEvent(w, r, logger, handler)
		if event == nil {
			return
		}
		var form entity.RegisterForm
		if err := render.Bind(r, &form); err != nil {
			logger.Error("bind request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request payload"))
			return
		}

		status, err := handler.Register(r.Context(), event, user, &form)
		if err != nil {
			logger.Error("register", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Registration failed"))
			return
		}
		if status == entity.StatusEventFull {
			// Recorded, just onto the waitlist.
			render.JSON(w, r, response.Failed(status.Code, status.Message))
			return
		}
		if status != nil {
			reject(w, r, status)
			return
		}
		render.JSON(w, r, response.Ok(nil))
	}
}

func Manual(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLog(log, r)
		user := cont.GetUser(r.Context())

		event := loadEvent(w, r, logger, handler)
		if event == nil {
			return
		}
		var form entity.RegisterForm
		if err := render.Bind(r, &form); err != nil {
			logger.Error("bind request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request payload"))
			return
		}

		guestUid, status, err := handler.RegisterManual(r.Context(), event, user.Uid, &form)
		if err != nil {
			logger.Error("manual register", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Registration failed"))
			return
		}
		if status != nil && status != entity.StatusEventFull {
			reject(w, r, status)
			return
		}
		payload := map[string]string{"uid": guestUid}
		if status == entity.StatusEventFull {
			render.JSON(w, r, response.Failed(status.Code, status.Message))
			return
		}
		render.JSON(w, r, response.Ok(payload))
	}
}

func Unregister(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLog(log, r)
		user := cont.GetUser(r.Context())

		event := loadEvent(w, r, logger, handler)
		if event == nil {
			return
		}
		status, err := handler.Unregister(r.Context(), event, user.Uid)
		if err != nil {
			logger.Error("unregister", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Unregistration failed"))
			return
		}
		if status != nil {
			reject(w, r, status)
			return
		}
		render.JSON(w, r, response.Ok(nil))
	}
}
