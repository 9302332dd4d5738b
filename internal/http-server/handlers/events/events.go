package events

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"rbreg/entity"
	"rbreg/impl/registry"
	"rbreg/lib/api/cont"
	"rbreg/lib/api/response"
	"rbreg/lib/sl"
)

type Core interface {
	CreateEvent(ctx context.Context, owner *entity.User, form *entity.EventForm) (*entity.Event, *entity.Status, error)
	GetEvent(ctx context.Context, uid, callerUid string) (*entity.Event, *entity.Status, error)
	UpdateEvent(ctx context.Context, uid, callerUid string, fields *entity.EventForm, settings *entity.SettingsForm) (*entity.Status, error)
	DeleteEvent(ctx context.Context, uid, callerUid string) (*entity.Status, error)
	MyEvents(ctx context.Context, uid string) (owned, registered map[string]entity.Event, err error)
	ManageEvent(ctx context.Context, uid, callerUid string) (*registry.ManageData, *entity.Status, error)
	AutoOpen(ctx context.Context, uid string) (*registry.AutoOpen, *entity.Status, error)
}

func reject(w http.ResponseWriter, r *http.Request, st *entity.Status) {
	render.Status(r, st.HTTPStatus())
	render.JSON(w, r, response.Failed(st.Code, st.Message))
}

func requestLog(log *slog.Logger, r *http.Request) *slog.Logger {
	return log.With(
		sl.Module("http.handlers.events"),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

func Create(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLog(log, r)
		user := cont.GetUser(r.Context())

		var form entity.EventForm
		if err := render.Bind(r, &form); err != nil {
			logger.Error("bind request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request payload"))
			return
		}

		event, status, err := handler.CreateEvent(r.Context(), user, &form)
		if err != nil {
			logger.Error("create event", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Event creation failed"))
			return
		}
		if status != nil {
			reject(w, r, status)
			return
		}
		logger.Debug("event created", slog.String("event", event.Uid))
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.Ok(event))
	}
}

// eventView augments the raw event with the derived fields the event page
// renders: the admitted team count against the limit and the time-derived
// availability of registration and check-in.
type eventView struct {
	*entity.Event
	AdmittedTeams int  `json:"admitted_teams"`
	Running       bool `json:"running"`
	CanRegister   bool `json:"can_register"`
}

func viewOf(event *entity.Event, now time.Time) eventView {
	canRegister := false
	if start, err := event.StartAt(); err == nil {
		canRegister = event.Settings.Regis && start.After(now)
	}
	return eventView{
		Event:         event,
		AdmittedTeams: event.AdmittedTeams(),
		Running:       event.Running(now),
		CanRegister:   canRegister,
	}
}

func View(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLog(log, r)
		user := cont.GetUser(r.Context())
		uid := chi.URLParam(r, "id")

		event, status, err := handler.GetEvent(r.Context(), uid, user.Uid)
		if err != nil {
			logger.Error("fetch event", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Event lookup failed"))
			return
		}
		if status != nil {
			reject(w, r, status)
			return
		}
		render.JSON(w, r, response.Ok(viewOf(event, time.Now())))
	}
}

type updateRequest struct {
	Fields   *entity.EventForm    `json:"fields,omitempty"`
	Settings *entity.SettingsForm `json:"settings,omitempty"`
}

func (u *updateRequest) Bind(_ *http.Request) error { return nil }

func Update(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLog(log, r)
		user := cont.GetUser(r.Context())
		uid := chi.URLParam(r, "id")

		var req updateRequest
		if err := render.Bind(r, &req); err != nil {
			logger.Error("bind request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request payload"))
			return
		}

		status, err := handler.UpdateEvent(r.Context(), uid, user.Uid, req.Fields, req.Settings)
		if err != nil {
			logger.Error("update event", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Event update failed"))
			return
		}
		if status != nil {
			reject(w, r, status)
			return
		}
		render.JSON(w, r, response.Ok(nil))
	}
}

func Delete(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLog(log, r)
		user := cont.GetUser(r.Context())
		uid := chi.URLParam(r, "id")

		status, err := handler.DeleteEvent(r.Context(), uid, user.Uid)
		if err != nil {
			logger.Error("delete event", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Event deletion failed"))
			return
		}
		if status != nil {
			reject(w, r, status)
			return
		}
		render.JSON(w, r, response.Ok(nil))
	}
}

// myEvents splits the dashboard listing: events the caller owns, and events
// the caller registered in divided into not-yet-finished and concluded.
type myEvents struct {
	Owned    map[string]entity.Event `json:"owned"`
	Upcoming map[string]entity.Event `json:"upcoming"`
	Done     map[string]entity.Event `json:"done"`
}

func My(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLog(log, r)
		user := cont.GetUser(r.Context())

		owned, registered, err := handler.MyEvents(r.Context(), user.Uid)
		if err != nil {
			logger.Error("list events", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Event listing failed"))
			return
		}
		listing := myEvents{
			Owned:    owned,
			Upcoming: map[string]entity.Event{},
			Done:     map[string]entity.Event{},
		}
		now := time.Now()
		for uid, event := range registered {
			if event.Ended(now) {
				listing.Done[uid] = event
			} else {
				listing.Upcoming[uid] = event
			}
		}
		render.JSON(w, r, response.Ok(listing))
	}
}

func Manage(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLog(log, r)
		user := cont.GetUser(r.Context())
		uid := chi.URLParam(r, "id")

		data, status, err := handler.ManageEvent(r.Context(), uid, user.Uid)
		if err != nil {
			logger.Error("manage view", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Management data lookup failed"))
			return
		}
		if status != nil {
			reject(w, r, status)
			return
		}
		render.JSON(w, r, response.Ok(data))
	}
}

func AutoOpen(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLog(log, r)
		uid := chi.URLParam(r, "id")

		open, status, err := handler.AutoOpen(r.Context(), uid)
		if err != nil {
			logger.Error("auto-open probe", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Event lookup failed"))
			return
		}
		if status != nil {
			reject(w, r, status)
			return
		}
		render.JSON(w, r, response.Ok(open))
	}
}
