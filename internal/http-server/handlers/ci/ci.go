package ci

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"rbreg/entity"
	"rbreg/impl/checkin"
	"rbreg/lib/api/cont"
	"rbreg/lib/api/response"
	"rbreg/lib/sl"
)

// PassHeader carries the gate pass on Channel B requests.
const PassHeader = "X-Gate-Pass"

type Core interface {
	IssueGatePass(event *entity.Event, code string) (string, *entity.Status, error)
	VerifyGatePass(passToken, eventUid string) bool
	DynamicCheckin(ctx context.Context, event *entity.Event, passToken string, form *checkin.DynamicForm) (*entity.Status, error)
	ManualCheckin(ctx context.Context, event *entity.Event, caller *entity.User) (*entity.Status, error)
}

func reject(w http.ResponseWriter, r *http.Request, st *entity.Status) {
	render.Status(r, st.HTTPStatus())
	render.JSON(w, r, response.Failed(st.Code, st.Message))
}

// gateEvent returns the event loaded by the running gate, reporting the
// not-found the gate passed through when there is none.
func gateEvent(w http.ResponseWriter, r *http.Request) *entity.Event {
	event := cont.GetEvent(r.Context())
	if event == nil {
		reject(w, r, entity.StatusNotFound)
	}
	return event
}

func requestLog(log *slog.Logger, r *http.Request) *slog.Logger {
	return log.With(
		sl.Module("http.handlers.ci"),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("event", chi.URLParam(r, "id")),
	)
}

type codeRequest struct {
	Code string `json:"code"`
}

func (c *codeRequest) Bind(_ *http.Request) error {
	if c.Code == "" {
		return fmt.Errorf("code is required")
	}
	return nil
}

// Code is Channel A: trade the printed check-in code for a gate pass.
// The running middleware has already vetoed disabled or out-of-window
// events, so only the code itself is judged here.
func Code(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLog(log, r)
		event := gateEvent(w, r)
		if event == nil {
			return
		}

		var req codeRequest
		if err := render.Bind(r, &req); err != nil {
			logger.Error("bind request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request payload"))
			return
		}

		pass, status, err := handler.IssueGatePass(event, req.Code)
		if err != nil {
			logger.Error("issue gate pass", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Check-in unavailable"))
			return
		}
		if status != nil {
			reject(w, r, status)
			return
		}

		logger.Info("gate pass issued")
		render.JSON(w, r, response.Ok(map[string]string{"pass": pass}))
	}
}

// Pending is Channel B's entity listing: the not-yet-checked-in display
// strings a visitor picks from. A valid gate pass is required but not
// spent.
func Pending(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLog(log, r)
		event := gateEvent(w, r)
		if event == nil {
			return
		}

		if !handler.VerifyGatePass(r.Header.Get(PassHeader), event.Uid) {
			logger.Debug("gate pass rejected")
			reject(w, r, entity.StatusCiInvalid)
			return
		}

		render.JSON(w, r, response.Ok(map[string]interface{}{
			"entities": event.PendingEntities(),
		}))
	}
}

type dynamicRequest struct {
	checkin.DynamicForm
}

func (d *dynamicRequest) Bind(_ *http.Request) error {
	if d.Entity == "" {
		return fmt.Errorf("entity is required")
	}
	return nil
}

// Dynamic is Channel B's submission: an entity pick or an anonymous
// walk-in, authorised by the gate pass from Channel A.
func Dynamic(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLog(log, r)
		event := gateEvent(w, r)
		if event == nil {
			return
		}

		var req dynamicRequest
		if err := render.Bind(r, &req); err != nil {
			logger.Error("bind request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request payload"))
			return
		}

		status, err := handler.DynamicCheckin(r.Context(), event, r.Header.Get(PassHeader), &req.DynamicForm)
		if err != nil {
			logger.Error("dynamic checkin", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Check-in failed"))
			return
		}
		if status != nil {
			reject(w, r, status)
			return
		}

		logger.Info("dynamic checkin", slog.String("entity", req.Entity))
		render.JSON(w, r, response.Ok(nil))
	}
}

// Manual is Channel C: a signed-in registrant checks themselves in
// without a code. The event creator is refused, everyone else must
// hold a registration.
func Manual(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLog(log, r)
		event := gateEvent(w, r)
		if event == nil {
			return
		}
		user := cont.GetUser(r.Context())

		status, err := handler.ManualCheckin(r.Context(), event, user)
		if err != nil {
			logger.Error("manual checkin", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Check-in failed"))
			return
		}
		if status != nil {
			reject(w, r, status)
			return
		}

		logger.Info("manual checkin", slog.String("user", user.Uid))
		render.JSON(w, r, response.Ok(nil))
	}
}
