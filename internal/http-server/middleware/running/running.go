package running

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"rbreg/entity"
	"rbreg/impl/checkin"
	"rbreg/lib/api/cont"
	"rbreg/lib/api/response"
	"rbreg/lib/sl"
)

type EventLoader interface {
	// Load fetches an event regardless of its visibility toggle; check-in
	// reaches hidden events too. Returns nil when the event does not exist.
	LoadEvent(ctx context.Context, uid string) (*entity.Event, error)
}

// New gates the check-in routes on the event's state: check-in must be
// enabled and the current event-local time must fall inside [start, end].
// A missing event passes through so the wrapped handler reports not-found
// itself instead of masking a 404 as a gating failure.
func New(log *slog.Logger, events EventLoader) func(next http.Handler) http.Handler {
	mod := sl.Module("middleware.running")

	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			uid := chi.URLParam(r, "id")
			event, err := events.LoadEvent(r.Context(), uid)
			if err != nil {
				log.With(mod, slog.String("event", uid)).Error("load event", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("Event lookup failed"))
				return
			}
			if event == nil {
				next.ServeHTTP(w, r)
				return
			}
			if status := checkin.Gate(event, time.Now()); status != nil {
				render.Status(r, status.HTTPStatus())
				render.JSON(w, r, response.Failed(status.Code, status.Message))
				return
			}
			next.ServeHTTP(w, r.WithContext(cont.PutEvent(r.Context(), event)))
		}
		return http.HandlerFunc(fn)
	}
}
