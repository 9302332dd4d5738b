// Package checkin implements the attendance state machine behind the four
// check-in channels: the code gate, dynamic self check-in (registered entity
// or anonymous walk-in), registered-email check-in, and the owner's manage
// view. Every channel runs inside the running-window gate; the owner's
// checkin toggle takes precedence over the window.
package checkin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"rbreg/entity"
	"rbreg/internal/database"
	"rbreg/lib/sl"
)

// AnonEntity is the selector value for an anonymous walk-in submission.
const AnonEntity = "anon"

type Checkin struct {
	db  database.Store
	log *slog.Logger
	now func() time.Time
}

func New(db database.Store, log *slog.Logger) *Checkin {
	return &Checkin{
		db:  db,
		log: log.With(sl.Module("checkin")),
		now: time.Now,
	}
}

// Gate evaluates the common preconditions for every check-in channel.
// The checkin toggle is checked before the running window: a disabled event
// answers CI_DISABLED even at the right time with the right code.
func Gate(event *entity.Event, now time.Time) *entity.Status {
	if !event.Settings.Checkin {
		return entity.StatusCiDisabled
	}
	if !event.Running(now) {
		return entity.StatusNotRunning
	}
	return nil
}

// SubmitCode is Channel A: string-exact comparison of the submitted code
// against the event's checkin_code. The caller issues a gate pass on nil.
func (c *Checkin) SubmitCode(event *entity.Event, code string) *entity.Status {
	if code == "" || code != event.CheckinCode {
		return entity.StatusCiInvalid
	}
	return nil
}

// DynamicForm is the Channel B submission: either an existing entity display
// string, or AnonEntity plus both anonymous fields.
type DynamicForm struct {
	Entity      string `json:"entity"`
	Affiliation string `json:"affiliation,omitempty"`
	Name        string `json:"name,omitempty"`
}

// Dynamic is Channel B. passCode is the code carried by the redeemed gate
// pass; it must still equal the event's current code. Entity submissions are
// reverse-resolved to the owning registrant; anonymous submissions append a
// fresh walk-in record and are never matched against registrations.
func (c *Checkin) Dynamic(ctx context.Context, event *entity.Event, passCode string, form *DynamicForm) (*entity.Status, error) {
	if passCode != event.CheckinCode {
		return entity.StatusCiInvalid, nil
	}
	if form.Entity == AnonEntity {
		if form.Affiliation == "" || form.Name == "" {
			return entity.StatusCiInvalid, nil
		}
		record := entity.AnonCheckin{
			Affiliation: form.Affiliation,
			Name:        form.Name,
			Time:        c.now().Unix(),
		}
		path := database.Join("registered_data", event.Uid, "anon", uuid.NewString())
		if err := c.db.Set(ctx, path, record); err != nil {
			return nil, fmt.Errorf("write anon checkin: %w", err)
		}
		c.log.Info("anonymous check-in", slog.String("event", event.Uid))
		return nil, nil
	}

	if form.Entity == "" {
		return entity.StatusCiInvalid, nil
	}
	uid := event.EntityUid(form.Entity)
	if uid == "" {
		return entity.StatusCiInvalid, nil
	}
	if event.Registered[uid].CheckinData.CheckedIn {
		return entity.StatusCiInvalid, nil
	}
	if err := c.mark(ctx, event.Uid, uid); err != nil {
		return nil, err
	}
	c.log.Info("dynamic check-in",
		slog.String("event", event.Uid),
		slog.String("uid", uid),
	)
	return nil, nil
}

// Manual is Channel C: the authenticated caller checks in their own
// registration. The owner cannot use it, strangers have no affiliation.
func (c *Checkin) Manual(ctx context.Context, event *entity.Event, caller *entity.User) (*entity.Status, error) {
	if event.Creator == caller.Uid {
		return entity.StatusEventOwner, nil
	}
	if _, ok := event.Registered[caller.Uid]; !ok {
		return entity.StatusNoAffil, nil
	}
	if err := c.mark(ctx, event.Uid, caller.Uid); err != nil {
		return nil, err
	}
	c.log.Info("manual check-in",
		slog.String("event", event.Uid),
		slog.String("uid", caller.Uid),
	)
	return nil, nil
}

func (c *Checkin) mark(ctx context.Context, eventUid, uid string) error {
	data := entity.CheckinData{CheckedIn: true, Time: c.now().Unix()}
	path := database.Join("events", eventUid, "registered", uid, "checkin_data")
	if err := c.db.Set(ctx, path, data); err != nil {
		return fmt.Errorf("mark checkin: %w", err)
	}
	return nil
}
