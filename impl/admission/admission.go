// Package admission decides whether a registration attempt is admitted,
// waitlisted or rejected, and promotes waitlisted entries when capacity
// frees up.
//
// The uniqueness and capacity checks are read-then-write against a store
// with no transactions or compare-and-swap: two simultaneous registrations
// can both pass before either write lands. That is the store's documented
// consistency model, not something to paper over with an in-process lock.
package admission

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"rbreg/entity"
	"rbreg/internal/database"
	"rbreg/lib/sl"
)

type Admission struct {
	db  database.Store
	log *slog.Logger
	now func() time.Time
}

func New(db database.Store, log *slog.Logger) *Admission {
	return &Admission{
		db:  db,
		log: log.With(sl.Module("admission")),
		now: time.Now,
	}
}

// Register runs the admission algorithm for caller against event. A nil
// status means the entry was admitted; StatusEventFull means it was recorded
// on the waitlist; any other status is a rejection and nothing was written.
func (a *Admission) Register(ctx context.Context, event *entity.Event, caller *entity.User, form *entity.RegisterForm) (*entity.Status, error) {
	if event.Creator == caller.Uid {
		return entity.StatusRegisOwner, nil
	}
	if _, ok := event.Registered[caller.Uid]; ok {
		return entity.StatusAlreadyRegis, nil
	}
	if !event.Settings.Regis {
		return entity.StatusRegisDisabled, nil
	}
	// Closing is derived from the event clock, not a stored flag, so a stale
	// regis toggle can never reopen a finished event.
	if event.Ended(a.now()) {
		return entity.StatusAutoClosed, nil
	}

	private := form.Form
	if private.ContactName == "" {
		private.ContactName = caller.FullName()
	}
	if caller.Email != "" {
		private.ContactEmail = caller.Email
	}
	return a.admit(ctx, event, caller.Uid, form.Role, &private)
}

// RegisterManual is the owner's at-the-door override: it records a walk-up
// registration under a generated identifier on behalf of a third party. The
// owner and idempotency short-circuits do not apply, capacity and uniqueness
// still do.
func (a *Admission) RegisterManual(ctx context.Context, event *entity.Event, callerUid string, form *entity.RegisterForm) (string, *entity.Status, error) {
	if event.Creator != callerUid {
		return "", entity.StatusForbidden, nil
	}
	guestUid := "manual-" + uuid.NewString()
	status, err := a.admit(ctx, event, guestUid, form.Role, &form.Form)
	if err != nil || (status != nil && status != entity.StatusEventFull) {
		return "", status, err
	}
	return guestUid, status, nil
}

func (a *Admission) admit(ctx context.Context, event *entity.Event, uid, role string, private *entity.RegistrationForm) (*entity.Status, error) {
	if !private.Complete(role) {
		return entity.StatusBadFields, nil
	}
	if a.repNameTaken(event, private.RepName) {
		// Best-effort: checked against the snapshot read for this request.
		return entity.StatusRepNameTaken, nil
	}

	now := a.now().Unix()
	marker := entity.Admitted(now)
	var outcome *entity.Status
	if role == entity.RoleComp && !event.Unlimited() && event.AdmittedTeams() >= event.Limit {
		marker = entity.Waitlisted(now)
		outcome = entity.StatusEventFull
	}

	public := entity.Registration{
		Role:   role,
		Marker: marker,
		Entity: private.EntityName(),
		CheckinData: entity.CheckinData{
			CheckedIn: false,
			Time:      0,
		},
	}
	if err := a.db.Set(ctx, database.Join("events", event.Uid, "registered", uid), public); err != nil {
		return nil, fmt.Errorf("write registration: %w", err)
	}
	if err := a.db.Set(ctx, database.Join("registered_data", event.Uid, "forms", uid), private); err != nil {
		return nil, fmt.Errorf("write registration data: %w", err)
	}
	a.log.Info("registration recorded",
		slog.String("event", event.Uid),
		slog.String("uid", uid),
		slog.String("role", role),
		slog.Bool("waitlisted", marker.IsWaitlisted()),
	)
	return outcome, nil
}

// repNameTaken checks the representing name case-insensitively against every
// current registration's public entity string.
func (a *Admission) repNameTaken(event *entity.Event, repName string) bool {
	for _, r := range event.Registered {
		parts := strings.SplitN(r.Entity, " | ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[1], repName) {
			return true
		}
	}
	return false
}

// Unregister removes caller's registration and promotes waitlisted entries
// into the freed capacity, oldest wait first.
func (a *Admission) Unregister(ctx context.Context, event *entity.Event, callerUid string) (*entity.Status, error) {
	if event.Creator == callerUid {
		return entity.StatusRegisOwner, nil
	}
	reg, ok := event.Registered[callerUid]
	if !ok {
		return entity.StatusRegisNotFound, nil
	}
	if event.Ended(a.now()) {
		// Records are frozen once the event concludes.
		return entity.StatusRegisFail, nil
	}
	if reg.CheckinData.CheckedIn {
		// Checked-in entries stay put to preserve the attendance audit trail.
		return entity.StatusRegisFail, nil
	}

	if err := a.db.Remove(ctx, database.Join("events", event.Uid, "registered", callerUid)); err != nil {
		return nil, fmt.Errorf("remove registration: %w", err)
	}
	if err := a.db.Remove(ctx, database.Join("registered_data", event.Uid, "forms", callerUid)); err != nil {
		return nil, fmt.Errorf("remove registration data: %w", err)
	}
	delete(event.Registered, callerUid)

	if err := a.promote(ctx, event); err != nil {
		return nil, err
	}
	a.log.Info("registration removed",
		slog.String("event", event.Uid),
		slog.String("uid", callerUid),
	)
	return nil, nil
}

// promote fills free capacity from the waitlist in FIFO order, as computed
// from the snapshot held in event. Promotion rewrites the marker to a plain
// admission at the current time.
func (a *Admission) promote(ctx context.Context, event *entity.Event) error {
	if event.Unlimited() {
		return nil
	}
	admitted := event.AdmittedTeams()
	for _, uid := range event.Waitlist() {
		if admitted >= event.Limit {
			break
		}
		marker := entity.Admitted(a.now().Unix())
		path := database.Join("events", event.Uid, "registered", uid, "marker")
		if err := a.db.Set(ctx, path, marker); err != nil {
			return fmt.Errorf("promote %s: %w", uid, err)
		}
		reg := event.Registered[uid]
		reg.Marker = marker
		event.Registered[uid] = reg
		admitted++
		a.log.Info("waitlist promotion",
			slog.String("event", event.Uid),
			slog.String("uid", uid),
		)
	}
	return nil
}
