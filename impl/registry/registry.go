// Package registry owns the event entity lifecycle: creation with slug
// identifiers, visibility-aware reads, owner-gated mutation and cascading
// deletion.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"regexp"
	"strings"
	"time"

	"rbreg/entity"
	"rbreg/internal/database"
	"rbreg/lib/clock"
	"rbreg/lib/sl"
)

const (
	maxNameLen = 32
	maxLimit   = 999
)

var (
	sanitizeRe = regexp.MustCompile(`[^a-zA-Z0-9 ]+`)
	slugRe     = regexp.MustCompile(`[^a-z0-9]+`)
)

type Registry struct {
	db  database.Store
	log *slog.Logger
	now func() time.Time
}

func New(db database.Store, log *slog.Logger) *Registry {
	return &Registry{
		db:  db,
		log: log.With(sl.Module("registry")),
		now: time.Now,
	}
}

// EventUid derives the slug identifier from a sanitized name and date:
// "FTC Scrimmage" on 2024-03-09 becomes "ftc-scrimmage-20240309".
func EventUid(sanitizedName, date string) string {
	slug := slugRe.ReplaceAllString(strings.ToLower(sanitizedName), "-")
	return strings.Trim(slug, "-") + "-" + strings.ReplaceAll(date, "-", "")
}

// Create validates the form and persists a new event owned by owner. The
// returned status carries one of the creation failure codes; a nil status
// means the event was written.
func (r *Registry) Create(ctx context.Context, owner *entity.User, form *entity.EventForm) (*entity.Event, *entity.Status, error) {
	if form.Name == "" {
		return nil, entity.StatusMissingName, nil
	}
	if form.Date == "" || !clock.ValidDate(form.Date) {
		return nil, entity.StatusMissingDate, nil
	}
	if len(form.Name) > maxNameLen {
		return nil, entity.StatusNameTooLong, nil
	}
	name := strings.TrimSpace(sanitizeRe.ReplaceAllString(form.Name, ""))
	if name == "" {
		return nil, entity.StatusNameInvalid, nil
	}
	if !clock.ValidWall(form.StartTime) || !clock.ValidWall(form.EndTime) {
		return nil, entity.StatusTimeOrder, nil
	}
	if form.StartTime >= form.EndTime {
		// Wall times share the "15:04" layout, so string order is time order.
		return nil, entity.StatusTimeOrder, nil
	}
	if !clock.ValidZone(form.Timezone) {
		return nil, entity.StatusMissingTz, nil
	}
	start, err := clock.Localize(form.Date, form.StartTime, form.Timezone)
	if err != nil {
		return nil, entity.StatusMissingTz, nil
	}
	if !start.After(r.now()) {
		return nil, entity.StatusDateInPast, nil
	}

	uid := EventUid(name, form.Date)
	var existing entity.Event
	found, err := r.db.Get(ctx, database.Join("events", uid), &existing)
	if err != nil {
		return nil, nil, fmt.Errorf("check duplicate: %w", err)
	}
	if found {
		return nil, entity.StatusDuplicateEvent, nil
	}

	limit := form.Limit
	if limit <= 0 {
		limit = entity.UnlimitedCapacity
	} else if limit > maxLimit {
		limit = maxLimit
	}
	email := form.Email
	if email == "" {
		email = owner.Email
	}
	now := r.now().Unix()
	event := &entity.Event{
		Uid:         uid,
		Name:        name,
		Date:        form.Date,
		StartTime:   form.StartTime,
		EndTime:     form.EndTime,
		Timezone:    form.Timezone,
		Description: form.Description,
		Email:       email,
		Location:    form.Location,
		Limit:       limit,
		Creator:     owner.Uid,
		CheckinCode: fmt.Sprintf("%04d", 1000+rand.IntN(9000)),
		Settings: entity.EventSettings{
			Visible:      true,
			Regis:        true,
			Checkin:      true,
			Created:      now,
			LastModified: now,
		},
	}
	if err := r.db.Set(ctx, database.Join("events", uid), event); err != nil {
		return nil, nil, fmt.Errorf("persist event: %w", err)
	}
	r.log.Info("event created",
		slog.String("event", uid),
		slog.String("creator", owner.Uid),
		slog.Int("limit", limit),
	)
	return event, nil, nil
}

// Get returns the event visible to caller. Hidden events exist only for
// their creator; everyone else sees not-found.
func (r *Registry) Get(ctx context.Context, uid, callerUid string) (*entity.Event, *entity.Status, error) {
	event, err := r.fetch(ctx, uid)
	if err != nil {
		return nil, nil, err
	}
	if event == nil {
		return nil, entity.StatusNotFound, nil
	}
	if !event.Settings.Visible && event.Creator != callerUid {
		return nil, entity.StatusNotFound, nil
	}
	return event, nil, nil
}

// Load fetches an event regardless of its visibility toggle. The check-in
// gate uses it: walk-ins arriving by QR code are not blocked by a hidden
// listing. Returns nil when the event does not exist.
func (r *Registry) Load(ctx context.Context, uid string) (*entity.Event, error) {
	return r.fetch(ctx, uid)
}

// fetch loads an event regardless of visibility. Callers gate access.
func (r *Registry) fetch(ctx context.Context, uid string) (*entity.Event, error) {
	var event entity.Event
	found, err := r.db.Get(ctx, database.Join("events", uid), &event)
	if err != nil {
		return nil, fmt.Errorf("fetch event %s: %w", uid, err)
	}
	if !found {
		return nil, nil
	}
	event.Uid = uid
	return &event, nil
}

// Update applies field edits and settings toggles. Non-owners are rejected
// without any write. Any settings change stamps last_modified.
func (r *Registry) Update(ctx context.Context, uid, callerUid string, fields *entity.EventForm, settings *entity.SettingsForm) (*entity.Status, error) {
	event, err := r.fetch(ctx, uid)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return entity.StatusNotFound, nil
	}
	if event.Creator != callerUid {
		return entity.StatusForbidden, nil
	}

	if fields != nil {
		updates := map[string]interface{}{}
		if fields.Description != "" {
			updates["description"] = fields.Description
		}
		if fields.Location != "" {
			updates["location"] = fields.Location
		}
		if fields.Email != "" {
			updates["email"] = fields.Email
		}
		if fields.Limit != 0 {
			limit := fields.Limit
			if limit < 0 {
				limit = entity.UnlimitedCapacity
			} else if limit > maxLimit {
				limit = maxLimit
			}
			updates["limit"] = limit
		}
		if len(updates) > 0 {
			if err := r.db.Update(ctx, database.Join("events", uid), updates); err != nil {
				return nil, fmt.Errorf("update event %s: %w", uid, err)
			}
		}
	}

	if settings != nil {
		updates := map[string]interface{}{}
		if settings.Visible != nil {
			updates["visible"] = *settings.Visible
		}
		if settings.Regis != nil {
			updates["regis"] = *settings.Regis
		}
		if settings.Checkin != nil {
			updates["checkin"] = *settings.Checkin
		}
		if len(updates) > 0 {
			updates["last_modified"] = r.now().Unix()
			if err := r.db.Update(ctx, database.Join("events", uid, "settings"), updates); err != nil {
				return nil, fmt.Errorf("update settings %s: %w", uid, err)
			}
		}
	}
	r.log.Info("event updated", slog.String("event", uid))
	return nil, nil
}

// Delete removes an event and its private registration data. The private
// data goes first: once the parent event record is gone some backends can no
// longer resolve ownership of the children, which would orphan them.
func (r *Registry) Delete(ctx context.Context, uid, callerUid string) (*entity.Status, error) {
	event, err := r.fetch(ctx, uid)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return entity.StatusNotFound, nil
	}
	if event.Creator != callerUid {
		return entity.StatusForbidden, nil
	}
	if err := r.db.Remove(ctx, database.Join("registered_data", uid)); err != nil {
		return nil, fmt.Errorf("delete registration data %s: %w", uid, err)
	}
	if err := r.db.Remove(ctx, database.Join("events", uid)); err != nil {
		return nil, fmt.Errorf("delete event %s: %w", uid, err)
	}
	r.log.Info("event deleted", slog.String("event", uid), slog.String("owner", callerUid))
	return nil, nil
}

// MyEvents splits all events into those owned by uid and those uid is
// registered in. Registered events must be currently visible; owned events
// are always listed. The scan runs client-side over the full collection.
func (r *Registry) MyEvents(ctx context.Context, uid string) (owned, registered map[string]entity.Event, err error) {
	owned = map[string]entity.Event{}
	registered = map[string]entity.Event{}

	var events map[string]entity.Event
	found, err := r.db.Get(ctx, "events", &events)
	if err != nil {
		return nil, nil, fmt.Errorf("list events: %w", err)
	}
	if !found {
		return owned, registered, nil
	}
	for id, event := range events {
		event.Uid = id
		if event.Creator == uid {
			owned[id] = event
			continue
		}
		if !event.Settings.Visible {
			continue
		}
		if _, ok := event.Registered[uid]; ok {
			registered[id] = event
		}
	}
	return owned, registered, nil
}

// DeleteAllOwned cascades an account deletion over every event uid owns.
func (r *Registry) DeleteAllOwned(ctx context.Context, uid string) error {
	owned, _, err := r.MyEvents(ctx, uid)
	if err != nil {
		return err
	}
	for id := range owned {
		if _, err := r.Delete(ctx, id, uid); err != nil {
			return err
		}
	}
	return nil
}

// ManageData is the owner-only management view: every private registration
// form plus the anonymous walk-in records.
type ManageData struct {
	Event *entity.Event                      `json:"event"`
	Forms map[string]entity.RegistrationForm `json:"forms"`
	Anon  map[string]entity.AnonCheckin      `json:"anon"`
}

// Manage returns the full registration and check-in state for the owner.
func (r *Registry) Manage(ctx context.Context, uid, callerUid string) (*ManageData, *entity.Status, error) {
	event, err := r.fetch(ctx, uid)
	if err != nil {
		return nil, nil, err
	}
	if event == nil {
		return nil, entity.StatusNotFound, nil
	}
	if event.Creator != callerUid {
		return nil, entity.StatusForbidden, nil
	}
	data := &ManageData{
		Event: event,
		Forms: map[string]entity.RegistrationForm{},
		Anon:  map[string]entity.AnonCheckin{},
	}
	if _, err := r.db.Get(ctx, database.Join("registered_data", uid, "forms"), &data.Forms); err != nil {
		return nil, nil, fmt.Errorf("fetch registration data %s: %w", uid, err)
	}
	if _, err := r.db.Get(ctx, database.Join("registered_data", uid, "anon"), &data.Anon); err != nil {
		return nil, nil, fmt.Errorf("fetch anon checkins %s: %w", uid, err)
	}
	return data, nil, nil
}

// AutoOpen reports the time-derived registration and check-in availability
// for an event, regardless of the owner toggles.
type AutoOpen struct {
	CanRegister bool `json:"can_register"`
	CanCheckin  bool `json:"can_checkin"`
}

func (r *Registry) AutoOpen(ctx context.Context, uid string) (*AutoOpen, *entity.Status, error) {
	event, err := r.fetch(ctx, uid)
	if err != nil {
		return nil, nil, err
	}
	if event == nil {
		return nil, entity.StatusNotFound, nil
	}
	now := r.now()
	start, err := event.StartAt()
	if err != nil {
		return nil, nil, fmt.Errorf("event %s start: %w", uid, err)
	}
	return &AutoOpen{
		CanRegister: start.After(now),
		CanCheckin:  event.Running(now),
	}, nil, nil
}
