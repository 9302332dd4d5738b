package entity

import (
	"net/http"
	"sort"
	"time"

	"rbreg/lib/clock"
	"rbreg/lib/validate"
)

// UnlimitedCapacity is the sentinel for events without a team cap.
const UnlimitedCapacity = -1

// EventSettings are the owner-togglable switches plus bookkeeping stamps.
type EventSettings struct {
	Visible      bool  `json:"visible" bson:"visible"`
	Regis        bool  `json:"regis" bson:"regis"`
	Checkin      bool  `json:"checkin" bson:"checkin"`
	Created      int64 `json:"created" bson:"created"`
	LastModified int64 `json:"last_modified" bson:"last_modified"`
}

// Event is the unit of contention: registrations, settings and check-in
// markers all live inside this one document.
type Event struct {
	Uid         string                  `json:"uid" bson:"-"`
	Name        string                  `json:"name" bson:"name"`
	Date        string                  `json:"date" bson:"date"`
	StartTime   string                  `json:"start_time" bson:"start_time"`
	EndTime     string                  `json:"end_time" bson:"end_time"`
	Timezone    string                  `json:"timezone" bson:"timezone"`
	Description string                  `json:"description" bson:"description"`
	Email       string                  `json:"email" bson:"email"`
	Location    string                  `json:"location" bson:"location"`
	Limit       int                     `json:"limit" bson:"limit"`
	Creator     string                  `json:"creator" bson:"creator"`
	CheckinCode string                  `json:"-" bson:"checkin_code"`
	Settings    EventSettings           `json:"settings" bson:"settings"`
	Registered  map[string]Registration `json:"registered,omitempty" bson:"registered,omitempty"`
}

// StartAt returns the localized start datetime of the event.
func (e *Event) StartAt() (time.Time, error) {
	return clock.Localize(e.Date, e.StartTime, e.Timezone)
}

// EndAt returns the localized end datetime of the event.
func (e *Event) EndAt() (time.Time, error) {
	return clock.Localize(e.Date, e.EndTime, e.Timezone)
}

// Ended reports whether the event end time has passed. A malformed record
// counts as ended so time-gated paths fail closed.
func (e *Event) Ended(now time.Time) bool {
	end, err := e.EndAt()
	if err != nil {
		return true
	}
	return now.After(end)
}

// Running reports whether now falls within the inclusive local-time window
// [start, end] on the event's date.
func (e *Event) Running(now time.Time) bool {
	start, err := e.StartAt()
	if err != nil {
		return false
	}
	end, err := e.EndAt()
	if err != nil {
		return false
	}
	return !now.Before(start) && !now.After(end)
}

// Unlimited reports whether the event has no team capacity cap.
func (e *Event) Unlimited() bool {
	return e.Limit == UnlimitedCapacity
}

// AdmittedTeams counts competitive-role registrations currently holding an
// admitted marker. This is the number the capacity limit is checked against.
func (e *Event) AdmittedTeams() int {
	n := 0
	for _, r := range e.Registered {
		if r.Role == RoleComp && !r.Marker.IsWaitlisted() {
			n++
		}
	}
	return n
}

// Waitlist returns the uids of waitlisted registrations in promotion order,
// oldest enqueue time first.
func (e *Event) Waitlist() []string {
	var uids []string
	for uid, r := range e.Registered {
		if r.Marker.IsWaitlisted() {
			uids = append(uids, uid)
		}
	}
	sort.Slice(uids, func(i, j int) bool {
		a, b := e.Registered[uids[i]].Marker, e.Registered[uids[j]].Marker
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		return uids[i] < uids[j]
	})
	return uids
}

// EntityUid resolves a public display string back to the uid that registered
// it. Returns "" when no registration matches.
func (e *Event) EntityUid(entity string) string {
	for uid, r := range e.Registered {
		if r.Entity == entity {
			return uid
		}
	}
	return ""
}

// PendingEntities lists display strings of registrations not yet checked in,
// in stable order for the check-in picker.
func (e *Event) PendingEntities() []string {
	var entities []string
	for _, r := range e.Registered {
		if !r.CheckinData.CheckedIn {
			entities = append(entities, r.Entity)
		}
	}
	sort.Strings(entities)
	return entities
}

// EventForm is the inbound event creation/update payload. Field-level
// validation codes (missing name, bad time order and so on) come from the
// registry; the tags only pin the payload shape.
type EventForm struct {
	Name        string `json:"name"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Timezone    string `json:"timezone"`
	Description string `json:"description"`
	Email       string `json:"email" validate:"omitempty,email"`
	Location    string `json:"location"`
	Limit       int    `json:"limit"`
}

func (f *EventForm) Bind(_ *http.Request) error {
	return validate.Struct(f)
}

// SettingsForm carries owner toggle updates. Pointers distinguish "leave
// alone" from "set false".
type SettingsForm struct {
	Visible *bool `json:"visible,omitempty"`
	Regis   *bool `json:"regis,omitempty"`
	Checkin *bool `json:"checkin,omitempty"`
}

func (f *SettingsForm) Bind(_ *http.Request) error {
	return nil
}
